package irisfast

import (
	"context"
	"strings"
)

type MessageCallback func(message *Message)

type StateCallback func(state WebSocketState)

// WSClient is the chat feed: inbound messages, connection state, and the
// frame writer used by the websocket egress.
type WSClient interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	State() WebSocketState
	WriteJSON(ctx context.Context, v any) error

	OnMessage(cb MessageCallback) int
	RemoveMessageCallback(id int)
	OnStateChange(cb StateCallback) int
	RemoveStateCallback(id int)
}

// MessageFilter decides whether an inbound message reaches a handler.
type MessageFilter func(*Message) bool

// WithPrefix keeps messages whose trimmed text starts with prefix.
func WithPrefix(prefix string) MessageFilter {
	return func(m *Message) bool {
		return strings.HasPrefix(strings.TrimSpace(m.Msg), prefix)
	}
}

// InRooms keeps messages from the listed rooms. An empty list keeps all.
func InRooms(rooms []string) MessageFilter {
	allowed := make(map[string]struct{}, len(rooms))
	for _, r := range rooms {
		if r = strings.TrimSpace(r); r != "" {
			allowed[r] = struct{}{}
		}
	}
	return func(m *Message) bool {
		if len(allowed) == 0 {
			return true
		}
		_, ok := allowed[strings.TrimSpace(m.Room)]
		return ok
	}
}

// Subscribe registers cb for non-empty messages accepted by every filter and
// returns the callback id.
func Subscribe(ws WSClient, cb MessageCallback, filters ...MessageFilter) int {
	return ws.OnMessage(func(m *Message) {
		if m == nil || strings.TrimSpace(m.Msg) == "" {
			return
		}
		for _, f := range filters {
			if !f(m) {
				return
			}
		}
		cb(m)
	})
}
