package irisfast

import (
	"context"
	"errors"
	"time"

	"github.com/park285/Cheese-opening-trainer/internal/util"
	"go.uber.org/zap"
)

// Egress sends text replies to a room.
type Egress interface {
	SendText(ctx context.Context, room, message string) error
}

const (
	ModeHTTP = "http"
	ModeWS   = "ws"
	ModeAuto = "auto"

	wsWriteTimeout = 5 * time.Second
)

var (
	errNoHTTP = errors.New("http egress not available")
	errNoWS   = errors.New("ws egress not available")
)

// egress routes replies by mode. auto prefers a connected websocket and
// falls back to HTTP once per part. Replies longer than one Kakao message
// are sent as consecutive parts.
type egress struct {
	mode   string
	client *Client
	ws     WSClient
	dryrun bool
	limit  int
	logger *zap.Logger
}

// NewEgress builds the reply path for mode (http|ws|auto; anything else is
// http). dryrun logs websocket frames instead of writing them.
func NewEgress(mode string, dryrun bool, c *Client, ws WSClient, logger *zap.Logger) Egress {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &egress{mode: mode, client: c, dryrun: dryrun, limit: util.KakaoMessageLimit, logger: logger}
	// a typed nil *WebSocket must not become a non-nil interface
	if ws != nil {
		if w, ok := ws.(*WebSocket); !ok || w != nil {
			e.ws = ws
		}
	}
	return e
}

func (e *egress) SendText(ctx context.Context, room, message string) error {
	parts := util.SplitMessage(message, e.limit)
	for i, part := range parts {
		if err := e.sendPart(ctx, room, part); err != nil {
			if len(parts) > 1 {
				e.logger.Warn("egress_part_failed", zap.String("room", room), zap.Int("part", i+1), zap.Int("parts", len(parts)))
			}
			return err
		}
	}
	return nil
}

func (e *egress) sendPart(ctx context.Context, room, text string) error {
	switch e.mode {
	case ModeWS:
		return e.viaWS(ctx, room, text)
	case ModeAuto:
		if e.ws != nil && e.ws.State() == WSStateConnected {
			err := e.viaWS(ctx, room, text)
			if err == nil {
				return nil
			}
			e.logger.Warn("egress_fallback", zap.String("room", room), zap.Error(err))
		}
		return e.viaHTTP(ctx, room, text)
	default:
		return e.viaHTTP(ctx, room, text)
	}
}

func (e *egress) viaHTTP(ctx context.Context, room, text string) error {
	if e.client == nil {
		return errNoHTTP
	}
	return e.client.SendMessage(ctx, room, text)
}

func (e *egress) viaWS(ctx context.Context, room, text string) error {
	if e.ws == nil {
		return errNoWS
	}
	if e.dryrun {
		e.logger.Info("ws_egress_dryrun", zap.String("room", room), zap.Int("runes", len([]rune(text))))
		return nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wsWriteTimeout)
		defer cancel()
	}
	return e.ws.WriteJSON(ctx, &ReplyRequest{Type: "text", Room: room, Data: text})
}
