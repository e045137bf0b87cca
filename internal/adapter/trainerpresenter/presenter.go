package trainerpresenter

import (
	"context"
	"strings"

	svc "github.com/park285/Cheese-opening-trainer/internal/service/training"
	"go.uber.org/zap"
)

// SendFunc delivers one text message to a chat room.
type SendFunc func(ctx context.Context, room, message string) error

// Presenter delivers formatted messages without coupling to the command layer.
type Presenter struct {
	send      SendFunc
	formatter *Formatter
	logger    *zap.Logger
}

func NewPresenter(send SendFunc, formatter *Formatter, logger *zap.Logger) *Presenter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Presenter{send: send, formatter: formatter, logger: logger}
}

func (p *Presenter) Formatter() *Formatter { return p.formatter }

// Text sends message unless it is blank.
func (p *Presenter) Text(ctx context.Context, room, message string) error {
	if p == nil || p.send == nil || strings.TrimSpace(message) == "" {
		return nil
	}
	return p.send(ctx, room, message)
}

// Outcome renders and sends the events of one service call.
func (p *Presenter) Outcome(ctx context.Context, out *svc.Outcome) error {
	if out == nil {
		return nil
	}
	return p.Text(ctx, out.Meta.Room, p.formatter.Outcome(ToDTOOutcome(out)))
}

// Error sends the chat text for err.
func (p *Presenter) Error(ctx context.Context, room string, err error) error {
	if err == nil {
		return nil
	}
	dto := ToDomainError(err)
	if dto.Retryable {
		p.logger.Warn("trainer_command_error", zap.String("room", room), zap.Error(err))
	}
	return p.Text(ctx, room, p.formatter.Error(dto))
}

// Deliver implements the training service EventSink for ticker driven events.
func (p *Presenter) Deliver(ctx context.Context, out *svc.Outcome) {
	if err := p.Outcome(ctx, out); err != nil {
		p.logger.Warn("trainer_deliver_error", zap.String("room", out.Meta.Room), zap.Error(err))
	}
}

var _ svc.EventSink = (*Presenter)(nil)
