package notification

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/learnifyr/internal/bus"
	"github.com/Freeeeeet/learnifyr/internal/model"
	"go.uber.org/zap"
)

// OutboxStore хранилище исходящих событий
type OutboxStore interface {
	Enqueue(ctx context.Context, msg *model.OutboxMessage) error
	ClaimPending(ctx context.Context, limit int) ([]model.OutboxMessage, error)
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, reason string, maxAttempts int) error
}

// Recipient получатель рассылки: свой флаг уведомлений и привязанный чат
type Recipient struct {
	ChatID  *int64
	Enabled bool
}

// Notifier записывает уведомления в outbox в транзакции вызывающего.
// Публикацией в шину занимается Dispatcher.
type Notifier struct {
	outbox OutboxStore
	stream string
	logger *zap.Logger
}

func NewNotifier(outbox OutboxStore, stream string, logger *zap.Logger) *Notifier {
	return &Notifier{
		outbox: outbox,
		stream: stream,
		logger: logger,
	}
}

// Enqueue ставит событие в очередь на отправку в поток backend→bot
func (n *Notifier) Enqueue(ctx context.Context, e bus.Event) error {
	payload, err := bus.Encode(e)
	if err != nil {
		return err
	}

	msg := &model.OutboxMessage{
		Stream:    n.stream,
		EventType: string(e.EventType()),
		Payload:   payload,
	}
	if err := n.outbox.Enqueue(ctx, msg); err != nil {
		return fmt.Errorf("enqueue %s: %w", e.EventType(), err)
	}

	n.logger.Debug("Event enqueued",
		zap.Int64("outbox_id", msg.ID),
		zap.String("event_type", msg.EventType))
	return nil
}

// Notify отправляет текст в telegram чат
func (n *Notifier) Notify(ctx context.Context, chatID int64, message string) error {
	return n.Enqueue(ctx, bus.NotificationEvent{UserID: chatID, Message: message})
}

// NotifyIf отправляет текст, только если получатель включил уведомление и привязал чат
func (n *Notifier) NotifyIf(ctx context.Context, r Recipient, message string) (bool, error) {
	if !r.Enabled || r.ChatID == nil {
		return false, nil
	}
	if err := n.Notify(ctx, *r.ChatID, message); err != nil {
		return false, err
	}
	return true, nil
}

// Newsletter рассылает сообщение каждому подходящему получателю, возвращает число отправленных
func (n *Notifier) Newsletter(ctx context.Context, recipients []Recipient, message string) (int, error) {
	sent := 0
	for _, r := range recipients {
		ok, err := n.NotifyIf(ctx, r, message)
		if err != nil {
			return sent, err
		}
		if ok {
			sent++
		}
	}

	n.logger.Info("Newsletter enqueued",
		zap.Int("candidates", len(recipients)),
		zap.Int("sent", sent))
	return sent, nil
}
