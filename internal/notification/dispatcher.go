package notification

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/learnifyr/internal/metrics"
	"go.uber.org/zap"
)

// TxManager выполняет функцию в транзакции
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Publisher публикует закодированное событие в поток
type Publisher interface {
	PublishRaw(ctx context.Context, stream, eventType string, payload []byte) error
}

// Dispatcher разбирает outbox и публикует события в шину.
// Ошибки шины копятся в attempts и никогда не доходят до переходов состояний.
type Dispatcher struct {
	tx          TxManager
	outbox      OutboxStore
	publisher   Publisher
	batch       int
	maxAttempts int
	logger      *zap.Logger
}

func NewDispatcher(tx TxManager, outbox OutboxStore, publisher Publisher, batch, maxAttempts int, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		tx:          tx,
		outbox:      outbox,
		publisher:   publisher,
		batch:       batch,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Drain публикует одну пачку ожидающих событий
func (d *Dispatcher) Drain(ctx context.Context) error {
	return d.tx.WithinTx(ctx, func(ctx context.Context) error {
		msgs, err := d.outbox.ClaimPending(ctx, d.batch)
		if err != nil {
			return err
		}

		for _, msg := range msgs {
			if err := d.publisher.PublishRaw(ctx, msg.Stream, msg.EventType, msg.Payload); err != nil {
				d.logger.Warn("Failed to publish outbox message",
					zap.Int64("outbox_id", msg.ID),
					zap.String("event_type", msg.EventType),
					zap.Int("attempts", msg.Attempts+1),
					zap.Error(err))
				metrics.OutboxDispatchedTotal.WithLabelValues("failed").Inc()

				if err := d.outbox.MarkFailed(ctx, msg.ID, err.Error(), d.maxAttempts); err != nil {
					return fmt.Errorf("mark failed %d: %w", msg.ID, err)
				}
				continue
			}

			if err := d.outbox.MarkSent(ctx, msg.ID); err != nil {
				return fmt.Errorf("mark sent %d: %w", msg.ID, err)
			}
			metrics.OutboxDispatchedTotal.WithLabelValues("sent").Inc()
		}

		if len(msgs) > 0 {
			d.logger.Debug("Outbox drained", zap.Int("count", len(msgs)))
		}
		return nil
	})
}
