package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/learnifyr/internal/model"
	"github.com/Freeeeeet/learnifyr/internal/repository/base"
	"github.com/georgysavva/scany/v2/pgxscan"
)

type OutboxRepository struct {
	db *base.Repository
}

func NewOutboxRepository(db *base.Repository) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Enqueue добавляет событие в outbox в текущей транзакции
func (r *OutboxRepository) Enqueue(ctx context.Context, msg *model.OutboxMessage) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO outbox (stream, event_type, payload)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, msg.Stream, msg.EventType, msg.Payload).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("enqueue outbox: %w", err)
	}
	return nil
}

// ClaimPending блокирует пачку неотправленных событий (вызывать внутри транзакции)
func (r *OutboxRepository) ClaimPending(ctx context.Context, limit int) ([]model.OutboxMessage, error) {
	var msgs []model.OutboxMessage
	err := pgxscan.Select(ctx, r.db.Conn(ctx), &msgs, `
		SELECT id, stream, event_type, payload, attempts, created_at
		FROM outbox
		WHERE sent_at IS NULL AND failed_at IS NULL
		ORDER BY id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("claim outbox: %w", err)
	}
	return msgs, nil
}

// MarkSent отмечает событие опубликованным
func (r *OutboxRepository) MarkSent(ctx context.Context, id int64) error {
	if _, err := r.db.ExecAffected(ctx, `UPDATE outbox SET sent_at = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("mark outbox sent: %w", err)
	}
	return nil
}

// MarkFailed увеличивает счётчик попыток; после maxAttempts событие больше не выбирается
func (r *OutboxRepository) MarkFailed(ctx context.Context, id int64, reason string, maxAttempts int) error {
	_, err := r.db.ExecAffected(ctx, `
		UPDATE outbox
		SET attempts = attempts + 1,
			last_error = $2,
			failed_at = CASE WHEN attempts + 1 >= $3 THEN NOW() END
		WHERE id = $1
	`, id, reason, maxAttempts)
	if err != nil {
		return fmt.Errorf("mark outbox failed: %w", err)
	}
	return nil
}
