package model

import "time"

// OutboxMessage событие, ожидающее публикации в шину
type OutboxMessage struct {
	ID        int64     `db:"id"`
	Stream    string    `db:"stream"`
	EventType string    `db:"event_type"`
	Payload   []byte    `db:"payload"`
	Attempts  int       `db:"attempts"`
	CreatedAt time.Time `db:"created_at"`
}
