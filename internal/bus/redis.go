package bus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/learnifyr/internal/errdefs"
	"github.com/Freeeeeet/learnifyr/internal/metrics"
	"github.com/redis/go-redis/v9"
)

const (
	payloadField = "payload"
	readCount    = 10
	startCursor  = "0-0"
)

// Streams адаптер Redis streams: ограниченный лог с курсорным чтением
type Streams struct {
	client *redis.Client
	maxLen int64
	block  time.Duration
}

func NewStreams(client *redis.Client, maxLen int64, block time.Duration) *Streams {
	return &Streams{
		client: client,
		maxLen: maxLen,
		block:  block,
	}
}

// Publish кодирует событие и добавляет его в поток
func (s *Streams) Publish(ctx context.Context, stream string, e Event) error {
	payload, err := Encode(e)
	if err != nil {
		return err
	}
	return s.PublishRaw(ctx, stream, string(e.EventType()), payload)
}

// PublishRaw добавляет уже закодированный конверт (XADD MAXLEN)
func (s *Streams) PublishRaw(ctx context.Context, stream, eventType string, payload []byte) error {
	err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: s.maxLen,
		Values: map[string]interface{}{payloadField: string(payload)},
	}).Err()

	metrics.BusPublishedTotal.WithLabelValues(stream, eventType, metrics.Result(err)).Inc()

	if err != nil {
		return fmt.Errorf("xadd %s: %v: %w", stream, err, errdefs.ErrTransport)
	}
	return nil
}

// Poll ждёт до block и возвращает события после cursor вместе с новым курсором
func (s *Streams) Poll(ctx context.Context, stream, cursor string) ([]Message, string, error) {
	res, err := s.client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{stream, cursor},
		Count:   readCount,
		Block:   s.block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cursor, nil
		}
		return nil, cursor, fmt.Errorf("xread %s: %v: %w", stream, err, errdefs.ErrTransport)
	}

	var msgs []Message
	for _, st := range res {
		for _, xm := range st.Messages {
			cursor = xm.ID

			raw, _ := xm.Values[payloadField].(string)
			// Битый конверт отдаём без типа, консьюмер его пропустит
			msg, _ := decodeMessage(xm.ID, []byte(raw))
			msgs = append(msgs, msg)
		}
	}

	return msgs, cursor, nil
}

// Latest возвращает ID последней записи потока или 0-0 для пустого потока
func (s *Streams) Latest(ctx context.Context, stream string) (string, error) {
	res, err := s.client.XRevRangeN(ctx, stream, "+", "-", 1).Result()
	if err != nil {
		return "", fmt.Errorf("xrevrange %s: %v: %w", stream, err, errdefs.ErrTransport)
	}
	if len(res) == 0 {
		return startCursor, nil
	}
	return res[0].ID, nil
}
