package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/learnifyr/internal/metrics"
	"go.uber.org/zap"
)

// Poller источник событий для Consumer
type Poller interface {
	Poll(ctx context.Context, stream, cursor string) ([]Message, string, error)
	Latest(ctx context.Context, stream string) (string, error)
}

// Handler обработчик события одного типа
type Handler func(ctx context.Context, msg Message) error

// Consumer однопоточный цикл чтения потока с диспетчеризацией по event_type.
// Курсор не сохраняется: после рестарта чтение начинается с последней записи.
type Consumer struct {
	poller   Poller
	stream   string
	interval time.Duration
	handlers map[EventType]Handler
	logger   *zap.Logger
}

func NewConsumer(poller Poller, stream string, interval time.Duration, logger *zap.Logger) *Consumer {
	return &Consumer{
		poller:   poller,
		stream:   stream,
		interval: interval,
		handlers: make(map[EventType]Handler),
		logger:   logger.With(zap.String("stream", stream)),
	}
}

// Handle регистрирует обработчик типа события
func (c *Consumer) Handle(eventType EventType, h Handler) {
	c.handlers[eventType] = h
}

// Run читает поток до отмены ctx; ошибки обработчиков и транспорта только логируются
func (c *Consumer) Run(ctx context.Context) {
	cursor, ok := c.startCursor(ctx)
	if !ok {
		return
	}

	c.logger.Info("Consumer started", zap.String("cursor", cursor))

	for {
		msgs, next, err := c.poller.Poll(ctx, c.stream, cursor)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			c.logger.Error("Failed to poll stream", zap.Error(err))
		}

		for _, msg := range msgs {
			c.dispatch(ctx, msg)
		}
		cursor = next

		if !c.sleep(ctx) {
			break
		}
	}

	c.logger.Info("Consumer stopped")
}

func (c *Consumer) startCursor(ctx context.Context) (string, bool) {
	for {
		cursor, err := c.poller.Latest(ctx, c.stream)
		if err == nil {
			return cursor, true
		}

		c.logger.Error("Failed to resolve stream cursor", zap.Error(err))
		if !c.sleep(ctx) {
			return "", false
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, msg Message) {
	h, ok := c.handlers[msg.Type]
	if !ok {
		c.logger.Warn("Skipping unknown event", zap.String("id", msg.ID), zap.String("event_type", string(msg.Type)))
		metrics.BusConsumedTotal.WithLabelValues(c.stream, string(msg.Type), "skipped").Inc()
		return
	}

	err := c.safeHandle(ctx, h, msg)
	metrics.BusConsumedTotal.WithLabelValues(c.stream, string(msg.Type), metrics.Result(err)).Inc()

	if err != nil {
		c.logger.Error("Failed to handle event",
			zap.String("id", msg.ID),
			zap.String("event_type", string(msg.Type)),
			zap.Error(err))
	}
}

func (c *Consumer) safeHandle(ctx context.Context, h Handler, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, msg)
}

func (c *Consumer) sleep(ctx context.Context) bool {
	timer := time.NewTimer(c.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
