package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task периодическая фоновая задача
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	tasks    []Task
	logger   *zap.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler создаёт новый планировщик
func NewScheduler(logger *zap.Logger, tasks ...Task) *Scheduler {
	return &Scheduler{
		tasks:    tasks,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Int("tasks", len(s.tasks)))

	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.runTask(ctx, task)
	}
}

// Stop останавливает задачи и ждёт их завершения не дольше grace
func (s *Scheduler) Stop(grace time.Duration) {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(grace):
		s.logger.Warn("Background tasks did not stop in time", zap.Duration("grace", grace))
	}
}

func (s *Scheduler) runTask(ctx context.Context, task Task) {
	defer s.wg.Done()

	// Первый запуск сразу при старте
	s.runOnce(ctx, task)

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx, task)
		case <-s.stopChan:
			s.logger.Info("Background task stopped", zap.String("task", task.Name))
			return
		case <-ctx.Done():
			s.logger.Info("Background task cancelled", zap.String("task", task.Name))
			return
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Background task panicked", zap.String("task", task.Name), zap.Any("panic", r))
		}
	}()

	if err := task.Run(ctx); err != nil {
		s.logger.Error("Background task failed", zap.String("task", task.Name), zap.Error(err))
	}
}
