package app

import (
	"context"
	"time"

	"github.com/Freeeeeet/tutormatch/internal/service"
	"go.uber.org/zap"
)

// Sweeper фоновая задача: принудительно завершает сессии, пересидевшие
// часовой лимит. Серверная страховка на случай, если ни один клиент
// не дожил до конца сессии.
type Sweeper struct {
	sessionService *service.SessionService
	interval       time.Duration
	logger         *zap.Logger
	stopChan       chan struct{}
}

// NewSweeper создаёт новый sweeper
func NewSweeper(sessionService *service.SessionService, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		sessionService: sessionService,
		interval:       interval,
		logger:         logger,
		stopChan:       make(chan struct{}),
	}
}

// Start запускает фоновую задачу
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("Starting session sweeper", zap.Duration("interval", s.interval))

	go s.run(ctx)
}

// Stop останавливает фоновую задачу
func (s *Sweeper) Stop() {
	s.logger.Info("Stopping session sweeper")
	close(s.stopChan)
}

func (s *Sweeper) run(ctx context.Context) {
	// Первый проход сразу при старте — на случай сессий, зависших
	// за время простоя сервера
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			s.logger.Info("Session sweeper stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Session sweeper cancelled")
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	swept, err := s.sessionService.SweepExpired(ctx)
	if err != nil {
		s.logger.Error("Failed to sweep expired sessions", zap.Error(err))
		return
	}

	if swept > 0 {
		s.logger.Info("Expired sessions force-completed", zap.Int("count", swept))
	}
}
