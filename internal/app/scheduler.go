package app

import (
	"context"
	"time"

	"github.com/Freeeeeet/schedule_service/internal/service"
	"go.uber.org/zap"
)

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	patternService *service.PatternService
	horizonWeeks   int
	interval       time.Duration
	logger         *zap.Logger
	stopChan       chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(patternService *service.PatternService, horizonWeeks int, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		patternService: patternService,
		horizonWeeks:   horizonWeeks,
		interval:       interval,
		logger:         logger,
		stopChan:       make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler",
		zap.Int("horizon_weeks", s.horizonWeeks),
		zap.Duration("interval", s.interval))

	go s.runGenerationTask(ctx)
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

// runGenerationTask периодически пополняет скользящий горизонт уроков
// по всем активным шаблонам
func (s *Scheduler) runGenerationTask(ctx context.Context) {
	// Первый запуск сразу при старте
	s.generateLessons(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.generateLessons(ctx)
		case <-s.stopChan:
			s.logger.Info("Lesson generation task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Lesson generation task cancelled")
			return
		}
	}
}

// generateLessons генерирует уроки для всех активных шаблонов
func (s *Scheduler) generateLessons(ctx context.Context) {
	s.logger.Info("Starting automatic lesson generation")

	reports, err := s.patternService.GenerateAll(ctx, s.horizonWeeks)
	if err != nil {
		s.logger.Error("Failed to generate lessons", zap.Error(err))
		return
	}

	var generated, skipped int
	for _, r := range reports {
		generated += r.Generated
		skipped += r.Skipped
	}

	s.logger.Info("Automatic lesson generation completed",
		zap.Int("patterns", len(reports)),
		zap.Int("generated", generated),
		zap.Int("skipped", skipped))
}
