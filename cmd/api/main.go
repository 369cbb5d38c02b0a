package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/schedule_service/internal/app"
	"github.com/Freeeeeet/schedule_service/internal/cache"
	"github.com/Freeeeeet/schedule_service/internal/config"
	httpapi "github.com/Freeeeeet/schedule_service/internal/controller/http"
	"github.com/Freeeeeet/schedule_service/internal/notifier"
	"github.com/Freeeeeet/schedule_service/internal/repository"
	"github.com/Freeeeeet/schedule_service/internal/service"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting schedule service",
		zap.String("environment", cfg.Environment),
		zap.String("http_addr", cfg.HTTPAddr))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := app.NewPostgresPool(ctx, cfg.DBDSN, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()

	// Миграции накатываются на старте, сервис не поднимается на старой схеме
	migrator, err := app.NewMigrator(pool)
	if err != nil {
		logger.Fatal("Failed to init migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	version, err := migrator.Version(ctx)
	if err != nil {
		logger.Fatal("Failed to read migration version", zap.Error(err))
	}
	if err := migrator.Close(); err != nil {
		logger.Warn("Failed to close migrator", zap.Error(err))
	}
	logger.Info("Migrations applied", zap.Int64("version", version))

	redisClient := app.NewRedisClient(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	scheduleCache := cache.New(redisClient, cfg.CacheTTL, logger)

	var events notifier.Notifier
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		tg, err := notifier.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, logger)
		if err != nil {
			logger.Fatal("Failed to init telegram notifier", zap.Error(err))
		}
		events = tg
		logger.Info("Telegram notifier enabled", zap.Int64("chat_id", cfg.TelegramChatID))
	} else {
		events = notifier.NewNoop(logger)
	}

	slotRepo := repository.NewSlotRepository(pool)
	lessonRepo := repository.NewLessonRepository(pool)
	patternRepo := repository.NewPatternRepository(pool)
	studioRepo := repository.NewStudioRepository(pool)

	slotService := service.NewSlotService(slotRepo, studioRepo, scheduleCache, logger)
	lessonService := service.NewLessonService(
		pool, slotRepo, lessonRepo, scheduleCache, events, cfg.ReleaseSlotOnStudentCancel, logger)
	patternService := service.NewPatternService(
		pool, patternRepo, slotRepo, lessonRepo, studioRepo, scheduleCache,
		cfg.GenerationHorizonWeeks, cfg.MaxWeeksForward, logger)
	scheduleService := service.NewScheduleService(
		slotRepo, lessonRepo, studioRepo, patternService, scheduleCache, cfg.MaxWeeksForward, logger)
	studioService := service.NewStudioService(studioRepo, logger)

	scheduler := app.NewScheduler(patternService, cfg.GenerationHorizonWeeks, cfg.GenerationInterval, logger)
	scheduler.Start(ctx)

	handler := httpapi.NewHandler(
		slotService, lessonService, patternService, scheduleService, studioService, logger)
	auth := httpapi.NewAuth(cfg.JWTSecret)
	fiberApp := httpapi.NewApp(handler, auth, cfg.InternalAPIKey, pool, redisClient, logger)

	go func() {
		if err := fiberApp.Listen(cfg.HTTPAddr); err != nil {
			logger.Fatal("HTTP server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("Shutting down", zap.String("signal", sig.String()))

	scheduler.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := fiberApp.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Failed to shut down HTTP server", zap.Error(err))
	}

	logger.Info("Service stopped")
}
