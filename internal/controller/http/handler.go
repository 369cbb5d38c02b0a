package http

import (
	"github.com/Freeeeeet/schedule_service/internal/service"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler — HTTP-обработчики поверх сервисного слоя
type Handler struct {
	slots    *service.SlotService
	lessons  *service.LessonService
	patterns *service.PatternService
	schedule *service.ScheduleService
	studios  *service.StudioService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewHandler(
	slots *service.SlotService,
	lessons *service.LessonService,
	patterns *service.PatternService,
	schedule *service.ScheduleService,
	studios *service.StudioService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		slots:    slots,
		lessons:  lessons,
		patterns: patterns,
		schedule: schedule,
		studios:  studios,
		validate: validator.New(),
		logger:   logger,
	}
}
