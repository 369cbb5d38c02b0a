package notifier

import (
	"github.com/Freeeeeet/schedule_service/internal/model"
	"go.uber.org/zap"
)

// Noop логирует события вместо отправки. Используется когда
// Telegram-токен не задан.
type Noop struct {
	logger *zap.Logger
}

func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) LessonCreated(lesson *model.Lesson) {
	n.logger.Debug("Notification skipped, notifier is not configured",
		zap.String("event_type", EventLessonCreated),
		zap.Int64("lesson_id", lesson.ID))
}

func (n *Noop) LessonCancelled(lesson *model.Lesson, reason string) {
	n.logger.Debug("Notification skipped, notifier is not configured",
		zap.String("event_type", EventLessonCancelled),
		zap.Int64("lesson_id", lesson.ID))
}
