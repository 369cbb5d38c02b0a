package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/schedule_service/internal/model"
	"github.com/go-telegram/bot"
	"go.uber.org/zap"
)

const sendTimeout = 5 * time.Second

// Telegram отправляет события расписания в служебный чат.
type Telegram struct {
	bot    *bot.Bot
	chatID int64
	logger *zap.Logger
}

// NewTelegram создает нотификатор поверх Telegram Bot API.
func NewTelegram(token string, chatID int64, logger *zap.Logger) (*Telegram, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &Telegram{bot: b, chatID: chatID, logger: logger}, nil
}

func (t *Telegram) LessonCreated(lesson *model.Lesson) {
	go t.send(newEvent(EventLessonCreated, lesson, ""))
}

func (t *Telegram) LessonCancelled(lesson *model.Lesson, reason string) {
	go t.send(newEvent(EventLessonCancelled, lesson, reason))
}

// send выполняется в отдельной горутине с собственным контекстом:
// исходный запрос к этому моменту уже может быть завершен.
func (t *Telegram) send(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: t.chatID,
		Text:   formatEvent(event),
	})
	if err != nil {
		t.logger.Warn("Failed to send notification",
			zap.String("event_id", event.ID.String()),
			zap.String("event_type", event.Type),
			zap.Int64("lesson_id", event.LessonID),
			zap.Error(err))
		return
	}

	t.logger.Debug("Notification sent",
		zap.String("event_id", event.ID.String()),
		zap.String("event_type", event.Type),
		zap.Int64("lesson_id", event.LessonID))
}

func formatEvent(event Event) string {
	when := event.StartsAt.Format("02.01.2006 15:04")

	switch event.Type {
	case EventLessonCreated:
		return fmt.Sprintf("📅 Новый урок #%d\n%s\nКабинет %d, %s\nУчеников: %d",
			event.LessonID, event.Title, event.RoomID, when, len(event.StudentIDs))
	case EventLessonCancelled:
		text := fmt.Sprintf("❌ Урок #%d отменён\nКабинет %d, %s",
			event.LessonID, event.RoomID, when)
		if event.Reason != "" {
			text += "\nПричина: " + event.Reason
		}
		return text
	default:
		return fmt.Sprintf("Событие %s: урок #%d", event.Type, event.LessonID)
	}
}
