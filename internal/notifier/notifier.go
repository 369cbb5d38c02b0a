package notifier

import (
	"time"

	"github.com/Freeeeeet/schedule_service/internal/model"
	"github.com/google/uuid"
)

// Типы событий расписания.
const (
	EventLessonCreated   = "lesson_created"
	EventLessonCancelled = "lesson_cancelled"
)

// Event — уведомление об изменении расписания.
type Event struct {
	ID         uuid.UUID
	Type       string
	LessonID   int64
	TeacherID  int64
	StudentIDs []int64
	RoomID     int64
	StartsAt   time.Time
	Title      string
	Reason     string
}

// Notifier рассылает события расписания. Реализации отправляют
// асинхронно и не возвращают ошибок: доставка уведомлений
// не должна влиять на результат операции.
type Notifier interface {
	LessonCreated(lesson *model.Lesson)
	LessonCancelled(lesson *model.Lesson, reason string)
}

func newEvent(eventType string, lesson *model.Lesson, reason string) Event {
	studentIDs := make([]int64, 0, len(lesson.Students))
	for _, st := range lesson.Students {
		studentIDs = append(studentIDs, st.StudentID)
	}

	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		LessonID:   lesson.ID,
		TeacherID:  lesson.TeacherID,
		StudentIDs: studentIDs,
		RoomID:     lesson.RoomID,
		StartsAt:   lesson.StartsAt,
		Title:      lesson.Title,
		Reason:     reason,
	}
}
