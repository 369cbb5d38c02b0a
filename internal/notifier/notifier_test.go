package notifier

import (
	"testing"
	"time"

	"github.com/Freeeeeet/schedule_service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLesson() *model.Lesson {
	return &model.Lesson{
		ID:        15,
		TeacherID: 42,
		RoomID:    3,
		StartsAt:  time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
		Title:     "Вокал, средняя группа",
		Students: []*model.LessonStudent{
			{StudentID: 7},
			{StudentID: 9},
		},
	}
}

func Test_newEvent(t *testing.T) {
	event := newEvent(EventLessonCancelled, testLesson(), "болезнь преподавателя")

	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", event.ID.String())
	assert.Equal(t, EventLessonCancelled, event.Type)
	assert.Equal(t, int64(15), event.LessonID)
	assert.Equal(t, int64(42), event.TeacherID)
	assert.Equal(t, []int64{7, 9}, event.StudentIDs)
	assert.Equal(t, "болезнь преподавателя", event.Reason)
}

func Test_formatEvent(t *testing.T) {
	created := newEvent(EventLessonCreated, testLesson(), "")
	text := formatEvent(created)
	assert.Contains(t, text, "Новый урок #15")
	assert.Contains(t, text, "Вокал, средняя группа")
	assert.Contains(t, text, "Кабинет 3, 10.03.2025 10:00")
	assert.Contains(t, text, "Учеников: 2")

	cancelled := newEvent(EventLessonCancelled, testLesson(), "болезнь преподавателя")
	text = formatEvent(cancelled)
	assert.Contains(t, text, "Урок #15 отменён")
	assert.Contains(t, text, "Причина: болезнь преподавателя")

	// Без причины строка с причиной не добавляется
	cancelled.Reason = ""
	require.NotContains(t, formatEvent(cancelled), "Причина")
}
