package cache

import (
	"context"
	"fmt"
	"time"
)

// ScheduleCache кэширует собранные представления расписания.
// Все реализации обязаны молча переживать недоступность кэша:
// промах при ошибке чтения, лог при ошибке записи.
type ScheduleCache interface {
	// Get читает значение по ключу в dest. Возвращает false при промахе.
	Get(ctx context.Context, key string, dest any) bool
	// Set сохраняет значение с TTL реализации.
	Set(ctx context.Context, key string, value any)
	// Invalidate удаляет все ключи, подходящие под шаблоны.
	Invalidate(ctx context.Context, patterns ...string)
}

// Ключи строятся по ролям, инвалидация идёт по префиксам студии и учителя.

func TeacherKey(teacherID int64, from, to time.Time) string {
	return fmt.Sprintf("schedule:teacher:%d:%s:%s", teacherID, from.Format("2006-01-02"), to.Format("2006-01-02"))
}

func StudioKey(studioID int64, from, to time.Time, roomID, teacherID *int64) string {
	room, teacher := int64(0), int64(0)
	if roomID != nil {
		room = *roomID
	}
	if teacherID != nil {
		teacher = *teacherID
	}
	return fmt.Sprintf("schedule:studio:%d:%s:%s:%d:%d", studioID, from.Format("2006-01-02"), to.Format("2006-01-02"), room, teacher)
}

func AvailableKey(studioID int64, from, to time.Time, roomID *int64) string {
	room := int64(0)
	if roomID != nil {
		room = *roomID
	}
	return fmt.Sprintf("schedule:available:%d:%s:%s:%d", studioID, from.Format("2006-01-02"), to.Format("2006-01-02"), room)
}

func TeacherPattern(teacherID int64) string {
	return fmt.Sprintf("schedule:teacher:%d:*", teacherID)
}

func StudioPattern(studioID int64) string {
	return fmt.Sprintf("schedule:studio:%d:*", studioID)
}

func AvailablePattern(studioID int64) string {
	return fmt.Sprintf("schedule:available:%d:*", studioID)
}
