package cache_test

import (
	"path"
	"testing"
	"time"

	"github.com/Freeeeeet/schedule_service/internal/cache"
	"github.com/stretchr/testify/assert"
)

func Test_CacheKeys(t *testing.T) {
	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)
	roomID := int64(3)
	teacherID := int64(42)

	assert.Equal(t, "schedule:teacher:42:2025-03-10:2025-03-16", cache.TeacherKey(42, from, to))

	assert.Equal(t, "schedule:studio:7:2025-03-10:2025-03-16:0:0", cache.StudioKey(7, from, to, nil, nil))
	assert.Equal(t, "schedule:studio:7:2025-03-10:2025-03-16:3:42", cache.StudioKey(7, from, to, &roomID, &teacherID))

	assert.Equal(t, "schedule:available:7:2025-03-10:2025-03-16:0", cache.AvailableKey(7, from, to, nil))
	assert.Equal(t, "schedule:available:7:2025-03-10:2025-03-16:3", cache.AvailableKey(7, from, to, &roomID))
}

// Шаблоны инвалидации должны накрывать соответствующие ключи
func Test_InvalidationPatterns_MatchKeys(t *testing.T) {
	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)
	roomID := int64(3)

	match := func(pattern, key string) bool {
		ok, err := path.Match(pattern, key)
		return err == nil && ok
	}

	assert.True(t, match(cache.TeacherPattern(42), cache.TeacherKey(42, from, to)))
	assert.False(t, match(cache.TeacherPattern(7), cache.TeacherKey(42, from, to)))

	assert.True(t, match(cache.StudioPattern(7), cache.StudioKey(7, from, to, &roomID, nil)))
	assert.True(t, match(cache.AvailablePattern(7), cache.AvailableKey(7, from, to, nil)))
	assert.False(t, match(cache.StudioPattern(7), cache.AvailableKey(7, from, to, nil)))
}
