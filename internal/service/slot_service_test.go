package service

import (
	"testing"
	"time"

	"github.com/Freeeeeet/schedule_service/internal/model"
	"github.com/stretchr/testify/assert"
)

func Test_overlapsAny(t *testing.T) {
	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	existing := []*model.TimeSlot{
		{StartsAt: base, EndsAt: base.Add(time.Hour)},
		{StartsAt: base.Add(2 * time.Hour), EndsAt: base.Add(3 * time.Hour)},
	}

	// Встык к занятому интервалу — не пересечение
	assert.False(t, overlapsAny(existing, base.Add(time.Hour), base.Add(2*time.Hour)))
	// Попадает внутрь первого интервала
	assert.True(t, overlapsAny(existing, base.Add(30*time.Minute), base.Add(90*time.Minute)))
	// Накрывает второй интервал целиком
	assert.True(t, overlapsAny(existing, base.Add(time.Hour+30*time.Minute), base.Add(4*time.Hour)))
	// Полностью свободное время
	assert.False(t, overlapsAny(existing, base.Add(5*time.Hour), base.Add(6*time.Hour)))
	// Пустой список слотов
	assert.False(t, overlapsAny(nil, base, base.Add(time.Hour)))
}

func Test_validLessonType(t *testing.T) {
	assert.True(t, validLessonType(model.LessonTypeIndividual))
	assert.True(t, validLessonType(model.LessonTypeGroup))
	assert.True(t, validLessonType(model.LessonTypeTrial))
	assert.True(t, validLessonType(model.LessonTypeMakeup))
	assert.False(t, validLessonType(model.LessonType("seminar")))
	assert.False(t, validLessonType(model.LessonType("")))
}

func Test_validRoomType(t *testing.T) {
	assert.True(t, validRoomType(model.RoomTypeVocal))
	assert.True(t, validRoomType(model.RoomTypeInstrument))
	assert.True(t, validRoomType(model.RoomTypeEnsemble))
	assert.True(t, validRoomType(model.RoomTypeRecording))
	assert.False(t, validRoomType(model.RoomType("garage")))
}
