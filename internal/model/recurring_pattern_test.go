package model_test

import (
	"testing"
	"time"

	"github.com/Freeeeeet/schedule_service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_RecurringPattern_Weekday(t *testing.T) {
	tests := []struct {
		name      string
		dayOfWeek int
		want      time.Weekday
	}{
		{"monday", 1, time.Monday},
		{"wednesday", 3, time.Wednesday},
		{"saturday", 6, time.Saturday},
		{"sunday_wraps_to_zero", 7, time.Sunday},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &model.RecurringPattern{DayOfWeek: tt.dayOfWeek}
			assert.Equal(t, tt.want, p.Weekday())
		})
	}
}

func Test_RecurringPattern_FirstOccurrence(t *testing.T) {
	// 2025-01-01 — среда
	validFrom := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		dayOfWeek int
		want      time.Time
	}{
		{
			name:      "valid_from_already_on_pattern_weekday",
			dayOfWeek: 3,
			want:      validFrom,
		},
		{
			name:      "next_monday_after_wednesday_start",
			dayOfWeek: 1,
			want:      time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "sunday_of_the_same_week",
			dayOfWeek: 7,
			want:      time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &model.RecurringPattern{DayOfWeek: tt.dayOfWeek, ValidFrom: validFrom}
			assert.Equal(t, tt.want, p.FirstOccurrence())
		})
	}
}

func Test_RecurringPattern_EffectiveOn(t *testing.T) {
	validFrom := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	validUntil := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	p := &model.RecurringPattern{
		DayOfWeek:  1,
		ValidFrom:  validFrom,
		ValidUntil: &validUntil,
		IsActive:   true,
	}

	assert.False(t, p.EffectiveOn(validFrom.AddDate(0, 0, -7)))
	assert.True(t, p.EffectiveOn(validFrom))
	assert.True(t, p.EffectiveOn(time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)))
	assert.True(t, p.EffectiveOn(validUntil))
	assert.False(t, p.EffectiveOn(validUntil.AddDate(0, 0, 1)))

	p.IsActive = false
	assert.False(t, p.EffectiveOn(validFrom))

	p.IsActive = true
	p.ValidUntil = nil
	assert.True(t, p.EffectiveOn(time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC)))
}

func Test_RecurringPattern_HasStudent(t *testing.T) {
	p := &model.RecurringPattern{
		Students: []*model.PatternStudent{
			{StudentID: 5},
			{StudentID: 6},
		},
	}

	assert.True(t, p.HasStudent(5))
	assert.False(t, p.HasStudent(99))
}

func Test_ParseClock(t *testing.T) {
	hour, minute, err := model.ParseClock("10:00")
	require.NoError(t, err)
	assert.Equal(t, 10, hour)
	assert.Equal(t, 0, minute)

	hour, minute, err = model.ParseClock("09:45:00")
	require.NoError(t, err)
	assert.Equal(t, 9, hour)
	assert.Equal(t, 45, minute)

	_, _, err = model.ParseClock("25:00")
	require.Error(t, err)

	_, _, err = model.ParseClock("ten o'clock")
	require.Error(t, err)
}

func Test_CombineDateClock(t *testing.T) {
	date := time.Date(2025, 3, 10, 17, 30, 0, 0, time.FixedZone("MSK", 3*3600))

	got := model.CombineDateClock(date, 9, 15)

	assert.Equal(t, time.Date(2025, 3, 10, 9, 15, 0, 0, time.UTC), got)
}
