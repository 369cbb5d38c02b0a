package service

import (
	"testing"
	"time"

	"github.com/Freeeeeet/schedule_service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_checkRange(t *testing.T) {
	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		to      time.Time
		maxDays int
		wantErr bool
	}{
		{"single_day", from, 28, false},
		{"full_window", from.AddDate(0, 0, 28), 28, false},
		{"one_day_over_window", from.AddDate(0, 0, 29), 28, true},
		{"reversed_range", from.AddDate(0, 0, -1), 28, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkRange(from, tt.to, tt.maxDays)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidation)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func Test_groupByDay(t *testing.T) {
	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 2)

	slots := []*model.TimeSlot{
		{ID: 1, SlotDate: from},
		{ID: 2, SlotDate: from},
		{ID: 3, SlotDate: from.AddDate(0, 0, 2)},
		// Вне диапазона, в выдачу не попадает
		{ID: 4, SlotDate: from.AddDate(0, 0, 5)},
	}
	lessons := []*model.Lesson{
		{ID: 10, LessonDate: from.AddDate(0, 0, 1)},
	}

	days := groupByDay(from, to, slots, lessons)

	require.Len(t, days, 3)

	assert.Equal(t, "2025-03-10", days[0].Date)
	assert.Len(t, days[0].Slots, 2)
	assert.Empty(t, days[0].Lessons)

	assert.Equal(t, "2025-03-11", days[1].Date)
	assert.Empty(t, days[1].Slots)
	require.Len(t, days[1].Lessons, 1)
	assert.Equal(t, int64(10), days[1].Lessons[0].ID)

	assert.Equal(t, "2025-03-12", days[2].Date)
	assert.Len(t, days[2].Slots, 1)
}

func Test_utilizationPct(t *testing.T) {
	assert.Equal(t, 0.0, utilizationPct(0, 0))
	assert.Equal(t, 0.0, utilizationPct(0, 10))
	assert.Equal(t, 50.0, utilizationPct(5, 10))
	assert.Equal(t, 100.0, utilizationPct(10, 10))
	// Округление до одного знака
	assert.Equal(t, 33.3, utilizationPct(1, 3))
	assert.Equal(t, 66.7, utilizationPct(2, 3))
}
