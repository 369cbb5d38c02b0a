package model_test

import (
	"testing"
	"time"

	"github.com/Freeeeeet/schedule_service/internal/model"
	"github.com/stretchr/testify/assert"
)

func Test_Overlaps(t *testing.T) {
	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		aStart time.Time
		aEnd   time.Time
		bStart time.Time
		bEnd   time.Time
		want   bool
	}{
		{
			name:   "identical_intervals_overlap",
			aStart: base, aEnd: base.Add(time.Hour),
			bStart: base, bEnd: base.Add(time.Hour),
			want: true,
		},
		{
			name:   "back_to_back_intervals_do_not_overlap",
			aStart: base, aEnd: base.Add(time.Hour),
			bStart: base.Add(time.Hour), bEnd: base.Add(2 * time.Hour),
			want: false,
		},
		{
			name:   "partial_overlap",
			aStart: base, aEnd: base.Add(time.Hour),
			bStart: base.Add(30 * time.Minute), bEnd: base.Add(90 * time.Minute),
			want: true,
		},
		{
			name:   "contained_interval_overlaps",
			aStart: base, aEnd: base.Add(2 * time.Hour),
			bStart: base.Add(30 * time.Minute), bEnd: base.Add(time.Hour),
			want: true,
		},
		{
			name:   "disjoint_intervals",
			aStart: base, aEnd: base.Add(time.Hour),
			bStart: base.Add(3 * time.Hour), bEnd: base.Add(4 * time.Hour),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, model.Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
			// Предикат симметричен
			assert.Equal(t, tt.want, model.Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd))
		})
	}
}

func Test_TimeSlot_CanBeReleased(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		status   model.SlotStatus
		startsAt time.Time
		want     bool
	}{
		{
			name:     "reserved_well_before_start",
			status:   model.SlotStatusReserved,
			startsAt: now.Add(3 * time.Hour),
			want:     true,
		},
		{
			name:     "reserved_exactly_at_notice_boundary",
			status:   model.SlotStatusReserved,
			startsAt: now.Add(model.ReleaseNotice),
			want:     false,
		},
		{
			name:     "reserved_too_close_to_start",
			status:   model.SlotStatusReserved,
			startsAt: now.Add(time.Hour),
			want:     false,
		},
		{
			name:     "available_slot_has_no_reservation_to_release",
			status:   model.SlotStatusAvailable,
			startsAt: now.Add(5 * time.Hour),
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot := &model.TimeSlot{Status: tt.status, StartsAt: tt.startsAt}
			assert.Equal(t, tt.want, slot.CanBeReleased(now))
		})
	}
}

func Test_TimeSlot_ReservedBy(t *testing.T) {
	teacherID := int64(42)

	slot := &model.TimeSlot{}
	assert.False(t, slot.ReservedBy(teacherID))

	slot.ReservedByTeacherID = &teacherID
	assert.True(t, slot.ReservedBy(42))
	assert.False(t, slot.ReservedBy(7))
}

func Test_TimeSlot_IsPast(t *testing.T) {
	startsAt := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	slot := &model.TimeSlot{StartsAt: startsAt}

	assert.False(t, slot.IsPast(startsAt.Add(-time.Minute)))
	assert.False(t, slot.IsPast(startsAt))
	assert.True(t, slot.IsPast(startsAt.Add(time.Minute)))
}
