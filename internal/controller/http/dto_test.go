package http

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseDate(t *testing.T) {
	d, err := parseDate("2025-03-10", "date_from")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), d)

	_, err = parseDate("10.03.2025", "date_from")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date_from")

	_, err = parseDate("", "date_to")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date_to")
}

func Test_validateStruct_RequestBodies(t *testing.T) {
	h := &Handler{validate: validator.New()}

	tests := []struct {
		name    string
		body    any
		wantErr bool
	}{
		{
			name: "valid_create_lesson",
			body: &createLessonRequest{SlotID: 1, Title: "Вокал", LessonType: "individual", MaxStudents: 1},
		},
		{
			name:    "create_lesson_without_slot",
			body:    &createLessonRequest{Title: "Вокал", LessonType: "individual"},
			wantErr: true,
		},
		{
			name:    "create_lesson_with_unknown_type",
			body:    &createLessonRequest{SlotID: 1, Title: "Вокал", LessonType: "seminar"},
			wantErr: true,
		},
		{
			name:    "create_lesson_with_too_many_seats",
			body:    &createLessonRequest{SlotID: 1, Title: "Хор", LessonType: "group", MaxStudents: 50},
			wantErr: true,
		},
		{
			name: "valid_student",
			body: &studentPayload{StudentID: 10, Name: "Аня", Email: "anya@example.com"},
		},
		{
			name:    "student_with_bad_email",
			body:    &studentPayload{StudentID: 10, Name: "Аня", Email: "not-an-email"},
			wantErr: true,
		},
		{
			name: "valid_pattern",
			body: &createPatternRequest{
				StudioID: 1, RoomID: 2, DayOfWeek: 1,
				StartTime: "10:00", DurationMinutes: 60, ValidFrom: "2025-03-10",
			},
		},
		{
			name: "pattern_with_day_out_of_range",
			body: &createPatternRequest{
				StudioID: 1, RoomID: 2, DayOfWeek: 8,
				StartTime: "10:00", DurationMinutes: 60, ValidFrom: "2025-03-10",
			},
			wantErr: true,
		},
		{
			name: "pattern_enrolled_student_is_validated_too",
			body: &createPatternRequest{
				StudioID: 1, RoomID: 2, DayOfWeek: 1,
				StartTime: "10:00", DurationMinutes: 60, ValidFrom: "2025-03-10",
				Students: []studentPayload{{StudentID: 0, Name: ""}},
			},
			wantErr: true,
		},
		{
			name:    "room_with_unknown_type",
			body:    &createRoomRequest{StudioID: 1, Name: "Кабинет 1", RoomType: "garage"},
			wantErr: true,
		},
		{
			name: "valid_room",
			body: &createRoomRequest{StudioID: 1, Name: "Кабинет 1", RoomType: "vocal", Capacity: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.validateStruct(tt.body)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
