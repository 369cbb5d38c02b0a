package model_test

import (
	"testing"
	"time"

	"github.com/Freeeeeet/schedule_service/internal/model"
	"github.com/stretchr/testify/assert"
)

func Test_LessonStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from model.LessonStatus
		to   model.LessonStatus
		want bool
	}{
		{"scheduled_to_confirmed", model.LessonStatusScheduled, model.LessonStatusConfirmed, true},
		{"scheduled_to_cancelled", model.LessonStatusScheduled, model.LessonStatusCancelled, true},
		{"scheduled_cannot_start_without_students", model.LessonStatusScheduled, model.LessonStatusInProgress, false},
		{"scheduled_cannot_complete_directly", model.LessonStatusScheduled, model.LessonStatusCompleted, false},
		{"confirmed_to_in_progress", model.LessonStatusConfirmed, model.LessonStatusInProgress, true},
		{"confirmed_to_completed", model.LessonStatusConfirmed, model.LessonStatusCompleted, true},
		{"confirmed_to_no_show", model.LessonStatusConfirmed, model.LessonStatusNoShow, true},
		{"confirmed_to_cancelled", model.LessonStatusConfirmed, model.LessonStatusCancelled, true},
		{"in_progress_to_completed", model.LessonStatusInProgress, model.LessonStatusCompleted, true},
		{"in_progress_to_no_show", model.LessonStatusInProgress, model.LessonStatusNoShow, true},
		{"in_progress_cannot_go_back_to_confirmed", model.LessonStatusInProgress, model.LessonStatusConfirmed, false},
		{"completed_is_terminal", model.LessonStatusCompleted, model.LessonStatusCancelled, false},
		{"no_show_is_terminal", model.LessonStatusNoShow, model.LessonStatusScheduled, false},
		{"cancelled_can_be_restored", model.LessonStatusCancelled, model.LessonStatusScheduled, true},
		{"cancelled_cannot_jump_to_confirmed", model.LessonStatusCancelled, model.LessonStatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func Test_Lesson_SeatHelpers(t *testing.T) {
	lesson := &model.Lesson{
		MaxStudents: 2,
		Students: []*model.LessonStudent{
			{StudentID: 10, Name: "Аня"},
		},
	}

	assert.Equal(t, 1, lesson.StudentCount())
	assert.False(t, lesson.IsFull())
	assert.True(t, lesson.HasStudent(10))
	assert.False(t, lesson.HasStudent(11))

	lesson.Students = append(lesson.Students, &model.LessonStudent{StudentID: 11, Name: "Борис"})
	assert.True(t, lesson.IsFull())
}

func Test_Lesson_CancellationWindows(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		startsAt    time.Time
		wantTeacher bool
		wantStudent bool
	}{
		{
			name:        "far_in_the_future",
			startsAt:    now.Add(24 * time.Hour),
			wantTeacher: true,
			wantStudent: true,
		},
		{
			name:        "between_teacher_and_student_notice",
			startsAt:    now.Add(2 * time.Hour),
			wantTeacher: false,
			wantStudent: true,
		},
		{
			name:        "teacher_boundary_is_exclusive",
			startsAt:    now.Add(model.TeacherCancelNotice),
			wantTeacher: false,
			wantStudent: true,
		},
		{
			name:        "student_boundary_is_exclusive",
			startsAt:    now.Add(model.StudentCancelNotice),
			wantTeacher: false,
			wantStudent: false,
		},
		{
			name:        "already_started",
			startsAt:    now.Add(-time.Hour),
			wantTeacher: false,
			wantStudent: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lesson := &model.Lesson{StartsAt: tt.startsAt}
			assert.Equal(t, tt.wantTeacher, lesson.CanBeCancelledByTeacher(now))
			assert.Equal(t, tt.wantStudent, lesson.CanBeCancelledByStudent(now))
		})
	}
}
