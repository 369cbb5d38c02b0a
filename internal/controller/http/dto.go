package http

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Freeeeeet/schedule_service/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

type reserveSlotRequest struct {
	SlotID int64 `json:"slot_id" validate:"required"`
}

type createLessonRequest struct {
	SlotID      int64   `json:"slot_id" validate:"required"`
	Title       string  `json:"title" validate:"required,max=200"`
	LessonType  string  `json:"lesson_type" validate:"required,oneof=individual group trial makeup"`
	MaxStudents int     `json:"max_students" validate:"omitempty,min=1,max=20"`
	Notes       *string `json:"notes" validate:"omitempty"`
}

type studentPayload struct {
	StudentID int64  `json:"student_id" validate:"required"`
	Name      string `json:"name" validate:"required,max=200"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
	Level     string `json:"level" validate:"omitempty,max=64"`
}

func (p studentPayload) toInput() service.StudentInput {
	return service.StudentInput{
		StudentID: p.StudentID,
		Name:      p.Name,
		Email:     p.Email,
		Phone:     p.Phone,
		Level:     p.Level,
	}
}

type removeStudentRequest struct {
	StudentID int64 `json:"student_id" validate:"required"`
}

type cancelLessonRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type completeLessonRequest struct {
	Notes    *string `json:"notes" validate:"omitempty"`
	Homework *string `json:"homework" validate:"omitempty"`
}

type createPatternRequest struct {
	StudioID        int64            `json:"studio_id" validate:"required"`
	TeacherID       int64            `json:"teacher_id" validate:"omitempty"`
	TeacherName     string           `json:"teacher_name" validate:"omitempty,max=200"`
	TeacherEmail    string           `json:"teacher_email" validate:"omitempty,email"`
	RoomID          int64            `json:"room_id" validate:"required"`
	DayOfWeek       int              `json:"day_of_week" validate:"required,min=1,max=7"`
	StartTime       string           `json:"start_time" validate:"required"`
	DurationMinutes int              `json:"duration_minutes" validate:"required,min=1,max=480"`
	ValidFrom       string           `json:"valid_from" validate:"required"`
	ValidUntil      *string          `json:"valid_until" validate:"omitempty"`
	Notes           *string          `json:"notes" validate:"omitempty"`
	Students        []studentPayload `json:"students" validate:"omitempty,dive"`
}

type updatePatternRequest struct {
	StartTime       *string `json:"start_time" validate:"omitempty"`
	DurationMinutes *int    `json:"duration_minutes" validate:"omitempty,min=1,max=480"`
	ValidUntil      *string `json:"valid_until" validate:"omitempty"`
	Notes           *string `json:"notes" validate:"omitempty"`
	IsActive        *bool   `json:"is_active" validate:"omitempty"`
}

type generatePatternRequest struct {
	UntilDate string `json:"until_date" validate:"omitempty"`
}

type generateSlotsRequest struct {
	StudioID  int64   `json:"studio_id" validate:"required"`
	StartDate string  `json:"start_date" validate:"required"`
	RoomIDs   []int64 `json:"room_ids" validate:"omitempty"`
}

type blockSlotRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type restoreLessonRequest struct {
	Confirm bool `json:"confirm"`
}

type createStudioRequest struct {
	Name                string `json:"name" validate:"required,max=200"`
	WorkingHoursStart   string `json:"working_hours_start" validate:"omitempty"`
	WorkingHoursEnd     string `json:"working_hours_end" validate:"omitempty"`
	SlotDurationMinutes int    `json:"slot_duration_minutes" validate:"omitempty,min=15,max=240"`
}

type createRoomRequest struct {
	StudioID              int64  `json:"studio_id" validate:"required"`
	Name                  string `json:"name" validate:"required,max=200"`
	RoomType              string `json:"room_type" validate:"required,oneof=vocal instrument ensemble recording"`
	Capacity              int    `json:"capacity" validate:"omitempty,min=1,max=100"`
	HasPiano              bool   `json:"has_piano"`
	HasMicrophone         bool   `json:"has_microphone"`
	HasMirror             bool   `json:"has_mirror"`
	HasSoundSystem        bool   `json:"has_sound_system"`
	HasRecordingEquipment bool   `json:"has_recording_equipment"`
}

type updateRoomRequest struct {
	Name                  *string `json:"name" validate:"omitempty,max=200"`
	RoomType              *string `json:"room_type" validate:"omitempty,oneof=vocal instrument ensemble recording"`
	Capacity              *int    `json:"capacity" validate:"omitempty,min=1,max=100"`
	HasPiano              *bool   `json:"has_piano"`
	HasMicrophone         *bool   `json:"has_microphone"`
	HasMirror             *bool   `json:"has_mirror"`
	HasSoundSystem        *bool   `json:"has_sound_system"`
	HasRecordingEquipment *bool   `json:"has_recording_equipment"`
	IsActive              *bool   `json:"is_active"`
}

// parseBody разбирает и валидирует тело запроса
func (h *Handler) parseBody(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		return fmt.Errorf("invalid request body")
	}
	return h.validateStruct(dest)
}

func (h *Handler) validateStruct(dest any) error {
	err := h.validate.Struct(dest)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("field %s failed on %q", fe.Field(), fe.Tag())
	}

	return err
}

func parseDate(raw, name string) (time.Time, error) {
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a date in %s format", name, dateLayout)
	}
	return d, nil
}

// parseRangeQuery читает обязательные date_from и date_to
func parseRangeQuery(c *fiber.Ctx) (time.Time, time.Time, error) {
	from, err := parseDate(c.Query("date_from"), "date_from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseDate(c.Query("date_to"), "date_to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func queryInt64(c *fiber.Ctx, name string) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return v, nil
}

func queryInt64Ptr(c *fiber.Ctx, name string) (*int64, error) {
	if c.Query(name) == "" {
		return nil, nil
	}
	v, err := queryInt64(c, name)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	v, err := c.ParamsInt(name)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return int64(v), nil
}
