package service

import "errors"

// Общие ошибки сервисного слоя. HTTP-контроллер сопоставляет их
// со статус-кодами через errors.Is, поэтому сервисы оборачивают
// детали через fmt.Errorf("%w: ...", Err...).
var (
	ErrStudioNotFound     = errors.New("studio not found")
	ErrRoomNotFound       = errors.New("room not found")
	ErrSlotNotFound       = errors.New("slot not found")
	ErrLessonNotFound     = errors.New("lesson not found")
	ErrPatternNotFound    = errors.New("recurring pattern not found")
	ErrStudentNotEnrolled = errors.New("student not enrolled")

	ErrSlotConflict     = errors.New("slot conflict")
	ErrDuplicateStudent = errors.New("student already enrolled")
	ErrLessonFull       = errors.New("lesson is full")

	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrValidation        = errors.New("validation failed")
)
