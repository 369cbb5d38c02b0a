package http

import (
	"context"
	"errors"

	"github.com/Freeeeeet/schedule_service/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const (
	codeNotFound          = "not_found"
	codePermissionDenied  = "permission_denied"
	codeConflict          = "conflict"
	codeInvalidTransition = "invalid_transition"
	codeValidation        = "validation_error"
	codeUnauthorized      = "unauthorized"
	codeUnavailable       = "service_unavailable"
	codeInternal          = "internal_error"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorEnvelope — единый формат ошибок API
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func respondStatus(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

// respondError переводит ошибки сервисного слоя в статус-коды.
// Внутренние ошибки наружу не раскрываются, только логируются.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	var status int
	var code string

	switch {
	case errors.Is(err, service.ErrStudioNotFound),
		errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrSlotNotFound),
		errors.Is(err, service.ErrLessonNotFound),
		errors.Is(err, service.ErrPatternNotFound),
		errors.Is(err, service.ErrStudentNotEnrolled):
		status, code = fiber.StatusNotFound, codeNotFound

	case errors.Is(err, service.ErrPermissionDenied):
		status, code = fiber.StatusForbidden, codePermissionDenied

	case errors.Is(err, service.ErrInvalidTransition):
		status, code = fiber.StatusConflict, codeInvalidTransition

	case errors.Is(err, service.ErrSlotConflict),
		errors.Is(err, service.ErrDuplicateStudent),
		errors.Is(err, service.ErrLessonFull):
		status, code = fiber.StatusConflict, codeConflict

	case errors.Is(err, service.ErrValidation):
		status, code = fiber.StatusUnprocessableEntity, codeValidation

	case isStorageUnavailable(err):
		status, code = fiber.StatusServiceUnavailable, codeUnavailable

	default:
		status, code = fiber.StatusInternalServerError, codeInternal
	}

	if status >= fiber.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))

		message := "internal error"
		if status == fiber.StatusServiceUnavailable {
			message = "storage temporarily unavailable"
		}
		return respondStatus(c, status, code, message)
	}

	return respondStatus(c, status, code, err.Error())
}

// isStorageUnavailable распознает отказ хранилища, на который клиенту
// имеет смысл повторить запрос
func isStorageUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return pgconn.SafeToRetry(err)
}
