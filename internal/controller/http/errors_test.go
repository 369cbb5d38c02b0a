package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/Freeeeeet/schedule_service/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func Test_respondError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "slot_not_found",
			err:        service.ErrSlotNotFound,
			wantStatus: fiber.StatusNotFound,
			wantCode:   codeNotFound,
		},
		{
			name:       "wrapped_lesson_not_found",
			err:        fmt.Errorf("get lesson: %w", service.ErrLessonNotFound),
			wantStatus: fiber.StatusNotFound,
			wantCode:   codeNotFound,
		},
		{
			name:       "permission_denied",
			err:        fmt.Errorf("%w: lesson is not yours", service.ErrPermissionDenied),
			wantStatus: fiber.StatusForbidden,
			wantCode:   codePermissionDenied,
		},
		{
			name:       "invalid_transition",
			err:        fmt.Errorf("%w: completed lesson", service.ErrInvalidTransition),
			wantStatus: fiber.StatusConflict,
			wantCode:   codeInvalidTransition,
		},
		{
			name:       "slot_conflict",
			err:        fmt.Errorf("%w: slot was taken concurrently", service.ErrSlotConflict),
			wantStatus: fiber.StatusConflict,
			wantCode:   codeConflict,
		},
		{
			name:       "duplicate_student",
			err:        service.ErrDuplicateStudent,
			wantStatus: fiber.StatusConflict,
			wantCode:   codeConflict,
		},
		{
			name:       "lesson_full",
			err:        fmt.Errorf("%w: 2 of 2 seats taken", service.ErrLessonFull),
			wantStatus: fiber.StatusConflict,
			wantCode:   codeConflict,
		},
		{
			name:       "validation",
			err:        fmt.Errorf("%w: week_start_date must be a Monday", service.ErrValidation),
			wantStatus: fiber.StatusUnprocessableEntity,
			wantCode:   codeValidation,
		},
		{
			name:       "storage_timeout",
			err:        fmt.Errorf("query lessons: %w", context.DeadlineExceeded),
			wantStatus: fiber.StatusServiceUnavailable,
			wantCode:   codeUnavailable,
		},
		{
			name:       "unknown_error_is_masked",
			err:        errors.New("pq: column does not exist"),
			wantStatus: fiber.StatusInternalServerError,
			wantCode:   codeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return respondError(c, testLogger(), tt.err)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var envelope errorEnvelope
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
			assert.Equal(t, tt.wantCode, envelope.Error.Code)

			switch tt.wantStatus {
			case fiber.StatusServiceUnavailable:
				assert.Equal(t, "storage temporarily unavailable", envelope.Error.Message)
			case fiber.StatusInternalServerError:
				// Текст внутренней ошибки наружу не уходит
				assert.Equal(t, "internal error", envelope.Error.Message)
			default:
				assert.NotEmpty(t, envelope.Error.Message)
			}
		})
	}
}

// Сообщение обёрнутой ошибки доходит до клиента целиком
func Test_respondError_KeepsWrappedMessage(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return respondError(c, testLogger(), fmt.Errorf("%w: slot is blocked", service.ErrInvalidTransition))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)

	var envelope errorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "invalid status transition: slot is blocked", envelope.Error.Message)
}
