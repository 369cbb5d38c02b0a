package http

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Приложение без БД: до сервисов эти запросы дойти не должны
func routerTestApp() *fiber.App {
	logger := testLogger()
	h := NewHandler(nil, nil, nil, nil, nil, logger)
	return NewApp(h, NewAuth(testSecret), "internal-key", nil, nil, logger)
}

func Test_Router_HealthIsPublic(t *testing.T) {
	app := routerTestApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func Test_Router_APIRequiresToken(t *testing.T) {
	app := routerTestApp()

	paths := []string{
		"/api/v1/schedule/available-slots",
		"/api/v1/schedule/teacher",
		"/api/v1/recurring-patterns",
		"/api/v1/admin/statistics",
	}

	for _, path := range paths {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, path)
	}
}

func Test_Router_RoleGuards(t *testing.T) {
	app := routerTestApp()

	studentToken := signToken(t, jwt.MapClaims{"sub": "10", "role": "student"})
	teacherToken := signToken(t, jwt.MapClaims{"sub": "42", "role": "teacher"})

	// Ученику закрыто расписание преподавателя и админка
	for _, path := range []string{"/api/v1/schedule/teacher", "/api/v1/admin/schedule"} {
		req := httptest.NewRequest("GET", path, nil)
		req.Header.Set("Authorization", "Bearer "+studentToken)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, path)
	}

	// Преподавателю закрыта админка
	req := httptest.NewRequest("POST", "/api/v1/admin/generate-slots", nil)
	req.Header.Set("Authorization", "Bearer "+teacherToken)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// Авторизация и роль проходят, дальше срабатывает валидация параметров
	req = httptest.NewRequest("GET", "/api/v1/schedule/teacher", nil)
	req.Header.Set("Authorization", "Bearer "+teacherToken)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func Test_Router_InternalEndpointRequiresKey(t *testing.T) {
	app := routerTestApp()

	resp, err := app.Test(httptest.NewRequest("POST", "/internal/patterns/generate-all", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("POST", "/internal/patterns/generate-all", nil)
	req.Header.Set("X-Internal-API-Key", "wrong")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func Test_Router_UnknownRouteUsesErrorEnvelope(t *testing.T) {
	app := routerTestApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var envelope errorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, codeNotFound, envelope.Error.Code)
}
