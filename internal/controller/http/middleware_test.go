package http

import (
	"net/http/httptest"
	"testing"

	"github.com/Freeeeeet/schedule_service/internal/model"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func authTestApp() *fiber.App {
	app := fiber.New()
	auth := NewAuth(testSecret)
	app.Get("/whoami", auth.Authenticate(), func(c *fiber.Ctx) error {
		return c.JSON(ActorFromCtx(c))
	})
	return app
}

func Test_Authenticate_ValidToken(t *testing.T) {
	app := authTestApp()

	token := signToken(t, jwt.MapClaims{
		"sub":       "42",
		"role":      "teacher",
		"name":      "Мария Иванова",
		"email":     "maria@example.com",
		"studio_id": float64(7),
	})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func Test_Authenticate_Rejections(t *testing.T) {
	app := authTestApp()

	tests := []struct {
		name   string
		header string
	}{
		{"missing_header", ""},
		{"not_bearer", "Basic dXNlcjpwYXNz"},
		{"garbage_token", "Bearer not.a.token"},
		{
			name: "wrong_secret",
			header: func() string {
				token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
					"sub": "42", "role": "teacher",
				}).SignedString([]byte("another-secret"))
				return "Bearer " + token
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func Test_actorFromClaims(t *testing.T) {
	actor, err := actorFromClaims(jwt.MapClaims{
		"sub":       "42",
		"role":      "teacher",
		"name":      "Мария",
		"email":     "maria@example.com",
		"studio_id": float64(7),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), actor.ID)
	assert.Equal(t, model.RoleTeacher, actor.Role)
	assert.Equal(t, "Мария", actor.Name)
	require.NotNil(t, actor.StudioID)
	assert.Equal(t, int64(7), *actor.StudioID)

	// sub как число, studio_id не задан
	actor, err = actorFromClaims(jwt.MapClaims{"sub": float64(5), "role": "admin"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), actor.ID)
	assert.True(t, actor.IsAdmin())
	assert.Nil(t, actor.StudioID)

	_, err = actorFromClaims(jwt.MapClaims{"sub": "0", "role": "teacher"})
	require.Error(t, err)

	_, err = actorFromClaims(jwt.MapClaims{"sub": "abc", "role": "teacher"})
	require.Error(t, err)

	_, err = actorFromClaims(jwt.MapClaims{"sub": "42", "role": "superuser"})
	require.Error(t, err)

	_, err = actorFromClaims(jwt.MapClaims{"role": "teacher"})
	require.Error(t, err)
}

func Test_claimInt64(t *testing.T) {
	v, err := claimInt64("123")
	require.NoError(t, err)
	assert.Equal(t, int64(123), v)

	v, err = claimInt64(float64(42))
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	_, err = claimInt64(true)
	require.Error(t, err)

	_, err = claimInt64(nil)
	require.Error(t, err)
}

func Test_RequireRole(t *testing.T) {
	app := fiber.New()
	app.Get("/admin-only",
		func(c *fiber.Ctx) error {
			c.Locals(actorKey, model.Actor{ID: 1, Role: model.RoleTeacher})
			return c.Next()
		},
		RequireRole(model.RoleAdmin),
		func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) },
	)
	app.Get("/teacher-or-admin",
		func(c *fiber.Ctx) error {
			c.Locals(actorKey, model.Actor{ID: 1, Role: model.RoleTeacher})
			return c.Next()
		},
		RequireRole(model.RoleTeacher, model.RoleAdmin),
		func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) },
	)

	resp, err := app.Test(httptest.NewRequest("GET", "/admin-only", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/teacher-or-admin", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func Test_RequireInternalKey(t *testing.T) {
	app := fiber.New()
	app.Post("/internal", RequireInternalKey("s3cret"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	// Пустой настроенный ключ закрывает эндпоинт целиком
	app.Post("/closed", RequireInternalKey(""), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("POST", "/internal", nil)
	req.Header.Set("X-Internal-API-Key", "s3cret")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("POST", "/internal", nil)
	req.Header.Set("X-Internal-API-Key", "wrong")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("POST", "/closed", nil)
	req.Header.Set("X-Internal-API-Key", "")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func Test_requestID_HeaderPropagation(t *testing.T) {
	app := fiber.New()
	app.Use(requestID(testLogger()))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	// Свой заголовок сохраняется
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "my-id")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "my-id", resp.Header.Get("X-Request-ID"))

	// Без заголовка генерируется новый
	resp, err = app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
