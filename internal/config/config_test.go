package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load_Defaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost:5432/schedule")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ENV", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 2, cfg.GenerationHorizonWeeks)
	assert.Equal(t, 4, cfg.MaxWeeksForward)
	assert.Equal(t, 24*time.Hour, cfg.GenerationInterval)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.True(t, cfg.ReleaseSlotOnStudentCancel)
	assert.False(t, cfg.CacheEnabled())
	assert.False(t, cfg.IsProduction())
}

func Test_Load_RequiredFields(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DSN")

	t.Setenv("DB_DSN", "postgres://localhost:5432/schedule")
	t.Setenv("JWT_SECRET", "")

	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func Test_Load_Overrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost:5432/schedule")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ENV", "production")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("GENERATION_HORIZON_WEEKS", "3")
	t.Setenv("MAX_WEEKS_FORWARD", "8")
	t.Setenv("RELEASE_SLOT_ON_STUDENT_CANCEL", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.True(t, cfg.CacheEnabled())
	assert.Equal(t, 3, cfg.GenerationHorizonWeeks)
	assert.Equal(t, 8, cfg.MaxWeeksForward)
	assert.False(t, cfg.ReleaseSlotOnStudentCancel)
}

func Test_envInt(t *testing.T) {
	t.Setenv("SOME_INT", "15")
	assert.Equal(t, 15, envInt("SOME_INT", 5))

	t.Setenv("SOME_INT", "")
	assert.Equal(t, 5, envInt("SOME_INT", 5))

	t.Setenv("SOME_INT", "fifteen")
	assert.Equal(t, 5, envInt("SOME_INT", 5))
}

func Test_envBool(t *testing.T) {
	t.Setenv("SOME_BOOL", "true")
	assert.True(t, envBool("SOME_BOOL", false))

	t.Setenv("SOME_BOOL", "0")
	assert.False(t, envBool("SOME_BOOL", true))

	t.Setenv("SOME_BOOL", "")
	assert.True(t, envBool("SOME_BOOL", true))

	t.Setenv("SOME_BOOL", "yes")
	assert.True(t, envBool("SOME_BOOL", true))
}
