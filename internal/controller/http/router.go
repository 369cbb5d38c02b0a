package http

import (
	"context"
	"errors"
	"time"

	"github.com/Freeeeeet/schedule_service/internal/model"
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const pingTimeout = 3 * time.Second

// NewApp собирает fiber-приложение: middleware, health-чеки и маршруты.
// redisClient может быть nil, тогда readiness сообщает "disabled".
func NewApp(
	h *Handler,
	auth *Auth,
	internalAPIKey string,
	pool *pgxpool.Pool,
	redisClient *redis.Client,
	logger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "schedule_service",
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}

			switch {
			case status == fiber.StatusNotFound:
				return respondStatus(c, status, codeNotFound, "route not found")
			case status >= fiber.StatusInternalServerError:
				logger.Error("Unhandled request error",
					zap.String("method", c.Method()),
					zap.String("path", c.Path()),
					zap.Error(err))
				return respondStatus(c, status, codeInternal, "internal error")
			default:
				return respondStatus(c, status, codeValidation, err.Error())
			}
		},
	})

	app.Use(requestID(logger))
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(cors.New())
	app.Use(compress.New())
	app.Use(etag.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/health/ready", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), pingTimeout)
		defer cancel()

		if err := pool.Ping(ctx); err != nil {
			logger.Warn("Postgres ping failed", zap.Error(err))
			return respondStatus(c, fiber.StatusServiceUnavailable, codeUnavailable, "postgres is unreachable")
		}

		// Redis опционален: его недоступность не валит готовность
		redisStatus := "disabled"
		if redisClient != nil {
			redisStatus = "ok"
			if err := redisClient.Ping(ctx).Err(); err != nil {
				logger.Warn("Redis ping failed", zap.Error(err))
				redisStatus = "unavailable"
			}
		}

		return c.JSON(fiber.Map{
			"status":   "ok",
			"postgres": "ok",
			"redis":    redisStatus,
		})
	})

	api := app.Group("/api/v1", auth.Authenticate())

	schedule := api.Group("/schedule")
	schedule.Get("/available-slots", h.AvailableSlots)
	schedule.Get("/lessons/:id", h.GetLesson)

	teacher := schedule.Group("/teacher", RequireRole(model.RoleTeacher, model.RoleAdmin))
	teacher.Get("/", h.TeacherSchedule)
	teacher.Post("/reserve-slot", h.ReserveSlot)
	teacher.Post("/release-slot", h.ReleaseSlot)
	teacher.Post("/create-lesson", h.CreateLesson)
	teacher.Post("/lessons/:id/enroll-student", h.EnrollStudent)
	teacher.Post("/lessons/:id/remove-student", h.RemoveStudent)
	teacher.Post("/lessons/:id/cancel", h.CancelLessonByTeacher)
	teacher.Post("/lessons/:id/start", h.StartLesson)
	teacher.Post("/lessons/:id/complete", h.CompleteLesson)
	teacher.Post("/lessons/:id/no-show", h.MarkNoShow)

	student := schedule.Group("/student", RequireRole(model.RoleStudent, model.RoleAdmin))
	student.Get("/", h.StudentSchedule)
	student.Post("/lessons/:id/cancel", h.CancelLessonByStudent)

	patterns := api.Group("/recurring-patterns", RequireRole(model.RoleTeacher, model.RoleAdmin))
	patterns.Post("/", h.CreatePattern)
	patterns.Get("/", h.ListPatterns)
	patterns.Get("/:id", h.GetPattern)
	patterns.Patch("/:id", h.UpdatePattern)
	patterns.Delete("/:id", h.DeletePattern)
	patterns.Post("/:id/deactivate", h.DeactivatePattern)
	patterns.Post("/:id/generate", h.GeneratePattern)
	patterns.Post("/:id/students", h.AddPatternStudent)
	patterns.Delete("/:id/students/:student_id", h.RemovePatternStudent)

	admin := api.Group("/admin", RequireRole(model.RoleAdmin))
	admin.Post("/generate-slots", h.GenerateSlots)
	admin.Post("/slots/:id/block", h.BlockSlot)
	admin.Post("/slots/:id/unblock", h.UnblockSlot)
	admin.Get("/schedule", h.AdminSchedule)
	admin.Get("/statistics", h.Statistics)
	admin.Post("/lessons/:id/emergency-cancel", h.EmergencyCancel)
	admin.Post("/lessons/:id/restore", h.RestoreLesson)
	admin.Get("/rooms", h.ListRooms)
	admin.Post("/rooms", h.CreateRoom)
	admin.Patch("/rooms/:id", h.UpdateRoom)
	admin.Get("/studios", h.ListStudios)
	admin.Post("/studios", h.CreateStudio)
	admin.Get("/studios/:id", h.GetStudio)

	internal := app.Group("/internal", RequireInternalKey(internalAPIKey))
	internal.Post("/patterns/generate-all", h.GenerateAllPatterns)

	return app
}
