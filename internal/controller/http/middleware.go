package http

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/schedule_service/internal/model"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const actorKey = "actor"

// requestID проставляет X-Request-ID и логирует итог запроса
func requestID(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("X-Request-ID", id)
		c.Locals("request_id", id)

		start := time.Now()
		err := c.Next()

		logger.Info("Request handled",
			zap.String("request_id", id),
			zap.String("method", c.Method()),
			zap.String("path", c.OriginalURL()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)))

		return err
	}
}

// Auth проверяет JWT и раскладывает claims в model.Actor
type Auth struct {
	secret []byte
}

func NewAuth(secret string) *Auth {
	return &Auth{secret: []byte(secret)}
}

// Authenticate требует валидный Bearer-токен
func (a *Auth) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return respondStatus(c, fiber.StatusUnauthorized, codeUnauthorized, "missing bearer token")
		}

		token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return a.secret, nil
		})
		if err != nil || !token.Valid {
			return respondStatus(c, fiber.StatusUnauthorized, codeUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return respondStatus(c, fiber.StatusUnauthorized, codeUnauthorized, "invalid claims")
		}

		actor, err := actorFromClaims(claims)
		if err != nil {
			return respondStatus(c, fiber.StatusUnauthorized, codeUnauthorized, err.Error())
		}

		c.Locals(actorKey, actor)
		return c.Next()
	}
}

// RequireRole пускает дальше только перечисленные роли
func RequireRole(roles ...model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := ActorFromCtx(c)
		for _, role := range roles {
			if actor.Role == role {
				return c.Next()
			}
		}
		return respondStatus(c, fiber.StatusForbidden, codePermissionDenied, "insufficient role")
	}
}

// RequireInternalKey защищает служебные эндпоинты общим ключом
func RequireInternalKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key == "" || c.Get("X-Internal-API-Key") != key {
			return respondStatus(c, fiber.StatusUnauthorized, codeUnauthorized, "invalid internal api key")
		}
		return c.Next()
	}
}

// ActorFromCtx достаёт аутентифицированного актёра из контекста запроса
func ActorFromCtx(c *fiber.Ctx) model.Actor {
	actor, _ := c.Locals(actorKey).(model.Actor)
	return actor
}

func actorFromClaims(claims jwt.MapClaims) (model.Actor, error) {
	id, err := claimInt64(claims["sub"])
	if err != nil || id <= 0 {
		return model.Actor{}, fmt.Errorf("bad sub claim")
	}

	role, _ := claims["role"].(string)
	switch model.Role(role) {
	case model.RoleTeacher, model.RoleStudent, model.RoleAdmin:
	default:
		return model.Actor{}, fmt.Errorf("bad role claim")
	}

	actor := model.Actor{ID: id, Role: model.Role(role)}
	actor.Name, _ = claims["name"].(string)
	actor.Email, _ = claims["email"].(string)

	if v, ok := claims["studio_id"]; ok {
		if studioID, err := claimInt64(v); err == nil {
			actor.StudioID = &studioID
		}
	}

	return actor, nil
}

func claimInt64(v any) (int64, error) {
	switch x := v.(type) {
	case string:
		return strconv.ParseInt(x, 10, 64)
	case float64:
		return int64(x), nil
	}
	return 0, fmt.Errorf("unsupported claim type %T", v)
}
