package http

import (
	"time"

	"github.com/Freeeeeet/schedule_service/internal/service"
	"github.com/gofiber/fiber/v2"
)

// CreatePattern создаёт еженедельный шаблон и сразу генерирует уроки
func (h *Handler) CreatePattern(c *fiber.Ctx) error {
	actor := ActorFromCtx(c)

	var req createPatternRequest
	if err := h.parseBody(c, &req); err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	validFrom, err := parseDate(req.ValidFrom, "valid_from")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	var validUntil *time.Time
	if req.ValidUntil != nil {
		d, err := parseDate(*req.ValidUntil, "valid_until")
		if err != nil {
			return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
		}
		validUntil = &d
	}

	students := make([]service.StudentInput, 0, len(req.Students))
	for _, p := range req.Students {
		students = append(students, p.toInput())
	}

	pattern, report, err := h.patterns.CreatePattern(c.Context(), actor, service.CreatePatternInput{
		StudioID:        req.StudioID,
		TeacherID:       req.TeacherID,
		TeacherName:     req.TeacherName,
		TeacherEmail:    req.TeacherEmail,
		RoomID:          req.RoomID,
		DayOfWeek:       req.DayOfWeek,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		ValidFrom:       validFrom,
		ValidUntil:      validUntil,
		Notes:           req.Notes,
		Students:        students,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"pattern":                 pattern,
		"generated_lessons_count": report.Generated,
	})
}

// ListPatterns отдаёт шаблоны с фильтрами по студии и преподавателю
func (h *Handler) ListPatterns(c *fiber.Ctx) error {
	actor := ActorFromCtx(c)

	studioID, err := queryInt64Ptr(c, "studio_id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}
	teacherID, err := queryInt64Ptr(c, "teacher_id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	patterns, err := h.patterns.ListPatterns(c.Context(), actor, studioID, teacherID, c.QueryBool("active_only", false))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"patterns": patterns})
}

// GetPattern отдаёт шаблон со списком учеников
func (h *Handler) GetPattern(c *fiber.Ctx) error {
	actor := ActorFromCtx(c)

	patternID, err := paramID(c, "id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	pattern, err := h.patterns.GetPattern(c.Context(), actor, patternID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"pattern": pattern})
}

// UpdatePattern меняет время, длительность или срок действия шаблона.
// Уже сгенерированные уроки не трогает.
func (h *Handler) UpdatePattern(c *fiber.Ctx) error {
	actor := ActorFromCtx(c)

	patternID, err := paramID(c, "id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	var req updatePatternRequest
	if err := h.parseBody(c, &req); err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	in := service.UpdatePatternInput{
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
		IsActive:        req.IsActive,
	}
	if req.ValidUntil != nil {
		d, err := parseDate(*req.ValidUntil, "valid_until")
		if err != nil {
			return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
		}
		in.ValidUntil = &d
	}

	pattern, err := h.patterns.UpdatePattern(c.Context(), actor, patternID, in)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"pattern": pattern})
}

// DeactivatePattern останавливает генерацию по шаблону
func (h *Handler) DeactivatePattern(c *fiber.Ctx) error {
	actor := ActorFromCtx(c)

	patternID, err := paramID(c, "id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	if err := h.patterns.DeactivatePattern(c.Context(), actor, patternID); err != nil {
		return respondError(c, h.logger, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// DeletePattern удаляет шаблон. Сгенерированные уроки остаются.
func (h *Handler) DeletePattern(c *fiber.Ctx) error {
	actor := ActorFromCtx(c)

	patternID, err := paramID(c, "id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	if err := h.patterns.DeletePattern(c.Context(), actor, patternID); err != nil {
		return respondError(c, h.logger, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GeneratePattern догенерирует уроки шаблона до указанной даты
func (h *Handler) GeneratePattern(c *fiber.Ctx) error {
	actor := ActorFromCtx(c)

	patternID, err := paramID(c, "id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	var req generatePatternRequest
	if len(c.Body()) > 0 {
		if err := h.parseBody(c, &req); err != nil {
			return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
		}
	}

	var until time.Time
	if req.UntilDate != "" {
		until, err = parseDate(req.UntilDate, "until_date")
		if err != nil {
			return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
		}
	}

	report, err := h.patterns.Generate(c.Context(), actor, patternID, until)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(report)
}

// AddPatternStudent добавляет ученика в состав шаблона
func (h *Handler) AddPatternStudent(c *fiber.Ctx) error {
	actor := ActorFromCtx(c)

	patternID, err := paramID(c, "id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	var req studentPayload
	if err := h.parseBody(c, &req); err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	pattern, err := h.patterns.AddPatternStudent(c.Context(), actor, patternID, req.toInput())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"pattern": pattern})
}

// RemovePatternStudent убирает ученика из состава шаблона
func (h *Handler) RemovePatternStudent(c *fiber.Ctx) error {
	actor := ActorFromCtx(c)

	patternID, err := paramID(c, "id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	studentID, err := paramID(c, "student_id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	pattern, err := h.patterns.RemovePatternStudent(c.Context(), actor, patternID, studentID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"pattern": pattern})
}
