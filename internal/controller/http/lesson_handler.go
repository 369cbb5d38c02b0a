package http

import (
	"github.com/Freeeeeet/schedule_service/internal/model"
	"github.com/Freeeeeet/schedule_service/internal/service"
	"github.com/gofiber/fiber/v2"
)

// CreateLesson создаёт урок на зарезервированном слоте
func (h *Handler) CreateLesson(c *fiber.Ctx) error {
	actor := ActorFromCtx(c)

	var req createLessonRequest
	if err := h.parseBody(c, &req); err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}
	if req.MaxStudents == 0 {
		req.MaxStudents = 1
	}

	lesson, err := h.lessons.CreateLesson(c.Context(), actor, service.CreateLessonInput{
		SlotID:      req.SlotID,
		Title:       req.Title,
		LessonType:  model.LessonType(req.LessonType),
		MaxStudents: req.MaxStudents,
		Notes:       req.Notes,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"lesson": lesson})
}

// GetLesson отдаёт урок со списком учеников
func (h *Handler) GetLesson(c *fiber.Ctx) error {
	actor := ActorFromCtx(c)

	lessonID, err := paramID(c, "id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	lesson, err := h.lessons.GetLesson(c.Context(), actor, lessonID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"lesson": lesson})
}

// EnrollStudent записывает ученика на урок
func (h *Handler) EnrollStudent(c *fiber.Ctx) error {
	actor := ActorFromCtx(c)

	lessonID, err := paramID(c, "id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	var req studentPayload
	if err := h.parseBody(c, &req); err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	lesson, err := h.lessons.EnrollStudent(c.Context(), actor, lessonID, req.toInput())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"lesson": lesson})
}

// RemoveStudent снимает ученика с урока
func (h *Handler) RemoveStudent(c *fiber.Ctx) error {
	actor := ActorFromCtx(c)

	lessonID, err := paramID(c, "id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	var req removeStudentRequest
	if err := h.parseBody(c, &req); err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	lesson, err := h.lessons.RemoveStudent(c.Context(), actor, lessonID, req.StudentID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"lesson": lesson})
}

// CancelLessonByTeacher отменяет урок от имени преподавателя
func (h *Handler) CancelLessonByTeacher(c *fiber.Ctx) error {
	actor := ActorFromCtx(c)

	lessonID, err := paramID(c, "id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	var req cancelLessonRequest
	if err := h.parseBody(c, &req); err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	lesson, err := h.lessons.CancelByTeacher(c.Context(), actor, lessonID, req.Reason)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"lesson": lesson})
}

// CancelLessonByStudent — самоотмена записи учеником
func (h *Handler) CancelLessonByStudent(c *fiber.Ctx) error {
	actor := ActorFromCtx(c)

	lessonID, err := paramID(c, "id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	lesson, err := h.lessons.CancelByStudent(c.Context(), actor, lessonID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"lesson": lesson})
}

// StartLesson переводит урок в проведение
func (h *Handler) StartLesson(c *fiber.Ctx) error {
	actor := ActorFromCtx(c)

	lessonID, err := paramID(c, "id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	lesson, err := h.lessons.StartLesson(c.Context(), actor, lessonID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"lesson": lesson})
}

// CompleteLesson завершает урок. Тело с notes/homework необязательно.
func (h *Handler) CompleteLesson(c *fiber.Ctx) error {
	actor := ActorFromCtx(c)

	lessonID, err := paramID(c, "id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	var req completeLessonRequest
	if len(c.Body()) > 0 {
		if err := h.parseBody(c, &req); err != nil {
			return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
		}
	}

	lesson, err := h.lessons.CompleteLesson(c.Context(), actor, lessonID, req.Notes, req.Homework)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"lesson": lesson})
}

// MarkNoShow фиксирует неявку ученика
func (h *Handler) MarkNoShow(c *fiber.Ctx) error {
	actor := ActorFromCtx(c)

	lessonID, err := paramID(c, "id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	lesson, err := h.lessons.MarkNoShow(c.Context(), actor, lessonID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"lesson": lesson})
}
