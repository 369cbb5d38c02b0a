package http

import (
	"github.com/gofiber/fiber/v2"
)

// AvailableSlots отдаёт свободные слоты студии за период
func (h *Handler) AvailableSlots(c *fiber.Ctx) error {
	studioID, err := queryInt64(c, "studio_id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	from, to, err := parseRangeQuery(c)
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	roomID, err := queryInt64Ptr(c, "room_id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	slots, err := h.schedule.AvailableSlots(c.Context(), studioID, from, to, roomID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"slots": slots})
}

// TeacherSchedule отдаёт расписание преподавателя по дням
func (h *Handler) TeacherSchedule(c *fiber.Ctx) error {
	actor := ActorFromCtx(c)

	from, to, err := parseRangeQuery(c)
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	days, err := h.schedule.TeacherSchedule(c.Context(), actor.ID, from, to)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"teacher_id": actor.ID,
		"date_from":  from.Format(dateLayout),
		"date_to":    to.Format(dateLayout),
		"days":       days,
	})
}

// StudentSchedule отдаёт уроки ученика по дням
func (h *Handler) StudentSchedule(c *fiber.Ctx) error {
	actor := ActorFromCtx(c)

	from, to, err := parseRangeQuery(c)
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	days, err := h.schedule.StudentSchedule(c.Context(), actor.ID, from, to)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"student_id": actor.ID,
		"date_from":  from.Format(dateLayout),
		"date_to":    to.Format(dateLayout),
		"days":       days,
	})
}

// ReserveSlot резервирует свободный слот за преподавателем
func (h *Handler) ReserveSlot(c *fiber.Ctx) error {
	actor := ActorFromCtx(c)

	var req reserveSlotRequest
	if err := h.parseBody(c, &req); err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	slot, err := h.slots.ReserveSlot(c.Context(), actor, req.SlotID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"slot": slot})
}

// ReleaseSlot возвращает зарезервированный слот в свободные
func (h *Handler) ReleaseSlot(c *fiber.Ctx) error {
	actor := ActorFromCtx(c)

	var req reserveSlotRequest
	if err := h.parseBody(c, &req); err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	slot, err := h.slots.ReleaseSlot(c.Context(), actor, req.SlotID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"slot": slot})
}
