package http

import (
	"github.com/Freeeeeet/schedule_service/internal/model"
	"github.com/Freeeeeet/schedule_service/internal/service"
	"github.com/gofiber/fiber/v2"
)

// GenerateSlots строит сетку свободных слотов студии на неделю
func (h *Handler) GenerateSlots(c *fiber.Ctx) error {
	var req generateSlotsRequest
	if err := h.parseBody(c, &req); err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	startDate, err := parseDate(req.StartDate, "start_date")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	total, err := h.slots.GenerateWeekSlots(c.Context(), req.StudioID, startDate, req.RoomIDs)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"total_slots": total})
}

// BlockSlot закрывает слот для записи
func (h *Handler) BlockSlot(c *fiber.Ctx) error {
	slotID, err := paramID(c, "id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	var req blockSlotRequest
	if err := h.parseBody(c, &req); err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	slot, err := h.slots.BlockSlot(c.Context(), slotID, req.Reason)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"slot": slot})
}

// UnblockSlot возвращает заблокированный слот в свободные
func (h *Handler) UnblockSlot(c *fiber.Ctx) error {
	slotID, err := paramID(c, "id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	slot, err := h.slots.UnblockSlot(c.Context(), slotID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"slot": slot})
}

// AdminSchedule отдаёт расписание студии с фильтрами по кабинету и преподавателю
func (h *Handler) AdminSchedule(c *fiber.Ctx) error {
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
	teacherID, err := queryInt64Ptr(c, "teacher_id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	days, err := h.schedule.StudioSchedule(c.Context(), studioID, from, to, roomID, teacherID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"studio_id": studioID,
		"date_from": from.Format(dateLayout),
		"date_to":   to.Format(dateLayout),
		"days":      days,
	})
}

// Statistics отдаёт счётчики уроков, слотов и занятость кабинетов
func (h *Handler) Statistics(c *fiber.Ctx) error {
	studioID, err := queryInt64(c, "studio_id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	from, to, err := parseRangeQuery(c)
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	stats, err := h.schedule.Statistics(c.Context(), studioID, from, to)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(stats)
}

// EmergencyCancel отменяет урок административно, включая идущий
func (h *Handler) EmergencyCancel(c *fiber.Ctx) error {
	actor := ActorFromCtx(c)

	lessonID, err := paramID(c, "id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	var req cancelLessonRequest
	if err := h.parseBody(c, &req); err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	lesson, err := h.lessons.EmergencyCancel(c.Context(), actor, lessonID, req.Reason)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"lesson": lesson})
}

// RestoreLesson возвращает отменённый урок в расписание
func (h *Handler) RestoreLesson(c *fiber.Ctx) error {
	actor := ActorFromCtx(c)

	lessonID, err := paramID(c, "id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	var req restoreLessonRequest
	if err := h.parseBody(c, &req); err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	lesson, err := h.lessons.RestoreLesson(c.Context(), actor, lessonID, req.Confirm)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"lesson": lesson})
}

// ListRooms отдаёт кабинеты студии
func (h *Handler) ListRooms(c *fiber.Ctx) error {
	studioID, err := queryInt64(c, "studio_id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	rooms, err := h.studios.ListRooms(c.Context(), studioID, c.QueryBool("active_only", false))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"rooms": rooms})
}

// CreateRoom добавляет кабинет в студию
func (h *Handler) CreateRoom(c *fiber.Ctx) error {
	var req createRoomRequest
	if err := h.parseBody(c, &req); err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}
	if req.Capacity == 0 {
		req.Capacity = 1
	}

	room, err := h.studios.CreateRoom(c.Context(), service.CreateRoomInput{
		StudioID:              req.StudioID,
		Name:                  req.Name,
		RoomType:              model.RoomType(req.RoomType),
		Capacity:              req.Capacity,
		HasPiano:              req.HasPiano,
		HasMicrophone:         req.HasMicrophone,
		HasMirror:             req.HasMirror,
		HasSoundSystem:        req.HasSoundSystem,
		HasRecordingEquipment: req.HasRecordingEquipment,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"room": room})
}

// UpdateRoom меняет параметры кабинета, включая активность
func (h *Handler) UpdateRoom(c *fiber.Ctx) error {
	roomID, err := paramID(c, "id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	var req updateRoomRequest
	if err := h.parseBody(c, &req); err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	in := service.UpdateRoomInput{
		Name:                  req.Name,
		Capacity:              req.Capacity,
		HasPiano:              req.HasPiano,
		HasMicrophone:         req.HasMicrophone,
		HasMirror:             req.HasMirror,
		HasSoundSystem:        req.HasSoundSystem,
		HasRecordingEquipment: req.HasRecordingEquipment,
		IsActive:              req.IsActive,
	}
	if req.RoomType != nil {
		rt := model.RoomType(*req.RoomType)
		in.RoomType = &rt
	}

	room, err := h.studios.UpdateRoom(c.Context(), roomID, in)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"room": room})
}

// ListStudios отдаёт все студии
func (h *Handler) ListStudios(c *fiber.Ctx) error {
	studios, err := h.studios.ListStudios(c.Context())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"studios": studios})
}

// GetStudio отдаёт студию по идентификатору
func (h *Handler) GetStudio(c *fiber.Ctx) error {
	studioID, err := paramID(c, "id")
	if err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}

	studio, err := h.studios.GetStudio(c.Context(), studioID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{"studio": studio})
}

// CreateStudio создаёт студию
func (h *Handler) CreateStudio(c *fiber.Ctx) error {
	var req createStudioRequest
	if err := h.parseBody(c, &req); err != nil {
		return respondStatus(c, fiber.StatusUnprocessableEntity, codeValidation, err.Error())
	}
	if req.WorkingHoursStart == "" {
		req.WorkingHoursStart = "09:00"
	}
	if req.WorkingHoursEnd == "" {
		req.WorkingHoursEnd = "21:00"
	}
	if req.SlotDurationMinutes == 0 {
		req.SlotDurationMinutes = 60
	}

	studio, err := h.studios.CreateStudio(c.Context(), service.CreateStudioInput{
		Name:                req.Name,
		WorkingHoursStart:   req.WorkingHoursStart,
		WorkingHoursEnd:     req.WorkingHoursEnd,
		SlotDurationMinutes: req.SlotDurationMinutes,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"studio": studio})
}

// GenerateAllPatterns — внутренняя ручка для прогона генерации по всем шаблонам
func (h *Handler) GenerateAllPatterns(c *fiber.Ctx) error {
	reports, err := h.patterns.GenerateAll(c.Context(), 0)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var generated, skipped int
	for _, r := range reports {
		generated += r.Generated
		skipped += r.Skipped
	}

	return c.JSON(fiber.Map{
		"patterns":  len(reports),
		"generated": generated,
		"skipped":   skipped,
		"reports":   reports,
	})
}
