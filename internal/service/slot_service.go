package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/schedule_service/internal/cache"
	"github.com/Freeeeeet/schedule_service/internal/model"
	"github.com/Freeeeeet/schedule_service/internal/repository"
	"go.uber.org/zap"
)

type SlotService struct {
	slotRepo   *repository.SlotRepository
	studioRepo *repository.StudioRepository
	cache      cache.ScheduleCache
	logger     *zap.Logger
}

func NewSlotService(
	slotRepo *repository.SlotRepository,
	studioRepo *repository.StudioRepository,
	scheduleCache cache.ScheduleCache,
	logger *zap.Logger,
) *SlotService {
	return &SlotService{
		slotRepo:   slotRepo,
		studioRepo: studioRepo,
		cache:      scheduleCache,
		logger:     logger,
	}
}

// ReserveSlot резервирует свободный слот за преподавателем
func (s *SlotService) ReserveSlot(ctx context.Context, actor model.Actor, slotID int64) (*model.TimeSlot, error) {
	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}

	if slot.IsPast(time.Now()) {
		return nil, fmt.Errorf("%w: slot is in the past", ErrSlotConflict)
	}
	if slot.Status != model.SlotStatusAvailable {
		return nil, fmt.Errorf("%w: slot is %s", ErrSlotConflict, slot.Status)
	}

	ok, err := s.slotRepo.Reserve(ctx, slotID, actor.ID, actor.Name, actor.Email)
	if err != nil {
		return nil, fmt.Errorf("reserve slot: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: slot was taken concurrently", ErrSlotConflict)
	}

	slot, err = s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}

	s.invalidate(ctx, slot.StudioID, actor.ID)

	s.logger.Info("Slot reserved",
		zap.Int64("slot_id", slotID),
		zap.Int64("teacher_id", actor.ID),
		zap.Time("starts_at", slot.StartsAt))

	return slot, nil
}

// ReleaseSlot снимает бронь преподавателя со слота.
// Разрешено не позднее чем за два часа до начала.
func (s *SlotService) ReleaseSlot(ctx context.Context, actor model.Actor, slotID int64) (*model.TimeSlot, error) {
	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}

	if slot.Status != model.SlotStatusReserved {
		return nil, fmt.Errorf("%w: slot is %s, not reserved", ErrInvalidTransition, slot.Status)
	}
	if !slot.ReservedBy(actor.ID) {
		return nil, fmt.Errorf("%w: slot is reserved by another teacher", ErrPermissionDenied)
	}
	if !slot.CanBeReleased(time.Now()) {
		return nil, fmt.Errorf("%w: less than %s before start", ErrPermissionDenied, model.ReleaseNotice)
	}

	ok, err := s.slotRepo.Release(ctx, slotID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("release slot: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: slot state changed concurrently", ErrSlotConflict)
	}

	slot, err = s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}

	s.invalidate(ctx, slot.StudioID, actor.ID)

	s.logger.Info("Slot released",
		zap.Int64("slot_id", slotID),
		zap.Int64("teacher_id", actor.ID))

	return slot, nil
}

// BlockSlot закрывает свободный слот для бронирования
func (s *SlotService) BlockSlot(ctx context.Context, slotID int64, reason string) (*model.TimeSlot, error) {
	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}

	if slot.Status != model.SlotStatusAvailable {
		return nil, fmt.Errorf("%w: only available slots can be blocked, slot is %s", ErrInvalidTransition, slot.Status)
	}

	ok, err := s.slotRepo.Block(ctx, slotID, reason)
	if err != nil {
		return nil, fmt.Errorf("block slot: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: slot state changed concurrently", ErrSlotConflict)
	}

	slot, err = s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}

	s.invalidate(ctx, slot.StudioID, 0)

	s.logger.Info("Slot blocked",
		zap.Int64("slot_id", slotID),
		zap.String("reason", reason))

	return slot, nil
}

// UnblockSlot возвращает заблокированный слот в свободные
func (s *SlotService) UnblockSlot(ctx context.Context, slotID int64) (*model.TimeSlot, error) {
	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}

	if slot.Status != model.SlotStatusBlocked {
		return nil, fmt.Errorf("%w: slot is %s, not blocked", ErrInvalidTransition, slot.Status)
	}

	ok, err := s.slotRepo.Unblock(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("unblock slot: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: slot state changed concurrently", ErrSlotConflict)
	}

	slot, err = s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}

	s.invalidate(ctx, slot.StudioID, 0)

	s.logger.Info("Slot unblocked", zap.Int64("slot_id", slotID))

	return slot, nil
}

// GenerateWeekSlots строит недельную сетку свободных слотов по рабочим
// часам студии. Повторный вызов идемпотентен: занятые клетки сетки
// пропускаются.
func (s *SlotService) GenerateWeekSlots(ctx context.Context, studioID int64, weekStart time.Time, roomIDs []int64) (int, error) {
	if weekStart.Weekday() != time.Monday {
		return 0, fmt.Errorf("%w: week_start_date must be a Monday", ErrValidation)
	}

	studio, err := s.studioRepo.GetStudioByID(ctx, studioID)
	if err != nil {
		return 0, fmt.Errorf("get studio: %w", err)
	}
	if studio == nil {
		return 0, ErrStudioNotFound
	}

	startHour, startMinute, err := model.ParseClock(studio.WorkingHoursStart)
	if err != nil {
		return 0, fmt.Errorf("parse working hours start: %w", err)
	}
	endHour, endMinute, err := model.ParseClock(studio.WorkingHoursEnd)
	if err != nil {
		return 0, fmt.Errorf("parse working hours end: %w", err)
	}

	rooms, err := s.studioRepo.ListRooms(ctx, studioID, true)
	if err != nil {
		return 0, fmt.Errorf("list rooms: %w", err)
	}

	if len(roomIDs) > 0 {
		byID := make(map[int64]*model.Room, len(rooms))
		for _, room := range rooms {
			byID[room.ID] = room
		}

		picked := make([]*model.Room, 0, len(roomIDs))
		for _, id := range roomIDs {
			room, ok := byID[id]
			if !ok {
				return 0, fmt.Errorf("%w: room %d is not an active room of studio %d", ErrRoomNotFound, id, studioID)
			}
			picked = append(picked, room)
		}
		rooms = picked
	}

	duration := time.Duration(studio.SlotDurationMinutes) * time.Minute

	created := 0
	for day := 0; day < 7; day++ {
		date := weekStart.AddDate(0, 0, day)
		dayStart := model.CombineDateClock(date, startHour, startMinute)
		dayEnd := model.CombineDateClock(date, endHour, endMinute)

		for _, room := range rooms {
			existing, err := s.slotRepo.GetByRoomAndDate(ctx, room.ID, date)
			if err != nil {
				return created, fmt.Errorf("get slots for room %d: %w", room.ID, err)
			}

			for start := dayStart; !start.Add(duration).After(dayEnd); start = start.Add(duration) {
				end := start.Add(duration)

				// Клетка сетки, пересекающаяся с существующим слотом,
				// пропускается независимо от его статуса
				if overlapsAny(existing, start, end) {
					continue
				}

				slot := &model.TimeSlot{
					StudioID:        studioID,
					RoomID:          room.ID,
					SlotDate:        date,
					StartsAt:        start,
					EndsAt:          end,
					DurationMinutes: studio.SlotDurationMinutes,
					Status:          model.SlotStatusAvailable,
				}

				ok, err := s.slotRepo.CreateIfFree(ctx, slot)
				if err != nil {
					return created, fmt.Errorf("create slot: %w", err)
				}
				if ok {
					created++
				}
			}
		}
	}

	if created > 0 {
		s.cache.Invalidate(ctx, cache.StudioPattern(studioID), cache.AvailablePattern(studioID))
	}

	s.logger.Info("Week slots generated",
		zap.Int64("studio_id", studioID),
		zap.Time("week_start", weekStart),
		zap.Int("rooms", len(rooms)),
		zap.Int("created", created))

	return created, nil
}

func (s *SlotService) invalidate(ctx context.Context, studioID, teacherID int64) {
	patterns := []string{
		cache.StudioPattern(studioID),
		cache.AvailablePattern(studioID),
	}
	if teacherID != 0 {
		patterns = append(patterns, cache.TeacherPattern(teacherID))
	}
	s.cache.Invalidate(ctx, patterns...)
}

func overlapsAny(slots []*model.TimeSlot, start, end time.Time) bool {
	for _, slot := range slots {
		if model.Overlaps(slot.StartsAt, slot.EndsAt, start, end) {
			return true
		}
	}
	return false
}
