package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Freeeeeet/schedule_service/internal/cache"
	"github.com/Freeeeeet/schedule_service/internal/model"
	"github.com/Freeeeeet/schedule_service/internal/repository"
	"go.uber.org/zap"
)

// Диапазон расписания ученика ограничен двумя неделями
const studentRangeCapDays = 14

type ScheduleService struct {
	slotRepo   *repository.SlotRepository
	lessonRepo *repository.LessonRepository
	studioRepo *repository.StudioRepository
	patterns   *PatternService
	cache      cache.ScheduleCache
	maxWeeks   int
	logger     *zap.Logger
}

func NewScheduleService(
	slotRepo *repository.SlotRepository,
	lessonRepo *repository.LessonRepository,
	studioRepo *repository.StudioRepository,
	patterns *PatternService,
	scheduleCache cache.ScheduleCache,
	maxWeeks int,
	logger *zap.Logger,
) *ScheduleService {
	if maxWeeks <= 0 {
		maxWeeks = 4
	}

	return &ScheduleService{
		slotRepo:   slotRepo,
		lessonRepo: lessonRepo,
		studioRepo: studioRepo,
		patterns:   patterns,
		cache:      scheduleCache,
		maxWeeks:   maxWeeks,
		logger:     logger,
	}
}

// TeacherSchedule собирает расписание преподавателя по дням: его слоты
// и уроки. Перед чтением лениво пополняется горизонт генерации.
func (s *ScheduleService) TeacherSchedule(ctx context.Context, teacherID int64, from, to time.Time) ([]*model.DaySchedule, error) {
	if err := checkRange(from, to, 7*s.maxWeeks); err != nil {
		return nil, err
	}

	s.patterns.EnsureHorizon(ctx, teacherID)

	key := cache.TeacherKey(teacherID, from, to)
	var days []*model.DaySchedule
	if s.cache.Get(ctx, key, &days) {
		return days, nil
	}

	slots, err := s.slotRepo.GetByTeacher(ctx, teacherID, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("get teacher slots: %w", err)
	}
	lessons, err := s.lessonRepo.GetByTeacher(ctx, teacherID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get teacher lessons: %w", err)
	}

	days = groupByDay(from, to, slots, lessons)
	s.cache.Set(ctx, key, days)

	return days, nil
}

// StudentSchedule — уроки, на которые записан ученик, по дням
func (s *ScheduleService) StudentSchedule(ctx context.Context, studentID int64, from, to time.Time) ([]*model.DaySchedule, error) {
	if err := checkRange(from, to, studentRangeCapDays); err != nil {
		return nil, err
	}

	lessons, err := s.lessonRepo.GetByStudent(ctx, studentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get student lessons: %w", err)
	}

	return groupByDay(from, to, nil, lessons), nil
}

// StudioSchedule — административная сетка студии с фильтрами по
// кабинету и преподавателю
func (s *ScheduleService) StudioSchedule(ctx context.Context, studioID int64, from, to time.Time, roomID, teacherID *int64) ([]*model.DaySchedule, error) {
	if err := checkRange(from, to, 7*s.maxWeeks); err != nil {
		return nil, err
	}

	studio, err := s.studioRepo.GetStudioByID(ctx, studioID)
	if err != nil {
		return nil, fmt.Errorf("get studio: %w", err)
	}
	if studio == nil {
		return nil, ErrStudioNotFound
	}

	key := cache.StudioKey(studioID, from, to, roomID, teacherID)
	var days []*model.DaySchedule
	if s.cache.Get(ctx, key, &days) {
		return days, nil
	}

	slots, err := s.slotRepo.GetByStudio(ctx, studioID, from, to.AddDate(0, 0, 1), roomID)
	if err != nil {
		return nil, fmt.Errorf("get studio slots: %w", err)
	}
	lessons, err := s.lessonRepo.GetByStudio(ctx, studioID, from, to, roomID, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get studio lessons: %w", err)
	}

	days = groupByDay(from, to, slots, lessons)
	s.cache.Set(ctx, key, days)

	return days, nil
}

// AvailableSlots — свободные слоты студии; прошедшие не показываются
func (s *ScheduleService) AvailableSlots(ctx context.Context, studioID int64, from, to time.Time, roomID *int64) ([]*model.TimeSlot, error) {
	if err := checkRange(from, to, 7*s.maxWeeks); err != nil {
		return nil, err
	}

	studio, err := s.studioRepo.GetStudioByID(ctx, studioID)
	if err != nil {
		return nil, fmt.Errorf("get studio: %w", err)
	}
	if studio == nil {
		return nil, ErrStudioNotFound
	}

	key := cache.AvailableKey(studioID, from, to, roomID)
	var cached []*model.TimeSlot
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	slots, err := s.slotRepo.GetAvailable(ctx, studioID, from, to.AddDate(0, 0, 1), roomID)
	if err != nil {
		return nil, fmt.Errorf("get available slots: %w", err)
	}

	now := time.Now()
	fresh := make([]*model.TimeSlot, 0, len(slots))
	for _, slot := range slots {
		if !slot.IsPast(now) {
			fresh = append(fresh, slot)
		}
	}

	s.cache.Set(ctx, key, fresh)

	return fresh, nil
}

// Statistics — счётчики уроков и слотов студии за период плюс
// занятость кабинетов
func (s *ScheduleService) Statistics(ctx context.Context, studioID int64, from, to time.Time) (*model.ScheduleStatistics, error) {
	if err := checkRange(from, to, 7*s.maxWeeks); err != nil {
		return nil, err
	}

	studio, err := s.studioRepo.GetStudioByID(ctx, studioID)
	if err != nil {
		return nil, fmt.Errorf("get studio: %w", err)
	}
	if studio == nil {
		return nil, ErrStudioNotFound
	}

	lessonsByStatus, err := s.lessonRepo.StatusCounts(ctx, studioID, from, to)
	if err != nil {
		return nil, fmt.Errorf("count lessons by status: %w", err)
	}
	lessonsByType, err := s.lessonRepo.TypeCounts(ctx, studioID, from, to)
	if err != nil {
		return nil, fmt.Errorf("count lessons by type: %w", err)
	}
	slotsByStatus, err := s.slotRepo.StatusCounts(ctx, studioID, from, to)
	if err != nil {
		return nil, fmt.Errorf("count slots by status: %w", err)
	}
	rooms, err := s.slotRepo.RoomOccupancy(ctx, studioID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get room occupancy: %w", err)
	}

	for i := range rooms {
		rooms[i].Utilization = utilizationPct(rooms[i].OccupiedSlots, rooms[i].TotalSlots)
	}

	return &model.ScheduleStatistics{
		StudioID:        studioID,
		DateFrom:        from.Format("2006-01-02"),
		DateTo:          to.Format("2006-01-02"),
		LessonsByStatus: lessonsByStatus,
		LessonsByType:   lessonsByType,
		SlotsByStatus:   slotsByStatus,
		Rooms:           rooms,
	}, nil
}

func checkRange(from, to time.Time, maxDays int) error {
	if to.Before(from) {
		return fmt.Errorf("%w: date_to is before date_from", ErrValidation)
	}
	if int(to.Sub(from).Hours()/24) > maxDays {
		return fmt.Errorf("%w: range is longer than %d days", ErrValidation, maxDays)
	}
	return nil
}

// groupByDay раскладывает слоты и уроки по календарным дням диапазона.
// Пустые дни тоже попадают в выдачу.
func groupByDay(from, to time.Time, slots []*model.TimeSlot, lessons []*model.Lesson) []*model.DaySchedule {
	index := make(map[string]*model.DaySchedule)
	var days []*model.DaySchedule

	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	for d := fromDay; !d.After(to); d = d.AddDate(0, 0, 1) {
		day := &model.DaySchedule{
			Date:    d.Format("2006-01-02"),
			Slots:   []*model.TimeSlot{},
			Lessons: []*model.Lesson{},
		}
		index[day.Date] = day
		days = append(days, day)
	}

	for _, slot := range slots {
		if day, ok := index[slot.SlotDate.Format("2006-01-02")]; ok {
			day.Slots = append(day.Slots, slot)
		}
	}
	for _, lesson := range lessons {
		if day, ok := index[lesson.LessonDate.Format("2006-01-02")]; ok {
			day.Lessons = append(day.Lessons, lesson)
		}
	}

	return days
}

func utilizationPct(occupied, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(occupied)/float64(total)*1000) / 10
}
