package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/schedule_service/internal/cache"
	"github.com/Freeeeeet/schedule_service/internal/model"
	"github.com/Freeeeeet/schedule_service/internal/repository"
	"github.com/Freeeeeet/schedule_service/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type PatternService struct {
	pool        *pgxpool.Pool
	patternRepo *repository.PatternRepository
	slotRepo    *repository.SlotRepository
	lessonRepo  *repository.LessonRepository
	studioRepo  *repository.StudioRepository
	cache       cache.ScheduleCache
	// Скользящий горизонт генерации и жёсткий потолок от сегодня
	horizonWeeks int
	maxWeeks     int
	logger       *zap.Logger
}

func NewPatternService(
	pool *pgxpool.Pool,
	patternRepo *repository.PatternRepository,
	slotRepo *repository.SlotRepository,
	lessonRepo *repository.LessonRepository,
	studioRepo *repository.StudioRepository,
	scheduleCache cache.ScheduleCache,
	horizonWeeks, maxWeeks int,
	logger *zap.Logger,
) *PatternService {
	if horizonWeeks <= 0 {
		horizonWeeks = 2
	}
	if maxWeeks < horizonWeeks {
		maxWeeks = horizonWeeks
	}

	return &PatternService{
		pool:         pool,
		patternRepo:  patternRepo,
		slotRepo:     slotRepo,
		lessonRepo:   lessonRepo,
		studioRepo:   studioRepo,
		cache:        scheduleCache,
		horizonWeeks: horizonWeeks,
		maxWeeks:     maxWeeks,
		logger:       logger,
	}
}

type CreatePatternInput struct {
	StudioID        int64
	TeacherID       int64
	TeacherName     string
	TeacherEmail    string
	RoomID          int64
	DayOfWeek       int
	StartTime       string
	DurationMinutes int
	ValidFrom       time.Time
	ValidUntil      *time.Time
	Notes           *string
	Students        []StudentInput
}

type UpdatePatternInput struct {
	StartTime       *string
	DurationMinutes *int
	ValidUntil      *time.Time
	Notes           *string
	IsActive        *bool
}

// CreatePattern создаёт еженедельный шаблон и сразу генерирует уроки
// на ближайший горизонт
func (s *PatternService) CreatePattern(ctx context.Context, actor model.Actor, in CreatePatternInput) (*model.RecurringPattern, *model.GenerationReport, error) {
	teacherID := in.TeacherID
	if teacherID == 0 {
		teacherID = actor.ID
	}
	if !actor.IsAdmin() && teacherID != actor.ID {
		return nil, nil, fmt.Errorf("%w: cannot create pattern for another teacher", ErrPermissionDenied)
	}

	teacherName, teacherEmail := in.TeacherName, in.TeacherEmail
	if teacherID == actor.ID {
		teacherName, teacherEmail = actor.Name, actor.Email
	}

	if in.DayOfWeek < 1 || in.DayOfWeek > 7 {
		return nil, nil, fmt.Errorf("%w: day_of_week must be between 1 and 7", ErrValidation)
	}
	if _, _, err := model.ParseClock(in.StartTime); err != nil {
		return nil, nil, fmt.Errorf("%w: bad start_time %q", ErrValidation, in.StartTime)
	}
	if in.DurationMinutes <= 0 {
		return nil, nil, fmt.Errorf("%w: duration_minutes must be positive", ErrValidation)
	}
	if in.ValidUntil != nil && in.ValidUntil.Before(in.ValidFrom) {
		return nil, nil, fmt.Errorf("%w: valid_until is before valid_from", ErrValidation)
	}

	studio, err := s.studioRepo.GetStudioByID(ctx, in.StudioID)
	if err != nil {
		return nil, nil, fmt.Errorf("get studio: %w", err)
	}
	if studio == nil {
		return nil, nil, ErrStudioNotFound
	}

	room, err := s.studioRepo.GetRoomByID(ctx, in.RoomID)
	if err != nil {
		return nil, nil, fmt.Errorf("get room: %w", err)
	}
	if room == nil {
		return nil, nil, ErrRoomNotFound
	}
	if room.StudioID != in.StudioID {
		return nil, nil, fmt.Errorf("%w: room %d does not belong to studio %d", ErrValidation, in.RoomID, in.StudioID)
	}

	seen := make(map[int64]bool, len(in.Students))
	for _, st := range in.Students {
		if seen[st.StudentID] {
			return nil, nil, fmt.Errorf("%w: student %d listed twice", ErrDuplicateStudent, st.StudentID)
		}
		seen[st.StudentID] = true
	}

	pattern := &model.RecurringPattern{
		StudioID:        in.StudioID,
		TeacherID:       teacherID,
		TeacherName:     teacherName,
		TeacherEmail:    teacherEmail,
		RoomID:          in.RoomID,
		DayOfWeek:       in.DayOfWeek,
		StartTime:       in.StartTime,
		DurationMinutes: in.DurationMinutes,
		ValidFrom:       in.ValidFrom,
		ValidUntil:      in.ValidUntil,
		Notes:           in.Notes,
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	txPatterns := s.patternRepo.WithTx(tx)

	if err := txPatterns.Create(ctx, pattern); err != nil {
		return nil, nil, err
	}

	for _, st := range in.Students {
		ps := &model.PatternStudent{
			RecurringPatternID: pattern.ID,
			StudentID:          st.StudentID,
			Name:               st.Name,
			Email:              st.Email,
			Phone:              st.Phone,
			Level:              st.Level,
		}
		if err := txPatterns.AddStudent(ctx, ps); err != nil {
			return nil, nil, fmt.Errorf("add pattern student: %w", err)
		}
		pattern.Students = append(pattern.Students, ps)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit transaction: %w", err)
	}

	until := today().AddDate(0, 0, 7*s.horizonWeeks)
	report, err := s.generateRange(ctx, pattern, until)
	if err != nil {
		// Шаблон уже создан, неудачная генерация не откатывает его
		s.logger.Warn("Initial generation failed",
			zap.Int64("pattern_id", pattern.ID),
			zap.Error(err))
		report.Errors = append(report.Errors, err.Error())
	}

	s.logger.Info("Pattern created",
		zap.Int64("pattern_id", pattern.ID),
		zap.Int64("teacher_id", teacherID),
		zap.Int("day_of_week", in.DayOfWeek),
		zap.String("start_time", in.StartTime),
		zap.Int("generated", report.Generated))

	full, err := s.patternRepo.GetByIDWithStudents(ctx, pattern.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("get pattern: %w", err)
	}

	return full, report, nil
}

// GetPattern возвращает шаблон с ростером
func (s *PatternService) GetPattern(ctx context.Context, actor model.Actor, patternID int64) (*model.RecurringPattern, error) {
	pattern, err := s.patternRepo.GetByIDWithStudents(ctx, patternID)
	if err != nil {
		return nil, fmt.Errorf("get pattern: %w", err)
	}
	if pattern == nil {
		return nil, ErrPatternNotFound
	}

	if !actor.IsAdmin() && pattern.TeacherID != actor.ID {
		return nil, fmt.Errorf("%w: pattern belongs to another teacher", ErrPermissionDenied)
	}

	return pattern, nil
}

// ListPatterns — администратор видит любые шаблоны, преподаватель свои
func (s *PatternService) ListPatterns(ctx context.Context, actor model.Actor, studioID, teacherID *int64, activeOnly bool) ([]*model.RecurringPattern, error) {
	if !actor.IsAdmin() {
		own := actor.ID
		teacherID = &own
	}

	return s.patternRepo.List(ctx, studioID, teacherID, activeOnly)
}

// UpdatePattern меняет шаблон. Уже сгенерированные уроки не трогаются,
// изменения действуют только на будущую генерацию.
func (s *PatternService) UpdatePattern(ctx context.Context, actor model.Actor, patternID int64, in UpdatePatternInput) (*model.RecurringPattern, error) {
	pattern, err := s.patternRepo.GetByID(ctx, patternID)
	if err != nil {
		return nil, fmt.Errorf("get pattern: %w", err)
	}
	if pattern == nil {
		return nil, ErrPatternNotFound
	}

	if !actor.IsAdmin() && pattern.TeacherID != actor.ID {
		return nil, fmt.Errorf("%w: pattern belongs to another teacher", ErrPermissionDenied)
	}

	if in.StartTime != nil {
		if _, _, err := model.ParseClock(*in.StartTime); err != nil {
			return nil, fmt.Errorf("%w: bad start_time %q", ErrValidation, *in.StartTime)
		}
		pattern.StartTime = *in.StartTime
	}
	if in.DurationMinutes != nil {
		if *in.DurationMinutes <= 0 {
			return nil, fmt.Errorf("%w: duration_minutes must be positive", ErrValidation)
		}
		pattern.DurationMinutes = *in.DurationMinutes
	}
	if in.ValidUntil != nil {
		if in.ValidUntil.Before(pattern.ValidFrom) {
			return nil, fmt.Errorf("%w: valid_until is before valid_from", ErrValidation)
		}
		pattern.ValidUntil = in.ValidUntil
	}
	if in.Notes != nil {
		pattern.Notes = in.Notes
	}
	if in.IsActive != nil {
		pattern.IsActive = *in.IsActive
	}

	if err := s.patternRepo.Update(ctx, pattern); err != nil {
		return nil, err
	}

	s.logger.Info("Pattern updated", zap.Int64("pattern_id", patternID))

	return s.patternRepo.GetByIDWithStudents(ctx, patternID)
}

// DeactivatePattern останавливает генерацию, история уроков сохраняется
func (s *PatternService) DeactivatePattern(ctx context.Context, actor model.Actor, patternID int64) error {
	pattern, err := s.patternRepo.GetByID(ctx, patternID)
	if err != nil {
		return fmt.Errorf("get pattern: %w", err)
	}
	if pattern == nil {
		return ErrPatternNotFound
	}

	if !actor.IsAdmin() && pattern.TeacherID != actor.ID {
		return fmt.Errorf("%w: pattern belongs to another teacher", ErrPermissionDenied)
	}

	ok, err := s.patternRepo.Deactivate(ctx, patternID)
	if err != nil {
		return fmt.Errorf("deactivate pattern: %w", err)
	}
	if !ok {
		return ErrPatternNotFound
	}

	s.logger.Info("Pattern deactivated", zap.Int64("pattern_id", patternID))

	return nil
}

// DeletePattern удаляет шаблон. Сгенерированные уроки остаются,
// ссылка на шаблон у них обнуляется.
func (s *PatternService) DeletePattern(ctx context.Context, actor model.Actor, patternID int64) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: admin only", ErrPermissionDenied)
	}

	pattern, err := s.patternRepo.GetByID(ctx, patternID)
	if err != nil {
		return fmt.Errorf("get pattern: %w", err)
	}
	if pattern == nil {
		return ErrPatternNotFound
	}

	ok, err := s.patternRepo.Delete(ctx, patternID)
	if err != nil {
		return fmt.Errorf("delete pattern: %w", err)
	}
	if !ok {
		return ErrPatternNotFound
	}

	s.logger.Info("Pattern deleted",
		zap.Int64("pattern_id", patternID),
		zap.Int64("admin_id", actor.ID))

	return nil
}

// AddPatternStudent добавляет ученика в ростер. Действует только на
// будущую генерацию, уже созданные уроки не меняются.
func (s *PatternService) AddPatternStudent(ctx context.Context, actor model.Actor, patternID int64, in StudentInput) (*model.RecurringPattern, error) {
	pattern, err := s.patternRepo.GetByIDWithStudents(ctx, patternID)
	if err != nil {
		return nil, fmt.Errorf("get pattern: %w", err)
	}
	if pattern == nil {
		return nil, ErrPatternNotFound
	}

	if !actor.IsAdmin() && pattern.TeacherID != actor.ID {
		return nil, fmt.Errorf("%w: pattern belongs to another teacher", ErrPermissionDenied)
	}
	if pattern.HasStudent(in.StudentID) {
		return nil, fmt.Errorf("%w: student %d", ErrDuplicateStudent, in.StudentID)
	}

	ps := &model.PatternStudent{
		RecurringPatternID: patternID,
		StudentID:          in.StudentID,
		Name:               in.Name,
		Email:              in.Email,
		Phone:              in.Phone,
		Level:              in.Level,
	}
	if err := s.patternRepo.AddStudent(ctx, ps); err != nil {
		if base.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: student %d", ErrDuplicateStudent, in.StudentID)
		}
		return nil, fmt.Errorf("add pattern student: %w", err)
	}

	s.logger.Info("Student added to pattern",
		zap.Int64("pattern_id", patternID),
		zap.Int64("student_id", in.StudentID))

	return s.patternRepo.GetByIDWithStudents(ctx, patternID)
}

// RemovePatternStudent убирает ученика из ростера шаблона
func (s *PatternService) RemovePatternStudent(ctx context.Context, actor model.Actor, patternID, studentID int64) (*model.RecurringPattern, error) {
	pattern, err := s.patternRepo.GetByIDWithStudents(ctx, patternID)
	if err != nil {
		return nil, fmt.Errorf("get pattern: %w", err)
	}
	if pattern == nil {
		return nil, ErrPatternNotFound
	}

	if !actor.IsAdmin() && pattern.TeacherID != actor.ID {
		return nil, fmt.Errorf("%w: pattern belongs to another teacher", ErrPermissionDenied)
	}

	removed, err := s.patternRepo.RemoveStudent(ctx, patternID, studentID)
	if err != nil {
		return nil, fmt.Errorf("remove pattern student: %w", err)
	}
	if !removed {
		return nil, fmt.Errorf("%w: student %d", ErrStudentNotEnrolled, studentID)
	}

	s.logger.Info("Student removed from pattern",
		zap.Int64("pattern_id", patternID),
		zap.Int64("student_id", studentID))

	return s.patternRepo.GetByIDWithStudents(ctx, patternID)
}

// Generate догенерирует уроки шаблона до указанной даты
func (s *PatternService) Generate(ctx context.Context, actor model.Actor, patternID int64, until time.Time) (*model.GenerationReport, error) {
	pattern, err := s.patternRepo.GetByIDWithStudents(ctx, patternID)
	if err != nil {
		return nil, fmt.Errorf("get pattern: %w", err)
	}
	if pattern == nil {
		return nil, ErrPatternNotFound
	}

	if !actor.IsAdmin() && pattern.TeacherID != actor.ID {
		return nil, fmt.Errorf("%w: pattern belongs to another teacher", ErrPermissionDenied)
	}

	if until.IsZero() {
		until = today().AddDate(0, 0, 7*s.horizonWeeks)
	}

	return s.generateRange(ctx, pattern, until)
}

// GenerateAll прогоняет генерацию по всем действующим шаблонам.
// Вызывается фоновым планировщиком и внутренним эндпоинтом.
func (s *PatternService) GenerateAll(ctx context.Context, horizonWeeks int) ([]*model.GenerationReport, error) {
	if horizonWeeks <= 0 {
		horizonWeeks = s.horizonWeeks
	}

	asOf := today()

	patterns, err := s.patternRepo.GetActive(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("get active patterns: %w", err)
	}

	until := asOf.AddDate(0, 0, 7*horizonWeeks)

	reports := make([]*model.GenerationReport, 0, len(patterns))
	for _, pattern := range patterns {
		report, err := s.generateRange(ctx, pattern, until)
		if err != nil {
			s.logger.Error("Pattern generation failed",
				zap.Int64("pattern_id", pattern.ID),
				zap.Error(err))
			report.Errors = append(report.Errors, err.Error())
		}
		reports = append(reports, report)
	}

	return reports, nil
}

// EnsureHorizon лениво догенерирует уроки преподавателя перед чтением
// расписания. Ошибки только логируются: чтение не должно падать
// из-за генерации.
func (s *PatternService) EnsureHorizon(ctx context.Context, teacherID int64) {
	asOf := today()

	patterns, err := s.patternRepo.GetActiveByTeacher(ctx, teacherID, asOf)
	if err != nil {
		s.logger.Warn("Failed to load patterns for horizon check",
			zap.Int64("teacher_id", teacherID),
			zap.Error(err))
		return
	}

	until := asOf.AddDate(0, 0, 7*s.horizonWeeks)

	for _, pattern := range patterns {
		last, err := s.lessonRepo.LastGeneratedDate(ctx, pattern.ID)
		if err != nil {
			s.logger.Warn("Failed to check generation horizon",
				zap.Int64("pattern_id", pattern.ID),
				zap.Error(err))
			continue
		}
		if last != nil && !last.Before(until) {
			continue
		}

		if _, err := s.generateRange(ctx, pattern, until); err != nil {
			s.logger.Warn("Horizon generation failed",
				zap.Int64("pattern_id", pattern.ID),
				zap.Error(err))
		}
	}
}

// generateRange генерирует уроки шаблона до даты until включительно.
// Возобновляется с недели после последнего сгенерированного урока,
// конфликт конкретной недели пропускает её, не прерывая остальные.
func (s *PatternService) generateRange(ctx context.Context, pattern *model.RecurringPattern, until time.Time) (*model.GenerationReport, error) {
	report := &model.GenerationReport{PatternID: pattern.ID}

	if !pattern.IsActive {
		return report, fmt.Errorf("%w: pattern is not active", ErrValidation)
	}

	hour, minute, err := model.ParseClock(pattern.StartTime)
	if err != nil {
		return report, fmt.Errorf("parse pattern start time: %w", err)
	}

	asOf := today()

	maxUntil := asOf.AddDate(0, 0, 7*s.maxWeeks)
	if until.After(maxUntil) {
		until = maxUntil
	}
	if pattern.ValidUntil != nil && until.After(*pattern.ValidUntil) {
		until = *pattern.ValidUntil
	}

	last, err := s.lessonRepo.LastGeneratedDate(ctx, pattern.ID)
	if err != nil {
		return report, fmt.Errorf("get last generated date: %w", err)
	}

	var start time.Time
	if last != nil {
		start = last.AddDate(0, 0, 7)
	} else {
		start = pattern.FirstOccurrence()
	}
	for start.Before(asOf) {
		start = start.AddDate(0, 0, 7)
	}

	duration := time.Duration(pattern.DurationMinutes) * time.Minute

	for date := start; !date.After(until); date = date.AddDate(0, 0, 7) {
		starts := model.CombineDateClock(date, hour, minute)
		ends := starts.Add(duration)

		created, err := s.generateOne(ctx, pattern, date, starts, ends)
		if err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("week of %s: %v", date.Format("2006-01-02"), err))
			s.logger.Warn("Failed to generate lesson",
				zap.Int64("pattern_id", pattern.ID),
				zap.Time("date", date),
				zap.Error(err))
			continue
		}
		if !created {
			report.Skipped++
			report.Errors = append(report.Errors,
				fmt.Sprintf("conflict for %s at %s in room %d", date.Format("2006-01-02"), pattern.StartTime, pattern.RoomID))
			continue
		}

		report.Generated++
	}

	if report.Generated > 0 {
		s.cache.Invalidate(ctx,
			cache.StudioPattern(pattern.StudioID),
			cache.AvailablePattern(pattern.StudioID),
			cache.TeacherPattern(pattern.TeacherID))

		s.logger.Info("Lessons generated for pattern",
			zap.Int64("pattern_id", pattern.ID),
			zap.Int("generated", report.Generated),
			zap.Int("skipped", report.Skipped))
	}

	return report, nil
}

// generateOne в одной транзакции создаёт пару слот+урок на конкретную
// дату. Возвращает false без ошибки, когда время в кабинете занято.
// Существующий свободный слот на это же время переиспользуется.
func (s *PatternService) generateOne(ctx context.Context, pattern *model.RecurringPattern, date, starts, ends time.Time) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	txSlots := s.slotRepo.WithTx(tx)
	txLessons := s.lessonRepo.WithTx(tx)

	busy, err := txSlots.HasOverlap(ctx, pattern.RoomID, starts, ends, 0)
	if err != nil {
		return false, fmt.Errorf("check overlap: %w", err)
	}
	if busy {
		return false, nil
	}

	existing, err := findSlotAt(ctx, txSlots, pattern.RoomID, date, starts)
	if err != nil {
		return false, err
	}

	var slotID int64
	switch {
	case existing != nil && existing.Status == model.SlotStatusAvailable && existing.EndsAt.Equal(ends):
		booked, err := txSlots.Rebook(ctx, existing.ID, pattern.TeacherID, pattern.TeacherName, pattern.TeacherEmail)
		if err != nil {
			return false, fmt.Errorf("book existing slot: %w", err)
		}
		if !booked {
			return false, nil
		}
		slotID = existing.ID

	case existing != nil:
		// Слот есть, но занят или не совпадает по длительности
		return false, nil

	default:
		slot := &model.TimeSlot{
			StudioID:            pattern.StudioID,
			RoomID:              pattern.RoomID,
			SlotDate:            date,
			StartsAt:            starts,
			EndsAt:              ends,
			DurationMinutes:     pattern.DurationMinutes,
			Status:              model.SlotStatusBooked,
			ReservedByTeacherID: &pattern.TeacherID,
			ReservedByName:      &pattern.TeacherName,
			ReservedByEmail:     &pattern.TeacherEmail,
		}

		created, err := txSlots.CreateIfFree(ctx, slot)
		if err != nil {
			return false, fmt.Errorf("create slot: %w", err)
		}
		if !created {
			return false, nil
		}
		slotID = slot.ID
	}

	lessonType := model.LessonTypeIndividual
	if len(pattern.Students) > 1 {
		lessonType = model.LessonTypeGroup
	}
	maxStudents := len(pattern.Students)
	if maxStudents < 1 {
		maxStudents = 1
	}

	lesson := &model.Lesson{
		TimeSlotID:         slotID,
		StudioID:           pattern.StudioID,
		RoomID:             pattern.RoomID,
		TeacherID:          pattern.TeacherID,
		TeacherName:        pattern.TeacherName,
		TeacherEmail:       pattern.TeacherEmail,
		RecurringPatternID: &pattern.ID,
		LessonDate:         date,
		StartsAt:           starts,
		EndsAt:             ends,
		LessonType:         lessonType,
		Status:             model.LessonStatusScheduled,
		MaxStudents:        maxStudents,
		Notes:              pattern.Notes,
	}

	if err := txLessons.Create(ctx, lesson); err != nil {
		if base.IsUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("create lesson: %w", err)
	}

	for _, st := range pattern.Students {
		ls := &model.LessonStudent{
			LessonID:         lesson.ID,
			StudentID:        st.StudentID,
			Name:             st.Name,
			Email:            st.Email,
			Phone:            st.Phone,
			Level:            st.Level,
			AttendanceStatus: model.AttendanceScheduled,
		}
		if err := txLessons.AddStudent(ctx, ls); err != nil {
			return false, fmt.Errorf("copy roster: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}

	return true, nil
}

func findSlotAt(ctx context.Context, slots *repository.SlotRepository, roomID int64, date, starts time.Time) (*model.TimeSlot, error) {
	existing, err := slots.GetByRoomAndDate(ctx, roomID, date)
	if err != nil {
		return nil, fmt.Errorf("get slots: %w", err)
	}

	for _, slot := range existing {
		if slot.StartsAt.Equal(starts) {
			return slot, nil
		}
	}

	return nil, nil
}

// today — начало текущего дня в UTC
func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
