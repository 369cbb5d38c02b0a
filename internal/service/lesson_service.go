package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/schedule_service/internal/cache"
	"github.com/Freeeeeet/schedule_service/internal/model"
	"github.com/Freeeeeet/schedule_service/internal/notifier"
	"github.com/Freeeeeet/schedule_service/internal/repository"
	"github.com/Freeeeeet/schedule_service/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type LessonService struct {
	pool       *pgxpool.Pool
	slotRepo   *repository.SlotRepository
	lessonRepo *repository.LessonRepository
	cache      cache.ScheduleCache
	notifier   notifier.Notifier
	// Освобождать ли слот, когда единственный ученик отменил урок
	releaseSlotOnStudentCancel bool
	logger                     *zap.Logger
}

func NewLessonService(
	pool *pgxpool.Pool,
	slotRepo *repository.SlotRepository,
	lessonRepo *repository.LessonRepository,
	scheduleCache cache.ScheduleCache,
	events notifier.Notifier,
	releaseSlotOnStudentCancel bool,
	logger *zap.Logger,
) *LessonService {
	return &LessonService{
		pool:                       pool,
		slotRepo:                   slotRepo,
		lessonRepo:                 lessonRepo,
		cache:                      scheduleCache,
		notifier:                   events,
		releaseSlotOnStudentCancel: releaseSlotOnStudentCancel,
		logger:                     logger,
	}
}

type CreateLessonInput struct {
	SlotID      int64
	Title       string
	LessonType  model.LessonType
	MaxStudents int
	Notes       *string
}

type StudentInput struct {
	StudentID int64
	Name      string
	Email     string
	Phone     string
	Level     string
}

// CreateLesson создаёт урок на зарезервированном слоте.
// Перевод слота в booked и запись урока выполняются одной транзакцией.
func (s *LessonService) CreateLesson(ctx context.Context, actor model.Actor, in CreateLessonInput) (*model.Lesson, error) {
	if !validLessonType(in.LessonType) {
		return nil, fmt.Errorf("%w: unknown lesson type %q", ErrValidation, in.LessonType)
	}
	if in.MaxStudents < 1 {
		return nil, fmt.Errorf("%w: max_students must be at least 1", ErrValidation)
	}
	if (in.LessonType == model.LessonTypeTrial || in.LessonType == model.LessonTypeMakeup) && in.MaxStudents != 1 {
		return nil, fmt.Errorf("%w: %s lesson cannot have more than one seat", ErrValidation, in.LessonType)
	}

	slot, err := s.slotRepo.GetByID(ctx, in.SlotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}

	if slot.Status != model.SlotStatusReserved {
		return nil, fmt.Errorf("%w: slot is %s, expected reserved", ErrInvalidTransition, slot.Status)
	}
	if !slot.ReservedBy(actor.ID) {
		return nil, fmt.Errorf("%w: slot is reserved by another teacher", ErrPermissionDenied)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	txSlots := s.slotRepo.WithTx(tx)
	txLessons := s.lessonRepo.WithTx(tx)

	booked, err := txSlots.MarkBooked(ctx, slot.ID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("mark slot booked: %w", err)
	}
	if !booked {
		return nil, fmt.Errorf("%w: slot state changed concurrently", ErrSlotConflict)
	}

	lesson := &model.Lesson{
		TimeSlotID:   slot.ID,
		StudioID:     slot.StudioID,
		RoomID:       slot.RoomID,
		TeacherID:    actor.ID,
		TeacherName:  actor.Name,
		TeacherEmail: actor.Email,
		LessonDate:   slot.SlotDate,
		StartsAt:     slot.StartsAt,
		EndsAt:       slot.EndsAt,
		Title:        in.Title,
		LessonType:   in.LessonType,
		Status:       model.LessonStatusScheduled,
		MaxStudents:  in.MaxStudents,
		Notes:        in.Notes,
	}

	if err := txLessons.Create(ctx, lesson); err != nil {
		if base.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: slot already has an active lesson", ErrSlotConflict)
		}
		return nil, fmt.Errorf("create lesson: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.invalidateSchedules(ctx, lesson.StudioID, lesson.TeacherID)
	s.notifier.LessonCreated(lesson)

	s.logger.Info("Lesson created",
		zap.Int64("lesson_id", lesson.ID),
		zap.Int64("slot_id", slot.ID),
		zap.Int64("teacher_id", actor.ID),
		zap.String("lesson_type", string(in.LessonType)))

	return lesson, nil
}

// GetLesson возвращает урок с ростером. Урок видят его преподаватель,
// записанные ученики и администратор.
func (s *LessonService) GetLesson(ctx context.Context, actor model.Actor, lessonID int64) (*model.Lesson, error) {
	lesson, err := s.lessonRepo.GetByIDWithStudents(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	if lesson == nil {
		return nil, ErrLessonNotFound
	}

	if !actor.IsAdmin() && lesson.TeacherID != actor.ID && !lesson.HasStudent(actor.ID) {
		return nil, fmt.Errorf("%w: lesson is not yours", ErrPermissionDenied)
	}

	return lesson, nil
}

// EnrollStudent записывает ученика на урок. Первый ученик подтверждает
// урок, второй превращает индивидуальный в групповой.
func (s *LessonService) EnrollStudent(ctx context.Context, actor model.Actor, lessonID int64, in StudentInput) (*model.Lesson, error) {
	lesson, err := s.lessonRepo.GetByIDWithStudents(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	if lesson == nil {
		return nil, ErrLessonNotFound
	}

	if !actor.IsAdmin() && lesson.TeacherID != actor.ID {
		return nil, fmt.Errorf("%w: lesson belongs to another teacher", ErrPermissionDenied)
	}
	if lesson.Status != model.LessonStatusScheduled && lesson.Status != model.LessonStatusConfirmed {
		return nil, fmt.Errorf("%w: cannot enroll into %s lesson", ErrInvalidTransition, lesson.Status)
	}
	if lesson.HasStudent(in.StudentID) {
		return nil, fmt.Errorf("%w: student %d", ErrDuplicateStudent, in.StudentID)
	}
	if lesson.IsFull() {
		return nil, fmt.Errorf("%w: %d of %d seats taken", ErrLessonFull, lesson.StudentCount(), lesson.MaxStudents)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	txLessons := s.lessonRepo.WithTx(tx)

	ls := &model.LessonStudent{
		LessonID:         lessonID,
		StudentID:        in.StudentID,
		Name:             in.Name,
		Email:            in.Email,
		Phone:            in.Phone,
		Level:            in.Level,
		AttendanceStatus: model.AttendanceScheduled,
	}
	if err := txLessons.AddStudent(ctx, ls); err != nil {
		if base.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: student %d", ErrDuplicateStudent, in.StudentID)
		}
		return nil, fmt.Errorf("add student: %w", err)
	}

	students, err := txLessons.GetStudents(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("count students: %w", err)
	}
	count := len(students)

	// Первый ученик подтверждает урок
	if count == 1 && lesson.Status == model.LessonStatusScheduled {
		ok, err := txLessons.TransitionStatus(ctx, lessonID, model.LessonStatusScheduled, model.LessonStatusConfirmed)
		if err != nil {
			return nil, fmt.Errorf("confirm lesson: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: lesson status changed concurrently", ErrInvalidTransition)
		}
	}

	// Второй ученик превращает индивидуальный урок в групповой
	if count == 2 && lesson.LessonType == model.LessonTypeIndividual {
		if err := txLessons.SetType(ctx, lessonID, model.LessonTypeGroup); err != nil {
			return nil, fmt.Errorf("set lesson type: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.invalidateSchedules(ctx, lesson.StudioID, lesson.TeacherID)

	s.logger.Info("Student enrolled",
		zap.Int64("lesson_id", lessonID),
		zap.Int64("student_id", in.StudentID),
		zap.Int("students", count))

	return s.lessonRepo.GetByIDWithStudents(ctx, lessonID)
}

// RemoveStudent снимает ученика с урока. Снятие предпоследнего ученика
// возвращает групповому уроку индивидуальный тип, снятие последнего
// снимает подтверждение.
func (s *LessonService) RemoveStudent(ctx context.Context, actor model.Actor, lessonID, studentID int64) (*model.Lesson, error) {
	lesson, err := s.lessonRepo.GetByIDWithStudents(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	if lesson == nil {
		return nil, ErrLessonNotFound
	}

	if !actor.IsAdmin() && lesson.TeacherID != actor.ID {
		return nil, fmt.Errorf("%w: lesson belongs to another teacher", ErrPermissionDenied)
	}
	if lesson.Status != model.LessonStatusScheduled && lesson.Status != model.LessonStatusConfirmed {
		return nil, fmt.Errorf("%w: cannot change roster of %s lesson", ErrInvalidTransition, lesson.Status)
	}
	if !lesson.HasStudent(studentID) {
		return nil, fmt.Errorf("%w: student %d", ErrStudentNotEnrolled, studentID)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	txLessons := s.lessonRepo.WithTx(tx)

	removed, err := txLessons.RemoveStudent(ctx, lessonID, studentID)
	if err != nil {
		return nil, fmt.Errorf("remove student: %w", err)
	}
	if !removed {
		return nil, fmt.Errorf("%w: student %d", ErrStudentNotEnrolled, studentID)
	}

	students, err := txLessons.GetStudents(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("count students: %w", err)
	}
	count := len(students)

	// Остался один ученик — урок снова индивидуальный
	if count == 1 && lesson.LessonType == model.LessonTypeGroup {
		if err := txLessons.SetType(ctx, lessonID, model.LessonTypeIndividual); err != nil {
			return nil, fmt.Errorf("set lesson type: %w", err)
		}
	}

	// Ростер опустел — подтверждение снимается
	if count == 0 && lesson.Status == model.LessonStatusConfirmed {
		ok, err := txLessons.TransitionStatus(ctx, lessonID, model.LessonStatusConfirmed, model.LessonStatusScheduled)
		if err != nil {
			return nil, fmt.Errorf("unconfirm lesson: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: lesson status changed concurrently", ErrInvalidTransition)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.invalidateSchedules(ctx, lesson.StudioID, lesson.TeacherID)

	s.logger.Info("Student removed from lesson",
		zap.Int64("lesson_id", lessonID),
		zap.Int64("student_id", studentID),
		zap.Int("students", count))

	return s.lessonRepo.GetByIDWithStudents(ctx, lessonID)
}

// CancelByTeacher отменяет урок преподавателем не позднее чем за четыре
// часа до начала. Слот возвращается в свободные.
func (s *LessonService) CancelByTeacher(ctx context.Context, actor model.Actor, lessonID int64, reason string) (*model.Lesson, error) {
	lesson, err := s.lessonRepo.GetByIDWithStudents(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	if lesson == nil {
		return nil, ErrLessonNotFound
	}

	if !actor.IsAdmin() && lesson.TeacherID != actor.ID {
		return nil, fmt.Errorf("%w: lesson belongs to another teacher", ErrPermissionDenied)
	}
	if !lesson.Status.CanTransitionTo(model.LessonStatusCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel %s lesson", ErrInvalidTransition, lesson.Status)
	}
	if !lesson.CanBeCancelledByTeacher(time.Now()) {
		return nil, fmt.Errorf("%w: less than %s before start", ErrPermissionDenied, model.TeacherCancelNotice)
	}

	if err := s.cancelLesson(ctx, lesson, reason, "teacher", true); err != nil {
		return nil, err
	}

	s.invalidateSchedules(ctx, lesson.StudioID, lesson.TeacherID)
	s.notifier.LessonCancelled(lesson, reason)

	s.logger.Info("Lesson cancelled by teacher",
		zap.Int64("lesson_id", lessonID),
		zap.Int64("teacher_id", actor.ID),
		zap.String("reason", reason))

	return s.lessonRepo.GetByIDWithStudents(ctx, lessonID)
}

// CancelByStudent отменяет участие ученика не позднее чем за час до
// начала. Для единственного ученика отменяется весь урок, и слот
// освобождается согласно настройке.
func (s *LessonService) CancelByStudent(ctx context.Context, actor model.Actor, lessonID int64) (*model.Lesson, error) {
	lesson, err := s.lessonRepo.GetByIDWithStudents(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	if lesson == nil {
		return nil, ErrLessonNotFound
	}

	if !lesson.HasStudent(actor.ID) {
		return nil, fmt.Errorf("%w: not enrolled in this lesson", ErrPermissionDenied)
	}
	if lesson.Status != model.LessonStatusScheduled && lesson.Status != model.LessonStatusConfirmed {
		return nil, fmt.Errorf("%w: cannot cancel %s lesson", ErrInvalidTransition, lesson.Status)
	}
	if !lesson.CanBeCancelledByStudent(time.Now()) {
		return nil, fmt.Errorf("%w: less than %s before start", ErrPermissionDenied, model.StudentCancelNotice)
	}

	// В групповом уроке снимается только этот ученик
	if lesson.StudentCount() > 1 {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback(ctx)

		txLessons := s.lessonRepo.WithTx(tx)

		removed, err := txLessons.RemoveStudent(ctx, lessonID, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("remove student: %w", err)
		}
		if !removed {
			return nil, fmt.Errorf("%w: student %d", ErrStudentNotEnrolled, actor.ID)
		}

		students, err := txLessons.GetStudents(ctx, lessonID)
		if err != nil {
			return nil, fmt.Errorf("count students: %w", err)
		}
		if len(students) == 1 && lesson.LessonType == model.LessonTypeGroup {
			if err := txLessons.SetType(ctx, lessonID, model.LessonTypeIndividual); err != nil {
				return nil, fmt.Errorf("set lesson type: %w", err)
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit transaction: %w", err)
		}

		s.invalidateSchedules(ctx, lesson.StudioID, lesson.TeacherID)

		s.logger.Info("Student cancelled participation",
			zap.Int64("lesson_id", lessonID),
			zap.Int64("student_id", actor.ID),
			zap.Int("students_left", len(students)))

		return s.lessonRepo.GetByIDWithStudents(ctx, lessonID)
	}

	// Единственный ученик: отменяется весь урок
	reason := "cancelled by student"
	if err := s.cancelLesson(ctx, lesson, reason, "student", s.releaseSlotOnStudentCancel); err != nil {
		return nil, err
	}

	s.invalidateSchedules(ctx, lesson.StudioID, lesson.TeacherID)
	s.notifier.LessonCancelled(lesson, reason)

	s.logger.Info("Lesson cancelled by student",
		zap.Int64("lesson_id", lessonID),
		zap.Int64("student_id", actor.ID),
		zap.Bool("slot_released", s.releaseSlotOnStudentCancel))

	return s.lessonRepo.GetByIDWithStudents(ctx, lessonID)
}

// EmergencyCancel — административная отмена без ограничений по времени.
// Допускается и для урока, который уже идёт.
func (s *LessonService) EmergencyCancel(ctx context.Context, actor model.Actor, lessonID int64, reason string) (*model.Lesson, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin only", ErrPermissionDenied)
	}

	lesson, err := s.lessonRepo.GetByIDWithStudents(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	if lesson == nil {
		return nil, ErrLessonNotFound
	}

	switch lesson.Status {
	case model.LessonStatusScheduled, model.LessonStatusConfirmed, model.LessonStatusInProgress:
	default:
		return nil, fmt.Errorf("%w: cannot cancel %s lesson", ErrInvalidTransition, lesson.Status)
	}

	if err := s.cancelLesson(ctx, lesson, reason, "admin", true); err != nil {
		return nil, err
	}

	s.invalidateSchedules(ctx, lesson.StudioID, lesson.TeacherID)
	s.notifier.LessonCancelled(lesson, reason)

	s.logger.Warn("Lesson cancelled by admin",
		zap.Int64("lesson_id", lessonID),
		zap.Int64("admin_id", actor.ID),
		zap.String("reason", reason))

	return s.lessonRepo.GetByIDWithStudents(ctx, lessonID)
}

// cancelLesson выполняет отмену одной транзакцией: статус урока,
// отметки посещаемости и, при releaseSlot, освобождение слота
func (s *LessonService) cancelLesson(ctx context.Context, lesson *model.Lesson, reason, cancelledBy string, releaseSlot bool) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	txSlots := s.slotRepo.WithTx(tx)
	txLessons := s.lessonRepo.WithTx(tx)

	from := []string{
		string(model.LessonStatusScheduled),
		string(model.LessonStatusConfirmed),
	}
	if cancelledBy == "admin" {
		from = append(from, string(model.LessonStatusInProgress))
	}

	cancelled, err := txLessons.Cancel(ctx, lesson.ID, reason, cancelledBy, from)
	if err != nil {
		return fmt.Errorf("cancel lesson: %w", err)
	}
	if !cancelled {
		return fmt.Errorf("%w: lesson status changed concurrently", ErrInvalidTransition)
	}

	if err := txLessons.SetAttendance(ctx, lesson.ID, model.AttendanceCancelled); err != nil {
		return fmt.Errorf("set attendance: %w", err)
	}

	if releaseSlot {
		released, err := txSlots.ResetToAvailable(ctx, lesson.TimeSlotID)
		if err != nil {
			return fmt.Errorf("release slot: %w", err)
		}
		if !released {
			return fmt.Errorf("%w: slot state changed concurrently", ErrSlotConflict)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// StartLesson переводит подтверждённый урок в идущий
func (s *LessonService) StartLesson(ctx context.Context, actor model.Actor, lessonID int64) (*model.Lesson, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	if lesson == nil {
		return nil, ErrLessonNotFound
	}

	if !actor.IsAdmin() && lesson.TeacherID != actor.ID {
		return nil, fmt.Errorf("%w: lesson belongs to another teacher", ErrPermissionDenied)
	}
	if !lesson.Status.CanTransitionTo(model.LessonStatusInProgress) {
		return nil, fmt.Errorf("%w: cannot start %s lesson", ErrInvalidTransition, lesson.Status)
	}

	ok, err := s.lessonRepo.TransitionStatus(ctx, lessonID, lesson.Status, model.LessonStatusInProgress)
	if err != nil {
		return nil, fmt.Errorf("start lesson: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: lesson status changed concurrently", ErrInvalidTransition)
	}

	s.invalidateSchedules(ctx, lesson.StudioID, lesson.TeacherID)

	s.logger.Info("Lesson started", zap.Int64("lesson_id", lessonID))

	return s.lessonRepo.GetByIDWithStudents(ctx, lessonID)
}

// CompleteLesson завершает урок: слот закрывается, всем ученикам
// проставляется посещение
func (s *LessonService) CompleteLesson(ctx context.Context, actor model.Actor, lessonID int64, notes, homework *string) (*model.Lesson, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	if lesson == nil {
		return nil, ErrLessonNotFound
	}

	if !actor.IsAdmin() && lesson.TeacherID != actor.ID {
		return nil, fmt.Errorf("%w: lesson belongs to another teacher", ErrPermissionDenied)
	}
	if !lesson.Status.CanTransitionTo(model.LessonStatusCompleted) {
		return nil, fmt.Errorf("%w: cannot complete %s lesson", ErrInvalidTransition, lesson.Status)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	txSlots := s.slotRepo.WithTx(tx)
	txLessons := s.lessonRepo.WithTx(tx)

	completed, err := txLessons.Complete(ctx, lessonID, notes, homework)
	if err != nil {
		return nil, fmt.Errorf("complete lesson: %w", err)
	}
	if !completed {
		return nil, fmt.Errorf("%w: lesson status changed concurrently", ErrInvalidTransition)
	}

	slotDone, err := txSlots.MarkCompleted(ctx, lesson.TimeSlotID)
	if err != nil {
		return nil, fmt.Errorf("complete slot: %w", err)
	}
	if !slotDone {
		return nil, fmt.Errorf("%w: slot state changed concurrently", ErrSlotConflict)
	}

	if err := txLessons.SetAttendance(ctx, lessonID, model.AttendanceAttended); err != nil {
		return nil, fmt.Errorf("set attendance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.invalidateSchedules(ctx, lesson.StudioID, lesson.TeacherID)

	s.logger.Info("Lesson completed", zap.Int64("lesson_id", lessonID))

	return s.lessonRepo.GetByIDWithStudents(ctx, lessonID)
}

// MarkNoShow фиксирует неявку: урок закрывается, ученикам
// проставляется пропуск
func (s *LessonService) MarkNoShow(ctx context.Context, actor model.Actor, lessonID int64) (*model.Lesson, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	if lesson == nil {
		return nil, ErrLessonNotFound
	}

	if !actor.IsAdmin() && lesson.TeacherID != actor.ID {
		return nil, fmt.Errorf("%w: lesson belongs to another teacher", ErrPermissionDenied)
	}
	if !lesson.Status.CanTransitionTo(model.LessonStatusNoShow) {
		return nil, fmt.Errorf("%w: cannot mark %s lesson as no-show", ErrInvalidTransition, lesson.Status)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	txSlots := s.slotRepo.WithTx(tx)
	txLessons := s.lessonRepo.WithTx(tx)

	marked, err := txLessons.MarkNoShow(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("mark no-show: %w", err)
	}
	if !marked {
		return nil, fmt.Errorf("%w: lesson status changed concurrently", ErrInvalidTransition)
	}

	slotDone, err := txSlots.MarkCompleted(ctx, lesson.TimeSlotID)
	if err != nil {
		return nil, fmt.Errorf("complete slot: %w", err)
	}
	if !slotDone {
		return nil, fmt.Errorf("%w: slot state changed concurrently", ErrSlotConflict)
	}

	if err := txLessons.SetAttendance(ctx, lessonID, model.AttendanceMissed); err != nil {
		return nil, fmt.Errorf("set attendance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.invalidateSchedules(ctx, lesson.StudioID, lesson.TeacherID)

	s.logger.Info("Lesson marked as no-show", zap.Int64("lesson_id", lessonID))

	return s.lessonRepo.GetByIDWithStudents(ctx, lessonID)
}

// RestoreLesson возвращает отменённый урок в расписание. Требует
// явного подтверждения и свободного слота на прежнем времени.
func (s *LessonService) RestoreLesson(ctx context.Context, actor model.Actor, lessonID int64, confirm bool) (*model.Lesson, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin only", ErrPermissionDenied)
	}
	if !confirm {
		return nil, fmt.Errorf("%w: restore requires explicit confirmation", ErrValidation)
	}

	lesson, err := s.lessonRepo.GetByIDWithStudents(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	if lesson == nil {
		return nil, ErrLessonNotFound
	}

	if lesson.Status != model.LessonStatusCancelled {
		return nil, fmt.Errorf("%w: only cancelled lessons can be restored", ErrInvalidTransition)
	}
	if lesson.IsPast(time.Now()) {
		return nil, fmt.Errorf("%w: lesson start time already passed", ErrValidation)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	txSlots := s.slotRepo.WithTx(tx)
	txLessons := s.lessonRepo.WithTx(tx)

	restored, err := txLessons.Restore(ctx, lessonID)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: slot already has an active lesson", ErrSlotConflict)
		}
		return nil, fmt.Errorf("restore lesson: %w", err)
	}
	if !restored {
		return nil, fmt.Errorf("%w: lesson status changed concurrently", ErrInvalidTransition)
	}

	slot, err := txSlots.GetByID(ctx, lesson.TimeSlotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}

	switch slot.Status {
	case model.SlotStatusAvailable:
		rebooked, err := txSlots.Rebook(ctx, slot.ID, lesson.TeacherID, lesson.TeacherName, lesson.TeacherEmail)
		if err != nil {
			return nil, fmt.Errorf("rebook slot: %w", err)
		}
		if !rebooked {
			return nil, fmt.Errorf("%w: slot is no longer available", ErrSlotConflict)
		}
	case model.SlotStatusBooked:
		// Слот не освобождался при отмене, уникальный индекс уже
		// гарантировал отсутствие другого активного урока на нём
	default:
		return nil, fmt.Errorf("%w: slot is %s", ErrSlotConflict, slot.Status)
	}

	if err := txLessons.SetAttendance(ctx, lessonID, model.AttendanceScheduled); err != nil {
		return nil, fmt.Errorf("set attendance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.invalidateSchedules(ctx, lesson.StudioID, lesson.TeacherID)

	s.logger.Info("Lesson restored",
		zap.Int64("lesson_id", lessonID),
		zap.Int64("admin_id", actor.ID))

	return s.lessonRepo.GetByIDWithStudents(ctx, lessonID)
}

func (s *LessonService) invalidateSchedules(ctx context.Context, studioID, teacherID int64) {
	s.cache.Invalidate(ctx,
		cache.StudioPattern(studioID),
		cache.AvailablePattern(studioID),
		cache.TeacherPattern(teacherID))
}

func validLessonType(t model.LessonType) bool {
	switch t {
	case model.LessonTypeIndividual, model.LessonTypeGroup, model.LessonTypeTrial, model.LessonTypeMakeup:
		return true
	}
	return false
}
