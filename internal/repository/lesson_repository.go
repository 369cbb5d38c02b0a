package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/schedule_service/internal/model"
	"github.com/Freeeeeet/schedule_service/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const lessonColumns = `id, time_slot_id, studio_id, room_id, teacher_id, teacher_name, teacher_email,
	recurring_pattern_id, lesson_date, starts_at, ends_at, title, lesson_type, status,
	max_students, notes, homework, cancellation_reason, cancelled_by, created_at, updated_at`

type LessonRepository struct {
	db base.Querier
}

func NewLessonRepository(pool *pgxpool.Pool) *LessonRepository {
	return &LessonRepository{db: pool}
}

// WithTx возвращает копию репозитория, работающую внутри транзакции
func (r *LessonRepository) WithTx(tx pgx.Tx) *LessonRepository {
	return &LessonRepository{db: tx}
}

func lessonFields(l *model.Lesson) []any {
	return []any{
		&l.ID,
		&l.TimeSlotID,
		&l.StudioID,
		&l.RoomID,
		&l.TeacherID,
		&l.TeacherName,
		&l.TeacherEmail,
		&l.RecurringPatternID,
		&l.LessonDate,
		&l.StartsAt,
		&l.EndsAt,
		&l.Title,
		&l.LessonType,
		&l.Status,
		&l.MaxStudents,
		&l.Notes,
		&l.Homework,
		&l.CancellationReason,
		&l.CancelledBy,
		&l.CreatedAt,
		&l.UpdatedAt,
	}
}

// Create создаёт новый урок
func (r *LessonRepository) Create(ctx context.Context, lesson *model.Lesson) error {
	query := `
		INSERT INTO lessons (time_slot_id, studio_id, room_id, teacher_id, teacher_name,
			teacher_email, recurring_pattern_id, lesson_date, starts_at, ends_at, title,
			lesson_type, status, max_students, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		lesson.TimeSlotID,
		lesson.StudioID,
		lesson.RoomID,
		lesson.TeacherID,
		lesson.TeacherName,
		lesson.TeacherEmail,
		lesson.RecurringPatternID,
		lesson.LessonDate,
		lesson.StartsAt,
		lesson.EndsAt,
		lesson.Title,
		lesson.LessonType,
		lesson.Status,
		lesson.MaxStudents,
		lesson.Notes,
	).Scan(&lesson.ID, &lesson.CreatedAt, &lesson.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}

	return nil
}

// GetByID получает урок по ID без ростера
func (r *LessonRepository) GetByID(ctx context.Context, id int64) (*model.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1`

	var lesson model.Lesson
	err := r.db.QueryRow(ctx, query, id).Scan(lessonFields(&lesson)...)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lesson by id: %w", err)
	}

	return &lesson, nil
}

// GetByIDWithStudents получает урок вместе с ростером
func (r *LessonRepository) GetByIDWithStudents(ctx context.Context, id int64) (*model.Lesson, error) {
	lesson, err := r.GetByID(ctx, id)
	if err != nil || lesson == nil {
		return lesson, err
	}

	lesson.Students, err = r.GetStudents(ctx, id)
	if err != nil {
		return nil, err
	}

	return lesson, nil
}

// GetActiveBySlot получает неотменённый урок слота
func (r *LessonRepository) GetActiveBySlot(ctx context.Context, slotID int64) (*model.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE time_slot_id = $1 AND status <> 'cancelled'`

	var lesson model.Lesson
	err := r.db.QueryRow(ctx, query, slotID).Scan(lessonFields(&lesson)...)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lesson by slot: %w", err)
	}

	return &lesson, nil
}

// GetByTeacher получает уроки преподавателя в диапазоне дат вместе с ростерами
func (r *LessonRepository) GetByTeacher(ctx context.Context, teacherID int64, from, to time.Time) ([]*model.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons
		WHERE teacher_id = $1 AND lesson_date >= $2 AND lesson_date <= $3
		ORDER BY starts_at
	`

	rows, err := r.db.Query(ctx, query, teacherID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get lessons by teacher: %w", err)
	}
	defer rows.Close()

	lessons, err := collectLessons(rows)
	if err != nil {
		return nil, err
	}

	return lessons, r.attachStudents(ctx, lessons)
}

// GetByStudent получает уроки, на которые записан ученик, в диапазоне дат
func (r *LessonRepository) GetByStudent(ctx context.Context, studentID int64, from, to time.Time) ([]*model.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons
		WHERE lesson_date >= $2 AND lesson_date <= $3
		  AND id IN (SELECT lesson_id FROM lesson_students WHERE student_id = $1)
		ORDER BY starts_at
	`

	rows, err := r.db.Query(ctx, query, studentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get lessons by student: %w", err)
	}
	defer rows.Close()

	lessons, err := collectLessons(rows)
	if err != nil {
		return nil, err
	}

	return lessons, r.attachStudents(ctx, lessons)
}

// GetByStudio получает уроки студии в диапазоне дат с фильтрами
func (r *LessonRepository) GetByStudio(ctx context.Context, studioID int64, from, to time.Time, roomID, teacherID *int64) ([]*model.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons
		WHERE studio_id = $1 AND lesson_date >= $2 AND lesson_date <= $3
	`
	args := []any{studioID, from, to}

	if roomID != nil {
		args = append(args, *roomID)
		query += fmt.Sprintf(" AND room_id = $%d", len(args))
	}
	if teacherID != nil {
		args = append(args, *teacherID)
		query += fmt.Sprintf(" AND teacher_id = $%d", len(args))
	}
	query += ` ORDER BY starts_at`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get lessons by studio: %w", err)
	}
	defer rows.Close()

	lessons, err := collectLessons(rows)
	if err != nil {
		return nil, err
	}

	return lessons, r.attachStudents(ctx, lessons)
}

// LastGeneratedDate — дата последнего урока, созданного из шаблона
func (r *LessonRepository) LastGeneratedDate(ctx context.Context, patternID int64) (*time.Time, error) {
	query := `
		SELECT lesson_date FROM lessons
		WHERE recurring_pattern_id = $1
		ORDER BY lesson_date DESC
		LIMIT 1
	`

	var date time.Time
	err := r.db.QueryRow(ctx, query, patternID).Scan(&date)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get last generated date: %w", err)
	}

	return &date, nil
}

// TransitionStatus переводит урок в новый статус (compare-and-set по текущему)
func (r *LessonRepository) TransitionStatus(ctx context.Context, lessonID int64, from, to model.LessonStatus) (bool, error) {
	query := `
		UPDATE lessons
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.Exec(ctx, query, lessonID, from, to)
	if err != nil {
		return false, fmt.Errorf("transition lesson status: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// SetType меняет тип урока при изменении числа учеников
func (r *LessonRepository) SetType(ctx context.Context, lessonID int64, lessonType model.LessonType) error {
	query := `UPDATE lessons SET lesson_type = $2, updated_at = now() WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, lessonID, lessonType); err != nil {
		return fmt.Errorf("set lesson type: %w", err)
	}

	return nil
}

// Cancel отменяет урок из любого из допустимых статусов
func (r *LessonRepository) Cancel(ctx context.Context, lessonID int64, reason, cancelledBy string, fromStatuses []string) (bool, error) {
	query := `
		UPDATE lessons
		SET status = 'cancelled', cancellation_reason = $2, cancelled_by = $3, updated_at = now()
		WHERE id = $1 AND status = ANY($4)
	`

	result, err := r.db.Exec(ctx, query, lessonID, reason, cancelledBy, fromStatuses)
	if err != nil {
		return false, fmt.Errorf("cancel lesson: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// Complete завершает урок, сохраняя заметки и домашнее задание
func (r *LessonRepository) Complete(ctx context.Context, lessonID int64, notes, homework *string) (bool, error) {
	query := `
		UPDATE lessons
		SET status = 'completed', notes = COALESCE($2, notes),
			homework = COALESCE($3, homework), updated_at = now()
		WHERE id = $1 AND status IN ('confirmed', 'in_progress')
	`

	result, err := r.db.Exec(ctx, query, lessonID, notes, homework)
	if err != nil {
		return false, fmt.Errorf("complete lesson: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// MarkNoShow отмечает неявку на урок
func (r *LessonRepository) MarkNoShow(ctx context.Context, lessonID int64) (bool, error) {
	query := `
		UPDATE lessons
		SET status = 'no_show', updated_at = now()
		WHERE id = $1 AND status IN ('confirmed', 'in_progress')
	`

	result, err := r.db.Exec(ctx, query, lessonID)
	if err != nil {
		return false, fmt.Errorf("mark lesson no-show: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// Restore возвращает отменённый урок в расписание
func (r *LessonRepository) Restore(ctx context.Context, lessonID int64) (bool, error) {
	query := `
		UPDATE lessons
		SET status = 'scheduled', cancellation_reason = NULL, cancelled_by = NULL, updated_at = now()
		WHERE id = $1 AND status = 'cancelled'
	`

	result, err := r.db.Exec(ctx, query, lessonID)
	if err != nil {
		return false, fmt.Errorf("restore lesson: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// GetStudents получает ростер урока в порядке записи
func (r *LessonRepository) GetStudents(ctx context.Context, lessonID int64) ([]*model.LessonStudent, error) {
	query := `
		SELECT id, lesson_id, student_id, name, email, phone, level, attendance_status, enrolled_at
		FROM lesson_students
		WHERE lesson_id = $1
		ORDER BY enrolled_at, id
	`

	rows, err := r.db.Query(ctx, query, lessonID)
	if err != nil {
		return nil, fmt.Errorf("get lesson students: %w", err)
	}
	defer rows.Close()

	return collectLessonStudents(rows)
}

// AddStudent записывает ученика на урок
func (r *LessonRepository) AddStudent(ctx context.Context, ls *model.LessonStudent) error {
	query := `
		INSERT INTO lesson_students (lesson_id, student_id, name, email, phone, level)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, attendance_status, enrolled_at
	`

	err := r.db.QueryRow(
		ctx, query,
		ls.LessonID,
		ls.StudentID,
		ls.Name,
		ls.Email,
		ls.Phone,
		ls.Level,
	).Scan(&ls.ID, &ls.AttendanceStatus, &ls.EnrolledAt)

	if err != nil {
		return fmt.Errorf("add lesson student: %w", err)
	}

	return nil
}

// RemoveStudent убирает ученика с урока
func (r *LessonRepository) RemoveStudent(ctx context.Context, lessonID, studentID int64) (bool, error) {
	query := `DELETE FROM lesson_students WHERE lesson_id = $1 AND student_id = $2`

	result, err := r.db.Exec(ctx, query, lessonID, studentID)
	if err != nil {
		return false, fmt.Errorf("remove lesson student: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// SetAttendance проставляет всем ученикам урока статус посещения
func (r *LessonRepository) SetAttendance(ctx context.Context, lessonID int64, status model.AttendanceStatus) error {
	query := `UPDATE lesson_students SET attendance_status = $2 WHERE lesson_id = $1`

	if _, err := r.db.Exec(ctx, query, lessonID, status); err != nil {
		return fmt.Errorf("set attendance: %w", err)
	}

	return nil
}

// StatusCounts считает уроки студии по статусам за период
func (r *LessonRepository) StatusCounts(ctx context.Context, studioID int64, from, to time.Time) (map[string]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM lessons
		WHERE studio_id = $1 AND lesson_date >= $2 AND lesson_date <= $3
		GROUP BY status
	`

	return r.countGroups(ctx, query, studioID, from, to)
}

// TypeCounts считает уроки студии по типам за период
func (r *LessonRepository) TypeCounts(ctx context.Context, studioID int64, from, to time.Time) (map[string]int, error) {
	query := `
		SELECT lesson_type, COUNT(*)
		FROM lessons
		WHERE studio_id = $1 AND lesson_date >= $2 AND lesson_date <= $3
		GROUP BY lesson_type
	`

	return r.countGroups(ctx, query, studioID, from, to)
}

func (r *LessonRepository) countGroups(ctx context.Context, query string, studioID int64, from, to time.Time) (map[string]int, error) {
	rows, err := r.db.Query(ctx, query, studioID, from, to)
	if err != nil {
		return nil, fmt.Errorf("count lessons: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("scan lesson count: %w", err)
		}
		counts[key] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lesson counts: %w", err)
	}

	return counts, nil
}

// attachStudents подгружает ростеры для набора уроков одним запросом
func (r *LessonRepository) attachStudents(ctx context.Context, lessons []*model.Lesson) error {
	if len(lessons) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(lessons))
	byID := make(map[int64]*model.Lesson, len(lessons))
	for _, l := range lessons {
		ids = append(ids, l.ID)
		byID[l.ID] = l
	}

	query := `
		SELECT id, lesson_id, student_id, name, email, phone, level, attendance_status, enrolled_at
		FROM lesson_students
		WHERE lesson_id = ANY($1)
		ORDER BY enrolled_at, id
	`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("get students for lessons: %w", err)
	}
	defer rows.Close()

	students, err := collectLessonStudents(rows)
	if err != nil {
		return err
	}

	for _, s := range students {
		if lesson, ok := byID[s.LessonID]; ok {
			lesson.Students = append(lesson.Students, s)
		}
	}

	return nil
}

func collectLessons(rows pgx.Rows) ([]*model.Lesson, error) {
	var lessons []*model.Lesson
	for rows.Next() {
		var lesson model.Lesson
		if err := rows.Scan(lessonFields(&lesson)...); err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, &lesson)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lessons: %w", err)
	}

	return lessons, nil
}

func collectLessonStudents(rows pgx.Rows) ([]*model.LessonStudent, error) {
	var students []*model.LessonStudent
	for rows.Next() {
		var s model.LessonStudent
		err := rows.Scan(
			&s.ID,
			&s.LessonID,
			&s.StudentID,
			&s.Name,
			&s.Email,
			&s.Phone,
			&s.Level,
			&s.AttendanceStatus,
			&s.EnrolledAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan lesson student: %w", err)
		}
		students = append(students, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lesson students: %w", err)
	}

	return students, nil
}
