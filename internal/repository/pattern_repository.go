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

const patternColumns = `id, studio_id, teacher_id, teacher_name, teacher_email, room_id, day_of_week,
	to_char(start_time, 'HH24:MI'), duration_minutes, valid_from, valid_until, is_active, notes,
	created_at, updated_at`

type PatternRepository struct {
	db base.Querier
}

func NewPatternRepository(pool *pgxpool.Pool) *PatternRepository {
	return &PatternRepository{db: pool}
}

// WithTx возвращает копию репозитория, работающую внутри транзакции
func (r *PatternRepository) WithTx(tx pgx.Tx) *PatternRepository {
	return &PatternRepository{db: tx}
}

func patternFields(p *model.RecurringPattern) []any {
	return []any{
		&p.ID,
		&p.StudioID,
		&p.TeacherID,
		&p.TeacherName,
		&p.TeacherEmail,
		&p.RoomID,
		&p.DayOfWeek,
		&p.StartTime,
		&p.DurationMinutes,
		&p.ValidFrom,
		&p.ValidUntil,
		&p.IsActive,
		&p.Notes,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
}

// Create создаёт новый шаблон
func (r *PatternRepository) Create(ctx context.Context, p *model.RecurringPattern) error {
	query := `
		INSERT INTO recurring_patterns (studio_id, teacher_id, teacher_name, teacher_email,
			room_id, day_of_week, start_time, duration_minutes, valid_from, valid_until, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7::time, $8, $9, $10, $11)
		RETURNING id, is_active, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		p.StudioID,
		p.TeacherID,
		p.TeacherName,
		p.TeacherEmail,
		p.RoomID,
		p.DayOfWeek,
		p.StartTime,
		p.DurationMinutes,
		p.ValidFrom,
		p.ValidUntil,
		p.Notes,
	).Scan(&p.ID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create pattern: %w", err)
	}

	return nil
}

// GetByID получает шаблон по ID без ростера
func (r *PatternRepository) GetByID(ctx context.Context, id int64) (*model.RecurringPattern, error) {
	query := `SELECT ` + patternColumns + ` FROM recurring_patterns WHERE id = $1`

	var p model.RecurringPattern
	err := r.db.QueryRow(ctx, query, id).Scan(patternFields(&p)...)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pattern by id: %w", err)
	}

	return &p, nil
}

// GetByIDWithStudents получает шаблон вместе с ростером
func (r *PatternRepository) GetByIDWithStudents(ctx context.Context, id int64) (*model.RecurringPattern, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil || p == nil {
		return p, err
	}

	p.Students, err = r.GetStudents(ctx, id)
	if err != nil {
		return nil, err
	}

	return p, nil
}

// List получает шаблоны с фильтрами по студии, преподавателю и активности
func (r *PatternRepository) List(ctx context.Context, studioID, teacherID *int64, activeOnly bool) ([]*model.RecurringPattern, error) {
	query := `SELECT ` + patternColumns + ` FROM recurring_patterns WHERE 1=1`
	var args []any

	if studioID != nil {
		args = append(args, *studioID)
		query += fmt.Sprintf(" AND studio_id = $%d", len(args))
	}
	if teacherID != nil {
		args = append(args, *teacherID)
		query += fmt.Sprintf(" AND teacher_id = $%d", len(args))
	}
	if activeOnly {
		query += " AND is_active = TRUE"
	}
	query += " ORDER BY id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}
	defer rows.Close()

	patterns, err := collectPatterns(rows)
	if err != nil {
		return nil, err
	}

	return patterns, r.attachStudents(ctx, patterns)
}

// GetActive получает активные на дату шаблоны вместе с ростерами
func (r *PatternRepository) GetActive(ctx context.Context, asOf time.Time) ([]*model.RecurringPattern, error) {
	query := `
		SELECT ` + patternColumns + `
		FROM recurring_patterns
		WHERE is_active = TRUE
		  AND valid_from <= $1
		  AND (valid_until IS NULL OR valid_until >= $1)
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("get active patterns: %w", err)
	}
	defer rows.Close()

	patterns, err := collectPatterns(rows)
	if err != nil {
		return nil, err
	}

	return patterns, r.attachStudents(ctx, patterns)
}

// GetActiveByTeacher получает активные на дату шаблоны преподавателя с ростерами
func (r *PatternRepository) GetActiveByTeacher(ctx context.Context, teacherID int64, asOf time.Time) ([]*model.RecurringPattern, error) {
	query := `
		SELECT ` + patternColumns + `
		FROM recurring_patterns
		WHERE teacher_id = $1
		  AND is_active = TRUE
		  AND valid_from <= $2
		  AND (valid_until IS NULL OR valid_until >= $2)
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, teacherID, asOf)
	if err != nil {
		return nil, fmt.Errorf("get active patterns by teacher: %w", err)
	}
	defer rows.Close()

	patterns, err := collectPatterns(rows)
	if err != nil {
		return nil, err
	}

	return patterns, r.attachStudents(ctx, patterns)
}

// Update сохраняет изменяемые поля шаблона
func (r *PatternRepository) Update(ctx context.Context, p *model.RecurringPattern) error {
	query := `
		UPDATE recurring_patterns
		SET start_time = $2::time, duration_minutes = $3, valid_until = $4, notes = $5,
			is_active = $6, updated_at = now()
		WHERE id = $1
	`

	_, err := r.db.Exec(ctx, query, p.ID, p.StartTime, p.DurationMinutes, p.ValidUntil, p.Notes, p.IsActive)
	if err != nil {
		return fmt.Errorf("update pattern: %w", err)
	}

	return nil
}

// Deactivate останавливает генерацию по шаблону, не трогая созданные уроки
func (r *PatternRepository) Deactivate(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE recurring_patterns SET is_active = FALSE, updated_at = now() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("deactivate pattern: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// Delete удаляет шаблон; ссылки уроков на него обнуляются на уровне БД
func (r *PatternRepository) Delete(ctx context.Context, id int64) (bool, error) {
	query := `DELETE FROM recurring_patterns WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete pattern: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// GetStudents получает ростер шаблона
func (r *PatternRepository) GetStudents(ctx context.Context, patternID int64) ([]*model.PatternStudent, error) {
	query := `
		SELECT id, recurring_pattern_id, student_id, name, email, phone, level, created_at
		FROM recurring_pattern_students
		WHERE recurring_pattern_id = $1
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, patternID)
	if err != nil {
		return nil, fmt.Errorf("get pattern students: %w", err)
	}
	defer rows.Close()

	return collectPatternStudents(rows)
}

// AddStudent добавляет ученика в ростер шаблона
func (r *PatternRepository) AddStudent(ctx context.Context, ps *model.PatternStudent) error {
	query := `
		INSERT INTO recurring_pattern_students (recurring_pattern_id, student_id, name, email, phone, level)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		ps.RecurringPatternID,
		ps.StudentID,
		ps.Name,
		ps.Email,
		ps.Phone,
		ps.Level,
	).Scan(&ps.ID, &ps.CreatedAt)

	if err != nil {
		return fmt.Errorf("add pattern student: %w", err)
	}

	return nil
}

// RemoveStudent убирает ученика из ростера шаблона
func (r *PatternRepository) RemoveStudent(ctx context.Context, patternID, studentID int64) (bool, error) {
	query := `DELETE FROM recurring_pattern_students WHERE recurring_pattern_id = $1 AND student_id = $2`

	result, err := r.db.Exec(ctx, query, patternID, studentID)
	if err != nil {
		return false, fmt.Errorf("remove pattern student: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// attachStudents подгружает ростеры для набора шаблонов одним запросом
func (r *PatternRepository) attachStudents(ctx context.Context, patterns []*model.RecurringPattern) error {
	if len(patterns) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(patterns))
	byID := make(map[int64]*model.RecurringPattern, len(patterns))
	for _, p := range patterns {
		ids = append(ids, p.ID)
		byID[p.ID] = p
	}

	query := `
		SELECT id, recurring_pattern_id, student_id, name, email, phone, level, created_at
		FROM recurring_pattern_students
		WHERE recurring_pattern_id = ANY($1)
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("get students for patterns: %w", err)
	}
	defer rows.Close()

	students, err := collectPatternStudents(rows)
	if err != nil {
		return err
	}

	for _, s := range students {
		if p, ok := byID[s.RecurringPatternID]; ok {
			p.Students = append(p.Students, s)
		}
	}

	return nil
}

func collectPatterns(rows pgx.Rows) ([]*model.RecurringPattern, error) {
	var patterns []*model.RecurringPattern
	for rows.Next() {
		var p model.RecurringPattern
		if err := rows.Scan(patternFields(&p)...); err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		patterns = append(patterns, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patterns: %w", err)
	}

	return patterns, nil
}

func collectPatternStudents(rows pgx.Rows) ([]*model.PatternStudent, error) {
	var students []*model.PatternStudent
	for rows.Next() {
		var s model.PatternStudent
		err := rows.Scan(
			&s.ID,
			&s.RecurringPatternID,
			&s.StudentID,
			&s.Name,
			&s.Email,
			&s.Phone,
			&s.Level,
			&s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pattern student: %w", err)
		}
		students = append(students, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pattern students: %w", err)
	}

	return students, nil
}
