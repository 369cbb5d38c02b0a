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

const slotColumns = `id, studio_id, room_id, slot_date, starts_at, ends_at, duration_minutes,
	status, reserved_by_teacher_id, reserved_by_name, reserved_by_email, admin_notes,
	created_at, updated_at`

type SlotRepository struct {
	db base.Querier
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{db: pool}
}

// WithTx возвращает копию репозитория, работающую внутри транзакции
func (r *SlotRepository) WithTx(tx pgx.Tx) *SlotRepository {
	return &SlotRepository{db: tx}
}

func slotFields(s *model.TimeSlot) []any {
	return []any{
		&s.ID,
		&s.StudioID,
		&s.RoomID,
		&s.SlotDate,
		&s.StartsAt,
		&s.EndsAt,
		&s.DurationMinutes,
		&s.Status,
		&s.ReservedByTeacherID,
		&s.ReservedByName,
		&s.ReservedByEmail,
		&s.AdminNotes,
		&s.CreatedAt,
		&s.UpdatedAt,
	}
}

// Create создаёт новый слот
func (r *SlotRepository) Create(ctx context.Context, slot *model.TimeSlot) error {
	query := `
		INSERT INTO time_slots (studio_id, room_id, slot_date, starts_at, ends_at,
			duration_minutes, status, reserved_by_teacher_id, reserved_by_name, reserved_by_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		slot.StudioID,
		slot.RoomID,
		slot.SlotDate,
		slot.StartsAt,
		slot.EndsAt,
		slot.DurationMinutes,
		slot.Status,
		slot.ReservedByTeacherID,
		slot.ReservedByName,
		slot.ReservedByEmail,
	).Scan(&slot.ID, &slot.CreatedAt, &slot.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// CreateIfFree создаёт слот, молча пропуская занятое время кабинета.
// Возвращает false, если место уже занято другим слотом с тем же началом.
func (r *SlotRepository) CreateIfFree(ctx context.Context, slot *model.TimeSlot) (bool, error) {
	query := `
		INSERT INTO time_slots (studio_id, room_id, slot_date, starts_at, ends_at,
			duration_minutes, status, reserved_by_teacher_id, reserved_by_name, reserved_by_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT ON CONSTRAINT time_slots_room_start_unique DO NOTHING
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		slot.StudioID,
		slot.RoomID,
		slot.SlotDate,
		slot.StartsAt,
		slot.EndsAt,
		slot.DurationMinutes,
		slot.Status,
		slot.ReservedByTeacherID,
		slot.ReservedByName,
		slot.ReservedByEmail,
	).Scan(&slot.ID, &slot.CreatedAt, &slot.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("create slot if free: %w", err)
	}

	return true, nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*model.TimeSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM time_slots WHERE id = $1`

	var slot model.TimeSlot
	err := r.db.QueryRow(ctx, query, id).Scan(slotFields(&slot)...)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return &slot, nil
}

// GetByRoomAndDate получает все слоты кабинета на дату
func (r *SlotRepository) GetByRoomAndDate(ctx context.Context, roomID int64, date time.Time) ([]*model.TimeSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM time_slots
		WHERE room_id = $1 AND slot_date = $2
		ORDER BY starts_at
	`

	rows, err := r.db.Query(ctx, query, roomID, date)
	if err != nil {
		return nil, fmt.Errorf("get slots by room and date: %w", err)
	}
	defer rows.Close()

	return collectSlots(rows)
}

// GetAvailable получает свободные слоты студии в диапазоне дат
func (r *SlotRepository) GetAvailable(ctx context.Context, studioID int64, from, to time.Time, roomID *int64) ([]*model.TimeSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM time_slots
		WHERE studio_id = $1
		  AND status = 'available'
		  AND starts_at >= $2
		  AND starts_at < $3
	`
	args := []any{studioID, from, to}

	if roomID != nil {
		query += ` AND room_id = $4`
		args = append(args, *roomID)
	}
	query += ` ORDER BY starts_at, room_id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get available slots: %w", err)
	}
	defer rows.Close()

	return collectSlots(rows)
}

// GetByTeacher получает слоты, забронированные преподавателем, в диапазоне дат
func (r *SlotRepository) GetByTeacher(ctx context.Context, teacherID int64, from, to time.Time) ([]*model.TimeSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM time_slots
		WHERE reserved_by_teacher_id = $1
		  AND starts_at >= $2
		  AND starts_at < $3
		ORDER BY starts_at
	`

	rows, err := r.db.Query(ctx, query, teacherID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get slots by teacher: %w", err)
	}
	defer rows.Close()

	return collectSlots(rows)
}

// GetByStudio получает все слоты студии в диапазоне дат с фильтром по кабинету
func (r *SlotRepository) GetByStudio(ctx context.Context, studioID int64, from, to time.Time, roomID *int64) ([]*model.TimeSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM time_slots
		WHERE studio_id = $1
		  AND starts_at >= $2
		  AND starts_at < $3
	`
	args := []any{studioID, from, to}

	if roomID != nil {
		query += ` AND room_id = $4`
		args = append(args, *roomID)
	}
	query += ` ORDER BY starts_at, room_id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get slots by studio: %w", err)
	}
	defer rows.Close()

	return collectSlots(rows)
}

// HasOverlap проверяет пересечение интервала с любым занятым слотом кабинета.
// excludeID исключает слот из проверки при валидации его собственного обновления.
func (r *SlotRepository) HasOverlap(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM time_slots
			WHERE room_id = $1
			  AND status <> 'available'
			  AND starts_at < $3
			  AND ends_at > $2
			  AND id <> $4
		)
	`

	var exists bool
	err := r.db.QueryRow(ctx, query, roomID, start, end, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slot overlap: %w", err)
	}

	return exists, nil
}

// Reserve бронирует свободный слот за преподавателем (compare-and-set по статусу)
func (r *SlotRepository) Reserve(ctx context.Context, slotID, teacherID int64, name, email string) (bool, error) {
	query := `
		UPDATE time_slots
		SET status = 'reserved', reserved_by_teacher_id = $1, reserved_by_name = $2,
			reserved_by_email = $3, updated_at = now()
		WHERE id = $4 AND status = 'available'
	`

	result, err := r.db.Exec(ctx, query, teacherID, name, email, slotID)
	if err != nil {
		return false, fmt.Errorf("reserve slot: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// Release снимает бронь преподавателя и возвращает слот в свободные
func (r *SlotRepository) Release(ctx context.Context, slotID, teacherID int64) (bool, error) {
	query := `
		UPDATE time_slots
		SET status = 'available', reserved_by_teacher_id = NULL, reserved_by_name = NULL,
			reserved_by_email = NULL, updated_at = now()
		WHERE id = $1 AND status = 'reserved' AND reserved_by_teacher_id = $2
	`

	result, err := r.db.Exec(ctx, query, slotID, teacherID)
	if err != nil {
		return false, fmt.Errorf("release slot: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// MarkBooked переводит бронь преподавателя в booked при создании урока
func (r *SlotRepository) MarkBooked(ctx context.Context, slotID, teacherID int64) (bool, error) {
	query := `
		UPDATE time_slots
		SET status = 'booked', updated_at = now()
		WHERE id = $1 AND status = 'reserved' AND reserved_by_teacher_id = $2
	`

	result, err := r.db.Exec(ctx, query, slotID, teacherID)
	if err != nil {
		return false, fmt.Errorf("mark slot booked: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// MarkCompleted завершает занятый слот
func (r *SlotRepository) MarkCompleted(ctx context.Context, slotID int64) (bool, error) {
	query := `
		UPDATE time_slots
		SET status = 'completed', updated_at = now()
		WHERE id = $1 AND status = 'booked'
	`

	result, err := r.db.Exec(ctx, query, slotID)
	if err != nil {
		return false, fmt.Errorf("mark slot completed: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// ResetToAvailable освобождает слот после отмены урока
func (r *SlotRepository) ResetToAvailable(ctx context.Context, slotID int64) (bool, error) {
	query := `
		UPDATE time_slots
		SET status = 'available', reserved_by_teacher_id = NULL, reserved_by_name = NULL,
			reserved_by_email = NULL, updated_at = now()
		WHERE id = $1 AND status IN ('reserved', 'booked')
	`

	result, err := r.db.Exec(ctx, query, slotID)
	if err != nil {
		return false, fmt.Errorf("reset slot to available: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// Rebook повторно занимает свободный слот при восстановлении отменённого урока
func (r *SlotRepository) Rebook(ctx context.Context, slotID, teacherID int64, name, email string) (bool, error) {
	query := `
		UPDATE time_slots
		SET status = 'booked', reserved_by_teacher_id = $1, reserved_by_name = $2,
			reserved_by_email = $3, updated_at = now()
		WHERE id = $4 AND status = 'available'
	`

	result, err := r.db.Exec(ctx, query, teacherID, name, email, slotID)
	if err != nil {
		return false, fmt.Errorf("rebook slot: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// Block закрывает свободный слот с пометкой администратора
func (r *SlotRepository) Block(ctx context.Context, slotID int64, reason string) (bool, error) {
	query := `
		UPDATE time_slots
		SET status = 'blocked', admin_notes = $2, updated_at = now()
		WHERE id = $1 AND status = 'available'
	`

	result, err := r.db.Exec(ctx, query, slotID, reason)
	if err != nil {
		return false, fmt.Errorf("block slot: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// Unblock открывает заблокированный слот, очищая пометку
func (r *SlotRepository) Unblock(ctx context.Context, slotID int64) (bool, error) {
	query := `
		UPDATE time_slots
		SET status = 'available', admin_notes = NULL, updated_at = now()
		WHERE id = $1 AND status = 'blocked'
	`

	result, err := r.db.Exec(ctx, query, slotID)
	if err != nil {
		return false, fmt.Errorf("unblock slot: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// StatusCounts считает слоты студии по статусам за период
func (r *SlotRepository) StatusCounts(ctx context.Context, studioID int64, from, to time.Time) (map[string]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM time_slots
		WHERE studio_id = $1 AND slot_date >= $2 AND slot_date <= $3
		GROUP BY status
	`

	rows, err := r.db.Query(ctx, query, studioID, from, to)
	if err != nil {
		return nil, fmt.Errorf("count slots by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan slot status count: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slot status counts: %w", err)
	}

	return counts, nil
}

// RoomOccupancy считает занятость кабинетов студии за период
// (booked и completed против всех незаблокированных слотов)
func (r *SlotRepository) RoomOccupancy(ctx context.Context, studioID int64, from, to time.Time) ([]model.RoomUtilization, error) {
	query := `
		SELECT r.id, r.name,
			COUNT(ts.id) AS total,
			COUNT(ts.id) FILTER (WHERE ts.status IN ('booked', 'completed')) AS occupied
		FROM rooms r
		LEFT JOIN time_slots ts ON ts.room_id = r.id
			AND ts.slot_date >= $2 AND ts.slot_date <= $3
			AND ts.status <> 'blocked'
		WHERE r.studio_id = $1
		GROUP BY r.id, r.name
		ORDER BY r.id
	`

	rows, err := r.db.Query(ctx, query, studioID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get room occupancy: %w", err)
	}
	defer rows.Close()

	var result []model.RoomUtilization
	for rows.Next() {
		var u model.RoomUtilization
		if err := rows.Scan(&u.RoomID, &u.RoomName, &u.TotalSlots, &u.OccupiedSlots); err != nil {
			return nil, fmt.Errorf("scan room occupancy: %w", err)
		}
		result = append(result, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate room occupancy: %w", err)
	}

	return result, nil
}

func collectSlots(rows pgx.Rows) ([]*model.TimeSlot, error) {
	var slots []*model.TimeSlot
	for rows.Next() {
		var slot model.TimeSlot
		if err := rows.Scan(slotFields(&slot)...); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, &slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}

	return slots, nil
}
