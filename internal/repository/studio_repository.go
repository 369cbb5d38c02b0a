package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/schedule_service/internal/model"
	"github.com/Freeeeeet/schedule_service/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StudioRepository хранит каталог студий и кабинетов
type StudioRepository struct {
	db base.Querier
}

func NewStudioRepository(pool *pgxpool.Pool) *StudioRepository {
	return &StudioRepository{db: pool}
}

// WithTx возвращает копию репозитория, работающую внутри транзакции
func (r *StudioRepository) WithTx(tx pgx.Tx) *StudioRepository {
	return &StudioRepository{db: tx}
}

// CreateStudio создаёт студию
func (r *StudioRepository) CreateStudio(ctx context.Context, s *model.Studio) error {
	query := `
		INSERT INTO studios (name, working_hours_start, working_hours_end, slot_duration_minutes)
		VALUES ($1, $2::time, $3::time, $4)
		RETURNING id, is_active, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		s.Name,
		s.WorkingHoursStart,
		s.WorkingHoursEnd,
		s.SlotDurationMinutes,
	).Scan(&s.ID, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create studio: %w", err)
	}

	return nil
}

// GetStudioByID получает студию по ID
func (r *StudioRepository) GetStudioByID(ctx context.Context, id int64) (*model.Studio, error) {
	query := `
		SELECT id, name, to_char(working_hours_start, 'HH24:MI'), to_char(working_hours_end, 'HH24:MI'),
			slot_duration_minutes, is_active, created_at, updated_at
		FROM studios
		WHERE id = $1
	`

	var s model.Studio
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.Name,
		&s.WorkingHoursStart,
		&s.WorkingHoursEnd,
		&s.SlotDurationMinutes,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get studio by id: %w", err)
	}

	return &s, nil
}

// ListStudios получает все студии
func (r *StudioRepository) ListStudios(ctx context.Context) ([]*model.Studio, error) {
	query := `
		SELECT id, name, to_char(working_hours_start, 'HH24:MI'), to_char(working_hours_end, 'HH24:MI'),
			slot_duration_minutes, is_active, created_at, updated_at
		FROM studios
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list studios: %w", err)
	}
	defer rows.Close()

	var studios []*model.Studio
	for rows.Next() {
		var s model.Studio
		err := rows.Scan(
			&s.ID,
			&s.Name,
			&s.WorkingHoursStart,
			&s.WorkingHoursEnd,
			&s.SlotDurationMinutes,
			&s.IsActive,
			&s.CreatedAt,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan studio: %w", err)
		}
		studios = append(studios, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate studios: %w", err)
	}

	return studios, nil
}

const roomColumns = `id, studio_id, name, room_type, capacity, has_piano, has_microphone,
	has_mirror, has_sound_system, has_recording_equipment, is_active, created_at, updated_at`

func roomFields(room *model.Room) []any {
	return []any{
		&room.ID,
		&room.StudioID,
		&room.Name,
		&room.RoomType,
		&room.Capacity,
		&room.HasPiano,
		&room.HasMicrophone,
		&room.HasMirror,
		&room.HasSoundSystem,
		&room.HasRecordingEquipment,
		&room.IsActive,
		&room.CreatedAt,
		&room.UpdatedAt,
	}
}

// CreateRoom создаёт кабинет студии
func (r *StudioRepository) CreateRoom(ctx context.Context, room *model.Room) error {
	query := `
		INSERT INTO rooms (studio_id, name, room_type, capacity, has_piano, has_microphone,
			has_mirror, has_sound_system, has_recording_equipment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, is_active, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		room.StudioID,
		room.Name,
		room.RoomType,
		room.Capacity,
		room.HasPiano,
		room.HasMicrophone,
		room.HasMirror,
		room.HasSoundSystem,
		room.HasRecordingEquipment,
	).Scan(&room.ID, &room.IsActive, &room.CreatedAt, &room.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}

	return nil
}

// GetRoomByID получает кабинет по ID
func (r *StudioRepository) GetRoomByID(ctx context.Context, id int64) (*model.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`

	var room model.Room
	err := r.db.QueryRow(ctx, query, id).Scan(roomFields(&room)...)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get room by id: %w", err)
	}

	return &room, nil
}

// ListRooms получает кабинеты студии
func (r *StudioRepository) ListRooms(ctx context.Context, studioID int64, activeOnly bool) ([]*model.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE studio_id = $1`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY id`

	rows, err := r.db.Query(ctx, query, studioID)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*model.Room
	for rows.Next() {
		var room model.Room
		if err := rows.Scan(roomFields(&room)...); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, &room)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}

	return rooms, nil
}

// UpdateRoom сохраняет изменяемые поля кабинета
func (r *StudioRepository) UpdateRoom(ctx context.Context, room *model.Room) error {
	query := `
		UPDATE rooms
		SET name = $2, room_type = $3, capacity = $4, has_piano = $5, has_microphone = $6,
			has_mirror = $7, has_sound_system = $8, has_recording_equipment = $9,
			is_active = $10, updated_at = now()
		WHERE id = $1
	`

	_, err := r.db.Exec(
		ctx, query,
		room.ID,
		room.Name,
		room.RoomType,
		room.Capacity,
		room.HasPiano,
		room.HasMicrophone,
		room.HasMirror,
		room.HasSoundSystem,
		room.HasRecordingEquipment,
		room.IsActive,
	)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}

	return nil
}
