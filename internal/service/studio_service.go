package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/schedule_service/internal/model"
	"github.com/Freeeeeet/schedule_service/internal/repository"
	"go.uber.org/zap"
)

type StudioService struct {
	studioRepo *repository.StudioRepository
	logger     *zap.Logger
}

func NewStudioService(studioRepo *repository.StudioRepository, logger *zap.Logger) *StudioService {
	return &StudioService{studioRepo: studioRepo, logger: logger}
}

type CreateStudioInput struct {
	Name                string
	WorkingHoursStart   string
	WorkingHoursEnd     string
	SlotDurationMinutes int
}

type CreateRoomInput struct {
	StudioID              int64
	Name                  string
	RoomType              model.RoomType
	Capacity              int
	HasPiano              bool
	HasMicrophone         bool
	HasMirror             bool
	HasSoundSystem        bool
	HasRecordingEquipment bool
}

type UpdateRoomInput struct {
	Name                  *string
	RoomType              *model.RoomType
	Capacity              *int
	HasPiano              *bool
	HasMicrophone         *bool
	HasMirror             *bool
	HasSoundSystem        *bool
	HasRecordingEquipment *bool
	IsActive              *bool
}

// CreateStudio создаёт студию с рабочими часами для сетки слотов
func (s *StudioService) CreateStudio(ctx context.Context, in CreateStudioInput) (*model.Studio, error) {
	startHour, startMinute, err := model.ParseClock(in.WorkingHoursStart)
	if err != nil {
		return nil, fmt.Errorf("%w: bad working_hours_start %q", ErrValidation, in.WorkingHoursStart)
	}
	endHour, endMinute, err := model.ParseClock(in.WorkingHoursEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: bad working_hours_end %q", ErrValidation, in.WorkingHoursEnd)
	}
	if endHour*60+endMinute <= startHour*60+startMinute {
		return nil, fmt.Errorf("%w: working hours end before start", ErrValidation)
	}
	if in.SlotDurationMinutes < 15 || in.SlotDurationMinutes > 240 {
		return nil, fmt.Errorf("%w: slot_duration_minutes must be between 15 and 240", ErrValidation)
	}

	studio := &model.Studio{
		Name:                in.Name,
		WorkingHoursStart:   in.WorkingHoursStart,
		WorkingHoursEnd:     in.WorkingHoursEnd,
		SlotDurationMinutes: in.SlotDurationMinutes,
		IsActive:            true,
	}

	if err := s.studioRepo.CreateStudio(ctx, studio); err != nil {
		return nil, err
	}

	s.logger.Info("Studio created",
		zap.Int64("studio_id", studio.ID),
		zap.String("name", studio.Name))

	return studio, nil
}

// ListStudios возвращает все студии
func (s *StudioService) ListStudios(ctx context.Context) ([]*model.Studio, error) {
	return s.studioRepo.ListStudios(ctx)
}

// GetStudio возвращает студию по идентификатору
func (s *StudioService) GetStudio(ctx context.Context, studioID int64) (*model.Studio, error) {
	studio, err := s.studioRepo.GetStudioByID(ctx, studioID)
	if err != nil {
		return nil, fmt.Errorf("get studio: %w", err)
	}
	if studio == nil {
		return nil, ErrStudioNotFound
	}
	return studio, nil
}

// CreateRoom добавляет кабинет в студию
func (s *StudioService) CreateRoom(ctx context.Context, in CreateRoomInput) (*model.Room, error) {
	if !validRoomType(in.RoomType) {
		return nil, fmt.Errorf("%w: unknown room type %q", ErrValidation, in.RoomType)
	}
	if in.Capacity < 1 {
		return nil, fmt.Errorf("%w: capacity must be at least 1", ErrValidation)
	}

	studio, err := s.studioRepo.GetStudioByID(ctx, in.StudioID)
	if err != nil {
		return nil, fmt.Errorf("get studio: %w", err)
	}
	if studio == nil {
		return nil, ErrStudioNotFound
	}

	room := &model.Room{
		StudioID:              in.StudioID,
		Name:                  in.Name,
		RoomType:              in.RoomType,
		Capacity:              in.Capacity,
		HasPiano:              in.HasPiano,
		HasMicrophone:         in.HasMicrophone,
		HasMirror:             in.HasMirror,
		HasSoundSystem:        in.HasSoundSystem,
		HasRecordingEquipment: in.HasRecordingEquipment,
		IsActive:              true,
	}

	if err := s.studioRepo.CreateRoom(ctx, room); err != nil {
		return nil, err
	}

	s.logger.Info("Room created",
		zap.Int64("room_id", room.ID),
		zap.Int64("studio_id", in.StudioID),
		zap.String("room_type", string(in.RoomType)))

	return room, nil
}

// ListRooms возвращает кабинеты студии
func (s *StudioService) ListRooms(ctx context.Context, studioID int64, activeOnly bool) ([]*model.Room, error) {
	studio, err := s.studioRepo.GetStudioByID(ctx, studioID)
	if err != nil {
		return nil, fmt.Errorf("get studio: %w", err)
	}
	if studio == nil {
		return nil, ErrStudioNotFound
	}

	return s.studioRepo.ListRooms(ctx, studioID, activeOnly)
}

// UpdateRoom меняет кабинет. Деактивация убирает его из генерации
// сетки, существующие слоты не трогаются.
func (s *StudioService) UpdateRoom(ctx context.Context, roomID int64, in UpdateRoomInput) (*model.Room, error) {
	room, err := s.studioRepo.GetRoomByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	if in.Name != nil {
		room.Name = *in.Name
	}
	if in.RoomType != nil {
		if !validRoomType(*in.RoomType) {
			return nil, fmt.Errorf("%w: unknown room type %q", ErrValidation, *in.RoomType)
		}
		room.RoomType = *in.RoomType
	}
	if in.Capacity != nil {
		if *in.Capacity < 1 {
			return nil, fmt.Errorf("%w: capacity must be at least 1", ErrValidation)
		}
		room.Capacity = *in.Capacity
	}
	if in.HasPiano != nil {
		room.HasPiano = *in.HasPiano
	}
	if in.HasMicrophone != nil {
		room.HasMicrophone = *in.HasMicrophone
	}
	if in.HasMirror != nil {
		room.HasMirror = *in.HasMirror
	}
	if in.HasSoundSystem != nil {
		room.HasSoundSystem = *in.HasSoundSystem
	}
	if in.HasRecordingEquipment != nil {
		room.HasRecordingEquipment = *in.HasRecordingEquipment
	}
	if in.IsActive != nil {
		room.IsActive = *in.IsActive
	}

	if err := s.studioRepo.UpdateRoom(ctx, room); err != nil {
		return nil, err
	}

	s.logger.Info("Room updated", zap.Int64("room_id", roomID))

	return room, nil
}

func validRoomType(t model.RoomType) bool {
	switch t {
	case model.RoomTypeVocal, model.RoomTypeInstrument, model.RoomTypeEnsemble, model.RoomTypeRecording:
		return true
	}
	return false
}
