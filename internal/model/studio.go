package model

import "time"

// Studio — студия с рабочими часами, по которым строится сетка слотов
type Studio struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"name"`
	WorkingHoursStart   string    `json:"working_hours_start"` // "09:00"
	WorkingHoursEnd     string    `json:"working_hours_end"`   // "21:00"
	SlotDurationMinutes int       `json:"slot_duration_minutes"`
	IsActive            bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type RoomType string

const (
	RoomTypeVocal      RoomType = "vocal"
	RoomTypeInstrument RoomType = "instrument"
	RoomTypeEnsemble   RoomType = "ensemble"
	RoomTypeRecording  RoomType = "recording"
)

// Room — кабинет студии с оборудованием
type Room struct {
	ID                    int64     `json:"id"`
	StudioID              int64     `json:"studio_id"`
	Name                  string    `json:"name"`
	RoomType              RoomType  `json:"room_type"`
	Capacity              int       `json:"capacity"`
	HasPiano              bool      `json:"has_piano"`
	HasMicrophone         bool      `json:"has_microphone"`
	HasMirror             bool      `json:"has_mirror"`
	HasSoundSystem        bool      `json:"has_sound_system"`
	HasRecordingEquipment bool      `json:"has_recording_equipment"`
	IsActive              bool      `json:"is_active"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}
