package model

import "time"

type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusReserved  SlotStatus = "reserved"  // временная бронь преподавателя
	SlotStatusBooked    SlotStatus = "booked"    // к слоту привязан урок
	SlotStatusBlocked   SlotStatus = "blocked"   // закрыт администратором
	SlotStatusCompleted SlotStatus = "completed"
)

// ReleaseNotice — минимальный срок до начала, за который преподаватель может
// снять свою бронь со слота.
const ReleaseNotice = 2 * time.Hour

// TimeSlot — атомарный бронируемый интервал в конкретном кабинете
type TimeSlot struct {
	ID                  int64      `json:"id"`
	StudioID            int64      `json:"studio_id"`
	RoomID              int64      `json:"room_id"`
	SlotDate            time.Time  `json:"slot_date"`
	StartsAt            time.Time  `json:"starts_at"`
	EndsAt              time.Time  `json:"ends_at"`
	DurationMinutes     int        `json:"duration_minutes"`
	Status              SlotStatus `json:"status"`
	ReservedByTeacherID *int64     `json:"reserved_by_teacher_id"` // снимок на момент брони
	ReservedByName      *string    `json:"reserved_by_name"`
	ReservedByEmail     *string    `json:"reserved_by_email"`
	AdminNotes          *string    `json:"admin_notes"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// IsPast сообщает, начался ли слот
func (s *TimeSlot) IsPast(now time.Time) bool {
	return now.After(s.StartsAt)
}

// ReservedBy проверяет, что слот забронирован именно этим преподавателем
func (s *TimeSlot) ReservedBy(teacherID int64) bool {
	return s.ReservedByTeacherID != nil && *s.ReservedByTeacherID == teacherID
}

// CanBeReleased — бронь можно снять не позднее чем за ReleaseNotice до начала
func (s *TimeSlot) CanBeReleased(now time.Time) bool {
	return s.Status == SlotStatusReserved && now.Add(ReleaseNotice).Before(s.StartsAt)
}

// Overlaps — предикат пересечения интервалов: границы встык пересечением не считаются
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
