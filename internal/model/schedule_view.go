package model

// DaySchedule — слоты и уроки одного дня для выдачи расписания.
// Пустые дни диапазона тоже выдаются, с пустыми списками.
type DaySchedule struct {
	Date    string      `json:"date"` // "2006-01-02"
	Slots   []*TimeSlot `json:"slots"`
	Lessons []*Lesson   `json:"lessons"`
}

// RoomUtilization — занятость кабинета за период
type RoomUtilization struct {
	RoomID        int64   `json:"room_id"`
	RoomName      string  `json:"room_name"`
	TotalSlots    int     `json:"total_slots"`
	OccupiedSlots int     `json:"occupied_slots"`
	Utilization   float64 `json:"utilization_pct"`
}

// ScheduleStatistics — простые счётчики по студии за период
type ScheduleStatistics struct {
	StudioID        int64             `json:"studio_id"`
	DateFrom        string            `json:"date_from"`
	DateTo          string            `json:"date_to"`
	LessonsByStatus map[string]int    `json:"lessons_by_status"`
	LessonsByType   map[string]int    `json:"lessons_by_type"`
	SlotsByStatus   map[string]int    `json:"slots_by_status"`
	Rooms           []RoomUtilization `json:"rooms"`
}
