package model

import (
	"fmt"
	"time"
)

// RecurringPattern — еженедельный шаблон, из которого генерируются уроки.
// День недели по ISO: 1 = понедельник ... 7 = воскресенье.
type RecurringPattern struct {
	ID              int64      `json:"id"`
	StudioID        int64      `json:"studio_id"`
	TeacherID       int64      `json:"teacher_id"`
	TeacherName     string     `json:"teacher_name"`
	TeacherEmail    string     `json:"teacher_email"`
	RoomID          int64      `json:"room_id"`
	DayOfWeek       int        `json:"day_of_week"`
	StartTime       string     `json:"start_time"` // "10:00"
	DurationMinutes int        `json:"duration_minutes"`
	ValidFrom       time.Time  `json:"valid_from"`
	ValidUntil      *time.Time `json:"valid_until"` // nil = бессрочно
	IsActive        bool       `json:"is_active"`
	Notes           *string    `json:"notes"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Заполняется репозиторием, не колонка
	Students []*PatternStudent `json:"students"`
}

// PatternStudent — ученик в ростере шаблона, копируется в генерируемые уроки
type PatternStudent struct {
	ID                 int64     `json:"id"`
	RecurringPatternID int64     `json:"recurring_pattern_id"`
	StudentID          int64     `json:"student_id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	Level              string    `json:"level"`
	CreatedAt          time.Time `json:"created_at"`
}

// GenerationReport — итог генерации по шаблону: частичный успех, а не всё-или-ничего
type GenerationReport struct {
	PatternID int64    `json:"pattern_id"`
	Generated int      `json:"generated"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors"`
}

// Weekday переводит ISO-день шаблона в time.Weekday
func (p *RecurringPattern) Weekday() time.Weekday {
	return time.Weekday(p.DayOfWeek % 7)
}

// FirstOccurrence — первая дата нужного дня недели начиная с valid_from
func (p *RecurringPattern) FirstOccurrence() time.Time {
	d := p.ValidFrom
	for d.Weekday() != p.Weekday() {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// EffectiveOn сообщает, действует ли шаблон на указанную дату
func (p *RecurringPattern) EffectiveOn(d time.Time) bool {
	if !p.IsActive || d.Before(p.ValidFrom) {
		return false
	}
	return p.ValidUntil == nil || !d.After(*p.ValidUntil)
}

// HasStudent проверяет наличие ученика в ростере шаблона
func (p *RecurringPattern) HasStudent(studentID int64) bool {
	for _, s := range p.Students {
		if s.StudentID == studentID {
			return true
		}
	}
	return false
}

// ParseClock разбирает время вида "10:00" или "10:00:00"
func ParseClock(s string) (hour, minute int, err error) {
	t, parseErr := time.Parse("15:04:05", s)
	if parseErr != nil {
		t, parseErr = time.Parse("15:04", s)
	}
	if parseErr != nil {
		return 0, 0, fmt.Errorf("parse clock %q: %w", s, parseErr)
	}
	return t.Hour(), t.Minute(), nil
}

// CombineDateClock собирает момент времени из даты и часов-минут (UTC)
func CombineDateClock(date time.Time, hour, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, time.UTC)
}
