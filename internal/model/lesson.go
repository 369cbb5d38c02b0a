package model

import "time"

type LessonStatus string

const (
	LessonStatusScheduled  LessonStatus = "scheduled"
	LessonStatusConfirmed  LessonStatus = "confirmed"
	LessonStatusInProgress LessonStatus = "in_progress"
	LessonStatusCompleted  LessonStatus = "completed"
	LessonStatusCancelled  LessonStatus = "cancelled"
	LessonStatusNoShow     LessonStatus = "no_show"
)

type LessonType string

const (
	LessonTypeIndividual LessonType = "individual"
	LessonTypeGroup      LessonType = "group"
	LessonTypeTrial      LessonType = "trial"
	LessonTypeMakeup     LessonType = "makeup"
)

type AttendanceStatus string

const (
	AttendanceScheduled AttendanceStatus = "scheduled"
	AttendanceAttended  AttendanceStatus = "attended"
	AttendanceMissed    AttendanceStatus = "missed"
	AttendanceCancelled AttendanceStatus = "cancelled"
)

// Сроки, после которых отмена урока запрещена
const (
	TeacherCancelNotice = 4 * time.Hour
	StudentCancelNotice = 1 * time.Hour
)

// lessonTransitions — допустимые переходы статуса урока.
// cancelled -> scheduled доступен только администратору через restore.
var lessonTransitions = map[LessonStatus][]LessonStatus{
	LessonStatusScheduled:  {LessonStatusConfirmed, LessonStatusCancelled},
	LessonStatusConfirmed:  {LessonStatusInProgress, LessonStatusCompleted, LessonStatusCancelled, LessonStatusNoShow},
	LessonStatusInProgress: {LessonStatusCompleted, LessonStatusNoShow},
	LessonStatusCancelled:  {LessonStatusScheduled},
}

// CanTransitionTo проверяет переход по таблице статусов
func (s LessonStatus) CanTransitionTo(next LessonStatus) bool {
	for _, allowed := range lessonTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// LessonStudent — запись ученика на урок со снимком его данных
type LessonStudent struct {
	ID               int64            `json:"id"`
	LessonID         int64            `json:"lesson_id"`
	StudentID        int64            `json:"student_id"`
	Name             string           `json:"name"`
	Email            string           `json:"email"`
	Phone            string           `json:"phone"`
	Level            string           `json:"level"`
	AttendanceStatus AttendanceStatus `json:"attendance_status"`
	EnrolledAt       time.Time        `json:"enrolled_at"`
}

// Lesson — урок, привязанный 1:1 к слоту
type Lesson struct {
	ID                 int64        `json:"id"`
	TimeSlotID         int64        `json:"time_slot_id"`
	StudioID           int64        `json:"studio_id"`
	RoomID             int64        `json:"room_id"`
	TeacherID          int64        `json:"teacher_id"`
	TeacherName        string       `json:"teacher_name"`
	TeacherEmail       string       `json:"teacher_email"`
	RecurringPatternID *int64       `json:"recurring_pattern_id"` // nil = разовый урок
	LessonDate         time.Time    `json:"lesson_date"`
	StartsAt           time.Time    `json:"starts_at"`
	EndsAt             time.Time    `json:"ends_at"`
	Title              string       `json:"title"`
	LessonType         LessonType   `json:"lesson_type"`
	Status             LessonStatus `json:"status"`
	MaxStudents        int          `json:"max_students"`
	Notes              *string      `json:"notes"`
	Homework           *string      `json:"homework"`
	CancellationReason *string      `json:"cancellation_reason"`
	CancelledBy        *string      `json:"cancelled_by"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`

	// Заполняется репозиторием, не колонка
	Students []*LessonStudent `json:"students"`
}

func (l *Lesson) StudentCount() int {
	return len(l.Students)
}

func (l *Lesson) IsFull() bool {
	return len(l.Students) >= l.MaxStudents
}

func (l *Lesson) HasStudent(studentID int64) bool {
	for _, s := range l.Students {
		if s.StudentID == studentID {
			return true
		}
	}
	return false
}

// IsPast сообщает, начался ли урок
func (l *Lesson) IsPast(now time.Time) bool {
	return now.After(l.StartsAt)
}

// CanBeCancelledByTeacher — преподаватель отменяет не позднее чем за 4 часа
func (l *Lesson) CanBeCancelledByTeacher(now time.Time) bool {
	return now.Add(TeacherCancelNotice).Before(l.StartsAt)
}

// CanBeCancelledByStudent — ученик отменяет своё участие не позднее чем за час
func (l *Lesson) CanBeCancelledByStudent(now time.Time) bool {
	return now.Add(StudentCancelNotice).Before(l.StartsAt)
}
