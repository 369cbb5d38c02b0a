package model

type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Actor — уже аутентифицированный пользователь из claims токена.
// Сервис доверяет этим данным и сам учётные записи не хранит.
type Actor struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	StudioID *int64 `json:"studio_id"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) IsTeacher() bool {
	return a.Role == RoleTeacher
}

func (a Actor) IsStudent() bool {
	return a.Role == RoleStudent
}
