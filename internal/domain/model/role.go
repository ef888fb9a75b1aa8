package model

// Role — роль пользователя платформы.
// Хранится в таблице user_roles, одна роль на пользователя.
type Role string

// Роли в порядке убывания привилегий.
const (
	RoleAdmin           Role = "admin"
	RoleSuperModerator  Role = "super_moderator"
	RoleSeniorModerator Role = "senior_moderator"
	RoleModerator       Role = "moderator"
	RoleUser            Role = "user"
)

// ParseRole преобразует строку из БД в Role.
// Нераспознанное значение возвращает ok=false — такие строки
// отбрасываются при гидрации, а не приводят к ошибке.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleSuperModerator, RoleSeniorModerator, RoleModerator, RoleUser:
		return Role(s), true
	default:
		return "", false
	}
}

// IsCanvasRole сообщает, допускается ли роль на канвас команды.
// Канвас работает только с тремя модераторскими ролями.
func (r Role) IsCanvasRole() bool {
	return r == RoleSuperModerator || r == RoleSeniorModerator || r == RoleModerator
}

// IsCourseRole сообщает, допустима ли роль в course_assignments.
func (r Role) IsCourseRole() bool {
	return r == RoleSeniorModerator || r == RoleModerator
}
