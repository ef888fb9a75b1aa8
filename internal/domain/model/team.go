package model

import "time"

// Team — команда модераторов, привязанная ровно к одной карьере.
// Таблица teams, уникальность (name, career_id) среди неархивированных строк.
type Team struct {
	// ID — UUID команды
	ID string
	// Name — название команды
	Name string
	// CareerID — UUID карьеры, которой владеет команда
	CareerID string
	// CreatedBy — UUID администратора, создавшего команду
	CreatedBy string
	// CreatedAt — время создания
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
	// ArchivedAt — время архивации (nil — команда активна)
	ArchivedAt *time.Time
}

// IsArchived сообщает, архивирована ли команда.
func (t *Team) IsArchived() bool {
	return t.ArchivedAt != nil
}

// CareerAssignment — привязка супермодератора к карьере команды.
// Таблица career_assignments.
type CareerAssignment struct {
	// ID — UUID назначения
	ID string
	// UserID — UUID пользователя
	UserID string
	// CareerID — UUID карьеры
	CareerID string
	// TeamID — UUID команды
	TeamID string
	// AssignedBy — UUID администратора, выполнившего назначение
	AssignedBy string
	// AssignedAt — время назначения
	AssignedAt time.Time
}

// CourseAssignment — назначение модератора на курс команды.
// Таблица course_assignments, уникальность (team_id, course_id, user_id, role).
type CourseAssignment struct {
	// ID — UUID назначения
	ID string
	// UserID — UUID пользователя
	UserID string
	// CourseID — UUID курса
	CourseID string
	// TeamID — UUID команды
	TeamID string
	// Role — роль назначения (senior_moderator или moderator)
	Role Role
	// IsDefaultManager — флаг default manager'а курса.
	// Не более одной строки с true на (team_id, course_id), только для senior_moderator.
	IsDefaultManager bool
	// AssignedBy — UUID администратора, выполнившего назначение
	AssignedBy string
	// AssignedAt — время назначения
	AssignedAt time.Time
}
