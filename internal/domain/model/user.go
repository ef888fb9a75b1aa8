// Пакет model — доменные модели Admin Module учебной платформы.
package model

// UserProfile — профиль пользователя платформы.
// Хранится в таблице profiles.
type UserProfile struct {
	// ID — UUID пользователя
	ID string
	// Email — адрес электронной почты
	Email string
	// FullName — полное имя (может быть nil)
	FullName *string
	// AvatarURL — ссылка на аватар (может быть nil)
	AvatarURL *string
}

// DisplayName возвращает имя для отображения: full_name, если задано, иначе email.
func (p *UserProfile) DisplayName() string {
	if p.FullName != nil && *p.FullName != "" {
		return *p.FullName
	}
	return p.Email
}

// UserWithRole — профиль пользователя вместе с его единственной ролью.
// Формируется join'ом profiles и user_roles.
type UserWithRole struct {
	UserProfile
	// Role — роль пользователя из таблицы user_roles
	Role Role
}
