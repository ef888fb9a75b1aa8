package repository

import (
	"context"
	"fmt"

	"github.com/arturkryukov/skillhub/admin-module/internal/domain/model"
)

// ProfileRepository — чтение profiles и user_roles.
// Пул пользователей канваса строится join'ом этих двух таблиц.
type ProfileRepository interface {
	// ListWithRoles возвращает профили вместе с ролями (join user_roles).
	// Строки с нераспознанной ролью отбрасываются молча — данные ролей
	// принадлежат внешней системе и могут опережать этот модуль.
	ListWithRoles(ctx context.Context) ([]model.UserWithRole, error)
}

// profileRepo — реализация ProfileRepository.
type profileRepo struct {
	db DBTX
}

// NewProfileRepository создаёт репозиторий профилей.
func NewProfileRepository(db DBTX) ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) ListWithRoles(ctx context.Context) ([]model.UserWithRole, error) {
	query := `
		SELECT p.id, p.email, p.full_name, p.avatar_url, ur.role
		FROM profiles p
		JOIN user_roles ur ON ur.user_id = p.id
		ORDER BY p.full_name NULLS LAST, p.email`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения профилей с ролями: %w", err)
	}
	defer rows.Close()

	var result []model.UserWithRole
	for rows.Next() {
		var u model.UserWithRole
		var roleStr string
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.AvatarURL, &roleStr); err != nil {
			return nil, fmt.Errorf("ошибка сканирования профиля: %w", err)
		}
		role, ok := model.ParseRole(roleStr)
		if !ok {
			continue
		}
		u.Role = role
		result = append(result, u)
	}
	return result, rows.Err()
}
