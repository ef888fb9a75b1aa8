// pool.go — пул пользователей: источник перетаскиваемых карточек.
// В пул попадают только пользователи с канвасными ролями; поддерживаются
// регистронезависимый поиск по имени и email, фильтр по роли и группировка
// по ролям для отображения.
package canvas

import (
	"strings"

	"github.com/arturkryukov/skillhub/admin-module/internal/domain/model"
)

// PoolGroup — группа пула для отображения: роль и её пользователи.
type PoolGroup struct {
	// Role — роль группы
	Role model.Role
	// Users — пользователи группы
	Users []model.UserWithRole
}

// poolOrder — порядок групп в пуле: сверху вниз по убыванию привилегий.
var poolOrder = []model.Role{
	model.RoleSuperModerator,
	model.RoleSeniorModerator,
	model.RoleModerator,
}

// FilterPool отбирает пользователей пула.
// Пользователи без канвасной роли отбрасываются. search — регистронезависимая
// подстрока full_name или email; roleFilter — пустая роль означает «все».
func FilterPool(users []model.UserWithRole, search string, roleFilter model.Role) []model.UserWithRole {
	search = strings.ToLower(strings.TrimSpace(search))

	var result []model.UserWithRole
	for _, u := range users {
		if !u.Role.IsCanvasRole() {
			continue
		}
		if roleFilter != "" && u.Role != roleFilter {
			continue
		}
		if search != "" && !matchesSearch(u, search) {
			continue
		}
		result = append(result, u)
	}
	return result
}

// matchesSearch проверяет вхождение поискового запроса в имя или email.
func matchesSearch(u model.UserWithRole, search string) bool {
	if strings.Contains(strings.ToLower(u.Email), search) {
		return true
	}
	return u.FullName != nil && strings.Contains(strings.ToLower(*u.FullName), search)
}

// GroupByRole группирует пользователей пула по ролям в порядке отображения.
// Пустые группы опускаются.
func GroupByRole(users []model.UserWithRole) []PoolGroup {
	byRole := make(map[model.Role][]model.UserWithRole)
	for _, u := range users {
		byRole[u.Role] = append(byRole[u.Role], u)
	}

	var groups []PoolGroup
	for _, role := range poolOrder {
		if len(byRole[role]) > 0 {
			groups = append(groups, PoolGroup{Role: role, Users: byRole[role]})
		}
	}
	return groups
}
