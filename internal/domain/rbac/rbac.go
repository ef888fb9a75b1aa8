// Пакет rbac — определение роли доступа к Admin Module по группам IdP.
// Доступ к модулю двухуровневый: admin (полный доступ, включая канвас команд)
// и readonly (просмотр списков и дашбордов). Авторитетные проверки — только
// на сервере; клиент получает роль лишь как подсказку для отрисовки.
package rbac

// Роли доступа к Admin Module в порядке возрастания привилегий.
const (
	RoleReadonly = "readonly"
	RoleAdmin    = "admin"
)

// roleWeight — вес роли для сравнения.
// Чем выше вес, тем больше привилегий.
var roleWeight = map[string]int{
	RoleReadonly: 1,
	RoleAdmin:    2,
}

// IsValidRole проверяет, является ли строка допустимой ролью доступа.
func IsValidRole(role string) bool {
	_, ok := roleWeight[role]
	return ok
}

// maxRole возвращает роль с максимальными привилегиями из двух.
func maxRole(a, b string) string {
	if roleWeight[a] >= roleWeight[b] {
		return a
	}
	return b
}

// HighestRole возвращает максимальную роль из набора.
// Если набор пуст — возвращает пустую строку.
func HighestRole(roles []string) string {
	if len(roles) == 0 {
		return ""
	}
	highest := roles[0]
	for _, r := range roles[1:] {
		highest = maxRole(highest, r)
	}
	return highest
}

// MapGroupsToRole определяет роль доступа на основе групп пользователя в IdP.
// Проверяет принадлежность к adminGroups и readonlyGroups и возвращает
// максимальную роль из всех совпадений. Ни одного совпадения — пустая строка,
// доступ к модулю запрещён.
func MapGroupsToRole(groups []string, adminGroups, readonlyGroups []string) string {
	adminSet := toSet(adminGroups)
	readonlySet := toSet(readonlyGroups)

	var roles []string
	for _, g := range groups {
		if adminSet[g] {
			roles = append(roles, RoleAdmin)
		}
		if readonlySet[g] {
			roles = append(roles, RoleReadonly)
		}
	}

	return HighestRole(roles)
}

// toSet конвертирует срез строк в map для быстрого поиска.
func toSet(items []string) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, item := range items {
		s[item] = true
	}
	return s
}
