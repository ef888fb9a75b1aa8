// validate.go — вычисление canSave по текущей модели канваса.
package canvas

import "strings"

// CanSave сообщает, допустимо ли сохранение текущего состава.
// Проверяются структурные инварианты 1–5: непустое имя, выбранная карьера,
// хотя бы один супермодератор, хотя бы один старший модератор на курс и
// ровно один default manager на курс. Дедупликация и соответствие ролей
// слотам обеспечиваются конструктивно операциями модели.
func (m *Model) CanSave() bool {
	if strings.TrimSpace(m.Name) == "" {
		return false
	}
	if m.Career == nil {
		return false
	}
	if len(m.SuperModerators) == 0 {
		return false
	}
	for _, n := range m.Courses {
		if len(n.SeniorModerators) == 0 {
			return false
		}
		defaults := 0
		for _, s := range n.SeniorModerators {
			if s.IsDefaultManager {
				defaults++
			}
		}
		if defaults != 1 {
			return false
		}
	}
	return true
}
