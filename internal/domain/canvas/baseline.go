// baseline.go — снимок сохранённого состояния команды и diff против него.
// Baseline захватывается загрузчиком один раз после гидрации (режим edit)
// и служит точкой отсчёта для диффа при сохранении.
package canvas

import "github.com/arturkryukov/skillhub/admin-module/internal/domain/model"

// Baseline — снимок состояния команды в БД на момент загрузки канваса.
type Baseline struct {
	// TeamID — UUID команды
	TeamID string
	// Name — сохранённое название команды
	Name string
	// CareerID — сохранённая карьера команды
	CareerID string
	// SuperModIDs — id сохранённых строк career_assignments
	SuperModIDs map[string]struct{}
	// CourseAssignmentIDs — id сохранённых строк course_assignments
	CourseAssignmentIDs map[string]struct{}
	// DefaultManagerByCourse — id назначения default manager'а по курсу
	DefaultManagerByCourse map[string]string
}

// CaptureBaseline фиксирует текущее состояние модели как baseline.
// Вызывается загрузчиком сразу после гидрации; все слоты модели в этот
// момент — сохранённые строки (IsNew=false).
func (m *Model) CaptureBaseline() {
	b := &Baseline{
		TeamID:                 m.TeamID,
		Name:                   m.Name,
		SuperModIDs:            make(map[string]struct{}, len(m.SuperModerators)),
		CourseAssignmentIDs:    make(map[string]struct{}),
		DefaultManagerByCourse: make(map[string]string),
	}
	if m.Career != nil {
		b.CareerID = m.Career.ID
	}
	for _, s := range m.SuperModerators {
		b.SuperModIDs[s.CareerAssignment.ID] = struct{}{}
	}
	for _, n := range m.Courses {
		for _, s := range n.SeniorModerators {
			b.CourseAssignmentIDs[s.CourseAssignment.ID] = struct{}{}
			if s.IsDefaultManager {
				b.DefaultManagerByCourse[n.Course.ID] = s.CourseAssignment.ID
			}
		}
		for _, s := range n.Moderators {
			b.CourseAssignmentIDs[s.CourseAssignment.ID] = struct{}{}
		}
	}
	m.baseline = b
}

// Baseline возвращает захваченный baseline (nil в режиме create).
func (m *Model) Baseline() *Baseline {
	return m.baseline
}

// Diff — результат сравнения модели с baseline для диффового сохранения.
// Удаления выражены через «оставшиеся» id: движок сохранения удаляет
// всё, что не вошло в Kept-наборы, строго до вставок (коллизии уникальности).
type Diff struct {
	// NameChanged — название команды изменилось
	NameChanged bool
	// CareerChanged — команда переназначена на другую карьеру (полный сброс)
	CareerChanged bool
	// KeptCareerAssignmentIDs — сохранённые назначения супермодераторов, оставшиеся на канвасе
	KeptCareerAssignmentIDs []string
	// NewSuperModerators — назначения супермодераторов, добавленные в этой сессии
	NewSuperModerators []model.CareerAssignment
	// KeptCourseIDs — курсы, оставшиеся на канвасе
	KeptCourseIDs []string
	// KeptCourseAssignmentIDs — сохранённые назначения курсов, оставшиеся на канвасе
	KeptCourseAssignmentIDs []string
	// NewCourseAssignments — назначения курсов, добавленные в этой сессии
	NewCourseAssignments []model.CourseAssignment
	// DefaultManagerChanges — изменения флага is_default_manager
	// для сохранённых назначений старших модераторов (id → новое значение)
	DefaultManagerChanges map[string]bool
}

// ComputeDiff сравнивает текущую модель с baseline.
// Возвращает nil, если baseline не захвачен (режим create).
func (m *Model) ComputeDiff() *Diff {
	b := m.baseline
	if b == nil {
		return nil
	}

	d := &Diff{
		NameChanged:           m.Name != b.Name,
		KeptCourseIDs:         m.CourseIDs(),
		DefaultManagerChanges: make(map[string]bool),
	}
	if m.Career != nil && m.Career.ID != b.CareerID {
		d.CareerChanged = true
	}

	for _, s := range m.SuperModerators {
		if s.IsNew {
			d.NewSuperModerators = append(d.NewSuperModerators, s.CareerAssignment)
		} else {
			d.KeptCareerAssignmentIDs = append(d.KeptCareerAssignmentIDs, s.CareerAssignment.ID)
		}
	}

	for _, n := range m.Courses {
		baselineDefault := b.DefaultManagerByCourse[n.Course.ID]
		for _, s := range n.SeniorModerators {
			if s.IsNew {
				d.NewCourseAssignments = append(d.NewCourseAssignments, s.CourseAssignment)
				continue
			}
			d.KeptCourseAssignmentIDs = append(d.KeptCourseAssignmentIDs, s.CourseAssignment.ID)
			// Флаг default manager'а мог смениться без добавлений/удалений
			wasDefault := s.CourseAssignment.ID == baselineDefault
			if s.IsDefaultManager != wasDefault {
				d.DefaultManagerChanges[s.CourseAssignment.ID] = s.IsDefaultManager
			}
		}
		for _, s := range n.Moderators {
			if s.IsNew {
				d.NewCourseAssignments = append(d.NewCourseAssignments, s.CourseAssignment)
			} else {
				d.KeptCourseAssignmentIDs = append(d.KeptCourseAssignmentIDs, s.CourseAssignment.ID)
			}
		}
	}

	return d
}
