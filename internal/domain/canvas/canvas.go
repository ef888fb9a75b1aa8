// Пакет canvas — модель канваса состава команды (Team Ownership Canvas).
// Чистые преобразования данных в памяти, без I/O: агрегат команды-в-редактировании,
// инварианты, baseline и diff для сохранения. Вся мутация идёт из слоя
// контроллера (HTTP-интенты), канвас в рамках одной сессии однопоточен.
package canvas

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arturkryukov/skillhub/admin-module/internal/domain/model"
)

// Ошибки модели канваса.
var (
	// ErrLastSuperModerator — попытка убрать последнего супермодератора команды.
	ErrLastSuperModerator = errors.New("нельзя убрать последнего супермодератора команды")
	// ErrLastSeniorModerator — попытка убрать последнего старшего модератора курса.
	ErrLastSeniorModerator = errors.New("нельзя убрать последнего старшего модератора курса")
	// ErrRoleMismatch — роль пользователя не соответствует слоту.
	ErrRoleMismatch = errors.New("роль пользователя не соответствует слоту")
	// ErrNoCareer — операция требует выбранной карьеры.
	ErrNoCareer = errors.New("карьера не выбрана")
	// ErrCourseNotFound — курс отсутствует на канвасе.
	ErrCourseNotFound = errors.New("курс не найден на канвасе")
	// ErrCourseNotInCareer — курс не привязан к выбранной карьере.
	ErrCourseNotInCareer = errors.New("курс не входит в выбранную карьеру")
	// ErrAssignmentNotFound — назначение отсутствует на канвасе.
	ErrAssignmentNotFound = errors.New("назначение не найдено")
)

// PlaceholderName — имя-заглушка нового канваса.
// Заменяется на "<карьера> Team" при первом выборе карьеры.
const PlaceholderName = "New Team"

// Mode — режим входа в канвас.
type Mode string

const (
	// ModeCreate — создание новой команды с пустого канваса.
	ModeCreate Mode = "create"
	// ModeEdit — редактирование существующей команды (с baseline).
	ModeEdit Mode = "edit"
)

// SuperModSlot — супермодератор на канвасе.
// Оборачивает CareerAssignment признаком IsNew: несохранённые назначения
// получают UUID заранее и вставляются с ним при коммите.
type SuperModSlot struct {
	model.CareerAssignment
	// Profile — профиль пользователя для отображения
	Profile model.UserProfile
	// IsNew — назначение ещё не сохранено в БД
	IsNew bool
}

// CourseSlot — старший модератор или модератор курса на канвасе.
type CourseSlot struct {
	model.CourseAssignment
	// Profile — профиль пользователя для отображения
	Profile model.UserProfile
	// IsNew — назначение ещё не сохранено в БД
	IsNew bool
}

// CourseNode — курс на канвасе с его слотами модераторов.
type CourseNode struct {
	// Course — данные курса (только чтение)
	Course model.Course
	// SeniorModerators — старшие модераторы; ровно один с IsDefaultManager
	SeniorModerators []CourseSlot
	// Moderators — обычные модераторы
	Moderators []CourseSlot
	// IsNew — курс добавлен на канвас в этой сессии
	IsNew bool
}

// Model — агрегат канваса: команда-в-редактировании.
type Model struct {
	// Mode — режим канваса (create или edit)
	Mode Mode
	// TeamID — UUID команды (только в режиме edit)
	TeamID string
	// Name — название команды
	Name string
	// Career — выбранная карьера (nil — канвас пуст)
	Career *model.Career
	// SuperModerators — супермодераторы команды
	SuperModerators []SuperModSlot
	// Courses — курсы команды со слотами модераторов
	Courses []*CourseNode

	// baseline — снимок сохранённого состояния на момент загрузки (только edit)
	baseline *Baseline
}

// New создаёт пустой канвас для режима create.
func New() *Model {
	return &Model{
		Mode: ModeCreate,
		Name: PlaceholderName,
	}
}

// SelectCareer выбирает карьеру канваса.
// Смена уже выбранной карьеры трактуется как полный сброс состава:
// супермодераторы и курсы очищаются (в режиме edit — при смене на другую
// карьеру, в режиме create — всегда). Имя-заглушка заменяется на
// "<карьера> Team".
func (m *Model) SelectCareer(c model.Career) {
	changed := m.Career != nil && m.Career.ID != c.ID
	if m.Mode == ModeCreate || changed {
		m.SuperModerators = nil
		m.Courses = nil
	}
	career := c
	m.Career = &career

	if strings.TrimSpace(m.Name) == "" || m.Name == PlaceholderName {
		m.Name = c.Name + " Team"
	}
}

// Rename обновляет название команды. Прочее состояние не трогает.
func (m *Model) Rename(name string) {
	m.Name = name
}

// HasSuperModerator сообщает, присутствует ли пользователь среди супермодераторов.
func (m *Model) HasSuperModerator(userID string) bool {
	for _, s := range m.SuperModerators {
		if s.UserID == userID {
			return true
		}
	}
	return false
}

// AddSuperModerator добавляет супермодератора команды.
// Требует выбранной карьеры и роли super_moderator; дубликат — no-op.
func (m *Model) AddSuperModerator(u model.UserWithRole, assignedBy string) error {
	if m.Career == nil {
		return ErrNoCareer
	}
	if u.Role != model.RoleSuperModerator {
		return ErrRoleMismatch
	}
	if m.HasSuperModerator(u.ID) {
		return nil
	}

	m.SuperModerators = append(m.SuperModerators, SuperModSlot{
		CareerAssignment: model.CareerAssignment{
			ID:         uuid.New().String(),
			UserID:     u.ID,
			CareerID:   m.Career.ID,
			TeamID:     m.TeamID,
			AssignedBy: assignedBy,
			AssignedAt: time.Now().UTC(),
		},
		Profile: u.UserProfile,
		IsNew:   true,
	})
	return nil
}

// RemoveSuperModerator убирает супермодератора по id назначения.
// Последнего супермодератора убрать нельзя (инвариант команды).
func (m *Model) RemoveSuperModerator(assignmentID string) error {
	idx := -1
	for i, s := range m.SuperModerators {
		if s.CareerAssignment.ID == assignmentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrAssignmentNotFound
	}
	if len(m.SuperModerators) == 1 {
		return ErrLastSuperModerator
	}
	m.SuperModerators = append(m.SuperModerators[:idx], m.SuperModerators[idx+1:]...)
	return nil
}

// CourseNode возвращает узел курса по id курса или nil.
func (m *Model) CourseNode(courseID string) *CourseNode {
	for _, n := range m.Courses {
		if n.Course.ID == courseID {
			return n
		}
	}
	return nil
}

// AddCourse добавляет курс на канвас с пустыми слотами модераторов.
// Принадлежность курса выбранной карьере проверяет вызывающий по
// career_courses до вызова: модель линк-таблицу не видит. Дубликат — no-op.
func (m *Model) AddCourse(c model.Course) error {
	if m.Career == nil {
		return ErrNoCareer
	}
	if m.CourseNode(c.ID) != nil {
		return nil
	}
	m.Courses = append(m.Courses, &CourseNode{Course: c, IsNew: true})
	return nil
}

// RemoveCourse убирает курс с канваса вместе со всеми его слотами.
func (m *Model) RemoveCourse(courseID string) error {
	for i, n := range m.Courses {
		if n.Course.ID == courseID {
			m.Courses = append(m.Courses[:i], m.Courses[i+1:]...)
			return nil
		}
	}
	return ErrCourseNotFound
}

// AddSeniorModerator добавляет старшего модератора курса.
// Первый старший модератор автоматически становится default manager'ом —
// инвариант «ровно один default manager на курс» поддерживается конструктивно.
func (m *Model) AddSeniorModerator(courseID string, u model.UserWithRole, assignedBy string) error {
	node := m.CourseNode(courseID)
	if node == nil {
		return ErrCourseNotFound
	}
	if u.Role != model.RoleSeniorModerator {
		return ErrRoleMismatch
	}
	if node.hasUser(node.SeniorModerators, u.ID) {
		return nil
	}

	node.SeniorModerators = append(node.SeniorModerators, CourseSlot{
		CourseAssignment: model.CourseAssignment{
			ID:               uuid.New().String(),
			UserID:           u.ID,
			CourseID:         courseID,
			TeamID:           m.TeamID,
			Role:             model.RoleSeniorModerator,
			IsDefaultManager: len(node.SeniorModerators) == 0,
			AssignedBy:       assignedBy,
			AssignedAt:       time.Now().UTC(),
		},
		Profile: u.UserProfile,
		IsNew:   true,
	})
	return nil
}

// RemoveSeniorModerator убирает старшего модератора курса.
// Последнего убрать нельзя; если убран default manager — флаг переходит
// первому оставшемуся.
func (m *Model) RemoveSeniorModerator(courseID, assignmentID string) error {
	node := m.CourseNode(courseID)
	if node == nil {
		return ErrCourseNotFound
	}

	idx := -1
	for i, s := range node.SeniorModerators {
		if s.CourseAssignment.ID == assignmentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrAssignmentNotFound
	}
	if len(node.SeniorModerators) == 1 {
		return ErrLastSeniorModerator
	}

	wasDefault := node.SeniorModerators[idx].IsDefaultManager
	node.SeniorModerators = append(node.SeniorModerators[:idx], node.SeniorModerators[idx+1:]...)
	if wasDefault {
		node.SeniorModerators[0].IsDefaultManager = true
	}
	return nil
}

// SetDefaultManager назначает default manager'а курса.
// Ровно один старший модератор курса получает флаг, остальные — теряют.
// Повторный вызов с тем же id — идемпотентен.
func (m *Model) SetDefaultManager(courseID, assignmentID string) error {
	node := m.CourseNode(courseID)
	if node == nil {
		return ErrCourseNotFound
	}

	found := false
	for i := range node.SeniorModerators {
		isTarget := node.SeniorModerators[i].CourseAssignment.ID == assignmentID
		node.SeniorModerators[i].IsDefaultManager = isTarget
		if isTarget {
			found = true
		}
	}
	if !found {
		return ErrAssignmentNotFound
	}
	return nil
}

// AddModerator добавляет модератора курса. Дубликат — no-op.
func (m *Model) AddModerator(courseID string, u model.UserWithRole, assignedBy string) error {
	node := m.CourseNode(courseID)
	if node == nil {
		return ErrCourseNotFound
	}
	if u.Role != model.RoleModerator {
		return ErrRoleMismatch
	}
	if node.hasUser(node.Moderators, u.ID) {
		return nil
	}

	node.Moderators = append(node.Moderators, CourseSlot{
		CourseAssignment: model.CourseAssignment{
			ID:         uuid.New().String(),
			UserID:     u.ID,
			CourseID:   courseID,
			TeamID:     m.TeamID,
			Role:       model.RoleModerator,
			AssignedBy: assignedBy,
			AssignedAt: time.Now().UTC(),
		},
		Profile: u.UserProfile,
		IsNew:   true,
	})
	return nil
}

// RemoveModerator убирает модератора курса по id назначения.
func (m *Model) RemoveModerator(courseID, assignmentID string) error {
	node := m.CourseNode(courseID)
	if node == nil {
		return ErrCourseNotFound
	}
	for i, s := range node.Moderators {
		if s.CourseAssignment.ID == assignmentID {
			node.Moderators = append(node.Moderators[:i], node.Moderators[i+1:]...)
			return nil
		}
	}
	return ErrAssignmentNotFound
}

// hasUser проверяет, содержит ли срез слотов пользователя.
func (n *CourseNode) hasUser(slots []CourseSlot, userID string) bool {
	for _, s := range slots {
		if s.UserID == userID {
			return true
		}
	}
	return false
}

// DefaultManager возвращает слот default manager'а курса или nil.
func (n *CourseNode) DefaultManager() *CourseSlot {
	for i := range n.SeniorModerators {
		if n.SeniorModerators[i].IsDefaultManager {
			return &n.SeniorModerators[i]
		}
	}
	return nil
}

// CourseIDs возвращает id всех курсов на канвасе.
func (m *Model) CourseIDs() []string {
	ids := make([]string, 0, len(m.Courses))
	for _, n := range m.Courses {
		ids = append(ids, n.Course.ID)
	}
	return ids
}

// MarkSaved фиксирует успешный коммит: модель переводится в режим edit,
// слотам проставляется team_id, флаги IsNew снимаются и baseline
// перехватывается заново. name — имя, под которым команда реально
// сохранена (путь создания мог подобрать суффикс).
func (m *Model) MarkSaved(teamID, name string) {
	m.Mode = ModeEdit
	m.TeamID = teamID
	m.Name = name
	for i := range m.SuperModerators {
		m.SuperModerators[i].CareerAssignment.TeamID = teamID
		m.SuperModerators[i].IsNew = false
	}
	for _, n := range m.Courses {
		n.IsNew = false
		for i := range n.SeniorModerators {
			n.SeniorModerators[i].CourseAssignment.TeamID = teamID
			n.SeniorModerators[i].IsNew = false
		}
		for i := range n.Moderators {
			n.Moderators[i].CourseAssignment.TeamID = teamID
			n.Moderators[i].IsNew = false
		}
	}
	m.CaptureBaseline()
}
