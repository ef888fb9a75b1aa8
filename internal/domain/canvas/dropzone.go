// dropzone.go — контроллер drag-and-drop канваса.
// Зона идентифицируется строкой "role" или "role:courseID"; источник
// перетаскивания — явный транзитный регистр {userID, role}, выставляемый
// на drag-start и очищаемый на drop/cancel. Проверка роли выполняется и на
// hover (чистая подсказка), и повторно на drop — подсказка могла устареть.
package canvas

import (
	"errors"
	"strings"

	"github.com/arturkryukov/skillhub/admin-module/internal/domain/model"
)

// ErrBadZone — нераспознанный идентификатор зоны.
var ErrBadZone = errors.New("некорректный идентификатор drop-зоны")

// Zone — drop-зона канваса.
// Для super_moderator CourseID пуст; для ролей курсов — обязателен.
type Zone struct {
	// Role — роль, которую принимает зона
	Role model.Role
	// CourseID — курс зоны (пусто для командного уровня)
	CourseID string
}

// ParseZone разбирает идентификатор зоны вида "role" или "role:courseID".
func ParseZone(s string) (Zone, error) {
	roleStr, courseID, hasCourse := strings.Cut(s, ":")
	role, ok := model.ParseRole(roleStr)
	if !ok || !role.IsCanvasRole() {
		return Zone{}, ErrBadZone
	}

	switch {
	case role == model.RoleSuperModerator && !hasCourse:
		return Zone{Role: role}, nil
	case role.IsCourseRole() && hasCourse && courseID != "":
		return Zone{Role: role, CourseID: courseID}, nil
	default:
		return Zone{}, ErrBadZone
	}
}

// String возвращает идентификатор зоны.
func (z Zone) String() string {
	if z.CourseID == "" {
		return string(z.Role)
	}
	return string(z.Role) + ":" + z.CourseID
}

// DragSource — активный источник перетаскивания из пула пользователей.
type DragSource struct {
	// UserID — UUID перетаскиваемого пользователя
	UserID string
	// Role — роль пользователя
	Role model.Role
}

// DropController — транзитное состояние drag-and-drop одной сессии канваса.
// Не входит в модель: регистр живёт от drag-start до drop/cancel.
type DropController struct {
	current *DragSource
}

// BeginDrag регистрирует источник перетаскивания.
func (c *DropController) BeginDrag(userID string, role model.Role) {
	c.current = &DragSource{UserID: userID, Role: role}
}

// CancelDrag очищает регистр без мутаций модели.
func (c *DropController) CancelDrag() {
	c.current = nil
}

// Current возвращает активный источник или nil.
func (c *DropController) Current() *DragSource {
	return c.current
}

// CanDrop — чистая подсказка для hover: совпадает ли роль источника
// с ролью зоны. Никогда не мутирует модель.
func (c *DropController) CanDrop(zone Zone) bool {
	return c.current != nil && c.current.Role == zone.Role
}

// ZoneContains сообщает, занят ли пользователем целевой слот зоны.
func (m *Model) ZoneContains(zone Zone, userID string) bool {
	switch zone.Role {
	case model.RoleSuperModerator:
		return m.HasSuperModerator(userID)
	case model.RoleSeniorModerator:
		if node := m.CourseNode(zone.CourseID); node != nil {
			return node.hasUser(node.SeniorModerators, userID)
		}
	case model.RoleModerator:
		if node := m.CourseNode(zone.CourseID); node != nil {
			return node.hasUser(node.Moderators, userID)
		}
	}
	return false
}

// Drop завершает перетаскивание на зону: повторная проверка роли,
// дедупликация, вызов операции модели. Любая несовместимость молча
// игнорируется — модель остаётся без изменений. Регистр очищается
// в любом случае. Возвращает true, если мутация применена.
func (c *DropController) Drop(m *Model, zone Zone, resolve func(userID string) (model.UserWithRole, bool), assignedBy string) bool {
	src := c.current
	c.current = nil
	if src == nil || src.Role != zone.Role {
		return false
	}
	if m.ZoneContains(zone, src.UserID) {
		return false
	}

	user, ok := resolve(src.UserID)
	if !ok || user.Role != zone.Role {
		return false
	}

	var err error
	switch zone.Role {
	case model.RoleSuperModerator:
		err = m.AddSuperModerator(user, assignedBy)
	case model.RoleSeniorModerator:
		err = m.AddSeniorModerator(zone.CourseID, user, assignedBy)
	case model.RoleModerator:
		err = m.AddModerator(zone.CourseID, user, assignedBy)
	default:
		return false
	}
	return err == nil
}
