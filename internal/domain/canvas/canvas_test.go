package canvas

import (
	"errors"
	"testing"

	"github.com/arturkryukov/skillhub/admin-module/internal/domain/model"
)

// testUser создаёт пользователя с ролью для тестов.
func testUser(id string, role model.Role) model.UserWithRole {
	name := "User " + id
	return model.UserWithRole{
		UserProfile: model.UserProfile{
			ID:       id,
			Email:    id + "@example.com",
			FullName: &name,
		},
		Role: role,
	}
}

// testCareer создаёт карьеру для тестов.
func testCareer(id, name string) model.Career {
	return model.Career{ID: id, Name: name, Slug: id, Color: "#336699", Status: model.StatusPublished}
}

// testCourse создаёт курс для тестов.
func testCourse(id, name string) model.Course {
	return model.Course{ID: id, Name: name, Slug: id, Status: model.StatusPublished}
}

func TestSelectCareerSetsDefaultName(t *testing.T) {
	m := New()
	if m.Name != PlaceholderName {
		t.Fatalf("новый канвас должен называться %q, получили %q", PlaceholderName, m.Name)
	}

	m.SelectCareer(testCareer("C1", "Data"))
	if m.Name != "Data Team" {
		t.Errorf("после выбора карьеры имя = %q, хотели %q", m.Name, "Data Team")
	}

	// Пользовательское имя при смене карьеры не затирается
	m.Rename("Моя команда")
	m.SelectCareer(testCareer("C2", "Frontend"))
	if m.Name != "Моя команда" {
		t.Errorf("пользовательское имя затёрто: %q", m.Name)
	}
}

func TestSelectCareerResetsComposition(t *testing.T) {
	// Режим edit: смена карьеры очищает супермодераторов и курсы
	m := New()
	m.Mode = ModeEdit
	m.TeamID = "T1"
	m.SelectCareer(testCareer("C1", "Data"))
	if err := m.AddSuperModerator(testUser("u1", model.RoleSuperModerator), "admin-1"); err != nil {
		t.Fatalf("AddSuperModerator: %v", err)
	}
	if err := m.AddCourse(testCourse("k1", "SQL")); err != nil {
		t.Fatalf("AddCourse: %v", err)
	}

	// Повторный выбор той же карьеры в edit состава не трогает
	m.SelectCareer(testCareer("C1", "Data"))
	if len(m.SuperModerators) != 1 || len(m.Courses) != 1 {
		t.Fatal("выбор той же карьеры в режиме edit не должен сбрасывать состав")
	}

	// Другая карьера — полный сброс
	m.SelectCareer(testCareer("C2", "Frontend"))
	if len(m.SuperModerators) != 0 || len(m.Courses) != 0 {
		t.Errorf("смена карьеры должна очистить состав: supermods=%d, courses=%d",
			len(m.SuperModerators), len(m.Courses))
	}
}

func TestAddSuperModerator(t *testing.T) {
	m := New()
	m.SelectCareer(testCareer("C1", "Data"))

	// Неподходящая роль отклоняется
	if err := m.AddSuperModerator(testUser("u1", model.RoleModerator), "admin-1"); !errors.Is(err, ErrRoleMismatch) {
		t.Errorf("ожидали ErrRoleMismatch, получили %v", err)
	}

	if err := m.AddSuperModerator(testUser("u1", model.RoleSuperModerator), "admin-1"); err != nil {
		t.Fatalf("AddSuperModerator: %v", err)
	}
	// Дубликат — no-op
	if err := m.AddSuperModerator(testUser("u1", model.RoleSuperModerator), "admin-1"); err != nil {
		t.Fatalf("дубликат должен быть no-op, получили %v", err)
	}
	if len(m.SuperModerators) != 1 {
		t.Errorf("ожидали 1 супермодератора, получили %d", len(m.SuperModerators))
	}
	if !m.SuperModerators[0].IsNew {
		t.Error("добавленное назначение должно быть помечено IsNew")
	}
	if m.SuperModerators[0].CareerID != "C1" {
		t.Errorf("career_id назначения = %q, хотели C1", m.SuperModerators[0].CareerID)
	}
}

func TestAddSuperModeratorWithoutCareer(t *testing.T) {
	m := New()
	if err := m.AddSuperModerator(testUser("u1", model.RoleSuperModerator), "admin-1"); !errors.Is(err, ErrNoCareer) {
		t.Errorf("ожидали ErrNoCareer, получили %v", err)
	}
}

func TestRemoveLastSuperModerator(t *testing.T) {
	m := New()
	m.SelectCareer(testCareer("C1", "Data"))
	_ = m.AddSuperModerator(testUser("u1", model.RoleSuperModerator), "admin-1")

	id := m.SuperModerators[0].CareerAssignment.ID
	if err := m.RemoveSuperModerator(id); !errors.Is(err, ErrLastSuperModerator) {
		t.Fatalf("ожидали ErrLastSuperModerator, получили %v", err)
	}
	// Модель не изменилась
	if len(m.SuperModerators) != 1 {
		t.Error("отклонённое удаление не должно менять модель")
	}

	_ = m.AddSuperModerator(testUser("u2", model.RoleSuperModerator), "admin-1")
	if err := m.RemoveSuperModerator(id); err != nil {
		t.Fatalf("удаление при двух супермодераторах: %v", err)
	}
	if len(m.SuperModerators) != 1 || m.SuperModerators[0].UserID != "u2" {
		t.Error("после удаления должен остаться u2")
	}
}

func TestAddRemoveSuperModeratorRestoresSet(t *testing.T) {
	// add(u); remove(u) восстанавливает исходный набор (по user id)
	m := New()
	m.SelectCareer(testCareer("C1", "Data"))
	_ = m.AddSuperModerator(testUser("u1", model.RoleSuperModerator), "admin-1")

	_ = m.AddSuperModerator(testUser("u2", model.RoleSuperModerator), "admin-1")
	var addedID string
	for _, s := range m.SuperModerators {
		if s.UserID == "u2" {
			addedID = s.CareerAssignment.ID
		}
	}
	if err := m.RemoveSuperModerator(addedID); err != nil {
		t.Fatalf("RemoveSuperModerator: %v", err)
	}
	if len(m.SuperModerators) != 1 || m.SuperModerators[0].UserID != "u1" {
		t.Error("add; remove должны восстановить исходный набор супермодераторов")
	}
}

func TestFirstSeniorModeratorBecomesDefault(t *testing.T) {
	m := New()
	m.SelectCareer(testCareer("C1", "Data"))
	_ = m.AddCourse(testCourse("k1", "SQL"))

	if err := m.AddSeniorModerator("k1", testUser("u2", model.RoleSeniorModerator), "admin-1"); err != nil {
		t.Fatalf("AddSeniorModerator: %v", err)
	}
	node := m.CourseNode("k1")
	if !node.SeniorModerators[0].IsDefaultManager {
		t.Error("первый старший модератор курса должен стать default manager'ом")
	}

	// Второй default'ом не становится
	_ = m.AddSeniorModerator("k1", testUser("u3", model.RoleSeniorModerator), "admin-1")
	if node.SeniorModerators[1].IsDefaultManager {
		t.Error("второй старший модератор не должен получать флаг default")
	}
	if countDefaults(node) != 1 {
		t.Errorf("ровно один default manager ожидается, получили %d", countDefaults(node))
	}
}

func TestDefaultManagerPromotionOnRemoval(t *testing.T) {
	// Сценарий: [A (default), B, C]; удаление A → [B (default), C]
	m := New()
	m.SelectCareer(testCareer("C1", "Data"))
	_ = m.AddCourse(testCourse("k1", "SQL"))
	_ = m.AddSeniorModerator("k1", testUser("A", model.RoleSeniorModerator), "admin-1")
	_ = m.AddSeniorModerator("k1", testUser("B", model.RoleSeniorModerator), "admin-1")
	_ = m.AddSeniorModerator("k1", testUser("C", model.RoleSeniorModerator), "admin-1")

	node := m.CourseNode("k1")
	idA := node.SeniorModerators[0].CourseAssignment.ID
	if err := m.RemoveSeniorModerator("k1", idA); err != nil {
		t.Fatalf("RemoveSeniorModerator: %v", err)
	}

	if len(node.SeniorModerators) != 2 {
		t.Fatalf("ожидали 2 старших модератора, получили %d", len(node.SeniorModerators))
	}
	if node.SeniorModerators[0].UserID != "B" || !node.SeniorModerators[0].IsDefaultManager {
		t.Error("после удаления default'а флаг должен перейти первому оставшемуся (B)")
	}
	if countDefaults(node) != 1 {
		t.Errorf("ровно один default manager ожидается, получили %d", countDefaults(node))
	}
}

func TestRemoveLastSeniorModerator(t *testing.T) {
	m := New()
	m.SelectCareer(testCareer("C1", "Data"))
	_ = m.AddCourse(testCourse("k1", "SQL"))
	_ = m.AddSeniorModerator("k1", testUser("A", model.RoleSeniorModerator), "admin-1")

	id := m.CourseNode("k1").SeniorModerators[0].CourseAssignment.ID
	if err := m.RemoveSeniorModerator("k1", id); !errors.Is(err, ErrLastSeniorModerator) {
		t.Errorf("ожидали ErrLastSeniorModerator, получили %v", err)
	}
	if len(m.CourseNode("k1").SeniorModerators) != 1 {
		t.Error("отклонённое удаление не должно менять модель")
	}
}

func TestSetDefaultManagerExclusive(t *testing.T) {
	// Сценарий: [A (default), B, C]; setDefault(C) → [A, B, C (default)]
	m := New()
	m.SelectCareer(testCareer("C1", "Data"))
	_ = m.AddCourse(testCourse("k1", "SQL"))
	_ = m.AddSeniorModerator("k1", testUser("A", model.RoleSeniorModerator), "admin-1")
	_ = m.AddSeniorModerator("k1", testUser("B", model.RoleSeniorModerator), "admin-1")
	_ = m.AddSeniorModerator("k1", testUser("C", model.RoleSeniorModerator), "admin-1")

	node := m.CourseNode("k1")
	idC := node.SeniorModerators[2].CourseAssignment.ID
	if err := m.SetDefaultManager("k1", idC); err != nil {
		t.Fatalf("SetDefaultManager: %v", err)
	}

	if dm := node.DefaultManager(); dm == nil || dm.UserID != "C" {
		t.Error("default manager'ом должен стать C")
	}
	if countDefaults(node) != 1 {
		t.Errorf("ровно один default manager ожидается, получили %d", countDefaults(node))
	}

	// Идемпотентность: повторный вызов не меняет состояние
	if err := m.SetDefaultManager("k1", idC); err != nil {
		t.Fatalf("повторный SetDefaultManager: %v", err)
	}
	if dm := node.DefaultManager(); dm == nil || dm.UserID != "C" || countDefaults(node) != 1 {
		t.Error("повторный SetDefaultManager должен быть идемпотентен")
	}
}

func TestModeratorAddRemove(t *testing.T) {
	m := New()
	m.SelectCareer(testCareer("C1", "Data"))
	_ = m.AddCourse(testCourse("k1", "SQL"))

	if err := m.AddModerator("k1", testUser("u3", model.RoleModerator), "admin-1"); err != nil {
		t.Fatalf("AddModerator: %v", err)
	}
	// Дубликат — no-op
	_ = m.AddModerator("k1", testUser("u3", model.RoleModerator), "admin-1")
	node := m.CourseNode("k1")
	if len(node.Moderators) != 1 {
		t.Errorf("ожидали 1 модератора, получили %d", len(node.Moderators))
	}

	id := node.Moderators[0].CourseAssignment.ID
	if err := m.RemoveModerator("k1", id); err != nil {
		t.Fatalf("RemoveModerator: %v", err)
	}
	if len(node.Moderators) != 0 {
		t.Error("модератор не удалён")
	}

	if err := m.RemoveModerator("k1", "nonexistent"); !errors.Is(err, ErrAssignmentNotFound) {
		t.Errorf("ожидали ErrAssignmentNotFound, получили %v", err)
	}
}

func TestRemoveCourse(t *testing.T) {
	m := New()
	m.SelectCareer(testCareer("C1", "Data"))
	_ = m.AddCourse(testCourse("k1", "SQL"))
	_ = m.AddCourse(testCourse("k2", "Python"))

	if err := m.RemoveCourse("k1"); err != nil {
		t.Fatalf("RemoveCourse: %v", err)
	}
	if len(m.Courses) != 1 || m.Courses[0].Course.ID != "k2" {
		t.Error("после удаления должен остаться k2")
	}
	if err := m.RemoveCourse("k1"); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("ожидали ErrCourseNotFound, получили %v", err)
	}
}

func TestCanSave(t *testing.T) {
	m := New()
	if m.CanSave() {
		t.Error("пустой канвас не должен проходить canSave")
	}

	m.SelectCareer(testCareer("C1", "Data"))
	if m.CanSave() {
		t.Error("канвас без супермодераторов не должен проходить canSave")
	}

	_ = m.AddSuperModerator(testUser("u1", model.RoleSuperModerator), "admin-1")
	if !m.CanSave() {
		t.Error("карьера + супермодератор без курсов — валидный состав")
	}

	// Курс без старших модераторов блокирует сохранение
	_ = m.AddCourse(testCourse("k1", "SQL"))
	if m.CanSave() {
		t.Error("курс без старшего модератора должен блокировать canSave")
	}

	_ = m.AddSeniorModerator("k1", testUser("u2", model.RoleSeniorModerator), "admin-1")
	_ = m.AddModerator("k1", testUser("u3", model.RoleModerator), "admin-1")
	if !m.CanSave() {
		t.Error("полный состав должен проходить canSave")
	}

	// Пустое после trim имя блокирует сохранение
	m.Rename("   ")
	if m.CanSave() {
		t.Error("пустое имя должно блокировать canSave")
	}
}

// countDefaults считает слоты с флагом default manager.
func countDefaults(n *CourseNode) int {
	count := 0
	for _, s := range n.SeniorModerators {
		if s.IsDefaultManager {
			count++
		}
	}
	return count
}
