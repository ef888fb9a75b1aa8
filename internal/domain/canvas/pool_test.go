package canvas

import (
	"testing"

	"github.com/arturkryukov/skillhub/admin-module/internal/domain/model"
)

// poolUsers — смешанный набор пользователей для тестов пула.
func poolUsers() []model.UserWithRole {
	anna := "Анна Петрова"
	boris := "Boris Ivanov"
	clara := "Clara Schmidt"
	return []model.UserWithRole{
		{UserProfile: model.UserProfile{ID: "u1", Email: "anna@example.com", FullName: &anna}, Role: model.RoleSuperModerator},
		{UserProfile: model.UserProfile{ID: "u2", Email: "boris@example.com", FullName: &boris}, Role: model.RoleSeniorModerator},
		{UserProfile: model.UserProfile{ID: "u3", Email: "clara@example.com", FullName: &clara}, Role: model.RoleModerator},
		{UserProfile: model.UserProfile{ID: "u4", Email: "dmitry@example.com"}, Role: model.RoleModerator},
		// Не попадают в пул: admin и user
		{UserProfile: model.UserProfile{ID: "u5", Email: "root@example.com"}, Role: model.RoleAdmin},
		{UserProfile: model.UserProfile{ID: "u6", Email: "student@example.com"}, Role: model.RoleUser},
	}
}

func TestFilterPoolAdmitsOnlyCanvasRoles(t *testing.T) {
	got := FilterPool(poolUsers(), "", "")
	if len(got) != 4 {
		t.Fatalf("в пуле должны быть только канвасные роли: ожидали 4, получили %d", len(got))
	}
	for _, u := range got {
		if !u.Role.IsCanvasRole() {
			t.Errorf("пользователь %s с ролью %s не должен попадать в пул", u.ID, u.Role)
		}
	}
}

func TestFilterPoolByRole(t *testing.T) {
	got := FilterPool(poolUsers(), "", model.RoleModerator)
	if len(got) != 2 {
		t.Fatalf("фильтр по роли: ожидали 2, получили %d", len(got))
	}
}

func TestFilterPoolSearch(t *testing.T) {
	tests := []struct {
		name   string
		search string
		want   []string
	}{
		{"по email без учёта регистра", "BORIS@", []string{"u2"}},
		{"по подстроке имени", "schmi", []string{"u3"}},
		{"по кириллическому имени", "петрова", []string{"u1"}},
		{"email без full_name", "dmitry", []string{"u4"}},
		{"ничего не найдено", "zzz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterPool(poolUsers(), tt.search, "")
			if len(got) != len(tt.want) {
				t.Fatalf("получили %d пользователей, хотели %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("got[%d].ID = %s, хотели %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestGroupByRoleOrder(t *testing.T) {
	groups := GroupByRole(FilterPool(poolUsers(), "", ""))
	if len(groups) != 3 {
		t.Fatalf("ожидали 3 группы, получили %d", len(groups))
	}

	wantOrder := []model.Role{model.RoleSuperModerator, model.RoleSeniorModerator, model.RoleModerator}
	for i, role := range wantOrder {
		if groups[i].Role != role {
			t.Errorf("groups[%d].Role = %s, хотели %s", i, groups[i].Role, role)
		}
	}
	if len(groups[2].Users) != 2 {
		t.Errorf("в группе модераторов ожидали 2, получили %d", len(groups[2].Users))
	}
}
