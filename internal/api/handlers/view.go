// view.go — JSON-представления доменных моделей для API.
// Канвас отдаётся клиенту целиком после каждого интента: состояние
// живёт на сервере, клиент только отрисовывает.
package handlers

import (
	"time"

	"github.com/arturkryukov/skillhub/admin-module/internal/domain/canvas"
	"github.com/arturkryukov/skillhub/admin-module/internal/domain/model"
	"github.com/arturkryukov/skillhub/admin-module/internal/session"
)

// userView — профиль пользователя в ответах API.
type userView struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	FullName    *string `json:"full_name,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	DisplayName string  `json:"display_name"`
}

func toUserView(p model.UserProfile) userView {
	return userView{
		ID:          p.ID,
		Email:       p.Email,
		FullName:    p.FullName,
		AvatarURL:   p.AvatarURL,
		DisplayName: p.DisplayName(),
	}
}

// poolUserView — пользователь пула с ролью.
type poolUserView struct {
	userView
	Role model.Role `json:"role"`
}

func toPoolUserView(u model.UserWithRole) poolUserView {
	return poolUserView{userView: toUserView(u.UserProfile), Role: u.Role}
}

// poolGroupView — группа пула пользователей.
type poolGroupView struct {
	Role  model.Role     `json:"role"`
	Users []poolUserView `json:"users"`
}

func toPoolGroupViews(groups []canvas.PoolGroup) []poolGroupView {
	out := make([]poolGroupView, 0, len(groups))
	for _, g := range groups {
		users := make([]poolUserView, 0, len(g.Users))
		for _, u := range g.Users {
			users = append(users, toPoolUserView(u))
		}
		out = append(out, poolGroupView{Role: g.Role, Users: users})
	}
	return out
}

// careerView — карьера в ответах API.
type careerView struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Slug   string  `json:"slug"`
	Icon   *string `json:"icon,omitempty"`
	Color  string  `json:"color"`
	Status string  `json:"status"`
}

func toCareerView(c *model.Career) *careerView {
	if c == nil {
		return nil
	}
	return &careerView{ID: c.ID, Name: c.Name, Slug: c.Slug, Icon: c.Icon, Color: c.Color, Status: c.Status}
}

// courseView — курс в ответах API.
type courseView struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Slug   string  `json:"slug"`
	Icon   *string `json:"icon,omitempty"`
	Status string  `json:"status"`
}

func toCourseView(c model.Course) courseView {
	return courseView{ID: c.ID, Name: c.Name, Slug: c.Slug, Icon: c.Icon, Status: c.Status}
}

func toCourseViews(courses []*model.Course) []courseView {
	out := make([]courseView, 0, len(courses))
	for _, c := range courses {
		out = append(out, toCourseView(*c))
	}
	return out
}

// teamView — команда в ответах API.
type teamView struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	CareerID   string     `json:"career_id"`
	CreatedBy  string     `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
}

func toTeamView(t *model.Team) teamView {
	return teamView{
		ID:         t.ID,
		Name:       t.Name,
		CareerID:   t.CareerID,
		CreatedBy:  t.CreatedBy,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
		ArchivedAt: t.ArchivedAt,
	}
}

func toTeamViews(teams []*model.Team) []teamView {
	out := make([]teamView, 0, len(teams))
	for _, t := range teams {
		out = append(out, toTeamView(t))
	}
	return out
}

// superModSlotView — слот супермодератора на канвасе.
type superModSlotView struct {
	AssignmentID string   `json:"assignment_id"`
	User         userView `json:"user"`
	IsNew        bool     `json:"is_new"`
}

// courseSlotView — слот модератора курса на канвасе.
type courseSlotView struct {
	AssignmentID     string   `json:"assignment_id"`
	User             userView `json:"user"`
	Role             string   `json:"role"`
	IsDefaultManager bool     `json:"is_default_manager"`
	IsNew            bool     `json:"is_new"`
}

// courseNodeView — курс на канвасе со слотами.
type courseNodeView struct {
	Course           courseView       `json:"course"`
	SeniorModerators []courseSlotView `json:"senior_moderators"`
	Moderators       []courseSlotView `json:"moderators"`
	IsNew            bool             `json:"is_new"`
}

// dragView — активный источник перетаскивания.
type dragView struct {
	UserID string     `json:"user_id"`
	Role   model.Role `json:"role"`
}

// canvasStateView — полное состояние канваса для клиента.
type canvasStateView struct {
	SessionID       string             `json:"session_id"`
	Mode            canvas.Mode        `json:"mode"`
	TeamID          string             `json:"team_id,omitempty"`
	Name            string             `json:"name"`
	Career          *careerView        `json:"career"`
	SuperModerators []superModSlotView `json:"super_moderators"`
	Courses         []courseNodeView   `json:"courses"`
	CanSave         bool               `json:"can_save"`
	Drag            *dragView          `json:"drag,omitempty"`
	// AllowedZones — зоны, принимающие текущий источник перетаскивания
	// (подсказка для hover; авторитетная проверка повторяется на drop).
	AllowedZones []string `json:"allowed_zones,omitempty"`
}

// toCanvasState строит состояние канваса. Вызывается под мьютексом
// сессии (изнутри session.Do).
func toCanvasState(sessionID string, m *canvas.Model, drag *canvas.DropController) canvasStateView {
	state := canvasStateView{
		SessionID: sessionID,
		Mode:      m.Mode,
		TeamID:    m.TeamID,
		Name:      m.Name,
		Career:    toCareerView(m.Career),
		CanSave:   m.CanSave(),
	}

	state.SuperModerators = make([]superModSlotView, 0, len(m.SuperModerators))
	for _, s := range m.SuperModerators {
		state.SuperModerators = append(state.SuperModerators, superModSlotView{
			AssignmentID: s.CareerAssignment.ID,
			User:         toUserView(s.Profile),
			IsNew:        s.IsNew,
		})
	}

	state.Courses = make([]courseNodeView, 0, len(m.Courses))
	for _, n := range m.Courses {
		node := courseNodeView{
			Course:           toCourseView(n.Course),
			SeniorModerators: toCourseSlotViews(n.SeniorModerators),
			Moderators:       toCourseSlotViews(n.Moderators),
			IsNew:            n.IsNew,
		}
		state.Courses = append(state.Courses, node)
	}

	if src := drag.Current(); src != nil {
		state.Drag = &dragView{UserID: src.UserID, Role: src.Role}
		state.AllowedZones = allowedZones(m, drag)
	}
	return state
}

func toCourseSlotViews(slots []canvas.CourseSlot) []courseSlotView {
	out := make([]courseSlotView, 0, len(slots))
	for _, s := range slots {
		out = append(out, courseSlotView{
			AssignmentID:     s.CourseAssignment.ID,
			User:             toUserView(s.Profile),
			Role:             string(s.CourseAssignment.Role),
			IsDefaultManager: s.IsDefaultManager,
			IsNew:            s.IsNew,
		})
	}
	return out
}

// allowedZones перечисляет зоны канваса, подсвечиваемые для текущего
// перетаскивания.
func allowedZones(m *canvas.Model, drag *canvas.DropController) []string {
	var zones []canvas.Zone
	zones = append(zones, canvas.Zone{Role: model.RoleSuperModerator})
	for _, n := range m.Courses {
		zones = append(zones,
			canvas.Zone{Role: model.RoleSeniorModerator, CourseID: n.Course.ID},
			canvas.Zone{Role: model.RoleModerator, CourseID: n.Course.ID},
		)
	}

	var allowed []string
	for _, z := range zones {
		if drag.CanDrop(z) {
			allowed = append(allowed, z.String())
		}
	}
	return allowed
}

// sessionState снимает состояние канваса под мьютексом сессии.
func sessionState(s *session.Session) (canvasStateView, error) {
	var state canvasStateView
	err := s.Do(func(m *canvas.Model, drag *canvas.DropController) error {
		state = toCanvasState(s.ID, m, drag)
		return nil
	})
	return state, err
}
