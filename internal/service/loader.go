// loader.go — загрузчик канваса: гидрация сохранённой команды из БД
// в модель канваса с захватом baseline.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/arturkryukov/skillhub/admin-module/internal/domain/canvas"
	"github.com/arturkryukov/skillhub/admin-module/internal/domain/model"
	"github.com/arturkryukov/skillhub/admin-module/internal/repository"
)

// CanvasLoader гидрирует канвас из сохранённой команды.
type CanvasLoader struct {
	store  repository.Store
	logger *slog.Logger
}

// NewCanvasLoader создаёт загрузчик канваса.
func NewCanvasLoader(store repository.Store, logger *slog.Logger) *CanvasLoader {
	return &CanvasLoader{
		store:  store,
		logger: logger.With(slog.String("component", "canvas_loader")),
	}
}

// LoadForEdit загружает команду в модель канваса (режим edit).
//
// Порядок гидрации: сначала команда и её карьера, затем четыре
// независимых выборки параллельно (профили, назначения обеих таблиц,
// курсы карьеры). Модель публикуется целиком и с уже захваченным
// baseline — частично гидрированное состояние наружу не выходит.
//
// Курсы канваса — пересечение живых курсов карьеры с курсами,
// у которых есть назначения в команде. Назначения на курсы, выпавшие
// из карьеры (career_courses.deleted_at), на канвас не попадают и
// будут удалены диффом при следующем сохранении.
func (l *CanvasLoader) LoadForEdit(ctx context.Context, teamID string) (*canvas.Model, error) {
	team, err := l.store.Teams().GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("загрузка команды %s: %w", teamID, err)
	}
	if team.IsArchived() {
		return nil, ErrTeamArchived
	}

	career, err := l.store.Careers().GetByID(ctx, team.CareerID)
	if err != nil {
		return nil, fmt.Errorf("загрузка карьеры %s: %w", team.CareerID, err)
	}

	var (
		users         []model.UserWithRole
		careerAssigns []model.CareerAssignment
		courseAssigns []model.CourseAssignment
		courses       []*model.Course
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = l.store.Profiles().ListWithRoles(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		careerAssigns, err = l.store.CareerAssignments().ListByTeam(gctx, teamID)
		return err
	})
	g.Go(func() error {
		var err error
		courseAssigns, err = l.store.CourseAssignments().ListByTeam(gctx, teamID)
		return err
	})
	g.Go(func() error {
		var err error
		// На канвасе редактирования показываются и неопубликованные курсы:
		// команда могла быть собрана до снятия курса с публикации.
		courses, err = l.store.Careers().ListCourses(gctx, team.CareerID, false)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("гидрация команды %s: %w", teamID, err)
	}

	profileByID := make(map[string]model.UserProfile, len(users))
	for _, u := range users {
		profileByID[u.ID] = u.UserProfile
	}

	m := &canvas.Model{
		Mode:   canvas.ModeEdit,
		TeamID: team.ID,
		Name:   team.Name,
		Career: career,
	}

	for _, a := range careerAssigns {
		m.SuperModerators = append(m.SuperModerators, canvas.SuperModSlot{
			CareerAssignment: a,
			Profile:          l.profileFor(profileByID, a.UserID),
		})
	}

	assignsByCourse := make(map[string][]model.CourseAssignment)
	for _, a := range courseAssigns {
		assignsByCourse[a.CourseID] = append(assignsByCourse[a.CourseID], a)
	}

	for _, c := range courses {
		rows, ok := assignsByCourse[c.ID]
		if !ok {
			continue
		}
		delete(assignsByCourse, c.ID)

		node := &canvas.CourseNode{Course: *c}
		for _, a := range rows {
			slot := canvas.CourseSlot{
				CourseAssignment: a,
				Profile:          l.profileFor(profileByID, a.UserID),
			}
			switch a.Role {
			case model.RoleSeniorModerator:
				node.SeniorModerators = append(node.SeniorModerators, slot)
			case model.RoleModerator:
				node.Moderators = append(node.Moderators, slot)
			}
		}
		l.normalizeDefault(node)
		m.Courses = append(m.Courses, node)
	}

	for courseID, rows := range assignsByCourse {
		l.logger.Warn("Назначения на курс вне карьеры пропущены при гидрации",
			slog.String("team_id", teamID),
			slog.String("course_id", courseID),
			slog.Int("count", len(rows)),
		)
	}

	m.CaptureBaseline()

	l.logger.Debug("Канвас загружен",
		slog.String("team_id", teamID),
		slog.Int("super_moderators", len(m.SuperModerators)),
		slog.Int("courses", len(m.Courses)),
	)
	return m, nil
}

// profileFor возвращает профиль пользователя либо заглушку по id,
// если профиль исчез из таблицы profiles после назначения.
func (l *CanvasLoader) profileFor(byID map[string]model.UserProfile, userID string) model.UserProfile {
	if p, ok := byID[userID]; ok {
		return p
	}
	l.logger.Warn("Профиль назначенного пользователя не найден",
		slog.String("user_id", userID),
	)
	return model.UserProfile{ID: userID}
}

// normalizeDefault выправляет флаг default manager'а после гидрации:
// ровно один default на курс. При нуле — флаг получает первый старший
// модератор, при нескольких — остаётся первый.
func (l *CanvasLoader) normalizeDefault(node *canvas.CourseNode) {
	seen := false
	for i := range node.SeniorModerators {
		if !node.SeniorModerators[i].IsDefaultManager {
			continue
		}
		if seen {
			node.SeniorModerators[i].IsDefaultManager = false
			l.logger.Warn("Курс имел несколько default manager'ов, лишние флаги сняты",
				slog.String("course_id", node.Course.ID),
			)
			continue
		}
		seen = true
	}
	if !seen && len(node.SeniorModerators) > 0 {
		node.SeniorModerators[0].IsDefaultManager = true
		l.logger.Warn("Курс не имел default manager'а, флаг получил первый старший модератор",
			slog.String("course_id", node.Course.ID),
		)
	}
}
