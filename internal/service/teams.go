// Пакет service — бизнес-логика Admin Module.
// teams.go — движок сохранения канваса: диффовый коммит команды
// в teams / career_assignments / course_assignments одной транзакцией.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	"github.com/arturkryukov/skillhub/admin-module/internal/domain/canvas"
	"github.com/arturkryukov/skillhub/admin-module/internal/domain/model"
	"github.com/arturkryukov/skillhub/admin-module/internal/notify"
	"github.com/arturkryukov/skillhub/admin-module/internal/repository"
)

// maxNameAttempts — сколько раз путь создания пробует подобрать имя
// при конфликте уникальности (name, career_id).
const maxNameAttempts = 5

// TeamService — движок сохранения команд.
// Удаления всегда применяются до вставок: освобождаем строки уникальных
// индексов прежде, чем вставлять новые назначения.
type TeamService struct {
	store    repository.Store
	notifier notify.Sink
	logger   *slog.Logger
}

// NewTeamService создаёт движок сохранения команд.
func NewTeamService(store repository.Store, notifier notify.Sink, logger *slog.Logger) *TeamService {
	return &TeamService{
		store:    store,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "teams_service")),
	}
}

// Create сохраняет новую команду из канваса (режим create).
// Команда вставляется первой — её UUID нужен назначениям как team_id.
// При конфликте имени пробует "<имя> NNNN" (до maxNameAttempts попыток),
// затем возвращает ErrTeamNameConflict. После успеха модель переводится
// в режим edit через MarkSaved.
func (s *TeamService) Create(ctx context.Context, m *canvas.Model, createdBy string) (*model.Team, error) {
	if !m.CanSave() {
		return nil, ErrValidation
	}

	base := strings.TrimSpace(m.Name)
	name := base
	var team *model.Team

	for attempt := 1; attempt <= maxNameAttempts; attempt++ {
		t := &model.Team{
			ID:        uuid.New().String(),
			Name:      name,
			CareerID:  m.Career.ID,
			CreatedBy: createdBy,
		}

		// Конфликт имени обрывает транзакцию PostgreSQL целиком,
		// поэтому ретраится весь коммит, а не одна вставка.
		err := s.store.InTx(ctx, func(tx repository.Store) error {
			if err := tx.Teams().Create(ctx, t); err != nil {
				return err
			}
			return s.insertAll(ctx, tx, t.ID, m)
		})
		if err == nil {
			team = t
			break
		}
		if errors.Is(err, repository.ErrConflict) {
			name = fmt.Sprintf("%s %04d", base, rand.IntN(10000))
			s.logger.Warn("Название команды занято, пробуем суффикс",
				slog.String("career_id", m.Career.ID),
				slog.String("name", name),
				slog.Int("attempt", attempt),
			)
			continue
		}
		return nil, fmt.Errorf("создание команды: %w", err)
	}

	if team == nil {
		return nil, ErrTeamNameConflict
	}

	m.MarkSaved(team.ID, team.Name)

	s.logger.Info("Команда создана",
		slog.String("team_id", team.ID),
		slog.String("name", team.Name),
		slog.String("career_id", team.CareerID),
	)
	s.notifier.Notify(notify.Notification{
		Title:       "Команда создана",
		Description: team.Name,
		Variant:     notify.VariantDefault,
	})
	return team, nil
}

// Update сохраняет изменения существующей команды (режим edit).
// Дифф против baseline: сначала удаления (всё, что не в Kept-наборах),
// затем вставки новых назначений, затем изменения флага default manager'а.
// Смена карьеры — полный сброс: назначения команды удаляются целиком
// и вставляются заново.
func (s *TeamService) Update(ctx context.Context, m *canvas.Model) (*model.Team, error) {
	if !m.CanSave() {
		return nil, ErrValidation
	}
	diff := m.ComputeDiff()
	if diff == nil {
		return nil, ErrNoBaseline
	}

	team := &model.Team{
		ID:       m.TeamID,
		Name:     strings.TrimSpace(m.Name),
		CareerID: m.Career.ID,
	}

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if diff.NameChanged || diff.CareerChanged {
			if err := tx.Teams().Update(ctx, team); err != nil {
				return err
			}
		}

		if diff.CareerChanged {
			return s.resetAssignments(ctx, tx, m)
		}
		return s.applyDiff(ctx, tx, m.TeamID, diff)
	})
	switch {
	case errors.Is(err, repository.ErrConflict):
		return nil, ErrTeamNameConflict
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("сохранение команды %s: %w", m.TeamID, err)
	}

	m.MarkSaved(team.ID, team.Name)

	s.logger.Info("Команда обновлена",
		slog.String("team_id", team.ID),
		slog.String("name", team.Name),
		slog.Bool("career_changed", diff.CareerChanged),
	)
	s.notifier.Notify(notify.Notification{
		Title:       "Команда сохранена",
		Description: team.Name,
		Variant:     notify.VariantDefault,
	})
	return team, nil
}

// Archive архивирует команду: teams.archived_at = now().
// Строки назначений не трогаются — история состава сохраняется.
func (s *TeamService) Archive(ctx context.Context, teamID string) error {
	if err := s.store.Teams().Archive(ctx, teamID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("архивация команды %s: %w", teamID, err)
	}

	s.logger.Info("Команда архивирована", slog.String("team_id", teamID))
	s.notifier.Notify(notify.Notification{
		Title:       "Команда архивирована",
		Description: teamID,
		Variant:     notify.VariantDestructive,
	})
	return nil
}

// Get возвращает команду по id.
func (s *TeamService) Get(ctx context.Context, teamID string) (*model.Team, error) {
	team, err := s.store.Teams().GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение команды %s: %w", teamID, err)
	}
	return team, nil
}

// List возвращает неархивированные команды.
func (s *TeamService) List(ctx context.Context, limit, offset int) ([]*model.Team, error) {
	teams, err := s.store.Teams().List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("получение списка команд: %w", err)
	}
	return teams, nil
}

// insertAll вставляет все назначения канваса под указанный team_id.
// Используется путём создания и полным сбросом при смене карьеры.
func (s *TeamService) insertAll(ctx context.Context, tx repository.Store, teamID string, m *canvas.Model) error {
	careerRows := make([]model.CareerAssignment, 0, len(m.SuperModerators))
	for _, slot := range m.SuperModerators {
		row := slot.CareerAssignment
		row.TeamID = teamID
		careerRows = append(careerRows, row)
	}
	if err := tx.CareerAssignments().InsertMany(ctx, careerRows); err != nil {
		return fmt.Errorf("вставка назначений супермодераторов: %w", err)
	}

	var courseRows []model.CourseAssignment
	for _, node := range m.Courses {
		for _, slot := range node.SeniorModerators {
			row := slot.CourseAssignment
			row.TeamID = teamID
			courseRows = append(courseRows, row)
		}
		for _, slot := range node.Moderators {
			row := slot.CourseAssignment
			row.TeamID = teamID
			courseRows = append(courseRows, row)
		}
	}
	if err := tx.CourseAssignments().InsertMany(ctx, courseRows); err != nil {
		return fmt.Errorf("вставка назначений курсов: %w", err)
	}
	return nil
}

// resetAssignments — полный сброс назначений при смене карьеры:
// удалить всё, вставить текущее состояние канваса заново.
func (s *TeamService) resetAssignments(ctx context.Context, tx repository.Store, m *canvas.Model) error {
	if err := tx.CareerAssignments().DeleteAllForTeam(ctx, m.TeamID); err != nil {
		return fmt.Errorf("сброс назначений супермодераторов: %w", err)
	}
	if err := tx.CourseAssignments().DeleteAllForTeam(ctx, m.TeamID); err != nil {
		return fmt.Errorf("сброс назначений курсов: %w", err)
	}
	return s.insertAll(ctx, tx, m.TeamID, m)
}

// applyDiff применяет дифф без смены карьеры.
// Порядок фиксирован: удаления → вставки → флаги default manager'а.
// Флаги применяются в два прохода (сначала снятие, потом установка),
// чтобы курс ни в какой момент не имел двух default manager'ов.
func (s *TeamService) applyDiff(ctx context.Context, tx repository.Store, teamID string, diff *canvas.Diff) error {
	if err := tx.CareerAssignments().DeleteExcept(ctx, teamID, diff.KeptCareerAssignmentIDs); err != nil {
		return fmt.Errorf("удаление назначений супермодераторов: %w", err)
	}
	if err := tx.CourseAssignments().DeleteExcept(ctx, teamID, diff.KeptCourseIDs, diff.KeptCourseAssignmentIDs); err != nil {
		return fmt.Errorf("удаление назначений курсов: %w", err)
	}

	if err := tx.CareerAssignments().InsertMany(ctx, diff.NewSuperModerators); err != nil {
		return fmt.Errorf("вставка назначений супермодераторов: %w", err)
	}
	if err := tx.CourseAssignments().InsertMany(ctx, diff.NewCourseAssignments); err != nil {
		return fmt.Errorf("вставка назначений курсов: %w", err)
	}

	for id, isDefault := range diff.DefaultManagerChanges {
		if !isDefault {
			if err := tx.CourseAssignments().SetDefaultManager(ctx, id, false); err != nil {
				return fmt.Errorf("снятие default manager %s: %w", id, err)
			}
		}
	}
	for id, isDefault := range diff.DefaultManagerChanges {
		if isDefault {
			if err := tx.CourseAssignments().SetDefaultManager(ctx, id, true); err != nil {
				return fmt.Errorf("установка default manager %s: %w", id, err)
			}
		}
	}
	return nil
}
