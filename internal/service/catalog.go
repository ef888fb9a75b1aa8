// catalog.go — справочные выборки для канваса: карьеры, селектор курсов,
// пул пользователей. Только чтение, данные принадлежат внешним редакторам.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/arturkryukov/skillhub/admin-module/internal/domain/canvas"
	"github.com/arturkryukov/skillhub/admin-module/internal/domain/model"
	"github.com/arturkryukov/skillhub/admin-module/internal/repository"
)

// CatalogService — справочные данные для канваса.
type CatalogService struct {
	store  repository.Store
	logger *slog.Logger
}

// NewCatalogService создаёт сервис справочных данных.
func NewCatalogService(store repository.Store, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		store:  store,
		logger: logger.With(slog.String("component", "catalog_service")),
	}
}

// Careers возвращает карьеры для CareerSelector.
func (s *CatalogService) Careers(ctx context.Context) ([]*model.Career, error) {
	careers, err := s.store.Careers().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение списка карьер: %w", err)
	}
	return careers, nil
}

// Career возвращает карьеру по id.
func (s *CatalogService) Career(ctx context.Context, id string) (*model.Career, error) {
	career, err := s.store.Careers().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение карьеры %s: %w", id, err)
	}
	return career, nil
}

// CourseOptions возвращает курсы карьеры для селектора добавления курса:
// только опубликованные, за вычетом уже стоящих на канвасе.
func (s *CatalogService) CourseOptions(ctx context.Context, careerID string, excludeCourseIDs []string) ([]*model.Course, error) {
	courses, err := s.store.Careers().ListCourses(ctx, careerID, true)
	if err != nil {
		return nil, fmt.Errorf("получение курсов карьеры %s: %w", careerID, err)
	}

	excluded := make(map[string]struct{}, len(excludeCourseIDs))
	for _, id := range excludeCourseIDs {
		excluded[id] = struct{}{}
	}

	options := make([]*model.Course, 0, len(courses))
	for _, c := range courses {
		if _, ok := excluded[c.ID]; ok {
			continue
		}
		options = append(options, c)
	}
	return options, nil
}

// CourseInCareer возвращает курс карьеры для интента добавления на канвас.
// Курс вне career_courses выбранной карьеры отклоняется: команда может
// владеть только курсами своей карьеры.
func (s *CatalogService) CourseInCareer(ctx context.Context, careerID, courseID string) (*model.Course, error) {
	course, err := s.store.Careers().CourseInCareer(ctx, careerID, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, canvas.ErrCourseNotInCareer
		}
		return nil, fmt.Errorf("получение курса %s карьеры %s: %w", courseID, careerID, err)
	}
	return course, nil
}

// UserPool возвращает пул пользователей, сгруппированный по ролям канваса,
// с фильтрами поиска (подстрока в email или имени) и роли.
func (s *CatalogService) UserPool(ctx context.Context, search string, roleFilter model.Role) ([]canvas.PoolGroup, error) {
	users, err := s.store.Profiles().ListWithRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение пула пользователей: %w", err)
	}
	return canvas.GroupByRole(canvas.FilterPool(users, search, roleFilter)), nil
}

// UserOptions возвращает пользователей заданной роли, за вычетом
// перечисленных id — кандидатов для кнопок добавления на канвасе.
func (s *CatalogService) UserOptions(ctx context.Context, role model.Role, excludeUserIDs []string) ([]model.UserWithRole, error) {
	users, err := s.store.Profiles().ListWithRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}

	excluded := make(map[string]struct{}, len(excludeUserIDs))
	for _, id := range excludeUserIDs {
		excluded[id] = struct{}{}
	}

	options := make([]model.UserWithRole, 0)
	for _, u := range users {
		if u.Role != role {
			continue
		}
		if _, ok := excluded[u.ID]; ok {
			continue
		}
		options = append(options, u)
	}
	return options, nil
}

// ResolveUser возвращает пользователя пула по id (подтверждение drop'а).
func (s *CatalogService) ResolveUser(ctx context.Context, userID string) (model.UserWithRole, bool, error) {
	users, err := s.store.Profiles().ListWithRoles(ctx)
	if err != nil {
		return model.UserWithRole{}, false, fmt.Errorf("получение пользователей: %w", err)
	}
	for _, u := range users {
		if u.ID == userID {
			return u, true, nil
		}
	}
	return model.UserWithRole{}, false, nil
}
