package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/arturkryukov/skillhub/admin-module/internal/domain/model"
)

// CareerRepository — чтение каталогов careers, courses и линк-таблицы
// career_courses. Admin Module эти таблицы не пишет — ими владеют
// CRUD-редакторы контента.
type CareerRepository interface {
	// GetByID возвращает карьеру по UUID.
	GetByID(ctx context.Context, id string) (*model.Career, error)
	// List возвращает все карьеры, упорядоченные по имени (CareerSelector).
	List(ctx context.Context) ([]*model.Career, error)
	// ListCourses возвращает живые курсы карьеры (career_courses.deleted_at IS NULL).
	// publishedOnly — отдавать только опубликованные курсы (путь создания).
	ListCourses(ctx context.Context, careerID string, publishedOnly bool) ([]*model.Course, error)
	// CourseInCareer возвращает курс, если он привязан к карьере живой
	// записью career_courses. Чужой или отсутствующий курс — ErrNotFound.
	CourseInCareer(ctx context.Context, careerID, courseID string) (*model.Course, error)
}

// careerRepo — реализация CareerRepository.
type careerRepo struct {
	db DBTX
}

// NewCareerRepository создаёт репозиторий каталога карьер.
func NewCareerRepository(db DBTX) CareerRepository {
	return &careerRepo{db: db}
}

const careerColumns = `id, name, slug, icon, color, status`

func (r *careerRepo) GetByID(ctx context.Context, id string) (*model.Career, error) {
	query := fmt.Sprintf(`SELECT %s FROM careers WHERE id = $1`, careerColumns)
	c := &model.Career{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Slug, &c.Icon, &c.Color, &c.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения карьеры: %w", err)
	}
	return c, nil
}

func (r *careerRepo) List(ctx context.Context) ([]*model.Career, error) {
	query := fmt.Sprintf(`SELECT %s FROM careers ORDER BY name`, careerColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка карьер: %w", err)
	}
	defer rows.Close()

	var result []*model.Career
	for rows.Next() {
		c := &model.Career{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Icon, &c.Color, &c.Status); err != nil {
			return nil, fmt.Errorf("ошибка сканирования карьеры: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *careerRepo) ListCourses(ctx context.Context, careerID string, publishedOnly bool) ([]*model.Course, error) {
	query := `
		SELECT c.id, c.name, c.slug, c.icon, c.status
		FROM courses c
		JOIN career_courses cc ON cc.course_id = c.id
		WHERE cc.career_id = $1 AND cc.deleted_at IS NULL`
	args := []any{careerID}

	if publishedOnly {
		query += ` AND c.status = $2`
		args = append(args, model.StatusPublished)
	}
	query += ` ORDER BY c.name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения курсов карьеры: %w", err)
	}
	defer rows.Close()

	var result []*model.Course
	for rows.Next() {
		c := &model.Course{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Icon, &c.Status); err != nil {
			return nil, fmt.Errorf("ошибка сканирования курса: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *careerRepo) CourseInCareer(ctx context.Context, careerID, courseID string) (*model.Course, error) {
	query := `
		SELECT c.id, c.name, c.slug, c.icon, c.status
		FROM courses c
		JOIN career_courses cc ON cc.course_id = c.id
		WHERE cc.career_id = $1 AND cc.course_id = $2 AND cc.deleted_at IS NULL`
	c := &model.Course{}
	err := r.db.QueryRow(ctx, query, careerID, courseID).Scan(&c.ID, &c.Name, &c.Slug, &c.Icon, &c.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения курса карьеры: %w", err)
	}
	return c, nil
}
