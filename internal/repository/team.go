package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/arturkryukov/skillhub/admin-module/internal/domain/model"
)

// TeamRepository — доступ к таблице teams.
// Уникальность (name, career_id) среди неархивированных строк обеспечивает
// частичный уникальный индекс; Create возвращает ErrConflict при коллизии,
// ретраи с суффиксом имени — обязанность сервисного слоя.
type TeamRepository interface {
	// Create вставляет команду. При нарушении уникальности (name, career_id) — ErrConflict.
	Create(ctx context.Context, team *model.Team) error
	// GetByID возвращает команду по UUID.
	GetByID(ctx context.Context, id string) (*model.Team, error)
	// List возвращает неархивированные команды, упорядоченные по имени.
	List(ctx context.Context, limit, offset int) ([]*model.Team, error)
	// Update обновляет name и career_id команды.
	Update(ctx context.Context, team *model.Team) error
	// Archive проставляет archived_at = now(). Строки назначений не трогаются.
	Archive(ctx context.Context, id string) error
}

// teamRepo — реализация TeamRepository.
type teamRepo struct {
	db DBTX
}

// NewTeamRepository создаёт репозиторий команд.
func NewTeamRepository(db DBTX) TeamRepository {
	return &teamRepo{db: db}
}

const teamColumns = `id, name, career_id, created_by, created_at, updated_at, archived_at`

// scanTeam сканирует строку результата в модель Team.
func scanTeam(row pgx.Row) (*model.Team, error) {
	t := &model.Team{}
	err := row.Scan(
		&t.ID, &t.Name, &t.CareerID, &t.CreatedBy,
		&t.CreatedAt, &t.UpdatedAt, &t.ArchivedAt,
	)
	return t, err
}

func (r *teamRepo) Create(ctx context.Context, team *model.Team) error {
	query := `
		INSERT INTO teams (id, name, career_id, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		team.ID, team.Name, team.CareerID, team.CreatedBy,
	).Scan(&team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: команда с таким именем уже существует для этой карьеры", ErrConflict)
		}
		return fmt.Errorf("ошибка создания команды: %w", err)
	}
	return nil
}

func (r *teamRepo) GetByID(ctx context.Context, id string) (*model.Team, error) {
	query := fmt.Sprintf(`SELECT %s FROM teams WHERE id = $1`, teamColumns)
	t, err := scanTeam(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения команды: %w", err)
	}
	return t, nil
}

func (r *teamRepo) List(ctx context.Context, limit, offset int) ([]*model.Team, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM teams
		WHERE archived_at IS NULL
		ORDER BY name
		LIMIT $1 OFFSET $2`, teamColumns)

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка команд: %w", err)
	}
	defer rows.Close()

	var result []*model.Team
	for rows.Next() {
		t := &model.Team{}
		if err := rows.Scan(
			&t.ID, &t.Name, &t.CareerID, &t.CreatedBy,
			&t.CreatedAt, &t.UpdatedAt, &t.ArchivedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования команды: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (r *teamRepo) Update(ctx context.Context, team *model.Team) error {
	query := `
		UPDATE teams
		SET name = $2, career_id = $3, updated_at = now()
		WHERE id = $1 AND archived_at IS NULL
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query, team.ID, team.Name, team.CareerID).Scan(&team.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: команда с таким именем уже существует для этой карьеры", ErrConflict)
		}
		return fmt.Errorf("ошибка обновления команды: %w", err)
	}
	return nil
}

func (r *teamRepo) Archive(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE teams SET archived_at = now(), updated_at = now()
		 WHERE id = $1 AND archived_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("ошибка архивации команды: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
