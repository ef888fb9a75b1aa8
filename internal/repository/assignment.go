package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/arturkryukov/skillhub/admin-module/internal/domain/model"
)

// CareerAssignmentRepository — доступ к таблице career_assignments
// (супермодераторы команды). Диффовое удаление выражено через DeleteExcept:
// остаётся только явно перечисленное, пустой список означает «удалить всё».
type CareerAssignmentRepository interface {
	// ListByTeam возвращает назначения супермодераторов команды.
	ListByTeam(ctx context.Context, teamID string) ([]model.CareerAssignment, error)
	// InsertMany вставляет назначения одним batch'ем.
	InsertMany(ctx context.Context, assignments []model.CareerAssignment) error
	// DeleteExcept удаляет все назначения команды, кроме перечисленных id.
	DeleteExcept(ctx context.Context, teamID string, keptIDs []string) error
	// DeleteAllForTeam удаляет все назначения команды (сброс при смене карьеры).
	DeleteAllForTeam(ctx context.Context, teamID string) error
}

// CourseAssignmentRepository — доступ к таблице course_assignments
// (старшие модераторы и модераторы курсов команды).
type CourseAssignmentRepository interface {
	// ListByTeam возвращает назначения курсов команды.
	ListByTeam(ctx context.Context, teamID string) ([]model.CourseAssignment, error)
	// InsertMany вставляет назначения одним batch'ем.
	InsertMany(ctx context.Context, assignments []model.CourseAssignment) error
	// DeleteExcept удаляет назначения команды, чей курс не входит в keptCourseIDs
	// либо чей id не входит в keptIDs.
	DeleteExcept(ctx context.Context, teamID string, keptCourseIDs, keptIDs []string) error
	// DeleteAllForTeam удаляет все назначения команды (сброс при смене карьеры).
	DeleteAllForTeam(ctx context.Context, teamID string) error
	// SetDefaultManager выставляет флаг is_default_manager у назначения.
	SetDefaultManager(ctx context.Context, assignmentID string, isDefault bool) error
}

// careerAssignmentRepo — реализация CareerAssignmentRepository.
type careerAssignmentRepo struct {
	db DBTX
}

// NewCareerAssignmentRepository создаёт репозиторий career_assignments.
func NewCareerAssignmentRepository(db DBTX) CareerAssignmentRepository {
	return &careerAssignmentRepo{db: db}
}

func (r *careerAssignmentRepo) ListByTeam(ctx context.Context, teamID string) ([]model.CareerAssignment, error) {
	query := `
		SELECT id, user_id, career_id, team_id, assigned_by, assigned_at
		FROM career_assignments
		WHERE team_id = $1
		ORDER BY assigned_at`

	rows, err := r.db.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения career assignments: %w", err)
	}
	defer rows.Close()

	var result []model.CareerAssignment
	for rows.Next() {
		var a model.CareerAssignment
		if err := rows.Scan(&a.ID, &a.UserID, &a.CareerID, &a.TeamID, &a.AssignedBy, &a.AssignedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования career assignment: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *careerAssignmentRepo) InsertMany(ctx context.Context, assignments []model.CareerAssignment) error {
	if len(assignments) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, a := range assignments {
		batch.Queue(`
			INSERT INTO career_assignments (id, user_id, career_id, team_id, assigned_by)
			VALUES ($1, $2, $3, $4, $5)`,
			a.ID, a.UserID, a.CareerID, a.TeamID, a.AssignedBy,
		)
	}
	if err := sendBatch(ctx, r.db, batch); err != nil {
		return fmt.Errorf("ошибка вставки career assignments: %w", err)
	}
	return nil
}

func (r *careerAssignmentRepo) DeleteExcept(ctx context.Context, teamID string, keptIDs []string) error {
	// id <> ALL над пустым массивом истинен для любой строки:
	// пустой kept удаляет все назначения команды.
	_, err := r.db.Exec(ctx,
		`DELETE FROM career_assignments WHERE team_id = $1 AND id <> ALL($2)`,
		teamID, keptIDs)
	if err != nil {
		return fmt.Errorf("ошибка удаления career assignments: %w", err)
	}
	return nil
}

func (r *careerAssignmentRepo) DeleteAllForTeam(ctx context.Context, teamID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM career_assignments WHERE team_id = $1`, teamID)
	if err != nil {
		return fmt.Errorf("ошибка удаления career assignments команды: %w", err)
	}
	return nil
}

// courseAssignmentRepo — реализация CourseAssignmentRepository.
type courseAssignmentRepo struct {
	db DBTX
}

// NewCourseAssignmentRepository создаёт репозиторий course_assignments.
func NewCourseAssignmentRepository(db DBTX) CourseAssignmentRepository {
	return &courseAssignmentRepo{db: db}
}

func (r *courseAssignmentRepo) ListByTeam(ctx context.Context, teamID string) ([]model.CourseAssignment, error) {
	query := `
		SELECT id, user_id, course_id, team_id, role, is_default_manager, assigned_by, assigned_at
		FROM course_assignments
		WHERE team_id = $1
		ORDER BY assigned_at`

	rows, err := r.db.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения course assignments: %w", err)
	}
	defer rows.Close()

	var result []model.CourseAssignment
	for rows.Next() {
		var a model.CourseAssignment
		var roleStr string
		if err := rows.Scan(&a.ID, &a.UserID, &a.CourseID, &a.TeamID, &roleStr,
			&a.IsDefaultManager, &a.AssignedBy, &a.AssignedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования course assignment: %w", err)
		}
		role, ok := model.ParseRole(roleStr)
		if !ok || !role.IsCourseRole() {
			continue
		}
		a.Role = role
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *courseAssignmentRepo) InsertMany(ctx context.Context, assignments []model.CourseAssignment) error {
	if len(assignments) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, a := range assignments {
		batch.Queue(`
			INSERT INTO course_assignments (id, user_id, course_id, team_id, role, is_default_manager, assigned_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			a.ID, a.UserID, a.CourseID, a.TeamID, string(a.Role), a.IsDefaultManager, a.AssignedBy,
		)
	}
	if err := sendBatch(ctx, r.db, batch); err != nil {
		return fmt.Errorf("ошибка вставки course assignments: %w", err)
	}
	return nil
}

func (r *courseAssignmentRepo) DeleteExcept(ctx context.Context, teamID string, keptCourseIDs, keptIDs []string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM course_assignments
		 WHERE team_id = $1 AND (NOT (course_id = ANY($2)) OR id <> ALL($3))`,
		teamID, keptCourseIDs, keptIDs)
	if err != nil {
		return fmt.Errorf("ошибка удаления course assignments: %w", err)
	}
	return nil
}

func (r *courseAssignmentRepo) DeleteAllForTeam(ctx context.Context, teamID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM course_assignments WHERE team_id = $1`, teamID)
	if err != nil {
		return fmt.Errorf("ошибка удаления course assignments команды: %w", err)
	}
	return nil
}

func (r *courseAssignmentRepo) SetDefaultManager(ctx context.Context, assignmentID string, isDefault bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE course_assignments SET is_default_manager = $2
		 WHERE id = $1 AND role = 'senior_moderator'`,
		assignmentID, isDefault)
	if err != nil {
		return fmt.Errorf("ошибка обновления default manager: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// sendBatch отправляет batch и дожидается результатов всех запросов.
func sendBatch(ctx context.Context, db DBTX, batch *pgx.Batch) error {
	results := db.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: назначение уже существует", ErrConflict)
			}
			return err
		}
	}
	return results.Close()
}
