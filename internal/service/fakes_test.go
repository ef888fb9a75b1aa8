// fakes_test.go — in-memory реализация repository.Store для тестов
// сервисного слоя. Фейк журналирует операции записи (ops) и откатывает
// состояние при ошибке внутри InTx, имитируя транзакцию.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/arturkryukov/skillhub/admin-module/internal/domain/model"
	"github.com/arturkryukov/skillhub/admin-module/internal/notify"
	"github.com/arturkryukov/skillhub/admin-module/internal/repository"
)

// errBoom — искусственная ошибка для проверки отката транзакции.
var errBoom = errors.New("boom")

type fakeStore struct {
	teams         map[string]*model.Team
	careers       map[string]*model.Career
	courses       map[string][]*model.Course // careerID → курсы
	users         []model.UserWithRole
	careerAssigns map[string]model.CareerAssignment
	courseAssigns map[string]model.CourseAssignment

	// ops — журнал операций записи в порядке выполнения.
	ops []string
	// createConflicts — сколько первых Teams().Create завершить ErrConflict.
	createConflicts int
	// failCourseInsert — завершать InsertMany курсов ошибкой errBoom.
	failCourseInsert bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		teams:         make(map[string]*model.Team),
		careers:       make(map[string]*model.Career),
		courses:       make(map[string][]*model.Course),
		careerAssigns: make(map[string]model.CareerAssignment),
		courseAssigns: make(map[string]model.CourseAssignment),
	}
}

func (f *fakeStore) Teams() repository.TeamRepository                         { return &fakeTeamRepo{f} }
func (f *fakeStore) Careers() repository.CareerRepository                     { return &fakeCareerRepo{f} }
func (f *fakeStore) Profiles() repository.ProfileRepository                   { return &fakeProfileRepo{f} }
func (f *fakeStore) CareerAssignments() repository.CareerAssignmentRepository { return &fakeCARepo{f} }
func (f *fakeStore) CourseAssignments() repository.CourseAssignmentRepository { return &fakeCourseARepo{f} }

// InTx имитирует транзакцию: при ошибке fn состояние откатывается
// к снимку на момент входа.
func (f *fakeStore) InTx(_ context.Context, fn func(tx repository.Store) error) error {
	teams := make(map[string]*model.Team, len(f.teams))
	for id, t := range f.teams {
		cp := *t
		teams[id] = &cp
	}
	careerAssigns := maps.Clone(f.careerAssigns)
	courseAssigns := maps.Clone(f.courseAssigns)

	if err := fn(f); err != nil {
		f.teams = teams
		f.careerAssigns = careerAssigns
		f.courseAssigns = courseAssigns
		return err
	}
	return nil
}

type fakeTeamRepo struct{ f *fakeStore }

func (r *fakeTeamRepo) Create(_ context.Context, team *model.Team) error {
	r.f.ops = append(r.f.ops, "teams.create")
	if r.f.createConflicts > 0 {
		r.f.createConflicts--
		return repository.ErrConflict
	}
	for _, t := range r.f.teams {
		if t.Name == team.Name && t.CareerID == team.CareerID && !t.IsArchived() {
			return repository.ErrConflict
		}
	}
	cp := *team
	r.f.teams[team.ID] = &cp
	return nil
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id string) (*model.Team, error) {
	t, ok := r.f.teams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTeamRepo) List(_ context.Context, _, _ int) ([]*model.Team, error) {
	var out []*model.Team
	for _, t := range r.f.teams {
		if !t.IsArchived() {
			cp := *t
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *model.Team) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return out, nil
}

func (r *fakeTeamRepo) Update(_ context.Context, team *model.Team) error {
	r.f.ops = append(r.f.ops, "teams.update")
	stored, ok := r.f.teams[team.ID]
	if !ok || stored.IsArchived() {
		return repository.ErrNotFound
	}
	for _, t := range r.f.teams {
		if t.ID != team.ID && t.Name == team.Name && t.CareerID == team.CareerID && !t.IsArchived() {
			return repository.ErrConflict
		}
	}
	stored.Name = team.Name
	stored.CareerID = team.CareerID
	return nil
}

func (r *fakeTeamRepo) Archive(_ context.Context, id string) error {
	r.f.ops = append(r.f.ops, "teams.archive")
	t, ok := r.f.teams[id]
	if !ok || t.IsArchived() {
		return repository.ErrNotFound
	}
	now := time.Now()
	t.ArchivedAt = &now
	return nil
}

type fakeCareerRepo struct{ f *fakeStore }

func (r *fakeCareerRepo) GetByID(_ context.Context, id string) (*model.Career, error) {
	c, ok := r.f.careers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCareerRepo) List(_ context.Context) ([]*model.Career, error) {
	var out []*model.Career
	for _, c := range r.f.careers {
		cp := *c
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *model.Career) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return out, nil
}

func (r *fakeCareerRepo) ListCourses(_ context.Context, careerID string, publishedOnly bool) ([]*model.Course, error) {
	var out []*model.Course
	for _, c := range r.f.courses[careerID] {
		if publishedOnly && c.Status != model.StatusPublished {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeCareerRepo) CourseInCareer(_ context.Context, careerID, courseID string) (*model.Course, error) {
	for _, c := range r.f.courses[careerID] {
		if c.ID == courseID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeProfileRepo struct{ f *fakeStore }

func (r *fakeProfileRepo) ListWithRoles(_ context.Context) ([]model.UserWithRole, error) {
	return slices.Clone(r.f.users), nil
}

type fakeCARepo struct{ f *fakeStore }

func (r *fakeCARepo) ListByTeam(_ context.Context, teamID string) ([]model.CareerAssignment, error) {
	var out []model.CareerAssignment
	for _, a := range r.f.careerAssigns {
		if a.TeamID == teamID {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b model.CareerAssignment) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out, nil
}

func (r *fakeCARepo) InsertMany(_ context.Context, assignments []model.CareerAssignment) error {
	r.f.ops = append(r.f.ops, "career_assignments.insert")
	for _, a := range assignments {
		if _, ok := r.f.careerAssigns[a.ID]; ok {
			return repository.ErrConflict
		}
		r.f.careerAssigns[a.ID] = a
	}
	return nil
}

func (r *fakeCARepo) DeleteExcept(_ context.Context, teamID string, keptIDs []string) error {
	r.f.ops = append(r.f.ops, "career_assignments.delete")
	kept := make(map[string]struct{}, len(keptIDs))
	for _, id := range keptIDs {
		kept[id] = struct{}{}
	}
	for id, a := range r.f.careerAssigns {
		if a.TeamID != teamID {
			continue
		}
		if _, ok := kept[id]; !ok {
			delete(r.f.careerAssigns, id)
		}
	}
	return nil
}

func (r *fakeCARepo) DeleteAllForTeam(_ context.Context, teamID string) error {
	r.f.ops = append(r.f.ops, "career_assignments.delete_all")
	for id, a := range r.f.careerAssigns {
		if a.TeamID == teamID {
			delete(r.f.careerAssigns, id)
		}
	}
	return nil
}

type fakeCourseARepo struct{ f *fakeStore }

func (r *fakeCourseARepo) ListByTeam(_ context.Context, teamID string) ([]model.CourseAssignment, error) {
	var out []model.CourseAssignment
	for _, a := range r.f.courseAssigns {
		if a.TeamID == teamID {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b model.CourseAssignment) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out, nil
}

func (r *fakeCourseARepo) InsertMany(_ context.Context, assignments []model.CourseAssignment) error {
	r.f.ops = append(r.f.ops, "course_assignments.insert")
	if r.f.failCourseInsert {
		return errBoom
	}
	for _, a := range assignments {
		if _, ok := r.f.courseAssigns[a.ID]; ok {
			return repository.ErrConflict
		}
		r.f.courseAssigns[a.ID] = a
	}
	return nil
}

func (r *fakeCourseARepo) DeleteExcept(_ context.Context, teamID string, keptCourseIDs, keptIDs []string) error {
	r.f.ops = append(r.f.ops, "course_assignments.delete")
	keptCourses := make(map[string]struct{}, len(keptCourseIDs))
	for _, id := range keptCourseIDs {
		keptCourses[id] = struct{}{}
	}
	kept := make(map[string]struct{}, len(keptIDs))
	for _, id := range keptIDs {
		kept[id] = struct{}{}
	}
	for id, a := range r.f.courseAssigns {
		if a.TeamID != teamID {
			continue
		}
		_, courseKept := keptCourses[a.CourseID]
		_, rowKept := kept[id]
		if !courseKept || !rowKept {
			delete(r.f.courseAssigns, id)
		}
	}
	return nil
}

func (r *fakeCourseARepo) DeleteAllForTeam(_ context.Context, teamID string) error {
	r.f.ops = append(r.f.ops, "course_assignments.delete_all")
	for id, a := range r.f.courseAssigns {
		if a.TeamID == teamID {
			delete(r.f.courseAssigns, id)
		}
	}
	return nil
}

func (r *fakeCourseARepo) SetDefaultManager(_ context.Context, assignmentID string, isDefault bool) error {
	r.f.ops = append(r.f.ops, "course_assignments.set_default")
	a, ok := r.f.courseAssigns[assignmentID]
	if !ok || a.Role != model.RoleSeniorModerator {
		return repository.ErrNotFound
	}
	a.IsDefaultManager = isDefault
	r.f.courseAssigns[assignmentID] = a
	return nil
}

// sinkRecorder накапливает уведомления для проверок.
type sinkRecorder struct {
	notes []notify.Notification
}

func (s *sinkRecorder) Notify(n notify.Notification) {
	s.notes = append(s.notes, n)
}

// testLogger — тихий логгер для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
