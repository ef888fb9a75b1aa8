// canvas.go — обработчики сессий канваса команд.
// Канвас — серверное состояние: клиент открывает сессию, шлёт интенты
// (переименование, назначения, drag-and-drop) и получает в ответ полный
// снимок состояния. Коммит в БД происходит только по явному save.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/arturkryukov/skillhub/admin-module/internal/api/errors"
	"github.com/arturkryukov/skillhub/admin-module/internal/api/middleware"
	"github.com/arturkryukov/skillhub/admin-module/internal/domain/canvas"
	"github.com/arturkryukov/skillhub/admin-module/internal/domain/model"
	"github.com/arturkryukov/skillhub/admin-module/internal/service"
	"github.com/arturkryukov/skillhub/admin-module/internal/session"
)

// openCanvasRequest — тело запроса открытия сессии канваса.
// Пустое team_id — режим create, иначе гидрация сохранённой команды.
type openCanvasRequest struct {
	TeamID string `json:"team_id,omitempty"`
}

// intentRequest — один интент редактирования канваса.
// Набор значимых полей зависит от типа интента.
type intentRequest struct {
	Type         string `json:"type"`
	Name         string `json:"name,omitempty"`
	CareerID     string `json:"career_id,omitempty"`
	CourseID     string `json:"course_id,omitempty"`
	UserID       string `json:"user_id,omitempty"`
	AssignmentID string `json:"assignment_id,omitempty"`
	Zone         string `json:"zone,omitempty"`
}

// saveResponse — результат коммита канваса.
type saveResponse struct {
	Team  teamView        `json:"team"`
	State canvasStateView `json:"state"`
}

// OpenCanvas открывает новую сессию канваса.
// POST /api/v1/canvas
func (h *APIHandler) OpenCanvas(w http.ResponseWriter, r *http.Request) {
	var req openCanvasRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apierrors.ValidationError(w, "Некорректное тело запроса: "+err.Error())
			return
		}
	}

	ownerID := middleware.SubjectFromContext(r.Context())

	var m *canvas.Model
	if req.TeamID == "" {
		m = canvas.New()
	} else {
		loaded, err := h.loader.LoadForEdit(r.Context(), req.TeamID)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		m = loaded
	}

	s := h.sessions.Open(ownerID, m)
	state, err := sessionState(s)
	if err != nil {
		apierrors.InternalError(w, "Не удалось прочитать состояние сессии")
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

// GetCanvas возвращает текущее состояние канваса.
// GET /api/v1/canvas/{sessionID}
func (h *APIHandler) GetCanvas(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	state, err := sessionState(s)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// CloseCanvas закрывает сессию канваса без сохранения.
// DELETE /api/v1/canvas/{sessionID}
func (h *APIHandler) CloseCanvas(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.sessions.Close(s.ID)
	w.WriteHeader(http.StatusNoContent)
}

// ApplyIntent применяет один интент редактирования и возвращает
// обновлённое состояние канваса.
// POST /api/v1/canvas/{sessionID}/intents
func (h *APIHandler) ApplyIntent(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req intentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса: "+err.Error())
		return
	}

	var state canvasStateView
	err := s.Do(func(m *canvas.Model, drag *canvas.DropController) error {
		if err := h.applyIntent(r, m, drag, req); err != nil {
			return err
		}
		state = toCanvasState(s.ID, m, drag)
		return nil
	})
	if err != nil {
		h.writeIntentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// applyIntent выполняет интент над моделью. Вызывается под мьютексом сессии.
func (h *APIHandler) applyIntent(r *http.Request, m *canvas.Model, drag *canvas.DropController, req intentRequest) error {
	ctx := r.Context()
	assignedBy := middleware.SubjectFromContext(ctx)

	switch req.Type {
	case "rename":
		m.Rename(req.Name)
		return nil

	case "select_career":
		career, err := h.catalog.Career(ctx, req.CareerID)
		if err != nil {
			return err
		}
		m.SelectCareer(*career)
		return nil

	case "add_course":
		// Интент приходит по сети: принадлежность курса карьере проверяется
		// по career_courses, а не доверяется клиенту.
		if m.Career == nil {
			return canvas.ErrNoCareer
		}
		course, err := h.catalog.CourseInCareer(ctx, m.Career.ID, req.CourseID)
		if err != nil {
			return err
		}
		return m.AddCourse(*course)

	case "remove_course":
		return m.RemoveCourse(req.CourseID)

	case "add_super_moderator":
		u, err := h.resolveCanvasUser(ctx, req.UserID)
		if err != nil {
			return err
		}
		return m.AddSuperModerator(u, assignedBy)

	case "remove_super_moderator":
		return m.RemoveSuperModerator(req.AssignmentID)

	case "add_senior_moderator":
		u, err := h.resolveCanvasUser(ctx, req.UserID)
		if err != nil {
			return err
		}
		return m.AddSeniorModerator(req.CourseID, u, assignedBy)

	case "remove_senior_moderator":
		return m.RemoveSeniorModerator(req.CourseID, req.AssignmentID)

	case "set_default_manager":
		return m.SetDefaultManager(req.CourseID, req.AssignmentID)

	case "add_moderator":
		u, err := h.resolveCanvasUser(ctx, req.UserID)
		if err != nil {
			return err
		}
		return m.AddModerator(req.CourseID, u, assignedBy)

	case "remove_moderator":
		return m.RemoveModerator(req.CourseID, req.AssignmentID)

	case "drag_begin":
		u, err := h.resolveCanvasUser(ctx, req.UserID)
		if err != nil {
			return err
		}
		drag.BeginDrag(u.ID, u.Role)
		return nil

	case "drag_cancel":
		drag.CancelDrag()
		return nil

	case "drop":
		zone, err := canvas.ParseZone(req.Zone)
		if err != nil {
			return errUnknownZone
		}
		// Неудачный drop — молчаливый no-op: контроллер сам сбрасывает
		// источник, клиент получает актуальное состояние.
		drag.Drop(m, zone, func(userID string) (model.UserWithRole, bool) {
			u, ok, err := h.catalog.ResolveUser(ctx, userID)
			if err != nil || !ok {
				return model.UserWithRole{}, false
			}
			return u, true
		}, assignedBy)
		return nil

	default:
		return errUnknownIntent
	}
}

// resolveCanvasUser разыменовывает пользователя пула для интента назначения.
func (h *APIHandler) resolveCanvasUser(ctx context.Context, userID string) (model.UserWithRole, error) {
	u, ok, err := h.catalog.ResolveUser(ctx, userID)
	if err != nil {
		return model.UserWithRole{}, err
	}
	if !ok {
		return model.UserWithRole{}, errUserNotInPool
	}
	return u, nil
}

// Ошибки уровня обработчиков интентов.
var (
	errUnknownIntent = errors.New("неизвестный тип интента")
	errUnknownZone   = errors.New("некорректная зона канваса")
	errUserNotInPool = errors.New("пользователь не найден в пуле")
)

// Save коммитит канвас: создание команды в режиме create, diff-сохранение
// в режиме edit. На время коммита интенты по сессии блокируются.
// Успешный коммит закрывает сессию — клиент получает команду и финальный
// снимок, дальнейшее редактирование идёт через новую сессию.
// POST /api/v1/canvas/{sessionID}/save
func (h *APIHandler) Save(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := s.BeginSave(); err != nil {
		apierrors.SaveInProgress(w, "По этой сессии уже выполняется сохранение")
		return
	}

	// Пока стоит флаг saving, интенты отклоняются — модель заморожена,
	// прямой доступ к ней безопасен.
	var (
		team *model.Team
		err  error
	)
	switch s.Model.Mode {
	case canvas.ModeCreate:
		team, err = h.teams.Create(r.Context(), s.Model, middleware.SubjectFromContext(r.Context()))
	default:
		team, err = h.teams.Update(r.Context(), s.Model)
	}

	if err != nil {
		s.EndSave()
		h.writeServiceError(w, err)
		return
	}

	// Снимок снимается ещё под флагом saving, затем сессия уничтожается.
	state := toCanvasState(s.ID, s.Model, &s.Drag)
	s.EndSave()
	h.sessions.Close(s.ID)

	writeJSON(w, http.StatusOK, saveResponse{Team: toTeamView(team), State: state})
}

// ArchiveTeam архивирует команду сессии и закрывает сессию.
// Назначения остаются в БД для истории.
// POST /api/v1/canvas/{sessionID}/archive
func (h *APIHandler) ArchiveTeam(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var teamID string
	err := s.Do(func(m *canvas.Model, _ *canvas.DropController) error {
		if m.Mode != canvas.ModeEdit || m.TeamID == "" {
			return errNotPersisted
		}
		teamID = m.TeamID
		return nil
	})
	if err != nil {
		h.writeIntentError(w, err)
		return
	}

	if err := h.teams.Archive(r.Context(), teamID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.sessions.Close(s.ID)
	w.WriteHeader(http.StatusNoContent)
}

var errNotPersisted = errors.New("команда ещё не сохранена")

// CourseOptions возвращает опубликованные курсы карьеры, ещё не добавленные
// на канвас.
// GET /api/v1/canvas/{sessionID}/course-options
func (h *APIHandler) CourseOptions(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var (
		careerID string
		exclude  []string
	)
	err := s.Do(func(m *canvas.Model, _ *canvas.DropController) error {
		if m.Career == nil {
			return canvas.ErrNoCareer
		}
		careerID = m.Career.ID
		exclude = m.CourseIDs()
		return nil
	})
	if err != nil {
		h.writeIntentError(w, err)
		return
	}

	courses, err := h.catalog.CourseOptions(r.Context(), careerID, exclude)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"courses": toCourseViews(courses)})
}

// UserOptions возвращает кандидатов для слота: пользователей с ролью слота,
// ещё не занимающих эту зону канваса.
// GET /api/v1/canvas/{sessionID}/user-options?role=...&course_id=...
func (h *APIHandler) UserOptions(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	role, rok := model.ParseRole(r.URL.Query().Get("role"))
	if !rok || !role.IsCanvasRole() {
		apierrors.ValidationError(w, "Параметр role должен быть ролью канваса")
		return
	}
	courseID := r.URL.Query().Get("course_id")
	if role.IsCourseRole() && courseID == "" {
		apierrors.ValidationError(w, "Для ролей курса требуется course_id")
		return
	}

	var exclude []string
	err := s.Do(func(m *canvas.Model, _ *canvas.DropController) error {
		switch role {
		case model.RoleSuperModerator:
			for _, slot := range m.SuperModerators {
				exclude = append(exclude, slot.UserID)
			}
		default:
			node := m.CourseNode(courseID)
			if node == nil {
				return canvas.ErrCourseNotFound
			}
			slots := node.SeniorModerators
			if role == model.RoleModerator {
				slots = node.Moderators
			}
			for _, slot := range slots {
				exclude = append(exclude, slot.UserID)
			}
		}
		return nil
	})
	if err != nil {
		h.writeIntentError(w, err)
		return
	}

	users, err := h.catalog.UserOptions(r.Context(), role, exclude)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	views := make([]poolUserView, 0, len(users))
	for _, u := range users {
		views = append(views, toPoolUserView(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": views})
}

// session извлекает сессию канваса из URL с проверкой владельца.
// При ошибке пишет ответ и возвращает ok=false.
func (h *APIHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	s, err := h.sessions.Get(id, middleware.SubjectFromContext(r.Context()))
	if err != nil {
		h.writeSessionError(w, err)
		return nil, false
	}
	return s, true
}

// writeSessionError транслирует ошибки хранилища сессий в HTTP-ответ.
func (h *APIHandler) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		apierrors.NotFound(w, "Сессия канваса не найдена или истекла")
	case errors.Is(err, session.ErrForbidden):
		apierrors.Forbidden(w, "Сессия канваса принадлежит другому пользователю")
	case errors.Is(err, session.ErrSaveInProgress):
		apierrors.SaveInProgress(w, "По этой сессии уже выполняется сохранение")
	default:
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}

// writeIntentError транслирует ошибки интентов канваса в HTTP-ответ.
// Нарушения инвариантов «последний модератор» — конфликт состояния (409),
// остальные доменные ошибки — некорректный запрос (400).
func (h *APIHandler) writeIntentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, canvas.ErrLastSuperModerator),
		errors.Is(err, canvas.ErrLastSeniorModerator):
		apierrors.Conflict(w, err.Error())
	case errors.Is(err, canvas.ErrRoleMismatch),
		errors.Is(err, canvas.ErrNoCareer),
		errors.Is(err, canvas.ErrCourseNotFound),
		errors.Is(err, canvas.ErrCourseNotInCareer),
		errors.Is(err, canvas.ErrAssignmentNotFound),
		errors.Is(err, errUnknownIntent),
		errors.Is(err, errUnknownZone),
		errors.Is(err, errUserNotInPool),
		errors.Is(err, errNotPersisted):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, session.ErrSaveInProgress):
		apierrors.SaveInProgress(w, "По этой сессии уже выполняется сохранение")
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, "Ресурс не найден")
	default:
		h.logger.Error("Ошибка применения интента", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}

// writeServiceError транслирует ошибки сервисного слоя в HTTP-ответ.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, "Ресурс не найден")
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, "Команда не проходит проверку инвариантов")
	case errors.Is(err, service.ErrTeamNameConflict):
		apierrors.Conflict(w, "Название команды уже занято для этой карьеры")
	case errors.Is(err, service.ErrTeamArchived):
		apierrors.TeamArchived(w, "Команда архивирована и недоступна для редактирования")
	case errors.Is(err, service.ErrNoBaseline):
		apierrors.ValidationError(w, "Канвас не загружен из сохранённой команды")
	default:
		h.logger.Error("Ошибка сервисного слоя", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}
