// handler.go — основной обработчик JSON API Admin Module.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/arturkryukov/skillhub/admin-module/internal/domain/canvas"
	"github.com/arturkryukov/skillhub/admin-module/internal/domain/model"
	"github.com/arturkryukov/skillhub/admin-module/internal/notify"
	"github.com/arturkryukov/skillhub/admin-module/internal/session"
)

// TeamCommitter — движок сохранения команд (service.TeamService).
type TeamCommitter interface {
	Create(ctx context.Context, m *canvas.Model, createdBy string) (*model.Team, error)
	Update(ctx context.Context, m *canvas.Model) (*model.Team, error)
	Archive(ctx context.Context, teamID string) error
	Get(ctx context.Context, teamID string) (*model.Team, error)
	List(ctx context.Context, limit, offset int) ([]*model.Team, error)
}

// CanvasLoader — гидрация канваса из сохранённой команды (service.CanvasLoader).
type CanvasLoader interface {
	LoadForEdit(ctx context.Context, teamID string) (*canvas.Model, error)
}

// Catalog — справочные выборки (service.CatalogService).
type Catalog interface {
	Careers(ctx context.Context) ([]*model.Career, error)
	Career(ctx context.Context, id string) (*model.Career, error)
	CourseInCareer(ctx context.Context, careerID, courseID string) (*model.Course, error)
	CourseOptions(ctx context.Context, careerID string, excludeCourseIDs []string) ([]*model.Course, error)
	UserPool(ctx context.Context, search string, roleFilter model.Role) ([]canvas.PoolGroup, error)
	UserOptions(ctx context.Context, role model.Role, excludeUserIDs []string) ([]model.UserWithRole, error)
	ResolveUser(ctx context.Context, userID string) (model.UserWithRole, bool, error)
}

// APIHandler — основной обработчик API Admin Module.
type APIHandler struct {
	health   *HealthHandler
	sessions *session.Store
	loader   CanvasLoader
	teams    TeamCommitter
	catalog  Catalog
	broker   *notify.Broker
	logger   *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	sessions *session.Store,
	loader CanvasLoader,
	teams TeamCommitter,
	catalog Catalog,
	broker *notify.Broker,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:   health,
		sessions: sessions,
		loader:   loader,
		teams:    teams,
		catalog:  catalog,
		broker:   broker,
		logger:   logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// paginationParams извлекает limit/offset из query и нормализует их.
func paginationParams(r *http.Request) (int, int) {
	l := 100
	o := 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			l = v
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			o = v
		}
	}

	if l < 1 {
		l = 1
	}
	if l > 1000 {
		l = 1000
	}
	if o < 0 {
		o = 0
	}
	return l, o
}
