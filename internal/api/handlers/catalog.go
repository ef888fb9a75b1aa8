// catalog.go — обработчики справочников: карьеры и пул пользователей.
package handlers

import (
	"net/http"

	apierrors "github.com/arturkryukov/skillhub/admin-module/internal/api/errors"
	"github.com/arturkryukov/skillhub/admin-module/internal/domain/model"
)

// ListCareers возвращает карьеры каталога для селектора канваса.
// GET /api/v1/careers
func (h *APIHandler) ListCareers(w http.ResponseWriter, r *http.Request) {
	careers, err := h.catalog.Careers(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	views := make([]careerView, 0, len(careers))
	for _, c := range careers {
		views = append(views, *toCareerView(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"careers": views})
}

// UserPool возвращает пул пользователей, сгруппированный по ролям.
// GET /api/v1/users/pool?search=...&role=...
func (h *APIHandler) UserPool(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var roleFilter model.Role
	if raw := q.Get("role"); raw != "" {
		role, ok := model.ParseRole(raw)
		if !ok || !role.IsCanvasRole() {
			apierrors.ValidationError(w, "Параметр role должен быть ролью канваса")
			return
		}
		roleFilter = role
	}

	groups, err := h.catalog.UserPool(r.Context(), q.Get("search"), roleFilter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": toPoolGroupViews(groups)})
}
