// teams.go — обработчики чтения списка команд.
// Мутации команд идут только через сессии канваса (canvas.go).
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListTeams возвращает страницу активных команд.
// GET /api/v1/teams?limit=...&offset=...
func (h *APIHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)

	teams, err := h.teams.List(r.Context(), limit, offset)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"teams":  toTeamViews(teams),
		"limit":  limit,
		"offset": offset,
	})
}

// GetTeam возвращает одну команду по UUID.
// GET /api/v1/teams/{teamID}
func (h *APIHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	team, err := h.teams.Get(r.Context(), chi.URLParam(r, "teamID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTeamView(team))
}
