package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/futurepaul/popow/internal/adapters/repository"
)

// HandleRank handles GET /rank/{event_id}.
func (s *Server) HandleRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	id := strings.TrimPrefix(r.URL.Path, "/rank/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, ErrBadRequest))
		return
	}
	rank, ev, err := s.deps.Rank(r.Context(), strings.ToLower(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, toEntry(ev, rank))
}
