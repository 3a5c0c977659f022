package api

import (
	"net/http"
)

// HandleRanked handles GET /ranked?limit=N.
func (s *Server) HandleRanked(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_ranked"
	n, err := s.parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}
	evs, err := s.deps.TopN(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, toEntries(evs, 1))
}
