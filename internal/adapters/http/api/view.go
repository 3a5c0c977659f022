package api

import (
	"net/http"
	"strconv"
)

// parseLimit reads the optional limit query parameter. Missing means max.
func (s *Server) parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return s.maxLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, ErrBadRequest
	}
	if n > s.maxLimit {
		return 0, ErrLimitExceeded
	}
	return n, nil
}

// HandleView handles GET /view?limit=N.
func (s *Server) HandleView(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_view"
	limit, err := s.parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, toView(s.deps.View(r.Context()), limit))
}
