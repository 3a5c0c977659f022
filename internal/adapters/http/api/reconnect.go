package api

import (
	"net/http"
)

// HandleReconnect handles POST /reconnect: it restarts ingestion from a
// fresh snapshot. On failure the response is 502 with the view, whose
// last_error explains why.
func (s *Server) HandleReconnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := http.StatusOK
	if err := s.deps.Restart(ctx); err != nil {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, toView(s.deps.View(ctx), s.maxLimit))
}
