package api

import (
	"net/http"

	"github.com/futurepaul/popow/internal/domain/types"
)

type statsResponse struct {
	State string `json:"state"`
	types.Stats
}

// HandleStats handles GET /stats.
func (s *Server) HandleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statsResponse{
		State: string(s.deps.State()),
		Stats: toStats(s.deps.Stats()),
	})
}
