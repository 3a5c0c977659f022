package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/futurepaul/popow/internal/domain/model"
	"github.com/futurepaul/popow/pkg/metrics"
)

type healthResponse struct {
	Status string `json:"status"`
	State  string `json:"state"`
}

// HandleHealth handles GET /healthz. It is 200 only while connected to the
// relay.
func (s *Server) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	state := s.deps.State()
	if state != model.StateConnected {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", State: string(state)})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", State: string(state)})
}

// MetricsHandler serves the custom Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}
