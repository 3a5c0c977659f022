package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HandleStream handles GET /stream?limit=N as server-sent events. Each
// "view" event carries the whole view JSON; intermediate views may be
// skipped when the client is slow.
func (s *Server) HandleStream(w http.ResponseWriter, r *http.Request) {
	const op = "api.stream"
	limit, err := s.parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, ErrStreamingFailed))
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	updates := s.deps.Watch(ctx)
	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case v, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(toView(v, limit))
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "event: view\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
