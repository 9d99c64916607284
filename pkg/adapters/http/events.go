package http

import (
	"fmt"
	"net/http"
)

// SubscribeEvents handles the GET /events request (SSE).
// Every changed library job is sent as a data event with its ID.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, s.Logger, http.StatusInternalServerError, "streaming not supported", nil)
		return
	}

	events, err := s.Engine.Watch(r.Context())
	if err != nil {
		writeError(w, s.Logger, http.StatusNotImplemented, fmt.Sprintf("watch: %v", err), nil)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.Logger.Info("SSE: subscribing to library changes")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE client disconnected")
			return
		case id, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: job\ndata: %s\n\n", id)
			flusher.Flush()
		}
	}
}
