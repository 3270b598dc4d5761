package server

import (
	"encoding/json"
	"net/http"
)

// handleStream handles GET /api/session/{id}/stream. Events are written as
// newline-delimited JSON, one frame per line, until the client disconnects.
// The broker sends a connected frame first and heartbeats on idle.
func (s *TankServer) handleStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.sessions.Get(id); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	s.activity.StreamOpened(id)
	defer s.activity.StreamClosed(id)

	enc := json.NewEncoder(w)
	for evt := range s.broker.Subscribe(r.Context(), id) {
		if err := enc.Encode(evt); err != nil {
			return
		}
		flusher.Flush()
	}
}
