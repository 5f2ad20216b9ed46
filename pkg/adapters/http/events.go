package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aretw0/blocks/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// SubscribeEvents streams the mutation and persistence events of one page
// as Server-Sent Events. Slow clients miss events rather than stall the
// session.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	if s.Events == nil {
		s.writeJSON(w, http.StatusNotImplemented, errorBody("event stream not configured", ""))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeJSON(w, http.StatusInternalServerError, errorBody("streaming not supported", ""))
		return
	}

	pageID := chi.URLParam(r, "id")
	events := s.Events.Subscribe(r.Context(), pageID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.Logger.Debug("sse subscribed", "page_id", pageID)

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Debug("sse client disconnected", "page_id", pageID)
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				s.Logger.Warn("sse encode failed", "err", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventName(event), data)
			flusher.Flush()
		}
	}
}

func eventName(event any) string {
	switch e := event.(type) {
	case *domain.MutationEvent:
		return string(e.Type)
	case *domain.PersistEvent:
		return string(e.Type)
	default:
		return "message"
	}
}
