package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mindloom/mindloom/server/internal/api/respond"
	"github.com/mindloom/mindloom/server/internal/events"
)

// EventsHandler streams refresh hints over Server-Sent Events. Each client
// only sees its own user's events; hints carry coarse metadata, never record
// content.
type EventsHandler struct {
	bus *events.Bus
}

func NewEventsHandler(bus *events.Bus) *EventsHandler { return &EventsHandler{bus: bus} }

// StreamEvents GET /api/insights/events
func (h *EventsHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		respond.WriteInternalError(w, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, cancel := h.bus.Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, open := <-ch:
			if !open {
				return
			}
			if evt.UserID != actor.UserID {
				continue
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Kind, payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
