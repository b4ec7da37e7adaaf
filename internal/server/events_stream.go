package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/rotation/internal/events"
)

const (
	eventBufferSize = 100
	writeTimeout    = 5 * time.Second
)

// EventsStreamHandler streams bus events to websocket clients
type EventsStreamHandler struct {
	manager *events.Manager
	log     zerolog.Logger
}

// NewEventsStreamHandler creates a new events stream handler
func NewEventsStreamHandler(manager *events.Manager, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		manager: manager,
		log:     log.With().Str("component", "events_stream").Logger(),
	}
}

// ServeHTTP handles GET /api/events/ws. The optional types query parameter
// is a comma separated list of event types to receive; replay=true first
// sends the remembered recent events.
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to accept websocket connection")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	typesFilter := r.URL.Query().Get("types")
	var allowedTypes map[events.EventType]bool
	if typesFilter != "" {
		allowedTypes = make(map[events.EventType]bool)
		for _, t := range strings.Split(typesFilter, ",") {
			allowedTypes[events.EventType(strings.TrimSpace(t))] = true
		}
	}

	// Reads are discarded; ctx is cancelled when the client goes away
	ctx := conn.CloseRead(r.Context())

	eventChan := make(chan *events.Event, eventBufferSize)
	unsubscribe := h.manager.Bus().SubscribeAll(func(event *events.Event) {
		if allowedTypes != nil && !allowedTypes[event.Type] {
			return
		}

		// Non-blocking send (drop if channel full)
		select {
		case eventChan <- event:
		default:
			h.log.Warn().
				Str("event_type", string(event.Type)).
				Msg("Event channel full, dropping event")
		}
	})
	defer unsubscribe()

	h.log.Info().Str("types_filter", typesFilter).Msg("Client connected to event stream")

	if replay, _ := strconv.ParseBool(r.URL.Query().Get("replay")); replay {
		for _, event := range h.manager.Recent(allowedTypes) {
			event := event
			if err := h.write(ctx, conn, &event); err != nil {
				h.log.Debug().Err(err).Msg("Failed to replay event, closing stream")
				return
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("Client disconnected from event stream")
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case event := <-eventChan:
			if err := h.write(ctx, conn, event); err != nil {
				h.log.Debug().Err(err).Msg("Failed to write event, closing stream")
				return
			}
		}
	}
}

func (h *EventsStreamHandler) write(ctx context.Context, conn *websocket.Conn, event *events.Event) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, event)
}
