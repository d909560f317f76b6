package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	service "github.com/okian/prizewheel/internal/app"
	"github.com/okian/prizewheel/pkg/logger"
)

const (
	defaultHeartbeat = 15 * time.Second
	streamBuffer     = 64
	retryMillis      = 3000
)

// StreamHandler serves the live event stream as server-sent events.
type StreamHandler struct {
	deps      Dependencies
	heartbeat time.Duration
	logger    logger.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(deps Dependencies, heartbeat time.Duration, l logger.Logger) *StreamHandler {
	return &StreamHandler{deps: deps, heartbeat: heartbeat, logger: l}
}

// HandleStream handles GET /api/events. Each event is sent as
// "event: <type>" with its JSON as data. Events for a client more than
// streamBuffer behind are dropped.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	const op = "api.stream"
	rc := http.NewResponseController(w)
	// The stream outlives the server's write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	events := make(chan service.Event, streamBuffer)
	dispose := h.deps.Listen(func(e service.Event) {
		select {
		case events <- e:
		default:
		}
	})
	defer dispose()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprintf(w, "retry: %d\n\n", retryMillis); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		h.logger.Warn(r.Context(), "event stream cannot flush", logger.Error(WrapKind(op, ErrStreaming, err)))
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case e := <-events:
			data, err := json.Marshal(e)
			if err != nil {
				h.logger.Error(r.Context(), "encode stream event", logger.Error(Wrap(op, err)))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
