package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ksndmc/flow-api/internal/realtime"
	"github.com/ksndmc/flow-api/internal/service"
	"github.com/ksndmc/flow-api/pkg/response"
)

// EventsHandler streams change notifications over Server-Sent Events.
// Each event names the collections that changed; the client answers by
// fetching fresh snapshots.
type EventsHandler struct {
	broadcaster *realtime.Broadcaster
	snapshots   *service.SnapshotService
	logger      *zap.Logger

	keepAlive time.Duration
}

// NewEventsHandler creates a new handler.
func NewEventsHandler(broadcaster *realtime.Broadcaster, snapshots *service.SnapshotService, logger *zap.Logger) *EventsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventsHandler{
		broadcaster: broadcaster,
		snapshots:   snapshots,
		logger:      logger,
		keepAlive:   25 * time.Second,
	}
}

type changeEvent struct {
	Collections []string `json:"collections"`
}

// Stream godoc
// @Summary Realtime change feed
// @Description Server-Sent Events stream naming collections that changed.
// @Tags Events
// @Produce text/event-stream
// @Success 200
// @Router /events [get]
func (h *EventsHandler) Stream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ch, cancel := h.broadcaster.Subscribe()
	defer cancel()

	// Opening event tells the client which collections exist so it can do
	// its initial load.
	initial := changeEvent{Collections: h.snapshots.Collections()}

	ctx := c.Request.Context()
	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	first := true
	c.Stream(func(w io.Writer) bool {
		if first {
			first = false
			c.SSEvent("change", marshalEvent(initial))
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case collections, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("change", marshalEvent(changeEvent{Collections: collections}))
			return true
		case <-keepAlive.C:
			c.SSEvent("ping", "keep-alive")
			return true
		}
	})
}

// Snapshot godoc
// @Summary Collection snapshot
// @Description Current contents of one collection, fetched after a change event.
// @Tags Events
// @Produce json
// @Param collection path string true "Collection name"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/snapshot/{collection} [get]
func (h *EventsHandler) Snapshot(c *gin.Context) {
	data, err := h.snapshots.Snapshot(c.Request.Context(), c.Param("collection"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, data, nil)
}

func marshalEvent(event changeEvent) string {
	payload, err := json.Marshal(event)
	if err != nil {
		return `{"collections":[]}`
	}
	return string(payload)
}
