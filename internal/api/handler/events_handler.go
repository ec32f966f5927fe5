package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/altrapisos/crm/internal/api/metrics"
	"github.com/altrapisos/crm/internal/infrastructure/realtime"
)

const defaultKeepAlive = 25 * time.Second

// NoticeSource hands out realtime subscriptions.
type NoticeSource interface {
	Subscribe() (<-chan realtime.Notice, func())
}

// EventsHandler streams change notices as server-sent events. Each "change"
// event tells the client to reload everything it shows.
type EventsHandler struct {
	source    NoticeSource
	keepAlive time.Duration
}

func NewEventsHandler(source NoticeSource) *EventsHandler {
	return &EventsHandler{source: source, keepAlive: defaultKeepAlive}
}

// Stream handles GET /v1/events.
//
// @Summary      Realtime change stream
// @Tags         events
// @Produce      text/event-stream
// @Security     BearerAuth
// @Success      200
// @Router       /v1/events [get]
func (h *EventsHandler) Stream(c echo.Context) error {
	notices, unsubscribe := h.source.Subscribe()
	defer unsubscribe()
	metrics.RealtimeListeners.Inc()
	defer metrics.RealtimeListeners.Dec()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	w.Flush()

	ping := time.NewTicker(h.keepAlive)
	defer ping.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-notices:
			if !ok {
				return nil
			}
			data, err := json.Marshal(n)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", data)
			w.Flush()
		case <-ping.C:
			fmt.Fprint(w, ": ping\n\n")
			w.Flush()
		}
	}
}
