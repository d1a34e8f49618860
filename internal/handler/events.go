package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"farmflow/internal/notify"
)

const eventWriteTimeout = 5 * time.Second

// EventHandler streams ledger notifications to websocket subscribers. The
// stream is fire-and-forget: events published before a client connects are
// never replayed.
type EventHandler struct {
	Hub    *notify.Hub
	Logger *zap.Logger
}

func (h *EventHandler) Register(r *gin.Engine, authed gin.HandlerFunc) {
	r.GET("/api/v1/events/stream", authed, h.stream)
}

// @Summary Live event stream over websocket
// @Tags events
// @Success 101
// @Router /api/v1/events/stream [get]
func (h *EventHandler) stream(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Debug("websocket accept failed", zap.Error(err))
		}
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	events, cancel := h.Hub.Subscribe()
	defer cancel()

	// The stream is write-only; CloseRead keeps control frames serviced and
	// cancels the context when the client goes away.
	ctx := conn.CloseRead(c.Request.Context())
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case payload, ok := <-events:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			writeCtx, cancelWrite := context.WithTimeout(ctx, eventWriteTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, payload)
			cancelWrite()
			if err != nil {
				return
			}
		}
	}
}
