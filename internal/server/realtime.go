package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/luminalab/lumina/backend/internal/realtime"
	"go.uber.org/zap"
)

const heartbeatInterval = 25 * time.Second

// handleRealtimeStream holds an SSE connection open and forwards every event
// targeted at the authenticated user. Registration in the identity registry
// happens on connect and is undone when either peer ends the stream.
func (h *httpHandler) handleRealtimeStream(c *gin.Context) {
	userID := c.GetString(userIDContextKey)

	connection, cleanup := h.gateway.Connect(c.Request.Context(), userID)
	defer cleanup()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	h.logger.Debug("realtime stream opened",
		zap.String("user_id", userID),
		zap.String("connection_id", connection.ID()))

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case event := <-connection.Events():
			if err := writeServerSentEvent(c.Writer, event); err != nil {
				return
			}
			c.Writer.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(c.Writer, ": heartbeat\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}

func writeServerSentEvent(w http.ResponseWriter, event realtime.Event) error {
	data, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Name, data)
	return err
}
