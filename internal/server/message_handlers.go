package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/luminalab/lumina/backend/internal/messages"
	"github.com/luminalab/lumina/backend/internal/realtime"
)

type sendMessageRequestPayload struct {
	TextMessage string `json:"textMessage"`
}

func (h *httpHandler) handleSendMessage(c *gin.Context) {
	senderID := c.GetString(userIDContextKey)
	receiverID := c.Param("id")

	var request sendMessageRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.TextMessage) == "" {
		respondError(c, http.StatusBadRequest, "Message text is required")
		return
	}

	message, err := h.messages.Send(c.Request.Context(), senderID, receiverID, request.TextMessage)
	if errors.Is(err, messages.ErrSelfMessage) {
		respondError(c, http.StatusBadRequest, "You cannot message yourself")
		return
	}
	if err != nil {
		h.respondInternal(c, "send_message", err)
		return
	}

	// Best-effort live delivery; an offline receiver just misses the push
	// and fetches the message from history later.
	h.dispatcher.Notify(receiverID, realtime.EventNewMessage, message)

	c.JSON(http.StatusCreated, gin.H{"success": true, "newMessage": message})
}

func (h *httpHandler) handleGetMessages(c *gin.Context) {
	callerID := c.GetString(userIDContextKey)
	otherID := c.Param("id")

	history, err := h.messages.Between(c.Request.Context(), callerID, otherID)
	if err != nil {
		h.respondInternal(c, "get_messages", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "messages": history})
}
