package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"skins-market/internal/domain"
	"skins-market/internal/service/messenger"
)

// messageHistory pages backwards with ?before=<RFC3339 timestamp>&beforeId=<id>,
// both taken from the last message of the previous page.
func (h *handlers) messageHistory(c *gin.Context) {
	peerID, err := parseID(c, "userId")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var cursor domain.MessageCursor
	if raw := c.Query("before"); raw != "" {
		cursor.Before, err = time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			respondError(c, h.log, domain.Invalid("before", "must be an RFC 3339 timestamp"))
			return
		}
	}
	if raw := c.Query("beforeId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 || cursor.Before.IsZero() {
			respondError(c, h.log, domain.Invalid("beforeId", "must be a positive id used together with before"))
			return
		}
		cursor.BeforeID = id
	}
	msgs, err := h.Messages.History(c.Request.Context(), userID(c), peerID, cursor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "messages", msgs)
}

func (h *handlers) sendMessage(c *gin.Context) {
	var req messenger.SendInput
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	msg, err := h.Messages.Send(c.Request.Context(), userID(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "message", msg)
}
