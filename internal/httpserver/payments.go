package httpserver

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"skins-market/internal/domain"
)

const maxWebhookBytes = 64 << 10

type intentRequest struct {
	Amount int64 `json:"amount" binding:"required,min=50"`
}

func (h *handlers) createIntent(c *gin.Context) {
	var req intentRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	intent, err := h.Payments.CreateIntent(c.Request.Context(), userID(c), req.Amount)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "intent", intent)
}

// webhook must read the raw body; the signature covers the exact bytes.
func (h *handlers) webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		respondError(c, h.log, domain.Invalid("body", "unreadable payload"))
		return
	}
	if err := h.Payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "message", gin.H{"payment": "success"})
}
