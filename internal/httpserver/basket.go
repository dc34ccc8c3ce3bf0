package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"skins-market/internal/domain"
	"skins-market/internal/service/catalog"
)

type basketRequest struct {
	ItemID int64 `json:"skin_id" binding:"required"`
}

type basketUpdateRequest struct {
	ItemID int64  `json:"skin_id" binding:"required"`
	Action string `json:"action" binding:"required,oneof=remove decrease"`
}

// getBasket returns the user's basket, or recommended items when there is none.
func (h *handlers) getBasket(c *gin.Context) {
	ctx := c.Request.Context()
	b, err := h.Basket.Get(ctx, userID(c))
	if err == nil {
		respond(c, http.StatusOK, "basket", b)
		return
	}
	if !errors.Is(err, domain.ErrNotFound) {
		respondError(c, h.log, err)
		return
	}
	items, err := h.Catalog.Recommended(ctx, catalog.RecommendedSize)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if items == nil {
		items = []domain.Item{}
	}
	respond(c, http.StatusOK, "recommended", items)
}

func (h *handlers) addToBasket(c *gin.Context) {
	var req basketRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := h.Basket.AddItem(c.Request.Context(), userID(c), req.ItemID); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondSuccess(c, "item added to basket")
}

func (h *handlers) updateBasket(c *gin.Context) {
	var req basketUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := h.Basket.Update(c.Request.Context(), userID(c), req.ItemID, req.Action); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondSuccess(c, "basket updated")
}

func (h *handlers) checkout(c *gin.Context) {
	plan, err := h.Basket.Checkout(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": "items purchased successfully",
		"total":   plan.Total,
		"cash":    plan.CashAfter,
	})
}

func (h *handlers) clearBasket(c *gin.Context) {
	if err := h.Basket.Clear(c.Request.Context(), userID(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondSuccess(c, "basket cleared")
}
