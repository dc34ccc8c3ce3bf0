package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"skins-market/internal/domain"
	"skins-market/internal/service/review"
)

func (h *handlers) listReviews(c *gin.Context) {
	id, err := parseID(c, "itemId")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	reviews, err := h.Reviews.ListForItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	respond(c, http.StatusOK, "reviews", reviews)
}

func (h *handlers) submitReview(c *gin.Context) {
	var req review.SubmitInput
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	rv, created, err := h.Reviews.Submit(c.Request.Context(), userID(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respond(c, status, "review", rv)
}

func (h *handlers) deleteReview(c *gin.Context) {
	id, err := parseID(c, "itemId")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := h.Reviews.Delete(c.Request.Context(), userID(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondSuccess(c, "review deleted")
}
