package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"skins-market/internal/domain"
)

type inviteRequest struct {
	Username string `json:"username" binding:"required"`
}

type inviteResponseRequest struct {
	Username string `json:"username" binding:"required"`
	Action   string `json:"action" binding:"required,oneof=accept reject"`
}

func (h *handlers) listFriends(c *gin.Context) {
	friends, err := h.Friends.ListFriends(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if friends == nil {
		friends = []domain.PublicUser{}
	}
	respond(c, http.StatusOK, "friends", friends)
}

func (h *handlers) removeFriend(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := h.Friends.RemoveFriend(c.Request.Context(), userID(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondSuccess(c, "friend removed")
}

func (h *handlers) listInvites(c *gin.Context) {
	invites, err := h.Friends.ListInvites(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if invites == nil {
		invites = []domain.Invite{}
	}
	respond(c, http.StatusOK, "invites", invites)
}

func (h *handlers) sendInvite(c *gin.Context) {
	var req inviteRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	inv, err := h.Friends.Invite(c.Request.Context(), userID(c), req.Username)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "invite", inv)
}

func (h *handlers) respondInvite(c *gin.Context) {
	var req inviteResponseRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	inv, err := h.Friends.Respond(c.Request.Context(), userID(c), req.Username, req.Action)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "invite", inv)
}
