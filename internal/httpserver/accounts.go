package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"skins-market/internal/domain"
	"skins-market/internal/service/account"
)

type tokenRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

type resetPasswordRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

func (h *handlers) register(c *gin.Context) {
	var req account.RegisterInput
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	u, err := h.Accounts.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "message", gin.H{
		"user":  u.Public(),
		"email": u.Email,
		"info":  "check your email to activate the account",
	})
}

func (h *handlers) activate(c *gin.Context) {
	if err := h.Accounts.Activate(c.Request.Context(), c.Param("code")); err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "message", "account activated")
}

func (h *handlers) token(c *gin.Context) {
	var req tokenRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	tokens, err := h.Accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

func (h *handlers) refresh(c *gin.Context) {
	var req refreshRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	tokens, err := h.Accounts.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

func (h *handlers) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := h.Accounts.ResetPassword(c.Request.Context(), req.Email, req.Username); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondSuccess(c, "new password sent to your email")
}

func (h *handlers) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := h.Accounts.ChangePassword(c.Request.Context(), userID(c), req.OldPassword, req.NewPassword); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondSuccess(c, "password changed")
}

func (h *handlers) profile(c *gin.Context) {
	u, err := h.Accounts.Profile(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "user", u)
}

func (h *handlers) updateProfile(c *gin.Context) {
	var patch account.ProfilePatch
	if err := bindJSON(c, &patch); err != nil {
		respondError(c, h.log, err)
		return
	}
	u, err := h.Accounts.UpdateProfile(c.Request.Context(), userID(c), patch)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "user", u)
}

func (h *handlers) collection(c *gin.Context) {
	items, err := h.Accounts.Collection(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if items == nil {
		items = []domain.Ownership{}
	}
	respond(c, http.StatusOK, "my_items", items)
}
