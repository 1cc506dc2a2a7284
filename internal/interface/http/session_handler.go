package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/disha/internal/domain/session"
)

// Register creates a DISHA account.
func (h *Handler) Register(c *gin.Context) {
	var req session.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	profile, err := h.sessionSvc.Register(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": profile})
}

// Login signs the user in and returns a gateway token.
func (h *Handler) Login(c *gin.Context) {
	var req session.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.sessionSvc.Login(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Me returns the signed-in user's profile.
func (h *Handler) Me(c *gin.Context) {
	profile, err := h.sessionSvc.Profile(c.Request.Context(), sessionID(c))
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}

// Logout drops the session's stored credentials.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.sessionSvc.Logout(c.Request.Context(), sessionID(c)); err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.Status(http.StatusNoContent)
}
