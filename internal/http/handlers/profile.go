package handlers

import (
	"net/http"

	"github.com/arcodify/arcodify-api/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type ProfileHandler struct{}

func NewProfileHandler() *ProfileHandler {
	return &ProfileHandler{}
}

// Me returns the live user record resolved by the auth gate, not the
// token claims; a stale cookie never shows stale account state.
func (h *ProfileHandler) Me(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing session")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}
