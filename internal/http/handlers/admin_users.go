package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/arcodify/arcodify-api/internal/config"
	"github.com/arcodify/arcodify-api/internal/domain/user"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserDirectoryAdmin interface {
	List(ctx context.Context, limit, offset int) ([]user.User, error)
	SetActive(ctx context.Context, id string, active bool) (user.User, error)
}

type AdminUsersHandler struct {
	users UserDirectoryAdmin
}

func NewAdminUsersHandler(users UserDirectoryAdmin) *AdminUsersHandler {
	return &AdminUsersHandler{users: users}
}

func (h *AdminUsersHandler) List(ctx *gin.Context) {
	limit := parseIntQuery(ctx, "limit", 50)
	offset := parseIntQuery(ctx, "offset", 0)

	if limit < 1 {
		limit = 1
	}

	if limit > 200 {
		limit = 200
	}

	if offset < 0 {
		offset = 0
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	items, err := h.users.List(cctx, limit, offset)

	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"users":  items,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *AdminUsersHandler) Deactivate(ctx *gin.Context) {
	id := ctx.Param("id")

	if _, err := uuid.Parse(id); err != nil {
		RespondBadRequest(ctx, "Invalid user id", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.users.SetActive(cctx, id, false)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not deactivate user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}

func parseIntQuery(ctx *gin.Context, name string, fallback int) int {
	raw := ctx.Query(name)

	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)

	if err != nil {
		return fallback
	}

	return v
}
