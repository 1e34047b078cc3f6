package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/arcodify/arcodify-api/internal/posts"
	"github.com/gin-gonic/gin"
)

type PostsService interface {
	GetPosts(ctx context.Context, page, perPage int, search string) (posts.Page, error)
	GetPostByID(ctx context.Context, id int) (posts.Post, bool, error)
	ClearCache(ctx context.Context)
	CacheInfo(ctx context.Context) (posts.CacheInfo, error)
}

type PostsHandler struct {
	svc PostsService
}

func NewPostsHandler(svc PostsService) *PostsHandler {
	return &PostsHandler{svc: svc}
}

const maxPerPage = 100

func (h *PostsHandler) List(ctx *gin.Context) {
	page := parseIntQuery(ctx, "page", 1)
	perPage := parseIntQuery(ctx, "per_page", 10)
	search := ctx.Query("search")

	if page < 1 {
		RespondBadRequest(ctx, "page must be >= 1", nil)
		return
	}

	if perPage < 1 || perPage > maxPerPage {
		RespondBadRequest(ctx, "per_page must be between 1 and 100", nil)
		return
	}

	result, err := h.svc.GetPosts(ctx.Request.Context(), page, perPage, search)

	if err != nil {
		RespondError(ctx, http.StatusBadGateway, "upstream_unavailable", "Could not fetch posts", nil)
		return
	}

	// snapshots change rarely, so ETags save most of the bandwidth here
	RespondJSONWithETag(ctx, http.StatusOK, result)
}

func (h *PostsHandler) GetByID(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))

	if err != nil || id < 1 {
		RespondBadRequest(ctx, "Invalid post id", nil)
		return
	}

	p, found, err := h.svc.GetPostByID(ctx.Request.Context(), id)

	if err != nil {
		RespondError(ctx, http.StatusBadGateway, "upstream_unavailable", "Could not fetch posts", nil)
		return
	}

	if !found {
		RespondNotFound(ctx, "Post not found")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"post": p})
}

func (h *PostsHandler) CacheInfo(ctx *gin.Context) {
	info, err := h.svc.CacheInfo(ctx.Request.Context())

	if err != nil {
		RespondInternal(ctx, "Could not inspect cache")
		return
	}

	ctx.JSON(http.StatusOK, info)
}

func (h *PostsHandler) CacheEvict(ctx *gin.Context) {
	h.svc.ClearCache(ctx.Request.Context())
	ctx.Status(http.StatusNoContent)
}
