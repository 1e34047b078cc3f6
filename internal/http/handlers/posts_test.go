package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arcodify/arcodify-api/internal/http/handlers"
	"github.com/arcodify/arcodify-api/internal/posts"
	"github.com/gin-gonic/gin"
)

type fakePostsService struct {
	getPostsFn  func(ctx context.Context, page, perPage int, search string) (posts.Page, error)
	getByIDFn   func(ctx context.Context, id int) (posts.Post, bool, error)
	cacheInfoFn func(ctx context.Context) (posts.CacheInfo, error)
	cleared     int
}

func (f *fakePostsService) GetPosts(ctx context.Context, page, perPage int, search string) (posts.Page, error) {
	if f.getPostsFn != nil {
		return f.getPostsFn(ctx, page, perPage, search)
	}
	return posts.Page{Posts: []posts.Post{}}, nil
}

func (f *fakePostsService) GetPostByID(ctx context.Context, id int) (posts.Post, bool, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return posts.Post{}, false, nil
}

func (f *fakePostsService) ClearCache(_ context.Context) {
	f.cleared++
}

func (f *fakePostsService) CacheInfo(ctx context.Context) (posts.CacheInfo, error) {
	if f.cacheInfoFn != nil {
		return f.cacheInfoFn(ctx)
	}
	return posts.CacheInfo{}, nil
}

func postsRouter(svc *fakePostsService) *gin.Engine {
	h := handlers.NewPostsHandler(svc)

	r := gin.New()
	r.GET("/api/posts", h.List)
	r.GET("/api/posts/:id", h.GetByID)
	r.GET("/api/admin/cache/posts", h.CacheInfo)
	r.DELETE("/api/admin/cache/posts", h.CacheEvict)

	return r
}

func TestListPostsValidation(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantStatus int
	}{
		{name: "defaults", url: "/api/posts", wantStatus: http.StatusOK},
		{name: "page zero", url: "/api/posts?page=0", wantStatus: http.StatusBadRequest},
		{name: "negative page", url: "/api/posts?page=-3", wantStatus: http.StatusBadRequest},
		{name: "per_page zero", url: "/api/posts?per_page=0", wantStatus: http.StatusBadRequest},
		{name: "per_page over limit", url: "/api/posts?per_page=101", wantStatus: http.StatusBadRequest},
		{name: "per_page at limit", url: "/api/posts?per_page=100", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := postsRouter(&fakePostsService{})

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestListPostsPassesQueryThrough(t *testing.T) {
	var gotPage, gotPerPage int
	var gotSearch string

	svc := &fakePostsService{getPostsFn: func(_ context.Context, page, perPage int, search string) (posts.Page, error) {
		gotPage, gotPerPage, gotSearch = page, perPage, search
		return posts.Page{Posts: []posts.Post{}, Page: page, PerPage: perPage}, nil
	}}

	r := postsRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/posts?page=3&per_page=25&search=qui", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	if gotPage != 3 || gotPerPage != 25 || gotSearch != "qui" {
		t.Fatalf("query not passed through: page=%d per_page=%d search=%q", gotPage, gotPerPage, gotSearch)
	}
}

func TestListPostsUpstreamFailure(t *testing.T) {
	svc := &fakePostsService{getPostsFn: func(_ context.Context, _, _ int, _ string) (posts.Page, error) {
		return posts.Page{}, errors.New("upstream down")
	}}

	r := postsRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("got status %d, want 502", w.Code)
	}
}

func TestListPostsETagRevalidation(t *testing.T) {
	svc := &fakePostsService{getPostsFn: func(_ context.Context, page, perPage int, _ string) (posts.Page, error) {
		return posts.Page{
			Posts:   []posts.Post{{ID: 1, Title: "hello", Body: "world", UserID: 9}},
			Total:   1,
			Page:    page,
			PerPage: perPage,
		}, nil
	}}

	r := postsRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	etag := w.Header().Get("ETag")
	if w.Code != http.StatusOK || etag == "" {
		t.Fatalf("expected 200 with ETag, got %d etag=%q", w.Code, etag)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotModified {
		t.Fatalf("got status %d, want 304", w.Code)
	}
}

func TestGetPostByID(t *testing.T) {
	svc := &fakePostsService{getByIDFn: func(_ context.Context, id int) (posts.Post, bool, error) {
		if id == 7 {
			return posts.Post{ID: 7, Title: "seven"}, true, nil
		}
		return posts.Post{}, false, nil
	}}

	tests := []struct {
		name       string
		url        string
		wantStatus int
	}{
		{name: "found", url: "/api/posts/7", wantStatus: http.StatusOK},
		{name: "absent", url: "/api/posts/8", wantStatus: http.StatusNotFound},
		{name: "non-numeric id", url: "/api/posts/seven", wantStatus: http.StatusBadRequest},
		{name: "zero id", url: "/api/posts/0", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := postsRouter(svc)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestCacheEvict(t *testing.T) {
	svc := &fakePostsService{}
	r := postsRouter(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/cache/posts", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("got status %d, want 204", w.Code)
	}

	if svc.cleared != 1 {
		t.Fatalf("ClearCache called %d times, want 1", svc.cleared)
	}
}
