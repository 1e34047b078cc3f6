package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arcodify/arcodify-api/internal/domain/user"
	"github.com/arcodify/arcodify-api/internal/http/handlers"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type fakeAdminDirectory struct {
	listFn      func(ctx context.Context, limit, offset int) ([]user.User, error)
	setActiveFn func(ctx context.Context, id string, active bool) (user.User, error)
}

func (f *fakeAdminDirectory) List(ctx context.Context, limit, offset int) ([]user.User, error) {
	if f.listFn != nil {
		return f.listFn(ctx, limit, offset)
	}
	return []user.User{}, nil
}

func (f *fakeAdminDirectory) SetActive(ctx context.Context, id string, active bool) (user.User, error) {
	if f.setActiveFn != nil {
		return f.setActiveFn(ctx, id, active)
	}
	return user.User{}, user.ErrNotFound
}

func adminUsersRouter(dir *fakeAdminDirectory) *gin.Engine {
	h := handlers.NewAdminUsersHandler(dir)

	r := gin.New()
	r.GET("/api/admin/users", h.List)
	r.POST("/api/admin/users/:id/deactivate", h.Deactivate)

	return r
}

func TestAdminListUsersClampsParams(t *testing.T) {
	var gotLimit, gotOffset int

	dir := &fakeAdminDirectory{listFn: func(_ context.Context, limit, offset int) ([]user.User, error) {
		gotLimit, gotOffset = limit, offset
		return []user.User{}, nil
	}}

	tests := []struct {
		name       string
		url        string
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", url: "/api/admin/users", wantLimit: 50, wantOffset: 0},
		{name: "explicit", url: "/api/admin/users?limit=10&offset=20", wantLimit: 10, wantOffset: 20},
		{name: "over max", url: "/api/admin/users?limit=9999", wantLimit: 200, wantOffset: 0},
		{name: "negative", url: "/api/admin/users?limit=-1&offset=-5", wantLimit: 1, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := adminUsersRouter(dir)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
			}

			if gotLimit != tt.wantLimit || gotOffset != tt.wantOffset {
				t.Fatalf("got limit=%d offset=%d, want limit=%d offset=%d", gotLimit, gotOffset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestAdminDeactivateUser(t *testing.T) {
	known := uuid.NewString()

	dir := &fakeAdminDirectory{setActiveFn: func(_ context.Context, id string, active bool) (user.User, error) {
		if active {
			return user.User{}, user.ErrNotFound
		}
		if id != known {
			return user.User{}, user.ErrNotFound
		}
		return user.User{ID: id, IsActive: false}, nil
	}}

	tests := []struct {
		name       string
		id         string
		wantStatus int
	}{
		{name: "success", id: known, wantStatus: http.StatusOK},
		{name: "unknown id", id: uuid.NewString(), wantStatus: http.StatusNotFound},
		{name: "malformed id", id: "not-a-uuid", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := adminUsersRouter(dir)

			req := httptest.NewRequest(http.MethodPost, "/api/admin/users/"+tt.id+"/deactivate", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}
