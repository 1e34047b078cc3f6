package middlewares_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arcodify/arcodify-api/internal/auth"
	"github.com/arcodify/arcodify-api/internal/domain/user"
	"github.com/arcodify/arcodify-api/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testCookieName = "arcodify_session"

type fakeUserLoader struct {
	getFn func(ctx context.Context, id string) (user.User, error)
}

func (f *fakeUserLoader) GetByID(ctx context.Context, id string) (user.User, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return user.User{}, user.ErrNotFound
}

// records cookie clears so tests can assert on them
type fakeCookies struct {
	cleared int
}

func (f *fakeCookies) CookieName() string { return testCookieName }

func (f *fakeCookies) ClearCookie(ctx *gin.Context) {
	f.cleared++
	ctx.SetCookie(testCookieName, "", -1, "/", "", true, true)
}

func gateRouter(gate *middlewares.AuthGate, mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/protected", mw, func(ctx *gin.Context) {
		ctx.Status(http.StatusOK)
	})
	return r
}

func doRequest(r *gin.Engine, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)

	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: testCookieName, Value: cookie})
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireToken(t *testing.T) {
	tokens := auth.NewManager("test-secret", time.Hour)
	userID := uuid.NewString()

	validToken, _, err := tokens.IssueSessionToken(userID, "user")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	expiredTokens := auth.NewManager("test-secret", -time.Minute)
	expiredToken, _, err := expiredTokens.IssueSessionToken(userID, "user")
	if err != nil {
		t.Fatalf("issue expired token: %v", err)
	}

	tests := []struct {
		name        string
		cookie      string
		wantStatus  int
		wantCleared int
	}{
		{name: "missing cookie", cookie: "", wantStatus: http.StatusUnauthorized, wantCleared: 1},
		{name: "garbage token", cookie: "not-a-token", wantStatus: http.StatusUnauthorized, wantCleared: 1},
		{name: "expired token", cookie: expiredToken, wantStatus: http.StatusUnauthorized, wantCleared: 1},
		{name: "valid token", cookie: validToken, wantStatus: http.StatusOK, wantCleared: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cookies := &fakeCookies{}
			gate := middlewares.NewAuthGate(tokens, &fakeUserLoader{}, cookies)

			w := doRequest(gateRouter(gate, gate.RequireToken()), tt.cookie)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if cookies.cleared != tt.wantCleared {
				t.Fatalf("cookie cleared %d times, want %d", cookies.cleared, tt.wantCleared)
			}
		})
	}
}

func TestRequireUser(t *testing.T) {
	tokens := auth.NewManager("test-secret", time.Hour)
	userID := uuid.NewString()

	token, _, err := tokens.IssueSessionToken(userID, "user")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	tests := []struct {
		name        string
		loader      *fakeUserLoader
		wantStatus  int
		wantCleared int
	}{
		{
			name: "active user passes",
			loader: &fakeUserLoader{getFn: func(_ context.Context, id string) (user.User, error) {
				return user.User{ID: id, IsActive: true, Role: user.RoleUser}, nil
			}},
			wantStatus:  http.StatusOK,
			wantCleared: 0,
		},
		{
			name: "user vanished",
			loader: &fakeUserLoader{getFn: func(_ context.Context, _ string) (user.User, error) {
				return user.User{}, user.ErrNotFound
			}},
			wantStatus:  http.StatusUnauthorized,
			wantCleared: 1,
		},
		{
			name: "deactivated mid-session",
			loader: &fakeUserLoader{getFn: func(_ context.Context, id string) (user.User, error) {
				return user.User{ID: id, IsActive: false}, nil
			}},
			wantStatus:  http.StatusUnauthorized,
			wantCleared: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cookies := &fakeCookies{}
			gate := middlewares.NewAuthGate(tokens, tt.loader, cookies)

			w := doRequest(gateRouter(gate, gate.RequireUser()), token)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if cookies.cleared != tt.wantCleared {
				t.Fatalf("cookie cleared %d times, want %d", cookies.cleared, tt.wantCleared)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	tokens := auth.NewManager("test-secret", time.Hour)
	userID := uuid.NewString()

	// token role is stale on purpose; the live record decides
	token, _, err := tokens.IssueSessionToken(userID, "admin")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	t.Run("live admin passes", func(t *testing.T) {
		cookies := &fakeCookies{}
		loader := &fakeUserLoader{getFn: func(_ context.Context, id string) (user.User, error) {
			return user.User{ID: id, IsActive: true, Role: user.RoleAdmin}, nil
		}}
		gate := middlewares.NewAuthGate(tokens, loader, cookies)

		w := doRequest(gateRouter(gate, gate.RequireAdmin()), token)

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, want 200, body=%s", w.Code, w.Body.String())
		}
	})

	t.Run("demoted user gets 403 and keeps cookie", func(t *testing.T) {
		cookies := &fakeCookies{}
		loader := &fakeUserLoader{getFn: func(_ context.Context, id string) (user.User, error) {
			return user.User{ID: id, IsActive: true, Role: user.RoleUser}, nil
		}}
		gate := middlewares.NewAuthGate(tokens, loader, cookies)

		w := doRequest(gateRouter(gate, gate.RequireAdmin()), token)

		if w.Code != http.StatusForbidden {
			t.Fatalf("got status %d, want 403, body=%s", w.Code, w.Body.String())
		}

		if cookies.cleared != 0 {
			t.Fatalf("cookie should not be cleared on 403, cleared %d times", cookies.cleared)
		}
	})
}

func TestResolveUserCachedPerRequest(t *testing.T) {
	tokens := auth.NewManager("test-secret", time.Hour)
	userID := uuid.NewString()

	token, _, err := tokens.IssueSessionToken(userID, "admin")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	calls := 0
	loader := &fakeUserLoader{getFn: func(_ context.Context, id string) (user.User, error) {
		calls++
		return user.User{ID: id, IsActive: true, Role: user.RoleAdmin}, nil
	}}

	gate := middlewares.NewAuthGate(tokens, loader, &fakeCookies{})

	// stacking tiers must not re-query the directory
	r := gin.New()
	r.GET("/protected", gate.RequireUser(), gate.RequireAdmin(), func(ctx *gin.Context) {
		ctx.Status(http.StatusOK)
	})

	w := doRequest(r, token)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}

	if calls != 1 {
		t.Fatalf("directory queried %d times, want 1", calls)
	}
}
