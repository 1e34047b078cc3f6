package middlewares

import (
	"context"
	"net/http"
	"time"

	"github.com/arcodify/arcodify-api/internal/auth"
	"github.com/arcodify/arcodify-api/internal/config"
	"github.com/arcodify/arcodify-api/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Keep these interfaces small so tests can fake them easily.

type TokenVerifier interface {
	VerifySessionToken(token string) (*auth.SessionClaims, error)
}

type UserLoader interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// SessionCookies is what the gate needs from the session manager: the
// cookie's name, and the ability to clear it on auth failure.
type SessionCookies interface {
	CookieName() string
	ClearCookie(ctx *gin.Context)
}

// AuthGate resolves identity in three escalating tiers:
// token-valid -> authenticated (live user) -> admin. Each tier runs the
// previous one, so a route mounts exactly one middleware.
type AuthGate struct {
	tokens  TokenVerifier
	users   UserLoader
	cookies SessionCookies
}

func NewAuthGate(tokens TokenVerifier, users UserLoader, cookies SessionCookies) *AuthGate {
	return &AuthGate{tokens: tokens, users: users, cookies: cookies}
}

const (
	ctxClaimsKey = "auth.claims"
	ctxUserKey   = "auth.user"
)

// Tier 1: the cookie holds a well-formed, signed, unexpired token.
func (g *AuthGate) RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := g.resolveToken(c); !ok {
			return
		}
		c.Next()
	}
}

// Tier 2: the token's user still exists and is active. The live record
// wins over whatever the token claims; a user deactivated mid-session
// is cut off here.
func (g *AuthGate) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := g.resolveUser(c); !ok {
			return
		}
		c.Next()
	}
}

// Tier 3: admin role on the live record. No cookie mutation on failure;
// the session itself is fine.
func (g *AuthGate) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := g.resolveUser(c)

		if !ok {
			return
		}

		if u.Role != user.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "forbidden",
					"message": "Admin role required",
				},
			})
			return
		}

		c.Next()
	}
}

func (g *AuthGate) resolveToken(c *gin.Context) (*auth.SessionClaims, bool) {
	if claims, ok := ClaimsFromContext(c); ok {
		return claims, true
	}

	raw, err := c.Cookie(g.cookies.CookieName())

	if err != nil || raw == "" {
		g.abortUnauthorized(c, "Missing session")
		return nil, false
	}

	claims, err := g.tokens.VerifySessionToken(raw)

	if err != nil {
		// invalid or expired either way; the cookie is dead weight now
		g.abortUnauthorized(c, "Invalid or expired session")
		return nil, false
	}

	c.Set(ctxClaimsKey, claims)

	return claims, true
}

func (g *AuthGate) resolveUser(c *gin.Context) (user.User, bool) {
	if u, ok := UserFromContext(c); ok {
		return u, true
	}

	claims, ok := g.resolveToken(c)

	if !ok {
		return user.User{}, false
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := g.users.GetByID(cctx, claims.UserID)

	if err != nil {
		g.abortUnauthorized(c, "Session user no longer valid")
		return user.User{}, false
	}

	if !u.IsActive {
		g.abortUnauthorized(c, "Account deactivated")
		return user.User{}, false
	}

	c.Set(ctxUserKey, u)

	return u, true
}

// every authentication failure clears the cookie so the client does not
// keep replaying a dead credential
func (g *AuthGate) abortUnauthorized(c *gin.Context, message string) {
	g.cookies.ClearCookie(c)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "unauthorized",
			"message": message,
		},
	})
}

// Helpers so handlers don't need to know the magic keys.

func ClaimsFromContext(c *gin.Context) (*auth.SessionClaims, bool) {
	v, ok := c.Get(ctxClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.SessionClaims)
	return claims, ok
}

func UserFromContext(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}
