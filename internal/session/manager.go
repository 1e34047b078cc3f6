package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/arcodify/arcodify-api/internal/auth"
	"github.com/arcodify/arcodify-api/internal/domain/user"
	"github.com/arcodify/arcodify-api/internal/security"
	"github.com/gin-gonic/gin"
)

// The caller only ever sees these coarse classes. The precise reason a
// login failed is logged, never returned.
var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is not verified")
	ErrAccountLocked      = errors.New("account is locked")
)

// Keep this small interface so tests can fake it easily.
type UserDirectory interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type Manager struct {
	users      UserDirectory
	tokens     *auth.Manager
	cookieName string
	log        *slog.Logger
}

func NewManager(users UserDirectory, tokens *auth.Manager, cookieName string, log *slog.Logger) *Manager {
	return &Manager{
		users:      users,
		tokens:     tokens,
		cookieName: cookieName,
		log:        log,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login validates credentials and issues a signed session token.
// "no such user" and "wrong password" share an error class and a
// bcrypt-shaped latency so the two are indistinguishable from outside.
func (m *Manager) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", time.Time{}, ErrMissingCredentials
	}

	normalized := NormalizeEmail(email)

	u, err := m.users.GetByEmail(ctx, normalized)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			m.log.Warn("login attempt for unknown email", "email", normalized)
			security.DummyCheck()
			return "", time.Time{}, ErrInvalidCredentials
		}

		return "", time.Time{}, err
	}

	if !u.IsActive {
		m.log.Info("login attempt for inactive account", "email", normalized)
		return "", time.Time{}, ErrAccountInactive
	}

	if u.IsLocked {
		m.log.Warn("login attempt for locked account", "email", normalized)
		return "", time.Time{}, ErrAccountLocked
	}

	if err := security.CheckPassword(u.PasswordHash, password); err != nil {
		m.log.Warn("invalid password", "email", normalized)
		return "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := m.tokens.IssueSessionToken(u.ID, string(u.Role))

	if err != nil {
		return "", time.Time{}, err
	}

	m.log.Info("login succeeded", "user_id", u.ID)

	return token, expiresAt, nil
}

// Logout clears the cookie unconditionally. There is no server-side
// session state to purge.
func (m *Manager) Logout(ctx *gin.Context) {
	m.ClearCookie(ctx)
}

func (m *Manager) CookieName() string {
	return m.cookieName
}

// Cookie attributes are fixed: HttpOnly, Secure, SameSite=Strict, path "/".

func (m *Manager) SetCookie(ctx *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())

	ctx.SetSameSite(http.SameSiteStrictMode)

	ctx.SetCookie(
		m.cookieName,
		token,
		maxAge,
		"/",
		"",
		true, // Secure.
		true, // HttpOnly.
	)
}

func (m *Manager) ClearCookie(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(
		m.cookieName,
		"",
		-1,
		"/",
		"",
		true,
		true,
	)
}
