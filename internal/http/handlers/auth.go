package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/arcodify/arcodify-api/internal/config"
	"github.com/arcodify/arcodify-api/internal/domain/job"
	"github.com/arcodify/arcodify-api/internal/domain/user"
	"github.com/arcodify/arcodify-api/internal/http/middlewares"
	"github.com/arcodify/arcodify-api/internal/jobs"
	"github.com/arcodify/arcodify-api/internal/repo/postgres"
	"github.com/arcodify/arcodify-api/internal/security"
	"github.com/arcodify/arcodify-api/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserWriter interface {
	Create(ctx context.Context, u user.User) error
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, req job.CreateRequest) (job.Job, error)
}

type AuthHandler struct {
	users    UserWriter
	sessions *session.Manager
	jobs     JobEnqueuer
	log      *slog.Logger
}

func NewAuthHandler(users UserWriter, sessions *session.Manager, jobQueue JobEnqueuer, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		jobs:     jobQueue,
		log:      log,
	}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// password rules are checked in code, not tags, so the client gets
	// every violation at once
	violations := security.ValidatePasswordStrength(req.Password)

	if len(violations) > 0 {
		RespondUnprocessable(ctx, "Password does not meet requirements", gin.H{
			"violations": violations,
		})
		return
	}

	email := session.NormalizeEmail(req.Email)
	username := strings.TrimSpace(req.Username)

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         user.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err = h.users.Create(cctx, u)

	if err != nil {
		if errors.Is(err, postgres.ErrEmailTaken) {
			RespondError(ctx, http.StatusUnprocessableEntity, "email_taken", "Email is already registered.", nil)
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	h.enqueueWelcomeEmail(cctx, u)

	ctx.JSON(http.StatusCreated, gin.H{"user": u})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	token, expiresAt, err := h.sessions.Login(cctx, req.Email, req.Password)

	if err != nil {
		switch {
		case errors.Is(err, session.ErrMissingCredentials):
			RespondBadRequest(ctx, "Email and password are required.", nil)
		case errors.Is(err, session.ErrAccountInactive):
			RespondForbidden(ctx, "Account is deactivated.")
		case errors.Is(err, session.ErrAccountLocked):
			RespondForbidden(ctx, "Account is locked.")
		case errors.Is(err, session.ErrInvalidCredentials):
			RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		default:
			RespondInternal(ctx, "Could not log in")
		}
		return
	}

	h.sessions.SetCookie(ctx, token, expiresAt)

	ctx.JSON(http.StatusOK, gin.H{
		"token":     token,
		"expiresAt": expiresAt.UTC(),
	})
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	h.sessions.Logout(ctx)
	ctx.Status(http.StatusNoContent)
}

// Validate runs behind the token tier; it just echoes the verified
// claims so clients can probe session health cheaply.
func (h *AuthHandler) Validate(ctx *gin.Context) {
	claims, ok := middlewares.ClaimsFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing session")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"userId":    claims.UserID,
		"role":      claims.Role,
		"expiresAt": claims.ExpiresAt.Time.UTC(),
	})
}

// registration must not fail because the mail queue hiccuped
func (h *AuthHandler) enqueueWelcomeEmail(ctx context.Context, u user.User) {
	payload, err := jobs.EncodePayload(jobs.JobSendWelcomeEmail, jobs.WelcomeEmailPayload{
		UserID:   u.ID,
		Email:    u.Email,
		Username: u.Username,
	})

	if err != nil {
		h.log.Warn("welcome_email_encode_failed", "user_id", u.ID, "err", err)
		return
	}

	_, err = h.jobs.Enqueue(ctx, job.CreateRequest{
		Type:    string(jobs.JobSendWelcomeEmail),
		Payload: payload,
	})

	if err != nil {
		h.log.Warn("welcome_email_enqueue_failed", "user_id", u.ID, "err", err)
	}
}
