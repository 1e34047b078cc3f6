package db

import (
	"context"
	"errors"
	"time"

	"github.com/arcodify/arcodify-api/internal/config"
	"github.com/arcodify/arcodify-api/internal/domain/user"
	"github.com/arcodify/arcodify-api/internal/security"
	"github.com/arcodify/arcodify-api/internal/session"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	email := session.NormalizeEmail(cfg.AdminEmail)

	// check if the user exists

	var dummy string

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Username:     cfg.AdminName,
		Email:        email,
		PasswordHash: hash,
		Role:         user.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, role, is_active, is_locked, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.IsActive, u.IsLocked, u.CreatedAt, u.UpdatedAt,
	)

	return err
}
