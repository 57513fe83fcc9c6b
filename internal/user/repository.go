package user

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Repository handles user data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new user repository with database dependency injected
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user into the database
func (r *Repository) Create(ctx context.Context, username, email, passwordHash, authProvider string) (*User, error) {
	query := `
		INSERT INTO users (username, email, password_hash, auth_provider)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, email, password_hash, avatar_url, auth_provider, created_at
	`

	user := &User{}
	err := r.db.QueryRowContext(ctx, query, username, email, passwordHash, authProvider).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.AvatarURL,
		&user.AuthProvider,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetByID retrieves a user by their ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	query := `
		SELECT id, username, email, password_hash, avatar_url, auth_provider, created_at
		FROM users
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by their email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, username, email, password_hash, avatar_url, auth_provider, created_at
		FROM users
		WHERE email = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

// UpdateProfile modifies username and email
func (r *Repository) UpdateProfile(ctx context.Context, id int64, username, email string) (*User, error) {
	query := `
		UPDATE users
		SET username = $2, email = $3
		WHERE id = $1
		RETURNING id, username, email, password_hash, avatar_url, auth_provider, created_at
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id, username, email))
}

// UpdatePassword replaces the stored password hash
func (r *Repository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// UpdateAvatar replaces the avatar reference
func (r *Repository) UpdateAvatar(ctx context.Context, id int64, avatarURL string) error {
	query := `UPDATE users SET avatar_url = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, avatarURL); err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	return nil
}

// SetResetToken stores a password-reset token with its expiry
func (r *Repository) SetResetToken(ctx context.Context, id int64, token string, expires time.Time) error {
	query := `UPDATE users SET reset_token = $2, reset_expires = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, token, expires); err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	return nil
}

// GetByResetToken retrieves a user by an unexpired reset token
func (r *Repository) GetByResetToken(ctx context.Context, token string) (*User, error) {
	query := `
		SELECT id, username, email, password_hash, avatar_url, auth_provider, created_at
		FROM users
		WHERE reset_token = $1 AND reset_expires > now()
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, token))
}

// ClearResetToken invalidates any outstanding reset token
func (r *Repository) ClearResetToken(ctx context.Context, id int64) error {
	query := `UPDATE users SET reset_token = NULL, reset_expires = NULL WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to clear reset token: %w", err)
	}
	return nil
}

func (r *Repository) scanOne(row *sql.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.AvatarURL,
		&user.AuthProvider,
		&user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
