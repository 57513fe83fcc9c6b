package request

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository handles connection-request persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new request repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new pending request
func (r *Repository) Create(ctx context.Context, from, to int64) (*Request, error) {
	query := `
		INSERT INTO connection_requests (from_user, to_user)
		VALUES ($1, $2)
		RETURNING id, from_user, to_user, status, is_checked, created_at
	`

	req := &Request{}
	err := r.db.QueryRowContext(ctx, query, from, to).Scan(
		&req.ID, &req.From, &req.To, &req.Status, &req.IsChecked, &req.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	return req, nil
}

// GetByID retrieves a request by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Request, error) {
	query := `
		SELECT id, from_user, to_user, status, is_checked, created_at
		FROM connection_requests
		WHERE id = $1
	`

	req := &Request{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&req.ID, &req.From, &req.To, &req.Status, &req.IsChecked, &req.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	return req, nil
}

// ActiveExists reports whether a pending or accepted request exists
// between the two users in either direction.
func (r *Repository) ActiveExists(ctx context.Context, userA, userB int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM connection_requests
			WHERE ((from_user = $1 AND to_user = $2) OR (from_user = $2 AND to_user = $1))
			  AND status IN ('pending', 'accepted')
		)
	`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userA, userB).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check existing request: %w", err)
	}
	return exists, nil
}

// UpdateStatus transitions a request out of pending. The guard in the
// WHERE clause keeps terminal requests immutable even under races.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status Status) (bool, error) {
	query := `
		UPDATE connection_requests
		SET status = $2
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return false, fmt.Errorf("failed to update request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// Delete removes a request
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM connection_requests WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}
	return nil
}

// ListPending retrieves a user's pending requests with counterpart
// details, newest first. received=true lists requests sent to the
// user; otherwise requests the user sent.
func (r *Repository) ListPending(ctx context.Context, userID int64, received bool) ([]*Request, error) {
	matchCol, joinCol := "to_user", "from_user"
	if !received {
		matchCol, joinCol = "from_user", "to_user"
	}

	query := fmt.Sprintf(`
		SELECT r.id, r.from_user, r.to_user, r.status, r.is_checked, r.created_at,
		       u.username, u.email
		FROM connection_requests r
		JOIN users u ON u.id = r.%s
		WHERE r.%s = $1 AND r.status = 'pending'
		ORDER BY r.created_at DESC
	`, joinCol, matchCol)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*Request
	for rows.Next() {
		req := &Request{}
		if err := rows.Scan(
			&req.ID, &req.From, &req.To, &req.Status, &req.IsChecked, &req.CreatedAt,
			&req.CounterpartUsername, &req.CounterpartEmail,
		); err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

// MarkChecked flags all of the user's unchecked pending received
// requests as seen.
func (r *Repository) MarkChecked(ctx context.Context, userID int64) error {
	query := `
		UPDATE connection_requests
		SET is_checked = true
		WHERE to_user = $1 AND is_checked = false AND status = 'pending'
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to mark requests checked: %w", err)
	}
	return nil
}
