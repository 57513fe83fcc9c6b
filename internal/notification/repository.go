package notification

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository handles notification data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new notification repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new notification into the database
func (r *Repository) Create(ctx context.Context, notifiedTo int64, ntype Type, title, message string) (*Notification, error) {
	query := `
		INSERT INTO notifications (notified_to, ntype, title, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, notified_to, ntype, title, message, is_read, created_at
	`

	n := &Notification{}
	err := r.db.QueryRowContext(ctx, query, notifiedTo, ntype, title, message).Scan(
		&n.ID,
		&n.NotifiedTo,
		&n.Type,
		&n.Title,
		&n.Message,
		&n.IsRead,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return n, nil
}

// ListByUser retrieves a user's notifications, newest first
func (r *Repository) ListByUser(ctx context.Context, userID int64, unreadOnly bool) ([]*Notification, error) {
	query := `
		SELECT id, notified_to, ntype, title, message, is_read, created_at
		FROM notifications
		WHERE notified_to = $1
	`
	if unreadOnly {
		query += ` AND is_read = false`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*Notification
	for rows.Next() {
		n := &Notification{}
		if err := rows.Scan(
			&n.ID,
			&n.NotifiedTo,
			&n.Type,
			&n.Title,
			&n.Message,
			&n.IsRead,
			&n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// MarkAsRead marks a single notification as read
func (r *Repository) MarkAsRead(ctx context.Context, id, userID int64) error {
	query := `UPDATE notifications SET is_read = true WHERE id = $1 AND notified_to = $2`
	if _, err := r.db.ExecContext(ctx, query, id, userID); err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return nil
}
