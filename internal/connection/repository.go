package connection

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository handles room data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new connection repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a room for the given member pair. The pair is stored
// in id order, matching the schema's uniqueness constraint.
func (r *Repository) Create(ctx context.Context, userA, userB int64) (*Room, error) {
	low, high := orderPair(userA, userB)

	query := `
		INSERT INTO connections (member_low, member_high)
		VALUES ($1, $2)
		RETURNING id, member_low, member_high, last_due_id, created_at
	`

	room := &Room{}
	err := r.db.QueryRowContext(ctx, query, low, high).Scan(
		&room.ID, &room.MemberLow, &room.MemberHigh, &room.LastDueID, &room.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	return room, nil
}

// GetByMembers retrieves the room for an unordered member pair
func (r *Repository) GetByMembers(ctx context.Context, userA, userB int64) (*Room, error) {
	low, high := orderPair(userA, userB)

	query := `
		SELECT id, member_low, member_high, last_due_id, created_at
		FROM connections
		WHERE member_low = $1 AND member_high = $2
	`

	room := &Room{}
	err := r.db.QueryRowContext(ctx, query, low, high).Scan(
		&room.ID, &room.MemberLow, &room.MemberHigh, &room.LastDueID, &room.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return room, nil
}

// FindByMembers resolves a member pair to a room id, 0 when absent
func (r *Repository) FindByMembers(ctx context.Context, userA, userB int64) (int64, error) {
	room, err := r.GetByMembers(ctx, userA, userB)
	if err != nil {
		return 0, err
	}
	if room == nil {
		return 0, nil
	}
	return room.ID, nil
}

// SetLastDue updates the denormalized last-entry pointer
func (r *Repository) SetLastDue(ctx context.Context, roomID, dueID int64) error {
	query := `UPDATE connections SET last_due_id = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, roomID, dueID); err != nil {
		return fmt.Errorf("failed to set last due: %w", err)
	}
	return nil
}

// ListByUser builds the user's connection list: counterpart details,
// the optional last-due preview and the user's own outstanding total
// per room, ordered by last-entry recency with empty rooms last.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]*Summary, error) {
	query := `
		SELECT c.id,
		       u.id, u.username, u.email, u.avatar_url,
		       d.total_amount, d.due_amount, d.paid_amount, d.remarks, d.status, d.created_at,
		       COALESCE(t.total_due, 0)
		FROM connections c
		JOIN users u ON u.id = CASE WHEN c.member_low = $1 THEN c.member_high ELSE c.member_low END
		LEFT JOIN dues d ON d.id = c.last_due_id
		LEFT JOIN (
			SELECT room_id, SUM(due_amount) AS total_due
			FROM dues
			WHERE due_from = $1
			GROUP BY room_id
		) t ON t.room_id = c.id
		WHERE c.member_low = $1 OR c.member_high = $1
		ORDER BY d.created_at DESC NULLS LAST, c.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	var summaries []*Summary
	for rows.Next() {
		s := &Summary{}
		var (
			totalAmount sql.NullFloat64
			dueAmount   sql.NullFloat64
			paidAmount  sql.NullFloat64
			remarks     sql.NullString
			status      sql.NullString
			createdAt   sql.NullTime
		)
		if err := rows.Scan(
			&s.RoomID,
			&s.ConnectedUser.ID, &s.ConnectedUser.Username, &s.ConnectedUser.Email, &s.ConnectedUser.AvatarURL,
			&totalAmount, &dueAmount, &paidAmount, &remarks, &status, &createdAt,
			&s.TotalDue,
		); err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}

		if createdAt.Valid {
			s.LastDue = &LastDueSummary{
				TotalAmount: totalAmount.Float64,
				DueAmount:   dueAmount.Float64,
				PaidAmount:  paidAmount.Float64,
				Remarks:     remarks.String,
				Status:      status.String,
				CreatedAt:   createdAt.Time,
			}
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

func orderPair(a, b int64) (int64, int64) {
	if a < b {
		return a, b
	}
	return b, a
}
