package due

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository handles due and flag persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new due repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateDue inserts a new ledger entry
func (r *Repository) CreateDue(ctx context.Context, d *Due) (*Due, error) {
	query := `
		INSERT INTO dues (room_id, created_by, due_to, due_from, total_amount, due_amount, paid_amount, remarks, status, is_due)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	created := *d
	err := r.db.QueryRowContext(ctx, query,
		d.RoomID, d.CreatedBy, d.DueTo, d.DueFrom,
		d.TotalAmount, d.DueAmount, d.PaidAmount,
		d.Remarks, d.Status, d.IsDue,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create due: %w", err)
	}

	return &created, nil
}

// GetDue retrieves a due by its ID
func (r *Repository) GetDue(ctx context.Context, id int64) (*Due, error) {
	return getDue(ctx, r.db, id)
}

// CreateFlag appends an audit message to a room's timeline
func (r *Repository) CreateFlag(ctx context.Context, roomID int64, message string) error {
	return createFlag(ctx, r.db, roomID, message)
}

// DuesByRoom retrieves a room's dues with creator details, oldest first
func (r *Repository) DuesByRoom(ctx context.Context, roomID int64) ([]*Due, error) {
	query := `
		SELECT d.id, d.room_id, d.created_by, d.due_to, d.due_from,
		       d.total_amount, d.due_amount, d.paid_amount, d.remarks, d.status, d.is_due, d.created_at,
		       u.username, u.email, u.avatar_url
		FROM dues d
		JOIN users u ON u.id = d.created_by
		WHERE d.room_id = $1
		ORDER BY d.created_at ASC, d.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dues: %w", err)
	}
	defer rows.Close()

	var dues []*Due
	for rows.Next() {
		d := &Due{}
		if err := rows.Scan(
			&d.ID, &d.RoomID, &d.CreatedBy, &d.DueTo, &d.DueFrom,
			&d.TotalAmount, &d.DueAmount, &d.PaidAmount, &d.Remarks, &d.Status, &d.IsDue, &d.CreatedAt,
			&d.CreatorUsername, &d.CreatorEmail, &d.CreatorAvatar,
		); err != nil {
			return nil, fmt.Errorf("failed to scan due: %w", err)
		}
		dues = append(dues, d)
	}

	return dues, rows.Err()
}

// FlagsByRoom retrieves a room's flags, oldest first
func (r *Repository) FlagsByRoom(ctx context.Context, roomID int64) ([]*Flag, error) {
	query := `
		SELECT id, room_id, message, created_at
		FROM flags
		WHERE room_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list flags: %w", err)
	}
	defer rows.Close()

	var flags []*Flag
	for rows.Next() {
		f := &Flag{}
		if err := rows.Scan(&f.ID, &f.RoomID, &f.Message, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan flag: %w", err)
		}
		flags = append(flags, f)
	}

	return flags, rows.Err()
}

// OutstandingTotals reports each member's outstanding debtor-side sum
// in a room, omitting zero balances.
func (r *Repository) OutstandingTotals(ctx context.Context, roomID, memberA, memberB int64) ([]*DebtorTotal, error) {
	query := `
		SELECT d.due_from, u.username, SUM(d.due_amount) AS total_due
		FROM dues d
		JOIN users u ON u.id = d.due_from
		WHERE d.room_id = $1 AND d.due_from IN ($2, $3)
		GROUP BY d.due_from, u.username
		HAVING SUM(d.due_amount) <> 0
	`

	rows, err := r.db.QueryContext(ctx, query, roomID, memberA, memberB)
	if err != nil {
		return nil, fmt.Errorf("failed to total dues: %w", err)
	}
	defer rows.Close()

	var totals []*DebtorTotal
	for rows.Next() {
		t := &DebtorTotal{}
		if err := rows.Scan(&t.UserID, &t.Username, &t.TotalDue); err != nil {
			return nil, fmt.Errorf("failed to scan due total: %w", err)
		}
		totals = append(totals, t)
	}

	return totals, rows.Err()
}

// Settlement runs fn inside a transaction that holds the room's row
// lock, serializing settlement runs per room. Any error from fn rolls
// every write back, so touched records never commit half-updated.
func (r *Repository) Settlement(ctx context.Context, roomID int64, fn func(tx SettlementTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin settlement: %w", err)
	}
	defer tx.Rollback()

	var locked int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM connections WHERE id = $1 FOR UPDATE`, roomID).Scan(&locked); err != nil {
		return fmt.Errorf("failed to lock room: %w", err)
	}

	if err := fn(&settlementTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settlement: %w", err)
	}
	return nil
}

// settlementTx exposes the writes the engine performs inside one run.
type settlementTx struct {
	tx *sql.Tx
}

func (s *settlementTx) GetDue(ctx context.Context, id int64) (*Due, error) {
	return getDue(ctx, s.tx, id)
}

// ListCandidates returns the room's other outstanding dues owed by
// debtorID with due_amount at most maxAmount, oldest first.
func (s *settlementTx) ListCandidates(ctx context.Context, roomID, excludeID, debtorID int64, maxAmount float64) ([]*Due, error) {
	query := `
		SELECT id, room_id, created_by, due_to, due_from,
		       total_amount, due_amount, paid_amount, remarks, status, is_due, created_at
		FROM dues
		WHERE room_id = $1 AND id <> $2 AND due_from = $3 AND is_due = true AND due_amount <= $4
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.tx.QueryContext(ctx, query, roomID, excludeID, debtorID, maxAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending dues: %w", err)
	}
	defer rows.Close()

	var dues []*Due
	for rows.Next() {
		d := &Due{}
		if err := rows.Scan(
			&d.ID, &d.RoomID, &d.CreatedBy, &d.DueTo, &d.DueFrom,
			&d.TotalAmount, &d.DueAmount, &d.PaidAmount, &d.Remarks, &d.Status, &d.IsDue, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pending due: %w", err)
		}
		dues = append(dues, d)
	}

	return dues, rows.Err()
}

func (s *settlementTx) UpdateAmounts(ctx context.Context, id int64, dueAmount, paidAmount float64, status string, isDue bool) error {
	query := `
		UPDATE dues
		SET due_amount = $2, paid_amount = $3, status = $4, is_due = $5
		WHERE id = $1
	`
	if _, err := s.tx.ExecContext(ctx, query, id, dueAmount, paidAmount, status, isDue); err != nil {
		return fmt.Errorf("failed to update due %d: %w", id, err)
	}
	return nil
}

func (s *settlementTx) CreateFlag(ctx context.Context, roomID int64, message string) error {
	return createFlag(ctx, s.tx, roomID, message)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func getDue(ctx context.Context, q querier, id int64) (*Due, error) {
	query := `
		SELECT id, room_id, created_by, due_to, due_from,
		       total_amount, due_amount, paid_amount, remarks, status, is_due, created_at
		FROM dues
		WHERE id = $1
	`

	d := &Due{}
	err := q.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.RoomID, &d.CreatedBy, &d.DueTo, &d.DueFrom,
		&d.TotalAmount, &d.DueAmount, &d.PaidAmount, &d.Remarks, &d.Status, &d.IsDue, &d.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get due: %w", err)
	}

	return d, nil
}

func createFlag(ctx context.Context, q querier, roomID int64, message string) error {
	if _, err := q.ExecContext(ctx,
		`INSERT INTO flags (room_id, message) VALUES ($1, $2)`,
		roomID, message,
	); err != nil {
		return fmt.Errorf("failed to create flag: %w", err)
	}
	return nil
}
