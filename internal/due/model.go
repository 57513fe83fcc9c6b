package due

import "time"

// Due is one claimed payment and its current outstanding/paid split.
// Records are immutable except for the settlement fields (due_amount,
// paid_amount, status, is_due) and are never deleted.
//
// Invariant: TotalAmount = DueAmount + PaidAmount, DueAmount >= 0 and
// IsDue == (DueAmount > 0) on every persisted record.
type Due struct {
	ID          int64     `json:"id"`
	RoomID      int64     `json:"room_id"`
	CreatedBy   int64     `json:"created_by"`
	DueTo       int64     `json:"due_to"`
	DueFrom     int64     `json:"due_from"`
	TotalAmount float64   `json:"total_amount"`
	DueAmount   float64   `json:"due_amount"`
	PaidAmount  float64   `json:"paid_amount"`
	Remarks     string    `json:"remarks"`
	Status      string    `json:"status"`
	IsDue       bool      `json:"is_due"`
	CreatedAt   time.Time `json:"created_at"`

	// Populated via JOIN
	CreatorUsername string  `json:"creator_username,omitempty"`
	CreatorEmail    string  `json:"creator_email,omitempty"`
	CreatorAvatar   *string `json:"creator_avatar,omitempty"`
}

// Flag is an immutable audit message on a room's timeline. It carries
// no financial meaning and is display-only.
type Flag struct {
	ID        int64     `json:"id"`
	RoomID    int64     `json:"room_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// DebtorTotal reports one member's total outstanding amount in a room.
type DebtorTotal struct {
	UserID   int64   `json:"user_id"`
	Username string  `json:"username"`
	TotalDue float64 `json:"total_due"`
}
