package request

import "time"

// Status of a connection request. Only pending requests may
// transition; accepted and rejected are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Request represents a connection request between two users
type Request struct {
	ID        int64     `json:"id"`
	From      int64     `json:"from"`
	To        int64     `json:"to"`
	Status    Status    `json:"status"`
	IsChecked bool      `json:"is_checked"`
	CreatedAt time.Time `json:"created_at"`

	// Populated via JOIN: the counterpart relative to the listing user
	CounterpartUsername string `json:"counterpart_username,omitempty"`
	CounterpartEmail    string `json:"counterpart_email,omitempty"`
}
