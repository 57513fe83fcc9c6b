package notification

import "time"

// Notification represents an alert delivered to a single user
type Notification struct {
	ID         int64     `json:"id"`
	NotifiedTo int64     `json:"notified_to"`
	Type       Type      `json:"type"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

// Type classifies notifications for the inbox UI
type Type string

const (
	TypeRequest Type = "request"
	TypeUpdates Type = "updates"
)
