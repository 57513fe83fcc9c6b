package connection

import "time"

// Room represents an accepted relationship between exactly two users.
// Members are stored in (low, high) id order so the unordered pair is
// unique at the schema level.
type Room struct {
	ID         int64     `json:"id"`
	MemberLow  int64     `json:"member_low"`
	MemberHigh int64     `json:"member_high"`
	LastDueID  *int64    `json:"last_due_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Members reports the two member ids.
func (r *Room) Members() (int64, int64) {
	return r.MemberLow, r.MemberHigh
}

// Other returns the member that is not userID.
func (r *Room) Other(userID int64) int64 {
	if r.MemberLow == userID {
		return r.MemberHigh
	}
	return r.MemberLow
}

// UserSummary is the counterpart detail shown in listings
type UserSummary struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// LastDueSummary is the denormalized last-entry preview for a room.
// The pointer behind it is a best-effort cache and may be absent.
type LastDueSummary struct {
	TotalAmount float64   `json:"total_amount"`
	DueAmount   float64   `json:"due_amount"`
	PaidAmount  float64   `json:"paid_amount"`
	Remarks     string    `json:"remarks"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Summary is one row of a user's connection list
type Summary struct {
	RoomID        int64           `json:"room_id"`
	ConnectedUser UserSummary     `json:"connected_user"`
	LastDue       *LastDueSummary `json:"last_due,omitempty"`
	TotalDue      float64         `json:"total_due"`
}
