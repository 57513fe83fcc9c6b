package due

// CreateDueRequest represents the request to record a payment claim
type CreateDueRequest struct {
	ConnectedUserID int64  `json:"connected_user_id" validate:"required"`
	Message         string `json:"message" validate:"required"`
}

// DueResponse represents the response for a single due
type DueResponse struct {
	ID          int64   `json:"id"`
	RoomID      int64   `json:"room_id"`
	CreatedBy   int64   `json:"created_by"`
	DueTo       int64   `json:"due_to"`
	DueFrom     int64   `json:"due_from"`
	TotalAmount float64 `json:"total_amount"`
	DueAmount   float64 `json:"due_amount"`
	PaidAmount  float64 `json:"paid_amount"`
	Remarks     string  `json:"remarks"`
	Status      string  `json:"status"`
	IsDue       bool    `json:"is_due"`
	CreatedAt   string  `json:"created_at"`
}

// ToResponse converts a Due model to a DueResponse DTO
func (d *Due) ToResponse() *DueResponse {
	return &DueResponse{
		ID:          d.ID,
		RoomID:      d.RoomID,
		CreatedBy:   d.CreatedBy,
		DueTo:       d.DueTo,
		DueFrom:     d.DueFrom,
		TotalAmount: d.TotalAmount,
		DueAmount:   d.DueAmount,
		PaidAmount:  d.PaidAmount,
		Remarks:     d.Remarks,
		Status:      d.Status,
		IsDue:       d.IsDue,
		CreatedAt:   d.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
