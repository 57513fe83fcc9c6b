package due

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/nihalm/duetrack/internal/extractor"
	"github.com/nihalm/duetrack/internal/user"
	"github.com/nihalm/duetrack/pkg/apperr"
)

// Common errors
var (
	ErrDueNotFound  = apperr.NotFound("due not found")
	ErrRoomNotFound = apperr.NotFound("room not found. Create a request first")
	ErrInvalidUsers = apperr.Validation("invalid users")
)

// Store is the ledger persistence the service writes through.
type Store interface {
	CreateDue(ctx context.Context, d *Due) (*Due, error)
	GetDue(ctx context.Context, id int64) (*Due, error)
	Settlement(ctx context.Context, roomID int64, fn func(tx SettlementTx) error) error
}

// SettlementTx is one atomic settlement run. Implementations must
// apply all writes or none.
type SettlementTx interface {
	GetDue(ctx context.Context, id int64) (*Due, error)
	ListCandidates(ctx context.Context, roomID, excludeID, debtorID int64, maxAmount float64) ([]*Due, error)
	UpdateAmounts(ctx context.Context, id int64, dueAmount, paidAmount float64, status string, isDue bool) error
	CreateFlag(ctx context.Context, roomID int64, message string) error
}

// RoomStore resolves and annotates the two-party room a due lives in.
type RoomStore interface {
	FindByMembers(ctx context.Context, userA, userB int64) (int64, error)
	SetLastDue(ctx context.Context, roomID, dueID int64) error
}

// UserStore resolves the parties of a due.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// Extractor classifies a free-text payment claim.
type Extractor interface {
	Extract(ctx context.Context, message string) (*extractor.Result, error)
}

// Service owns due creation and settlement
type Service struct {
	store     Store
	rooms     RoomStore
	users     UserStore
	extractor Extractor
	logger    *zap.Logger
}

// NewService creates a new due service
func NewService(store Store, rooms RoomStore, users UserStore, ext Extractor, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		rooms:     rooms,
		users:     users,
		extractor: ext,
		logger:    logger,
	}
}

// CreateDue turns a free-text claim into a ledger entry. Both users
// must exist and already share a room. The extractor's direction maps
// onto concrete parties: a self-paid claim means the acting user is
// owed. No entry is persisted when extraction fails.
func (s *Service) CreateDue(ctx context.Context, actingUserID, counterpartID int64, message string) (*Due, error) {
	actingUser, err := s.users.GetByID(ctx, actingUserID)
	if err != nil {
		return nil, err
	}
	counterpart, err := s.users.GetByID(ctx, counterpartID)
	if err != nil {
		return nil, err
	}
	if actingUser == nil || counterpart == nil {
		return nil, ErrInvalidUsers
	}

	roomID, err := s.rooms.FindByMembers(ctx, actingUserID, counterpartID)
	if err != nil {
		return nil, err
	}
	if roomID == 0 {
		return nil, ErrRoomNotFound
	}

	result, err := s.extractor.Extract(ctx, message)
	if err != nil {
		return nil, err
	}

	dueToUser, dueFromUser := actingUser, counterpart
	if result.PaidBy == extractor.PaidByOther {
		dueToUser, dueFromUser = counterpart, actingUser
	}

	created, err := s.store.CreateDue(ctx, &Due{
		RoomID:      roomID,
		CreatedBy:   actingUserID,
		DueTo:       dueToUser.ID,
		DueFrom:     dueFromUser.ID,
		TotalAmount: result.Amount,
		DueAmount:   result.Amount,
		PaidAmount:  0,
		Remarks:     result.Remarks,
		Status:      fmt.Sprintf("Payment due to %s", dueToUser.Username),
		IsDue:       true,
	})
	if err != nil {
		return nil, err
	}

	// The last-due pointer is a denormalized cache for listing; a
	// failed update must not fail the creation.
	if err := s.rooms.SetLastDue(ctx, roomID, created.ID); err != nil {
		s.logger.Warn("failed to update room last-due pointer",
			zap.Int64("room_id", roomID),
			zap.Int64("due_id", created.ID),
			zap.Error(err),
		)
	}

	return created, nil
}

// formatAmount renders amounts the way the UI shows them: no trailing
// zeros, no grouping.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
