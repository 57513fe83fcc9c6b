package connection

import (
	"context"
	"fmt"

	"github.com/nihalm/duetrack/internal/due"
	"github.com/nihalm/duetrack/internal/user"
	"github.com/nihalm/duetrack/pkg/apperr"
	"github.com/nihalm/duetrack/pkg/timefmt"
)

// Common errors
var (
	ErrRoomNotFound = apperr.NotFound("room not found")
)

// LedgerReader is the ledger read path the aggregator consumes.
type LedgerReader interface {
	DuesByRoom(ctx context.Context, roomID int64) ([]*due.Due, error)
	FlagsByRoom(ctx context.Context, roomID int64) ([]*due.Flag, error)
	OutstandingTotals(ctx context.Context, roomID, memberA, memberB int64) ([]*due.DebtorTotal, error)
}

// FlagWriter appends audit messages to a room's timeline.
type FlagWriter interface {
	CreateFlag(ctx context.Context, roomID int64, message string) error
}

// UserStore resolves member details.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// RoomMessages is a room's full timeline plus each member's
// outstanding balance.
type RoomMessages struct {
	RoomID    int64              `json:"room_id"`
	Entries   []TimelineEntry    `json:"entries"`
	DueStatus []*due.DebtorTotal `json:"due_status"`
}

// Service aggregates rooms for listing and timelines
type Service struct {
	repo   *Repository
	ledger LedgerReader
	flags  FlagWriter
	users  UserStore
}

// NewService creates a new connection service
func NewService(repo *Repository, ledger LedgerReader, flags FlagWriter, users UserStore) *Service {
	return &Service{
		repo:   repo,
		ledger: ledger,
		flags:  flags,
		users:  users,
	}
}

// CreateRoom opens the room for an accepted pair and seeds its two
// welcome flags. A pair can hold at most one room: if one already
// exists it is returned untouched.
func (s *Service) CreateRoom(ctx context.Context, createdBy, other int64) (*Room, error) {
	creator, err := s.users.GetByID(ctx, createdBy)
	if err != nil {
		return nil, err
	}
	addedUser, err := s.users.GetByID(ctx, other)
	if err != nil {
		return nil, err
	}
	if creator == nil || addedUser == nil {
		return nil, apperr.Validation("invalid user ids")
	}

	existing, err := s.repo.GetByMembers(ctx, createdBy, other)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	room, err := s.repo.Create(ctx, createdBy, other)
	if err != nil {
		return nil, err
	}

	if err := s.flags.CreateFlag(ctx, room.ID, "🎉 New connection opened"); err != nil {
		return nil, err
	}
	welcome := fmt.Sprintf("Connection started by %s on %s", creator.Username, timefmt.Date(room.CreatedAt))
	if err := s.flags.CreateFlag(ctx, room.ID, welcome); err != nil {
		return nil, err
	}

	return room, nil
}

// ListConnections builds the user's connection list
func (s *Service) ListConnections(ctx context.Context, userID int64) ([]*Summary, error) {
	return s.repo.ListByUser(ctx, userID)
}

// GetRoomMessages returns the room's unified timeline and per-member
// outstanding totals for a user/counterpart pair.
func (s *Service) GetRoomMessages(ctx context.Context, userID, counterpartID int64) (*RoomMessages, error) {
	room, err := s.repo.GetByMembers(ctx, userID, counterpartID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	dues, err := s.ledger.DuesByRoom(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	flags, err := s.ledger.FlagsByRoom(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	totals, err := s.ledger.OutstandingTotals(ctx, room.ID, userID, counterpartID)
	if err != nil {
		return nil, err
	}

	return &RoomMessages{
		RoomID:    room.ID,
		Entries:   mergeTimeline(dues, flags),
		DueStatus: totals,
	}, nil
}
