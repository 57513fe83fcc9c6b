package request

import (
	"context"
	"fmt"

	"github.com/nihalm/duetrack/internal/connection"
	"github.com/nihalm/duetrack/internal/notification"
	"github.com/nihalm/duetrack/internal/user"
	"github.com/nihalm/duetrack/pkg/apperr"
	"github.com/nihalm/duetrack/pkg/timefmt"
)

// Common errors
var (
	ErrRequestNotFound  = apperr.NotFound("request not found")
	ErrDuplicateRequest = apperr.DuplicateRequest("request already exists")
	ErrNotPending       = apperr.InvalidState("request can not be updated")
	ErrNotRecipient     = apperr.Unauthorized("only the recipient can decide a request")
	ErrNotSender        = apperr.Unauthorized("only the sender can withdraw a request")
	ErrSelfRequest      = apperr.Validation("cannot create a request to yourself")
)

// Store is the request persistence the service writes through.
type Store interface {
	Create(ctx context.Context, from, to int64) (*Request, error)
	GetByID(ctx context.Context, id int64) (*Request, error)
	ActiveExists(ctx context.Context, userA, userB int64) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status Status) (bool, error)
	Delete(ctx context.Context, id int64) error
	ListPending(ctx context.Context, userID int64, received bool) ([]*Request, error)
	MarkChecked(ctx context.Context, userID int64) error
}

// RoomCreator opens the room for an accepted pair.
type RoomCreator interface {
	CreateRoom(ctx context.Context, createdBy, other int64) (*connection.Room, error)
}

// UserStore resolves the parties of a request.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// Service drives the request state machine
type Service struct {
	store    Store
	rooms    RoomCreator
	users    UserStore
	notifier notification.Sink
}

// NewService creates a new request service
func NewService(store Store, rooms RoomCreator, users UserStore, notifier notification.Sink) *Service {
	return &Service{
		store:    store,
		rooms:    rooms,
		users:    users,
		notifier: notifier,
	}
}

// Create opens a pending request and alerts the recipient
func (s *Service) Create(ctx context.Context, fromID, toID int64) (*Request, error) {
	if fromID == toID {
		return nil, ErrSelfRequest
	}

	fromUser, err := s.users.GetByID(ctx, fromID)
	if err != nil {
		return nil, err
	}
	toUser, err := s.users.GetByID(ctx, toID)
	if err != nil {
		return nil, err
	}
	if fromUser == nil || toUser == nil {
		return nil, apperr.Validation("invalid users")
	}

	exists, err := s.store.ActiveExists(ctx, fromID, toID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateRequest
	}

	req, err := s.store.Create(ctx, fromID, toID)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, toID, notification.TypeRequest, "New connection request alert",
		fmt.Sprintf("A connection request created by %s. Accept if you want to connect otherwise reject it.", fromUser.Username))

	return req, nil
}

// Update accepts or rejects a pending request. Accepting creates the
// room, seeds its welcome flags and alerts both members; rejecting
// alerts the requester only. Non-pending requests are immutable.
func (s *Service) Update(ctx context.Context, userID, requestID int64, status Status) error {
	if status != StatusAccepted && status != StatusRejected {
		return apperr.Validation("status must be accepted or rejected")
	}

	req, err := s.store.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req == nil {
		return ErrRequestNotFound
	}
	if req.To != userID {
		return ErrNotRecipient
	}
	if req.Status != StatusPending {
		return ErrNotPending
	}

	transitioned, err := s.store.UpdateStatus(ctx, requestID, status)
	if err != nil {
		return err
	}
	if !transitioned {
		return ErrNotPending
	}

	fromUser, err := s.users.GetByID(ctx, req.From)
	if err != nil {
		return err
	}
	toUser, err := s.users.GetByID(ctx, req.To)
	if err != nil {
		return err
	}
	if fromUser == nil || toUser == nil {
		return apperr.Validation("invalid users")
	}

	if status == StatusRejected {
		s.notifier.Notify(ctx, req.From, notification.TypeUpdates, "Request update",
			fmt.Sprintf("Your connection request to %s has been rejected", toUser.Username))
		return nil
	}

	room, err := s.rooms.CreateRoom(ctx, req.From, req.To)
	if err != nil {
		return err
	}

	openedAt := timefmt.Date(room.CreatedAt)
	s.notifier.Notify(ctx, req.From, notification.TypeUpdates, "New Connection Started",
		fmt.Sprintf("🎉 New connection opened with %s at %s", toUser.Username, openedAt))
	s.notifier.Notify(ctx, req.To, notification.TypeUpdates, "New Connection Started",
		fmt.Sprintf("🎉 New connection opened with %s at %s", fromUser.Username, openedAt))

	return nil
}

// Remove withdraws a pending request
func (s *Service) Remove(ctx context.Context, userID, requestID int64) error {
	req, err := s.store.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req == nil {
		return ErrRequestNotFound
	}
	if req.From != userID {
		return ErrNotSender
	}
	if req.Status != StatusPending {
		return ErrNotPending
	}

	return s.store.Delete(ctx, requestID)
}

// List retrieves the user's pending requests, received or sent
func (s *Service) List(ctx context.Context, userID int64, filter string) ([]*Request, error) {
	return s.store.ListPending(ctx, userID, filter == "received")
}

// Checkout marks the user's pending received requests as seen
func (s *Service) Checkout(ctx context.Context, userID int64) error {
	return s.store.MarkChecked(ctx, userID)
}
