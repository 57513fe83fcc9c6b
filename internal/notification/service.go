package notification

import (
	"context"

	"go.uber.org/zap"
)

// Sink is the fire-and-forget side of the notification subsystem. The
// ledger and request flows call it; failures must never propagate into
// the triggering operation.
type Sink interface {
	Notify(ctx context.Context, to int64, ntype Type, title, message string)
}

// Service handles notification business logic
type Service struct {
	repo   *Repository
	logger *zap.Logger
}

// NewService creates a new notification service
func NewService(repo *Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Notify records a notification best-effort. Errors are logged and
// swallowed so the caller's operation is never failed or rolled back
// by an alerting problem.
func (s *Service) Notify(ctx context.Context, to int64, ntype Type, title, message string) {
	if to == 0 || ntype == "" || message == "" {
		return
	}
	if _, err := s.repo.Create(ctx, to, ntype, title, message); err != nil {
		s.logger.Warn("failed to create notification",
			zap.Int64("notified_to", to),
			zap.String("type", string(ntype)),
			zap.Error(err),
		)
	}
}

// ListByUser retrieves a user's notifications
func (s *Service) ListByUser(ctx context.Context, userID int64, unreadOnly bool) ([]*Notification, error) {
	return s.repo.ListByUser(ctx, userID, unreadOnly)
}

// MarkAsRead marks a notification as read
func (s *Service) MarkAsRead(ctx context.Context, id, userID int64) error {
	return s.repo.MarkAsRead(ctx, id, userID)
}
