package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nihalm/duetrack/internal/auth"
	"github.com/nihalm/duetrack/internal/mail"
	"github.com/nihalm/duetrack/internal/storage"
	"github.com/nihalm/duetrack/pkg/apperr"
)

// Common errors
var (
	ErrUserNotFound      = apperr.NotFound("user not found")
	ErrEmailAlreadyInUse = apperr.Validation("email already in use")
	ErrFieldsRequired    = apperr.Validation("all fields are required")
	ErrInvalidResetToken = apperr.InvalidState("reset token is invalid or expired")
)

const resetTokenTTL = time.Hour

// Service handles identity business logic
type Service struct {
	repo     *Repository
	jwt      *auth.JWTManager
	mailer   mail.Sender
	uploader storage.Uploader
	logger   *zap.Logger
}

// NewService creates a new user service
func NewService(repo *Repository, jwt *auth.JWTManager, mailer mail.Sender, uploader storage.Uploader, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		jwt:      jwt,
		mailer:   mailer,
		uploader: uploader,
		logger:   logger,
	}
}

// Register creates a new local user with a hashed password
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*User, error) {
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, ErrFieldsRequired
	}

	existing, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyInUse
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, req.Username, req.Email, hash, "local")
}

// Login verifies credentials and issues an access token
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*User, string, error) {
	if req.Email == "" || req.Password == "" {
		return nil, "", ErrFieldsRequired
	}

	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", err
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, "", auth.ErrInvalidCredentials
	}

	token, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// GetByID retrieves a user by their ID
func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile changes username and email, re-checking email uniqueness
func (s *Service) UpdateProfile(ctx context.Context, id int64, req *UpdateProfileRequest) (*User, error) {
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" {
		return nil, ErrFieldsRequired
	}

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != current.Email {
		inUse, err := s.repo.GetByEmail(ctx, req.Email)
		if err != nil {
			return nil, err
		}
		if inUse != nil {
			return nil, ErrEmailAlreadyInUse
		}
	}

	return s.repo.UpdateProfile(ctx, id, req.Username, req.Email)
}

// UpdatePassword verifies the current password before replacing it
func (s *Service) UpdatePassword(ctx context.Context, id int64, req *UpdatePasswordRequest) error {
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return ErrFieldsRequired
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return apperr.Unauthorized("invalid current password")
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, hash)
}

// ForgotPassword issues a reset token and mails it to the user. No
// error is returned for unknown emails, to avoid account probing.
func (s *Service) ForgotPassword(ctx context.Context, req *ForgotPasswordRequest) error {
	if req.Email == "" {
		return ErrFieldsRequired
	}

	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	token := uuid.NewString()
	if err := s.repo.SetResetToken(ctx, user.ID, token, time.Now().Add(resetTokenTTL)); err != nil {
		return err
	}

	msg := mail.Message{
		To:      user.Email,
		Subject: "Reset your password",
		HTML: fmt.Sprintf(
			"<p>Hi %s,</p><p>Use the token below to reset your password. It expires in one hour.</p><p><b>%s</b></p>",
			user.Username, token,
		),
	}
	if err := s.mailer.Send(msg); err != nil {
		return apperr.Upstream("could not send reset mail").WithCause(err)
	}
	return nil
}

// ResetPassword completes the mailed reset flow
func (s *Service) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	if req.Token == "" || req.NewPassword == "" {
		return ErrFieldsRequired
	}

	user, err := s.repo.GetByResetToken(ctx, req.Token)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidResetToken
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	return s.repo.ClearResetToken(ctx, user.ID)
}

// UpdateAvatar stores a new avatar image and removes the old one.
// Deleting the previous blob is best-effort.
func (s *Service) UpdateAvatar(ctx context.Context, id int64, data []byte, filename string) (string, error) {
	if len(data) == 0 {
		return "", apperr.Validation("avatar file is required")
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	url, err := s.uploader.Upload(data, fmt.Sprintf("avatar-%d-%s", id, filename))
	if err != nil {
		return "", apperr.Upstream("could not store avatar").WithCause(err)
	}

	if err := s.repo.UpdateAvatar(ctx, id, url); err != nil {
		return "", err
	}

	if user.AvatarURL != nil && *user.AvatarURL != url {
		if err := s.uploader.Delete(*user.AvatarURL); err != nil {
			s.logger.Warn("failed to delete previous avatar", zap.Int64("user_id", id), zap.Error(err))
		}
	}
	return url, nil
}
