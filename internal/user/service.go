// Package user implements the profile operations that sit behind a valid
// session: fetching the profile, updating it, attaching a new phone number
// and changing the password.
package user

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/marlenbek/login-service/internal/auth"
	"github.com/marlenbek/login-service/internal/config"
	"github.com/marlenbek/login-service/internal/model"
	"github.com/marlenbek/login-service/internal/queue"
	"github.com/marlenbek/login-service/internal/repository"
	"github.com/marlenbek/login-service/internal/utils"
)

// Store is the slice of the credential store the profile module needs.
// *repository.UserRepo satisfies it.
type Store interface {
	FindByID(ctx context.Context, id uint64) (model.User, error)
	FindByPhone(ctx context.Context, phone string) (model.User, error)
	UpdateProfile(ctx context.Context, id uint64, username string) error
	UpdatePhone(ctx context.Context, id uint64, phone, code string, expiry time.Time) error
	UpdatePassword(ctx context.Context, id uint64, passwordHash string) error
}

// Service exposes profile operations for an already-authenticated user.
type Service struct {
	cfg    config.Config
	users  Store
	notify auth.Notifier
	now    func() time.Time
}

func NewService(cfg config.Config, users Store, notify auth.Notifier) *Service {
	return &Service{cfg: cfg, users: users, notify: notify, now: time.Now}
}

// Get fetches the current profile.
func (s *Service) Get(ctx context.Context, id uint64) (model.User, error) {
	return s.users.FindByID(ctx, id)
}

// UpdateProfile updates the display name and returns the fresh record.
func (s *Service) UpdateProfile(ctx context.Context, id uint64, username string) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.User{}, &auth.ValidationError{Reason: "username is required"}
	}
	if err := s.users.UpdateProfile(ctx, id, username); err != nil {
		return model.User{}, err
	}
	return s.users.FindByID(ctx, id)
}

// UpdatePhone attaches a new phone number to the account and starts the
// verification transition: the account drops back to unverified with a fresh
// login code on the slot, delivered over SMS. The number must not belong to
// another account.
func (s *Service) UpdatePhone(ctx context.Context, id uint64, phone string) (auth.PhoneChallenge, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return auth.PhoneChallenge{}, &auth.ValidationError{Reason: "phone number is required"}
	}
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return auth.PhoneChallenge{}, err
	}
	if _, err := s.users.FindByPhone(ctx, phone); err == nil {
		return auth.PhoneChallenge{}, &auth.ValidationError{Reason: fmt.Sprintf("User with %s is already exists!", phone)}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return auth.PhoneChallenge{}, err
	}

	code, expiry, err := auth.GenerateOTP(s.now(), time.Duration(s.cfg.LoginOTPTTLMin)*time.Minute)
	if err != nil {
		return auth.PhoneChallenge{}, err
	}
	if err := s.users.UpdatePhone(ctx, id, phone, code, expiry); err != nil {
		// The pre-check above races with concurrent updates; the unique
		// index is the real guard.
		if errors.Is(err, repository.ErrPhoneExists) {
			return auth.PhoneChallenge{}, &auth.ValidationError{Reason: fmt.Sprintf("User with %s is already exists!", phone)}
		}
		return auth.PhoneChallenge{}, err
	}

	if s.notify != nil {
		event := queue.NewOTPIssuedEvent(queue.ChannelSMS, phone, code, queue.PurposeLogin, expiry)
		if err := s.notify.OTPIssued(ctx, event); err != nil {
			log.Printf("user: otp delivery publish failed: %v", err)
		}
	}
	return auth.PhoneChallenge{OTP: code, Expires: expiry}, nil
}

// ChangePassword verifies the old password before storing the new one.
func (s *Service) ChangePassword(ctx context.Context, id uint64, oldPassword, newPassword string) error {
	if newPassword == "" {
		return &auth.ValidationError{Reason: "new password is required"}
	}
	u, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return &auth.ValidationError{Reason: "Invalid User"}
	}
	if err != nil {
		return err
	}
	if !u.PasswordHash.Valid || !utils.VerifyPassword(u.PasswordHash.String, oldPassword) {
		return &auth.ValidationError{Reason: "Invalid Old Password"}
	}
	hash, err := utils.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, id, hash)
}
