package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/marlenbek/login-service/internal/model"
	"github.com/marlenbek/login-service/internal/queue"
	"github.com/marlenbek/login-service/internal/repository"
	"github.com/marlenbek/login-service/internal/utils"
)

// The password-reset flow reuses the user's single OTP slot, so a reset code
// and a phone-login code for the same account cannot coexist: the later
// request silently overwrites the earlier one.

// RequestPasswordReset attaches a reset code to the account and routes it to
// the email delivery channel. Unlike the login paths, an unknown email is
// reported to the caller; the original product treated reset requests as an
// account-management action, not an enumeration surface.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return validation("email is required")
	}
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return validation("User not found")
	}
	if err != nil {
		return err
	}

	code, expiry, err := GenerateOTP(s.now(), time.Duration(s.cfg.ResetOTPTTLMin)*time.Minute)
	if err != nil {
		return err
	}
	if err := s.users.SetOTP(ctx, u.ID, code, expiry); err != nil {
		return err
	}
	s.deliver(ctx, queue.NewOTPIssuedEvent(queue.ChannelEmail, email, code, queue.PurposeReset, expiry))
	return nil
}

// VerifyResetCode checks the email + code + expiry triple without consuming
// the code, so a client can verify before committing to a new password.
func (s *Service) VerifyResetCode(ctx context.Context, email, code string) error {
	_, err := s.findByResetTriple(ctx, email, code)
	return err
}

// ResetPassword re-validates the triple, stores the new password and clears
// the code slot in the same write.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if newPassword == "" {
		return validation("new password is required")
	}
	u, err := s.findByResetTriple(ctx, email, code)
	if err != nil {
		return err
	}
	hash, err := utils.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, u.ID, hash)
}

// findByResetTriple resolves email + code + unexpired window to a user. All
// failure causes share one reason so the endpoint cannot be used to probe
// which part of the triple was wrong.
func (s *Service) findByResetTriple(ctx context.Context, email, code string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, validation("Invalid or expired reset token")
	}
	if err != nil {
		return model.User{}, err
	}
	if err := ValidateOTP(u, code, s.now()); err != nil {
		if errors.Is(err, ErrCodeMismatch) || errors.Is(err, ErrCodeExpired) {
			return model.User{}, validation("Invalid or expired reset token")
		}
		return model.User{}, err
	}
	return u, nil
}
