package auth

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/marlenbek/login-service/internal/config"
	"github.com/marlenbek/login-service/internal/model"
	"github.com/marlenbek/login-service/internal/queue"
	"github.com/marlenbek/login-service/internal/repository"
	"github.com/marlenbek/login-service/internal/utils"
)

// UserStore is the credential-store capability the orchestrator needs.
// *repository.UserRepo satisfies it; tests substitute an in-memory fake.
type UserStore interface {
	FindByID(ctx context.Context, id uint64) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByPhone(ctx context.Context, phone string) (model.User, error)
	CreateWithEmail(ctx context.Context, email, passwordHash, username string) (uint64, error)
	UpsertPhoneOTP(ctx context.Context, phone, username, code string, expiry time.Time) (model.User, error)
	MarkVerified(ctx context.Context, id uint64) (bool, error)
	SetOTP(ctx context.Context, id uint64, code string, expiry time.Time) error
	UpdatePassword(ctx context.Context, id uint64, passwordHash string) error
}

// SessionStore is the revocable session-record capability.
// *repository.SessionRepo satisfies it.
type SessionStore interface {
	Create(ctx context.Context, token string, userID uint64, issuedAt time.Time, ttl time.Duration) error
	Exists(ctx context.Context, token string) (bool, error)
	Delete(ctx context.Context, token string) error
}

// Notifier hands generated codes to the out-of-band delivery side-channel.
type Notifier interface {
	OTPIssued(ctx context.Context, event queue.OTPIssuedEvent) error
}

// Session is the user-joined view returned by every successful login path.
type Session struct {
	Token   string
	Expires time.Time
	User    model.User
}

// PhoneChallenge is the outcome of a phone login request. The code is
// always routed through the Notifier; handlers expose it to the caller only
// in sandbox mode.
type PhoneChallenge struct {
	OTP     string
	Expires time.Time
}

// Service is the login orchestrator. All collaborators are injected at
// construction; there is no package-level state.
type Service struct {
	cfg      config.Config
	users    UserStore
	sessions SessionStore
	notify   Notifier
	now      func() time.Time
}

func NewService(cfg config.Config, users UserStore, sessions SessionStore, notify Notifier) *Service {
	return &Service{cfg: cfg, users: users, sessions: sessions, notify: notify, now: time.Now}
}

const generatedUsernameLen = 15

// LoginViaEmail authenticates by email/password, provisioning the account on
// first use. Login and registration are one user-facing action: an unknown
// email becomes a new user with a generated username, a known email must
// match the stored password hash.
func (s *Service) LoginViaEmail(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Session{}, validation("email and password are required")
	}

	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		created, cerr := s.provisionEmailUser(ctx, email, password)
		if cerr == nil {
			return s.issueSession(ctx, created)
		}
		if !errors.Is(cerr, repository.ErrEmailExists) {
			return Session{}, cerr
		}
		// Lost the creation race: a concurrent login provisioned this email
		// first. Retry as a plain login against the winner's record.
		u, err = s.users.FindByEmail(ctx, email)
	}
	if err != nil {
		return Session{}, err
	}

	if !u.PasswordHash.Valid || !utils.VerifyPassword(u.PasswordHash.String, password) {
		return Session{}, validation("Invalid Password")
	}
	return s.issueSession(ctx, u)
}

func (s *Service) provisionEmailUser(ctx context.Context, email, password string) (model.User, error) {
	username, err := utils.RandomUsername(generatedUsernameLen)
	if err != nil {
		return model.User{}, err
	}
	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return model.User{}, err
	}
	id, err := s.users.CreateWithEmail(ctx, email, hash, username)
	if err != nil {
		return model.User{}, err
	}
	return s.users.FindByID(ctx, id)
}

// LoginViaPhone attaches a fresh login code to the record for the phone
// number, creating the record on first contact. Each call drops the verified
// flag and overwrites any in-flight code, so re-requesting a code always
// restarts the verify transition.
func (s *Service) LoginViaPhone(ctx context.Context, phone string) (PhoneChallenge, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return PhoneChallenge{}, validation("phone number is required")
	}

	code, expiry, err := GenerateOTP(s.now(), time.Duration(s.cfg.LoginOTPTTLMin)*time.Minute)
	if err != nil {
		return PhoneChallenge{}, err
	}

	username := ""
	if existing, err := s.users.FindByPhone(ctx, phone); err == nil {
		username = existing.Username
	} else if !errors.Is(err, repository.ErrNotFound) {
		return PhoneChallenge{}, err
	}
	if username == "" {
		if username, err = utils.RandomUsername(generatedUsernameLen); err != nil {
			return PhoneChallenge{}, err
		}
	}

	if _, err := s.users.UpsertPhoneOTP(ctx, phone, username, code, expiry); err != nil {
		return PhoneChallenge{}, err
	}

	s.deliver(ctx, queue.NewOTPIssuedEvent(queue.ChannelSMS, phone, code, queue.PurposeLogin, expiry))
	return PhoneChallenge{OTP: code, Expires: expiry}, nil
}

// VerifyPhone consumes a login code: it marks the account verified, clears
// the code slot and immediately issues a session, fusing verification and
// login into one transition. Verification is single-use per account, not per
// code.
func (s *Service) VerifyPhone(ctx context.Context, phone, code string) (Session, error) {
	phone = strings.TrimSpace(phone)
	u, err := s.users.FindByPhone(ctx, phone)
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, validation("User not found")
	}
	if err != nil {
		return Session{}, err
	}
	if u.Verified {
		return Session{}, validation("User already verified")
	}
	switch err := ValidateOTP(u, code, s.now()); {
	case errors.Is(err, ErrCodeMismatch):
		return Session{}, validation("Invalid OTP")
	case errors.Is(err, ErrCodeExpired):
		return Session{}, validation("OTP has expired")
	case err != nil:
		return Session{}, err
	}

	// Conditional transition: only the caller that actually flips
	// verified=0 to 1 gets a session out of this code.
	flipped, err := s.users.MarkVerified(ctx, u.ID)
	if err != nil {
		return Session{}, err
	}
	if !flipped {
		return Session{}, validation("User already verified")
	}
	u.Verified = true
	u.OTPCode.Valid = false
	u.OTPExpiry.Valid = false
	return s.issueSession(ctx, u)
}

// issueSession mints a bearer token from a point-in-time snapshot of the
// user and persists the matching session record.
func (s *Service) issueSession(ctx context.Context, u model.User) (Session, error) {
	tok, err := utils.NewBearerToken(s.cfg.JWTSecret, u.ID, u.Email.String, u.Username, s.cfg.TokenTTLMin)
	if err != nil {
		return Session{}, err
	}
	issued := s.now().UTC()
	if err := s.sessions.Create(ctx, tok.Token, u.ID, issued, tok.Exp.Sub(issued)); err != nil {
		return Session{}, err
	}
	return Session{Token: tok.Token, Expires: tok.Exp, User: u}, nil
}

// CheckLogin resolves a bearer token to its current user. Three gates, all
// required: the session record still exists (revocation), the token decodes
// as validly signed and unexpired (cryptography), and the user is still
// present in the credential store. Every failure collapses into
// ErrUnauthorized with no detail about which gate tripped.
func (s *Service) CheckLogin(ctx context.Context, token string) (model.User, error) {
	u, err := s.checkLogin(ctx, token)
	if err != nil {
		return model.User{}, ErrUnauthorized
	}
	return u, nil
}

func (s *Service) checkLogin(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, ErrUnauthorized
	}
	ok, err := s.sessions.Exists(ctx, token)
	if err != nil {
		return model.User{}, err
	}
	if !ok {
		return model.User{}, ErrUnauthorized
	}
	claims, err := utils.DecodeBearerToken(s.cfg.JWTSecret, token)
	if err != nil {
		return model.User{}, err
	}
	return s.users.FindByID(ctx, claims.UserID)
}

// Logout revokes the session record for a token. Revoking a token that has
// no record is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// deliver hands a code to the side-channel. Delivery is an external
// collaborator: a broker outage must not fail the login call, so the error
// is logged and dropped here.
func (s *Service) deliver(ctx context.Context, event queue.OTPIssuedEvent) {
	if s.notify == nil {
		return
	}
	if err := s.notify.OTPIssued(ctx, event); err != nil {
		log.Printf("auth: otp delivery publish failed: %v", err)
	}
}
