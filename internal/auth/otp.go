package auth

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
	"time"

	"github.com/marlenbek/login-service/internal/model"
)

// One-time codes are 6-digit numbers drawn uniformly over [100000, 999999]
// and handled as fixed-width strings on both sides of the comparison, so a
// leading zero can never be lost to a numeric round trip.
const (
	otpMin  = 100000
	otpSpan = 900000
)

// ErrCodeMismatch is returned by ValidateOTP when the supplied code does not
// equal the stored one, or no code is pending at all.
var ErrCodeMismatch = errors.New("otp mismatch")

// ErrCodeExpired is returned by ValidateOTP when the code matches but its
// expiry has passed.
var ErrCodeExpired = errors.New("otp expired")

// GenerateOTP produces a one-time code and its expiry, ttl from now.
func GenerateOTP(now time.Time, ttl time.Duration) (string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpSpan))
	if err != nil {
		return "", time.Time{}, err
	}
	return strconv.FormatInt(otpMin+n.Int64(), 10), now.UTC().Add(ttl), nil
}

// ValidateOTP checks a supplied code against the user's pending slot.
// Mismatch is reported before expiry, and validation never mutates state:
// a code is single-use only because a successful consuming caller clears
// the slot afterwards.
func ValidateOTP(u model.User, supplied string, now time.Time) error {
	if !u.OTPCode.Valid || !u.OTPExpiry.Valid {
		return ErrCodeMismatch
	}
	if u.OTPCode.String != supplied {
		return ErrCodeMismatch
	}
	if now.After(u.OTPExpiry.Time) {
		return ErrCodeExpired
	}
	return nil
}
