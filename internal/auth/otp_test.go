package auth

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marlenbek/login-service/internal/model"
)

func pendingOTP(code string, expiry time.Time) model.User {
	return model.User{
		OTPCode:   sql.NullString{String: code, Valid: true},
		OTPExpiry: sql.NullTime{Time: expiry, Valid: true},
	}
}

func TestGenerateOTP_Format(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 200; i++ {
		code, expiry, err := GenerateOTP(now, 5*time.Minute)
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.GreaterOrEqual(t, code, "100000")
		assert.LessOrEqual(t, code, "999999")
		assert.Equal(t, now.Add(5*time.Minute), expiry)
	}
}

func TestGenerateOTP_ResetWindow(t *testing.T) {
	now := time.Now().UTC()
	_, expiry, err := GenerateOTP(now, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, now.Add(10*time.Minute), expiry)
}

func TestValidateOTP(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("match within window", func(t *testing.T) {
		u := pendingOTP("123456", now.Add(time.Minute))
		assert.NoError(t, ValidateOTP(u, "123456", now))
	})

	t.Run("exact expiry instant still valid", func(t *testing.T) {
		u := pendingOTP("123456", now)
		assert.NoError(t, ValidateOTP(u, "123456", now))
	})

	t.Run("mismatch", func(t *testing.T) {
		u := pendingOTP("123456", now.Add(time.Minute))
		assert.ErrorIs(t, ValidateOTP(u, "654321", now), ErrCodeMismatch)
	})

	t.Run("no pending code", func(t *testing.T) {
		assert.ErrorIs(t, ValidateOTP(model.User{}, "123456", now), ErrCodeMismatch)
	})

	t.Run("expired", func(t *testing.T) {
		u := pendingOTP("123456", now.Add(-time.Second))
		assert.ErrorIs(t, ValidateOTP(u, "123456", now), ErrCodeExpired)
	})

	t.Run("mismatch reported before expiry", func(t *testing.T) {
		u := pendingOTP("123456", now.Add(-time.Hour))
		assert.ErrorIs(t, ValidateOTP(u, "000000", now), ErrCodeMismatch)
	})

	t.Run("leading zeros compare as strings", func(t *testing.T) {
		u := pendingOTP("100000", now.Add(time.Minute))
		assert.ErrorIs(t, ValidateOTP(u, "1e5", now), ErrCodeMismatch)
	})

	t.Run("never mutates the slot", func(t *testing.T) {
		u := pendingOTP("123456", now.Add(time.Minute))
		require.NoError(t, ValidateOTP(u, "123456", now))
		assert.True(t, u.OTPCode.Valid)
		assert.True(t, u.OTPExpiry.Valid)
	})
}
