package auth

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marlenbek/login-service/internal/queue"
	"github.com/marlenbek/login-service/internal/utils"
)

func TestRequestPasswordReset_UnknownEmail(t *testing.T) {
	svc, _, _, _ := newTestService()

	var v *ValidationError
	err := svc.RequestPasswordReset(context.Background(), "ghost@x.com")
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "User not found", v.Reason)
}

func TestRequestPasswordReset_AttachesCodeAndDelivers(t *testing.T) {
	svc, users, _, notify := newTestService()
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	_, err := svc.LoginViaEmail(ctx, "a@x.com", "pw")
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(ctx, "A@X.com"))

	u, err := users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.True(t, u.OTPCode.Valid)
	assert.Regexp(t, `^\d{6}$`, u.OTPCode.String)
	require.True(t, u.OTPExpiry.Valid)
	assert.Equal(t, start.Add(10*time.Minute), u.OTPExpiry.Time)

	require.Len(t, notify.events, 1)
	ev := notify.events[0]
	assert.Equal(t, queue.ChannelEmail, ev.Channel)
	assert.Equal(t, queue.PurposeReset, ev.Purpose)
	assert.Equal(t, "a@x.com", ev.Recipient)
	assert.Equal(t, u.OTPCode.String, ev.Code)
}

func TestVerifyResetCode_DoesNotConsume(t *testing.T) {
	svc, users, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.LoginViaEmail(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	require.NoError(t, svc.RequestPasswordReset(ctx, "a@x.com"))
	u, err := users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	code := u.OTPCode.String

	var v *ValidationError
	err = svc.VerifyResetCode(ctx, "a@x.com", "000000")
	if code == "000000" {
		t.Skip("generated code collides with the wrong-code fixture")
	}
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "Invalid or expired reset token", v.Reason)

	// Unknown email shares the same reason; the endpoint is not an oracle.
	err = svc.VerifyResetCode(ctx, "ghost@x.com", code)
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "Invalid or expired reset token", v.Reason)

	// The check is read-only: it can run repeatedly before the reset commits.
	require.NoError(t, svc.VerifyResetCode(ctx, "a@x.com", code))
	require.NoError(t, svc.VerifyResetCode(ctx, "a@x.com", code))
	u, err = users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, u.OTPCode.Valid)
}

func TestResetPassword_UpdatesAndClearsSlot(t *testing.T) {
	svc, users, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.LoginViaEmail(ctx, "a@x.com", "oldpw")
	require.NoError(t, err)
	require.NoError(t, svc.RequestPasswordReset(ctx, "a@x.com"))
	u, err := users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	code := u.OTPCode.String

	require.NoError(t, svc.ResetPassword(ctx, "a@x.com", code, "newpw"))

	u, err = users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, u.OTPCode.Valid)
	assert.False(t, u.OTPExpiry.Valid)
	assert.True(t, utils.VerifyPassword(u.PasswordHash.String, "newpw"))

	// The old password is gone, the new one logs in.
	var v *ValidationError
	_, err = svc.LoginViaEmail(ctx, "a@x.com", "oldpw")
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "Invalid Password", v.Reason)
	_, err = svc.LoginViaEmail(ctx, "a@x.com", "newpw")
	assert.NoError(t, err)

	// The consumed code cannot be replayed.
	err = svc.ResetPassword(ctx, "a@x.com", code, "again")
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "Invalid or expired reset token", v.Reason)
}

func TestResetPassword_ExpiredCode(t *testing.T) {
	svc, users, _, _ := newTestService()
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	_, err := svc.LoginViaEmail(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	require.NoError(t, svc.RequestPasswordReset(ctx, "a@x.com"))
	u, err := users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	code := u.OTPCode.String

	svc.now = func() time.Time { return start.Add(11 * time.Minute) }

	var v *ValidationError
	err = svc.ResetPassword(ctx, "a@x.com", code, "newpw")
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "Invalid or expired reset token", v.Reason)
}

func TestResetRequest_OverwritesPendingLoginCode(t *testing.T) {
	svc, users, _, _ := newTestService()
	ctx := context.Background()

	// One account reachable by both identities: provision via email, then
	// attach a phone number directly on the store.
	sess, err := svc.LoginViaEmail(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	users.users[sess.User.ID].Phone = sql.NullString{String: "+15550001", Valid: true}

	ch, err := svc.LoginViaPhone(ctx, "+15550001")
	require.NoError(t, err)

	// The reset request lands on the same single OTP slot.
	require.NoError(t, svc.RequestPasswordReset(ctx, "a@x.com"))
	u, err := users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	if u.OTPCode.String == ch.OTP {
		t.Skip("reset code collides with the login code fixture")
	}

	var v *ValidationError
	_, err = svc.VerifyPhone(ctx, "+15550001", ch.OTP)
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "Invalid OTP", v.Reason)
}
