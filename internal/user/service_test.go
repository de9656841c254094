package user

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/marlenbek/login-service/internal/auth"
	"github.com/marlenbek/login-service/internal/config"
	"github.com/marlenbek/login-service/internal/model"
	"github.com/marlenbek/login-service/internal/queue"
	"github.com/marlenbek/login-service/internal/repository"
	"github.com/marlenbek/login-service/internal/utils"
)

type fakeStore struct {
	users map[uint64]*model.User
}

func (f *fakeStore) FindByID(_ context.Context, id uint64) (model.User, error) {
	if u, ok := f.users[id]; ok {
		return *u, nil
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeStore) FindByPhone(_ context.Context, phone string) (model.User, error) {
	for _, u := range f.users {
		if u.Phone.Valid && u.Phone.String == phone {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeStore) UpdateProfile(_ context.Context, id uint64, username string) error {
	if u, ok := f.users[id]; ok {
		u.Username = username
	}
	return nil
}

func (f *fakeStore) UpdatePhone(_ context.Context, id uint64, phone, code string, expiry time.Time) error {
	for otherID, u := range f.users {
		if otherID != id && u.Phone.Valid && u.Phone.String == phone {
			return repository.ErrPhoneExists
		}
	}
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Phone = sql.NullString{String: phone, Valid: true}
	u.Verified = false
	u.OTPCode = sql.NullString{String: code, Valid: true}
	u.OTPExpiry = sql.NullTime{Time: expiry, Valid: true}
	return nil
}

func (f *fakeStore) UpdatePassword(_ context.Context, id uint64, passwordHash string) error {
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = sql.NullString{String: passwordHash, Valid: true}
	u.OTPCode = sql.NullString{}
	u.OTPExpiry = sql.NullTime{}
	return nil
}

type captureNotifier struct {
	events []queue.OTPIssuedEvent
}

func (n *captureNotifier) OTPIssued(_ context.Context, event queue.OTPIssuedEvent) error {
	n.events = append(n.events, event)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeStore, *captureNotifier) {
	t.Helper()

	hash, err := utils.HashPassword("oldpw", bcrypt.MinCost)
	require.NoError(t, err)
	store := &fakeStore{users: map[uint64]*model.User{
		1: {
			ID:           1,
			Email:        sql.NullString{String: "a@x.com", Valid: true},
			Username:     "someuser",
			PasswordHash: sql.NullString{String: hash, Valid: true},
			Verified:     true,
		},
		2: {
			ID:    2,
			Phone: sql.NullString{String: "+15550002", Valid: true},
		},
	}}
	notify := &captureNotifier{}
	cfg := config.Config{BcryptCost: bcrypt.MinCost, LoginOTPTTLMin: 5, ResetOTPTTLMin: 10}
	return NewService(cfg, store, notify), store, notify
}

func TestGet(t *testing.T) {
	svc, _, _ := newTestService(t)

	u, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "someuser", u.Username)

	_, err = svc.Get(context.Background(), 99)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	svc, store, _ := newTestService(t)

	u, err := svc.UpdateProfile(context.Background(), 1, "renamed")
	require.NoError(t, err)
	assert.Equal(t, "renamed", u.Username)
	assert.Equal(t, "renamed", store.users[1].Username)

	var v *auth.ValidationError
	_, err = svc.UpdateProfile(context.Background(), 1, "   ")
	require.ErrorAs(t, err, &v)
}

func TestUpdatePhone_StartsVerification(t *testing.T) {
	svc, store, notify := newTestService(t)

	ch, err := svc.UpdatePhone(context.Background(), 1, "+15550001")
	require.NoError(t, err)
	assert.Regexp(t, `^\d{6}$`, ch.OTP)

	u := store.users[1]
	assert.Equal(t, "+15550001", u.Phone.String)
	assert.False(t, u.Verified)
	assert.Equal(t, ch.OTP, u.OTPCode.String)

	require.Len(t, notify.events, 1)
	assert.Equal(t, queue.ChannelSMS, notify.events[0].Channel)
	assert.Equal(t, "+15550001", notify.events[0].Recipient)
}

func TestUpdatePhone_NumberTaken(t *testing.T) {
	svc, _, _ := newTestService(t)

	var v *auth.ValidationError
	_, err := svc.UpdatePhone(context.Background(), 1, "+15550002")
	require.ErrorAs(t, err, &v)
	assert.True(t, strings.Contains(v.Reason, "+15550002"))
}

func TestChangePassword(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	var v *auth.ValidationError
	err := svc.ChangePassword(ctx, 1, "wrong", "newpw")
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "Invalid Old Password", v.Reason)

	require.NoError(t, svc.ChangePassword(ctx, 1, "oldpw", "newpw"))
	assert.True(t, utils.VerifyPassword(store.users[1].PasswordHash.String, "newpw"))

	err = svc.ChangePassword(ctx, 99, "oldpw", "newpw")
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "Invalid User", v.Reason)
}
