package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/marlenbek/login-service/internal/model"
)

const userColumns = "id,email,username,phone,password_hash,verified,otp_code,otp_expiry,role,created_at,updated_at"

// UserRepo is the credential store: CRUD against the 'users' table. It holds
// no hashing or token logic; those are pure capabilities composed by the
// service layer.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.Phone, &u.PasswordHash,
		&u.Verified, &u.OTPCode, &u.OTPExpiry, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	return u, err
}

// FindByID fetches a user by id.
func (r *UserRepo) FindByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// FindByEmail fetches a user by normalized email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// FindByPhone fetches a user by phone number.
func (r *UserRepo) FindByPhone(ctx context.Context, phone string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE phone=? LIMIT 1", phone))
}

// CreateWithEmail inserts an email/password user and returns its ID. The
// password arrives already hashed. A duplicate email maps to ErrEmailExists
// so the caller can retry the lost creation race as a login.
func (r *UserRepo) CreateWithEmail(ctx context.Context, email, passwordHash, username string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, username) VALUES (?,?,?)",
		email, passwordHash, username)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// UpsertPhoneOTP creates or refreshes the phone-login record for a number:
// on first contact it inserts a new unverified user with the generated
// username, on repeat contact it only overwrites the OTP slot and drops the
// verified flag. The unique phone index makes concurrent first contacts
// collapse onto one row, so the loser of the race lands on the UPDATE arm.
func (r *UserRepo) UpsertPhoneOTP(ctx context.Context, phone, username, code string, expiry time.Time) (model.User, error) {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (phone, username, verified, otp_code, otp_expiry)
		 VALUES (?,?,0,?,?)
		 ON DUPLICATE KEY UPDATE verified=0, otp_code=VALUES(otp_code), otp_expiry=VALUES(otp_expiry)`,
		phone, username, code, expiry)
	if err != nil {
		return model.User{}, err
	}
	return r.FindByPhone(ctx, phone)
}

// MarkVerified flips an unverified user to verified and consumes the OTP
// slot in one conditional update. It reports false when the user was already
// verified, which makes the verify transition atomic under concurrent calls.
func (r *UserRepo) MarkVerified(ctx context.Context, id uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET verified=1, otp_code=NULL, otp_expiry=NULL WHERE id=? AND verified=0", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetOTP stores a pending code and its expiry on the user's single OTP slot,
// silently overwriting any in-flight code.
func (r *UserRepo) SetOTP(ctx context.Context, id uint64, code string, expiry time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET otp_code=?, otp_expiry=? WHERE id=?", code, expiry, id)
	return err
}

// UpdatePassword stores a new password hash and clears the OTP slot.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, otp_code=NULL, otp_expiry=NULL WHERE id=?", passwordHash, id)
	return err
}

// UpdatePhone attaches a new phone number with a fresh pending code and
// drops the verified flag. A duplicate number maps to ErrPhoneExists.
func (r *UserRepo) UpdatePhone(ctx context.Context, id uint64, phone, code string, expiry time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET phone=?, verified=0, otp_code=?, otp_expiry=? WHERE id=?",
		phone, code, expiry, id)
	if err != nil && isDuplicate(err) {
		return ErrPhoneExists
	}
	return err
}

// UpdateProfile updates the mutable profile fields.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, username string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET username=? WHERE id=?", username, id)
	return err
}

// isDuplicate reports whether err is a MySQL duplicate-key violation (1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
