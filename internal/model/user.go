package model

import (
	"database/sql"
	"time"
)

// User represents an application user record as stored in the `users` table.
// An account is reachable by email (email/password login) or by phone number
// (OTP login); both identities may coexist on one record. The one-time code
// and its expiry live directly on the row and are always set or cleared
// together.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Email        – unique email address, lowercased (null for phone-only accounts).
//	Username     – display name; generated when the account is provisioned implicitly.
//	Phone        – unique phone number (null for email-only accounts).
//	PasswordHash – bcrypt hashed password (null until a password is set).
//	Verified     – whether the account passed phone verification.
//	OTPCode      – pending one-time code as a fixed-width digit string (nullable).
//	OTPExpiry    – expiry of the pending code (nullable).
//	Role         – authorization tag, opaque to this service.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64         // users.id
	Email        sql.NullString // users.email
	Username     string         // users.username
	Phone        sql.NullString // users.phone
	PasswordHash sql.NullString // users.password_hash
	Verified     bool           // users.verified
	OTPCode      sql.NullString // users.otp_code
	OTPExpiry    sql.NullTime   // users.otp_expiry
	Role         string         // users.role
	CreatedAt    time.Time      // users.created_at
	UpdatedAt    time.Time      // users.updated_at
}

// SessionRecord models a server-side session entry in Redis. The plain
// bearer token is not stored; the record is keyed by its SHA-256 hash. The
// record's existence is the sole revocation switch for the token; the
// token's own embedded expiry is a second, independent gate.
//
// Fields:
//
//	TokenHash – SHA-256 hex digest of the bearer token.
//	UserID    – owner of the session.
//	IssuedAt  – when the session was created.
type SessionRecord struct {
	TokenHash string
	UserID    uint64
	IssuedAt  time.Time
}
