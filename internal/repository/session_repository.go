package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marlenbek/login-service/internal/model"
)

// SessionRepo is the session store: one Redis hash per issued bearer token,
// keyed by the token's SHA-256 digest so a stolen Redis dump cannot be
// replayed as live tokens. The record's existence is the revocation switch;
// the key TTL mirrors the token's own expiry purely as garbage collection
// and never revokes a token the cryptographic gate would still accept.
type SessionRepo struct {
	RDB *redis.Client
}

func NewSessionRepo(rdb *redis.Client) *SessionRepo { return &SessionRepo{RDB: rdb} }

const sessionKeyPrefix = "session:"

// HashToken returns the SHA-256 hex digest of a raw bearer token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func sessionKey(token string) string {
	return sessionKeyPrefix + HashToken(token)
}

// Create persists a session record for a freshly issued token. Writing is
// idempotent on the token, so a retried issuance after a partial failure
// simply overwrites the same record.
func (r *SessionRepo) Create(ctx context.Context, token string, userID uint64, issuedAt time.Time, ttl time.Duration) error {
	key := sessionKey(token)
	pipe := r.RDB.TxPipeline()
	pipe.HSet(ctx, key,
		"user_id", strconv.FormatUint(userID, 10),
		"issued_at", issuedAt.UTC().Format(time.RFC3339))
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Exists reports whether a session record for the token is still present.
func (r *SessionRepo) Exists(ctx context.Context, token string) (bool, error) {
	n, err := r.RDB.Exists(ctx, sessionKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Get loads the session record for a token, or ErrNotFound.
func (r *SessionRepo) Get(ctx context.Context, token string) (model.SessionRecord, error) {
	vals, err := r.RDB.HGetAll(ctx, sessionKey(token)).Result()
	if err != nil {
		return model.SessionRecord{}, err
	}
	if len(vals) == 0 {
		return model.SessionRecord{}, ErrNotFound
	}
	rec := model.SessionRecord{TokenHash: HashToken(token)}
	if rec.UserID, err = strconv.ParseUint(vals["user_id"], 10, 64); err != nil {
		return model.SessionRecord{}, err
	}
	if rec.IssuedAt, err = time.Parse(time.RFC3339, vals["issued_at"]); err != nil {
		return model.SessionRecord{}, err
	}
	return rec, nil
}

// Delete removes the session record for a token. Deleting a token that has
// no record is not an error, which keeps logout idempotent.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	return r.RDB.Del(ctx, sessionKey(token)).Err()
}
