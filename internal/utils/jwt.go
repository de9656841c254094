package utils // package utils provides the stateless capabilities composed by the service layer

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClaims is the minimal claim set embedded in a bearer token. The
// values are a point-in-time snapshot of the user at issuance; later profile
// edits do not retroactively change already-issued tokens.
type TokenClaims struct {
	UserID   uint64 `json:"uid"`
	Email    string `json:"email,omitempty"`
	Username string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// BearerToken pairs a signed JWT string with its expiry. The Exp field lets
// callers align the session record's garbage-collection TTL with the token.
type BearerToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// ErrUnexpectedSigningMethod is returned when a token was signed with
// anything other than HMAC.
var ErrUnexpectedSigningMethod = errors.New("unexpected signing method")

// NewBearerToken builds and signs an HS256 JWT from a user snapshot. The
// claims carry the user id as both uid and subject, the email and display
// name, issued-at and expiry.
func NewBearerToken(secret string, userID uint64, email, username string, ttlMin int) (BearerToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := TokenClaims{
		UserID:   userID,
		Email:    email,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			// The jti claim makes every issuance distinct, so two logins in
			// the same second still map to two independent session records.
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return BearerToken{}, err
	}
	return BearerToken{Token: signed, Exp: exp}, nil
}

// DecodeBearerToken parses and validates a signed token, rejecting wrong
// signing methods, bad signatures and expired tokens. On success it returns
// the embedded claims.
func DecodeBearerToken(secret, raw string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnexpectedSigningMethod
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}
