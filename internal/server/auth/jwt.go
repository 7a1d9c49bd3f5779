// Package auth issues and verifies self-contained signed session tokens.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/niceweather/internal/clock"
	"github.com/dmitrijs2005/niceweather/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the standard registered claims only: "sub" is the user id
// and "jti" identifies the session for push token binding.
type Claims struct {
	jwt.RegisteredClaims
}

// Signer signs HS256 tokens with a shared secret.
type Signer struct {
	secret []byte
	clock  clock.Clock
}

func NewSigner(secret []byte, c clock.Clock) *Signer {
	return &Signer{secret: secret, clock: c}
}

// Issue returns a compact JWT for userID valid for ttl together with its
// session id and expiry.
func (s *Signer) Issue(userID string, ttl time.Duration) (token, sessionID string, expiresAt time.Time, err error) {
	now := s.clock.Now()
	// JWT NumericDate has second precision
	expiresAt = now.Add(ttl).Truncate(time.Second)
	sessionID = uuid.NewString()

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	token, err = t.SignedString(s.secret)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return token, sessionID, expiresAt, nil
}

// Verify checks signature and expiry. It returns common.ErrTokenExpired for a
// well-formed expired token and common.ErrInvalidToken for anything else.
func (s *Signer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
