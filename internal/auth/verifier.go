// Package auth implements the external auth verifier interface named in
// spec.md §1: verifyToken(opaque) -> userId | err.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any rejected token; the Dispatcher logs it
// and continues the session unauthenticated per spec.md §7 AuthInvalid policy
// ("session continues but is not persisted").
var ErrInvalidToken = errors.New("invalid token")

// Verifier resolves an opaque bearer token to a userId.
type Verifier interface {
	VerifyToken(ctx context.Context, token string) (userID string, err error)
}

// JWTVerifier validates HS256 JWTs against a shared secret.
type JWTVerifier struct {
	secret []byte
	issuer string
}

// NewJWTVerifier builds a JWTVerifier. issuer may be empty to skip issuer
// validation.
func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer}
}

func (v *JWTVerifier) VerifyToken(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if v.issuer != "" && claims.Issuer != v.issuer {
		return "", fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, claims.Issuer)
	}

	userID := claims.Subject
	if userID == "" {
		return "", fmt.Errorf("%w: missing subject claim", ErrInvalidToken)
	}
	return userID, nil
}

// StaticVerifier maps fixed tokens to userIds, used in tests and local runs
// without a real identity provider.
type StaticVerifier map[string]string

func (v StaticVerifier) VerifyToken(_ context.Context, token string) (string, error) {
	userID, ok := v[token]
	if !ok {
		return "", ErrInvalidToken
	}
	return userID, nil
}

// IssueForTests mints a short-lived HS256 token, used only by tests that
// exercise JWTVerifier against real tokens.
func IssueForTests(secret, issuer, subject string, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(secret))
}
