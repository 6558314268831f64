package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJWTVerifierAcceptsValidToken(t *testing.T) {
	v := NewJWTVerifier("shh-secret", "salestrain")
	token, err := IssueForTests("shh-secret", "salestrain", "user-42", time.Minute)
	require.NoError(t, err)

	userID, err := v.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "user-42", userID)
}

func TestJWTVerifierRejectsExpiredToken(t *testing.T) {
	v := NewJWTVerifier("shh-secret", "salestrain")
	token, err := IssueForTests("shh-secret", "salestrain", "user-42", -time.Minute)
	require.NoError(t, err)

	_, err = v.VerifyToken(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTVerifierRejectsWrongIssuer(t *testing.T) {
	v := NewJWTVerifier("shh-secret", "salestrain")
	token, err := IssueForTests("shh-secret", "someone-else", "user-42", time.Minute)
	require.NoError(t, err)

	_, err = v.VerifyToken(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTVerifierRejectsBadSignature(t *testing.T) {
	v := NewJWTVerifier("shh-secret", "salestrain")
	token, err := IssueForTests("different-secret", "salestrain", "user-42", time.Minute)
	require.NoError(t, err)

	_, err = v.VerifyToken(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestStaticVerifier(t *testing.T) {
	v := StaticVerifier{"tok-a": "user-a"}
	userID, err := v.VerifyToken(context.Background(), "tok-a")
	require.NoError(t, err)
	require.Equal(t, "user-a", userID)

	_, err = v.VerifyToken(context.Background(), "tok-b")
	require.ErrorIs(t, err, ErrInvalidToken)
}
