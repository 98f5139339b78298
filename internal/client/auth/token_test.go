package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/journeykeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return tok
}

func TestParseSession_JWT(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := signed(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", ExpiresAt: jwt.NewNumericDate(exp)},
		Email:            "ann@example.com",
	})

	s, err := ParseSession(tok, "journey-1")
	require.NoError(t, err)
	assert.Equal(t, tok, s.Token)
	assert.Equal(t, "journey-1", s.JourneyID)
	assert.Equal(t, "user-1", s.UserID)
	assert.Equal(t, "ann@example.com", s.Email)
	require.NotNil(t, s.ExpiresAt)
	assert.True(t, s.ExpiresAt.Equal(exp))
	assert.False(t, s.Expired(time.Now()))
}

func TestParseSession_ExpiredJWTStillParses(t *testing.T) {
	tok := signed(t, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}})

	s, err := ParseSession(tok, "j")
	require.NoError(t, err)
	assert.True(t, s.Expired(time.Now()))
}

func TestParseSession_NoExpiry(t *testing.T) {
	tok := signed(t, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}})
	s, err := ParseSession(tok, "j")
	require.NoError(t, err)
	assert.Nil(t, s.ExpiresAt)
}

func TestParseSession_OpaqueToken(t *testing.T) {
	s, err := ParseSession("mock-token-123", "j")
	require.NoError(t, err)
	assert.Equal(t, "mock-token-123", s.Token)
	assert.Nil(t, s.ExpiresAt)
	assert.Empty(t, s.UserID)
}

func TestParseSession_Invalid(t *testing.T) {
	_, err := ParseSession("  ", "j")
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseSession_ThreeSegmentsButNotJWT(t *testing.T) {
	s, err := ParseSession("a.b.c", "j")
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", s.Token)
	assert.Nil(t, s.ExpiresAt)
}
