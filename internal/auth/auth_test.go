package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radarjoki/backend/internal/domain"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter2secret")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2secret", hash)

	assert.True(t, CheckPassword(hash, "hunter2secret"))
	assert.False(t, CheckPassword(hash, "wrong-password"))
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	user := &domain.User{
		ID:       "u-1",
		Username: "bob",
		Email:    "bob@example.com",
		Role:     domain.RoleUser,
	}

	token, err := m.IssueToken(user)
	require.NoError(t, err)

	claims, err := m.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "bob", claims.Username)
	assert.Equal(t, "bob@example.com", claims.Email)
	assert.Equal(t, domain.RoleUser, claims.Role)
}

func TestExpiredTokenRejected(t *testing.T) {
	user := &domain.User{ID: "u-1", Username: "bob", Email: "bob@example.com"}

	// NewManager coerces non-positive TTLs, so build an expired manager
	// directly.
	m := &Manager{secret: []byte("test-secret"), tokenTTL: -time.Minute}
	token, err := m.IssueToken(user)
	require.NoError(t, err)

	_, err = m.VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTamperedTokenRejected(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	other := NewManager("other-secret", time.Hour)
	user := &domain.User{ID: "u-1", Username: "bob", Email: "bob@example.com"}

	token, err := other.IssueToken(user)
	require.NoError(t, err)

	_, err = m.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.VerifyToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
