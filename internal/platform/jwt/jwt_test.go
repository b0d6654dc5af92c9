package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "opdclaims/pkg/domain-errors"
)

func newService(t *testing.T) *Service {
	t.Helper()
	s, err := NewService("test-signing-key", "opdclaims", "claims-api")
	require.NoError(t, err)
	return s
}

func TestIssueAndValidate(t *testing.T) {
	s := newService(t)
	token, err := s.Issue("ops@plum", time.Hour)
	require.NoError(t, err)

	claims, err := s.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@plum", claims.Subject)
	assert.Equal(t, "claims", claims.Scope)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)

	mw, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@plum", mw.Operator)
	assert.Equal(t, claims.ID, mw.JTI)
}

func TestValidateTokenRejections(t *testing.T) {
	s := newService(t)

	t.Run("garbage", func(t *testing.T) {
		_, err := s.Parse("invalid-token-string")
		assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	t.Run("expired", func(t *testing.T) {
		token, err := s.Issue("ops@plum", -time.Hour)
		require.NoError(t, err)
		_, err = s.Parse(token)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "token has expired")
	})

	t.Run("other signing key", func(t *testing.T) {
		other, err := NewService("another-key", "opdclaims", "claims-api")
		require.NoError(t, err)
		token, err := other.Issue("ops@plum", time.Hour)
		require.NoError(t, err)
		_, err = s.Parse(token)
		assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	t.Run("other audience", func(t *testing.T) {
		other, err := NewService("test-signing-key", "opdclaims", "someone-else")
		require.NoError(t, err)
		token, err := other.Issue("ops@plum", time.Hour)
		require.NoError(t, err)
		_, err = s.Parse(token)
		assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	})
}

func TestIssueRequiresOperator(t *testing.T) {
	_, err := newService(t).Issue(" ", time.Hour)
	assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
}

func TestNewServiceRequiresKey(t *testing.T) {
	_, err := NewService("", "opdclaims", "claims-api")
	assert.Error(t, err)
}
