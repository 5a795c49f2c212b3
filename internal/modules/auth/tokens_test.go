package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	iss := NewIssuer([]byte("test-secret"), "marketly", time.Hour)

	raw, exp, err := iss.Issue(Identity{UserID: "u1", Email: "a@example.com", Role: "seller"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	id, err := iss.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "u1", Email: "a@example.com", Role: "seller"}, id)
}

func TestParseRejects(t *testing.T) {
	iss := NewIssuer([]byte("test-secret"), "marketly", time.Hour)
	raw, _, err := iss.Issue(Identity{UserID: "u1", Role: "customer"})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewIssuer([]byte("other"), "marketly", time.Hour)
		_, err := other.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewIssuer([]byte("test-secret"), "someone-else", time.Hour)
		_, err := other.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewIssuer([]byte("test-secret"), "marketly", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("alg none", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Subject:   "u1",
			Issuer:    "marketly",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		unsigned, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = iss.Parse(unsigned)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := iss.Parse("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("empty subject cannot be issued", func(t *testing.T) {
		_, _, err := iss.Issue(Identity{})
		assert.Error(t, err)
	})
}
