package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_RoundTrip(t *testing.T) {
	iss, err := NewIssuer("s3cret", time.Hour)
	require.NoError(t, err)

	tok, exp, err := iss.Issue("user-1", "a@b.co")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := iss.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "a@b.co", claims.Email)
}

func TestIssuer_RejectsExpired(t *testing.T) {
	iss, err := NewIssuer("s3cret", time.Minute)
	require.NoError(t, err)
	tok, _, err := iss.Issue("user-1", "a@b.co")
	require.NoError(t, err)

	iss.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = iss.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_RejectsOtherSecret(t *testing.T) {
	a, _ := NewIssuer("one", time.Hour)
	b, _ := NewIssuer("two", time.Hour)
	tok, _, err := a.Issue("user-1", "a@b.co")
	require.NoError(t, err)

	_, err = b.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_RejectsGarbageAndUnsigned(t *testing.T) {
	iss, _ := NewIssuer("s3cret", time.Hour)
	for _, tok := range []string{
		"",
		"not.a.jwt",
		// {"alg":"none"} with sub=user-1
		"eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJzdWIiOiJ1c2VyLTEiLCJleHAiOjQxMDI0NDQ4MDB9.",
	} {
		_, err := iss.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
	}
}

func TestNewIssuer(t *testing.T) {
	_, err := NewIssuer("", time.Hour)
	assert.Error(t, err)

	iss, err := NewIssuer("x", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, iss.ttl)
}
