package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("0123456789abcdef0123456789abcdef", time.Hour)

	token, err := issuer.Issue(&Account{ID: 42, Username: "amina"})
	require.NoError(t, err)

	userID, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("0123456789abcdef0123456789abcdef", time.Hour)
	other := NewTokenIssuer("fedcba9876543210fedcba9876543210", time.Hour)

	token, err := issuer.Issue(&Account{ID: 1})
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	issuer := NewTokenIssuer("0123456789abcdef0123456789abcdef", -time.Minute)

	token, err := issuer.Issue(&Account{ID: 1})
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.Error(t, err)
}

func TestTokenGarbage(t *testing.T) {
	issuer := NewTokenIssuer("0123456789abcdef0123456789abcdef", time.Hour)
	_, err := issuer.Verify("not.a.token")
	assert.Error(t, err)
}
