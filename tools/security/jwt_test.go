package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SermoProject/tools/errs"
)

func TestGenerateVerifyRoundTrip(t *testing.T) {
	opts := DefaultOptions([]byte("secret"))

	token, exp, err := Generate(opts, 7, "bob")
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	ident, err := Verify(opts, token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), ident.UserID)
	assert.Equal(t, "bob", ident.Username)
}

func TestVerifyExpired(t *testing.T) {
	opts := DefaultOptions([]byte("secret"))
	// TTL<=0 falls back to the default inside Generate, so force expiry with
	// a short positive TTL.
	opts.TTL = time.Millisecond

	token, _, err := Generate(opts, 7, "bob")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	_, err = Verify(opts, token)
	require.Error(t, err)
	assert.True(t, errs.ErrTokenExpired.Is(err))
}

func TestVerifyWrongSecret(t *testing.T) {
	token, _, err := Generate(DefaultOptions([]byte("right")), 7, "bob")
	require.NoError(t, err)

	_, err = Verify(DefaultOptions([]byte("wrong")), token)
	require.Error(t, err)
	assert.True(t, errs.ErrTokenInvalid.Is(err))
}

func TestVerifyUnsupportedAlg(t *testing.T) {
	opts := DefaultOptions([]byte("secret"))
	opts.Alg = "RS256"
	_, _, err := Generate(opts, 7, "bob")
	assert.Error(t, err)
}
