package chat

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SermoProject/tools/errs"
	"SermoProject/tools/security"
)

func TestAuthenticate(t *testing.T) {
	opts := security.DefaultOptions([]byte("test-secret"))
	verifier := NewJWTVerifier(opts)

	token, _, err := security.Generate(opts, 42, "alice")
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/ws?token="+token, nil)
		ident, err := Authenticate(r, verifier)
		require.NoError(t, err)
		assert.Equal(t, int64(42), ident.UserID)
		assert.Equal(t, "alice", ident.Username)
	})

	t.Run("missing token", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/ws", nil)
		_, err := Authenticate(r, verifier)
		require.Error(t, err)
		assert.True(t, errs.ErrTokenMissing.Is(err))
	})

	t.Run("garbage token", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/ws?token=not.a.jwt", nil)
		_, err := Authenticate(r, verifier)
		require.Error(t, err)
		assert.True(t, errs.ErrTokenInvalid.Is(err))
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, _, err := security.Generate(security.DefaultOptions([]byte("other-secret")), 42, "alice")
		require.NoError(t, err)
		r := httptest.NewRequest("GET", "/ws?token="+other, nil)
		_, err = Authenticate(r, verifier)
		require.Error(t, err)
		assert.True(t, errs.ErrTokenInvalid.Is(err))
	})
}
