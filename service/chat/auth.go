package chat

import (
	"net/http"

	"SermoProject/tools/errs"
	"SermoProject/tools/security"
)

// JWTVerifier implements TokenVerifier on the HMAC JWT scheme the auth
// service issues tokens with.
type JWTVerifier struct {
	opts security.Options
}

func NewJWTVerifier(opts security.Options) *JWTVerifier {
	return &JWTVerifier{opts: opts}
}

func (v *JWTVerifier) VerifyToken(token string) (*security.Identity, error) {
	return security.Verify(v.opts, token)
}

// Authenticate resolves the connection-establishment request to a user
// identity. The bearer token rides in the `token` query parameter; a missing
// or invalid token rejects the handshake and the caller must close the socket
// before any registry entry exists.
func Authenticate(r *http.Request, verifier TokenVerifier) (*security.Identity, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		return nil, errs.ErrTokenMissing.Wrap()
	}
	return verifier.VerifyToken(token)
}
