package security

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"SermoProject/tools/errs"
	jwtlib "SermoProject/tools/security"
)

// Context keys downstream handlers read the authenticated identity from.
const (
	CtxUserIDKey   = "authUserId"   // int64
	CtxUsernameKey = "authUsername" // string
)

// Middleware verifies the bearer JWT on REST requests and stores the
// resolved identity in the gin context.
func Middleware(opts jwtlib.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenMissing)
			return
		}
		ident, err := jwtlib.Verify(opts, token)
		if err != nil {
			if errs.ErrTokenExpired.Is(err) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenExpired)
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
			}
			return
		}
		c.Set(CtxUserIDKey, ident.UserID)
		c.Set(CtxUsernameKey, ident.Username)
		c.Next()
	}
}

// UserID reads the authenticated user id set by Middleware.
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(CtxUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func bearerToken(c *gin.Context) string {
	authz := strings.TrimSpace(c.GetHeader("Authorization"))
	if authz == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[len("bearer "):])
	}
	return ""
}
