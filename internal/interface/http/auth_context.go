package http

import (
	"github.com/gin-gonic/gin"

	"github.com/yanqian/disha/internal/domain/session"
)

const sessionClaimsKey = "session_claims"

func setClaims(c *gin.Context, claims session.Claims) {
	c.Set(sessionClaimsKey, claims)
}

func getClaims(c *gin.Context) (session.Claims, bool) {
	value, ok := c.Get(sessionClaimsKey)
	if !ok {
		return session.Claims{}, false
	}
	claims, ok := value.(session.Claims)
	return claims, ok
}

// sessionID returns the caller's session, or "" for anonymous requests.
func sessionID(c *gin.Context) string {
	claims, _ := getClaims(c)
	return claims.SessionID
}
