package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/disha/internal/domain/session"
	"github.com/yanqian/disha/internal/infra/backend"
	apperrors "github.com/yanqian/disha/pkg/errors"
)

// authMiddleware rejects requests without a valid gateway token.
func authMiddleware(svc session.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present, ok := bearerToken(c)
		if !present {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, apperrors.CodeNotAuthenticated, backend.MessageNotAuthenticated, nil))
			return
		}
		if !ok {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, apperrors.CodeInvalidToken, "invalid authorization header", nil))
			return
		}
		claims, err := svc.ValidateToken(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, fromAppError(err))
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// optionalAuthMiddleware attaches claims when a valid token is sent and
// otherwise lets the request through anonymously.
func optionalAuthMiddleware(svc session.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _, ok := bearerToken(c)
		if ok {
			if claims, err := svc.ValidateToken(c.Request.Context(), token); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (token string, present, ok bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false, false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", true, false
	}
	token = strings.TrimSpace(parts[1])
	return token, true, token != ""
}
