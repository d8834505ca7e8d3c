package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/charlesng35/coffeeshop/internal/auth"
	"github.com/charlesng35/coffeeshop/pkg/logger"
	"github.com/charlesng35/coffeeshop/pkg/response"
)

const (
	CtxClaimsKey  = "authClaims"
	CtxSubjectKey = "authSubject"
)

// TokenVerifier checks a raw Authorization header against a required permission.
type TokenVerifier interface {
	Verify(ctx context.Context, header, permission string) (*iauth.Claims, error)
}

// RequirePermission rejects the request unless its bearer token grants permission.
// The verified claims are stored under CtxClaimsKey.
func RequirePermission(verifier TokenVerifier, permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := verifier.Verify(c.Request.Context(), c.GetHeader("Authorization"), permission)
		if err != nil {
			logger.WithModule("auth").Debug("request rejected",
				zap.String("path", c.Request.URL.Path),
				zap.String("permission", permission),
				zap.Error(err),
			)
			response.Abort(c, err)
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxSubjectKey, claims.Subject)
		c.Next()
	}
}

// ClaimsFromContext returns the claims stored by RequirePermission, if any.
func ClaimsFromContext(c *gin.Context) (*iauth.Claims, bool) {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*iauth.Claims)
	return claims, ok && claims != nil
}
