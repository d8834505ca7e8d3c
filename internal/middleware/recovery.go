package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/coffeeshop/pkg/errors"
	"github.com/charlesng35/coffeeshop/pkg/logger"
	"github.com/charlesng35/coffeeshop/pkg/response"
)

// Recovery converts panics into a 500 envelope and logs the error.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithModule("http").Error("panic",
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", c.GetString(CtxRequestIDKey)),
					zap.Any("error", r),
					zap.Stack("stack"),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, response.NewErrorResponse(
					http.StatusInternalServerError,
					errors.ErrInternalServer.Message,
					errors.CodeInternal,
				))
			}
		}()
		c.Next()
	}
}

// NotFoundHandler returns the 404 envelope for unknown routes.
func NotFoundHandler(c *gin.Context) {
	response.Error(c, errors.ErrNotFound)
}

// MethodNotAllowedHandler returns the 405 envelope.
func MethodNotAllowedHandler(c *gin.Context) {
	response.Error(c, errors.New("method_not_allowed", "method not allowed", http.StatusMethodNotAllowed))
}
