package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/charlesng35/coffeeshop/pkg/errors"
	"github.com/charlesng35/coffeeshop/pkg/logger"
)

// ErrorResponse is the fixed envelope written for every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   int    `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Success writes {"success": true} merged with the supplied top-level fields.
func Success(c *gin.Context, statusCode int, fields gin.H) {
	body := gin.H{"success": true}
	for key, value := range fields {
		if key == "success" {
			continue
		}
		body[key] = value
	}
	c.JSON(statusCode, body)
}

// Error writes the error envelope derived from err. Errors that carry their own status
// (AppError, verifier errors) keep it; anything else becomes a 500.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}

	appErr := appErrors.FromError(err)
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		path := ""
		if c.Request != nil {
			path = c.Request.URL.Path
		}
		logger.WithModule("http").Error("request failed",
			zap.String("path", path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	c.JSON(status, NewErrorResponse(status, appErr.Message, appErr.Code))
}

// Abort renders the error envelope and stops the handler chain.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// NewErrorResponse builds the envelope for the given status.
func NewErrorResponse(status int, message, code string) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Error:   status,
		Message: message,
		Code:    code,
	}
}
