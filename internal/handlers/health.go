package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/coffeeshop/pkg/logger"
	"github.com/charlesng35/coffeeshop/pkg/response"
)

const healthCheckTimeout = 3 * time.Second

// Pinger reports whether the database connection is usable.
type Pinger func(ctx context.Context) error

// DrinkCounter reports how many drinks are stored.
type DrinkCounter interface {
	Count(ctx context.Context) (int64, error)
}

// HealthHandler reports database reachability and the size of the menu.
type HealthHandler struct {
	ping    Pinger
	counter DrinkCounter
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(ping Pinger, counter DrinkCounter) (*HealthHandler, error) {
	if ping == nil || counter == nil {
		return nil, errors.New("health handler: ping and counter are required")
	}
	return &HealthHandler{ping: ping, counter: counter}, nil
}

// GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(requestContext(c), healthCheckTimeout)
	defer cancel()

	checkedAt := time.Now().UTC()

	if err := h.ping(ctx); err != nil {
		logger.WithModule("health").Warn("database ping failed", zap.Error(err))
		writeUnhealthy(c, "unavailable", "down", "database unreachable", checkedAt)
		return
	}

	count, err := h.counter.Count(ctx)
	if err != nil {
		logger.WithModule("health").Warn("drink count failed", zap.Error(err))
		writeUnhealthy(c, "degraded", "up", "drinks table unavailable", checkedAt)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"status":     "ok",
		"database":   "up",
		"drinks":     count,
		"checked_at": checkedAt,
	})
}

// writeUnhealthy renders the 503 error envelope alongside the health details.
func writeUnhealthy(c *gin.Context, status, database, message string, checkedAt time.Time) {
	envelope := response.NewErrorResponse(http.StatusServiceUnavailable, message, "unavailable")
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"success":    envelope.Success,
		"error":      envelope.Error,
		"message":    envelope.Message,
		"code":       envelope.Code,
		"status":     status,
		"database":   database,
		"checked_at": checkedAt,
	})
}
