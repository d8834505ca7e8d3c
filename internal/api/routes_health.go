package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/coffeeshop/internal/app"
	"github.com/charlesng35/coffeeshop/internal/handlers"
	appErrors "github.com/charlesng35/coffeeshop/pkg/errors"
	"github.com/charlesng35/coffeeshop/pkg/response"
)

func registerHealthRoutes(r *gin.Engine, cfg *app.Config, ping handlers.Pinger, counter handlers.DrinkCounter) error {
	if !cfg.Monitoring.Health.Enabled || ping == nil {
		r.GET("/health", disabledHealthHandler)
		return nil
	}

	handler, err := handlers.NewHealthHandler(ping, counter)
	if err != nil {
		return err
	}
	r.GET("/health", handler.Check)
	return nil
}

func disabledHealthHandler(c *gin.Context) {
	envelope := response.NewErrorResponse(http.StatusNotFound, "health check disabled", appErrors.CodeNotFound)
	c.JSON(http.StatusNotFound, gin.H{
		"success": envelope.Success,
		"error":   envelope.Error,
		"message": envelope.Message,
		"code":    envelope.Code,
		"status":  "disabled",
	})
}
