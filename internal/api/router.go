package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/coffeeshop/internal/app"
	"github.com/charlesng35/coffeeshop/internal/handlers"
	"github.com/charlesng35/coffeeshop/internal/middleware"
	"github.com/charlesng35/coffeeshop/internal/services"
)

// Dependencies are the collaborators the HTTP surface is built from.
type Dependencies struct {
	Config   *app.Config
	Drinks   services.DrinkRepository
	Verifier middleware.TokenVerifier
	Ping     handlers.Pinger
}

// NewRouter builds the Gin engine, wires middleware and registers every route.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.Config == nil {
		return nil, errors.New("config must be provided")
	}
	if deps.Drinks == nil {
		return nil, errors.New("drink repository must be provided")
	}
	if deps.Verifier == nil {
		return nil, errors.New("token verifier must be provided")
	}

	cfg := deps.Config

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowedOrigins...))

	r.NoRoute(middleware.NotFoundHandler)
	r.NoMethod(middleware.MethodNotAllowedHandler)

	drinkHandler, err := handlers.NewDrinkHandler(deps.Drinks)
	if err != nil {
		return nil, err
	}
	if err := registerRoutes(r, deps.Verifier, drinkRoutes(drinkHandler)); err != nil {
		return nil, err
	}

	if err := registerHealthRoutes(r, cfg, deps.Ping, deps.Drinks); err != nil {
		return nil, err
	}
	registerMetricsRoutes(r, cfg)

	return r, nil
}
