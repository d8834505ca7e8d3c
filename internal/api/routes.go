package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/coffeeshop/internal/middleware"
	"github.com/charlesng35/coffeeshop/internal/permissions"
)

// route pairs a method and path with the permission its caller must hold.
// An empty permission makes the route public.
type route struct {
	method     string
	path       string
	permission string
	handler    gin.HandlerFunc
}

// registerRoutes installs routes, placing the permission guard in front of every
// protected handler. Unknown permission strings are a programming error.
func registerRoutes(r gin.IRoutes, verifier middleware.TokenVerifier, routes []route) error {
	if err := permissions.ValidateDependencies(); err != nil {
		return err
	}
	for _, rt := range routes {
		if rt.handler == nil {
			return fmt.Errorf("route %s %s has no handler", rt.method, rt.path)
		}
		if rt.permission == "" {
			r.Handle(rt.method, rt.path, rt.handler)
			continue
		}
		if err := permissions.Require(rt.permission); err != nil {
			return fmt.Errorf("route %s %s: %w", rt.method, rt.path, err)
		}
		r.Handle(rt.method, rt.path, middleware.RequirePermission(verifier, rt.permission), rt.handler)
	}
	return nil
}
