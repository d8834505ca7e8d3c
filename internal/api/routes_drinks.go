package api

import (
	"net/http"

	"github.com/charlesng35/coffeeshop/internal/handlers"
	"github.com/charlesng35/coffeeshop/internal/permissions"
)

func drinkRoutes(h *handlers.DrinkHandler) []route {
	return []route{
		{method: http.MethodGet, path: "/", handler: h.List},
		{method: http.MethodGet, path: "/drinks", handler: h.List},
		{method: http.MethodGet, path: "/drinks-detail", permission: permissions.DrinksDetail, handler: h.ListDetail},
		{method: http.MethodPost, path: "/drinks", permission: permissions.DrinksCreate, handler: h.Create},
		{method: http.MethodPatch, path: "/drinks/:id", permission: permissions.DrinksUpdate, handler: h.Update},
		{method: http.MethodDelete, path: "/drinks/:id", permission: permissions.DrinksDelete, handler: h.Delete},
	}
}
