package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/coffeeshop/internal/models"
	"github.com/charlesng35/coffeeshop/internal/services"
	appErrors "github.com/charlesng35/coffeeshop/pkg/errors"
	"github.com/charlesng35/coffeeshop/pkg/response"
)

// DrinksPageSize is the number of drinks returned per page.
const DrinksPageSize = 10

// DrinkHandler serves the drinks menu.
type DrinkHandler struct {
	repo services.DrinkRepository
}

// NewDrinkHandler constructs a DrinkHandler.
func NewDrinkHandler(repo services.DrinkRepository) (*DrinkHandler, error) {
	if repo == nil {
		return nil, errors.New("drink handler: repository is required")
	}
	return &DrinkHandler{repo: repo}, nil
}

type ingredientRequest struct {
	Name  string  `json:"name" validate:"required,notblank"`
	Color string  `json:"color" validate:"required,notblank"`
	Parts float64 `json:"parts" validate:"gte=0"`
}

// recipeRequest accepts either a list of ingredients or a single ingredient object.
type recipeRequest []ingredientRequest

func (r *recipeRequest) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var single ingredientRequest
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		*r = recipeRequest{single}
		return nil
	}

	var list []ingredientRequest
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return err
	}
	*r = list
	return nil
}

func (r recipeRequest) toRecipe() models.Recipe {
	recipe := make(models.Recipe, 0, len(r))
	for _, ingredient := range r {
		recipe = append(recipe, models.Ingredient{
			Name:  ingredient.Name,
			Color: ingredient.Color,
			Parts: ingredient.Parts,
		})
	}
	return recipe
}

type createDrinkRequest struct {
	Title  string        `json:"title" validate:"required,notblank,max=80"`
	Recipe recipeRequest `json:"recipe" validate:"required,min=1,dive"`
}

type updateDrinkRequest struct {
	Title  *string        `json:"title" validate:"omitempty,notblank,max=80"`
	Recipe *recipeRequest `json:"recipe" validate:"omitempty,min=1,dive"`
}

// GET /drinks
func (h *DrinkHandler) List(c *gin.Context) {
	drinks, ok := h.loadMenu(c)
	if !ok {
		return
	}

	views := make([]models.DrinkShort, 0, len(drinks))
	for i := range drinks {
		views = append(views, drinks[i].Short())
	}
	response.Success(c, http.StatusOK, gin.H{"drinks": paginate(views, pageParam(c))})
}

// GET /drinks-detail
func (h *DrinkHandler) ListDetail(c *gin.Context) {
	drinks, ok := h.loadMenu(c)
	if !ok {
		return
	}

	views := make([]models.DrinkLong, 0, len(drinks))
	for i := range drinks {
		views = append(views, drinks[i].Long())
	}
	response.Success(c, http.StatusOK, gin.H{"drinks": paginate(views, pageParam(c))})
}

// POST /drinks
func (h *DrinkHandler) Create(c *gin.Context) {
	var body createDrinkRequest
	if !bindAndValidate(c, &body) {
		return
	}

	drink, err := h.repo.Create(requestContext(c), services.CreateDrinkInput{
		Title:  body.Title,
		Recipe: body.Recipe.toRecipe(),
	})
	if err != nil {
		response.Error(c, translateDrinkError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"drinks": []models.DrinkLong{drink.Long()}})
}

// PATCH /drinks/:id
func (h *DrinkHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.Error(c, appErrors.NewNotFound("drink not found"))
		return
	}

	raw, err := c.GetRawData()
	if err != nil {
		response.Error(c, appErrors.NewBadRequest("unable to read request body"))
		return
	}

	var input services.UpdateDrinkInput
	if len(bytes.TrimSpace(raw)) > 0 {
		var body updateDrinkRequest
		if !decodeAndValidate(c, raw, &body) {
			return
		}
		input.Title = body.Title
		if body.Recipe != nil {
			recipe := body.Recipe.toRecipe()
			input.Recipe = &recipe
		}
	}

	drink, err := h.repo.Update(requestContext(c), id, input)
	if err != nil {
		response.Error(c, translateDrinkError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"drinks": []models.DrinkLong{drink.Long()}})
}

// DELETE /drinks/:id
func (h *DrinkHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.Error(c, appErrors.NewNotFound("drink not found"))
		return
	}

	if err := h.repo.Delete(requestContext(c), id); err != nil {
		response.Error(c, translateDrinkError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"delete": id})
}

// loadMenu fetches every drink and answers 404 when the menu is empty.
func (h *DrinkHandler) loadMenu(c *gin.Context) ([]models.Drink, bool) {
	drinks, err := h.repo.ListAll(requestContext(c))
	if err != nil {
		response.Error(c, translateDrinkError(err))
		return nil, false
	}
	if len(drinks) == 0 {
		response.Error(c, appErrors.NewNotFound("no drinks found"))
		return nil, false
	}
	return drinks, true
}

func pageParam(c *gin.Context) int {
	page := parseIntQuery(c, "page", 1)
	if page < 1 {
		return 1
	}
	return page
}

// paginate returns the 1-indexed page of items; pages past the end are empty.
func paginate[T any](items []T, page int) []T {
	pages := (len(items) + DrinksPageSize - 1) / DrinksPageSize
	if page < 1 || page > pages {
		return []T{}
	}
	start := (page - 1) * DrinksPageSize
	end := start + DrinksPageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func translateDrinkError(err error) error {
	switch {
	case errors.Is(err, services.ErrDrinkNotFound):
		return appErrors.NewNotFound("drink not found")
	case errors.Is(err, services.ErrDrinkConflict):
		return appErrors.ErrConflict.WithMessage("a drink with this title already exists")
	case errors.Is(err, services.ErrDrinkInvalid):
		return appErrors.NewBadRequest("invalid drink")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternalServer.Message)
	}
}
