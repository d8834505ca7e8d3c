package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/coffeeshop/internal/models"
	"github.com/charlesng35/coffeeshop/pkg/logger"
)

// DrinkRepository is the storage contract used by the HTTP handlers.
type DrinkRepository interface {
	ListAll(ctx context.Context) ([]models.Drink, error)
	Get(ctx context.Context, id uint) (*models.Drink, error)
	Create(ctx context.Context, input CreateDrinkInput) (*models.Drink, error)
	Update(ctx context.Context, id uint, input UpdateDrinkInput) (*models.Drink, error)
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

// CreateDrinkInput captures the attributes required to add a drink to the menu.
type CreateDrinkInput struct {
	Title  string
	Recipe models.Recipe
}

// UpdateDrinkInput represents mutable drink fields. Nil fields are left untouched.
type UpdateDrinkInput struct {
	Title  *string
	Recipe *models.Recipe
}

// DrinkService persists drinks through GORM.
type DrinkService struct {
	db *gorm.DB
}

var _ DrinkRepository = (*DrinkService)(nil)

// NewDrinkService constructs a DrinkService instance.
func NewDrinkService(db *gorm.DB) (*DrinkService, error) {
	if db == nil {
		return nil, errors.New("drink service: db is required")
	}
	return &DrinkService{db: db}, nil
}

// ListAll returns every drink ordered by id.
func (s *DrinkService) ListAll(ctx context.Context) ([]models.Drink, error) {
	ctx = ensureContext(ctx)

	var drinks []models.Drink
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&drinks).Error; err != nil {
		return nil, fmt.Errorf("drink service: list drinks: %w", err)
	}
	return drinks, nil
}

// Get loads a single drink.
func (s *DrinkService) Get(ctx context.Context, id uint) (*models.Drink, error) {
	ctx = ensureContext(ctx)

	var drink models.Drink
	err := s.db.WithContext(ctx).First(&drink, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDrinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("drink service: get drink: %w", err)
	}
	return &drink, nil
}

// Create inserts a new drink.
func (s *DrinkService) Create(ctx context.Context, input CreateDrinkInput) (*models.Drink, error) {
	ctx = ensureContext(ctx)

	drink := &models.Drink{
		Title:  input.Title,
		Recipe: cloneRecipe(input.Recipe),
	}
	drink.Normalise()
	if drink.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrDrinkInvalid)
	}

	if err := s.db.WithContext(ctx).Create(drink).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrDrinkConflict
		}
		return nil, fmt.Errorf("drink service: create drink: %w", err)
	}

	logger.WithModule("drinks").Info("drink created",
		zap.Uint("drink_id", drink.ID),
		zap.String("title", drink.Title),
	)
	return drink, nil
}

// Update applies a partial update. An input with no fields set returns the current row.
func (s *DrinkService) Update(ctx context.Context, id uint, input UpdateDrinkInput) (*models.Drink, error) {
	ctx = ensureContext(ctx)

	drink, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title must not be blank", ErrDrinkInvalid)
		}
		if title != drink.Title {
			updates["title"] = title
		}
	}
	if input.Recipe != nil {
		updates["recipe"] = cloneRecipe(*input.Recipe)
	}

	if len(updates) == 0 {
		return drink, nil
	}

	if err := s.db.WithContext(ctx).Model(drink).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrDrinkConflict
		}
		return nil, fmt.Errorf("drink service: update drink: %w", err)
	}

	logger.WithModule("drinks").Info("drink updated",
		zap.Uint("drink_id", id),
		zap.Int("fields", len(updates)),
	)
	return s.Get(ctx, id)
}

// Delete removes a drink permanently.
func (s *DrinkService) Delete(ctx context.Context, id uint) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).Delete(&models.Drink{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("drink service: delete drink: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrDrinkNotFound
	}

	logger.WithModule("drinks").Info("drink deleted", zap.Uint("drink_id", id))
	return nil
}

// Count returns the number of stored drinks.
func (s *DrinkService) Count(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Drink{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("drink service: count drinks: %w", err)
	}
	return count, nil
}

func cloneRecipe(recipe models.Recipe) models.Recipe {
	out := make(models.Recipe, 0, len(recipe))
	return append(out, recipe...)
}
