package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/coffeeshop/internal/database/testutil"
	"github.com/charlesng35/coffeeshop/internal/models"
)

func TestDrinkServiceLifecycle(t *testing.T) {
	svc := newDrinkServiceForTest(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateDrinkInput{
		Title:  "  Matcha shake ",
		Recipe: models.Recipe{{Name: "milk", Color: "grey", Parts: 1}, {Name: "matcha", Color: "green", Parts: 3}},
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, "Matcha shake", created.Title)

	fetched, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Recipe, fetched.Recipe)

	newTitle := "Matcha latte"
	updated, err := svc.Update(ctx, created.ID, UpdateDrinkInput{Title: &newTitle})
	require.NoError(t, err)
	require.Equal(t, newTitle, updated.Title)
	require.Len(t, updated.Recipe, 2, "recipe untouched by a title-only update")

	recipe := models.Recipe{{Name: "water", Color: "blue", Parts: 2}}
	updated, err = svc.Update(ctx, created.ID, UpdateDrinkInput{Recipe: &recipe})
	require.NoError(t, err)
	require.Equal(t, newTitle, updated.Title)
	require.Equal(t, recipe, updated.Recipe)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, ErrDrinkNotFound)
}

func TestDrinkServiceCreateDuplicateTitle(t *testing.T) {
	svc := newDrinkServiceForTest(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateDrinkInput{Title: "Espresso", Recipe: models.Recipe{{Name: "coffee", Color: "brown", Parts: 1}}})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateDrinkInput{Title: "Espresso", Recipe: models.Recipe{{Name: "coffee", Color: "brown", Parts: 2}}})
	require.ErrorIs(t, err, ErrDrinkConflict)
}

func TestDrinkServiceUpdateDuplicateTitle(t *testing.T) {
	svc := newDrinkServiceForTest(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateDrinkInput{Title: "Tea", Recipe: models.Recipe{{Name: "tea", Color: "green", Parts: 1}}})
	require.NoError(t, err)
	coffee, err := svc.Create(ctx, CreateDrinkInput{Title: "Coffee", Recipe: models.Recipe{{Name: "coffee", Color: "brown", Parts: 1}}})
	require.NoError(t, err)

	title := "Tea"
	_, err = svc.Update(ctx, coffee.ID, UpdateDrinkInput{Title: &title})
	require.ErrorIs(t, err, ErrDrinkConflict)
}

func TestDrinkServiceRejectsBlankTitle(t *testing.T) {
	svc := newDrinkServiceForTest(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateDrinkInput{Title: "   "})
	require.ErrorIs(t, err, ErrDrinkInvalid)

	drink, err := svc.Create(ctx, CreateDrinkInput{Title: "Juice", Recipe: models.Recipe{{Name: "orange", Color: "orange", Parts: 1}}})
	require.NoError(t, err)

	blank := " "
	_, err = svc.Update(ctx, drink.ID, UpdateDrinkInput{Title: &blank})
	require.ErrorIs(t, err, ErrDrinkInvalid)
}

func TestDrinkServiceEmptyUpdateIsNoop(t *testing.T) {
	svc := newDrinkServiceForTest(t)
	ctx := context.Background()

	drink, err := svc.Create(ctx, CreateDrinkInput{Title: "Mocha", Recipe: models.Recipe{{Name: "chocolate", Color: "brown", Parts: 1}}})
	require.NoError(t, err)

	same, err := svc.Update(ctx, drink.ID, UpdateDrinkInput{})
	require.NoError(t, err)
	require.Equal(t, drink.Title, same.Title)
	require.Equal(t, drink.Recipe, same.Recipe)
}

func TestDrinkServiceMissingRows(t *testing.T) {
	svc := newDrinkServiceForTest(t)
	ctx := context.Background()

	title := "Ghost"
	_, err := svc.Update(ctx, 42, UpdateDrinkInput{Title: &title})
	require.ErrorIs(t, err, ErrDrinkNotFound)

	require.ErrorIs(t, svc.Delete(ctx, 42), ErrDrinkNotFound)
}

func TestDrinkServiceListAllOrderedAndConsistent(t *testing.T) {
	svc := newDrinkServiceForTest(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, CreateDrinkInput{
			Title:  fmt.Sprintf("drink-%d", i),
			Recipe: models.Recipe{{Name: "base", Color: "white", Parts: float64(i)}},
		})
		require.NoError(t, err)
	}

	drinks, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, drinks, 5)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 5, count)

	for i, drink := range drinks {
		if i > 0 {
			require.Greater(t, drink.ID, drinks[i-1].ID)
		}
		fetched, err := svc.Get(ctx, drink.ID)
		require.NoError(t, err)
		require.Equal(t, drink, *fetched)
	}
}

func TestNewDrinkServiceRequiresDB(t *testing.T) {
	_, err := NewDrinkService(nil)
	require.Error(t, err)
}

func newDrinkServiceForTest(t *testing.T) *DrinkService {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewDrinkService(db)
	require.NoError(t, err)
	return svc
}
