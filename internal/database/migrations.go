package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/charlesng35/coffeeshop/internal/models"
)

// SeedDrink is the single record written by ResetDrinks.
func SeedDrink() models.Drink {
	return models.Drink{
		Title: "water",
		Recipe: models.Recipe{
			{Name: "water", Color: "blue", Parts: 1},
		},
	}
}

// AutoMigrate creates or updates the database schema.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}
	return db.AutoMigrate(&models.Drink{})
}

// ResetDrinks drops the drinks table, recreates it and inserts SeedDrink.
// Every existing drink is lost.
func ResetDrinks(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	if err := db.Migrator().DropTable(&models.Drink{}); err != nil {
		return fmt.Errorf("drop drinks: %w", err)
	}
	if err := AutoMigrate(db); err != nil {
		return fmt.Errorf("create drinks: %w", err)
	}

	seed := SeedDrink()
	if err := db.Create(&seed).Error; err != nil {
		return fmt.Errorf("seed drinks: %w", err)
	}
	return nil
}

// Prepare migrates the schema and, when reset is true, wipes and reseeds the drinks table.
func Prepare(db *gorm.DB, reset bool) error {
	if reset {
		return ResetDrinks(db)
	}
	if err := AutoMigrate(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
