package models

import (
	"strings"

	"gorm.io/datatypes"
)

// Ingredient is a single entry of a drink recipe.
type Ingredient struct {
	Name  string  `json:"name"`
	Color string  `json:"color"`
	Parts float64 `json:"parts"`
}

// Recipe is stored as an opaque JSON text blob rather than a child table.
type Recipe = datatypes.JSONSlice[Ingredient]

// Drink is the only persisted entity of the menu.
type Drink struct {
	ID     uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Title  string `gorm:"type:varchar(80);uniqueIndex;not null" json:"title"`
	Recipe Recipe `gorm:"type:text;not null" json:"recipe"`
}

// TableName pins the table name regardless of naming strategy.
func (Drink) TableName() string {
	return "drinks"
}

// Normalise trims the title.
func (d *Drink) Normalise() {
	d.Title = strings.TrimSpace(d.Title)
}

// ShortIngredient exposes only the colour of an ingredient.
type ShortIngredient struct {
	Color string `json:"color"`
}

// DrinkShort is the public representation; quantities and names stay hidden.
type DrinkShort struct {
	ID     uint              `json:"id"`
	Title  string            `json:"title"`
	Recipe []ShortIngredient `json:"recipe"`
}

// DrinkLong is the representation shown to callers holding a permission.
type DrinkLong struct {
	ID     uint         `json:"id"`
	Title  string       `json:"title"`
	Recipe []Ingredient `json:"recipe"`
}

// Short renders the public view.
func (d *Drink) Short() DrinkShort {
	recipe := make([]ShortIngredient, 0, len(d.Recipe))
	for _, ingredient := range d.Recipe {
		recipe = append(recipe, ShortIngredient{Color: ingredient.Color})
	}
	return DrinkShort{ID: d.ID, Title: d.Title, Recipe: recipe}
}

// Long renders the full view.
func (d *Drink) Long() DrinkLong {
	recipe := make([]Ingredient, 0, len(d.Recipe))
	recipe = append(recipe, d.Recipe...)
	return DrinkLong{ID: d.ID, Title: d.Title, Recipe: recipe}
}
