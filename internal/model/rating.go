package model

import (
	"time"

	"github.com/google/uuid"
)

type Rating struct {
	ID        uuid.UUID `db:"id" json:"_id"`
	RecipeID  uuid.UUID `db:"recipe_id" json:"recipeId"`
	UserID    uuid.UUID `db:"user_id" json:"userId"`
	Score     int       `db:"score" json:"rate"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// RatingStat is the grouped mean of one recipe's ratings.
type RatingStat struct {
	RecipeID uuid.UUID `db:"recipe_id"`
	Mean     float64   `db:"mean"`
	Count    int       `db:"count"`
}
