package model

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID        uuid.UUID `db:"id" json:"_id"`
	RecipeID  uuid.UUID `db:"recipe_id" json:"recipeId"`
	UserID    uuid.UUID `db:"user_id" json:"userId"`
	Comment   *string   `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
