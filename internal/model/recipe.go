package model

import (
	"time"

	"github.com/google/uuid"
)

type Recipe struct {
	ID              uuid.UUID  `db:"id" json:"_id"`
	OwnerID         uuid.UUID  `db:"owner_id" json:"-"`
	Title           string     `db:"title" json:"title"`
	Ingredients     StringList `db:"ingredients" json:"ingredients"`
	Steps           StringList `db:"steps" json:"steps"`
	Image           string     `db:"image" json:"image"`
	PreparationTime int        `db:"preparation_time" json:"preparationTime"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
}

// RecipeWithOwner is a recipe row joined with its owner's username.
type RecipeWithOwner struct {
	Recipe
	OwnerUsername string `db:"owner_username" json:"-"`
}

func (r RecipeWithOwner) Owner() Owner {
	return Owner{ID: r.OwnerID, Username: r.OwnerUsername}
}

// RecipeSummary is a listing item: a recipe, its owner and a derived
// average rating whose rounding depends on the listing.
type RecipeSummary struct {
	Recipe
	Owner         Owner   `json:"userId"`
	AverageRating float64 `json:"averageRating"`
}

type RecipeDetail struct {
	Recipe
	Owner         Owner     `json:"userId"`
	AverageRating int       `json:"averageRating"`
	RatingCount   int       `json:"ratingCount"`
	Ratings       []Rating  `json:"ratings"`
	Comments      []Comment `json:"comments"`
}
