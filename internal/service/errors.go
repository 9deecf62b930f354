package service

import (
	"errors"

	"github.com/sanobery/recipe-be/internal/aggregation"
)

var (
	ErrInvalidPagination = errors.New("page and limit must be positive integers")
	ErrRecipeNotFound    = errors.New("recipe not found")
	ErrNoRecipesMatch    = errors.New("no recipes match the requested rating")
	ErrInvalidRange      = errors.New("preparation time must look like min-max with min <= max")
	ErrInvalidQuery      = errors.New("ingredient search text is required")
	ErrInvalidBucket     = aggregation.ErrInvalidBucket
)

var (
	ErrMissingFields       = errors.New("recipe, user and a rating or comment are required")
	ErrInvalidScore        = errors.New("rating must be a whole number between 1 and 5")
	ErrInvalidUser         = errors.New("invalid user")
	ErrSelfRatingForbidden = errors.New("you cannot rate your own recipe")
	ErrDuplicateRating     = errors.New("you have already rated this recipe")
)

var ErrInvalidInput = errors.New("invalid recipe input")
