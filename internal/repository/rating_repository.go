package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sanobery/recipe-be/internal/model"
)

type RatingRepository interface {
	Create(ctx context.Context, rating *model.Rating) error
	Exists(ctx context.Context, recipeID, userID uuid.UUID) (bool, error)
	ListByRecipe(ctx context.Context, recipeID uuid.UUID) ([]model.Rating, error)
	// AverageByRecipe groups ratings by recipe in a single query. An empty
	// recipeIDs aggregates every recipe that has ratings.
	AverageByRecipe(ctx context.Context, recipeIDs []uuid.UUID) ([]model.RatingStat, error)
}

type postgresRatingRepository struct {
	db *sqlx.DB
}

func NewPostgresRatingRepository(db *sqlx.DB) RatingRepository {
	return &postgresRatingRepository{db: db}
}

func (r *postgresRatingRepository) Create(ctx context.Context, rating *model.Rating) error {
	query := `
		INSERT INTO ratings (recipe_id, user_id, score)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, rating.RecipeID, rating.UserID, rating.Score).Scan(&rating.ID, &rating.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *postgresRatingRepository) Exists(ctx context.Context, recipeID, userID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM ratings WHERE recipe_id = $1 AND user_id = $2)`
	err := r.db.GetContext(ctx, &exists, query, recipeID, userID)
	if err != nil && err != sql.ErrNoRows {
		return false, err
	}
	return exists, nil
}

func (r *postgresRatingRepository) ListByRecipe(ctx context.Context, recipeID uuid.UUID) ([]model.Rating, error) {
	ratings := []model.Rating{}
	query := `
		SELECT id, recipe_id, user_id, score, created_at
		FROM ratings
		WHERE recipe_id = $1
		ORDER BY created_at ASC
	`
	err := r.db.SelectContext(ctx, &ratings, query, recipeID)
	return ratings, err
}

func (r *postgresRatingRepository) AverageByRecipe(ctx context.Context, recipeIDs []uuid.UUID) ([]model.RatingStat, error) {
	stats := []model.RatingStat{}
	const grouped = `SELECT recipe_id, AVG(score)::float8 AS mean, COUNT(*) AS count FROM ratings`

	if len(recipeIDs) == 0 {
		err := r.db.SelectContext(ctx, &stats, grouped+` GROUP BY recipe_id`)
		return stats, err
	}

	query, args, err := sqlx.In(grouped+` WHERE recipe_id IN (?) GROUP BY recipe_id`, recipeIDs)
	if err != nil {
		return nil, fmt.Errorf("build rating aggregate query: %w", err)
	}
	err = r.db.SelectContext(ctx, &stats, r.db.Rebind(query), args...)
	return stats, err
}
