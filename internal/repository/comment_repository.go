package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sanobery/recipe-be/internal/model"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	ListByRecipe(ctx context.Context, recipeID uuid.UUID) ([]model.Comment, error)
}

type postgresCommentRepository struct {
	db *sqlx.DB
}

func NewPostgresCommentRepository(db *sqlx.DB) CommentRepository {
	return &postgresCommentRepository{db: db}
}

func (r *postgresCommentRepository) Create(ctx context.Context, comment *model.Comment) error {
	query := `
		INSERT INTO comments (recipe_id, user_id, comment)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	return r.db.QueryRowxContext(ctx, query, comment.RecipeID, comment.UserID, comment.Comment).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *postgresCommentRepository) ListByRecipe(ctx context.Context, recipeID uuid.UUID) ([]model.Comment, error) {
	comments := []model.Comment{}
	query := `
		SELECT id, recipe_id, user_id, comment, created_at
		FROM comments
		WHERE recipe_id = $1
		ORDER BY created_at ASC
	`
	err := r.db.SelectContext(ctx, &comments, query, recipeID)
	return comments, err
}
