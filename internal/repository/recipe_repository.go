package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sanobery/recipe-be/internal/model"
)

// RecipePatch carries the fields of a partial recipe update; nil fields are
// left untouched.
type RecipePatch struct {
	Title           *string
	Ingredients     model.StringList
	Steps           model.StringList
	Image           *string
	PreparationTime *int
}

func (p RecipePatch) IsEmpty() bool {
	return p.Title == nil && p.Ingredients == nil && p.Steps == nil && p.Image == nil && p.PreparationTime == nil
}

type RecipeRepository interface {
	Create(ctx context.Context, recipe *model.Recipe) (*model.Recipe, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.RecipeWithOwner, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.RecipeWithOwner, error)
	List(ctx context.Context, limit, offset int) ([]model.RecipeWithOwner, error)
	Count(ctx context.Context) (int, error)
	SearchByIngredient(ctx context.Context, term string, limit, offset int) ([]model.RecipeWithOwner, error)
	CountByIngredient(ctx context.Context, term string) (int, error)
	ListByPreparationTime(ctx context.Context, min, max float64) ([]model.RecipeWithOwner, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.RecipeWithOwner, error)
	Update(ctx context.Context, id uuid.UUID, patch RecipePatch) (bool, error)
	DeleteOneByOwner(ctx context.Context, ownerID uuid.UUID) (*model.Recipe, error)
}

type postgresRecipeRepository struct {
	db *sqlx.DB
}

func NewPostgresRecipeRepository(db *sqlx.DB) RecipeRepository {
	return &postgresRecipeRepository{db: db}
}

const selectRecipes = `
		SELECT
			r.id,
			r.owner_id,
			r.title,
			r.ingredients,
			r.steps,
			r.image,
			r.preparation_time,
			r.created_at,
			COALESCE(u.username, '') AS owner_username
		FROM recipes r
		LEFT JOIN users u ON r.owner_id = u.id
`

const ingredientMatch = `EXISTS (SELECT 1 FROM jsonb_array_elements_text(r.ingredients) AS ing WHERE ing ILIKE $1 ESCAPE '\')`

func (r *postgresRecipeRepository) Create(ctx context.Context, recipe *model.Recipe) (*model.Recipe, error) {
	query := `
		INSERT INTO recipes (owner_id, title, ingredients, steps, image, preparation_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	row := r.db.QueryRowxContext(ctx, query, recipe.OwnerID, recipe.Title, recipe.Ingredients, recipe.Steps, recipe.Image, recipe.PreparationTime)
	if err := row.Scan(&recipe.ID, &recipe.CreatedAt); err != nil {
		return nil, err
	}

	return recipe, nil
}

// FindByID returns nil, nil when the recipe does not exist.
func (r *postgresRecipeRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.RecipeWithOwner, error) {
	var recipe model.RecipeWithOwner
	err := r.db.GetContext(ctx, &recipe, selectRecipes+` WHERE r.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &recipe, nil
}

func (r *postgresRecipeRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.RecipeWithOwner, error) {
	recipes := []model.RecipeWithOwner{}
	if len(ids) == 0 {
		return recipes, nil
	}

	query, args, err := sqlx.In(selectRecipes+` WHERE r.id IN (?) ORDER BY r.created_at DESC, r.id DESC`, ids)
	if err != nil {
		return nil, fmt.Errorf("build recipe id query: %w", err)
	}

	err = r.db.SelectContext(ctx, &recipes, r.db.Rebind(query), args...)
	return recipes, err
}

func (r *postgresRecipeRepository) List(ctx context.Context, limit, offset int) ([]model.RecipeWithOwner, error) {
	recipes := []model.RecipeWithOwner{}
	query := selectRecipes + ` ORDER BY r.created_at DESC, r.id DESC LIMIT $1 OFFSET $2`
	err := r.db.SelectContext(ctx, &recipes, query, limit, offset)
	return recipes, err
}

func (r *postgresRecipeRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM recipes`)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresRecipeRepository) SearchByIngredient(ctx context.Context, term string, limit, offset int) ([]model.RecipeWithOwner, error) {
	recipes := []model.RecipeWithOwner{}
	query := selectRecipes + ` WHERE ` + ingredientMatch + ` ORDER BY r.created_at DESC, r.id DESC LIMIT $2 OFFSET $3`
	err := r.db.SelectContext(ctx, &recipes, query, containsPattern(term), limit, offset)
	return recipes, err
}

func (r *postgresRecipeRepository) CountByIngredient(ctx context.Context, term string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM recipes r WHERE ` + ingredientMatch
	err := r.db.GetContext(ctx, &count, query, containsPattern(term))
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresRecipeRepository) ListByPreparationTime(ctx context.Context, min, max float64) ([]model.RecipeWithOwner, error) {
	recipes := []model.RecipeWithOwner{}
	query := selectRecipes + ` WHERE r.preparation_time >= $1::float8 AND r.preparation_time <= $2::float8 ORDER BY r.created_at DESC, r.id DESC`
	err := r.db.SelectContext(ctx, &recipes, query, min, max)
	return recipes, err
}

func (r *postgresRecipeRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.RecipeWithOwner, error) {
	recipes := []model.RecipeWithOwner{}
	query := selectRecipes + ` WHERE r.owner_id = $1 ORDER BY r.created_at DESC, r.id DESC`
	err := r.db.SelectContext(ctx, &recipes, query, ownerID)
	return recipes, err
}

// Update applies the non-nil fields of patch and reports whether the recipe
// exists.
func (r *postgresRecipeRepository) Update(ctx context.Context, id uuid.UUID, patch RecipePatch) (bool, error) {
	if patch.IsEmpty() {
		var exists bool
		err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM recipes WHERE id = $1)`, id)
		return exists, err
	}

	var setClauses []string
	var args []interface{}
	argId := 1

	if patch.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", argId))
		args = append(args, *patch.Title)
		argId++
	}
	if patch.Ingredients != nil {
		setClauses = append(setClauses, fmt.Sprintf("ingredients = $%d", argId))
		args = append(args, patch.Ingredients)
		argId++
	}
	if patch.Steps != nil {
		setClauses = append(setClauses, fmt.Sprintf("steps = $%d", argId))
		args = append(args, patch.Steps)
		argId++
	}
	if patch.Image != nil {
		setClauses = append(setClauses, fmt.Sprintf("image = $%d", argId))
		args = append(args, *patch.Image)
		argId++
	}
	if patch.PreparationTime != nil {
		setClauses = append(setClauses, fmt.Sprintf("preparation_time = $%d", argId))
		args = append(args, *patch.PreparationTime)
		argId++
	}

	query := fmt.Sprintf("UPDATE recipes SET %s WHERE id = $%d", strings.Join(setClauses, ", "), argId)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteOneByOwner removes the owner's earliest recipe and returns it, or
// nil, nil when the owner has none. Ratings and comments are kept.
func (r *postgresRecipeRepository) DeleteOneByOwner(ctx context.Context, ownerID uuid.UUID) (*model.Recipe, error) {
	query := `
		DELETE FROM recipes
		WHERE id = (
			SELECT id FROM recipes WHERE owner_id = $1
			ORDER BY created_at ASC, id ASC
			LIMIT 1
		)
		RETURNING id, owner_id, title, ingredients, steps, image, preparation_time, created_at
	`

	var recipe model.Recipe
	err := r.db.GetContext(ctx, &recipe, query, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &recipe, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
