package service

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/sanobery/recipe-be/internal/aggregation"
	"github.com/sanobery/recipe-be/internal/model"
	"github.com/sanobery/recipe-be/internal/repository"
)

// RecipeList is a page of recipes with the size of the whole result set.
type RecipeList struct {
	Items []model.RecipeSummary `json:"recipes"`
	Total int                   `json:"total"`
}

// DetailCache holds detail views. Generation changes on every Invalidate of
// id, and SetIfUnchanged drops views built before the latest one.
type DetailCache interface {
	Get(id uuid.UUID) (model.RecipeDetail, bool)
	Generation(id uuid.UUID) uint64
	SetIfUnchanged(id uuid.UUID, gen uint64, detail model.RecipeDetail) bool
	Invalidate(id uuid.UUID)
}

type RecipeQueryService interface {
	ListRecipes(ctx context.Context, page Page) (*RecipeList, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.RecipeDetail, error)
	FilterByRating(ctx context.Context, bucket int) (*RecipeList, error)
	FilterByPreparationTime(ctx context.Context, rawRange string) (*RecipeList, error)
	SearchByIngredient(ctx context.Context, text string, page Page) (*RecipeList, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) (*RecipeList, error)
}

type recipeQueryService struct {
	recipeRepo  repository.RecipeRepository
	ratingRepo  repository.RatingRepository
	commentRepo repository.CommentRepository
	engine      *aggregation.Engine
	cache       DetailCache
}

func NewRecipeQueryService(
	recipeRepo repository.RecipeRepository,
	ratingRepo repository.RatingRepository,
	commentRepo repository.CommentRepository,
	engine *aggregation.Engine,
	cache DetailCache,
) RecipeQueryService {
	return &recipeQueryService{
		recipeRepo:  recipeRepo,
		ratingRepo:  ratingRepo,
		commentRepo: commentRepo,
		engine:      engine,
		cache:       cache,
	}
}

func unrounded(mean float64) float64 { return mean }

func (s *recipeQueryService) ListRecipes(ctx context.Context, page Page) (*RecipeList, error) {
	total, err := s.recipeRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	recipes, err := s.recipeRepo.List(ctx, page.Size, page.Offset())
	if err != nil {
		return nil, err
	}

	items, err := s.withAverages(ctx, recipes, recipeIDs(recipes), aggregation.OneDecimalAverage)
	if err != nil {
		return nil, err
	}
	return &RecipeList{Items: items, Total: total}, nil
}

func (s *recipeQueryService) GetByID(ctx context.Context, id uuid.UUID) (*model.RecipeDetail, error) {
	if detail, ok := s.cache.Get(id); ok {
		return &detail, nil
	}
	gen := s.cache.Generation(id)

	recipe, err := s.recipeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, ErrRecipeNotFound
	}

	ratings, err := s.ratingRepo.ListByRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := s.engine.AverageFor(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}

	stat := stats[id]
	detail := model.RecipeDetail{
		Recipe:        recipe.Recipe,
		Owner:         recipe.Owner(),
		AverageRating: aggregation.CeilAverage(stat.Mean),
		RatingCount:   stat.Count,
		Ratings:       ratings,
		Comments:      comments,
	}
	s.cache.SetIfUnchanged(id, gen, detail)

	return &detail, nil
}

func (s *recipeQueryService) FilterByRating(ctx context.Context, bucket int) (*RecipeList, error) {
	matched, err := s.engine.RecipesWithRoundedAverage(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return nil, ErrNoRecipesMatch
	}

	ids := make([]uuid.UUID, 0, len(matched))
	for id := range matched {
		ids = append(ids, id)
	}

	// Ratings outlive deleted recipes, so some ids may no longer resolve.
	recipes, err := s.recipeRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(recipes) == 0 {
		return nil, ErrNoRecipesMatch
	}

	items := merge(recipes, matched, unrounded)
	return &RecipeList{Items: items, Total: len(items)}, nil
}

func (s *recipeQueryService) FilterByPreparationTime(ctx context.Context, rawRange string) (*RecipeList, error) {
	lo, hi, err := parseRange(rawRange)
	if err != nil {
		return nil, err
	}

	recipes, err := s.recipeRepo.ListByPreparationTime(ctx, lo, hi)
	if err != nil {
		return nil, err
	}

	items, err := s.withAverages(ctx, recipes, nil, unrounded)
	if err != nil {
		return nil, err
	}
	return &RecipeList{Items: items, Total: len(items)}, nil
}

func (s *recipeQueryService) SearchByIngredient(ctx context.Context, text string, page Page) (*RecipeList, error) {
	term := strings.TrimSpace(text)
	if term == "" {
		return nil, ErrInvalidQuery
	}

	total, err := s.recipeRepo.CountByIngredient(ctx, term)
	if err != nil {
		return nil, err
	}

	recipes, err := s.recipeRepo.SearchByIngredient(ctx, term, page.Size, page.Offset())
	if err != nil {
		return nil, err
	}

	items, err := s.withAverages(ctx, recipes, recipeIDs(recipes), aggregation.OneDecimalAverage)
	if err != nil {
		return nil, err
	}
	return &RecipeList{Items: items, Total: total}, nil
}

func (s *recipeQueryService) ListByOwner(ctx context.Context, ownerID uuid.UUID) (*RecipeList, error) {
	recipes, err := s.recipeRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	items, err := s.withAverages(ctx, recipes, recipeIDs(recipes), aggregation.OneDecimalAverage)
	if err != nil {
		return nil, err
	}
	return &RecipeList{Items: items, Total: len(items)}, nil
}

// withAverages aggregates ratings for ids (every recipe when ids is nil) and
// attaches the rounded mean to each recipe.
func (s *recipeQueryService) withAverages(ctx context.Context, recipes []model.RecipeWithOwner, ids []uuid.UUID, round func(float64) float64) ([]model.RecipeSummary, error) {
	if len(recipes) == 0 {
		return []model.RecipeSummary{}, nil
	}

	stats, err := s.engine.AverageFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	return merge(recipes, stats, round), nil
}

func merge(recipes []model.RecipeWithOwner, stats map[uuid.UUID]aggregation.Stat, round func(float64) float64) []model.RecipeSummary {
	items := make([]model.RecipeSummary, 0, len(recipes))
	for _, r := range recipes {
		var avg float64
		if stat, ok := stats[r.ID]; ok {
			avg = round(stat.Mean)
		}
		items = append(items, model.RecipeSummary{
			Recipe:        r.Recipe,
			Owner:         r.Owner(),
			AverageRating: avg,
		})
	}
	return items
}

func recipeIDs(recipes []model.RecipeWithOwner) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(recipes))
	for _, r := range recipes {
		ids = append(ids, r.ID)
	}
	return ids
}

// parseRange reads "min-max" where both bounds are numbers and min <= max.
func parseRange(raw string) (float64, float64, error) {
	loRaw, hiRaw, ok := strings.Cut(strings.TrimSpace(raw), "-")
	if !ok {
		return 0, 0, ErrInvalidRange
	}

	lo, err := strconv.ParseFloat(strings.TrimSpace(loRaw), 64)
	if err != nil || math.IsNaN(lo) {
		return 0, 0, ErrInvalidRange
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(hiRaw), 64)
	if err != nil || math.IsNaN(hi) {
		return 0, 0, ErrInvalidRange
	}
	if lo > hi {
		return 0, 0, ErrInvalidRange
	}
	return lo, hi, nil
}
