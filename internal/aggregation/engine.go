package aggregation

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/sanobery/recipe-be/internal/model"
)

var ErrInvalidBucket = errors.New("rating must be a whole number between 1 and 5")

// Stat is the aggregate for one recipe. Recipes without ratings have no
// entry; callers treat a missing entry as a zero mean.
type Stat struct {
	Mean  float64
	Count int
}

// StatSource runs the grouped mean query. An empty id list aggregates every
// rating in the store.
type StatSource interface {
	AverageByRecipe(ctx context.Context, recipeIDs []uuid.UUID) ([]model.RatingStat, error)
}

type Engine struct {
	source StatSource
}

func NewEngine(source StatSource) *Engine {
	return &Engine{source: source}
}

// AverageFor returns the mean and count per recipe for the given ids, or for
// all rated recipes when ids is empty.
func (e *Engine) AverageFor(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Stat, error) {
	rows, err := e.source.AverageByRecipe(ctx, ids)
	if err != nil {
		return nil, err
	}

	stats := make(map[uuid.UUID]Stat, len(rows))
	for _, row := range rows {
		stats[row.RecipeID] = Stat{Mean: row.Mean, Count: row.Count}
	}
	return stats, nil
}

// RecipesWithRoundedAverage returns the recipes whose ceiling-rounded mean
// equals bucket. The stat values keep the unrounded mean.
func (e *Engine) RecipesWithRoundedAverage(ctx context.Context, bucket int) (map[uuid.UUID]Stat, error) {
	if bucket < 1 || bucket > 5 {
		return nil, ErrInvalidBucket
	}

	all, err := e.AverageFor(ctx, nil)
	if err != nil {
		return nil, err
	}

	matched := make(map[uuid.UUID]Stat)
	for id, stat := range all {
		if CeilAverage(stat.Mean) == bucket {
			matched[id] = stat
		}
	}
	return matched, nil
}

// ParseBucket reads a rating bucket from a query parameter.
func ParseBucket(raw string) (int, error) {
	bucket, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || bucket < 1 || bucket > 5 {
		return 0, ErrInvalidBucket
	}
	return bucket, nil
}
