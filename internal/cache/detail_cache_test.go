package cache

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanobery/recipe-be/internal/model"
)

func set(c *DetailCache, id uuid.UUID, detail model.RecipeDetail) {
	c.SetIfUnchanged(id, c.Generation(id), detail)
}

func TestDetailCache_SetGetInvalidate(t *testing.T) {
	c, err := NewDetailCache(10, time.Minute)
	require.NoError(t, err)

	id := uuid.New()
	detail := model.RecipeDetail{AverageRating: 4, RatingCount: 3}
	detail.ID = id
	detail.Title = "Stew"

	_, ok := c.Get(id)
	assert.False(t, ok)

	set(c, id, detail)
	got, ok := c.Get(id)
	require.True(t, ok)
	assert.Equal(t, "Stew", got.Title)
	assert.Equal(t, 4, got.AverageRating)

	c.Invalidate(id)
	_, ok = c.Get(id)
	assert.False(t, ok)
}

func TestDetailCache_Expiry(t *testing.T) {
	c, err := NewDetailCache(10, time.Minute)
	require.NoError(t, err)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	id := uuid.New()
	set(c, id, model.RecipeDetail{})

	now = now.Add(30 * time.Second)
	_, ok := c.Get(id)
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok = c.Get(id)
	assert.False(t, ok)
	assert.Zero(t, c.lru.Len())
}

func TestDetailCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewDetailCache(2, time.Minute)
	require.NoError(t, err)

	a, b, d := uuid.New(), uuid.New(), uuid.New()
	set(c, a, model.RecipeDetail{})
	set(c, b, model.RecipeDetail{})
	_, _ = c.Get(a)
	set(c, d, model.RecipeDetail{})

	_, ok := c.Get(b)
	assert.False(t, ok)
	_, ok = c.Get(a)
	assert.True(t, ok)
}

func TestNewDetailCache_RejectsZeroSize(t *testing.T) {
	_, err := NewDetailCache(0, time.Minute)
	assert.Error(t, err)
}

func TestDetailCache_SetIfUnchanged_DropsViewReadBeforeInvalidate(t *testing.T) {
	c, err := NewDetailCache(10, time.Minute)
	require.NoError(t, err)

	id, other := uuid.New(), uuid.New()
	gen := c.Generation(id)

	c.Invalidate(id)
	c.Invalidate(other)

	assert.False(t, c.SetIfUnchanged(id, gen, model.RecipeDetail{RatingCount: 1}))
	_, ok := c.Get(id)
	assert.False(t, ok)

	assert.True(t, c.SetIfUnchanged(id, c.Generation(id), model.RecipeDetail{RatingCount: 2}))
	got, ok := c.Get(id)
	require.True(t, ok)
	assert.Equal(t, 2, got.RatingCount)
}
