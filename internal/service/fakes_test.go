package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sanobery/recipe-be/internal/aggregation"
	"github.com/sanobery/recipe-be/internal/model"
	"github.com/sanobery/recipe-be/internal/repository"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
	err   error
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[uuid.UUID]*model.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) (uuid.UUID, error) {
	if r.err != nil {
		return uuid.Nil, r.err
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return uuid.Nil, repository.ErrDuplicate
		}
	}
	id := uuid.New()
	cp := *user
	cp.ID = id
	r.users[id] = &cp
	return id, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, r.err
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.users[id], nil
}

type fakeRecipeRepo struct {
	recipes []model.RecipeWithOwner
	clock   time.Time
	err     error
}

func newFakeRecipeRepo() *fakeRecipeRepo {
	return &fakeRecipeRepo{clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (r *fakeRecipeRepo) add(owner *model.User, title string, prep int, ingredients ...string) model.RecipeWithOwner {
	r.clock = r.clock.Add(time.Minute)
	rec := model.RecipeWithOwner{
		Recipe: model.Recipe{
			ID:              uuid.New(),
			OwnerID:         owner.ID,
			Title:           title,
			Ingredients:     ingredients,
			Steps:           model.StringList{"cook"},
			PreparationTime: prep,
			CreatedAt:       r.clock,
		},
		OwnerUsername: owner.Username,
	}
	r.recipes = append(r.recipes, rec)
	return rec
}

func (r *fakeRecipeRepo) newestFirst(keep func(model.RecipeWithOwner) bool) []model.RecipeWithOwner {
	out := []model.RecipeWithOwner{}
	for _, rec := range r.recipes {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func page(recipes []model.RecipeWithOwner, limit, offset int) []model.RecipeWithOwner {
	if offset >= len(recipes) {
		return []model.RecipeWithOwner{}
	}
	return recipes[offset:min(offset+limit, len(recipes))]
}

func (r *fakeRecipeRepo) Create(_ context.Context, recipe *model.Recipe) (*model.Recipe, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.clock = r.clock.Add(time.Minute)
	recipe.ID = uuid.New()
	recipe.CreatedAt = r.clock
	r.recipes = append(r.recipes, model.RecipeWithOwner{Recipe: *recipe})
	return recipe, nil
}

func (r *fakeRecipeRepo) FindByID(_ context.Context, id uuid.UUID) (*model.RecipeWithOwner, error) {
	if r.err != nil {
		return nil, r.err
	}
	for i := range r.recipes {
		if r.recipes[i].ID == id {
			rec := r.recipes[i]
			return &rec, nil
		}
	}
	return nil, nil
}

func (r *fakeRecipeRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.RecipeWithOwner, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	return r.newestFirst(func(rec model.RecipeWithOwner) bool { return want[rec.ID] }), nil
}

func (r *fakeRecipeRepo) List(_ context.Context, limit, offset int) ([]model.RecipeWithOwner, error) {
	return page(r.newestFirst(func(model.RecipeWithOwner) bool { return true }), limit, offset), nil
}

func (r *fakeRecipeRepo) Count(_ context.Context) (int, error) {
	return len(r.recipes), nil
}

func (r *fakeRecipeRepo) matchesIngredient(term string) func(model.RecipeWithOwner) bool {
	return func(rec model.RecipeWithOwner) bool {
		for _, ing := range rec.Ingredients {
			if containsFold(ing, term) {
				return true
			}
		}
		return false
	}
}

func (r *fakeRecipeRepo) SearchByIngredient(_ context.Context, term string, limit, offset int) ([]model.RecipeWithOwner, error) {
	return page(r.newestFirst(r.matchesIngredient(term)), limit, offset), nil
}

func (r *fakeRecipeRepo) CountByIngredient(_ context.Context, term string) (int, error) {
	return len(r.newestFirst(r.matchesIngredient(term))), nil
}

func (r *fakeRecipeRepo) ListByPreparationTime(_ context.Context, lo, hi float64) ([]model.RecipeWithOwner, error) {
	return r.newestFirst(func(rec model.RecipeWithOwner) bool {
		p := float64(rec.PreparationTime)
		return p >= lo && p <= hi
	}), nil
}

func (r *fakeRecipeRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]model.RecipeWithOwner, error) {
	return r.newestFirst(func(rec model.RecipeWithOwner) bool { return rec.OwnerID == ownerID }), nil
}

func (r *fakeRecipeRepo) Update(_ context.Context, id uuid.UUID, patch repository.RecipePatch) (bool, error) {
	for i := range r.recipes {
		rec := &r.recipes[i]
		if rec.ID != id {
			continue
		}
		if patch.Title != nil {
			rec.Title = *patch.Title
		}
		if patch.Ingredients != nil {
			rec.Ingredients = patch.Ingredients
		}
		if patch.Steps != nil {
			rec.Steps = patch.Steps
		}
		if patch.Image != nil {
			rec.Image = *patch.Image
		}
		if patch.PreparationTime != nil {
			rec.PreparationTime = *patch.PreparationTime
		}
		return true, nil
	}
	return false, nil
}

func (r *fakeRecipeRepo) DeleteOneByOwner(_ context.Context, ownerID uuid.UUID) (*model.Recipe, error) {
	idx := -1
	for i, rec := range r.recipes {
		if rec.OwnerID == ownerID && (idx < 0 || rec.CreatedAt.Before(r.recipes[idx].CreatedAt)) {
			idx = i
		}
	}
	if idx < 0 {
		return nil, nil
	}
	deleted := r.recipes[idx].Recipe
	r.recipes = append(r.recipes[:idx], r.recipes[idx+1:]...)
	return &deleted, nil
}

type fakeRatingRepo struct {
	ratings   []model.Rating
	createErr error
}

func (r *fakeRatingRepo) Create(_ context.Context, rating *model.Rating) error {
	if r.createErr != nil {
		return r.createErr
	}
	rating.ID = uuid.New()
	rating.CreatedAt = time.Now()
	r.ratings = append(r.ratings, *rating)
	return nil
}

func (r *fakeRatingRepo) Exists(_ context.Context, recipeID, userID uuid.UUID) (bool, error) {
	for _, rt := range r.ratings {
		if rt.RecipeID == recipeID && rt.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRatingRepo) ListByRecipe(_ context.Context, recipeID uuid.UUID) ([]model.Rating, error) {
	out := []model.Rating{}
	for _, rt := range r.ratings {
		if rt.RecipeID == recipeID {
			out = append(out, rt)
		}
	}
	return out, nil
}

func (r *fakeRatingRepo) AverageByRecipe(_ context.Context, ids []uuid.UUID) ([]model.RatingStat, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	sums := map[uuid.UUID]*model.RatingStat{}
	totals := map[uuid.UUID]float64{}
	for _, rt := range r.ratings {
		if len(ids) > 0 && !want[rt.RecipeID] {
			continue
		}
		st, ok := sums[rt.RecipeID]
		if !ok {
			st = &model.RatingStat{RecipeID: rt.RecipeID}
			sums[rt.RecipeID] = st
		}
		st.Count++
		totals[rt.RecipeID] += float64(rt.Score)
	}
	out := []model.RatingStat{}
	for id, st := range sums {
		st.Mean = totals[id] / float64(st.Count)
		out = append(out, *st)
	}
	return out, nil
}

func (r *fakeRatingRepo) rate(recipeID uuid.UUID, scores ...int) {
	for _, s := range scores {
		r.ratings = append(r.ratings, model.Rating{ID: uuid.New(), RecipeID: recipeID, UserID: uuid.New(), Score: s})
	}
}

type fakeCommentRepo struct {
	comments []model.Comment
	err      error
	// onList runs before ListByRecipe reads, standing in for a concurrent writer.
	onList func()
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *model.Comment) error {
	if r.err != nil {
		return r.err
	}
	comment.ID = uuid.New()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByRecipe(_ context.Context, recipeID uuid.UUID) ([]model.Comment, error) {
	if r.onList != nil {
		r.onList()
	}
	out := []model.Comment{}
	for _, c := range r.comments {
		if c.RecipeID == recipeID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeCache struct {
	entries     map[uuid.UUID]model.RecipeDetail
	gen         map[uuid.UUID]uint64
	invalidated []uuid.UUID
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[uuid.UUID]model.RecipeDetail{}, gen: map[uuid.UUID]uint64{}}
}

func (c *fakeCache) Get(id uuid.UUID) (model.RecipeDetail, bool) {
	d, ok := c.entries[id]
	return d, ok
}

func (c *fakeCache) Set(id uuid.UUID, d model.RecipeDetail) {
	c.entries[id] = d
}

func (c *fakeCache) Generation(id uuid.UUID) uint64 {
	return c.gen[id]
}

func (c *fakeCache) SetIfUnchanged(id uuid.UUID, gen uint64, d model.RecipeDetail) bool {
	if c.gen[id] != gen {
		return false
	}
	c.entries[id] = d
	return true
}

func (c *fakeCache) Invalidate(id uuid.UUID) {
	c.gen[id]++
	delete(c.entries, id)
	c.invalidated = append(c.invalidated, id)
}

// recordingPublisher is safe for the goroutines services publish from.
type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *recordingPublisher) record(s string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, s)
	return nil
}

func (p *recordingPublisher) PublishRecipeCreated(*model.Recipe) error {
	return p.record("recipe.created")
}

func (p *recordingPublisher) PublishRecipeUpdated(uuid.UUID) error {
	return p.record("recipe.updated")
}

func (p *recordingPublisher) PublishRecipeDeleted(*model.Recipe) error {
	return p.record("recipe.deleted")
}

func (p *recordingPublisher) PublishRecipeRated(*model.Rating) error {
	return p.record("recipe.rated")
}

func (p *recordingPublisher) PublishRecipeCommented(*model.Comment) error {
	return p.record("recipe.commented")
}

func (p *recordingPublisher) seen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.subjects...)
}

type fakeImages struct {
	saved [][]byte
	err   error
}

func (f *fakeImages) Save(_ context.Context, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, data)
	return "/uploads/recipes/fake.png", nil
}

func newEngine(ratings *fakeRatingRepo) *aggregation.Engine {
	return aggregation.NewEngine(ratings)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
