package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanobery/recipe-be/internal/model"
	"github.com/sanobery/recipe-be/internal/repository"
)

type submitFixture struct {
	owner    *model.User
	rater    *model.User
	recipe   model.RecipeWithOwner
	users    *fakeUserRepo
	recipes  *fakeRecipeRepo
	ratings  *fakeRatingRepo
	comments *fakeCommentRepo
	cache    *fakeCache
	svc      SubmissionService
}

func newSubmitFixture() *submitFixture {
	f := &submitFixture{
		owner:    &model.User{ID: uuid.New(), Username: "chef"},
		rater:    &model.User{ID: uuid.New(), Username: "critic"},
		recipes:  newFakeRecipeRepo(),
		ratings:  &fakeRatingRepo{},
		comments: &fakeCommentRepo{},
		cache:    newFakeCache(),
	}
	f.users = newFakeUserRepo(f.owner, f.rater)
	f.recipe = f.recipes.add(f.owner, "stew", 30, "beef")
	f.svc = NewSubmissionService(f.users, f.recipes, f.ratings, f.comments, f.cache, &recordingPublisher{})
	return f
}

func score(v float64) *float64 { return &v }
func text(v string) *string { return &v }

func TestSubmit_RatingAndComment(t *testing.T) {
	f := newSubmitFixture()

	res, err := f.svc.Submit(context.Background(), SubmissionInput{
		RecipeID: f.recipe.ID,
		RaterID:  f.rater.ID,
		Score:    score(4),
		Comment:  text("<b>Great</b> salt & pepper"),
	})
	require.NoError(t, err)
	assert.True(t, res.RatingAdded)
	assert.True(t, res.CommentAdded)
	assert.Empty(t, res.CommentError)

	require.Len(t, f.ratings.ratings, 1)
	assert.Equal(t, 4, f.ratings.ratings[0].Score)
	require.Len(t, f.comments.comments, 1)
	assert.Equal(t, "Great salt & pepper", *f.comments.comments[0].Comment)
	assert.Equal(t, []uuid.UUID{f.recipe.ID}, f.cache.invalidated)
}

func TestSubmit_CommentOnly(t *testing.T) {
	f := newSubmitFixture()

	res, err := f.svc.Submit(context.Background(), SubmissionInput{
		RecipeID: f.recipe.ID,
		RaterID:  f.owner.ID,
		Comment:  text("my own note"),
	})
	require.NoError(t, err)
	assert.False(t, res.RatingAdded)
	assert.True(t, res.CommentAdded)
	assert.Empty(t, f.ratings.ratings)
}

func TestSubmit_EmptyCommentWithScoreIsStored(t *testing.T) {
	f := newSubmitFixture()

	res, err := f.svc.Submit(context.Background(), SubmissionInput{
		RecipeID: f.recipe.ID,
		RaterID:  f.rater.ID,
		Score:    score(3),
		Comment:  text(""),
	})
	require.NoError(t, err)
	assert.True(t, res.CommentAdded)
	require.Len(t, f.comments.comments, 1)
	assert.Equal(t, "", *f.comments.comments[0].Comment)
}

func TestSubmit_ValidationOrder(t *testing.T) {
	tests := []struct {
		name  string
		input func(f *submitFixture) SubmissionInput
		want  error
	}{
		{
			name:  "nothing to submit",
			input: func(f *submitFixture) SubmissionInput { return SubmissionInput{RecipeID: f.recipe.ID, RaterID: f.rater.ID} },
			want:  ErrMissingFields,
		},
		{
			name: "empty comment alone",
			input: func(f *submitFixture) SubmissionInput {
				return SubmissionInput{RecipeID: f.recipe.ID, RaterID: f.rater.ID, Comment: text("")}
			},
			want: ErrMissingFields,
		},
		{
			name:  "missing recipe id",
			input: func(f *submitFixture) SubmissionInput { return SubmissionInput{RaterID: f.rater.ID, Score: score(3)} },
			want:  ErrMissingFields,
		},
		{
			name: "fractional score before unknown user",
			input: func(f *submitFixture) SubmissionInput {
				return SubmissionInput{RecipeID: f.recipe.ID, RaterID: uuid.New(), Score: score(3.5)}
			},
			want: ErrInvalidScore,
		},
		{
			name: "score out of range",
			input: func(f *submitFixture) SubmissionInput {
				return SubmissionInput{RecipeID: f.recipe.ID, RaterID: f.rater.ID, Score: score(6)}
			},
			want: ErrInvalidScore,
		},
		{
			name: "unknown user before unknown recipe",
			input: func(f *submitFixture) SubmissionInput {
				return SubmissionInput{RecipeID: uuid.New(), RaterID: uuid.New(), Score: score(3)}
			},
			want: ErrInvalidUser,
		},
		{
			name: "unknown recipe",
			input: func(f *submitFixture) SubmissionInput {
				return SubmissionInput{RecipeID: uuid.New(), RaterID: f.rater.ID, Score: score(3)}
			},
			want: ErrRecipeNotFound,
		},
		{
			name: "self rating even with comment",
			input: func(f *submitFixture) SubmissionInput {
				return SubmissionInput{RecipeID: f.recipe.ID, RaterID: f.owner.ID, Score: score(5), Comment: text("mine!")}
			},
			want: ErrSelfRatingForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSubmitFixture()
			_, err := f.svc.Submit(context.Background(), tt.input(f))
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, f.ratings.ratings)
			assert.Empty(t, f.comments.comments)
		})
	}
}

func TestSubmit_DuplicateRating(t *testing.T) {
	f := newSubmitFixture()
	in := SubmissionInput{RecipeID: f.recipe.ID, RaterID: f.rater.ID, Score: score(4)}

	_, err := f.svc.Submit(context.Background(), in)
	require.NoError(t, err)

	in.Comment = text("again")
	_, err = f.svc.Submit(context.Background(), in)
	assert.ErrorIs(t, err, ErrDuplicateRating)
	assert.Len(t, f.ratings.ratings, 1)
	assert.Empty(t, f.comments.comments)
}

func TestSubmit_UniqueViolationMapsToDuplicate(t *testing.T) {
	f := newSubmitFixture()
	f.ratings.createErr = repository.ErrDuplicate

	_, err := f.svc.Submit(context.Background(), SubmissionInput{RecipeID: f.recipe.ID, RaterID: f.rater.ID, Score: score(2)})
	assert.ErrorIs(t, err, ErrDuplicateRating)
}

func TestSubmit_CommentFailureKeepsRating(t *testing.T) {
	f := newSubmitFixture()
	f.comments.err = errors.New("disk full")

	res, err := f.svc.Submit(context.Background(), SubmissionInput{
		RecipeID: f.recipe.ID,
		RaterID:  f.rater.ID,
		Score:    score(5),
		Comment:  text("lovely"),
	})
	require.NoError(t, err)
	assert.True(t, res.RatingAdded)
	assert.False(t, res.CommentAdded)
	assert.NotEmpty(t, res.CommentError)
	assert.Len(t, f.ratings.ratings, 1)
}

func TestSubmit_CommentOnlyFailureIsAnError(t *testing.T) {
	f := newSubmitFixture()
	boom := errors.New("disk full")
	f.comments.err = boom

	_, err := f.svc.Submit(context.Background(), SubmissionInput{RecipeID: f.recipe.ID, RaterID: f.rater.ID, Comment: text("hi")})
	assert.ErrorIs(t, err, boom)
}
