package service

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/sanobery/recipe-be/internal/events"
	"github.com/sanobery/recipe-be/internal/model"
	"github.com/sanobery/recipe-be/internal/repository"
)

type SubmissionInput struct {
	RecipeID uuid.UUID
	RaterID  uuid.UUID
	Score    *float64
	Comment  *string
}

type SubmissionResult struct {
	RatingAdded  bool   `json:"ratingAdded"`
	CommentAdded bool   `json:"commentAdded"`
	CommentError string `json:"commentError,omitempty"`
}

type SubmissionService interface {
	Submit(ctx context.Context, in SubmissionInput) (*SubmissionResult, error)
}

type submissionService struct {
	userRepo    repository.UserRepository
	recipeRepo  repository.RecipeRepository
	ratingRepo  repository.RatingRepository
	commentRepo repository.CommentRepository
	cache       events.Invalidator
	publisher   events.EventPublisher
	sanitizer   *bluemonday.Policy
}

func NewSubmissionService(
	userRepo repository.UserRepository,
	recipeRepo repository.RecipeRepository,
	ratingRepo repository.RatingRepository,
	commentRepo repository.CommentRepository,
	cache events.Invalidator,
	publisher events.EventPublisher,
) SubmissionService {
	return &submissionService{
		userRepo:    userRepo,
		recipeRepo:  recipeRepo,
		ratingRepo:  ratingRepo,
		commentRepo: commentRepo,
		cache:       cache,
		publisher:   publisher,
		sanitizer:   bluemonday.StrictPolicy(),
	}
}

// Submit records a rating and/or a comment. Checks run in a fixed order and
// stop at the first failure; nothing is written until all of them pass.
func (s *submissionService) Submit(ctx context.Context, in SubmissionInput) (*SubmissionResult, error) {
	hasComment := in.Comment != nil && *in.Comment != ""
	if in.RecipeID == uuid.Nil || in.RaterID == uuid.Nil || (in.Score == nil && !hasComment) {
		return nil, ErrMissingFields
	}

	var score int
	if in.Score != nil {
		v := *in.Score
		if v != math.Trunc(v) || v < 1 || v > 5 {
			return nil, ErrInvalidScore
		}
		score = int(v)
	}

	rater, err := s.userRepo.FindByID(ctx, in.RaterID)
	if err != nil {
		return nil, err
	}
	if rater == nil {
		return nil, ErrInvalidUser
	}

	recipe, err := s.recipeRepo.FindByID(ctx, in.RecipeID)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, ErrRecipeNotFound
	}

	if in.Score != nil {
		if recipe.OwnerID == in.RaterID {
			return nil, ErrSelfRatingForbidden
		}

		exists, err := s.ratingRepo.Exists(ctx, in.RecipeID, in.RaterID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrDuplicateRating
		}
	}

	result := &SubmissionResult{}

	if in.Score != nil {
		rating := &model.Rating{RecipeID: in.RecipeID, UserID: in.RaterID, Score: score}
		if err := s.ratingRepo.Create(ctx, rating); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, ErrDuplicateRating
			}
			return nil, err
		}
		result.RatingAdded = true
		go s.publisher.PublishRecipeRated(rating)
	}

	if in.Comment != nil {
		text := s.sanitize(*in.Comment)
		comment := &model.Comment{RecipeID: in.RecipeID, UserID: in.RaterID, Comment: &text}
		if err := s.commentRepo.Create(ctx, comment); err != nil {
			if !result.RatingAdded {
				return nil, err
			}
			slog.ErrorContext(ctx, "Comment insert failed after rating was stored", "recipe_id", in.RecipeID, "user_id", in.RaterID, "error", err)
			result.CommentError = "rating saved but the comment could not be stored"
		} else {
			result.CommentAdded = true
			go s.publisher.PublishRecipeCommented(comment)
		}
	}

	s.cache.Invalidate(in.RecipeID)

	return result, nil
}

// sanitize strips markup and stores the plain text unescaped.
func (s *submissionService) sanitize(text string) string {
	return html.UnescapeString(s.sanitizer.Sanitize(text))
}
