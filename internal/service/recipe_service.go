package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/sanobery/recipe-be/internal/events"
	"github.com/sanobery/recipe-be/internal/model"
	"github.com/sanobery/recipe-be/internal/repository"
)

type CreateRecipeInput struct {
	OwnerID         uuid.UUID `validate:"required"`
	Title           string    `validate:"required,notblank,max=200"`
	Ingredients     []string  `validate:"required,min=1,dive,notblank"`
	Steps           []string  `validate:"required,min=1,dive,notblank"`
	PreparationTime int       `validate:"gte=0"`
}

type UpdateRecipeInput struct {
	Title           *string  `validate:"omitnil,notblank,max=200"`
	Ingredients     []string `validate:"omitnil,min=1,dive,notblank"`
	Steps           []string `validate:"omitnil,min=1,dive,notblank"`
	PreparationTime *int     `validate:"omitnil,gte=0"`
}

type CreatedRecipe struct {
	Recipe model.RecipeSummary
	Total  int
}

type DeleteAck struct {
	RecipeID uuid.UUID `json:"recipeId"`
	Title    string    `json:"title"`
}

// ImageSaver stores an uploaded image and returns its reference.
type ImageSaver interface {
	Save(ctx context.Context, data []byte) (string, error)
}

type RecipeService interface {
	Create(ctx context.Context, in CreateRecipeInput, image []byte) (*CreatedRecipe, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateRecipeInput, image []byte) (*model.RecipeSummary, error)
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (*DeleteAck, error)
}

type recipeService struct {
	userRepo   repository.UserRepository
	recipeRepo repository.RecipeRepository
	images     ImageSaver
	cache      events.Invalidator
	publisher  events.EventPublisher
	validate   *validator.Validate
}

func NewRecipeService(
	userRepo repository.UserRepository,
	recipeRepo repository.RecipeRepository,
	images ImageSaver,
	cache events.Invalidator,
	publisher events.EventPublisher,
) RecipeService {
	return &recipeService{
		userRepo:   userRepo,
		recipeRepo: recipeRepo,
		images:     images,
		cache:      cache,
		publisher:  publisher,
		validate:   validator.New(),
	}
}

func (s *recipeService) Create(ctx context.Context, in CreateRecipeInput, image []byte) (*CreatedRecipe, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	owner, err := s.userRepo.FindByID(ctx, in.OwnerID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, ErrInvalidUser
	}

	var imageRef string
	if len(image) > 0 {
		imageRef, err = s.images.Save(ctx, image)
		if err != nil {
			return nil, err
		}
	}

	recipe, err := s.recipeRepo.Create(ctx, &model.Recipe{
		OwnerID:         in.OwnerID,
		Title:           in.Title,
		Ingredients:     in.Ingredients,
		Steps:           in.Steps,
		Image:           imageRef,
		PreparationTime: in.PreparationTime,
	})
	if err != nil {
		if imageRef != "" {
			slog.WarnContext(ctx, "Recipe insert failed, uploaded image left in place", "image", imageRef, "error", err)
		}
		return nil, err
	}

	total, err := s.recipeRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	go s.publisher.PublishRecipeCreated(recipe)

	return &CreatedRecipe{
		Recipe: model.RecipeSummary{
			Recipe: *recipe,
			Owner:  model.Owner{ID: owner.ID, Username: owner.Username},
		},
		Total: total,
	}, nil
}

func (s *recipeService) Update(ctx context.Context, id uuid.UUID, in UpdateRecipeInput, image []byte) (*model.RecipeSummary, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	patch := repository.RecipePatch{
		Title:           in.Title,
		Ingredients:     in.Ingredients,
		Steps:           in.Steps,
		PreparationTime: in.PreparationTime,
	}

	if len(image) > 0 {
		existing, err := s.recipeRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, ErrRecipeNotFound
		}

		ref, err := s.images.Save(ctx, image)
		if err != nil {
			return nil, err
		}
		patch.Image = &ref
	}

	found, err := s.recipeRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrRecipeNotFound
	}

	s.cache.Invalidate(id)
	go s.publisher.PublishRecipeUpdated(id)

	updated, err := s.recipeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrRecipeNotFound
	}

	return &model.RecipeSummary{Recipe: updated.Recipe, Owner: updated.Owner()}, nil
}

// DeleteByOwner removes one recipe belonging to ownerID, the earliest created.
// Its ratings and comments stay in the store.
func (s *recipeService) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (*DeleteAck, error) {
	if ownerID == uuid.Nil {
		return nil, ErrInvalidUser
	}

	deleted, err := s.recipeRepo.DeleteOneByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if deleted == nil {
		return nil, ErrRecipeNotFound
	}

	s.cache.Invalidate(deleted.ID)
	go s.publisher.PublishRecipeDeleted(deleted)

	return &DeleteAck{RecipeID: deleted.ID, Title: deleted.Title}, nil
}
