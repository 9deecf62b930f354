package api

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/sanobery/recipe-be/internal/aggregation"
	"github.com/sanobery/recipe-be/internal/service"
)

type RecipeHandler struct {
	queries service.RecipeQueryService
	recipes service.RecipeService
}

func NewRecipeHandler(queries service.RecipeQueryService, recipes service.RecipeService) *RecipeHandler {
	return &RecipeHandler{queries: queries, recipes: recipes}
}

func (h *RecipeHandler) ListRecipes(c *fiber.Ctx) error {
	page, err := service.ParsePage(c.Query("page"), c.Query("limit"))
	if err != nil {
		return writeError(c, err)
	}

	list, err := h.queries.ListRecipes(c.UserContext(), page)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(list)
}

func (h *RecipeHandler) GetRecipe(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return writeError(c, service.ErrRecipeNotFound)
	}

	detail, err := h.queries.GetByID(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(detail)
}

// Filter serves ?rating=N and ?preparationtime=min-max. Rating wins when
// both are present.
func (h *RecipeHandler) Filter(c *fiber.Ctx) error {
	if raw := c.Query("rating"); raw != "" {
		bucket, err := aggregation.ParseBucket(raw)
		if err != nil {
			return writeError(c, err)
		}

		list, err := h.queries.FilterByRating(c.UserContext(), bucket)
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(list)
	}

	if raw := c.Query("preparationtime"); raw != "" {
		list, err := h.queries.FilterByPreparationTime(c.UserContext(), raw)
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(list)
	}

	return badRequest(c, "rating or preparationtime query parameter is required")
}

type searchRequest struct {
	Ingredient string `json:"ingredient"`
}

func (h *RecipeHandler) Search(c *fiber.Ctx) error {
	var req searchRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Cannot parse request body")
	}

	page, err := service.ParsePage(c.Query("page"), c.Query("limit"))
	if err != nil {
		return writeError(c, err)
	}

	list, err := h.queries.SearchByIngredient(c.UserContext(), req.Ingredient, page)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(list)
}

func (h *RecipeHandler) ListByOwner(c *fiber.Ctx) error {
	ownerID, err := uuid.Parse(unquote(c.Params("userId")))
	if err != nil {
		return writeError(c, service.ErrInvalidUser)
	}

	list, err := h.queries.ListByOwner(c.UserContext(), ownerID)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(list)
}

func (h *RecipeHandler) CreateRecipe(c *fiber.Ctx) error {
	req, err := parseRecipeRequest(c)
	if err != nil {
		return h.requestFailed(c, err)
	}

	ownerID, ok := parseOptionalID(req.UserID)
	if !ok {
		return writeError(c, service.ErrInvalidUser)
	}

	in := service.CreateRecipeInput{
		OwnerID:     ownerID,
		Ingredients: req.Ingredients,
		Steps:       req.Steps,
	}
	if req.Title != nil {
		in.Title = *req.Title
	}
	if req.PreparationTime != nil {
		in.PreparationTime = *req.PreparationTime
	}

	created, err := h.recipes.Create(c.UserContext(), in, req.image)
	if err != nil {
		return writeError(c, err)
	}
	recipesCreatedTotal.Inc()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Recipe created successfully",
		"total":   created.Total,
		"recipe":  created.Recipe,
	})
}

func (h *RecipeHandler) UpdateRecipe(c *fiber.Ctx) error {
	req, err := parseRecipeRequest(c)
	if err != nil {
		return h.requestFailed(c, err)
	}

	recipeID, ok := parseOptionalID(req.RecipeID)
	if !ok || recipeID == uuid.Nil {
		return badRequest(c, "recipeId is required")
	}

	updated, err := h.recipes.Update(c.UserContext(), recipeID, service.UpdateRecipeInput{
		Title:           req.Title,
		Ingredients:     req.Ingredients,
		Steps:           req.Steps,
		PreparationTime: req.PreparationTime,
	}, req.image)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Recipe updated successfully",
		"recipe":  updated,
	})
}

type deleteRequest struct {
	UserID string `json:"userId"`
}

func (h *RecipeHandler) DeleteRecipe(c *fiber.Ctx) error {
	var req deleteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Cannot parse request body")
	}

	ownerID, ok := parseOptionalID(req.UserID)
	if !ok || ownerID == uuid.Nil {
		return badRequest(c, "userId is required")
	}

	ack, err := h.recipes.DeleteByOwner(c.UserContext(), ownerID)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":  fmt.Sprintf("Recipe %s deleted", ack.Title),
		"recipeId": ack.RecipeID,
		"title":    ack.Title,
	})
}

func (h *RecipeHandler) requestFailed(c *fiber.Ctx, err error) error {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return badRequest(c, reqErr.msg)
	}
	return writeError(c, err)
}
