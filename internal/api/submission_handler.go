package api

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/sanobery/recipe-be/internal/service"
)

type SubmissionHandler struct {
	submissions service.SubmissionService
}

func NewSubmissionHandler(submissions service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

// flexScore accepts a JSON number or a quoted number. Anything else is kept
// as NaN so the service rejects it as an invalid score.
type flexScore struct {
	value *float64
}

func (s *flexScore) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		s.value = nil
		return nil
	}

	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		v = math.NaN()
	}
	s.value = &v
	return nil
}

type SubmitRequest struct {
	RecipeID string    `json:"recipeId"`
	UserID   string    `json:"userId"`
	Rate     flexScore `json:"rate"`
	Comment  *string   `json:"comment"`
}

// Submit serves both the rate and comment routes. The rater is always the
// token subject.
func (h *SubmissionHandler) Submit(c *fiber.Ctx) error {
	raterID, err := GetUserIDFromClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user claims"})
	}

	var req SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}

	if bodyUser, ok := parseOptionalID(req.UserID); !ok || (bodyUser != uuid.Nil && bodyUser != raterID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "userId does not match the authenticated user"})
	}

	recipeID, ok := parseOptionalID(req.RecipeID)
	if !ok {
		return badRequest(c, "Invalid recipe ID format")
	}

	result, err := h.submissions.Submit(c.UserContext(), service.SubmissionInput{
		RecipeID: recipeID,
		RaterID:  raterID,
		Score:    req.Rate.value,
		Comment:  req.Comment,
	})
	if err != nil {
		return writeError(c, err)
	}

	if result.RatingAdded {
		ratingsSubmittedTotal.Inc()
	}
	if result.CommentAdded {
		commentsSubmittedTotal.Inc()
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": submissionMessage(result),
		"result":  result,
	})
}

func submissionMessage(r *service.SubmissionResult) string {
	var parts []string
	if r.RatingAdded {
		parts = append(parts, "Rating added successfully.")
	}
	if r.CommentAdded {
		parts = append(parts, "Comment added successfully.")
	}
	if r.CommentError != "" {
		parts = append(parts, "Comment could not be saved.")
	}
	return strings.Join(parts, " ")
}
