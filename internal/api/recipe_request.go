package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/sanobery/recipe-be/internal/storage"
)

// recipeRequest is the body of recipe create and update calls. It arrives
// either as JSON or as a multipart form whose list fields hold JSON arrays.
type recipeRequest struct {
	RecipeID        string   `json:"recipeId"`
	UserID          string   `json:"userId"`
	Title           *string  `json:"title"`
	Ingredients     []string `json:"ingredients"`
	Steps           []string `json:"steps"`
	PreparationTime *int     `json:"preparationTime"`

	image []byte
}

type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func parseRecipeRequest(c *fiber.Ctx) (*recipeRequest, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		var req recipeRequest
		if err := c.BodyParser(&req); err != nil {
			return nil, &requestError{msg: "Cannot parse request body"}
		}
		return &req, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, &requestError{msg: "Cannot parse multipart form"}
	}

	req := &recipeRequest{
		RecipeID: unquote(firstValue(form, "recipeId")),
		UserID:   unquote(firstValue(form, "userId")),
	}

	if v, ok := form.Value["title"]; ok && len(v) > 0 {
		title := v[0]
		req.Title = &title
	}
	if req.Ingredients, err = formList(form, "ingredients"); err != nil {
		return nil, err
	}
	if req.Steps, err = formList(form, "steps"); err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(unquote(firstValue(form, "preparationTime"))); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &requestError{msg: "preparationTime must be a whole number of minutes"}
		}
		req.PreparationTime = &n
	}

	if files := form.File["image"]; len(files) > 0 {
		if req.image, err = readImage(files[0]); err != nil {
			return nil, err
		}
	}

	return req, nil
}

func firstValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// formList accepts either one JSON array value or repeated plain values.
// A missing field yields nil.
func formList(form *multipart.Form, key string) ([]string, error) {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return nil, nil
	}

	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var list []string
		if err := json.Unmarshal([]byte(values[0]), &list); err != nil {
			return nil, &requestError{msg: fmt.Sprintf("%s must be a JSON array of strings", key)}
		}
		return list, nil
	}

	return values, nil
}

func readImage(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > storage.MaxImageBytes {
		return nil, storage.ErrImageTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, storage.MaxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > storage.MaxImageBytes {
		return nil, storage.ErrImageTooLarge
	}
	return data, nil
}

// unquote strips stray quotes some form clients wrap around ids.
func unquote(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}

// parseOptionalID returns uuid.Nil for an empty value and ok=false for a
// malformed one.
func parseOptionalID(raw string) (uuid.UUID, bool) {
	raw = unquote(raw)
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
