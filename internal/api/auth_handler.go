package api

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/sanobery/recipe-be/internal/service"
)

// refreshCookie carries the refresh token for browser clients. Non-browser
// clients may send it in the JSON body instead.
const refreshCookie = "jwt"

type AuthHandler struct {
	authService service.AuthService
	validate    *validator.Validate
	refreshTTL  time.Duration
}

func NewAuthHandler(authService service.AuthService, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
		refreshTTL:  refreshTTL,
	}
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=4"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Message      string `json:"message"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// bind parses the JSON body into dst and runs its validate tags. It writes
// the 400 response itself and reports whether the handler may continue.
func (h *AuthHandler) bind(c *fiber.Ctx, dst any) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, badRequest(c, "All are required fields.")
	}
	if err := h.validate.Struct(dst); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}
	return true, nil
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	user, err := h.authService.RegisterUser(c.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Sign-up successful",
		"userId":  user.ID,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	access, refresh, err := h.authService.LoginUser(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     refreshCookie,
		Value:    refresh,
		MaxAge:   int(h.refreshTTL.Seconds()),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.Status(fiber.StatusOK).JSON(LoginResponse{
		Message:      "Login successful",
		AccessToken:  access,
		RefreshToken: refresh,
	})
}

// refreshToken prefers the body value and falls back to the cookie.
func refreshToken(c *fiber.Ctx) string {
	var req RefreshRequest
	if len(c.Body()) > 0 {
		_ = c.BodyParser(&req)
	}
	if req.RefreshToken != "" {
		return req.RefreshToken
	}
	return c.Cookies(refreshCookie)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	token := refreshToken(c)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized user"})
	}

	access, err := h.authService.RefreshToken(c.UserContext(), token)
	if errors.Is(err, service.ErrTokenInvalid) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden: Invalid token"})
	}
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"access_token": access})
}

// Logout revokes the refresh token and clears the cookie. A request without
// any token is a no-op.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token := refreshToken(c)
	if token == "" {
		return c.SendStatus(fiber.StatusNoContent)
	}

	if err := h.authService.LogoutUser(c.UserContext(), token); err != nil {
		return writeError(c, err)
	}

	c.ClearCookie(refreshCookie)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Logout successfully"})
}

func (h *AuthHandler) CurrentUser(c *fiber.Ctx) error {
	userID, err := GetUserIDFromClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	user, err := h.authService.GetUserProfile(c.UserContext(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}
