package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sanobery/recipe-be/internal/jwt"
)

var (
	httpRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of http request",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status_code"},
	)

	recipesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recipes_created_total",
		Help: "Recipes published",
	})
	ratingsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recipe_ratings_submitted_total",
		Help: "Ratings stored",
	})
	commentsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recipe_comments_submitted_total",
		Help: "Comments stored",
	})
)

const userClaimsKey = "userClaims"

// AccessValidator checks a bearer access token and returns its claims.
type AccessValidator interface {
	ValidateAccess(tokenString string) (jwtv5.MapClaims, error)
}

// AuthMiddleware rejects requests without a well-formed bearer header with
// 401 and requests carrying an invalid or expired token with 403.
func AuthMiddleware(tokens AccessValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization header"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid authorization header format"})
		}

		claims, err := tokens.ValidateAccess(parts[1])
		if err != nil {
			if errors.Is(err, jwtv5.ErrTokenExpired) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Token has expired"})
			}
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Invalid token"})
		}

		if _, err := jwt.SubjectID(claims); err != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Invalid user ID format in token"})
		}

		c.Locals(userClaimsKey, claims)

		return c.Next()
	}
}

func GetUserIDFromClaims(c *fiber.Ctx) (uuid.UUID, error) {
	claims, ok := c.Locals(userClaimsKey).(jwtv5.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("claims not found in context")
	}

	userID, err := jwt.SubjectID(claims)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid userID format in claims: %w", err)
	}

	return userID, nil
}

func PrometheusMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start).Seconds()

		statusCode := c.Response().StatusCode()
		if err != nil {
			statusCode = statusFromError(err)
		}

		method := c.Method()
		path := c.Route().Path
		statusStr := fmt.Sprintf("%d", statusCode)

		httpRequestTotal.WithLabelValues(method, path, statusStr).Inc()
		httpRequestDuration.WithLabelValues(method, path, statusStr).Observe(duration)

		return err
	}
}

func statusFromError(err error) int {
	var e *fiber.Error
	if errors.As(err, &e) {
		return e.Code
	}
	return fiber.StatusInternalServerError
}
