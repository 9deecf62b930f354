package api

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanobery/recipe-be/internal/config"
)

type Handlers struct {
	Auth        *AuthHandler
	Recipe      *RecipeHandler
	Submission  *SubmissionHandler
	AccessCheck AccessValidator
}

func NewApp(cfg config.ServerConfig) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      cfg.ServiceName,
		BodyLimit:    cfg.BodyLimitBytes,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: errorHandler,
	})
}

func SetupRoutes(app *fiber.App, cfg *config.Config, h Handlers) {
	app.Use(otelfiber.Middleware())
	app.Use(PrometheusMiddleware())
	app.Use(RequestLogger())
	app.Use(corsMiddleware(cfg.Server.CORSOrigins))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.Server.ServiceName})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	if cfg.Storage.Driver == "local" {
		app.Static(cfg.Storage.URLPrefix, cfg.Storage.UploadDir)
	}

	app.Post("/users", h.Auth.Register)

	authRoutes := app.Group("/auth")
	authRoutes.Post("/", loginLimiter(cfg.Server), h.Auth.Login)
	authRoutes.Post("/refresh", h.Auth.Refresh)
	authRoutes.Post("/logout", h.Auth.Logout)
	authRoutes.Get("/user", AuthMiddleware(h.AccessCheck), h.Auth.CurrentUser)

	recipeRoutes := app.Group("/recipe")
	recipeRoutes.Get("/", h.Recipe.ListRecipes)
	recipeRoutes.Post("/", h.Recipe.CreateRecipe)
	recipeRoutes.Patch("/", h.Recipe.UpdateRecipe)
	recipeRoutes.Delete("/", h.Recipe.DeleteRecipe)
	recipeRoutes.Post("/rate", AuthMiddleware(h.AccessCheck), h.Submission.Submit)
	recipeRoutes.Post("/comment", AuthMiddleware(h.AccessCheck), h.Submission.Submit)
	recipeRoutes.Get("/filter", h.Recipe.Filter)
	recipeRoutes.Post("/search", h.Recipe.Search)

	// Parameterised routes last so they do not shadow the fixed paths above.
	recipeRoutes.Get("/:id", h.Recipe.GetRecipe)
	recipeRoutes.Post("/:userId", h.Recipe.ListByOwner)
}

func loginLimiter(cfg config.ServerConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.LoginLimit,
		Expiration: cfg.LoginWindow,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			slog.WarnContext(c.UserContext(), "Too many login attempts", "ip", c.IP(), "path", c.Path())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	})
}

// corsMiddleware allows credentials only for an explicit origin list.
func corsMiddleware(origins []string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowCredentials: len(origins) > 0 && !slices.Contains(origins, "*"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
	})
}
