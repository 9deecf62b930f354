package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/sanobery/recipe-be/internal/aggregation"
	"github.com/sanobery/recipe-be/internal/api"
	"github.com/sanobery/recipe-be/internal/cache"
	"github.com/sanobery/recipe-be/internal/config"
	"github.com/sanobery/recipe-be/internal/events"
	"github.com/sanobery/recipe-be/internal/jwt"
	"github.com/sanobery/recipe-be/internal/repository"
	"github.com/sanobery/recipe-be/internal/service"
	"github.com/sanobery/recipe-be/internal/storage"
	"github.com/sanobery/recipe-be/internal/tracing"
	_ "github.com/sanobery/recipe-be/migrations"
)

func main() {
	if err := godotenv.Load(".env.dev"); err != nil {
		fmt.Println("No .env.dev file found, reading configuration from the environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	api.SetupGlobalHandler(cfg.Server.ServiceName, cfg.Server.LogLevel)

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		handleMigrations(cfg.Database)
		return
	}

	ctx := context.Background()

	shutdownTracer, err := tracing.InitTracerProvider(ctx, tracing.Settings{
		ServiceName: cfg.Server.ServiceName,
		Endpoint:    cfg.Tracing.Endpoint,
		Enabled:     cfg.Tracing.Enabled,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			slog.Error("Error shutting down tracer provider", "error", err)
		}
	}()

	db, err := sqlx.Connect("pgx", cfg.Database.URL())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	slog.Info("Successfully connected to the database.")

	detailCache, err := cache.NewDetailCache(cfg.Cache.Size, cfg.Cache.TTL)
	if err != nil {
		log.Fatalf("Failed to create recipe cache: %v", err)
	}

	publisher, closeNATS := connectEvents(cfg.NATS, detailCache)
	defer closeNATS()

	images, err := newImages(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize image storage: %v", err)
	}

	tokens := jwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	userRepo := repository.NewPostgresUserRepository(db)
	recipeRepo := repository.NewPostgresRecipeRepository(db)
	ratingRepo := repository.NewPostgresRatingRepository(db)
	commentRepo := repository.NewPostgresCommentRepository(db)
	tokenRepo := repository.NewPostgresTokenRepository(db)

	engine := aggregation.NewEngine(ratingRepo)

	authService := service.NewAuthService(userRepo, tokenRepo, tokens)
	queryService := service.NewRecipeQueryService(recipeRepo, ratingRepo, commentRepo, engine, detailCache)
	recipeService := service.NewRecipeService(userRepo, recipeRepo, images, detailCache, publisher)
	submissionService := service.NewSubmissionService(userRepo, recipeRepo, ratingRepo, commentRepo, detailCache, publisher)

	app := api.NewApp(cfg.Server)
	api.SetupRoutes(app, cfg, api.Handlers{
		Auth:        api.NewAuthHandler(authService, cfg.JWT.RefreshTTL),
		Recipe:      api.NewRecipeHandler(queryService, recipeService),
		Submission:  api.NewSubmissionHandler(submissionService),
		AccessCheck: tokens,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Shutting down server")
		if err := app.Shutdown(); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	}()

	slog.Info("Listening", "service", cfg.Server.ServiceName, "port", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

// connectEvents falls back to a no-op publisher when NATS is disabled or
// unreachable; the service keeps running without cross-replica eviction.
func connectEvents(cfg config.NATSConfig, detailCache *cache.DetailCache) (events.EventPublisher, func()) {
	if !cfg.Enabled {
		return events.NoopPublisher{}, func() {}
	}

	nc, err := nats.Connect(cfg.URL, nats.Name("recipe-be"), nats.MaxReconnects(-1))
	if err != nil {
		slog.Warn("Failed to connect to NATS, events disabled", "url", cfg.URL, "error", err)
		return events.NoopPublisher{}, func() {}
	}
	slog.Info("Successfully connected to NATS.", "url", cfg.URL)

	subscriber, err := events.NewCacheSubscriber(nc, detailCache)
	if err != nil {
		slog.Warn("Failed to start cache subscriber", "error", err)
	}

	return events.NewNatsPublisher(nc), func() {
		if subscriber != nil {
			subscriber.Close()
		}
		nc.Drain()
	}
}

func newImages(ctx context.Context, cfg config.StorageConfig) (*storage.Images, error) {
	if cfg.Driver == "s3" {
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Endpoint:     cfg.S3Endpoint,
			Region:       cfg.S3Region,
			Bucket:       cfg.S3Bucket,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			UsePathStyle: cfg.S3PathStyle,
			PublicURL:    cfg.S3PublicURL,
		})
		if err != nil {
			return nil, err
		}
		return storage.NewImages(store), nil
	}

	store, err := storage.NewLocalStore(cfg.UploadDir, cfg.URLPrefix)
	if err != nil {
		return nil, err
	}
	return storage.NewImages(store), nil
}

func handleMigrations(cfg config.DatabaseConfig) {
	slog.Info("Running database migrations...")

	db, err := sql.Open("pgx", cfg.URL())
	if err != nil {
		log.Fatalf("failed to connect to database for migration: %v", err)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("failed to set goose dialect: %v", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		log.Fatalf("goose: failed to run migrations: %v", err)
	}

	slog.Info("Migrations applied successfully!")
}
