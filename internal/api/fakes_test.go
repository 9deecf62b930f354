package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sanobery/recipe-be/internal/config"
	"github.com/sanobery/recipe-be/internal/jwt"
	"github.com/sanobery/recipe-be/internal/model"
	"github.com/sanobery/recipe-be/internal/service"
)

type fakeQueries struct {
	list       *service.RecipeList
	detail     *model.RecipeDetail
	err        error
	lastPage   service.Page
	lastBucket int
	lastRange  string
	lastSearch string
	lastOwner  uuid.UUID
}

func (f *fakeQueries) result() (*service.RecipeList, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.list == nil {
		return &service.RecipeList{Items: []model.RecipeSummary{}}, nil
	}
	return f.list, nil
}

func (f *fakeQueries) ListRecipes(_ context.Context, page service.Page) (*service.RecipeList, error) {
	f.lastPage = page
	return f.result()
}

func (f *fakeQueries) GetByID(_ context.Context, id uuid.UUID) (*model.RecipeDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.detail, nil
}

func (f *fakeQueries) FilterByRating(_ context.Context, bucket int) (*service.RecipeList, error) {
	f.lastBucket = bucket
	return f.result()
}

func (f *fakeQueries) FilterByPreparationTime(_ context.Context, raw string) (*service.RecipeList, error) {
	f.lastRange = raw
	return f.result()
}

func (f *fakeQueries) SearchByIngredient(_ context.Context, text string, page service.Page) (*service.RecipeList, error) {
	f.lastSearch = text
	f.lastPage = page
	return f.result()
}

func (f *fakeQueries) ListByOwner(_ context.Context, ownerID uuid.UUID) (*service.RecipeList, error) {
	f.lastOwner = ownerID
	return f.result()
}

type fakeRecipes struct {
	created    service.CreateRecipeInput
	updated    service.UpdateRecipeInput
	updatedID  uuid.UUID
	image      []byte
	deletedFor uuid.UUID
	err        error
}

func (f *fakeRecipes) Create(_ context.Context, in service.CreateRecipeInput, image []byte) (*service.CreatedRecipe, error) {
	f.created = in
	f.image = image
	if f.err != nil {
		return nil, f.err
	}
	return &service.CreatedRecipe{
		Recipe: model.RecipeSummary{Recipe: model.Recipe{ID: uuid.New(), Title: in.Title}},
		Total:  7,
	}, nil
}

func (f *fakeRecipes) Update(_ context.Context, id uuid.UUID, in service.UpdateRecipeInput, image []byte) (*model.RecipeSummary, error) {
	f.updatedID = id
	f.updated = in
	f.image = image
	if f.err != nil {
		return nil, f.err
	}
	return &model.RecipeSummary{Recipe: model.Recipe{ID: id}}, nil
}

func (f *fakeRecipes) DeleteByOwner(_ context.Context, ownerID uuid.UUID) (*service.DeleteAck, error) {
	f.deletedFor = ownerID
	if f.err != nil {
		return nil, f.err
	}
	return &service.DeleteAck{RecipeID: uuid.New(), Title: "Pancakes"}, nil
}

type fakeSubmissions struct {
	got    service.SubmissionInput
	result *service.SubmissionResult
	err    error
}

func (f *fakeSubmissions) Submit(_ context.Context, in service.SubmissionInput) (*service.SubmissionResult, error) {
	f.got = in
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &service.SubmissionResult{RatingAdded: in.Score != nil, CommentAdded: in.Comment != nil}, nil
}

type fakeAuth struct {
	user *model.User
	err  error
}

func (f *fakeAuth) RegisterUser(_ context.Context, username, email, password string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.User{ID: uuid.New(), Username: username, Email: email}, nil
}

func (f *fakeAuth) LoginUser(context.Context, string, string) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	return "access", "refresh", nil
}

func (f *fakeAuth) GetUserProfile(_ context.Context, userID uuid.UUID) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeAuth) RefreshToken(context.Context, string) (string, error) {
	return "access", f.err
}

func (f *fakeAuth) LogoutUser(context.Context, string) error {
	return f.err
}

type testServer struct {
	app         *fiber.App
	tokens      *jwt.Manager
	queries     *fakeQueries
	recipes     *fakeRecipes
	submissions *fakeSubmissions
	auth        *fakeAuth
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			ServiceName:    "recipe-be-test",
			LoginLimit:     3,
			LoginWindow:    time.Minute,
			BodyLimitBytes: 4 << 20,
		},
		Storage: config.StorageConfig{Driver: "s3"},
	}

	s := &testServer{
		tokens:      jwt.NewManager("access-secret", "refresh-secret", time.Minute, time.Hour),
		queries:     &fakeQueries{},
		recipes:     &fakeRecipes{},
		submissions: &fakeSubmissions{},
		auth:        &fakeAuth{},
	}

	s.app = NewApp(cfg.Server)
	SetupRoutes(s.app, cfg, Handlers{
		Auth:        NewAuthHandler(s.auth, time.Hour),
		Recipe:      NewRecipeHandler(s.queries, s.recipes),
		Submission:  NewSubmissionHandler(s.submissions),
		AccessCheck: s.tokens,
	})
	return s
}

func (s *testServer) bearer(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := s.tokens.GenerateAccessToken(&model.User{ID: userID, Email: "cook@example.com"})
	require.NoError(t, err)
	return "Bearer " + token
}

func (s *testServer) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}
