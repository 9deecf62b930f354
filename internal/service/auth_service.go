package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sanobery/recipe-be/internal/jwt"
	"github.com/sanobery/recipe-be/internal/model"
	"github.com/sanobery/recipe-be/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenInvalid       = errors.New("token is invalid or expired")
	ErrEmailTaken         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
)

// WeakPasswordError lists every password rule the candidate breaks.
type WeakPasswordError struct {
	Problems []string
}

func (e *WeakPasswordError) Error() string {
	return strings.Join(e.Problems, " ")
}

const passwordSpecials = "@$!%*?&"

// CheckPassword applies the sign-up policy: 8 to 16 characters with upper and
// lower case letters, a digit and one of @$!%*?&.
func CheckPassword(password string) error {
	var problems []string

	if n := len([]rune(password)); n < 8 || n > 16 {
		problems = append(problems, "Password must be between 8 to 16 characters long.")
	}
	if !strings.ContainsFunc(password, unicode.IsUpper) {
		problems = append(problems, "Password must include at least one uppercase letter.")
	}
	if !strings.ContainsFunc(password, unicode.IsLower) {
		problems = append(problems, "Password must include at least one lowercase letter.")
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		problems = append(problems, "Password must include at least one number.")
	}
	if !strings.ContainsAny(password, passwordSpecials) {
		problems = append(problems, "Password must include at least one special character (@$!%*?&).")
	}

	if len(problems) > 0 {
		return &WeakPasswordError{Problems: problems}
	}
	return nil
}

type AuthService interface {
	RegisterUser(ctx context.Context, username, email, password string) (*model.User, error)
	LoginUser(ctx context.Context, email, password string) (accessToken string, refreshToken string, err error)
	GetUserProfile(ctx context.Context, userID uuid.UUID) (*model.User, error)
	RefreshToken(ctx context.Context, refreshTokenString string) (newAccessToken string, err error)
	LogoutUser(ctx context.Context, refreshTokenString string) error
}

type authService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	tokens    *jwt.Manager
}

func NewAuthService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository, tokens *jwt.Manager) AuthService {
	return &authService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		tokens:    tokens,
	}
}

func (s *authService) RegisterUser(ctx context.Context, username, email, password string) (*model.User, error) {
	if err := CheckPassword(password); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hashedPassword),
	}

	newID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	user.ID = newID

	return user, nil
}

func (s *authService) LoginUser(ctx context.Context, email, password string) (string, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", "", err
	}
	if user == nil {
		return "", "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", "", ErrInvalidCredentials
	}

	if n, err := s.tokenRepo.PruneExpired(ctx, user.ID); err != nil {
		slog.WarnContext(ctx, "Failed to prune expired refresh tokens", "user_id", user.ID, "error", err)
	} else if n > 0 {
		slog.DebugContext(ctx, "Pruned expired refresh tokens", "user_id", user.ID, "count", n)
	}

	accessToken, refreshToken, err := s.tokens.GenerateTokens(user)
	if err != nil {
		return "", "", err
	}

	refreshTokenModel := &repository.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(refreshToken),
		ExpiresAt: time.Now().Add(s.tokens.RefreshTTL()),
	}

	if err := s.tokenRepo.Create(ctx, refreshTokenModel); err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func (s *authService) GetUserProfile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshTokenString string) (string, error) {
	claims, err := s.tokens.ValidateRefresh(refreshTokenString)
	if err != nil {
		return "", ErrTokenInvalid
	}

	if _, err := s.tokenRepo.FindByTokenHash(ctx, hashToken(refreshTokenString)); err != nil {
		return "", ErrTokenInvalid
	}

	userID, err := jwt.SubjectID(claims)
	if err != nil {
		return "", ErrTokenInvalid
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil || user == nil {
		return "", ErrTokenInvalid
	}

	return s.tokens.GenerateAccessToken(user)
}

func (s *authService) LogoutUser(ctx context.Context, refreshTokenString string) error {
	return s.tokenRepo.Delete(ctx, hashToken(refreshTokenString))
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
