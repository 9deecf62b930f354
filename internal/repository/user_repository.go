package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sanobery/recipe-be/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) (uuid.UUID, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type postgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

// Create stores a user and returns the generated id. A taken email yields
// ErrDuplicate.
func (r *postgresUserRepository) Create(ctx context.Context, user *model.User) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3) RETURNING id`,
		user.Username, user.Email, user.PasswordHash,
	).Scan(&id)
	switch {
	case isUniqueViolation(err):
		return uuid.Nil, ErrDuplicate
	case err != nil:
		return uuid.Nil, err
	}
	return id, nil
}

// FindByEmail loads the password hash for login; FindByID never does.
func (r *postgresUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT id, username, email, password_hash, created_at FROM users WHERE email = $1`, email)
}

func (r *postgresUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.getOne(ctx, `SELECT id, username, email, created_at FROM users WHERE id = $1`, id)
}

// getOne returns nil, nil when no row matches.
func (r *postgresUserRepository) getOne(ctx context.Context, query string, arg any) (*model.User, error) {
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
