package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// Owner is the public projection of a user embedded in recipe listings.
type Owner struct {
	ID       uuid.UUID `db:"owner_id" json:"_id"`
	Username string    `db:"owner_username" json:"username"`
}
