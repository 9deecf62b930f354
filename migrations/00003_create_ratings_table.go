package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upCreateRatingsTable, downCreateRatingsTable)
}

// recipe_id deliberately has no foreign key: deleting a recipe leaves its
// ratings in place.
func upCreateRatingsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS ratings (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			recipe_id UUID NOT NULL,
			user_id UUID NOT NULL REFERENCES users(id),
			score INT NOT NULL CHECK (score >= 1 AND score <= 5),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
			-- One rating per user per recipe
			UNIQUE (recipe_id, user_id)
		);

		CREATE INDEX IF NOT EXISTS idx_ratings_user_id ON ratings(user_id);
	`)
	return err
}

func downCreateRatingsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS ratings;`)
	return err
}
