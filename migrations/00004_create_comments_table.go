package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateCommentsTable, downCreateCommentsTable)
}

func upCreateCommentsTable(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE IF NOT EXISTS comments (
	  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	  recipe_id UUID NOT NULL,
	  user_id UUID NOT NULL REFERENCES users(id),
	  comment TEXT,
	  created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_comments_recipe_id ON comments(recipe_id);
	`

	_, err := tx.ExecContext(ctx, query)
	return err
}

func downCreateCommentsTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS comments;`)
	return err
}
