package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateRecipesTable, downCreateRecipesTable)
}

func upCreateRecipesTable(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE recipes (
	  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	  owner_id UUID NOT NULL REFERENCES users(id),
	  title TEXT NOT NULL CHECK (title <> ''),
	  ingredients JSONB NOT NULL,
	  steps JSONB NOT NULL,
	  image TEXT NOT NULL DEFAULT '',
	  preparation_time INT NOT NULL CHECK (preparation_time >= 0),
	  created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_recipes_owner_id ON recipes(owner_id);
	CREATE INDEX IF NOT EXISTS idx_recipes_created_at ON recipes(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_recipes_preparation_time ON recipes(preparation_time);
	`

	_, err := tx.ExecContext(ctx, query)
	return err
}

func downCreateRecipesTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS recipes;`)
	return err
}
