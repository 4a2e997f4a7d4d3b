package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema creates the tables used by the drivers and ratings stores
const Schema = `
CREATE TABLE IF NOT EXISTS drivers (
	id             BIGSERIAL PRIMARY KEY,
	name           TEXT NOT NULL,
	phone          TEXT NOT NULL,
	average_rating NUMERIC(3, 2) NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS driver_ratings (
	id         BIGSERIAL PRIMARY KEY,
	pickup_id  BIGINT NOT NULL,
	driver_id  BIGINT NOT NULL REFERENCES drivers(id),
	user_id    BIGINT NOT NULL,
	rating     SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 5),
	review     TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (pickup_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_driver_ratings_driver_id ON driver_ratings (driver_id);
`

// Migrate applies Schema
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
