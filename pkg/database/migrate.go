package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS issues (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		email VARCHAR(120) NOT NULL,
		category VARCHAR(50) NOT NULL CHECK (category IN ('roads','potholes','cleanliness','street_lights','water_supply','drainage','waste_management','traffic','other')),
		priority VARCHAR(20) NOT NULL DEFAULT 'medium' CHECK (priority IN ('low','medium','high','urgent')),
		description TEXT NOT NULL,
		location VARCHAR(200) NOT NULL,
		latitude DOUBLE PRECISION NULL,
		longitude DOUBLE PRECISION NULL,
		photo_filename VARCHAR(255) NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'submitted' CHECK (status IN ('submitted','in_progress','resolved','rejected')),
		admin_notes TEXT NULL,
		assigned_to VARCHAR(100) NULL,
		authority_notified BOOLEAN NOT NULL DEFAULT FALSE,
		notification_sent_at TIMESTAMPTZ NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_issues_status ON issues (status)`,
	`CREATE INDEX IF NOT EXISTS idx_issues_category ON issues (category)`,
	`CREATE INDEX IF NOT EXISTS idx_issues_priority ON issues (priority)`,
	`CREATE INDEX IF NOT EXISTS idx_issues_created_at ON issues (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS admins (
		id BIGSERIAL PRIMARY KEY,
		username VARCHAR(64) NOT NULL UNIQUE,
		email VARCHAR(120) NOT NULL UNIQUE,
		password_hash VARCHAR(256) NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'admin',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_login TIMESTAMPTZ NULL
	)`,
}

// Migrate applies the idempotent schema. Safe to run on every start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
