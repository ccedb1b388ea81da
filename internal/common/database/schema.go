// internal/common/database/schema.go
package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements create the tables the stores read and write. Every
// statement is idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id VARCHAR(255) PRIMARY KEY,
		owner_id VARCHAR(255) NOT NULL,
		name VARCHAR(255) NOT NULL,
		market TEXT,
		product TEXT,
		constraints TEXT,
		risk_posture VARCHAR(100),
		notify_email VARCHAR(255),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS competitors (
		id VARCHAR(255) PRIMARY KEY,
		project_id VARCHAR(255) NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		url TEXT,
		evidence_text TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_competitors_project ON competitors (project_id)`,
	`CREATE TABLE IF NOT EXISTS artifacts (
		id UUID PRIMARY KEY,
		project_id VARCHAR(255) NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		run_id VARCHAR(255) NOT NULL,
		type VARCHAR(50) NOT NULL,
		schema_version VARCHAR(20) NOT NULL,
		competitor_id VARCHAR(255),
		meta JSONB NOT NULL,
		content JSONB NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_artifacts_project_type ON artifacts (project_id, type, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id SERIAL PRIMARY KEY,
		event_type VARCHAR(100),
		resource_type VARCHAR(100),
		resource_id VARCHAR(255),
		details JSONB,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
}

// EnsureSchema creates any missing tables and indexes.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
