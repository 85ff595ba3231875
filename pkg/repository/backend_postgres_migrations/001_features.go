package backend_postgres_migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upFeatures, downFeatures)
}

func upFeatures(tx *sql.Tx) error {
	createStatements := []string{
		`CREATE TABLE IF NOT EXISTS feature (
			id BIGINT PRIMARY KEY,
			name VARCHAR(512) NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			category VARCHAR(255) NOT NULL DEFAULT '',
			component VARCHAR(255) NOT NULL DEFAULT '',
			owners TEXT[] NOT NULL DEFAULT '{}',
			milestone INT NOT NULL DEFAULT 0,
			status VARCHAR(255) NOT NULL DEFAULT '',
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);`,

		`CREATE INDEX IF NOT EXISTS idx_feature_milestone ON feature(milestone);`,
		`CREATE INDEX IF NOT EXISTS idx_feature_status ON feature(status);`,
	}

	for _, stmt := range createStatements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func downFeatures(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS feature;`)
	return err
}
