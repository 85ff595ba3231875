package backend_postgres_migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upFeatureCategoryIndex, downFeatureCategoryIndex)
}

// Category and component filters compare case-insensitively.
func upFeatureCategoryIndex(tx *sql.Tx) error {
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_feature_category_lower ON feature(LOWER(category));`,
		`CREATE INDEX IF NOT EXISTS idx_feature_component_lower ON feature(LOWER(component));`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func downFeatureCategoryIndex(tx *sql.Tx) error {
	statements := []string{
		`DROP INDEX IF EXISTS idx_feature_category_lower;`,
		`DROP INDEX IF EXISTS idx_feature_component_lower;`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
