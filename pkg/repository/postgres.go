package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"

	"github.com/chromedash/chromedash/pkg/types"

	// Import migrations to register them with goose
	_ "github.com/chromedash/chromedash/pkg/repository/backend_postgres_migrations"
)

// FeaturePostgresRepository implements FeatureRepository using Postgres
type FeaturePostgresRepository struct {
	db     *sql.DB
	config types.PostgresConfig
}

// NewFeaturePostgresRepository opens and pings a Postgres connection pool
func NewFeaturePostgresRepository(cfg types.PostgresConfig) (*FeaturePostgresRepository, error) {
	// Apply defaults
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.Database == "" {
		cfg.Database = "chromedash"
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("connected to postgres")

	return &FeaturePostgresRepository{db: db, config: cfg}, nil
}

// DB returns the underlying database connection
func (r *FeaturePostgresRepository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *FeaturePostgresRepository) Close() error {
	return r.db.Close()
}

// Ping checks the database connection
func (r *FeaturePostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// RunMigrations runs database migrations using goose
func (r *FeaturePostgresRepository) RunMigrations() error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(r.db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := goose.GetDBVersion(r.db)
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	log.Info().Int64("version", version).Msg("migrations complete")
	return nil
}

const featureColumns = `id, name, summary, category, component, owners, milestone, status, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeature(row rowScanner) (*types.Feature, error) {
	f := &types.Feature{}
	var owners pq.StringArray
	err := row.Scan(
		&f.Id,
		&f.Name,
		&f.Summary,
		&f.Category,
		&f.Component,
		&owners,
		&f.Milestone,
		&f.Status,
		&f.Updated,
	)
	if err != nil {
		return nil, err
	}
	f.Owners = []string(owners)
	return f, nil
}

// ListFeatures returns the whole catalog, newest milestone first
func (r *FeaturePostgresRepository) ListFeatures(ctx context.Context) ([]*types.Feature, error) {
	query := `SELECT ` + featureColumns + ` FROM feature ORDER BY milestone DESC, name ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list features: %w", err)
	}
	defer rows.Close()

	var features []*types.Feature
	for rows.Next() {
		f, err := scanFeature(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feature: %w", err)
		}
		features = append(features, f)
	}
	return features, rows.Err()
}

// GetFeature retrieves a feature by id
func (r *FeaturePostgresRepository) GetFeature(ctx context.Context, id int64) (*types.Feature, error) {
	query := `SELECT ` + featureColumns + ` FROM feature WHERE id = $1`

	f, err := scanFeature(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &types.ErrFeatureNotFound{Id: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feature: %w", err)
	}
	return f, nil
}

// SaveFeature inserts or replaces a feature
func (r *FeaturePostgresRepository) SaveFeature(ctx context.Context, f *types.Feature) error {
	query := `
		INSERT INTO feature (id, name, summary, category, component, owners, milestone, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, CURRENT_TIMESTAMP))
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			summary = EXCLUDED.summary,
			category = EXCLUDED.category,
			component = EXCLUDED.component,
			owners = EXCLUDED.owners,
			milestone = EXCLUDED.milestone,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`

	var updated any
	if !f.Updated.IsZero() {
		updated = f.Updated
	}

	_, err := r.db.ExecContext(ctx, query,
		f.Id, f.Name, f.Summary, f.Category, f.Component,
		pq.Array(f.Owners), f.Milestone, f.Status, updated,
	)
	if err != nil {
		return fmt.Errorf("failed to save feature: %w", err)
	}
	return nil
}

// DeleteFeature removes a feature by id
func (r *FeaturePostgresRepository) DeleteFeature(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM feature WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete feature: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &types.ErrFeatureNotFound{Id: id}
	}
	return nil
}

// ListVersions counts features per milestone and status
func (r *FeaturePostgresRepository) ListVersions(ctx context.Context) ([]types.Version, error) {
	var versions []types.Version

	rows, err := r.db.QueryContext(ctx, `
		SELECT milestone, COUNT(*) FROM feature
		WHERE milestone > 0
		GROUP BY milestone
		ORDER BY milestone DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	for rows.Next() {
		var m, n int
		if err := rows.Scan(&m, &n); err != nil {
			rows.Close()
			return nil, err
		}
		versions = append(versions, types.MilestoneVersion(m, n))
	}
	rows.Close()

	rows, err = r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM feature
		WHERE status <> ''
		GROUP BY status
		ORDER BY status ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s string
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		versions = append(versions, types.Version{Kind: types.VersionKindStatus, Value: s, Count: n})
	}

	return versions, rows.Err()
}
