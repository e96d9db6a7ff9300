package chartrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/astrochart/internal/domain/chart"
)

const schema = `
CREATE TABLE IF NOT EXISTS charts (
	id           UUID PRIMARY KEY,
	file_name    TEXT NOT NULL,
	image_url    TEXT NOT NULL,
	store_id     TEXT NOT NULL,
	store_key    TEXT NOT NULL,
	subject_name TEXT NOT NULL,
	chart_type   TEXT NOT NULL,
	ascendant    TEXT NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL,
	payload      JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS charts_generated_at_idx ON charts (generated_at DESC);
`

// PostgresRepository implements chart.Repository using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the charts table when it is missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}

// Save inserts or replaces a chart record.
func (r *PostgresRepository) Save(ctx context.Context, meta chart.ChartMetadata) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode chart %s: %w", meta.ChartID, err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO charts (id, file_name, image_url, store_id, store_key, subject_name, chart_type, ascendant, generated_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			image_url = EXCLUDED.image_url,
			store_id = EXCLUDED.store_id,
			store_key = EXCLUDED.store_key,
			payload = EXCLUDED.payload
	`, meta.ChartID, meta.FileName, meta.ImageURL, meta.StoreID, meta.StoreKey, meta.SubjectName,
		string(meta.ChartType), string(meta.Ascendant), meta.GeneratedAt, payload)
	return err
}

// Get fetches one chart by id.
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (chart.ChartMetadata, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT store_key, payload
		FROM charts
		WHERE id = $1
	`, id)
	meta, err := scanChartRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return chart.ChartMetadata{}, false, nil
	}
	if err != nil {
		return chart.ChartMetadata{}, false, err
	}
	return meta, true, nil
}

// List returns the most recent charts.
func (r *PostgresRepository) List(ctx context.Context, limit int) ([]chart.ChartMetadata, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT store_key, payload
		FROM charts
		ORDER BY generated_at DESC, created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]chart.ChartMetadata, 0, limit)
	for rows.Next() {
		meta, err := scanChartRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	return out, rows.Err()
}

// Ping checks the pool can reach the database.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.pool.Ping(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChartRecord(row rowScanner) (chart.ChartMetadata, error) {
	var (
		storeKey string
		payload  []byte
	)
	if err := row.Scan(&storeKey, &payload); err != nil {
		return chart.ChartMetadata{}, err
	}
	var meta chart.ChartMetadata
	if err := json.Unmarshal(payload, &meta); err != nil {
		return chart.ChartMetadata{}, fmt.Errorf("decode chart payload: %w", err)
	}
	meta.StoreKey = storeKey
	return meta, nil
}

var _ chart.Repository = (*PostgresRepository)(nil)
