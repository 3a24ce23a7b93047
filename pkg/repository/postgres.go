package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/placedex/pkg/model"
)

// Postgres implements Repository on a pgx pool. The single-statement
// ON CONFLICT upsert keeps per-record writes atomic without explicit
// transactions.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres opens a pool for the given DSN and bootstraps the schema.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse database config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, goerr.Wrap(err, "failed to ping database")
	}

	repo := &Postgres{pool: pool}
	if err := repo.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return repo, nil
}

func (r *Postgres) ensureSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS businesses (
  id              TEXT PRIMARY KEY,
  name            TEXT NOT NULL,
  rating          DOUBLE PRECISION NOT NULL DEFAULT 0,
  review_count    INTEGER NOT NULL DEFAULT 0,
  address         TEXT NOT NULL DEFAULT '',
  lat             DOUBLE PRECISION NOT NULL DEFAULT 0,
  lng             DOUBLE PRECISION NOT NULL DEFAULT 0,
  categories      TEXT[] NOT NULL DEFAULT '{}',
  phone           TEXT NOT NULL DEFAULT '',
  website         TEXT NOT NULL DEFAULT '',
  business_status TEXT NOT NULL DEFAULT '',
  updated_at      TIMESTAMPTZ NOT NULL
);`
	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return goerr.Wrap(err, "failed to create businesses table")
	}
	return nil
}

func (r *Postgres) GetBusiness(ctx context.Context, id model.PlaceID) (*model.BusinessRecord, error) {
	const query = `
SELECT id, name, rating, review_count, address, lat, lng, categories,
       phone, website, business_status, updated_at
FROM businesses WHERE id = $1`

	var rec model.BusinessRecord
	err := r.pool.QueryRow(ctx, query, string(id)).Scan(
		&rec.ID,
		&rec.Name,
		&rec.Rating,
		&rec.ReviewCount,
		&rec.Address,
		&rec.Location.Latitude,
		&rec.Location.Longitude,
		&rec.Categories,
		&rec.Phone,
		&rec.Website,
		&rec.BusinessStatus,
		&rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get business",
			goerr.T(model.ErrTagInternal), goerr.V("place_id", id))
	}

	return &rec, nil
}

func (r *Postgres) PutBusiness(ctx context.Context, rec *model.BusinessRecord) (*model.BusinessRecord, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	const query = `
INSERT INTO businesses (id, name, rating, review_count, address, lat, lng,
                        categories, phone, website, business_status, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id)
DO UPDATE SET
  name            = EXCLUDED.name,
  rating          = EXCLUDED.rating,
  review_count    = EXCLUDED.review_count,
  address         = EXCLUDED.address,
  lat             = EXCLUDED.lat,
  lng             = EXCLUDED.lng,
  categories      = EXCLUDED.categories,
  phone           = EXCLUDED.phone,
  website         = EXCLUDED.website,
  business_status = EXCLUDED.business_status,
  updated_at      = EXCLUDED.updated_at;
`
	_, err := r.pool.Exec(ctx, query,
		string(rec.ID),
		rec.Name,
		rec.Rating,
		rec.ReviewCount,
		rec.Address,
		rec.Location.Latitude,
		rec.Location.Longitude,
		rec.Categories,
		rec.Phone,
		rec.Website,
		rec.BusinessStatus,
		rec.UpdatedAt.UTC(),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to upsert business",
			goerr.T(model.ErrTagInternal), goerr.V("place_id", rec.ID))
	}

	return rec, nil
}

func (r *Postgres) ListBusinesses(ctx context.Context, offset, limit int) ([]*model.BusinessRecord, error) {
	const query = `
SELECT id, name, rating, review_count, address, lat, lng, categories,
       phone, website, business_status, updated_at
FROM businesses ORDER BY updated_at DESC OFFSET $1 LIMIT $2`

	rows, err := r.pool.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list businesses", goerr.T(model.ErrTagInternal))
	}
	defer rows.Close()

	var records []*model.BusinessRecord
	for rows.Next() {
		var rec model.BusinessRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Name,
			&rec.Rating,
			&rec.ReviewCount,
			&rec.Address,
			&rec.Location.Latitude,
			&rec.Location.Longitude,
			&rec.Categories,
			&rec.Phone,
			&rec.Website,
			&rec.BusinessStatus,
			&rec.UpdatedAt,
		); err != nil {
			return nil, goerr.Wrap(err, "failed to scan business row", goerr.T(model.ErrTagInternal))
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate business rows", goerr.T(model.ErrTagInternal))
	}

	return records, nil
}

func (r *Postgres) Close() error {
	r.pool.Close()
	return nil
}
