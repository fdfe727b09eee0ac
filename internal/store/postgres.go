package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/treeshoptech/treeshop-app-sub001/internal/db"
	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// factorTable is the target of bulk factor seeding.
const factorTable = "complexity_factors"

var factorColumns = []string{"id", "name", "category", "impact_percentage", "applicable_service_types", "active", "updated_at"}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS complexity_factors (
	id                       TEXT PRIMARY KEY,
	name                     TEXT NOT NULL,
	category                 TEXT NOT NULL,
	impact_percentage        DOUBLE PRECISION NOT NULL,
	applicable_service_types JSONB NOT NULL DEFAULT '[]',
	active                   BOOLEAN NOT NULL DEFAULT true,
	updated_at               TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS jobs (
	id           TEXT PRIMARY KEY,
	service_type TEXT NOT NULL,
	status       TEXT NOT NULL,
	body         JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS service_templates (
	service_type TEXT PRIMARY KEY,
	body         JSONB NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_jobs_completed ON jobs(service_type, status, completed_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertFactors(ctx context.Context, factors []model.ComplexityFactor) (int64, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(factors))
	for _, f := range factors {
		types, err := json.Marshal(serviceTypesOrEmpty(f.ApplicableServiceTypes))
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: marshal service types for %s", f.ID)
		}
		rows = append(rows, []any{f.ID, f.Name, string(f.Category), f.ImpactPercentage, types, f.Active, now})
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        factorTable,
		Columns:      factorColumns,
		ConflictKeys: []string{"id"},
	}, rows)
	return n, eris.Wrap(err, "postgres: upsert factors")
}

func (s *PostgresStore) DeactivateFactor(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE complexity_factors SET active = false, updated_at = now() WHERE id = $1`, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: deactivate factor %s", id)
	}
	if tag.RowsAffected() == 0 {
		return notFound("factor", id)
	}
	return nil
}

func (s *PostgresStore) ListFactors(ctx context.Context) ([]model.ComplexityFactor, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, category, impact_percentage, applicable_service_types, active FROM complexity_factors ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list factors")
	}
	defer rows.Close()

	var out []model.ComplexityFactor
	for rows.Next() {
		var (
			f     model.ComplexityFactor
			cat   string
			types []byte
		)
		if err := rows.Scan(&f.ID, &f.Name, &cat, &f.ImpactPercentage, &types, &f.Active); err != nil {
			return nil, eris.Wrap(err, "postgres: scan factor")
		}
		f.Category = model.Category(cat)
		if err := json.Unmarshal(types, &f.ApplicableServiceTypes); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal service types for %s", f.ID)
		}
		if len(f.ApplicableServiceTypes) == 0 {
			f.ApplicableServiceTypes = nil
		}
		out = append(out, f)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate factors")
}

func (s *PostgresStore) CreateJob(ctx context.Context, job *model.Job) error {
	if err := validateJob(job); err != nil {
		return err
	}
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if job.Status == "" {
		job.Status = model.JobStatusEstimate
	}

	body, err := json.Marshal(job)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal job")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO jobs (id, service_type, status, body, created_at, completed_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		job.ID, string(job.ServiceType), string(job.Status), body, job.CreatedAt, job.CompletedAt,
	)
	return eris.Wrapf(err, "postgres: insert job %s", job.ID)
}

type pgQueryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *PostgresStore) GetJob(ctx context.Context, id string) (*model.Job, error) {
	return getPostgresJob(ctx, s.pool, `SELECT body FROM jobs WHERE id = $1`, id)
}

func getPostgresJob(ctx context.Context, q pgQueryer, query, id string) (*model.Job, error) {
	var body []byte
	if err := q.QueryRow(ctx, query, id).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("job", id)
		}
		return nil, eris.Wrapf(err, "postgres: get job %s", id)
	}
	var job model.Job
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal job %s", id)
	}
	return &job, nil
}

func (s *PostgresStore) CompleteJob(ctx context.Context, id string, actual model.JobActual, record model.JobPerformanceRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin complete job")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	job, err := getPostgresJob(ctx, tx, `SELECT body FROM jobs WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return err
	}
	if err := markCompleted(job, actual, record); err != nil {
		return err
	}
	body, err := json.Marshal(job)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal job")
	}

	tag, err := tx.Exec(ctx,
		`UPDATE jobs SET status = $1, body = $2, completed_at = $3 WHERE id = $4`,
		string(job.Status), body, job.CompletedAt, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete job %s", id)
	}
	if tag.RowsAffected() == 0 {
		return notFound("job", id)
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit complete job")
}

func (s *PostgresStore) ListCompletedJobs(ctx context.Context, filter JobFilter) ([]model.HistoricalJob, error) {
	var since, until *time.Time
	if !filter.Since.IsZero() {
		since = &filter.Since
	}
	if !filter.Until.IsZero() {
		until = &filter.Until
	}
	var limit *int
	if filter.Limit > 0 {
		limit = &filter.Limit
	}

	rows, err := s.pool.Query(ctx, `
		SELECT body FROM jobs
		WHERE status = $1
		  AND ($2 = '' OR service_type = $2)
		  AND ($3::timestamptz IS NULL OR completed_at >= $3)
		  AND ($4::timestamptz IS NULL OR completed_at <= $4)
		ORDER BY completed_at, id
		LIMIT $5`,
		string(model.JobStatusCompleted), string(filter.ServiceType), since, until, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list completed jobs")
	}
	defer rows.Close()

	var out []model.HistoricalJob
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, eris.Wrap(err, "postgres: scan job")
		}
		var job model.Job
		if err := json.Unmarshal(body, &job); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal job")
		}
		if h, ok := job.Historical(); ok {
			out = append(out, h)
		}
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate jobs")
}

func (s *PostgresStore) GetTemplate(ctx context.Context, serviceType model.ServiceType) (*model.ServiceTemplate, error) {
	return getPostgresTemplate(ctx, s.pool, `SELECT body FROM service_templates WHERE service_type = $1`, serviceType)
}

func getPostgresTemplate(ctx context.Context, q pgQueryer, query string, serviceType model.ServiceType) (*model.ServiceTemplate, error) {
	var body []byte
	if err := q.QueryRow(ctx, query, string(serviceType)).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("template", string(serviceType))
		}
		return nil, eris.Wrapf(err, "postgres: get template %s", serviceType)
	}
	var t model.ServiceTemplate
	if err := json.Unmarshal(body, &t); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal template %s", serviceType)
	}
	return &t, nil
}

func (s *PostgresStore) ListTemplates(ctx context.Context) ([]model.ServiceTemplate, error) {
	rows, err := s.pool.Query(ctx, `SELECT body FROM service_templates ORDER BY service_type`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list templates")
	}
	defer rows.Close()

	var out []model.ServiceTemplate
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, eris.Wrap(err, "postgres: scan template")
		}
		var t model.ServiceTemplate
		if err := json.Unmarshal(body, &t); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal template")
		}
		out = append(out, t)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate templates")
}

const upsertTemplateSQL = `
	INSERT INTO service_templates (service_type, body, updated_at) VALUES ($1, $2, now())
	ON CONFLICT (service_type) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`

func (s *PostgresStore) UpsertTemplate(ctx context.Context, t model.ServiceTemplate) error {
	if !t.ServiceType.Valid() {
		return eris.Wrapf(model.ErrInvalidConfiguration, "store: unknown service type %q", t.ServiceType)
	}
	body, err := json.Marshal(t)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal template")
	}
	_, err = s.pool.Exec(ctx, upsertTemplateSQL, string(t.ServiceType), body)
	return eris.Wrapf(err, "postgres: upsert template %s", t.ServiceType)
}

func (s *PostgresStore) ApplyCalibration(ctx context.Context, result model.RecalibrationResult, defaultTargetMargin float64) (model.ServiceTemplate, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.ServiceTemplate{}, eris.Wrap(err, "postgres: begin apply calibration")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	existing, err := getPostgresTemplate(ctx, tx,
		`SELECT body FROM service_templates WHERE service_type = $1 FOR UPDATE`, result.ServiceType)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.ServiceTemplate{}, err
	}

	updated := calibrated(existing, result, defaultTargetMargin)
	body, err := json.Marshal(updated)
	if err != nil {
		return model.ServiceTemplate{}, eris.Wrap(err, "postgres: marshal template")
	}
	if _, err := tx.Exec(ctx, upsertTemplateSQL, string(updated.ServiceType), body); err != nil {
		return model.ServiceTemplate{}, eris.Wrapf(err, "postgres: write template %s", updated.ServiceType)
	}
	if err := tx.Commit(ctx); err != nil {
		return model.ServiceTemplate{}, eris.Wrap(err, "postgres: commit apply calibration")
	}
	return updated, nil
}
