package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/treeshoptech/treeshop-app-sub001/internal/model"
)

// Timestamps are stored as fixed-width UTC text so range filters compare
// lexically.
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// Read-then-write transactions need a single writer connection.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS complexity_factors (
	id                       TEXT PRIMARY KEY,
	name                     TEXT NOT NULL,
	category                 TEXT NOT NULL,
	impact_percentage        REAL NOT NULL,
	applicable_service_types TEXT NOT NULL DEFAULT '[]',
	active                   INTEGER NOT NULL DEFAULT 1,
	updated_at               TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS jobs (
	id           TEXT PRIMARY KEY,
	service_type TEXT NOT NULL,
	status       TEXT NOT NULL,
	body         TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	completed_at TEXT
);

CREATE TABLE IF NOT EXISTS service_templates (
	service_type TEXT PRIMARY KEY,
	body         TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_jobs_completed ON jobs(service_type, status, completed_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

var _ Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertFactors(ctx context.Context, factors []model.ComplexityFactor) (int64, error) {
	if len(factors) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert factors")
	}
	defer tx.Rollback() //nolint:errcheck

	now := sqliteTime(time.Now())
	var n int64
	for _, f := range factors {
		types, err := json.Marshal(serviceTypesOrEmpty(f.ApplicableServiceTypes))
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: marshal service types for %s", f.ID)
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO complexity_factors (id, name, category, impact_percentage, applicable_service_types, active, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name,
				category = excluded.category,
				impact_percentage = excluded.impact_percentage,
				applicable_service_types = excluded.applicable_service_types,
				active = excluded.active,
				updated_at = excluded.updated_at`,
			f.ID, f.Name, string(f.Category), f.ImpactPercentage, string(types), f.Active, now,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert factor %s", f.ID)
		}
		affected, _ := res.RowsAffected()
		n += affected
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert factors")
	}
	return n, nil
}

func (s *SQLiteStore) DeactivateFactor(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE complexity_factors SET active = 0, updated_at = ? WHERE id = ?`,
		sqliteTime(time.Now()), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: deactivate factor %s", id)
	}
	return checkRowsAffected(res, "factor", id)
}

func (s *SQLiteStore) ListFactors(ctx context.Context) ([]model.ComplexityFactor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, category, impact_percentage, applicable_service_types, active FROM complexity_factors ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list factors")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.ComplexityFactor
	for rows.Next() {
		var (
			f     model.ComplexityFactor
			cat   string
			types string
		)
		if err := rows.Scan(&f.ID, &f.Name, &cat, &f.ImpactPercentage, &types, &f.Active); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan factor")
		}
		f.Category = model.Category(cat)
		if err := json.Unmarshal([]byte(types), &f.ApplicableServiceTypes); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal service types for %s", f.ID)
		}
		if len(f.ApplicableServiceTypes) == 0 {
			f.ApplicableServiceTypes = nil
		}
		out = append(out, f)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate factors")
}

func (s *SQLiteStore) CreateJob(ctx context.Context, job *model.Job) error {
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
		return eris.Wrap(err, "sqlite: marshal job")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, service_type, status, body, created_at, completed_at) VALUES (?, ?, ?, ?, ?, ?)`,
		job.ID, string(job.ServiceType), string(job.Status), string(body), sqliteTime(job.CreatedAt), sqliteNullTime(job.CompletedAt),
	)
	return eris.Wrapf(err, "sqlite: insert job %s", job.ID)
}

func (s *SQLiteStore) GetJob(ctx context.Context, id string) (*model.Job, error) {
	return getSQLiteJob(ctx, s.db, id)
}

type sqlQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getSQLiteJob(ctx context.Context, q sqlQueryer, id string) (*model.Job, error) {
	var body string
	err := q.QueryRowContext(ctx, `SELECT body FROM jobs WHERE id = ?`, id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("job", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get job %s", id)
	}
	var job model.Job
	if err := json.Unmarshal([]byte(body), &job); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal job %s", id)
	}
	return &job, nil
}

func (s *SQLiteStore) CompleteJob(ctx context.Context, id string, actual model.JobActual, record model.JobPerformanceRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin complete job")
	}
	defer tx.Rollback() //nolint:errcheck

	job, err := getSQLiteJob(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := markCompleted(job, actual, record); err != nil {
		return err
	}
	body, err := json.Marshal(job)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal job")
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE jobs SET status = ?, body = ?, completed_at = ? WHERE id = ? AND status != ?`,
		string(job.Status), string(body), sqliteNullTime(job.CompletedAt), id, string(model.JobStatusCompleted),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete job %s", id)
	}
	if err := checkRowsAffected(res, "job", id); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit complete job")
}

func (s *SQLiteStore) ListCompletedJobs(ctx context.Context, filter JobFilter) ([]model.HistoricalJob, error) {
	query := `SELECT body FROM jobs WHERE status = ?`
	args := []any{string(model.JobStatusCompleted)}
	if filter.ServiceType != "" {
		query += ` AND service_type = ?`
		args = append(args, string(filter.ServiceType))
	}
	if !filter.Since.IsZero() {
		query += ` AND completed_at >= ?`
		args = append(args, sqliteTime(filter.Since))
	}
	if !filter.Until.IsZero() {
		query += ` AND completed_at <= ?`
		args = append(args, sqliteTime(filter.Until))
	}
	query += ` ORDER BY completed_at, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list completed jobs")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.HistoricalJob
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan job")
		}
		var job model.Job
		if err := json.Unmarshal([]byte(body), &job); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal job")
		}
		if h, ok := job.Historical(); ok {
			out = append(out, h)
		}
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate jobs")
}

func (s *SQLiteStore) GetTemplate(ctx context.Context, serviceType model.ServiceType) (*model.ServiceTemplate, error) {
	return getSQLiteTemplate(ctx, s.db, serviceType)
}

func getSQLiteTemplate(ctx context.Context, q sqlQueryer, serviceType model.ServiceType) (*model.ServiceTemplate, error) {
	var body string
	err := q.QueryRowContext(ctx, `SELECT body FROM service_templates WHERE service_type = ?`, string(serviceType)).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("template", string(serviceType))
		}
		return nil, eris.Wrapf(err, "sqlite: get template %s", serviceType)
	}
	var t model.ServiceTemplate
	if err := json.Unmarshal([]byte(body), &t); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal template %s", serviceType)
	}
	return &t, nil
}

func (s *SQLiteStore) ListTemplates(ctx context.Context) ([]model.ServiceTemplate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM service_templates ORDER BY service_type`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list templates")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.ServiceTemplate
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan template")
		}
		var t model.ServiceTemplate
		if err := json.Unmarshal([]byte(body), &t); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal template")
		}
		out = append(out, t)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate templates")
}

type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) UpsertTemplate(ctx context.Context, t model.ServiceTemplate) error {
	if !t.ServiceType.Valid() {
		return eris.Wrapf(model.ErrInvalidConfiguration, "store: unknown service type %q", t.ServiceType)
	}
	return upsertSQLiteTemplate(ctx, s.db, t)
}

func upsertSQLiteTemplate(ctx context.Context, e sqlExecer, t model.ServiceTemplate) error {
	body, err := json.Marshal(t)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal template")
	}
	_, err = e.ExecContext(ctx, `
		INSERT INTO service_templates (service_type, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (service_type) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		string(t.ServiceType), string(body), sqliteTime(time.Now()),
	)
	return eris.Wrapf(err, "sqlite: upsert template %s", t.ServiceType)
}

func (s *SQLiteStore) ApplyCalibration(ctx context.Context, result model.RecalibrationResult, defaultTargetMargin float64) (model.ServiceTemplate, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.ServiceTemplate{}, eris.Wrap(err, "sqlite: begin apply calibration")
	}
	defer tx.Rollback() //nolint:errcheck

	existing, err := getSQLiteTemplate(ctx, tx, result.ServiceType)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.ServiceTemplate{}, err
	}

	updated := calibrated(existing, result, defaultTargetMargin)
	if err := upsertSQLiteTemplate(ctx, tx, updated); err != nil {
		return model.ServiceTemplate{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.ServiceTemplate{}, eris.Wrap(err, "sqlite: commit apply calibration")
	}
	return updated, nil
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return notFound(entity, id)
	}
	return nil
}

func sqliteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeFormat)
}

func sqliteNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return sqliteTime(*t)
}

func serviceTypesOrEmpty(s []model.ServiceType) []model.ServiceType {
	if s == nil {
		return []model.ServiceType{}
	}
	return s
}
