package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "github.com/mattn/go-sqlite3"    // registers the "sqlite3" driver

	"github.com/okian/sportsintel/internal/domain/model"
	"github.com/okian/sportsintel/pkg/logger"
	"github.com/okian/sportsintel/pkg/metrics"
)

const (
	insertQuery = `INSERT INTO nightly_analysis (id, run_date, reference_data, corroborating_data, reconciliation, predictions,
		processing_time_ms, data_points_collected, status, error, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	recordColumns = `id, run_date, reference_data, corroborating_data, reconciliation, predictions,
		processing_time_ms, data_points_collected, status, error, created_at`
	summaryColumns = `id, run_date, processing_time_ms, data_points_collected, status, error, created_at`
)

// SQLStore is a Store over database/sql. It speaks the sqlite3 and pgx
// dialects.
type SQLStore struct {
	db           *sql.DB
	dialect      dialect
	log          logger.Logger
	now          func() time.Time
	maxOpenConns int
}

// OpenSQL opens the database, applies the schema and returns the store.
func OpenSQL(ctx context.Context, driver, dsn string, opts ...Option) (*SQLStore, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	s := &SQLStore{
		dialect:      d,
		now:          time.Now,
		maxOpenConns: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("store")
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// a single connection serializes writers and keeps :memory: databases alive
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(s.maxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	for _, stmt := range d.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	s.db = db
	s.log.Info(ctx, "run store ready", logger.String("driver", driver))
	return s, nil
}

// Insert implements Store.
func (s *SQLStore) Insert(ctx context.Context, rec *model.RunRecord) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOp("insert", msSince(start), err) }()

	if rec == nil || rec.ID == "" {
		return ErrInvalidRecord
	}
	payloads := make([][]byte, 0, 4)
	for _, v := range []any{rec.ReferenceData, rec.CorroboratingData, rec.Reconciliation, rec.Predictions} {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("%w: encode payload: %v", ErrInvalidRecord, err)
		}
		payloads = append(payloads, b)
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	var runErr sql.NullString
	if rec.Error != "" {
		runErr = sql.NullString{String: rec.Error, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, s.dialect.rebind(insertQuery),
		rec.ID, rec.RunDate.UTC(),
		string(payloads[0]), string(payloads[1]), string(payloads[2]), string(payloads[3]),
		rec.ProcessingTimeMs, rec.DataPointsCollected, string(rec.Status), runErr, created.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", rec.ID, err)
	}
	return nil
}

// Latest implements Store.
func (s *SQLStore) Latest(ctx context.Context) (rec *model.RunRecord, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOp("latest", msSince(start), ignoreNotFound(err)) }()

	q := `SELECT ` + recordColumns + ` FROM nightly_analysis WHERE status = ? ORDER BY run_date DESC LIMIT 1`
	return s.scanRecord(s.db.QueryRowContext(ctx, s.dialect.rebind(q), string(model.RunCompleted)))
}

// Get implements Store.
func (s *SQLStore) Get(ctx context.Context, id string) (rec *model.RunRecord, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOp("get", msSince(start), ignoreNotFound(err)) }()

	q := `SELECT ` + recordColumns + ` FROM nightly_analysis WHERE id = ?`
	return s.scanRecord(s.db.QueryRowContext(ctx, s.dialect.rebind(q), id))
}

// List implements Store.
func (s *SQLStore) List(ctx context.Context, limit int) (out []model.RunSummary, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOp("list", msSince(start), err) }()

	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	q := `SELECT ` + summaryColumns + ` FROM nightly_analysis ORDER BY run_date DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(q), limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out = make([]model.RunSummary, 0, limit)
	for rows.Next() {
		var (
			sum    model.RunSummary
			status string
			runErr sql.NullString
		)
		if err := rows.Scan(&sum.ID, &sum.RunDate, &sum.ProcessingTimeMs, &sum.DataPointsCollected, &status, &runErr, &sum.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		sum.Status = model.RunStatus(status)
		sum.Error = runErr.String
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}

// Close implements Store.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) scanRecord(row *sql.Row) (*model.RunRecord, error) {
	var (
		rec                     model.RunRecord
		refRaw, corrRaw         []byte
		reconRaw, predictionRaw []byte
		status                  string
		runErr                  sql.NullString
	)
	err := row.Scan(&rec.ID, &rec.RunDate, &refRaw, &corrRaw, &reconRaw, &predictionRaw,
		&rec.ProcessingTimeMs, &rec.DataPointsCollected, &status, &runErr, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	rec.Status = model.RunStatus(status)
	rec.Error = runErr.String

	targets := []struct {
		raw []byte
		dst any
	}{
		{refRaw, &rec.ReferenceData},
		{corrRaw, &rec.CorroboratingData},
		{reconRaw, &rec.Reconciliation},
		{predictionRaw, &rec.Predictions},
	}
	for _, t := range targets {
		if len(t.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(t.raw, t.dst); err != nil {
			return nil, fmt.Errorf("decode run %s: %w", rec.ID, err)
		}
	}
	return &rec, nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
