package repository

import (
	"strconv"
	"strings"
)

type dialect struct {
	name   string
	schema []string
	// postgres uses $n placeholders
	numbered bool
}

var dialects = map[string]dialect{ //nolint:gochecknoglobals // static SQL
	"sqlite3": {
		name: "sqlite3",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS nightly_analysis (
				id TEXT PRIMARY KEY,
				run_date TIMESTAMP NOT NULL,
				reference_data TEXT,
				corroborating_data TEXT,
				reconciliation TEXT,
				predictions TEXT,
				processing_time_ms INTEGER NOT NULL DEFAULT 0,
				data_points_collected INTEGER NOT NULL DEFAULT 0,
				status TEXT NOT NULL,
				error TEXT,
				created_at TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_nightly_analysis_run_date ON nightly_analysis (run_date)`,
		},
	},
	"pgx": {
		name:     "pgx",
		numbered: true,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS nightly_analysis (
				id TEXT PRIMARY KEY,
				run_date TIMESTAMPTZ NOT NULL,
				reference_data JSONB,
				corroborating_data JSONB,
				reconciliation JSONB,
				predictions JSONB,
				processing_time_ms BIGINT NOT NULL DEFAULT 0,
				data_points_collected INTEGER NOT NULL DEFAULT 0,
				status TEXT NOT NULL,
				error TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_nightly_analysis_run_date ON nightly_analysis (run_date DESC)`,
		},
	},
}

// rebind rewrites ? placeholders for dialects with numbered parameters.
func (d dialect) rebind(q string) string {
	if !d.numbered {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
