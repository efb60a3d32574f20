// Package runstore persists filter-run history in a DuckDB database.
// Recording is optional; the filter itself never requires it.
package runstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/htseq-tools/countfilter/internal/summary"
)

// Store manages a DuckDB connection for run history.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id BIGINT PRIMARY KEY,
		run_at TIMESTAMP,
		input VARCHAR,
		min_count DOUBLE,
		max_zerocount BIGINT,
		min_expressed BIGINT,
		filter_identical BOOLEAN,
		expression DOUBLE,
		total_genes BIGINT,
		passed_genes BIGINT,
		metacounts BIGINT
	)`)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`CREATE TABLE IF NOT EXISTS sample_stats (
		run_id BIGINT,
		sample VARCHAR,
		total_count DOUBLE,
		passed_count DOUBLE,
		total_expressed BIGINT,
		passed_expressed BIGINT,
		PRIMARY KEY (run_id, sample)
	)`)
	return err
}

// Run is one recorded filter invocation. Nil thresholds mean the
// corresponding filter was not configured.
type Run struct {
	ID              int64
	RunAt           time.Time
	Input           string
	MinCount        *float64
	MaxZeroCount    *int64
	MinExpressed    *int64
	FilterIdentical bool
	Expression      float64
	TotalGenes      int64
	PassedGenes     int64
	Metacounts      int64
}

// SampleStat is the recorded per-sample aggregate of one run.
type SampleStat struct {
	RunID           int64
	Sample          string
	TotalCount      float64
	PassedCount     float64
	TotalExpressed  int64
	PassedExpressed int64
}

// RecordRun stores a run and its per-sample stats, returning the run id.
// The samples set may be nil when per-sample stats are not wanted.
func (s *Store) RecordRun(run Run, samples *summary.SampleSet) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	if err := tx.QueryRow(`SELECT COALESCE(MAX(id), 0) + 1 FROM runs`).Scan(&id); err != nil {
		return 0, fmt.Errorf("allocate run id: %w", err)
	}

	runAt := run.RunAt
	if runAt.IsZero() {
		runAt = time.Now()
	}

	_, err = tx.Exec(`INSERT INTO runs
		(id, run_at, input, min_count, max_zerocount, min_expressed,
		 filter_identical, expression, total_genes, passed_genes, metacounts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, runAt, run.Input,
		nullableFloat(run.MinCount), nullableInt(run.MaxZeroCount), nullableInt(run.MinExpressed),
		run.FilterIdentical, run.Expression,
		run.TotalGenes, run.PassedGenes, run.Metacounts)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	if samples != nil {
		names := samples.Names()
		totals := samples.TotalCount()
		passed := samples.PassedCount()
		totExpr := samples.TotalExpressed()
		passExpr := samples.PassedExpressed()

		for i, name := range names {
			_, err = tx.Exec(`INSERT INTO sample_stats
				(run_id, sample, total_count, passed_count, total_expressed, passed_expressed)
				VALUES (?, ?, ?, ?, ?, ?)`,
				id, name, totals[i], passed[i], totExpr[i], passExpr[i])
			if err != nil {
				return 0, fmt.Errorf("insert sample stats for %s: %w", name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit run: %w", err)
	}

	return id, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(`SELECT
		id, run_at, input, min_count, max_zerocount, min_expressed,
		filter_identical, expression, total_genes, passed_genes, metacounts
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var minCount sql.NullFloat64
		var maxZero, minExpr sql.NullInt64

		err := rows.Scan(&r.ID, &r.RunAt, &r.Input,
			&minCount, &maxZero, &minExpr,
			&r.FilterIdentical, &r.Expression,
			&r.TotalGenes, &r.PassedGenes, &r.Metacounts)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		if minCount.Valid {
			v := minCount.Float64
			r.MinCount = &v
		}
		if maxZero.Valid {
			v := maxZero.Int64
			r.MaxZeroCount = &v
		}
		if minExpr.Valid {
			v := minExpr.Int64
			r.MinExpressed = &v
		}

		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// SampleStats returns the per-sample aggregates of one run in sample order.
func (s *Store) SampleStats(runID int64) ([]SampleStat, error) {
	rows, err := s.db.Query(`SELECT
		run_id, sample, total_count, passed_count, total_expressed, passed_expressed
		FROM sample_stats WHERE run_id = ? ORDER BY sample`, runID)
	if err != nil {
		return nil, fmt.Errorf("query sample stats: %w", err)
	}
	defer rows.Close()

	var stats []SampleStat
	for rows.Next() {
		var st SampleStat
		err := rows.Scan(&st.RunID, &st.Sample,
			&st.TotalCount, &st.PassedCount,
			&st.TotalExpressed, &st.PassedExpressed)
		if err != nil {
			return nil, fmt.Errorf("scan sample stats: %w", err)
		}
		stats = append(stats, st)
	}

	return stats, rows.Err()
}

func nullableFloat(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func nullableInt(p *int64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
