// Package history keeps evolution runs and their per-generation statistics
// in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

var ErrRunNotFound = errors.New("history: run not found")

// Run status values.
const (
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusFailed   = "failed"
)

// Run is one evolution run.
type Run struct {
	ID             string          `db:"id"`
	StartedAt      int64           `db:"started_at"`
	FinishedAt     sql.NullInt64   `db:"finished_at"`
	Population     int             `db:"population"`
	LastGeneration int             `db:"last_generation"`
	Seed           int64           `db:"seed"`
	Status         string          `db:"status"`
	BestScore      sql.NullFloat64 `db:"best_score"`
	BestDNA        string          `db:"best_dna"`
}

func (r Run) Started() time.Time {
	return time.Unix(0, r.StartedAt)
}

// Generation holds the statistics of one finished generation. NaN scores
// are stored as NULL.
type Generation struct {
	RunID          string          `db:"run_id"`
	Generation     int             `db:"generation"`
	Mean           sql.NullFloat64 `db:"mean"`
	Best           sql.NullFloat64 `db:"best"`
	GenerationBest sql.NullFloat64 `db:"generation_best"`
	Elapsed        int64           `db:"elapsed_ns"`
}

// Score returns v, or NaN when the value is NULL.
func Score(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// DB wraps a SQLite connection for run history.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		population INTEGER NOT NULL,
		last_generation INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		status TEXT NOT NULL,
		best_score REAL,
		best_dna TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS generations (
		run_id TEXT NOT NULL REFERENCES runs(id),
		generation INTEGER NOT NULL,
		mean REAL,
		best REAL,
		generation_best REAL,
		elapsed_ns INTEGER NOT NULL,
		PRIMARY KEY (run_id, generation)
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// CreateRun inserts a running run and returns its id.
func (db *DB) CreateRun(ctx context.Context, population, lastGeneration int, seed int64) (string, error) {
	run := Run{
		ID:             uuid.NewString(),
		StartedAt:      time.Now().UnixNano(),
		Population:     population,
		LastGeneration: lastGeneration,
		Seed:           seed,
		Status:         StatusRunning,
	}
	_, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO runs (id, started_at, population, last_generation, seed, status)
		VALUES (:id, :started_at, :population, :last_generation, :seed, :status)
	`, run)
	if err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}
	return run.ID, nil
}

// RecordGeneration stores the statistics of one generation. Recording the
// same generation twice replaces the earlier row.
func (db *DB) RecordGeneration(ctx context.Context, runID string, generation int, mean, best, generationBest float64, elapsed time.Duration) error {
	g := Generation{
		RunID:          runID,
		Generation:     generation,
		Mean:           nullable(mean),
		Best:           nullable(best),
		GenerationBest: nullable(generationBest),
		Elapsed:        int64(elapsed),
	}
	_, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO generations (run_id, generation, mean, best, generation_best, elapsed_ns)
		VALUES (:run_id, :generation, :mean, :best, :generation_best, :elapsed_ns)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			mean = excluded.mean,
			best = excluded.best,
			generation_best = excluded.generation_best,
			elapsed_ns = excluded.elapsed_ns
	`, g)
	if err != nil {
		return fmt.Errorf("record generation %d: %w", generation, err)
	}
	return nil
}

// FinishRun marks a run finished or failed and stores its best genome.
func (db *DB) FinishRun(ctx context.Context, runID, status string, bestScore float64, bestDNA string) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE runs SET status = ?, finished_at = ?, best_score = ?, best_dna = ?
		WHERE id = ?
	`, status, time.Now().UnixNano(), nullable(bestScore), bestDNA, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// Runs lists all runs, newest first.
func (db *DB) Runs(ctx context.Context) ([]Run, error) {
	var runs []Run
	if err := db.conn.SelectContext(ctx, &runs, `SELECT * FROM runs ORDER BY started_at DESC`); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Run loads a run by id, or by a unique id prefix.
func (db *DB) Run(ctx context.Context, id string) (*Run, error) {
	var runs []Run
	if err := db.conn.SelectContext(ctx, &runs, `SELECT * FROM runs WHERE id LIKE ? || '%'`, id); err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}
	switch len(runs) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		return &runs[0], nil
	default:
		return nil, fmt.Errorf("history: run id prefix %q is ambiguous (%d matches)", id, len(runs))
	}
}

// Generations returns the statistics of a run in generation order.
func (db *DB) Generations(ctx context.Context, runID string) ([]Generation, error) {
	var gens []Generation
	err := db.conn.SelectContext(ctx, &gens, `
		SELECT * FROM generations WHERE run_id = ? ORDER BY generation
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("load generations: %w", err)
	}
	return gens, nil
}
