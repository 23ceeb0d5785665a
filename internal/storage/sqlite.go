//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists runs and metrics in a SQLite database file.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func newSQLiteStore(path string) (Store, error) {
	return NewSQLiteStore(path), nil
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run Run) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, hidden, steps, batch_size,
			epochs, beta, threshold, lr, surrogate, samples, train_accuracy, test_accuracy)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			hidden = excluded.hidden,
			steps = excluded.steps,
			batch_size = excluded.batch_size,
			epochs = excluded.epochs,
			beta = excluded.beta,
			threshold = excluded.threshold,
			lr = excluded.lr,
			surrogate = excluded.surrogate,
			samples = excluded.samples,
			train_accuracy = excluded.train_accuracy,
			test_accuracy = excluded.test_accuracy
	`, run.ID, run.StartedAt.Unix(), run.FinishedAt.Unix(), run.Hidden, run.Steps,
		run.BatchSize, run.Epochs, run.Beta, run.Threshold, run.LR, run.Surrogate,
		run.Samples, run.TrainAccuracy, run.TestAccuracy)
	return err
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (Run, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Run{}, false, err
	}

	row := db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, hidden, steps, batch_size,
			epochs, beta, threshold, lr, surrogate, samples, train_accuracy, test_accuracy
		FROM runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, false, nil
		}
		return Run{}, false, err
	}
	return run, true, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]Run, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, hidden, steps, batch_size,
			epochs, beta, threshold, lr, surrogate, samples, train_accuracy, test_accuracy
		FROM runs ORDER BY started_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) AppendMetrics(ctx context.Context, runID string, metrics []Metric) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, m := range metrics {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO metrics (run_id, epoch, iteration, train_loss, test_loss,
				train_accuracy, test_accuracy)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_id, iteration) DO UPDATE SET
				epoch = excluded.epoch,
				train_loss = excluded.train_loss,
				test_loss = excluded.test_loss,
				train_accuracy = excluded.train_accuracy,
				test_accuracy = excluded.test_accuracy
		`, runID, m.Epoch, m.Iteration, m.TrainLoss, m.TestLoss, m.TrainAccuracy, m.TestAccuracy)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetMetrics(ctx context.Context, runID string) ([]Metric, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT run_id, epoch, iteration, train_loss, test_loss, train_accuracy, test_accuracy
		FROM metrics WHERE run_id = ? ORDER BY iteration
	`, runID)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var metrics []Metric
	for rows.Next() {
		var m Metric
		if err := rows.Scan(&m.RunID, &m.Epoch, &m.Iteration, &m.TrainLoss, &m.TestLoss,
			&m.TrainAccuracy, &m.TestAccuracy); err != nil {
			return nil, false, err
		}
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if len(metrics) == 0 {
		return nil, false, nil
	}
	return metrics, true, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var startedAt, finishedAt int64
	err := row.Scan(&run.ID, &startedAt, &finishedAt, &run.Hidden, &run.Steps,
		&run.BatchSize, &run.Epochs, &run.Beta, &run.Threshold, &run.LR,
		&run.Surrogate, &run.Samples, &run.TrainAccuracy, &run.TestAccuracy)
	if err != nil {
		return Run{}, err
	}
	run.StartedAt = time.Unix(startedAt, 0).UTC()
	run.FinishedAt = time.Unix(finishedAt, 0).UTC()
	return run, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			hidden INTEGER NOT NULL,
			steps INTEGER NOT NULL,
			batch_size INTEGER NOT NULL,
			epochs INTEGER NOT NULL,
			beta REAL NOT NULL,
			threshold REAL NOT NULL,
			lr REAL NOT NULL,
			surrogate TEXT NOT NULL,
			samples INTEGER NOT NULL,
			train_accuracy REAL NOT NULL,
			test_accuracy REAL NOT NULL
		);
		CREATE TABLE IF NOT EXISTS metrics (
			run_id TEXT NOT NULL,
			epoch INTEGER NOT NULL,
			iteration INTEGER NOT NULL,
			train_loss REAL NOT NULL,
			test_loss REAL NOT NULL,
			train_accuracy REAL NOT NULL,
			test_accuracy REAL NOT NULL,
			PRIMARY KEY (run_id, iteration)
		);
	`)
	return err
}
