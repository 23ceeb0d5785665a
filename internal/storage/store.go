// Package storage persists training runs and their iteration metrics.
//
// Two backends are provided: an in-memory store for tests and throwaway
// runs, and a SQLite store (build tag "sqlite") for keeping results across
// processes.
package storage

import (
	"context"
	"time"
)

// Run records one training run: identity, the configuration it ran with,
// and its final held-out results. Saved once at start and upserted again at
// completion with the final accuracies filled in.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time

	// Configuration snapshot.
	Hidden    int
	Steps     int
	BatchSize int
	Epochs    int
	Beta      float64
	Threshold float64
	LR        float64
	Surrogate string
	Samples   int

	// Final results, zero until the run completes.
	TrainAccuracy float64
	TestAccuracy  float64
}

// Metric is one monitoring snapshot emitted during training. Iteration
// counts minibatches across all epochs, so it is unique within a run.
type Metric struct {
	RunID         string
	Epoch         int
	Iteration     int
	TrainLoss     float64
	TestLoss      float64
	TrainAccuracy float64
	TestAccuracy  float64
}

// Store defines persistence operations for runs and metrics.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	ListRuns(ctx context.Context) ([]Run, error)
	AppendMetrics(ctx context.Context, runID string, metrics []Metric) error
	GetMetrics(ctx context.Context, runID string) ([]Metric, bool, error)
}
