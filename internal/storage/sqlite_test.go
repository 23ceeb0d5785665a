//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return store
}

func TestSQLiteStore_RunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	run := testRun("run-1", time.Unix(1000, 0).UTC())
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	got, ok, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if !ok {
		t.Fatal("expected run to exist")
	}
	if got != run {
		t.Errorf("got %+v, want %+v", got, run)
	}

	_, ok, err = store.GetRun(ctx, "nope")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if ok {
		t.Error("expected run to be absent")
	}
}

func TestSQLiteStore_SaveRunUpserts(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	run := testRun("run-1", time.Unix(1000, 0).UTC())
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	run.TestAccuracy = 0.97
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0].TestAccuracy != 0.97 {
		t.Errorf("got test accuracy %v, want 0.97", runs[0].TestAccuracy)
	}
}

func TestSQLiteStore_MetricsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	metrics := []Metric{
		{RunID: "run-1", Iteration: 0, TrainLoss: 2.3, TestLoss: 2.3, TrainAccuracy: 0.1, TestAccuracy: 0.1},
		{RunID: "run-1", Iteration: 50, TrainLoss: 0.8, TestLoss: 0.9, TrainAccuracy: 0.8, TestAccuracy: 0.78},
	}
	if err := store.AppendMetrics(ctx, "run-1", metrics); err != nil {
		t.Fatalf("AppendMetrics failed: %v", err)
	}

	got, ok, err := store.GetMetrics(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetMetrics failed: %v", err)
	}
	if !ok {
		t.Fatal("expected metrics to exist")
	}
	if len(got) != 2 {
		t.Fatalf("got %d metrics, want 2", len(got))
	}
	for i := range got {
		if got[i] != metrics[i] {
			t.Errorf("metric %d: got %+v, want %+v", i, got[i], metrics[i])
		}
	}

	_, ok, err = store.GetMetrics(ctx, "nope")
	if err != nil {
		t.Fatalf("GetMetrics failed: %v", err)
	}
	if ok {
		t.Error("expected metrics to be absent")
	}
}

func TestSQLiteStore_RequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	if _, err := store.ListRuns(context.Background()); err == nil {
		t.Error("expected error before Init")
	}
}
