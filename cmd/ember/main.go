// Command ember trains and evaluates spiking neural network classifiers.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spikeml/ember/internal/autodiff"
	"github.com/spikeml/ember/internal/backend/cpu"
	"github.com/spikeml/ember/internal/dataset"
	"github.com/spikeml/ember/internal/snn"
	"github.com/spikeml/ember/internal/storage"
)

const version = "v0.1.0"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "train":
		return runTrain(ctx, args[1:])
	case "eval":
		return runEval(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "version":
		fmt.Printf("ember %s\n", version)
		return nil
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runTrain(ctx context.Context, args []string) error {
	defaults := snn.DefaultConfig()

	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	dataDir := fs.String("data", "", "directory with MNIST IDX files; empty trains on synthetic data")
	maxSamples := fs.Int("samples", 0, "max samples to load (0 = all)")
	syntheticCount := fs.Int("synthetic", 2048, "synthetic sample count when no data dir is given")
	hidden := fs.Int("hidden", defaults.NumHidden, "hidden layer width")
	steps := fs.Int("steps", defaults.NumSteps, "simulation timesteps")
	beta := fs.Float64("beta", float64(defaults.Beta), "membrane decay per step")
	threshold := fs.Float64("threshold", float64(defaults.Threshold), "firing threshold")
	batch := fs.Int("batch", defaults.BatchSize, "batch size")
	epochs := fs.Int("epochs", defaults.NumEpochs, "training epochs")
	lr := fs.Float64("lr", float64(defaults.LR), "Adam learning rate")
	printFreq := fs.Int("print-freq", defaults.PrintFreq, "iterations between progress reports")
	surrogateName := fs.String("surrogate", defaults.Surrogate, "surrogate gradient: atan|fast_sigmoid")
	slope := fs.Float64("slope", 0, "surrogate steepness (0 keeps the default)")
	seed := fs.Int64("seed", defaults.Seed, "rng seed for init and shuffling")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "ember.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := defaults
	cfg.NumHidden = *hidden
	cfg.NumSteps = *steps
	cfg.Beta = float32(*beta)
	cfg.Threshold = float32(*threshold)
	cfg.BatchSize = *batch
	cfg.NumEpochs = *epochs
	cfg.LR = float32(*lr)
	cfg.PrintFreq = *printFreq
	cfg.Surrogate = *surrogateName
	cfg.Slope = float32(*slope)
	cfg.Seed = *seed

	train, test, err := loadDatasets(*dataDir, *maxSamples, *syntheticCount, &cfg)
	if err != nil {
		return err
	}
	fmt.Printf("train: %s\n", train.Summary())
	fmt.Printf("test:  %s\n", test.Summary())

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()
	if err := store.Init(ctx); err != nil {
		return err
	}

	backend := autodiff.New(cpu.New())
	trainer, err := snn.NewTrainer(cfg, backend, snn.NewMonitor(os.Stdout, cfg.PrintFreq), store)
	if err != nil {
		return err
	}

	fmt.Printf("training %d-%d-%d network for %d epochs (%d steps, beta %g, %s surrogate)\n",
		cfg.NumInputs, cfg.NumHidden, cfg.NumOutputs, cfg.NumEpochs, cfg.NumSteps, cfg.Beta, cfg.Surrogate)

	result, err := trainer.Train(ctx, train, test)
	if err != nil {
		return err
	}

	fmt.Printf("run %s finished after %d iterations\n", result.RunID, result.Iterations)
	fmt.Printf("train accuracy: %.2f%%\n", result.TrainAccuracy*100)
	fmt.Printf("test accuracy:  %.2f%%\n", result.TestAccuracy*100)
	return nil
}

func runEval(ctx context.Context, args []string) error {
	defaults := snn.DefaultConfig()

	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	dataDir := fs.String("data", "", "directory with MNIST IDX test files (required)")
	maxSamples := fs.Int("samples", 0, "max samples to load (0 = all)")
	runID := fs.String("run", "", "stored run whose configuration to evaluate")
	hidden := fs.Int("hidden", defaults.NumHidden, "hidden layer width")
	steps := fs.Int("steps", defaults.NumSteps, "simulation timesteps")
	beta := fs.Float64("beta", float64(defaults.Beta), "membrane decay per step")
	threshold := fs.Float64("threshold", float64(defaults.Threshold), "firing threshold")
	batch := fs.Int("batch", defaults.BatchSize, "batch size")
	surrogateName := fs.String("surrogate", defaults.Surrogate, "surrogate gradient: atan|fast_sigmoid")
	seed := fs.Int64("seed", defaults.Seed, "rng seed for weight init")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "ember.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dataDir == "" {
		return usageError("eval requires -data")
	}

	cfg := defaults
	cfg.NumHidden = *hidden
	cfg.NumSteps = *steps
	cfg.Beta = float32(*beta)
	cfg.Threshold = float32(*threshold)
	cfg.BatchSize = *batch
	cfg.Surrogate = *surrogateName
	cfg.Seed = *seed

	if *runID != "" {
		store, err := storage.NewStore(*storeKind, *dbPath)
		if err != nil {
			return err
		}
		defer func() {
			_ = storage.CloseIfSupported(store)
		}()
		if err := store.Init(ctx); err != nil {
			return err
		}
		run, ok, err := store.GetRun(ctx, *runID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("run %s not found", *runID)
		}
		cfg.NumHidden = run.Hidden
		cfg.NumSteps = run.Steps
		cfg.Beta = float32(run.Beta)
		cfg.Threshold = float32(run.Threshold)
		cfg.BatchSize = run.BatchSize
		cfg.Surrogate = run.Surrogate
	}

	test, err := dataset.Load(*dataDir, false, *maxSamples)
	if err != nil {
		return err
	}
	cfg.NumInputs = test.NumFeatures()
	cfg.NumOutputs = test.Classes
	if err := cfg.Validate(); err != nil {
		return err
	}

	grad, err := cfg.Gradient()
	if err != nil {
		return err
	}

	// Weights are freshly initialized from the seed; runs are not
	// checkpointed, so this measures the configured architecture, not a
	// trained model.
	backend := cpu.New()
	network := snn.NewNetwork(cfg, grad, rand.New(rand.NewSource(cfg.Seed)), backend)
	evaluator := snn.NewEvaluator(snn.NewSimulator(network, cfg.NumSteps), backend)

	fmt.Printf("evaluating %d-%d-%d network (seed %d) on %s\n",
		cfg.NumInputs, cfg.NumHidden, cfg.NumOutputs, cfg.Seed, test.Summary())

	accuracy, err := evaluator.EvaluateDataset(test, cfg.BatchSize)
	if err != nil {
		return err
	}
	fmt.Printf("accuracy: %.2f%%\n", accuracy*100)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "ember.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()
	if err := store.Init(ctx); err != nil {
		return err
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	for _, run := range runs {
		fmt.Printf("%s  %s  hidden=%d steps=%d beta=%.2f lr=%g surrogate=%s samples=%d train=%.2f%% test=%.2f%%\n",
			run.ID, run.StartedAt.Format(time.RFC3339), run.Hidden, run.Steps,
			run.Beta, run.LR, run.Surrogate, run.Samples,
			run.TrainAccuracy*100, run.TestAccuracy*100)
	}
	return nil
}

// loadDatasets reads the IDX pair from dir, or synthesizes a separable
// dataset when dir is empty. The config's input and output widths follow
// the data.
func loadDatasets(dir string, maxSamples, syntheticCount int, cfg *snn.Config) (*dataset.Dataset, *dataset.Dataset, error) {
	if dir == "" {
		rng := rand.New(rand.NewSource(cfg.Seed))
		all := dataset.Synthetic(syntheticCount, cfg.NumInputs, cfg.NumOutputs, rng)
		train, test := all.Split(0.2, rng)
		return train, test, nil
	}

	train, err := dataset.Load(dir, true, maxSamples)
	if err != nil {
		return nil, nil, fmt.Errorf("loading training data: %w", err)
	}
	test, err := dataset.Load(dir, false, maxSamples)
	if err != nil {
		return nil, nil, fmt.Errorf("loading test data: %w", err)
	}

	cfg.NumInputs = train.NumFeatures()
	cfg.NumOutputs = train.Classes
	return train, test, nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: ember <train|eval|runs|version> [flags]", msg)
}
