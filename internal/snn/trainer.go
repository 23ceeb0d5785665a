package snn

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/spikeml/ember/internal/autodiff"
	"github.com/spikeml/ember/internal/dataset"
	"github.com/spikeml/ember/internal/optim"
	"github.com/spikeml/ember/internal/storage"
	"github.com/spikeml/ember/internal/tensor"
)

// Trainer runs the backprop-through-time loop: simulate forward, sum the
// temporal loss, walk the gradient tape backward, step the optimizer, then
// evaluate one held-out minibatch with the freshly updated parameters.
type Trainer[B tensor.Backend] struct {
	config    Config
	backend   *autodiff.AutodiffBackend[B]
	network   *Network[*autodiff.AutodiffBackend[B]]
	simulator *Simulator[*autodiff.AutodiffBackend[B]]
	loss      *TemporalLoss[*autodiff.AutodiffBackend[B]]
	evaluator *Evaluator[*autodiff.AutodiffBackend[B]]
	optimizer optim.Optimizer
	monitor   *Monitor
	store     storage.Store
	rng       *rand.Rand
}

// Result summarizes a finished run. The loss histories hold one entry per
// iteration; the accuracies are measured over the full datasets after the
// last update.
type Result struct {
	RunID         string
	Iterations    int
	TrainLossHist []float32
	TestLossHist  []float32
	TrainAccuracy float64
	TestAccuracy  float64
}

// NewTrainer wires a fresh network, Adam optimizer, simulator, loss, and
// evaluator from the config. The same seeded rng drives weight
// initialization and batch shuffling, so a run is reproducible from its
// config. A nil monitor discards progress output; a nil store skips
// persistence.
func NewTrainer[B tensor.Backend](
	cfg Config,
	backend *autodiff.AutodiffBackend[B],
	monitor *Monitor,
	store storage.Store,
) (*Trainer[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	grad, err := cfg.Gradient()
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	network := NewNetwork(cfg, grad, rng, backend)
	simulator := NewSimulator(network, cfg.NumSteps)
	optimizer := optim.NewAdam(network.Parameters(), optim.AdamConfig{
		LR:    cfg.LR,
		Betas: cfg.Betas,
		Eps:   1e-8,
	}, backend)
	if monitor == nil {
		monitor = NewMonitor(nil, cfg.PrintFreq)
	}

	return &Trainer[B]{
		config:    cfg,
		backend:   backend,
		network:   network,
		simulator: simulator,
		loss:      NewTemporalLoss(cfg.NumOutputs, backend),
		evaluator: NewEvaluator(simulator, backend),
		optimizer: optimizer,
		monitor:   monitor,
		store:     store,
		rng:       rng,
	}, nil
}

// Network returns the trained network.
func (t *Trainer[B]) Network() *Network[*autodiff.AutodiffBackend[B]] {
	return t.network
}

// Train runs the full loop: NumEpochs passes over train with per-epoch
// reshuffling, one optimizer update per minibatch, and a held-out test
// minibatch evaluated after every update. Training drops the trailing
// short batch so each update sees a full batch; final accuracies cover
// both datasets completely. A label or non-finite error aborts the run.
func (t *Trainer[B]) Train(ctx context.Context, train, test *dataset.Dataset) (*Result, error) {
	if train.NumSamples() == 0 || test.NumSamples() == 0 {
		return nil, errors.New("train and test datasets must be non-empty")
	}

	runID := uuid.NewString()
	run := storage.Run{
		ID:        runID,
		StartedAt: time.Now().UTC(),
		Hidden:    t.config.NumHidden,
		Steps:     t.config.NumSteps,
		BatchSize: t.config.BatchSize,
		Epochs:    t.config.NumEpochs,
		Beta:      float64(t.config.Beta),
		Threshold: float64(t.config.Threshold),
		LR:        float64(t.config.LR),
		Surrogate: t.config.Surrogate,
		Samples:   train.NumSamples(),
	}
	if err := t.saveRun(ctx, run); err != nil {
		return nil, err
	}

	testBatches, err := dataset.Batches(test, t.config.BatchSize, t.rng, false, t.backend)
	if err != nil {
		return nil, err
	}

	tape := t.backend.Tape()
	tape.StartRecording()
	defer func() {
		tape.StopRecording()
		tape.Clear()
	}()

	result := &Result{RunID: runID}
	iteration := 0

	for epoch := 0; epoch < t.config.NumEpochs; epoch++ {
		trainBatches, err := dataset.Batches(train, t.config.BatchSize, t.rng, true, t.backend)
		if err != nil {
			return nil, err
		}
		if len(trainBatches) == 0 {
			return nil, fmt.Errorf("train dataset has %d samples, fewer than one %d-sample batch",
				train.NumSamples(), t.config.BatchSize)
		}

		for _, batch := range trainBatches {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			trainLoss, err := t.step(batch)
			if err != nil {
				return nil, fmt.Errorf("epoch %d iteration %d: %w", epoch, iteration, err)
			}

			testBatch := testBatches[iteration%len(testBatches)]
			if err := t.observe(ctx, result, run.ID, epoch, iteration, trainLoss, batch, testBatch); err != nil {
				return nil, fmt.Errorf("epoch %d iteration %d: %w", epoch, iteration, err)
			}
			iteration++
		}
	}

	restore := t.pauseRecording()
	trainAcc, trainErr := t.evaluator.EvaluateDataset(train, t.config.BatchSize)
	testAcc, testErr := t.evaluator.EvaluateDataset(test, t.config.BatchSize)
	restore()
	if trainErr != nil {
		return nil, trainErr
	}
	if testErr != nil {
		return nil, testErr
	}

	result.Iterations = iteration
	result.TrainAccuracy = trainAcc
	result.TestAccuracy = testAcc

	run.FinishedAt = time.Now().UTC()
	run.TrainAccuracy = trainAcc
	run.TestAccuracy = testAcc
	if err := t.saveRun(ctx, run); err != nil {
		return nil, err
	}
	return result, nil
}

// step performs one recorded forward/backward pass and parameter update,
// returning the minibatch loss.
func (t *Trainer[B]) step(batch *dataset.Batch[*autodiff.AutodiffBackend[B]]) (float32, error) {
	t.optimizer.ZeroGrad()

	traj, err := t.simulator.Run(batch.Features)
	if err != nil {
		return 0, err
	}
	loss, err := t.loss.Forward(traj.Membranes, batch.Labels)
	if err != nil {
		return 0, err
	}
	lossValue := loss.Item()

	grads := autodiff.Backward(loss, t.backend)
	t.optimizer.Step(grads)
	t.backend.Tape().Clear()

	return lossValue, nil
}

// observe runs the held-out evaluation for one iteration with recording
// off, extends the loss histories, and reports and persists a metric when
// the iteration falls on the monitor interval.
func (t *Trainer[B]) observe(
	ctx context.Context,
	result *Result,
	runID string,
	epoch, iteration int,
	trainLoss float32,
	trainBatch, testBatch *dataset.Batch[*autodiff.AutodiffBackend[B]],
) error {
	restore := t.pauseRecording()
	defer restore()

	testTraj, err := t.simulator.Run(testBatch.Features)
	if err != nil {
		return err
	}
	testLossTensor, err := t.loss.Forward(testTraj.Membranes, testBatch.Labels)
	if err != nil {
		return err
	}
	testLoss := testLossTensor.Item()

	result.TrainLossHist = append(result.TrainLossHist, trainLoss)
	result.TestLossHist = append(result.TestLossHist, testLoss)

	if !t.monitor.ShouldReport(iteration) {
		return nil
	}

	// Accuracies are fresh forward passes with the just-updated weights.
	trainPreds, err := t.evaluator.Predict(trainBatch.Features)
	if err != nil {
		return err
	}
	trainAcc := Accuracy(trainPreds, trainBatch.Labels)
	testAcc := Accuracy(Predictions(testTraj.Spikes), testBatch.Labels)

	t.monitor.Report(epoch, iteration, trainLoss, testLoss, trainAcc, testAcc)

	return t.appendMetric(ctx, storage.Metric{
		RunID:         runID,
		Epoch:         epoch,
		Iteration:     iteration,
		TrainLoss:     float64(trainLoss),
		TestLoss:      float64(testLoss),
		TrainAccuracy: trainAcc,
		TestAccuracy:  testAcc,
	})
}

// pauseRecording stops tape recording and returns the restore func, so
// evaluation never records operations.
func (t *Trainer[B]) pauseRecording() func() {
	tape := t.backend.Tape()
	wasRecording := tape.IsRecording()
	tape.StopRecording()
	return func() {
		if wasRecording {
			tape.StartRecording()
		}
	}
}

func (t *Trainer[B]) saveRun(ctx context.Context, run storage.Run) error {
	if t.store == nil {
		return nil
	}
	return t.store.SaveRun(ctx, run)
}

func (t *Trainer[B]) appendMetric(ctx context.Context, m storage.Metric) error {
	if t.store == nil {
		return nil
	}
	return t.store.AppendMetrics(ctx, m.RunID, []storage.Metric{m})
}
