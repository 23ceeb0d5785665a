package snn_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spikeml/ember/internal/backend/cpu"
	"github.com/spikeml/ember/internal/dataset"
	"github.com/spikeml/ember/internal/nn"
	"github.com/spikeml/ember/internal/snn"
	"github.com/spikeml/ember/internal/tensor"
)

func spikeTensor(t *testing.T, backend *cpu.CPUBackend, data []float32) *tensor.Tensor[float32, *cpu.CPUBackend] {
	t.Helper()
	spk, err := tensor.FromSlice(data, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)
	return spk
}

func TestSpikeCountsAndPredictions(t *testing.T) {
	backend := cpu.New()
	trajectory := []*tensor.Tensor[float32, *cpu.CPUBackend]{
		spikeTensor(t, backend, []float32{1, 0, 0, 0, 1, 0}),
		spikeTensor(t, backend, []float32{1, 0, 0, 1, 0, 0}),
	}

	counts := snn.SpikeCounts(trajectory)
	assert.Equal(t, []float32{2, 0, 0, 1, 1, 0}, counts.Data())

	// Row 1 ties classes 0 and 1; the lower index wins.
	preds := snn.Predictions(trajectory)
	assert.Equal(t, []int32{0, 0}, preds.Data())
}

func TestSpikeCountsEmptyTrajectoryPanics(t *testing.T) {
	assert.Panics(t, func() {
		snn.SpikeCounts[*cpu.CPUBackend](nil)
	})
}

func TestAccuracy(t *testing.T) {
	backend := cpu.New()
	preds, err := tensor.FromSlice([]int32{0, 0, 2, 1}, tensor.Shape{4}, backend)
	require.NoError(t, err)
	labels, err := tensor.FromSlice([]int32{0, 1, 2, 2}, tensor.Shape{4}, backend)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, snn.Accuracy(preds, labels), 1e-9)
}

func TestEvaluatorPredict(t *testing.T) {
	backend := cpu.New()
	cfg := smallConfig()
	sim := snn.NewSimulator(buildNetwork(t, cfg, backend), cfg.NumSteps)
	eval := snn.NewEvaluator(sim, backend)

	features := tensor.Full[float32](tensor.Shape{4, 6}, 1.0, backend)
	preds, err := eval.Predict(features)
	require.NoError(t, err)

	require.Equal(t, tensor.Shape{4}, preds.Shape())
	for _, p := range preds.Data() {
		assert.GreaterOrEqual(t, p, int32(0))
		assert.Less(t, p, int32(3))
	}
}

func TestEvaluatorRejectsBadLabels(t *testing.T) {
	backend := cpu.New()
	cfg := smallConfig()
	sim := snn.NewSimulator(buildNetwork(t, cfg, backend), cfg.NumSteps)
	eval := snn.NewEvaluator(sim, backend)

	features := tensor.Zeros[float32](tensor.Shape{2, 6}, backend)
	labels, err := tensor.FromSlice([]int32{0, 9}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	_, err = eval.EvaluateBatch(&dataset.Batch[*cpu.CPUBackend]{
		Features: features,
		Labels:   labels,
		Size:     2,
	})

	var labelErr *nn.LabelError
	require.ErrorAs(t, err, &labelErr)
	assert.Equal(t, int32(9), labelErr.Label)
}

func TestEvaluateDatasetIsIdempotent(t *testing.T) {
	backend := cpu.New()
	cfg := smallConfig()
	sim := snn.NewSimulator(buildNetwork(t, cfg, backend), cfg.NumSteps)
	eval := snn.NewEvaluator(sim, backend)

	// 10 samples with batch size 4 leaves a trailing batch of 2, which
	// must still be counted.
	data := dataset.Synthetic(10, 6, 3, rand.New(rand.NewSource(5)))

	first, err := eval.EvaluateDataset(data, 4)
	require.NoError(t, err)
	second, err := eval.EvaluateDataset(data, 4)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.GreaterOrEqual(t, first, 0.0)
	assert.LessOrEqual(t, first, 1.0)
}
