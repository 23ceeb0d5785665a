package snn_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spikeml/ember/internal/autodiff"
	"github.com/spikeml/ember/internal/backend/cpu"
	"github.com/spikeml/ember/internal/nn"
	"github.com/spikeml/ember/internal/snn"
	"github.com/spikeml/ember/internal/tensor"
)

func TestTemporalLossMatchesPerStepSum(t *testing.T) {
	backend := cpu.New()
	targets, err := tensor.FromSlice([]int32{0, 2}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	steps := [][]float32{
		{0.5, -0.2, 0.1, 1.0, 0.3, -0.5},
		{0.0, 0.4, -0.1, 0.2, 0.2, 0.2},
		{2.0, 1.0, 0.0, -1.0, 0.5, 1.5},
	}
	var membranes []*tensor.Tensor[float32, *cpu.CPUBackend]
	ce := nn.NewCrossEntropyLoss(backend)
	var want float64
	for _, data := range steps {
		mem, err := tensor.FromSlice(data, tensor.Shape{2, 3}, backend)
		require.NoError(t, err)
		membranes = append(membranes, mem)

		step, err := ce.Forward(mem, targets)
		require.NoError(t, err)
		want += float64(step.Item())
	}

	loss := snn.NewTemporalLoss(3, backend)
	total, err := loss.Forward(membranes, targets)
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{1}, total.Shape())
	assert.InDelta(t, want, float64(total.Item()), 1e-5)
}

func TestTemporalLossUniformMembranes(t *testing.T) {
	backend := cpu.New()
	targets, err := tensor.FromSlice([]int32{1, 3}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	const steps = 4
	membranes := make([]*tensor.Tensor[float32, *cpu.CPUBackend], steps)
	for i := range membranes {
		membranes[i] = tensor.Zeros[float32](tensor.Shape{2, 4}, backend)
	}

	loss := snn.NewTemporalLoss(4, backend)
	total, err := loss.Forward(membranes, targets)
	require.NoError(t, err)

	// Uniform logits at every step cost ln(classes) each.
	assert.InDelta(t, steps*math.Log(4), float64(total.Item()), 1e-5)
}

func TestTemporalLossRejectsBadLabel(t *testing.T) {
	backend := cpu.New()
	targets, err := tensor.FromSlice([]int32{0, 5}, tensor.Shape{2}, backend)
	require.NoError(t, err)
	membranes := []*tensor.Tensor[float32, *cpu.CPUBackend]{
		tensor.Zeros[float32](tensor.Shape{2, 3}, backend),
	}

	loss := snn.NewTemporalLoss(3, backend)
	_, err = loss.Forward(membranes, targets)

	var labelErr *nn.LabelError
	require.ErrorAs(t, err, &labelErr)
	assert.Equal(t, 1, labelErr.Index)
	assert.Equal(t, int32(5), labelErr.Label)
	assert.Equal(t, 3, labelErr.Classes)
}

func TestTemporalLossEmptyTrajectory(t *testing.T) {
	backend := cpu.New()
	targets, err := tensor.FromSlice([]int32{0}, tensor.Shape{1}, backend)
	require.NoError(t, err)

	loss := snn.NewTemporalLoss(3, backend)
	_, err = loss.Forward(nil, targets)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestTemporalLossDetectsNonFiniteLoss(t *testing.T) {
	backend := cpu.New()
	targets, err := tensor.FromSlice([]int32{0, 1}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	data := []float32{float32(math.Inf(1)), 0, 0, 0, 0, 0}
	mem, err := tensor.FromSlice(data, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)

	loss := snn.NewTemporalLoss(3, backend)
	_, err = loss.Forward([]*tensor.Tensor[float32, *cpu.CPUBackend]{mem}, targets)

	var nfErr *nn.NonFiniteError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, -1, nfErr.Step)
	assert.Equal(t, "loss", nfErr.Quantity)
}

func TestTemporalLossBackpropagatesEveryStep(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()
	defer func() {
		backend.Tape().StopRecording()
		backend.Tape().Clear()
	}()

	targets, err := tensor.FromSlice([]int32{0, 1}, tensor.Shape{2}, backend)
	require.NoError(t, err)
	mem0 := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
	mem1 := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)

	loss := snn.NewTemporalLoss(3, backend)
	total, err := loss.Forward([]*tensor.Tensor[float32, *autodiff.AutodiffBackend[*cpu.CPUBackend]]{mem0, mem1}, targets)
	require.NoError(t, err)

	grads := autodiff.Backward(total, backend)

	// Each step's membrane receives its own softmax-minus-onehot gradient
	// scaled by the batch mean.
	grad0 := grads[mem0.Raw()]
	grad1 := grads[mem1.Raw()]
	require.NotNil(t, grad0)
	require.NotNil(t, grad1)
	assert.InDelta(t, (1.0/3.0-1.0)/2.0, float64(grad0.AsFloat32()[0]), 1e-6)
	assert.InDelta(t, (1.0/3.0-1.0)/2.0, float64(grad1.AsFloat32()[4]), 1e-6)
}
