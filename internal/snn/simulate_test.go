package snn_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spikeml/ember/internal/backend/cpu"
	"github.com/spikeml/ember/internal/nn"
	"github.com/spikeml/ember/internal/snn"
	"github.com/spikeml/ember/internal/tensor"
)

func TestSimulatorRunShapes(t *testing.T) {
	backend := cpu.New()
	cfg := smallConfig()
	sim := snn.NewSimulator(buildNetwork(t, cfg, backend), cfg.NumSteps)

	input := tensor.Full[float32](tensor.Shape{4, 6}, 0.5, backend)
	traj, err := sim.Run(input)
	require.NoError(t, err)

	require.Len(t, traj.Spikes, cfg.NumSteps)
	require.Len(t, traj.Membranes, cfg.NumSteps)
	for step := range traj.Spikes {
		assert.Equal(t, tensor.Shape{4, 3}, traj.Spikes[step].Shape())
		assert.Equal(t, tensor.Shape{4, 3}, traj.Membranes[step].Shape())
	}
	assert.Equal(t, cfg.NumSteps, sim.Steps())
}

func TestSimulatorRunIsDeterministic(t *testing.T) {
	backend := cpu.New()
	cfg := smallConfig()
	sim := snn.NewSimulator(buildNetwork(t, cfg, backend), cfg.NumSteps)

	input := tensor.Full[float32](tensor.Shape{4, 6}, 1.5, backend)

	first, err := sim.Run(input)
	require.NoError(t, err)
	second, err := sim.Run(input)
	require.NoError(t, err)

	// Fresh zero state per call and a randomness-free forward pass make
	// repeated runs byte-identical.
	for step := range first.Spikes {
		assert.Equal(t, first.Spikes[step].Data(), second.Spikes[step].Data(), "spikes at step %d", step)
		assert.Equal(t, first.Membranes[step].Data(), second.Membranes[step].Data(), "membranes at step %d", step)
	}
}

func TestSimulatorRunZeroInputStaysSilent(t *testing.T) {
	backend := cpu.New()
	cfg := smallConfig()
	sim := snn.NewSimulator(buildNetwork(t, cfg, backend), cfg.NumSteps)

	input := tensor.Zeros[float32](tensor.Shape{4, 6}, backend)
	traj, err := sim.Run(input)
	require.NoError(t, err)

	// Biases start at zero, so zero input injects no current anywhere.
	for step := range traj.Spikes {
		for _, v := range traj.Spikes[step].Data() {
			assert.Zero(t, v)
		}
		for _, v := range traj.Membranes[step].Data() {
			assert.Zero(t, v)
		}
	}
}

func TestSimulatorRunRejectsBadShape(t *testing.T) {
	backend := cpu.New()
	cfg := smallConfig()
	sim := snn.NewSimulator(buildNetwork(t, cfg, backend), cfg.NumSteps)

	input := tensor.Zeros[float32](tensor.Shape{4, 7}, backend)
	traj, err := sim.Run(input)
	assert.Nil(t, traj)

	var shapeErr *nn.ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, tensor.Shape{4, 7}, shapeErr.Got)
}

func TestSimulatorRunDetectsNonFiniteState(t *testing.T) {
	backend := cpu.New()
	cfg := smallConfig()
	net := buildNetwork(t, cfg, backend)
	sim := snn.NewSimulator(net, cfg.NumSteps)

	// Poison one first-layer weight; the first matmul spreads the NaN
	// into the hidden potentials on step 0.
	net.Parameters()[0].Tensor().Data()[0] = float32(math.NaN())

	input := tensor.Full[float32](tensor.Shape{4, 6}, 1.0, backend)
	traj, err := sim.Run(input)
	assert.Nil(t, traj)

	var nfErr *nn.NonFiniteError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, 0, nfErr.Step)
	assert.Equal(t, "hidden potential", nfErr.Quantity)
}
