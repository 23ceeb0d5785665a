package snn_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spikeml/ember/internal/backend/cpu"
	"github.com/spikeml/ember/internal/nn"
	"github.com/spikeml/ember/internal/snn"
	"github.com/spikeml/ember/internal/tensor"
)

// smallConfig is the architecture used throughout the package tests: small
// enough to reason about by hand, large enough to exercise both stages.
func smallConfig() snn.Config {
	cfg := snn.DefaultConfig()
	cfg.NumInputs = 6
	cfg.NumHidden = 8
	cfg.NumOutputs = 3
	cfg.NumSteps = 4
	cfg.BatchSize = 4
	cfg.Seed = 7
	return cfg
}

func buildNetwork[B tensor.Backend](t *testing.T, cfg snn.Config, backend B) *snn.Network[B] {
	t.Helper()
	grad, err := cfg.Gradient()
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(cfg.Seed))
	return snn.NewNetwork(cfg, grad, rng, backend)
}

func TestNetworkParameters(t *testing.T) {
	net := buildNetwork(t, smallConfig(), cpu.New())

	params := net.Parameters()
	require.Len(t, params, 4)
	assert.Equal(t, "weight", params[0].Name())
	assert.Equal(t, "bias", params[1].Name())
	assert.Equal(t, tensor.Shape{8, 6}, params[0].Tensor().Shape())
	assert.Equal(t, tensor.Shape{8}, params[1].Tensor().Shape())
	assert.Equal(t, tensor.Shape{3, 8}, params[2].Tensor().Shape())
	assert.Equal(t, tensor.Shape{3}, params[3].Tensor().Shape())
}

func TestNetworkAccessors(t *testing.T) {
	net := buildNetwork(t, smallConfig(), cpu.New())

	assert.Equal(t, 6, net.NumInputs())
	assert.Equal(t, 8, net.NumHidden())
	assert.Equal(t, 3, net.NumOutputs())
}

func TestNetworkValidateInput(t *testing.T) {
	backend := cpu.New()
	net := buildNetwork(t, smallConfig(), backend)

	good := tensor.Zeros[float32](tensor.Shape{4, 6}, backend)
	require.NoError(t, net.ValidateInput(good))

	narrow := tensor.Zeros[float32](tensor.Shape{4, 5}, backend)
	err := net.ValidateInput(narrow)
	var shapeErr *nn.ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, tensor.Shape{4, 5}, shapeErr.Got)
	assert.Equal(t, tensor.Shape{-1, 6}, shapeErr.Want)

	flat := tensor.Zeros[float32](tensor.Shape{6}, backend)
	require.True(t, errors.As(net.ValidateInput(flat), &shapeErr))
}

func TestNetworkInitState(t *testing.T) {
	net := buildNetwork(t, smallConfig(), cpu.New())

	state := net.InitState(4)
	assert.Equal(t, tensor.Shape{4, 8}, state.Mem1.Shape())
	assert.Equal(t, tensor.Shape{4, 3}, state.Mem2.Shape())
	for _, v := range state.Mem1.Data() {
		assert.Zero(t, v)
	}
	for _, v := range state.Mem2.Data() {
		assert.Zero(t, v)
	}
}

func TestNetworkStepDecaysSilentState(t *testing.T) {
	backend := cpu.New()
	cfg := smallConfig()
	cfg.Beta = 0.5
	net := buildNetwork(t, cfg, backend)

	// Zero input through zero biases contributes no current, so one step
	// leaves each potential at beta times its previous value.
	state := snn.State[*cpu.CPUBackend]{
		Mem1: tensor.Full[float32](tensor.Shape{4, 8}, 0.5, backend),
		Mem2: tensor.Full[float32](tensor.Shape{4, 3}, 0.5, backend),
	}
	input := tensor.Zeros[float32](tensor.Shape{4, 6}, backend)

	spikes, next := net.Step(input, state)

	for _, v := range next.Mem1.Data() {
		assert.InDelta(t, 0.25, v, 1e-7)
	}
	for _, v := range next.Mem2.Data() {
		assert.InDelta(t, 0.25, v, 1e-7)
	}
	for _, v := range spikes.Data() {
		assert.Zero(t, v)
	}
}

func TestNetworkStepSpikesAreBinary(t *testing.T) {
	backend := cpu.New()
	net := buildNetwork(t, smallConfig(), backend)

	input := tensor.Full[float32](tensor.Shape{4, 6}, 2.0, backend)
	state := net.InitState(4)

	for step := 0; step < 6; step++ {
		var spikes *tensor.Tensor[float32, *cpu.CPUBackend]
		spikes, state = net.Step(input, state)
		for _, v := range spikes.Data() {
			assert.Contains(t, []float32{0, 1}, v)
		}
	}
}
