package snn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spikeml/ember/internal/snn"
	"github.com/spikeml/ember/internal/surrogate"
)

func TestDefaultConfig(t *testing.T) {
	cfg := snn.DefaultConfig()

	assert.Equal(t, 784, cfg.NumInputs)
	assert.Equal(t, 1000, cfg.NumHidden)
	assert.Equal(t, 10, cfg.NumOutputs)
	assert.Equal(t, 25, cfg.NumSteps)
	assert.InDelta(t, 0.95, cfg.Beta, 1e-6)
	assert.InDelta(t, 1.0, cfg.Threshold, 1e-6)
	assert.Equal(t, 128, cfg.BatchSize)
	assert.Equal(t, 1, cfg.NumEpochs)
	assert.InDelta(t, 5e-4, cfg.LR, 1e-9)
	assert.Equal(t, [2]float32{0.9, 0.999}, cfg.Betas)
	assert.Equal(t, 50, cfg.PrintFreq)
	assert.Equal(t, "atan", cfg.Surrogate)

	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*snn.Config)
	}{
		{"zero inputs", func(c *snn.Config) { c.NumInputs = 0 }},
		{"negative hidden", func(c *snn.Config) { c.NumHidden = -1 }},
		{"zero outputs", func(c *snn.Config) { c.NumOutputs = 0 }},
		{"zero steps", func(c *snn.Config) { c.NumSteps = 0 }},
		{"zero beta", func(c *snn.Config) { c.Beta = 0 }},
		{"beta above one", func(c *snn.Config) { c.Beta = 1.5 }},
		{"zero threshold", func(c *snn.Config) { c.Threshold = 0 }},
		{"zero batch size", func(c *snn.Config) { c.BatchSize = 0 }},
		{"zero epochs", func(c *snn.Config) { c.NumEpochs = 0 }},
		{"zero learning rate", func(c *snn.Config) { c.LR = 0 }},
		{"zero print frequency", func(c *snn.Config) { c.PrintFreq = 0 }},
		{"unknown surrogate", func(c *snn.Config) { c.Surrogate = "heaviside" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := snn.DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigGradient(t *testing.T) {
	cfg := snn.DefaultConfig()
	grad, err := cfg.Gradient()
	require.NoError(t, err)
	assert.Equal(t, "atan", grad.Name())
	assert.InDelta(t, surrogate.NewAtan().Derivative(0.5), grad.Derivative(0.5), 1e-7)

	cfg.Surrogate = "fast_sigmoid"
	cfg.Slope = 10
	grad, err = cfg.Gradient()
	require.NoError(t, err)
	assert.Equal(t, "fast_sigmoid", grad.Name())
	custom := surrogate.FastSigmoid{Slope: 10}
	assert.InDelta(t, custom.Derivative(0.5), grad.Derivative(0.5), 1e-7)

	cfg.Surrogate = "heaviside"
	_, err = cfg.Gradient()
	assert.Error(t, err)
}
