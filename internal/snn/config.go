package snn

import (
	"fmt"

	"github.com/spikeml/ember/internal/surrogate"
)

// Config collects the architecture and training hyperparameters for one
// spiking classifier run. Start from DefaultConfig and override; the zero
// value does not validate.
type Config struct {
	NumInputs  int     // features per sample
	NumHidden  int     // hidden layer width
	NumOutputs int     // output classes
	NumSteps   int     // simulation timesteps per forward pass
	Beta       float32 // membrane decay per step, in (0, 1]
	Threshold  float32 // firing threshold

	BatchSize int
	NumEpochs int
	LR        float32
	Betas     [2]float32 // Adam moment decay rates

	PrintFreq int     // monitor interval in iterations
	Surrogate string  // surrogate gradient name, see package surrogate
	Slope     float32 // surrogate steepness; 0 keeps the default
	Seed      int64
}

// DefaultConfig returns the configuration for 28x28 grayscale digit
// classification.
func DefaultConfig() Config {
	return Config{
		NumInputs:  784,
		NumHidden:  1000,
		NumOutputs: 10,
		NumSteps:   25,
		Beta:       0.95,
		Threshold:  1.0,
		BatchSize:  128,
		NumEpochs:  1,
		LR:         5e-4,
		Betas:      [2]float32{0.9, 0.999},
		PrintFreq:  50,
		Surrogate:  "atan",
		Seed:       42,
	}
}

// Validate reports the first unusable field.
func (c Config) Validate() error {
	if c.NumInputs <= 0 || c.NumHidden <= 0 || c.NumOutputs <= 0 {
		return fmt.Errorf("layer sizes must be positive, got %d inputs, %d hidden, %d outputs",
			c.NumInputs, c.NumHidden, c.NumOutputs)
	}
	if c.NumSteps <= 0 {
		return fmt.Errorf("number of steps must be positive, got %d", c.NumSteps)
	}
	if c.Beta <= 0 || c.Beta > 1 {
		return fmt.Errorf("beta must be in (0, 1], got %g", c.Beta)
	}
	if c.Threshold <= 0 {
		return fmt.Errorf("threshold must be positive, got %g", c.Threshold)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.NumEpochs <= 0 {
		return fmt.Errorf("number of epochs must be positive, got %d", c.NumEpochs)
	}
	if c.LR <= 0 {
		return fmt.Errorf("learning rate must be positive, got %g", c.LR)
	}
	if c.PrintFreq <= 0 {
		return fmt.Errorf("print frequency must be positive, got %d", c.PrintFreq)
	}
	if _, err := c.Gradient(); err != nil {
		return err
	}
	return nil
}

// Gradient constructs the configured surrogate gradient. A positive Slope
// overrides the surrogate's default steepness.
func (c Config) Gradient() (surrogate.Gradient, error) {
	grad, err := surrogate.New(c.Surrogate)
	if err != nil {
		return nil, err
	}
	if c.Slope <= 0 {
		return grad, nil
	}
	switch g := grad.(type) {
	case surrogate.Atan:
		g.Alpha = c.Slope
		return g, nil
	case surrogate.FastSigmoid:
		g.Slope = c.Slope
		return g, nil
	default:
		return grad, nil
	}
}
