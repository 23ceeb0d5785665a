package snn

import (
	"errors"

	"github.com/spikeml/ember/internal/nn"
	"github.com/spikeml/ember/internal/tensor"
)

// TemporalLoss scores a membrane trajectory against integer class targets
// by summing the per-step cross entropy:
//
//	loss = sum over t of CrossEntropy(membranes[t], targets)
//
// Each step contributes a mean-over-batch term, so the total equals the sum
// of independently computed per-step losses. Under a gradient-recording
// backend the returned scalar backpropagates through every step.
type TemporalLoss[B tensor.Backend] struct {
	ce      *nn.CrossEntropyLoss[B]
	classes int
}

// NewTemporalLoss creates the loss for the given number of classes.
func NewTemporalLoss[B tensor.Backend](classes int, backend B) *TemporalLoss[B] {
	return &TemporalLoss[B]{ce: nn.NewCrossEntropyLoss(backend), classes: classes}
}

// Forward returns the summed loss as a Shape{1} scalar.
//
// Targets are validated before any step loss is computed: a label outside
// [0, classes) is an nn.LabelError. A non-finite total is an
// nn.NonFiniteError.
func (l *TemporalLoss[B]) Forward(
	membranes []*tensor.Tensor[float32, B],
	targets *tensor.Tensor[int32, B],
) (*tensor.Tensor[float32, B], error) {
	if len(membranes) == 0 {
		return nil, errors.New("temporal loss: empty membrane trajectory")
	}
	if err := nn.ValidateLabels(targets.Raw(), l.classes); err != nil {
		return nil, err
	}

	var total *tensor.Tensor[float32, B]
	for _, mem := range membranes {
		step, err := l.ce.Forward(mem, targets)
		if err != nil {
			return nil, err
		}
		if total == nil {
			total = step
		} else {
			total = total.Add(step)
		}
	}

	if err := nn.CheckFinite(total.Raw(), -1, "loss"); err != nil {
		return nil, err
	}
	return total, nil
}
