package nn

import (
	"math/rand"

	"github.com/spikeml/ember/internal/nn"
	"github.com/spikeml/ember/internal/surrogate"
	"github.com/spikeml/ember/internal/tensor"
)

// Module interface defines the common interface for stateless network
// modules.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter represents a trainable parameter in a neural network.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Layers

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with Xavier initialization drawn
// from rng.
//
// Example:
//
//	backend := cpu.New()
//	rng := rand.New(rand.NewSource(42))
//	layer := nn.NewLinear(784, 128, rng, backend)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, rng *rand.Rand, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, rng, backend)
}

// Leaky represents a population of leaky integrate-and-fire neurons with
// explicit membrane state threading.
type Leaky[B tensor.Backend] = nn.Leaky[B]

// NewLeaky creates a leaky integrate-and-fire layer.
//
// Example:
//
//	backend := cpu.New()
//	lif := nn.NewLeaky(0.95, 1.0, surrogate.NewAtan(), backend)
//	mem := lif.InitState(128, 1000)
//	spk, mem := lif.Step(current, mem)
func NewLeaky[B tensor.Backend](beta, threshold float32, grad surrogate.Gradient, backend B) *Leaky[B] {
	return nn.NewLeaky(beta, threshold, grad, backend)
}

// Loss functions

// CrossEntropyLoss computes the mean cross-entropy loss from raw logits.
type CrossEntropyLoss[B tensor.Backend] = nn.CrossEntropyLoss[B]

// NewCrossEntropyLoss creates a new cross-entropy loss function.
//
// Example:
//
//	criterion := nn.NewCrossEntropyLoss(backend)
//	loss, err := criterion.Forward(logits, labels)
func NewCrossEntropyLoss[B tensor.Backend](backend B) *CrossEntropyLoss[B] {
	return nn.NewCrossEntropyLoss(backend)
}

// Initialization

// XavierUniform returns a tensor initialized with the Xavier/Glorot
// uniform scheme for the given fan-in and fan-out.
func XavierUniform[B tensor.Backend](shape tensor.Shape, fanIn, fanOut int, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	return nn.XavierUniform[B](shape, fanIn, fanOut, rng, backend)
}

// KaimingUniform returns a tensor initialized with the Kaiming/He uniform
// scheme for the given fan-in.
func KaimingUniform[B tensor.Backend](shape tensor.Shape, fanIn int, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	return nn.KaimingUniform[B](shape, fanIn, rng, backend)
}

// Validation

// ShapeError reports a tensor shape that does not match what an operation
// expects. A -1 in Want matches any size.
type ShapeError = nn.ShapeError

// LabelError reports a class label outside [0, classes).
type LabelError = nn.LabelError

// NonFiniteError reports a NaN or Inf detected in a monitored quantity.
type NonFiniteError = nn.NonFiniteError

// CheckFinite returns a NonFiniteError if t contains NaN or Inf. step is
// the simulation step being checked, or -1 outside a simulation.
func CheckFinite(t *tensor.RawTensor, step int, quantity string) error {
	return nn.CheckFinite(t, step, quantity)
}

// ValidateLabels returns a LabelError if any target index falls outside
// [0, classes).
func ValidateLabels(targets *tensor.RawTensor, classes int) error {
	return nn.ValidateLabels(targets, classes)
}
