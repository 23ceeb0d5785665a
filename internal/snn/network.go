// Package snn assembles spiking classifiers from the nn building blocks:
// a two-stage Network of linear projections into leaky integrate-and-fire
// layers, a Simulator that unrolls it over discrete timesteps, a temporal
// cross-entropy loss, a spike-count Evaluator, and a Trainer that ties
// them to an optimizer and a run store.
package snn

import (
	"math/rand"

	"github.com/spikeml/ember/internal/nn"
	"github.com/spikeml/ember/internal/surrogate"
	"github.com/spikeml/ember/internal/tensor"
)

// Network is a two-stage spiking classifier. Each stage projects its input
// through a linear layer and integrates the result in a population of leaky
// neurons; the output stage has one neuron per class.
type Network[B tensor.Backend] struct {
	fc1  *nn.Linear[B]
	lif1 *nn.Leaky[B]
	fc2  *nn.Linear[B]
	lif2 *nn.Leaky[B]

	numInputs  int
	numHidden  int
	numOutputs int
}

// State carries the membrane potentials of both stages between timesteps.
// Callers own the state; the network never stores it.
type State[B tensor.Backend] struct {
	Mem1 *tensor.Tensor[float32, B] // hidden stage, [batch, hidden]
	Mem2 *tensor.Tensor[float32, B] // output stage, [batch, outputs]
}

// NewNetwork builds the classifier described by the config's architecture
// fields. Weights are initialized from rng; biases start at zero.
func NewNetwork[B tensor.Backend](cfg Config, grad surrogate.Gradient, rng *rand.Rand, backend B) *Network[B] {
	return &Network[B]{
		fc1:        nn.NewLinear(cfg.NumInputs, cfg.NumHidden, rng, backend),
		lif1:       nn.NewLeaky(cfg.Beta, cfg.Threshold, grad, backend),
		fc2:        nn.NewLinear(cfg.NumHidden, cfg.NumOutputs, rng, backend),
		lif2:       nn.NewLeaky(cfg.Beta, cfg.Threshold, grad, backend),
		numInputs:  cfg.NumInputs,
		numHidden:  cfg.NumHidden,
		numOutputs: cfg.NumOutputs,
	}
}

// InitState returns zeroed potentials for a batch of the given size.
func (n *Network[B]) InitState(batch int) State[B] {
	return State[B]{
		Mem1: n.lif1.InitState(batch, n.numHidden),
		Mem2: n.lif2.InitState(batch, n.numOutputs),
	}
}

// Step advances the network one timestep and returns the output stage's
// spikes along with the updated state. The output stage's potential after
// the step is the new state's Mem2.
func (n *Network[B]) Step(input *tensor.Tensor[float32, B], state State[B]) (*tensor.Tensor[float32, B], State[B]) {
	spk1, mem1 := n.lif1.Step(n.fc1.Forward(input), state.Mem1)
	spk2, mem2 := n.lif2.Step(n.fc2.Forward(spk1), state.Mem2)
	return spk2, State[B]{Mem1: mem1, Mem2: mem2}
}

// ValidateInput checks a batch against the input width before any tensor
// operation touches it.
func (n *Network[B]) ValidateInput(input *tensor.Tensor[float32, B]) error {
	shape := input.Shape()
	if len(shape) != 2 || shape[1] != n.numInputs {
		return &nn.ShapeError{Op: "Network", Want: tensor.Shape{-1, n.numInputs}, Got: shape}
	}
	return nil
}

// Parameters returns both linear layers' weights and biases for the
// optimizer. The leaky stages have no trainable parameters.
func (n *Network[B]) Parameters() []*nn.Parameter[B] {
	return append(n.fc1.Parameters(), n.fc2.Parameters()...)
}

// NumInputs returns the expected input width.
func (n *Network[B]) NumInputs() int {
	return n.numInputs
}

// NumHidden returns the hidden stage width.
func (n *Network[B]) NumHidden() int {
	return n.numHidden
}

// NumOutputs returns the number of classes.
func (n *Network[B]) NumOutputs() int {
	return n.numOutputs
}
