// Package nn implements the neural network building blocks of the library:
//   - Module interface: base interface for stateless layers
//   - Parameter: trainable parameters with gradient tracking
//   - Linear: fully connected layer
//   - Leaky: leaky integrate-and-fire spiking neuron layer
//   - CrossEntropyLoss: fused softmax + NLL classification loss
//
// Stateless layers implement Module. Spiking layers carry no hidden state
// either; their membrane potential is threaded explicitly through Step,
// which keeps an unrolled simulation a pure function of its inputs.
package nn

import (
	"github.com/spikeml/ember/internal/tensor"
)

// Module is the base interface for stateless network components.
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module.
	// Modules without trainable parameters return an empty slice.
	Parameters() []*Parameter[B]
}
