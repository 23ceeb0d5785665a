// Package ops defines the differentiable operations recorded on the
// gradient tape during the forward pass.
//
// Each operation implements the Operation interface: the forward result is
// computed by the backend, and Backward turns the output gradient into
// input gradients via the chain rule.
//
// Supported operations:
//   - AddOp, SubOp, MulOp, DivOp: element-wise arithmetic with broadcasting
//   - MatMulOp: matrix multiplication (d(A@B)/dA = grad@B^T, d(A@B)/dB = A^T@grad)
//   - TransposeOp, ReshapeOp: shape operations (gradient is reshaped back)
//   - MulScalarOp, AddScalarOp, SubScalarOp, DivScalarOp: scalar arithmetic
//   - ExpOp, LogOp, SqrtOp: element-wise math
//   - SoftmaxOp: row-wise softmax
//   - SumDimOp, MeanDimOp: reductions (gradient broadcasts back)
//   - SpikeOp: threshold crossing with a surrogate backward slope
//   - CrossEntropyOp: fused softmax + negative log-likelihood
package ops

import "github.com/spikeml/ember/internal/tensor"

// Operation is one node of the recorded computation graph. It remembers its
// input and output tensors from the forward pass and computes input
// gradients during the backward walk.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// The returned slice corresponds position-wise to Inputs().
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors of this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the tensor this operation produced.
	Output() *tensor.RawTensor
}
