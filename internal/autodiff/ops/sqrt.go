package ops

import "github.com/spikeml/ember/internal/tensor"

// SqrtOp represents the element-wise square root: output = sqrt(x).
//
// Backward: d(sqrt(x))/dx = 1/(2*sqrt(x)), so grad_x = outputGrad * 0.5 / output.
type SqrtOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSqrtOp creates a new SqrtOp.
func NewSqrtOp(input, output *tensor.RawTensor) *SqrtOp {
	return &SqrtOp{input: input, output: output}
}

// Backward computes outputGrad * 0.5 / sqrt(x) using the cached output.
func (op *SqrtOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	halved := backend.MulScalar(outputGrad, 0.5)
	return []*tensor.RawTensor{backend.Div(halved, op.output)}
}

// Inputs returns the input tensor [x].
func (op *SqrtOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor sqrt(x).
func (op *SqrtOp) Output() *tensor.RawTensor {
	return op.output
}
