package ops

import "github.com/spikeml/ember/internal/tensor"

// ExpOp represents element-wise exponentiation: output = e^x.
//
// Backward: d(e^x)/dx = e^x, so grad_x = outputGrad * output.
type ExpOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewExpOp creates a new ExpOp.
func NewExpOp(input, output *tensor.RawTensor) *ExpOp {
	return &ExpOp{input: input, output: output}
}

// Backward reuses the cached forward output as the local derivative.
func (op *ExpOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Mul(outputGrad, op.output)}
}

// Inputs returns the input tensor [x].
func (op *ExpOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor e^x.
func (op *ExpOp) Output() *tensor.RawTensor {
	return op.output
}
