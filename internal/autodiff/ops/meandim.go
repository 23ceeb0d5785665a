package ops

import "github.com/spikeml/ember/internal/tensor"

// MeanDimOp represents a mean reduction along one dimension.
//
// Backward: like SumDimOp but each element's contribution is scaled by
// 1/dimSize, matching the forward averaging.
type MeanDimOp struct {
	input   *tensor.RawTensor
	output  *tensor.RawTensor
	dim     int
	keepDim bool
}

// NewMeanDimOp creates a new MeanDimOp.
func NewMeanDimOp(input, output *tensor.RawTensor, dim int, keepDim bool) *MeanDimOp {
	return &MeanDimOp{
		input:   input,
		output:  output,
		dim:     dim,
		keepDim: keepDim,
	}
}

// Backward broadcasts the gradient back and divides by the reduced extent.
func (op *MeanDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := outputGrad
	if !op.keepDim {
		grad = backend.Reshape(grad, keepDimShape(op.input.Shape(), op.dim))
	}
	expanded := expandTo(grad, op.input.Shape(), backend)
	return []*tensor.RawTensor{backend.DivScalar(expanded, op.input.Shape()[op.dim])}
}

// Inputs returns the input tensor [x].
func (op *MeanDimOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the reduced tensor.
func (op *MeanDimOp) Output() *tensor.RawTensor {
	return op.output
}
