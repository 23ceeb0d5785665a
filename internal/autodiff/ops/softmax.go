package ops

import "github.com/spikeml/ember/internal/tensor"

// SoftmaxOp represents row-wise softmax over a 2D tensor.
//
// Backward:
//
//	The softmax Jacobian is ∂softmax_i/∂x_j = softmax_i * (δ_ij - softmax_j),
//	which under the chain rule collapses to
//
//	∂L/∂x[b,j] = softmax[b,j] * (∂L/∂softmax[b,j] - dot(∂L/∂softmax[b,:], softmax[b,:]))
type SoftmaxOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor // cached softmax values for backward
}

// NewSoftmaxOp creates a new SoftmaxOp.
func NewSoftmaxOp(input, output *tensor.RawTensor) *SoftmaxOp {
	return &SoftmaxOp{input: input, output: output}
}

// Backward applies the collapsed Jacobian formula row by row.
func (op *SoftmaxOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	shape := op.input.Shape()
	if len(shape) != 2 {
		panic("SoftmaxOp: backward only supports 2D tensors [batch, classes]")
	}
	rows, cols := shape[0], shape[1]

	inputGrad, err := tensor.NewRaw(shape, op.input.DType(), op.input.Device())
	if err != nil {
		panic(err)
	}

	switch op.input.DType() {
	case tensor.Float32:
		softmaxBackwardRows(inputGrad.AsFloat32(), outputGrad.AsFloat32(), op.output.AsFloat32(), rows, cols)
	case tensor.Float64:
		softmaxBackwardRows(inputGrad.AsFloat64(), outputGrad.AsFloat64(), op.output.AsFloat64(), rows, cols)
	default:
		panic("SoftmaxOp: backward only supports float32 and float64")
	}

	return []*tensor.RawTensor{inputGrad}
}

func softmaxBackwardRows[T ~float32 | ~float64](inGrad, outGrad, softmax []T, rows, cols int) {
	for r := 0; r < rows; r++ {
		base := r * cols

		var dot T
		for j := 0; j < cols; j++ {
			dot += outGrad[base+j] * softmax[base+j]
		}
		for j := 0; j < cols; j++ {
			inGrad[base+j] = softmax[base+j] * (outGrad[base+j] - dot)
		}
	}
}

// Inputs returns the input tensor [x].
func (op *SoftmaxOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the softmax tensor.
func (op *SoftmaxOp) Output() *tensor.RawTensor {
	return op.output
}
