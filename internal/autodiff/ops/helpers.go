package ops

import (
	"fmt"

	"github.com/spikeml/ember/internal/tensor"
)

// reduceBroadcast reduces a gradient to match the target input shape after
// a broadcasting forward pass.
//
// Example:
//
//	Forward: a[128,10] + b[10] -> c[128,10]  (b was broadcast along dim 0)
//	Backward: grad_c[128,10] -> grad_b[10]   (sum along dim 0)
func reduceBroadcast(grad *tensor.RawTensor, target tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	// Clone when shapes already match so later inplace accumulation cannot
	// modify a gradient shared between inputs.
	if grad.Shape().Equal(target) {
		return grad.Clone()
	}

	result := grad

	// Sum away leading dimensions the input never had.
	for len(result.Shape()) > len(target) {
		result = backend.SumDim(result, 0, false)
	}

	// Sum along dimensions the input held at size 1.
	for d, size := range target {
		if size == 1 && result.Shape()[d] > 1 {
			result = backend.SumDim(result, d, true)
		}
	}

	if !result.Shape().Equal(target) {
		result = backend.Reshape(result, target)
	}
	return result
}

// expandTo broadcasts a gradient up to the input shape of a reduction.
// Adding to a zero tensor reuses the backend's broadcasting machinery.
func expandTo(grad *tensor.RawTensor, target tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(target) {
		return grad.Clone()
	}

	zeros, err := tensor.NewRaw(target, grad.DType(), grad.Device())
	if err != nil {
		panic(fmt.Sprintf("expandTo: %v", err))
	}
	return backend.Add(zeros, grad)
}

// negate returns -grad as a fresh tensor.
func negate(grad *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	return backend.MulScalar(grad, -1.0)
}
