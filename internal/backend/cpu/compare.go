package cpu

import (
	"fmt"

	"github.com/spikeml/ember/internal/tensor"
)

// Greater compares element-wise and returns a Bool tensor of a > b.
func (cpu *CPUBackend) Greater(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.compareOp("greater", a, b, false)
}

// GreaterEqual compares element-wise and returns a Bool tensor of a >= b.
func (cpu *CPUBackend) GreaterEqual(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.compareOp("greater_equal", a, b, true)
}

func (cpu *CPUBackend) compareOp(name string, a, b *tensor.RawTensor, orEqual bool) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch: %s vs %s", name, a.DType(), b.DType()))
	}
	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("%s: shape mismatch: %v vs %v", name, a.Shape(), b.Shape()))
	}

	result := mustNewRaw(a.Shape(), tensor.Bool, cpu.device, name)

	switch a.DType() {
	case tensor.Float32:
		compareKernel(result.AsBool(), a.AsFloat32(), b.AsFloat32(), orEqual)
	case tensor.Float64:
		compareKernel(result.AsBool(), a.AsFloat64(), b.AsFloat64(), orEqual)
	case tensor.Int32:
		compareKernel(result.AsBool(), a.AsInt32(), b.AsInt32(), orEqual)
	case tensor.Int64:
		compareKernel(result.AsBool(), a.AsInt64(), b.AsInt64(), orEqual)
	case tensor.Uint8:
		compareKernel(result.AsBool(), a.AsUint8(), b.AsUint8(), orEqual)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}
	return result
}

func compareKernel[T number](dst []bool, a, b []T, orEqual bool) {
	if orEqual {
		for i := range dst {
			dst[i] = a[i] >= b[i]
		}
		return
	}
	for i := range dst {
		dst[i] = a[i] > b[i]
	}
}
