package cpu

import (
	"fmt"

	"github.com/spikeml/ember/internal/parallel"
	"github.com/spikeml/ember/internal/tensor"
)

// AddScalar adds a scalar to every element.
func (cpu *CPUBackend) AddScalar(t *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("add_scalar", t, scalar, addKernel)
}

// SubScalar subtracts a scalar from every element.
func (cpu *CPUBackend) SubScalar(t *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("sub_scalar", t, scalar, subKernel)
}

// MulScalar multiplies every element by a scalar.
func (cpu *CPUBackend) MulScalar(t *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("mul_scalar", t, scalar, mulKernel)
}

// DivScalar divides every element by a scalar.
func (cpu *CPUBackend) DivScalar(t *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("div_scalar", t, scalar, divKernel)
}

func (cpu *CPUBackend) scalarOp(name string, t *tensor.RawTensor, scalar any, k kernel) *tensor.RawTensor {
	result := mustNewRaw(t.Shape(), t.DType(), cpu.device, name)

	switch t.DType() {
	case tensor.Float32:
		scalarKernel(k, result.AsFloat32(), t.AsFloat32(), toFloat64(name, scalar), cpu.par)
	case tensor.Float64:
		scalarKernel(k, result.AsFloat64(), t.AsFloat64(), toFloat64(name, scalar), cpu.par)
	case tensor.Int32:
		scalarKernel(k, result.AsInt32(), t.AsInt32(), toFloat64(name, scalar), cpu.par)
	case tensor.Int64:
		scalarKernel(k, result.AsInt64(), t.AsInt64(), toFloat64(name, scalar), cpu.par)
	case tensor.Uint8:
		scalarKernel(k, result.AsUint8(), t.AsUint8(), toFloat64(name, scalar), cpu.par)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, t.DType()))
	}
	return result
}

func scalarKernel[T number](k kernel, dst, src []T, scalar float64, cfg parallel.Config) {
	s := T(scalar)
	parallel.ForRange(len(dst), func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = apply(k, src[i], s)
		}
	}, cfg)
}

// toFloat64 normalizes the accepted scalar types. float64 carries every
// supported dtype's values exactly except the extremes of int64, which the
// training code never touches.
func toFloat64(op string, scalar any) float64 {
	switch s := scalar.(type) {
	case float32:
		return float64(s)
	case float64:
		return s
	case int:
		return float64(s)
	case int32:
		return float64(s)
	case int64:
		return float64(s)
	case uint8:
		return float64(s)
	default:
		panic(fmt.Sprintf("%s: unsupported scalar type %T", op, scalar))
	}
}
