package cpu

import (
	"fmt"
	"math"

	"github.com/chewxy/math32"

	"github.com/spikeml/ember/internal/parallel"
	"github.com/spikeml/ember/internal/tensor"
)

// Exp computes e^x element-wise.
func (cpu *CPUBackend) Exp(t *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloatOp("exp", t, math32.Exp, math.Exp)
}

// Log computes the natural logarithm element-wise.
func (cpu *CPUBackend) Log(t *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloatOp("log", t, math32.Log, math.Log)
}

// Sqrt computes the square root element-wise.
func (cpu *CPUBackend) Sqrt(t *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloatOp("sqrt", t, math32.Sqrt, math.Sqrt)
}

func (cpu *CPUBackend) unaryFloatOp(name string, t *tensor.RawTensor,
	f32 func(float32) float32, f64 func(float64) float64) *tensor.RawTensor {

	result := mustNewRaw(t.Shape(), t.DType(), cpu.device, name)

	switch t.DType() {
	case tensor.Float32:
		dst, src := result.AsFloat32(), t.AsFloat32()
		parallel.ForRange(len(src), func(start, end int) {
			for i := start; i < end; i++ {
				dst[i] = f32(src[i])
			}
		}, cpu.par)
	case tensor.Float64:
		dst, src := result.AsFloat64(), t.AsFloat64()
		parallel.ForRange(len(src), func(start, end int) {
			for i := start; i < end; i++ {
				dst[i] = f64(src[i])
			}
		}, cpu.par)
	default:
		panic(fmt.Sprintf("%s: requires a float tensor, got %s", name, t.DType()))
	}
	return result
}

// Softmax computes softmax along the given dimension with max-shifting for
// numerical stability. Only 2D tensors with dim=1 are supported, the shape
// every classifier head in this codebase produces.
func (cpu *CPUBackend) Softmax(t *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := t.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("softmax: requires a 2D tensor, got %v", shape))
	}
	if dim != 1 && dim != -1 {
		panic(fmt.Sprintf("softmax: only dim=1 is supported, got %d", dim))
	}

	result := mustNewRaw(shape, t.DType(), cpu.device, "softmax")
	rows, cols := shape[0], shape[1]

	switch t.DType() {
	case tensor.Float32:
		src, dst := t.AsFloat32(), result.AsFloat32()
		parallel.For(rows, func(r int) {
			softmaxRow32(dst[r*cols:(r+1)*cols], src[r*cols:(r+1)*cols])
		}, cpu.par)
	case tensor.Float64:
		src, dst := t.AsFloat64(), result.AsFloat64()
		parallel.For(rows, func(r int) {
			softmaxRow64(dst[r*cols:(r+1)*cols], src[r*cols:(r+1)*cols])
		}, cpu.par)
	default:
		panic(fmt.Sprintf("softmax: requires a float tensor, got %s", t.DType()))
	}
	return result
}

func softmaxRow32(dst, src []float32) {
	maxVal := src[0]
	for _, v := range src[1:] {
		if v > maxVal {
			maxVal = v
		}
	}
	var sum float32
	for i, v := range src {
		e := math32.Exp(v - maxVal)
		dst[i] = e
		sum += e
	}
	for i := range dst {
		dst[i] /= sum
	}
}

func softmaxRow64(dst, src []float64) {
	maxVal := src[0]
	for _, v := range src[1:] {
		if v > maxVal {
			maxVal = v
		}
	}
	var sum float64
	for i, v := range src {
		e := math.Exp(v - maxVal)
		dst[i] = e
		sum += e
	}
	for i := range dst {
		dst[i] /= sum
	}
}
