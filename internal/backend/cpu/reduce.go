package cpu

import (
	"fmt"

	"github.com/spikeml/ember/internal/tensor"
)

// Sum reduces all elements to a single value, returned as a Shape{1} tensor
// so it composes with the scalar conventions of the loss ops.
func (cpu *CPUBackend) Sum(t *tensor.RawTensor) *tensor.RawTensor {
	result := mustNewRaw(tensor.Shape{1}, t.DType(), cpu.device, "sum")

	switch t.DType() {
	case tensor.Float32:
		result.AsFloat32()[0] = sumAll(t.AsFloat32())
	case tensor.Float64:
		result.AsFloat64()[0] = sumAll(t.AsFloat64())
	case tensor.Int32:
		result.AsInt32()[0] = sumAll(t.AsInt32())
	case tensor.Int64:
		result.AsInt64()[0] = sumAll(t.AsInt64())
	default:
		panic(fmt.Sprintf("sum: unsupported dtype %s", t.DType()))
	}
	return result
}

func sumAll[T number](data []T) T {
	var total T
	for _, v := range data {
		total += v
	}
	return total
}

// SumDim sums along one dimension. With keepDim the reduced dimension stays
// as size 1, otherwise it is removed.
func (cpu *CPUBackend) SumDim(t *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	outer, dimSize, inner := reduceExtents("sum_dim", t.Shape(), dim)
	result := mustNewRaw(reducedShape(t.Shape(), dim, keepDim), t.DType(), cpu.device, "sum_dim")

	switch t.DType() {
	case tensor.Float32:
		sumDimKernel(result.AsFloat32(), t.AsFloat32(), outer, dimSize, inner)
	case tensor.Float64:
		sumDimKernel(result.AsFloat64(), t.AsFloat64(), outer, dimSize, inner)
	case tensor.Int32:
		sumDimKernel(result.AsInt32(), t.AsInt32(), outer, dimSize, inner)
	case tensor.Int64:
		sumDimKernel(result.AsInt64(), t.AsInt64(), outer, dimSize, inner)
	default:
		panic(fmt.Sprintf("sum_dim: unsupported dtype %s", t.DType()))
	}
	return result
}

// MeanDim averages along one dimension. Float tensors only.
func (cpu *CPUBackend) MeanDim(t *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	outer, dimSize, inner := reduceExtents("mean_dim", t.Shape(), dim)
	result := mustNewRaw(reducedShape(t.Shape(), dim, keepDim), t.DType(), cpu.device, "mean_dim")

	switch t.DType() {
	case tensor.Float32:
		sumDimKernel(result.AsFloat32(), t.AsFloat32(), outer, dimSize, inner)
		scale := 1 / float32(dimSize)
		for i, v := range result.AsFloat32() {
			result.AsFloat32()[i] = v * scale
		}
	case tensor.Float64:
		sumDimKernel(result.AsFloat64(), t.AsFloat64(), outer, dimSize, inner)
		scale := 1 / float64(dimSize)
		for i, v := range result.AsFloat64() {
			result.AsFloat64()[i] = v * scale
		}
	default:
		panic(fmt.Sprintf("mean_dim: requires a float tensor, got %s", t.DType()))
	}
	return result
}

func sumDimKernel[T number](dst, src []T, outer, dimSize, inner int) {
	for o := 0; o < outer; o++ {
		srcBase := o * dimSize * inner
		dstBase := o * inner
		for j := 0; j < dimSize; j++ {
			rowBase := srcBase + j*inner
			for i := 0; i < inner; i++ {
				dst[dstBase+i] += src[rowBase+i]
			}
		}
	}
}

// Argmax returns the index of the largest element along dim as an Int32
// tensor with that dimension removed. Ties resolve to the lowest index.
func (cpu *CPUBackend) Argmax(t *tensor.RawTensor, dim int) *tensor.RawTensor {
	outer, dimSize, inner := reduceExtents("argmax", t.Shape(), dim)
	result := mustNewRaw(reducedShape(t.Shape(), dim, false), tensor.Int32, cpu.device, "argmax")

	switch t.DType() {
	case tensor.Float32:
		argmaxKernel(result.AsInt32(), t.AsFloat32(), outer, dimSize, inner)
	case tensor.Float64:
		argmaxKernel(result.AsInt32(), t.AsFloat64(), outer, dimSize, inner)
	case tensor.Int32:
		argmaxKernel(result.AsInt32(), t.AsInt32(), outer, dimSize, inner)
	case tensor.Int64:
		argmaxKernel(result.AsInt32(), t.AsInt64(), outer, dimSize, inner)
	default:
		panic(fmt.Sprintf("argmax: unsupported dtype %s", t.DType()))
	}
	return result
}

func argmaxKernel[T number](dst []int32, src []T, outer, dimSize, inner int) {
	for o := 0; o < outer; o++ {
		srcBase := o * dimSize * inner
		dstBase := o * inner
		for i := 0; i < inner; i++ {
			best := src[srcBase+i]
			bestIdx := int32(0)
			for j := 1; j < dimSize; j++ {
				if v := src[srcBase+j*inner+i]; v > best {
					best = v
					bestIdx = int32(j)
				}
			}
			dst[dstBase+i] = bestIdx
		}
	}
}

// reduceExtents splits a shape into the element counts before, at, and after
// the reduced dimension.
func reduceExtents(op string, shape tensor.Shape, dim int) (outer, dimSize, inner int) {
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("%s: invalid dim %d for shape %v", op, dim, shape))
	}
	outer, inner = 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	return outer, shape[dim], inner
}

// reducedShape removes or collapses the reduced dimension. Reducing the only
// dimension of a 1D tensor yields Shape{1}.
func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	if keepDim {
		out := shape.Clone()
		out[dim] = 1
		return out
	}
	if len(shape) == 1 {
		return tensor.Shape{1}
	}
	out := make(tensor.Shape, 0, len(shape)-1)
	for i, d := range shape {
		if i != dim {
			out = append(out, d)
		}
	}
	return out
}
