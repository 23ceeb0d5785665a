package cpu

import (
	"fmt"

	"github.com/spikeml/ember/internal/parallel"
	"github.com/spikeml/ember/internal/tensor"
)

// number covers the dtypes elementwise arithmetic is defined on.
type number interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~uint8
}

// kernel identifies a binary elementwise operation for the dispatcher.
type kernel int

const (
	addKernel kernel = iota
	subKernel
	mulKernel
	divKernel
)

func apply[T number](k kernel, a, b T) T {
	switch k {
	case addKernel:
		return a + b
	case subKernel:
		return a - b
	case mulKernel:
		return a * b
	case divKernel:
		return a / b
	default:
		panic(fmt.Sprintf("unknown kernel %d", k))
	}
}

// applyInplace writes a op= b into a's buffer. Caller guarantees matching
// shapes and unique ownership of a.
func applyInplace(name string, a, b *tensor.RawTensor, k kernel, cfg parallel.Config) {
	switch a.DType() {
	case tensor.Float32:
		inplaceKernel(k, a.AsFloat32(), b.AsFloat32(), cfg)
	case tensor.Float64:
		inplaceKernel(k, a.AsFloat64(), b.AsFloat64(), cfg)
	case tensor.Int32:
		inplaceKernel(k, a.AsInt32(), b.AsInt32(), cfg)
	case tensor.Int64:
		inplaceKernel(k, a.AsInt64(), b.AsInt64(), cfg)
	case tensor.Uint8:
		inplaceKernel(k, a.AsUint8(), b.AsUint8(), cfg)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}
}

func inplaceKernel[T number](k kernel, dst, src []T, cfg parallel.Config) {
	parallel.ForRange(len(dst), func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = apply(k, dst[i], src[i])
		}
	}, cfg)
}

// applyVectorized writes a op b into out. Caller guarantees matching shapes.
func applyVectorized(name string, out, a, b *tensor.RawTensor, k kernel, cfg parallel.Config) {
	switch a.DType() {
	case tensor.Float32:
		vectorKernel(k, out.AsFloat32(), a.AsFloat32(), b.AsFloat32(), cfg)
	case tensor.Float64:
		vectorKernel(k, out.AsFloat64(), a.AsFloat64(), b.AsFloat64(), cfg)
	case tensor.Int32:
		vectorKernel(k, out.AsInt32(), a.AsInt32(), b.AsInt32(), cfg)
	case tensor.Int64:
		vectorKernel(k, out.AsInt64(), a.AsInt64(), b.AsInt64(), cfg)
	case tensor.Uint8:
		vectorKernel(k, out.AsUint8(), a.AsUint8(), b.AsUint8(), cfg)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}
}

func vectorKernel[T number](k kernel, dst, a, b []T, cfg parallel.Config) {
	parallel.ForRange(len(dst), func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = apply(k, a[i], b[i])
		}
	}, cfg)
}

// applyBroadcast writes a op b into out with NumPy-style right-aligned
// broadcasting. Index math dominates here so it stays sequential.
func applyBroadcast(name string, out, a, b *tensor.RawTensor, outShape tensor.Shape, k kernel) {
	switch a.DType() {
	case tensor.Float32:
		broadcastKernel(k, out.AsFloat32(), a.AsFloat32(), b.AsFloat32(), outShape, a.Shape(), b.Shape())
	case tensor.Float64:
		broadcastKernel(k, out.AsFloat64(), a.AsFloat64(), b.AsFloat64(), outShape, a.Shape(), b.Shape())
	case tensor.Int32:
		broadcastKernel(k, out.AsInt32(), a.AsInt32(), b.AsInt32(), outShape, a.Shape(), b.Shape())
	case tensor.Int64:
		broadcastKernel(k, out.AsInt64(), a.AsInt64(), b.AsInt64(), outShape, a.Shape(), b.Shape())
	case tensor.Uint8:
		broadcastKernel(k, out.AsUint8(), a.AsUint8(), b.AsUint8(), outShape, a.Shape(), b.Shape())
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}
}

func broadcastKernel[T number](k kernel, dst, a, b []T, outShape, aShape, bShape tensor.Shape) {
	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)

	n := outShape.NumElements()
	for i := 0; i < n; i++ {
		aIdx, bIdx := 0, 0
		rem := i
		for d := 0; d < len(outShape); d++ {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			aIdx += coord * aStrides[d]
			bIdx += coord * bStrides[d]
		}
		dst[i] = apply(k, a[aIdx], b[bIdx])
	}
}

// broadcastStrides maps an input shape onto the output's dimensions,
// right-aligned, with stride 0 on broadcast dimensions.
func broadcastStrides(in, out tensor.Shape) []int {
	inStrides := in.ComputeStrides()
	strides := make([]int, len(out))
	offset := len(out) - len(in)
	for d := range out {
		if d < offset {
			continue
		}
		if in[d-offset] == 1 && out[d] != 1 {
			continue
		}
		strides[d] = inStrides[d-offset]
	}
	return strides
}

// transposeData copies t's elements into result following the axis permutation.
func transposeData(result, t *tensor.RawTensor, axes []int) {
	switch t.DType() {
	case tensor.Float32:
		permuteCopy(result.AsFloat32(), t.AsFloat32(), t.Shape(), result.Shape(), axes)
	case tensor.Float64:
		permuteCopy(result.AsFloat64(), t.AsFloat64(), t.Shape(), result.Shape(), axes)
	case tensor.Int32:
		permuteCopy(result.AsInt32(), t.AsInt32(), t.Shape(), result.Shape(), axes)
	case tensor.Int64:
		permuteCopy(result.AsInt64(), t.AsInt64(), t.Shape(), result.Shape(), axes)
	case tensor.Uint8:
		permuteCopy(result.AsUint8(), t.AsUint8(), t.Shape(), result.Shape(), axes)
	case tensor.Bool:
		permuteCopy(result.AsBool(), t.AsBool(), t.Shape(), result.Shape(), axes)
	default:
		panic(fmt.Sprintf("transpose: unsupported dtype %s", t.DType()))
	}
}

func permuteCopy[T any](dst, src []T, srcShape, dstShape tensor.Shape, axes []int) {
	srcStrides := srcShape.ComputeStrides()
	dstStrides := dstShape.ComputeStrides()

	n := srcShape.NumElements()
	for i := 0; i < n; i++ {
		srcIdx := 0
		rem := i
		for d := 0; d < len(dstShape); d++ {
			coord := rem / dstStrides[d]
			rem %= dstStrides[d]
			srcIdx += coord * srcStrides[axes[d]]
		}
		dst[i] = src[srcIdx]
	}
}
