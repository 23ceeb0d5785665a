// Package tensor provides type-safe tensor operations for the Ember SNN framework.
//
// # Overview
//
// Tensors are the fundamental data structure in Ember. This package provides:
//   - Generic type-safe tensors (Tensor[T, B])
//   - NumPy-style broadcasting for element-wise operations
//   - Copy-on-write buffers with reference counting
//   - Device abstraction behind the Backend interface
//
// # Basic Usage
//
//	import (
//	    "github.com/spikeml/ember/backend/cpu"
//	    "github.com/spikeml/ember/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    // Create tensors
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//
//	    // Tensor operations
//	    z := x.Add(y)
//	    w := z.MatMul(y.Transpose())
//
//	    // Access data
//	    data := w.Data()
//	}
//
// # Type Safety
//
// The element type and backend are part of the tensor's type, so mixing
// float32 and int32 tensors, or tensors from different backends, fails at
// compile time rather than at run time.
//
// # Backends
//
// All computation is delegated to a Backend implementation:
//   - backend/cpu: pure Go kernels with parallel execution
//   - autodiff: decorator that records operations for backpropagation
//
// Operations that participate in gradient computation go through the
// typed Tensor API; untyped RawTensor access is for backend implementers
// and advanced use.
package tensor
