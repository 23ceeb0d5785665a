// Package cpu provides the CPU compute backend.
//
// # Overview
//
// The CPU backend implements every tensor operation in pure Go. Matrix
// multiplication goes through gonum's BLAS GEMM kernels; element-wise
// kernels split across cores when tensors are large enough to amortize
// the goroutine overhead.
//
// # Usage
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{128, 784}, backend)
//
// The backend is stateless and safe for concurrent use. For training,
// wrap it with the autodiff decorator:
//
//	recording := autodiff.New(cpu.New())
package cpu
