package ops

import (
	"fmt"

	"github.com/spikeml/ember/internal/surrogate"
	"github.com/spikeml/ember/internal/tensor"
)

// SpikeOp represents the firing nonlinearity of a spiking neuron:
// output = 1 where x >= 0, else 0.
//
// The input is the membrane potential already shifted by the threshold, so
// a neuron sitting exactly at threshold fires. The true derivative of this
// step function is zero almost everywhere, which would stop gradients cold;
// Backward substitutes the smooth surrogate slope evaluated at the same
// distance from threshold.
type SpikeOp struct {
	input    *tensor.RawTensor // shifted membrane potential
	output   *tensor.RawTensor // binary spike tensor
	gradient surrogate.Gradient
}

// NewSpikeOp creates a new SpikeOp.
func NewSpikeOp(input, output *tensor.RawTensor, gradient surrogate.Gradient) *SpikeOp {
	return &SpikeOp{
		input:    input,
		output:   output,
		gradient: gradient,
	}
}

// Backward computes grad_x = outputGrad * surrogate(x).
func (op *SpikeOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	inputGrad, err := tensor.NewRaw(op.input.Shape(), op.input.DType(), op.input.Device())
	if err != nil {
		panic(fmt.Sprintf("spike: failed to create gradient: %v", err))
	}

	switch op.input.DType() {
	case tensor.Float32:
		in := op.input.AsFloat32()
		outGrad := outputGrad.AsFloat32()
		inGrad := inputGrad.AsFloat32()
		for i, u := range in {
			inGrad[i] = outGrad[i] * op.gradient.Derivative(u)
		}
	case tensor.Float64:
		in := op.input.AsFloat64()
		outGrad := outputGrad.AsFloat64()
		inGrad := inputGrad.AsFloat64()
		for i, u := range in {
			inGrad[i] = outGrad[i] * float64(op.gradient.Derivative(float32(u)))
		}
	default:
		panic(fmt.Sprintf("spike: unsupported dtype %s (only float32/float64 supported)", op.input.DType()))
	}

	return []*tensor.RawTensor{inputGrad}
}

// Inputs returns the input tensor [x].
func (op *SpikeOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the binary spike tensor.
func (op *SpikeOp) Output() *tensor.RawTensor {
	return op.output
}

// SpikeForward computes the binary spike tensor for a shifted membrane
// potential: 1 where x >= 0, else 0. Reaching the threshold exactly fires.
//
// This is a helper for use outside an autodiff context; autodiff-aware
// backends pair it with a SpikeOp on the tape.
func SpikeForward(x *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	output, err := tensor.NewRaw(x.Shape(), x.DType(), device)
	if err != nil {
		panic(fmt.Sprintf("spike: failed to create output: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		in := x.AsFloat32()
		out := output.AsFloat32()
		for i, u := range in {
			if u >= 0 {
				out[i] = 1
			}
		}
	case tensor.Float64:
		in := x.AsFloat64()
		out := output.AsFloat64()
		for i, u := range in {
			if u >= 0 {
				out[i] = 1
			}
		}
	default:
		panic(fmt.Sprintf("spike: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}

	return output
}
