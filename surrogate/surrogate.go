// Package surrogate provides surrogate gradients for the spike step
// function.
//
// The forward pass of a spiking neuron is a Heaviside step whose true
// derivative is zero almost everywhere, so nothing would train. During
// backprop the step's derivative is replaced by one of these smooth
// stand-ins, evaluated at the membrane potential's distance from
// threshold.
//
// Example:
//
//	grad := surrogate.NewAtan()
//	lif := nn.NewLeaky(0.95, 1.0, grad, backend)
package surrogate

import (
	"github.com/spikeml/ember/internal/surrogate"
)

// Gradient evaluates the backward slope of the spike nonlinearity at u,
// the membrane potential's distance from threshold.
type Gradient = surrogate.Gradient

// Atan is the arctangent surrogate.
type Atan = surrogate.Atan

// NewAtan returns the arctangent surrogate with the default width of 2.
func NewAtan() Atan {
	return surrogate.NewAtan()
}

// FastSigmoid is the fast sigmoid surrogate.
type FastSigmoid = surrogate.FastSigmoid

// NewFastSigmoid returns the fast sigmoid surrogate with the default
// slope of 25.
func NewFastSigmoid() FastSigmoid {
	return surrogate.NewFastSigmoid()
}

// New returns the named surrogate ("atan" or "fast_sigmoid") with its
// default parameters.
func New(name string) (Gradient, error) {
	return surrogate.New(name)
}
