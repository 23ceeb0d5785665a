// Package surrogate provides smooth stand-in derivatives for the spike
// step function. The forward pass of a spiking neuron is a Heaviside step
// whose true derivative is zero almost everywhere; training replaces it
// with one of these gradients during backprop.
package surrogate

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Gradient evaluates the backward slope of the spike nonlinearity at u,
// the membrane potential's distance from threshold.
type Gradient interface {
	Derivative(u float32) float32
	Name() string
}

// Atan is the arctangent surrogate: the spike derivative is replaced by
// (alpha/2) / (1 + (pi*u*alpha/2)^2), the derivative of a scaled arctan.
type Atan struct {
	Alpha float32
}

// NewAtan returns the arctangent surrogate with the default width of 2.
func NewAtan() Atan {
	return Atan{Alpha: 2.0}
}

func (a Atan) Derivative(u float32) float32 {
	x := math32.Pi * a.Alpha * u / 2
	return (a.Alpha / 2) / (1 + x*x)
}

func (a Atan) Name() string {
	return "atan"
}

// FastSigmoid replaces the spike derivative with 1 / (slope*|u| + 1)^2,
// the derivative of the fast sigmoid u / (1 + slope*|u|).
type FastSigmoid struct {
	Slope float32
}

// NewFastSigmoid returns the fast sigmoid surrogate with the default
// slope of 25.
func NewFastSigmoid() FastSigmoid {
	return FastSigmoid{Slope: 25.0}
}

func (f FastSigmoid) Derivative(u float32) float32 {
	d := f.Slope*math32.Abs(u) + 1
	return 1 / (d * d)
}

func (f FastSigmoid) Name() string {
	return "fast_sigmoid"
}

// New returns the named surrogate with its default parameters.
func New(name string) (Gradient, error) {
	switch name {
	case "atan":
		return NewAtan(), nil
	case "fast_sigmoid":
		return NewFastSigmoid(), nil
	default:
		return nil, fmt.Errorf("unknown surrogate gradient %q", name)
	}
}
