package nn

import (
	"github.com/spikeml/ember/internal/surrogate"
	"github.com/spikeml/ember/internal/tensor"
)

// Leaky implements a population of leaky integrate-and-fire neurons.
//
// Each neuron carries a membrane potential that decays by a factor beta per
// step, integrates the incoming current, and emits a binary spike when the
// potential reaches the firing threshold:
//
//	U[t] = beta * U[t-1] + I[t] - R[t] * threshold
//	S[t] = 1 if U[t] >= threshold, else 0
//
// R[t] is the reset indicator: 1 where the previous step's potential had
// reached threshold, so a neuron that fired has the threshold subtracted
// from its potential rather than being cleared to zero (subtractive reset).
// The reset path is detached and carries no gradient.
//
// The layer holds no hidden state. Membrane potential is threaded through
// Step explicitly:
//
//	mem := layer.InitState(batch, features)
//	for t := 0; t < steps; t++ {
//		spk, mem = layer.Step(current, mem)
//	}
//
// The spike step function has zero derivative almost everywhere, so
// gradient-recording backends substitute the configured surrogate derivative
// on the backward pass, evaluated at U[t] - threshold.
type Leaky[B tensor.Backend] struct {
	beta      float32
	threshold float32
	grad      surrogate.Gradient
	backend   B
}

// NewLeaky creates a leaky integrate-and-fire layer.
//
// beta is the membrane decay coefficient in (0, 1), threshold the firing
// threshold, and grad the surrogate used for the spike derivative.
func NewLeaky[B tensor.Backend](beta, threshold float32, grad surrogate.Gradient, backend B) *Leaky[B] {
	return &Leaky[B]{
		beta:      beta,
		threshold: threshold,
		grad:      grad,
		backend:   backend,
	}
}

// InitState returns a zeroed membrane potential for a batch. Every unroll
// starts from this baseline; no state leaks between calls.
func (l *Leaky[B]) InitState(batch, features int) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](tensor.Shape{batch, features}, l.backend)
}

// Step advances the neurons by one time step.
//
// input is the incoming current [batch, features] and mem the membrane
// potential carried in from the previous step. Returns the emitted spikes
// and the updated potential, both [batch, features].
func (l *Leaky[B]) Step(input, mem *tensor.Tensor[float32, B]) (spikes, newMem *tensor.Tensor[float32, B]) {
	reset := l.resetValues(mem)

	// U[t] = beta*U[t-1] + I[t] - R[t]*threshold
	newMem = mem.MulScalar(l.beta).Add(input).Sub(reset)
	spikes = l.fire(newMem)
	return spikes, newMem
}

// Beta returns the membrane decay coefficient.
func (l *Leaky[B]) Beta() float32 {
	return l.beta
}

// Threshold returns the firing threshold.
func (l *Leaky[B]) Threshold() float32 {
	return l.threshold
}

// Surrogate returns the gradient substituted for the spike derivative.
func (l *Leaky[B]) Surrogate() surrogate.Gradient {
	return l.grad
}

// Parameters returns an empty slice; the neuron dynamics have no trainable
// parameters.
func (l *Leaky[B]) Parameters() []*Parameter[B] {
	return nil
}

// resetValues builds the R[t]*threshold term from the incoming potential:
// threshold where mem >= threshold, zero elsewhere. The values are written
// directly rather than computed through backend ops, so no gradient flows
// through the reset.
func (l *Leaky[B]) resetValues(mem *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	reset := tensor.Zeros[float32](mem.Shape(), l.backend)
	out := reset.Data()
	for i, v := range mem.Data() {
		if v >= l.threshold {
			out[i] = l.threshold
		}
	}
	return reset
}

// fire emits spikes where the potential has reached threshold.
func (l *Leaky[B]) fire(mem *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shifted := mem.SubScalar(l.threshold)

	// Backends that record gradients expose a Spike op carrying the
	// surrogate derivative.
	type spikeBackend interface {
		Spike(t *tensor.RawTensor, grad surrogate.Gradient) *tensor.RawTensor
	}
	if sb, ok := any(l.backend).(spikeBackend); ok {
		return tensor.New[float32](sb.Spike(shifted.Raw(), l.grad), l.backend)
	}

	// Plain backends get the bare step function.
	spikes := tensor.Zeros[float32](shifted.Shape(), l.backend)
	out := spikes.Data()
	for i, v := range shifted.Data() {
		if v >= 0 {
			out[i] = 1
		}
	}
	return spikes
}
