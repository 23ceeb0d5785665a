// Package nn provides neural network layers and building blocks.
//
// # Overview
//
// This package contains:
//   - Layers: Linear, Leaky (leaky integrate-and-fire neurons)
//   - Loss functions: CrossEntropyLoss
//   - Utilities: Module interface, Parameter
//   - Initialization: XavierUniform, KaimingUniform
//   - Validation: CheckFinite, ValidateLabels and the error types they return
//
// # Basic Usage
//
//	import (
//	    "github.com/spikeml/ember/backend/cpu"
//	    "github.com/spikeml/ember/nn"
//	    "github.com/spikeml/ember/surrogate"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    rng := rand.New(rand.NewSource(42))
//
//	    fc := nn.NewLinear(784, 1000, rng, backend)
//	    lif := nn.NewLeaky(0.95, 1.0, surrogate.NewAtan(), backend)
//
//	    mem := lif.InitState(batch, 1000)
//	    for t := 0; t < steps; t++ {
//	        var spikes *tensor.Tensor[float32, B]
//	        spikes, mem = lif.Step(fc.Forward(input), mem)
//	    }
//	}
//
// # Spiking Layers
//
// Leaky carries no hidden state. Its membrane potential is threaded
// explicitly through Step, so an unrolled simulation is a pure function
// of its inputs and every unroll starts from a state the caller built
// with InitState.
//
// # Loss Functions
//
// CrossEntropyLoss fuses softmax and negative log-likelihood for
// numerical stability and returns the batch mean as a scalar tensor:
//
//	criterion := nn.NewCrossEntropyLoss(backend)
//	loss, err := criterion.Forward(logits, labels)
package nn
