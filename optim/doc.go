// Package optim provides optimization algorithms for training.
//
// # Overview
//
// This package contains:
//   - SGD: stochastic gradient descent with optional momentum
//   - Adam: adaptive moment estimation with bias correction
//
// # Basic Usage
//
//	import (
//	    "github.com/spikeml/ember/autodiff"
//	    "github.com/spikeml/ember/optim"
//	)
//
//	optimizer := optim.NewAdam(
//	    network.Parameters(),
//	    optim.AdamConfig{LR: 5e-4, Betas: [2]float32{0.9, 0.999}, Eps: 1e-8},
//	    backend,
//	)
//
//	// Training iteration
//	optimizer.ZeroGrad()
//	loss := forward(batch)
//	grads := autodiff.Backward(loss, backend)
//	optimizer.Step(grads)
//
// Optimizers mutate parameter data in place and never record on the
// gradient tape, so a Step between forward passes leaves the tape clean.
package optim
