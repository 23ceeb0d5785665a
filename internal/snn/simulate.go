package snn

import (
	"github.com/spikeml/ember/internal/nn"
	"github.com/spikeml/ember/internal/tensor"
)

// Trajectory is the output stage's activity over a full simulation.
// Spikes[t] and Membranes[t] hold the spikes and membrane potential after
// step t, each shaped (batch, outputs).
type Trajectory[B tensor.Backend] struct {
	Spikes    []*tensor.Tensor[float32, B]
	Membranes []*tensor.Tensor[float32, B]
}

// Simulator unrolls a network over a fixed number of timesteps, feeding
// the same static input at every step.
type Simulator[B tensor.Backend] struct {
	network *Network[B]
	steps   int
}

// NewSimulator wraps a network with a step count.
func NewSimulator[B tensor.Backend](network *Network[B], steps int) *Simulator[B] {
	return &Simulator[B]{network: network, steps: steps}
}

// Run simulates one batch from fresh zero state and collects the output
// stage's trajectory.
//
// The input shape is validated before any tensor work. After every step
// both stages' potentials are scanned; a NaN or Inf aborts with an
// nn.NonFiniteError naming the step. No state survives the call and the
// forward pass is free of randomness, so identical parameters and input
// produce identical trajectories.
func (s *Simulator[B]) Run(input *tensor.Tensor[float32, B]) (*Trajectory[B], error) {
	if err := s.network.ValidateInput(input); err != nil {
		return nil, err
	}

	batch := input.Shape()[0]
	state := s.network.InitState(batch)
	traj := &Trajectory[B]{
		Spikes:    make([]*tensor.Tensor[float32, B], 0, s.steps),
		Membranes: make([]*tensor.Tensor[float32, B], 0, s.steps),
	}

	for t := 0; t < s.steps; t++ {
		var spikes *tensor.Tensor[float32, B]
		spikes, state = s.network.Step(input, state)

		if err := nn.CheckFinite(state.Mem1.Raw(), t, "hidden potential"); err != nil {
			return nil, err
		}
		if err := nn.CheckFinite(state.Mem2.Raw(), t, "output potential"); err != nil {
			return nil, err
		}

		traj.Spikes = append(traj.Spikes, spikes)
		traj.Membranes = append(traj.Membranes, state.Mem2)
	}
	return traj, nil
}

// Steps returns the number of simulated timesteps.
func (s *Simulator[B]) Steps() int {
	return s.steps
}

// Network returns the simulated network.
func (s *Simulator[B]) Network() *Network[B] {
	return s.network
}
