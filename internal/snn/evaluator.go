package snn

import (
	"github.com/spikeml/ember/internal/dataset"
	"github.com/spikeml/ember/internal/nn"
	"github.com/spikeml/ember/internal/tensor"
)

// SpikeCounts sums a spike trajectory over time into a (batch, classes)
// count tensor. Panics on an empty trajectory.
func SpikeCounts[B tensor.Backend](spikes []*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if len(spikes) == 0 {
		panic("spike counts: empty trajectory")
	}
	// Accumulate into a fresh tensor; seeding from spikes[0] would let the
	// backend's inplace path overwrite the caller's trajectory.
	counts := tensor.Zeros[float32](spikes[0].Shape(), spikes[0].Backend())
	for _, spk := range spikes {
		counts = counts.Add(spk)
	}
	return counts
}

// Predictions returns the class with the highest spike count per row.
// Ties resolve to the lowest class index.
func Predictions[B tensor.Backend](spikes []*tensor.Tensor[float32, B]) *tensor.Tensor[int32, B] {
	return tensor.Argmax(SpikeCounts(spikes), 1)
}

// Accuracy is the fraction of rows whose prediction matches the label.
func Accuracy[B tensor.Backend](predictions, labels *tensor.Tensor[int32, B]) float64 {
	preds := predictions.Data()
	want := labels.Data()
	if len(preds) == 0 {
		return 0
	}
	correct := 0
	for i := range preds {
		if preds[i] == want[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(preds))
}

// Evaluator measures classification accuracy by counting output spikes
// over a simulation. It never mutates network parameters and leaves no
// residual state, so repeated evaluations of the same data agree.
type Evaluator[B tensor.Backend] struct {
	sim     *Simulator[B]
	backend B
}

// NewEvaluator wraps a simulator for accuracy measurement.
func NewEvaluator[B tensor.Backend](sim *Simulator[B], backend B) *Evaluator[B] {
	return &Evaluator[B]{sim: sim, backend: backend}
}

// Predict simulates one batch of features and returns the predicted class
// per row.
func (e *Evaluator[B]) Predict(features *tensor.Tensor[float32, B]) (*tensor.Tensor[int32, B], error) {
	traj, err := e.sim.Run(features)
	if err != nil {
		return nil, err
	}
	return Predictions(traj.Spikes), nil
}

// EvaluateBatch returns the number of correct predictions in one batch.
// Labels are validated against the network's class count first.
func (e *Evaluator[B]) EvaluateBatch(batch *dataset.Batch[B]) (int, error) {
	if err := nn.ValidateLabels(batch.Labels.Raw(), e.sim.Network().NumOutputs()); err != nil {
		return 0, err
	}
	preds, err := e.Predict(batch.Features)
	if err != nil {
		return 0, err
	}
	predData := preds.Data()
	want := batch.Labels.Data()
	correct := 0
	for i := range predData {
		if predData[i] == want[i] {
			correct++
		}
	}
	return correct, nil
}

// EvaluateDataset returns accuracy over every sample, batched in order
// without shuffling. The trailing short batch is evaluated too, so the
// result covers the whole dataset.
func (e *Evaluator[B]) EvaluateDataset(d *dataset.Dataset, batchSize int) (float64, error) {
	batches, err := dataset.Batches(d, batchSize, nil, false, e.backend)
	if err != nil {
		return 0, err
	}
	correct, total := 0, 0
	for _, batch := range batches {
		c, err := e.EvaluateBatch(batch)
		if err != nil {
			return 0, err
		}
		correct += c
		total += batch.Size
	}
	if total == 0 {
		return 0, nil
	}
	return float64(correct) / float64(total), nil
}
