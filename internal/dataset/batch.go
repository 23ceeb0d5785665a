package dataset

import (
	"fmt"
	"math/rand"

	"github.com/spikeml/ember/internal/tensor"
)

// Batch holds one mini-batch as backend tensors ready for the network.
type Batch[B tensor.Backend] struct {
	Features *tensor.Tensor[float32, B] // [size, features]
	Labels   *tensor.Tensor[int32, B]   // [size]
	Size     int
}

// Batches splits the dataset into mini-batches of backend tensors.
//
// A non-nil rng shuffles sample order first, so reshuffling each epoch is
// the caller passing the same rng again. When the sample count does not
// divide evenly, the final short batch is kept unless dropLast is set;
// training typically drops it so every gradient step sees a full batch,
// while evaluation keeps it to cover the whole dataset.
func Batches[B tensor.Backend](d *Dataset, batchSize int, rng *rand.Rand, dropLast bool, backend B) ([]*Batch[B], error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	numSamples := d.NumSamples()
	if numSamples == 0 {
		return nil, nil
	}
	featureSize := d.NumFeatures()

	indices := make([]int, numSamples)
	for i := range indices {
		indices[i] = i
	}
	if rng != nil {
		rng.Shuffle(numSamples, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	numBatches := (numSamples + batchSize - 1) / batchSize
	batches := make([]*Batch[B], 0, numBatches)

	for start := 0; start < numSamples; start += batchSize {
		end := start + batchSize
		if end > numSamples {
			if dropLast {
				break
			}
			end = numSamples
		}
		size := end - start

		featuresRaw, err := tensor.NewRaw(tensor.Shape{size, featureSize}, tensor.Float32, backend.Device())
		if err != nil {
			return nil, fmt.Errorf("creating feature tensor: %w", err)
		}
		labelsRaw, err := tensor.NewRaw(tensor.Shape{size}, tensor.Int32, backend.Device())
		if err != nil {
			return nil, fmt.Errorf("creating label tensor: %w", err)
		}

		featuresData := featuresRaw.AsFloat32()
		labelsData := labelsRaw.AsInt32()
		for row := 0; row < size; row++ {
			idx := indices[start+row]
			copy(featuresData[row*featureSize:(row+1)*featureSize], d.Features[idx])
			labelsData[row] = d.Labels[idx]
		}

		batches = append(batches, &Batch[B]{
			Features: tensor.New[float32](featuresRaw, backend),
			Labels:   tensor.New[int32](labelsRaw, backend),
			Size:     size,
		})
	}
	return batches, nil
}
