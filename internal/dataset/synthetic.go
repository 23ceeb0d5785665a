package dataset

import "math/rand"

// Synthetic generates a linearly separable classification dataset: each
// class lights up its own contiguous band of features, with a little
// uniform noise everywhere. Useful for pipeline tests and smoke runs when
// no real data is on disk.
func Synthetic(samples, features, classes int, rng *rand.Rand) *Dataset {
	d := &Dataset{
		Features: make([][]float32, samples),
		Labels:   make([]int32, samples),
		Classes:  classes,
	}

	bandWidth := features / classes
	if bandWidth == 0 {
		bandWidth = 1
	}

	for i := 0; i < samples; i++ {
		class := i % classes
		sample := make([]float32, features)

		for j := range sample {
			sample[j] = 0.05 * rng.Float32()
		}
		bandStart := class * bandWidth
		for j := bandStart; j < bandStart+bandWidth && j < features; j++ {
			sample[j] = 0.8 + 0.2*rng.Float32()
		}

		d.Features[i] = sample
		d.Labels[i] = int32(class)
	}
	return d
}
