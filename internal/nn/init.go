package nn

import (
	"math"
	"math/rand"

	"github.com/spikeml/ember/internal/tensor"
)

// XavierUniform fills a new tensor with samples from U(-a, a) where
// a = sqrt(6 / (fanIn + fanOut)). Keeps activation variance roughly
// constant across layers at initialization.
func XavierUniform[B tensor.Backend](shape tensor.Shape, fanIn, fanOut int, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	bound := float32(math.Sqrt(6.0 / float64(fanIn+fanOut)))
	t := tensor.Zeros[float32](shape, backend)
	data := t.Data()
	for i := range data {
		data[i] = (rng.Float32()*2 - 1) * bound
	}
	return t
}

// KaimingUniform fills a new tensor with samples from U(-a, a) where
// a = sqrt(3 / fanIn), matching the default init of linear layers in
// common deep learning frameworks.
func KaimingUniform[B tensor.Backend](shape tensor.Shape, fanIn int, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	bound := float32(math.Sqrt(3.0 / float64(fanIn)))
	t := tensor.Zeros[float32](shape, backend)
	data := t.Data()
	for i := range data {
		data[i] = (rng.Float32()*2 - 1) * bound
	}
	return t
}
