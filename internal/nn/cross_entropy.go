package nn

import (
	"math"

	"github.com/spikeml/ember/internal/tensor"
)

// CrossEntropyLoss computes the mean cross-entropy loss for multi-class
// classification from raw logits.
//
// The loss decomposes as LogSoftmax + negative log-likelihood and uses the
// log-sum-exp trick, so it stays stable for large-magnitude logits.
//
// Targets enter the system here, so Forward validates them: a logits/targets
// shape mismatch returns a ShapeError and an out-of-range class index returns
// a LabelError.
type CrossEntropyLoss[B tensor.Backend] struct {
	backend B
}

// NewCrossEntropyLoss creates a new cross-entropy loss function.
func NewCrossEntropyLoss[B tensor.Backend](backend B) *CrossEntropyLoss[B] {
	return &CrossEntropyLoss[B]{
		backend: backend,
	}
}

// Forward computes the mean cross-entropy over the batch.
//
// logits has shape [batch, classes] and targets holds class indices with
// shape [batch]. The result is a single-element tensor.
//
// When the backend records gradients, the loss is recorded as one fused
// operation whose backward pass is softmax(logits) minus the one-hot targets.
func (c *CrossEntropyLoss[B]) Forward(
	logits *tensor.Tensor[float32, B],
	targets *tensor.Tensor[int32, B],
) (*tensor.Tensor[float32, B], error) {
	shape := logits.Shape()
	if len(shape) != 2 {
		return nil, &ShapeError{Op: "CrossEntropyLoss", Want: tensor.Shape{-1, -1}, Got: shape}
	}
	batch, classes := shape[0], shape[1]

	targetShape := targets.Shape()
	if len(targetShape) != 1 || targetShape[0] != batch {
		return nil, &ShapeError{Op: "CrossEntropyLoss", Want: tensor.Shape{batch}, Got: targetShape}
	}
	if err := ValidateLabels(targets.Raw(), classes); err != nil {
		return nil, err
	}

	type crossEntropyBackend interface {
		CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor
	}
	if ce, ok := any(c.backend).(crossEntropyBackend); ok {
		return tensor.New[float32](ce.CrossEntropy(logits.Raw(), targets.Raw()), c.backend), nil
	}

	// Manual fallback for backends without the fused op.
	logitsData := logits.Data()
	targetsData := targets.Data()

	var total float32
	for b := 0; b < batch; b++ {
		row := logitsData[b*classes : (b+1)*classes]
		logProbs := logSoftmax(row)
		total += -logProbs[targetsData[b]]
	}

	loss := tensor.Zeros[float32](tensor.Shape{1}, c.backend)
	loss.Data()[0] = total / float32(batch)
	return loss, nil
}

// Parameters returns an empty slice; loss functions have no trainable
// parameters.
func (c *CrossEntropyLoss[B]) Parameters() []*Parameter[B] {
	return nil
}

// logSoftmax computes log(softmax(z)) for one row of logits:
//
//	LogSoftmax(z)[i] = z[i] - (max(z) + log(sum(exp(z - max(z)))))
//
// Subtracting the maximum before exponentiating prevents overflow.
func logSoftmax(z []float32) []float32 {
	result := make([]float32, len(z))

	maxZ := z[0]
	for _, v := range z[1:] {
		if v > maxZ {
			maxZ = v
		}
	}

	var sumExp float64
	for _, v := range z {
		sumExp += math.Exp(float64(v - maxZ))
	}
	logSumExp := maxZ + float32(math.Log(sumExp))

	for i, v := range z {
		result[i] = v - logSumExp
	}
	return result
}
