package ops

import (
	"fmt"
	"math"

	"github.com/spikeml/ember/internal/tensor"
)

// CrossEntropyOp represents the fused softmax + negative log-likelihood loss.
//
// Forward:
//
//	Loss = mean_b(-log_softmax(logits[b])[targets[b]])
//
// using the log-sum-exp trick for stability.
//
// Backward:
//
//	∂L/∂logits[b,i] = (softmax(logits[b])[i] - y_one_hot[b,i]) / batch_size
//
// Gradients flow to the logits only; targets are class indices.
type CrossEntropyOp struct {
	logits  *tensor.RawTensor // [batch, classes]
	targets *tensor.RawTensor // [batch] int32 class indices
	output  *tensor.RawTensor // Shape{1} mean loss
}

// NewCrossEntropyOp creates a new CrossEntropyOp.
func NewCrossEntropyOp(logits, targets, output *tensor.RawTensor) *CrossEntropyOp {
	return &CrossEntropyOp{
		logits:  logits,
		targets: targets,
		output:  output,
	}
}

// Inputs returns the differentiable inputs [logits].
func (op *CrossEntropyOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.logits}
}

// Output returns the scalar loss tensor.
func (op *CrossEntropyOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes (softmax - one_hot) / batch, scaled by the upstream
// gradient. The upstream gradient is a Shape{1} scalar because the forward
// pass produced the batch mean.
func (op *CrossEntropyOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	shape := op.logits.Shape()
	if len(shape) != 2 {
		panic("CrossEntropyOp: backward only supports 2D logits [batch, classes]")
	}
	batch, classes := shape[0], shape[1]

	logitsGrad, err := tensor.NewRaw(shape, op.logits.DType(), op.logits.Device())
	if err != nil {
		panic(err)
	}

	switch op.logits.DType() {
	case tensor.Float32:
		crossEntropyGrad(logitsGrad.AsFloat32(), op.logits.AsFloat32(),
			op.targets.AsInt32(), outputGrad.AsFloat32()[0], batch, classes)
	case tensor.Float64:
		crossEntropyGrad(logitsGrad.AsFloat64(), op.logits.AsFloat64(),
			op.targets.AsInt32(), outputGrad.AsFloat64()[0], batch, classes)
	default:
		panic("CrossEntropyOp: backward only supports float32 and float64")
	}

	return []*tensor.RawTensor{logitsGrad}
}

func crossEntropyGrad[T ~float32 | ~float64](grad, logits []T, targets []int32, gradScale T, batch, classes int) {
	for b := 0; b < batch; b++ {
		row := logits[b*classes : (b+1)*classes]
		probs := softmaxRow(row)

		target := int(targets[b])
		for i := 0; i < classes; i++ {
			g := probs[i]
			if i == target {
				g -= 1
			}
			grad[b*classes+i] = gradScale * g / T(batch)
		}
	}
}

// CrossEntropyForward computes the mean cross-entropy loss over a batch as
// a Shape{1} tensor.
//
// Logits must be [batch, classes], targets [batch] int32 class indices in
// range. Callers accepting user-supplied labels validate ranges before
// reaching this kernel; out-of-range indices panic here.
func CrossEntropyForward(logits, targets *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	logitsShape := logits.Shape()
	if len(logitsShape) != 2 {
		panic("CrossEntropyForward: logits must be 2D [batch, classes]")
	}
	targetsShape := targets.Shape()
	if len(targetsShape) != 1 {
		panic("CrossEntropyForward: targets must be 1D [batch]")
	}
	batch, classes := logitsShape[0], logitsShape[1]
	if targetsShape[0] != batch {
		panic("CrossEntropyForward: batch size mismatch between logits and targets")
	}

	output, err := tensor.NewRaw(tensor.Shape{1}, logits.DType(), device)
	if err != nil {
		panic(err)
	}

	switch logits.DType() {
	case tensor.Float32:
		output.AsFloat32()[0] = crossEntropyLoss(logits.AsFloat32(), targets.AsInt32(), batch, classes)
	case tensor.Float64:
		output.AsFloat64()[0] = crossEntropyLoss(logits.AsFloat64(), targets.AsInt32(), batch, classes)
	default:
		panic("CrossEntropyForward: only supports float32 and float64")
	}

	return output
}

func crossEntropyLoss[T ~float32 | ~float64](logits []T, targets []int32, batch, classes int) T {
	var total T
	for b := 0; b < batch; b++ {
		row := logits[b*classes : (b+1)*classes]
		logProbs := logSoftmaxRow(row)

		target := int(targets[b])
		if target < 0 || target >= classes {
			panic(fmt.Sprintf("CrossEntropyForward: target index %d out of bounds [0, %d)", target, classes))
		}
		total += -logProbs[target]
	}
	return total / T(batch)
}

// logSoftmaxRow computes log(softmax(z)) for one sample via log-sum-exp.
func logSoftmaxRow[T ~float32 | ~float64](z []T) []T {
	result := make([]T, len(z))

	maxVal := z[0]
	for _, v := range z[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	var sumExp float64
	for _, v := range z {
		sumExp += math.Exp(float64(v - maxVal))
	}
	logSumExp := maxVal + T(math.Log(sumExp))

	for i, v := range z {
		result[i] = v - logSumExp
	}
	return result
}

// softmaxRow computes softmax(z) for one sample with max-shifting.
func softmaxRow[T ~float32 | ~float64](z []T) []T {
	probs := make([]T, len(z))

	maxVal := z[0]
	for _, v := range z[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	var sum T
	for i, v := range z {
		e := T(math.Exp(float64(v - maxVal)))
		probs[i] = e
		sum += e
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}
