package nn

import (
	"fmt"
	"math"

	"github.com/chewxy/math32"

	"github.com/spikeml/ember/internal/tensor"
)

// ShapeError reports an input tensor whose shape does not match what a
// network or loss was built for. It is returned at API boundaries that
// accept caller-supplied data; shape bugs between internal layers panic
// instead. A -1 in Want matches any size along that dimension.
type ShapeError struct {
	Op   string
	Want tensor.Shape
	Got  tensor.Shape
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: shape mismatch: want %v, got %v", e.Op, e.Want, e.Got)
}

// LabelError reports a class label outside [0, Classes). It is returned
// wherever user-supplied targets enter the system: the loss and the
// evaluator.
type LabelError struct {
	Index   int   // position within the batch
	Label   int32 // the offending value
	Classes int
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("label %d at batch index %d out of range [0, %d)", e.Label, e.Index, e.Classes)
}

// NonFiniteError reports a NaN or infinity in a monitored tensor. Training
// state is unrecoverable once a non-finite value appears, so callers treat
// this as fatal for the run.
type NonFiniteError struct {
	Step     int    // simulation step where the value appeared, -1 outside simulation
	Quantity string // which tensor went non-finite, e.g. "membrane" or "loss"
}

func (e *NonFiniteError) Error() string {
	if e.Step >= 0 {
		return fmt.Sprintf("non-finite value in %s at step %d", e.Quantity, e.Step)
	}
	return fmt.Sprintf("non-finite value in %s", e.Quantity)
}

// CheckFinite scans a float tensor and returns a NonFiniteError if any
// element is NaN or infinite.
func CheckFinite(t *tensor.RawTensor, step int, quantity string) error {
	switch t.DType() {
	case tensor.Float32:
		for _, v := range t.AsFloat32() {
			if math32.IsNaN(v) || math32.IsInf(v, 0) {
				return &NonFiniteError{Step: step, Quantity: quantity}
			}
		}
	case tensor.Float64:
		for _, v := range t.AsFloat64() {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &NonFiniteError{Step: step, Quantity: quantity}
			}
		}
	default:
		panic(fmt.Sprintf("CheckFinite: requires a float tensor, got %s", t.DType()))
	}
	return nil
}

// ValidateLabels checks that every target is a class index in [0, classes).
// Targets must be a 1D int32 tensor.
func ValidateLabels(targets *tensor.RawTensor, classes int) error {
	for i, label := range targets.AsInt32() {
		if label < 0 || int(label) >= classes {
			return &LabelError{Index: i, Label: label, Classes: classes}
		}
	}
	return nil
}
