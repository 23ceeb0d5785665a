package autodiff

import (
	"testing"

	"gonum.org/v1/gonum/diff/fd"

	"github.com/spikeml/ember/internal/autodiff/ops"
	"github.com/spikeml/ember/internal/backend/cpu"
	"github.com/spikeml/ember/internal/surrogate"
	"github.com/spikeml/ember/internal/tensor"
)

// fdSettings widens the probe step so float32 forward rounding does not
// drown the difference quotient.
var fdSettings = &fd.Settings{Formula: fd.Central, Step: 1e-3}

// rawFromFloat64 builds a float32 tensor from float64 probe values.
func rawFromFloat64(shape tensor.Shape, xs []float64) *tensor.RawTensor {
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		panic(err)
	}
	data := raw.AsFloat32()
	for i, v := range xs {
		data[i] = float32(v)
	}
	return raw
}

// checkGradient compares the tape's gradient against a central-difference
// estimate of the same scalar-valued forward function.
func checkGradient(t *testing.T, forward func(xs []float64) float64, x0, analytic []float32, tol float64) {
	t.Helper()

	x64 := make([]float64, len(x0))
	for i, v := range x0 {
		x64[i] = float64(v)
	}

	numerical := make([]float64, len(x64))
	fd.Gradient(numerical, forward, x64, fdSettings)

	for i := range numerical {
		diff := numerical[i] - float64(analytic[i])
		if diff > tol || diff < -tol {
			t.Errorf("grad[%d]: analytic %v, numerical %v", i, analytic[i], numerical[i])
		}
	}
}

// analyticGradient runs the forward through a recording backend and returns
// the tape gradient for the probe tensor.
func analyticGradient(t *testing.T, build func(b *AutodiffBackend[*cpu.CPUBackend], x *tensor.RawTensor) *tensor.RawTensor, shape tensor.Shape, x0 []float32) []float32 {
	t.Helper()

	backend := newBackend()
	backend.Tape().StartRecording()

	x, err := tensor.FromSlice(x0, shape, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	lossRaw := build(backend, x.Raw())
	if !lossRaw.Shape().Equal(tensor.Shape{1}) {
		t.Fatalf("forward must reduce to Shape{1}, got %v", lossRaw.Shape())
	}
	loss := tensor.New[float32](lossRaw, backend)

	grads := Backward(loss, backend)
	grad, ok := grads[x.Raw()]
	if !ok {
		t.Fatal("No gradient for probe tensor")
	}
	return grad.AsFloat32()
}

func TestGradientCheck_Mul(t *testing.T) {
	x0 := []float32{1.5, -0.5, 2.0, 0.25}
	weights := []float32{2, -3, 4, 0.5}

	build := func(b *AutodiffBackend[*cpu.CPUBackend], x *tensor.RawTensor) *tensor.RawTensor {
		w := rawFromFloat64(tensor.Shape{4}, []float64{2, -3, 4, 0.5})
		return b.SumDim(b.Mul(x, w), 0, false)
	}
	analytic := analyticGradient(t, build, tensor.Shape{4}, x0)

	forward := func(xs []float64) float64 {
		backend := cpu.New()
		x := rawFromFloat64(tensor.Shape{4}, xs)
		w := rawFromFloat64(tensor.Shape{4}, []float64{2, -3, 4, 0.5})
		out := backend.SumDim(backend.Mul(x, w), 0, false)
		return float64(out.AsFloat32()[0])
	}
	checkGradient(t, forward, x0, analytic, 1e-2)

	// The analytic gradient of sum(x*w) is w itself.
	for i := range weights {
		if diff := analytic[i] - weights[i]; diff > 1e-5 || diff < -1e-5 {
			t.Errorf("analytic grad[%d]: got %v, expected %v", i, analytic[i], weights[i])
		}
	}
}

func TestGradientCheck_Div(t *testing.T) {
	x0 := []float32{1.0, -2.0, 0.5}
	divisor := []float64{2, 4, -8}

	build := func(b *AutodiffBackend[*cpu.CPUBackend], x *tensor.RawTensor) *tensor.RawTensor {
		d := rawFromFloat64(tensor.Shape{3}, divisor)
		return b.SumDim(b.Div(x, d), 0, false)
	}
	analytic := analyticGradient(t, build, tensor.Shape{3}, x0)

	forward := func(xs []float64) float64 {
		backend := cpu.New()
		x := rawFromFloat64(tensor.Shape{3}, xs)
		d := rawFromFloat64(tensor.Shape{3}, divisor)
		out := backend.SumDim(backend.Div(x, d), 0, false)
		return float64(out.AsFloat32()[0])
	}
	checkGradient(t, forward, x0, analytic, 1e-2)
}

func TestGradientCheck_MatMul(t *testing.T) {
	x0 := []float32{0.5, -1.0, 2.0, 1.5, 0.25, -0.75}
	other := []float64{1, 2, -1, 0.5, 3, -2}

	build := func(b *AutodiffBackend[*cpu.CPUBackend], x *tensor.RawTensor) *tensor.RawTensor {
		w := rawFromFloat64(tensor.Shape{3, 2}, other)
		prod := b.MatMul(x, w)
		return b.SumDim(b.SumDim(prod, 1, false), 0, false)
	}
	analytic := analyticGradient(t, build, tensor.Shape{2, 3}, x0)

	forward := func(xs []float64) float64 {
		backend := cpu.New()
		x := rawFromFloat64(tensor.Shape{2, 3}, xs)
		w := rawFromFloat64(tensor.Shape{3, 2}, other)
		prod := backend.MatMul(x, w)
		out := backend.SumDim(backend.SumDim(prod, 1, false), 0, false)
		return float64(out.AsFloat32()[0])
	}
	checkGradient(t, forward, x0, analytic, 1e-2)
}

func TestGradientCheck_ElementwiseMath(t *testing.T) {
	tests := []struct {
		name string
		x0   []float32
		op   func(b tensor.Backend, x *tensor.RawTensor) *tensor.RawTensor
	}{
		{"Exp", []float32{0.5, -1.0, 1.5}, func(b tensor.Backend, x *tensor.RawTensor) *tensor.RawTensor { return b.Exp(x) }},
		{"Log", []float32{0.5, 1.0, 3.0}, func(b tensor.Backend, x *tensor.RawTensor) *tensor.RawTensor { return b.Log(x) }},
		{"Sqrt", []float32{0.25, 1.0, 4.0}, func(b tensor.Backend, x *tensor.RawTensor) *tensor.RawTensor { return b.Sqrt(x) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape := tensor.Shape{len(tt.x0)}

			build := func(b *AutodiffBackend[*cpu.CPUBackend], x *tensor.RawTensor) *tensor.RawTensor {
				return b.SumDim(tt.op(b, x), 0, false)
			}
			analytic := analyticGradient(t, build, shape, tt.x0)

			forward := func(xs []float64) float64 {
				backend := cpu.New()
				x := rawFromFloat64(shape, xs)
				out := backend.SumDim(tt.op(backend, x), 0, false)
				return float64(out.AsFloat32()[0])
			}
			checkGradient(t, forward, tt.x0, analytic, 1e-2)
		})
	}
}

func TestGradientCheck_Softmax(t *testing.T) {
	x0 := []float32{1.0, -0.5, 0.25, 2.0, 0.0, -1.0}
	weights := []float64{3, -1, 2, 0.5, 1, -2}

	// Weight the softmax rows so the probe is sensitive to each input;
	// the plain row sum is constant 1 with gradient zero everywhere.
	build := func(b *AutodiffBackend[*cpu.CPUBackend], x *tensor.RawTensor) *tensor.RawTensor {
		w := rawFromFloat64(tensor.Shape{2, 3}, weights)
		weighted := b.Mul(b.Softmax(x, 1), w)
		return b.SumDim(b.SumDim(weighted, 1, false), 0, false)
	}
	analytic := analyticGradient(t, build, tensor.Shape{2, 3}, x0)

	forward := func(xs []float64) float64 {
		backend := cpu.New()
		x := rawFromFloat64(tensor.Shape{2, 3}, xs)
		w := rawFromFloat64(tensor.Shape{2, 3}, weights)
		weighted := backend.Mul(backend.Softmax(x, 1), w)
		out := backend.SumDim(backend.SumDim(weighted, 1, false), 0, false)
		return float64(out.AsFloat32()[0])
	}
	checkGradient(t, forward, x0, analytic, 1e-2)
}

func TestGradientCheck_CrossEntropy(t *testing.T) {
	x0 := []float32{2.0, 0.5, -1.0, 0.0, 1.5, -0.5}
	targets := []int32{0, 2}

	newTargets := func() *tensor.RawTensor {
		raw, err := tensor.NewRaw(tensor.Shape{2}, tensor.Int32, tensor.CPU)
		if err != nil {
			panic(err)
		}
		copy(raw.AsInt32(), targets)
		return raw
	}

	build := func(b *AutodiffBackend[*cpu.CPUBackend], x *tensor.RawTensor) *tensor.RawTensor {
		return b.CrossEntropy(x, newTargets())
	}
	analytic := analyticGradient(t, build, tensor.Shape{2, 3}, x0)

	forward := func(xs []float64) float64 {
		logits := rawFromFloat64(tensor.Shape{2, 3}, xs)
		out := ops.CrossEntropyForward(logits, newTargets(), tensor.CPU)
		return float64(out.AsFloat32()[0])
	}
	checkGradient(t, forward, x0, analytic, 1e-2)
}

func TestSpike_SurrogateGradient(t *testing.T) {
	backend := newBackend()
	backend.Tape().StartRecording()

	grad := surrogate.NewAtan()
	x0 := []float32{-1.0, -0.1, 0.0, 0.1, 1.0}

	x, err := tensor.FromSlice(x0, tensor.Shape{5}, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	spk := backend.Spike(x.Raw(), grad)

	// Forward fires at and above zero.
	expected := []float32{0, 0, 1, 1, 1}
	spkData := spk.AsFloat32()
	for i, want := range expected {
		if spkData[i] != want {
			t.Errorf("spike[%d]: got %v, expected %v", i, spkData[i], want)
		}
	}

	lossRaw := backend.SumDim(spk, 0, false)
	loss := tensor.New[float32](lossRaw, backend)
	grads := Backward(loss, backend)

	gradX, ok := grads[x.Raw()]
	if !ok {
		t.Fatal("No gradient for spike input")
	}

	// Backward substitutes the surrogate slope for the step's true
	// (zero) derivative.
	gradData := gradX.AsFloat32()
	for i, u := range x0 {
		want := grad.Derivative(u)
		if diff := gradData[i] - want; diff > 1e-6 || diff < -1e-6 {
			t.Errorf("surrogate grad[%d]: got %v, expected %v", i, gradData[i], want)
		}
	}
}
