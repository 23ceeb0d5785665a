package optim_test

import (
	"testing"

	"github.com/spikeml/ember/internal/backend/cpu"
	"github.com/spikeml/ember/internal/nn"
	"github.com/spikeml/ember/internal/optim"
	"github.com/spikeml/ember/internal/tensor"
)

func floatEqual(a, b, eps float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < eps
}

func newParam(t *testing.T, backend *cpu.CPUBackend, values ...float32) *nn.Parameter[*cpu.CPUBackend] {
	t.Helper()
	data, err := tensor.FromSlice(values, tensor.Shape{len(values)}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return nn.NewParameter("p", data)
}

func newGrad(t *testing.T, backend *cpu.CPUBackend, values ...float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(tensor.Shape{len(values)}, tensor.Float32, backend.Device())
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(raw.AsFloat32(), values)
	return raw
}

func TestSGD_SimpleUpdate(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, 2.0)

	optimizer := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{param},
		optim.SGDConfig{LR: 0.1}, backend)

	grads := map[*tensor.RawTensor]*tensor.RawTensor{
		param.Tensor().Raw(): newGrad(t, backend, 1.0),
	}
	optimizer.Step(grads)

	// x_new = 2.0 - 0.1*1.0 = 1.9
	got := param.Tensor().Data()[0]
	if !floatEqual(got, 1.9, 1e-6) {
		t.Errorf("SGD update: got %f, want 1.9", got)
	}
}

func TestSGD_WithMomentum(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, 1.0)

	optimizer := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{param},
		optim.SGDConfig{LR: 0.1, Momentum: 0.9}, backend)

	grads := map[*tensor.RawTensor]*tensor.RawTensor{
		param.Tensor().Raw(): newGrad(t, backend, 1.0),
	}

	// Step 1: v = 1.0, x = 1.0 - 0.1 = 0.9
	optimizer.Step(grads)
	if got := param.Tensor().Data()[0]; !floatEqual(got, 0.9, 1e-6) {
		t.Fatalf("after step 1: got %f, want 0.9", got)
	}

	// Step 2: v = 0.9*1.0 + 1.0 = 1.9, x = 0.9 - 0.19 = 0.71
	grads[param.Tensor().Raw()] = newGrad(t, backend, 1.0)
	optimizer.Step(grads)
	if got := param.Tensor().Data()[0]; !floatEqual(got, 0.71, 1e-6) {
		t.Errorf("after step 2: got %f, want 0.71", got)
	}
}

func TestSGD_SkipsParamsWithoutGradient(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, 3.0)

	optimizer := optim.NewSGD([]*nn.Parameter[*cpu.CPUBackend]{param},
		optim.SGDConfig{LR: 0.1}, backend)

	optimizer.Step(map[*tensor.RawTensor]*tensor.RawTensor{})

	if got := param.Tensor().Data()[0]; got != 3.0 {
		t.Errorf("parameter changed without a gradient: got %f, want 3.0", got)
	}
}

func TestAdam_FirstStepIsSignedLR(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, 1.0, 1.0)

	optimizer := optim.NewAdam([]*nn.Parameter[*cpu.CPUBackend]{param},
		optim.AdamConfig{LR: 0.001}, backend)

	grads := map[*tensor.RawTensor]*tensor.RawTensor{
		param.Tensor().Raw(): newGrad(t, backend, 0.5, -2.0),
	}
	optimizer.Step(grads)

	// After bias correction the first update is lr * g/(|g|+eps), i.e.
	// roughly lr in the direction of the gradient regardless of magnitude.
	data := param.Tensor().Data()
	if !floatEqual(data[0], 0.999, 1e-5) {
		t.Errorf("param[0] = %f, want 0.999", data[0])
	}
	if !floatEqual(data[1], 1.001, 1e-5) {
		t.Errorf("param[1] = %f, want 1.001", data[1])
	}
}

func TestAdam_Defaults(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, 0.0)

	optimizer := optim.NewAdam([]*nn.Parameter[*cpu.CPUBackend]{param},
		optim.AdamConfig{}, backend)

	if optimizer.GetLR() != 0.001 {
		t.Errorf("default LR = %f, want 0.001", optimizer.GetLR())
	}

	grads := map[*tensor.RawTensor]*tensor.RawTensor{
		param.Tensor().Raw(): newGrad(t, backend, 1.0),
	}
	optimizer.Step(grads)
	optimizer.Step(grads)

	if optimizer.Timestep() != 2 {
		t.Errorf("Timestep() = %d, want 2", optimizer.Timestep())
	}
}

func TestAdam_MinimizesQuadratic(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, 5.0)

	optimizer := optim.NewAdam([]*nn.Parameter[*cpu.CPUBackend]{param},
		optim.AdamConfig{LR: 0.1}, backend)

	// Minimize f(x) = x^2 with the analytic gradient 2x.
	for i := 0; i < 200; i++ {
		x := param.Tensor().Data()[0]
		grads := map[*tensor.RawTensor]*tensor.RawTensor{
			param.Tensor().Raw(): newGrad(t, backend, 2*x),
		}
		optimizer.Step(grads)
	}

	got := param.Tensor().Data()[0]
	if got > 0.5 || got < -0.5 {
		t.Errorf("x after 200 Adam steps = %f, want near 0", got)
	}
}

func TestOptimizers_ImplementInterfaceAndZeroGrad(t *testing.T) {
	backend := cpu.New()
	param := newParam(t, backend, 1.0)
	params := []*nn.Parameter[*cpu.CPUBackend]{param}

	optimizers := []optim.Optimizer{
		optim.NewSGD(params, optim.SGDConfig{LR: 0.1}, backend),
		optim.NewAdam(params, optim.AdamConfig{}, backend),
	}

	for _, o := range optimizers {
		param.SetGrad(tensor.Ones[float32](tensor.Shape{1}, backend))
		o.ZeroGrad()
		if param.Grad() != nil {
			t.Errorf("%T: ZeroGrad() left a gradient behind", o)
		}
	}
}
