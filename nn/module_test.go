package nn_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/spikeml/ember/internal/backend/cpu"
	"github.com/spikeml/ember/internal/tensor"
	"github.com/spikeml/ember/nn"
	"github.com/spikeml/ember/surrogate"
)

// TestModuleInterface verifies that Linear satisfies the Module interface
// through the public aliases.
func TestModuleInterface(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(1))

	var module nn.Module[*cpu.CPUBackend] = nn.NewLinear(10, 5, rng, backend)

	input := tensor.Randn[float32](tensor.Shape{2, 10}, rng, backend)
	output := module.Forward(input)
	if !output.Shape().Equal(tensor.Shape{2, 5}) {
		t.Errorf("Forward shape = %v, want [2 5]", output.Shape())
	}

	params := module.Parameters()
	if len(params) != 2 {
		t.Errorf("Parameters() returned %d params, want 2", len(params))
	}
}

// TestParameterInterface verifies the Parameter alias exposes the expected API.
func TestParameterInterface(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(1))
	tensorData := tensor.Randn[float32](tensor.Shape{3, 3}, rng, backend)

	param := nn.NewParameter("test.weight", tensorData)

	if name := param.Name(); name != "test.weight" {
		t.Errorf("Name() = %q, want %q", name, "test.weight")
	}
	if got := param.Tensor(); got != tensorData {
		t.Error("Tensor() returned different tensor than provided")
	}
	if grad := param.Grad(); grad != nil {
		t.Error("Grad() should be nil before backward")
	}
}

// TestLeakyStep verifies the spiking layer is usable through the facade.
func TestLeakyStep(t *testing.T) {
	backend := cpu.New()
	lif := nn.NewLeaky(0.9, 1.0, surrogate.NewAtan(), backend)

	mem := lif.InitState(2, 3)
	current := tensor.Full[float32](tensor.Shape{2, 3}, 1.5, backend)

	spk, mem := lif.Step(current, mem)
	for _, v := range spk.Data() {
		if v != 1 {
			t.Errorf("spike = %v, want 1 for supra-threshold current", v)
		}
	}
	if mem == nil {
		t.Fatal("Step returned nil state")
	}
}

// TestValidationHelpers verifies the re-exported validators and error types.
func TestValidationHelpers(t *testing.T) {
	backend := cpu.New()

	bad, err := tensor.FromSlice([]float32{1, float32(math.NaN())}, tensor.Shape{2}, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	var nfErr *nn.NonFiniteError
	if err := nn.CheckFinite(bad.Raw(), 3, "potential"); !errors.As(err, &nfErr) {
		t.Fatalf("CheckFinite = %v, want NonFiniteError", err)
	}
	if nfErr.Step != 3 || nfErr.Quantity != "potential" {
		t.Errorf("NonFiniteError = %+v", nfErr)
	}

	labels, err := tensor.FromSlice([]int32{0, 7}, tensor.Shape{2}, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	var labelErr *nn.LabelError
	if err := nn.ValidateLabels(labels.Raw(), 4); !errors.As(err, &labelErr) {
		t.Fatalf("ValidateLabels = %v, want LabelError", err)
	}
	if labelErr.Label != 7 || labelErr.Classes != 4 {
		t.Errorf("LabelError = %+v", labelErr)
	}
}
