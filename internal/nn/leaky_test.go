package nn

import (
	"testing"

	"github.com/spikeml/ember/internal/autodiff"
	"github.com/spikeml/ember/internal/backend/cpu"
	"github.com/spikeml/ember/internal/surrogate"
	"github.com/spikeml/ember/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaky_Accessors(t *testing.T) {
	backend := cpu.New()
	layer := NewLeaky(0.95, 1.0, surrogate.NewAtan(), backend)

	assert.InDelta(t, 0.95, layer.Beta(), 1e-6)
	assert.InDelta(t, 1.0, layer.Threshold(), 1e-6)
	assert.Equal(t, "atan", layer.Surrogate().Name())
	assert.Empty(t, layer.Parameters())
}

func TestLeaky_InitState(t *testing.T) {
	backend := cpu.New()
	layer := NewLeaky(0.9, 1.0, surrogate.NewAtan(), backend)

	mem := layer.InitState(3, 5)
	require.True(t, mem.Shape().Equal(tensor.Shape{3, 5}))
	for _, v := range mem.Data() {
		assert.Equal(t, float32(0), v)
	}
}

func TestLeaky_MembraneDecay(t *testing.T) {
	backend := cpu.New()
	layer := NewLeaky(0.5, 1.0, surrogate.NewAtan(), backend)

	mem, err := tensor.FromSlice([]float32{0.8}, tensor.Shape{1, 1}, backend)
	require.NoError(t, err)
	silence := tensor.Zeros[float32](tensor.Shape{1, 1}, backend)

	// Sub-threshold potential decays geometrically under zero input.
	for _, want := range []float32{0.4, 0.2, 0.1} {
		spk, next := layer.Step(silence, mem)
		assert.InDelta(t, want, next.Data()[0], 1e-6)
		assert.Equal(t, float32(0), spk.Data()[0])
		mem = next
	}
}

func TestLeaky_FiresAtThreshold(t *testing.T) {
	backend := cpu.New()
	layer := NewLeaky(0.9, 1.0, surrogate.NewAtan(), backend)

	// A potential exactly at threshold fires; just below does not.
	input, err := tensor.FromSlice([]float32{1.0, 0.999, 1.001}, tensor.Shape{1, 3}, backend)
	require.NoError(t, err)

	spk, mem := layer.Step(input, layer.InitState(1, 3))

	assert.Equal(t, []float32{1, 0, 1}, spk.Data())
	assert.InDelta(t, 1.0, mem.Data()[0], 1e-6)
}

func TestLeaky_SubtractiveReset(t *testing.T) {
	backend := cpu.New()
	layer := NewLeaky(0.5, 1.0, surrogate.NewAtan(), backend)

	// The carried-in potential reached threshold last step, so this step
	// subtracts the threshold instead of clearing to zero:
	// 0.5*1.5 + 0 - 1.0 = -0.25.
	mem, err := tensor.FromSlice([]float32{1.5}, tensor.Shape{1, 1}, backend)
	require.NoError(t, err)
	silence := tensor.Zeros[float32](tensor.Shape{1, 1}, backend)

	spk, next := layer.Step(silence, mem)

	assert.InDelta(t, -0.25, next.Data()[0], 1e-6)
	assert.Equal(t, float32(0), spk.Data()[0])
}

func TestLeaky_ResetLagsSpikeByOneStep(t *testing.T) {
	backend := cpu.New()
	layer := NewLeaky(0.5, 1.0, surrogate.NewAtan(), backend)

	mem, err := tensor.FromSlice([]float32{0.5}, tensor.Shape{1, 1}, backend)
	require.NoError(t, err)
	input, err := tensor.FromSlice([]float32{1.0}, tensor.Shape{1, 1}, backend)
	require.NoError(t, err)
	silence := tensor.Zeros[float32](tensor.Shape{1, 1}, backend)

	// Potential crosses threshold this step: spike now, no reset yet.
	// 0.5*0.5 + 1.0 = 1.25 >= 1.0.
	spk1, mem1 := layer.Step(input, mem)
	require.Equal(t, float32(1), spk1.Data()[0])
	require.InDelta(t, 1.25, mem1.Data()[0], 1e-6)

	// The reset lands on the following step: 0.5*1.25 - 1.0 = -0.375.
	spk2, mem2 := layer.Step(silence, mem1)
	assert.Equal(t, float32(0), spk2.Data()[0])
	assert.InDelta(t, -0.375, mem2.Data()[0], 1e-6)
}

func TestLeaky_ZeroInputStaysSilent(t *testing.T) {
	backend := cpu.New()
	layer := NewLeaky(0.95, 1.0, surrogate.NewAtan(), backend)

	mem := layer.InitState(2, 4)
	silence := tensor.Zeros[float32](tensor.Shape{2, 4}, backend)

	for step := 0; step < 5; step++ {
		spk, next := layer.Step(silence, mem)
		for i, v := range spk.Data() {
			assert.Equal(t, float32(0), v, "spike at step %d index %d", step, i)
		}
		for i, v := range next.Data() {
			assert.Equal(t, float32(0), v, "potential at step %d index %d", step, i)
		}
		mem = next
	}
}

func TestLeaky_StepRecordsSurrogateGradient(t *testing.T) {
	backend := autodiff.New(cpu.New())
	layer := NewLeaky(0.5, 1.0, surrogate.NewAtan(), backend)

	input, err := tensor.FromSlice([]float32{2.0}, tensor.Shape{1, 1}, backend)
	require.NoError(t, err)
	mem := layer.InitState(1, 1)

	tape := backend.Tape()
	tape.StartRecording()
	defer tape.StopRecording()
	defer tape.Clear()

	spk, newMem := layer.Step(input, mem)
	require.Equal(t, float32(1), spk.Data()[0])
	require.InDelta(t, 2.0, newMem.Data()[0], 1e-6)

	grads := autodiff.Backward(spk, backend)

	// d spike / d input = surrogate'(U - threshold) = surrogate'(1).
	want := surrogate.NewAtan().Derivative(1.0)
	inGrad, ok := grads[input.Raw()]
	require.True(t, ok, "input should receive a gradient")
	assert.InDelta(t, want, inGrad.AsFloat32()[0], 1e-6)

	// The decay path scales the carried-in potential's gradient by beta.
	memGrad, ok := grads[mem.Raw()]
	require.True(t, ok, "carried-in potential should receive a gradient")
	assert.InDelta(t, 0.5*want, memGrad.AsFloat32()[0], 1e-6)
}

func TestLeaky_ResetPathCarriesNoGradient(t *testing.T) {
	backend := autodiff.New(cpu.New())
	layer := NewLeaky(0.5, 1.0, surrogate.NewAtan(), backend)

	// The carried-in potential triggers a reset. If the reset indicator
	// were differentiable, the potential's gradient would pick up an extra
	// term; it must stay exactly beta * surrogate'(U - threshold).
	mem, err := tensor.FromSlice([]float32{1.5}, tensor.Shape{1, 1}, backend)
	require.NoError(t, err)
	silence := tensor.Zeros[float32](tensor.Shape{1, 1}, backend)

	tape := backend.Tape()
	tape.StartRecording()
	defer tape.StopRecording()
	defer tape.Clear()

	spk, newMem := layer.Step(silence, mem)
	require.InDelta(t, -0.25, newMem.Data()[0], 1e-6)

	grads := autodiff.Backward(spk, backend)

	u := newMem.Data()[0] - layer.Threshold()
	want := 0.5 * surrogate.NewAtan().Derivative(u)
	memGrad, ok := grads[mem.Raw()]
	require.True(t, ok)
	assert.InDelta(t, want, memGrad.AsFloat32()[0], 1e-6)
}
