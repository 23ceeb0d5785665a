package cpu

import (
	"fmt"

	"github.com/spikeml/ember/internal/tensor"
)

// Cast converts a tensor to a new element type. Numeric conversions go
// through float64; bool maps to 0/1 in either direction.
func (cpu *CPUBackend) Cast(t *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if t.DType() == dtype {
		return t.Clone()
	}

	result := mustNewRaw(t.Shape(), dtype, cpu.device, "cast")
	n := t.NumElements()
	for i := 0; i < n; i++ {
		writeFloat(result, i, readFloat(t, i))
	}
	return result
}

func readFloat(t *tensor.RawTensor, i int) float64 {
	switch t.DType() {
	case tensor.Float32:
		return float64(t.AsFloat32()[i])
	case tensor.Float64:
		return t.AsFloat64()[i]
	case tensor.Int32:
		return float64(t.AsInt32()[i])
	case tensor.Int64:
		return float64(t.AsInt64()[i])
	case tensor.Uint8:
		return float64(t.AsUint8()[i])
	case tensor.Bool:
		if t.AsBool()[i] {
			return 1
		}
		return 0
	default:
		panic(fmt.Sprintf("cast: unsupported source dtype %s", t.DType()))
	}
}

func writeFloat(t *tensor.RawTensor, i int, v float64) {
	switch t.DType() {
	case tensor.Float32:
		t.AsFloat32()[i] = float32(v)
	case tensor.Float64:
		t.AsFloat64()[i] = v
	case tensor.Int32:
		t.AsInt32()[i] = int32(v)
	case tensor.Int64:
		t.AsInt64()[i] = int64(v)
	case tensor.Uint8:
		t.AsUint8()[i] = uint8(v)
	case tensor.Bool:
		t.AsBool()[i] = v != 0
	default:
		panic(fmt.Sprintf("cast: unsupported target dtype %s", t.DType()))
	}
}
