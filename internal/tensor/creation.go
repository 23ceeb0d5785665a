package tensor

import (
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var zero T
	raw, err := NewRaw(shape, inferDataType(zero), b.Device())
	if err != nil {
		panic(err)
	}
	return New[T](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T](shape, 1, b)
}

// Full creates a tensor with every element set to value. The value is given
// as float64 and converted to the element type; Bool tensors are not
// supported.
func Full[T DType, B Backend](shape Shape, value float64, b B) *Tensor[T, B] {
	var zero T
	raw, err := NewRaw(shape, inferDataType(zero), b.Device())
	if err != nil {
		panic(err)
	}

	t := New[T](raw, b)
	switch data := any(t.Data()).(type) {
	case []float32:
		for i := range data {
			data[i] = float32(value)
		}
	case []float64:
		for i := range data {
			data[i] = value
		}
	case []int32:
		for i := range data {
			data[i] = int32(value)
		}
	case []int64:
		for i := range data {
			data[i] = int64(value)
		}
	case []uint8:
		for i := range data {
			data[i] = uint8(value)
		}
	default:
		panic("Full: unsupported element type")
	}
	return t
}

// Randn creates a float tensor sampled from N(0, 1) using the supplied RNG.
// Sampling uses the Box-Muller transform so results depend only on the RNG
// state, which keeps seeded runs reproducible.
func Randn[T DType, B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[T, B] {
	t := Zeros[T](shape, b)
	switch data := any(t.Data()).(type) {
	case []float32:
		for i := range data {
			u1, u2 := rng.Float64(), rng.Float64()
			data[i] = float32(math.Sqrt(-2*math.Log(u1+1e-12)) * math.Cos(2*math.Pi*u2))
		}
	case []float64:
		for i := range data {
			u1, u2 := rng.Float64(), rng.Float64()
			data[i] = math.Sqrt(-2*math.Log(u1+1e-12)) * math.Cos(2*math.Pi*u2)
		}
	default:
		panic("Randn: only float tensors supported")
	}
	return t
}

// Rand creates a float tensor with uniform values in [0, 1) using the
// supplied RNG.
func Rand[T DType, B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[T, B] {
	t := Zeros[T](shape, b)
	switch data := any(t.Data()).(type) {
	case []float32:
		for i := range data {
			data[i] = rng.Float32()
		}
	case []float64:
		for i := range data {
			data[i] = rng.Float64()
		}
	default:
		panic("Rand: only float tensors supported")
	}
	return t
}
