package kernels

import (
	"math"

	"github.com/Frobeniusnorm/Flint-sub000/dtype"
)

// splitmix64 is the generator backing GenRandom and Dropout: a small,
// dependency-free PRNG seeded from a float64 so graph nodes stay
// deterministically reproducible across CPU and GPU execution given the
// same seed, without pulling in math/rand's global lock.
func splitmix64(state *uint64) uint64 {
	*state += 0x9E3779B97F4A7C15
	z := *state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func seedState(seed float64) uint64 {
	return math.Float64bits(seed) ^ 0x2545F4914F6CDD1D
}

// uniform01 returns a value in [0,1) derived from the top 53 bits of x,
// matching the precision of float64's mantissa.
func uniform01(x uint64) float64 {
	return float64(x>>11) / float64(1<<53)
}

// GenRandom fills out with n uniform [0,1) samples derived from seed, cast
// to t. Integer dtypes floor the sample, matching spec.md §4.2 group 1.
func GenRandom(out []byte, n uint64, seed float64, t dtype.Type) {
	state := seedState(seed)
	for i := uint64(0); i < n; i++ {
		v := uniform01(splitmix64(&state))
		switch t {
		case dtype.F32:
			viewF32(out)[i] = float32(v)
		case dtype.F64:
			viewF64(out)[i] = v
		case dtype.I32:
			viewI32(out)[i] = int32(v)
		case dtype.I64:
			viewI64(out)[i] = int64(v)
		}
	}
}

// GenConstant broadcasts value into every one of the n entries of out.
func GenConstant(out []byte, n uint64, value float64, t dtype.Type) {
	switch t {
	case dtype.F32:
		v := viewF32(out)
		for i := range v[:n] {
			v[i] = float32(value)
		}
	case dtype.F64:
		v := viewF64(out)
		for i := range v[:n] {
			v[i] = value
		}
	case dtype.I32:
		v := viewI32(out)
		for i := range v[:n] {
			v[i] = int32(value)
		}
	case dtype.I64:
		v := viewI64(out)
		for i := range v[:n] {
			v[i] = int64(value)
		}
	}
}

// GenArange fills out with the index along axis, broadcast across the
// other dimensions of shape (row-major), matching spec.md §4.2 group 1.
func GenArange(out []byte, shape []uint64, axis int, t dtype.Type) {
	strd := strides(shape)
	total := uint64(1)
	for _, d := range shape {
		total *= d
	}
	for i := uint64(0); i < total; i++ {
		coord := (i / strd[axis]) % shape[axis]
		switch t {
		case dtype.F32:
			viewF32(out)[i] = float32(coord)
		case dtype.F64:
			viewF64(out)[i] = float64(coord)
		case dtype.I32:
			viewI32(out)[i] = int32(coord)
		case dtype.I64:
			viewI64(out)[i] = int64(coord)
		}
	}
}

// Dropout zeroes each entry independently with probability p and rescales
// floating-point survivors by 1/(1-p) so the expected sum is unchanged,
// per spec.md §4.2 group 13; integer survivors are kept unscaled. When
// training is false it copies a unchanged.
func Dropout(a, out []byte, n uint64, p float64, training bool, seed float64, t dtype.Type) {
	if !training {
		copy(out[:n*uint64(t.Size())], a[:n*uint64(t.Size())])
		return
	}
	scale := 1.0 / (1.0 - p)
	state := seedState(seed)
	for i := uint64(0); i < n; i++ {
		keep := uniform01(splitmix64(&state)) >= p
		switch t {
		case dtype.F32:
			if keep {
				viewF32(out)[i] = viewF32(a)[i] * float32(scale)
			} else {
				viewF32(out)[i] = 0
			}
		case dtype.F64:
			if keep {
				viewF64(out)[i] = viewF64(a)[i] * scale
			} else {
				viewF64(out)[i] = 0
			}
		case dtype.I32:
			if keep {
				viewI32(out)[i] = viewI32(a)[i]
			} else {
				viewI32(out)[i] = 0
			}
		case dtype.I64:
			if keep {
				viewI64(out)[i] = viewI64(a)[i]
			} else {
				viewI64(out)[i] = 0
			}
		}
	}
}
