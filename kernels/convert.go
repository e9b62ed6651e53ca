package kernels

import "github.com/Frobeniusnorm/Flint-sub000/dtype"

// Conversion elementwise-casts n values of from's encoding to to's.
func Conversion(in, out []byte, from, to dtype.Type, n uint64) {
	read := func(i uint64) float64 {
		switch from {
		case dtype.F32:
			return float64(viewF32(in)[i])
		case dtype.F64:
			return viewF64(in)[i]
		case dtype.I32:
			return float64(viewI32(in)[i])
		default:
			return float64(viewI64(in)[i])
		}
	}
	for i := uint64(0); i < n; i++ {
		v := read(i)
		switch to {
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
