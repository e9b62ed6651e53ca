package kernels

import "github.com/Frobeniusnorm/Flint-sub000/dtype"

// axisSplit decomposes shape around axis and returns (outer, axisSize,
// inner): the product of the dims before axis, axis's own size, and the
// product of the dims after it, so a reduction along axis can walk
// outer*inner positions while striding axisSize times over inner
// elements, per the standard decomposition of spec.md §4.1.
func axisSplit(shape []uint64, axis int) (outer, axisSize, inner uint64) {
	outer, inner = 1, 1
	for i, d := range shape {
		switch {
		case i < axis:
			outer *= d
		case i == axis:
			axisSize = d
		default:
			inner *= d
		}
	}
	return
}

func reduceGeneric(a, out []byte, shape []uint64, axis int, dt dtype.Type, identity float64, op func(acc, x float64) float64) {
	outer, axisSize, inner := axisSplit(shape, axis)
	read := func(idx uint64) float64 {
		switch dt {
		case dtype.F32:
			return float64(viewF32(a)[idx])
		case dtype.F64:
			return viewF64(a)[idx]
		case dtype.I32:
			return float64(viewI32(a)[idx])
		default:
			return float64(viewI64(a)[idx])
		}
	}
	write := func(idx uint64, v float64) {
		switch dt {
		case dtype.F32:
			viewF32(out)[idx] = float32(v)
		case dtype.F64:
			viewF64(out)[idx] = v
		case dtype.I32:
			viewI32(out)[idx] = int32(v)
		default:
			viewI64(out)[idx] = int64(v)
		}
	}
	for o := uint64(0); o < outer; o++ {
		for in := uint64(0); in < inner; in++ {
			acc := identity
			for k := uint64(0); k < axisSize; k++ {
				srcIdx := o*axisSize*inner + k*inner + in
				acc = op(acc, read(srcIdx))
			}
			dstIdx := o*inner + in
			write(dstIdx, acc)
		}
	}
}

func ReduceSum(a, out []byte, shape []uint64, axis int, dt dtype.Type) {
	reduceGeneric(a, out, shape, axis, dt, 0, func(acc, x float64) float64 { return acc + x })
}

func ReduceMul(a, out []byte, shape []uint64, axis int, dt dtype.Type) {
	reduceGeneric(a, out, shape, axis, dt, 1, func(acc, x float64) float64 { return acc * x })
}

// ReduceMin/ReduceMax use the first iterated element as identity per
// spec.md §4.2 group 8, so they cannot share reduceGeneric's constant
// identity and instead special-case the first k.
func ReduceMin(a, out []byte, shape []uint64, axis int, dt dtype.Type) {
	reduceMinMax(a, out, shape, axis, dt, func(acc, x float64) float64 {
		if x < acc {
			return x
		}
		return acc
	})
}

func ReduceMax(a, out []byte, shape []uint64, axis int, dt dtype.Type) {
	reduceMinMax(a, out, shape, axis, dt, func(acc, x float64) float64 {
		if x > acc {
			return x
		}
		return acc
	})
}

func reduceMinMax(a, out []byte, shape []uint64, axis int, dt dtype.Type, op func(acc, x float64) float64) {
	outer, axisSize, inner := axisSplit(shape, axis)
	read := func(idx uint64) float64 {
		switch dt {
		case dtype.F32:
			return float64(viewF32(a)[idx])
		case dtype.F64:
			return viewF64(a)[idx]
		case dtype.I32:
			return float64(viewI32(a)[idx])
		default:
			return float64(viewI64(a)[idx])
		}
	}
	write := func(idx uint64, v float64) {
		switch dt {
		case dtype.F32:
			viewF32(out)[idx] = float32(v)
		case dtype.F64:
			viewF64(out)[idx] = v
		case dtype.I32:
			viewI32(out)[idx] = int32(v)
		default:
			viewI64(out)[idx] = int64(v)
		}
	}
	for o := uint64(0); o < outer; o++ {
		for in := uint64(0); in < inner; in++ {
			acc := read(o*axisSize*inner + in)
			for k := uint64(1); k < axisSize; k++ {
				acc = op(acc, read(o*axisSize*inner+k*inner+in))
			}
			write(o*inner+in, acc)
		}
	}
}
