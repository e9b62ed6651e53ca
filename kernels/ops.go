package kernels

import (
	"math"

	"github.com/Frobeniusnorm/Flint-sub000/dtype"
	"github.com/Frobeniusnorm/Flint-sub000/graph"
)

// BinaryFn computes out[i] = f(a[wrapA(i)], b[wrapB(i)]) for i in
// [from, from+size) of a result of resultDType, handling broadcasting per
// spec.md §4.1. a/b/out are raw buffers viewed per their own element type.
type BinaryFn func(a, b []byte, aMode, bMode graph.BroadcastMode, aShape, bShape graph.Shape, out []byte, resultNumEntries uint64, from, size uint64, dt dtype.Type)

func binaryElementwise(a, b []byte, aMode, bMode graph.BroadcastMode, aShape, bShape graph.Shape, out []byte, n uint64, from, size uint64, dt dtype.Type, op func(x, y float64) float64, intOp func(x, y int64) int64) {
	aN, bN := aShape.NumElements(), bShape.NumElements()
	switch dt {
	case dtype.F32:
		av, bv, ov := viewF32(a), viewF32(b), viewF32(out)
		for i := from; i < from+size; i++ {
			ai := graph.BroadcastIndex(i, n, aN, aMode)
			bi := graph.BroadcastIndex(i, n, bN, bMode)
			ov[i] = float32(op(float64(av[ai]), float64(bv[bi])))
		}
	case dtype.F64:
		av, bv, ov := viewF64(a), viewF64(b), viewF64(out)
		for i := from; i < from+size; i++ {
			ai := graph.BroadcastIndex(i, n, aN, aMode)
			bi := graph.BroadcastIndex(i, n, bN, bMode)
			ov[i] = op(av[ai], bv[bi])
		}
	case dtype.I32:
		av, bv, ov := viewI32(a), viewI32(b), viewI32(out)
		for i := from; i < from+size; i++ {
			ai := graph.BroadcastIndex(i, n, aN, aMode)
			bi := graph.BroadcastIndex(i, n, bN, bMode)
			ov[i] = int32(intOp(int64(av[ai]), int64(bv[bi])))
		}
	case dtype.I64:
		av, bv, ov := viewI64(a), viewI64(b), viewI64(out)
		for i := from; i < from+size; i++ {
			ai := graph.BroadcastIndex(i, n, aN, aMode)
			bi := graph.BroadcastIndex(i, n, bN, bMode)
			ov[i] = intOp(av[ai], bv[bi])
		}
	}
}

func Add(a, b []byte, aMode, bMode graph.BroadcastMode, aShape, bShape graph.Shape, out []byte, n, from, size uint64, dt dtype.Type) {
	if dt == dtype.F32 && useWideFloat && aMode == graph.BroadcastNormal && bMode == graph.BroadcastNormal && uint64(len(viewF32(a))) == n && uint64(len(viewF32(b))) == n {
		addF32Wide(viewF32(a)[from:from+size], viewF32(b)[from:from+size], viewF32(out)[from:from+size])
		return
	}
	binaryElementwise(a, b, aMode, bMode, aShape, bShape, out, n, from, size, dt,
		func(x, y float64) float64 { return x + y }, func(x, y int64) int64 { return x + y })
}

func Sub(a, b []byte, aMode, bMode graph.BroadcastMode, aShape, bShape graph.Shape, out []byte, n, from, size uint64, dt dtype.Type) {
	binaryElementwise(a, b, aMode, bMode, aShape, bShape, out, n, from, size, dt,
		func(x, y float64) float64 { return x - y }, func(x, y int64) int64 { return x - y })
}

func Mul(a, b []byte, aMode, bMode graph.BroadcastMode, aShape, bShape graph.Shape, out []byte, n, from, size uint64, dt dtype.Type) {
	if dt == dtype.F32 && useWideFloat && aMode == graph.BroadcastNormal && bMode == graph.BroadcastNormal && uint64(len(viewF32(a))) == n && uint64(len(viewF32(b))) == n {
		mulF32Wide(viewF32(a)[from:from+size], viewF32(b)[from:from+size], viewF32(out)[from:from+size])
		return
	}
	binaryElementwise(a, b, aMode, bMode, aShape, bShape, out, n, from, size, dt,
		func(x, y float64) float64 { return x * y }, func(x, y int64) int64 { return x * y })
}

func Div(a, b []byte, aMode, bMode graph.BroadcastMode, aShape, bShape graph.Shape, out []byte, n, from, size uint64, dt dtype.Type) {
	binaryElementwise(a, b, aMode, bMode, aShape, bShape, out, n, from, size, dt,
		func(x, y float64) float64 { return x / y },
		func(x, y int64) int64 {
			if y == 0 {
				return 0
			}
			return x / y
		})
}

func Pow(a, b []byte, aMode, bMode graph.BroadcastMode, aShape, bShape graph.Shape, out []byte, n, from, size uint64, dt dtype.Type) {
	binaryElementwise(a, b, aMode, bMode, aShape, bShape, out, n, from, size, dt,
		math.Pow, func(x, y int64) int64 { return int64(math.Pow(float64(x), float64(y))) })
}

func Min(a, b []byte, aMode, bMode graph.BroadcastMode, aShape, bShape graph.Shape, out []byte, n, from, size uint64, dt dtype.Type) {
	binaryElementwise(a, b, aMode, bMode, aShape, bShape, out, n, from, size, dt,
		math.Min, func(x, y int64) int64 {
			if x < y {
				return x
			}
			return y
		})
}

func Max(a, b []byte, aMode, bMode graph.BroadcastMode, aShape, bShape graph.Shape, out []byte, n, from, size uint64, dt dtype.Type) {
	binaryElementwise(a, b, aMode, bMode, aShape, bShape, out, n, from, size, dt,
		math.Max, func(x, y int64) int64 {
			if x > y {
				return x
			}
			return y
		})
}

// comparison ops always write an i32 result regardless of operand dtype.
func comparisonElementwise(a, b []byte, aMode, bMode graph.BroadcastMode, aShape, bShape graph.Shape, out []byte, n, from, size uint64, dt dtype.Type, cmp func(x, y float64) bool) {
	aN, bN := aShape.NumElements(), bShape.NumElements()
	ov := viewI32(out)
	get := func(view []byte, idx uint64) float64 {
		switch dt {
		case dtype.F32:
			return float64(viewF32(view)[idx])
		case dtype.F64:
			return viewF64(view)[idx]
		case dtype.I32:
			return float64(viewI32(view)[idx])
		default:
			return float64(viewI64(view)[idx])
		}
	}
	for i := from; i < from+size; i++ {
		ai := graph.BroadcastIndex(i, n, aN, aMode)
		bi := graph.BroadcastIndex(i, n, bN, bMode)
		if cmp(get(a, ai), get(b, bi)) {
			ov[i] = 1
		} else {
			ov[i] = 0
		}
	}
}

func Less(a, b []byte, aMode, bMode graph.BroadcastMode, aShape, bShape graph.Shape, out []byte, n, from, size uint64, dt dtype.Type) {
	comparisonElementwise(a, b, aMode, bMode, aShape, bShape, out, n, from, size, dt, func(x, y float64) bool { return x < y })
}

func Greater(a, b []byte, aMode, bMode graph.BroadcastMode, aShape, bShape graph.Shape, out []byte, n, from, size uint64, dt dtype.Type) {
	comparisonElementwise(a, b, aMode, bMode, aShape, bShape, out, n, from, size, dt, func(x, y float64) bool { return x > y })
}

func Equal(a, b []byte, aMode, bMode graph.BroadcastMode, aShape, bShape graph.Shape, out []byte, n, from, size uint64, dt dtype.Type) {
	comparisonElementwise(a, b, aMode, bMode, aShape, bShape, out, n, from, size, dt, func(x, y float64) bool { return x == y })
}

// UnaryFn computes out[i] = f(a[i]) for i in [from, from+size).
func unaryElementwise(a, out []byte, from, size uint64, dt dtype.Type, op func(float64) float64, intOp func(int64) int64) {
	switch dt {
	case dtype.F32:
		av, ov := viewF32(a), viewF32(out)
		for i := from; i < from+size; i++ {
			ov[i] = float32(op(float64(av[i])))
		}
	case dtype.F64:
		av, ov := viewF64(a), viewF64(out)
		for i := from; i < from+size; i++ {
			ov[i] = op(av[i])
		}
	case dtype.I32:
		av, ov := viewI32(a), viewI32(out)
		for i := from; i < from+size; i++ {
			ov[i] = int32(intOp(int64(av[i])))
		}
	case dtype.I64:
		av, ov := viewI64(a), viewI64(out)
		for i := from; i < from+size; i++ {
			ov[i] = intOp(av[i])
		}
	}
}

func Neg(a, out []byte, from, size uint64, dt dtype.Type) {
	unaryElementwise(a, out, from, size, dt, func(x float64) float64 { return -x }, func(x int64) int64 { return -x })
}
func Abs(a, out []byte, from, size uint64, dt dtype.Type) {
	unaryElementwise(a, out, from, size, dt, math.Abs, func(x int64) int64 {
		if x < 0 {
			return -x
		}
		return x
	})
}
func Log(a, out []byte, from, size uint64, dt dtype.Type) {
	unaryElementwise(a, out, from, size, dt, math.Log, func(x int64) int64 { return int64(math.Log(float64(x))) })
}
func Log2(a, out []byte, from, size uint64, dt dtype.Type) {
	unaryElementwise(a, out, from, size, dt, math.Log2, func(x int64) int64 { return int64(math.Log2(float64(x))) })
}
func Log10(a, out []byte, from, size uint64, dt dtype.Type) {
	unaryElementwise(a, out, from, size, dt, math.Log10, func(x int64) int64 { return int64(math.Log10(float64(x))) })
}
func Sin(a, out []byte, from, size uint64, dt dtype.Type) {
	unaryElementwise(a, out, from, size, dt, math.Sin, func(x int64) int64 { return int64(math.Sin(float64(x))) })
}
func Cos(a, out []byte, from, size uint64, dt dtype.Type) {
	unaryElementwise(a, out, from, size, dt, math.Cos, func(x int64) int64 { return int64(math.Cos(float64(x))) })
}
func Tan(a, out []byte, from, size uint64, dt dtype.Type) {
	unaryElementwise(a, out, from, size, dt, math.Tan, func(x int64) int64 { return int64(math.Tan(float64(x))) })
}
func ASin(a, out []byte, from, size uint64, dt dtype.Type) {
	unaryElementwise(a, out, from, size, dt, math.Asin, func(x int64) int64 { return int64(math.Asin(float64(x))) })
}
func ACos(a, out []byte, from, size uint64, dt dtype.Type) {
	unaryElementwise(a, out, from, size, dt, math.Acos, func(x int64) int64 { return int64(math.Acos(float64(x))) })
}
func ATan(a, out []byte, from, size uint64, dt dtype.Type) {
	unaryElementwise(a, out, from, size, dt, math.Atan, func(x int64) int64 { return int64(math.Atan(float64(x))) })
}
func Sqrt(a, out []byte, from, size uint64, dt dtype.Type) {
	unaryElementwise(a, out, from, size, dt, math.Sqrt, func(x int64) int64 { return int64(math.Sqrt(float64(x))) })
}
func Exp(a, out []byte, from, size uint64, dt dtype.Type) {
	unaryElementwise(a, out, from, size, dt, math.Exp, func(x int64) int64 { return int64(math.Exp(float64(x))) })
}

// Sign writes an i32 output regardless of input dtype: -1, 0, or 1.
func Sign(a, out []byte, from, size uint64, dt dtype.Type) {
	ov := viewI32(out)
	signOf := func(x float64) int32 {
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		default:
			return 0
		}
	}
	switch dt {
	case dtype.F32:
		av := viewF32(a)
		for i := from; i < from+size; i++ {
			ov[i] = signOf(float64(av[i]))
		}
	case dtype.F64:
		av := viewF64(a)
		for i := from; i < from+size; i++ {
			ov[i] = signOf(av[i])
		}
	case dtype.I32:
		av := viewI32(a)
		for i := from; i < from+size; i++ {
			ov[i] = signOf(float64(av[i]))
		}
	case dtype.I64:
		av := viewI64(a)
		for i := from; i < from+size; i++ {
			ov[i] = signOf(float64(av[i]))
		}
	}
}

// Even writes an i32 output (1 iff even); input must be an integer type.
func Even(a, out []byte, from, size uint64, dt dtype.Type) {
	ov := viewI32(out)
	switch dt {
	case dtype.I32:
		av := viewI32(a)
		for i := from; i < from+size; i++ {
			if av[i]%2 == 0 {
				ov[i] = 1
			} else {
				ov[i] = 0
			}
		}
	case dtype.I64:
		av := viewI64(a)
		for i := from; i < from+size; i++ {
			if av[i]%2 == 0 {
				ov[i] = 1
			} else {
				ov[i] = 0
			}
		}
	}
}
