package kernels

import "github.com/Frobeniusnorm/Flint-sub000/dtype"

// MatMul computes batch batched (l,m) x (m,n) -> (l,n) products, one per
// batch index, row-major throughout.
func MatMul(a, b, out []byte, batch, l, m, n uint64, dt dtype.Type) {
	switch dt {
	case dtype.F32:
		matMulF32(viewF32(a), viewF32(b), viewF32(out), batch, l, m, n)
	case dtype.F64:
		matMulF64(viewF64(a), viewF64(b), viewF64(out), batch, l, m, n)
	case dtype.I32:
		matMulI32(viewI32(a), viewI32(b), viewI32(out), batch, l, m, n)
	case dtype.I64:
		matMulI64(viewI64(a), viewI64(b), viewI64(out), batch, l, m, n)
	}
}

func matMulF32(a, b, out []float32, batch, l, m, n uint64) {
	for bi := uint64(0); bi < batch; bi++ {
		ao, bo, oo := bi*l*m, bi*m*n, bi*l*n
		for i := uint64(0); i < l; i++ {
			for j := uint64(0); j < n; j++ {
				var acc float32
				for k := uint64(0); k < m; k++ {
					acc += a[ao+i*m+k] * b[bo+k*n+j]
				}
				out[oo+i*n+j] = acc
			}
		}
	}
}

func matMulF64(a, b, out []float64, batch, l, m, n uint64) {
	for bi := uint64(0); bi < batch; bi++ {
		ao, bo, oo := bi*l*m, bi*m*n, bi*l*n
		for i := uint64(0); i < l; i++ {
			for j := uint64(0); j < n; j++ {
				var acc float64
				for k := uint64(0); k < m; k++ {
					acc += a[ao+i*m+k] * b[bo+k*n+j]
				}
				out[oo+i*n+j] = acc
			}
		}
	}
}

func matMulI32(a, b, out []int32, batch, l, m, n uint64) {
	for bi := uint64(0); bi < batch; bi++ {
		ao, bo, oo := bi*l*m, bi*m*n, bi*l*n
		for i := uint64(0); i < l; i++ {
			for j := uint64(0); j < n; j++ {
				var acc int32
				for k := uint64(0); k < m; k++ {
					acc += a[ao+i*m+k] * b[bo+k*n+j]
				}
				out[oo+i*n+j] = acc
			}
		}
	}
}

func matMulI64(a, b, out []int64, batch, l, m, n uint64) {
	for bi := uint64(0); bi < batch; bi++ {
		ao, bo, oo := bi*l*m, bi*m*n, bi*l*n
		for i := uint64(0); i < l; i++ {
			for j := uint64(0); j < n; j++ {
				var acc int64
				for k := uint64(0); k < m; k++ {
					acc += a[ao+i*m+k] * b[bo+k*n+j]
				}
				out[oo+i*n+j] = acc
			}
		}
	}
}
