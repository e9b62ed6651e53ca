//go:build amd64

package kernels

// useWideFloat indicates whether the wide-batch float32 loop is preferred
// over the scalar fallback on this architecture.
const useWideFloat = true

// addF32Wide adds a and b into out, unrolled by 8 to help the compiler
// generate AVX2-width loads on amd64; out may alias neither a nor b.
func addF32Wide(a, b, out []float32) {
	n := len(a)
	i := 0
	for ; i+8 <= n; i += 8 {
		out[i] = a[i] + b[i]
		out[i+1] = a[i+1] + b[i+1]
		out[i+2] = a[i+2] + b[i+2]
		out[i+3] = a[i+3] + b[i+3]
		out[i+4] = a[i+4] + b[i+4]
		out[i+5] = a[i+5] + b[i+5]
		out[i+6] = a[i+6] + b[i+6]
		out[i+7] = a[i+7] + b[i+7]
	}
	for ; i < n; i++ {
		out[i] = a[i] + b[i]
	}
}

// mulF32Wide multiplies a and b into out, unrolled by 8.
func mulF32Wide(a, b, out []float32) {
	n := len(a)
	i := 0
	for ; i+8 <= n; i += 8 {
		out[i] = a[i] * b[i]
		out[i+1] = a[i+1] * b[i+1]
		out[i+2] = a[i+2] * b[i+2]
		out[i+3] = a[i+3] * b[i+3]
		out[i+4] = a[i+4] * b[i+4]
		out[i+5] = a[i+5] * b[i+5]
		out[i+6] = a[i+6] * b[i+6]
		out[i+7] = a[i+7] * b[i+7]
	}
	for ; i < n; i++ {
		out[i] = a[i] * b[i]
	}
}
