package kernels

import (
	"math/rand"
	"testing"

	"github.com/Frobeniusnorm/Flint-sub000/dtype"
	"github.com/Frobeniusnorm/Flint-sub000/graph"
)

func randomF32Bytes(n int) []byte {
	v := make([]float32, n)
	for i := range v {
		v[i] = rand.Float32()*200 - 100
	}
	return bytesOfF32(v)
}

func BenchmarkAdd_1K(b *testing.B) {
	a := randomF32Bytes(1024)
	y := randomF32Bytes(1024)
	out := make([]byte, 1024*4)
	shape := graph.Shape{1024}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Add(a, y, graph.BroadcastNormal, graph.BroadcastNormal, shape, shape, out, 1024, 0, 1024, dtype.F32)
	}
}

func BenchmarkMatMul_64(b *testing.B) {
	a := randomF32Bytes(64 * 64)
	y := randomF32Bytes(64 * 64)
	out := make([]byte, 64*64*4)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		MatMul(a, y, out, 1, 64, 64, 64, dtype.F32)
	}
}

func BenchmarkReduceSum_1K(b *testing.B) {
	a := randomF32Bytes(1024)
	out := make([]byte, 4)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ReduceSum(a, out, []uint64{1024}, 0, dtype.F32)
	}
}
