package kernels

import (
	"testing"

	"github.com/Frobeniusnorm/Flint-sub000/dtype"
	"github.com/Frobeniusnorm/Flint-sub000/graph"
)

func TestViewRoundTrip(t *testing.T) {
	b := make([]byte, 4*8)
	v := viewF64(b)
	for i := range v {
		v[i] = float64(i) * 1.5
	}
	v2 := viewF64(b)
	for i := range v2 {
		if v2[i] != float64(i)*1.5 {
			t.Errorf("view[%d] = %f, want %f", i, v2[i], float64(i)*1.5)
		}
	}
}

func TestBatchSizeByArch(t *testing.T) {
	if BatchSize() <= 0 {
		t.Error("BatchSize must be positive")
	}
}

func TestVectorizedKernelExecute(t *testing.T) {
	data := bytesOfF32([]float32{1, 2, 3, 4, 5})
	vk := NewVectorizedKernel(func(x float32) float32 { return x * 2 })
	vk.Execute(data)
	got := viewF32(data)
	want := []float32{2, 4, 6, 8, 10}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("out[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestReduceSumAlongAxis(t *testing.T) {
	// shape (2,3), reduce axis 1 -> shape (2,)
	a := bytesOfF32([]float32{1, 2, 3, 4, 5, 6})
	out := make([]byte, 8)
	ReduceSum(a, out, []uint64{2, 3}, 1, dtype.F32)
	got := viewF32(out)
	want := []float32{6, 15}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("reduceSum[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestReduceMaxAlongAxis(t *testing.T) {
	a := bytesOfF32([]float32{1, 9, 3, 4, 5, 6})
	out := make([]byte, 8)
	ReduceMax(a, out, []uint64{2, 3}, 1, dtype.F32)
	got := viewF32(out)
	want := []float32{9, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("reduceMax[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

// TestReduceMaxAxisZeroFixture reproduces spec.md's literal end-to-end
// ReduceMax example: a (2,2,3) tensor reduced along axis 0.
func TestReduceMaxAxisZeroFixture(t *testing.T) {
	a := bytesOfF32([]float32{
		0, 1, 32, 2, 3, 4,
		4, 5, -6, 6, 7, -1,
	})
	out := make([]byte, 4*6)
	ReduceMax(a, out, []uint64{2, 2, 3}, 0, dtype.F32)
	got := viewF32(out)
	want := []float32{4, 5, 32, 6, 7, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("reduceMax[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

// TestSliceNegativeStepFixture reproduces spec.md's literal Slice example:
// a negative step on the last axis walks index 2 down to (exclusive) 0,
// while the middle axis keeps only its first row.
func TestSliceNegativeStepFixture(t *testing.T) {
	a := bytesOfF32([]float32{
		0, 1, 32, 2, 3, 4,
		4, 5, -6, 6, 7, -1,
	})
	out := make([]byte, 4*4)
	Slice(a, out, []uint64{2, 2, 3}, []uint64{2, 1, 2}, []int64{0, 0, 2}, []int64{1, 1, -1}, dtype.F32)
	got := viewF32(out)
	want := []float32{32, 1, -6, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slice[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

// TestExtendInsertsAtOffsetFixture reproduces spec.md's literal Extend
// example: a 2x2 tensor embedded in a 4x4 zero tensor at offset (1,2).
func TestExtendInsertsAtOffsetFixture(t *testing.T) {
	a := bytesOfF32([]float32{1, 2, 3, 4})
	out := make([]byte, 4*16)
	Extend(a, out, []uint64{2, 2}, []uint64{4, 4}, []int64{1, 2}, []int64{1, 1}, dtype.F32)
	got := viewF32(out)
	want := make([]float32, 16)
	want[1*4+2] = 1
	want[1*4+3] = 2
	want[2*4+2] = 3
	want[2*4+3] = 4
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("extend[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

// TestPowCubeFixture reproduces spec.md's literal Pow example: every
// element of a 2x2 tensor raised to the scalar exponent 3.
func TestPowCubeFixture(t *testing.T) {
	a := bytesOfF32([]float32{0, 1, 2, 3})
	exp := bytesOfF32([]float32{3})
	out := make([]byte, 16)
	Pow(a, exp, graph.BroadcastNormal, graph.BroadcastNormal, graph.Shape{2, 2}, graph.Shape{}, out, 4, 0, 4, dtype.F32)
	got := viewF32(out)
	want := []float32{0, 1, 8, 27}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pow[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestMatMulSimple(t *testing.T) {
	// (2,2) x (2,2)
	a := bytesOfF32([]float32{1, 2, 3, 4})
	b := bytesOfF32([]float32{5, 6, 7, 8})
	out := make([]byte, 16)
	MatMul(a, b, out, 1, 2, 2, 2, dtype.F32)
	got := viewF32(out)
	want := []float32{19, 22, 43, 50}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("matmul[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}
