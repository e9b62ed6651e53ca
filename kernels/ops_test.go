package kernels

import (
	"math"
	"testing"

	"github.com/Frobeniusnorm/Flint-sub000/dtype"
	"github.com/Frobeniusnorm/Flint-sub000/graph"
)

// bytesOfF32 builds a raw little-endian-native float32 buffer for fixtures.
func bytesOfF32(v []float32) []byte {
	b := make([]byte, len(v)*4)
	copy(viewF32(b), v)
	return b
}

func TestAddElementwiseEqualShapes(t *testing.T) {
	a := bytesOfF32([]float32{1, 2, 3, 4})
	b := bytesOfF32([]float32{10, 20, 30, 40})
	out := make([]byte, 16)
	shape := graph.Shape{4}
	Add(a, b, graph.BroadcastNormal, graph.BroadcastNormal, shape, shape, out, 4, 0, 4, dtype.F32)
	got := viewF32(out)
	want := []float32{11, 22, 33, 44}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("out[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestAddBroadcastSuffix(t *testing.T) {
	a := bytesOfF32([]float32{1, 2, 3, 4, 5, 6}) // shape (2,3)
	b := bytesOfF32([]float32{100, 200, 300})    // shape (3,)
	out := make([]byte, 24)
	Add(a, b, graph.BroadcastNormal, graph.BroadcastNormal, graph.Shape{2, 3}, graph.Shape{3}, out, 6, 0, 6, dtype.F32)
	got := viewF32(out)
	want := []float32{101, 202, 303, 104, 205, 306}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("out[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestDivIntegerByZeroIsZero(t *testing.T) {
	a := make([]byte, 4)
	viewI32(a)[0] = 7
	b := make([]byte, 4)
	viewI32(b)[0] = 0
	out := make([]byte, 4)
	shape := graph.Shape{1}
	Div(a, b, graph.BroadcastNormal, graph.BroadcastNormal, shape, shape, out, 1, 0, 1, dtype.I32)
	if viewI32(out)[0] != 0 {
		t.Errorf("int division by zero = %d, want 0", viewI32(out)[0])
	}
}

func TestSignAndEven(t *testing.T) {
	a := bytesOfF32([]float32{-3, 0, 5})
	out := make([]byte, 12)
	Sign(a, out, 0, 3, dtype.F32)
	want := []int32{-1, 0, 1}
	got := viewI32(out)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Sign[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	ai := make([]byte, 12)
	viewI32(ai)[0], viewI32(ai)[1], viewI32(ai)[2] = 2, 3, 4
	oe := make([]byte, 12)
	Even(ai, oe, 0, 3, dtype.I32)
	wantEven := []int32{1, 0, 1}
	gotEven := viewI32(oe)
	for i := range wantEven {
		if gotEven[i] != wantEven[i] {
			t.Errorf("Even[%d] = %d, want %d", i, gotEven[i], wantEven[i])
		}
	}
}

func TestUnaryMath(t *testing.T) {
	a := bytesOfF32([]float32{0, float32(math.Pi / 2)})
	out := make([]byte, 8)
	Sin(a, out, 0, 2, dtype.F32)
	got := viewF32(out)
	if math.Abs(float64(got[0])) > 1e-6 {
		t.Errorf("Sin(0) = %f, want 0", got[0])
	}
	if math.Abs(float64(got[1]-1)) > 1e-5 {
		t.Errorf("Sin(pi/2) = %f, want 1", got[1])
	}
}

func TestComparisonOps(t *testing.T) {
	a := bytesOfF32([]float32{1, 5, 3})
	b := bytesOfF32([]float32{2, 5, 1})
	out := make([]byte, 12)
	shape := graph.Shape{3}
	Less(a, b, graph.BroadcastNormal, graph.BroadcastNormal, shape, shape, out, 3, 0, 3, dtype.F32)
	want := []int32{1, 0, 0}
	got := viewI32(out)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Less[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
