package kernels

import (
	"testing"

	"github.com/Frobeniusnorm/Flint-sub000/dtype"
)

func TestGenRandomInUnitRange(t *testing.T) {
	out := make([]byte, 8*4)
	GenRandom(out, 8, 1.2345, dtype.F32)
	got := viewF32(out)
	for i, v := range got {
		if v < 0 || v >= 1 {
			t.Errorf("GenRandom[%d] = %f, want [0,1)", i, v)
		}
	}
}

func TestGenRandomDeterministicForSameSeed(t *testing.T) {
	a := make([]byte, 4*4)
	b := make([]byte, 4*4)
	GenRandom(a, 4, 42, dtype.F32)
	GenRandom(b, 4, 42, dtype.F32)
	for i := range viewF32(a) {
		if viewF32(a)[i] != viewF32(b)[i] {
			t.Errorf("same seed produced different values at %d", i)
		}
	}
}

func TestGenConstant(t *testing.T) {
	out := make([]byte, 4*8)
	GenConstant(out, 4, 7, dtype.I64)
	for i, v := range viewI64(out)[:4] {
		if v != 7 {
			t.Errorf("GenConstant[%d] = %d, want 7", i, v)
		}
	}
}

func TestGenArangeAlongAxis(t *testing.T) {
	out := make([]byte, 6*4)
	GenArange(out, []uint64{2, 3}, 1, dtype.I32)
	want := []int32{0, 1, 2, 0, 1, 2}
	got := viewI32(out)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("GenArange[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestGenArangeAxis0(t *testing.T) {
	out := make([]byte, 6*4)
	GenArange(out, []uint64{2, 3}, 0, dtype.I32)
	want := []int32{0, 0, 0, 1, 1, 1}
	got := viewI32(out)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("GenArange[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestDropoutInferenceIsIdentity(t *testing.T) {
	a := bytesOfF32([]float32{1, 2, 3, 4})
	out := make([]byte, 16)
	Dropout(a, out, 4, 0.5, false, 1, dtype.F32)
	got := viewF32(out)
	want := []float32{1, 2, 3, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Dropout(inference)[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestDropoutTrainingZeroesOrRescales(t *testing.T) {
	a := bytesOfF32([]float32{2, 2, 2, 2, 2, 2, 2, 2})
	out := make([]byte, 32)
	Dropout(a, out, 8, 0.5, true, 99, dtype.F32)
	got := viewF32(out)
	for i, v := range got {
		if v != 0 && v != 4 {
			t.Errorf("Dropout(training)[%d] = %f, want 0 or 4 (scale 1/(1-p))", i, v)
		}
	}
}
