package autodiff

import (
	"testing"
	"unsafe"

	"github.com/Frobeniusnorm/Flint-sub000/cpuexec"
	"github.com/Frobeniusnorm/Flint-sub000/dtype"
	"github.com/Frobeniusnorm/Flint-sub000/graph"
)

func f32At(buf []byte, i int) float32 {
	return *(*float32)(unsafe.Pointer(&buf[i*4]))
}

func TestGradientOfSquareIsTwiceX(t *testing.T) {
	x, err := graph.GenConstant(graph.Shape{3}, dtype.F32, float64(2))
	if err != nil {
		t.Fatalf("GenConstant: %v", err)
	}
	Watch(x)

	y, err := graph.Mul(x, x)
	if err != nil {
		t.Fatalf("Mul: %v", err)
	}

	dydx, err := Gradient(y, x)
	if err != nil {
		t.Fatalf("Gradient: %v", err)
	}

	res, err := cpuexec.New().Execute(dydx)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for i := 0; i < 3; i++ {
		if got := f32At(res.Host, i); got != 4 {
			t.Errorf("dy/dx[%d] = %f, want 4", i, got)
		}
	}
}

func TestGradientWithoutWatchIsIllegal(t *testing.T) {
	x, _ := graph.GenConstant(graph.Shape{1}, dtype.F32, float64(1))
	y, err := graph.Add(x, x)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := Gradient(y, x); err == nil {
		t.Errorf("Gradient without Watch should fail")
	}
}

func TestGradientThroughAddAndMulChain(t *testing.T) {
	x, _ := graph.GenConstant(graph.Shape{2}, dtype.F32, float64(3))
	Watch(x)

	xPlus1, err := graph.Add(x, mustScalar(t, dtype.F32, 1))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	z, err := graph.Mul(xPlus1, x) // z = (x+1)*x = x^2 + x, dz/dx = 2x+1
	if err != nil {
		t.Fatalf("Mul: %v", err)
	}

	dzdx, err := Gradient(z, x)
	if err != nil {
		t.Fatalf("Gradient: %v", err)
	}
	res, err := cpuexec.New().Execute(dzdx)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for i := 0; i < 2; i++ {
		if got := f32At(res.Host, i); got != 7 {
			t.Errorf("dz/dx[%d] = %f, want 7", i, got)
		}
	}
}

func mustScalar(t *testing.T, dt dtype.Type, v float64) *graph.Node {
	t.Helper()
	n, err := graph.GenConstant(graph.Shape{}, dt, v)
	if err != nil {
		t.Fatalf("GenConstant: %v", err)
	}
	return n
}
