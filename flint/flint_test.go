package flint

import (
	"testing"
	"unsafe"

	"github.com/Frobeniusnorm/Flint-sub000/dtype"
	"github.com/Frobeniusnorm/Flint-sub000/fconfig"
	"github.com/Frobeniusnorm/Flint-sub000/graph"
)

func f32At(buf []byte, i int) float32 {
	return *(*float32)(unsafe.Pointer(&buf[i*4]))
}

func TestLazyAddExecutesOnDemand(t *testing.T) {
	Init(&fconfig.Config{Workers: 2, Eager: false})

	a, err := GenConstant(graph.Shape{2}, dtype.F32, float64(1))
	if err != nil {
		t.Fatalf("GenConstant: %v", err)
	}
	b, err := GenConstant(graph.Shape{2}, dtype.F32, float64(2))
	if err != nil {
		t.Fatalf("GenConstant: %v", err)
	}
	sum, err := a.Add(b)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	res, err := sum.Execute()
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for i := 0; i < 2; i++ {
		if got := f32At(res.Host, i); got != 3 {
			t.Errorf("sum[%d] = %f, want 3", i, got)
		}
	}
}

func TestEagerModeMaterializesImmediately(t *testing.T) {
	Init(&fconfig.Config{Workers: 2, Eager: true})
	defer Init(&fconfig.Config{Workers: 2, Eager: false})

	a, err := GenConstant(graph.Shape{3}, dtype.F32, float64(5))
	if err != nil {
		t.Fatalf("GenConstant: %v", err)
	}
	if a.Node().Result == nil {
		t.Errorf("eager GenConstant did not materialize a Result")
	}
}

func TestFreeReleasesRootAndCascadesToPredecessors(t *testing.T) {
	Init(&fconfig.Config{Workers: 2, Eager: false})

	a, err := GenConstant(graph.Shape{2}, dtype.F32, float64(1))
	if err != nil {
		t.Fatalf("GenConstant: %v", err)
	}
	b, err := GenConstant(graph.Shape{2}, dtype.F32, float64(2))
	if err != nil {
		t.Fatalf("GenConstant: %v", err)
	}
	sum, err := a.Add(b)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	// a and b are each held by both their own Tensor handle and sum's
	// predecessor edges; only once every handle is freed does the
	// refcount reach zero.
	if got := a.Node().RefCount(); got != 2 {
		t.Fatalf("a.RefCount() before any Free = %d, want 2", got)
	}
	a.Free()
	b.Free()
	if got := a.Node().RefCount(); got != 1 {
		t.Fatalf("a.RefCount() after a.Free() = %d, want 1 (sum still holds it)", got)
	}

	sum.Free()

	if got := a.Node().RefCount(); got != 0 {
		t.Errorf("a.RefCount() after sum.Free() = %d, want 0", got)
	}
	if got := b.Node().RefCount(); got != 0 {
		t.Errorf("b.RefCount() after sum.Free() = %d, want 0", got)
	}
}

func TestFreeOnFreshTensorReachesZero(t *testing.T) {
	Init(&fconfig.Config{Workers: 2, Eager: false})

	a, err := GenConstant(graph.Shape{2}, dtype.F32, float64(1))
	if err != nil {
		t.Fatalf("GenConstant: %v", err)
	}
	if got := a.Node().RefCount(); got != 1 {
		t.Fatalf("a.RefCount() before Free = %d, want 1 (its own Tensor handle)", got)
	}

	a.Free()

	if got := a.Node().RefCount(); got != 0 {
		t.Errorf("a.RefCount() after Free = %d, want 0", got)
	}
}

func TestGradientContextAndCalculateGradient(t *testing.T) {
	Init(&fconfig.Config{Workers: 2, Eager: false})

	err := GradientContext(func() error {
		x, err := GenConstant(graph.Shape{1}, dtype.F32, float64(4))
		if err != nil {
			return err
		}
		x.Watch()

		y, err := x.Mul(x)
		if err != nil {
			return err
		}
		dydx, err := y.CalculateGradient(x)
		if err != nil {
			return err
		}
		res, err := dydx.Execute()
		if err != nil {
			return err
		}
		if got := f32At(res.Host, 0); got != 8 {
			t.Errorf("dy/dx = %f, want 8", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("GradientContext: %v", err)
	}
}
