package gpuexec

import (
	"testing"

	"github.com/Frobeniusnorm/Flint-sub000/dtype"
	"github.com/Frobeniusnorm/Flint-sub000/graph"
)

func TestTryExecuteDeclinesWithoutDevice(t *testing.T) {
	e := New()

	a, err := graph.GenConstant(graph.Shape{4}, dtype.F32, float64(1))
	if err != nil {
		t.Fatalf("GenConstant: %v", err)
	}
	b, err := graph.GenConstant(graph.Shape{4}, dtype.F32, float64(2))
	if err != nil {
		t.Fatalf("GenConstant: %v", err)
	}
	sum, err := graph.Add(a, b)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	// a and b were never executed, so they have no Result; the stub backend
	// declines before reading any input buffer.
	_, ok, err := e.TryExecute(sum, [][]byte{nil, nil})
	if err != nil {
		t.Fatalf("TryExecute: %v", err)
	}
	if ok {
		t.Errorf("TryExecute reported ok=true with no backend compiled in")
	}
}

func TestFuserFusesElementwiseChain(t *testing.T) {
	a, err := graph.GenConstant(graph.Shape{4}, dtype.F32, float64(1))
	if err != nil {
		t.Fatalf("GenConstant: %v", err)
	}
	// A single shared leaf: the fused kernel declares one `in` buffer, so
	// a chain that only ever reads from `a` is what's fusable here.
	sum, err := graph.Add(a, a)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	doubled, err := graph.Mul(sum, sum)
	if err != nil {
		t.Fatalf("Mul: %v", err)
	}

	f := newFuser()
	if !f.fuse(doubled) {
		t.Fatalf("fuse() = false, want true for an all-elementwise chain over one leaf")
	}
	src := f.source()
	if src == "" {
		t.Errorf("source() is empty after a successful fuse")
	}
}

func TestFuserDeclinesNonElementwiseRoot(t *testing.T) {
	a, err := graph.GenConstant(graph.Shape{2, 2}, dtype.F32, float64(1))
	if err != nil {
		t.Fatalf("GenConstant: %v", err)
	}
	reduced, err := graph.ReduceSum(a, 0)
	if err != nil {
		t.Fatalf("ReduceSum: %v", err)
	}

	f := newFuser()
	if f.fuse(reduced) {
		t.Errorf("fuse() = true for a reduction root, want false")
	}
}
