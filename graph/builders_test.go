package graph

import (
	"testing"

	"github.com/Frobeniusnorm/Flint-sub000/dtype"
)

func mustStore(t *testing.T, shape Shape, dt dtype.Type) *Node {
	t.Helper()
	n, err := Store(shape, dt)
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	return n
}

func TestAddBroadcastAndPromotion(t *testing.T) {
	a := mustStore(t, Shape{2, 3}, dtype.F32)
	b := mustStore(t, Shape{3}, dtype.I64)
	n, err := Add(a, b)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if !n.Op.Shape.Equal(Shape{2, 3}) {
		t.Errorf("shape = %v, want {2,3}", n.Op.Shape)
	}
	if n.Op.DType != dtype.F32 {
		t.Errorf("dtype = %v, want f32 (promoted)", n.Op.DType)
	}
	if a.RefCount() != 1 || b.RefCount() != 1 {
		t.Errorf("refcounts = %d,%d want 1,1", a.RefCount(), b.RefCount())
	}
}

func TestAddIncompatibleShapes(t *testing.T) {
	a := mustStore(t, Shape{2, 3}, dtype.F32)
	b := mustStore(t, Shape{5}, dtype.F32)
	if _, err := Add(a, b); err == nil {
		t.Fatal("expected IncompatibleShapes error, got nil")
	}
}

func TestReshapePreservesCount(t *testing.T) {
	a := mustStore(t, Shape{2, 3}, dtype.F32)
	if _, err := Reshape(a, Shape{3, 2}); err != nil {
		t.Errorf("valid reshape failed: %v", err)
	}
	if _, err := Reshape(a, Shape{4, 2}); err == nil {
		t.Error("expected element-count mismatch error")
	}
}

func TestMatMulBatchBroadcast(t *testing.T) {
	a := mustStore(t, Shape{5, 2, 3}, dtype.F32)
	b := mustStore(t, Shape{3, 4}, dtype.F32)
	n, err := MatMul(a, b)
	if err != nil {
		t.Fatalf("MatMul failed: %v", err)
	}
	if !n.Op.Shape.Equal(Shape{5, 2, 4}) {
		t.Errorf("shape = %v, want {5,2,4}", n.Op.Shape)
	}
}

func TestMatMulInnerDimMismatch(t *testing.T) {
	a := mustStore(t, Shape{2, 3}, dtype.F32)
	b := mustStore(t, Shape{4, 5}, dtype.F32)
	if _, err := MatMul(a, b); err == nil {
		t.Fatal("expected inner-dim mismatch error")
	}
}

func TestConvolveSameRank(t *testing.T) {
	input := mustStore(t, Shape{10, 8}, dtype.F32)
	kernel := mustStore(t, Shape{3, 8}, dtype.F32)
	n, err := Convolve(input, kernel, []uint64{1})
	if err != nil {
		t.Fatalf("Convolve failed: %v", err)
	}
	// ceil((10-3+1)/1) = 8
	if !n.Op.Shape.Equal(Shape{8}) {
		t.Errorf("shape = %v, want {8}", n.Op.Shape)
	}
}

func TestConvolveWithFilters(t *testing.T) {
	input := mustStore(t, Shape{10, 8}, dtype.F32)
	kernel := mustStore(t, Shape{4, 3, 8}, dtype.F32) // 4 filters
	n, err := Convolve(input, kernel, []uint64{1})
	if err != nil {
		t.Fatalf("Convolve failed: %v", err)
	}
	if !n.Op.Shape.Equal(Shape{8, 4}) {
		t.Errorf("shape = %v, want {8,4}", n.Op.Shape)
	}
}

func TestConcatAxis(t *testing.T) {
	a := mustStore(t, Shape{2, 3}, dtype.F32)
	b := mustStore(t, Shape{2, 5}, dtype.F32)
	n, err := Concat(a, b, 1)
	if err != nil {
		t.Fatalf("Concat failed: %v", err)
	}
	if !n.Op.Shape.Equal(Shape{2, 8}) {
		t.Errorf("shape = %v, want {2,8}", n.Op.Shape)
	}
}

func TestRefcountCascadeOnFree(t *testing.T) {
	a := mustStore(t, Shape{2}, dtype.F32)
	b := mustStore(t, Shape{2}, dtype.F32)
	n, err := Add(a, b)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	n.Ref() // simulate frontend retaining the root
	if n.Unref() {
		n.Free()
	}
	if a.RefCount() != 0 || b.RefCount() != 0 {
		t.Errorf("predecessor refcounts after free = %d,%d want 0,0", a.RefCount(), b.RefCount())
	}
}

func TestTopoOrder(t *testing.T) {
	a := mustStore(t, Shape{2}, dtype.F32)
	b := mustStore(t, Shape{2}, dtype.F32)
	c, _ := Add(a, b)
	d, _ := Mul(c, a)
	order := TopoOrder(d)
	pos := make(map[*Node]int, len(order))
	for i, n := range order {
		pos[n] = i
	}
	if pos[a] > pos[c] || pos[b] > pos[c] || pos[c] > pos[d] {
		t.Errorf("topo order violates dependency ordering: %v", order)
	}
}

func TestWatchPropagatesGradInfo(t *testing.T) {
	a := mustStore(t, Shape{2}, dtype.F32)
	b := mustStore(t, Shape{2}, dtype.F32)
	Watch(a)
	c, err := Add(a, b)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if !c.IsWatched(a) {
		t.Error("expected c to carry a in its GradInfo after watching a")
	}
	if c.IsWatched(b) {
		t.Error("did not expect c to carry unwatched b in its GradInfo")
	}
}
