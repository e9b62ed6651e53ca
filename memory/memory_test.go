package memory

import (
	"testing"

	"github.com/Frobeniusnorm/Flint-sub000/dtype"
	"github.com/Frobeniusnorm/Flint-sub000/graph"
)

func TestPoolGetPutRoundTrips(t *testing.T) {
	p := NewPool()
	buf := p.Get(16)
	if len(buf) != 16 {
		t.Fatalf("Get(16) returned %d bytes", len(buf))
	}
	buf[0] = 0xFF
	p.Put(buf)

	buf2 := p.Get(16)
	if len(buf2) != 16 {
		t.Fatalf("Get(16) returned %d bytes", len(buf2))
	}
	if buf2[0] != 0 {
		t.Errorf("pooled buffer was not zeroed before reuse")
	}
}

func TestSyncMemoryIsNoopWhenHostPopulated(t *testing.T) {
	n := &graph.Node{Result: &graph.Result{Host: []byte{1, 2, 3}}}
	if err := SyncMemory(n); err != nil {
		t.Fatalf("SyncMemory: %v", err)
	}
}

func TestSyncMemoryErrorsWithoutDevice(t *testing.T) {
	n := &graph.Node{Result: &graph.Result{}}
	if err := SyncMemory(n); err == nil {
		t.Errorf("SyncMemory should fail when neither host nor device buffer is present")
	}
}

func TestOptimizeMemoryCollapsesToStoreAndFreesPredecessors(t *testing.T) {
	a, err := graph.GenConstant(graph.Shape{2}, dtype.F32, float64(1))
	if err != nil {
		t.Fatalf("GenConstant: %v", err)
	}
	b, err := graph.Add(a, a)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	b.Result = &graph.Result{Host: make([]byte, 8), NumEntries: 2}

	if got := a.RefCount(); got != 2 {
		t.Fatalf("a.RefCount() = %d before collapse, want 2", got)
	}

	OptimizeMemory(b)

	if b.Op.Kind != graph.OpStore {
		t.Errorf("collapsed node Kind = %v, want OpStore", b.Op.Kind)
	}
	if b.Arity != 0 {
		t.Errorf("collapsed node Arity = %d, want 0", b.Arity)
	}
	if got := a.RefCount(); got != 0 {
		t.Errorf("a.RefCount() after collapse = %d, want 0", got)
	}
}
