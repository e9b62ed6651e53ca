package cpuexec

import (
	"testing"
	"unsafe"

	"github.com/Frobeniusnorm/Flint-sub000/dtype"
	"github.com/Frobeniusnorm/Flint-sub000/graph"
)

func f32At(buf []byte, i int) float32 {
	return *(*float32)(unsafe.Pointer(&buf[i*4]))
}

func TestExecuteAddsTwoConstants(t *testing.T) {
	a, err := graph.GenConstant(graph.Shape{2, 2}, dtype.F32, float64(3))
	if err != nil {
		t.Fatalf("GenConstant a: %v", err)
	}
	b, err := graph.GenConstant(graph.Shape{2, 2}, dtype.F32, float64(4))
	if err != nil {
		t.Fatalf("GenConstant b: %v", err)
	}
	sum, err := graph.Add(a, b)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	res, err := New().Execute(sum)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for i := 0; i < 4; i++ {
		if got := f32At(res.Host, i); got != 7 {
			t.Errorf("sum[%d] = %f, want 7", i, got)
		}
	}
}

func TestExecuteSkipsAlreadyMaterializedNodes(t *testing.T) {
	a, _ := graph.GenConstant(graph.Shape{3}, dtype.F32, float64(1))
	if _, err := New().Execute(a); err != nil {
		t.Fatalf("Execute a: %v", err)
	}
	original := a.Result.Host

	b, _ := graph.GenConstant(graph.Shape{3}, dtype.F32, float64(2))
	sum, err := graph.Add(a, b)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := New().Execute(sum); err != nil {
		t.Fatalf("Execute sum: %v", err)
	}
	if &a.Result.Host[0] != &original[0] {
		t.Errorf("already-materialized predecessor was re-run")
	}
}

func TestExecuteReshapeReusesBuffer(t *testing.T) {
	a, _ := graph.GenConstant(graph.Shape{2, 2}, dtype.F32, float64(5))
	reshaped, err := graph.Reshape(a, graph.Shape{4})
	if err != nil {
		t.Fatalf("Reshape: %v", err)
	}
	res, err := New().Execute(reshaped)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if &res.Host[0] != &a.Result.Host[0] {
		t.Errorf("Reshape did not reuse predecessor's buffer")
	}
}

func TestExecuteChunksLargeElementwiseOp(t *testing.T) {
	n := uint64(2000)
	a, _ := graph.GenConstant(graph.Shape{n}, dtype.F32, float64(2))
	b, _ := graph.GenConstant(graph.Shape{n}, dtype.F32, float64(3))
	prod, err := graph.Mul(a, b)
	if err != nil {
		t.Fatalf("Mul: %v", err)
	}
	res, err := New().Execute(prod)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for i := 0; i < int(n); i++ {
		if got := f32At(res.Host, i); got != 6 {
			t.Errorf("prod[%d] = %f, want 6", i, got)
			break
		}
	}
}
