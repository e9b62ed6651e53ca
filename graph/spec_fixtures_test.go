package graph

import (
	"testing"

	"github.com/Frobeniusnorm/Flint-sub000/dtype"
)

// TestMatmulShapeRule mirrors spec.md's end-to-end matmul example: a batch
// of (64,32,16) tensors against a single (16,24) matrix broadcasts the
// matrix across the batch and contracts the shared dimension. The literal
// element values of this fixture are exercised at the kernel level in
// kernels_test.go; this checks the shape-inference rule MatMul builds on.
func TestMatmulShapeRule(t *testing.T) {
	a, err := GenConstant(Shape{64, 32, 16}, dtype.F32, float64(1))
	if err != nil {
		t.Fatalf("GenConstant a: %v", err)
	}
	b, err := GenConstant(Shape{16, 24}, dtype.F32, float64(1))
	if err != nil {
		t.Fatalf("GenConstant b: %v", err)
	}
	out, err := MatMul(a, b)
	if err != nil {
		t.Fatalf("MatMul: %v", err)
	}
	want := Shape{64, 32, 24}
	if !out.Op.Shape.Equal(want) {
		t.Errorf("shape = %v, want %v", out.Op.Shape, want)
	}
}
