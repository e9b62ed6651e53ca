package gpuexec

import (
	"github.com/Frobeniusnorm/Flint-sub000/dtype"
	"github.com/Frobeniusnorm/Flint-sub000/graph"
)

// eagerKey identifies one pre-built kernel: an operation paired with the
// concrete dtype it was specialized for.
type eagerKey struct {
	kind graph.OpKind
	dt   dtype.Type
}

// Eager is the table of pre-built kernels, one per (operation, dtype) pair,
// that TryExecute consults before trying fusion. It holds whatever the
// backend registers: the stub registers nothing, and the opencl backend
// registers float32 Add and Mul only; no matmul, reduction, convolution or
// pooling kernel is registered.
type Eager struct {
	kernels map[eagerKey]*compiledKernel
}

func newEager() *Eager {
	return &Eager{kernels: make(map[eagerKey]*compiledKernel)}
}

// register installs a pre-built kernel for (kind, dt). Called by a
// backend during initialization once it has compiled its permutation
// table; a backend with no device available never calls it, so lookup
// always misses and callers fall back to cpuexec.
func (e *Eager) register(kind graph.OpKind, dt dtype.Type, k *compiledKernel) {
	e.kernels[eagerKey{kind, dt}] = k
}

func (e *Eager) lookup(kind graph.OpKind, dt dtype.Type) (*compiledKernel, bool) {
	k, ok := e.kernels[eagerKey{kind, dt}]
	return k, ok
}
