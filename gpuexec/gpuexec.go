// Package gpuexec is Flint's GPU executor: a lazy fusion compiler that
// turns a subgraph into OpenCL C kernel source, a process-wide kernel
// cache keyed by that source text, and an eager runtime that looks up
// one pre-built kernel per (operation, dtype) pair. The real device calls
// live behind the opencl build tag (backend_opencl.go); without it,
// backend_stub.go reports no device available and cpuexec falls back to
// its own CPU kernels.
package gpuexec

import (
	"github.com/Frobeniusnorm/Flint-sub000/ferr"
	"github.com/Frobeniusnorm/Flint-sub000/graph"
)

// Engine implements cpuexec.Device: it's handed a node and its already
// materialized predecessor buffers, and either runs the node on the GPU
// or reports ok=false so the caller retries on CPU.
type Engine struct {
	backend backend
	cache   *kernelCache
	eager   *Eager
}

// eagerProvider is implemented by a backend that pre-builds a fixed set
// of (OpKind, dtype) kernels at startup rather than compiling them from
// fused source on first use. The stub backend doesn't implement it, so
// the eager table stays empty and every lookup falls through to fusion
// (and from there, since fusion also has nothing to compile, to cpuexec).
type eagerProvider interface {
	registerEagerKernels(*Eager)
}

// processCache is the kernel cache shared by every Engine in the process.
var processCache = newKernelCache()

// New returns an Engine bound to whatever backend was compiled in. With
// the opencl build tag absent, every TryExecute call returns ok=false.
func New() *Engine {
	e := &Engine{
		backend: newBackend(),
		cache:   processCache,
		eager:   newEager(),
	}
	if p, ok := e.backend.(eagerProvider); ok {
		p.registerEagerKernels(e.eager)
	}
	return e
}

// TryExecute attempts to run n on the GPU. ok is false (with a nil error)
// when no device is available or the op has no GPU path yet; callers
// should fall back to their own CPU kernel in that case.
func (e *Engine) TryExecute(n *graph.Node, inputs [][]byte) (out []byte, ok bool, err error) {
	if !e.backend.available() {
		return nil, false, nil
	}

	if k, ok := e.eager.lookup(n.Op.Kind, n.Op.DType); ok {
		out, err := e.backend.run(k, n, inputs)
		if err != nil {
			return nil, false, ferr.Wrap(ferr.OclError, err, "gpuexec: eager dispatch of %s failed", n.Op.Kind)
		}
		return out, true, nil
	}

	src, key := e.compileFused(n)
	if src == "" {
		return nil, false, nil
	}
	k, err := e.cache.getOrCompile(key, src, e.backend)
	if err != nil {
		return nil, false, ferr.Wrap(ferr.OclError, err, "gpuexec: fused compile of %s failed", n.Op.Kind)
	}
	out, err = e.backend.run(k, n, inputs)
	if err != nil {
		return nil, false, ferr.Wrap(ferr.OclError, err, "gpuexec: fused dispatch of %s failed", n.Op.Kind)
	}
	return out, true, nil
}

func (e *Engine) compileFused(n *graph.Node) (source, cacheKey string) {
	f := newFuser()
	if !f.fuse(n) {
		return "", ""
	}
	return f.source(), f.key()
}
