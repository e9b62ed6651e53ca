// Package memory implements Flint's memory manager: a size-classed host
// buffer pool (the Go analogue of the teacher's runtime.BufferPool), a
// device-to-host sync hook, and the collapse-to-Store optimization that
// lets a materialized node release the upstream subgraph it no longer
// needs once nothing else depends on it for gradient recomputation.
package memory

import (
	"sync"

	"github.com/Frobeniusnorm/Flint-sub000/ferr"
	"github.com/Frobeniusnorm/Flint-sub000/graph"
)

// Pool recycles host result buffers by exact byte size, avoiding a fresh
// allocation for every node execution when the same shape/dtype pair
// recurs across calls (e.g. inside a training loop).
type Pool struct {
	mu      sync.Mutex
	buckets map[int]*sync.Pool
}

// NewPool returns an empty Pool.
func NewPool() *Pool {
	return &Pool{buckets: make(map[int]*sync.Pool)}
}

// Get returns a zeroed buffer of exactly size bytes, from the pool if one
// of that size is available.
func (p *Pool) Get(size int) []byte {
	p.mu.Lock()
	bucket, ok := p.buckets[size]
	if !ok {
		bucket = &sync.Pool{New: func() any { return make([]byte, size) }}
		p.buckets[size] = bucket
	}
	p.mu.Unlock()
	return bucket.Get().([]byte)
}

// Put returns buf to the pool for reuse by a future Get of the same size.
func (p *Pool) Put(buf []byte) {
	if len(buf) == 0 {
		return
	}
	size := len(buf)
	p.mu.Lock()
	bucket, ok := p.buckets[size]
	p.mu.Unlock()
	if !ok {
		return
	}
	for i := range buf {
		buf[i] = 0
	}
	bucket.Put(buf)
}

// hostReadable is satisfied by a gpuexec device buffer that can stage its
// contents back to host memory. Declared locally, like graph.DeviceBuffer,
// so memory never imports gpuexec.
type hostReadable interface {
	ReadHost(dst []byte) error
}

// SyncMemory ensures n.Result.Host is populated, reading it back from the
// device buffer if the node was last materialized on the GPU.
func SyncMemory(n *graph.Node) error {
	if n.Result == nil {
		return ferr.New(ferr.InternalError, "memory: SyncMemory called on a node with no Result")
	}
	if n.Result.Host != nil {
		return nil
	}
	if n.Result.Device == nil {
		return ferr.New(ferr.InternalError, "memory: Result has neither a host nor a device buffer")
	}
	r, ok := n.Result.Device.(hostReadable)
	if !ok {
		return ferr.New(ferr.InternalError, "memory: device buffer %T does not support host sync", n.Result.Device)
	}
	host := make([]byte, n.Result.Device.Bytes())
	if err := r.ReadHost(host); err != nil {
		return ferr.Wrap(ferr.OclError, err, "memory: device-to-host sync failed")
	}
	n.Result.Host = host
	return nil
}

// OptimizeMemory collapses an already-materialized node into a bare Store
// leaf, detaching it from its predecessors and cascading Unref/Free down
// the chain those predecessors are no longer needed by n. Call this on a
// subgraph's root once its Result will never need recomputation (e.g.
// after a forward pass whose gradient has already been taken), to let the
// predecessor chain's buffers and GradInfo sets be freed. A no-op if n has
// no Result yet or is already a leaf.
func OptimizeMemory(n *graph.Node) {
	if n.Result == nil || n.Arity == 0 {
		return
	}
	preds := n.Preds
	arity := n.Arity
	n.Op = graph.Operation{Kind: graph.OpStore, DType: n.Op.DType, Shape: n.Op.Shape, NDim: n.Op.NDim}
	n.Arity = 0
	for i := 0; i < arity; i++ {
		p := preds[i]
		n.Preds[i] = nil
		if p != nil && p.Unref() {
			p.Free()
		}
	}
}
