// Package registry implements Flint's operator registry: the trait bundle
// the spec associates with every operation kind (spec.md §4.2) — a CPU
// kernel entry point, a local-gradient rule for reverse-mode autodiff, a
// fusion-reuse mask, a coarse parallelization score, and an Elementwise
// flag marking kernels that may be chunked by output range.
//
// This mirrors the teacher's kernels/optimize.go opcode-indexed behavior
// tables, generalized from a flat uint8 kernel-ID catalog to the richer
// per-operation trait bundle spec.md §4.2 names. cpuexec and autodiff
// consume this package instead of switching on graph.OpKind directly.
package registry

import (
	"github.com/Frobeniusnorm/Flint-sub000/ferr"
	"github.com/Frobeniusnorm/Flint-sub000/graph"
)

// CPUKernelFn executes n's operation for the output range [from, from+size)
// given the byte buffers of its already-materialized predecessors. Ops
// whose CPU kernel cannot be sharded by output range (see Entry.Elementwise)
// are always called with from=0 and size=total element count.
type CPUKernelFn func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64)

// LocalGradientFn computes the contribution of n's upstream adjoint to
// predecessor inputIndex, per spec.md §4.6 step 4. Operations without a
// defined derivative return the IllegalDerive error of spec.md §7.
type LocalGradientFn func(n *graph.Node, inputIndex int, adjoint *graph.Node) (*graph.Node, error)

// Entry is the trait bundle the spec's registry associates with an OpKind.
type Entry struct {
	// Elementwise marks kernels safe to invoke on an arbitrary contiguous
	// output sub-range — these are the ones cpuexec may chunk across the
	// worker pool. Non-elementwise kernels (matmul, reductions, shape
	// operations, convolution, pooling, indexing) always run as one
	// inline call regardless of score, since their cross-element
	// structure makes byte-range sharding unsound without a sub-kernel
	// aware of the shared reduction/window state.
	Elementwise bool
	// Score is the per-element cost multiplier used in
	// score = total_elements * Score, spec.md §4.3.
	Score int
	Kernel         CPUKernelFn
	LocalGradient  LocalGradientFn
	// FusionReusable reports, per predecessor index, whether the GPU
	// fusion walker may let this operation overwrite that predecessor's
	// result buffer in place (spec.md §4.2 fusion_reuse_mask).
	FusionReusable func(n *graph.Node) []bool
}

var table [256]*Entry

func init() {
	registerKernels()
	registerGradients()
}

func register(k graph.OpKind, e *Entry) {
	table[k] = e
}

// Lookup returns the registry entry for kind, or nil if unregistered.
// Every OpKind declared in graph (Store included) has an entry, so nil
// means a value outside that set.
func Lookup(kind graph.OpKind) *Entry {
	return table[kind]
}

// Score computes spec.md §4.3's dispatch score for n given its output
// element count.
func Score(n *graph.Node, totalElements uint64) int {
	e := table[n.Op.Kind]
	if e == nil {
		return 0
	}
	return int(totalElements) * e.Score
}

func noGradient(reason string) LocalGradientFn {
	return func(n *graph.Node, inputIndex int, adjoint *graph.Node) (*graph.Node, error) {
		return nil, ferr.New(ferr.IllegalDerive, "%s has no local gradient (%s)", n.Op.Kind, reason)
	}
}

func allReusable(n bool) func(*graph.Node) []bool {
	return func(node *graph.Node) []bool {
		mask := make([]bool, node.Arity)
		for i := range mask {
			mask[i] = n
		}
		return mask
	}
}
