package graph

import (
	"sync/atomic"

	"github.com/Frobeniusnorm/Flint-sub000/ferr"
)

// maxArity bounds the fixed predecessor array; SetIndex (arity 3) is the
// widest operation in the registry.
const maxArity = 3

// Node is a single vertex of the computation DAG. Fields are written only
// at construction and at execution time, matching the publication-
// synchronized invariant of spec.md §5: once a predecessor link is set it
// is never rewritten, so concurrent readers never observe a torn edge.
type Node struct {
	ID    uint64
	Op    Operation
	Preds [maxArity]*Node
	Arity int

	refcount int32 // atomic; see Ref/Unref

	Result *Result

	// GradInfo is the set of watched ("gradient-root") nodes reachable
	// from this node, or nil when none is. Populated by union of
	// predecessor GradInfo sets at construction time; construction does
	// not check whether a gradient context is open.
	GradInfo map[*Node]struct{}
}

var nextNodeID uint64

func allocID() uint64 {
	return atomic.AddUint64(&nextNodeID, 1)
}

// newNode allocates a Node, links the given predecessors (incrementing
// each one's refcount), and propagates GradInfo if any predecessor
// carries one (i.e. an ancestor is watched), whether or not a gradient
// context is active. This mirrors the builder sequence of spec.md §4.1.
func newNode(op Operation, preds ...*Node) (*Node, error) {
	if len(preds) > maxArity {
		return nil, ferr.New(ferr.InternalError, "operation %s exceeds max arity %d", op.Kind, maxArity)
	}
	n := &Node{
		ID:       allocID(),
		Op:       op,
		Arity:    len(preds),
		refcount: 0,
	}
	for i, p := range preds {
		n.Preds[i] = p
		p.Ref()
	}
	var grad map[*Node]struct{}
	for _, p := range preds {
		if p.GradInfo == nil {
			continue
		}
		if grad == nil {
			grad = make(map[*Node]struct{}, len(p.GradInfo))
		}
		for w := range p.GradInfo {
			grad[w] = struct{}{}
		}
	}
	n.GradInfo = grad
	return n, nil
}

// Ref increments the node's reference count. Called whenever the node is
// linked as a predecessor or explicitly retained by the frontend.
func (n *Node) Ref() {
	atomic.AddInt32(&n.refcount, 1)
}

// Unref decrements the reference count and reports whether it reached
// zero, at which point the caller should recursively Unref the node's
// own predecessors and release its Result (spec.md §3's refcount rule).
func (n *Node) Unref() bool {
	return atomic.AddInt32(&n.refcount, -1) == 0
}

// RefCount returns the current reference count, primarily for tests and
// diagnostics.
func (n *Node) RefCount() int32 {
	return atomic.LoadInt32(&n.refcount)
}

// Free releases this node's Result via free_extra semantics and
// recursively Unrefs its predecessors, cascading frees down the DAG.
// It is the Go analogue of spec.md §4.5's refcount-triggered free chain.
func (n *Node) Free() {
	n.Result = nil
	FreeExtra(n.Op)
	for i := 0; i < n.Arity; i++ {
		p := n.Preds[i]
		n.Preds[i] = nil
		if p != nil && p.Unref() {
			p.Free()
		}
	}
}

// IsWatched reports whether v appears in n's GradInfo set.
func (n *Node) IsWatched(v *Node) bool {
	if n.GradInfo == nil {
		return false
	}
	_, ok := n.GradInfo[v]
	return ok
}

// Watch marks v as a gradient root: it is inserted into its own GradInfo
// (spec.md §4.6). Subsequent nodes built from v carry v forward in their
// own GradInfo, whether or not a gradient context is active.
func Watch(v *Node) {
	if v.GradInfo == nil {
		v.GradInfo = make(map[*Node]struct{}, 1)
	}
	v.GradInfo[v] = struct{}{}
}

// Unwatch removes v from its own GradInfo.
func Unwatch(v *Node) {
	if v.GradInfo != nil {
		delete(v.GradInfo, v)
	}
}

// TopoOrder returns the subgraph rooted at root in forward (dependency-
// first) order: every predecessor of n appears before n. Used by both
// the CPU executor's bottom-up walk and the autodiff backward pass.
func TopoOrder(root *Node) []*Node {
	var order []*Node
	visited := make(map[*Node]bool)
	var visit func(n *Node)
	visit = func(n *Node) {
		if n == nil || visited[n] {
			return
		}
		visited[n] = true
		for i := 0; i < n.Arity; i++ {
			visit(n.Preds[i])
		}
		order = append(order, n)
	}
	visit(root)
	return order
}
