// Package autodiff implements Flint's reverse-mode automatic
// differentiation: a process-wide nestable gradient context, watched
// variables, and the backward accumulation pass that turns a watched
// node's local-gradient rules (registry.Entry.LocalGradient) into a
// gradient graph the executor can run like any other node.
package autodiff

import (
	"sync/atomic"

	"github.com/Frobeniusnorm/Flint-sub000/ferr"
	"github.com/Frobeniusnorm/Flint-sub000/graph"
	"github.com/Frobeniusnorm/Flint-sub000/registry"
)

var depth int32

// Context runs fn with the process-wide context depth raised by one,
// restoring the prior depth afterwards. Nestable: an inner Context call
// does not close an outer one that is still active. The depth is what
// Active reports; node construction and Watch do not consult it.
func Context(fn func() error) error {
	atomic.AddInt32(&depth, 1)
	defer atomic.AddInt32(&depth, -1)
	return fn()
}

// Active reports whether a Context is currently open on this goroutine's
// call stack (or any other's — the flag is process-wide, matching the
// single-process C library this package's frontend wraps).
func Active() bool {
	return atomic.LoadInt32(&depth) > 0
}

// Watch marks v as a gradient root, whether or not a Context is open;
// nodes built afterwards from v carry it forward in their GradInfo so
// Gradient can later be asked for d(of)/d(v).
func Watch(v *graph.Node) {
	graph.Watch(v)
}

// Unwatch stops tracking v as a gradient root.
func Unwatch(v *graph.Node) {
	graph.Unwatch(v)
}

// Gradient computes d(of)/d(wrt). wrt must have been Watch()ed before of
// was built, and the path between them must consist only of operations
// with a defined local gradient; non-differentiable operations on an
// otherwise-dead branch (one that does not reach wrt) are fine.
func Gradient(of, wrt *graph.Node) (*graph.Node, error) {
	if !of.IsWatched(wrt) {
		return nil, ferr.New(ferr.IllegalDerive, "Gradient: target was not Watch()ed before the output node was built")
	}

	order := graph.TopoOrder(of)
	adjoints := make(map[*graph.Node]*graph.Node, len(order))
	seed, err := graph.GenConstant(of.Op.Shape, of.Op.DType, 1)
	if err != nil {
		return nil, err
	}
	adjoints[of] = seed

	for i := len(order) - 1; i >= 0; i-- {
		n := order[i]
		adj, ok := adjoints[n]
		if !ok {
			continue
		}
		entry := registry.Lookup(n.Op.Kind)
		if entry == nil || entry.LocalGradient == nil || n.Arity == 0 {
			continue
		}
		for pi := 0; pi < n.Arity; pi++ {
			p := n.Preds[pi]
			if p != wrt && !p.IsWatched(wrt) {
				continue
			}
			contrib, err := entry.LocalGradient(n, pi, adj)
			if err != nil {
				if ferr.As(err, ferr.IllegalDerive) {
					return nil, ferr.Wrap(ferr.IllegalDerive, err, "Gradient: %s on the path to the watched target has no local gradient", n.Op.Kind)
				}
				return nil, err
			}
			if existing, ok := adjoints[p]; ok {
				summed, err := graph.Add(existing, contrib)
				if err != nil {
					return nil, err
				}
				adjoints[p] = summed
			} else {
				adjoints[p] = contrib
			}
		}
	}

	result, ok := adjoints[wrt]
	if !ok {
		return graph.GenConstant(wrt.Op.Shape, wrt.Op.DType, 0)
	}
	return result, nil
}

// Gradients computes d(of)/d(wrt) for every node in wrts, in the order
// given, by calling Gradient once per entry: the backward walk over of's
// subgraph is repeated for every wrt, and nothing is shared between the
// calls.
func Gradients(of *graph.Node, wrts []*graph.Node) ([]*graph.Node, error) {
	out := make([]*graph.Node, len(wrts))
	for i, w := range wrts {
		g, err := Gradient(of, w)
		if err != nil {
			return nil, err
		}
		out[i] = g
	}
	return out, nil
}
