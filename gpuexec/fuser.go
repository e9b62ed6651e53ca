package gpuexec

import (
	"fmt"
	"strings"

	"github.com/Frobeniusnorm/Flint-sub000/graph"
	"github.com/Frobeniusnorm/Flint-sub000/registry"
)

// indexScope is a scoped rebinding of the flat output index, pushed only
// while visiting a predecessor that carries the inverse-broadcast flag and
// whose shape differs from its consumer's. prev records the enclosing
// scope's index name ("gid" at the outermost level).
type indexScope struct {
	prev string
}

// fuser walks a subgraph depth-first from its root and assembles OpenCL C
// kernel source for it. A node's fragment is appended only after all of
// its predecessors have been visited (post-order), so every predecessor's
// definition already precedes its consumer's in frags.
type fuser struct {
	frags  []string // in final top-to-bottom kernel order, earliest dependency first
	scopes []indexScope
	seen   map[*graph.Node]string // node -> its SSA variable name
	nextID int
	ok     bool

	// leaf tracks the single generator node the fused kernel reads its
	// input buffer from. The generated source only declares one `in`
	// parameter, so a subgraph touching a second distinct leaf can't be
	// fused; run() hands the backend exactly leaf's materialized bytes.
	leaf *graph.Node
}

func newFuser() *fuser {
	return &fuser{seen: make(map[*graph.Node]string)}
}

// fuse attempts to build fused source for root's subgraph. It returns
// false if any node along the way has no registry entry, if a non-leaf
// node isn't Elementwise, or if the subgraph reads from more than one
// leaf, since only elementwise chains can share one work-item's index
// across the whole fused kernel body.
func (f *fuser) fuse(root *graph.Node) bool {
	f.ok = true
	f.visit(root)
	return f.ok && len(f.frags) > 0
}

func (f *fuser) visit(n *graph.Node) string {
	if v, done := f.seen[n]; done {
		return v
	}
	if !f.ok {
		return ""
	}

	entry := registry.Lookup(n.Op.Kind)
	if entry == nil {
		f.ok = false
		return ""
	}
	// A leaf (Store/GenConstant/GenRandom/GenArange) always ends the walk
	// as a plain input read, regardless of its own Elementwise flag —
	// that flag only governs whether cpuexec may chunk a *kernel call*,
	// and a leaf's value here is just "whatever is already in in[gid]".
	if n.Arity > 0 && !entry.Elementwise {
		f.ok = false
		return ""
	}

	inputs := make([]string, n.Arity)
	for i := 0; i < n.Arity; i++ {
		p := n.Preds[i]
		rebind := p.Op.Inverse && !p.Op.Shape.Equal(n.Op.Shape)
		if rebind {
			f.pushIndexScope(fmt.Sprintf("old_index_%d", f.nextID))
		}
		inputs[i] = f.visit(p)
		if rebind {
			f.popIndexScope()
		}
		if !f.ok {
			return ""
		}
	}

	v := fmt.Sprintf("v%d", f.nextID)
	f.nextID++
	f.seen[n] = v

	var rhs string
	switch n.Arity {
	case 0:
		if f.leaf != nil && f.leaf != n {
			f.ok = false
			return ""
		}
		f.leaf = n
		rhs = "in[gid]"
	case 1:
		rhs = fmt.Sprintf("op_%s(%s)", n.Op.Kind, inputs[0])
	case 2:
		rhs = fmt.Sprintf("op_%s(%s, %s)", n.Op.Kind, inputs[0], inputs[1])
	default:
		f.ok = false
		return ""
	}

	f.frags = append(f.frags, fmt.Sprintf("    float %s = %s;", v, rhs))
	return v
}

// pushIndexScope rebinds the flat output index inside a nested fragment,
// entered when a fused predecessor carries the inverse-broadcast flag
// against a differently-shaped consumer. It emits `int newIndex = gid;`
// as a fragment and pushes a scope recording the enclosing index name,
// which popIndexScope discards again; per Open Question 3 this only fires
// when the shapes actually differ, never for an already-equal pair.
func (f *fuser) pushIndexScope(newIndex string) {
	enclosing := "gid"
	if len(f.scopes) > 0 {
		enclosing = f.scopes[len(f.scopes)-1].prev
	}
	f.frags = append(f.frags, fmt.Sprintf("    int %s = gid;", newIndex))
	f.scopes = append(f.scopes, indexScope{prev: enclosing})
}

func (f *fuser) popIndexScope() {
	if len(f.scopes) > 0 {
		f.scopes = f.scopes[:len(f.scopes)-1]
	}
}

// source assembles the final kernel text: a __kernel function iterating
// one work-item per output element, running every fused fragment in
// dependency order, and storing the last fragment's value to out[gid].
func (f *fuser) source() string {
	var b strings.Builder
	b.WriteString("__kernel void fused(__global const float *in, __global float *out) {\n")
	b.WriteString("    int gid = get_global_id(0);\n")
	for _, frag := range f.frags {
		b.WriteString(frag)
		b.WriteByte('\n')
	}
	if len(f.frags) > 0 {
		last := fmt.Sprintf("v%d", f.nextID-1)
		fmt.Fprintf(&b, "    out[gid] = %s;\n", last)
	}
	b.WriteString("}\n")
	return b.String()
}

// key returns the cache key this fused source should be stored and
// looked up under: the source text itself, since two structurally
// identical subgraphs always compile to byte-identical source.
func (f *fuser) key() string {
	return f.source()
}
