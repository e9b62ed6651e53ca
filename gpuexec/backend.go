package gpuexec

import "github.com/Frobeniusnorm/Flint-sub000/graph"

// compiledKernel is a backend-opaque handle to a built kernel; its
// contents are defined per build tag in backend_opencl.go / backend_stub.go.
type compiledKernel struct {
	name   string
	handle any
}

// backend is the GPU device boundary: available reports whether a real
// device was found, compile turns kernel source into a compiledKernel,
// and run dispatches one against a node's materialized inputs.
type backend interface {
	available() bool
	compile(source string) (*compiledKernel, error)
	run(k *compiledKernel, n *graph.Node, inputs [][]byte) ([]byte, error)
}
