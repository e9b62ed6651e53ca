//go:build !opencl

package gpuexec

import "github.com/Frobeniusnorm/Flint-sub000/graph"

// stubBackend is linked in whenever the opencl build tag is absent. It
// reports no device, so Engine.TryExecute always declines and every node
// runs on cpuexec instead.
type stubBackend struct{}

func newBackend() backend { return stubBackend{} }

func (stubBackend) available() bool { return false }

func (stubBackend) compile(source string) (*compiledKernel, error) {
	return &compiledKernel{name: "stub"}, nil
}

func (stubBackend) run(k *compiledKernel, n *graph.Node, inputs [][]byte) ([]byte, error) {
	return nil, nil
}
