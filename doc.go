// Package flint implements a lazily-evaluated tensor computation engine:
// operations build an immutable DAG of nodes, and a node's result is only
// materialized when an executor runs it or an application asks for it.
//
// # Architecture Overview
//
// The engine is split across several packages:
//
//   - graph: node/shape/dtype primitives and the operation builders that
//     construct the DAG
//   - kernels: the per-dtype CPU math underlying every operation
//   - registry: per-operation traits — CPU kernel, fusion score, and
//     local-gradient rule — looked up by operation kind
//   - cpuexec: a worker-pool executor that walks a node's dependency
//     subgraph and materializes every missing Result
//   - gpuexec: a lazy-fusion OpenCL executor for nodes above the CPU
//     hand-off threshold
//   - autodiff: reverse-mode gradient tracking over watched nodes
//   - memory: host buffer pooling and the collapse-to-Store optimization
//   - fconfig: process-wide configuration (worker count, backend, log
//     level), loaded through viper
//   - flint: the public frontend, a Tensor wrapper exposing every
//     operation as a method
//
// # Basic Usage
//
//	flint.Init(fconfig.Current())
//	a, _ := flint.GenConstant(graph.Shape{2, 2}, dtype.F32, 1.0)
//	b, _ := flint.GenConstant(graph.Shape{2, 2}, dtype.F32, 2.0)
//	sum, _ := a.Add(b)
//	result, err := sum.Execute()
//
// # Package Structure
//
//   - graph: DAG primitives and operation builders
//   - kernels: CPU math kernels
//   - registry: operation trait table
//   - cpuexec, gpuexec: executors
//   - autodiff: reverse-mode differentiation
//   - memory: buffer pooling and graph collapse
//   - fconfig: configuration
//   - flint: public frontend
//   - cmd: command-line tools (flintc, flintrun, flintbench)
package flint
