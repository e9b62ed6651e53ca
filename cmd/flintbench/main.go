// Command flintbench times Flint's CPU executor over repeated runs of a
// chosen operation and reports mean/stddev throughput, replacing the
// teacher's sublperf raw-kernel microbenchmark with one driven through the
// full graph/registry/cpuexec pipeline.
package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/Frobeniusnorm/Flint-sub000/cpuexec"
	"github.com/Frobeniusnorm/Flint-sub000/dtype"
	"github.com/Frobeniusnorm/Flint-sub000/graph"
)

func main() {
	var (
		op      string
		size    int
		iter    int
		workers int
	)

	root := &cobra.Command{
		Use:   "flintbench",
		Short: "Benchmark Flint operations over the CPU executor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(op, size, iter, workers)
		},
	}
	root.Flags().StringVar(&op, "op", "add", "operation to benchmark: add, mul, matmul")
	root.Flags().IntVar(&size, "size", 1024, "vector length, or matrix side for matmul")
	root.Flags().IntVar(&iter, "iter", 100, "number of timed repetitions")
	root.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "executor worker count")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runBench(op string, size, iter, workers int) error {
	exec := &cpuexec.Executor{Workers: workers}

	build, flops, err := plan(op, size)
	if err != nil {
		return err
	}

	samples := make([]float64, 0, iter)
	for i := 0; i < iter; i++ {
		root, err := build()
		if err != nil {
			return fmt.Errorf("build graph: %w", err)
		}
		start := time.Now()
		if _, err := exec.Execute(root); err != nil {
			return fmt.Errorf("execute: %w", err)
		}
		samples = append(samples, time.Since(start).Seconds())
	}

	mean, stddev := stat.MeanStdDev(samples, nil)
	gflops := flops / mean / 1e9

	fmt.Printf("op=%s size=%d iter=%d workers=%d\n", op, size, iter, workers)
	fmt.Printf("mean=%.6fs stddev=%.6fs throughput=%.3f GFLOP/s\n", mean, stddev, gflops)
	return nil
}

func plan(op string, size int) (func() (*graph.Node, error), float64, error) {
	switch op {
	case "add":
		return func() (*graph.Node, error) {
			a, err := graph.GenConstant(graph.Shape{uint64(size)}, dtype.F32, float64(1))
			if err != nil {
				return nil, err
			}
			b, err := graph.GenConstant(graph.Shape{uint64(size)}, dtype.F32, float64(2))
			if err != nil {
				return nil, err
			}
			return graph.Add(a, b)
		}, float64(size), nil
	case "mul":
		return func() (*graph.Node, error) {
			a, err := graph.GenConstant(graph.Shape{uint64(size)}, dtype.F32, float64(1))
			if err != nil {
				return nil, err
			}
			b, err := graph.GenConstant(graph.Shape{uint64(size)}, dtype.F32, float64(2))
			if err != nil {
				return nil, err
			}
			return graph.Mul(a, b)
		}, float64(size), nil
	case "matmul":
		return func() (*graph.Node, error) {
			a, err := graph.GenConstant(graph.Shape{uint64(size), uint64(size)}, dtype.F32, float64(1))
			if err != nil {
				return nil, err
			}
			b, err := graph.GenConstant(graph.Shape{uint64(size), uint64(size)}, dtype.F32, float64(2))
			if err != nil {
				return nil, err
			}
			return graph.MatMul(a, b)
		}, 2 * float64(size) * float64(size) * float64(size), nil
	default:
		return nil, 0, fmt.Errorf("unknown op %q", op)
	}
}
