// Command flintrun loads a serialized tensor, adds it to itself, and
// writes the result back out — a minimal smoke test for the CPU executor
// and the tensor wire format, replacing the teacher's sublrun.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Frobeniusnorm/Flint-sub000/cpuexec"
	"github.com/Frobeniusnorm/Flint-sub000/graph"
)

func main() {
	var outPath string

	root := &cobra.Command{
		Use:   "flintrun <input.ftensor>",
		Short: "Execute a minimal graph over a serialized tensor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], outPath)
		},
	}
	root.Flags().StringVarP(&outPath, "out", "o", "", "output tensor path (default: stdout)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(inPath, outPath string) error {
	raw, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", inPath, err)
	}

	shape, dt, data, err := graph.DeserializeTensor(raw)
	if err != nil {
		return fmt.Errorf("deserialize: %w", err)
	}

	a, err := graph.Store(shape, dt)
	if err != nil {
		return err
	}
	a.Result = &graph.Result{Host: data, NumEntries: shape.NumElements()}

	sum, err := graph.Add(a, a)
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}

	res, err := cpuexec.New().Execute(sum)
	if err != nil {
		return fmt.Errorf("execute: %w", err)
	}

	out, err := graph.SerializeTensor(sum.Op.Shape, sum.Op.DType, res.Host)
	if err != nil {
		return fmt.Errorf("serialize result: %w", err)
	}

	if outPath == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(outPath, out, 0o644)
}
