// Command flintc reads a serialized tensor, optionally converts its dtype
// and collapses it with memory.OptimizeMemory, validates the result, and
// writes it back out. It plays the role the teacher's sublc compiler
// played for a .subs source file, except Flint has no separate graph
// source language: the unit of "compilation" here is a stored tensor.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Frobeniusnorm/Flint-sub000/cpuexec"
	"github.com/Frobeniusnorm/Flint-sub000/dtype"
	"github.com/Frobeniusnorm/Flint-sub000/graph"
	"github.com/Frobeniusnorm/Flint-sub000/memory"
)

func main() {
	var (
		outPath  string
		toType   string
		validate bool
		optimize bool
	)

	root := &cobra.Command{
		Use:   "flintc <input.ftensor>",
		Short: "Convert, validate, and collapse a serialized tensor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return compile(args[0], outPath, toType, validate, optimize)
		},
	}
	root.Flags().StringVarP(&outPath, "out", "o", "", "output path (default: stdout)")
	root.Flags().StringVar(&toType, "to", "", "convert to dtype before writing: i32, i64, f32, f64")
	root.Flags().BoolVar(&validate, "validate", true, "verify the output round-trips through the wire format")
	root.Flags().BoolVar(&optimize, "optimize", false, "collapse the result to a bare Store leaf before writing")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func compile(inPath, outPath, toType string, validate, optimize bool) error {
	raw, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", inPath, err)
	}

	shape, dt, data, err := graph.DeserializeTensor(raw)
	if err != nil {
		return fmt.Errorf("deserialize: %w", err)
	}

	n, err := graph.Store(shape, dt)
	if err != nil {
		return err
	}
	n.Result = &graph.Result{Host: data, NumEntries: shape.NumElements()}

	if toType != "" {
		target, err := parseDType(toType)
		if err != nil {
			return err
		}
		n, err = graph.Conversion(n, target)
		if err != nil {
			return fmt.Errorf("conversion: %w", err)
		}
		res, err := cpuexec.New().Execute(n)
		if err != nil {
			return fmt.Errorf("execute conversion: %w", err)
		}
		n.Result = res
	}

	if optimize {
		memory.OptimizeMemory(n)
	}

	out, err := graph.SerializeTensor(n.Op.Shape, n.Op.DType, n.Result.Host)
	if err != nil {
		return fmt.Errorf("serialize: %w", err)
	}

	if validate {
		gotShape, gotType, gotData, err := graph.DeserializeTensor(out)
		if err != nil {
			return fmt.Errorf("validate: round-trip deserialize failed: %w", err)
		}
		if gotType != n.Op.DType || len(gotData) != len(n.Result.Host) || !gotShape.Equal(n.Op.Shape) {
			return fmt.Errorf("validate: round-trip mismatch")
		}
	}

	if outPath == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(outPath, out, 0o644)
}

func parseDType(s string) (dtype.Type, error) {
	switch s {
	case "i32":
		return dtype.I32, nil
	case "i64":
		return dtype.I64, nil
	case "f32":
		return dtype.F32, nil
	case "f64":
		return dtype.F64, nil
	default:
		return 0, fmt.Errorf("unknown dtype %q", s)
	}
}
