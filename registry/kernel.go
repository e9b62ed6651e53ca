package registry

import (
	"github.com/Frobeniusnorm/Flint-sub000/dtype"
	"github.com/Frobeniusnorm/Flint-sub000/graph"
	"github.com/Frobeniusnorm/Flint-sub000/kernels"
)

func predMode(p *graph.Node) graph.BroadcastMode {
	if p.Op.Inverse {
		return graph.BroadcastInverse
	}
	return graph.BroadcastNormal
}

type binaryKernelFn func(a, b []byte, aMode, bMode graph.BroadcastMode, aShape, bShape graph.Shape, out []byte, n, from, size uint64, t dtype.Type)

func binaryEntry(score int, fn binaryKernelFn) *Entry {
	return &Entry{
		Elementwise: true,
		Score:       score,
		Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
			a, b := n.Preds[0], n.Preds[1]
			fn(inputs[0], inputs[1], predMode(a), predMode(b), a.Op.Shape, b.Op.Shape, out, n.Op.Shape.NumElements(), from, size, n.Op.DType)
		},
		FusionReusable: allReusable(true),
	}
}

type unaryKernelFn func(a, out []byte, from, size uint64, t dtype.Type)

func unaryEntry(score int, fn unaryKernelFn) *Entry {
	return &Entry{
		Elementwise: true,
		Score:       score,
		Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
			fn(inputs[0], out, from, size, n.Preds[0].Op.DType)
		},
		FusionReusable: allReusable(true),
	}
}

// registerKernels installs the CPU kernel, score, and fusion-reuse trait
// for every operation kind. Called once from registry.go's init, before
// registerGradients fills in the local-gradient rules.
func registerKernels() {
	register(graph.OpAdd, binaryEntry(1, kernels.Add))
	register(graph.OpSub, binaryEntry(1, kernels.Sub))
	register(graph.OpMul, binaryEntry(1, kernels.Mul))
	register(graph.OpDiv, binaryEntry(1, kernels.Div))
	register(graph.OpPow, binaryEntry(3, kernels.Pow))
	register(graph.OpMin, binaryEntry(1, kernels.Min))
	register(graph.OpMax, binaryEntry(1, kernels.Max))
	register(graph.OpLess, binaryEntry(1, kernels.Less))
	register(graph.OpGreater, binaryEntry(1, kernels.Greater))
	register(graph.OpEqual, binaryEntry(1, kernels.Equal))

	register(graph.OpNeg, unaryEntry(1, kernels.Neg))
	register(graph.OpAbs, unaryEntry(1, kernels.Abs))
	register(graph.OpLog, unaryEntry(2, kernels.Log))
	register(graph.OpLog2, unaryEntry(2, kernels.Log2))
	register(graph.OpLog10, unaryEntry(2, kernels.Log10))
	register(graph.OpSin, unaryEntry(2, kernels.Sin))
	register(graph.OpCos, unaryEntry(2, kernels.Cos))
	register(graph.OpTan, unaryEntry(3, kernels.Tan))
	register(graph.OpASin, unaryEntry(3, kernels.ASin))
	register(graph.OpACos, unaryEntry(3, kernels.ACos))
	register(graph.OpATan, unaryEntry(3, kernels.ATan))
	register(graph.OpSqrt, unaryEntry(2, kernels.Sqrt))
	register(graph.OpExp, unaryEntry(2, kernels.Exp))
	register(graph.OpSign, &Entry{
		Elementwise: true, Score: 1,
		Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
			kernels.Sign(inputs[0], out, from, size, n.Preds[0].Op.DType)
		},
		FusionReusable: allReusable(false),
	})
	register(graph.OpEven, &Entry{
		Elementwise: true, Score: 1,
		Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
			kernels.Even(inputs[0], out, from, size, n.Preds[0].Op.DType)
		},
		FusionReusable: allReusable(false),
	})

	register(graph.OpStore, &Entry{
		Score: 0,
		Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
			// A Store node owns its data directly; cpuexec never invokes its
			// kernel to materialize a result, only to copy when collapsing.
			copy(out, inputs[0])
		},
	})
	register(graph.OpGenRandom, &Entry{
		Score: 1,
		Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
			extra := n.Op.Extra.(graph.RandomExtra)
			kernels.GenRandom(out, n.Op.Shape.NumElements(), extra.Seed, n.Op.DType)
		},
	})
	register(graph.OpGenConstant, &Entry{
		Score: 0,
		Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
			extra := n.Op.Extra.(graph.ConstantExtra)
			kernels.GenConstant(out, n.Op.Shape.NumElements(), toFloat64(extra.Value), n.Op.DType)
		},
	})
	register(graph.OpGenArange, &Entry{
		Score: 1,
		Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
			extra := n.Op.Extra.(graph.ArangeExtra)
			kernels.GenArange(out, n.Op.Shape, extra.Axis, n.Op.DType)
		},
	})
	register(graph.OpDropout, &Entry{
		Elementwise: true, Score: 1,
		Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
			extra := n.Op.Extra.(graph.DropoutExtra)
			kernels.Dropout(inputs[0], out, n.Op.Shape.NumElements(), extra.P, extra.Training, extra.Seed, n.Op.DType)
		},
		FusionReusable: allReusable(false),
	})

	register(graph.OpMatMul, &Entry{
		Score: 6,
		Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
			shape := n.Op.Shape
			l, m2 := n.Preds[0].Op.Shape[len(n.Preds[0].Op.Shape)-2], n.Preds[0].Op.Shape[len(n.Preds[0].Op.Shape)-1]
			nDim := shape[len(shape)-1]
			batch := shape.NumElements() / (l * nDim)
			kernels.MatMul(inputs[0], inputs[1], out, batch, l, m2, nDim, n.Op.DType)
		},
	})

	register(graph.OpFlatten, reshapeEntry())
	register(graph.OpFlattenDim, reshapeEntry())
	register(graph.OpReshape, reshapeEntry())
	register(graph.OpConversion, &Entry{
		Score: 1,
		Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
			kernels.Conversion(inputs[0], out, n.Preds[0].Op.DType, n.Op.DType, n.Op.Shape.NumElements())
		},
	})

	for kind, fn := range map[graph.OpKind]func(a, out []byte, shape []uint64, axis int, t dtype.Type){
		graph.OpReduceSum: kernels.ReduceSum,
		graph.OpReduceMul: kernels.ReduceMul,
		graph.OpReduceMin: kernels.ReduceMin,
		graph.OpReduceMax: kernels.ReduceMax,
	} {
		fn := fn
		register(kind, &Entry{
			Score: 4,
			Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
				extra := n.Op.Extra.(graph.ReduceExtra)
				fn(inputs[0], out, n.Preds[0].Op.Shape, extra.Axis, n.Op.DType)
			},
		})
	}

	register(graph.OpSlice, &Entry{
		Score: 2,
		Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
			extra := n.Op.Extra.(graph.SliceExtra)
			kernels.Slice(inputs[0], out, n.Preds[0].Op.Shape, n.Op.Shape, extra.Start, extra.Step, n.Op.DType)
		},
	})
	register(graph.OpExtend, &Entry{
		Score: 2,
		Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
			extra := n.Op.Extra.(graph.ExtendExtra)
			kernels.Extend(inputs[0], out, n.Preds[0].Op.Shape, n.Op.Shape, extra.InsertAt, extra.Step, n.Op.DType)
		},
	})
	register(graph.OpRepeat, &Entry{
		Score: 2,
		Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
			kernels.Repeat(inputs[0], out, n.Preds[0].Op.Shape, n.Op.Shape, n.Op.DType)
		},
	})
	register(graph.OpTranspose, &Entry{
		Score: 2,
		Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
			extra := n.Op.Extra.(graph.TransposeExtra)
			kernels.Transpose(inputs[0], out, n.Preds[0].Op.Shape, extra.Perm, n.Op.DType)
		},
	})
	register(graph.OpConcat, &Entry{
		Score: 2,
		Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
			extra := n.Op.Extra.(graph.ConcatExtra)
			kernels.Concat(inputs[0], inputs[1], out, n.Preds[0].Op.Shape, n.Preds[1].Op.Shape, extra.Axis, n.Op.DType)
		},
	})

	register(graph.OpIndex, &Entry{
		Score: 3,
		Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
			kernels.Index(inputs[0], inputs[1], out, n.Preds[0].Op.Shape, n.Preds[1].Op.Shape, n.Preds[1].Op.DType, n.Op.DType)
		},
	})
	register(graph.OpSetIndex, &Entry{
		Score: 3,
		Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
			copy(out, inputs[0])
			kernels.SetIndex(inputs[1], inputs[2], out, n.Preds[1].Op.Shape, n.Preds[2].Op.Shape, n.Preds[0].Op.Shape, n.Preds[2].Op.DType, n.Op.DType)
		},
	})

	register(graph.OpSlidingWindow, &Entry{
		Score: 3,
		Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
			extra := n.Op.Extra.(graph.SlidingWindowExtra)
			kernels.SlidingWindow(inputs[0], out, n.Preds[0].Op.Shape, extra.Size, extra.Step, n.Op.DType)
		},
	})
	register(graph.OpUnslideWindow, &Entry{
		Score: 3,
		Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
			extra := n.Op.Extra.(graph.UnslideWindowExtra)
			zero(out)
			kernels.UnslideWindow(inputs[0], out, extra.ResultShape, sizeFromWindowedShape(n.Preds[0].Op.Shape, extra.ResultShape), extra.Step, n.Op.DType)
		},
	})
	register(graph.OpPoolingSum, &Entry{
		Score: 3,
		Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
			extra := n.Op.Extra.(graph.SlidingWindowExtra)
			kernels.PoolingSum(inputs[0], out, n.Preds[0].Op.Shape, extra.Size, extra.Step, n.Op.DType)
		},
	})
	register(graph.OpPoolingMax, &Entry{
		Score: 3,
		Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
			extra := n.Op.Extra.(graph.SlidingWindowExtra)
			kernels.PoolingMax(inputs[0], out, n.Preds[0].Op.Shape, extra.Size, extra.Step, n.Op.DType)
		},
	})
	register(graph.OpGradientPoolingMax, &Entry{
		Score: 3,
		Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
			extra := n.Op.Extra.(graph.GradientPoolingMaxExtra)
			zero(out)
			kernels.GradientPoolingMax(inputs[0], inputs[1], out, n.Op.Shape, extra.Size, extra.Step, n.Op.DType)
		},
		LocalGradient: noGradient("internal gradient-helper op"),
	})

	register(graph.OpConvolve, &Entry{
		Score: 8,
		Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
			extra := n.Op.Extra.(graph.ConvolveExtra)
			input, kernel := n.Preds[0], n.Preds[1]
			hasFilters := len(kernel.Op.Shape) == len(input.Op.Shape)+1
			kernels.Convolve(inputs[0], inputs[1], out, input.Op.Shape, kernel.Op.Shape, n.Op.Shape, extra.Steps, hasFilters, n.Op.DType)
		},
	})
	register(graph.OpGradientConvolve1, &Entry{
		Score: 8,
		Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
			extra := n.Op.Extra.(graph.GradientConvolveExtra)
			adjoint, kernelNode := n.Preds[0], n.Preds[1]
			hasFilters := len(kernelNode.Op.Shape) == extra.OrigNDim+1
			zero(out)
			kernels.GradientConvolve1(inputs[0], inputs[1], out, adjoint.Op.Shape, kernelNode.Op.Shape, n.Op.Shape, extra.Steps, hasFilters, n.Op.DType)
		},
		LocalGradient: noGradient("internal gradient-helper op"),
	})
	register(graph.OpGradientConvolve2, &Entry{
		Score: 8,
		Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
			extra := n.Op.Extra.(graph.GradientConvolveExtra)
			adjoint, input := n.Preds[0], n.Preds[1]
			hasFilters := len(n.Op.Shape) == len(input.Op.Shape)+1
			zero(out)
			kernels.GradientConvolve2(inputs[0], inputs[1], out, adjoint.Op.Shape, input.Op.Shape, n.Op.Shape, extra.Steps, hasFilters, n.Op.DType)
		},
		LocalGradient: noGradient("internal gradient-helper op"),
	})
}

func reshapeEntry() *Entry {
	return &Entry{
		Score: 0,
		// Flatten/FlattenDim/Reshape reuse the predecessor buffer in
		// cpuexec's fast path (spec.md §4.3); this kernel only runs when
		// that fast path can't apply (e.g. the result must be copied out
		// for Store collapse).
		Kernel: func(n *graph.Node, inputs [][]byte, out []byte, from, size uint64) {
			copy(out, inputs[0])
		},
	}
}

func toFloat64(v any) float64 {
	switch x := v.(type) {
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	case float64:
		return x
	default:
		return 0
	}
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// sizeFromWindowedShape recovers the per-axis window size UnslideWindow
// needs from the sliding-window result's leading axis count and the
// original result shape; it is the shape SlidingWindow would have
// produced the within-window trailing dimensions from.
func sizeFromWindowedShape(windowedShape, resultShape graph.Shape) []uint64 {
	return []uint64(windowedShape[len(windowedShape)-len(resultShape):])
}

