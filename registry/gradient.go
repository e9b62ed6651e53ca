package registry

import (
	"github.com/Frobeniusnorm/Flint-sub000/ferr"
	"github.com/Frobeniusnorm/Flint-sub000/graph"
)

// setGrad fills in the local-gradient rule for an entry already installed
// by registerKernels. Both registration passes run from a single init in
// registry.go so file-compile order never matters.
func setGrad(kind graph.OpKind, fn LocalGradientFn) {
	table[kind].LocalGradient = fn
}

// registerGradients installs the local-gradient rule for every
// differentiable operation kind, per spec.md §4.6 step 4. Each rule
// returns the contribution of n's upstream adjoint to predecessor
// inputIndex; autodiff sums these across every consumer of a node before
// recursing further back through the graph.
func registerGradients() {
	setGrad(graph.OpAdd, func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		return reduceToShape(adj, n.Preds[i].Op.Shape)
	})
	setGrad(graph.OpSub, func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		if i == 1 {
			neg, err := graph.Neg(adj)
			if err != nil {
				return nil, err
			}
			adj = neg
		}
		return reduceToShape(adj, n.Preds[i].Op.Shape)
	})
	setGrad(graph.OpMul, func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		other := n.Preds[1-i]
		prod, err := graph.Mul(adj, other)
		if err != nil {
			return nil, err
		}
		return reduceToShape(prod, n.Preds[i].Op.Shape)
	})
	setGrad(graph.OpDiv, func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		a, b := n.Preds[0], n.Preds[1]
		if i == 0 {
			q, err := graph.Div(adj, b)
			if err != nil {
				return nil, err
			}
			return reduceToShape(q, a.Op.Shape)
		}
		// d/db (a/b) = -a/b^2
		bSq, err := graph.Mul(b, b)
		if err != nil {
			return nil, err
		}
		num, err := graph.Mul(adj, a)
		if err != nil {
			return nil, err
		}
		q, err := graph.Div(num, bSq)
		if err != nil {
			return nil, err
		}
		neg, err := graph.Neg(q)
		if err != nil {
			return nil, err
		}
		return reduceToShape(neg, b.Op.Shape)
	})
	setGrad(graph.OpPow, func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		a, b := n.Preds[0], n.Preds[1]
		if i == 0 {
			// d/da (a^b) = b * a^(b-1)
			one, err := graph.GenConstant(graph.Shape{}, b.Op.DType, 1)
			if err != nil {
				return nil, err
			}
			bMinus1, err := graph.Sub(b, one)
			if err != nil {
				return nil, err
			}
			aPow, err := graph.Pow(a, bMinus1)
			if err != nil {
				return nil, err
			}
			scaled, err := graph.Mul(b, aPow)
			if err != nil {
				return nil, err
			}
			prod, err := graph.Mul(adj, scaled)
			if err != nil {
				return nil, err
			}
			return reduceToShape(prod, a.Op.Shape)
		}
		// d/db (a^b) = a^b * ln(a)
		lnA, err := graph.Log(a)
		if err != nil {
			return nil, err
		}
		scaled, err := graph.Mul(n, lnA)
		if err != nil {
			return nil, err
		}
		prod, err := graph.Mul(adj, scaled)
		if err != nil {
			return nil, err
		}
		return reduceToShape(prod, b.Op.Shape)
	})

	setGrad(graph.OpNeg, func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		return graph.Neg(adj)
	})
	setGrad(graph.OpAbs, func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		sign, err := graph.Sign(n.Preds[0])
		if err != nil {
			return nil, err
		}
		signCast, err := graph.Conversion(sign, n.Op.DType)
		if err != nil {
			return nil, err
		}
		return graph.Mul(adj, signCast)
	})
	setGrad(graph.OpLog, unaryChainRule(func(a *graph.Node) (*graph.Node, error) { return graph.Div(mustOne(a), a) }))
	setGrad(graph.OpLog2, unaryChainRule(func(a *graph.Node) (*graph.Node, error) {
		lnA, err := graph.Log(a)
		if err != nil {
			return nil, err
		}
		ln2, err := graph.GenConstant(graph.Shape{}, a.Op.DType, ln2Const)
		if err != nil {
			return nil, err
		}
		lnALn2, err := graph.Mul(lnA, ln2)
		if err != nil {
			return nil, err
		}
		return graph.Div(mustOne(a), lnALn2)
	}))
	setGrad(graph.OpLog10, unaryChainRule(func(a *graph.Node) (*graph.Node, error) {
		lnA, err := graph.Log(a)
		if err != nil {
			return nil, err
		}
		ln10, err := graph.GenConstant(graph.Shape{}, a.Op.DType, ln10Const)
		if err != nil {
			return nil, err
		}
		lnALn10, err := graph.Mul(lnA, ln10)
		if err != nil {
			return nil, err
		}
		return graph.Div(mustOne(a), lnALn10)
	}))
	setGrad(graph.OpSin, unaryChainRule(func(a *graph.Node) (*graph.Node, error) { return graph.Cos(a) }))
	setGrad(graph.OpCos, unaryChainRule(func(a *graph.Node) (*graph.Node, error) {
		s, err := graph.Sin(a)
		if err != nil {
			return nil, err
		}
		return graph.Neg(s)
	}))
	setGrad(graph.OpTan, unaryChainRule(func(a *graph.Node) (*graph.Node, error) {
		c, err := graph.Cos(a)
		if err != nil {
			return nil, err
		}
		cSq, err := graph.Mul(c, c)
		if err != nil {
			return nil, err
		}
		return graph.Div(mustOne(a), cSq)
	}))
	setGrad(graph.OpASin, unaryChainRule(func(a *graph.Node) (*graph.Node, error) {
		return inverseSqrtOneMinusSquare(a)
	}))
	setGrad(graph.OpACos, unaryChainRule(func(a *graph.Node) (*graph.Node, error) {
		d, err := inverseSqrtOneMinusSquare(a)
		if err != nil {
			return nil, err
		}
		return graph.Neg(d)
	}))
	setGrad(graph.OpATan, unaryChainRule(func(a *graph.Node) (*graph.Node, error) {
		aSq, err := graph.Mul(a, a)
		if err != nil {
			return nil, err
		}
		denom, err := graph.Add(mustOne(a), aSq)
		if err != nil {
			return nil, err
		}
		return graph.Div(mustOne(a), denom)
	}))
	setGrad(graph.OpSqrt, func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		two, err := graph.GenConstant(graph.Shape{}, n.Op.DType, 2)
		if err != nil {
			return nil, err
		}
		denom, err := graph.Mul(two, n)
		if err != nil {
			return nil, err
		}
		return graph.Div(adj, denom)
	})
	setGrad(graph.OpExp, func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		return graph.Mul(adj, n)
	})

	noDeriv := noGradient("piecewise-constant or non-differentiable operation")
	setGrad(graph.OpSign, noDeriv)
	setGrad(graph.OpEven, noDeriv)
	setGrad(graph.OpLess, noDeriv)
	setGrad(graph.OpGreater, noDeriv)
	setGrad(graph.OpEqual, noDeriv)
	setGrad(graph.OpGenRandom, noDeriv)
	setGrad(graph.OpGenConstant, noDeriv)
	setGrad(graph.OpGenArange, noDeriv)
	setGrad(graph.OpStore, noDeriv)

	setGrad(graph.OpMin, minMaxGradient(graph.Less))
	setGrad(graph.OpMax, minMaxGradient(graph.Greater))

	setGrad(graph.OpMatMul, matmulGradient)

	reshapeBack := func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		return graph.Reshape(adj, n.Preds[i].Op.Shape)
	}
	setGrad(graph.OpFlatten, reshapeBack)
	setGrad(graph.OpFlattenDim, reshapeBack)
	setGrad(graph.OpReshape, reshapeBack)

	setGrad(graph.OpConversion, func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		return graph.Conversion(adj, n.Preds[i].Op.DType)
	})

	setGrad(graph.OpReduceSum, func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		extra := n.Op.Extra.(graph.ReduceExtra)
		return broadcastAlongAxis(adj, n.Preds[0].Op.Shape, extra.Axis)
	})
	setGrad(graph.OpReduceMul, func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		extra := n.Op.Extra.(graph.ReduceExtra)
		// d(prod)/d(x_k) = prod / x_k, scaled by the upstream adjoint.
		broad, err := broadcastAlongAxis(n, n.Preds[0].Op.Shape, extra.Axis)
		if err != nil {
			return nil, err
		}
		quot, err := graph.Div(broad, n.Preds[0])
		if err != nil {
			return nil, err
		}
		adjBroad, err := broadcastAlongAxis(adj, n.Preds[0].Op.Shape, extra.Axis)
		if err != nil {
			return nil, err
		}
		return graph.Mul(quot, adjBroad)
	})
	setGrad(graph.OpReduceMin, reduceExtremumGradient(graph.Less))
	setGrad(graph.OpReduceMax, reduceExtremumGradient(graph.Greater))

	setGrad(graph.OpSlice, func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		extra := n.Op.Extra.(graph.SliceExtra)
		return graph.Extend(adj, n.Preds[0].Op.Shape, extra.Start, extra.Step)
	})
	setGrad(graph.OpExtend, func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		extra := n.Op.Extra.(graph.ExtendExtra)
		in := n.Preds[0].Op.Shape
		end := make([]int64, len(in))
		for d := range in {
			end[d] = extra.InsertAt[d] + int64(in[d]-1)*extra.Step[d] + 1
		}
		return graph.Slice(adj, extra.InsertAt, end, extra.Step)
	})
	setGrad(graph.OpRepeat, func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		extra := n.Op.Extra.(graph.RepeatExtra)
		return repeatGradient(adj, n.Preds[0].Op.Shape, extra.Repetitions)
	})
	setGrad(graph.OpTranspose, func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		extra := n.Op.Extra.(graph.TransposeExtra)
		inv := make([]int, len(extra.Perm))
		for d, p := range extra.Perm {
			inv[p] = d
		}
		return graph.Transpose(adj, inv)
	})
	setGrad(graph.OpConcat, func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		extra := n.Op.Extra.(graph.ConcatExtra)
		a := n.Preds[0]
		rank := len(n.Op.Shape)
		start := make([]int64, rank)
		end := make([]int64, rank)
		for d := 0; d < rank; d++ {
			end[d] = int64(n.Op.Shape[d])
		}
		step := make([]int64, rank)
		for d := range step {
			step[d] = 1
		}
		if i == 0 {
			end[extra.Axis] = int64(a.Op.Shape[extra.Axis])
		} else {
			start[extra.Axis] = int64(a.Op.Shape[extra.Axis])
		}
		return graph.Slice(adj, start, end, step)
	})

	setGrad(graph.OpIndex, func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		if i == 1 {
			return nil, ferr.New(ferr.IllegalDerive, "Index has no local gradient wrt its index operand")
		}
		src := n.Preds[0]
		zero, err := graph.GenConstant(src.Op.Shape, src.Op.DType, 0)
		if err != nil {
			return nil, err
		}
		return graph.SetIndex(zero, adj, n.Preds[1])
	})
	setGrad(graph.OpSetIndex, func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		switch i {
		case 0:
			return adj, nil
		case 1:
			return graph.Index(adj, n.Preds[2])
		default:
			return nil, ferr.New(ferr.IllegalDerive, "SetIndex has no local gradient wrt its index operand")
		}
	})

	setGrad(graph.OpSlidingWindow, func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		extra := n.Op.Extra.(graph.SlidingWindowExtra)
		return graph.UnslideWindow(adj, n.Preds[0].Op.Shape, extra.Step)
	})
	setGrad(graph.OpUnslideWindow, func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		extra := n.Op.Extra.(graph.UnslideWindowExtra)
		size := sizeFromWindowedShape(n.Preds[0].Op.Shape, extra.ResultShape)
		return graph.SlidingWindow(adj, size, extra.Step)
	})
	setGrad(graph.OpPoolingSum, func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		extra := n.Op.Extra.(graph.SlidingWindowExtra)
		tiled, err := broadcastIntoWindow(adj, extra.Size)
		if err != nil {
			return nil, err
		}
		return graph.UnslideWindow(tiled, n.Preds[0].Op.Shape, extra.Step)
	})
	setGrad(graph.OpPoolingMax, func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		extra := n.Op.Extra.(graph.SlidingWindowExtra)
		return graph.GradientPoolingMax(adj, n.Preds[0], extra.Size, extra.Step)
	})

	setGrad(graph.OpConvolve, func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		extra := n.Op.Extra.(graph.ConvolveExtra)
		input, kernel := n.Preds[0], n.Preds[1]
		if i == 0 {
			return graph.GradientConvolve1(adj, kernel, extra.Steps, input.Op.NDim)
		}
		return graph.GradientConvolve2(adj, input, extra.Steps, kernel.Op.Shape)
	})

	setGrad(graph.OpDropout, func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		extra := n.Op.Extra.(graph.DropoutExtra)
		// Re-applying Dropout with the same seed reproduces the identical
		// keep/drop mask, so this doubles as the backward pass.
		return graph.Dropout(adj, extra.P, extra.Training, extra.Seed)
	})
}

const (
	ln2Const  = 0.6931471805599453
	ln10Const = 2.302585092994046
)

func mustOne(a *graph.Node) *graph.Node {
	one, err := graph.GenConstant(graph.Shape{}, a.Op.DType, 1)
	if err != nil {
		// Shape{} (scalar) and a.Op.DType always construct successfully;
		// this mirrors the teacher's pattern of panicking on a builder
		// call whose arguments are known-valid at the call site.
		panic(err)
	}
	return one
}

func unaryChainRule(derivative func(a *graph.Node) (*graph.Node, error)) LocalGradientFn {
	return func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		d, err := derivative(n.Preds[0])
		if err != nil {
			return nil, err
		}
		return graph.Mul(adj, d)
	}
}

func inverseSqrtOneMinusSquare(a *graph.Node) (*graph.Node, error) {
	aSq, err := graph.Mul(a, a)
	if err != nil {
		return nil, err
	}
	diff, err := graph.Sub(mustOne(a), aSq)
	if err != nil {
		return nil, err
	}
	root, err := graph.Sqrt(diff)
	if err != nil {
		return nil, err
	}
	return graph.Div(mustOne(a), root)
}

// minMaxGradient routes the adjoint to whichever input compares favorably
// (cmp(a,b) for Min, cmp meaning "a is the winner") at each element. On a
// tie the full adjoint goes to a (i==0, the first-encountered operand) and
// none to b, rather than splitting or doubling it across both.
func minMaxGradient(cmp func(a, b *graph.Node) (*graph.Node, error)) LocalGradientFn {
	return func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		a, b := n.Preds[0], n.Preds[1]
		var mask *graph.Node
		var err error
		if i == 0 {
			mask, err = cmp(a, b)
		} else {
			mask, err = cmp(b, a)
		}
		if err != nil {
			return nil, err
		}
		if i == 0 {
			eq, err := graph.Equal(a, b)
			if err != nil {
				return nil, err
			}
			mask, err = graph.Max(mask, eq)
			if err != nil {
				return nil, err
			}
		}
		maskCast, err := graph.Conversion(mask, n.Op.DType)
		if err != nil {
			return nil, err
		}
		prod, err := graph.Mul(adj, maskCast)
		if err != nil {
			return nil, err
		}
		return reduceToShape(prod, n.Preds[i].Op.Shape)
	}
}

// reduceExtremumGradient is Min/Max's ReduceMin/ReduceMax analogue: the
// adjoint routes to the first position along axis equal to the reduced
// extremum, matching reduceMinMax's own first-iterated-element identity
// (kernels/reduce.go) rather than splitting across every tied position.
func reduceExtremumGradient(cmp func(a, b *graph.Node) (*graph.Node, error)) LocalGradientFn {
	return func(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
		extra := n.Op.Extra.(graph.ReduceExtra)
		input := n.Preds[0]
		broadExtremum, err := broadcastAlongAxis(n, input.Op.Shape, extra.Axis)
		if err != nil {
			return nil, err
		}
		mask, err := firstWinMaskAlongAxis(input, broadExtremum, extra.Axis)
		if err != nil {
			return nil, err
		}
		maskCast, err := graph.Conversion(mask, n.Op.DType)
		if err != nil {
			return nil, err
		}
		adjBroad, err := broadcastAlongAxis(adj, input.Op.Shape, extra.Axis)
		if err != nil {
			return nil, err
		}
		return graph.Mul(adjBroad, maskCast)
	}
}

// firstWinMaskAlongAxis returns a 0/1 mask (input's dtype, input's shape)
// that is 1 at the first position along axis where input equals extremum
// and 0 everywhere else, including later ties. It walks axis one slab at a
// time, carrying a notYetClaimed accumulator so only the earliest match in
// each outer/inner lane claims the mask.
func firstWinMaskAlongAxis(input, extremum *graph.Node, axis int) (*graph.Node, error) {
	shape := input.Op.Shape
	axisSize := shape[axis]
	start := make([]int64, len(shape))
	end := make([]int64, len(shape))
	step := make([]int64, len(shape))
	for d := range shape {
		end[d] = int64(shape[d])
		step[d] = 1
	}

	slabShape := shape.Clone()
	slabShape[axis] = 1
	notYetClaimed, err := graph.GenConstant(slabShape, input.Op.DType, 1)
	if err != nil {
		return nil, err
	}

	var result *graph.Node
	for k := uint64(0); k < axisSize; k++ {
		start[axis], end[axis] = int64(k), int64(k)+1
		inSlab, err := graph.Slice(input, start, end, step)
		if err != nil {
			return nil, err
		}
		exSlab, err := graph.Slice(extremum, start, end, step)
		if err != nil {
			return nil, err
		}
		eq, err := graph.Equal(inSlab, exSlab)
		if err != nil {
			return nil, err
		}
		eqCast, err := graph.Conversion(eq, input.Op.DType)
		if err != nil {
			return nil, err
		}
		claim, err := graph.Mul(eqCast, notYetClaimed)
		if err != nil {
			return nil, err
		}
		notClaim, err := graph.Sub(mustOne(claim), claim)
		if err != nil {
			return nil, err
		}
		notYetClaimed, err = graph.Mul(notYetClaimed, notClaim)
		if err != nil {
			return nil, err
		}
		if result == nil {
			result = claim
			continue
		}
		result, err = graph.Concat(result, claim, axis)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// matmulGradient implements dL/dA = dL/dC * B^T and dL/dB = A^T * dL/dC
// for batched matmul, transposing only the trailing two axes.
func matmulGradient(n *graph.Node, i int, adj *graph.Node) (*graph.Node, error) {
	a, b := n.Preds[0], n.Preds[1]
	trailingPerm := func(rank int) []int {
		perm := make([]int, rank)
		for d := range perm {
			perm[d] = d
		}
		perm[rank-2], perm[rank-1] = perm[rank-1], perm[rank-2]
		return perm
	}
	if i == 0 {
		bT, err := graph.Transpose(b, trailingPerm(len(b.Op.Shape)))
		if err != nil {
			return nil, err
		}
		return graph.MatMul(adj, bT)
	}
	aT, err := graph.Transpose(a, trailingPerm(len(a.Op.Shape)))
	if err != nil {
		return nil, err
	}
	return graph.MatMul(aT, adj)
}

// reduceToShape sum-reduces adj along every leading axis broadcast added
// over target and along every axis broadcast from size 1, restoring
// target's shape, per spec.md §4.6 step 4.
func reduceToShape(adj *graph.Node, target graph.Shape) (*graph.Node, error) {
	cur := adj
	for len(cur.Op.Shape) > len(target) {
		var err error
		cur, err = graph.ReduceSum(cur, 0)
		if err != nil {
			return nil, err
		}
	}
	offset := len(cur.Op.Shape) - len(target)
	for d := 0; d < len(target); d++ {
		if target[d] == 1 && cur.Op.Shape[d+offset] != 1 {
			reduced, err := graph.ReduceSum(cur, d+offset)
			if err != nil {
				return nil, err
			}
			// ReduceSum drops the axis entirely; reinsert it at size 1 so
			// the loop's offset bookkeeping and final shape stay aligned.
			newShape := make(graph.Shape, len(cur.Op.Shape))
			copy(newShape, cur.Op.Shape)
			newShape[d+offset] = 1
			cur, err = graph.Reshape(reduced, newShape)
			if err != nil {
				return nil, err
			}
		}
	}
	if !cur.Op.Shape.Equal(target) {
		return graph.Reshape(cur, target)
	}
	return cur, nil
}

// broadcastAlongAxis reinserts an axis of size target[axis] that a Reduce*
// op collapsed, by reshaping reduced (which is missing that axis) back to
// rank and repeating it target[axis] times, per spec.md §4.6's reverse
// accumulation of reduction operations.
func broadcastAlongAxis(reduced *graph.Node, target graph.Shape, axis int) (*graph.Node, error) {
	withAxis := make(graph.Shape, len(target))
	copy(withAxis, reduced.Op.Shape[:axis])
	withAxis[axis] = 1
	copy(withAxis[axis+1:], reduced.Op.Shape[axis:])
	reshaped, err := graph.Reshape(reduced, withAxis)
	if err != nil {
		return nil, err
	}
	if target[axis] == 1 {
		return reshaped, nil
	}
	reps := make([]uint64, len(withAxis))
	reps[axis] = target[axis] - 1
	return graph.Repeat(reshaped, reps)
}

// repeatGradient sum-reduces the adjoint back down to inShape, one axis at
// a time: each repeated axis is split into [repCount, inShape[d]] and
// summed over repCount, the inverse of Repeat's block-tiling.
func repeatGradient(adj *graph.Node, inShape graph.Shape, repetitions []uint64) (*graph.Node, error) {
	cur := adj
	for d := 0; d < len(inShape); d++ {
		if repetitions[d] == 0 {
			continue
		}
		repCount := repetitions[d] + 1
		newShape := make(graph.Shape, 0, len(cur.Op.Shape)+1)
		newShape = append(newShape, cur.Op.Shape[:d]...)
		newShape = append(newShape, repCount, inShape[d])
		newShape = append(newShape, cur.Op.Shape[d+1:]...)
		reshaped, err := graph.Reshape(cur, newShape)
		if err != nil {
			return nil, err
		}
		cur, err = graph.ReduceSum(reshaped, d)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// broadcastIntoWindow reshapes adj (one value per window) to append
// len(size) trailing axes of 1 then repeats them up to size, so every
// position within a window carries the same adjoint value, the local
// gradient of summation over that window (PoolingSum).
func broadcastIntoWindow(adj *graph.Node, size []uint64) (*graph.Node, error) {
	newShape := make(graph.Shape, 0, len(adj.Op.Shape)+len(size))
	newShape = append(newShape, adj.Op.Shape...)
	for range size {
		newShape = append(newShape, 1)
	}
	reshaped, err := graph.Reshape(adj, newShape)
	if err != nil {
		return nil, err
	}
	reps := make([]uint64, len(newShape))
	for d, s := range size {
		reps[len(adj.Op.Shape)+d] = s - 1
	}
	return graph.Repeat(reshaped, reps)
}
