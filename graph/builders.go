package graph

import (
	"github.com/Frobeniusnorm/Flint-sub000/dtype"
	"github.com/Frobeniusnorm/Flint-sub000/ferr"
)

// --- Generators (arity 0) ---------------------------------------------

// Store builds a host-backed constant tensor node.
func Store(shape Shape, t dtype.Type) (*Node, error) {
	return newNode(Operation{Kind: OpStore, DType: t, Shape: shape.Clone(), NDim: len(shape)})
}

// GenRandom builds a uniform-[0,1) generator seeded by seed.
func GenRandom(shape Shape, seed float64) (*Node, error) {
	return newNode(Operation{
		Kind: OpGenRandom, DType: dtype.F64, Shape: shape.Clone(), NDim: len(shape),
		Extra: RandomExtra{Seed: seed},
	})
}

// GenConstant builds a single-value generator broadcast to shape.
func GenConstant(shape Shape, t dtype.Type, value any) (*Node, error) {
	return newNode(Operation{
		Kind: OpGenConstant, DType: t, Shape: shape.Clone(), NDim: len(shape),
		Extra: ConstantExtra{Value: value},
	})
}

// GenArange builds an int64 index generator along axis.
func GenArange(shape Shape, axis int) (*Node, error) {
	if axis < 0 || axis >= len(shape) {
		return nil, ferr.New(ferr.IllegalDimension, "arange axis %d out of range for shape %v", axis, shape)
	}
	return newNode(Operation{
		Kind: OpGenArange, DType: dtype.I64, Shape: shape.Clone(), NDim: len(shape),
		Extra: ArangeExtra{Axis: axis},
	})
}

// --- Binary arithmetic (arity 2, broadcasted) --------------------------

func binaryArith(kind OpKind, a, b *Node) (*Node, error) {
	mode, err := ResolveBroadcast(a.Op.Shape, b.Op.Shape, b.Op.Inverse)
	if err != nil {
		return nil, err
	}
	shape := LongerShape(a.Op.Shape, b.Op.Shape)
	t := dtype.Promote(a.Op.DType, b.Op.DType)
	n, err := newNode(Operation{Kind: kind, DType: t, Shape: shape.Clone(), NDim: len(shape)}, a, b)
	if err != nil {
		return nil, err
	}
	_ = mode // resolved mode is re-derived per-input at execution time from a/b's Inverse flags
	return n, nil
}

func Add(a, b *Node) (*Node, error) { return binaryArith(OpAdd, a, b) }
func Sub(a, b *Node) (*Node, error) { return binaryArith(OpSub, a, b) }
func Mul(a, b *Node) (*Node, error) { return binaryArith(OpMul, a, b) }
func Div(a, b *Node) (*Node, error) { return binaryArith(OpDiv, a, b) }
func Pow(a, b *Node) (*Node, error) { return binaryArith(OpPow, a, b) }

// --- Comparison (arity 2, broadcasted, -> i32) -------------------------

func comparison(kind OpKind, a, b *Node) (*Node, error) {
	if _, err := ResolveBroadcast(a.Op.Shape, b.Op.Shape, b.Op.Inverse); err != nil {
		return nil, err
	}
	shape := LongerShape(a.Op.Shape, b.Op.Shape)
	return newNode(Operation{Kind: kind, DType: dtype.I32, Shape: shape.Clone(), NDim: len(shape)}, a, b)
}

func Less(a, b *Node) (*Node, error)    { return comparison(OpLess, a, b) }
func Greater(a, b *Node) (*Node, error) { return comparison(OpGreater, a, b) }
func Equal(a, b *Node) (*Node, error)   { return comparison(OpEqual, a, b) }

// --- Elementwise min/max (arity 2, broadcasted) ------------------------

func Min(a, b *Node) (*Node, error) { return binaryArith(OpMin, a, b) }
func Max(a, b *Node) (*Node, error) { return binaryArith(OpMax, a, b) }

// --- Unary arithmetic (arity 1, monotonic shape) -----------------------

func unary(kind OpKind, t dtype.Type, a *Node) (*Node, error) {
	return newNode(Operation{Kind: kind, DType: t, Shape: a.Op.Shape.Clone(), NDim: a.Op.NDim}, a)
}

func Neg(a *Node) (*Node, error)  { return unary(OpNeg, a.Op.DType, a) }
func Abs(a *Node) (*Node, error)  { return unary(OpAbs, a.Op.DType, a) }
func Log(a *Node) (*Node, error)  { return unary(OpLog, a.Op.DType, a) }
func Log2(a *Node) (*Node, error) { return unary(OpLog2, a.Op.DType, a) }
func Log10(a *Node) (*Node, error) {
	return unary(OpLog10, a.Op.DType, a)
}
func Sin(a *Node) (*Node, error)  { return unary(OpSin, a.Op.DType, a) }
func Cos(a *Node) (*Node, error)  { return unary(OpCos, a.Op.DType, a) }
func Tan(a *Node) (*Node, error)  { return unary(OpTan, a.Op.DType, a) }
func ASin(a *Node) (*Node, error) { return unary(OpASin, a.Op.DType, a) }
func ACos(a *Node) (*Node, error) { return unary(OpACos, a.Op.DType, a) }
func ATan(a *Node) (*Node, error) { return unary(OpATan, a.Op.DType, a) }
func Sqrt(a *Node) (*Node, error) { return unary(OpSqrt, a.Op.DType, a) }
func Exp(a *Node) (*Node, error)  { return unary(OpExp, a.Op.DType, a) }
func Sign(a *Node) (*Node, error) { return unary(OpSign, dtype.I32, a) }

// Even requires an integer input type (spec.md §4.2 group 3).
func Even(a *Node) (*Node, error) {
	if !a.Op.DType.IsInt() {
		return nil, ferr.New(ferr.WrongType, "Even requires an integer input, got %s", a.Op.DType)
	}
	return unary(OpEven, dtype.I32, a)
}

// --- Linear algebra ------------------------------------------------------

// MatMul builds a batched matrix multiply: (…batch, l, m) x (…batch, m, n)
// -> (…broadcast-batch, l, n); batch dims broadcast, last two contract.
func MatMul(a, b *Node) (*Node, error) {
	if a.Op.NDim < 2 || b.Op.NDim < 2 {
		return nil, ferr.New(ferr.IllegalDimensionality, "MatMul requires rank >= 2 operands, got %d and %d", a.Op.NDim, b.Op.NDim)
	}
	al, am := a.Op.Shape[a.Op.NDim-2], a.Op.Shape[a.Op.NDim-1]
	bm, bn := b.Op.Shape[b.Op.NDim-2], b.Op.Shape[b.Op.NDim-1]
	if am != bm {
		return nil, ferr.New(ferr.IncompatibleShapes, "MatMul inner dims disagree: %d vs %d", am, bm)
	}
	aBatch, bBatch := a.Op.Shape[:a.Op.NDim-2], b.Op.Shape[:b.Op.NDim-2]
	if _, err := ResolveBroadcast(aBatch, bBatch, false); err != nil {
		return nil, err
	}
	batch := LongerShape(aBatch, bBatch)
	shape := append(batch.Clone(), al, bn)
	t := dtype.Promote(a.Op.DType, b.Op.DType)
	return newNode(Operation{Kind: OpMatMul, DType: t, Shape: shape, NDim: len(shape)}, a, b)
}

// --- Reshape family (arity 1) -------------------------------------------

// Flatten collapses all dimensions into one.
func Flatten(a *Node) (*Node, error) {
	shape := Shape{a.Op.Shape.NumElements()}
	return newNode(Operation{Kind: OpFlatten, DType: a.Op.DType, Shape: shape, NDim: 1}, a)
}

// FlattenDim merges dimension k into dimension k-1.
func FlattenDim(a *Node, k int) (*Node, error) {
	if k <= 0 || k >= a.Op.NDim {
		return nil, ferr.New(ferr.IllegalDimension, "FlattenDim: k=%d out of range for rank %d", k, a.Op.NDim)
	}
	shape := make(Shape, 0, a.Op.NDim-1)
	shape = append(shape, a.Op.Shape[:k-1]...)
	shape = append(shape, a.Op.Shape[k-1]*a.Op.Shape[k])
	shape = append(shape, a.Op.Shape[k+1:]...)
	return newNode(Operation{Kind: OpFlattenDim, DType: a.Op.DType, Shape: shape, NDim: len(shape), Extra: FlattenDimExtra{Dim: k}}, a)
}

// Reshape requires the new shape to preserve element count.
func Reshape(a *Node, newShape Shape) (*Node, error) {
	if newShape.NumElements() != a.Op.Shape.NumElements() {
		return nil, ferr.New(ferr.IncompatibleShapes, "Reshape: element count mismatch %d vs %d", newShape.NumElements(), a.Op.Shape.NumElements())
	}
	return newNode(Operation{Kind: OpReshape, DType: a.Op.DType, Shape: newShape.Clone(), NDim: len(newShape), Extra: ReshapeExtra{NewShape: newShape.Clone()}}, a)
}

// Conversion casts elementwise to t.
func Conversion(a *Node, t dtype.Type) (*Node, error) {
	return newNode(Operation{Kind: OpConversion, DType: t, Shape: a.Op.Shape.Clone(), NDim: a.Op.NDim, Extra: ConversionExtra{}}, a)
}

// --- Reductions (arity 1) -----------------------------------------------

func reduce(kind OpKind, a *Node, axis int) (*Node, error) {
	if axis < 0 || axis >= a.Op.NDim {
		return nil, ferr.New(ferr.IllegalDimension, "reduce axis %d out of range for rank %d", axis, a.Op.NDim)
	}
	shape := make(Shape, 0, a.Op.NDim-1)
	shape = append(shape, a.Op.Shape[:axis]...)
	shape = append(shape, a.Op.Shape[axis+1:]...)
	return newNode(Operation{Kind: kind, DType: a.Op.DType, Shape: shape, NDim: len(shape), Extra: ReduceExtra{Axis: axis}}, a)
}

func ReduceSum(a *Node, axis int) (*Node, error) { return reduce(OpReduceSum, a, axis) }
func ReduceMul(a *Node, axis int) (*Node, error) { return reduce(OpReduceMul, a, axis) }
func ReduceMin(a *Node, axis int) (*Node, error) { return reduce(OpReduceMin, a, axis) }
func ReduceMax(a *Node, axis int) (*Node, error) { return reduce(OpReduceMax, a, axis) }

// --- Index modifications (arity 1, Concat is arity 2) -------------------

// Slice implements NumPy-style basic slicing per axis.
func Slice(a *Node, start, end, step []int64) (*Node, error) {
	if len(start) != a.Op.NDim || len(end) != a.Op.NDim || len(step) != a.Op.NDim {
		return nil, ferr.New(ferr.IllegalDimensionality, "Slice: per-axis args must match rank %d", a.Op.NDim)
	}
	shape := make(Shape, a.Op.NDim)
	for d := 0; d < a.Op.NDim; d++ {
		if step[d] == 0 {
			return nil, ferr.New(ferr.InvalidSelect, "Slice: step[%d] must be nonzero", d)
		}
		size := int64(a.Op.Shape[d])
		s, e := normalizeIndex(start[d], size), normalizeIndex(end[d], size)
		var count int64
		if step[d] > 0 {
			if e > s {
				count = (e - s + step[d] - 1) / step[d]
			}
		} else {
			if s > e {
				count = (s - e + (-step[d]) - 1) / (-step[d])
			}
		}
		if count < 0 {
			count = 0
		}
		shape[d] = uint64(count)
	}
	return newNode(Operation{Kind: OpSlice, DType: a.Op.DType, Shape: shape, NDim: len(shape),
		Extra: SliceExtra{Start: append([]int64{}, start...), End: append([]int64{}, end...), Step: append([]int64{}, step...)}}, a)
}

func normalizeIndex(i, size int64) int64 {
	if i < 0 {
		i += size
	}
	return i
}

// Extend embeds a in a zero tensor of newShape starting at insertAt,
// inflating gaps per step.
func Extend(a *Node, newShape Shape, insertAt, step []int64) (*Node, error) {
	if len(newShape) != a.Op.NDim || len(insertAt) != a.Op.NDim || len(step) != a.Op.NDim {
		return nil, ferr.New(ferr.IllegalDimensionality, "Extend: args must match rank %d", a.Op.NDim)
	}
	return newNode(Operation{Kind: OpExtend, DType: a.Op.DType, Shape: newShape.Clone(), NDim: len(newShape),
		Extra: ExtendExtra{NewShape: newShape.Clone(), InsertAt: append([]int64{}, insertAt...), Step: append([]int64{}, step...)}}, a)
}

// Repeat tiles each dimension repetitions[d]+1 times.
func Repeat(a *Node, repetitions []uint64) (*Node, error) {
	if len(repetitions) != a.Op.NDim {
		return nil, ferr.New(ferr.IllegalDimensionality, "Repeat: repetitions must match rank %d", a.Op.NDim)
	}
	shape := make(Shape, a.Op.NDim)
	for d := range shape {
		shape[d] = a.Op.Shape[d] * (repetitions[d] + 1)
	}
	return newNode(Operation{Kind: OpRepeat, DType: a.Op.DType, Shape: shape, NDim: len(shape), Extra: RepeatExtra{Repetitions: append([]uint64{}, repetitions...)}}, a)
}

// Transpose permutes dimensions according to perm.
func Transpose(a *Node, perm []int) (*Node, error) {
	if len(perm) != a.Op.NDim {
		return nil, ferr.New(ferr.IllegalDimensionality, "Transpose: perm must match rank %d", a.Op.NDim)
	}
	seen := make([]bool, a.Op.NDim)
	shape := make(Shape, a.Op.NDim)
	for i, p := range perm {
		if p < 0 || p >= a.Op.NDim || seen[p] {
			return nil, ferr.New(ferr.IllegalDimension, "Transpose: invalid permutation %v", perm)
		}
		seen[p] = true
		shape[i] = a.Op.Shape[p]
	}
	return newNode(Operation{Kind: OpTranspose, DType: a.Op.DType, Shape: shape, NDim: len(shape), Extra: TransposeExtra{Perm: append([]int{}, perm...)}}, a)
}

// Concat joins a and b along axis; all other axes must agree.
func Concat(a, b *Node, axis int) (*Node, error) {
	if a.Op.NDim != b.Op.NDim {
		return nil, ferr.New(ferr.IncompatibleShapes, "Concat: rank mismatch %d vs %d", a.Op.NDim, b.Op.NDim)
	}
	if axis < 0 || axis >= a.Op.NDim {
		return nil, ferr.New(ferr.IllegalDimension, "Concat: axis %d out of range for rank %d", axis, a.Op.NDim)
	}
	shape := a.Op.Shape.Clone()
	for d := 0; d < a.Op.NDim; d++ {
		if d == axis {
			continue
		}
		if a.Op.Shape[d] != b.Op.Shape[d] {
			return nil, ferr.New(ferr.IncompatibleShapes, "Concat: shapes disagree on axis %d: %d vs %d", d, a.Op.Shape[d], b.Op.Shape[d])
		}
	}
	shape[axis] = a.Op.Shape[axis] + b.Op.Shape[axis]
	t := dtype.Promote(a.Op.DType, b.Op.DType)
	return newNode(Operation{Kind: OpConcat, DType: t, Shape: shape, NDim: len(shape), Extra: ConcatExtra{Axis: axis}}, a, b)
}

// --- Indexing -------------------------------------------------------------

// Index selects along the matched axis using an integer tensor idx whose
// shape is a prefix of src's shape.
func Index(src, idx *Node) (*Node, error) {
	if !idx.Op.DType.IsInt() {
		return nil, ferr.New(ferr.WrongType, "Index: index tensor must be integer, got %s", idx.Op.DType)
	}
	if idx.Op.NDim > src.Op.NDim || !isPrefix(src.Op.Shape, idx.Op.Shape) {
		return nil, ferr.New(ferr.IncompatibleShapes, "Index: idx shape %v is not a prefix of src shape %v", idx.Op.Shape, src.Op.Shape)
	}
	shape := append(idx.Op.Shape.Clone(), src.Op.Shape[idx.Op.NDim:]...)
	return newNode(Operation{Kind: OpIndex, DType: src.Op.DType, Shape: shape, NDim: len(shape)}, src, idx)
}

// SetIndex scatter-adds updates into src at positions given by idx;
// colliding targets are summed.
func SetIndex(src, updates, idx *Node) (*Node, error) {
	if !idx.Op.DType.IsInt() {
		return nil, ferr.New(ferr.WrongType, "SetIndex: index tensor must be integer, got %s", idx.Op.DType)
	}
	n, err := newNode(Operation{Kind: OpSetIndex, DType: src.Op.DType, Shape: src.Op.Shape.Clone(), NDim: src.Op.NDim}, src, updates, idx)
	return n, err
}

// --- Sliding & pooling (arity 1) ------------------------------------------

func slideShape(a *Node, size, step []uint64) (Shape, error) {
	if len(size) != a.Op.NDim || len(step) != a.Op.NDim {
		return nil, ferr.New(ferr.IllegalDimensionality, "sliding window args must match rank %d", a.Op.NDim)
	}
	shape := make(Shape, 0, a.Op.NDim+1)
	windows := uint64(1)
	for d := 0; d < a.Op.NDim; d++ {
		if size[d] == 0 || step[d] == 0 {
			return nil, ferr.New(ferr.IllegalDimension, "sliding window size/step must be nonzero at axis %d", d)
		}
		if size[d] > a.Op.Shape[d] {
			return nil, ferr.New(ferr.IllegalDimension, "sliding window size %d exceeds dimension %d at axis %d", size[d], a.Op.Shape[d], d)
		}
		w := (a.Op.Shape[d]-size[d])/step[d] + 1
		windows *= w
	}
	shape = append(shape, windows)
	shape = append(shape, size...)
	return shape, nil
}

// SlidingWindow materializes every window as a new leading dimension.
func SlidingWindow(a *Node, size, step []uint64) (*Node, error) {
	shape, err := slideShape(a, size, step)
	if err != nil {
		return nil, err
	}
	return newNode(Operation{Kind: OpSlidingWindow, DType: a.Op.DType, Shape: shape, NDim: len(shape), Extra: SlidingWindowExtra{Size: append([]uint64{}, size...), Step: append([]uint64{}, step...)}}, a)
}

// UnslideWindow is the inverse of SlidingWindow: sums overlaps, zero-fills gaps.
func UnslideWindow(a *Node, resultShape Shape, step []uint64) (*Node, error) {
	return newNode(Operation{Kind: OpUnslideWindow, DType: a.Op.DType, Shape: resultShape.Clone(), NDim: len(resultShape),
		Extra: UnslideWindowExtra{ResultShape: resultShape.Clone(), Step: append([]uint64{}, step...)}}, a)
}

func pooling(kind OpKind, a *Node, size, step []uint64) (*Node, error) {
	shape, err := slideShape(a, size, step)
	if err != nil {
		return nil, err
	}
	// pooling reduces each window fully: drop the trailing per-window dims
	shape = shape[:1+a.Op.NDim-len(size)]
	return newNode(Operation{Kind: kind, DType: a.Op.DType, Shape: shape, NDim: len(shape), Extra: SlidingWindowExtra{Size: append([]uint64{}, size...), Step: append([]uint64{}, step...)}}, a)
}

func PoolingSum(a *Node, size, step []uint64) (*Node, error) { return pooling(OpPoolingSum, a, size, step) }
func PoolingMax(a *Node, size, step []uint64) (*Node, error) { return pooling(OpPoolingMax, a, size, step) }

// --- Convolution (arity 2) -------------------------------------------------

// Convolve contracts the last matching dimension(s) of input against
// kernel per spec.md §4.2 group 12.
func Convolve(input, kernel *Node, steps []uint64) (*Node, error) {
	var outShape Shape
	switch {
	case kernel.Op.NDim == input.Op.NDim:
		if kernel.Op.Shape[kernel.Op.NDim-1] != input.Op.Shape[input.Op.NDim-1] {
			return nil, ferr.New(ferr.IncompatibleShapes, "Convolve: last dims disagree %d vs %d", kernel.Op.Shape[kernel.Op.NDim-1], input.Op.Shape[input.Op.NDim-1])
		}
		outShape = make(Shape, input.Op.NDim-1)
	case kernel.Op.NDim == input.Op.NDim+1:
		outShape = make(Shape, input.Op.NDim) // rank stays same, last dim becomes filter count
	default:
		return nil, ferr.New(ferr.IllegalDimensionality, "Convolve: kernel rank %d incompatible with input rank %d", kernel.Op.NDim, input.Op.NDim)
	}
	reducedDims := input.Op.NDim - 1
	if len(steps) != reducedDims {
		return nil, ferr.New(ferr.IllegalDimensionality, "Convolve: steps must have length %d", reducedDims)
	}
	kernelShapeOffset := 0
	if kernel.Op.NDim == input.Op.NDim+1 {
		kernelShapeOffset = 1
	}
	for d := 0; d < reducedDims; d++ {
		ks := kernel.Op.Shape[d+kernelShapeOffset]
		if ks > input.Op.Shape[d] {
			return nil, ferr.New(ferr.IllegalDimension, "Convolve: kernel dim %d (%d) exceeds input dim (%d)", d, ks, input.Op.Shape[d])
		}
		outShape[d] = ceilDiv(input.Op.Shape[d]-ks+1, steps[d])
	}
	if kernel.Op.NDim == input.Op.NDim+1 {
		outShape[input.Op.NDim-1] = kernel.Op.Shape[0]
	}
	t := dtype.Promote(input.Op.DType, kernel.Op.DType)
	return newNode(Operation{Kind: OpConvolve, DType: t, Shape: outShape, NDim: len(outShape), Extra: ConvolveExtra{Steps: append([]uint64{}, steps...)}}, input, kernel)
}

func ceilDiv(a, b uint64) uint64 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// --- Convolution gradient helpers (internal; inserted by autodiff) -------

// GradientConvolve1 computes d(output)/d(input) given kernel and the
// upstream adjoint. Not exposed to the flint frontend.
func GradientConvolve1(adjoint, kernel *Node, steps []uint64, origInputNDim int) (*Node, error) {
	shape := make(Shape, origInputNDim)
	copy(shape, kernel.Op.Shape[len(kernel.Op.Shape)-origInputNDim:])
	return newNode(Operation{Kind: OpGradientConvolve1, DType: adjoint.Op.DType, Shape: shape, NDim: origInputNDim,
		Extra: GradientConvolveExtra{Steps: append([]uint64{}, steps...), OtherOp: kernel, OrigNDim: origInputNDim}}, adjoint, kernel)
}

// GradientConvolve2 computes d(output)/d(kernel) given input and the
// upstream adjoint. Not exposed to the flint frontend.
func GradientConvolve2(adjoint, input *Node, steps []uint64, origKernelShape Shape) (*Node, error) {
	return newNode(Operation{Kind: OpGradientConvolve2, DType: adjoint.Op.DType, Shape: origKernelShape.Clone(), NDim: len(origKernelShape),
		Extra: GradientConvolveExtra{Steps: append([]uint64{}, steps...), OtherOp: input}}, adjoint, input)
}

// GradientPoolingMax routes each adjoint value back to the position of the
// max element in its window, ties broken by smallest linear index.
func GradientPoolingMax(adjoint, original *Node, size, step []uint64) (*Node, error) {
	return newNode(Operation{Kind: OpGradientPoolingMax, DType: adjoint.Op.DType, Shape: original.Op.Shape.Clone(), NDim: original.Op.NDim,
		Extra: GradientPoolingMaxExtra{Size: append([]uint64{}, size...), Step: append([]uint64{}, step...), Original: original}}, adjoint, original)
}

// --- Miscellaneous ----------------------------------------------------------

// Dropout zeroes elements with probability p and rescales by 1/(1-p) when
// training is true; identity otherwise.
func Dropout(a *Node, p float64, training bool, seed float64) (*Node, error) {
	if p < 0 || p >= 1 {
		return nil, ferr.New(ferr.InvalidSelect, "Dropout: p must be in [0, 1), got %f", p)
	}
	return newNode(Operation{Kind: OpDropout, DType: a.Op.DType, Shape: a.Op.Shape.Clone(), NDim: a.Op.NDim,
		Extra: DropoutExtra{P: p, Training: training, Seed: seed}}, a)
}
