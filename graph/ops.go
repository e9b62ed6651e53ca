// Package graph implements Flint's computation-graph data model: the
// Node/Operation representation, shape and broadcasting rules, reference
// counting, the ~50 operation builders, and tensor serialization.
//
// The package mirrors the teacher's model.Graph / core.Sublate split:
// Operation plays the role of a Sublate's (KernelID, Flags, Topology)
// triple generalized to a full tagged-union of tensor ops, and Node plays
// the role of model.Node generalized from a flat byte-offset graph to a
// pointer-linked DAG with per-node reference counting.
package graph

import "github.com/Frobeniusnorm/Flint-sub000/dtype"

// OpKind is the discriminant of the operation tagged variant (spec.md §4.2).
type OpKind uint8

const (
	// Generators (arity 0)
	OpStore OpKind = iota
	OpGenRandom
	OpGenConstant
	OpGenArange

	// Binary arithmetic (arity 2, broadcasted)
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpPow

	// Unary arithmetic (arity 1)
	OpNeg
	OpAbs
	OpLog
	OpLog2
	OpLog10
	OpSin
	OpCos
	OpTan
	OpASin
	OpACos
	OpATan
	OpSqrt
	OpExp
	OpSign
	OpEven

	// Comparison (arity 2, -> i32)
	OpLess
	OpGreater
	OpEqual

	// Elementwise min/max (arity 2)
	OpMin
	OpMax

	// Linear algebra
	OpMatMul

	// Reshape family (arity 1)
	OpFlatten
	OpFlattenDim
	OpReshape
	OpConversion

	// Reductions (arity 1)
	OpReduceSum
	OpReduceMul
	OpReduceMin
	OpReduceMax

	// Index modifications (arity 1, Concat is arity 2)
	OpSlice
	OpExtend
	OpRepeat
	OpTranspose
	OpConcat

	// Indexing
	OpIndex
	OpSetIndex

	// Sliding & pooling
	OpSlidingWindow
	OpUnslideWindow
	OpPoolingSum
	OpPoolingMax

	// Convolution
	OpConvolve
	OpGradientConvolve1
	OpGradientConvolve2
	OpGradientPoolingMax

	// Miscellaneous
	OpDropout

	opKindCount
)

var opNames = [opKindCount]string{
	OpStore: "Store", OpGenRandom: "GenRandom", OpGenConstant: "GenConstant", OpGenArange: "GenArange",
	OpAdd: "Add", OpSub: "Sub", OpMul: "Mul", OpDiv: "Div", OpPow: "Pow",
	OpNeg: "Neg", OpAbs: "Abs", OpLog: "Log", OpLog2: "Log2", OpLog10: "Log10",
	OpSin: "Sin", OpCos: "Cos", OpTan: "Tan", OpASin: "ASin", OpACos: "ACos", OpATan: "ATan",
	OpSqrt: "Sqrt", OpExp: "Exp", OpSign: "Sign", OpEven: "Even",
	OpLess: "Less", OpGreater: "Greater", OpEqual: "Equal",
	OpMin: "Min", OpMax: "Max",
	OpMatMul: "MatMul",
	OpFlatten: "Flatten", OpFlattenDim: "FlattenDim", OpReshape: "Reshape", OpConversion: "Conversion",
	OpReduceSum: "ReduceSum", OpReduceMul: "ReduceMul", OpReduceMin: "ReduceMin", OpReduceMax: "ReduceMax",
	OpSlice: "Slice", OpExtend: "Extend", OpRepeat: "Repeat", OpTranspose: "Transpose", OpConcat: "Concat",
	OpIndex: "Index", OpSetIndex: "SetIndex",
	OpSlidingWindow: "SlidingWindow", OpUnslideWindow: "UnslideWindow",
	OpPoolingSum: "PoolingSum", OpPoolingMax: "PoolingMax",
	OpConvolve: "Convolve", OpGradientConvolve1: "GradientConvolve1", OpGradientConvolve2: "GradientConvolve2",
	OpGradientPoolingMax: "GradientPoolingMax",
	OpDropout:            "Dropout",
}

func (k OpKind) String() string {
	if int(k) < len(opNames) && opNames[k] != "" {
		return opNames[k]
	}
	return "Unknown"
}

// Arity returns the fixed number of predecessors the operation takes,
// or -1 for operations whose arity varies (none currently do; kept for
// registry symmetry with the teacher's permissive opcode tables).
func (k OpKind) Arity() int {
	switch k {
	case OpStore, OpGenRandom, OpGenConstant, OpGenArange:
		return 0
	case OpFlatten, OpFlattenDim, OpReshape, OpConversion,
		OpNeg, OpAbs, OpLog, OpLog2, OpLog10, OpSin, OpCos, OpTan, OpASin, OpACos, OpATan, OpSqrt, OpExp, OpSign, OpEven,
		OpReduceSum, OpReduceMul, OpReduceMin, OpReduceMax,
		OpSlice, OpExtend, OpRepeat, OpTranspose,
		OpSlidingWindow, OpUnslideWindow, OpPoolingSum, OpPoolingMax, OpDropout:
		return 1
	case OpAdd, OpSub, OpMul, OpDiv, OpPow, OpLess, OpGreater, OpEqual, OpMin, OpMax,
		OpMatMul, OpConcat, OpIndex, OpConvolve, OpGradientConvolve1, OpGradientConvolve2, OpGradientPoolingMax:
		return 2
	case OpSetIndex:
		return 3
	default:
		return -1
	}
}

// IsPushParameter reports whether this operation must become a kernel
// input parameter during GPU fusion rather than be inlined (spec.md §4.4).
func (k OpKind) IsPushParameter() bool {
	switch k {
	case OpMatMul, OpReduceSum, OpReduceMul, OpReduceMin, OpReduceMax,
		OpConvolve, OpGradientConvolve1, OpGradientConvolve2,
		OpPoolingSum, OpPoolingMax, OpGradientPoolingMax,
		OpSlidingWindow, OpUnslideWindow,
		OpIndex, OpSetIndex, OpSlice, OpTranspose, OpRepeat, OpConcat, OpExtend:
		return true
	default:
		return false
	}
}

// Operation is the tagged union carried by every Node.
type Operation struct {
	Kind    OpKind
	DType   dtype.Type
	Shape   Shape
	NDim    int
	Inverse bool // force-inverse broadcasting flag
	Extra   any  // op-specific auxiliary data, see extras.go
}
