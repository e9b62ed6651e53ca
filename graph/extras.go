package graph

// The following types are the op-specific auxiliary payloads carried in
// Operation.Extra, one per operation group in spec.md §4.2. free_extra is
// a no-op for all of them since none hold anything but plain Go values;
// the hook exists for registry symmetry with the teacher's pattern of an
// explicit release step, and as the place a future off-heap Extra would
// plug in.

type RandomExtra struct {
	Seed float64
}

type ConstantExtra struct {
	Value any // one of int32, int64, float32, float64
}

type ArangeExtra struct {
	Axis int
}

type ConversionExtra struct {
	// target type already lives in Operation.DType
}

type FlattenDimExtra struct {
	Dim int
}

type ReshapeExtra struct {
	NewShape Shape
}

type ReduceExtra struct {
	Axis int
}

type SliceExtra struct {
	Start []int64
	End   []int64
	Step  []int64
}

type ExtendExtra struct {
	NewShape Shape
	InsertAt []int64
	Step     []int64
}

type RepeatExtra struct {
	Repetitions []uint64
}

type TransposeExtra struct {
	Perm []int
}

type ConcatExtra struct {
	Axis int
}

type SlidingWindowExtra struct {
	Size []uint64
	Step []uint64
}

type UnslideWindowExtra struct {
	ResultShape Shape
	Step        []uint64
}

type ConvolveExtra struct {
	Steps []uint64
}

type GradientConvolveExtra struct {
	Steps    []uint64
	OtherOp  *Node // the other convolution operand (kernel for GC1, image for GC2)
	OrigNDim int
}

type GradientPoolingMaxExtra struct {
	Size     []uint64
	Step     []uint64
	Original *Node // the original PoolingMax's input, to recover argmax positions
}

type DropoutExtra struct {
	P        float64
	Training bool
	Seed     float64
}

// FreeExtra runs the free_extra hook for op. None of Flint's Extra payloads
// hold external resources today, so this is currently a pure formality
// kept for parity with the registry's documented trait bundle.
func FreeExtra(op Operation) {
	_ = op
}
