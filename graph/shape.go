package graph

import "github.com/Frobeniusnorm/Flint-sub000/ferr"

// Shape is an ordered sequence of dimension sizes, row-major.
type Shape []uint64

// Clone returns an independent copy.
func (s Shape) Clone() Shape {
	c := make(Shape, len(s))
	copy(c, s)
	return c
}

// NumElements returns the product of all dimension sizes (1 for a scalar).
func (s Shape) NumElements() uint64 {
	n := uint64(1)
	for _, d := range s {
		n *= d
	}
	return n
}

func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Strides computes the accumulated row-major stride array from spec.md §4.1:
// acc[d-1] = 1, acc[k] = acc[k+1] * s[k+1].
func (s Shape) Strides() []uint64 {
	acc := make([]uint64, len(s))
	if len(s) == 0 {
		return acc
	}
	acc[len(s)-1] = 1
	for k := len(s) - 2; k >= 0; k-- {
		acc[k] = acc[k+1] * s[k+1]
	}
	return acc
}

// BroadcastMode describes how a shorter shape aligns against a longer one.
type BroadcastMode uint8

const (
	BroadcastNormal BroadcastMode = iota
	BroadcastInverse
)

// ResolveBroadcast implements the §4.1 broadcasting rule: normal requires B
// to equal the suffix of A, inverse requires B to equal the prefix. Normal
// wins unless forceInverse is set and inverse is legal. Returns the
// resulting mode or an error if neither alignment is legal.
func ResolveBroadcast(a, b Shape, forceInverseB bool) (BroadcastMode, error) {
	longer, shorter := a, b
	if len(shorter) > len(longer) {
		longer, shorter = shorter, longer
	}
	normalOK := isSuffix(longer, shorter)
	inverseOK := isPrefix(longer, shorter)
	if !normalOK && !inverseOK {
		return 0, ferr.New(ferr.IncompatibleShapes, "shapes %v and %v are neither suffix- nor prefix-compatible", a, b)
	}
	if forceInverseB && inverseOK {
		return BroadcastInverse, nil
	}
	if normalOK {
		return BroadcastNormal, nil
	}
	return BroadcastInverse, nil
}

func isSuffix(longer, shorter Shape) bool {
	off := len(longer) - len(shorter)
	for i, d := range shorter {
		if longer[off+i] != d {
			return false
		}
	}
	return true
}

func isPrefix(longer, shorter Shape) bool {
	for i, d := range shorter {
		if longer[i] != d {
			return false
		}
	}
	return true
}

// BroadcastIndex maps a flat index i (0..N) in the result to the matching
// flat index in a predecessor of size predSize, per spec.md §4.1:
// (i / inv_stride) mod predSize, where inv_stride = N/predSize under
// inverse broadcasting and 1 under normal.
func BroadcastIndex(i, resultSize, predSize uint64, mode BroadcastMode) uint64 {
	if predSize == resultSize {
		return i
	}
	invStride := uint64(1)
	if mode == BroadcastInverse {
		invStride = resultSize / predSize
	}
	return (i / invStride) % predSize
}

// LongerShape returns whichever of a, b has more dimensions (ties favor a),
// used as the broadcast result shape per spec.md §4.2 group 2.
func LongerShape(a, b Shape) Shape {
	if len(b) > len(a) {
		return b
	}
	return a
}
