package kernels

import "github.com/Frobeniusnorm/Flint-sub000/dtype"

func readIndexVal(idx []byte, pos uint64, idxType dtype.Type) int64 {
	if idxType == dtype.I64 {
		return viewI64(idx)[pos]
	}
	return int64(viewI32(idx)[pos])
}

// computeIndexBase maps a flat index i over idxShape to the flat base
// offset in src (whose strides are srcStrides), with the last dimension
// of the matching prefix replaced by sel.
func computeIndexBase(i uint64, idxShape []uint64, srcStrides []uint64, sel int64) uint64 {
	idxStrides := strides(idxShape)
	coord := unravel(i, idxStrides, idxShape)
	coord[len(coord)-1] = sel
	base, _ := ravel(coord, srcStrides[:len(coord)])
	return base
}

// Index selects along the matched axis: idxShape is a prefix of srcShape;
// out[idxCoord..., rest...] = src[idx[idxCoord], rest...].
func Index(src, idx, out []byte, srcShape, idxShape []uint64, idxType dtype.Type, t dtype.Type) {
	sz := t.Size()
	srcStrides := strides(srcShape)
	idxTotal := uint64(1)
	for _, d := range idxShape {
		idxTotal *= d
	}
	restSize := uint64(1)
	for _, d := range srcShape[len(idxShape):] {
		restSize *= d
	}
	for i := uint64(0); i < idxTotal; i++ {
		sel := readIndexVal(idx, i, idxType)
		srcBase := computeIndexBase(i, idxShape, srcStrides, sel)
		for r := uint64(0); r < restSize; r++ {
			srcIdx, dstIdx := srcBase+r, i*restSize+r
			copy(out[dstIdx*uint64(sz):(dstIdx+1)*uint64(sz)], src[srcIdx*uint64(sz):(srcIdx+1)*uint64(sz)])
		}
	}
}

// SetIndex scatter-adds updates into a copy of src at positions given by
// idx; colliding targets are summed. out must start as a copy of src.
func SetIndex(updates, idx, out []byte, updatesShape, idxShape, srcShape []uint64, idxType dtype.Type, t dtype.Type) {
	srcStrides := strides(srcShape)
	idxTotal := uint64(1)
	for _, d := range idxShape {
		idxTotal *= d
	}
	restSize := uint64(1)
	for _, d := range updatesShape[len(idxShape):] {
		restSize *= d
	}
	addAt := func(dstIdx, srcIdx uint64) {
		switch t {
		case dtype.F32:
			viewF32(out)[dstIdx] += viewF32(updates)[srcIdx]
		case dtype.F64:
			viewF64(out)[dstIdx] += viewF64(updates)[srcIdx]
		case dtype.I32:
			viewI32(out)[dstIdx] += viewI32(updates)[srcIdx]
		case dtype.I64:
			viewI64(out)[dstIdx] += viewI64(updates)[srcIdx]
		}
	}
	for i := uint64(0); i < idxTotal; i++ {
		sel := readIndexVal(idx, i, idxType)
		dstBase := computeIndexBase(i, idxShape, srcStrides, sel)
		for r := uint64(0); r < restSize; r++ {
			addAt(dstBase+r, i*restSize+r)
		}
	}
}
