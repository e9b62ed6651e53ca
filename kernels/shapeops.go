package kernels

import "github.com/Frobeniusnorm/Flint-sub000/dtype"

// strides computes the accumulated row-major stride array for shape,
// matching graph.Shape.Strides without importing graph (kernels stays a
// leaf package consumed by cpuexec/gpuexec, not the reverse).
func strides(shape []uint64) []uint64 {
	acc := make([]uint64, len(shape))
	if len(shape) == 0 {
		return acc
	}
	acc[len(shape)-1] = 1
	for k := len(shape) - 2; k >= 0; k-- {
		acc[k] = acc[k+1] * shape[k+1]
	}
	return acc
}

func unravel(idx uint64, strd []uint64, shape []uint64) []int64 {
	coord := make([]int64, len(strd))
	for d := range strd {
		coord[d] = int64(idx / strd[d])
		idx %= strd[d]
	}
	_ = shape
	return coord
}

func ravel(coord []int64, strd []uint64) (uint64, bool) {
	var idx uint64
	for d, c := range coord {
		if c < 0 {
			return 0, false
		}
		idx += uint64(c) * strd[d]
	}
	return idx, true
}

// Slice implements NumPy-style basic slicing: out[i] = a[start + i*step]
// per axis (negative step reverses traversal).
func Slice(a, out []byte, inShape, outShape []uint64, start, step []int64, t dtype.Type) {
	sz := t.Size()
	inStrides, outStrides := strides(inShape), strides(outShape)
	total := uint64(1)
	for _, d := range outShape {
		total *= d
	}
	for i := uint64(0); i < total; i++ {
		outCoord := unravel(i, outStrides, outShape)
		srcCoord := make([]int64, len(outCoord))
		for d := range outCoord {
			srcCoord[d] = start[d] + outCoord[d]*step[d]
		}
		srcIdx, _ := ravel(srcCoord, inStrides)
		copy(out[i*uint64(sz):(i+1)*uint64(sz)], a[srcIdx*uint64(sz):(srcIdx+1)*uint64(sz)])
	}
}

// Extend embeds a in a zero tensor of outShape starting at insertAt,
// inflating gaps per step; out must be pre-zeroed by the caller.
func Extend(a, out []byte, inShape, outShape []uint64, insertAt, step []int64, t dtype.Type) {
	sz := t.Size()
	inStrides, outStrides := strides(inShape), strides(outShape)
	total := uint64(1)
	for _, d := range inShape {
		total *= d
	}
	for i := uint64(0); i < total; i++ {
		inCoord := unravel(i, inStrides, inShape)
		dstCoord := make([]int64, len(inCoord))
		for d := range inCoord {
			dstCoord[d] = insertAt[d] + inCoord[d]*step[d]
		}
		dstIdx, ok := ravel(dstCoord, outStrides)
		if !ok {
			continue
		}
		inBounds := true
		for d, c := range dstCoord {
			if c < 0 || uint64(c) >= outShape[d] {
				inBounds = false
				break
			}
		}
		if !inBounds {
			continue
		}
		copy(out[dstIdx*uint64(sz):(dstIdx+1)*uint64(sz)], a[i*uint64(sz):(i+1)*uint64(sz)])
	}
}

// Repeat tiles each dimension repetitions[d]+1 times.
func Repeat(a, out []byte, inShape, outShape []uint64, t dtype.Type) {
	sz := t.Size()
	inStrides, outStrides := strides(inShape), strides(outShape)
	total := uint64(1)
	for _, d := range outShape {
		total *= d
	}
	for i := uint64(0); i < total; i++ {
		coord := unravel(i, outStrides, outShape)
		srcCoord := make([]int64, len(coord))
		for d := range coord {
			srcCoord[d] = coord[d] % int64(inShape[d])
		}
		srcIdx, _ := ravel(srcCoord, inStrides)
		copy(out[i*uint64(sz):(i+1)*uint64(sz)], a[srcIdx*uint64(sz):(srcIdx+1)*uint64(sz)])
	}
}

// Transpose permutes dimensions according to perm: out[perm(coord)] = a[coord].
func Transpose(a, out []byte, inShape []uint64, perm []int, t dtype.Type) {
	sz := t.Size()
	outShape := make([]uint64, len(inShape))
	for i, p := range perm {
		outShape[i] = inShape[p]
	}
	inStrides, outStrides := strides(inShape), strides(outShape)
	total := uint64(1)
	for _, d := range inShape {
		total *= d
	}
	for i := uint64(0); i < total; i++ {
		inCoord := unravel(i, inStrides, inShape)
		outCoord := make([]int64, len(inCoord))
		for outD, inD := range perm {
			outCoord[outD] = inCoord[inD]
		}
		outIdx, _ := ravel(outCoord, outStrides)
		copy(out[outIdx*uint64(sz):(outIdx+1)*uint64(sz)], a[i*uint64(sz):(i+1)*uint64(sz)])
	}
}

// Concat joins a and b along axis into out.
func Concat(a, b, out []byte, aShape, bShape []uint64, axis int, t dtype.Type) {
	sz := t.Size()
	outShape := make([]uint64, len(aShape))
	copy(outShape, aShape)
	outShape[axis] = aShape[axis] + bShape[axis]
	outStrides := strides(outShape)
	aStrides, bStrides := strides(aShape), strides(bShape)

	totalA := uint64(1)
	for _, d := range aShape {
		totalA *= d
	}
	for i := uint64(0); i < totalA; i++ {
		coord := unravel(i, aStrides, aShape)
		dst, _ := ravel(coord, outStrides)
		copy(out[dst*uint64(sz):(dst+1)*uint64(sz)], a[i*uint64(sz):(i+1)*uint64(sz)])
	}
	totalB := uint64(1)
	for _, d := range bShape {
		totalB *= d
	}
	for i := uint64(0); i < totalB; i++ {
		coord := unravel(i, bStrides, bShape)
		coord[axis] += int64(aShape[axis])
		dst, _ := ravel(coord, outStrides)
		copy(out[dst*uint64(sz):(dst+1)*uint64(sz)], b[i*uint64(sz):(i+1)*uint64(sz)])
	}
}
