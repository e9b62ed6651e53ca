package kernels

import (
	"math"

	"github.com/Frobeniusnorm/Flint-sub000/dtype"
)

func windowShapes(inShape, size, step []uint64) (numWindowsPerAxis []uint64, totalWindows uint64) {
	numWindowsPerAxis = make([]uint64, len(inShape))
	totalWindows = 1
	for d := range inShape {
		numWindowsPerAxis[d] = (inShape[d]-size[d])/step[d] + 1
		totalWindows *= numWindowsPerAxis[d]
	}
	return
}

// SlidingWindow materializes every window as a new leading dimension:
// out[w, k...] = a[w_start(w) + k] per spec.md §4.2 group 11.
func SlidingWindow(a, out []byte, inShape, size, step []uint64, t dtype.Type) {
	sz := t.Size()
	numWindowsPerAxis, totalWindows := windowShapes(inShape, size, step)
	windowStrides := strides(numWindowsPerAxis)
	withinStrides := strides(size)
	inStrides := strides(inShape)
	withinTotal := uint64(1)
	for _, d := range size {
		withinTotal *= d
	}
	for w := uint64(0); w < totalWindows; w++ {
		wCoord := unravel(w, windowStrides, numWindowsPerAxis)
		for k := uint64(0); k < withinTotal; k++ {
			kCoord := unravel(k, withinStrides, size)
			srcCoord := make([]int64, len(inShape))
			for d := range inShape {
				srcCoord[d] = wCoord[d]*int64(step[d]) + kCoord[d]
			}
			srcIdx, _ := ravel(srcCoord, inStrides)
			dstIdx := w*withinTotal + k
			copy(out[dstIdx*uint64(sz):(dstIdx+1)*uint64(sz)], a[srcIdx*uint64(sz):(srcIdx+1)*uint64(sz)])
		}
	}
}

// UnslideWindow sums overlapping window contributions back into a
// resultShape tensor, zero-filling positions no window touches.
func UnslideWindow(a, out []byte, resultShape []uint64, size, step []uint64, t dtype.Type) {
	numWindowsPerAxis, totalWindows := windowShapes(resultShape, size, step)
	windowStrides := strides(numWindowsPerAxis)
	withinStrides := strides(size)
	outStrides := strides(resultShape)
	withinTotal := uint64(1)
	for _, d := range size {
		withinTotal *= d
	}
	add := func(dstIdx, srcIdx uint64) {
		switch t {
		case dtype.F32:
			viewF32(out)[dstIdx] += viewF32(a)[srcIdx]
		case dtype.F64:
			viewF64(out)[dstIdx] += viewF64(a)[srcIdx]
		case dtype.I32:
			viewI32(out)[dstIdx] += viewI32(a)[srcIdx]
		case dtype.I64:
			viewI64(out)[dstIdx] += viewI64(a)[srcIdx]
		}
	}
	for w := uint64(0); w < totalWindows; w++ {
		wCoord := unravel(w, windowStrides, numWindowsPerAxis)
		for k := uint64(0); k < withinTotal; k++ {
			kCoord := unravel(k, withinStrides, size)
			dstCoord := make([]int64, len(resultShape))
			for d := range resultShape {
				dstCoord[d] = wCoord[d]*int64(step[d]) + kCoord[d]
			}
			dstIdx, ok := ravel(dstCoord, outStrides)
			if !ok {
				continue
			}
			srcIdx := w*withinTotal + k
			add(dstIdx, srcIdx)
		}
	}
}

func poolReduce(a, out []byte, inShape, size, step []uint64, t dtype.Type, identity float64, useFirst bool, op func(acc, x float64) float64) {
	numWindowsPerAxis, totalWindows := windowShapes(inShape, size, step)
	windowStrides := strides(numWindowsPerAxis)
	withinStrides := strides(size)
	inStrides := strides(inShape)
	withinTotal := uint64(1)
	for _, d := range size {
		withinTotal *= d
	}
	read := func(idx uint64) float64 {
		switch t {
		case dtype.F32:
			return float64(viewF32(a)[idx])
		case dtype.F64:
			return viewF64(a)[idx]
		case dtype.I32:
			return float64(viewI32(a)[idx])
		default:
			return float64(viewI64(a)[idx])
		}
	}
	write := func(idx uint64, v float64) {
		switch t {
		case dtype.F32:
			viewF32(out)[idx] = float32(v)
		case dtype.F64:
			viewF64(out)[idx] = v
		case dtype.I32:
			viewI32(out)[idx] = int32(v)
		default:
			viewI64(out)[idx] = int64(v)
		}
	}
	for w := uint64(0); w < totalWindows; w++ {
		wCoord := unravel(w, windowStrides, numWindowsPerAxis)
		acc := identity
		for k := uint64(0); k < withinTotal; k++ {
			kCoord := unravel(k, withinStrides, size)
			srcCoord := make([]int64, len(inShape))
			for d := range inShape {
				srcCoord[d] = wCoord[d]*int64(step[d]) + kCoord[d]
			}
			srcIdx, _ := ravel(srcCoord, inStrides)
			if useFirst && k == 0 {
				acc = read(srcIdx)
				continue
			}
			acc = op(acc, read(srcIdx))
		}
		write(w, acc)
	}
}

func PoolingSum(a, out []byte, inShape, size, step []uint64, t dtype.Type) {
	poolReduce(a, out, inShape, size, step, t, 0, false, func(acc, x float64) float64 { return acc + x })
}

func PoolingMax(a, out []byte, inShape, size, step []uint64, t dtype.Type) {
	poolReduce(a, out, inShape, size, step, t, 0, true, func(acc, x float64) float64 {
		if x > acc {
			return x
		}
		return acc
	})
}

// GradientPoolingMax routes each adjoint value to the argmax position of
// its window, ties broken by smallest linear index; out must be
// pre-zeroed by the caller.
func GradientPoolingMax(adjoint, original, out []byte, inShape, size, step []uint64, t dtype.Type) {
	numWindowsPerAxis, totalWindows := windowShapes(inShape, size, step)
	windowStrides := strides(numWindowsPerAxis)
	withinStrides := strides(size)
	inStrides := strides(inShape)
	withinTotal := uint64(1)
	for _, d := range size {
		withinTotal *= d
	}
	readOrig := func(idx uint64) float64 {
		switch t {
		case dtype.F32:
			return float64(viewF32(original)[idx])
		case dtype.F64:
			return viewF64(original)[idx]
		case dtype.I32:
			return float64(viewI32(original)[idx])
		default:
			return float64(viewI64(original)[idx])
		}
	}
	readAdj := func(idx uint64) float64 {
		switch t {
		case dtype.F32:
			return float64(viewF32(adjoint)[idx])
		case dtype.F64:
			return viewF64(adjoint)[idx]
		case dtype.I32:
			return float64(viewI32(adjoint)[idx])
		default:
			return float64(viewI64(adjoint)[idx])
		}
	}
	addOut := func(idx uint64, v float64) {
		switch t {
		case dtype.F32:
			viewF32(out)[idx] += float32(v)
		case dtype.F64:
			viewF64(out)[idx] += v
		case dtype.I32:
			viewI32(out)[idx] += int32(v)
		case dtype.I64:
			viewI64(out)[idx] += int64(v)
		}
	}
	for w := uint64(0); w < totalWindows; w++ {
		wCoord := unravel(w, windowStrides, numWindowsPerAxis)
		var bestIdx uint64
		bestVal := math.Inf(-1)
		for k := uint64(0); k < withinTotal; k++ {
			kCoord := unravel(k, withinStrides, size)
			srcCoord := make([]int64, len(inShape))
			for d := range inShape {
				srcCoord[d] = wCoord[d]*int64(step[d]) + kCoord[d]
			}
			srcIdx, _ := ravel(srcCoord, inStrides)
			v := readOrig(srcIdx)
			if v > bestVal {
				bestVal = v
				bestIdx = srcIdx
			}
		}
		addOut(bestIdx, readAdj(w))
	}
}
