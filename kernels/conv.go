package kernels

import "github.com/Frobeniusnorm/Flint-sub000/dtype"

// Convolve implements spec.md §4.2 group 12. If kernel rank equals input
// rank, the last dimension of both is contracted and output rank is
// input rank - 1. If kernel rank is input rank + 1, the first kernel
// dimension enumerates filters and becomes the new trailing output
// dimension.
func Convolve(input, kernel, out []byte, inShape, kernelShape, outShape, steps []uint64, hasFilters bool, t dtype.Type) {
	reducedDims := len(inShape) - 1
	filterOffset := 0
	numFilters := uint64(1)
	if hasFilters {
		reducedDims = len(inShape)
		filterOffset = 1
		numFilters = kernelShape[0]
	}
	contractLen := uint64(1)
	if !hasFilters {
		contractLen = inShape[len(inShape)-1]
	}
	inStrides := strides(inShape)
	kernelStrides := strides(kernelShape)
	outStrides := strides(outShape)

	kernelWindowShape := make([]uint64, reducedDims)
	copy(kernelWindowShape, kernelShape[filterOffset:filterOffset+reducedDims])
	windowStrides := strides(kernelWindowShape)
	windowTotal := uint64(1)
	for _, d := range kernelWindowShape {
		windowTotal *= d
	}

	outReducedShape := outShape[:reducedDims]
	outReducedStrides := strides(outReducedShape)
	totalOutPositions := uint64(1)
	for _, d := range outReducedShape {
		totalOutPositions *= d
	}

	read := func(buf []byte, idx uint64) float64 {
		switch t {
		case dtype.F32:
			return float64(viewF32(buf)[idx])
		case dtype.F64:
			return viewF64(buf)[idx]
		case dtype.I32:
			return float64(viewI32(buf)[idx])
		default:
			return float64(viewI64(buf)[idx])
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

	for f := uint64(0); f < numFilters; f++ {
		for p := uint64(0); p < totalOutPositions; p++ {
			posCoord := unravel(p, outReducedStrides, outReducedShape)
			var acc float64
			for w := uint64(0); w < windowTotal; w++ {
				wCoord := unravel(w, windowStrides, kernelWindowShape)
				srcCoord := make([]int64, len(inShape))
				for d := 0; d < reducedDims; d++ {
					srcCoord[d] = posCoord[d]*int64(steps[d]) + wCoord[d]
				}
				if !hasFilters {
					// trailing contracted dim: sum over it explicitly
					for c := uint64(0); c < contractLen; c++ {
						srcCoord[len(inShape)-1] = int64(c)
						srcIdx, _ := ravel(srcCoord, inStrides)
						kCoord := append(append([]int64{}, wCoord...), int64(c))
						kIdx, _ := ravel(kCoord, kernelStrides)
						acc += read(input, srcIdx) * read(kernel, kIdx)
					}
					continue
				}
				srcIdx, _ := ravel(srcCoord, inStrides)
				kCoord := append([]int64{int64(f)}, wCoord...)
				kIdx, _ := ravel(kCoord, kernelStrides)
				acc += read(input, srcIdx) * read(kernel, kIdx)
			}
			var dstIdx uint64
			if hasFilters {
				dstCoord := append(append([]int64{}, posCoord...), int64(f))
				dstIdx, _ = ravel(dstCoord, outStrides)
			} else {
				dstIdx, _ = ravel(posCoord, outReducedStrides)
			}
			write(dstIdx, acc)
		}
	}
}

// GradientConvolve1 computes d(output)/d(input): for every output
// position and every kernel window offset, it scatter-adds
// adjoint[pos]*kernel[offset] into the input-shaped result at the
// corresponding input position. out must be pre-zeroed by the caller.
func GradientConvolve1(adjoint, kernel, out []byte, outShape, kernelShape, inShape, steps []uint64, hasFilters bool, t dtype.Type) {
	reducedDims := len(inShape) - 1
	filterOffset := 0
	numFilters := uint64(1)
	if hasFilters {
		reducedDims = len(inShape)
		filterOffset = 1
		numFilters = kernelShape[0]
	}
	contractLen := uint64(1)
	if !hasFilters {
		contractLen = inShape[len(inShape)-1]
	}
	inStrides := strides(inShape)
	kernelStrides := strides(kernelShape)
	adjStrides := strides(outShape)
	outReducedShape := outShape
	if hasFilters {
		outReducedShape = outShape[:reducedDims]
	} else {
		outReducedShape = outShape
	}
	outReducedStrides := strides(outReducedShape)
	kernelWindowShape := make([]uint64, reducedDims)
	copy(kernelWindowShape, kernelShape[filterOffset:filterOffset+reducedDims])
	windowStrides := strides(kernelWindowShape)
	windowTotal := uint64(1)
	for _, d := range kernelWindowShape {
		windowTotal *= d
	}
	totalOutPositions := uint64(1)
	for _, d := range outReducedShape {
		totalOutPositions *= d
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
	readKernel := func(idx uint64) float64 {
		switch t {
		case dtype.F32:
			return float64(viewF32(kernel)[idx])
		case dtype.F64:
			return viewF64(kernel)[idx]
		case dtype.I32:
			return float64(viewI32(kernel)[idx])
		default:
			return float64(viewI64(kernel)[idx])
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
	for f := uint64(0); f < numFilters; f++ {
		for p := uint64(0); p < totalOutPositions; p++ {
			posCoord := unravel(p, outReducedStrides, outReducedShape)
			var adjIdx uint64
			if hasFilters {
				adjCoord := append(append([]int64{}, posCoord...), int64(f))
				adjIdx, _ = ravel(adjCoord, adjStrides)
			} else {
				adjIdx, _ = ravel(posCoord, outReducedStrides)
			}
			adjVal := readAdj(adjIdx)
			for w := uint64(0); w < windowTotal; w++ {
				wCoord := unravel(w, windowStrides, kernelWindowShape)
				dstCoord := make([]int64, len(inShape))
				for d := 0; d < reducedDims; d++ {
					dstCoord[d] = posCoord[d]*int64(steps[d]) + wCoord[d]
				}
				if !hasFilters {
					for c := uint64(0); c < contractLen; c++ {
						dstCoord[len(inShape)-1] = int64(c)
						dstIdx, _ := ravel(dstCoord, inStrides)
						kCoord := append(append([]int64{}, wCoord...), int64(c))
						kIdx, _ := ravel(kCoord, kernelStrides)
						addOut(dstIdx, adjVal*readKernel(kIdx))
					}
					continue
				}
				dstIdx, _ := ravel(dstCoord, inStrides)
				kCoord := append([]int64{int64(f)}, wCoord...)
				kIdx, _ := ravel(kCoord, kernelStrides)
				addOut(dstIdx, adjVal*readKernel(kIdx))
			}
		}
	}
}

// GradientConvolve2 computes d(output)/d(kernel): for every output
// position and window offset, it scatter-adds adjoint[pos]*input[offset]
// into the kernel-shaped result. out must be pre-zeroed by the caller.
func GradientConvolve2(adjoint, input, out []byte, outShape, inShape, kernelShape, steps []uint64, hasFilters bool, t dtype.Type) {
	reducedDims := len(inShape) - 1
	filterOffset := 0
	numFilters := uint64(1)
	if hasFilters {
		reducedDims = len(inShape)
		filterOffset = 1
		numFilters = kernelShape[0]
	}
	contractLen := uint64(1)
	if !hasFilters {
		contractLen = inShape[len(inShape)-1]
	}
	inStrides := strides(inShape)
	kernelStrides := strides(kernelShape)
	adjStrides := strides(outShape)
	outReducedShape := outShape
	if hasFilters {
		outReducedShape = outShape[:reducedDims]
	}
	outReducedStrides := strides(outReducedShape)
	kernelWindowShape := make([]uint64, reducedDims)
	copy(kernelWindowShape, kernelShape[filterOffset:filterOffset+reducedDims])
	windowStrides := strides(kernelWindowShape)
	windowTotal := uint64(1)
	for _, d := range kernelWindowShape {
		windowTotal *= d
	}
	totalOutPositions := uint64(1)
	for _, d := range outReducedShape {
		totalOutPositions *= d
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
	readInput := func(idx uint64) float64 {
		switch t {
		case dtype.F32:
			return float64(viewF32(input)[idx])
		case dtype.F64:
			return viewF64(input)[idx]
		case dtype.I32:
			return float64(viewI32(input)[idx])
		default:
			return float64(viewI64(input)[idx])
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
	for f := uint64(0); f < numFilters; f++ {
		for p := uint64(0); p < totalOutPositions; p++ {
			posCoord := unravel(p, outReducedStrides, outReducedShape)
			var adjIdx uint64
			if hasFilters {
				adjCoord := append(append([]int64{}, posCoord...), int64(f))
				adjIdx, _ = ravel(adjCoord, adjStrides)
			} else {
				adjIdx, _ = ravel(posCoord, outReducedStrides)
			}
			adjVal := readAdj(adjIdx)
			for w := uint64(0); w < windowTotal; w++ {
				wCoord := unravel(w, windowStrides, kernelWindowShape)
				srcCoord := make([]int64, len(inShape))
				for d := 0; d < reducedDims; d++ {
					srcCoord[d] = posCoord[d]*int64(steps[d]) + wCoord[d]
				}
				if !hasFilters {
					for c := uint64(0); c < contractLen; c++ {
						srcCoord[len(inShape)-1] = int64(c)
						srcIdx, _ := ravel(srcCoord, inStrides)
						kCoord := append(append([]int64{}, wCoord...), int64(c))
						kIdx, _ := ravel(kCoord, kernelStrides)
						addOut(kIdx, adjVal*readInput(srcIdx))
					}
					continue
				}
				srcIdx, _ := ravel(srcCoord, inStrides)
				kCoord := append([]int64{int64(f)}, wCoord...)
				kIdx, _ := ravel(kCoord, kernelStrides)
				addOut(kIdx, adjVal*readInput(srcIdx))
			}
		}
	}
}
