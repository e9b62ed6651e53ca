package kernels

import (
	"runtime"
	"unsafe"
)

// BatchSize is the chunk width operation_score uses as a rough per-element
// cost unit (spec.md §4.3): wider SIMD batches make the same node cheaper
// to run inline before the 512-score parallelization threshold kicks in.
func BatchSize() int {
	switch runtime.GOARCH {
	case "amd64":
		return 8
	case "arm64":
		return 4
	default:
		return 4
	}
}

// VectorizedKernel applies a scalar float32 transform batch-at-a-time;
// used by the unary registry entries (Sin, Cos, Exp, ...) so every unary
// op shares one cache-conscious iteration shape instead of each writing
// its own loop.
type VectorizedKernel struct {
	scalar func(float32) float32
	batch  int
}

func NewVectorizedKernel(scalar func(float32) float32) *VectorizedKernel {
	return &VectorizedKernel{scalar: scalar, batch: BatchSize()}
}

// Execute runs the kernel in place over a raw float32 buffer.
func (vk *VectorizedKernel) Execute(data []byte) {
	count := len(data) / 4
	for i := 0; i < count; i += vk.batch {
		end := i + vk.batch
		if end > count {
			end = count
		}
		for j := i; j < end; j++ {
			p := (*float32)(unsafe.Pointer(&data[j*4]))
			*p = vk.scalar(*p)
		}
	}
}

const CacheLineSize = 64

