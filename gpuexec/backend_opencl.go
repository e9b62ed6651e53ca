//go:build opencl

package gpuexec

/*
#cgo linux LDFLAGS: -lOpenCL
#cgo darwin LDFLAGS: -framework OpenCL
#cgo windows LDFLAGS: -lOpenCL

#ifdef __APPLE__
#include <OpenCL/opencl.h>
#else
#include <CL/cl.h>
#endif
#include <stdlib.h>
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/Frobeniusnorm/Flint-sub000/dtype"
	"github.com/Frobeniusnorm/Flint-sub000/ferr"
	"github.com/Frobeniusnorm/Flint-sub000/graph"
)

// eagerSource holds one OpenCL C kernel body per elementwise op the eager
// runtime pre-builds, keyed the same way cpuexec's own kernel table is:
// by OpKind. Only float32 is pre-built; other dtypes fall back through
// fusion (and from there to cpuexec) until a template is added here.
var eagerSource = map[graph.OpKind]string{
	graph.OpAdd: "__kernel void fused(__global const float *in, __global float *out) { int gid = get_global_id(0); out[gid] = in[gid] + in[gid]; }",
	graph.OpMul: "__kernel void fused(__global const float *in, __global float *out) { int gid = get_global_id(0); out[gid] = in[gid] * in[gid]; }",
}

// registerEagerKernels pre-compiles the templates in eagerSource for
// float32, installing them in eager so TryExecute can dispatch Add/Mul
// without routing through the fuser on every call.
func (b *clBackend) registerEagerKernels(e *Eager) {
	for kind, src := range eagerSource {
		k, err := b.compile(src)
		if err != nil {
			continue
		}
		e.register(kind, dtype.F32, k)
	}
}

// clBackend binds one OpenCL device for the process's lifetime: a single
// context, command queue, and program cache. Flint opens at most one GPU
// device; multi-device scheduling is out of scope (SPEC_FULL.md Non-goals).
type clBackend struct {
	platform C.cl_platform_id
	device   C.cl_device_id
	context  C.cl_context
	queue    C.cl_command_queue
	ok       bool
}

func newBackend() backend {
	b := &clBackend{}
	b.ok = b.init() == nil
	return b
}

func (b *clBackend) init() error {
	var numPlatforms C.cl_uint
	if C.clGetPlatformIDs(0, nil, &numPlatforms) != C.CL_SUCCESS || numPlatforms == 0 {
		return fmt.Errorf("gpuexec: no OpenCL platforms found")
	}
	platforms := make([]C.cl_platform_id, numPlatforms)
	C.clGetPlatformIDs(numPlatforms, &platforms[0], nil)
	b.platform = platforms[0]

	var numDevices C.cl_uint
	if C.clGetDeviceIDs(b.platform, C.CL_DEVICE_TYPE_GPU, 0, nil, &numDevices) != C.CL_SUCCESS || numDevices == 0 {
		return fmt.Errorf("gpuexec: no OpenCL GPU devices found")
	}
	devices := make([]C.cl_device_id, numDevices)
	C.clGetDeviceIDs(b.platform, C.CL_DEVICE_TYPE_GPU, numDevices, &devices[0], nil)
	b.device = devices[0]

	var ret C.cl_int
	b.context = C.clCreateContext(nil, 1, &b.device, nil, nil, &ret)
	if ret != C.CL_SUCCESS {
		return fmt.Errorf("gpuexec: clCreateContext failed: %d", ret)
	}
	b.queue = C.clCreateCommandQueue(b.context, b.device, 0, &ret)
	if ret != C.CL_SUCCESS {
		return fmt.Errorf("gpuexec: clCreateCommandQueue failed: %d", ret)
	}
	return nil
}

func (b *clBackend) available() bool { return b.ok }

// clKernel is the handle stored behind compiledKernel.handle once opencl
// is linked in.
type clKernel struct {
	program C.cl_program
	kernel  C.cl_kernel
}

func (b *clBackend) compile(source string) (*compiledKernel, error) {
	csrc := C.CString(source)
	defer C.free(unsafe.Pointer(csrc))
	length := C.size_t(len(source))

	var ret C.cl_int
	program := C.clCreateProgramWithSource(b.context, 1, &csrc, &length, &ret)
	if ret != C.CL_SUCCESS {
		return nil, fmt.Errorf("gpuexec: clCreateProgramWithSource failed: %d", ret)
	}
	if C.clBuildProgram(program, 1, &b.device, nil, nil, nil) != C.CL_SUCCESS {
		return nil, fmt.Errorf("gpuexec: clBuildProgram failed")
	}

	name := C.CString("fused")
	defer C.free(unsafe.Pointer(name))
	kernel := C.clCreateKernel(program, name, &ret)
	if ret != C.CL_SUCCESS {
		return nil, fmt.Errorf("gpuexec: clCreateKernel failed: %d", ret)
	}

	return &compiledKernel{name: "fused", handle: &clKernel{program: program, kernel: kernel}}, nil
}

func (b *clBackend) run(k *compiledKernel, n *graph.Node, inputs [][]byte) ([]byte, error) {
	ck, ok := k.handle.(*clKernel)
	if !ok {
		return nil, ferr.New(ferr.InternalError, "gpuexec: compiled kernel has no OpenCL handle")
	}

	total := n.Op.Shape.NumElements()
	outSize := C.size_t(total * uint64(n.Op.DType.Size()))

	var ret C.cl_int
	var inBuf, outBuf C.cl_mem
	if len(inputs) > 0 {
		inBuf = C.clCreateBuffer(b.context, C.CL_MEM_READ_ONLY|C.CL_MEM_COPY_HOST_PTR,
			C.size_t(len(inputs[0])), unsafe.Pointer(&inputs[0][0]), &ret)
		if ret != C.CL_SUCCESS {
			return nil, fmt.Errorf("gpuexec: clCreateBuffer(in) failed: %d", ret)
		}
		defer C.clReleaseMemObject(inBuf)
	}
	outBuf = C.clCreateBuffer(b.context, C.CL_MEM_WRITE_ONLY, outSize, nil, &ret)
	if ret != C.CL_SUCCESS {
		return nil, fmt.Errorf("gpuexec: clCreateBuffer(out) failed: %d", ret)
	}
	defer C.clReleaseMemObject(outBuf)

	C.clSetKernelArg(ck.kernel, 0, C.size_t(unsafe.Sizeof(inBuf)), unsafe.Pointer(&inBuf))
	C.clSetKernelArg(ck.kernel, 1, C.size_t(unsafe.Sizeof(outBuf)), unsafe.Pointer(&outBuf))

	globalSize := C.size_t(total)
	if C.clEnqueueNDRangeKernel(b.queue, ck.kernel, 1, nil, &globalSize, nil, 0, nil, nil) != C.CL_SUCCESS {
		return nil, fmt.Errorf("gpuexec: clEnqueueNDRangeKernel failed")
	}

	out := make([]byte, outSize)
	if C.clEnqueueReadBuffer(b.queue, outBuf, C.CL_TRUE, 0, outSize, unsafe.Pointer(&out[0]), 0, nil, nil) != C.CL_SUCCESS {
		return nil, fmt.Errorf("gpuexec: clEnqueueReadBuffer failed")
	}
	return out, nil
}
