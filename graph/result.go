package graph

// DeviceBuffer is satisfied by gpuexec's device-resident buffer type. It is
// declared here, not imported, so that graph stays leaf-level and both
// cpuexec/gpuexec and memory can depend on graph without a cycle.
type DeviceBuffer interface {
	// Bytes returns the number of bytes backing the device allocation.
	Bytes() int
	// Release returns the buffer to its owning backend's pool/allocator.
	Release()
}

// Result is the materialized output of an executed Node (spec.md §4.5).
// A GPU-produced Result may have Host == nil until synced; a CPU-produced
// Result always has Host populated and Device populated lazily.
type Result struct {
	Host       []byte
	Device     DeviceBuffer
	NumEntries uint64
}

// HostResident reports whether the result can be read without a device sync.
func (r *Result) HostResident() bool {
	return r != nil && r.Host != nil
}
