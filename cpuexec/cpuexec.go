// Package cpuexec is Flint's CPU executor: a fixed-size worker pool that
// walks a node's dependency subgraph and materializes every Result it is
// missing, dispatching a node as soon as its last predecessor completes.
//
// This generalizes the teacher's runtime.Engine worker pool from a
// level-numbered TaskGroup scheduler to a per-node indegree countdown:
// every predecessor edge decrements an atomic counter, and a node is
// handed to the pool the instant its counter reaches zero. That sidesteps
// the ambiguity the teacher's own comments flagged around what
// model.Node.Topo represents — here the dependency direction is simply
// Node.Preds, with no separate adjacency table to keep in sync.
package cpuexec

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Frobeniusnorm/Flint-sub000/ferr"
	"github.com/Frobeniusnorm/Flint-sub000/graph"
	"github.com/Frobeniusnorm/Flint-sub000/registry"
)

// scoreThreshold and gpuThreshold are the dispatch cutoffs: a node scoring
// below scoreThreshold always runs as one inline kernel call; at or above
// it, an Elementwise kernel's output range is split across the pool's
// workers. At or above gpuThreshold, an attached Device gets first refusal.
const (
	scoreThreshold = 512
	gpuThreshold   = 1024
)

// Device lets a GPU backend claim a node instead of running it on the CPU
// pool. cpuexec never imports gpuexec; wiring a Device in is the
// frontend's job so the dependency graph between packages stays acyclic.
type Device interface {
	// TryExecute attempts n on the device. ok is false when the device
	// declines (unsupported op, backend unavailable), in which case the
	// executor falls back to the CPU kernel.
	TryExecute(n *graph.Node, inputs [][]byte) (out []byte, ok bool, err error)
}

// Executor runs a node's subgraph on a fixed-size worker pool.
type Executor struct {
	Workers int
	Device  Device

	// Logger receives one debug-level record per Execute call, tagged
	// with an execution ID, for correlating CPU/GPU hand-off decisions
	// across a run. Nil disables logging.
	Logger *slog.Logger
}

// New returns an Executor sized to the host's CPU count.
func New() *Executor {
	return &Executor{Workers: runtime.NumCPU()}
}

// ExecutionStats summarizes one Execute call, returned alongside the
// result so a caller can log or aggregate it without re-deriving the
// node count or timing itself.
type ExecutionStats struct {
	ExecutionID  string
	NodesRun     int
	NodesReused  int
	Elapsed      time.Duration
	usedGPUCount int32
}

// GPUNodeCount reports how many nodes this execution handed off to an
// attached Device rather than running on the CPU pool.
func (s ExecutionStats) GPUNodeCount() int { return int(s.usedGPUCount) }

// Execute materializes root and every predecessor still missing a Result,
// returning root's Result once done. Nodes that already carry a Result
// are skipped and their buffers reused as-is (spec memoization rule).
func (e *Executor) Execute(root *graph.Node) (*graph.Result, error) {
	res, _, err := e.ExecuteStats(root)
	return res, err
}

// ExecuteStats is Execute plus an ExecutionStats summary, stamped with a
// fresh execution ID and logged at debug level if a Logger is set.
func (e *Executor) ExecuteStats(root *graph.Node) (*graph.Result, ExecutionStats, error) {
	stats := ExecutionStats{ExecutionID: uuid.NewString()}
	start := time.Now()

	workers := e.Workers
	if workers <= 0 {
		workers = 1
	}

	order := graph.TopoOrder(root)
	needsRun := make(map[*graph.Node]bool, len(order))
	pending := make([]*graph.Node, 0, len(order))
	for _, n := range order {
		if n.Result == nil {
			needsRun[n] = true
			pending = append(pending, n)
		}
	}
	stats.NodesRun = len(pending)
	stats.NodesReused = len(order) - len(pending)
	if len(pending) == 0 {
		stats.Elapsed = time.Since(start)
		e.logStats(stats)
		return root.Result, stats, nil
	}

	indegree := make(map[*graph.Node]*int32, len(pending))
	consumers := make(map[*graph.Node][]*graph.Node, len(pending))
	for _, n := range pending {
		var deg int32
		for i := 0; i < n.Arity; i++ {
			p := n.Preds[i]
			if needsRun[p] {
				deg++
				consumers[p] = append(consumers[p], n)
			}
		}
		indegree[n] = &deg
	}

	var (
		mu       sync.Mutex
		firstErr error
		wg       sync.WaitGroup
		remain   = int32(len(pending))
	)
	sem := make(chan struct{}, workers)

	var dispatch func(n *graph.Node)
	dispatch = func(n *graph.Node) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			usedGPU, err := e.runNode(n)
			<-sem
			if usedGPU {
				atomic.AddInt32(&stats.usedGPUCount, 1)
			}
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
			if atomic.AddInt32(&remain, -1) == 0 {
				return
			}
			for _, c := range consumers[n] {
				if atomic.AddInt32(indegree[c], -1) == 0 {
					dispatch(c)
				}
			}
		}()
	}

	for _, n := range pending {
		if *indegree[n] == 0 {
			dispatch(n)
		}
	}
	wg.Wait()
	stats.Elapsed = time.Since(start)
	e.logStats(stats)

	if firstErr != nil {
		return nil, stats, firstErr
	}
	return root.Result, stats, nil
}

func (e *Executor) logStats(stats ExecutionStats) {
	if e.Logger == nil {
		return
	}
	e.Logger.Debug("cpuexec execution complete",
		"execution_id", stats.ExecutionID,
		"nodes_run", stats.NodesRun,
		"nodes_reused", stats.NodesReused,
		"gpu_nodes", stats.GPUNodeCount(),
		"elapsed", stats.Elapsed)
}

func isReshapeKind(k graph.OpKind) bool {
	return k == graph.OpFlatten || k == graph.OpFlattenDim || k == graph.OpReshape
}

// runNode materializes n's Result from its already-materialized
// predecessors. usedGPU reports whether an attached Device claimed it.
func (e *Executor) runNode(n *graph.Node) (usedGPU bool, err error) {
	entry := registry.Lookup(n.Op.Kind)
	if entry == nil {
		return false, ferr.New(ferr.InternalError, "cpuexec: no registry entry for %s", n.Op.Kind)
	}

	if n.Arity == 1 && isReshapeKind(n.Op.Kind) {
		n.Result = &graph.Result{Host: n.Preds[0].Result.Host, NumEntries: n.Op.Shape.NumElements()}
		return false, nil
	}

	total := n.Op.Shape.NumElements()
	inputs := make([][]byte, n.Arity)
	for i := 0; i < n.Arity; i++ {
		inputs[i] = n.Preds[i].Result.Host
	}

	score := registry.Score(n, total)
	if e.Device != nil && score >= gpuThreshold {
		out, ok, err := e.Device.TryExecute(n, inputs)
		if err != nil {
			return false, err
		}
		if ok {
			n.Result = &graph.Result{Host: out, NumEntries: total}
			return true, nil
		}
	}

	out := make([]byte, total*uint64(n.Op.DType.Size()))
	if entry.Elementwise && score >= scoreThreshold && e.Workers > 1 {
		e.runChunked(entry, n, inputs, out, total)
	} else {
		entry.Kernel(n, inputs, out, 0, total)
	}

	n.Result = &graph.Result{Host: out, NumEntries: total}
	return false, nil
}

// runChunked splits a node's output range across the worker pool. Only
// Entry.Elementwise kernels are safe to call this way: their per-byte-
// range execution has no cross-element state.
func (e *Executor) runChunked(entry *registry.Entry, n *graph.Node, inputs [][]byte, out []byte, total uint64) {
	workers := uint64(e.Workers)
	if workers > total {
		workers = total
	}
	if workers == 0 {
		workers = 1
	}
	chunk := total / workers
	if chunk == 0 {
		chunk = 1
	}

	var wg sync.WaitGroup
	for from := uint64(0); from < total; from += chunk {
		size := chunk
		if from+size > total {
			size = total - from
		}
		wg.Add(1)
		go func(from, size uint64) {
			defer wg.Done()
			entry.Kernel(n, inputs, out, from, size)
		}(from, size)
	}
	wg.Wait()
}
