// Package flint is Flint's public frontend: a Tensor wrapper around
// graph.Node that exposes every operation as a typed method, runs eager
// or lazy depending on fconfig, and wires autodiff's gradient context and
// cpuexec's executor behind a small surface an application actually calls.
package flint

import (
	"log/slog"
	"os"
	"runtime"
	"sync"

	"github.com/Frobeniusnorm/Flint-sub000/autodiff"
	"github.com/Frobeniusnorm/Flint-sub000/cpuexec"
	"github.com/Frobeniusnorm/Flint-sub000/dtype"
	"github.com/Frobeniusnorm/Flint-sub000/fconfig"
	"github.com/Frobeniusnorm/Flint-sub000/gpuexec"
	"github.com/Frobeniusnorm/Flint-sub000/graph"
)

var (
	logger    *slog.Logger
	execOnce  sync.Once
	executor  *cpuexec.Executor
	eagerFlag bool
	initMu    sync.Mutex
)

// Init configures the frontend from cfg: logging level, worker count, and
// whether operations execute eagerly as they're built. Safe to call more
// than once (e.g. to change log level mid-process).
func Init(cfg *fconfig.Config) {
	initMu.Lock()
	defer initMu.Unlock()

	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if cfg.SessionID != "" {
		logger = logger.With("session", cfg.SessionID)
	}

	eagerFlag = cfg.Eager
	executor = &cpuexec.Executor{Workers: cfg.Workers, Logger: logger}
	if executor.Workers <= 0 {
		executor.Workers = runtime.NumCPU()
	}
	if cfg.Backend == fconfig.BackendGPU {
		executor.Device = gpuexec.New()
	}
	logger.Debug("flint initialized", "workers", executor.Workers, "eager", eagerFlag, "backend", cfg.Backend)
}

func ensureInit() {
	execOnce.Do(func() {
		if executor == nil {
			Init(fconfig.Current())
		}
	})
}

// Tensor wraps a graph node, exposing it as the unit application code
// builds expressions from and eventually materializes.
type Tensor struct {
	node *graph.Node
}

func wrap(n *graph.Node, err error) (*Tensor, error) {
	if err != nil {
		return nil, err
	}
	ensureInit()
	t := &Tensor{node: n}
	// Every Tensor is a frontend handle in its own right, balanced by
	// Free's Unref; newNode only ref'd n as someone else's predecessor
	// edge (or not at all, for a fresh root), never on n's own behalf.
	n.Ref()
	if eagerFlag {
		if _, execErr := executor.Execute(n); execErr != nil {
			return nil, execErr
		}
	}
	return t, nil
}

// Node exposes the underlying graph node, for callers that need to pass a
// Tensor into autodiff or cpuexec directly.
func (t *Tensor) Node() *graph.Node { return t.node }

// Shape returns the tensor's shape.
func (t *Tensor) Shape() graph.Shape { return t.node.Op.Shape }

// DType returns the tensor's element type.
func (t *Tensor) DType() dtype.Type { return t.node.Op.DType }

// Execute materializes the tensor (a no-op if eager mode already did, or
// if it was already computed) and returns its result buffer.
func (t *Tensor) Execute() (*graph.Result, error) {
	ensureInit()
	return executor.Execute(t.node)
}

// Free releases the tensor's reference, cascading to its predecessors
// once nothing else holds them.
func (t *Tensor) Free() {
	if t.node.Unref() {
		t.node.Free()
	}
}

// --- Generators -------------------------------------------------------

func Store(shape graph.Shape, t dtype.Type) (*Tensor, error) { return wrap(graph.Store(shape, t)) }

func GenRandom(shape graph.Shape, seed float64) (*Tensor, error) {
	return wrap(graph.GenRandom(shape, seed))
}

func GenConstant(shape graph.Shape, t dtype.Type, value any) (*Tensor, error) {
	return wrap(graph.GenConstant(shape, t, value))
}

func GenArange(shape graph.Shape, axis int) (*Tensor, error) {
	return wrap(graph.GenArange(shape, axis))
}

// --- Binary / unary arithmetic -----------------------------------------

func (t *Tensor) Add(o *Tensor) (*Tensor, error) { return wrap(graph.Add(t.node, o.node)) }
func (t *Tensor) Sub(o *Tensor) (*Tensor, error) { return wrap(graph.Sub(t.node, o.node)) }
func (t *Tensor) Mul(o *Tensor) (*Tensor, error) { return wrap(graph.Mul(t.node, o.node)) }
func (t *Tensor) Div(o *Tensor) (*Tensor, error) { return wrap(graph.Div(t.node, o.node)) }
func (t *Tensor) Pow(o *Tensor) (*Tensor, error) { return wrap(graph.Pow(t.node, o.node)) }
func (t *Tensor) Min(o *Tensor) (*Tensor, error) { return wrap(graph.Min(t.node, o.node)) }
func (t *Tensor) Max(o *Tensor) (*Tensor, error) { return wrap(graph.Max(t.node, o.node)) }

func (t *Tensor) Less(o *Tensor) (*Tensor, error)    { return wrap(graph.Less(t.node, o.node)) }
func (t *Tensor) Greater(o *Tensor) (*Tensor, error) { return wrap(graph.Greater(t.node, o.node)) }
func (t *Tensor) Equal(o *Tensor) (*Tensor, error)   { return wrap(graph.Equal(t.node, o.node)) }

func (t *Tensor) Neg() (*Tensor, error)  { return wrap(graph.Neg(t.node)) }
func (t *Tensor) Abs() (*Tensor, error)  { return wrap(graph.Abs(t.node)) }
func (t *Tensor) Log() (*Tensor, error)  { return wrap(graph.Log(t.node)) }
func (t *Tensor) Log2() (*Tensor, error) { return wrap(graph.Log2(t.node)) }
func (t *Tensor) Log10() (*Tensor, error) { return wrap(graph.Log10(t.node)) }
func (t *Tensor) Sin() (*Tensor, error)  { return wrap(graph.Sin(t.node)) }
func (t *Tensor) Cos() (*Tensor, error)  { return wrap(graph.Cos(t.node)) }
func (t *Tensor) Tan() (*Tensor, error)  { return wrap(graph.Tan(t.node)) }
func (t *Tensor) ASin() (*Tensor, error) { return wrap(graph.ASin(t.node)) }
func (t *Tensor) ACos() (*Tensor, error) { return wrap(graph.ACos(t.node)) }
func (t *Tensor) ATan() (*Tensor, error) { return wrap(graph.ATan(t.node)) }
func (t *Tensor) Sqrt() (*Tensor, error) { return wrap(graph.Sqrt(t.node)) }
func (t *Tensor) Exp() (*Tensor, error)  { return wrap(graph.Exp(t.node)) }
func (t *Tensor) Sign() (*Tensor, error) { return wrap(graph.Sign(t.node)) }
func (t *Tensor) Even() (*Tensor, error) { return wrap(graph.Even(t.node)) }

// --- Linear algebra / reshape family ------------------------------------

func (t *Tensor) MatMul(o *Tensor) (*Tensor, error) { return wrap(graph.MatMul(t.node, o.node)) }
func (t *Tensor) Flatten() (*Tensor, error)         { return wrap(graph.Flatten(t.node)) }
func (t *Tensor) FlattenDim(k int) (*Tensor, error) { return wrap(graph.FlattenDim(t.node, k)) }
func (t *Tensor) Reshape(newShape graph.Shape) (*Tensor, error) {
	return wrap(graph.Reshape(t.node, newShape))
}
func (t *Tensor) Conversion(to dtype.Type) (*Tensor, error) {
	return wrap(graph.Conversion(t.node, to))
}

// --- Reductions ----------------------------------------------------------

func (t *Tensor) ReduceSum(axis int) (*Tensor, error) { return wrap(graph.ReduceSum(t.node, axis)) }
func (t *Tensor) ReduceMul(axis int) (*Tensor, error) { return wrap(graph.ReduceMul(t.node, axis)) }
func (t *Tensor) ReduceMin(axis int) (*Tensor, error) { return wrap(graph.ReduceMin(t.node, axis)) }
func (t *Tensor) ReduceMax(axis int) (*Tensor, error) { return wrap(graph.ReduceMax(t.node, axis)) }

// --- Shape manipulation ----------------------------------------------------

func (t *Tensor) Slice(start, end, step []int64) (*Tensor, error) {
	return wrap(graph.Slice(t.node, start, end, step))
}
func (t *Tensor) Extend(newShape graph.Shape, insertAt, step []int64) (*Tensor, error) {
	return wrap(graph.Extend(t.node, newShape, insertAt, step))
}
func (t *Tensor) Repeat(repetitions []uint64) (*Tensor, error) {
	return wrap(graph.Repeat(t.node, repetitions))
}
func (t *Tensor) Transpose(perm []int) (*Tensor, error) { return wrap(graph.Transpose(t.node, perm)) }
func (t *Tensor) Concat(o *Tensor, axis int) (*Tensor, error) {
	return wrap(graph.Concat(t.node, o.node, axis))
}

// --- Indexing --------------------------------------------------------------

func (t *Tensor) Index(idx *Tensor) (*Tensor, error) { return wrap(graph.Index(t.node, idx.node)) }
func (t *Tensor) SetIndex(updates, idx *Tensor) (*Tensor, error) {
	return wrap(graph.SetIndex(t.node, updates.node, idx.node))
}

// --- Sliding window / pooling / convolution --------------------------------

func (t *Tensor) SlidingWindow(size, step []uint64) (*Tensor, error) {
	return wrap(graph.SlidingWindow(t.node, size, step))
}
func (t *Tensor) UnslideWindow(resultShape graph.Shape, step []uint64) (*Tensor, error) {
	return wrap(graph.UnslideWindow(t.node, resultShape, step))
}
func (t *Tensor) PoolingSum(size, step []uint64) (*Tensor, error) {
	return wrap(graph.PoolingSum(t.node, size, step))
}
func (t *Tensor) PoolingMax(size, step []uint64) (*Tensor, error) {
	return wrap(graph.PoolingMax(t.node, size, step))
}
func (t *Tensor) Convolve(kernel *Tensor, steps []uint64) (*Tensor, error) {
	return wrap(graph.Convolve(t.node, kernel.node, steps))
}

// --- Misc --------------------------------------------------------------

func (t *Tensor) Dropout(p float64, training bool, seed float64) (*Tensor, error) {
	return wrap(graph.Dropout(t.node, p, training, seed))
}

// --- Gradients -----------------------------------------------------------

// GradientContext runs fn with gradient tracking enabled; Watch any
// Tensor inside fn whose gradient will later be requested.
func GradientContext(fn func() error) error { return autodiff.Context(fn) }

// Watch marks t as a gradient root.
func (t *Tensor) Watch() { autodiff.Watch(t.node) }

// Unwatch stops tracking t as a gradient root.
func (t *Tensor) Unwatch() { autodiff.Unwatch(t.node) }

// CalculateGradient returns d(t)/d(wrt).
func (t *Tensor) CalculateGradient(wrt *Tensor) (*Tensor, error) {
	g, err := autodiff.Gradient(t.node, wrt.node)
	if err != nil {
		return nil, err
	}
	return wrap(g, nil)
}

// CalculateGradients returns d(t)/d(wrts[i]) for each wrt in wrts.
func (t *Tensor) CalculateGradients(wrts []*Tensor) ([]*Tensor, error) {
	nodes := make([]*graph.Node, len(wrts))
	for i, w := range wrts {
		nodes[i] = w.node
	}
	grads, err := autodiff.Gradients(t.node, nodes)
	if err != nil {
		return nil, err
	}
	out := make([]*Tensor, len(grads))
	for i, g := range grads {
		tn, err := wrap(g, nil)
		if err != nil {
			return nil, err
		}
		out[i] = tn
	}
	return out, nil
}
