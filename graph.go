package dataflow

import (
	"github.com/joeycumines/logiface"
)

// Operator is the single method every dataflow node implements: drain
// currently-enqueued input messages, update internal state, and enqueue
// output messages. Run must always be safe to call again; it is never
// invoked concurrently with itself.
type Operator interface {
	Run()
}

// KV is the record shape Join/Reduce/Count/Distinct operate over: a stream
// of KV[K, V] is treated as a multiset of (key, value) pairs keyed by K.
type KV[K comparable, V comparable] struct {
	Key   K
	Value V
}

// Graph owns every Edge and Operator built through the combinator
// functions in this package (NewInput, MapStream, Filter, Negate, Concat, Join,
// Reduce, Count, Distinct, Consolidate, Debug, Iterate). Scheduling
// ownership is exclusive: operators and arrangements created for one Graph
// must never be wired into another (doing so panics with *CrossGraphError).
//
// A Graph is built by calling combinators, then frozen with Finalize; only
// Step may be called afterward.
type Graph struct {
	id         int
	operators  []Operator
	finalized  bool
	opts       *graphOptions
	metrics    *GraphMetrics
	nextOpName map[string]int

	// frontierStack holds the minimal frontier of each currently-open
	// scope, innermost last. Every edge and operator created while a scope
	// is open starts from its frontier; Iterate pushes the extended
	// frontier for the body and pops it on return.
	frontierStack []Antichain
}

var nextGraphID = newIDAllocator()

// idAllocator hands out graph IDs only; every other identifier (operator
// names, edge indices) is allocated by the owning Graph itself, never from
// a shared global (see DESIGN.md).
type idAllocator struct{ n int }

func newIDAllocator() *idAllocator { return &idAllocator{} }

func (a *idAllocator) next() int {
	a.n++
	return a.n
}

// NewGraph constructs an empty, unfinalized Graph.
func NewGraph(opts ...GraphOption) (*Graph, error) {
	cfg, err := resolveGraphOptions(opts)
	if err != nil {
		return nil, err
	}
	g := &Graph{
		id:         nextGraphID.next(),
		opts:       cfg,
		nextOpName: make(map[string]int),
	}
	g.frontierStack = []Antichain{NewAntichain(zeroVersion(cfg.rootDimension))}
	if cfg.metricsEnabled {
		g.metrics = newGraphMetrics()
	}
	return g, nil
}

func zeroVersion(dim int) Version {
	return NewVersion(make([]int64, dim)...)
}

// currentFrontier returns the minimal frontier of the innermost open scope.
func (g *Graph) currentFrontier() Antichain {
	return g.frontierStack[len(g.frontierStack)-1]
}

// startScope opens a nested iteration scope: the current frontier, extended
// by one zero coordinate, becomes the initial frontier for everything built
// until the matching endScope.
func (g *Graph) startScope() {
	g.frontierStack = append(g.frontierStack, g.currentFrontier().Extend())
}

// endScope closes the innermost scope opened by startScope.
func (g *Graph) endScope() {
	g.frontierStack = g.frontierStack[:len(g.frontierStack)-1]
}

// newEdge constructs an Edge for g starting at the current scope frontier.
func newEdge[T comparable](g *Graph) *Edge[T] {
	return NewEdge[T](g.id, g.currentFrontier())
}

// Logger returns the Graph's configured structured logger (the package's
// no-op logger if WithLogger was not supplied).
func (g *Graph) Logger() *logiface.Logger[logiface.Event] {
	return g.opts.logger
}

// Metrics returns a snapshot of the Graph's scheduler step metrics, or
// the zero Metrics value if WithMetrics(true) was not supplied.
func (g *Graph) Metrics() Metrics {
	if g.metrics == nil {
		return Metrics{}
	}
	return g.metrics.snapshot()
}

// register appends op to the Graph's operator list in declaration order
// and returns a stable, human-readable name for logging/metrics (e.g.
// "map#3"), allocated per-graph rather than from any shared global.
func (g *Graph) register(kind string, op Operator) string {
	if g.finalized {
		panicWith(ErrAlreadyFinalized)
	}
	g.operators = append(g.operators, op)
	g.nextOpName[kind]++
	return kind + "#" + itoa(g.nextOpName[kind])
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Finalize snapshots the Graph's edges/operators into a runnable state; no
// further combinators may be applied afterward. Calling Finalize twice
// returns ErrAlreadyFinalized.
func (g *Graph) Finalize() error {
	if g.finalized {
		return ErrAlreadyFinalized
	}
	g.finalized = true
	return nil
}

// Step invokes every operator's Run method once, in registration order.
// Callers typically loop Step until ProbeFrontierLessThan is satisfied on
// every output edge they care about, or for a fixed number of rounds.
func (g *Graph) Step() {
	start := g.metrics.startStep()
	for _, op := range g.operators {
		op.Run()
	}
	g.metrics.endStep(start)
}

// requireSameGraph panics with *CrossGraphError if a and b were not built
// by the same Graph.
func requireSameGraph(op string, a, b int) {
	if a != b {
		panicWith(&CrossGraphError{Op: op})
	}
}

// Stream is a typed handle to one Edge's reader-of-record: the output of
// whatever operator produced it (or an input's writer edge). Combinators
// consume a Stream and return a new one wired to a freshly registered
// operator.
type Stream[T comparable] struct {
	graph *Graph
	edge  *Edge[T]
}

// Graph returns the Graph that owns s.
func (s Stream[T]) Graph() *Graph { return s.graph }

// NewReader registers and returns a new independent reader over s's edge;
// used by combinators (and by Output) to consume a Stream without
// interfering with other consumers of the same Stream value.
func (s Stream[T]) NewReader() *Reader[T] {
	return s.edge.NewReader()
}

// InputWriter is the producer side of a stream created by NewInput.
type InputWriter[T comparable] struct {
	edge *Edge[T]
}

// SendData enqueues a Data message on the input. See Edge.SendData.
func (w *InputWriter[T]) SendData(version Version, data MultiSet[T]) error {
	return w.edge.SendData(version, data)
}

// SendFrontier enqueues a Frontier message on the input. See
// Edge.SendFrontier.
func (w *InputWriter[T]) SendFrontier(f Antichain) error {
	return w.edge.SendFrontier(f)
}

// NewInput creates a new source Stream and its producer-side InputWriter.
// The writer is the only way to push data into the graph at this stream;
// the graph itself never originates data on an input edge.
func NewInput[T comparable](g *Graph) (Stream[T], *InputWriter[T]) {
	if g.finalized {
		panicWith(ErrAlreadyFinalized)
	}
	e := newEdge[T](g)
	return Stream[T]{graph: g, edge: e}, &InputWriter[T]{edge: e}
}

// Output is a sink that receives every Data and Frontier message flowing
// through s, in order, on every Graph.Step call where messages were
// pending. cb must not mutate graph state reentrantly.
func Output[T comparable](s Stream[T], cb func(Message[T])) {
	r := s.NewReader()
	op := &outputOperator[T]{reader: r, cb: cb}
	s.graph.register("output", op)
}

type outputOperator[T comparable] struct {
	reader *Reader[T]
	cb     func(Message[T])
}

func (op *outputOperator[T]) Run() {
	for _, msg := range op.reader.Drain() {
		op.cb(msg)
	}
}

// ProbeFrontierLessThan reports whether s's frontier has not yet advanced
// to f; see Reader.ProbeFrontierLessThan. Probing reads the edge's writer
// frontier directly and never consumes messages another consumer needs.
func ProbeFrontierLessThan[T comparable](s Stream[T], f Antichain) bool {
	return !f.LessEqual(s.edge.writerF)
}
