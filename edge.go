package dataflow

// Message is either a Data message carrying a Version and a MultiSet delta,
// or a Frontier message carrying an Antichain. Exactly one of IsFrontier's
// associated fields is meaningful at a time: when IsFrontier is true,
// Frontier holds the new frontier and Version/Data are zero; otherwise
// Version/Data hold the batch and Frontier is the zero Antichain.
type Message[T comparable] struct {
	IsFrontier bool
	Version    Version
	Data       MultiSet[T]
	Frontier   Antichain
}

// DataMessage constructs a Data message.
func DataMessage[T comparable](version Version, data MultiSet[T]) Message[T] {
	return Message[T]{Version: version, Data: data}
}

// FrontierMessage constructs a Frontier message.
func FrontierMessage[T comparable](f Antichain) Message[T] {
	return Message[T]{IsFrontier: true, Frontier: f}
}

// Edge is a single-producer, multi-consumer FIFO queue of Messages. Each
// reader independently drains the same sequence of messages; readers do
// not interfere with one another. An Edge tracks its writer's current
// frontier (monotonically advancing), exposed to readers via
// Reader.ProbeFrontierLessThan.
//
// Edge is not safe for concurrent use: the graph is
// single-threaded and cooperative.
type Edge[T comparable] struct {
	graphID int
	writerF Antichain // last frontier sent by the writer; monotonic
	readers []*readerQueue[T]
}

type readerQueue[T comparable] struct {
	pending []Message[T]
}

// NewEdge constructs an Edge owned by graph graphID (used only to detect
// CrossGraphError when streams from different graphs are combined). The
// writer frontier starts at initial, the minimal frontier of the scope the
// edge was created in; an empty Antichain is the maximal frontier and would
// reject every subsequent send.
func NewEdge[T comparable](graphID int, initial Antichain) *Edge[T] {
	return &Edge[T]{graphID: graphID, writerF: initial}
}

// NewReader registers and returns a new independent Reader over e.
func (e *Edge[T]) NewReader() *Reader[T] {
	rq := &readerQueue[T]{}
	e.readers = append(e.readers, rq)
	return &Reader[T]{edge: e, rq: rq}
}

// SendData enqueues a Data message to every reader. It fails with
// *InvalidVersionError if the writer's current frontier is not <= version.
func (e *Edge[T]) SendData(version Version, data MultiSet[T]) error {
	if !e.writerF.LessEqualVersion(version) {
		return &InvalidVersionError{Reason: "version " + version.String() + " is behind frontier " + e.writerF.String()}
	}
	msg := DataMessage(version, data)
	for _, r := range e.readers {
		r.pending = append(r.pending, msg)
	}
	return nil
}

// SendFrontier enqueues a Frontier message to every reader and advances the
// edge's tracked writer frontier. It fails with
// *NonMonotonicFrontierError if newFrontier is not >= the previously sent
// frontier.
func (e *Edge[T]) SendFrontier(newFrontier Antichain) error {
	if !e.writerF.LessEqual(newFrontier) {
		return &NonMonotonicFrontierError{Edge: "Edge.SendFrontier", Previous: e.writerF, Next: newFrontier}
	}
	msg := FrontierMessage[T](newFrontier)
	for _, r := range e.readers {
		r.pending = append(r.pending, msg)
	}
	e.writerF = newFrontier
	return nil
}

// WriterFrontier returns the edge's last sent frontier (the scope's minimal
// frontier before any frontier has been sent).
func (e *Edge[T]) WriterFrontier() Antichain {
	return e.writerF
}

// Reader is one independent consumer handle over an Edge.
type Reader[T comparable] struct {
	edge *Edge[T]
	rq   *readerQueue[T]
}

// Drain returns and clears every message enqueued for this reader since the
// last Drain call, in FIFO order.
func (r *Reader[T]) Drain() []Message[T] {
	if len(r.rq.pending) == 0 {
		return nil
	}
	out := r.rq.pending
	r.rq.pending = nil
	return out
}

// ProbeFrontierLessThan reports whether the edge's writer frontier has not
// yet reached f, i.e. there is no guarantee every version <= some element
// of f has been observed. Because the writer frontier only ever advances,
// this reflects both drained and not-yet-drained Frontier messages
// identically; it is the mechanism external drivers use to decide when to
// stop calling Graph.Step for a given output.
func (r *Reader[T]) ProbeFrontierLessThan(f Antichain) bool {
	return !f.LessEqual(r.edge.writerF)
}
