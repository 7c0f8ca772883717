package gpio

// FakeSource is a test double fed through Push.
type FakeSource struct {
	edges  chan Edge
	closed bool
}

// NewFakeSource creates a source with room for size pending edges.
func NewFakeSource(size int) *FakeSource {
	return &FakeSource{
		edges: make(chan Edge, size),
	}
}

// Push queues an edge.
func (f *FakeSource) Push(line int, high bool) {
	f.edges <- Edge{Line: line, High: high}
}

// Edges returns the queued edges.
func (f *FakeSource) Edges() <-chan Edge {
	return f.edges
}

// Close closes the edge channel.
func (f *FakeSource) Close() error {
	if !f.closed {
		f.closed = true
		close(f.edges)
	}

	return nil
}
