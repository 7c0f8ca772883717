//go:build linux

package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// edgeBuffer is the capacity of the edge channel.
const edgeBuffer = 32

// RealSource watches lines of a GPIO character device.
type RealSource struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
	edges chan Edge
	done  chan struct{}
	once  sync.Once
}

// NewRealSource requests the lines as inputs with edge detection and emits
// their current levels first, so sensors start in sync with the hardware.
func NewRealSource(chipName string, offsets []int, debounce time.Duration) (*RealSource, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	s := &RealSource{
		chip:  chip,
		edges: make(chan Edge, edgeBuffer+len(offsets)),
		done:  make(chan struct{}),
	}

	options := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(s.handle),
	}
	if debounce > 0 {
		options = append(options, gpiocdev.WithDebounce(debounce))
	}

	lines, err := chip.RequestLines(offsets, options...)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request lines %v: %w", offsets, err)
	}

	s.lines = lines

	values := make([]int, len(offsets))
	if err = lines.Values(values); err != nil {
		s.Close()
		return nil, fmt.Errorf("read initial levels: %w", err)
	}

	for i, offset := range offsets {
		s.edges <- Edge{Line: offset, High: values[i] == 1}
	}

	return s, nil
}

// handle runs on the gpiocdev event goroutine.
func (s *RealSource) handle(evt gpiocdev.LineEvent) {
	edge := Edge{
		Line: evt.Offset,
		High: evt.Type == gpiocdev.LineEventRisingEdge,
	}

	select {
	case s.edges <- edge:
	case <-s.done:
	}
}

// Edges returns the channel of level changes.
func (s *RealSource) Edges() <-chan Edge {
	return s.edges
}

// Close releases the lines and the chip.
func (s *RealSource) Close() error {
	var errs []error

	s.once.Do(func() {
		close(s.done)

		if s.lines != nil {
			if err := s.lines.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close lines: %w", err))
			}
		}

		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}

		close(s.edges)
	})

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}

	return nil
}
