//go:build !linux

package gpio

import (
	"errors"
	"time"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealSource is not available on non-Linux platforms.
type RealSource struct{}

// NewRealSource returns an error on non-Linux platforms.
func NewRealSource(string, []int, time.Duration) (*RealSource, error) {
	return nil, errUnsupported
}

// Edges returns nil on non-Linux platforms.
func (s *RealSource) Edges() <-chan Edge {
	return nil
}

// Close is a no-op on non-Linux platforms.
func (s *RealSource) Close() error {
	return nil
}
