package detector

import (
	"context"
	"math/rand/v2"
	"sync"
)

// Detector reports whether a camera frame shows a cat.
type Detector interface {
	ContainsCat(ctx context.Context, frame []byte, confidenceThreshold float32) (bool, error)
}

// RandomDetector guesses. It is the stand-in backend for development setups
// without an image recognition service.
type RandomDetector struct {
	// rnd is the random source.
	rnd *rand.Rand
	// mu protects rnd, which is not safe for concurrent use.
	mu sync.Mutex
}

// NewRandomDetector creates a detector backed by the given source.
// A nil source uses a randomly seeded PCG generator.
func NewRandomDetector(src rand.Source) *RandomDetector {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}

	return &RandomDetector{
		rnd: rand.New(src), //nolint:gosec // Not used for security.
	}
}

// ContainsCat returns a coin flip regardless of the frame and threshold.
func (d *RandomDetector) ContainsCat(context.Context, []byte, float32) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.rnd.IntN(2) == 1, nil
}

// StaticDetector always gives the same answer.
type StaticDetector struct {
	// CatPresent is returned for every frame.
	CatPresent bool
	// Err, if set, is returned instead of an answer.
	Err error
}

// ContainsCat returns the configured answer.
func (d *StaticDetector) ContainsCat(context.Context, []byte, float32) (bool, error) {
	if d.Err != nil {
		return false, d.Err
	}

	return d.CatPresent, nil
}
