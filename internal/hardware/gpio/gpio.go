// Package gpio drives sensors from GPIO input lines.
//
// Door and window contacts or PIR motion detectors wired to a Linux GPIO chip
// produce level changes. A Source turns those into Edges and the Watcher maps
// every edge to a sensor activation change on the coordinator. The real source
// uses the Linux GPIO character device; tests feed edges through a channel.
package gpio

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/catpoint/internal/config"
	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
)

// Edge is the level of a line after a change.
type Edge struct {
	// Line is the line offset on the chip.
	Line int
	// High is true when the line reads as logical 1.
	High bool
}

// Source delivers line level changes.
type Source interface {
	// Edges returns the channel of level changes. It is closed when the source is closed.
	Edges() <-chan Edge

	// Close releases GPIO resources.
	Close() error
}

// Activator is the part of the coordinator driven by hardware.
type Activator interface {
	Sensor(ctx context.Context, id string) (*domain.Sensor, error)
	ChangeSensorActivationStatus(ctx context.Context, sensor *domain.Sensor, active bool) error
}

var (
	// ErrNoBindings is returned when a watcher is created without any line bindings.
	ErrNoBindings = errors.New("no gpio bindings configured")
	// ErrDuplicateLine is returned when one line is bound to more than one sensor.
	ErrDuplicateLine = errors.New("gpio line bound twice")
)

// Watcher applies line levels to the bound sensors.
type Watcher struct {
	// activator receives sensor changes.
	activator Activator
	// bindings maps line offsets to sensors.
	bindings map[int]config.GPIOBinding
}

// NewWatcher creates a watcher for the given bindings.
func NewWatcher(activator Activator, bindings []config.GPIOBinding) (*Watcher, error) {
	if len(bindings) == 0 {
		return nil, ErrNoBindings
	}

	w := &Watcher{
		activator: activator,
		bindings:  make(map[int]config.GPIOBinding, len(bindings)),
	}

	for _, binding := range bindings {
		if _, ok := w.bindings[binding.Line]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateLine, binding.Line)
		}

		w.bindings[binding.Line] = binding
	}

	return w, nil
}

// Lines returns the bound line offsets.
func (w *Watcher) Lines() []int {
	lines := make([]int, 0, len(w.bindings))
	for line := range w.bindings {
		lines = append(lines, line)
	}

	return lines
}

// Run consumes edges until ctx is canceled or the source is exhausted.
// Failures to apply a single edge are logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context, source Source) {
	ctx = logger.WithName(ctx, "gpio")

	for {
		select {
		case <-ctx.Done():
			return
		case edge, ok := <-source.Edges():
			if !ok {
				logger.Info(ctx, "GPIO source closed")
				return
			}

			if err := w.apply(ctx, edge); err != nil {
				logger.ErrorKV(ctx, "Failed to apply GPIO edge", "line", edge.Line, "error", err)
			}
		}
	}
}

// apply translates one edge into a sensor activation change.
func (w *Watcher) apply(ctx context.Context, edge Edge) error {
	binding, ok := w.bindings[edge.Line]
	if !ok {
		logger.DebugKV(ctx, "Edge on unbound line", "line", edge.Line)
		return nil
	}

	sensor, err := w.activator.Sensor(ctx, binding.SensorID)
	if err != nil {
		return err
	}

	active := edge.High != binding.ActiveLow

	return w.activator.ChangeSensorActivationStatus(ctx, sensor, active)
}
