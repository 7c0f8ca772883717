package coordinator

import (
	"context"
	"maps"
	"slices"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// StatusListener observes the coordinator.
//
// Notification is synchronous and best-effort: listeners run while the
// coordinator holds its decision lock, so they must return quickly, must not
// call back into the coordinator and handle their own failures. Register
// listeners by pointer so that registration is idempotent.
type StatusListener interface {
	// OnAlarmStatusChanged is called after every alarm status write.
	OnAlarmStatusChanged(ctx context.Context, status domain.AlarmStatus)
	// OnCatDetected is called after every processed camera frame.
	OnCatDetected(ctx context.Context, catDetected bool)
	// OnSensorStatusChanged is a refresh signal without payload.
	OnSensorStatusChanged(ctx context.Context)
}

// AddStatusListener registers a listener. Registering the same listener twice has no effect.
func (c *Coordinator) AddStatusListener(listener StatusListener) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()

	c.listeners[listener] = struct{}{}
}

// RemoveStatusListener unregisters a listener. Unknown listeners are ignored.
func (c *Coordinator) RemoveStatusListener(listener StatusListener) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()

	delete(c.listeners, listener)
}

// snapshotListeners returns the registered listeners so that notification
// never iterates the live set.
func (c *Coordinator) snapshotListeners() []StatusListener {
	c.listenersMu.RLock()
	defer c.listenersMu.RUnlock()

	return slices.Collect(maps.Keys(c.listeners))
}

func (c *Coordinator) notifyAlarmStatusChanged(ctx context.Context, status domain.AlarmStatus) {
	for _, listener := range c.snapshotListeners() {
		listener.OnAlarmStatusChanged(ctx, status)
	}
}

func (c *Coordinator) notifyCatDetected(ctx context.Context, catDetected bool) {
	for _, listener := range c.snapshotListeners() {
		listener.OnCatDetected(ctx, catDetected)
	}
}

func (c *Coordinator) notifySensorStatusChanged(ctx context.Context) {
	for _, listener := range c.snapshotListeners() {
		listener.OnSensorStatusChanged(ctx)
	}
}
