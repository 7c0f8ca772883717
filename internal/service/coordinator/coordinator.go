package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/oshokin/catpoint/internal/detector"
	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
	repo "github.com/oshokin/catpoint/internal/repository/security"
)

// CatConfidenceThreshold is the confidence, in percent, required from the detector.
const CatConfidenceThreshold float32 = 50

// ErrSensorNotFound is returned when an operation refers to a sensor the store does not know.
var ErrSensorNotFound = repo.ErrSensorNotFound

// Coordinator owns the alarm decision rules.
type Coordinator struct {
	// repo is the source of truth for statuses and sensors.
	repo repo.Repository
	// detector interprets camera frames.
	detector detector.Detector
	// catDetected is the result of the most recent camera frame.
	catDetected bool
	// mu serializes every decision from state read to notification.
	mu sync.Mutex

	// listeners is the set of registered observers.
	listeners map[StatusListener]struct{}
	// listenersMu protects listeners.
	listenersMu sync.RWMutex
}

// New creates a coordinator over the given store and detector.
func New(repository repo.Repository, catDetector detector.Detector) *Coordinator {
	return &Coordinator{
		repo:      repository,
		detector:  catDetector,
		listeners: make(map[StatusListener]struct{}),
	}
}

// evaluation is the state a rule reads before it writes anything.
type evaluation struct {
	arming  domain.ArmingStatus
	alarm   domain.AlarmStatus
	sensors []*domain.Sensor
}

// find returns the evaluated copy of the sensor with the same identity.
func (e *evaluation) find(sensor *domain.Sensor) *domain.Sensor {
	for _, s := range e.sensors {
		if s.Equal(sensor) {
			return s
		}
	}

	return nil
}

// allInactiveExcept reports whether every sensor other than skip is inactive.
// A nil skip checks all sensors.
func (e *evaluation) allInactiveExcept(skip *domain.Sensor) bool {
	for _, s := range e.sensors {
		if s.Active && !s.Equal(skip) {
			return false
		}
	}

	return true
}

// load reads everything a rule may need.
func (c *Coordinator) load(ctx context.Context) (*evaluation, error) {
	arming, err := c.repo.ArmingStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("read arming status: %w", err)
	}

	alarm, err := c.repo.AlarmStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("read alarm status: %w", err)
	}

	sensors, err := c.repo.Sensors(ctx)
	if err != nil {
		return nil, fmt.Errorf("read sensors: %w", err)
	}

	domain.SortSensors(sensors)

	return &evaluation{
		arming:  arming,
		alarm:   alarm,
		sensors: sensors,
	}, nil
}

// SetArmingStatus changes the arming mode.
//
// Disarming clears any alarm. Arming raises a full alarm when the last frame
// showed a cat and resets every active sensor. Listeners always receive a
// sensor status refresh.
func (c *Coordinator) SetArmingStatus(ctx context.Context, status domain.ArmingStatus) error {
	ctx = logger.WithName(ctx, "coordinator")

	c.mu.Lock()
	defer c.mu.Unlock()

	if status == domain.Disarmed {
		if err := c.setAlarmStatus(ctx, domain.NoAlarm); err != nil {
			return err
		}
	} else if status.IsArmed() {
		if err := c.arm(ctx); err != nil {
			return err
		}
	}

	if err := c.repo.SetArmingStatus(ctx, status); err != nil {
		return fmt.Errorf("persist arming status: %w", err)
	}

	logger.InfoKV(ctx, "Arming status changed", "arming_status", status)

	c.notifySensorStatusChanged(ctx)

	return nil
}

// arm applies the arming rules. Sensor rules run against the arming status
// that was in effect before this call.
func (c *Coordinator) arm(ctx context.Context) error {
	state, err := c.load(ctx)
	if err != nil {
		return err
	}

	// A cat on camera escalates to a full alarm, which no sensor reset below can lower.
	raise := c.catDetected
	if raise {
		state.alarm = domain.Alarm
	}

	for _, sensor := range state.sensors {
		if !sensor.Active {
			continue
		}

		if err = c.applySensorChange(ctx, state, sensor, false); err != nil {
			return err
		}
	}

	if raise {
		return c.setAlarmStatus(ctx, domain.Alarm)
	}

	return nil
}

// ChangeSensorActivationStatus sets the active flag of a stored sensor.
// Only an actual flag transition runs an alarm rule; the sensor is persisted either way.
func (c *Coordinator) ChangeSensorActivationStatus(ctx context.Context, sensor *domain.Sensor, active bool) error {
	if sensor == nil {
		return repo.ErrSensorRequired
	}

	ctx = logger.WithKV(logger.WithName(ctx, "coordinator"), "sensor_id", sensor.ID)

	c.mu.Lock()
	defer c.mu.Unlock()

	state, err := c.load(ctx)
	if err != nil {
		return err
	}

	stored := state.find(sensor)
	if stored == nil {
		return fmt.Errorf("change activation of %s: %w", sensor.ID, ErrSensorNotFound)
	}

	return c.applySensorChange(ctx, state, stored, active)
}

// applySensorChange is the single sensor state transition shared by the
// single-sensor and the arming paths. stored must belong to state.sensors.
func (c *Coordinator) applySensorChange(
	ctx context.Context,
	state *evaluation,
	stored *domain.Sensor,
	active bool,
) error {
	var (
		wasActive = stored.Active
		next      = state.alarm
	)

	switch {
	case !wasActive && active:
		next = c.sensorActivated(state)
	case wasActive && !active:
		next = c.sensorDeactivated(state, stored)
	}

	stored.Active = active

	if err := c.repo.UpdateSensor(ctx, stored); err != nil {
		stored.Active = wasActive

		return fmt.Errorf("persist sensor %s: %w", stored.ID, err)
	}

	if wasActive != active {
		logger.DebugKV(ctx, "Sensor activation changed", "sensor", stored.Name, "active", active)
	}

	if next == state.alarm {
		return nil
	}

	if err := c.setAlarmStatus(ctx, next); err != nil {
		return err
	}

	state.alarm = next

	return nil
}

// sensorActivated escalates the alarm by one step while armed.
func (c *Coordinator) sensorActivated(state *evaluation) domain.AlarmStatus {
	if state.arming == domain.Disarmed {
		return state.alarm
	}

	return state.alarm.Escalate()
}

// sensorDeactivated clears a pending alarm once the last active sensor goes quiet.
// A full alarm is never lowered by sensors.
func (c *Coordinator) sensorDeactivated(state *evaluation, sensor *domain.Sensor) domain.AlarmStatus {
	if state.arming == domain.Disarmed {
		return state.alarm
	}

	if state.alarm == domain.PendingAlarm && state.allInactiveExcept(sensor) {
		return domain.NoAlarm
	}

	return state.alarm
}

// ProcessImage runs cat detection on a camera frame and applies the camera rules.
func (c *Coordinator) ProcessImage(ctx context.Context, frame []byte) error {
	ctx = logger.WithName(ctx, "coordinator")

	c.mu.Lock()
	defer c.mu.Unlock()

	catDetected, err := c.detector.ContainsCat(ctx, frame, CatConfidenceThreshold)
	if err != nil {
		return fmt.Errorf("detect cat: %w", err)
	}

	state, err := c.load(ctx)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Camera frame processed", "cat_detected", catDetected, "frame_size", len(frame))

	switch {
	case catDetected && state.arming == domain.ArmedHome:
		err = c.setAlarmStatus(ctx, domain.Alarm)
	case !catDetected && state.allInactiveExcept(nil):
		err = c.setAlarmStatus(ctx, domain.NoAlarm)
	}

	if err != nil {
		return err
	}

	c.catDetected = catDetected
	c.notifyCatDetected(ctx, catDetected)

	return nil
}

// SetAlarmStatus writes the alarm status and notifies every listener.
func (c *Coordinator) SetAlarmStatus(ctx context.Context, status domain.AlarmStatus) error {
	ctx = logger.WithName(ctx, "coordinator")

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.setAlarmStatus(ctx, status)
}

// setAlarmStatus is the only path that changes the alarm status. Callers hold mu.
func (c *Coordinator) setAlarmStatus(ctx context.Context, status domain.AlarmStatus) error {
	if err := c.repo.SetAlarmStatus(ctx, status); err != nil {
		return fmt.Errorf("persist alarm status: %w", err)
	}

	logger.InfoKV(ctx, "Alarm status changed", "alarm_status", status)

	c.notifyAlarmStatusChanged(ctx, status)

	return nil
}

// AlarmStatus returns the stored alarm status.
func (c *Coordinator) AlarmStatus(ctx context.Context) (domain.AlarmStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.repo.AlarmStatus(ctx)
}

// ArmingStatus returns the stored arming status.
func (c *Coordinator) ArmingStatus(ctx context.Context) (domain.ArmingStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.repo.ArmingStatus(ctx)
}

// CatDetected returns the result of the most recent camera frame.
func (c *Coordinator) CatDetected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.catDetected
}

// Sensors returns all sensors sorted by name.
func (c *Coordinator) Sensors(ctx context.Context) ([]*domain.Sensor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sensors, err := c.repo.Sensors(ctx)
	if err != nil {
		return nil, fmt.Errorf("read sensors: %w", err)
	}

	domain.SortSensors(sensors)

	return sensors, nil
}

// Sensor returns the stored sensor with the given identifier.
func (c *Coordinator) Sensor(ctx context.Context, id string) (*domain.Sensor, error) {
	sensors, err := c.Sensors(ctx)
	if err != nil {
		return nil, err
	}

	for _, sensor := range sensors {
		if sensor.ID == id {
			return sensor, nil
		}
	}

	return nil, fmt.Errorf("sensor %s: %w", id, ErrSensorNotFound)
}

// AddSensor stores a new sensor and sends a sensor status refresh.
// Adding a sensor runs no alarm rule, even if it is already active.
func (c *Coordinator) AddSensor(ctx context.Context, sensor *domain.Sensor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.repo.AddSensor(ctx, sensor); err != nil {
		return fmt.Errorf("add sensor: %w", err)
	}

	c.notifySensorStatusChanged(ctx)

	return nil
}

// RemoveSensor deletes a sensor and sends a sensor status refresh.
// Removing an active sensor runs no alarm rule.
func (c *Coordinator) RemoveSensor(ctx context.Context, sensor *domain.Sensor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.repo.RemoveSensor(ctx, sensor); err != nil {
		if errors.Is(err, repo.ErrSensorNotFound) {
			return fmt.Errorf("remove sensor %s: %w", sensor.ID, ErrSensorNotFound)
		}

		return fmt.Errorf("remove sensor: %w", err)
	}

	c.notifySensorStatusChanged(ctx)

	return nil
}

// Snapshot returns a consistent view of the whole system state.
func (c *Coordinator) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.Snapshot{
		ArmingStatus: state.arming,
		AlarmStatus:  state.alarm,
		CatDetected:  c.catDetected,
		Sensors:      state.sensors,
	}, nil
}
