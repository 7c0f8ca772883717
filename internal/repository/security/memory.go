package security

import (
	"context"
	"sync"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// MemoryRepository keeps the state in process memory.
// Returned sensors are copies; callers persist changes with UpdateSensor.
type MemoryRepository struct {
	// doc is the current state.
	doc *document
	// mu protects concurrent access to doc.
	mu sync.RWMutex
}

// NewMemoryRepository creates an empty, disarmed repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		doc: new(document),
	}
}

// ArmingStatus returns the stored arming status.
func (r *MemoryRepository) ArmingStatus(context.Context) (domain.ArmingStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.doc.ArmingStatus, nil
}

// SetArmingStatus stores the arming status.
func (r *MemoryRepository) SetArmingStatus(_ context.Context, status domain.ArmingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.doc.ArmingStatus = status

	return nil
}

// AlarmStatus returns the stored alarm status.
func (r *MemoryRepository) AlarmStatus(context.Context) (domain.AlarmStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.doc.AlarmStatus, nil
}

// SetAlarmStatus stores the alarm status.
func (r *MemoryRepository) SetAlarmStatus(_ context.Context, status domain.AlarmStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.doc.AlarmStatus = status

	return nil
}

// Sensors returns copies of all stored sensors.
func (r *MemoryRepository) Sensors(context.Context) ([]*domain.Sensor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return domain.CloneSensors(r.doc.Sensors), nil
}

// AddSensor stores a sensor. Adding a sensor that is already present replaces it.
func (r *MemoryRepository) AddSensor(_ context.Context, sensor *domain.Sensor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.doc.addSensor(sensor)
}

// RemoveSensor deletes a sensor.
func (r *MemoryRepository) RemoveSensor(_ context.Context, sensor *domain.Sensor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.doc.removeSensor(sensor)
}

// UpdateSensor overwrites a stored sensor.
func (r *MemoryRepository) UpdateSensor(_ context.Context, sensor *domain.Sensor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.doc.updateSensor(sensor)
}
