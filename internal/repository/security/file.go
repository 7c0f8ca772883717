package security

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/catpoint/internal/config"
	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// FileRepository persists the state to a YAML file on disk.
// The file is read once on open and rewritten after every mutation.
// A failed write leaves both the file and the in-memory state unchanged.
type FileRepository struct {
	// path is the filesystem location of the YAML state file.
	path string
	// doc is the last successfully persisted state.
	doc *document
	// mu protects doc and the state file.
	mu sync.RWMutex
}

// NewFileRepository opens the state file at path.
// A missing file yields an empty, disarmed state that is created on first write.
func NewFileRepository(path string) (*FileRepository, error) {
	r := &FileRepository{
		path: filepath.Clean(path),
		doc:  new(document),
	}

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return r, nil
		}

		return nil, fmt.Errorf("read state file: %w", err)
	}

	if err = yaml.Unmarshal(contents, r.doc); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	return r, nil
}

// ArmingStatus returns the stored arming status.
func (r *FileRepository) ArmingStatus(context.Context) (domain.ArmingStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.doc.ArmingStatus, nil
}

// SetArmingStatus stores the arming status.
func (r *FileRepository) SetArmingStatus(_ context.Context, status domain.ArmingStatus) error {
	return r.mutate(func(d *document) error {
		d.ArmingStatus = status
		return nil
	})
}

// AlarmStatus returns the stored alarm status.
func (r *FileRepository) AlarmStatus(context.Context) (domain.AlarmStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.doc.AlarmStatus, nil
}

// SetAlarmStatus stores the alarm status.
func (r *FileRepository) SetAlarmStatus(_ context.Context, status domain.AlarmStatus) error {
	return r.mutate(func(d *document) error {
		d.AlarmStatus = status
		return nil
	})
}

// Sensors returns copies of all stored sensors.
func (r *FileRepository) Sensors(context.Context) ([]*domain.Sensor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return domain.CloneSensors(r.doc.Sensors), nil
}

// AddSensor stores a sensor. Adding a sensor that is already present replaces it.
func (r *FileRepository) AddSensor(_ context.Context, sensor *domain.Sensor) error {
	return r.mutate(func(d *document) error {
		return d.addSensor(sensor)
	})
}

// RemoveSensor deletes a sensor.
func (r *FileRepository) RemoveSensor(_ context.Context, sensor *domain.Sensor) error {
	return r.mutate(func(d *document) error {
		return d.removeSensor(sensor)
	})
}

// UpdateSensor overwrites a stored sensor.
func (r *FileRepository) UpdateSensor(_ context.Context, sensor *domain.Sensor) error {
	return r.mutate(func(d *document) error {
		return d.updateSensor(sensor)
	})
}

// mutate applies fn to a copy of the state, writes the copy to disk and
// only then makes it the current state.
func (r *FileRepository) mutate(fn func(d *document) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.doc.clone()
	if err := fn(next); err != nil {
		return err
	}

	data, err := yaml.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	r.doc = next

	return nil
}
