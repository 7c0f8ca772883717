package security

import (
	"context"
	"errors"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// Repository defines persistence operations for sensors and statuses.
type Repository interface {
	ArmingStatus(ctx context.Context) (domain.ArmingStatus, error)
	SetArmingStatus(ctx context.Context, status domain.ArmingStatus) error
	AlarmStatus(ctx context.Context) (domain.AlarmStatus, error)
	SetAlarmStatus(ctx context.Context, status domain.AlarmStatus) error
	Sensors(ctx context.Context) ([]*domain.Sensor, error)
	AddSensor(ctx context.Context, sensor *domain.Sensor) error
	RemoveSensor(ctx context.Context, sensor *domain.Sensor) error
	UpdateSensor(ctx context.Context, sensor *domain.Sensor) error
}

var (
	// ErrSensorNotFound is returned when a sensor is not part of the store.
	ErrSensorNotFound = errors.New("sensor not found")
	// ErrSensorRequired is returned when a nil sensor is passed to the store.
	ErrSensorRequired = errors.New("sensor is required")
)

// document is the complete stored state. It is also the on-disk layout.
type document struct {
	ArmingStatus domain.ArmingStatus `yaml:"arming_status"`
	AlarmStatus  domain.AlarmStatus  `yaml:"alarm_status"`
	Sensors      []*domain.Sensor    `yaml:"sensors"`
}

// clone returns a deep copy of the document.
func (d *document) clone() *document {
	return &document{
		ArmingStatus: d.ArmingStatus,
		AlarmStatus:  d.AlarmStatus,
		Sensors:      domain.CloneSensors(d.Sensors),
	}
}

// indexOf returns the position of the sensor with the same identity, or -1.
func (d *document) indexOf(sensor *domain.Sensor) int {
	for i, stored := range d.Sensors {
		if stored.Equal(sensor) {
			return i
		}
	}

	return -1
}

// addSensor inserts the sensor or replaces the one with the same identity.
func (d *document) addSensor(sensor *domain.Sensor) error {
	if sensor == nil {
		return ErrSensorRequired
	}

	if i := d.indexOf(sensor); i >= 0 {
		d.Sensors[i] = sensor.Clone()
		return nil
	}

	d.Sensors = append(d.Sensors, sensor.Clone())

	return nil
}

// removeSensor deletes the sensor with the same identity.
func (d *document) removeSensor(sensor *domain.Sensor) error {
	if sensor == nil {
		return ErrSensorRequired
	}

	i := d.indexOf(sensor)
	if i < 0 {
		return ErrSensorNotFound
	}

	d.Sensors = append(d.Sensors[:i], d.Sensors[i+1:]...)

	return nil
}

// updateSensor overwrites the stored copy of an existing sensor.
func (d *document) updateSensor(sensor *domain.Sensor) error {
	if sensor == nil {
		return ErrSensorRequired
	}

	i := d.indexOf(sensor)
	if i < 0 {
		return ErrSensorNotFound
	}

	d.Sensors[i] = sensor.Clone()

	return nil
}
