package security

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// SensorType is the closed set of sensor kinds.
type SensorType string

const (
	// Door is a door contact sensor.
	Door SensorType = "DOOR"
	// Window is a window contact sensor.
	Window SensorType = "WINDOW"
	// Motion is a motion detector.
	Motion SensorType = "MOTION"
)

// ErrUnknownSensorType is returned when a sensor type string cannot be parsed.
var ErrUnknownSensorType = errors.New("unknown sensor type")

// ParseSensorType converts a case-insensitive name into a SensorType.
func ParseSensorType(s string) (SensorType, error) {
	switch t := SensorType(strings.ToUpper(strings.TrimSpace(s))); t {
	case Door, Window, Motion:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSensorType, s)
	}
}

// SensorKey is the identity of a sensor. The active flag is not part of it.
type SensorKey struct {
	ID   string
	Type SensorType
}

// Sensor is a binary presence or contact detector.
type Sensor struct {
	// ID is an opaque identifier, stable for the sensor's lifetime.
	ID string `yaml:"id"`
	// Name is a human-readable label shown to users.
	Name string `yaml:"name"`
	// Type is the sensor kind.
	Type SensorType `yaml:"type"`
	// Active is true while the sensor reports an open contact or motion.
	Active bool `yaml:"active"`
}

// NewSensor creates an inactive sensor with a freshly generated identifier.
func NewSensor(name string, sensorType SensorType) *Sensor {
	return &Sensor{
		ID:   uuid.NewString(),
		Name: name,
		Type: sensorType,
	}
}

// Key returns the identity of the sensor.
func (s *Sensor) Key() SensorKey {
	return SensorKey{
		ID:   s.ID,
		Type: s.Type,
	}
}

// Equal reports whether both sensors share the same identity.
func (s *Sensor) Equal(other *Sensor) bool {
	if s == nil || other == nil {
		return s == other
	}

	return s.Key() == other.Key()
}

// Clone returns a copy of the sensor.
func (s *Sensor) Clone() *Sensor {
	if s == nil {
		return nil
	}

	cloned := *s

	return &cloned
}

// CloneSensors returns copies of all sensors.
func CloneSensors(sensors []*Sensor) []*Sensor {
	result := make([]*Sensor, 0, len(sensors))
	for _, sensor := range sensors {
		result = append(result, sensor.Clone())
	}

	return result
}

// SortSensors orders sensors by name, then type, then identifier.
func SortSensors(sensors []*Sensor) {
	slices.SortFunc(sensors, func(a, b *Sensor) int {
		return cmp.Or(
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.Type, b.Type),
			cmp.Compare(a.ID, b.ID),
		)
	})
}
