package security

import (
	"errors"
	"fmt"
	"strings"
)

// ArmingStatus controls whether sensor activity may influence the alarm.
type ArmingStatus int

const (
	// Disarmed means sensors never escalate the alarm.
	Disarmed ArmingStatus = iota
	// ArmedHome monitors sensors and the camera while residents are at home.
	ArmedHome
	// ArmedAway monitors sensors while nobody is at home.
	ArmedAway
)

// AlarmStatus is the escalation level of the alarm.
// Values are ordered by severity: NoAlarm < PendingAlarm < Alarm.
type AlarmStatus int

const (
	// NoAlarm is the initial, quiet state.
	NoAlarm AlarmStatus = iota
	// PendingAlarm means a single sensor tripped while the system was armed.
	PendingAlarm
	// Alarm is the full alarm. Only disarming or the camera clears it.
	Alarm
)

var (
	// ErrUnknownArmingStatus is returned when an arming status string cannot be parsed.
	ErrUnknownArmingStatus = errors.New("unknown arming status")
	// ErrUnknownAlarmStatus is returned when an alarm status string cannot be parsed.
	ErrUnknownAlarmStatus = errors.New("unknown alarm status")
)

//nolint:gochecknoglobals // Lookup tables for enum names.
var (
	armingStatusNames = map[ArmingStatus]string{
		Disarmed:  "DISARMED",
		ArmedHome: "ARMED_HOME",
		ArmedAway: "ARMED_AWAY",
	}
	alarmStatusNames = map[AlarmStatus]string{
		NoAlarm:      "NO_ALARM",
		PendingAlarm: "PENDING_ALARM",
		Alarm:        "ALARM",
	}
)

// String returns the canonical upper-case name of the arming status.
func (s ArmingStatus) String() string {
	if name, ok := armingStatusNames[s]; ok {
		return name
	}

	return fmt.Sprintf("ArmingStatus(%d)", int(s))
}

// IsArmed reports whether the status is ArmedHome or ArmedAway.
func (s ArmingStatus) IsArmed() bool {
	return s == ArmedHome || s == ArmedAway
}

// ParseArmingStatus converts a case-insensitive name into an ArmingStatus.
// Short forms "home" and "away" are accepted as well.
func ParseArmingStatus(s string) (ArmingStatus, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	switch normalized {
	case "HOME":
		return ArmedHome, nil
	case "AWAY":
		return ArmedAway, nil
	}

	for status, name := range armingStatusNames {
		if name == normalized {
			return status, nil
		}
	}

	return Disarmed, fmt.Errorf("%w: %q", ErrUnknownArmingStatus, s)
}

// String returns the canonical upper-case name of the alarm status.
func (s AlarmStatus) String() string {
	if name, ok := alarmStatusNames[s]; ok {
		return name
	}

	return fmt.Sprintf("AlarmStatus(%d)", int(s))
}

// Escalate returns the status one severity step above s.
// Alarm is the highest level and escalates to itself.
func (s AlarmStatus) Escalate() AlarmStatus {
	switch s {
	case NoAlarm:
		return PendingAlarm
	case PendingAlarm, Alarm:
		return Alarm
	default:
		return s
	}
}

// ParseAlarmStatus converts a case-insensitive name into an AlarmStatus.
func ParseAlarmStatus(s string) (AlarmStatus, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	for status, name := range alarmStatusNames {
		if name == normalized {
			return status, nil
		}
	}

	return NoAlarm, fmt.Errorf("%w: %q", ErrUnknownAlarmStatus, s)
}

// MarshalText implements encoding.TextMarshaler.
func (s ArmingStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ArmingStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseArmingStatus(string(text))
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (s AlarmStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *AlarmStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseAlarmStatus(string(text))
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}
