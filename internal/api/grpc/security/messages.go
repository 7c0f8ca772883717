package security

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// Field names used in Struct messages.
const (
	fieldID           = "id"
	fieldName         = "name"
	fieldType         = "type"
	fieldActive       = "active"
	fieldArmingStatus = "arming_status"
	fieldAlarmStatus  = "alarm_status"
	fieldCatDetected  = "cat_detected"
	fieldSensors      = "sensors"
	fieldKind         = "kind"
)

// EventKind identifies a coordinator event on the Watch stream.
type EventKind string

// Event kinds sent on the Watch stream.
const (
	EventAlarmStatus  EventKind = "alarm_status"
	EventCatDetected  EventKind = "cat_detected"
	EventSensorStatus EventKind = "sensor_status"
)

// Event is a decoded Watch stream message.
type Event struct {
	Kind        EventKind
	AlarmStatus domain.AlarmStatus
	CatDetected bool
}

var (
	// errMissingField is returned when a required message field is absent.
	errMissingField = errors.New("missing field")
	// errUnknownEvent is returned for an unrecognized event kind.
	errUnknownEvent = errors.New("unknown event kind")
)

// SensorToProto converts a sensor into a Struct message.
func SensorToProto(sensor *domain.Sensor) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldID:     structpb.NewStringValue(sensor.ID),
			fieldName:   structpb.NewStringValue(sensor.Name),
			fieldType:   structpb.NewStringValue(string(sensor.Type)),
			fieldActive: structpb.NewBoolValue(sensor.Active),
		},
	}
}

// SensorFromProto converts a Struct message into a sensor.
func SensorFromProto(msg *structpb.Struct) (*domain.Sensor, error) {
	fields := msg.GetFields()

	id := fields[fieldID].GetStringValue()
	if id == "" {
		return nil, fmt.Errorf("%w: %s", errMissingField, fieldID)
	}

	sensorType, err := domain.ParseSensorType(fields[fieldType].GetStringValue())
	if err != nil {
		return nil, err
	}

	return &domain.Sensor{
		ID:     id,
		Name:   fields[fieldName].GetStringValue(),
		Type:   sensorType,
		Active: fields[fieldActive].GetBoolValue(),
	}, nil
}

// SensorsToProto converts sensors into a ListValue of Struct messages.
func SensorsToProto(sensors []*domain.Sensor) *structpb.ListValue {
	values := make([]*structpb.Value, 0, len(sensors))
	for _, sensor := range sensors {
		values = append(values, structpb.NewStructValue(SensorToProto(sensor)))
	}

	return &structpb.ListValue{Values: values}
}

// SensorsFromProto converts a ListValue of Struct messages into sensors.
func SensorsFromProto(list *structpb.ListValue) ([]*domain.Sensor, error) {
	sensors := make([]*domain.Sensor, 0, len(list.GetValues()))

	for _, value := range list.GetValues() {
		sensor, err := SensorFromProto(value.GetStructValue())
		if err != nil {
			return nil, err
		}

		sensors = append(sensors, sensor)
	}

	return sensors, nil
}

// SnapshotToProto converts a snapshot into a Struct message.
func SnapshotToProto(snapshot *domain.Snapshot) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldArmingStatus: structpb.NewStringValue(snapshot.ArmingStatus.String()),
			fieldAlarmStatus:  structpb.NewStringValue(snapshot.AlarmStatus.String()),
			fieldCatDetected:  structpb.NewBoolValue(snapshot.CatDetected),
			fieldSensors:      structpb.NewListValue(SensorsToProto(snapshot.Sensors)),
		},
	}
}

// SnapshotFromProto converts a Struct message into a snapshot.
func SnapshotFromProto(msg *structpb.Struct) (*domain.Snapshot, error) {
	fields := msg.GetFields()

	arming, err := domain.ParseArmingStatus(fields[fieldArmingStatus].GetStringValue())
	if err != nil {
		return nil, err
	}

	alarm, err := domain.ParseAlarmStatus(fields[fieldAlarmStatus].GetStringValue())
	if err != nil {
		return nil, err
	}

	sensors, err := SensorsFromProto(fields[fieldSensors].GetListValue())
	if err != nil {
		return nil, err
	}

	return &domain.Snapshot{
		ArmingStatus: arming,
		AlarmStatus:  alarm,
		CatDetected:  fields[fieldCatDetected].GetBoolValue(),
		Sensors:      sensors,
	}, nil
}

// NewSensorRequest builds the AddSensor request.
func NewSensorRequest(name string, sensorType domain.SensorType) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldName: structpb.NewStringValue(name),
			fieldType: structpb.NewStringValue(string(sensorType)),
		},
	}
}

// NewActivationRequest builds the ChangeSensorActivation request.
func NewActivationRequest(id string, active bool) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldID:     structpb.NewStringValue(id),
			fieldActive: structpb.NewBoolValue(active),
		},
	}
}

// EventToProto converts an event into a Struct message.
func EventToProto(event *Event) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldKind: structpb.NewStringValue(string(event.Kind)),
	}

	switch event.Kind {
	case EventAlarmStatus:
		fields[fieldAlarmStatus] = structpb.NewStringValue(event.AlarmStatus.String())
	case EventCatDetected:
		fields[fieldCatDetected] = structpb.NewBoolValue(event.CatDetected)
	case EventSensorStatus:
	}

	return &structpb.Struct{Fields: fields}
}

// EventFromProto converts a Struct message into an event.
func EventFromProto(msg *structpb.Struct) (*Event, error) {
	fields := msg.GetFields()
	event := &Event{
		Kind: EventKind(fields[fieldKind].GetStringValue()),
	}

	switch event.Kind {
	case EventAlarmStatus:
		status, err := domain.ParseAlarmStatus(fields[fieldAlarmStatus].GetStringValue())
		if err != nil {
			return nil, err
		}

		event.AlarmStatus = status
	case EventCatDetected:
		event.CatDetected = fields[fieldCatDetected].GetBoolValue()
	case EventSensorStatus:
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownEvent, event.Kind)
	}

	return event, nil
}
