package security

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
	"github.com/oshokin/catpoint/internal/service/coordinator"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	Snapshot(ctx context.Context) (*domain.Snapshot, error)
	SetArmingStatus(ctx context.Context, status domain.ArmingStatus) error
	Sensors(ctx context.Context) ([]*domain.Sensor, error)
	Sensor(ctx context.Context, id string) (*domain.Sensor, error)
	AddSensor(ctx context.Context, sensor *domain.Sensor) error
	RemoveSensor(ctx context.Context, sensor *domain.Sensor) error
	ChangeSensorActivationStatus(ctx context.Context, sensor *domain.Sensor, active bool) error
	ProcessImage(ctx context.Context, frame []byte) error
	AddStatusListener(listener coordinator.StatusListener)
	RemoveStatusListener(listener coordinator.StatusListener)
}

// Server implements the SecurityService gRPC API.
type Server struct {
	// service provides the business logic.
	service Service
	// shutdown is closed when the process stops; open Watch streams end with it.
	shutdown <-chan struct{}
}

// NewServer wires the provided service implementation into a gRPC handler.
// Watch streams are closed once ctx is done, so a graceful stop does not
// wait for subscribers to leave.
func NewServer(ctx context.Context, service Service) *Server {
	return &Server{
		service:  service,
		shutdown: ctx.Done(),
	}
}

// GetStatus returns the current snapshot.
func (s *Server) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.snapshot(ctx)
}

// SetArmingStatus changes the arming mode and returns the resulting snapshot.
func (s *Server) SetArmingStatus(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	arming, err := domain.ParseArmingStatus(req.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err = s.service.SetArmingStatus(ctx, arming); err != nil {
		return nil, toStatus(ctx, "unable to change arming status", err)
	}

	return s.snapshot(ctx)
}

// ListSensors returns all sensors sorted by name.
func (s *Server) ListSensors(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	sensors, err := s.service.Sensors(ctx)
	if err != nil {
		return nil, toStatus(ctx, "unable to read sensors", err)
	}

	return SensorsToProto(sensors), nil
}

// AddSensor creates an inactive sensor with a new identifier.
func (s *Server) AddSensor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	name := fields[fieldName].GetStringValue()
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "sensor name is required")
	}

	sensorType, err := domain.ParseSensorType(fields[fieldType].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	sensor := domain.NewSensor(name, sensorType)
	if err = s.service.AddSensor(ctx, sensor); err != nil {
		return nil, toStatus(ctx, "unable to add sensor", err)
	}

	return SensorToProto(sensor), nil
}

// RemoveSensor deletes the sensor with the given identifier.
func (s *Server) RemoveSensor(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	sensor, err := s.lookup(ctx, req.GetValue())
	if err != nil {
		return nil, err
	}

	if err = s.service.RemoveSensor(ctx, sensor); err != nil {
		return nil, toStatus(ctx, "unable to remove sensor", err)
	}

	return new(emptypb.Empty), nil
}

// ChangeSensorActivation sets the active flag of a sensor and returns the resulting snapshot.
func (s *Server) ChangeSensorActivation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	active, ok := fields[fieldActive].GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "active flag is required")
	}

	sensor, err := s.lookup(ctx, fields[fieldID].GetStringValue())
	if err != nil {
		return nil, err
	}

	if err = s.service.ChangeSensorActivationStatus(ctx, sensor, active.BoolValue); err != nil {
		return nil, toStatus(ctx, "unable to change sensor activation", err)
	}

	return s.snapshot(ctx)
}

// ProcessImage runs cat detection on a camera frame and returns the resulting snapshot.
func (s *Server) ProcessImage(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error) {
	if err := s.service.ProcessImage(ctx, req.GetValue()); err != nil {
		return nil, toStatus(ctx, "unable to process image", err)
	}

	return s.snapshot(ctx)
}

func (s *Server) snapshot(ctx context.Context) (*structpb.Struct, error) {
	snapshot, err := s.service.Snapshot(ctx)
	if err != nil {
		return nil, toStatus(ctx, "unable to read state", err)
	}

	return SnapshotToProto(snapshot), nil
}

func (s *Server) lookup(ctx context.Context, id string) (*domain.Sensor, error) {
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "sensor id is required")
	}

	sensor, err := s.service.Sensor(ctx, id)
	if err != nil {
		return nil, toStatus(ctx, "unable to read sensor", err)
	}

	return sensor, nil
}

// toStatus maps service errors to gRPC status errors.
func toStatus(ctx context.Context, message string, err error) error {
	if errors.Is(err, coordinator.ErrSensorNotFound) {
		return status.Error(codes.NotFound, err.Error())
	}

	logger.ErrorKV(ctx, message, "error", err)

	return status.Error(codes.Internal, message)
}
