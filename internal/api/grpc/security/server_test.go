package security

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/catpoint/internal/detector"
	domain "github.com/oshokin/catpoint/internal/domain/security"
	repo "github.com/oshokin/catpoint/internal/repository/security"
	"github.com/oshokin/catpoint/internal/service/coordinator"
)

// newTestServer builds a transport over a real coordinator with in-memory state.
func newTestServer(t *testing.T, catDetector detector.Detector) (*Server, *coordinator.Coordinator) {
	t.Helper()

	c := coordinator.New(repo.NewMemoryRepository(), catDetector)

	return NewServer(t.Context(), c), c
}

// dialBufconn serves s over an in-memory listener and returns a connected client.
func dialBufconn(t *testing.T, s *Server) *SecurityServiceClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(UnaryLoggingInterceptor(context.Background())),
		grpc.ChainStreamInterceptor(StreamLoggingInterceptor(context.Background())),
	)
	RegisterSecurityServiceServer(grpcServer, s)

	go func() {
		_ = grpcServer.Serve(lis) //nolint:errcheck // Stopped by cleanup.
	}()

	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		grpcServer.Stop()
	})

	return NewSecurityServiceClient(conn)
}

// TestServer_Validation ensures malformed requests return InvalidArgument errors.
func TestServer_Validation(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, new(detector.StaticDetector))
	ctx := context.Background()

	_, err := s.SetArmingStatus(ctx, wrapperspb.String("sideways"))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.AddSensor(ctx, NewSensorRequest("", domain.Door))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.AddSensor(ctx, NewSensorRequest("Garage", "GARAGE"))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.RemoveSensor(ctx, wrapperspb.String(""))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.ChangeSensorActivation(ctx, NewSensorRequest("Front", domain.Door))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.ChangeSensorActivation(ctx, NewActivationRequest("missing", true))
	require.Equal(t, codes.NotFound, status.Code(err))

	_, err = s.RemoveSensor(ctx, wrapperspb.String("missing"))
	require.Equal(t, codes.NotFound, status.Code(err))
}

// TestServer_DetectorFailureIsInternal maps unexpected service errors to Internal.
func TestServer_DetectorFailureIsInternal(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &detector.StaticDetector{Err: context.DeadlineExceeded})

	_, err := s.ProcessImage(context.Background(), wrapperspb.Bytes([]byte("frame")))
	require.Equal(t, codes.Internal, status.Code(err))
}

// TestServer_Roundtrip drives the door scenario through the handlers.
func TestServer_Roundtrip(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, new(detector.StaticDetector))
	ctx := context.Background()

	added, err := s.AddSensor(ctx, NewSensorRequest("Front", domain.Door))
	require.NoError(t, err)

	sensor, err := SensorFromProto(added)
	require.NoError(t, err)
	require.False(t, sensor.Active)

	_, err = s.SetArmingStatus(ctx, wrapperspb.String("home"))
	require.NoError(t, err)

	reply, err := s.ChangeSensorActivation(ctx, NewActivationRequest(sensor.ID, true))
	require.NoError(t, err)

	snapshot, err := SnapshotFromProto(reply)
	require.NoError(t, err)
	require.Equal(t, domain.ArmedHome, snapshot.ArmingStatus)
	require.Equal(t, domain.PendingAlarm, snapshot.AlarmStatus)
	require.Len(t, snapshot.Sensors, 1)
	require.True(t, snapshot.Sensors[0].Active)

	reply, err = s.ChangeSensorActivation(ctx, NewActivationRequest(sensor.ID, false))
	require.NoError(t, err)

	snapshot, err = SnapshotFromProto(reply)
	require.NoError(t, err)
	require.Equal(t, domain.NoAlarm, snapshot.AlarmStatus)

	list, err := s.ListSensors(ctx, new(emptypb.Empty))
	require.NoError(t, err)

	sensors, err := SensorsFromProto(list)
	require.NoError(t, err)
	require.Len(t, sensors, 1)

	_, err = s.RemoveSensor(ctx, wrapperspb.String(sensor.ID))
	require.NoError(t, err)

	list, err = s.ListSensors(ctx, new(emptypb.Empty))
	require.NoError(t, err)
	require.Empty(t, list.GetValues())
}

// TestWatch_StreamsEvents subscribes over a real connection and observes a cat sighting.
func TestWatch_StreamsEvents(t *testing.T) {
	t.Parallel()

	s, c := newTestServer(t, &detector.StaticDetector{CatPresent: true})
	client := dialBufconn(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.SetArmingStatus(ctx, wrapperspb.String(domain.ArmedHome.String()))
	require.NoError(t, err)

	stream, err := client.Watch(ctx, new(emptypb.Empty))
	require.NoError(t, err)

	msg, err := stream.Recv()
	require.NoError(t, err)

	first, err := EventFromProto(msg)
	require.NoError(t, err)
	require.Equal(t, &Event{Kind: EventAlarmStatus, AlarmStatus: domain.NoAlarm}, first)

	_, err = client.ProcessImage(ctx, wrapperspb.Bytes([]byte("frame")))
	require.NoError(t, err)

	var events []*Event

	for len(events) < 2 {
		msg, err = stream.Recv()
		require.NoError(t, err)

		event, decodeErr := EventFromProto(msg)
		require.NoError(t, decodeErr)

		events = append(events, event)
	}

	require.Equal(t, []*Event{
		{Kind: EventAlarmStatus, AlarmStatus: domain.Alarm},
		{Kind: EventCatDetected, CatDetected: true},
	}, events)
	require.True(t, c.CatDetected())
}

// TestActorMetadata checks that actor metadata survives a trip through outgoing and incoming contexts.
func TestActorMetadata(t *testing.T) {
	t.Parallel()

	require.Nil(t, ActorFromContext(context.Background()))

	actor := &domain.Actor{Hostname: "kitchen-pi", Username: "jo"}
	out := ActorToContext(context.Background(), actor)

	md, ok := metadata.FromOutgoingContext(out)
	require.True(t, ok)

	in := metadata.NewIncomingContext(context.Background(), md)
	require.Equal(t, actor, ActorFromContext(in))
	require.Equal(t, context.Background(), ActorToContext(context.Background(), nil))
}

// TestWatch_EndsOnShutdown closes open streams once the server context is done.
func TestWatch_EndsOnShutdown(t *testing.T) {
	t.Parallel()

	serverCtx, shutdown := context.WithCancel(context.Background())
	defer shutdown()

	c := coordinator.New(repo.NewMemoryRepository(), new(detector.StaticDetector))
	client := dialBufconn(t, NewServer(serverCtx, c))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.Watch(ctx, new(emptypb.Empty))
	require.NoError(t, err)

	_, err = stream.Recv()
	require.NoError(t, err)

	shutdown()

	_, err = stream.Recv()
	require.ErrorIs(t, err, io.EOF)
}

// TestWatch_ResyncAfterDrop follows a lossy delivery with the current state.
func TestWatch_ResyncAfterDrop(t *testing.T) {
	t.Parallel()

	s, c := newTestServer(t, new(detector.StaticDetector))
	ctx := context.Background()

	require.NoError(t, c.SetAlarmStatus(ctx, domain.Alarm))

	listener := newStreamListener(1)
	listener.OnAlarmStatusChanged(ctx, domain.PendingAlarm)
	listener.OnAlarmStatusChanged(ctx, domain.Alarm)

	var sent []*Event

	send := func(msg *structpb.Struct) error {
		event, err := EventFromProto(msg)
		require.NoError(t, err)

		sent = append(sent, event)

		return nil
	}

	require.NoError(t, s.deliver(ctx, listener, <-listener.events, send))
	require.Equal(t, []*Event{
		{Kind: EventAlarmStatus, AlarmStatus: domain.PendingAlarm},
		{Kind: EventAlarmStatus, AlarmStatus: domain.Alarm},
		{Kind: EventSensorStatus},
	}, sent)

	// Without further drops only the event itself is sent.
	sent = nil

	listener.OnSensorStatusChanged(ctx)
	require.NoError(t, s.deliver(ctx, listener, <-listener.events, send))
	require.Equal(t, []*Event{{Kind: EventSensorStatus}}, sent)
}
