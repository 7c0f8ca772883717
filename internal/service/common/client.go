//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	api "github.com/oshokin/catpoint/internal/api/grpc/security"
	"github.com/oshokin/catpoint/internal/config"
	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// Client wraps the gRPC SecurityService client with domain conversions and timeouts.
type Client struct {
	// conn is the underlying gRPC connection to the server.
	conn *grpc.ClientConn
	// api is the SecurityService client.
	api *api.SecurityServiceClient

	// actor is attached to every call as metadata.
	actor *domain.Actor
	// callTimeout is the default timeout for individual unary calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for unary calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithActor identifies the caller in server logs.
func WithActor(actor *domain.Actor) Option {
	return func(c *Client) {
		c.actor = actor
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errSensorRequired is returned when a sensor identifier is missing.
	errSensorRequired = errors.New("sensor id must be provided")

	// ErrWatchClosed is returned when the server ends the event stream, typically on shutdown.
	ErrWatchClosed = errors.New("server closed the event stream")
)

// Dial establishes a gRPC connection to the catpoint server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial catpoint server: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         api.NewSecurityServiceClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// Status retrieves the current snapshot.
func (c *Client) Status(ctx context.Context) (*domain.Snapshot, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.GetStatus(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}

	return api.SnapshotFromProto(resp)
}

// SetArmingStatus changes the arming mode.
func (c *Client) SetArmingStatus(ctx context.Context, status domain.ArmingStatus) (*domain.Snapshot, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.SetArmingStatus(callCtx, wrapperspb.String(status.String()))
	if err != nil {
		return nil, fmt.Errorf("set arming status: %w", err)
	}

	return api.SnapshotFromProto(resp)
}

// Sensors lists all sensors.
func (c *Client) Sensors(ctx context.Context) ([]*domain.Sensor, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.ListSensors(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("list sensors: %w", err)
	}

	return api.SensorsFromProto(resp)
}

// AddSensor creates an inactive sensor and returns it with its new identifier.
func (c *Client) AddSensor(ctx context.Context, name string, sensorType domain.SensorType) (*domain.Sensor, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.AddSensor(callCtx, api.NewSensorRequest(name, sensorType))
	if err != nil {
		return nil, fmt.Errorf("add sensor: %w", err)
	}

	return api.SensorFromProto(resp)
}

// RemoveSensor deletes the sensor with the given identifier.
func (c *Client) RemoveSensor(ctx context.Context, id string) error {
	if id == "" {
		return errSensorRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.api.RemoveSensor(callCtx, wrapperspb.String(id)); err != nil {
		return fmt.Errorf("remove sensor: %w", err)
	}

	return nil
}

// ChangeSensorActivation sets the active flag of a sensor.
func (c *Client) ChangeSensorActivation(ctx context.Context, id string, active bool) (*domain.Snapshot, error) {
	if id == "" {
		return nil, errSensorRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.ChangeSensorActivation(callCtx, api.NewActivationRequest(id, active))
	if err != nil {
		return nil, fmt.Errorf("change sensor activation: %w", err)
	}

	return api.SnapshotFromProto(resp)
}

// ProcessImage submits a camera frame for cat detection.
func (c *Client) ProcessImage(ctx context.Context, frame []byte) (*domain.Snapshot, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.ProcessImage(callCtx, wrapperspb.Bytes(frame))
	if err != nil {
		return nil, fmt.Errorf("process image: %w", err)
	}

	return api.SnapshotFromProto(resp)
}

// Watch streams coordinator events to handle until ctx is done or the stream ends.
// A stream closed by the server yields ErrWatchClosed.
// The call timeout does not apply to the stream.
func (c *Client) Watch(ctx context.Context, handle func(*api.Event)) error {
	stream, err := c.api.Watch(api.ActorToContext(ctx, c.actor), new(emptypb.Empty))
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	for {
		msg, err := stream.Recv()
		if err != nil {
			switch {
			case ctx.Err() != nil:
				return nil
			case errors.Is(err, io.EOF):
				return ErrWatchClosed
			default:
				return fmt.Errorf("watch: %w", err)
			}
		}

		event, err := api.EventFromProto(msg)
		if err != nil {
			return fmt.Errorf("decode event: %w", err)
		}

		handle(event)
	}
}

// callContext returns a context carrying the actor metadata and the client's
// call timeout if configured, otherwise a cancellable child context.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = api.ActorToContext(ctx, c.actor)

	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
