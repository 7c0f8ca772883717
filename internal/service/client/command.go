package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	api "github.com/oshokin/catpoint/internal/api/grpc/security"
	"github.com/oshokin/catpoint/internal/config"
	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
	"github.com/oshokin/catpoint/internal/service/common"
)

// Options configures how the catpoint CLI reaches the server.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides server address from config when specified.
	ServerAddress string

	// Out receives human-readable results. Defaults to stdout.
	Out io.Writer
}

// defaultPushInterval defines retry delay when the server is unreachable.
const defaultPushInterval = 1 * time.Second

// errEmptyImage is returned when the camera frame file has no content.
var errEmptyImage = errors.New("image file is empty")

// connect loads settings, detects the actor and dials the server.
func connect(ctx context.Context, opts *Options) (*common.Client, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	actor, err := common.DetectActor()
	if err != nil {
		return nil, err
	}

	logger.DebugKV(ctx, "Connecting", "server_address", serverAddress, "actor", actor.String())

	return common.Dial(ctx, serverAddress,
		common.WithCallTimeout(cfg.Timeout),
		common.WithActor(actor),
	)
}

// withClient runs fn against a connected client and closes it afterwards.
func withClient(ctx context.Context, opts *Options, fn func(*common.Client) error) error {
	client, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	return fn(client)
}

// output returns the writer for results.
func (o *Options) output() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}

	return o.Out
}

// Status prints the current snapshot.
func Status(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "catpoint")

	return withClient(ctx, opts, func(client *common.Client) error {
		snapshot, err := client.Status(ctx)
		if err != nil {
			return err
		}

		return printSnapshot(opts.output(), snapshot)
	})
}

// SetArmingStatus pushes the desired arming status, retrying while the
// server is unavailable, and prints the resulting snapshot.
func SetArmingStatus(ctx context.Context, opts *Options, desired domain.ArmingStatus) error {
	ctx = logger.WithName(ctx, "catpoint")

	return withClient(ctx, opts, func(client *common.Client) error {
		logger.InfoKV(ctx, "Pushing desired arming status", "arming_status", desired)

		// attempt tries once to change the status, returns (snapshot, retry, error).
		attempt := func() (*domain.Snapshot, bool, error) {
			snapshot, err := client.SetArmingStatus(ctx, desired)
			if err == nil {
				return snapshot, false, nil
			}

			if status.Code(err) == codes.Unavailable {
				logger.WarnKV(ctx, "Server unavailable, retrying", "error", err)
				return nil, true, nil
			}

			return nil, false, err
		}

		snapshot, retry, err := attempt()

		if retry {
			ticker := time.NewTicker(defaultPushInterval)
			defer ticker.Stop()

			for retry && err == nil {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					snapshot, retry, err = attempt()
				}
			}
		}

		if err != nil {
			return err
		}

		return printSnapshot(opts.output(), snapshot)
	})
}

// ListSensors prints all sensors.
func ListSensors(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "catpoint")

	return withClient(ctx, opts, func(client *common.Client) error {
		sensors, err := client.Sensors(ctx)
		if err != nil {
			return err
		}

		return printSensors(opts.output(), sensors)
	})
}

// AddSensor creates a sensor and prints its identifier.
func AddSensor(ctx context.Context, opts *Options, name string, sensorType domain.SensorType) error {
	ctx = logger.WithName(ctx, "catpoint")

	return withClient(ctx, opts, func(client *common.Client) error {
		sensor, err := client.AddSensor(ctx, name, sensorType)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(opts.output(), "Added %s sensor %q with id %s\n", sensor.Type, sensor.Name, sensor.ID)

		return err
	})
}

// RemoveSensor deletes a sensor.
func RemoveSensor(ctx context.Context, opts *Options, id string) error {
	ctx = logger.WithName(ctx, "catpoint")

	return withClient(ctx, opts, func(client *common.Client) error {
		if err := client.RemoveSensor(ctx, id); err != nil {
			return err
		}

		_, err := fmt.Fprintf(opts.output(), "Removed sensor %s\n", id)

		return err
	})
}

// ChangeSensorActivation activates or deactivates a sensor and prints the resulting snapshot.
func ChangeSensorActivation(ctx context.Context, opts *Options, id string, active bool) error {
	ctx = logger.WithName(ctx, "catpoint")

	return withClient(ctx, opts, func(client *common.Client) error {
		snapshot, err := client.ChangeSensorActivation(ctx, id, active)
		if err != nil {
			return err
		}

		return printSnapshot(opts.output(), snapshot)
	})
}

// ProcessImage submits the contents of an image file as a camera frame.
func ProcessImage(ctx context.Context, opts *Options, path string) error {
	ctx = logger.WithName(ctx, "catpoint")

	frame, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	if len(frame) == 0 {
		return errEmptyImage
	}

	return withClient(ctx, opts, func(client *common.Client) error {
		snapshot, err := client.ProcessImage(ctx, frame)
		if err != nil {
			return err
		}

		return printSnapshot(opts.output(), snapshot)
	})
}

// Watch prints coordinator events until ctx is canceled.
func Watch(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "catpoint")

	return withClient(ctx, opts, func(client *common.Client) error {
		out := opts.output()

		return client.Watch(ctx, func(event *api.Event) {
			_, _ = fmt.Fprintln(out, formatEvent(time.Now(), event))
		})
	})
}

// formatEvent renders a Watch event as one line.
func formatEvent(at time.Time, event *api.Event) string {
	stamp := at.Format(time.TimeOnly)

	switch event.Kind {
	case api.EventAlarmStatus:
		return fmt.Sprintf("%s alarm status: %s", stamp, event.AlarmStatus)
	case api.EventCatDetected:
		if event.CatDetected {
			return stamp + " camera: cat detected"
		}

		return stamp + " camera: no cat"
	case api.EventSensorStatus:
		return stamp + " sensors changed"
	default:
		return fmt.Sprintf("%s %s", stamp, event.Kind)
	}
}

// printSnapshot writes the statuses followed by the sensor table.
func printSnapshot(out io.Writer, snapshot *domain.Snapshot) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Arming status: %s\n", snapshot.ArmingStatus)
	fmt.Fprintf(&b, "Alarm status:  %s\n", snapshot.AlarmStatus)
	fmt.Fprintf(&b, "Cat detected:  %t\n", snapshot.CatDetected)

	if _, err := io.WriteString(out, b.String()); err != nil {
		return err
	}

	return printSensors(out, snapshot.Sensors)
}

// printSensors writes sensors as an aligned table.
func printSensors(out io.Writer, sensors []*domain.Sensor) error {
	if len(sensors) == 0 {
		_, err := fmt.Fprintln(out, "No sensors.")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSTATE")

	for _, sensor := range sensors {
		state := "inactive"
		if sensor.Active {
			state = "active"
		}

		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", sensor.ID, sensor.Name, sensor.Type, state)
	}

	return tw.Flush()
}
