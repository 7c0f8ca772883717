package integration

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	api "github.com/oshokin/catpoint/internal/api/grpc/security"
	"github.com/oshokin/catpoint/internal/config"
	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/service/common"
	"github.com/oshokin/catpoint/internal/service/server"
)

// startGRPC starts a server with temporary config and persistent state file.
// The camera always sees a cat when catPresent is set.
// Returns a stop function that blocks until the server has shut down.
func startGRPC(t *testing.T, addr, statePath string, catPresent bool) (stop func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	cfgPath := filepath.Join(t.TempDir(), "settings.yaml")

	require.NoError(
		t,
		config.Save(cfgPath, &config.Config{
			ServerAddress: addr,
			Timeout:       5 * time.Second,
			Detector: config.DetectorConfig{
				Kind:       config.DetectorStatic,
				CatPresent: catPresent,
			},
		}),
	)

	var wg sync.WaitGroup

	wg.Go(func() {
		options := &server.Options{
			ConfigPath: cfgPath,
			StateFile:  statePath,
		}

		_ = server.Run(ctx, options) //nolint:errcheck // Failures surface as client errors.
	})

	// Wait briefly for server to start listening.
	time.Sleep(150 * time.Millisecond)

	return func() {
		cancel()
		wg.Wait()
	}
}

// freeAddress reserves a free local port for the test server.
func freeAddress(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// dial connects a client identified as a test actor.
func dial(t *testing.T, addr string) *common.Client {
	t.Helper()

	c, err := common.Dial(context.Background(), addr,
		common.WithCallTimeout(3*time.Second),
		common.WithActor(&domain.Actor{Hostname: "test-hostname", Username: "test-user"}),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
	})

	return c
}

// TestGRPC_DoorScenarioSurvivesRestart drives the door scenario over gRPC and
// checks that sensors and statuses are reloaded from disk.
func TestGRPC_DoorScenarioSurvivesRestart(t *testing.T) {
	t.Parallel()

	addr := freeAddress(t)
	statePath := filepath.Join(t.TempDir(), "state.yaml")
	stop := startGRPC(t, addr, statePath, false)

	ctx := context.Background()
	c := dial(t, addr)

	door, err := c.AddSensor(ctx, "Front door", domain.Door)
	require.NoError(t, err)

	_, err = c.SetArmingStatus(ctx, domain.ArmedAway)
	require.NoError(t, err)

	got, err := c.ChangeSensorActivation(ctx, door.ID, true)
	require.NoError(t, err)
	require.Equal(t, domain.PendingAlarm, got.AlarmStatus)

	got, err = c.ChangeSensorActivation(ctx, door.ID, true)
	require.NoError(t, err)
	require.Equal(t, domain.PendingAlarm, got.AlarmStatus)

	_, err = c.ChangeSensorActivation(ctx, "missing", true)
	require.Error(t, err)

	stop()

	_, err = os.Stat(statePath)
	require.NoError(t, err)

	stop = startGRPC(t, addr, statePath, false)
	defer stop()

	c = dial(t, addr)

	got, err = c.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.ArmedAway, got.ArmingStatus)
	require.Equal(t, domain.PendingAlarm, got.AlarmStatus)
	require.Len(t, got.Sensors, 1)
	require.True(t, got.Sensors[0].Active)

	got, err = c.SetArmingStatus(ctx, domain.Disarmed)
	require.NoError(t, err)
	require.Equal(t, domain.NoAlarm, got.AlarmStatus)
}

// TestGRPC_WatchCatAtHome streams events while a cat is spotted at home.
func TestGRPC_WatchCatAtHome(t *testing.T) {
	t.Parallel()

	addr := freeAddress(t)
	stop := startGRPC(t, addr, filepath.Join(t.TempDir(), "state.yaml"), true)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := dial(t, addr)

	_, err := c.SetArmingStatus(ctx, domain.ArmedHome)
	require.NoError(t, err)

	events := make(chan *api.Event, 8)
	watchCtx, stopWatch := context.WithCancel(ctx)

	var wg sync.WaitGroup

	wg.Go(func() {
		_ = c.Watch(watchCtx, func(event *api.Event) { //nolint:errcheck // Ended by stopWatch.
			events <- event
		})
	})

	require.Equal(t, &api.Event{Kind: api.EventAlarmStatus, AlarmStatus: domain.NoAlarm}, <-events)

	got, err := c.ProcessImage(ctx, []byte("frame"))
	require.NoError(t, err)
	require.Equal(t, domain.Alarm, got.AlarmStatus)
	require.True(t, got.CatDetected)

	require.Equal(t, &api.Event{Kind: api.EventAlarmStatus, AlarmStatus: domain.Alarm}, <-events)
	require.Equal(t, &api.Event{Kind: api.EventCatDetected, CatDetected: true}, <-events)

	stopWatch()
	wg.Wait()
}

// TestGRPC_ShutdownWithWatcherAttached stops the server while a client is still subscribed.
func TestGRPC_ShutdownWithWatcherAttached(t *testing.T) {
	t.Parallel()

	addr := freeAddress(t)
	stop := startGRPC(t, addr, filepath.Join(t.TempDir(), "state.yaml"), false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		c        = dial(t, addr)
		events   = make(chan *api.Event, 8)
		watchErr = make(chan error, 1)
	)

	go func() {
		watchErr <- c.Watch(ctx, func(event *api.Event) {
			events <- event
		})
	}()

	require.Equal(t, &api.Event{Kind: api.EventAlarmStatus, AlarmStatus: domain.NoAlarm}, <-events)

	stopped := make(chan struct{})

	go func() {
		stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop while a watcher was attached")
	}

	require.ErrorIs(t, <-watchErr, common.ErrWatchClosed)
}
