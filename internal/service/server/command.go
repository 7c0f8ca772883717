package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"google.golang.org/grpc"

	api "github.com/oshokin/catpoint/internal/api/grpc/security"
	"github.com/oshokin/catpoint/internal/config"
	"github.com/oshokin/catpoint/internal/detector"
	"github.com/oshokin/catpoint/internal/hardware/gpio"
	"github.com/oshokin/catpoint/internal/logger"
	"github.com/oshokin/catpoint/internal/notifier/hook"
	"github.com/oshokin/catpoint/internal/notifier/logging"
	"github.com/oshokin/catpoint/internal/notifier/mqtt"
	repository "github.com/oshokin/catpoint/internal/repository/security"
	"github.com/oshokin/catpoint/internal/service/coordinator"
	"github.com/oshokin/catpoint/internal/version"
)

// Options controls the catpoint-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// StateFile overrides the state file from the settings when set.
	StateFile string
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the coordinator with its listeners and hardware inputs, serves the
// gRPC API, and blocks until ctx is canceled or the server stops.
//
//nolint:funlen // Linear wiring of every component.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "catpoint-server")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if level, ok := logger.ParseLogLevel(settings.LogLevel); ok && settings.LogLevel != "" {
		logger.SetLevel(level)
	}

	stateFile := settings.StateFile
	if opts.StateFile != "" {
		stateFile = opts.StateFile
	}

	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	repo, err := repository.NewFileRepository(stateFile)
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}

	coord := coordinator.New(repo, newDetector(settings.Detector))
	coord.AddStatusListener(logging.New())

	// Background workers stop with ctx and are awaited before returning.
	ctx, cancel := context.WithCancel(ctx)

	var workers sync.WaitGroup

	defer func() {
		cancel()
		workers.Wait()
	}()

	if err = attachMQTT(ctx, &workers, coord, &settings.MQTT); err != nil {
		return err
	}

	if err = attachHook(ctx, coord, &settings.Hook); err != nil {
		return err
	}

	if err = attachGPIO(ctx, &workers, coord, &settings.GPIO); err != nil {
		return err
	}

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(api.UnaryLoggingInterceptor(ctx)),
		grpc.ChainStreamInterceptor(api.StreamLoggingInterceptor(ctx)),
	)
	api.RegisterSecurityServiceServer(grpcServer, api.NewServer(ctx, coord))

	logger.InfoKV(ctx, "Catpoint server listening",
		"listen_address", listenAddress,
		"state_file", stateFile,
		"detector", settings.Detector.Kind,
		"version", version.Short(),
	)

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	if err = grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "GRPC server stopped")

	return nil
}

// newDetector builds the configured cat detection backend.
func newDetector(settings config.DetectorConfig) detector.Detector {
	if settings.Kind == config.DetectorStatic {
		return &detector.StaticDetector{CatPresent: settings.CatPresent}
	}

	return detector.NewRandomDetector(nil)
}

// attachMQTT connects to the broker and publishes coordinator events until ctx is done.
func attachMQTT(ctx context.Context, workers *sync.WaitGroup, coord *coordinator.Coordinator, settings *config.MQTTConfig) error {
	if settings.Broker == "" {
		return nil
	}

	publisher, err := mqtt.NewRealPublisher(settings.Broker, settings.ClientID)
	if err != nil {
		return fmt.Errorf("connect mqtt: %w", err)
	}

	listener := mqtt.NewListener(publisher, settings.TopicPrefix)
	coord.AddStatusListener(listener)

	workers.Go(func() {
		defer func() {
			coord.RemoveStatusListener(listener)
			_ = publisher.Close()
		}()

		listener.Run(ctx)
	})

	logger.InfoKV(ctx, "Publishing events to MQTT", "broker", settings.Broker, "topic_prefix", settings.TopicPrefix)

	return nil
}

// attachHook registers the external alarm command.
func attachHook(ctx context.Context, coord *coordinator.Coordinator, settings *config.HookConfig) error {
	if len(settings.Command) == 0 {
		return nil
	}

	listener, err := hook.New(settings.Command)
	if err != nil {
		return fmt.Errorf("alarm hook: %w", err)
	}

	coord.AddStatusListener(listener)
	logger.InfoKV(ctx, "Alarm hook registered", "command", settings.Command[0])

	return nil
}

// attachGPIO drives sensors from GPIO lines until ctx is done.
func attachGPIO(ctx context.Context, workers *sync.WaitGroup, coord *coordinator.Coordinator, settings *config.GPIOConfig) error {
	if len(settings.Bindings) == 0 {
		return nil
	}

	watcher, err := gpio.NewWatcher(coord, settings.Bindings)
	if err != nil {
		return fmt.Errorf("gpio watcher: %w", err)
	}

	source, err := gpio.NewRealSource(settings.Chip, watcher.Lines(), settings.Debounce)
	if err != nil {
		return fmt.Errorf("gpio source: %w", err)
	}

	workers.Go(func() {
		defer func() {
			_ = source.Close()
		}()

		watcher.Run(ctx, source)
	})

	logger.InfoKV(ctx, "Watching GPIO lines", "chip", settings.Chip, "lines", watcher.Lines())

	return nil
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
// Returns appropriate listen address (e.g., ":8080" for port-only binding).
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	return ":" + port, nil
}
