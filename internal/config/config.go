package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/catpoint/internal/logger"
)

// Config holds settings shared by the catpoint binaries.
type Config struct {
	// ServerAddress is the gRPC server address for client connections.
	ServerAddress string `yaml:"server_addr"`
	// StateFile is the path to the YAML file storing sensors and statuses.
	StateFile string `yaml:"state_file"`
	// Timeout is the duration for network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the minimum level of server log messages.
	LogLevel string `yaml:"log_level,omitempty"`
	// Detector selects the cat detection backend.
	Detector DetectorConfig `yaml:"detector"`
	// MQTT configures event publishing. Disabled when Broker is empty.
	MQTT MQTTConfig `yaml:"mqtt,omitempty"`
	// Hook configures an external command started on full alarm.
	Hook HookConfig `yaml:"hook,omitempty"`
	// GPIO maps hardware input lines to sensors. Disabled when no bindings are set.
	GPIO GPIOConfig `yaml:"gpio,omitempty"`
}

// DetectorConfig selects the cat detection backend.
type DetectorConfig struct {
	// Kind is "random" or "static".
	Kind string `yaml:"kind"`
	// CatPresent is the fixed answer of the static detector.
	CatPresent bool `yaml:"cat_present,omitempty"`
}

// MQTTConfig holds broker connection settings.
type MQTTConfig struct {
	// Broker is the broker URL, e.g. tcp://127.0.0.1:1883.
	Broker string `yaml:"broker"`
	// ClientID identifies this server to the broker.
	ClientID string `yaml:"client_id,omitempty"`
	// TopicPrefix is prepended to every event topic.
	TopicPrefix string `yaml:"topic_prefix,omitempty"`
}

// HookConfig describes the command started when the alarm goes off.
type HookConfig struct {
	// Command is the executable followed by its arguments.
	Command []string `yaml:"command"`
}

// GPIOConfig maps input lines of a GPIO chip to sensors.
type GPIOConfig struct {
	// Chip is the GPIO character device name.
	Chip string `yaml:"chip,omitempty"`
	// Debounce filters contact bounce on every line.
	Debounce time.Duration `yaml:"debounce,omitempty"`
	// Bindings lists the monitored lines.
	Bindings []GPIOBinding `yaml:"bindings"`
}

// GPIOBinding connects one input line to one sensor.
type GPIOBinding struct {
	// Line is the line offset on the chip.
	Line int `yaml:"line"`
	// SensorID is the identifier of the sensor driven by the line.
	SensorID string `yaml:"sensor_id"`
	// ActiveLow inverts the line: a low level means the sensor is active.
	ActiveLow bool `yaml:"active_low,omitempty"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "catpoint-settings.yaml"

	// DefaultStateFilename is the default filename for the persisted state.
	DefaultStateFilename = "catpoint-state.yaml"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for config and state files.
	DefaultFilePermissions = 0o600

	// DefaultGPIOChip is the default GPIO character device.
	DefaultGPIOChip = "gpiochip0"

	// DefaultMQTTClientID is the default MQTT client identifier.
	DefaultMQTTClientID = "catpoint"

	// DefaultMQTTTopicPrefix is the default prefix of MQTT event topics.
	DefaultMQTTTopicPrefix = "home/catpoint"

	// DetectorRandom guesses at random, like a coin flip.
	DetectorRandom = "random"

	// DetectorStatic always returns DetectorConfig.CatPresent.
	DetectorStatic = "static"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errUnknownDetector is returned for an unsupported detector kind.
	errUnknownDetector = errors.New("unknown detector kind")
	// errUnknownLogLevel is returned for an unparsable log level.
	errUnknownLogLevel = errors.New("unknown log level")
	// errInvalidBinding is returned for a GPIO binding without sensor or with a negative line.
	errInvalidBinding = errors.New("invalid gpio binding")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills in defaults.
//
//nolint:cyclop // A flat list of independent checks.
func Validate(settings *Config) error {
	if settings.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.StateFile == "" {
		settings.StateFile = DefaultStateFilename
	}

	if settings.LogLevel != "" {
		if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
			return fmt.Errorf("%w: %q", errUnknownLogLevel, settings.LogLevel)
		}
	}

	switch settings.Detector.Kind {
	case "":
		settings.Detector.Kind = DetectorRandom
	case DetectorRandom, DetectorStatic:
	default:
		return fmt.Errorf("%w: %q", errUnknownDetector, settings.Detector.Kind)
	}

	if settings.MQTT.Broker != "" {
		if _, err := url.ParseRequestURI(settings.MQTT.Broker); err != nil {
			return fmt.Errorf("invalid mqtt broker URI: %w", err)
		}

		if settings.MQTT.ClientID == "" {
			settings.MQTT.ClientID = DefaultMQTTClientID
		}

		if settings.MQTT.TopicPrefix == "" {
			settings.MQTT.TopicPrefix = DefaultMQTTTopicPrefix
		}
	}

	if len(settings.GPIO.Bindings) == 0 {
		return nil
	}

	if settings.GPIO.Chip == "" {
		settings.GPIO.Chip = DefaultGPIOChip
	}

	lines := make(map[int]struct{}, len(settings.GPIO.Bindings))

	for i, binding := range settings.GPIO.Bindings {
		if binding.Line < 0 || binding.SensorID == "" {
			return fmt.Errorf("%w: binding #%d", errInvalidBinding, i)
		}

		if _, ok := lines[binding.Line]; ok {
			return fmt.Errorf("%w: line %d is bound twice", errInvalidBinding, binding.Line)
		}

		lines[binding.Line] = struct{}{}
	}

	return nil
}
