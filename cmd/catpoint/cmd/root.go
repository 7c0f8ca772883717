package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/catpoint/internal/config"
	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/service/client"
	"github.com/oshokin/catpoint/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides the server address from config.
	serverAddress string

	// rootCmd represents the base command of the control client.
	rootCmd = &cobra.Command{
		Use:   "catpoint",
		Short: "Control the home security coordinator.",
		Long: `Connects to catpoint-server to arm or disarm the system, manage sensors,
submit camera frames and watch alarm events.

Server address is loaded from configuration file unless --server is given.`,
		SilenceUsage: true,
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show arming mode, alarm status and sensors.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, client.Status)
		},
	}

	armCmd = &cobra.Command{
		Use:       "arm home|away",
		Short:     "Arm the system.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"home", "away"},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := domain.ParseArmingStatus(args[0])
			if err != nil {
				return err
			}

			if !mode.IsArmed() {
				return fmt.Errorf("%w: use disarm", domain.ErrUnknownArmingStatus)
			}

			return run(cmd, func(ctx context.Context, opts *client.Options) error {
				return client.SetArmingStatus(ctx, opts, mode)
			})
		},
	}

	disarmCmd = &cobra.Command{
		Use:   "disarm",
		Short: "Disarm the system and clear the alarm.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx context.Context, opts *client.Options) error {
				return client.SetArmingStatus(ctx, opts, domain.Disarmed)
			})
		},
	}

	sensorsCmd = &cobra.Command{
		Use:   "sensors",
		Short: "List and manage sensors.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, client.ListSensors)
		},
	}

	sensorsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List sensors.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, client.ListSensors)
		},
	}

	sensorsAddCmd = &cobra.Command{
		Use:   "add <name> DOOR|WINDOW|MOTION",
		Short: "Add an inactive sensor.",
		Args:  cobra.ExactArgs(2), //nolint:mnd // Name and type.
		RunE: func(cmd *cobra.Command, args []string) error {
			sensorType, err := domain.ParseSensorType(args[1])
			if err != nil {
				return err
			}

			return run(cmd, func(ctx context.Context, opts *client.Options) error {
				return client.AddSensor(ctx, opts, args[0], sensorType)
			})
		},
	}

	sensorsRemoveCmd = &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a sensor.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, opts *client.Options) error {
				return client.RemoveSensor(ctx, opts, args[0])
			})
		},
	}

	sensorCmd = &cobra.Command{
		Use:   "sensor",
		Short: "Change the state of one sensor.",
	}

	sensorActivateCmd = &cobra.Command{
		Use:   "activate <id>",
		Short: "Mark a sensor as active (door open, motion seen).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, opts *client.Options) error {
				return client.ChangeSensorActivation(ctx, opts, args[0], true)
			})
		},
	}

	sensorDeactivateCmd = &cobra.Command{
		Use:   "deactivate <id>",
		Short: "Mark a sensor as inactive.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, opts *client.Options) error {
				return client.ChangeSensorActivation(ctx, opts, args[0], false)
			})
		},
	}

	cameraCmd = &cobra.Command{
		Use:   "camera <image-file>",
		Short: "Submit a camera frame for cat detection.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, opts *client.Options) error {
				return client.ProcessImage(ctx, opts, args[0])
			})
		},
	}

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Print alarm events as they happen.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, client.Watch)
		},
	}
)

// run executes a client action with signal-aware context and shared options.
func run(cmd *cobra.Command, action func(context.Context, *client.Options) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return action(ctx, &client.Options{
		ConfigPath:    cfgPath,
		ServerAddress: serverAddress,
		Out:           cmd.OutOrStdout(),
	})
}

// Execute runs the catpoint CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVar(&serverAddress, "server", "", "server address, overrides server_addr from config")

	sensorsCmd.AddCommand(sensorsListCmd, sensorsAddCmd, sensorsRemoveCmd)
	sensorCmd.AddCommand(sensorActivateCmd, sensorDeactivateCmd)
	rootCmd.AddCommand(statusCmd, armCmd, disarmCmd, sensorsCmd, sensorCmd, cameraCmd, watchCmd)
}
