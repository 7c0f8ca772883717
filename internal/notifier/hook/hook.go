// Package hook starts an external command, typically a siren or a phone
// notifier script, whenever the coordinator raises a full alarm.
package hook

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
)

// EnvAlarmStatus is the environment variable carrying the alarm status to the command.
const EnvAlarmStatus = "CATPOINT_ALARM_STATUS"

// ErrEmptyCommand indicates a hook without an executable.
var ErrEmptyCommand = errors.New("hook command is empty")

// Starter launches a prepared command without waiting for it.
type Starter func(cmd *exec.Cmd) error

// Listener runs a command on every transition into ALARM.
type Listener struct {
	// command is the executable followed by its arguments.
	command []string
	// start launches the command, (*exec.Cmd).Start by default.
	start Starter
	// running tracks started commands until they are reaped.
	running sync.WaitGroup
}

// New creates a hook listener for the given command line.
func New(command []string) (*Listener, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, ErrEmptyCommand
	}

	return &Listener{
		command: append([]string(nil), command...),
		start: func(cmd *exec.Cmd) error {
			return cmd.Start()
		},
	}, nil
}

// OnAlarmStatusChanged starts the command when the status is ALARM.
// The command runs in the background and is reaped when it exits.
func (l *Listener) OnAlarmStatusChanged(ctx context.Context, status domain.AlarmStatus) {
	if status != domain.Alarm {
		return
	}

	ctx = logger.WithName(ctx, "hook")

	//nolint:gosec // The command line comes from the operator's configuration.
	cmd := exec.Command(l.command[0], l.command[1:]...)
	cmd.Env = append(os.Environ(), fmt.Sprintf("%s=%s", EnvAlarmStatus, status))

	if err := l.start(cmd); err != nil {
		logger.ErrorKV(ctx, "Alarm hook failed to start", "command", l.command[0], "error", err)
		return
	}

	logger.InfoKV(ctx, "Alarm hook started", "command", l.command[0])

	if cmd.Process == nil {
		return
	}

	l.running.Go(func() {
		if err := cmd.Wait(); err != nil {
			logger.WarnKV(ctx, "Alarm hook exited with error", "command", l.command[0], "error", err)
			return
		}

		logger.DebugKV(ctx, "Alarm hook finished", "command", l.command[0])
	})
}

// wait blocks until every started command has been reaped.
func (l *Listener) wait() {
	l.running.Wait()
}

// OnCatDetected is a no-op.
func (l *Listener) OnCatDetected(context.Context, bool) {}

// OnSensorStatusChanged is a no-op.
func (l *Listener) OnSensorStatusChanged(context.Context) {}
