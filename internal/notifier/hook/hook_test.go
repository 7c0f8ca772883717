package hook

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// TestNew_RequiresCommand verifies that an empty command line is rejected.
func TestNew_RequiresCommand(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	require.ErrorIs(t, err, ErrEmptyCommand)

	_, err = New([]string{""})
	require.ErrorIs(t, err, ErrEmptyCommand)
}

// TestListener_StartsOnAlarmOnly verifies that only a full alarm starts the command.
func TestListener_StartsOnAlarmOnly(t *testing.T) {
	t.Parallel()

	l, err := New([]string{"siren", "--loud"})
	require.NoError(t, err)

	var started []*exec.Cmd

	l.start = func(cmd *exec.Cmd) error {
		started = append(started, cmd)
		return nil
	}

	ctx := context.Background()
	l.OnAlarmStatusChanged(ctx, domain.PendingAlarm)
	l.OnAlarmStatusChanged(ctx, domain.NoAlarm)
	l.OnCatDetected(ctx, true)
	l.OnSensorStatusChanged(ctx)
	require.Empty(t, started)

	l.OnAlarmStatusChanged(ctx, domain.Alarm)
	require.Len(t, started, 1)
	require.Equal(t, []string{"siren", "--loud"}, started[0].Args)
	require.Contains(t, started[0].Env, EnvAlarmStatus+"=ALARM")

	// A start failure is logged, not propagated.
	l.start = func(*exec.Cmd) error { return errors.New("exec format error") }
	l.OnAlarmStatusChanged(ctx, domain.Alarm)
}

// TestListener_ReapsFinishedCommands runs a real command and checks it is waited for.
func TestListener_ReapsFinishedCommands(t *testing.T) {
	t.Parallel()

	path, err := exec.LookPath("true")
	if err != nil {
		t.Skip("true is not available")
	}

	l, err := New([]string{path})
	require.NoError(t, err)

	var (
		started []*exec.Cmd
		start   = l.start
	)

	l.start = func(cmd *exec.Cmd) error {
		started = append(started, cmd)
		return start(cmd)
	}

	for range 3 {
		l.OnAlarmStatusChanged(context.Background(), domain.Alarm)
	}

	l.wait()

	require.Len(t, started, 3)

	for _, cmd := range started {
		require.NotNil(t, cmd.ProcessState)
		require.True(t, cmd.ProcessState.Exited())
		require.Zero(t, cmd.ProcessState.ExitCode())
	}
}
