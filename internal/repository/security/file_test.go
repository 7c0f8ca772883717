package security

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// TestFileRepository_MissingFile verifies that a missing file opens as an empty state.
func TestFileRepository_MissingFile(t *testing.T) {
	t.Parallel()

	repo, err := NewFileRepository(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	sensors, err := repo.Sensors(context.Background())
	require.NoError(t, err)
	require.Empty(t, sensors)
}

// TestFileRepository_Reopen ensures writes are visible after reopening the file.
func TestFileRepository_Reopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "state.yaml")

	repo, err := NewFileRepository(file)
	require.NoError(t, err)

	sensor := domain.NewSensor("Hall", domain.Motion)
	sensor.Active = true

	require.NoError(t, repo.AddSensor(ctx, sensor))
	require.NoError(t, repo.SetArmingStatus(ctx, domain.ArmedHome))
	require.NoError(t, repo.SetAlarmStatus(ctx, domain.Alarm))

	reopened, err := NewFileRepository(file)
	require.NoError(t, err)

	arming, err := reopened.ArmingStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.ArmedHome, arming)

	alarm, err := reopened.AlarmStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.Alarm, alarm)

	sensors, err := reopened.Sensors(ctx)
	require.NoError(t, err)
	require.Equal(t, []*domain.Sensor{sensor}, sensors)
}

// TestFileRepository_FailedWriteKeepsState verifies that a write error does not change the state.
func TestFileRepository_FailedWriteKeepsState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "state")
	require.NoError(t, os.Mkdir(dir, 0o700))

	// The state path is a directory, so every write fails.
	repo := &FileRepository{
		path: dir,
		doc:  new(document),
	}

	require.Error(t, repo.SetAlarmStatus(ctx, domain.Alarm))

	alarm, err := repo.AlarmStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.NoAlarm, alarm)
}

// TestFileRepository_CorruptFile verifies that undecodable content is reported.
func TestFileRepository_CorruptFile(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(file, []byte("arming_status: SOMETIMES\n"), 0o600))

	_, err := NewFileRepository(file)
	require.Error(t, err)
}
