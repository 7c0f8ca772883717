package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
)

// TestListener_Levels verifies that a full alarm is logged as a warning and other events as info or debug.
func TestListener_Levels(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core).Sugar())
	l := New()

	l.OnAlarmStatusChanged(ctx, domain.PendingAlarm)
	l.OnAlarmStatusChanged(ctx, domain.Alarm)
	l.OnCatDetected(ctx, true)
	l.OnSensorStatusChanged(ctx)

	entries := logs.All()
	require.Len(t, entries, 4)
	require.Equal(t, zapcore.InfoLevel, entries[0].Level)
	require.Equal(t, zapcore.WarnLevel, entries[1].Level)
	require.Equal(t, "events", entries[1].LoggerName)
	require.Equal(t, true, entries[2].ContextMap()["cat_detected"])
	require.Equal(t, zapcore.DebugLevel, entries[3].Level)
}
