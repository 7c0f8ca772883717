package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// newTestListener returns a listener with a fixed clock.
func newTestListener(publisher Publisher) *Listener {
	l := NewListener(publisher, "home/catpoint")
	l.now = func() time.Time {
		return time.Date(2026, 10, 17, 21, 30, 0, 0, time.UTC)
	}

	return l
}

// TestListener_PublishesEvents verifies topics, retain flags and payloads.
func TestListener_PublishesEvents(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		publisher := NewFakePublisher()
		l := newTestListener(publisher)

		go l.Run(ctx)

		l.OnAlarmStatusChanged(ctx, domain.PendingAlarm)
		l.OnCatDetected(ctx, false)
		l.OnSensorStatusChanged(ctx)

		synctest.Wait()

		messages := publisher.Messages()
		require.Len(t, messages, 3)

		require.Equal(t, "home/catpoint/alarm", messages[0].Topic)
		require.True(t, messages[0].Retained)
		require.Equal(t, byte(1), messages[0].QoS)
		require.JSONEq(t,
			`{"timestamp":"2026-10-17T21:30:00Z","event":"ALARM_STATUS","alarm_status":"PENDING_ALARM"}`,
			string(messages[0].Payload))

		require.Equal(t, "home/catpoint/camera", messages[1].Topic)
		require.False(t, messages[1].Retained)

		var payload Payload
		require.NoError(t, json.Unmarshal(messages[1].Payload, &payload))
		require.NotNil(t, payload.CatDetected)
		require.False(t, *payload.CatDetected)

		require.Equal(t, "home/catpoint/sensors", messages[2].Topic)
	})
}

// TestListener_PublishErrorIsNotFatal verifies that a failing broker does not stop the loop.
func TestListener_PublishErrorIsNotFatal(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		publisher := NewFakePublisher()
		publisher.PublishError = errors.New("broker unavailable")

		l := newTestListener(publisher)
		done := make(chan struct{})

		go func() {
			l.Run(ctx)
			close(done)
		}()

		l.OnAlarmStatusChanged(ctx, domain.Alarm)
		synctest.Wait()
		require.Empty(t, publisher.Messages())

		cancel()
		<-done
	})
}

// TestListener_DropsWhenFull verifies that a full queue never blocks the caller.
func TestListener_DropsWhenFull(t *testing.T) {
	t.Parallel()

	l := newTestListener(NewFakePublisher())

	// Nothing drains the queue.
	for range defaultQueueSize + 10 {
		l.OnSensorStatusChanged(context.Background())
	}

	require.Len(t, l.queue, defaultQueueSize)
}
