// Package logging provides a status listener that records every coordinator
// event in the structured log.
package logging

import (
	"context"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
)

// Listener writes coordinator events to the context logger.
type Listener struct{}

// New creates a logging listener.
func New() *Listener {
	return new(Listener)
}

// OnAlarmStatusChanged logs the new alarm status. A full alarm is logged as a warning.
func (l *Listener) OnAlarmStatusChanged(ctx context.Context, status domain.AlarmStatus) {
	ctx = logger.WithName(ctx, "events")

	if status == domain.Alarm {
		logger.WarnKV(ctx, "ALARM raised", "alarm_status", status)
		return
	}

	logger.InfoKV(ctx, "Alarm status event", "alarm_status", status)
}

// OnCatDetected logs the camera result.
func (l *Listener) OnCatDetected(ctx context.Context, catDetected bool) {
	logger.InfoKV(logger.WithName(ctx, "events"), "Camera event", "cat_detected", catDetected)
}

// OnSensorStatusChanged logs the refresh signal at debug level.
func (l *Listener) OnSensorStatusChanged(ctx context.Context) {
	logger.Debug(logger.WithName(ctx, "events"), "Sensor status refresh")
}
