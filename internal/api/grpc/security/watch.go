package security

import (
	"context"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
)

// watchBuffer is the number of events buffered per subscriber.
const watchBuffer = 32

// streamListener forwards coordinator events to one Watch subscriber.
// Events are dropped when the subscriber falls behind; the next delivered
// event is then followed by a resync of the current state.
type streamListener struct {
	events  chan *Event
	dropped atomic.Bool
}

func newStreamListener(size int) *streamListener {
	return &streamListener{
		events: make(chan *Event, size),
	}
}

func (l *streamListener) OnAlarmStatusChanged(ctx context.Context, status domain.AlarmStatus) {
	l.offer(ctx, &Event{Kind: EventAlarmStatus, AlarmStatus: status})
}

func (l *streamListener) OnCatDetected(ctx context.Context, catDetected bool) {
	l.offer(ctx, &Event{Kind: EventCatDetected, CatDetected: catDetected})
}

func (l *streamListener) OnSensorStatusChanged(ctx context.Context) {
	l.offer(ctx, &Event{Kind: EventSensorStatus})
}

func (l *streamListener) offer(ctx context.Context, event *Event) {
	select {
	case l.events <- event:
	default:
		l.dropped.Store(true)
		logger.WarnKV(ctx, "Watch subscriber is slow, dropping event", "kind", event.Kind)
	}
}

// Watch streams coordinator events until the client goes away or the server
// shuts down. The first message carries the current alarm status.
func (s *Server) Watch(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ctx := stream.Context()
	listener := newStreamListener(watchBuffer)

	s.service.AddStatusListener(listener)
	defer s.service.RemoveStatusListener(listener)

	snapshot, err := s.service.Snapshot(ctx)
	if err != nil {
		return toStatus(ctx, "unable to read state", err)
	}

	current := &Event{Kind: EventAlarmStatus, AlarmStatus: snapshot.AlarmStatus}
	if err = stream.Send(EventToProto(current)); err != nil {
		return err
	}

	logger.Info(ctx, "Watch subscriber attached")

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Watch subscriber detached")
			return nil
		case <-s.shutdown:
			logger.Info(ctx, "Closing Watch stream on shutdown")
			return nil
		case event := <-listener.events:
			if err = s.deliver(ctx, listener, event, stream.Send); err != nil {
				return err
			}
		}
	}
}

// deliver sends one event. If events were dropped since the last delivery,
// the current alarm status and a sensor refresh follow it.
func (s *Server) deliver(
	ctx context.Context,
	listener *streamListener,
	event *Event,
	send func(*structpb.Struct) error,
) error {
	if err := send(EventToProto(event)); err != nil {
		return err
	}

	if !listener.dropped.Swap(false) {
		return nil
	}

	snapshot, err := s.service.Snapshot(ctx)
	if err != nil {
		return toStatus(ctx, "unable to read state", err)
	}

	logger.DebugKV(ctx, "Resyncing Watch subscriber", "alarm_status", snapshot.AlarmStatus)

	if err = send(EventToProto(&Event{Kind: EventAlarmStatus, AlarmStatus: snapshot.AlarmStatus})); err != nil {
		return err
	}

	return send(EventToProto(&Event{Kind: EventSensorStatus}))
}
