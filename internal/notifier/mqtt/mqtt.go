// Package mqtt publishes coordinator events to an MQTT broker.
//
// The Listener never blocks the coordinator: events are queued and a
// background loop started with Run hands them to a Publisher. The broker-backed
// publisher lives in real.go, a recording fake for tests in fake.go.
package mqtt

import (
	"context"
	"encoding/json"
	"time"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
)

// Topic suffixes appended to the configured prefix.
const (
	TopicAlarm   = "alarm"
	TopicCamera  = "camera"
	TopicSensors = "sensors"
)

// Event kinds carried in payloads.
const (
	EventAlarmStatus   = "ALARM_STATUS"
	EventCatDetected   = "CAT_DETECTED"
	EventSensorRefresh = "SENSOR_REFRESH"
)

// defaultQueueSize is the number of events buffered before new ones are dropped.
const defaultQueueSize = 64

// Publisher sends raw messages to a broker.
type Publisher interface {
	// Publish sends payload to topic. Failures are reported, never fatal.
	Publish(topic string, qos byte, retained bool, payload []byte) error

	// Close disconnects from the broker.
	Close() error
}

// Payload is the JSON body of every event message.
type Payload struct {
	Timestamp   string `json:"timestamp"`
	Event       string `json:"event"`
	AlarmStatus string `json:"alarm_status,omitempty"`
	CatDetected *bool  `json:"cat_detected,omitempty"`
}

// message is a queued, already formatted event.
type message struct {
	topic    string
	retained bool
	payload  Payload
}

// Listener turns coordinator events into MQTT messages.
type Listener struct {
	// publisher delivers messages to the broker.
	publisher Publisher
	// prefix is prepended to every topic.
	prefix string
	// queue decouples the coordinator from broker latency.
	queue chan message
	// now returns the event timestamp.
	now func() time.Time
}

// NewListener creates a listener publishing under the given topic prefix.
func NewListener(publisher Publisher, prefix string) *Listener {
	return &Listener{
		publisher: publisher,
		prefix:    prefix,
		queue:     make(chan message, defaultQueueSize),
		now:       time.Now,
	}
}

// OnAlarmStatusChanged queues a retained alarm status message.
func (l *Listener) OnAlarmStatusChanged(ctx context.Context, status domain.AlarmStatus) {
	l.enqueue(ctx, message{
		topic:    TopicAlarm,
		retained: true,
		payload: Payload{
			Event:       EventAlarmStatus,
			AlarmStatus: status.String(),
		},
	})
}

// OnCatDetected queues a camera message.
func (l *Listener) OnCatDetected(ctx context.Context, catDetected bool) {
	l.enqueue(ctx, message{
		topic: TopicCamera,
		payload: Payload{
			Event:       EventCatDetected,
			CatDetected: &catDetected,
		},
	})
}

// OnSensorStatusChanged queues a refresh message.
func (l *Listener) OnSensorStatusChanged(ctx context.Context) {
	l.enqueue(ctx, message{
		topic:   TopicSensors,
		payload: Payload{Event: EventSensorRefresh},
	})
}

// enqueue stamps the message and drops it when the queue is full.
func (l *Listener) enqueue(ctx context.Context, msg message) {
	msg.payload.Timestamp = l.now().UTC().Format(time.RFC3339)

	select {
	case l.queue <- msg:
	default:
		logger.WarnKV(ctx, "MQTT queue full, dropping event", "event", msg.payload.Event)
	}
}

// Run publishes queued events until ctx is canceled.
func (l *Listener) Run(ctx context.Context) {
	ctx = logger.WithName(ctx, "mqtt")

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-l.queue:
			if err := l.publish(msg); err != nil {
				logger.ErrorKV(ctx, "MQTT publish failed", "topic", msg.topic, "error", err)
			}
		}
	}
}

func (l *Listener) publish(msg message) error {
	data, err := json.Marshal(msg.payload)
	if err != nil {
		return err
	}

	// QoS 1 (at-least-once): alarm events must reach subscribers.
	return l.publisher.Publish(l.prefix+"/"+msg.topic, 1, msg.retained, data)
}
