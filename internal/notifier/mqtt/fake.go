package mqtt

import "sync"

// Message is a message recorded by FakePublisher.
type Message struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  []byte
}

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	// PublishError, if set, will be returned by Publish.
	PublishError error

	messages []Message
	closed   bool
	mu       sync.Mutex
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return new(FakePublisher)
}

// Publish records the message.
func (f *FakePublisher) Publish(topic string, qos byte, retained bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PublishError != nil {
		return f.PublishError
	}

	f.messages = append(f.messages, Message{
		Topic:    topic,
		QoS:      qos,
		Retained: retained,
		Payload:  payload,
	})

	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true

	return nil
}

// Messages returns a copy of the recorded messages.
func (f *FakePublisher) Messages() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]Message(nil), f.messages...)
}

// Closed reports whether Close was called.
func (f *FakePublisher) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.closed
}
