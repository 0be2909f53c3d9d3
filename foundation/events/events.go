// Package events fans out run progress to any number of subscribers.
package events

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Set of message kinds sent to subscribers.
const (
	KindLog     = "log"
	KindMarkers = "markers"
	KindDone    = "done"
)

// Message is a single event delivered to a subscriber. Run is the key of
// the run that produced it.
type Message struct {
	Kind string          `json:"kind"`
	Run  string          `json:"run,omitempty"`
	Body json.RawMessage `json:"body,omitempty"`
}

// NewMessage marshals the body into a message of the specified kind.
func NewMessage(kind string, run string, body any) (Message, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return Message{}, fmt.Errorf("marshal %s body: %w", kind, err)
	}

	return Message{Kind: kind, Run: run, Body: data}, nil
}

// Events maintains a mapping of unique id and channels so goroutines
// can register and receive events.
type Events struct {
	m  map[string]chan Message
	mu sync.RWMutex
}

// New constructs an events for registering and receiving events.
func New() *Events {
	return &Events{
		m: make(map[string]chan Message),
	}
}

// Shutdown closes and removes all channels that were provided by
// the call to Acquire.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.m {
		delete(evt.m, id)
		close(ch)
	}
}

// Acquire takes a unique id and returns a channel that can be used
// to receive events.
func (evt *Events) Acquire(id string) <-chan Message {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if exists {
		return ch
	}

	// A marker batch is dropped if the receiver falls this far behind.
	const messageBuffer = 100

	evt.m[id] = make(chan Message, messageBuffer)
	return evt.m[id]
}

// Release closes and removes the channel that was provided by
// the call to Acquire.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(ch)
	return nil
}

// Subscribers returns the number of registered channels.
func (evt *Events) Subscribers() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.m)
}

// Send signals a message to every registered channel. Send will not block
// waiting for a receiver on any given channel and reports how many
// channels dropped the message.
func (evt *Events) Send(msg Message) int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	var dropped int
	for _, ch := range evt.m {
		select {
		case ch <- msg:
		default:
			dropped++
		}
	}

	return dropped
}

// SendLog sends a formatted progress line.
func (evt *Events) SendLog(run string, s string) {
	data, _ := json.Marshal(s)
	evt.Send(Message{Kind: KindLog, Run: run, Body: data})
}
