package server

import (
	"context"
	"sync"
	"time"
)

const (
	RealtimeEventResourceChanged = "resource-change"
	realtimeEventHeartbeat       = "heartbeat"

	RealtimeActionCreated = "created"
	RealtimeActionUpdated = "updated"
	RealtimeActionDeleted = "deleted"

	RealtimeResourceDocuments     = "documents"
	RealtimeResourceRooms         = "rooms"
	RealtimeResourceDistributions = "distributions"
)

// RealtimeMessage announces one successful mutation. Every signed-in
// subscriber receives every message; the registry is shared office-wide.
type RealtimeMessage struct {
	Resource  string    `json:"resource"`
	Action    string    `json:"action"`
	IDs       []string  `json:"ids,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type RealtimeDispatcher struct {
	mu          sync.RWMutex
	subscribers map[int64]*realtimeSubscriber
	nextID      int64
	bufferSize  int
}

type realtimeSubscriber struct {
	id     int64
	stream chan RealtimeMessage
}

func NewRealtimeDispatcher() *RealtimeDispatcher {
	return &RealtimeDispatcher{
		subscribers: make(map[int64]*realtimeSubscriber),
		bufferSize:  16,
	}
}

func (d *RealtimeDispatcher) Subscribe(ctx context.Context) (<-chan RealtimeMessage, func()) {
	subscriber := &realtimeSubscriber{
		id:     d.nextSequence(),
		stream: make(chan RealtimeMessage, d.bufferSize),
	}
	d.registerSubscriber(subscriber)
	cleanup := func() {
		d.unregisterSubscriber(subscriber.id)
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return subscriber.stream, cleanup
}

// Publish fans the message out without blocking: a subscriber with a full
// buffer misses the message instead of stalling the mutation path.
func (d *RealtimeDispatcher) Publish(message RealtimeMessage) {
	if message.Resource == "" || message.Action == "" {
		return
	}
	d.mu.RLock()
	copies := make([]*realtimeSubscriber, 0, len(d.subscribers))
	for _, subscriber := range d.subscribers {
		copies = append(copies, subscriber)
	}
	d.mu.RUnlock()
	for _, subscriber := range copies {
		select {
		case subscriber.stream <- message:
		default:
		}
	}
}

func (d *RealtimeDispatcher) nextSequence() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	return d.nextID
}

func (d *RealtimeDispatcher) registerSubscriber(subscriber *realtimeSubscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscribers[subscriber.id] = subscriber
}

func (d *RealtimeDispatcher) unregisterSubscriber(subscriberID int64) {
	d.mu.Lock()
	delete(d.subscribers, subscriberID)
	d.mu.Unlock()
}
