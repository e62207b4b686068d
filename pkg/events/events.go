package events

import (
	"sync"
	"time"
)

// Op is the kind of table mutation an Event carries.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event is one committed row mutation, published once per table per
// reducer transaction that touches it.
type Event struct {
	Table     string
	Op        Op
	Row       any
	Timestamp time.Time
}

// Subscriber is a channel that receives events for its subscribed tables.
type Subscriber chan *Event

// Broker fans committed table events out to subscribers, matching the
// table-subscription contract: clients subscribe by table name and
// receive insert/update/delete rows per committed transaction.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[Subscriber]map[string]bool // nil/empty set means "all tables"
	eventCh     chan *Event
	stopCh      chan struct{}
}

// NewBroker creates a new event broker.
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]map[string]bool),
		eventCh:     make(chan *Event, 256),
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's event distribution loop.
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the broker.
func (b *Broker) Stop() {
	close(b.stopCh)
}

// Subscribe creates a subscription to the given tables. An empty tables
// list subscribes to every table.
func (b *Broker) Subscribe(tables ...string) Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 128)
	set := make(map[string]bool, len(tables))
	for _, t := range tables {
		set[t] = true
	}
	b.subscribers[sub] = set
	return sub
}

// Unsubscribe removes a subscription.
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	close(sub)
}

// Publish publishes an event to every subscriber watching its table.
func (b *Broker) Publish(event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	}
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub, tables := range b.subscribers {
		if len(tables) > 0 && !tables[event.Table] {
			continue
		}
		select {
		case sub <- event:
		default:
			// Subscriber buffer full, drop rather than block the broker.
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
