package service

import "sync"

// EventType defines the type of event
type EventType string

const (
	EventFrame         EventType = "frame"
	EventNavigate      EventType = "navigate"
	EventViewCreated   EventType = "view_created"
	EventViewClosed    EventType = "view_closed"
	EventViewRebuilt   EventType = "view_rebuilt"
	EventGraphImported EventType = "graph_imported"
	EventGraphCleared  EventType = "graph_cleared"
	EventGraphChanged  EventType = "graph_changed"
)

// Event represents an event that occurred in the system. View and Client
// narrow delivery; empty values reach everyone.
type Event struct {
	Type    EventType   `json:"type"`
	View    string      `json:"view,omitempty"`
	Client  string      `json:"-"`
	Payload interface{} `json:"payload,omitempty"`
}

// NavigatePayload carries the location resolved by a double-click
type NavigatePayload struct {
	NodeID   string `json:"node_id"`
	Location string `json:"location"`
}

// EventBus allows publishing and subscribing to events
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, ch)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}
