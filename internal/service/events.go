package service

import "sync"

// EventType defines the type of event
type EventType string

const (
	EventRunStarted        EventType = "run_started"
	EventTopologyBuilt     EventType = "topology_built"
	EventIssuesDetected    EventType = "issues_detected"
	EventDemandSimulated   EventType = "demand_simulated"
	EventDiscoveryFinished EventType = "discovery_finished"
	EventRunCompleted      EventType = "run_completed"
	EventRunFailed         EventType = "run_failed"

	EventCollectProgress EventType = "collect_progress"
	EventCollectFailed   EventType = "collect_failed"
)

// Event represents a progress step of an analysis run
type Event struct {
	Type    EventType      `json:"type"`
	RunID   string         `json:"run_id"`
	Payload map[string]any `json:"payload,omitempty"`
}

// EventBus fans events out to subscribers. Publishing never blocks; a slow
// subscriber misses events.
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
	if eb == nil {
		return
	}
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// PublishCollectEvent lets the SSH collector report progress on the bus
func (eb *EventBus) PublishCollectEvent(eventType string, payload map[string]any) {
	eb.Publish(Event{Type: EventType(eventType), Payload: payload})
}
