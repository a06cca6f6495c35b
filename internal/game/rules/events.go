package rules

import (
	"sync"
	"time"
)

// EventType indicates the category of a rules event.
type EventType string

const (
	// Turn events
	EventTurnStarted  EventType = "TURN_STARTED"
	EventPhaseChanged EventType = "PHASE_CHANGED"
	EventTurnEnded    EventType = "TURN_ENDED"

	// Card events
	EventCardDrawn       EventType = "CARD_DRAWN"
	EventCardPlayed      EventType = "CARD_PLAYED"
	EventCardDiscarded   EventType = "CARD_DISCARDED"
	EventCardDestroyed   EventType = "CARD_DESTROYED"
	EventHeroAbilityUsed EventType = "HERO_ABILITY_USED"

	// Economy events
	EventCapitalChanged     EventType = "CAPITAL_CHANGED"
	EventRevenueGained      EventType = "REVENUE_GAINED"
	EventProductSold        EventType = "PRODUCT_SOLD"
	EventOverheadPaid       EventType = "OVERHEAD_PAID"
	EventProductDeactivated EventType = "PRODUCT_DEACTIVATED"
	EventInventoryChanged   EventType = "INVENTORY_CHANGED"

	// Choice events
	EventChoiceQueued   EventType = "CHOICE_QUEUED"
	EventChoiceResolved EventType = "CHOICE_RESOLVED"

	// Game events
	EventGameOver EventType = "GAME_OVER"

	// Effects whose key has no registered resolver
	EventUnknownEffect EventType = "UNKNOWN_EFFECT"
)

// Event represents a state change that other subsystems may react to.
type Event struct {
	Type      EventType         `json:"type"`
	GameID    string            `json:"game_id,omitempty"`
	PlayerID  string            `json:"player_id,omitempty"`
	SourceID  string            `json:"source_id,omitempty"` // card or choice that caused the event
	TargetID  string            `json:"target_id,omitempty"`
	Amount    int64             `json:"amount,omitempty"`
	Data      string            `json:"data,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// TypedListener defines a callback that reacts to a specific event type.
type TypedListener struct {
	Handle    int
	EventType EventType
	Callback  func(Event)
}

// EventBus provides a synchronous publish/subscribe implementation with type filtering.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener              // All listeners
	typedListeners map[EventType][]TypedListener // Listeners filtered by event type
	nextHandle     int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]TypedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], TypedListener{
		Handle:    handle,
		EventType: eventType,
		Callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle,
// whether it was registered with Subscribe or SubscribeTyped.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously.
// Listeners for all events run before typed listeners.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	for _, listener := range bus.listeners {
		listener(event)
	}
	for _, listener := range bus.typedListeners[event.Type] {
		listener.Callback(event)
	}
}

// NewEvent creates a new event with common fields populated.
func NewEvent(eventType EventType, playerID, sourceID, targetID string) Event {
	return Event{
		Type:      eventType,
		PlayerID:  playerID,
		SourceID:  sourceID,
		TargetID:  targetID,
		Timestamp: time.Now(),
		Metadata:  make(map[string]string),
	}
}

// NewEventWithAmount creates a new event with an amount value.
func NewEventWithAmount(eventType EventType, playerID, sourceID, targetID string, amount int64) Event {
	evt := NewEvent(eventType, playerID, sourceID, targetID)
	evt.Amount = amount
	return evt
}
