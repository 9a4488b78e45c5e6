package engine

import "github.com/napolitain/clicker/internal/models"

// EventType represents what changed in the engine
type EventType int

const (
	EventPurchase EventType = iota
	EventClick
	EventPassive
	EventReset
	EventLoad
)

// String returns a string representation of the event type
func (et EventType) String() string {
	switch et {
	case EventPurchase:
		return "Purchase"
	case EventClick:
		return "Click"
	case EventPassive:
		return "Passive"
	case EventReset:
		return "Reset"
	case EventLoad:
		return "Load"
	default:
		return "Unknown"
	}
}

// Event is emitted synchronously at the end of every state change
type Event struct {
	Type    EventType
	Item    models.ItemID // EventPurchase only
	Amount  float64       // cost paid or amount credited
	Balance float64       // balance after the change
}

// Observer receives engine events. Returned errors and panics are logged
// and never reach the engine or other observers.
type Observer func(Event) error
