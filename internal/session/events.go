package session

import (
	"encoding/json"
	"time"

	"github.com/daniacca/doughsim/internal/dough"
)

// EventType names what happened in a session.
type EventType string

const (
	// EventFrame carries a full snapshot, published every FrameEvery steps.
	EventFrame      EventType = "frame"
	EventIngredient EventType = "ingredient"
	EventPhase      EventType = "phase"
	EventForce      EventType = "force"
	EventReset      EventType = "reset"
)

// EventTypes lists every event type a session publishes.
var EventTypes = []EventType{EventFrame, EventIngredient, EventPhase, EventForce, EventReset}

// Event is what notifiers receive.
type Event struct {
	Type      EventType   `json:"type"`
	SessionID ID          `json:"session_id"`
	Timestamp int64       `json:"timestamp"`
	SimTime   float32     `json:"sim_time"`
	Phase     dough.Phase `json:"phase"`

	// Ingredient is "salt" or "yeast" for ingredient events.
	Ingredient string `json:"ingredient,omitempty"`
	// Count is the number of molecules spawned or pushed.
	Count int `json:"count,omitempty"`

	Stats *dough.Stats    `json:"stats,omitempty"`
	Frame *dough.Snapshot `json:"frame,omitempty"`
}

func newEvent(typ EventType, id ID, sim *dough.Simulation) Event {
	return Event{
		Type:      typ,
		SessionID: id,
		Timestamp: time.Now().Unix(),
		SimTime:   sim.Time(),
		Phase:     sim.Phase(),
	}
}

// JSON returns the event as JSON bytes.
func (e Event) JSON() ([]byte, error) {
	return json.Marshal(e)
}

// ParseEventType resolves an event type name.
func ParseEventType(s string) (EventType, bool) {
	for _, t := range EventTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}
