package fx

import (
	"time"

	"github.com/lixenwraith/stramash/render"
)

// Event is the closed vocabulary of effect requests
type Event uint8

const (
	// EventFire plays when a shot leaves the emitter
	EventFire Event = iota

	// EventFireFail plays when the trigger is pulled with no ammo
	EventFireFail

	// EventReload runs for the reload time as a visual countdown
	// Payload: Duration = reload time
	EventReload

	// EventHit plays when a verified hit lands on the sensor
	EventHit

	// EventPowerup plays when a powerup is granted
	EventPowerup

	// EventActivate fades in when the player comes up or is resurrected
	EventActivate

	// EventDeactivate fades out when the player goes down, dies or is kicked
	EventDeactivate

	// EventShield plays when the shield goes up
	EventShield

	// EventUnshield plays when the shield drops
	EventUnshield

	// EventUpdate resyncs outputs to the player state, no-op on a busy backend
	EventUpdate

	// EventClose turns outputs off after in-flight animations finish
	EventClose

	eventCount
)

var eventNames = [eventCount]string{
	EventFire:       "fire",
	EventFireFail:   "firefail",
	EventReload:     "reload",
	EventHit:        "hit",
	EventPowerup:    "powerup",
	EventActivate:   "activate",
	EventDeactivate: "deactivate",
	EventShield:     "shield",
	EventUnshield:   "unshield",
	EventUpdate:     "update",
	EventClose:      "close",
}

// String returns the event name
func (e Event) String() string {
	if !e.Valid() {
		return "unknown"
	}
	return eventNames[e]
}

// Valid returns true for members of the closed set
func (e Event) Valid() bool {
	return e < eventCount
}

// ParseEvent resolves an event by name
func ParseEvent(name string) (Event, bool) {
	for i, n := range eventNames {
		if n == name {
			return Event(i), true
		}
	}
	return 0, false
}

// Request is one effect trigger with its optional payload
type Request struct {
	Event    Event
	Duration time.Duration // zero means backend default
	Colour   *render.RGB   // nil means backend default
}

// durationOr returns the payload duration or def
func (r Request) durationOr(def time.Duration) time.Duration {
	if r.Duration > 0 {
		return r.Duration
	}
	return def
}

// colourOr returns the payload colour or def
func (r Request) colourOr(def render.RGB) render.RGB {
	if r.Colour != nil {
		return *r.Colour
	}
	return def
}
