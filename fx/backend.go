package fx

import (
	"github.com/lixenwraith/stramash/render"
)

// Backend is one independently driven output channel
// Each method starts its effect and returns without blocking
type Backend interface {
	Name() string
	Busy() bool

	Fire(req Request)
	FireFail(req Request)
	Reload(req Request)
	Hit(req Request)
	Powerup(req Request)
	Activate(req Request)
	Deactivate(req Request)
	Shield(req Request)
	Unshield(req Request)

	// Update renders the canonical output for the current state unless busy
	Update()
	// Close waits for running animations then turns the output off
	Close()
}

// StateSource is the read-only view of the player a backend renders from
type StateSource interface {
	DisplayColour() (render.RGB, bool)
	TeamColour() (render.RGB, bool)
}

// NopBackend implements every effect as a no-op
// Embed it and override the effects a backend can show
type NopBackend struct{}

func (NopBackend) Name() string           { return "nop" }
func (NopBackend) Busy() bool             { return false }
func (NopBackend) Fire(req Request)       {}
func (NopBackend) FireFail(req Request)   {}
func (NopBackend) Reload(req Request)     {}
func (NopBackend) Hit(req Request)        {}
func (NopBackend) Powerup(req Request)    {}
func (NopBackend) Activate(req Request)   {}
func (NopBackend) Deactivate(req Request) {}
func (NopBackend) Shield(req Request)     {}
func (NopBackend) Unshield(req Request)   {}
func (NopBackend) Update()                {}
func (NopBackend) Close()                 {}

// dispatch maps each event onto its backend method
var dispatch = [eventCount]func(Backend, Request){
	EventFire:       Backend.Fire,
	EventFireFail:   Backend.FireFail,
	EventReload:     Backend.Reload,
	EventHit:        Backend.Hit,
	EventPowerup:    Backend.Powerup,
	EventActivate:   Backend.Activate,
	EventDeactivate: Backend.Deactivate,
	EventShield:     Backend.Shield,
	EventUnshield:   Backend.Unshield,
	EventUpdate:     func(b Backend, _ Request) { b.Update() },
	EventClose:      func(b Backend, _ Request) { b.Close() },
}
