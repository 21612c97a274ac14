package player

import (
	"sync"

	"go.uber.org/zap"

	"github.com/lixenwraith/stramash/fx"
	"github.com/lixenwraith/stramash/render"
)

// Effects receives the paired effect and the resync of every transition
type Effects interface {
	Trigger(ev fx.Event)
}

// Player owns the combat state of the device operator
// Flags change only through the transition pairs below
type Player struct {
	id  string
	log *zap.Logger

	mu             sync.RWMutex
	flags          Flags
	team           *Team
	game           string
	effects        Effects
	onStateChanged func(Flags)
}

// New creates a player that is alive and otherwise idle
func New(id string, log *zap.Logger) *Player {
	if log == nil {
		log = zap.NewNop()
	}
	return &Player{
		id:    id,
		log:   log.Named("player"),
		flags: Alive,
	}
}

// ID returns the unique player identifier
func (p *Player) ID() string {
	return p.id
}

// SetEffects attaches the effect engine driven by transitions
func (p *Player) SetEffects(e Effects) {
	p.mu.Lock()
	p.effects = e
	p.mu.Unlock()
}

// OnStateChanged sets the external notification, nil clears it
func (p *Player) OnStateChanged(fn func(Flags)) {
	p.mu.Lock()
	p.onStateChanged = fn
	p.mu.Unlock()
}

// State returns a snapshot of the flags
func (p *Player) State() Flags {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.flags
}

// Team returns the current team assignment
func (p *Player) Team() (Team, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.team == nil {
		return Team{}, false
	}
	return *p.team, true
}

// Game returns the joined game id, empty when not in a game
func (p *Player) Game() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.game
}

// DisplayColour returns the colour a backend should render for the current state
// ok is false without a team; callers fall back to their base colour
func (p *Player) DisplayColour() (render.RGB, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.team == nil {
		return render.RGBBlack, false
	}
	return p.flags.DisplayColour(p.team.Colour), true
}

// TeamColour returns the team colour, ok is false without a team
func (p *Player) TeamColour() (render.RGB, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.team == nil {
		return render.RGBBlack, false
	}
	return p.team.Colour, true
}

// JoinGame enters a game
func (p *Player) JoinGame(game string) {
	p.apply("joingame", func() {
		p.game = game
		p.flags |= InGame
	})
}

// LeaveGame leaves the current game
func (p *Player) LeaveGame() {
	p.apply("leavegame", func() {
		p.game = ""
		p.flags &^= InGame
	})
}

// Assign puts the player on a team
func (p *Player) Assign(team Team) {
	p.apply("assign", func() {
		p.team = &team
		p.flags |= InTeam
	})
}

// Unassign removes the team
func (p *Player) Unassign() {
	p.apply("unassign", func() {
		p.team = nil
		p.flags &^= InTeam
	})
}

// Up activates the player for play
func (p *Player) Up() {
	p.apply("up", func() { p.flags |= Up }, fx.EventActivate)
}

// Down deactivates the player
func (p *Player) Down() {
	p.apply("down", func() { p.flags &^= Up }, fx.EventDeactivate)
}

// Shield makes the player unhittable
func (p *Player) Shield() {
	p.apply("shield", func() { p.flags |= Shielded }, fx.EventShield)
}

// Unshield removes the shield
func (p *Player) Unshield() {
	p.apply("unshield", func() { p.flags &^= Shielded }, fx.EventUnshield)
}

// Kill marks the player dead
func (p *Player) Kill() {
	p.apply("kill", func() { p.flags &^= Alive }, fx.EventDeactivate)
}

// Resurrect brings the player back to life
func (p *Player) Resurrect() {
	p.apply("resurrect", func() { p.flags |= Alive }, fx.EventActivate)
}

// Kick bars the player from play
func (p *Player) Kick() {
	p.apply("kick", func() { p.flags |= Kicked }, fx.EventDeactivate)
}

// Reinstate lifts a kick
func (p *Player) Reinstate() {
	p.apply("reinstate", func() { p.flags &^= Kicked }, fx.EventActivate)
}

// apply mutates under the lock, then runs effects and the notification outside it
// Backends read DisplayColour during Update, so the lock must be released first
func (p *Player) apply(op string, mutate func(), paired ...fx.Event) {
	p.mu.Lock()
	mutate()
	state := p.flags
	effects := p.effects
	notify := p.onStateChanged
	p.mu.Unlock()

	p.log.Debug("state changed", zap.String("op", op), zap.Stringer("state", state))

	if effects != nil {
		for _, ev := range paired {
			effects.Trigger(ev)
		}
		effects.Trigger(fx.EventUpdate)
	}

	if notify != nil {
		notify(state)
	}
}
