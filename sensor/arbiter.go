package sensor

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/stramash/fx"
	"github.com/lixenwraith/stramash/player"
)

// Receiver delivers decoded infrared codes
// A repeat code arrives with data <= 0
type Receiver interface {
	SetHandler(fn func(address, data, control int))
	Close() error
}

// Player is the victim side of a hit
type Player interface {
	State() player.Flags
	Team() (player.Team, bool)
}

// Effects receives the hit effect
type Effects interface {
	Trigger(ev fx.Event)
}

// Config for one sensor
type Config struct {
	ID              uint8
	Name            string
	ExcludeFriendly bool
}

// Arbiter decides which received codes count as hits on the player
type Arbiter struct {
	cfg     Config
	log     *zap.Logger
	player  Player
	effects Effects
	now     func() time.Time

	mu             sync.Mutex
	hits           []HitRecord
	onHit          func(HitRecord)
	onFriendlyFire func(HitRecord)
}

// NewArbiter creates an arbiter; attach it to a receiver with Listen
func NewArbiter(cfg Config, p Player, effects Effects, log *zap.Logger) *Arbiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Arbiter{
		cfg:     cfg,
		log:     log.Named("sensor").With(zap.String("sensor", cfg.Name), zap.Uint8("id", cfg.ID)),
		player:  p,
		effects: effects,
		now:     time.Now,
	}
}

// Listen routes codes from r into HandleCode
func (a *Arbiter) Listen(r Receiver) {
	r.SetHandler(a.HandleCode)
}

// OnHit is called for every counted hit
func (a *Arbiter) OnHit(fn func(HitRecord)) {
	a.mu.Lock()
	a.onHit = fn
	a.mu.Unlock()
}

// OnFriendlyFire is called for an excluded hit from a teammate, never for a self-hit
func (a *Arbiter) OnFriendlyFire(fn func(HitRecord)) {
	a.mu.Lock()
	a.onFriendlyFire = fn
	a.mu.Unlock()
}

// Hits returns a copy of the hit log
func (a *Arbiter) Hits() []HitRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]HitRecord, len(a.hits))
	copy(out, a.hits)
	return out
}

// HandleCode arbitrates one received code
func (a *Arbiter) HandleCode(address, data, control int) {
	if data <= 0 {
		return
	}
	if address < 0 || address > 255 || data > 255 {
		a.log.Debug("code out of range", zap.Int("address", address), zap.Int("data", data))
		return
	}

	flags := a.player.State()
	if !flags.CanBeHit() {
		a.log.Info("hit ignored, not hittable", zap.Stringer("state", flags))
		return
	}
	team, ok := a.player.Team()
	if !ok {
		return
	}

	hit := HitRecord{
		ShooterTeam:   uint8(address),
		ShooterPlayer: uint8(data),
		VictimTeam:    team.Number,
		VictimPlayer:  team.Player,
		SensorID:      a.cfg.ID,
		Timestamp:     a.now(),
	}

	if hit.FriendlyFire() && a.cfg.ExcludeFriendly {
		if hit.ShooterPlayer == hit.VictimPlayer {
			return
		}
		a.mu.Lock()
		hook := a.onFriendlyFire
		a.mu.Unlock()

		a.log.Info("friendly fire not counted", zap.Stringer("hit", hit))
		if hook != nil {
			hook(hit)
		}
		return
	}

	a.mu.Lock()
	a.hits = append(a.hits, hit)
	count := len(a.hits)
	hook := a.onHit
	a.mu.Unlock()

	a.log.Info("hit", zap.Stringer("hit", hit), zap.Int("count", count))
	a.effects.Trigger(fx.EventHit)
	if hook != nil {
		hook(hit)
	}
}
