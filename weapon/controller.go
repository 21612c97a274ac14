package weapon

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/stramash/fx"
	"github.com/lixenwraith/stramash/player"
)

const (
	DefaultMaxAmmo    = 10
	DefaultReloadTime = 5 * time.Second
)

// Emitter sends one infrared code; address is the team, data the player
type Emitter interface {
	Transmit(address, data uint8)
}

// Player is the state the controller gates on
type Player interface {
	State() player.Flags
	Team() (player.Team, bool)
}

// Effects receives fire, firefail and reload requests
type Effects interface {
	Trigger(ev fx.Event)
	Dispatch(req fx.Request)
}

// State is a snapshot of the weapon
type State struct {
	Ammo      int
	MaxAmmo   int
	Reloading bool
	Shots     int
	Reloads   int
}

// Controller owns ammo and reload state and gates the trigger on the player
// Fire and Reload never block; rejections are logged
type Controller struct {
	log     *zap.Logger
	player  Player
	emitter Emitter
	effects Effects

	mu         sync.Mutex
	ammo       int
	maxAmmo    int
	reloadTime time.Duration
	reloading  bool
	shots      int
	reloads    int
	closed     bool

	onFire           func(State)
	onReload         func(State)
	onReloadComplete func(State)
	onOutOfAmmo      func(State)

	wg sync.WaitGroup
}

// New creates a loaded weapon
// maxAmmo < 1 and reloadTime <= 0 fall back to the defaults
func New(p Player, emitter Emitter, effects Effects, maxAmmo int, reloadTime time.Duration, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	if maxAmmo < 1 {
		maxAmmo = DefaultMaxAmmo
	}
	if reloadTime <= 0 {
		reloadTime = DefaultReloadTime
	}
	return &Controller{
		log:        log.Named("weapon"),
		player:     p,
		emitter:    emitter,
		effects:    effects,
		ammo:       maxAmmo,
		maxAmmo:    maxAmmo,
		reloadTime: reloadTime,
	}
}

// Hooks, nil clears

func (c *Controller) OnFire(fn func(State)) {
	c.mu.Lock()
	c.onFire = fn
	c.mu.Unlock()
}

func (c *Controller) OnReload(fn func(State)) {
	c.mu.Lock()
	c.onReload = fn
	c.mu.Unlock()
}

func (c *Controller) OnReloadComplete(fn func(State)) {
	c.mu.Lock()
	c.onReloadComplete = fn
	c.mu.Unlock()
}

func (c *Controller) OnOutOfAmmo(fn func(State)) {
	c.mu.Lock()
	c.onOutOfAmmo = fn
	c.mu.Unlock()
}

// State returns a snapshot
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	return State{
		Ammo:      c.ammo,
		MaxAmmo:   c.maxAmmo,
		Reloading: c.reloading,
		Shots:     c.shots,
		Reloads:   c.reloads,
	}
}

// ReloadTime returns the configured reload duration
func (c *Controller) ReloadTime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reloadTime
}

// SetMaxAmmo changes the magazine size, clamping current ammo
func (c *Controller) SetMaxAmmo(n int) {
	if n < 1 {
		c.log.Info("max ammo rejected", zap.Int("max_ammo", n))
		return
	}
	c.mu.Lock()
	c.maxAmmo = n
	if c.ammo > n {
		c.ammo = n
	}
	c.mu.Unlock()
}

// SetReloadTime changes the duration of subsequent reloads
func (c *Controller) SetReloadTime(d time.Duration) {
	if d <= 0 {
		c.log.Info("reload time rejected", zap.Duration("reload_time", d))
		return
	}
	c.mu.Lock()
	c.reloadTime = d
	c.mu.Unlock()
}

// Fire shoots one round if the player may fire and a round is loaded
func (c *Controller) Fire() {
	flags := c.player.State()
	if !flags.CanFire() {
		c.log.Info("fire not allowed", zap.Stringer("state", flags))
		return
	}
	// An empty gun still clicks without a team
	team, assigned := c.player.Team()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.reloading {
		c.mu.Unlock()
		c.log.Info("fire rejected, reloading")
		return
	}

	if c.ammo == 0 {
		state := c.stateLocked()
		hook := c.onOutOfAmmo
		c.mu.Unlock()

		c.log.Info("fire failed, no ammo")
		c.effects.Trigger(fx.EventFireFail)
		if hook != nil {
			hook(state)
		}
		return
	}
	if !assigned {
		c.mu.Unlock()
		c.log.Info("fire not allowed, unassigned")
		return
	}

	c.ammo--
	c.shots++
	state := c.stateLocked()
	hook := c.onFire
	c.mu.Unlock()

	c.log.Info("fire", zap.Int("shots", state.Shots), zap.Int("ammo", state.Ammo))
	c.emitter.Transmit(team.Number, team.Player)
	c.effects.Trigger(fx.EventFire)
	if hook != nil {
		hook(state)
	}
}

// Reload starts a reload; ammo is restored after the reload time
func (c *Controller) Reload() {
	flags := c.player.State()
	if !flags.CanReload() {
		c.log.Info("reload not allowed", zap.Stringer("state", flags))
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.reloading {
		c.mu.Unlock()
		c.log.Info("reload rejected, already busy")
		return
	}
	c.reloading = true
	c.reloads++
	d := c.reloadTime
	state := c.stateLocked()
	hook := c.onReload
	c.wg.Add(1)
	c.mu.Unlock()

	c.log.Info("reload started", zap.Duration("duration", d))
	go c.complete(d)

	c.effects.Dispatch(fx.Request{Event: fx.EventReload, Duration: d})
	if hook != nil {
		hook(state)
	}
}

// complete restores the magazine once the reload time has passed
func (c *Controller) complete(d time.Duration) {
	defer c.wg.Done()
	time.Sleep(d)

	c.mu.Lock()
	c.ammo = c.maxAmmo
	c.reloading = false
	state := c.stateLocked()
	hook := c.onReloadComplete
	c.mu.Unlock()

	c.log.Info("reload complete", zap.Int("ammo", state.Ammo))
	if hook != nil {
		hook(state)
	}
}

// Close refuses further requests and waits for a pending reload
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.wg.Wait()
}
