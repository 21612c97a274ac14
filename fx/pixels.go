package fx

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/stramash/render"
)

// Strip is an addressable pixel array
// Set stages a pixel; Write pushes staged pixels to the hardware
type Strip interface {
	Len() int
	Set(i int, c render.RGB)
	Write() error
}

// Direction of a sequential sweep
type Direction int

const (
	Forward  Direction = 1
	Backward Direction = -1
)

// PixelConfig tunes the addressable-pixel channel
type PixelConfig struct {
	FrameRate int // Fade/rainbow updates per second

	FireDuration       time.Duration
	FailDuration       time.Duration
	FailStrobeHz       int
	ReloadDuration     time.Duration // Used when the request carries no duration
	HitDuration        time.Duration
	PowerupDuration    time.Duration
	PowerupPulses      int
	ActivateDuration   time.Duration
	DeactivateDuration time.Duration
	ShieldDuration     time.Duration
	ShieldPulses       int
	UnshieldDuration   time.Duration
	BootDuration       time.Duration
	BootStrobeHz       int
}

// DefaultPixelConfig returns the stock pixel timings
func DefaultPixelConfig() PixelConfig {
	return PixelConfig{
		FrameRate:          50,
		FireDuration:       50 * time.Millisecond,
		FailDuration:       500 * time.Millisecond,
		FailStrobeHz:       10,
		ReloadDuration:     5 * time.Second,
		HitDuration:        time.Second,
		PowerupDuration:    1500 * time.Millisecond,
		PowerupPulses:      3,
		ActivateDuration:   time.Second,
		DeactivateDuration: time.Second,
		ShieldDuration:     1500 * time.Millisecond,
		ShieldPulses:       3,
		UnshieldDuration:   500 * time.Millisecond,
		BootDuration:       time.Second,
		BootStrobeHz:       10,
	}
}

// Pixels drives an addressable strip from the player state
// Its canonical output is the player's display colour on every pixel
type Pixels struct {
	NopBackend

	cfg   PixelConfig
	log   *zap.Logger
	state StateSource
	anim  *animator

	mu     sync.Mutex // Protects strip and base
	strip  Strip
	base   render.RGB
	random func() render.RGB
}

// NewPixels creates a pixel channel, initially black
// state may be nil, in which case the base colour is rendered
func NewPixels(strip Strip, state StateSource, cfg PixelConfig, log *zap.Logger) *Pixels {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = DefaultPixelConfig().FrameRate
	}
	p := &Pixels{
		cfg:    cfg,
		log:    log.Named("pixels"),
		state:  state,
		strip:  strip,
		random: render.RandomVivid,
	}
	p.anim = newAnimator(p.log, p.Update)
	p.Fill(render.RGBBlack)
	return p
}

// Name identifies the backend
func (p *Pixels) Name() string { return "pixels" }

// Busy reports whether an animation is running
func (p *Pixels) Busy() bool { return p.anim.isBusy() }

// Len returns the number of pixels
func (p *Pixels) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.strip.Len()
}

// SetBase sets the colour shown when the player has no team
func (p *Pixels) SetBase(c render.RGB) {
	p.mu.Lock()
	p.base = c
	p.mu.Unlock()
}

// Base returns the no-team colour
func (p *Pixels) Base() render.RGB {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.base
}

// SetRandom replaces the crossfade waypoint source
func (p *Pixels) SetRandom(fn func() render.RGB) {
	p.mu.Lock()
	p.random = fn
	p.mu.Unlock()
}

// teamColour is the team colour, or the base colour without a team
func (p *Pixels) teamColour() render.RGB {
	if p.state != nil {
		if c, ok := p.state.TeamColour(); ok {
			return c
		}
	}
	return p.Base()
}

// canonical is the colour Update renders for the current state
func (p *Pixels) canonical() render.RGB {
	if p.state != nil {
		if c, ok := p.state.DisplayColour(); ok {
			return c
		}
	}
	return p.Base()
}

// Fire sweeps a red pixel across the team colour
func (p *Pixels) Fire(req Request) {
	p.Sweep(req.durationOr(p.cfg.FireDuration), Forward, p.teamColour(), req.colourOr(render.RGBRed))
}

// FireFail strobes red
func (p *Pixels) FireFail(req Request) {
	p.Strobe(p.cfg.FailStrobeHz, req.durationOr(p.cfg.FailDuration), req.colourOr(render.RGBRed))
}

// Reload cycles the rainbow for the reload time
func (p *Pixels) Reload(req Request) {
	p.RainbowCycle(req.durationOr(p.cfg.ReloadDuration))
}

// Hit fades to brown and back, fast at first
func (p *Pixels) Hit(req Request) {
	p.FadeInOutLog(req.durationOr(p.cfg.HitDuration), p.teamColour(), req.colourOr(render.RGBBrown))
}

// Powerup crossfades through random colours back to the team colour
func (p *Pixels) Powerup(req Request) {
	team := p.teamColour()
	p.Crossfade(req.durationOr(p.cfg.PowerupDuration), team, team, p.cfg.PowerupPulses)
}

// Activate fades in from black, slow at first
func (p *Pixels) Activate(req Request) {
	p.FadeLog(req.durationOr(p.cfg.ActivateDuration), render.RGBBlack, p.teamColour(), false)
}

// Deactivate fades out to black
func (p *Pixels) Deactivate(req Request) {
	p.Fade(req.durationOr(p.cfg.DeactivateDuration), p.teamColour(), render.RGBBlack)
}

// Shield pulses between the team colour and white
func (p *Pixels) Shield(req Request) {
	p.Pulse(req.durationOr(p.cfg.ShieldDuration), p.teamColour(), req.colourOr(render.RGBWhite), p.cfg.ShieldPulses)
}

// Unshield fades from the shield overlay back to the team colour
func (p *Pixels) Unshield(req Request) {
	p.Fade(req.durationOr(p.cfg.UnshieldDuration), render.RGBShield, p.teamColour())
}

// Bootup strobes white while the device starts
func (p *Pixels) Bootup() bool {
	return p.Strobe(p.cfg.BootStrobeHz, p.cfg.BootDuration, render.RGBWhite)
}

// Connected strobes green once the network link is up
func (p *Pixels) Connected() bool {
	return p.Strobe(p.cfg.BootStrobeHz, p.cfg.BootDuration, render.RGBGreen)
}

// Update renders the canonical colour unless an animation holds the strip
func (p *Pixels) Update() {
	p.anim.idle(func() {
		p.Fill(p.canonical())
	})
}

// Close waits for running animations and blanks the strip
func (p *Pixels) Close() {
	p.anim.shutdown()
	p.Fill(render.RGBBlack)
}
