package fx

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// PWM is a pulse-width modulated output pin
// Duty ranges 0 (off) to 1023 (full)
type PWM interface {
	SetFreq(hz int)
	SetDuty(duty int)
}

const (
	pwmMaxDuty    = 1023
	laserBaseFreq = 500
	laserBlipFire = 250 * time.Millisecond
)

// LaserConfig tunes the binary-intensity channel
type LaserConfig struct {
	MaxBrightness int           // PWM duty when lit, 0-1023
	FireBlip      time.Duration // On time for the fire effect
}

// DefaultLaserConfig returns the stock laser tuning
func DefaultLaserConfig() LaserConfig {
	return LaserConfig{
		MaxBrightness: pwmMaxDuty,
		FireBlip:      laserBlipFire,
	}
}

// Laser is a binary-intensity channel: on, off, blip and strobe
// Its canonical state is off
type Laser struct {
	NopBackend

	cfg  LaserConfig
	log  *zap.Logger
	anim *animator

	mu  sync.Mutex // Protects pwm and on
	pwm PWM
	on  bool
}

// NewLaser creates a laser channel on pwm, initially off
func NewLaser(pwm PWM, cfg LaserConfig, log *zap.Logger) *Laser {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxBrightness <= 0 || cfg.MaxBrightness > pwmMaxDuty {
		cfg.MaxBrightness = pwmMaxDuty
	}
	if cfg.FireBlip <= 0 {
		cfg.FireBlip = laserBlipFire
	}
	l := &Laser{
		cfg: cfg,
		log: log.Named("laser"),
		pwm: pwm,
	}
	l.anim = newAnimator(l.log, l.Update)
	l.Off()
	return l
}

// Name identifies the backend
func (l *Laser) Name() string { return "laser" }

// Busy reports whether a blip or strobe is running
func (l *Laser) Busy() bool { return l.anim.isBusy() }

// On lights the laser immediately
func (l *Laser) On() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.on = true
	l.pwm.SetFreq(laserBaseFreq)
	l.pwm.SetDuty(l.cfg.MaxBrightness)
}

// Off darkens the laser immediately
func (l *Laser) Off() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.on = false
	l.pwm.SetDuty(0)
}

// Toggle flips the laser
func (l *Laser) Toggle() {
	if l.IsOn() {
		l.Off()
	} else {
		l.On()
	}
}

// IsOn returns the last commanded state
func (l *Laser) IsOn() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on
}

// Blip lights the laser for d, returns false if the channel is busy
func (l *Laser) Blip(d time.Duration) bool {
	return l.anim.start("blip", func() {
		l.On()
		time.Sleep(d)
		l.Off()
	})
}

// Strobe square-waves the laser at frequency Hz for d, on for half of each period
func (l *Laser) Strobe(frequency int, d time.Duration) bool {
	if frequency <= 0 {
		return false
	}
	return l.anim.start("strobe", func() {
		half := time.Second / time.Duration(frequency*2)
		end := time.Now().Add(d)
		for time.Now().Before(end) {
			l.On()
			time.Sleep(half)
			l.Off()
			time.Sleep(half)
		}
	})
}

// Fire blips the laser
func (l *Laser) Fire(req Request) {
	l.Blip(req.durationOr(l.cfg.FireBlip))
}

// Update returns the laser to its canonical off state unless busy
func (l *Laser) Update() {
	l.anim.idle(l.Off)
}

// Close waits for running effects and turns the laser off
func (l *Laser) Close() {
	l.anim.shutdown()
	l.Off()
}
