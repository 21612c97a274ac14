package audio

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"go.uber.org/zap"

	"github.com/lixenwraith/stramash/fx"
)

const (
	defaultSampleRate = beep.SampleRate(48000)
	defaultReloadTime = 5 * time.Second
)

// Config tunes the sound channel
type Config struct {
	Volume     float64 // Master volume 0.0-1.0
	SampleRate beep.SampleRate
}

// DefaultConfig returns the stock sound settings
func DefaultConfig() Config {
	return Config{Volume: 0.5, SampleRate: defaultSampleRate}
}

// Sound is the audible effect channel
// Without an initialized output every effect is a silent no-op
type Sound struct {
	fx.NopBackend

	cfg Config
	log *zap.Logger

	busy atomic.Bool

	mu          sync.Mutex
	mixer       *beep.Mixer
	output      func(beep.Streamer) // nil until Init
	initialized bool
}

// NewSound creates an uninitialized sound channel
func NewSound(cfg Config, log *zap.Logger) *Sound {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = defaultSampleRate
	}
	return &Sound{
		cfg:   cfg,
		log:   log.Named("sound"),
		mixer: &beep.Mixer{},
	}
}

// Init opens the speaker; a machine without audio returns an error and stays silent
func (s *Sound) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	if err := speaker.Init(s.cfg.SampleRate, s.cfg.SampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}

	speaker.Play(s.mixer)
	s.output = func(st beep.Streamer) {
		speaker.Lock()
		s.mixer.Add(st)
		speaker.Unlock()
	}
	s.initialized = true
	return nil
}

// attach routes sounds to out instead of the speaker
func (s *Sound) attach(out func(beep.Streamer)) {
	s.mu.Lock()
	s.output = out
	s.initialized = true
	s.mu.Unlock()
}

// Name identifies the backend
func (s *Sound) Name() string { return "sound" }

// Busy reports whether a sound is playing
func (s *Sound) Busy() bool { return s.busy.Load() }

// play claims the channel and queues st; the claim is released when st drains
func (s *Sound) play(effect string, st beep.Streamer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized || s.output == nil {
		return false
	}
	if !s.busy.CompareAndSwap(false, true) {
		s.log.Debug("effect dropped, sound busy", zap.String("effect", effect))
		return false
	}

	volume := s.cfg.Volume
	s.output(beep.Seq(
		newVolume(st, volume),
		beep.Callback(func() { s.busy.Store(false) }),
	))
	return true
}

func (s *Sound) Fire(req fx.Request) {
	s.play("fire", fireSound(s.cfg.SampleRate))
}

func (s *Sound) FireFail(req fx.Request) {
	s.play("firefail", failSound(s.cfg.SampleRate))
}

func (s *Sound) Reload(req fx.Request) {
	d := req.Duration
	if d <= 0 {
		d = defaultReloadTime
	}
	s.play("reload", reloadSound(s.cfg.SampleRate, d))
}

func (s *Sound) Hit(req fx.Request) {
	s.play("hit", hitSound(s.cfg.SampleRate))
}

func (s *Sound) Powerup(req fx.Request) {
	s.play("powerup", bellSound(s.cfg.SampleRate))
}

func (s *Sound) Activate(req fx.Request) {
	s.play("activate", chirpSound(s.cfg.SampleRate, 400, 1200))
}

func (s *Sound) Deactivate(req fx.Request) {
	s.play("deactivate", chirpSound(s.cfg.SampleRate, 1200, 300))
}

func (s *Sound) Shield(req fx.Request) {
	s.play("shield", twoNoteSound(s.cfg.SampleRate, 987.77, 1318.51))
}

func (s *Sound) Unshield(req fx.Request) {
	s.play("unshield", twoNoteSound(s.cfg.SampleRate, 1318.51, 987.77))
}

// Close silences the mixer and detaches the output
func (s *Sound) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return
	}
	if s.output != nil {
		speaker.Lock()
		s.mixer.Clear()
		speaker.Unlock()
	}
	s.output = nil
	s.initialized = false
	s.busy.Store(false)
}
