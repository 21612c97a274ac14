package fx

import (
	"sync"
	"testing"
	"time"

	"github.com/lixenwraith/stramash/render"
)

// fakeStrip records staged pixels and the order of Set calls
type fakeStrip struct {
	mu     sync.Mutex
	pixels []render.RGB
	staged []render.RGB
	sets   []int
	writes int
}

func newFakeStrip(n int) *fakeStrip {
	return &fakeStrip{pixels: make([]render.RGB, n), staged: make([]render.RGB, n)}
}

func (s *fakeStrip) Len() int { return len(s.pixels) }

func (s *fakeStrip) Set(i int, c render.RGB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged[i] = c
	s.sets = append(s.sets, i)
}

func (s *fakeStrip) Write() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(s.pixels, s.staged)
	s.writes++
	return nil
}

func (s *fakeStrip) snapshot() []render.RGB {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]render.RGB, len(s.pixels))
	copy(out, s.pixels)
	return out
}

func (s *fakeStrip) allEqual(c render.RGB) bool {
	for _, px := range s.snapshot() {
		if !px.Equal(c) {
			return false
		}
	}
	return true
}

func (s *fakeStrip) resetSets() {
	s.mu.Lock()
	s.sets = nil
	s.mu.Unlock()
}

// fakePWM records duty and frequency writes
type fakePWM struct {
	mu     sync.Mutex
	duty   int
	freq   int
	duties []int
	freqs  []int
}

func (p *fakePWM) SetFreq(hz int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.freq = hz
	p.freqs = append(p.freqs, hz)
}

func (p *fakePWM) SetDuty(duty int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.duty = duty
	p.duties = append(p.duties, duty)
}

func (p *fakePWM) current() (duty, freq int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duty, p.freq
}

// fakeState serves fixed colours to backends
type fakeState struct {
	mu      sync.Mutex
	team    render.RGB
	display render.RGB
	hasTeam bool
}

func (s *fakeState) DisplayColour() (render.RGB, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.display, s.hasTeam
}

func (s *fakeState) TeamColour() (render.RGB, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.team, s.hasTeam
}

// fastPixelConfig keeps animation tests short
func fastPixelConfig() PixelConfig {
	cfg := DefaultPixelConfig()
	cfg.FrameRate = 500
	cfg.FireDuration = 20 * time.Millisecond
	cfg.FailDuration = 20 * time.Millisecond
	cfg.FailStrobeHz = 100
	cfg.ReloadDuration = 30 * time.Millisecond
	cfg.HitDuration = 30 * time.Millisecond
	cfg.PowerupDuration = 30 * time.Millisecond
	cfg.ActivateDuration = 20 * time.Millisecond
	cfg.DeactivateDuration = 20 * time.Millisecond
	cfg.ShieldDuration = 30 * time.Millisecond
	cfg.UnshieldDuration = 20 * time.Millisecond
	cfg.BootDuration = 20 * time.Millisecond
	cfg.BootStrobeHz = 100
	return cfg
}

// waitFor polls cond until it holds or the timeout expires
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}
