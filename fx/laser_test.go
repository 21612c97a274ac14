package fx

import (
	"testing"
	"time"
)

func TestLaserStartsOff(t *testing.T) {
	pwm := &fakePWM{}
	l := NewLaser(pwm, DefaultLaserConfig(), nil)

	if duty, _ := pwm.current(); duty != 0 {
		t.Errorf("expected duty 0, got %d", duty)
	}
	if l.IsOn() {
		t.Error("laser should start off")
	}
}

func TestLaserOnOffToggle(t *testing.T) {
	pwm := &fakePWM{}
	l := NewLaser(pwm, DefaultLaserConfig(), nil)

	l.On()
	if duty, freq := pwm.current(); duty != pwmMaxDuty || freq != laserBaseFreq {
		t.Errorf("on: duty=%d freq=%d", duty, freq)
	}
	l.Toggle()
	if duty, _ := pwm.current(); duty != 0 || l.IsOn() {
		t.Errorf("toggle from on should turn off, duty=%d", duty)
	}
	l.Toggle()
	if !l.IsOn() {
		t.Error("toggle from off should turn on")
	}
}

func TestLaserBlipSequence(t *testing.T) {
	pwm := &fakePWM{}
	l := NewLaser(pwm, LaserConfig{MaxBrightness: 800, FireBlip: 10 * time.Millisecond}, nil)

	l.Fire(Request{Event: EventFire})
	if !waitFor(t, time.Second, func() bool { return !l.Busy() }) {
		t.Fatal("blip never completed")
	}

	pwm.mu.Lock()
	duties := append([]int(nil), pwm.duties...)
	pwm.mu.Unlock()

	// initial off, on, off, resync off
	if len(duties) < 3 || duties[1] != 800 || duties[len(duties)-1] != 0 {
		t.Errorf("unexpected duty sequence %v", duties)
	}
}

func TestLaserStrobeSquareWave(t *testing.T) {
	pwm := &fakePWM{}
	l := NewLaser(pwm, LaserConfig{MaxBrightness: 700}, nil)

	if !l.Strobe(50, 60*time.Millisecond) {
		t.Fatal("strobe rejected")
	}
	if l.Strobe(50, 60*time.Millisecond) {
		t.Error("second strobe accepted while busy")
	}
	if !waitFor(t, time.Second, func() bool { return !l.Busy() }) {
		t.Fatal("strobe never completed")
	}

	pwm.mu.Lock()
	defer pwm.mu.Unlock()
	// skip the initial off from NewLaser
	on, off := 0, 0
	for i, duty := range pwm.duties[1:] {
		switch duty {
		case 700:
			on++
		case 0:
			off++
		default:
			t.Fatalf("duty %d at write %d is neither on nor off", duty, i+1)
		}
	}
	if on < 2 || off < 2 {
		t.Errorf("expected repeated on/off cycles, got on=%d off=%d in %v", on, off, pwm.duties)
	}
	for _, f := range pwm.freqs {
		if f != laserBaseFreq {
			t.Errorf("carrier moved to %d Hz", f)
		}
	}
	if pwm.duty != 0 {
		t.Errorf("laser left on after strobe, duty=%d", pwm.duty)
	}
}

func TestLaserIgnoresUnsupportedEffects(t *testing.T) {
	pwm := &fakePWM{}
	l := NewLaser(pwm, DefaultLaserConfig(), nil)

	l.Hit(Request{Event: EventHit})
	l.Shield(Request{Event: EventShield})
	l.Reload(Request{Event: EventReload, Duration: time.Second})

	if l.Busy() || l.IsOn() {
		t.Error("unsupported effects should leave the laser untouched")
	}
}

func TestLaserCloseTurnsOff(t *testing.T) {
	pwm := &fakePWM{}
	l := NewLaser(pwm, DefaultLaserConfig(), nil)

	l.Blip(30 * time.Millisecond)
	l.Close()

	if l.IsOn() || l.Busy() {
		t.Error("expected laser off and idle after close")
	}
	if l.Blip(5 * time.Millisecond) {
		t.Error("closed laser accepted a blip")
	}
}
