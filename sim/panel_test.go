package sim

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/stramash/fx"
	"github.com/lixenwraith/stramash/input"
	"github.com/lixenwraith/stramash/render"
)

func newTestPanel(t *testing.T, pixels int) (*Panel, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	p, err := NewPanel(screen, pixels, "test gun", nil)
	if err != nil {
		t.Fatalf("NewPanel: %v", err)
	}
	screen.SetSize(80, 24)
	t.Cleanup(p.Close)
	return p, screen
}

// cellColour reads the foreground of one cell
func cellColour(screen tcell.Screen, x, y int) render.RGB {
	_, _, style, _ := screen.GetContent(x, y)
	fg, _, _ := style.Decompose()
	r, g, b := fg.RGB()
	return render.RGB{R: uint8(r), G: uint8(g), B: uint8(b)}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewPanelRejectsEmptyStrip(t *testing.T) {
	if _, err := NewPanel(tcell.NewSimulationScreen("UTF-8"), 0, "x", nil); err == nil {
		t.Error("expected error for zero pixels")
	}
}

func TestPanelPresentsOnWrite(t *testing.T) {
	p, screen := newTestPanel(t, 4)

	if p.Len() != 4 {
		t.Fatalf("Len = %d", p.Len())
	}

	p.Set(1, render.RGBRed)
	p.Set(7, render.RGBGreen)
	p.Set(-1, render.RGBGreen)
	if got := p.Pixels()[1]; got != render.RGBBlack {
		t.Errorf("pixel shown before Write: %v", got)
	}

	if err := p.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := []render.RGB{render.RGBBlack, render.RGBRed, render.RGBBlack, render.RGBBlack}
	for i, c := range p.Pixels() {
		if c != want[i] {
			t.Errorf("pixel %d = %v, want %v", i, c, want[i])
		}
	}
	if got := cellColour(screen, labelWidth+2, rowPixels); got != render.RGBRed {
		t.Errorf("cell colour = %v", got)
	}
}

func TestPanelLaserIndicator(t *testing.T) {
	p, screen := newTestPanel(t, 1)

	p.SetFreq(500)
	p.SetDuty(pwmMaxDuty)
	if freq, duty := p.Laser(); freq != 500 || duty != pwmMaxDuty {
		t.Errorf("laser = %d Hz duty %d", freq, duty)
	}
	if got := cellColour(screen, labelWidth, rowLaser); got != render.RGBRed {
		t.Errorf("lit laser cell = %v", got)
	}

	p.SetDuty(0)
	if got := cellColour(screen, labelWidth, rowLaser); got != render.RGBBlack {
		t.Errorf("dark laser cell = %v", got)
	}
}

func TestPanelDrivesBackends(t *testing.T) {
	p, _ := newTestPanel(t, 6)

	pixels := fx.NewPixels(p, nil, fx.DefaultPixelConfig(), nil)
	pixels.SetBase(render.RGBOrange)
	pixels.Update()
	for i, c := range p.Pixels() {
		if c != render.RGBOrange {
			t.Errorf("pixel %d = %v", i, c)
		}
	}

	laser := fx.NewLaser(p, fx.DefaultLaserConfig(), nil)
	laser.On()
	if _, duty := p.Laser(); duty != pwmMaxDuty {
		t.Errorf("laser duty = %d", duty)
	}
	laser.Close()
	pixels.Close()
}

func TestButtonHoldAndRelease(t *testing.T) {
	p, _ := newTestPanel(t, 1)
	p.hold = 30 * time.Millisecond
	b := p.Button('f', "fire")

	var edges atomic.Int32
	b.SetEdgeHandler(func() { edges.Add(1) })

	if !b.Level() {
		t.Fatal("released button should read high")
	}
	b.Press()
	b.Press()
	if b.Level() || edges.Load() != 1 {
		t.Fatalf("after press level=%v edges=%d", b.Level(), edges.Load())
	}

	waitFor(t, "release", b.Level)
	if edges.Load() != 2 {
		t.Errorf("edges = %d, want 2", edges.Load())
	}
}

func TestPanelButtonIsShared(t *testing.T) {
	p, _ := newTestPanel(t, 1)
	if p.Button('r', "reload") != p.Button('r', "again") {
		t.Error("same key should return the same button")
	}
}

func TestPanelKeysDebounced(t *testing.T) {
	p, _ := newTestPanel(t, 1)
	p.hold = 80 * time.Millisecond
	b := p.Button(' ', "fire")

	d := input.NewDebouncer(b, 20*time.Millisecond, nil, nil)
	defer d.Close()
	var fired atomic.Int32
	d.SetCallback(func() { fired.Add(1) })

	p.handleEvent(tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone))
	waitFor(t, "debounced fire", func() bool { return fired.Load() == 1 })
	waitFor(t, "release", b.Level)

	time.Sleep(50 * time.Millisecond)
	if fired.Load() != 1 {
		t.Errorf("fired %d times for one key press", fired.Load())
	}
}

func TestPanelBindingsAndQuit(t *testing.T) {
	p, _ := newTestPanel(t, 1)

	var hits, quits atomic.Int32
	p.Bind('h', "hit", func() { hits.Add(1) })
	p.OnQuit(func() { quits.Add(1) })

	p.handleEvent(tcell.NewEventKey(tcell.KeyRune, 'h', tcell.ModNone))
	p.handleEvent(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone))
	p.handleEvent(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone))
	p.handleEvent(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone))

	if hits.Load() != 1 {
		t.Errorf("binding ran %d times", hits.Load())
	}
	if quits.Load() != 2 {
		t.Errorf("quit ran %d times", quits.Load())
	}
}

func TestPanelRunPollsKeys(t *testing.T) {
	p, screen := newTestPanel(t, 1)

	var hits atomic.Int32
	p.Bind('h', "hit", func() { hits.Add(1) })
	p.SetStatus(func() []string { return []string{"weapon.ammo=10"} })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	screen.InjectKey(tcell.KeyRune, 'h', tcell.ModNone)
	waitFor(t, "bound key", func() bool { return hits.Load() == 1 })

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

func TestPanelCloseIdempotent(t *testing.T) {
	p, _ := newTestPanel(t, 1)
	b := p.Button('f', "fire")
	p.Close()
	p.Close()

	b.Press()
	if !b.Level() {
		t.Error("button pressed after panel closed")
	}
}
