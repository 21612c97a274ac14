package sim

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/lixenwraith/stramash/render"
)

// Screen rows
const (
	rowTitle  = 0
	rowPixels = 2
	rowLaser  = 3
	rowStatus = 5

	labelWidth = 8
)

const (
	// DefaultHold is how long a key press holds a button line low
	// Terminals report no key release, so it must exceed the debounce delay
	DefaultHold = 150 * time.Millisecond

	redrawInterval = 100 * time.Millisecond
	pwmMaxDuty     = 1023
)

// Panel renders the gun hardware in a terminal
// It is the pixel strip, the laser pin and the buttons of a device without hardware
type Panel struct {
	log    *zap.Logger
	screen tcell.Screen
	title  string
	hold   time.Duration

	mu      sync.Mutex // Protects screen drawing and the fields below
	staged  []render.RGB
	shown   []render.RGB
	freq    int
	duty    int
	status  func() []string
	buttons map[rune]*Button
	binds   map[rune]binding
	onQuit  func()

	closeCh   chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type binding struct {
	label string
	fn    func()
}

// NewPanel initializes screen and draws an empty panel with pixels cells
// A nil screen opens the controlling terminal
func NewPanel(screen tcell.Screen, pixels int, title string, log *zap.Logger) (*Panel, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if pixels < 1 {
		return nil, fmt.Errorf("panel needs at least one pixel, got %d", pixels)
	}
	if screen == nil {
		s, err := tcell.NewScreen()
		if err != nil {
			return nil, fmt.Errorf("open terminal: %w", err)
		}
		screen = s
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init terminal: %w", err)
	}
	screen.SetStyle(tcell.StyleDefault)
	screen.Clear()

	p := &Panel{
		log:     log.Named("panel"),
		screen:  screen,
		title:   title,
		hold:    DefaultHold,
		staged:  make([]render.RGB, pixels),
		shown:   make([]render.RGB, pixels),
		buttons: make(map[rune]*Button),
		binds:   make(map[rune]binding),
		closeCh: make(chan struct{}),
	}

	p.mu.Lock()
	p.redrawLocked()
	p.mu.Unlock()
	return p, nil
}

// Button maps key r onto a momentary switch
func (p *Panel) Button(r rune, name string) *Button {
	p.mu.Lock()
	defer p.mu.Unlock()

	if b, ok := p.buttons[r]; ok {
		return b
	}
	b := &Button{name: name, hold: p.hold}
	p.buttons[r] = b
	p.drawHelpLocked()
	return b
}

// Bind runs fn on the event loop whenever key r is pressed
func (p *Panel) Bind(r rune, label string, fn func()) {
	p.mu.Lock()
	p.binds[r] = binding{label: label, fn: fn}
	p.drawHelpLocked()
	p.mu.Unlock()
}

// SetStatus sets the source of the status line, polled on every redraw
func (p *Panel) SetStatus(fn func() []string) {
	p.mu.Lock()
	p.status = fn
	p.mu.Unlock()
}

// OnQuit sets the hook called when the operator presses q, Esc or Ctrl-C
func (p *Panel) OnQuit(fn func()) {
	p.mu.Lock()
	p.onQuit = fn
	p.mu.Unlock()
}

// Strip

func (p *Panel) Len() int { return len(p.staged) }

func (p *Panel) Set(i int, c render.RGB) {
	if i < 0 || i >= len(p.staged) {
		return
	}
	p.mu.Lock()
	p.staged[i] = c
	p.mu.Unlock()
}

// Write presents the staged pixels
func (p *Panel) Write() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	copy(p.shown, p.staged)
	p.drawPixelsLocked()
	p.screen.Show()
	return nil
}

// Pixels returns the presented pixels
func (p *Panel) Pixels() []render.RGB {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]render.RGB, len(p.shown))
	copy(out, p.shown)
	return out
}

// PWM

func (p *Panel) SetFreq(hz int) {
	p.mu.Lock()
	p.freq = hz
	p.drawLaserLocked()
	p.screen.Show()
	p.mu.Unlock()
}

func (p *Panel) SetDuty(duty int) {
	p.mu.Lock()
	p.duty = duty
	p.drawLaserLocked()
	p.screen.Show()
	p.mu.Unlock()
}

// Laser returns the current pin frequency and duty
func (p *Panel) Laser() (freq, duty int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.freq, p.duty
}

// Run polls terminal events and refreshes the status line until ctx ends or the panel closes
func (p *Panel) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 16)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			ev := p.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-p.closeCh:
				return
			}
		}
	}()

	ticker := time.NewTicker(redrawInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.closeCh:
			return nil
		case ev := <-events:
			p.handleEvent(ev)
		case <-ticker.C:
			p.mu.Lock()
			p.drawStatusLocked()
			p.screen.Show()
			p.mu.Unlock()
		}
	}
}

func (p *Panel) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		p.mu.Lock()
		p.screen.Sync()
		p.redrawLocked()
		p.mu.Unlock()

	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
			(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
			p.mu.Lock()
			quit := p.onQuit
			p.mu.Unlock()
			if quit != nil {
				quit()
			}
			return
		}
		if ev.Key() != tcell.KeyRune {
			return
		}

		p.mu.Lock()
		b := p.buttons[ev.Rune()]
		bind, bound := p.binds[ev.Rune()]
		p.mu.Unlock()

		if b != nil {
			b.Press()
		}
		if bound && bind.fn != nil {
			bind.fn()
		}
	}
}

// Close releases the buttons and restores the terminal
func (p *Panel) Close() {
	p.closeOnce.Do(func() {
		close(p.closeCh)

		p.mu.Lock()
		for _, b := range p.buttons {
			b.stop()
		}
		p.mu.Unlock()

		p.screen.Fini()
		p.wg.Wait()
	})
}

// Drawing, caller holds mu

func (p *Panel) redrawLocked() {
	p.screen.Clear()
	p.drawText(0, rowTitle, p.title, tcell.StyleDefault.Bold(true))
	p.drawPixelsLocked()
	p.drawLaserLocked()
	p.drawStatusLocked()
	p.drawHelpLocked()
	p.screen.Show()
}

func (p *Panel) drawPixelsLocked() {
	p.drawText(0, rowPixels, "pixels", tcell.StyleDefault)
	for i, c := range p.shown {
		style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)))
		p.screen.SetContent(labelWidth+i*2, rowPixels, '█', nil, style)
	}
}

func (p *Panel) drawLaserLocked() {
	p.clearRow(rowLaser)
	p.drawText(0, rowLaser, "laser", tcell.StyleDefault)

	level := float64(p.duty) / pwmMaxDuty
	beam := render.Scale(render.RGBRed, level)
	style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(beam.R), int32(beam.G), int32(beam.B)))
	p.screen.SetContent(labelWidth, rowLaser, '●', nil, style)

	info := "off"
	if p.duty > 0 {
		info = fmt.Sprintf("%d%% @ %dHz", p.duty*100/pwmMaxDuty, p.freq)
	}
	p.drawText(labelWidth+2, rowLaser, info, tcell.StyleDefault)
}

func (p *Panel) drawStatusLocked() {
	width, _ := p.screen.Size()
	p.clearRow(rowStatus)
	p.clearRow(rowStatus + 1)
	if p.status == nil {
		return
	}

	x, y := 0, rowStatus
	for _, field := range p.status() {
		if x > 0 && x+len(field) > width && y == rowStatus {
			x, y = 0, y+1
		}
		p.drawText(x, y, field, tcell.StyleDefault.Dim(true))
		x += len(field) + 2
	}
}

func (p *Panel) drawHelpLocked() {
	_, height := p.screen.Size()
	row := rowStatus + 3
	if height > 0 && row >= height {
		row = height - 1
	}

	keys := make([]string, 0, len(p.buttons)+len(p.binds)+1)
	for r, b := range p.buttons {
		keys = append(keys, fmt.Sprintf("[%s] %s", keyName(r), b.name))
	}
	for r, b := range p.binds {
		keys = append(keys, fmt.Sprintf("[%s] %s", keyName(r), b.label))
	}
	sort.Strings(keys)
	keys = append(keys, "[q] quit")

	p.clearRow(row)
	p.drawText(0, row, strings.Join(keys, "  "), tcell.StyleDefault)
}

func (p *Panel) drawText(x, y int, text string, style tcell.Style) {
	for _, r := range text {
		p.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func (p *Panel) clearRow(y int) {
	width, _ := p.screen.Size()
	for x := 0; x < width; x++ {
		p.screen.SetContent(x, y, ' ', nil, tcell.StyleDefault)
	}
}

func keyName(r rune) string {
	if r == ' ' {
		return "space"
	}
	return string(r)
}
