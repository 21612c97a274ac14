package sim

import (
	"sync"
	"time"
)

// Button is a momentary key presented as an active-low switch line
// A press pulls the line low and a timer releases it after the hold time
type Button struct {
	name string
	hold time.Duration

	mu      sync.Mutex
	low     bool
	edge    func()
	release *time.Timer
	stopped bool
}

// Name returns the button label
func (b *Button) Name() string { return b.name }

// Level reads the line, false while pressed
func (b *Button) Level() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.low
}

// SetEdgeHandler sets the callback for both edges, nil disables it
func (b *Button) SetEdgeHandler(fn func()) {
	b.mu.Lock()
	b.edge = fn
	b.mu.Unlock()
}

// Press pulls the line low; a repeat while held extends the hold
func (b *Button) Press() {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	falling := !b.low
	b.low = true
	if b.release == nil {
		b.release = time.AfterFunc(b.hold, b.up)
	} else {
		b.release.Reset(b.hold)
	}
	edge := b.edge
	b.mu.Unlock()

	if falling && edge != nil {
		edge()
	}
}

func (b *Button) up() {
	b.mu.Lock()
	if !b.low {
		b.mu.Unlock()
		return
	}
	b.low = false
	edge := b.edge
	b.mu.Unlock()

	if edge != nil {
		edge()
	}
}

func (b *Button) stop() {
	b.mu.Lock()
	b.stopped = true
	b.low = false
	if b.release != nil {
		b.release.Stop()
	}
	b.mu.Unlock()
}
