package input

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultDelay is the settle time before a press is confirmed
const DefaultDelay = 50 * time.Millisecond

// Switch is an active-low input line: Level is false while pressed
// The edge handler is called on any raw transition, possibly many times per press
type Switch interface {
	Level() bool
	SetEdgeHandler(fn func())
}

// Debouncer turns a noisy switch into one callback per confirmed press
// Releases are never reported
type Debouncer struct {
	log        *zap.Logger
	sw         Switch
	delay      time.Duration
	dispatcher *Dispatcher
	ownsQueue  bool

	mu       sync.Mutex
	callback func()
	timer    *time.Timer
	gen      uint64 // Invalidates timers torn down by SetCallback
	armed    bool   // Edge detection enabled
	closed   bool
	wg       sync.WaitGroup
}

// NewDebouncer watches sw; delay <= 0 selects DefaultDelay
// A nil dispatcher gets a private one that Close shuts down
func NewDebouncer(sw Switch, delay time.Duration, dispatcher *Dispatcher, log *zap.Logger) *Debouncer {
	if log == nil {
		log = zap.NewNop()
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	d := &Debouncer{
		log:        log.Named("debounce"),
		sw:         sw,
		delay:      delay,
		dispatcher: dispatcher,
	}
	if d.dispatcher == nil {
		d.dispatcher = NewDispatcher(0, log)
		d.ownsQueue = true
	}
	return d
}

// Delay returns the settle time
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// SetCallback arms the debouncer with fn, tearing down any pending timer
func (d *Debouncer) SetCallback(fn func()) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.stopTimerLocked()
	d.callback = fn
	d.armed = true
	d.mu.Unlock()

	d.sw.SetEdgeHandler(d.onEdge)
}

// onEdge disables edge detection and starts the settle timer
func (d *Debouncer) onEdge() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || !d.armed {
		return
	}
	d.armed = false
	d.stopTimerLocked()

	d.gen++
	gen := d.gen
	d.wg.Add(1)
	d.timer = time.AfterFunc(d.delay, func() { d.onExpire(gen) })
}

// onExpire confirms the press if the line is still active, then re-arms
func (d *Debouncer) onExpire(gen uint64) {
	defer d.wg.Done()

	d.mu.Lock()
	if d.closed || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	callback := d.callback
	d.mu.Unlock()

	if !d.sw.Level() && callback != nil {
		d.dispatcher.Post(callback)
	}

	d.mu.Lock()
	if !d.closed && gen == d.gen {
		d.armed = true
	}
	d.mu.Unlock()
}

// stopTimerLocked cancels a pending timer; a timer already running sees a stale generation
func (d *Debouncer) stopTimerLocked() {
	if d.timer == nil {
		return
	}
	if d.timer.Stop() {
		d.wg.Done()
	}
	d.timer = nil
	d.gen++
}

// Close detaches from the switch and waits for pending timers
func (d *Debouncer) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.stopTimerLocked()
	d.mu.Unlock()

	d.sw.SetEdgeHandler(nil)
	d.wg.Wait()

	if d.ownsQueue {
		d.dispatcher.Close()
	}
}
