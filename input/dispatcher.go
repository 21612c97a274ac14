package input

import (
	"sync"

	"go.uber.org/zap"
)

const defaultQueueSize = 16

// Dispatcher runs callbacks one at a time on its own goroutine
// A callback posted from inside another callback is queued, never nested
type Dispatcher struct {
	log   *zap.Logger
	queue chan func()

	mu     sync.Mutex // Guards closed against Post
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher starts a dispatcher with room for size pending callbacks
func NewDispatcher(size int, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if size <= 0 {
		size = defaultQueueSize
	}
	d := &Dispatcher{
		log:   log.Named("dispatch"),
		queue: make(chan func(), size),
	}
	d.wg.Add(1)
	go d.loop()
	return d
}

// Post schedules fn, returns false if closed or the queue is full
func (d *Dispatcher) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	select {
	case d.queue <- fn:
		return true
	default:
		d.log.Warn("callback dropped, queue full")
		return false
	}
}

// Close drains queued callbacks and stops the goroutine
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()
	for fn := range d.queue {
		d.run(fn)
	}
}

func (d *Dispatcher) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("callback panicked", zap.Any("panic", r))
		}
	}()
	fn()
}
