package fx

import (
	"sync"

	"go.uber.org/zap"
)

// Engine fans effect requests out to every registered backend in order
type Engine struct {
	log *zap.Logger

	mu       sync.RWMutex
	backends []Backend
	observer func(Request)
	closed   bool
}

// NewEngine creates an empty effect engine
func NewEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log.Named("fx")}
}

// Add registers a backend; dispatch order is registration order
func (e *Engine) Add(b Backend) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.backends = append(e.backends, b)
}

// Backends returns the registered backends
func (e *Engine) Backends() []Backend {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Backend, len(e.backends))
	copy(out, e.backends)
	return out
}

// Observe sets a hook called with every dispatched request
func (e *Engine) Observe(fn func(Request)) {
	e.mu.Lock()
	e.observer = fn
	e.mu.Unlock()
}

// Trigger dispatches an event without payload
func (e *Engine) Trigger(ev Event) {
	e.Dispatch(Request{Event: ev})
}

// Dispatch invokes the method named by req.Event on every backend
func (e *Engine) Dispatch(req Request) {
	if !req.Event.Valid() {
		e.log.Warn("unknown effect ignored", zap.Uint8("event", uint8(req.Event)))
		return
	}
	if req.Event == EventClose {
		e.Close()
		return
	}

	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return
	}
	backends := e.backends
	observer := e.observer
	e.mu.RUnlock()

	call := dispatch[req.Event]
	for _, b := range backends {
		call(b, req)
	}

	if observer != nil {
		observer(req)
	}
}

// Close closes every backend, waiting for in-flight animations
// Subsequent requests are ignored
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	backends := e.backends
	e.mu.Unlock()

	for _, b := range backends {
		b.Close()
	}
	e.log.Debug("effects closed", zap.Int("backends", len(backends)))
}

// Convenience wrappers

func (e *Engine) Fire()       { e.Trigger(EventFire) }
func (e *Engine) FireFail()   { e.Trigger(EventFireFail) }
func (e *Engine) Hit()        { e.Trigger(EventHit) }
func (e *Engine) Powerup()    { e.Trigger(EventPowerup) }
func (e *Engine) Activate()   { e.Trigger(EventActivate) }
func (e *Engine) Deactivate() { e.Trigger(EventDeactivate) }
func (e *Engine) Shield()     { e.Trigger(EventShield) }
func (e *Engine) Unshield()   { e.Trigger(EventUnshield) }
func (e *Engine) Update()     { e.Trigger(EventUpdate) }
