package fx

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// animator owns the busy flag of one backend and tracks its animation goroutines
// A start while busy is rejected, never queued and never pre-empting
type animator struct {
	log    *zap.Logger
	resync func()

	busy atomic.Bool

	mu     sync.Mutex // Serializes claim/idle checks against shutdown
	closed bool
	wg     sync.WaitGroup
}

func newAnimator(log *zap.Logger, resync func()) *animator {
	return &animator{log: log, resync: resync}
}

// start claims the busy flag and runs fn in its own goroutine
// On completion the flag is released and resync runs so output is never stale
func (a *animator) start(effect string, fn func()) bool {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		a.log.Debug("effect dropped, backend closed", zap.String("effect", effect))
		return false
	}
	if !a.busy.CompareAndSwap(false, true) {
		a.mu.Unlock()
		a.log.Debug("effect dropped, backend busy", zap.String("effect", effect))
		return false
	}
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				a.log.Error("effect panicked", zap.String("effect", effect), zap.Any("panic", r))
			}
			a.busy.Store(false)
			a.resync()
		}()
		fn()
	}()
	return true
}

// idle runs fn only when no animation holds the channel
func (a *animator) idle(fn func()) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.busy.Load() {
		return false
	}
	fn()
	return true
}

// isBusy reports whether an animation is running
func (a *animator) isBusy() bool {
	return a.busy.Load()
}

// shutdown refuses new animations and waits for running ones
func (a *animator) shutdown() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.wg.Wait()
}
