package sim

import (
	"sync"

	"go.uber.org/zap"
)

// Air is an in-process infrared medium shared by simulated guns
// A code reaches every attached receiver except the one paired with the sender
type Air struct {
	log *zap.Logger

	mu        sync.RWMutex
	receivers []*Receiver
}

// NewAir creates an empty medium
func NewAir(log *zap.Logger) *Air {
	if log == nil {
		log = zap.NewNop()
	}
	return &Air{log: log.Named("ir")}
}

// Attach adds a gun to the medium and returns its emitter and receiver
func (a *Air) Attach() (*Emitter, *Receiver) {
	r := &Receiver{air: a}
	a.mu.Lock()
	a.receivers = append(a.receivers, r)
	a.mu.Unlock()
	return &Emitter{air: a, own: r}, r
}

// Inject delivers a code from a shooter outside the simulation
func (a *Air) Inject(address, data uint8) {
	a.deliver(nil, address, data)
}

func (a *Air) deliver(from *Receiver, address, data uint8) {
	a.mu.RLock()
	targets := make([]*Receiver, 0, len(a.receivers))
	for _, r := range a.receivers {
		if r != from {
			targets = append(targets, r)
		}
	}
	a.mu.RUnlock()

	a.log.Debug("code",
		zap.Uint8("address", address),
		zap.Uint8("data", data),
		zap.Int("receivers", len(targets)))

	for _, r := range targets {
		r.receive(int(address), int(data))
	}
}

func (a *Air) detach(r *Receiver) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, x := range a.receivers {
		if x == r {
			a.receivers = append(a.receivers[:i], a.receivers[i+1:]...)
			return
		}
	}
}

// Emitter transmits into the medium
type Emitter struct {
	air *Air
	own *Receiver
}

func (e *Emitter) Transmit(address, data uint8) {
	e.air.deliver(e.own, address, data)
}

// Receiver hands decoded codes to its handler
type Receiver struct {
	air *Air

	mu      sync.Mutex
	handler func(address, data, control int)
}

func (r *Receiver) SetHandler(fn func(address, data, control int)) {
	r.mu.Lock()
	r.handler = fn
	r.mu.Unlock()
}

func (r *Receiver) receive(address, data int) {
	r.mu.Lock()
	fn := r.handler
	r.mu.Unlock()
	if fn != nil {
		fn(address, data, 0)
	}
}

// Close detaches the receiver from the medium
func (r *Receiver) Close() error {
	r.SetHandler(nil)
	r.air.detach(r)
	return nil
}
