package status

import (
	"strconv"
	"sync/atomic"
)

// Keys written by the device
const (
	KeyShots        = "weapon.shots"
	KeyReloads      = "weapon.reloads"
	KeyAmmo         = "weapon.ammo"
	KeyReloading    = "weapon.reloading"
	KeyHits         = "sensor.hits"
	KeyFriendlyFire = "sensor.friendly"
	KeyPlayer       = "player.state"
	KeyEffect       = "fx.last"
	KeyLifecycle    = "device.state"
	KeyLinked       = "link.up"
)

// Registry is the device's metrics facade
// Components cache cells at wiring time and write atomics afterwards
type Registry struct {
	Bools   *MetricMap[atomic.Bool]
	Ints    *MetricMap[atomic.Int64]
	Strings *MetricMap[AtomicString]
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		Bools:   NewMetricMap[atomic.Bool](),
		Ints:    NewMetricMap[atomic.Int64](),
		Strings: NewMetricMap[AtomicString](),
	}
}

// TotalCount returns the number of cells of every type
func (r *Registry) TotalCount() int {
	return r.Bools.Count() + r.Ints.Count() + r.Strings.Count()
}

// Snapshot renders every metric as "key=value", ints then bools then strings
func (r *Registry) Snapshot() []string {
	out := make([]string, 0, r.TotalCount())
	r.Ints.Range(func(k string, c *atomic.Int64) {
		out = append(out, k+"="+strconv.FormatInt(c.Load(), 10))
	})
	r.Bools.Range(func(k string, c *atomic.Bool) {
		out = append(out, k+"="+strconv.FormatBool(c.Load()))
	})
	r.Strings.Range(func(k string, c *AtomicString) {
		out = append(out, k+"="+c.Load())
	})
	return out
}
