package device

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/lixenwraith/stramash/fx"
	"github.com/lixenwraith/stramash/link"
	"github.com/lixenwraith/stramash/player"
	"github.com/lixenwraith/stramash/sensor"
	"github.com/lixenwraith/stramash/status"
	"github.com/lixenwraith/stramash/weapon"
)

// cells caches registry cells so hooks write atomics without map lookups
type cells struct {
	shots     *atomic.Int64
	reloads   *atomic.Int64
	ammo      *atomic.Int64
	hits      *atomic.Int64
	friendly  *atomic.Int64
	reloading *atomic.Bool
	linked    *atomic.Bool
	player    *status.AtomicString
	effect    *status.AtomicString
	lifecycle *status.AtomicString
}

func newCells(r *status.Registry) cells {
	return cells{
		shots:     r.Ints.Get(status.KeyShots),
		reloads:   r.Ints.Get(status.KeyReloads),
		ammo:      r.Ints.Get(status.KeyAmmo),
		hits:      r.Ints.Get(status.KeyHits),
		friendly:  r.Ints.Get(status.KeyFriendlyFire),
		reloading: r.Bools.Get(status.KeyReloading),
		linked:    r.Bools.Get(status.KeyLinked),
		player:    r.Strings.Get(status.KeyPlayer),
		effect:    r.Strings.Get(status.KeyEffect),
		lifecycle: r.Strings.Get(status.KeyLifecycle),
	}
}

// hook connects component notifications to the metrics and the server link
func (d *Device) hook() {
	d.cells.ammo.Store(int64(d.weapon.State().Ammo))
	d.cells.player.Store(d.player.State().String())

	d.player.OnStateChanged(func(f player.Flags) {
		d.cells.player.Store(f.String())
	})
	d.effects.Observe(func(req fx.Request) {
		if req.Event != fx.EventUpdate {
			d.cells.effect.Store(req.Event.String())
		}
	})

	d.weapon.OnFire(func(s weapon.State) {
		d.cells.shots.Store(int64(s.Shots))
		d.cells.ammo.Store(int64(s.Ammo))
		d.publish("fire", func(m link.Messenger, game string) error {
			return link.PublishFire(m, game, d.player.ID())
		})
	})
	d.weapon.OnOutOfAmmo(func(s weapon.State) {
		d.cells.ammo.Store(int64(s.Ammo))
	})
	d.weapon.OnReload(func(s weapon.State) {
		d.cells.reloads.Store(int64(s.Reloads))
		d.cells.reloading.Store(true)
	})
	d.weapon.OnReloadComplete(func(s weapon.State) {
		d.cells.ammo.Store(int64(s.Ammo))
		d.cells.reloading.Store(false)
	})

	d.arbiter.OnHit(func(h sensor.HitRecord) {
		d.cells.hits.Add(1)
		d.publish("hit", func(m link.Messenger, game string) error {
			return link.PublishHit(m, game, h)
		})
	})
	d.arbiter.OnFriendlyFire(func(sensor.HitRecord) {
		d.cells.friendly.Add(1)
	})
}

// publish reports to the server while in a game and connected
func (d *Device) publish(what string, send func(m link.Messenger, game string) error) {
	game := d.player.Game()
	if game == "" {
		return
	}
	m := d.currentMessenger()
	if !m.Connected() {
		return
	}
	if err := send(m, game); err != nil {
		d.log.Warn("publish failed", zap.String("message", what), zap.Error(err))
	}
}
