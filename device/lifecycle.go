package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/lixenwraith/stramash/config"
	"github.com/lixenwraith/stramash/link"
	"github.com/lixenwraith/stramash/player"
	"github.com/lixenwraith/stramash/render"
)

// Lifecycle states
const (
	StateBooting = "booting"
	StateOffline = "offline"
	StateOnline  = "online"
	StateClosed  = "closed"
)

const (
	eventBooted     = "booted"
	eventConnect    = "connect"
	eventDisconnect = "disconnect"
	eventClose      = "close"
)

func (d *Device) enterState(_ context.Context, e *fsm.Event) {
	d.cells.lifecycle.Store(e.Dst)
	d.log.Info("lifecycle",
		zap.String("event", e.Event),
		zap.String("from", e.Src),
		zap.String("to", e.Dst))
}

// Offline shows orange when no team colour overrides it
func (d *Device) enterOffline(context.Context, *fsm.Event) {
	d.cells.linked.Store(false)
	d.pixels.SetBase(render.RGBOrange)
	d.pixels.Update()
}

func (d *Device) enterOnline(context.Context, *fsm.Event) {
	d.cells.linked.Store(true)
	d.pixels.SetBase(render.RGBGreen)
	if !d.pixels.Connected() {
		d.pixels.Update()
	}
}

// Boot shows the boot indication, leaves the booting state and connects when a server is configured
// Without a connection the bootstrap team, if enabled, is assigned
func (d *Device) Boot(ctx context.Context) error {
	if !d.lifecycle.Is(StateBooting) {
		return nil
	}
	cfg := d.currentConfig()

	d.pixels.SetBase(render.RGBRed)
	d.pixels.Bootup()
	if err := d.sleep(ctx, cfg.Effects.BootTime); err != nil {
		return err
	}
	if d.closed.Load() {
		return errClosed
	}
	if err := d.lifecycle.Event(ctx, eventBooted); err != nil {
		return fmt.Errorf("boot: %w", err)
	}

	d.connect(ctx, cfg.Network)

	if cfg.Bootstrap.Enabled && !d.lifecycle.Is(StateOnline) {
		d.bootstrap(cfg.Bootstrap)
	}
	return nil
}

func (d *Device) connect(ctx context.Context, nc config.NetworkConfig) {
	if nc.Server == "" {
		d.log.Info("no server configured, running offline")
		return
	}

	c, err := link.Dial(ctx, link.Config{
		Server:           nc.Server,
		HandshakeTimeout: nc.HandshakeTimeout,
		WriteTimeout:     nc.WriteTimeout,
		SendQueueSize:    nc.SendQueueSize,
	}, d.player, d.log)
	if err != nil {
		d.log.Warn("server unreachable, running offline", zap.Error(err))
		return
	}

	d.mu.Lock()
	d.messenger = c
	d.mu.Unlock()

	if err := d.lifecycle.Event(ctx, eventConnect); err != nil {
		d.log.Warn("connect transition", zap.Error(err))
		d.dropMessenger(c)
	}
}

// bootstrap plays the part of the server for a device running alone
func (d *Device) bootstrap(b config.BootstrapConfig) {
	colour, err := b.RGB()
	if err != nil {
		d.log.Warn("bootstrap team colour", zap.Error(err))
		return
	}
	team := player.NewTeam(uint8(b.Team), uint8(b.Player), colour, b.Name)

	d.log.Info("bootstrap team",
		zap.Uint8("team", team.Number),
		zap.Uint8("player", team.Player),
		zap.String("game", b.Game))
	d.player.Assign(team)
	d.player.JoinGame(b.Game)
	d.player.Up()
}

// Run boots the device and then ticks the messenger until ctx ends or the device closes
func (d *Device) Run(ctx context.Context) error {
	if err := d.Boot(ctx); err != nil {
		if errors.Is(err, errClosed) {
			return nil
		}
		return err
	}

	tick := d.currentConfig().Network.Tick
	if tick <= 0 {
		tick = time.Second
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.closeCh:
			return nil
		case <-ticker.C:
			d.poll(ctx)
		}
	}
}

// poll runs inbound server messages and notices a dropped link
// TODO: redial with backoff instead of staying offline
func (d *Device) poll(ctx context.Context) {
	m := d.currentMessenger()
	m.Update()

	if d.lifecycle.Is(StateOnline) && !m.Connected() {
		d.dropMessenger(m)
		if err := d.lifecycle.Event(ctx, eventDisconnect); err != nil {
			d.log.Debug("disconnect transition", zap.Error(err))
		}
	}
}

func (d *Device) dropMessenger(m link.Messenger) {
	d.mu.Lock()
	if d.messenger == m {
		d.messenger = link.Nop{}
	}
	d.mu.Unlock()

	if err := m.Close(); err != nil {
		d.log.Debug("messenger close", zap.Error(err))
	}
}
