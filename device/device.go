package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/lixenwraith/stramash/audio"
	"github.com/lixenwraith/stramash/config"
	"github.com/lixenwraith/stramash/fx"
	"github.com/lixenwraith/stramash/input"
	"github.com/lixenwraith/stramash/link"
	"github.com/lixenwraith/stramash/logging"
	"github.com/lixenwraith/stramash/player"
	"github.com/lixenwraith/stramash/sensor"
	"github.com/lixenwraith/stramash/status"
	"github.com/lixenwraith/stramash/weapon"
)

// Hardware is the set of peripherals a gun drives
type Hardware struct {
	Strip    fx.Strip
	Laser    fx.PWM
	Trigger  input.Switch
	Reload   input.Switch
	Emitter  weapon.Emitter
	Receiver sensor.Receiver
}

func (h Hardware) validate() error {
	var missing []error
	if h.Strip == nil {
		missing = append(missing, errors.New("pixel strip"))
	}
	if h.Laser == nil {
		missing = append(missing, errors.New("laser"))
	}
	if h.Trigger == nil {
		missing = append(missing, errors.New("trigger switch"))
	}
	if h.Reload == nil {
		missing = append(missing, errors.New("reload switch"))
	}
	if h.Emitter == nil {
		missing = append(missing, errors.New("ir emitter"))
	}
	if h.Receiver == nil {
		missing = append(missing, errors.New("ir receiver"))
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing hardware: %w", errors.Join(missing...))
	}
	return nil
}

// Options carries the process-level collaborators of a device
type Options struct {
	Log     *zap.Logger
	Level   *zap.AtomicLevel // Runtime level control, nil ignores logging reloads
	Metrics *status.Registry // Nil creates a private registry
}

// Device composes the player, effects, weapon and sensor of one gun
type Device struct {
	log     *zap.Logger
	level   *zap.AtomicLevel
	metrics *status.Registry
	cells   cells

	lifecycle *fsm.FSM

	player     *player.Player
	effects    *fx.Engine
	pixels     *fx.Pixels
	laser      *fx.Laser
	sound      *audio.Sound
	weapon     *weapon.Controller
	arbiter    *sensor.Arbiter
	receiver   sensor.Receiver
	dispatcher *input.Dispatcher
	trigger    *input.Debouncer
	reload     *input.Debouncer

	mu        sync.Mutex // Protects cfg and messenger
	cfg       *config.Config
	messenger link.Messenger

	closed    atomic.Bool
	closeCh   chan struct{}
	closeOnce sync.Once
}

// New wires a device from cfg onto hw
// The device starts in the booting state; call Run to boot and serve
func New(cfg *config.Config, hw Hardware, opts Options) (*Device, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := hw.validate(); err != nil {
		return nil, err
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = status.NewRegistry()
	}

	d := &Device{
		log:       log.Named("device"),
		level:     opts.Level,
		metrics:   metrics,
		cells:     newCells(metrics),
		cfg:       cfg,
		messenger: link.Nop{},
		receiver:  hw.Receiver,
		closeCh:   make(chan struct{}),
	}

	d.player = player.New(cfg.Hardware.Identifier, log)
	d.effects = fx.NewEngine(log)

	d.laser = fx.NewLaser(hw.Laser, fx.LaserConfig{
		MaxBrightness: cfg.Hardware.LaserBrightness,
		FireBlip:      cfg.Effects.FireBlip,
	}, log)
	d.pixels = fx.NewPixels(hw.Strip, d.player, pixelConfig(cfg), log)
	d.effects.Add(d.laser)
	d.effects.Add(d.pixels)

	if cfg.Audio.Enabled {
		d.sound = audio.NewSound(audio.Config{
			Volume:     cfg.Audio.Volume,
			SampleRate: audio.DefaultConfig().SampleRate,
		}, log)
		if err := d.sound.Init(); err != nil {
			d.log.Warn("audio unavailable, running silent", zap.Error(err))
		}
		d.effects.Add(d.sound)
	}
	d.player.SetEffects(d.effects)

	d.weapon = weapon.New(d.player, hw.Emitter, d.effects, cfg.Weapon.MaxAmmo, cfg.Weapon.ReloadTime, log)
	d.arbiter = sensor.NewArbiter(sensor.Config{
		ID:              uint8(cfg.Hardware.SensorID),
		Name:            cfg.Hardware.SensorName,
		ExcludeFriendly: cfg.Weapon.ExcludeFriendly,
	}, d.player, d.effects, log)

	d.dispatcher = input.NewDispatcher(0, log)
	d.trigger = input.NewDebouncer(hw.Trigger, cfg.Hardware.DebounceDelay, d.dispatcher, log.Named("trigger"))
	d.reload = input.NewDebouncer(hw.Reload, cfg.Hardware.DebounceDelay, d.dispatcher, log.Named("reload"))

	d.lifecycle = fsm.NewFSM(
		StateBooting,
		fsm.Events{
			{Name: eventBooted, Src: []string{StateBooting}, Dst: StateOffline},
			{Name: eventConnect, Src: []string{StateOffline}, Dst: StateOnline},
			{Name: eventDisconnect, Src: []string{StateOnline}, Dst: StateOffline},
			{Name: eventClose, Src: []string{StateBooting, StateOffline, StateOnline}, Dst: StateClosed},
		},
		fsm.Callbacks{
			"enter_state":           d.enterState,
			"enter_" + StateOffline: d.enterOffline,
			"enter_" + StateOnline:  d.enterOnline,
		},
	)

	d.hook()
	d.arbiter.Listen(hw.Receiver)
	d.trigger.SetCallback(d.weapon.Fire)
	d.reload.SetCallback(d.weapon.Reload)

	d.cells.lifecycle.Store(StateBooting)
	d.log.Info("device created",
		zap.String("id", cfg.Hardware.Identifier),
		zap.String("version", cfg.Game.Version),
		zap.Int("pixels", hw.Strip.Len()))
	return d, nil
}

func pixelConfig(cfg *config.Config) fx.PixelConfig {
	pc := fx.DefaultPixelConfig()
	pc.FrameRate = cfg.Effects.FrameRate
	pc.ReloadDuration = cfg.Weapon.ReloadTime
	if cfg.Effects.BootTime > 0 {
		pc.BootDuration = cfg.Effects.BootTime
	}
	return pc
}

// Accessors

func (d *Device) Player() *player.Player     { return d.player }
func (d *Device) Weapon() *weapon.Controller { return d.weapon }
func (d *Device) Arbiter() *sensor.Arbiter   { return d.arbiter }
func (d *Device) Effects() *fx.Engine        { return d.effects }
func (d *Device) Pixels() *fx.Pixels         { return d.pixels }
func (d *Device) Metrics() *status.Registry  { return d.metrics }
func (d *Device) State() string              { return d.lifecycle.Current() }
func (d *Device) Messenger() link.Messenger  { return d.currentMessenger() }

func (d *Device) currentConfig() *config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

func (d *Device) currentMessenger() link.Messenger {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.messenger
}

// ApplyConfig takes the hot-reloadable settings from cfg
// Logging level, magazine size and reload time change in place; other keys need a restart
func (d *Device) ApplyConfig(cfg *config.Config) {
	if cfg == nil || d.closed.Load() {
		return
	}
	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()

	if d.level != nil {
		if err := logging.SetLevel(*d.level, cfg.Logging.Level); err != nil {
			d.log.Warn("log level not applied", zap.Error(err))
		}
	}
	d.weapon.SetMaxAmmo(cfg.Weapon.MaxAmmo)
	d.weapon.SetReloadTime(cfg.Weapon.ReloadTime)
	d.cells.ammo.Store(int64(d.weapon.State().Ammo))

	d.log.Info("config applied",
		zap.String("log_level", cfg.Logging.Level),
		zap.Int("max_ammo", cfg.Weapon.MaxAmmo),
		zap.Duration("reload_time", cfg.Weapon.ReloadTime))
}

// Close stops input, waits for in-flight reloads and animations, then turns outputs off
func (d *Device) Close() error {
	var err error
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.closeCh)
		if e := d.lifecycle.Event(context.Background(), eventClose); e != nil {
			d.log.Debug("close transition", zap.Error(e))
		}

		d.trigger.Close()
		d.reload.Close()
		d.dispatcher.Close()
		d.weapon.Close()

		d.mu.Lock()
		m := d.messenger
		d.messenger = link.Nop{}
		d.mu.Unlock()

		err = errors.Join(
			d.receiver.Close(),
			m.Close(),
		)
		d.effects.Close()
		d.log.Info("device closed")
	})
	return err
}

// sleep waits for d or until ctx ends or the device closes
func (d *Device) sleep(ctx context.Context, dur time.Duration) error {
	if dur <= 0 {
		return nil
	}
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.closeCh:
		return errClosed
	}
}

var errClosed = errors.New("device closed")
