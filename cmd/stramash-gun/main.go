package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/lixenwraith/stramash/config"
	"github.com/lixenwraith/stramash/device"
	"github.com/lixenwraith/stramash/logging"
	"github.com/lixenwraith/stramash/player"
	"github.com/lixenwraith/stramash/sim"
	"github.com/lixenwraith/stramash/status"
)

const defaultLogFile = "stramash-gun.log"

var (
	configPath = flag.String("config", "", "TOML config file, watched for changes (defaults when empty)")
	debugFlag  = flag.Bool("debug", false, "Log at debug level")
	logFile    = flag.String("log", "", "Log file (the terminal is taken by the panel)")
)

// emergencyReset restores the terminal after a crash, set once the panel is up
var emergencyReset = func() {}

func main() {
	// Panic Recovery: restore the terminal so the trace is readable
	defer func() {
		if r := recover(); r != nil {
			emergencyReset()
			fmt.Fprintf(os.Stderr, "\nSTRAMASH GUN CRASHED: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack Trace:\n%s\n", debug.Stack())
			os.Exit(1)
		}
	}()

	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "stramash-gun: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *debugFlag {
		cfg.Logging.Level = "debug"
	}
	if *logFile != "" {
		cfg.Logging.File = *logFile
	} else if cfg.Logging.File == "" {
		cfg.Logging.File = defaultLogFile
	}

	log, level, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer log.Sync()

	title := fmt.Sprintf("Laser Stramash %s  %s", cfg.Game.Version, cfg.Hardware.Identifier)
	panel, err := sim.NewPanel(nil, cfg.Hardware.PixelCount, title, log)
	if err != nil {
		return err
	}
	emergencyReset = panel.Close
	defer panel.Close()

	air := sim.NewAir(log)
	emitter, receiver := air.Attach()
	metrics := status.NewRegistry()

	dev, err := device.New(cfg, device.Hardware{
		Strip:    panel,
		Laser:    panel,
		Trigger:  panel.Button(' ', "fire"),
		Reload:   panel.Button('r', "reload"),
		Emitter:  emitter,
		Receiver: receiver,
	}, device.Options{Log: log, Level: &level, Metrics: metrics})
	if err != nil {
		return err
	}
	defer dev.Close()

	bindOperatorKeys(panel, air, dev)
	panel.SetStatus(metrics.Snapshot)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	panel.OnQuit(stop)

	if *configPath != "" {
		// Debug flag keeps winning over reloaded files
		apply := dev.ApplyConfig
		if *debugFlag {
			apply = func(c *config.Config) {
				c.Logging.Level = "debug"
				dev.ApplyConfig(c)
			}
		}
		w, err := config.Watch(*configPath, apply, log)
		if err != nil {
			log.Warn("config reload disabled", zap.Error(err))
		} else {
			defer w.Close()
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := dev.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("device stopped", zap.Error(err))
			stop()
		}
	}()
	go func() {
		defer wg.Done()
		if err := panel.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("panel stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	if err := dev.Close(); err != nil {
		log.Warn("close", zap.Error(err))
	}
	panel.Close()
	wg.Wait()
	return nil
}

// loadConfig reads path, or parses an empty file for the defaults with a generated identifier
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Parse("")
	}
	return config.Load(path)
}

// bindOperatorKeys stands in for other guns and the game server
func bindOperatorKeys(panel *sim.Panel, air *sim.Air, dev *device.Device) {
	p := dev.Player()

	panel.Bind('h', "enemy hit", func() {
		enemy := uint8(2)
		if team, ok := p.Team(); ok {
			enemy = team.Number + 1
		}
		air.Inject(enemy, 1)
	})
	panel.Bind('s', "shield", func() {
		if p.State().Has(player.Shielded) {
			p.Unshield()
		} else {
			p.Shield()
		}
	})
	panel.Bind('k', "kill", func() {
		if p.State().Has(player.Alive) {
			p.Kill()
		} else {
			p.Resurrect()
		}
	})
	panel.Bind('u', "up/down", func() {
		if p.State().Has(player.Up) {
			p.Down()
		} else {
			p.Up()
		}
	})
	panel.Bind('p', "powerup", dev.Effects().Powerup)
}
