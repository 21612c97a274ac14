package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/lixenwraith/stramash/render"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Game      GameConfig      `toml:"game"`
	Hardware  HardwareConfig  `toml:"hardware"`
	Weapon    WeaponConfig    `toml:"weapon"`
	Effects   EffectsConfig   `toml:"effects"`
	Audio     AudioConfig     `toml:"audio"`
	Network   NetworkConfig   `toml:"network"`
	Logging   LoggingConfig   `toml:"logging"`
	Bootstrap BootstrapConfig `toml:"bootstrap"`
}

type GameConfig struct {
	Version string `toml:"version"`
}

type HardwareConfig struct {
	Identifier      string        `toml:"identifier"` // generated when empty
	PixelCount      int           `toml:"pixel_count"`
	LaserBrightness int           `toml:"laser_brightness"` // 0=off, 1023=max
	SensorID        int           `toml:"sensor_id"`
	SensorName      string        `toml:"sensor_name"`
	DebounceDelay   time.Duration `toml:"debounce_delay"`
}

type WeaponConfig struct {
	MaxAmmo         int           `toml:"max_ammo"`
	ReloadTime      time.Duration `toml:"reload_time"`
	ExcludeFriendly bool          `toml:"exclude_friendly"`
}

type EffectsConfig struct {
	FrameRate int           `toml:"frame_rate"` // pixel animation updates per second
	FireBlip  time.Duration `toml:"fire_blip"`  // laser on time per shot
	BootTime  time.Duration `toml:"boot_time"`  // boot and connect indication length
}

type AudioConfig struct {
	Enabled bool    `toml:"enabled"`
	Volume  float64 `toml:"volume"` // 0.0-1.0
}

type NetworkConfig struct {
	Server           string        `toml:"server"` // websocket URL, empty runs offline
	Tick             time.Duration `toml:"tick"`
	HandshakeTimeout time.Duration `toml:"handshake_timeout"`
	WriteTimeout     time.Duration `toml:"write_timeout"`
	SendQueueSize    int           `toml:"send_queue_size"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
	File   string `toml:"file"`   // empty logs to stderr
}

// BootstrapConfig is the team a device assigns itself when running offline
type BootstrapConfig struct {
	Enabled bool   `toml:"enabled"`
	Team    int    `toml:"team"`
	Player  int    `toml:"player"`
	Colour  string `toml:"colour"` // "#rrggbb"
	Name    string `toml:"name"`
	Game    string `toml:"game"`
}

// RGB parses the bootstrap team colour
func (b BootstrapConfig) RGB() (render.RGB, error) {
	return render.ParseHex(b.Colour)
}

// Default returns the stock configuration
func Default() *Config {
	return defaults()
}

func defaults() *Config {
	return &Config{
		Game: GameConfig{Version: "0.1"},
		Hardware: HardwareConfig{
			PixelCount:      8,
			LaserBrightness: 1023,
			SensorID:        1,
			SensorName:      "gun",
			DebounceDelay:   50 * time.Millisecond,
		},
		Weapon: WeaponConfig{
			MaxAmmo:         10,
			ReloadTime:      5 * time.Second,
			ExcludeFriendly: true,
		},
		Effects: EffectsConfig{
			FrameRate: 50,
			FireBlip:  250 * time.Millisecond,
			BootTime:  time.Second,
		},
		Audio: AudioConfig{
			Enabled: true,
			Volume:  0.5,
		},
		Network: NetworkConfig{
			Tick:             time.Second,
			HandshakeTimeout: 5 * time.Second,
			WriteTimeout:     5 * time.Second,
			SendQueueSize:    64,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Bootstrap: BootstrapConfig{
			Enabled: true,
			Team:    1,
			Player:  1,
			Colour:  "#000080",
			Name:    "Test Team",
			Game:    "Test Game",
		},
	}
}

// Load reads a TOML file over the defaults and validates the result
// Unknown keys are rejected
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(string(data))
}

// Parse decodes TOML text over the defaults and validates the result
func Parse(text string) (*Config, error) {
	cfg := defaults()
	md, err := toml.Decode(text, cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: unknown keys %s", ErrInvalid, strings.Join(keys, ", "))
	}
	if cfg.Hardware.Identifier == "" {
		cfg.Hardware.Identifier = uuid.NewString()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges; every error wraps ErrInvalid
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.Hardware.PixelCount >= 0, "hardware.pixel_count %d < 0", c.Hardware.PixelCount)
	check(c.Hardware.LaserBrightness >= 0 && c.Hardware.LaserBrightness <= 1023,
		"hardware.laser_brightness %d outside 0-1023", c.Hardware.LaserBrightness)
	check(inByte(c.Hardware.SensorID), "hardware.sensor_id %d outside 0-255", c.Hardware.SensorID)
	check(c.Hardware.DebounceDelay > 0, "hardware.debounce_delay must be positive")
	check(c.Weapon.MaxAmmo >= 1, "weapon.max_ammo %d < 1", c.Weapon.MaxAmmo)
	check(c.Weapon.ReloadTime > 0, "weapon.reload_time must be positive")
	check(c.Effects.FrameRate > 0, "effects.frame_rate must be positive")
	check(c.Effects.FireBlip > 0, "effects.fire_blip must be positive")
	check(c.Audio.Volume >= 0 && c.Audio.Volume <= 1, "audio.volume %.2f outside 0-1", c.Audio.Volume)
	check(c.Network.Tick > 0, "network.tick must be positive")
	check(c.Network.SendQueueSize > 0, "network.send_queue_size must be positive")
	check(c.Logging.Format == "console" || c.Logging.Format == "json",
		"logging.format %q not console or json", c.Logging.Format)

	if c.Bootstrap.Enabled {
		check(inByte(c.Bootstrap.Team), "bootstrap.team %d outside 0-255", c.Bootstrap.Team)
		check(inByte(c.Bootstrap.Player), "bootstrap.player %d outside 0-255", c.Bootstrap.Player)
		if _, err := c.Bootstrap.RGB(); err != nil {
			errs = append(errs, fmt.Errorf("%w: bootstrap.colour: %v", ErrInvalid, err))
		}
	}

	return errors.Join(errs...)
}

func inByte(v int) bool {
	return v >= 0 && v <= 255
}
