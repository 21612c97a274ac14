package link

import (
	"time"
)

// Config holds messaging client configuration
type Config struct {
	// Server is the websocket URL of the game server, empty runs offline
	Server string

	// Timing
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration

	// Buffer sizes
	SendQueueSize int
	RecvQueueSize int
}

// DefaultConfig returns the stock client settings
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 5 * time.Second,
		WriteTimeout:     5 * time.Second,
		SendQueueSize:    64,
		RecvQueueSize:    64,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = def.HandshakeTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = def.SendQueueSize
	}
	if c.RecvQueueSize <= 0 {
		c.RecvQueueSize = def.RecvQueueSize
	}
	return c
}
