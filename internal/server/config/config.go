// Package config holds the minimal configuration surface enumerated in
// §6: everything a deployment can set to shape the server without
// touching code. CLI flag parsing and file loading live in cmd/server,
// out of scope per §1; this package only defines the values, their
// defaults, and the clamping §6 documents.
package config

import (
	"crypto/rsa"
	"runtime"
	"time"

	"github.com/ocraft/voxelserver/internal/chunkcache"
)

// Config is the server's full external configuration surface, §6.
type Config struct {
	BindAddress          string        `toml:"bind_address"`
	WorldDirectory       string        `toml:"world_directory"`
	ViewDistance         int32         `toml:"view_distance"`
	CacheInitialBytes    int64         `toml:"cache_initial_bytes"`
	CacheMaxBytes        int64         `toml:"cache_max_bytes"`
	WorkerPoolSize       int           `toml:"worker_pool_size"`
	CompressionThreshold int           `toml:"compression_threshold"`
	OnlineMode           bool          `toml:"online_mode"`
	Seed                 int64         `toml:"seed"`
	IdleTimeout          time.Duration `toml:"idle_timeout"`

	// MOTD and MaxPlayers feed the Status-state response (§6); the spec
	// doesn't name them explicitly but StatusResponse has nowhere else
	// to get them from.
	MOTD       string `toml:"motd"`
	MaxPlayers int    `toml:"max_players"`

	// PrivateKey/PublicKeyDER are generated at startup when OnlineMode
	// is set (§4.4's RSA/PKCS#1 1024-bit keypair), never loaded from a
	// file.
	PrivateKey   *rsa.PrivateKey `toml:"-"`
	PublicKeyDER []byte          `toml:"-"`
}

// Default returns a Config with every §6-documented default applied.
func Default() *Config {
	return &Config{
		BindAddress:          "127.0.0.1:25565",
		WorldDirectory:       "world",
		ViewDistance:         10,
		CacheInitialBytes:    chunkcache.DefaultInitialBudget,
		CacheMaxBytes:        chunkcache.DefaultMaxBudget,
		WorkerPoolSize:       runtime.NumCPU(),
		CompressionThreshold: 256,
		OnlineMode:           false,
		IdleTimeout:          30 * time.Second,
		MOTD:                 "A Minecraft Server",
		MaxPlayers:           20,
	}
}

// Clamp enforces the ranges §6 documents (view distance 2..32) and fills
// in any zero-value field that must never be zero at runtime.
func (c *Config) Clamp() {
	if c.ViewDistance < 2 {
		c.ViewDistance = 2
	}
	if c.ViewDistance > 32 {
		c.ViewDistance = 32
	}
	if c.WorkerPoolSize <= 0 {
		c.WorkerPoolSize = runtime.NumCPU()
	}
	if c.CacheMaxBytes <= 0 {
		c.CacheMaxBytes = chunkcache.DefaultMaxBudget
	}
	if c.CacheInitialBytes <= 0 || c.CacheInitialBytes > c.CacheMaxBytes {
		c.CacheInitialBytes = chunkcache.DefaultInitialBudget
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 30 * time.Second
	}
}
