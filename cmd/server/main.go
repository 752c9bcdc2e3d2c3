// Command server runs the game server core against a TCP listener.
// Flag parsing, log setup, and config-file loading are build/deploy
// concerns outside the component boundaries in the specification; this
// file only wires them to internal/server.New, the way the teacher's
// cmd/server/main.go does for its own (much smaller) config surface.
package main

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"

	"github.com/ocraft/voxelserver/internal/metrics"
	"github.com/ocraft/voxelserver/internal/server"
	"github.com/ocraft/voxelserver/internal/server/config"
)

func main() {
	cfg := config.Default()

	app := &cli.App{
		Name:  "voxelserver",
		Usage: "a Minecraft Java Edition 1.21.7 game server core",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to a TOML config file, merged over the defaults"},
			&cli.StringFlag{Name: "bind", Value: cfg.BindAddress, Usage: "address to listen on"},
			&cli.StringFlag{Name: "world-dir", Value: cfg.WorldDirectory, Usage: "region file directory"},
			&cli.IntFlag{Name: "view-distance", Value: int(cfg.ViewDistance), Usage: "chunk view distance"},
			&cli.BoolFlag{Name: "online-mode", Value: cfg.OnlineMode, Usage: "enable Mojang session verification"},
			&cli.Int64Flag{Name: "seed", Value: cfg.Seed, Usage: "world generation seed"},
			&cli.StringFlag{Name: "motd", Value: cfg.MOTD, Usage: "server list description"},
			&cli.IntFlag{Name: "max-players", Value: cfg.MaxPlayers, Usage: "maximum players shown in the server list"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "address for the statsview runtime dashboard; empty disables it"},
		},
		Action: func(c *cli.Context) error {
			if path := c.String("config"); path != "" {
				if err := loadTOMLOver(path, cfg); err != nil {
					return fmt.Errorf("load config %s: %w", path, err)
				}
			}
			if c.IsSet("bind") {
				cfg.BindAddress = c.String("bind")
			}
			if c.IsSet("world-dir") {
				cfg.WorldDirectory = c.String("world-dir")
			}
			if c.IsSet("view-distance") {
				cfg.ViewDistance = int32(c.Int("view-distance"))
			}
			if c.IsSet("online-mode") {
				cfg.OnlineMode = c.Bool("online-mode")
			}
			if c.IsSet("seed") {
				cfg.Seed = c.Int64("seed")
			}
			if c.IsSet("motd") {
				cfg.MOTD = c.String("motd")
			}
			if c.IsSet("max-players") {
				cfg.MaxPlayers = c.Int("max-players")
			}
			cfg.Clamp()

			log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

			if addr := c.String("metrics-addr"); addr != "" {
				metrics.StartViewer(addr)
				log.Info("statsview dashboard started", "addr", addr)
			}

			if cfg.OnlineMode {
				key, err := rsa.GenerateKey(rand.Reader, 1024)
				if err != nil {
					return fmt.Errorf("generate RSA key: %w", err)
				}
				pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
				if err != nil {
					return fmt.Errorf("marshal public key: %w", err)
				}
				cfg.PrivateKey = key
				cfg.PublicKeyDER = pubDER
				log.Info("online mode enabled, RSA keypair generated")
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			srv, err := server.New(ctx, cfg, log)
			if err != nil {
				return fmt.Errorf("initialize server: %w", err)
			}
			return srv.Start(ctx)
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

// loadTOMLOver decodes the file at path into a throwaway config.Config
// and copies every field it's willing to own over base, so a config
// file never has to be complete; the duration field needs its own
// parse since TOML has no native duration type.
func loadTOMLOver(path string, base *config.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fileCfg struct {
		BindAddress          string `toml:"bind_address"`
		WorldDirectory       string `toml:"world_directory"`
		ViewDistance         int32  `toml:"view_distance"`
		CacheInitialBytes    int64  `toml:"cache_initial_bytes"`
		CacheMaxBytes        int64  `toml:"cache_max_bytes"`
		WorkerPoolSize       int    `toml:"worker_pool_size"`
		CompressionThreshold int    `toml:"compression_threshold"`
		OnlineMode           bool   `toml:"online_mode"`
		Seed                 int64  `toml:"seed"`
		IdleTimeoutSeconds   int    `toml:"idle_timeout_seconds"`
		MOTD                 string `toml:"motd"`
		MaxPlayers           int    `toml:"max_players"`
	}
	if err := toml.Unmarshal(data, &fileCfg); err != nil {
		return err
	}

	if fileCfg.BindAddress != "" {
		base.BindAddress = fileCfg.BindAddress
	}
	if fileCfg.WorldDirectory != "" {
		base.WorldDirectory = fileCfg.WorldDirectory
	}
	if fileCfg.ViewDistance != 0 {
		base.ViewDistance = fileCfg.ViewDistance
	}
	if fileCfg.CacheInitialBytes != 0 {
		base.CacheInitialBytes = fileCfg.CacheInitialBytes
	}
	if fileCfg.CacheMaxBytes != 0 {
		base.CacheMaxBytes = fileCfg.CacheMaxBytes
	}
	if fileCfg.WorkerPoolSize != 0 {
		base.WorkerPoolSize = fileCfg.WorkerPoolSize
	}
	if fileCfg.CompressionThreshold != 0 {
		base.CompressionThreshold = fileCfg.CompressionThreshold
	}
	base.OnlineMode = base.OnlineMode || fileCfg.OnlineMode
	if fileCfg.Seed != 0 {
		base.Seed = fileCfg.Seed
	}
	if fileCfg.IdleTimeoutSeconds != 0 {
		base.IdleTimeout = time.Duration(fileCfg.IdleTimeoutSeconds) * time.Second
	}
	if fileCfg.MOTD != "" {
		base.MOTD = fileCfg.MOTD
	}
	if fileCfg.MaxPlayers != 0 {
		base.MaxPlayers = fileCfg.MaxPlayers
	}
	return nil
}
