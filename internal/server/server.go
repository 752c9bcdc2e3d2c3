// Package server wires the whole server together: config, the chunk
// cache, the generation pipeline, region persistence, and the accept
// loop that hands each connection to internal/server/conn. Grounded on
// the teacher's server.go (listen-and-accept shape, context-cancellable
// listener), rewritten to own the C6-C9 subsystems the teacher's
// synchronous world store never needed.
package server

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ocraft/voxelserver/internal/auth"
	"github.com/ocraft/voxelserver/internal/chunkcache"
	"github.com/ocraft/voxelserver/internal/dimension"
	"github.com/ocraft/voxelserver/internal/generation"
	"github.com/ocraft/voxelserver/internal/region"
	"github.com/ocraft/voxelserver/internal/server/config"
	"github.com/ocraft/voxelserver/internal/server/conn"
	"github.com/ocraft/voxelserver/internal/worldgen"
)

// rsaKeyBits is the key size §4.4 names explicitly: "RSA/PKCS#1 v1.5
// 1024-bit".
const rsaKeyBits = 1024

// shutdownGracePeriod bounds how long Start waits for in-flight
// connection goroutines to finish on their own before it proceeds to
// close the cache and generation pipeline out from under them, per §5's
// "drains outstanding connection tasks with a grace period."
const shutdownGracePeriod = 10 * time.Second

// onlineCount is the atomic player counter handed to every connection as
// conn.OnlineCounter; its only consumer outside this package is the
// Status-state response.
type onlineCount struct {
	n atomic.Int64
}

func (o *onlineCount) Add(delta int64) int64 { return o.n.Add(delta) }
func (o *onlineCount) Load() int64           { return o.n.Load() }

// Server owns every long-lived subsystem and the accept loop.
type Server struct {
	cfg *config.Config
	log *slog.Logger

	dim      dimension.Descriptor
	cache    *chunkcache.Cache
	pipeline *generation.Pipeline
	region   *region.Store
	verifier auth.SessionVerifier
	online   *onlineCount

	wg sync.WaitGroup
}

// New wires a Server from cfg. If cfg.OnlineMode is set and no key pair
// is already present, New generates the RSA-1024 key pair the login
// handshake needs.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Server, error) {
	cfg.Clamp()
	if log == nil {
		log = slog.Default()
	}

	if cfg.OnlineMode && cfg.PrivateKey == nil {
		key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
		if err != nil {
			return nil, fmt.Errorf("generate server key pair: %w", err)
		}
		pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("marshal server public key: %w", err)
		}
		cfg.PrivateKey = key
		cfg.PublicKeyDER = pubDER
	}

	dim := dimension.Overworld()
	regionStore := region.NewStore(cfg.WorldDirectory)
	gen := worldgen.NewOverworldGenerator(cfg.Seed)
	pipeline := generation.New(cfg.Seed, dim, gen, generation.WithWorkers(cfg.WorkerPoolSize))
	loader := &generation.FallbackLoader{Region: regionStore, Pipeline: pipeline}
	cache := chunkcache.New(ctx, loader, regionStore, cfg.CacheMaxBytes, log.With("component", "chunkcache"))

	var verifier auth.SessionVerifier
	if cfg.OnlineMode {
		verifier = &auth.MojangVerifier{}
	}

	return &Server{
		cfg:      cfg,
		log:      log,
		dim:      dim,
		cache:    cache,
		pipeline: pipeline,
		region:   regionStore,
		verifier: verifier,
		online:   &onlineCount{},
	}, nil
}

// Start listens on cfg.BindAddress and accepts connections until ctx is
// cancelled, then drains and persists before returning.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", s.cfg.BindAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.BindAddress, err)
	}

	s.log.Info("server started",
		"addr", s.cfg.BindAddress,
		"onlineMode", s.cfg.OnlineMode,
		"motd", s.cfg.MOTD,
		"seed", s.cfg.Seed,
		"viewDistance", s.cfg.ViewDistance,
	)

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	deps := conn.Deps{
		Cfg:      s.cfg,
		Cache:    s.cache,
		Verifier: s.verifier,
		Dim:      s.dim,
		Log:      s.log,
		Online:   s.online,
	}

	for {
		raw, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return s.shutdown()
			}
			s.log.Error("accept connection", "err", err)
			continue
		}
		c := conn.New(raw, deps)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			c.Handle(ctx)
		}()
	}
}

// shutdown drains outstanding connections with a grace period and only
// then flushes every dirty cached chunk to region storage and stops the
// cache's background task and the generation pipeline. Closing the
// pipeline/cache while a connection goroutine might still be calling
// into either is unsafe: a send on the pipeline's already-closed job
// queue panics, so draining must complete first.
func (s *Server) shutdown() error {
	s.log.Info("server shutting down, draining connections", "grace", shutdownGracePeriod)
	s.awaitConnections(shutdownGracePeriod)

	s.log.Info("flushing chunk cache")
	flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := s.cache.Flush(flushCtx)
	s.cache.Close()
	s.pipeline.Close()
	if err != nil {
		s.log.Error("flush on shutdown failed", "err", err)
		return err
	}
	return nil
}

// awaitConnections waits for every accepted connection's goroutine to
// return, giving up after grace elapses; a connection still stuck past
// that point is abandoned rather than allowed to delay shutdown
// indefinitely.
func (s *Server) awaitConnections(grace time.Duration) {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(grace):
		s.log.Warn("shutdown grace period elapsed with connections still active")
	}
}
