// Package server wires every component into a running process: snapshot
// load, delegator workers, the TCP accept loop, the HTTP console and
// metrics listeners, and graceful shutdown. Adapted from the teacher's
// Server.Start/Shutdown pair, stripped of the NATS/JetStream/WebSocket
// plumbing this system has no counterpart for.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/odinkv/kvstored/internal/command"
	"github.com/odinkv/kvstored/internal/config"
	"github.com/odinkv/kvstored/internal/console"
	"github.com/odinkv/kvstored/internal/delegator"
	"github.com/odinkv/kvstored/internal/metrics"
	"github.com/odinkv/kvstored/internal/notifier"
	"github.com/odinkv/kvstored/internal/resource"
	"github.com/odinkv/kvstored/internal/session"
	"github.com/odinkv/kvstored/internal/snapshot"
	"github.com/odinkv/kvstored/internal/store"
)

// drainGracePeriod bounds how long Shutdown waits for in-flight sessions
// to close on their own before it force-closes their connections.
const drainGracePeriod = 10 * time.Second

// Server owns the wire listener plus the console and metrics HTTP
// servers, and the shared state every accepted session dispatches
// commands against.
type Server struct {
	cfg    *config.Config
	logger zerolog.Logger

	store    *store.Store
	registry *command.Registry
	notif    *notifier.Notifier
	guard    *resource.Guard

	storeWorker *delegator.Worker
	attrsWorker *delegator.Worker
	runner      *command.Runner

	listener      net.Listener
	consoleServer *http.Server
	metricsServer *http.Server

	sessions   sync.Map // map[*session.Client]struct{}
	sessionCnt int64

	shuttingDown atomic.Bool
	wg           sync.WaitGroup
}

// New assembles a Server from configuration, loading any existing
// snapshot into a fresh store. It does not yet listen on any socket;
// call Start for that.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	s := store.New()
	if err := snapshot.Load(s, cfg.DBFilename); err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	metrics.StoreKeys.Set(float64(s.Len()))

	guard, err := resource.NewGuard(cfg.MaxMemory, cfg.ResourceSampleEvery, logger)
	if err != nil {
		return nil, fmt.Errorf("starting resource guard: %w", err)
	}

	srv := &Server{
		cfg:         cfg,
		logger:      logger,
		store:       s,
		registry:    command.NewRegistry(),
		notif:       notifier.New(logger),
		guard:       guard,
		storeWorker: delegator.New("store", cfg.StoreQueueSize),
		attrsWorker: delegator.New("attrs", cfg.AttributesQueueSize),
	}
	srv.runner = &command.Runner{
		Store:    srv.storeWorker,
		Attrs:    srv.attrsWorker,
		StoreCtx: func() *command.StoreContext { return &command.StoreContext{Store: srv.store} },
		AttrsCtx: func() *command.AttrsContext {
			return &command.AttrsContext{
				Config:   srv.cfg,
				Notifier: srv.notif,
				Guard:    srv.guard,
				Info:     srv.info,
				Shutdown: srv.requestShutdown,
			}
		},
	}
	return srv, nil
}

// Start launches the resource guard, both delegator workers, the TCP
// accept loop, and the console/metrics HTTP listeners. It returns once
// the TCP listener is bound; the accept loop itself runs in the
// background.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr(), err)
	}
	s.listener = listener

	s.storeWorker.Start()
	s.attrsWorker.Start()
	go s.guard.Run()

	s.wg.Add(1)
	go s.acceptLoop()

	cons := console.New(s.registry, s.runner, s.notif, s.logger)
	s.consoleServer = &http.Server{Addr: s.cfg.ConsoleAddr, Handler: consoleMux(cons)}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.consoleServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("console server stopped")
		}
	}()

	s.metricsServer = &http.Server{Addr: s.cfg.MetricsAddr, Handler: metrics.Handler()}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	s.logger.Info().
		Str("addr", s.cfg.Addr()).
		Str("console_addr", s.cfg.ConsoleAddr).
		Str("metrics_addr", s.cfg.MetricsAddr).
		Msg("kvstored listening")
	return nil
}

func consoleMux(cons *console.Console) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/console", cons.Handler())
	return mux
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.shuttingDown.Load() {
				return
			}
			s.logger.Warn().Err(err).Msg("accept failed")
			continue
		}

		if !s.guard.Admit() {
			metrics.ConnectionsRejected.WithLabelValues("memory_ceiling").Inc()
			_ = conn.Close()
			continue
		}

		deps := &session.Deps{
			Registry:          s.registry,
			Runner:            s.runner,
			Notifier:          s.notif,
			Guard:             s.guard,
			Logger:            s.logger,
			ReplyChannelSize:  s.cfg.ReplyChannelSize,
			MaxCommandsPerSec: s.cfg.MaxCommandsPerSec,
			CommandBurst:      s.cfg.CommandBurst,
			IdleTimeout:       s.cfg.Timeout,
		}
		client := session.New(conn, deps)
		s.sessions.Store(client, struct{}{})
		atomic.AddInt64(&s.sessionCnt, 1)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() {
				s.sessions.Delete(client)
				atomic.AddInt64(&s.sessionCnt, -1)
			}()
			client.Serve()
		}()
	}
}

// requestShutdown is the SHUTDOWN command's hook: it runs Shutdown on a
// new goroutine, because the attrs worker goroutine must not call
// Shutdown directly: Shutdown stops the attrs worker it would be running
// on top of.
func (s *Server) requestShutdown() {
	go s.Shutdown(context.Background())
}

func (s *Server) info() string {
	return fmt.Sprintf(
		"kvstored\r\nconnected_clients:%d\r\nkeys:%d\r\nrss_bytes:%d\r\nuptime_queue_depth_store:%d\r\nuptime_queue_depth_attrs:%d\r\n",
		atomic.LoadInt64(&s.sessionCnt),
		s.store.Len(),
		s.guard.RSS(),
		s.storeWorker.QueueDepth(),
		s.attrsWorker.QueueDepth(),
	)
}

// Shutdown stops accepting new connections, drains in-flight sessions
// for up to drainGracePeriod, force-closes stragglers, stops the
// delegator workers, saves a snapshot, and joins every goroutine Start
// launched. Safe to call once; a second call is a no-op.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.shuttingDown.CompareAndSwap(false, true) {
		return nil
	}
	s.logger.Info().Msg("graceful shutdown starting")

	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.consoleServer != nil {
		_ = s.consoleServer.Shutdown(ctx)
	}
	if s.metricsServer != nil {
		_ = s.metricsServer.Shutdown(ctx)
	}

	drainDeadline := time.After(drainGracePeriod)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
drain:
	for {
		select {
		case <-drainDeadline:
			s.logger.Warn().Int64("remaining", atomic.LoadInt64(&s.sessionCnt)).Msg("drain grace period expired, force closing")
			break drain
		case <-ticker.C:
			if atomic.LoadInt64(&s.sessionCnt) == 0 {
				break drain
			}
		}
	}

	s.sessions.Range(func(key, _ any) bool {
		key.(*session.Client).Close()
		return true
	})

	s.guard.Stop()
	s.storeWorker.Stop()
	s.attrsWorker.Stop()

	if err := snapshot.Save(s.store, s.cfg.DBFilename); err != nil {
		s.logger.Error().Err(err).Msg("snapshot save failed")
	}

	s.wg.Wait()
	s.logger.Info().Msg("graceful shutdown complete")
	return nil
}
