// Package server wires the examhall runtime together: the SQLite store,
// the in-memory room registry, the TCP accept loop, the expiry timer,
// and the optional metrics listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"examhall/internal/audit"
	"examhall/internal/auth"
	"examhall/internal/config"
	"examhall/internal/exam"
	"examhall/internal/metrics"
	"examhall/internal/selector"
	"examhall/internal/session"
	"examhall/internal/store"
)

// Server owns every long-lived piece of the process. The single mutex is
// the process-wide state lock: command handlers and the timer sweep both
// take it, so room and participant state only ever changes under it.
type Server struct {
	cfg     config.Config
	log     *slog.Logger
	store   *store.Store
	rooms   *exam.Registry
	audit   *audit.Sink
	metrics *metrics.Metrics
	handler *session.Handler

	mu    sync.Mutex
	clock func() time.Time
}

// New opens the store, seeds the question bank if configured, and
// rebuilds the room registry from whatever the previous run left behind.
// The returned server holds an open database and audit sink until Close.
func New(cfg config.Config, log *slog.Logger) (*Server, error) {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	s := &Server{
		cfg:     cfg,
		log:     log,
		store:   st,
		rooms:   exam.NewRegistry(cfg.MaxRooms),
		metrics: metrics.New(),
		clock:   time.Now,
	}

	ctx := context.Background()
	if err := s.seedQuestionBank(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}

	sink, err := audit.NewSink(cfg.LogFile, st, log)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("open audit sink: %w", err)
	}
	s.audit = sink

	if err := s.rehydrate(ctx); err != nil {
		sink.Close()
		_ = st.Close()
		return nil, err
	}

	s.handler = &session.Handler{
		Mu:       &s.mu,
		Store:    st,
		Auth:     auth.NewService(st, cfg.AdminSecret),
		Selector: selector.New(st),
		Rooms:    s.rooms,
		Audit:    sink,
		Metrics:  s.metrics,
		Log:      log,
		Clock:    func() time.Time { return s.clock() },
	}
	return s, nil
}

// Run serves until ctx is cancelled or the listener fails, then releases
// everything New acquired.
func (s *Server) Run(ctx context.Context) error {
	defer s.Close()

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.cfg.Addr, err)
	}
	s.log.Info("server.start", "addr", ln.Addr().String(), "db", s.cfg.DBPath)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		return ln.Close()
	})
	g.Go(func() error {
		return s.acceptLoop(gctx, ln)
	})
	g.Go(func() error {
		s.timerLoop(gctx)
		return nil
	})

	if s.cfg.MetricsAddr != "" {
		msrv := &http.Server{
			Addr:              s.cfg.MetricsAddr,
			Handler:           s.metrics.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			s.log.Info("metrics.start", "addr", s.cfg.MetricsAddr)
			if err := msrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics listener: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return msrv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	if err != nil && !errors.Is(err, net.ErrClosed) {
		s.log.Error("server.stopped", "error", err)
		return err
	}
	s.log.Info("server.stopped")
	return nil
}

// acceptLoop hands each connection to a session goroutine. Sessions are
// fire-and-forget: a client that lingers past shutdown is cut off when
// the process exits.
func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		go s.handler.Serve(ctx, conn)
	}
}

// Close releases the audit sink and the store. Run calls it on the way
// out; callers that never Run must call it themselves.
func (s *Server) Close() error {
	if s.audit != nil {
		s.audit.Close()
	}
	return s.store.Close()
}
