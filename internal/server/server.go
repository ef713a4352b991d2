/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/friendsincode/pirwatch/internal/config"
	"github.com/friendsincode/pirwatch/internal/events"
	"github.com/friendsincode/pirwatch/internal/logbuffer"
	"github.com/friendsincode/pirwatch/internal/outcomes"
	"github.com/friendsincode/pirwatch/internal/report"
	"github.com/friendsincode/pirwatch/internal/scheduler"
	"github.com/friendsincode/pirwatch/internal/telemetry"
	"github.com/friendsincode/pirwatch/internal/version"
)

// Server bundles HTTP and supporting services.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	closers    []func() error

	logBuffer  *logbuffer.Buffer
	bus        *events.Bus
	tracer     *telemetry.TracerProvider
	store      *outcomes.Store
	controller *scheduler.Controller
	reporter   *report.Reporter
	sinks      *report.MultiSink

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New constructs the server, wires dependencies and starts the cycle loop
// and the reporter in the background.
func New(cfg *config.Config, logBuf *logbuffer.Buffer, logger zerolog.Logger) (*Server, error) {
	for _, warn := range cfg.LegacyEnvWarnings {
		logger.Warn().Msg(warn)
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(securityHeadersMiddleware)
	router.Use(telemetry.TracingMiddleware("pirwatch-api"))
	router.Use(telemetry.MetricsMiddleware)

	srv := &Server{
		cfg:       cfg,
		logger:    logger,
		router:    router,
		logBuffer: logBuf,
		bus:       events.NewBus(),
	}

	if err := srv.initDependencies(); err != nil {
		_ = srv.Close()
		return nil, err
	}

	srv.configureRoutes()
	srv.startBackgroundWorkers()

	srv.httpServer = &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return srv, nil
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self' 'unsafe-inline'; frame-ancestors 'none'; base-uri 'self'")

		// Only advertise HSTS for requests served over HTTPS.
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) initDependencies() error {
	ctx := context.Background()

	tracer, err := telemetry.InitTracer(ctx, telemetry.TracerConfig{
		ServiceName:    "pirwatch",
		ServiceVersion: version.Version,
		OTLPEndpoint:   s.cfg.OTLPEndpoint,
		Enabled:        s.cfg.TracingEnabled,
		SampleRate:     s.cfg.TracingSampleRate,
	}, s.logger)
	if err != nil {
		return err
	}
	s.tracer = tracer
	s.DeferClose(func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return tracer.Shutdown(shutdownCtx)
	})

	trig, err := BuildTrigger(s.cfg, s.logger)
	if err != nil {
		return err
	}

	s.store = outcomes.NewStore(s.cfg.Retention, nil)
	s.controller = scheduler.New(scheduler.Options{
		Interval:      s.cfg.PollInterval,
		ErrorBackoff:  s.cfg.ErrorBackoff,
		ShutdownGrace: s.cfg.ShutdownGrace,
		Location:      s.cfg.Location,
	}, BuildSource(s.cfg), trig, &publishingRecorder{store: s.store, bus: s.bus}, s.logger)

	sinks, closers, err := BuildSinks(ctx, s.cfg, s.logger)
	if err != nil {
		return err
	}
	for _, c := range closers {
		s.DeferClose(c)
	}
	s.sinks = sinks
	s.reporter = report.NewReporter(s.store, sinks, report.ReporterOptions{
		Window:       s.cfg.ReportWindow,
		Interval:     s.cfg.ReportInterval,
		InitialDelay: s.cfg.ReportInitialDelay,
		Location:     s.cfg.Location,
		Delivered:    publishReport(s.bus),
	}, s.logger)

	return nil
}

// HTTPServer exposes the configured HTTP server.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// LogBuffer returns the in-memory log buffer.
func (s *Server) LogBuffer() *logbuffer.Buffer {
	return s.logBuffer
}

// Close stops background workers and releases resources.
func (s *Server) Close() error {
	s.stopBackgroundWorkers()
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}

// DeferClose registers fn to run on Close, in reverse order.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *Server) startBackgroundWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		if err := s.controller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error().Err(err).Msg("cycle loop exited")
		}
	}()

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		if err := s.reporter.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error().Err(err).Msg("reporter exited")
		}
	}()
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel == nil {
		return
	}
	s.bgCancel()
	s.bgWG.Wait()
	s.bgCancel = nil
}

func (s *Server) configureRoutes() {
	h := &handlers{
		controller: s.controller,
		store:      s.store,
		reporter:   s.reporter,
		logs:       s.logBuffer,
		bus:        s.bus,
		location:   s.cfg.Location,
		logger:     s.logger.With().Str("component", "api").Logger(),
	}

	s.router.Get("/healthz", h.health)
	s.router.Handle("/metrics", telemetry.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/events", h.eventStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			r.Get("/status", h.status)
			r.Get("/version", h.version)
			r.Get("/schedule", h.schedule)
			r.Get("/schedule.ics", h.scheduleICal)
			r.Get("/outcomes", h.outcomes)
			r.Get("/outcomes/summary", h.summary)
			r.Get("/report/preview", h.reportPreview)
			r.Post("/report/send", h.reportSend)
			r.Get("/logs", h.recentLogs)
		})
	})
}
