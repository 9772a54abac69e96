package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nkiryanov/petalert/internal/db"
	"github.com/nkiryanov/petalert/internal/handlers"
	"github.com/nkiryanov/petalert/internal/logger"
	"github.com/nkiryanov/petalert/internal/metrics"
	"github.com/nkiryanov/petalert/internal/repository"
	"github.com/nkiryanov/petalert/internal/repository/memory"
	"github.com/nkiryanov/petalert/internal/repository/postgres"
	"github.com/nkiryanov/petalert/internal/service/alert"
	"github.com/nkiryanov/petalert/internal/service/gate"
	"github.com/nkiryanov/petalert/internal/service/message"
	"github.com/nkiryanov/petalert/internal/service/password"
	"github.com/nkiryanov/petalert/internal/service/session"
	"github.com/nkiryanov/petalert/internal/service/user"
)

const shutdownTimeout = 5 * time.Second

type ServerApp struct {
	ListenAddr  string
	MetricsAddr string
	Handler     http.Handler
	Metrics     http.Handler

	logger logger.Logger
	close  func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	storage, closeStorage, err := openStorage(ctx, c)
	if err != nil {
		return nil, err
	}

	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	// Initialize services
	passwords, err := password.New(c.PasswordHashing)
	if err != nil {
		closeStorage()
		return nil, err
	}

	authority, err := session.New(session.Config{
		Window:   c.SessionWindow,
		Digest:   c.TokenDigest,
		Recorder: m,
	}, storage.Session(), logger)
	if err != nil {
		closeStorage()
		return nil, fmt.Errorf("error while creating session authority. Err: %w", err)
	}

	g, err := gate.New(gate.Config{
		GraceRenewal: c.GraceRenewal,
		Passwords:    passwords,
		Recorder:     m,
	}, storage.User(), authority, logger)
	if err != nil {
		closeStorage()
		return nil, fmt.Errorf("error while creating request gate. Err: %w", err)
	}

	services := handlers.Services{
		Gate:     g,
		Users:    user.NewService(passwords, storage),
		Alerts:   alert.NewService(storage),
		Messages: message.NewService(storage),
	}

	metricsHandler := metrics.Handler(reg)
	mux := handlers.NewRouter(services, handlers.Options{
		Metrics:   metricsHandler,
		Observer:  m,
		CookieTTL: c.SessionWindow,
	}, logger)

	return &ServerApp{
		ListenAddr:  c.ListenAddr,
		MetricsAddr: c.MetricsAddr,
		Handler:     mux,
		Metrics:     metricsHandler,
		logger:      logger,
		close:       closeStorage,
	}, nil
}

func openStorage(ctx context.Context, c *Config) (repository.Storage, func(), error) {
	if c.Storage == StorageMemory {
		return memory.NewStorage(), func() {}, nil
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	return postgres.NewStorage(pool), pool.Close, nil
}

// Run starts http servers and closes them gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.close()

	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	var metricsErr error
	metricsDone := make(chan struct{})

	if s.MetricsAddr != "" {
		go func() {
			defer close(metricsDone)

			err := s.serve(srvCtx, "metrics", &http.Server{Addr: s.MetricsAddr, Handler: s.Metrics})
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				metricsErr = err
				srvCtxCancel()
			}
		}()
	} else {
		close(metricsDone)
	}

	err := s.serve(srvCtx, "api", &http.Server{Addr: s.ListenAddr, Handler: s.Handler})
	srvCtxCancel()
	<-metricsDone

	if errors.Is(err, http.ErrServerClosed) && metricsErr != nil {
		return fmt.Errorf("metrics server: %w", metricsErr)
	}
	return err
}

// serve listens until ctx is cancelled; then closes connections gracefully
func (s *ServerApp) serve(ctx context.Context, name string, srv *http.Server) error {
	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...", "server", name)
		}
		s.logger.Info("HTTP server stopped", "server", name)
		close(idleConnsClosed)
	}()

	s.logger.Info("Starting server", "server", name, "address", srv.Addr)
	err := srv.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
