package mcpsrv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/storeschema-mcp/internal/cache"
	"github.com/usestring/storeschema-mcp/internal/config"
	"github.com/usestring/storeschema-mcp/internal/connector"
	"github.com/usestring/storeschema-mcp/internal/logging"
	"github.com/usestring/storeschema-mcp/internal/mcp"
	"github.com/usestring/storeschema-mcp/internal/mcp/tools"
	"github.com/usestring/storeschema-mcp/pkg/inference"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// Server is the storeschema MCP server.
// It wraps the internal implementation and provides extension points.
type Server struct {
	internal   *mcp.Server
	deps       *Deps
	logCleanup func() error
}

// NewServer creates a new MCP server with builtin storeschema tools.
//
// Configuration is read from the environment (see internal/config) and the
// catalog from STORES_FILE unless WithStores supplies it. Stores are
// connected lazily on first use.
func NewServer(opts ...Option) (*Server, error) {
	cfg := &serverConfig{
		config: config.Load(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.storesFile != "" {
		cfg.config.StoresFile = cfg.storesFile
	}

	logCfg := logging.FromConfig(cfg.config)
	if cfg.logLevel != "" {
		logCfg.Level = cfg.logLevel
	}
	if cfg.logFile != "" {
		logCfg.FilePath = cfg.logFile
	}
	if cfg.logFormat != "" {
		logCfg.Format = cfg.logFormat
	}
	logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	stores, err := loadCatalog(cfg)
	if err != nil {
		_ = logCleanup()
		return nil, err
	}

	results, err := cache.NewResultStore(cfg.config.ResultCacheMaxItems)
	if err != nil {
		_ = logCleanup()
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}

	var registryOpts []connector.RegistryOption
	if cfg.openFunc != nil {
		registryOpts = append(registryOpts, connector.WithOpenFunc(cfg.openFunc))
	}
	registry := connector.NewRegistry(stores, connector.Options{
		ConnectTimeout: cfg.config.ConnectTimeout,
		SampleSize:     cfg.config.MaxSampleItems,
	}, registryOpts...)

	engine := inference.NewEngine(cfg.config.EngineOptions())

	toolDeps := &tools.Deps{
		Config:  cfg.config,
		Stores:  registry,
		Engine:  engine,
		Results: results,
	}

	// Public deps carry the same values under the public type
	deps := &Deps{
		Config:  cfg.config,
		Stores:  registry,
		Engine:  engine,
		Results: results,
	}

	var internalOpts []mcp.ServerOption
	if !cfg.disableBuiltinTools {
		internalOpts = append(internalOpts, mcp.WithBuiltinTools())
	}
	if !cfg.disableBuiltinPrompts {
		internalOpts = append(internalOpts, mcp.WithBuiltinPrompts())
	}

	for _, fn := range cfg.toolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.promptRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.resourceRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.deferredToolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(func(srv *sdkmcp.Server) {
			fn(srv, deps)
		}))
	}

	internal, err := mcp.NewServer(toolDeps, internalOpts...)
	if err != nil {
		_ = logCleanup()
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	slog.Info("server configured",
		slog.Int("stores", len(stores)),
		slog.String("stores_file", cfg.config.StoresFile),
	)

	return &Server{
		internal:   internal,
		deps:       deps,
		logCleanup: logCleanup,
	}, nil
}

func loadCatalog(cfg *serverConfig) ([]config.StoreConfig, error) {
	if len(cfg.stores) > 0 {
		stores, err := config.NormalizeStores(cfg.stores)
		if err != nil {
			return nil, fmt.Errorf("invalid stores: %w", err)
		}
		return stores, nil
	}
	stores, err := config.LoadStores(cfg.config.StoresFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load stores catalog: %w", err)
	}
	return stores, nil
}

// Run starts the MCP server with stdio transport.
// The server runs until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.internal.Run(ctx)
}

// RunHTTP serves the streamable HTTP transport on addr until the context is
// cancelled, then shuts down gracefully.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down HTTP server: %w", err)
		}
		return ctx.Err()
	}
}

// Close releases store connections and log files.
func (s *Server) Close() error {
	var errs []error
	if err := s.deps.Stores.Close(); err != nil {
		errs = append(errs, err)
	}
	if s.logCleanup != nil {
		if err := s.logCleanup(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Deps returns the dependencies for building custom tools.
func (s *Server) Deps() *Deps {
	return s.deps
}
