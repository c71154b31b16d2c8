package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	goToken "github.com/MrEthical07/goToken"
	"github.com/MrEthical07/goToken/internal/config"
	"github.com/MrEthical07/goToken/internal/httpapi"
	"github.com/MrEthical07/goToken/internal/logging"
	"github.com/MrEthical07/goToken/jwt"
	"github.com/MrEthical07/goToken/metrics/export/prometheus"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type serveOptions struct {
	envFiles []string
	dev      bool
	addr     string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server. Configuration is read from TOKEN_-prefixed
environment variables and, when present, from .env files.

  $ TOKEN_JWT_SECRET=$(openssl rand -base64 64) tokend serve
  $ tokend serve --dev`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.envFiles, "env-file", nil, "dotenv files to load (default .env)")
	cmd.Flags().BoolVar(&opts.dev, "dev", false, "run against an in-process Redis with a generated secret")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address, overrides TOKEN_HTTP_ADDR")
	return cmd
}

func runServe(parent context.Context, opts serveOptions) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := config.Load(opts.envFiles...)
	if err != nil {
		return err
	}
	if opts.dev {
		cfg.Dev = true
	}
	if opts.addr != "" {
		cfg.HTTP.Addr = opts.addr
	}

	logger, logCloser, err := logging.New(cfg.LoggingConfig())
	if err != nil {
		return err
	}
	defer logCloser.Close()

	if cfg.Dev && cfg.JWT.Secret == "" {
		secret, err := devSecret()
		if err != nil {
			return err
		}
		cfg.JWT.Secret = secret
		logger.Warn().Msg("dev mode: using a generated signing secret, credentials will not survive a restart")
	}

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	rdb, target, closeRedis, err := openRedis(cfg)
	if err != nil {
		return err
	}
	defer closeRedis()

	builder := goToken.New().
		WithConfig(engineCfg).
		WithRedis(rdb).
		WithLogger(logger.With().Str("component", "engine").Logger())
	if engineCfg.Audit.Enabled {
		builder = builder.WithAuditSink(goToken.NewLoggerSink(logger.With().Str("component", "audit").Logger()))
	}
	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	for _, w := range engineCfg.Lint().AtLeast(goToken.LintWarn) {
		logger.Warn().Str("code", w.Code).Str("severity", w.Severity.String()).Msg(w.Message)
	}

	srv := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: httpapi.NewRouter(engine, httpapi.Options{
			Logger:  logger.With().Str("component", "http").Logger(),
			Metrics: prometheus.NewPrometheusExporter(engine).Handler(),
		}),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Str("redis", target).Bool("dev", cfg.Dev).Msg("tokend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openRedis connects to the configured deployment, or to an in-process
// server in dev mode.
func openRedis(cfg config.AppConfig) (redis.UniversalClient, string, func(), error) {
	if cfg.Dev {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, "", nil, fmt.Errorf("start in-process redis: %w", err)
		}
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), ContextTimeoutEnabled: true})
		return rdb, "miniredis:" + mr.Addr(), func() {
			_ = rdb.Close()
			mr.Close()
		}, nil
	}

	rdb, target, err := cfg.Redis.NewClient()
	if err != nil {
		return nil, "", nil, err
	}
	return rdb, target, func() { _ = rdb.Close() }, nil
}

func devSecret() (string, error) {
	raw := make([]byte, jwt.MinKeySize)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate dev secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
