package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	// SQL drivers selected at runtime by the database URL.
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/katsudaichi/ant-app/internal/config"
	"github.com/katsudaichi/ant-app/pkg/api"
	"github.com/katsudaichi/ant-app/pkg/middleware"
	"github.com/katsudaichi/ant-app/pkg/relay"
	"github.com/katsudaichi/ant-app/pkg/snapshot"
	"github.com/katsudaichi/ant-app/pkg/store"
)

func serveCmd() *cobra.Command {
	var (
		configPath     string
		addr           string
		snapshotDir    string
		snapshotBucket string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the collaboration server",
		Long: `Start the REST API and the realtime relay.

The entity store backend is selected by configuration:
  redisAddr set          Redis
  databaseUrl postgres:  PostgreSQL
  databaseUrl set        SQLite file
  neither                in-memory (development)

Examples:
  antapp serve
  antapp serve --addr=:9090
  antapp serve --config=/etc/antapp/antapp.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, addr, snapshotDir, snapshotBucket)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to antapp.json (default: search upward from cwd)")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides config)")
	cmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "", "Write project snapshots to this directory on shutdown")
	cmd.Flags().StringVar(&snapshotBucket, "snapshot-bucket", "", "Write project snapshots to this S3 bucket on shutdown")

	return cmd
}

func runServe(configPath, addr, snapshotDir, snapshotBucket string) error {
	if configPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determine working directory: %w", err)
		}
		configPath = config.Find(wd)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if snapshotDir != "" {
		cfg.Snapshot.Dir = snapshotDir
	}
	if snapshotBucket != "" {
		cfg.Snapshot.Bucket = snapshotBucket
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("starting antapp",
		"version", version,
		"addr", cfg.Addr,
		"config", cfg.Path())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	metrics := middleware.NewMetrics()

	relayCfg := relay.DefaultConfig()
	relayCfg.ReadTimeout = config.ParseDuration(cfg.Relay.ReadTimeout, relayCfg.ReadTimeout)
	relayCfg.WriteTimeout = config.ParseDuration(cfg.Relay.WriteTimeout, relayCfg.WriteTimeout)
	relayCfg.HeartbeatInterval = config.ParseDuration(cfg.Relay.HeartbeatInterval, relayCfg.HeartbeatInterval)
	if cfg.Relay.SendBuffer > 0 {
		relayCfg.SendBuffer = cfg.Relay.SendBuffer
	}
	if cfg.AllowedOrigin != "" {
		allowed := cfg.AllowedOrigin
		relayCfg.CheckOrigin = func(r *http.Request) bool {
			return r.Header.Get("Origin") == allowed
		}
	}

	rel := relay.New(st,
		relay.WithConfig(relayCfg),
		relay.WithLogger(logger),
		relay.WithRecorder(metrics),
	)

	apiHandler := api.New(st, api.WithLogger(logger))

	r := chi.NewRouter()
	r.Use(middleware.OpenTelemetry())
	r.Use(metrics.Handler)
	r.Mount("/api", apiHandler.Routes())
	r.Handle("/ws", rel)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), relayCfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	if err := rel.Shutdown(shutdownCtx); err != nil {
		logger.Error("relay shutdown failed", "error", err)
	}
	if err := writeSnapshots(shutdownCtx, cfg, st, logger); err != nil {
		logger.Error("snapshot export failed", "error", err)
	}

	logger.Info("stopped")
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// openStore selects the entity store backend from configuration.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.EntityStore, error) {
	switch {
	case cfg.RedisAddr != "":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("using redis store", "addr", cfg.RedisAddr)
		return store.NewRedisStore(client), nil

	case strings.HasPrefix(cfg.DatabaseURL, "postgres://"),
		strings.HasPrefix(cfg.DatabaseURL, "postgresql://"):
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		st := store.NewSQLStore(db, store.WithSQLDialect(store.DialectPostgreSQL))
		if err := st.CreateSchema(ctx); err != nil {
			return nil, fmt.Errorf("create schema: %w", err)
		}
		logger.Info("using postgres store")
		return st, nil

	case cfg.DatabaseURL != "":
		db, err := sql.Open("sqlite3", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.DatabaseURL, err)
		}
		st := store.NewSQLStore(db, store.WithSQLDialect(store.DialectSQLite))
		if err := st.CreateSchema(ctx); err != nil {
			return nil, fmt.Errorf("create schema: %w", err)
		}
		logger.Info("using sqlite store", "path", cfg.DatabaseURL)
		return st, nil

	default:
		logger.Warn("no database configured, using in-memory store")
		return store.NewMemoryStore(), nil
	}
}

// writeSnapshots exports every project on shutdown when a snapshot
// destination is configured.
func writeSnapshots(ctx context.Context, cfg *config.Config, st store.EntityStore, logger *slog.Logger) error {
	writer, err := snapshotWriter(ctx, cfg)
	if err != nil || writer == nil {
		return err
	}

	projects, err := st.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	for _, p := range projects {
		snap, err := snapshot.Build(ctx, st, p.ID)
		if err != nil {
			logger.Error("snapshot build failed", "project_id", p.ID, "error", err)
			continue
		}
		location, err := writer.Write(ctx, snap)
		if err != nil {
			logger.Error("snapshot write failed", "project_id", p.ID, "error", err)
			continue
		}
		logger.Info("snapshot written", "project_id", p.ID, "location", location)
	}
	return nil
}

func snapshotWriter(ctx context.Context, cfg *config.Config) (snapshot.Writer, error) {
	switch {
	case cfg.Snapshot.Bucket != "":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return snapshot.NewS3Writer(s3.NewFromConfig(awsCfg), cfg.Snapshot.Bucket, cfg.Snapshot.Prefix), nil
	case cfg.Snapshot.Dir != "":
		w, err := snapshot.NewDiskWriter(cfg.Snapshot.Dir)
		if err != nil {
			return nil, err
		}
		return w, nil
	default:
		return nil, nil
	}
}
