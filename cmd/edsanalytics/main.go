package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/edsanalytics/internal/config"
	logpkg "github.com/kailas-cloud/edsanalytics/internal/logger"
	"github.com/kailas-cloud/edsanalytics/internal/usecase/pipeline"
	"github.com/kailas-cloud/edsanalytics/internal/version"
	sds "github.com/kailas-cloud/edsanalytics/pkg/sdk"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config: "+err.Error())
		return 1
	}

	logger, err := logpkg.NewLogger(env, "edsanalytics", cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger: "+err.Error())
		return 1
	}
	defer func() { _ = logger.Sync() }()

	sdsCfg := cfg.EDS.SDS()
	logger.Info("Starting EDS analytics demo",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("base_url", sdsCfg.BaseURL()),
		zap.Int("events", cfg.Pipeline.Events),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if cfg.Metrics.Port > 0 {
		stop := serveMetrics(reg, cfg.Metrics.Port, logger)
		defer stop()
	}

	client, err := sds.New(sdsCfg,
		sds.WithTimeout(cfg.EDS.Timeout()),
		sds.WithLogger(logger.Named("sds")),
		sds.WithPrometheus(reg),
		sds.WithUserAgent("edsanalytics/"+version.Version),
	)
	if err != nil {
		logger.Error("Invalid store configuration", zap.Error(err))
		return 1
	}

	// Interrupt stops the remaining steps; clean-up still runs.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runner := pipeline.New(client,
		pipeline.WithLogger(logger),
		pipeline.WithEvents(cfg.Pipeline.Events),
	)
	rep, err := runner.Run(ctx)
	if err != nil {
		var cerr *pipeline.CleanupError
		if errors.As(err, &cerr) {
			for _, f := range cerr.Failures {
				logger.Warn("Resource left on the store", zap.String("kind", f.Kind), zap.String("id", f.ID))
			}
		}
		logger.Error("Demo failed", zap.Error(err))
		return 1
	}

	logger.Info("Demo finished",
		zap.Int("generated", rep.Generated),
		zap.Int("read_back", rep.ReadBack),
		zap.Int("filtered", rep.Filtered),
		zap.Int("discrepancies", len(rep.Discrepancies)),
	)
	fmt.Println()
	fmt.Println("Demo Application Ran Successfully!")
	return 0
}

// serveMetrics exposes reg on /metrics until the returned stop function is called.
func serveMetrics(reg *prometheus.Registry, port int, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Starting metrics listener", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics listener error", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
