package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"

	docconv "github.com/ggondim/simple-service-doc-converter"
	"github.com/ggondim/simple-service-doc-converter/internal/httpapi"
	"github.com/ggondim/simple-service-doc-converter/internal/logger"
)

var version = "dev"

func main() {
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if flags.version {
		fmt.Println("docconvd", version)
		return
	}

	cfg, err := LoadConfig(flags.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	if err := flags.apply(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := logger.Must(cfg.Log.Level, cfg.Log.Format)
	defer log.Sync()

	log.Info("starting docconvd",
		zap.String("version", version),
		zap.String("addr", cfg.Server.Addr()),
		zap.Int("workers", cfg.Converter.Workers),
		zap.String("converter", cfg.Converter.Binary),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := docconv.NewMemorySink()
	telemetry := docconv.Sink(metrics)
	if cfg.Telemetry.RedisAddr != "" {
		redisSink, err := docconv.NewRedisSink(ctx,
			cfg.Telemetry.RedisAddr, cfg.Telemetry.RedisPassword, cfg.Telemetry.RedisDB, log)
		if err != nil {
			// Telemetry must never take the service down with it.
			log.Warn("redis telemetry unavailable, continuing without it",
				zap.String("addr", cfg.Telemetry.RedisAddr), zap.Error(err))
		} else {
			defer redisSink.Close()
			telemetry = docconv.MultiSink{metrics, redisSink}
			log.Info("redis telemetry enabled", zap.String("addr", cfg.Telemetry.RedisAddr))
		}
	}

	invoker := docconv.NewInvoker(cfg.Converter.Binary, log)
	invoker.Grace = cfg.Converter.TerminationGrace
	invoker.Echo = cfg.Converter.Echo

	engines := &docconv.Router{Subprocess: invoker}
	if cfg.Converter.NativeEngine {
		native := docconv.NewNativeEngine(cfg.Converter.OperationTimeout)
		defer native.Close()
		engines.Native = native
		log.Info("native markdown/html engine enabled")
	}

	pipeline := docconv.NewPipeline(docconv.PipelineConfig{
		Engines:          engines,
		Limiter:          docconv.NewLimiter(cfg.Converter.Workers),
		Telemetry:        telemetry,
		Logger:           log,
		TempDir:          cfg.Converter.TempDir,
		OperationTimeout: cfg.Converter.OperationTimeout,
		BufferLimit:      cfg.Converter.BufferLimit,
	})

	handler := httpapi.NewHandler(pipeline, metrics, log)
	router := httpapi.NewRouter(handler, log)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
