package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/malbeclabs/scichart/config"
	"github.com/malbeclabs/scichart/internal/backend"
	"github.com/malbeclabs/scichart/pkg/aggregator"
	"github.com/malbeclabs/scichart/pkg/logger"
	"github.com/malbeclabs/scichart/pkg/metrics"
	"github.com/malbeclabs/scichart/pkg/pipeline"
	"github.com/malbeclabs/scichart/pkg/planner"
	"github.com/malbeclabs/scichart/pkg/server"
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	envFlag := flag.String("env", config.EnvLocal, "deployment environment (local or production)")
	configFlag := flag.String("config", "", "path to a YAML config file (or set SCICHART_CONFIG env var)")
	listenAddrFlag := flag.String("listen-addr", "", "HTTP listen address, overrides config")
	metricsAddrFlag := flag.String("metrics-addr", "", "address to listen on for prometheus metrics, overrides config")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	if envConfig := os.Getenv("SCICHART_CONFIG"); envConfig != "" && *configFlag == "" {
		*configFlag = envConfig
	}

	log := logger.New(*verboseFlag)

	cfg, err := config.Load(*envFlag, *configFlag)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *listenAddrFlag != "" {
		cfg.ListenAddr = *listenAddrFlag
	}
	if *metricsAddrFlag != "" {
		cfg.MetricsAddr = *metricsAddrFlag
	}

	// Set up signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := <-sigCh
		log.Info("server: received signal", "signal", sig.String())
		cancel()
	}()

	var metricsServerErrCh = make(chan error, 1)
	if cfg.MetricsAddr != "" {
		metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)
		go func() {
			listener, err := net.Listen("tcp", cfg.MetricsAddr)
			if err != nil {
				log.Error("failed to start prometheus metrics server listener", "error", err)
				metricsServerErrCh <- err
				return
			}
			log.Info("prometheus metrics server listening", "address", listener.Addr().String())
			http.Handle("/metrics", promhttp.Handler())
			if err := http.Serve(listener, nil); err != nil {
				log.Error("failed to start prometheus metrics server", "error", err)
				metricsServerErrCh <- err
				return
			}
		}()
	}

	corpusBackend, closer, err := backend.Open(ctx, log, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closer.Close(); err != nil {
			log.Error("failed to close backend", "error", err)
		}
	}()

	llm := planner.NewAnthropicLLMClient(log, anthropic.Model(cfg.Anthropic.Model), cfg.Anthropic.MaxTokens, cfg.Anthropic.APIKey)
	interp, err := planner.NewLLMInterpreter(log, llm)
	if err != nil {
		return fmt.Errorf("failed to create interpreter: %w", err)
	}
	resolver, err := planner.New(planner.Config{Logger: log, Interpreter: interp})
	if err != nil {
		return fmt.Errorf("failed to create planner: %w", err)
	}
	agg, err := aggregator.New(aggregator.Config{Logger: log, Backend: corpusBackend})
	if err != nil {
		return fmt.Errorf("failed to create aggregator: %w", err)
	}
	pipe, err := pipeline.New(pipeline.Config{Logger: log, Resolver: resolver, Aggregator: agg})
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	srv, err := server.New(server.Config{
		Logger:          log,
		Pipeline:        pipe,
		Backend:         corpusBackend,
		ListenAddr:      cfg.ListenAddr,
		AllowedOrigins:  cfg.AllowedOrigins,
		RequestTimeout:  cfg.RequestTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Info("server: shutting down", "reason", ctx.Err())
		return <-serverErrCh
	case err := <-serverErrCh:
		if err != nil {
			log.Error("server: server error causing shutdown", "error", err)
		}
		return err
	case err := <-metricsServerErrCh:
		log.Error("server: metrics server error causing shutdown", "error", err)
		return err
	}
}
