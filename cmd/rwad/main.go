package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"rwaledger/config"
	"rwaledger/core"
	"rwaledger/core/events"
	"rwaledger/core/genesis"
	"rwaledger/gateway/middleware"
	"rwaledger/gateway/routes"
	"rwaledger/integrations/eventlog"
	"rwaledger/integrations/stream"
	"rwaledger/integrations/webhooks"
	"rwaledger/native/common"
	"rwaledger/observability/logging"
	telemetry "rwaledger/observability/otel"
	"rwaledger/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfgPath := flag.String("config", "./rwad.toml", "path to the node configuration file")
	genesisPath := flag.String("genesis", "", "genesis file applied when the ledger is empty (overrides GenesisFile)")
	flag.Parse()

	if err := run(*cfgPath, *genesisPath); err != nil {
		fmt.Fprintf(os.Stderr, "rwad: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath, genesisOverride string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.Setup("rwad", cfg.Environment, logging.FileOptions{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "rwad",
		Environment: cfg.Environment,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdownTelemetry(flushCtx)
	}()

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open data dir %s: %w", cfg.DataDir, err)
	}
	defer db.Close()

	hub := routes.NewHub(logger)
	sinks := events.NewFanout(hub)

	var index routes.EventIndex
	if cfg.EventLog.Enabled {
		store, err := eventlog.Open(cfg.EventLog.DSN, logger)
		if err != nil {
			return fmt.Errorf("open event log: %w", err)
		}
		defer store.Close()
		if last, err := store.LastSequence(ctx); err == nil {
			logger.Info("event log ready", "dsn", cfg.EventLog.DSN, "lastSequence", last)
		}
		sinks.Add(store)
		index = store
	}

	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := stream.Dial(stream.Config{
			Brokers:  cfg.Kafka.Brokers,
			Topic:    cfg.Kafka.Topic,
			ClientID: cfg.Kafka.ClientID,
		}, logger)
		if err != nil {
			return fmt.Errorf("dial kafka: %w", err)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := publisher.Close(flushCtx); err != nil {
				logger.Warn("flush kafka publisher", "error", err)
			}
		}()
		sinks.Add(publisher)
	}

	if url := strings.TrimSpace(cfg.Webhook.URL); url != "" {
		opts := []webhooks.Option{webhooks.WithLogger(logger), webhooks.WithEventTypes(cfg.Webhook.EventTypes...)}
		if cfg.Webhook.MaxAttempts > 0 {
			opts = append(opts, webhooks.WithRetryPolicy(cfg.Webhook.MaxAttempts, time.Second, time.Minute))
		}
		dispatcher, err := webhooks.NewDispatcher(url, []byte(cfg.Webhook.Secret), opts...)
		if err != nil {
			return fmt.Errorf("configure webhook: %w", err)
		}
		defer dispatcher.Close()
		sinks.Add(dispatcher)
	}

	ledger, err := core.NewLedger(db,
		core.WithEmitter(sinks),
		core.WithPauses(common.NewPauses(cfg.PausedModules()...)),
		core.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}

	genesisPath := strings.TrimSpace(genesisOverride)
	if genesisPath == "" {
		genesisPath = strings.TrimSpace(cfg.GenesisFile)
	}
	if genesisPath != "" {
		spec, err := genesis.LoadGenesisSpec(genesisPath)
		if err != nil {
			return fmt.Errorf("load genesis: %w", err)
		}
		applied, err := ledger.ApplyGenesis(ctx, spec)
		if err != nil {
			return fmt.Errorf("apply genesis: %w", err)
		}
		logger.Info("genesis processed", "path", genesisPath, "applied", applied)
	}

	logger.Info("gateway auth",
		slog.Bool("enabled", cfg.Auth.Enabled),
		slog.String("issuer", cfg.Auth.Issuer),
		logging.MaskField("hmacSecret", cfg.Auth.HMACSecret))

	handler := routes.New(routes.Config{
		Ledger: ledger,
		Events: index,
		Hub:    hub,
		Authenticator: middleware.NewAuthenticator(middleware.AuthConfig{
			Enabled:       cfg.Auth.Enabled,
			HMACSecret:    cfg.Auth.HMACSecret,
			Issuer:        cfg.Auth.Issuer,
			Audience:      cfg.Auth.Audience,
			OptionalPaths: cfg.Auth.OptionalPaths,
			ClockSkew:     time.Duration(cfg.Auth.ClockSkewSeconds) * time.Second,
		}, logger),
		RateLimiter: middleware.NewRateLimiter(map[string]middleware.RateLimit{
			"v1": {RequestsPerMinute: cfg.RateLimit.RequestsPerMinute, Burst: cfg.RateLimit.Burst},
		}, logger),
		Observability: middleware.NewObservability(middleware.ObservabilityConfig{LogRequests: cfg.Environment == "dev"}, nil, logger),
		CORS:          middleware.CORSConfig{AllowedOrigins: cfg.CORS.AllowedOrigins},
		Logger:        logger,
	})

	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("rwad listening", "address", cfg.ListenAddress, "dataDir", cfg.DataDir)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}
