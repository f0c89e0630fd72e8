package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"horse.fit/telephone/internal/cli"
	"horse.fit/telephone/internal/db"
	"horse.fit/telephone/internal/httpapi"
	"horse.fit/telephone/internal/logging"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	host := fs.String("host", "0.0.0.0", "Host interface to bind")
	port := fs.Int("port", 8090, "HTTP port")
	readTimeout := fs.Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	writeTimeout := fs.Duration("write-timeout", 30*time.Second, "HTTP write timeout for non-streaming routes")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *port <= 0 || *port > 65535 {
		fmt.Fprintln(os.Stderr, "--port must be between 1 and 65535")
		return 2
	}

	cfg, err := loadConfig(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	registry, err := buildRegistry(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to register translation providers: %v\n", err)
		return 1
	}

	var history httpapi.HistoryStore
	if cfg.HistoryEnabled() {
		dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
		pool, err := db.NewPool(dbCtx, cfg)
		dbCancel()
		if err != nil {
			logger.Error().Err(err).Msg("serve failed to connect to database")
			fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
			return 1
		}
		defer pool.Close()
		history = pool
	} else {
		logger.Info().Msg("DATABASE_URL not set; run history disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		cancel()
	}()

	srv := httpapi.NewServer(registry, history, logger, httpapi.Options{
		Host:               *host,
		Port:               *port,
		ReadTimeout:        *readTimeout,
		WriteTimeout:       *writeTimeout,
		ShutdownTimeout:    *shutdownTimeout,
		CORSAllowedOrigins: cfg.CORSAllowedOriginsList(),
		StreamRateLimit:    cfg.StreamRateLimit,
		HistoryTokenHash:   cfg.HistoryTokenHash,
	})

	logger.Info().
		Str("default_provider", registry.DefaultProvider()).
		Str("detector", cfg.LanguageDetector).
		Bool("history", history != nil).
		Msg("translation providers registered")

	if err := srv.Start(ctx); err != nil {
		logger.Error().Err(err).Str("host", *host).Int("port", *port).Msg("server failed")
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		return 1
	}

	return 0
}
