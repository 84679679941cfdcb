// Command designrelay serves the design-brief relay over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/KamdynS/designrelay/brief"
	"github.com/KamdynS/designrelay/config"
	"github.com/KamdynS/designrelay/observability"
	"github.com/KamdynS/designrelay/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := observability.NewLogger(cfg.IsDevelopment(), cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("relay stopped with error")
	}
	log.Info().Msg("relay exited cleanly")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)
	hooks := observability.Merge(observability.ZerologHooks(log), metrics.Hooks())

	source, err := buildSource(cfg, hooks)
	if err != nil {
		return fmt.Errorf("token source: %w", err)
	}
	store, err := buildStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("image store: %w", err)
	}
	pub, err := buildPublisher(ctx, cfg, hooks)
	if err != nil {
		return fmt.Errorf("publisher: %w", err)
	}
	if pub != nil {
		defer func() {
			if err := pub.Close(); err != nil {
				log.Error().Err(err).Msg("close publisher")
			}
		}()
	}

	proc, err := brief.NewProcessor(brief.Config{
		Source:       source,
		Generator:    buildGenerator(cfg, log),
		Store:        store,
		Publisher:    pub,
		Hooks:        hooks,
		SystemPrompt: brief.DesignerPrompt(cfg.ImageModel),
		ImageSize:    cfg.ImageSize,
		Folder:       cfg.ImageFolder,

		PublishTimeout: cfg.PublishTimeout,
	})
	if err != nil {
		return err
	}

	srv, err := server.New(proc, server.Config{
		Port:                cfg.Port,
		MaxRequestBodyBytes: cfg.MaxBodyBytes,
		Metrics:             promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Logger:              log,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
