package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixflow/internal/engine"
	"github.com/desertthunder/mixflow/internal/health"
	"github.com/desertthunder/mixflow/internal/identity"
	"github.com/desertthunder/mixflow/internal/repositories"
	"github.com/desertthunder/mixflow/internal/sequencer"
	"github.com/desertthunder/mixflow/internal/services"
	"github.com/desertthunder/mixflow/internal/shared"
	"github.com/desertthunder/mixflow/internal/verify"
	"github.com/desertthunder/mixflow/internal/vqueue"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	runner := NewRunner(buildRunnerOpts(config, logger))

	app := &cli.Command{
		Name:     "mixflow",
		Usage:    "Adaptive song sequencing for shared playlists",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}

// buildRunnerOpts wires the sequencing stack from config. Dependencies are
// best-effort: a missing database leaves the identity cache memory-only
// instead of failing startup.
func buildRunnerOpts(config *shared.Config, logger *log.Logger) RunnerOpts {
	queue := vqueue.New(vqueue.Config{
		MaxConcurrent:   config.Queue.MaxConcurrent,
		MaxWaiting:      config.Queue.MaxWaiting,
		WaitTimeout:     config.Queue.WaitTimeout(),
		DispatchBatch:   config.Queue.DispatchBatch,
		DispatchStagger: config.Queue.DispatchStagger(),
		StressThreshold: config.Queue.StressThreshold(),
		StressCooldown:  config.Queue.StressCooldown(),
	}, logger, nil)

	var sink health.Sink
	if config.Health.NtfyTopic != "" {
		sink = health.NewNtfySink(config.Health.NtfyTopic, config.Health.NtfyTimeout())
	}
	reporter := health.New(queue, sink, health.Config{
		Interval:     config.Health.Interval(),
		DedupeWindow: config.Health.DedupeWindow(),
	}, logger)
	queue.SetAlerter(reporter)

	var store identity.MappingStore
	if db, err := shared.NewDatabase(config.Database.Path); err == nil {
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		store = repositories.NewMappingRepository(db)
	} else {
		logger.Warn("mapping store unavailable, identity cache runs memory-only", "error", err)
	}

	client := http.DefaultClient
	resolver := services.NewCatalogService(config.Catalog.BaseURL, config.Catalog.Platform, client)
	cache := identity.New(store, resolver, identity.Config{
		TTL:           config.Cache.TTL(),
		MaxEntries:    config.Cache.MaxEntries,
		Concurrency:   config.Cache.LookupConcurrency,
		RatePerSecond: config.Cache.LookupRateLimit,
	}, logger)

	ranker := services.NewRankService(config.Ranker.BaseURL, config.Ranker.APIKey, client)
	verifier := verify.New(ranker, queue, reporter, verify.Config{
		PrimaryModel:    config.Ranker.PrimaryModel,
		FallbackModel:   config.Ranker.FallbackModel,
		PrimaryTimeout:  config.Ranker.PrimaryTimeout(),
		FallbackTimeout: config.Ranker.FallbackTimeout(),
	}, logger)

	seq := sequencer.New(sequencer.Config{
		PopularPercentile: config.Sequencer.PopularPercentile,
		Seed:              config.Sequencer.Seed,
	})
	eng := engine.New(seq, verifier, logger)
	reporter.SetErrorRateFunc(eng.DegradedRate)

	return RunnerOpts{
		Config:   config,
		Engine:   eng,
		Verifier: verifier,
		Queue:    queue,
		Cache:    cache,
		Reporter: reporter,
		Logger:   logger,
	}
}
