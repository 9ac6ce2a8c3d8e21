// Package app wires configuration into a runnable crawl pipeline, acting
// as the dependency injection point for the CLI and the control API.
package app

import (
	"context"
	"fmt"

	gcpubsub "cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/campuseats/spider/internal/aggregate"
	"github.com/campuseats/spider/internal/classify"
	"github.com/campuseats/spider/internal/clock/system"
	"github.com/campuseats/spider/internal/config"
	"github.com/campuseats/spider/internal/dates"
	"github.com/campuseats/spider/internal/extract"
	"github.com/campuseats/spider/internal/fetch"
	"github.com/campuseats/spider/internal/metrics"
	"github.com/campuseats/spider/internal/publish/memory"
	pubpublisher "github.com/campuseats/spider/internal/publish/pubsub"
	"github.com/campuseats/spider/internal/spider"
)

// App holds the long-lived pieces shared across runs: config, logger,
// fetch client, oracle, and the downstream publisher. Run-scoped state
// (frontier, cache, aggregator, stats) is created fresh per crawl.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	fetcher   *fetch.Client
	oracle    classify.Oracle
	publisher spider.Publisher
	pubsub    *gcpubsub.Client
}

// New builds the application from config. It fails fast on anything that
// would make every run fail.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	metrics.Init()

	fetcher, err := fetch.NewClient(fetch.Config{
		UserAgent:       cfg.Crawler.UserAgent,
		RequestTimeout:  cfg.Crawler.RequestTimeout,
		MaxRetries:      cfg.Crawler.MaxRetries,
		BackoffInitial:  cfg.Crawler.BackoffInitial,
		BackoffMax:      cfg.Crawler.BackoffMax,
		Concurrency:     cfg.Crawler.MaxConcurrent,
		PolitenessDelay: cfg.Crawler.PolitenessDelay,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init fetcher: %w", err)
	}

	var oracle classify.Oracle
	if cfg.Oracle.Endpoint != "" {
		oracle = classify.NewHTTPOracle(classify.OracleConfig{
			Endpoint:   cfg.Oracle.Endpoint,
			APIKey:     cfg.Oracle.APIKey,
			Model:      cfg.Oracle.Model,
			Timeout:    cfg.Oracle.Timeout,
			MaxRetries: cfg.Oracle.MaxRetries,
		}, logger)
	} else {
		logger.Warn("no oracle endpoint configured; ambiguous pages keep heuristic verdicts")
	}

	a := &App{
		cfg:     cfg,
		logger:  logger,
		fetcher: fetcher,
		oracle:  oracle,
	}

	if cfg.PubSub.ProjectID != "" {
		client, err := gcpubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("init pubsub: %w", err)
		}
		a.pubsub = client
		a.publisher = pubpublisher.New(client.Topic(cfg.PubSub.TopicName))
		logger.Info("publishing events to pubsub",
			zap.String("project", cfg.PubSub.ProjectID),
			zap.String("topic", cfg.PubSub.TopicName),
		)
	} else {
		a.publisher = memory.New()
		logger.Info("no pubsub configured; events stay in memory")
	}

	return a, nil
}

// Crawl runs one crawl over the given seeds (falling back to the
// configured seed list), publishes qualifying events, and returns the
// final list plus run statistics.
func (a *App) Crawl(ctx context.Context, seeds []string) ([]spider.NormalizedEvent, spider.CrawlStats, error) {
	if len(seeds) == 0 {
		seeds = a.cfg.Crawler.SeedURLs
	}
	if len(seeds) == 0 {
		return nil, spider.CrawlStats{}, spider.ErrNoSeeds
	}

	normalizer, err := dates.New(a.cfg.Crawler.Timezone)
	if err != nil {
		return nil, spider.CrawlStats{}, fmt.Errorf("init date normalizer: %w", err)
	}

	clk := system.Clock{}
	scheduler := spider.NewScheduler(
		spider.Options{
			MaxPages:           a.cfg.Crawler.MaxPages,
			MaxDepth:           a.cfg.Crawler.MaxDepth,
			MaxConcurrent:      a.cfg.Crawler.MaxConcurrent,
			RestrictToSameSite: a.cfg.Crawler.RestrictToSameSite,
			RunTimeout:         a.cfg.Crawler.RunTimeout,
		},
		a.fetcher,
		extract.New(a.logger),
		normalizer,
		classify.New(a.oracle, a.logger),
		aggregate.New(a.cfg.Crawler.MinConfidence, a.cfg.Crawler.DaysLookahead, clk),
		clk,
		a.logger,
	)

	events, stats, err := scheduler.Run(ctx, seeds)
	if err != nil {
		return nil, stats, err
	}

	for _, ev := range events {
		if _, err := a.publisher.Publish(ctx, ev); err != nil {
			a.logger.Error("publish event failed",
				zap.String("event_id", ev.EventID),
				zap.Error(err),
			)
		}
	}
	return events, stats, nil
}

// Logger exposes the shared logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Config exposes the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Close releases long-lived resources.
func (a *App) Close() {
	if a.pubsub != nil {
		_ = a.pubsub.Close()
	}
	_ = a.logger.Sync()
}
