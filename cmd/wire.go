package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hallyu-journalist/internal/ai"
	"hallyu-journalist/internal/archive"
	"hallyu-journalist/internal/briefing"
	"hallyu-journalist/internal/collector"
	"hallyu-journalist/internal/config"
	"hallyu-journalist/internal/curator"
	"hallyu-journalist/internal/enrich"
	"hallyu-journalist/internal/pipeline"
	"hallyu-journalist/internal/redisclient"
	"hallyu-journalist/internal/retry"
	"hallyu-journalist/internal/scrape"
	"hallyu-journalist/internal/search"
	"hallyu-journalist/internal/slots"
	"hallyu-journalist/internal/storage"
	"hallyu-journalist/internal/trends"
	"hallyu-journalist/worker"
)

// dataStore is what Postgres and Memory both provide.
type dataStore interface {
	storage.Store
	storage.ReadStore
}

type stackOptions struct {
	dryRun  bool // in-memory store, nothing persisted
	needLLM bool
}

// stack is the assembled application for one command invocation.
type stack struct {
	cfg     *config.Config
	store   dataStore
	redis   *storage.RedisStore // nil without redis
	chain   *ai.Chain
	runner  *pipeline.Runner
	trends  *trends.Analyzer
	closers []func() error
}

func (s *stack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// cursor returns the shared rotation cursor, or an in-process one.
func (s *stack) cursor() worker.Cursor {
	if s.redis != nil {
		return s.redis
	}
	return &worker.LocalCursor{}
}

// openStore connects the relational store, or an in-memory one for dry runs.
func openStore(ctx context.Context, cfg *config.Config, dryRun bool) (dataStore, func() error, error) {
	if dryRun {
		slog.Info("store: dry run, using in-memory store")
		return storage.NewMemory(), func() error { return nil }, nil
	}
	pg, err := storage.OpenPostgres(ctx, cfg.Database.URL, cfg.Database.MaxOpenConns)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		slog.Info("store: schema migrated")
	}
	return pg, pg.Close, nil
}

func buildSearcher(cfg *config.Config) search.Searcher {
	var ps []search.Searcher
	sc := cfg.Search
	if sc.Naver.ClientID != "" && sc.Naver.ClientSecret != "" {
		ps = append(ps, search.NewNaver(sc.Naver.BaseURL, sc.Naver.ClientID, sc.Naver.ClientSecret, sc.Timeout))
	}
	if sc.GoogleNews.Enabled {
		ps = append(ps, search.NewGoogleNews(sc.GoogleNews.BaseURL, sc.GoogleNews.Lang, sc.GoogleNews.Region, sc.Timeout))
	}
	return search.NewFallback(ps...)
}

func buildExtractor(cfg *config.Config) scrape.Extractor {
	sc := cfg.Scrape
	html := scrape.NewHTML(sc.MaxChars, sc.Timeout)
	if sc.ProbeImages {
		html.Prober = scrape.NewImageProber(0, sc.Timeout)
	}
	exs := []scrape.Extractor{html}
	if sc.Cloudflare.AccountID != "" && sc.Cloudflare.APIToken != "" {
		exs = append(exs, scrape.NewCloudflare(sc.Cloudflare.AccountID, sc.Cloudflare.APIToken, sc.MaxChars, 2*sc.Timeout))
	}
	return &scrape.Fallback{Extractors: exs}
}

// buildStack validates the configuration and constructs every component.
// A config error is returned before anything is connected.
func buildStack(ctx context.Context, cfg config.Config, opts stackOptions) (*stack, error) {
	if opts.needLLM {
		if err := cfg.Validate(!opts.dryRun); err != nil {
			return nil, err
		}
	} else if !opts.dryRun && cfg.Database.URL == "" {
		return nil, errors.New("database.url (or DATABASE_URL) is required")
	}

	s := &stack{cfg: &cfg}
	store, closeStore, err := openStore(ctx, &cfg, opts.dryRun)
	if err != nil {
		return nil, err
	}
	s.store = store
	s.closers = append(s.closers, closeStore)

	rdb, err := redisclient.Connect(ctx, cfg.Redis, 2*time.Second)
	if err != nil {
		// Redis only adds the seen index, cooldown cache and shared cursor.
		slog.Warn("redis: unavailable, continuing without it", "error", err)
	} else if rdb != nil {
		s.redis = storage.NewRedisStore(rdb)
		s.closers = append(s.closers, rdb.Close)
	}

	if !opts.needLLM {
		return s, nil
	}

	chain, closeChain, err := ai.BuildChain(ctx, cfg.LLM)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.chain = chain
	s.closers = append(s.closers, closeChain)

	searcher := buildSearcher(&cfg)
	extractor := buildExtractor(&cfg)

	col := collector.New(searcher, store, collector.Options{
		PerQuery:    cfg.Search.Naver.Display,
		Pause:       cfg.Search.Pause,
		DedupWindow: cfg.Curation.DedupWindow(),
		MaxAge:      cfg.Curation.MaxAge(),
		BatchSize:   cfg.Curation.BatchSize,
		Retry:       retry.Config{MaxAttempts: cfg.Search.Retries, Delay: cfg.Search.Pause, Backoff: true},
	}).WithSeeds(search.NewTrendSeeds(cfg.Search.TrendSeeds.URL, cfg.Search.TrendSeeds.Limit, cfg.Search.Timeout))

	briefer := briefing.New(chain, searcher, extractor, store, briefing.Options{
		OmitLink:      cfg.Briefing.OmitLink,
		AdmissionMin:  cfg.Curation.AdmissionScoreMin,
		Cooldown:      cfg.Briefing.Cooldown(),
		SearchResults: cfg.Briefing.SearchResults,
	})

	deps := pipeline.Deps{
		Store:     store,
		Collector: col,
		Curator: curator.New(chain, curator.Options{
			BatchSize:    cfg.Curation.BatchSize,
			Keep:         cfg.Curation.Capacity,
			AdmissionMin: cfg.Curation.AdmissionScoreMin,
			Policies:     curator.PoliciesFrom(&cfg),
		}),
		Briefer: briefer,
		Slots: slots.NewManager(store, slots.Policy{
			Capacity:  cfg.Curation.Capacity,
			Staleness: cfg.Curation.Staleness(),
			SkipRanks: !cfg.Curation.Ranks(),
		}),
		Archiver: archive.New(store, cfg.Archive.TopN),
		Budget:   chain,
	}
	if cfg.Scrape.Enabled {
		deps.Enricher = enrich.New(extractor, cfg.Scrape.Concurrency, cfg.Scrape.Timeout)
	}
	if s.redis != nil {
		col.WithSeen(s.redis)
		briefer.WithCooldown(s.redis)
		deps.Seen = s.redis
		deps.SeenTTL = cfg.Redis.SeenTTL
	}

	s.runner = pipeline.New(&cfg, deps)
	s.trends = trends.New(chain, store, trends.Options{
		TitleLimit:  cfg.Trends.TitleLimit,
		MaxKeywords: cfg.Trends.MaxKeywords,
		Exclude:     cfg.Trends.Exclude,
	})
	return s, nil
}
