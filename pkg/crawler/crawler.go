package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/PentesterFlow/icscrawl/internal/analytics"
	crawlhttp "github.com/PentesterFlow/icscrawl/internal/http"
	"github.com/PentesterFlow/icscrawl/internal/logger"
	"github.com/PentesterFlow/icscrawl/internal/metrics"
	"github.com/PentesterFlow/icscrawl/internal/output"
	"github.com/PentesterFlow/icscrawl/internal/parser"
	"github.com/PentesterFlow/icscrawl/internal/queue"
	"github.com/PentesterFlow/icscrawl/internal/scope"
	"github.com/PentesterFlow/icscrawl/internal/state"
)

// SnapshotVersion tags saved run state.
const SnapshotVersion = "1"

// statusInterval is how often progress is logged in verbose mode.
const statusInterval = 10 * time.Second

// seenEstimate sizes the seen-set bloom filter.
const seenEstimate = 200_000

// Crawler is the main crawler orchestrator.
type Crawler struct {
	config     *Config
	downloader Downloader
	parser     Parser
	frontier   queue.Frontier
	filter     *scope.Filter
	content    *state.ContentStore
	analytics  *analytics.Aggregator
	store      state.Store
	logger     *logger.Logger
	channels   *logger.Channels
	metrics    *metrics.Collector

	output       output.Writer
	outputWriter io.Writer
	resume       bool

	// components built by initialize and released by cleanup
	client        *crawlhttp.Client
	ownFrontier   bool
	ownDownloader bool
	ownParser     bool
	ownStore      bool
	ownChannels   bool

	mu        sync.RWMutex
	running   atomic.Bool
	startTime time.Time
	firstRun  time.Time
	summary   *Summary
}

// New creates a new crawler with the given options.
func New(opts ...Option) (*Crawler, error) {
	c := &Crawler{
		config: DefaultConfig(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	// Validate config
	if err := c.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize logger based on config
	if c.logger == nil {
		c.logger = logger.New(logger.Config{
			Level:     logger.LevelFor(c.config.Verbose, c.config.Debug),
			Pretty:    true,
			Component: "crawler",
		})
	}

	if c.metrics == nil {
		c.metrics = metrics.New()
	}

	return c, nil
}

// initialize builds the per-run components.
func (c *Crawler) initialize() error {
	cfg := c.config

	if c.channels == nil {
		ch, err := logger.OpenChannels(cfg.LogDir, os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to open log channels: %w", err)
		}
		c.channels = ch
		c.ownChannels = true
	}

	filter, err := scope.NewFilter(cfg.Scope,
		scope.WithSeenSet(state.NewSeenSet(seenEstimate)),
		scope.WithEventLogs(c.channels.Get(logger.ChannelAdmission), c.channels.Get(logger.ChannelTraps)),
		scope.WithRejectHook(func(_ string, reason scope.Reason) {
			c.metrics.RecordRejection(string(reason))
		}),
	)
	if err != nil {
		return fmt.Errorf("invalid scope rules: %w", err)
	}
	c.filter = filter
	c.content = state.NewContentStore()
	c.analytics = analytics.New(analytics.Config{
		MinWords:      cfg.MinWords,
		StopWords:     cfg.StopWords,
		PrimaryDomain: cfg.PrimaryDomain,
		LongestLog:    c.channels.Get(logger.ChannelLongest),
		ThinLog:       c.channels.Get(logger.ChannelThin),
	})

	if c.frontier == nil {
		if cfg.Frontier.Persistent {
			pf, err := queue.NewPersistentFrontier(cfg.Frontier.Path, cfg.Frontier.Restart && !c.resume)
			if err != nil {
				return fmt.Errorf("failed to open frontier: %w", err)
			}
			c.frontier = pf
		} else {
			c.frontier = queue.NewMemoryFrontier()
		}
		c.ownFrontier = true
	}

	if c.downloader == nil {
		clientCfg := crawlhttp.DefaultClientConfig()
		clientCfg.Timeout = cfg.Timeout
		clientCfg.UserAgent = cfg.UserAgent
		if cfg.MaxBodyBytes > 0 {
			clientCfg.MaxBodyBytes = cfg.MaxBodyBytes
		}
		clientCfg.Retry.MaxRetries = cfg.MaxRetries
		c.client = crawlhttp.NewClient(clientCfg)
		c.downloader = c.client
		c.ownDownloader = true
	}

	if c.parser == nil {
		c.parser = parser.NewHTMLParser()
		c.ownParser = true
	}

	if c.store == nil && cfg.State.Enabled {
		store, err := state.Open(cfg.State.Path)
		if err != nil {
			return fmt.Errorf("failed to open state store: %w", err)
		}
		c.store = store
		c.ownStore = true
	}

	target := c.outputWriter
	if target == nil {
		target = os.Stdout
	}
	out, err := output.Open(cfg.Output, target)
	if err != nil {
		return err
	}
	c.output = out

	return nil
}

// Start crawls until every worker finds the frontier exhausted or ctx is
// cancelled, then writes the summary and saves the run state.
func (c *Crawler) Start(ctx context.Context) (*Summary, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("crawler is already running")
	}
	defer c.running.Store(false)

	c.mu.Lock()
	c.startTime = time.Now()
	c.firstRun = c.startTime
	c.summary = nil
	c.mu.Unlock()

	if err := c.initialize(); err != nil {
		c.cleanup()
		return nil, err
	}
	defer c.cleanup()

	if c.resume {
		if err := c.restore(); err != nil {
			return nil, err
		}
	}
	c.seed()

	reportCtx, stopReport := context.WithCancel(ctx)
	if c.config.Verbose || c.config.Debug {
		go c.statusReporter(reportCtx)
	}

	c.logger.Infof("Starting %d workers", c.config.Workers)

	g, gctx := errgroup.WithContext(ctx)
	for id := range c.config.Workers {
		g.Go(func() error {
			c.worker(gctx, id)
			return nil
		})
	}
	g.Wait()
	stopReport()

	interrupted := ctx.Err() != nil
	if interrupted {
		c.logger.Warn("Crawl interrupted, writing partial results")
	}

	summary := c.buildSummary(interrupted)
	c.mu.Lock()
	c.summary = summary
	c.mu.Unlock()

	c.logResults(summary)

	var errs []error
	if err := c.saveState(interrupted); err != nil {
		errs = append(errs, fmt.Errorf("failed to save state: %w", err))
	}
	if err := c.output.WriteSummary(summary); err != nil {
		errs = append(errs, fmt.Errorf("failed to write output: %w", err))
	}

	return summary, errors.Join(errs...)
}

// restore loads the saved snapshot into the seen set, the fingerprint
// store and the aggregates.
func (c *Crawler) restore() error {
	if c.store == nil {
		return fmt.Errorf("resume requires a state store")
	}

	snap, err := c.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	if snap == nil {
		c.logger.Warn("No saved state found, starting fresh")
		return nil
	}

	c.filter.Seen().AddBatch(snap.SeenURLs)
	for _, fp := range snap.Fingerprints {
		c.content.RecordFingerprint(fp)
	}
	c.analytics.Restore(snap)

	c.mu.Lock()
	if !snap.StartedAt.IsZero() {
		c.firstRun = snap.StartedAt
	}
	c.mu.Unlock()

	c.logger.StatsEvent("State restored", map[string]any{
		"seen_urls":    len(snap.SeenURLs),
		"fingerprints": len(snap.Fingerprints),
		"words":        len(snap.Words),
	})
	return nil
}

// seed admits the configured seeds unless a saved frontier was restored.
func (c *Crawler) seed() {
	if rf, ok := c.frontier.(interface{ Restored() int }); ok && rf.Restored() > 0 {
		c.logger.Infof("Resuming %d queued urls", rf.Restored())
		return
	}

	for _, seed := range c.config.Seeds {
		if c.filter.Admit(seed, c.frontier.Push) {
			c.metrics.RecordAdmitted()
			continue
		}
		c.logger.WithURL(seed).WithField("reason", string(c.filter.Classify(seed))).Warn("Seed not admitted")
	}
}

func (c *Crawler) buildSummary(interrupted bool) *Summary {
	c.mu.RLock()
	started := c.startTime
	c.mu.RUnlock()
	now := time.Now()

	return &Summary{
		StartedAt:       started,
		CompletedAt:     now,
		Duration:        now.Sub(started),
		Interrupted:     interrupted,
		UniqueURLs:      c.filter.Seen().Len(),
		UniqueDownloads: c.content.Len(),
		Longest:         c.analytics.Longest(),
		Subdomains:      c.analytics.Subdomains(),
		Words:           c.analytics.Frequencies(),
		Metrics:         c.metrics.Snapshot(),
	}
}

// logResults writes the summary to the results channel.
func (c *Crawler) logResults(s *Summary) {
	results := c.channels.Get(logger.ChannelResults)
	for _, line := range s.Lines() {
		results.Info(line)
	}
	for _, line := range s.SubdomainLines() {
		results.Info(line)
	}
	c.logger.StatsEvent("Crawl finished", s.Metrics.Summary())
}

func (c *Crawler) saveState(interrupted bool) error {
	if c.store == nil {
		return nil
	}

	c.mu.RLock()
	started := c.firstRun
	c.mu.RUnlock()

	snap := &state.Snapshot{
		Version:      SnapshotVersion,
		StartedAt:    started,
		SavedAt:      time.Now(),
		Completed:    !interrupted,
		SeenURLs:     c.filter.Seen().All(),
		Fingerprints: c.content.All(),
	}
	c.analytics.Fill(snap)

	return c.store.Save(snap)
}

// statusReporter logs progress until ctx is done.
func (c *Crawler) statusReporter(ctx context.Context) {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := c.metrics.Snapshot()
			stats := snap.Summary()
			stats["queue_depth"] = c.frontier.Len()
			stats["active_workers"] = snap.ActiveWorkers
			stats["unique_urls"] = c.filter.Seen().Len()
			c.logger.StatsEvent("Progress", stats)
		}
	}
}

// cleanup releases the components initialize built.
func (c *Crawler) cleanup() {
	if c.output != nil {
		if err := c.output.Close(); err != nil {
			c.logger.WithError(err).Warn("Failed to close output")
		}
		c.output = nil
	}
	if c.ownFrontier && c.frontier != nil {
		if err := c.frontier.Close(); err != nil {
			c.logger.WithError(err).Warn("Failed to close frontier")
		}
		c.frontier, c.ownFrontier = nil, false
	}
	if c.ownStore && c.store != nil {
		if err := c.store.Close(); err != nil {
			c.logger.WithError(err).Warn("Failed to close state store")
		}
		c.store, c.ownStore = nil, false
	}
	if c.ownDownloader {
		if c.client != nil {
			c.client.Close()
		}
		c.downloader, c.client, c.ownDownloader = nil, nil, false
	}
	if c.ownParser {
		c.parser, c.ownParser = nil, false
	}
	if c.ownChannels && c.channels != nil {
		if err := c.channels.Close(); err != nil {
			c.logger.WithError(err).Warn("Failed to close log channels")
		}
		c.channels, c.ownChannels = nil, false
	}
}

// Summary returns the summary of the last finished run, or nil.
func (c *Crawler) Summary() *Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.summary
}

// Config returns a copy of the configuration.
func (c *Crawler) Config() *Config {
	return c.config.Clone()
}

// IsRunning reports whether Start is in progress.
func (c *Crawler) IsRunning() bool {
	return c.running.Load()
}

// Metrics returns the metrics collector for external access.
func (c *Crawler) Metrics() *metrics.Collector {
	return c.metrics
}

// LoadSummary rebuilds the summary of a saved run from store without crawling.
func LoadSummary(store state.Store) (*Summary, error) {
	snap, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	if snap == nil {
		return nil, fmt.Errorf("no saved state found")
	}

	agg := analytics.New(analytics.Config{StopWords: []string{}})
	agg.Restore(snap)

	return &Summary{
		StartedAt:       snap.StartedAt,
		CompletedAt:     snap.SavedAt,
		Duration:        snap.SavedAt.Sub(snap.StartedAt),
		Interrupted:     !snap.Completed,
		UniqueURLs:      len(snap.SeenURLs),
		UniqueDownloads: len(snap.Fingerprints),
		Longest:         agg.Longest(),
		Subdomains:      agg.Subdomains(),
		Words:           agg.Frequencies(),
	}, nil
}
