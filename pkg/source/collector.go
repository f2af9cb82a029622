package source

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Collector fetches a set of feeds concurrently. Each feed gets its own
// timeout and a failing feed yields an empty batch instead of an error.
type Collector struct {
	fetcher     Fetcher
	limiter     *rate.Limiter
	timeout     time.Duration
	concurrency int
	logger      *log.Logger
}

// CollectorOptions tunes a Collector. Zero values pick defaults.
type CollectorOptions struct {
	Timeout       time.Duration
	Concurrency   int
	RatePerSecond float64
}

// NewCollector creates a collector around fetcher.
func NewCollector(fetcher Fetcher, opts CollectorOptions, logger *log.Logger) *Collector {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Collector{
		fetcher:     fetcher,
		limiter:     rate.NewLimiter(limit, 1),
		timeout:     opts.Timeout,
		concurrency: opts.Concurrency,
		logger:      logger,
	}
}

// Collect returns one batch per feed, in the order of feeds.
func (c *Collector) Collect(ctx context.Context, feeds []Feed) []Batch {
	batches := make([]Batch, len(feeds))

	var g errgroup.Group
	g.SetLimit(c.concurrency)

	for i, feed := range feeds {
		g.Go(func() error {
			batches[i] = c.collectFeed(ctx, feed)
			return nil
		})
	}
	_ = g.Wait()

	for _, b := range batches {
		if b.Err != nil {
			c.logger.Warn("feed skipped", "source", b.Feed.Name, "err", b.Err)
			continue
		}
		c.logger.Debug("feed fetched", "source", b.Feed.Name, "entries", len(b.Entries))
	}
	return batches
}

func (c *Collector) collectFeed(ctx context.Context, feed Feed) Batch {
	if err := c.limiter.Wait(ctx); err != nil {
		return Batch{Feed: feed, Err: err}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	entries, err := c.fetcher.Fetch(fetchCtx, feed.URL)
	if err != nil {
		return Batch{Feed: feed, Err: err}
	}
	return Batch{Feed: feed, Entries: entries}
}
