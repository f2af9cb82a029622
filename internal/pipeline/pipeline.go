// Package pipeline runs one collection batch end to end: fetch, select,
// merge into the article store, archive and alert.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/elonfeng/toughnews/internal/archive"
	"github.com/elonfeng/toughnews/internal/merge"
	"github.com/elonfeng/toughnews/internal/store"
	"github.com/elonfeng/toughnews/pkg/alert"
	"github.com/elonfeng/toughnews/pkg/selector"
	"github.com/elonfeng/toughnews/pkg/source"
)

// Result summarizes a run.
type Result struct {
	Selected int          `json:"selected"`
	Added    int          `json:"added"`
	Total    int          `json:"total"`
	Policy   merge.Policy `json:"policy"`
}

// Options carries the per-deployment settings of a pipeline.
type Options struct {
	Feeds       []source.Feed
	Policy      merge.Policy
	ArticlesKey string
	Alerts      *alert.Manager
}

// Pipeline wires the collector, selector, store and archiver together.
// Runs are serialized.
type Pipeline struct {
	collector   *source.Collector
	selector    *selector.Selector
	store       store.Store
	archiver    *archive.Archiver
	alerts      *alert.Manager
	feeds       []source.Feed
	policy      merge.Policy
	articlesKey string
	logger      *log.Logger
	now         func() time.Time

	mu sync.Mutex
}

// New creates a pipeline.
func New(
	collector *source.Collector,
	sel *selector.Selector,
	s store.Store,
	archiver *archive.Archiver,
	opts Options,
	logger *log.Logger,
) *Pipeline {
	if opts.Policy == "" {
		opts.Policy = merge.Additive
	}
	if opts.ArticlesKey == "" {
		opts.ArticlesKey = "articles"
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{
		collector:   collector,
		selector:    sel,
		store:       s,
		archiver:    archiver,
		alerts:      opts.Alerts,
		feeds:       opts.Feeds,
		policy:      opts.Policy,
		articlesKey: opts.ArticlesKey,
		logger:      logger,
		now:         time.Now,
	}
}

// Archiver returns the archive log.
func (p *Pipeline) Archiver() *archive.Archiver { return p.archiver }

// RunOnce performs a single batch run. Feed failures are logged and skipped;
// store and archive failures abort the run. Alert failures are only logged.
func (p *Pipeline) RunOnce(ctx context.Context) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := p.now()
	batches := p.collector.Collect(ctx, p.feeds)
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("collect feeds: %w", err)
	}

	selected := p.selector.Select(selector.FromBatches(batches, start))
	p.logger.Debug("batch selected", "count", len(selected))

	var merged merge.Result
	err := store.UpdateArticles(ctx, p.store, p.articlesKey, p.logger, func(existing []source.Article) ([]source.Article, error) {
		merged = merge.Merge(p.policy, existing, selected, p.selector.Capacity())
		return merged.Articles, nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("merge articles: %w", err)
	}

	if _, err := p.archiver.Append(ctx, merged.Articles); err != nil {
		return Result{}, err
	}

	res := Result{
		Selected: len(selected),
		Added:    len(merged.Added),
		Total:    len(merged.Articles),
		Policy:   p.policy,
	}
	p.logger.Info("run complete",
		"selected", res.Selected,
		"added", res.Added,
		"total", res.Total,
		"policy", res.Policy,
		"elapsed", p.now().Sub(start).Round(time.Millisecond),
	)

	if res.Added > 0 && p.alerts.HasNotifiers() {
		if err := p.alerts.Broadcast(ctx, alert.ForRun(merged.Added, res.Total)); err != nil {
			p.logger.Warn("alert delivery failed", "err", err)
		}
	}
	return res, nil
}
