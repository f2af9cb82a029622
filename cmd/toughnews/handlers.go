package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/elonfeng/toughnews/internal/archive"
	"github.com/elonfeng/toughnews/internal/config"
	"github.com/elonfeng/toughnews/internal/logging"
	"github.com/elonfeng/toughnews/internal/merge"
	"github.com/elonfeng/toughnews/internal/pipeline"
	"github.com/elonfeng/toughnews/internal/scheduler"
	"github.com/elonfeng/toughnews/internal/store"
	"github.com/elonfeng/toughnews/pkg/alert"
	"github.com/elonfeng/toughnews/pkg/classify"
	"github.com/elonfeng/toughnews/pkg/selector"
	"github.com/elonfeng/toughnews/pkg/server"
	"github.com/elonfeng/toughnews/pkg/source"
)

// app holds the components every command needs.
type app struct {
	cfg      *config.Config
	logger   *log.Logger
	store    store.Store
	archiver *archive.Archiver
}

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	logger := logging.New(os.Stderr, level)

	db, err := store.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	logger.Debug("store opened", "driver", cfg.Store.Driver, "path", cfg.Store.Path)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    db,
		archiver: archive.New(db, cfg.Store.ArchiveKey, logger),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func buildClassifier(cfg *config.Config) *classify.Classifier {
	var scorer classify.Scorer = classify.Neutral{}
	if cfg.Filter.Sentiment == "vader" {
		scorer = classify.NewVader()
	}
	return classify.New(cfg.Filter.BadKeywords, cfg.Filter.ExcludeKeywords, scorer)
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

// buildPipeline wires the collector, selector and store. policy overrides the
// configured merge policy when non-empty.
func (a *app) buildPipeline(policy string) (*pipeline.Pipeline, error) {
	if policy == "" {
		policy = a.cfg.Merge.Policy
	}
	p, err := merge.ParsePolicy(policy)
	if err != nil {
		return nil, err
	}

	timeout := a.cfg.Fetch.ParseTimeout()
	collector := source.NewCollector(source.NewRSS(timeout), source.CollectorOptions{
		Timeout:       timeout,
		Concurrency:   a.cfg.Fetch.Concurrency,
		RatePerSecond: a.cfg.Fetch.RatePerSecond,
	}, a.logger)
	sel := selector.New(buildClassifier(a.cfg), a.cfg.Select.Capacity)

	return pipeline.New(collector, sel, a.store, a.archiver, pipeline.Options{
		Feeds:       a.cfg.Feeds,
		Policy:      p,
		ArticlesKey: a.cfg.Store.ArticlesKey,
		Alerts:      buildAlertManager(a.cfg),
	}, a.logger), nil
}

func (a *app) buildServer(runner server.Runner, port int) *server.Server {
	if port == 0 {
		port = a.cfg.Server.Port
	}
	return server.New(a.store, a.archiver, runner, server.Options{
		Port:           port,
		ArticlesKey:    a.cfg.Store.ArticlesKey,
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
	}, a.logger)
}

func runCollect(ctx context.Context, policy string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.buildPipeline(policy)
	if err != nil {
		return err
	}

	res, err := p.RunOnce(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("added %d new articles (total %d)\n", res.Added, res.Total)
	return nil
}

func runArticles(ctx context.Context, jsonOutput, shownOnly bool) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	articles, err := store.LoadArticles(ctx, a.store, a.cfg.Store.ArticlesKey, a.logger)
	if err != nil {
		return err
	}
	if shownOnly {
		var shown []source.Article
		for _, art := range articles {
			if art.Shown {
				shown = append(shown, art)
			}
		}
		articles = shown
	}

	if jsonOutput {
		if articles == nil {
			articles = []source.Article{}
		}
		return writeJSON(os.Stdout, articles)
	}

	if len(articles) == 0 {
		fmt.Println("no articles stored (try: toughnews collect)")
		return nil
	}
	return printArticles(os.Stdout, articles)
}

func printArticles(out io.Writer, articles []source.Article) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SHOWN\tPUBLISHED\tSOURCE\tTITLE\tKEY")
	for _, art := range articles {
		published := "-"
		if art.PublishedAt != nil {
			published = art.PublishedAt.Format(time.RFC3339)
		}
		shown := "no"
		if art.Shown {
			shown = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", shown, published, art.Source, art.Title, art.Key())
	}
	return w.Flush()
}

func runArchive(ctx context.Context, jsonOutput bool, limit int) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	snaps, err := a.archiver.Recent(ctx, limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		if snaps == nil {
			snaps = []archive.Snapshot{}
		}
		return writeJSON(os.Stdout, snaps)
	}

	if len(snaps) == 0 {
		fmt.Println("archive is empty")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tARTICLES\tSHOWN")
	for _, snap := range snaps {
		shown := 0
		for _, art := range snap.Articles {
			if art.Shown {
				shown++
			}
		}
		fmt.Fprintf(w, "%s\t%d\t%d\n", snap.Timestamp, len(snap.Articles), shown)
	}
	return w.Flush()
}

func runCurate(ctx context.Context, key string, shown bool) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := store.SetShown(ctx, a.store, a.cfg.Store.ArticlesKey, key, shown, a.logger); err != nil {
		return fmt.Errorf("curate %s: %w", key, err)
	}
	fmt.Printf("%s: shown=%t\n", key, shown)
	return nil
}

func runServe(port int) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.buildPipeline("")
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.buildServer(p, port).ListenAndServe(ctx)
}

func runDaemon(port int) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.buildPipeline("")
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(p, a.cfg.Schedule.ParseInterval(), a.logger)
	srv := a.buildServer(p, port)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return srv.ListenAndServe(ctx)
	})

	err = g.Wait()
	a.logger.Info("shutting down")
	return err
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
