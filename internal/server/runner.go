// Package server runs the polling loop that drives downloads to import.
package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/gamarr/internal/download"
)

// Config for the runner.
type Config struct {
	PollInterval time.Duration
	ClientName   string
	PathMappings []download.PathMapping
}

// completionService is the per-download lifecycle driver.
type completionService interface {
	Check(ctx context.Context, td *download.TrackedDownload) error
	Import(ctx context.Context, td *download.TrackedDownload) error
}

// Runner polls the download client and pushes each tracked download through
// Check and Import. Downloads are processed in parallel, but never the same
// download id twice at once: imports move files and must not re-enter.
type Runner struct {
	tracked    *download.Store
	client     download.Downloader
	completion completionService
	config     Config
	logger     *slog.Logger

	inFlight sync.Map // download_id -> struct{}
}

// NewRunner creates a runner.
func NewRunner(tracked *download.Store, client download.Downloader, completion completionService, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	return &Runner{
		tracked:    tracked,
		client:     client,
		completion: completion,
		config:     cfg,
		logger:     logger.With("component", "runner"),
	}
}

// Run blocks until the context is canceled.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(r.config.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				r.Cycle(ctx)
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	return g.Wait()
}

// Cycle runs one polling pass: refresh client state, track new items, then
// drive every live download. Each download runs in its own goroutine; the
// in-flight map drops a download still busy from the previous cycle.
func (r *Runner) Cycle(ctx context.Context) {
	items, err := r.client.GetItems(ctx)
	if err != nil {
		r.logger.Warn("download client unreachable", "error", err)
		return
	}

	byID := make(map[string]*download.DownloadItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
		if err := r.trackNew(item); err != nil {
			r.logger.Error("track download", "download_id", item.ID, "error", err)
		}
	}

	downloads, err := r.tracked.List()
	if err != nil {
		r.logger.Error("list tracked downloads", "error", err)
		return
	}

	for _, td := range downloads {
		if td.State.IsTerminal() {
			continue
		}
		td.Item = byID[td.DownloadID]
		go r.process(ctx, td)
	}
}

func (r *Runner) trackNew(item *download.DownloadItem) error {
	td := &download.TrackedDownload{
		DownloadID: item.ID,
		Client:     r.config.ClientName,
		Title:      item.Title,
		Category:   item.Category,
		OutputPath: download.RemapPath(item.OutputPath, r.config.PathMappings),
	}
	return r.tracked.Track(td)
}

func (r *Runner) process(ctx context.Context, td *download.TrackedDownload) {
	if _, busy := r.inFlight.LoadOrStore(td.DownloadID, struct{}{}); busy {
		r.logger.Debug("download still processing from previous cycle", "download_id", td.DownloadID)
		return
	}
	defer r.inFlight.Delete(td.DownloadID)

	if err := r.completion.Check(ctx, td); err != nil {
		r.logger.Error("check failed", "download_id", td.DownloadID, "error", err)
		return
	}
	if td.State != download.StateImportPending {
		return
	}
	if err := r.completion.Import(ctx, td); err != nil {
		if errors.Is(err, download.ErrReleaseBlocklisted) {
			r.logger.Info("release finalized as failed", "download_id", td.DownloadID, "reason", err)
			return
		}
		r.logger.Error("import failed", "download_id", td.DownloadID, "error", err)
	}
}
