package importer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/vmunix/gamarr/internal/download"
	"github.com/vmunix/gamarr/internal/events"
	"github.com/vmunix/gamarr/internal/library"
)

// ImportResult is the per-decision outcome of an ImportApproved run.
type ImportResult struct {
	Decision *Decision
	Imported bool
	DestPath string
	GameFile *library.GameFile
	Errors   []string
}

func (r *ImportResult) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Importer commits approved decisions: computes destinations, moves files,
// records them and publishes events.
type Importer struct {
	library   *library.Store
	history   *download.HistoryStore
	organizer organizerService
	mover     Mover
	bus       *events.Bus
	log       *slog.Logger
}

// organizerService is the slice of the naming engine the importer needs.
type organizerService interface {
	BuildFilePath(game *library.Game, file *library.GameFile, cfg library.NamingConfig, formats []library.CustomFormat) (string, error)
}

// NewImporter creates an Importer.
func NewImporter(lib *library.Store, history *download.HistoryStore, org organizerService, mover Mover, bus *events.Bus, logger *slog.Logger) *Importer {
	if mover == nil {
		mover = FileMover{}
	}
	return &Importer{
		library:   lib,
		history:   history,
		organizer: org,
		mover:     mover,
		bus:       bus,
		log:       logger.With("component", "importer"),
	}
}

// ImportApproved commits every approved decision, best quality first. One
// file per game per run: once a game received its file, later candidates
// for the same game are skipped rather than fought over.
func (i *Importer) ImportApproved(ctx context.Context, decisions []*Decision, downloadID string) []*ImportResult {
	qualified := make([]*Decision, 0, len(decisions))
	for _, d := range decisions {
		if d.Approved() && d.Item.Game != nil {
			qualified = append(qualified, d)
		}
	}
	sort.SliceStable(qualified, func(a, b int) bool {
		qa, qb := qualified[a].Item.Quality, qualified[b].Item.Quality
		if qa.Quality.Rank() != qb.Quality.Rank() {
			return qa.Quality.Rank() > qb.Quality.Rank()
		}
		return qualified[a].Item.Size > qualified[b].Item.Size
	})

	importedGames := make(map[int64]bool)
	results := make([]*ImportResult, 0, len(qualified))

	for _, d := range qualified {
		result := &ImportResult{Decision: d}
		results = append(results, result)

		game := d.Item.Game
		if importedGames[game.ID] {
			i.log.Debug("game already imported in this batch", "game", game.Title, "path", d.Item.Path)
			continue
		}

		if err := i.importOne(ctx, d, result, downloadID); err != nil {
			result.errorf("%v", err)
			i.log.Warn("import failed", "path", d.Item.Path, "error", err)
			i.publishFailed(ctx, game, downloadID, err)
			continue
		}

		importedGames[game.ID] = true
		result.Imported = true
	}
	return results
}

func (i *Importer) importOne(ctx context.Context, d *Decision, result *ImportResult, downloadID string) error {
	item := d.Item
	game := item.Game

	cfg, err := i.library.GetNamingConfig()
	if err != nil {
		return fmt.Errorf("naming config: %w", err)
	}

	file := &library.GameFile{
		GameID:       game.ID,
		RelativePath: filepath.Base(item.Path),
		Size:         item.Size,
		Quality:      item.Quality,
		Languages:    item.Languages,
		ReleaseGroup: item.ReleaseGroup,
		Edition:      item.Edition,
		SceneName:    item.SceneName,
		IndexerFlags: item.IndexerFlags,
	}

	relPath, err := i.organizer.BuildFilePath(game, file, cfg, item.CustomFormats)
	if err != nil {
		return fmt.Errorf("build destination: %w", err)
	}
	file.RelativePath = relPath

	dst := file.AbsolutePath(game)
	if err := ensureWithinGameFolder(dst, game.Path); err != nil {
		return err
	}
	if err := i.mover.Move(item.Path, dst); err != nil {
		return fmt.Errorf("move %s: %w", item.Path, err)
	}

	if err := i.library.AddFile(file); err != nil {
		return fmt.Errorf("record game file: %w", err)
	}
	result.GameFile = file
	result.DestPath = dst

	if i.history != nil && downloadID != "" {
		rec := &download.HistoryRecord{
			DownloadID:  downloadID,
			GameID:      game.ID,
			Event:       download.HistoryImported,
			SourceTitle: item.SceneName,
			Data:        map[string]string{},
		}
		if err := i.history.Add(rec); err != nil {
			i.log.Warn("record import history", "download_id", downloadID, "error", err)
		}
	}

	if i.bus != nil {
		_ = i.bus.Publish(ctx, events.GameFileImported{
			BaseEvent:  events.NewBaseEvent(events.EventGameFileImported, events.EntityGame, game.ID),
			GameID:     game.ID,
			GameFileID: file.ID,
			SourcePath: item.Path,
			DestPath:   dst,
			DownloadID: downloadID,
		})
	}

	i.log.Info("imported file", "game", game.Title, "dest", dst, "quality", item.Quality.String())
	return nil
}

func (i *Importer) publishFailed(ctx context.Context, game *library.Game, downloadID string, err error) {
	if i.bus == nil {
		return
	}
	_ = i.bus.Publish(ctx, events.GameImportFailed{
		BaseEvent:  events.NewBaseEvent(events.EventGameImportFailed, events.EntityGame, game.ID),
		GameID:     game.ID,
		DownloadID: downloadID,
		Reason:     err.Error(),
	})
}
