package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vmunix/gamarr/internal/download"
	"github.com/vmunix/gamarr/internal/library"
	"github.com/vmunix/gamarr/pkg/release"
)

// maxFilesPerFolder bounds per-folder parsing work. A folder yielding more
// unmatched video files than this is returned raw instead of enriched.
const maxFilesPerFolder = 100

// ManualItem is the UI-facing projection of one decision, carrying the
// per-file rejections and whatever the user has overridden so far.
type ManualItem struct {
	Path         string
	Name         string
	Size         int64
	Game         *library.Game
	Quality      release.QualityModel
	Languages    []release.Language
	ReleaseGroup string
	Edition      string
	SceneName    string
	DownloadID   string
	IndexerFlags int
	Rejections   []Rejection
}

// ReprocessRequest carries a user's per-file overrides. Zero values mean
// "not overridden" and are re-derived from the path.
type ReprocessRequest struct {
	Path         string
	DownloadID   string
	GameID       int64
	ReleaseGroup string
	Quality      release.QualityModel
	Languages    []release.Language
	IndexerFlags int
}

// ManualImportService drives user-initiated imports: browsing folders,
// reprocessing single files after overrides, and committing batches.
type ManualImportService struct {
	engine   *Engine
	importer *Importer
	library  *library.Store
	tracked  *download.Store
	client   download.Downloader // may be nil
	log      *slog.Logger
}

// NewManualImportService creates a manual import service.
func NewManualImportService(engine *Engine, imp *Importer, lib *library.Store, tracked *download.Store, client download.Downloader, logger *slog.Logger) *ManualImportService {
	return &ManualImportService{
		engine:   engine,
		importer: imp,
		library:  lib,
		tracked:  tracked,
		client:   client,
		log:      logger.With("component", "manual-import"),
	}
}

// GetMediaFilesForGame lists importable files already inside a game's
// folder, skipping ones the library has recorded.
func (s *ManualImportService) GetMediaFilesForGame(gameID int64) ([]*ManualItem, error) {
	game, err := s.library.GetGame(gameID)
	if err != nil {
		return nil, err
	}

	videos, err := FindVideoFiles(game.Path)
	if errors.Is(err, ErrNoVideoFiles) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	decisions, err := s.engine.GetImportDecisions(videos, game, nil, nil, false, true)
	if err != nil {
		return nil, err
	}
	return itemsFromDecisions(decisions), nil
}

// GetMediaFiles browses an arbitrary folder. When no game can be fixed up
// front each subfolder is parsed as a candidate release title; a subtree
// that exceeds the per-folder budget without a match comes back as raw
// items so one junk folder cannot stall the whole browse.
func (s *ManualImportService) GetMediaFiles(path, downloadID string, gameID int64, filterExisting bool) ([]*ManualItem, error) {
	var td *download.TrackedDownload
	if downloadID != "" {
		var err error
		if td, err = s.tracked.Get(downloadID); err != nil && !errors.Is(err, download.ErrNotFound) {
			return nil, err
		}
	}

	var game *library.Game
	if gameID != 0 {
		var err error
		if game, err = s.library.GetGame(gameID); err != nil {
			return nil, err
		}
	} else if td != nil && td.RemoteGame != nil {
		game = td.RemoteGame.Game
	}

	if game != nil {
		videos, err := FindVideoFiles(path)
		if errors.Is(err, ErrNoVideoFiles) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		folderInfo := release.ParseTitle(filepath.Base(path))
		decisions, err := s.engine.GetImportDecisions(videos, game, td, folderInfo, false, filterExisting)
		if err != nil {
			return nil, err
		}
		return itemsFromDecisions(decisions), nil
	}

	return s.browseUnmatched(path, td)
}

// browseUnmatched walks each subfolder of path as its own candidate.
func (s *ManualImportService) browseUnmatched(path string, td *download.TrackedDownload) ([]*ManualItem, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read folder %s: %w", path, err)
	}

	var items []*ManualItem

	var loose []string
	for _, entry := range entries {
		if !entry.IsDir() {
			full := filepath.Join(path, entry.Name())
			if release.IsVideoFile(full) {
				loose = append(loose, full)
			}
		}
	}
	if len(loose) > 0 {
		folderInfo := release.ParseTitle(filepath.Base(path))
		decisions, err := s.engine.GetImportDecisions(loose, nil, td, folderInfo, false, false)
		if err != nil {
			return nil, err
		}
		items = append(items, itemsFromDecisions(decisions)...)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		folder := filepath.Join(path, entry.Name())
		videos, err := FindVideoFiles(folder)
		if errors.Is(err, ErrNoVideoFiles) {
			continue
		}
		if err != nil {
			s.log.Warn("skipping unreadable folder", "folder", folder, "error", err)
			continue
		}

		parsed, err := s.parseFolder(videos, entry.Name(), td)
		if errors.Is(err, ErrTooManyFiles) {
			s.log.Warn("folder over parse budget, returning raw items",
				"folder", folder, "files", len(videos))
			for _, v := range videos {
				items = append(items, rawItem(v))
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, parsed...)
	}

	return items, nil
}

// parseFolder runs one subfolder's videos through the decision engine,
// refusing folders over the per-folder budget with ErrTooManyFiles.
func (s *ManualImportService) parseFolder(videos []string, name string, td *download.TrackedDownload) ([]*ManualItem, error) {
	if len(videos) > maxFilesPerFolder {
		return nil, fmt.Errorf("%s: %d videos: %w", name, len(videos), ErrTooManyFiles)
	}
	decisions, err := s.engine.GetImportDecisions(videos, nil, td, release.ParseTitle(name), false, false)
	if err != nil {
		return nil, err
	}
	return itemsFromDecisions(decisions), nil
}

// ReprocessItem re-derives every field the user did not override, re-runs
// the same augmentation an automatic import would, then reapplies the
// user's choices last so their intent is never silently discarded.
func (s *ManualImportService) ReprocessItem(req ReprocessRequest) (*ManualItem, error) {
	game, err := s.library.GetGame(req.GameID)
	if err != nil {
		return nil, err
	}

	parsed := release.ParsePath(req.Path)

	quality := req.Quality
	if quality.Quality == release.QualityUnknown && parsed != nil {
		quality = parsed.Quality
	}
	group := req.ReleaseGroup
	if group == "" && parsed != nil {
		group = parsed.ReleaseGroup
	}
	languages := req.Languages
	if len(languages) == 0 || onlyUnknownLanguages(languages) {
		if parsed != nil && len(parsed.Languages) > 0 && !onlyUnknownLanguages(parsed.Languages) {
			languages = parsed.Languages
		} else {
			languages = []release.Language{game.OriginalLanguage}
		}
	}

	var td *download.TrackedDownload
	if req.DownloadID != "" {
		if td, err = s.tracked.Get(req.DownloadID); err != nil && !errors.Is(err, download.ErrNotFound) {
			return nil, err
		}
	}

	decision := s.engine.decide(req.Path, game, td, nil, false)
	item := itemFromDecision(decision)

	// User choices win over anything augmentation changed.
	item.Game = game
	item.Quality = quality
	item.ReleaseGroup = group
	item.Languages = languages
	item.IndexerFlags = req.IndexerFlags
	item.DownloadID = req.DownloadID
	return item, nil
}

// Commit imports a batch of user-confirmed items. Items group by source
// download; a download's output folder is deleted only when every one of
// its files imported and the client reports the files as safe to move.
func (s *ManualImportService) Commit(ctx context.Context, items []*ManualItem) ([]*ImportResult, error) {
	groups := make(map[string][]*ManualItem)
	var order []string
	for _, item := range items {
		if _, seen := groups[item.DownloadID]; !seen {
			order = append(order, item.DownloadID)
		}
		groups[item.DownloadID] = append(groups[item.DownloadID], item)
	}

	var results []*ImportResult
	for _, downloadID := range order {
		group := groups[downloadID]

		decisions := make([]*Decision, 0, len(group))
		for _, item := range group {
			decisions = append(decisions, &Decision{Item: &LocalGame{
				Path:         item.Path,
				Size:         item.Size,
				Game:         item.Game,
				Quality:      item.Quality,
				Languages:    item.Languages,
				ReleaseGroup: item.ReleaseGroup,
				Edition:      item.Edition,
				SceneName:    item.SceneName,
				DownloadID:   item.DownloadID,
				IndexerFlags: item.IndexerFlags,
			}})
		}

		groupResults := s.importer.ImportApproved(ctx, decisions, downloadID)
		results = append(results, groupResults...)

		if downloadID != "" {
			s.cleanupSource(ctx, downloadID, groupResults)
		}
	}
	return results, nil
}

func (s *ManualImportService) cleanupSource(ctx context.Context, downloadID string, results []*ImportResult) {
	for _, r := range results {
		if !r.Imported {
			return
		}
	}

	td, err := s.tracked.Get(downloadID)
	if err != nil {
		return
	}
	if !s.filesAreMoveSafe(ctx, downloadID) || td.OutputPath == "" {
		return
	}

	if err := os.RemoveAll(td.OutputPath); err != nil {
		s.log.Warn("delete output folder", "path", td.OutputPath, "error", err)
		return
	}
	s.log.Info("deleted output folder", "download_id", downloadID, "path", td.OutputPath)
}

func (s *ManualImportService) filesAreMoveSafe(ctx context.Context, downloadID string) bool {
	if s.client == nil {
		return false
	}
	items, err := s.client.GetItems(ctx)
	if err != nil {
		return false
	}
	for _, item := range items {
		if item.ID == downloadID {
			return item.CanMoveFiles
		}
	}
	return false
}

func itemsFromDecisions(decisions []*Decision) []*ManualItem {
	items := make([]*ManualItem, 0, len(decisions))
	for _, d := range decisions {
		items = append(items, itemFromDecision(d))
	}
	return items
}

func itemFromDecision(d *Decision) *ManualItem {
	item := d.Item
	return &ManualItem{
		Path:         item.Path,
		Name:         filepath.Base(item.Path),
		Size:         item.Size,
		Game:         item.Game,
		Quality:      item.Quality,
		Languages:    item.Languages,
		ReleaseGroup: item.ReleaseGroup,
		Edition:      item.Edition,
		SceneName:    item.SceneName,
		DownloadID:   item.DownloadID,
		IndexerFlags: item.IndexerFlags,
		Rejections:   d.Rejections,
	}
}

func rawItem(path string) *ManualItem {
	item := &ManualItem{
		Path: path,
		Name: filepath.Base(path),
	}
	if info, err := os.Stat(path); err == nil {
		item.Size = info.Size()
	}
	return item
}
