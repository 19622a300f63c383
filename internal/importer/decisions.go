// Package importer decides whether candidate files may enter the library
// and carries out approved imports.
package importer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vmunix/gamarr/internal/download"
	"github.com/vmunix/gamarr/internal/library"
	"github.com/vmunix/gamarr/pkg/release"
)

// Engine produces import decisions for candidate files.
type Engine struct {
	library *library.Store
	formats FormatCalculator // may be nil
	log     *slog.Logger
}

// NewEngine creates a decision engine.
func NewEngine(lib *library.Store, formats FormatCalculator, logger *slog.Logger) *Engine {
	return &Engine{
		library: lib,
		formats: formats,
		log:     logger.With("component", "importer"),
	}
}

// GetImportDecisions evaluates each candidate file and returns one decision
// per file, in input order. game may be nil, in which case each file runs
// the resolver chain; a file no strategy can place is rejected, never
// dropped. filterExisting removes candidates already recorded as up-to-date
// files of the game.
func (e *Engine) GetImportDecisions(paths []string, game *library.Game, td *download.TrackedDownload, folderInfo *release.ParsedInfo, sceneSource, filterExisting bool) ([]*Decision, error) {
	if filterExisting && game != nil {
		filtered, err := e.library.FilterExistingFiles(paths, game)
		if err != nil {
			return nil, fmt.Errorf("filter existing files: %w", err)
		}
		paths = filtered
	}

	decisions := make([]*Decision, 0, len(paths))
	for _, path := range paths {
		decisions = append(decisions, e.decide(path, game, td, folderInfo, sceneSource))
	}
	return decisions, nil
}

func (e *Engine) decide(path string, game *library.Game, td *download.TrackedDownload, folderInfo *release.ParsedInfo, sceneSource bool) *Decision {
	item := &LocalGame{
		Path:        path,
		Game:        game,
		FolderInfo:  folderInfo,
		FileInfo:    release.ParsePath(path),
		SceneSource: sceneSource,
	}
	if td != nil {
		item.DownloadID = td.DownloadID
	}
	if info, err := os.Stat(path); err == nil {
		item.Size = info.Size()
	}

	decision := &Decision{Item: item}

	if item.Game == nil {
		e.resolveGame(decision, td, folderInfo)
	}

	e.augment(item)

	if item.Game != nil {
		e.checkUpgrade(decision)
	}
	if isSample(item.Path, item.Size) {
		decision.Reject(RejectionSample, "%s is smaller than any real release", filepath.Base(item.Path))
	}
	if isPartial(item.Path) {
		decision.Reject(RejectionPartial, "%s is still downloading or unpacking", filepath.Base(item.Path))
	}

	return decision
}

// resolveGame runs the ordered strategy chain, stopping at the first hit.
// Ambiguity is surfaced as its own rejection rather than treated as a miss:
// picking one of several same-titled games silently would import into the
// wrong library entry.
func (e *Engine) resolveGame(decision *Decision, td *download.TrackedDownload, folderInfo *release.ParsedInfo) {
	item := decision.Item

	type strategy struct {
		name    string
		resolve func() (*library.Game, error)
	}

	strategies := []strategy{
		{"release title", func() (*library.Game, error) {
			if folderInfo == nil || folderInfo.PrimaryTitle() == "" {
				return nil, library.ErrNotFound
			}
			return e.library.FindByTitle(folderInfo.PrimaryTitle(), folderInfo.Year)
		}},
		{"file path", func() (*library.Game, error) {
			if item.FileInfo == nil || item.FileInfo.Title == "" {
				return nil, library.ErrNotFound
			}
			return e.library.FindByTitle(item.FileInfo.Title, item.FileInfo.Year)
		}},
		{"tracked download", func() (*library.Game, error) {
			if td == nil || td.RemoteGame == nil || td.RemoteGame.Game == nil {
				return nil, library.ErrNotFound
			}
			return td.RemoteGame.Game, nil
		}},
		{"download title", func() (*library.Game, error) {
			if td == nil || td.Title == "" {
				return nil, library.ErrNotFound
			}
			parsed := release.ParseTitle(td.Title)
			if parsed == nil {
				return nil, library.ErrNotFound
			}
			return e.library.FindByTitle(parsed.PrimaryTitle(), parsed.Year)
		}},
	}

	for _, s := range strategies {
		game, err := s.resolve()
		if err == nil {
			e.log.Debug("resolved game", "path", item.Path, "strategy", s.name, "game", game.Title)
			item.Game = game
			return
		}

		var multiErr *library.MultipleGamesError
		if errors.As(err, &multiErr) {
			decision.Reject(RejectionAmbiguousGame,
				"%q matches %d games; pick one manually", multiErr.Title, len(multiErr.Candidates))
			return
		}
		if !errors.Is(err, library.ErrNotFound) {
			decision.Reject(RejectionError, "game lookup failed: %v", err)
			return
		}
	}

	decision.Reject(RejectionUnknownGame, "unable to determine which game %s belongs to", filepath.Base(item.Path))
}

// augment fills quality, languages, release group and edition from the file
// parse, falling back to the folder parse and finally the game itself. The
// same augmentation runs for automatic and manual imports so both produce
// identically enriched files.
func (e *Engine) augment(item *LocalGame) {
	file, folder := item.FileInfo, item.FolderInfo

	if file != nil {
		item.Quality = file.Quality
		item.Languages = file.Languages
		item.ReleaseGroup = file.ReleaseGroup
		item.Edition = file.Edition
	}
	if folder != nil {
		if item.Quality.Quality == release.QualityUnknown {
			item.Quality = folder.Quality
		}
		if item.ReleaseGroup == "" {
			item.ReleaseGroup = folder.ReleaseGroup
		}
		if item.Edition == "" {
			item.Edition = folder.Edition
		}
		if len(item.Languages) == 0 || onlyUnknownLanguages(item.Languages) {
			item.Languages = folder.Languages
		}
		if item.SceneName == "" && folder.OriginalTitle != "" {
			item.SceneName = folder.OriginalTitle
		}
	}
	if item.Game != nil && onlyUnknownLanguages(item.Languages) {
		item.Languages = []release.Language{item.Game.OriginalLanguage}
	}

	if e.formats != nil && item.Game != nil {
		item.CustomFormats = e.formats.ParseCustomFormat(item)
		item.FormatScore = e.formats.Score(item.Game, item.CustomFormats)
	}
}

// checkUpgrade rejects a candidate that does not improve on the best file
// the game already has. Proper and real revisions of the same quality count
// as upgrades.
func (e *Engine) checkUpgrade(decision *Decision) {
	item := decision.Item
	existing, err := e.library.GetFilesByGame(item.Game.ID)
	if err != nil {
		decision.Reject(RejectionError, "existing files lookup failed: %v", err)
		return
	}

	for _, f := range existing {
		if !item.Quality.IsUpgradeOf(f.Quality) && f.Quality.Quality != release.QualityUnknown {
			decision.Reject(RejectionNotAnUpgrade,
				"existing file of quality %s is equal or better", f.Quality)
			return
		}
	}
}

func onlyUnknownLanguages(langs []release.Language) bool {
	for _, l := range langs {
		if l != release.LanguageUnknown {
			return false
		}
	}
	return true
}
