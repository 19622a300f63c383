// Package handlers drives tracked downloads through their import lifecycle.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/vmunix/gamarr/internal/download"
	"github.com/vmunix/gamarr/internal/events"
	"github.com/vmunix/gamarr/internal/importer"
	"github.com/vmunix/gamarr/internal/library"
	"github.com/vmunix/gamarr/pkg/release"
)

// decisionEngine is the slice of the decision engine the service consumes.
type decisionEngine interface {
	GetImportDecisions(paths []string, game *library.Game, td *download.TrackedDownload, folderInfo *release.ParsedInfo, sceneSource, filterExisting bool) ([]*importer.Decision, error)
}

// fileImporter commits approved decisions.
type fileImporter interface {
	ImportApproved(ctx context.Context, decisions []*importer.Decision, downloadID string) []*importer.ImportResult
}

// CompletionService moves completed downloads through Check, Import and
// VerifyImport. The runner invokes it once per download per polling cycle;
// it never runs concurrently for the same download id.
type CompletionService struct {
	tracked  *download.Store
	history  *download.HistoryStore
	library  *library.Store
	engine   decisionEngine
	importer fileImporter
	bus      *events.Bus
	mappings []download.PathMapping
	log      *slog.Logger
}

// NewCompletionService creates a completion service.
func NewCompletionService(tracked *download.Store, history *download.HistoryStore, lib *library.Store, engine decisionEngine, imp fileImporter, bus *events.Bus, mappings []download.PathMapping, logger *slog.Logger) *CompletionService {
	return &CompletionService{
		tracked:  tracked,
		history:  history,
		library:  lib,
		engine:   engine,
		importer: imp,
		bus:      bus,
		mappings: mappings,
		log:      logger.With("component", "completion"),
	}
}

// Check inspects a completed download and decides whether it is ready to
// import. Only Downloading and ImportBlocked downloads are considered; the
// client item must report completion. A download that cannot be matched to
// a game blocks and notifies the user exactly once.
func (s *CompletionService) Check(ctx context.Context, td *download.TrackedDownload) error {
	if td.State != download.StateDownloading && td.State != download.StateImportBlocked {
		return nil
	}
	if td.Item == nil || !td.Item.Completed {
		return nil
	}

	td.OutputPath = download.RemapPath(td.Item.OutputPath, s.mappings)

	grab, err := s.history.MostRecentGrab(td.DownloadID)
	if err != nil {
		return fmt.Errorf("grab history for %q: %w", td.DownloadID, err)
	}
	if grab == nil && td.Category == "" && td.Item.Category == "" {
		td.Warn("download has no grab history and no category; cannot be matched safely")
		s.log.Warn("skipping check: no history and no category", "download_id", td.DownloadID, "title", td.Title)
		return nil
	}

	if err := download.ValidateOutputPath(td.OutputPath); err != nil {
		td.Warn(fmt.Sprintf("output path is not usable on this OS: %v", err))
		s.log.Warn("skipping check: invalid output path", "download_id", td.DownloadID, "path", td.OutputPath)
		return nil
	}

	confirmed, reason := s.resolveGame(td, grab)
	if td.RemoteGame == nil || td.RemoteGame.Game == nil || !confirmed {
		if reason == "" {
			reason = fmt.Sprintf("unable to match %q to a game", td.Title)
		}
		td.Warn(reason)
		s.log.Warn("blocking download", "download_id", td.DownloadID, "reason", reason)
		return s.apply(ctx, td, download.EventBlocked, reason)
	}

	return s.apply(ctx, td, download.EventReadyToImport, "")
}

// resolveGame matches the download to a catalog game: first by parsing the
// download title, then via the most recent grab record. Returns whether the
// match is confirmed enough to import automatically, plus a reason when not.
func (s *CompletionService) resolveGame(td *download.TrackedDownload, grab *download.HistoryRecord) (confirmed bool, reason string) {
	if td.RemoteGame != nil && td.RemoteGame.Game != nil {
		return true, ""
	}

	parsed := release.ParseTitle(td.Title)
	if parsed != nil {
		game, err := s.library.FindByTitle(parsed.PrimaryTitle(), parsed.Year)
		if err == nil {
			td.RemoteGame = &download.RemoteGame{Release: parsed, Game: game}
			td.GameID = &game.ID
			return true, ""
		}
		var multiErr *library.MultipleGamesError
		if errors.As(err, &multiErr) {
			return false, fmt.Sprintf("%q matches %d games; pick one manually", multiErr.Title, len(multiErr.Candidates))
		}
	}

	if grab == nil || grab.GameID == 0 {
		return false, ""
	}
	game, err := s.library.GetGame(grab.GameID)
	if err != nil {
		s.log.Warn("grab history references missing game", "download_id", td.DownloadID, "game_id", grab.GameID)
		return false, ""
	}
	td.RemoteGame = &download.RemoteGame{Release: parsed, Game: game}
	td.GameID = &game.ID

	// Matched only through an id the user never confirmed.
	if grab.IsUnconfirmedIDMatch() {
		return false, fmt.Sprintf("%q was grabbed by id from an automatic search and needs confirmation", td.Title)
	}
	return true, ""
}

// Import runs the decision engine over the download's output folder and
// commits whatever is approved. Failure reverts to ImportPending so the next
// cycle can retry; per-file problems block the download with status messages.
// A single candidate that is dead on arrival is finalized and reported as
// download.ErrReleaseBlocklisted.
func (s *CompletionService) Import(ctx context.Context, td *download.TrackedDownload) error {
	if td.State != download.StateImportPending {
		return nil
	}

	if err := download.ValidateOutputPath(td.OutputPath); err != nil {
		td.Warn(fmt.Sprintf("output path is not usable on this OS: %v", err))
		s.log.Warn("skipping import: invalid output path", "download_id", td.DownloadID, "path", td.OutputPath)
		return nil
	}
	if td.RemoteGame == nil || td.RemoteGame.Game == nil {
		reason := fmt.Sprintf("no game resolved for %q", td.Title)
		td.Warn(reason)
		return s.apply(ctx, td, download.EventBlocked, reason)
	}

	if err := s.apply(ctx, td, download.EventImportStarted, ""); err != nil {
		return err
	}

	videos, err := importer.FindVideoFiles(td.OutputPath)
	if errors.Is(err, importer.ErrNoVideoFiles) {
		td.Warn("no eligible files found to import")
		s.log.Warn("no eligible files", "download_id", td.DownloadID, "path", td.OutputPath)
		return s.apply(ctx, td, download.EventImportRetry, "")
	}
	if err != nil {
		td.Warn(fmt.Sprintf("cannot read output folder: %v", err))
		return s.apply(ctx, td, download.EventImportRetry, "")
	}

	decisions, err := s.engine.GetImportDecisions(videos, td.RemoteGame.Game, td, td.RemoteGame.Release, true, false)
	if err != nil {
		td.Warn(fmt.Sprintf("import decisions failed: %v", err))
		return s.apply(ctx, td, download.EventImportRetry, "")
	}

	results := s.importer.ImportApproved(ctx, decisions, td.DownloadID)

	// Rejected decisions never reach the importer but still count as results
	// here: they carry the reasons shown to the user and keep a partly
	// rejected download from verifying as complete.
	for _, d := range decisions {
		if !d.Approved() {
			results = append(results, &importer.ImportResult{Decision: d})
		}
	}

	if s.VerifyImport(ctx, td, results) {
		return nil
	}

	if err := s.apply(ctx, td, download.EventImportRetry, ""); err != nil {
		return err
	}

	if len(results) == 1 && !results[0].Imported && s.finalizeRejected(ctx, td, results[0]) {
		return fmt.Errorf("release %q: %w", td.Title, download.ErrReleaseBlocklisted)
	}

	td.StatusMessages = statusMessages(results)
	return s.apply(ctx, td, download.EventBlocked, "one or more files could not be imported")
}

// finalizeRejected handles a download whose single candidate was rejected.
// A release rejected as not-an-upgrade is dead on arrival: record the
// failure so search-level blocklisting can act on it, and stop retrying.
func (s *CompletionService) finalizeRejected(ctx context.Context, td *download.TrackedDownload, result *importer.ImportResult) bool {
	var notUpgrade bool
	for _, r := range result.Decision.Rejections {
		if r.Reason == importer.RejectionNotAnUpgrade {
			notUpgrade = true
			break
		}
	}
	if !notUpgrade {
		return false
	}

	rec := &download.HistoryRecord{
		DownloadID:  td.DownloadID,
		Event:       download.HistoryDownloadFailed,
		SourceTitle: td.Title,
		Data:        map[string]string{},
	}
	if td.GameID != nil {
		rec.GameID = *td.GameID
	}
	if err := s.history.Add(rec); err != nil {
		s.log.Warn("record failed download", "download_id", td.DownloadID, "error", err)
	}

	if s.bus != nil {
		_ = s.bus.Publish(ctx, events.DownloadFailed{
			BaseEvent:  events.NewBaseEvent(events.EventDownloadFailed, events.EntityDownload, td.ID),
			DownloadID: td.DownloadID,
			Reason:     result.Decision.Rejections[0].Message,
		})
	}
	s.log.Info("finalized rejected download", "download_id", td.DownloadID, "reason", result.Decision.Rejections[0].Message)
	return true
}

// VerifyImport decides whether the download is done. Success requires every
// result of this pass to have imported, or failing that, the history to show
// every expected game as already imported by an earlier pass.
func (s *CompletionService) VerifyImport(ctx context.Context, td *download.TrackedDownload, results []*importer.ImportResult) bool {
	allImported := len(results) > 0
	importedCount := 0
	expected := map[int64]bool{}
	for _, r := range results {
		if r.Decision.Item.Game != nil {
			expected[r.Decision.Item.Game.ID] = true
		}
		if r.Imported {
			importedCount++
		} else {
			allImported = false
		}
	}

	if allImported {
		return s.finishImport(ctx, td)
	}

	// Second chance: a previous partial run may already have imported what
	// this run could not.
	if len(expected) == 0 {
		return false
	}
	records, err := s.history.FindByDownloadID(td.DownloadID)
	if err != nil {
		s.log.Warn("history lookup failed during verify", "download_id", td.DownloadID, "error", err)
		return false
	}
	recorded := map[int64]bool{}
	for _, r := range records {
		if r.Event == download.HistoryImported {
			recorded[r.GameID] = true
		}
	}
	for id := range expected {
		if !recorded[id] {
			return false
		}
	}

	if importedCount == 0 {
		s.log.Warn("history says imported but nothing was imported this pass",
			"download_id", td.DownloadID, "title", td.Title)
	}
	return s.finishImport(ctx, td)
}

func (s *CompletionService) finishImport(ctx context.Context, td *download.TrackedDownload) bool {
	if err := s.apply(ctx, td, download.EventImported, ""); err != nil {
		s.log.Error("finish import", "download_id", td.DownloadID, "error", err)
		return false
	}
	s.log.Info("download imported", "download_id", td.DownloadID, "title", td.Title)
	return true
}

// apply runs one state machine event, performs its side effect and persists
// the download. The manual-interaction notification fires at most once per
// download; the completion event fires once per accepted Imported transition.
func (s *CompletionService) apply(ctx context.Context, td *download.TrackedDownload, ev download.TransitionEvent, reason string) error {
	effect, err := td.Apply(ev)
	if err != nil {
		return fmt.Errorf("transition %q on %q: %w", ev, td.DownloadID, err)
	}

	switch effect {
	case download.EffectNotifyManualInteraction:
		if !td.NotifiedManual && s.bus != nil {
			_ = s.bus.Publish(ctx, events.ManualInteractionRequired{
				BaseEvent:  events.NewBaseEvent(events.EventManualInteractionRequired, events.EntityDownload, td.ID),
				DownloadID: td.DownloadID,
				Title:      td.Title,
				Reason:     reason,
			})
			td.NotifiedManual = true
		}
	case download.EffectPublishCompletion:
		if s.bus != nil {
			var gameID int64
			if td.GameID != nil {
				gameID = *td.GameID
			}
			_ = s.bus.Publish(ctx, events.DownloadCompleted{
				BaseEvent:  events.NewBaseEvent(events.EventDownloadCompleted, events.EntityDownload, td.ID),
				DownloadID: td.DownloadID,
				GameID:     gameID,
				SourcePath: td.OutputPath,
			})
		}
	}

	return s.tracked.Update(td)
}

// statusMessages builds one message group per non-imported file, sorted by
// path so repeated cycles render stably.
func statusMessages(results []*importer.ImportResult) []download.StatusMessage {
	var messages []download.StatusMessage
	for _, r := range results {
		if r.Imported {
			continue
		}
		var lines []string
		for _, rej := range r.Decision.Rejections {
			lines = append(lines, rej.Message)
		}
		lines = append(lines, r.Errors...)
		if len(lines) == 0 {
			lines = []string{"not imported"}
		}
		messages = append(messages, download.StatusMessage{
			Path:     r.Decision.Item.Path,
			Messages: lines,
		})
	}
	sort.Slice(messages, func(a, b int) bool {
		return strings.Compare(messages[a].Path, messages[b].Path) < 0
	})
	return messages
}
