package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/vmunix/gamarr/internal/download"
	"github.com/vmunix/gamarr/internal/download/mocks"
	"github.com/vmunix/gamarr/internal/library"
	"github.com/vmunix/gamarr/internal/organizer"
	"github.com/vmunix/gamarr/pkg/release"
)

func newManualService(t *testing.T, client download.Downloader) (*ManualImportService, *library.Store, *download.Store) {
	t.Helper()
	db := setupTestDB(t)
	store := library.NewStore(db)
	tracked := download.NewStore(db)

	engine := NewEngine(store, nil, testLogger())
	imp := NewImporter(store, download.NewHistoryStore(db), organizer.New(testLogger()), nil, nil, testLogger())
	return NewManualImportService(engine, imp, store, tracked, client, testLogger()), store, tracked
}

func TestReprocessItem_RederivesFromPath(t *testing.T) {
	svc, store, _ := newManualService(t, nil)
	game := addTestGame(t, store, "Elden Ring", 2022)

	item, err := svc.ReprocessItem(ReprocessRequest{
		Path:   "/downloads/Elden.Ring.2022.1080p.BluRay-EVOLVE.mkv",
		GameID: game.ID,
	})
	if err != nil {
		t.Fatalf("ReprocessItem() error = %v", err)
	}

	if item.Quality.Quality != release.QualityBluray1080p {
		t.Errorf("Quality = %s, want Bluray-1080p", item.Quality.Quality)
	}
	if item.ReleaseGroup != "EVOLVE" {
		t.Errorf("ReleaseGroup = %q, want EVOLVE", item.ReleaseGroup)
	}
	if len(item.Languages) != 1 || item.Languages[0] != release.LanguageEnglish {
		t.Errorf("Languages = %v, want the game's original language", item.Languages)
	}
	if item.Game == nil || item.Game.ID != game.ID {
		t.Errorf("Game = %+v, want id %d", item.Game, game.ID)
	}
}

func TestReprocessItem_UserOverridesWinLast(t *testing.T) {
	svc, store, _ := newManualService(t, nil)
	game := addTestGame(t, store, "Elden Ring", 2022)

	override := release.QualityModel{Quality: release.QualityWEBDL2160p, Revision: release.Revision{Version: 1}}
	item, err := svc.ReprocessItem(ReprocessRequest{
		Path:         "/downloads/Elden.Ring.2022.1080p.BluRay-EVOLVE.mkv",
		GameID:       game.ID,
		Quality:      override,
		Languages:    []release.Language{release.LanguageGerman},
		IndexerFlags: 4,
	})
	if err != nil {
		t.Fatalf("ReprocessItem() error = %v", err)
	}

	// The path says 1080p Bluray; the user said otherwise and wins.
	if item.Quality != override {
		t.Errorf("Quality = %+v, want override %+v", item.Quality, override)
	}
	if len(item.Languages) != 1 || item.Languages[0] != release.LanguageGerman {
		t.Errorf("Languages = %v, want [German]", item.Languages)
	}
	if item.IndexerFlags != 4 {
		t.Errorf("IndexerFlags = %d, want 4", item.IndexerFlags)
	}
	if item.ReleaseGroup != "EVOLVE" {
		t.Errorf("ReleaseGroup = %q, want EVOLVE re-derived from path", item.ReleaseGroup)
	}
}

func TestGetMediaFilesForGame_FiltersExisting(t *testing.T) {
	svc, store, _ := newManualService(t, nil)
	game := addTestGame(t, store, "Elden Ring", 2022)

	writeTestFile(t, game.Path, "Elden Ring (2022).mkv", 0)
	fresh := writeTestFile(t, game.Path, "Elden.Ring.2022.2160p.BluRay-GRP.mkv", 0)

	if err := store.AddFile(&library.GameFile{
		GameID:       game.ID,
		RelativePath: "Elden Ring (2022).mkv",
		Quality:      release.QualityModel{Quality: release.QualityBluray1080p, Revision: release.Revision{Version: 1}},
		Languages:    []release.Language{release.LanguageEnglish},
	}); err != nil {
		t.Fatalf("add file: %v", err)
	}

	items, err := svc.GetMediaFilesForGame(game.ID)
	if err != nil {
		t.Fatalf("GetMediaFilesForGame() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Path != fresh {
		t.Errorf("item path = %q, want %q", items[0].Path, fresh)
	}
	if len(items[0].Rejections) != 0 {
		t.Errorf("rejections = %v, want none", items[0].Rejections)
	}
}

func TestGetMediaFiles_BrowseUnmatched(t *testing.T) {
	svc, store, _ := newManualService(t, nil)
	game := addTestGame(t, store, "Elden Ring", 2022)

	root := t.TempDir()
	sub := filepath.Join(root, "Elden.Ring.2022.1080p.BluRay-EVOLVE")
	disc := writeTestFile(t, sub, "game-disc.mkv", 0)

	items, err := svc.GetMediaFiles(root, "", 0, false)
	if err != nil {
		t.Fatalf("GetMediaFiles() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}

	item := items[0]
	if item.Path != disc {
		t.Errorf("path = %q, want %q", item.Path, disc)
	}
	if item.Game == nil || item.Game.ID != game.ID {
		t.Errorf("Game = %+v, want %q resolved from the folder name", item.Game, game.Title)
	}
	if item.SceneName != "Elden.Ring.2022.1080p.BluRay-EVOLVE" {
		t.Errorf("SceneName = %q", item.SceneName)
	}
}

func TestGetMediaFiles_FolderOverBudgetReturnsRawItems(t *testing.T) {
	svc, _, _ := newManualService(t, nil)

	root := t.TempDir()
	sub := filepath.Join(root, "mixed-stuff")
	for i := 0; i <= maxFilesPerFolder; i++ {
		writeTestFile(t, sub, fmt.Sprintf("clip-%03d.mkv", i), 0)
	}

	items, err := svc.GetMediaFiles(root, "", 0, false)
	if err != nil {
		t.Fatalf("GetMediaFiles() error = %v", err)
	}
	if len(items) != maxFilesPerFolder+1 {
		t.Fatalf("got %d items, want %d", len(items), maxFilesPerFolder+1)
	}
	for _, item := range items {
		if item.Game != nil {
			t.Fatalf("raw item %q carries a game", item.Path)
		}
		if len(item.Rejections) != 0 {
			t.Fatalf("raw item %q carries rejections: %v", item.Path, item.Rejections)
		}
	}
}

func TestCommit_ImportsAndCleansUpSource(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDownloader(ctrl)
	svc, store, tracked := newManualService(t, client)
	game := addTestGame(t, store, "Elden Ring", 2022)

	downloads := t.TempDir()
	src := writeTestFile(t, downloads, "Elden.Ring.2022.1080p.BluRay-EVOLVE.mkv", 256)
	if err := tracked.Track(&download.TrackedDownload{
		DownloadID: "dl-1",
		Client:     "qbittorrent",
		Title:      "Elden.Ring.2022.1080p.BluRay-EVOLVE",
		OutputPath: downloads,
	}); err != nil {
		t.Fatalf("track: %v", err)
	}

	client.EXPECT().GetItems(gomock.Any()).Return([]*download.DownloadItem{
		{ID: "dl-1", CanMoveFiles: true},
	}, nil)

	results, err := svc.Commit(context.Background(), []*ManualItem{{
		Path:       src,
		Size:       256,
		Game:       game,
		Quality:    release.QualityModel{Quality: release.QualityBluray1080p, Revision: release.Revision{Version: 1}},
		Languages:  []release.Language{release.LanguageEnglish},
		SceneName:  "Elden.Ring.2022.1080p.BluRay-EVOLVE",
		DownloadID: "dl-1",
	}})
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if len(results) != 1 || !results[0].Imported {
		t.Fatalf("results = %+v, want one imported", results)
	}

	if _, err := os.Stat(downloads); !os.IsNotExist(err) {
		t.Errorf("output folder still present, want removed after full import")
	}
}

func TestCommit_KeepsSourceWhileSeeding(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDownloader(ctrl)
	svc, store, tracked := newManualService(t, client)
	game := addTestGame(t, store, "Elden Ring", 2022)

	downloads := t.TempDir()
	src := writeTestFile(t, downloads, "Elden.Ring.2022.1080p.BluRay-EVOLVE.mkv", 256)
	if err := tracked.Track(&download.TrackedDownload{
		DownloadID: "dl-2",
		Client:     "qbittorrent",
		OutputPath: downloads,
	}); err != nil {
		t.Fatalf("track: %v", err)
	}

	client.EXPECT().GetItems(gomock.Any()).Return([]*download.DownloadItem{
		{ID: "dl-2", CanMoveFiles: false},
	}, nil)

	results, err := svc.Commit(context.Background(), []*ManualItem{{
		Path:       src,
		Size:       256,
		Game:       game,
		Quality:    release.QualityModel{Quality: release.QualityBluray1080p, Revision: release.Revision{Version: 1}},
		Languages:  []release.Language{release.LanguageEnglish},
		DownloadID: "dl-2",
	}})
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if !results[0].Imported {
		t.Fatalf("import failed: %v", results[0].Errors)
	}

	if _, err := os.Stat(downloads); err != nil {
		t.Errorf("output folder removed while the client still seeds: %v", err)
	}
}

func TestGetMediaFiles_EmptyFolderIsEmptyBrowse(t *testing.T) {
	svc, lib, _ := newManualService(t, nil)
	game := addTestGame(t, lib, "Elden Ring", 2022)

	items, err := svc.GetMediaFiles(t.TempDir(), "", game.ID, false)
	if err != nil {
		t.Fatalf("GetMediaFiles() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %d items from an empty folder, want 0", len(items))
	}
}
