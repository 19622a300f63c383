package library

import (
	"errors"
	"testing"

	"github.com/vmunix/gamarr/pkg/release"
)

func TestStore_AddFile(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	game := createTestGame(t, store, "Grand Theft Auto V", 2013)

	f := &GameFile{
		GameID:       game.ID,
		RelativePath: "Grand.Theft.Auto.V.REPACK-RAZOR.iso",
		Size:         68719476736,
		Quality: release.QualityModel{
			Quality:  release.QualityBluray1080p,
			Revision: release.Revision{Version: 2},
		},
		Languages:    []release.Language{release.LanguageEnglish},
		ReleaseGroup: "RAZOR",
		SceneName:    "Grand.Theft.Auto.V.REPACK-RAZOR",
	}

	if err := store.AddFile(f); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if f.ID == 0 {
		t.Error("ID should be set after AddFile")
	}
	if f.DateAdded.IsZero() {
		t.Error("DateAdded should be set after AddFile")
	}
}

func TestStore_AddFile_DuplicatePath(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	game := createTestGame(t, store, "Grand Theft Auto V", 2013)

	f1 := &GameFile{GameID: game.ID, RelativePath: "gta5.iso", Size: 100}
	if err := store.AddFile(f1); err != nil {
		t.Fatalf("AddFile first: %v", err)
	}

	f2 := &GameFile{GameID: game.ID, RelativePath: "gta5.iso", Size: 200}
	if err := store.AddFile(f2); !errors.Is(err, ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

func TestStore_GetFile_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	game := createTestGame(t, store, "Grand Theft Auto V", 2013)

	f := &GameFile{
		GameID:       game.ID,
		RelativePath: "gta5.iso",
		Size:         1024,
		Quality: release.QualityModel{
			Quality:  release.QualityWEBDL1080p,
			Revision: release.Revision{Version: 2, Real: 1},
		},
		Languages:    []release.Language{release.LanguageEnglish, release.LanguageFrench},
		ReleaseGroup: "CODEX",
		Edition:      "Premium Edition",
		MediaInfo: &MediaInfo{
			AudioLanguages:    []string{"eng", "fre"},
			SubtitleLanguages: []string{"eng"},
		},
	}
	if err := store.AddFile(f); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	got, err := store.GetFile(f.ID)
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if got.Quality.Quality != release.QualityWEBDL1080p {
		t.Errorf("Quality = %v", got.Quality.Quality)
	}
	if got.Quality.Revision.Version != 2 || got.Quality.Revision.Real != 1 {
		t.Errorf("Revision = %+v", got.Quality.Revision)
	}
	if len(got.Languages) != 2 {
		t.Errorf("Languages = %v", got.Languages)
	}
	if got.MediaInfo == nil || len(got.MediaInfo.AudioLanguages) != 2 {
		t.Errorf("MediaInfo = %+v", got.MediaInfo)
	}
	if got.Edition != "Premium Edition" {
		t.Errorf("Edition = %q", got.Edition)
	}
}

func TestStore_GetFile_NotFound(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	_, err := store.GetFile(404)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStore_DeleteFile_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	game := createTestGame(t, store, "Grand Theft Auto V", 2013)

	f := &GameFile{GameID: game.ID, RelativePath: "gta5.iso"}
	if err := store.AddFile(f); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	if err := store.DeleteFile(f.ID); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if err := store.DeleteFile(f.ID); err != nil {
		t.Fatalf("DeleteFile second call: %v", err)
	}
	if _, err := store.GetFile(f.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after delete", err)
	}
}

func TestStore_FilterExistingFiles(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	game := createTestGame(t, store, "Grand Theft Auto V", 2013)
	game.Path = "/games/Grand Theft Auto V (2013)"
	if err := store.UpdateGame(game); err != nil {
		t.Fatalf("UpdateGame: %v", err)
	}

	known := &GameFile{GameID: game.ID, RelativePath: "gta5.iso"}
	if err := store.AddFile(known); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	paths := []string{
		"/games/Grand Theft Auto V (2013)/gta5.iso",
		"/games/Grand Theft Auto V (2013)/update.bin",
		"/downloads/Grand.Theft.Auto.V-RAZOR/gta5.iso",
	}
	fresh, err := store.FilterExistingFiles(paths, game)
	if err != nil {
		t.Fatalf("FilterExistingFiles: %v", err)
	}

	if len(fresh) != 2 {
		t.Fatalf("fresh = %v, want 2 entries", fresh)
	}
	if fresh[0] != paths[1] || fresh[1] != paths[2] {
		t.Errorf("fresh = %v", fresh)
	}
}

func TestTx_AddFile_Rollback(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	game := createTestGame(t, store, "Grand Theft Auto V", 2013)

	tx, err := store.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	f := &GameFile{GameID: game.ID, RelativePath: "gta5.iso"}
	if err := tx.AddFile(f); err != nil {
		t.Fatalf("Tx.AddFile: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	files, err := store.GetFilesByGame(game.ID)
	if err != nil {
		t.Fatalf("GetFilesByGame: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("files = %v, want none after rollback", files)
	}
}
