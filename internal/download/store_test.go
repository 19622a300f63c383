package download

import (
	"errors"
	"testing"
)

func TestStore_Track(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	td := &TrackedDownload{
		DownloadID: "abc123",
		Client:     "qbittorrent",
		Title:      "Some.Game.2023-GROUP",
		Category:   "games",
	}
	if err := store.Track(td); err != nil {
		t.Fatalf("Track: %v", err)
	}
	if td.ID == 0 {
		t.Error("ID should be set after Track")
	}
	if td.State != StateDownloading {
		t.Errorf("State = %s, want downloading", td.State)
	}
}

func TestStore_Track_SurvivesRestart(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	td := &TrackedDownload{DownloadID: "abc123", Client: "qbittorrent", Title: "Some.Game"}
	if err := store.Track(td); err != nil {
		t.Fatalf("Track: %v", err)
	}

	td.State = StateImported
	td.NotifiedManual = true
	if err := store.Update(td); err != nil {
		t.Fatalf("Update: %v", err)
	}

	// A second Track for the same download id must load the stored record
	// rather than resetting lifecycle state.
	again := &TrackedDownload{DownloadID: "abc123", Client: "qbittorrent", Title: "Some.Game"}
	if err := store.Track(again); err != nil {
		t.Fatalf("Track again: %v", err)
	}
	if again.State != StateImported {
		t.Errorf("State = %s, want imported", again.State)
	}
	if !again.NotifiedManual {
		t.Error("NotifiedManual should survive")
	}
	if again.ID != td.ID {
		t.Errorf("ID = %d, want %d", again.ID, td.ID)
	}
}

func TestStore_Get_NotFound(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	if _, err := store.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStore_Update_NotFound(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	td := &TrackedDownload{DownloadID: "missing", State: StateDownloading}
	if err := store.Update(td); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStore_List(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Track(&TrackedDownload{DownloadID: id, Client: "manual", Title: id}); err != nil {
			t.Fatalf("Track %s: %v", id, err)
		}
	}

	all, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List returned %d records, want 3", len(all))
	}
	if all[0].DownloadID != "a" || all[2].DownloadID != "c" {
		t.Errorf("unexpected order: %s, %s, %s", all[0].DownloadID, all[1].DownloadID, all[2].DownloadID)
	}
}

func TestStore_Remove(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	td := &TrackedDownload{DownloadID: "abc123", Client: "manual", Title: "t"}
	if err := store.Track(td); err != nil {
		t.Fatalf("Track: %v", err)
	}

	if err := store.Remove("abc123"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := store.Remove("abc123"); err != nil {
		t.Fatalf("Remove second call: %v", err)
	}
	if _, err := store.Get("abc123"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after remove", err)
	}
}
