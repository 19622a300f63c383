package download

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeWatchFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestWatchFolderClient_GetItems(t *testing.T) {
	root := t.TempDir()
	writeWatchFile(t, filepath.Join(root, "Elden.Ring.2022-EVOLVE", "game.iso"))
	writeWatchFile(t, filepath.Join(root, "Doom.1993-RAZOR", "doom.iso.part"))
	writeWatchFile(t, filepath.Join(root, ".stash", "ignored.iso"))

	client := NewWatchFolderClient(root, "games")
	items, err := client.GetItems(context.Background())
	if err != nil {
		t.Fatalf("GetItems() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 (dotfiles skipped)", len(items))
	}

	byID := make(map[string]*DownloadItem)
	for _, item := range items {
		byID[item.ID] = item
	}

	done := byID["Elden.Ring.2022-EVOLVE"]
	if done == nil || !done.Completed {
		t.Errorf("folder without partial markers should be completed, got %+v", done)
	}
	if done.Category != "games" || done.OutputPath != filepath.Join(root, done.ID) {
		t.Errorf("item = %+v", done)
	}

	partial := byID["Doom.1993-RAZOR"]
	if partial == nil || partial.Completed {
		t.Errorf("folder with .part file must not be completed, got %+v", partial)
	}
}

func TestWatchFolderClient_RemoveItem(t *testing.T) {
	root := t.TempDir()
	writeWatchFile(t, filepath.Join(root, "done", "game.iso"))
	writeWatchFile(t, filepath.Join(root, "keep", "game.iso"))

	client := NewWatchFolderClient(root, "games")

	if err := client.RemoveItem(context.Background(), "keep", false); err != nil {
		t.Fatalf("RemoveItem without deleteData: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "keep")); err != nil {
		t.Errorf("data must survive when deleteData is false: %v", err)
	}

	if err := client.RemoveItem(context.Background(), "done", true); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "done")); !os.IsNotExist(err) {
		t.Errorf("data should be gone, stat err = %v", err)
	}

	if err := client.RemoveItem(context.Background(), "../escape", true); err == nil {
		t.Error("ids that leave the watch folder must be rejected")
	}
}
