package download

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// WatchFolderClient is a Downloader backed by a local directory. Every entry
// in the watch folder is reported as one item; an entry counts as completed
// once it no longer contains in-progress marker files. It covers setups where
// the real client drops finished payloads into a shared folder and gamarr has
// no API access to it.
type WatchFolderClient struct {
	root     string
	category string
}

// NewWatchFolderClient creates a client over the given directory.
func NewWatchFolderClient(root, category string) *WatchFolderClient {
	return &WatchFolderClient{root: root, category: category}
}

// GetItems lists the watch folder. The entry name doubles as the item ID,
// which keeps IDs stable across polls without any client-side bookkeeping.
func (c *WatchFolderClient) GetItems(ctx context.Context) ([]*DownloadItem, error) {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return nil, fmt.Errorf("read watch folder: %w", err)
	}

	items := make([]*DownloadItem, 0, len(entries))
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(c.root, entry.Name())
		items = append(items, &DownloadItem{
			ID:           entry.Name(),
			Title:        entry.Name(),
			Category:     c.category,
			OutputPath:   path,
			Completed:    folderComplete(path),
			CanMoveFiles: true,
			CanBeRemoved: true,
		})
	}
	return items, nil
}

// RemoveItem deletes the entry's data. Without deleteData there is nothing to
// do: the folder itself is the queue.
func (c *WatchFolderClient) RemoveItem(ctx context.Context, id string, deleteData bool) error {
	if !deleteData {
		return nil
	}
	if id == "" || id == "." || id == ".." || filepath.Base(id) != id {
		return fmt.Errorf("refusing to remove item with unsafe id %q", id)
	}
	return os.RemoveAll(filepath.Join(c.root, id))
}

// inProgressExts marks files a client is still writing.
var inProgressExts = map[string]bool{
	".part":    true,
	".partial": true,
	".!ut":     true,
	".bts":     true,
}

func folderComplete(path string) bool {
	complete := true
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && inProgressExts[strings.ToLower(filepath.Ext(p))] {
			complete = false
			return filepath.SkipAll
		}
		return nil
	})
	return complete
}
