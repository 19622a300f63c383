// Package download tracks in-flight downloads and their import lifecycle.
package download

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/vmunix/gamarr/internal/library"
	"github.com/vmunix/gamarr/pkg/release"
)

// State is the lifecycle position of a tracked download.
type State string

const (
	StateDownloading   State = "downloading"
	StateImportBlocked State = "import_blocked"
	StateImportPending State = "import_pending"
	StateImporting     State = "importing"
	StateImported      State = "imported"
)

// IsTerminal reports whether the state has no outgoing transitions.
func (s State) IsTerminal() bool { return s == StateImported }

// TrackedDownload is one in-flight or recently finished download.
//
// State, game association and the notified flag are persisted; the resolved
// remote game, the client item and accumulated status messages are rebuilt
// every polling cycle.
type TrackedDownload struct {
	ID               int64
	DownloadID       string // identifier in the download client
	Client           string
	Title            string
	Category         string
	State            State
	GameID           *int64
	OutputPath       string
	NotifiedManual   bool // manual-interaction event already published
	AddedAt          time.Time
	LastTransitionAt time.Time

	RemoteGame     *RemoteGame     `json:"-"`
	Item           *DownloadItem   `json:"-"`
	StatusMessages []StatusMessage `json:"-"`
	Warnings       []string        `json:"-"`
}

// Warn appends a warning message shown alongside the download.
func (t *TrackedDownload) Warn(msg string) {
	t.Warnings = append(t.Warnings, msg)
}

// StatusMessage is a per-file explanation of why an import did not happen.
type StatusMessage struct {
	Path     string
	Messages []string
}

// RemoteGame pairs a parsed release with its resolved catalog entry.
type RemoteGame struct {
	Release *release.ParsedInfo
	Game    *library.Game
}

// DownloadItem is the download client's view of one item.
type DownloadItem struct {
	ID           string
	Title        string
	Category     string
	OutputPath   string
	Completed    bool
	CanMoveFiles bool // files are safe to move (seeding done, not read-only)
	CanBeRemoved bool
}

// Downloader is the subset of a download client this package consumes.
type Downloader interface {
	// GetItems returns all items known to the client.
	GetItems(ctx context.Context) ([]*DownloadItem, error)
	// RemoveItem removes an item, optionally deleting its data.
	RemoveItem(ctx context.Context, id string, deleteData bool) error
}

// PathMapping rewrites a client-reported path prefix to a local one, for
// clients running on another host or OS.
type PathMapping struct {
	Remote string
	Local  string
}

// RemapPath applies the first matching mapping to a client-reported path.
func RemapPath(path string, mappings []PathMapping) string {
	for _, m := range mappings {
		if strings.HasPrefix(path, m.Remote) {
			return filepath.Join(m.Local, strings.TrimPrefix(path, m.Remote))
		}
	}
	return path
}

// ValidateOutputPath checks that a client-reported output path is usable on
// this OS. Relative or empty paths mean the client and this process disagree
// about the filesystem; the error wraps ErrInvalidPath.
func ValidateOutputPath(path string) error {
	if path == "" || !filepath.IsAbs(path) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return nil
}
