// internal/events/download.go
package events

// Entity types
const (
	EntityDownload = "download"
	EntityGame     = "game"
)

// Event type constants
const (
	EventDownloadCompleted         = "download.completed"
	EventDownloadFailed            = "download.failed"
	EventManualInteractionRequired = "download.manual_interaction"
	EventGameFileImported          = "gamefile.imported"
	EventGameImportFailed          = "game.import.failed"
)

// DownloadCompleted is emitted when a tracked download reaches Imported.
type DownloadCompleted struct {
	BaseEvent
	DownloadID string `json:"download_id"` // client identifier
	GameID     int64  `json:"game_id"`
	SourcePath string `json:"source_path"` // where the client put the files
}

// DownloadFailed is emitted when a download fails at the client.
type DownloadFailed struct {
	BaseEvent
	DownloadID string `json:"download_id"`
	Reason     string `json:"reason"`
}

// ManualInteractionRequired is emitted when a download transitions to
// ImportBlocked and needs a human decision. Publishers must emit it at most
// once per download; the tracked download carries the already-notified flag.
type ManualInteractionRequired struct {
	BaseEvent
	DownloadID string `json:"download_id"`
	Title      string `json:"title"` // release title as grabbed
	Reason     string `json:"reason"`
}

// GameFileImported is emitted for every file the importer commits.
type GameFileImported struct {
	BaseEvent
	GameID     int64  `json:"game_id"`
	GameFileID int64  `json:"game_file_id"`
	SourcePath string `json:"source_path"`
	DestPath   string `json:"dest_path"`
	DownloadID string `json:"download_id,omitempty"`
}

// GameImportFailed is emitted when an import attempt produces no usable file.
type GameImportFailed struct {
	BaseEvent
	GameID     int64  `json:"game_id"`
	DownloadID string `json:"download_id,omitempty"`
	Reason     string `json:"reason"`
}
