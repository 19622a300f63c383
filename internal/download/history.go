package download

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// HistoryEvent classifies a history record.
type HistoryEvent string

const (
	HistoryGrabbed        HistoryEvent = "grabbed"
	HistoryImported       HistoryEvent = "imported"
	HistoryDownloadFailed HistoryEvent = "downloadFailed"
)

// Keys used in HistoryRecord.Data.
const (
	DataGameMatchType = "gameMatchType"
	DataReleaseSource = "releaseSource"
	DataIndexerFlags  = "indexerFlags"
)

// Values for DataGameMatchType and DataReleaseSource.
const (
	MatchTypeTitle          = "title"
	MatchTypeID             = "id"
	SourceRSS               = "rss"
	SourceInteractiveSearch = "interactiveSearch"
	SourceUserInvokedSearch = "userInvokedSearch"
)

// HistoryRecord is one grab/import/failure event for a download.
type HistoryRecord struct {
	ID          int64
	DownloadID  string
	GameID      int64
	Event       HistoryEvent
	SourceTitle string
	Data        map[string]string
	Date        time.Time
}

// IsUnconfirmedIDMatch reports whether this record describes a game matched
// by external id (not title) from a non-interactive source. Such matches
// were never confirmed by a human and need one before import.
func (r *HistoryRecord) IsUnconfirmedIDMatch() bool {
	if r.Data[DataGameMatchType] != MatchTypeID {
		return false
	}
	source := r.Data[DataReleaseSource]
	return source != SourceInteractiveSearch && source != SourceUserInvokedSearch
}

// HistoryStore persists download history records.
type HistoryStore struct {
	db *sql.DB
}

// NewHistoryStore creates a history store.
func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Add appends a history record. Sets ID and Date on the struct.
func (s *HistoryStore) Add(r *HistoryRecord) error {
	data, err := json.Marshal(r.Data)
	if err != nil {
		return fmt.Errorf("marshal history data: %w", err)
	}

	now := time.Now()
	result, err := s.db.Exec(`
		INSERT INTO download_history (download_id, game_id, event, source_title, data, date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.DownloadID, r.GameID, string(r.Event), r.SourceTitle, string(data), now,
	)
	if err != nil {
		return fmt.Errorf("insert history record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	r.ID = id
	r.Date = now
	return nil
}

// FindByDownloadID returns all history for a download, most recent first.
// Records sharing a date order by highest id first, so ties resolve to the
// latest insertion.
func (s *HistoryStore) FindByDownloadID(downloadID string) ([]*HistoryRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, download_id, game_id, event, source_title, data, date
		FROM download_history
		WHERE download_id = ?
		ORDER BY date DESC, id DESC`, downloadID)
	if err != nil {
		return nil, fmt.Errorf("find history for %q: %w", downloadID, err)
	}
	defer func() { _ = rows.Close() }()

	var results []*HistoryRecord
	for rows.Next() {
		r := &HistoryRecord{}
		var event, data string
		if err := rows.Scan(&r.ID, &r.DownloadID, &r.GameID, &event, &r.SourceTitle, &data, &r.Date); err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		r.Event = HistoryEvent(event)
		if err := json.Unmarshal([]byte(data), &r.Data); err != nil {
			return nil, fmt.Errorf("unmarshal history data: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history records: %w", err)
	}
	return results, nil
}

// MostRecentGrab returns the latest grabbed record for a download, or nil
// when the download has no grab history.
func (s *HistoryStore) MostRecentGrab(downloadID string) (*HistoryRecord, error) {
	records, err := s.FindByDownloadID(downloadID)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.Event == HistoryGrabbed {
			return r, nil
		}
	}
	return nil, nil
}
