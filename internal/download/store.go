package download

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const trackedColumns = `id, download_id, client, title, category, state, game_id,
	output_path, notified_manual, added_at, last_transition_at`

// Store persists tracked downloads so their lifecycle survives restarts.
type Store struct {
	db *sql.DB
}

// NewStore creates a tracked download store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Track records a download when it is first observed. Idempotent: if the
// download id is already tracked the existing record is loaded into t, so a
// restart never resets lifecycle state.
func (s *Store) Track(t *TrackedDownload) error {
	existing, err := s.Get(t.DownloadID)
	if err == nil {
		*t = *existing
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	if t.State == "" {
		t.State = StateDownloading
	}
	now := time.Now()
	result, err := s.db.Exec(`
		INSERT INTO tracked_downloads (download_id, client, title, category, state,
			game_id, output_path, notified_manual, added_at, last_transition_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.DownloadID, t.Client, t.Title, t.Category, string(t.State),
		t.GameID, t.OutputPath, boolToInt(t.NotifiedManual), now, now,
	)
	if err != nil {
		return fmt.Errorf("insert tracked download: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	t.ID = id
	t.AddedAt = now
	t.LastTransitionAt = now
	return nil
}

// Get retrieves a tracked download by its client download id.
func (s *Store) Get(downloadID string) (*TrackedDownload, error) {
	row := s.db.QueryRow(`SELECT `+trackedColumns+` FROM tracked_downloads WHERE download_id = ?`, downloadID)
	t, err := scanTracked(row)
	if err != nil {
		return nil, fmt.Errorf("get tracked download %q: %w", downloadID, err)
	}
	return t, nil
}

// List returns all tracked downloads, oldest first.
func (s *Store) List() ([]*TrackedDownload, error) {
	rows, err := s.db.Query(`SELECT ` + trackedColumns + ` FROM tracked_downloads ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tracked downloads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*TrackedDownload
	for rows.Next() {
		t, err := scanTracked(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tracked download: %w", err)
		}
		results = append(results, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracked downloads: %w", err)
	}
	return results, nil
}

// Update writes the mutable lifecycle fields back.
func (s *Store) Update(t *TrackedDownload) error {
	now := time.Now()
	result, err := s.db.Exec(`
		UPDATE tracked_downloads SET state = ?, game_id = ?, output_path = ?,
			notified_manual = ?, last_transition_at = ?
		WHERE download_id = ?`,
		string(t.State), t.GameID, t.OutputPath, boolToInt(t.NotifiedManual), now, t.DownloadID,
	)
	if err != nil {
		return fmt.Errorf("update tracked download %q: %w", t.DownloadID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update tracked download %q: %w", t.DownloadID, ErrNotFound)
	}
	t.LastTransitionAt = now
	return nil
}

// Remove forgets a tracked download. Idempotent.
func (s *Store) Remove(downloadID string) error {
	if _, err := s.db.Exec(`DELETE FROM tracked_downloads WHERE download_id = ?`, downloadID); err != nil {
		return fmt.Errorf("remove tracked download %q: %w", downloadID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTracked(row rowScanner) (*TrackedDownload, error) {
	t := &TrackedDownload{}
	var state string
	var notified int

	err := row.Scan(&t.ID, &t.DownloadID, &t.Client, &t.Title, &t.Category, &state,
		&t.GameID, &t.OutputPath, &notified, &t.AddedAt, &t.LastTransitionAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	t.State = State(state)
	t.NotifiedManual = notified != 0
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
