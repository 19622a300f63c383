package library

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/vmunix/gamarr/pkg/release"
)

const fileColumns = `id, game_id, relative_path, size_bytes, quality, revision_version,
	revision_real, languages, release_group, edition, scene_name, indexer_flags, media_info, date_added`

func addFile(q querier, f *GameFile) error {
	now := time.Now()
	languages, mediaInfo, err := marshalFileBlobs(f)
	if err != nil {
		return err
	}

	result, err := q.Exec(`
		INSERT INTO game_files (game_id, relative_path, size_bytes, quality, revision_version,
			revision_real, languages, release_group, edition, scene_name, indexer_flags, media_info, date_added)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.GameID, f.RelativePath, f.Size, int(f.Quality.Quality), f.Quality.Revision.Version,
		f.Quality.Revision.Real, languages, f.ReleaseGroup, f.Edition, f.SceneName,
		f.IndexerFlags, mediaInfo, now,
	)
	if err != nil {
		return fmt.Errorf("insert game file: %w", mapSQLiteError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	f.ID = id
	f.DateAdded = now
	return nil
}

// AddFile inserts a new game file. Sets ID and DateAdded on the struct.
func (s *Store) AddFile(f *GameFile) error { return addFile(s.db, f) }

// AddFile inserts a new game file within a transaction.
func (t *Tx) AddFile(f *GameFile) error { return addFile(t.tx, f) }

func getFile(q querier, id int64) (*GameFile, error) {
	row := q.QueryRow(`SELECT `+fileColumns+` FROM game_files WHERE id = ?`, id)
	f, err := scanFile(row)
	if err != nil {
		return nil, fmt.Errorf("get game file %d: %w", id, err)
	}
	return f, nil
}

// GetFile retrieves a game file by ID.
// Returns ErrNotFound if the file does not exist.
func (s *Store) GetFile(id int64) (*GameFile, error) { return getFile(s.db, id) }

// GetFilesByGame returns all files recorded for a game, ordered by id.
func (s *Store) GetFilesByGame(gameID int64) ([]*GameFile, error) {
	return queryFiles(s.db, `SELECT `+fileColumns+` FROM game_files WHERE game_id = ? ORDER BY id`, gameID)
}

// GetFilesWithRelativePath returns files for a game mapped to a relative path.
func (s *Store) GetFilesWithRelativePath(gameID int64, relativePath string) ([]*GameFile, error) {
	return queryFiles(s.db,
		`SELECT `+fileColumns+` FROM game_files WHERE game_id = ? AND relative_path = ? ORDER BY id`,
		gameID, relativePath)
}

func deleteFile(q querier, id int64) error {
	_, err := q.Exec(`DELETE FROM game_files WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete game file %d: %w", id, err)
	}
	return nil
}

// DeleteFile removes a game file record. Idempotent.
func (s *Store) DeleteFile(id int64) error { return deleteFile(s.db, id) }

// DeleteFile removes a game file record within a transaction.
func (t *Tx) DeleteFile(id int64) error { return deleteFile(t.tx, id) }

// FilterExistingFiles removes candidate paths that already correspond to a
// recorded file of the game. Comparison is by the path relative to the
// game's folder, so only files inside the folder can be filtered out.
func (s *Store) FilterExistingFiles(paths []string, game *Game) ([]string, error) {
	files, err := s.GetFilesByGame(game.ID)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(files))
	for _, f := range files {
		known[filepath.Clean(f.AbsolutePath(game))] = true
	}

	var fresh []string
	for _, p := range paths {
		if !known[filepath.Clean(p)] {
			fresh = append(fresh, p)
		}
	}
	return fresh, nil
}

func queryFiles(q querier, query string, args ...any) ([]*GameFile, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query game files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*GameFile
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game file: %w", err)
		}
		results = append(results, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate game files: %w", err)
	}
	return results, nil
}

func marshalFileBlobs(f *GameFile) (languages string, mediaInfo sql.NullString, err error) {
	languagesJSON, err := json.Marshal(f.Languages)
	if err != nil {
		return "", sql.NullString{}, fmt.Errorf("marshal languages: %w", err)
	}
	if f.MediaInfo != nil {
		mediaInfoJSON, err := json.Marshal(f.MediaInfo)
		if err != nil {
			return "", sql.NullString{}, fmt.Errorf("marshal media info: %w", err)
		}
		mediaInfo = sql.NullString{String: string(mediaInfoJSON), Valid: true}
	}
	return string(languagesJSON), mediaInfo, nil
}

func scanFile(row rowScanner) (*GameFile, error) {
	f := &GameFile{}
	var quality, revisionVersion, revisionReal int
	var languages string
	var mediaInfo sql.NullString

	err := row.Scan(&f.ID, &f.GameID, &f.RelativePath, &f.Size, &quality, &revisionVersion,
		&revisionReal, &languages, &f.ReleaseGroup, &f.Edition, &f.SceneName,
		&f.IndexerFlags, &mediaInfo, &f.DateAdded)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	f.Quality = release.QualityModel{
		Quality:  release.Quality(quality),
		Revision: release.Revision{Version: revisionVersion, Real: revisionReal},
	}
	if err := json.Unmarshal([]byte(languages), &f.Languages); err != nil {
		return nil, fmt.Errorf("unmarshal languages: %w", err)
	}
	if mediaInfo.Valid {
		f.MediaInfo = &MediaInfo{}
		if err := json.Unmarshal([]byte(mediaInfo.String), f.MediaInfo); err != nil {
			return nil, fmt.Errorf("unmarshal media info: %w", err)
		}
	}
	return f, nil
}
