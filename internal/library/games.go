package library

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vmunix/gamarr/pkg/release"
)

const gameColumns = `id, igdb_id, steam_id, title, original_title, year,
	collection_title, original_language, path, tags, translations, added_at, updated_at`

// AddGame inserts a catalog entry. Sets ID and timestamps on the struct.
func (s *Store) AddGame(g *Game) error {
	now := time.Now()
	tags, translations, err := marshalGameBlobs(g)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(`
		INSERT INTO games (igdb_id, steam_id, title, original_title, clean_title, year,
			collection_title, original_language, path, tags, translations, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.IgdbID, g.SteamID, g.Title, g.OriginalTitle, release.NormalizeTitle(g.Title), g.Year,
		g.CollectionTitle, string(g.OriginalLanguage), g.Path, tags, translations, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", mapSQLiteError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	g.ID = id
	g.AddedAt = now
	g.UpdatedAt = now
	return nil
}

// GetGame retrieves a game by ID.
// Returns ErrNotFound if the game does not exist.
func (s *Store) GetGame(id int64) (*Game, error) {
	row := s.db.QueryRow(`SELECT `+gameColumns+` FROM games WHERE id = ?`, id)
	g, err := scanGame(row)
	if err != nil {
		return nil, fmt.Errorf("get game %d: %w", id, err)
	}
	return g, nil
}

// ListGames returns every catalog entry ordered by id.
func (s *Store) ListGames() ([]*Game, error) {
	rows, err := s.db.Query(`SELECT ` + gameColumns + ` FROM games ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		results = append(results, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return results, nil
}

// UpdateGame updates the mutable fields of a catalog entry.
func (s *Store) UpdateGame(g *Game) error {
	tags, translations, err := marshalGameBlobs(g)
	if err != nil {
		return err
	}

	now := time.Now()
	result, err := s.db.Exec(`
		UPDATE games SET igdb_id = ?, steam_id = ?, title = ?, original_title = ?,
			clean_title = ?, year = ?, collection_title = ?, original_language = ?,
			path = ?, tags = ?, translations = ?, updated_at = ?
		WHERE id = ?`,
		g.IgdbID, g.SteamID, g.Title, g.OriginalTitle, release.NormalizeTitle(g.Title), g.Year,
		g.CollectionTitle, string(g.OriginalLanguage), g.Path, tags, translations, now, g.ID,
	)
	if err != nil {
		return fmt.Errorf("update game %d: %w", g.ID, mapSQLiteError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update game %d: %w", g.ID, ErrNotFound)
	}
	g.UpdatedAt = now
	return nil
}

// FindByTitle resolves a parsed title to a single catalog entry.
//
// Exact matches on the normalized title are tried first, disambiguated by
// year when one is known. When no exact match exists a fuzzy pass over the
// catalog accepts a single medium-or-better candidate. More than one
// surviving candidate yields a *MultipleGamesError; no candidate yields
// ErrNotFound wrapped with the title.
func (s *Store) FindByTitle(title string, year int) (*Game, error) {
	cleanTitle := release.NormalizeTitle(title)

	rows, err := s.db.Query(`SELECT `+gameColumns+` FROM games WHERE clean_title = ?`, cleanTitle)
	if err != nil {
		return nil, fmt.Errorf("find by title: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []*Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		matches = append(matches, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}

	if len(matches) == 0 {
		return s.findByTitleFuzzy(title, year)
	}

	if year > 0 {
		var yearMatches []*Game
		for _, g := range matches {
			if g.Year == year || g.Year == 0 {
				yearMatches = append(yearMatches, g)
			}
		}
		if len(yearMatches) > 0 {
			matches = yearMatches
		}
	}

	if len(matches) > 1 {
		return nil, &MultipleGamesError{Title: title, Candidates: matches}
	}
	return matches[0], nil
}

// findByTitleFuzzy scans the whole catalog with the release matcher. The
// catalog is small enough that a linear pass beats maintaining an index.
func (s *Store) findByTitleFuzzy(title string, year int) (*Game, error) {
	games, err := s.ListGames()
	if err != nil {
		return nil, err
	}

	candidates := make([]string, 0, len(games))
	byTitle := make(map[string][]*Game, len(games))
	for _, g := range games {
		candidates = append(candidates, g.Title)
		byTitle[g.Title] = append(byTitle[g.Title], g)
	}

	match := release.MatchTitle(title, candidates)
	if match.Confidence < release.ConfidenceMedium {
		return nil, fmt.Errorf("find game %q: %w", title, ErrNotFound)
	}

	hits := byTitle[match.Title]
	if year > 0 && len(hits) > 1 {
		var yearHits []*Game
		for _, g := range hits {
			if g.Year == year {
				yearHits = append(yearHits, g)
			}
		}
		if len(yearHits) > 0 {
			hits = yearHits
		}
	}

	if len(hits) > 1 {
		return nil, &MultipleGamesError{Title: title, Candidates: hits}
	}
	return hits[0], nil
}

func marshalGameBlobs(g *Game) (tags string, translations string, err error) {
	tagsJSON, err := json.Marshal(g.Tags)
	if err != nil {
		return "", "", fmt.Errorf("marshal tags: %w", err)
	}
	translationsJSON, err := json.Marshal(g.Translations)
	if err != nil {
		return "", "", fmt.Errorf("marshal translations: %w", err)
	}
	return string(tagsJSON), string(translationsJSON), nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*Game, error) {
	g := &Game{}
	var originalLanguage, tags, translations string

	err := row.Scan(&g.ID, &g.IgdbID, &g.SteamID, &g.Title, &g.OriginalTitle, &g.Year,
		&g.CollectionTitle, &originalLanguage, &g.Path, &tags, &translations, &g.AddedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	g.OriginalLanguage = release.Language(originalLanguage)
	if err := json.Unmarshal([]byte(tags), &g.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	if err := json.Unmarshal([]byte(translations), &g.Translations); err != nil {
		return nil, fmt.Errorf("unmarshal translations: %w", err)
	}
	return g, nil
}
