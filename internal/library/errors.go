package library

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the library package.
var (
	// ErrNotFound is returned when a game or file record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// MultipleGamesError is returned by FindByTitle when a title lookup matches
// more than one catalog entry. Callers must handle it explicitly rather than
// treating it as "no match".
type MultipleGamesError struct {
	Title      string
	Candidates []*Game
}

func (e *MultipleGamesError) Error() string {
	titles := make([]string, 0, len(e.Candidates))
	for _, g := range e.Candidates {
		titles = append(titles, fmt.Sprintf("%s (%d)", g.Title, g.Year))
	}
	return fmt.Sprintf("multiple games match %q: %s", e.Title, strings.Join(titles, ", "))
}

// mapSQLiteError converts driver constraint errors into package sentinels.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	// modernc.org/sqlite wraps errors; check error message for constraint violations
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed") {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
