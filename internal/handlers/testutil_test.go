// internal/handlers/testutil_test.go
package handlers

import (
	"database/sql"
	_ "embed"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/vmunix/gamarr/internal/library"
	"github.com/vmunix/gamarr/pkg/release"
)

//go:embed testdata/schema.sql
var testSchema string

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func addTestGame(t *testing.T, store *library.Store, title string, year int) *library.Game {
	t.Helper()
	g := &library.Game{
		Title:            title,
		Year:             year,
		OriginalLanguage: release.LanguageEnglish,
		Path:             filepath.Join(t.TempDir(), title),
	}
	if err := store.AddGame(g); err != nil {
		t.Fatalf("add game: %v", err)
	}
	if err := os.MkdirAll(g.Path, 0o755); err != nil {
		t.Fatalf("create game folder: %v", err)
	}
	return g
}

func writeTestFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}
