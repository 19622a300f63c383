package importer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Mover places an approved file at its destination. The default
// implementation works on the local filesystem; tests substitute their own.
type Mover interface {
	Move(src, dst string) error
}

// FileMover moves files with a rename, falling back to copy-and-delete when
// source and destination are on different filesystems.
type FileMover struct{}

func (FileMover) Move(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("%s: %w", dst, ErrDestinationExists)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create destination folder: %w", err)
	}

	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	return copyAndRemove(src, dst)
}

func copyAndRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = in.Close() }()

	// Write to a temp name first so a crash never leaves a half file at the
	// final path.
	tmp := dst + ".partial~"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("copy file: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close destination: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize destination: %w", err)
	}
	return os.Remove(src)
}

// ensureWithinGameFolder guards against destinations escaping the game's
// library path.
func ensureWithinGameFolder(dst, gamePath string) error {
	cleanDst := filepath.Clean(dst)
	cleanRoot := filepath.Clean(gamePath)
	if !strings.HasSuffix(cleanRoot, string(filepath.Separator)) {
		cleanRoot += string(filepath.Separator)
	}
	if !strings.HasPrefix(cleanDst, cleanRoot) {
		return fmt.Errorf("%s escapes %s: %w", dst, gamePath, ErrPathTraversal)
	}
	return nil
}
