// internal/importer/files.go
package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmunix/gamarr/pkg/release"
)

// sampleSizeFloor is the size below which a video file is assumed to be a
// sample rather than the release itself.
const sampleSizeFloor int64 = 70 * 1000 * 1000

// FindVideoFiles finds all video files under root, recursively. A root
// holding no videos at all returns ErrNoVideoFiles; callers that treat an
// empty folder as an empty result check for it with errors.Is.
func FindVideoFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		if release.IsVideoFile(root) {
			return []string{root}, nil
		}
		return nil, fmt.Errorf("%s: %w", root, ErrNoVideoFiles)
	}

	var videos []string
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !release.IsVideoFile(path) {
			return nil
		}
		videos = append(videos, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	if len(videos) == 0 {
		return nil, fmt.Errorf("%s: %w", root, ErrNoVideoFiles)
	}
	return videos, nil
}

// isSample reports whether a file looks like a sample: named as one, or a
// video so small no full release plausibly fits in it. Size zero means the
// size is unknown and gets the benefit of the doubt.
func isSample(path string, size int64) bool {
	name := strings.ToLower(filepath.Base(path))
	if strings.Contains(name, "sample") {
		return true
	}
	return size > 0 && size < sampleSizeFloor
}

// isPartial reports whether a file is still being written or unpacked.
func isPartial(path string) bool {
	lower := strings.ToLower(path)
	switch filepath.Ext(lower) {
	case ".partial", ".part", ".!ut", ".bts":
		return true
	}
	for _, dir := range strings.Split(filepath.Dir(lower), string(filepath.Separator)) {
		if strings.HasPrefix(dir, "_unpack") || strings.HasPrefix(dir, "_failed") {
			return true
		}
	}
	return false
}
