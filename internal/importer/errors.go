// internal/importer/errors.go
package importer

import "errors"

var (
	// ErrNoVideoFiles indicates the source folder holds nothing importable.
	ErrNoVideoFiles = errors.New("no video files found")

	// ErrDestinationExists indicates the destination file already exists.
	ErrDestinationExists = errors.New("destination file already exists")

	// ErrPathTraversal indicates a destination escaping the game folder.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrTooManyFiles indicates a folder exceeded the unmatched-file budget
	// and parsing was abandoned for that subtree.
	ErrTooManyFiles = errors.New("too many unmatched files")
)
