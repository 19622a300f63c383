package importer

import (
	"fmt"

	"github.com/vmunix/gamarr/internal/library"
	"github.com/vmunix/gamarr/pkg/release"
)

// RejectionReason is a stable code for why a file cannot be imported as-is.
type RejectionReason string

const (
	RejectionUnknownGame   RejectionReason = "unknownGame"
	RejectionAmbiguousGame RejectionReason = "ambiguousGame"
	RejectionNotAnUpgrade  RejectionReason = "notAnUpgrade"
	RejectionSample        RejectionReason = "sample"
	RejectionPartial       RejectionReason = "partialFile"
	RejectionError         RejectionReason = "error"
)

// Rejection explains one reason a decision is not importable.
type Rejection struct {
	Reason  RejectionReason
	Message string
}

func (r Rejection) String() string { return r.Message }

// LocalGame is the parsed, file-level view of one import candidate.
type LocalGame struct {
	Path         string
	Size         int64
	Game         *library.Game
	Quality      release.QualityModel
	Languages    []release.Language
	ReleaseGroup string
	Edition      string
	SceneName    string
	DownloadID   string
	IndexerFlags int

	// SceneSource marks content believed to already be an organized
	// release rather than a loose file.
	SceneSource bool

	FolderInfo *release.ParsedInfo
	FileInfo   *release.ParsedInfo

	CustomFormats []library.CustomFormat
	FormatScore   int
}

// Decision pairs a candidate with zero or more rejections. An empty
// rejection list means the file is importable.
type Decision struct {
	Item       *LocalGame
	Rejections []Rejection
}

// Approved reports whether the decision carries no rejections.
func (d *Decision) Approved() bool { return len(d.Rejections) == 0 }

// Reject appends a rejection.
func (d *Decision) Reject(reason RejectionReason, format string, args ...any) {
	d.Rejections = append(d.Rejections, Rejection{
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	})
}

// FormatCalculator scores user-defined custom formats for a candidate. The
// calculator itself lives outside this package; a nil calculator yields no
// formats and a zero score.
type FormatCalculator interface {
	ParseCustomFormat(item *LocalGame) []library.CustomFormat
	Score(game *library.Game, formats []library.CustomFormat) int
}
