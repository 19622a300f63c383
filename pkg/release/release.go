// Package release provides types for parsing and representing game release information.
package release

import "fmt"

// Quality represents a recognized quality level for a release.
type Quality int

const (
	QualityUnknown Quality = iota
	QualitySDTV
	QualityDVD
	QualityHDTV720p
	QualityHDTV1080p
	QualityWEBDL720p
	QualityWEBDL1080p
	QualityWEBDL2160p
	QualityBluray720p
	QualityBluray1080p
	QualityBluray2160p
	QualityRemux
)

// unknownStr is the string representation for unknown values.
const unknownStr = "Unknown"

// Title returns the display name used in rename templates.
func (q Quality) Title() string {
	switch q {
	case QualitySDTV:
		return "SDTV"
	case QualityDVD:
		return "DVD"
	case QualityHDTV720p:
		return "HDTV-720p"
	case QualityHDTV1080p:
		return "HDTV-1080p"
	case QualityWEBDL720p:
		return "WEBDL-720p"
	case QualityWEBDL1080p:
		return "WEBDL-1080p"
	case QualityWEBDL2160p:
		return "WEBDL-2160p"
	case QualityBluray720p:
		return "Bluray-720p"
	case QualityBluray1080p:
		return "Bluray-1080p"
	case QualityBluray2160p:
		return "Bluray-2160p"
	case QualityRemux:
		return "Remux"
	default:
		return unknownStr
	}
}

func (q Quality) String() string { return q.Title() }

// Rank orders qualities for upgrade decisions. Higher is better.
func (q Quality) Rank() int { return int(q) }

// Revision tracks proper/real re-releases of the same quality.
type Revision struct {
	Version int
	Real    int
}

// IsProper reports whether this revision is a proper (version bumped past 1).
func (r Revision) IsProper() bool { return r.Version > 1 }

// Compare returns <0, 0 or >0 ordering r against other, reals first.
func (r Revision) Compare(other Revision) int {
	if r.Real != other.Real {
		return r.Real - other.Real
	}
	return r.Version - other.Version
}

// QualityModel is a quality level plus its revision.
type QualityModel struct {
	Quality  Quality
	Revision Revision
}

func (m QualityModel) String() string {
	if m.Revision.IsProper() {
		return fmt.Sprintf("%s Proper", m.Quality.Title())
	}
	return m.Quality.Title()
}

// IsUpgradeOf reports whether m is strictly better than other.
func (m QualityModel) IsUpgradeOf(other QualityModel) bool {
	if m.Quality.Rank() != other.Quality.Rank() {
		return m.Quality.Rank() > other.Quality.Rank()
	}
	return m.Revision.Compare(other.Revision) > 0
}

// Language is a spoken/subtitle language detected in a release name.
type Language string

const (
	LanguageUnknown  Language = "Unknown"
	LanguageEnglish  Language = "English"
	LanguageFrench   Language = "French"
	LanguageGerman   Language = "German"
	LanguageSpanish  Language = "Spanish"
	LanguageItalian  Language = "Italian"
	LanguageJapanese Language = "Japanese"
	LanguageRussian  Language = "Russian"
	LanguagePolish   Language = "Polish"
	LanguageMulti    Language = "Multi"
)

func (l Language) String() string { return string(l) }

// ParsedInfo is the result of parsing a release name or path.
type ParsedInfo struct {
	Title        string
	Year         int
	Quality      QualityModel
	Languages    []Language
	ReleaseGroup string
	Edition      string

	// OriginalTitle is the raw input the info was parsed from.
	OriginalTitle string
}

// PrimaryTitle returns the parsed title, falling back to the raw input.
func (p *ParsedInfo) PrimaryTitle() string {
	if p.Title != "" {
		return p.Title
	}
	return p.OriginalTitle
}
