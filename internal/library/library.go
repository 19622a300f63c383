// Package library manages the game catalog and its organized media files.
package library

import (
	"path/filepath"
	"time"

	"github.com/vmunix/gamarr/pkg/release"
)

// Game is a catalog entry for one library title.
type Game struct {
	ID               int64
	IgdbID           int64  // external catalog id
	SteamID          *int64 // optional legacy id
	Title            string
	OriginalTitle    string
	Year             int
	CollectionTitle  string
	OriginalLanguage release.Language
	Path             string // root folder for this game's files
	Tags             []string
	Translations     []Translation
	AddedAt          time.Time
	UpdatedAt        time.Time
}

// Translation is a per-language title override.
type Translation struct {
	Language string `json:"language"` // two-letter ISO code
	Title    string `json:"title"`
}

// TranslatedTitle returns the title for an ISO code, falling back to Title.
func (g *Game) TranslatedTitle(isoCode string) string {
	for _, tr := range g.Translations {
		if tr.Language == isoCode {
			return tr.Title
		}
	}
	return g.Title
}

// GameFile is one organized, on-disk file belonging to a Game.
type GameFile struct {
	ID           int64
	GameID       int64
	RelativePath string
	Size         int64
	Quality      release.QualityModel
	Languages    []release.Language
	ReleaseGroup string
	Edition      string
	SceneName    string // original release name, retained for display
	IndexerFlags int
	MediaInfo    *MediaInfo
	DateAdded    time.Time
}

// AbsolutePath joins the owning game's path with the file's relative path.
func (f *GameFile) AbsolutePath(game *Game) string {
	return filepath.Join(game.Path, f.RelativePath)
}

// SceneOrFileName returns the scene name when known, else the file stem.
func (f *GameFile) SceneOrFileName() string {
	if f.SceneName != "" {
		return f.SceneName
	}
	base := filepath.Base(f.RelativePath)
	return base[:len(base)-len(filepath.Ext(base))]
}

// MediaInfo holds technical metadata probed from the file.
type MediaInfo struct {
	VideoCodec            string   `json:"video_codec,omitempty"`
	VideoBitDepth         int      `json:"video_bit_depth,omitempty"`
	VideoMultiViewCount   int      `json:"video_multi_view_count,omitempty"`
	VideoDynamicRange     string   `json:"video_dynamic_range,omitempty"`
	VideoDynamicRangeType string   `json:"video_dynamic_range_type,omitempty"`
	AudioCodec            string   `json:"audio_codec,omitempty"`
	AudioChannels         float64  `json:"audio_channels,omitempty"`
	AudioLanguages        []string `json:"audio_languages,omitempty"` // ISO-639-2 codes
	SubtitleLanguages     []string `json:"subtitle_languages,omitempty"`
}

// CustomFormat is a user-defined, scorable tag computed from parsed attributes.
type CustomFormat struct {
	ID                  int64
	Name                string
	IncludeWhenRenaming bool
}

func (c CustomFormat) String() string { return c.Name }

// ColonStyle selects how colons are rewritten during renaming.
type ColonStyle int

const (
	ColonDelete ColonStyle = iota
	ColonDash
	ColonSpaceDash
	ColonSpaceDashSpace
	ColonSmart
)

// NamingConfig is the singleton rename configuration.
type NamingConfig struct {
	RenameGames              bool
	ReplaceIllegalCharacters bool
	ColonReplacement         ColonStyle
	GameFolderFormat         string
	StandardGameFormat       string
}

// DefaultNamingConfig mirrors a fresh install.
func DefaultNamingConfig() NamingConfig {
	return NamingConfig{
		RenameGames:              true,
		ReplaceIllegalCharacters: true,
		ColonReplacement:         ColonSmart,
		GameFolderFormat:         "{Game Title} ({Release Year})",
		StandardGameFormat:       "{Game Title} ({Release Year}) {Quality Full}",
	}
}
