package organizer

import (
	"github.com/vmunix/gamarr/internal/library"
	"github.com/vmunix/gamarr/pkg/release"
)

// SampleGame constructs the fixture used for naming previews. A fresh value
// is built per call so previews never share mutable state.
func SampleGame() *library.Game {
	return &library.Game{
		ID:               1,
		IgdbID:           119388,
		Title:            "The Game Title: Subtitle",
		OriginalTitle:    "The Original Game Title",
		Year:             2023,
		CollectionTitle:  "The Game Collection",
		OriginalLanguage: release.LanguageEnglish,
		Path:             "/games/The Game Title (2023)",
	}
}

// SampleFile pairs with SampleGame for file-name previews.
func SampleFile() *library.GameFile {
	return &library.GameFile{
		ID:           1,
		GameID:       1,
		RelativePath: "The.Game.Title.2023.REPACK-EVOLVE.iso",
		Size:         54687500000,
		Quality: release.QualityModel{
			Quality:  release.QualityBluray1080p,
			Revision: release.Revision{Version: 2},
		},
		Languages:    []release.Language{release.LanguageEnglish},
		ReleaseGroup: "EVOLVE",
		Edition:      "Deluxe Edition",
		SceneName:    "The.Game.Title.2023.REPACK-EVOLVE",
		MediaInfo: &library.MediaInfo{
			VideoCodec:        "x264",
			AudioCodec:        "DTS",
			AudioChannels:     5.1,
			VideoBitDepth:     8,
			AudioLanguages:    []string{"eng", "ger"},
			SubtitleLanguages: []string{"eng"},
		},
	}
}
