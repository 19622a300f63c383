package organizer

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/vmunix/gamarr/internal/library"
	"github.com/vmunix/gamarr/pkg/release"
)

func newTestOrganizer() *Organizer {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testConfig(format string) library.NamingConfig {
	cfg := library.DefaultNamingConfig()
	cfg.StandardGameFormat = format
	return cfg
}

func testFile() *library.GameFile {
	return &library.GameFile{
		RelativePath: "Some.Game.2023-GROUP.iso",
		Quality: release.QualityModel{
			Quality:  release.QualityBluray1080p,
			Revision: release.Revision{Version: 1},
		},
		ReleaseGroup: "GROUP",
	}
}

func TestBuildFileName(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		format string
		file   func(*library.GameFile)
		want   string
	}{
		{
			name:   "smart colon replacement",
			title:  "CSI: Vegas",
			format: "{Game Title}",
			want:   "CSI - Vegas",
		},
		{
			name:   "truncation from the end",
			title:  "The Fantastic Life of Mr. Sisko",
			format: "{Game Title:16}",
			want:   "The Fantastic...",
		},
		{
			name:   "truncation from the start",
			title:  "The Fantastic Life of Mr. Sisko",
			format: "{Game Title:-13}",
			want:   "...Mr. Sisko",
		},
		{
			name:   "edition tag casing",
			title:  "Game Title",
			format: "{Game Title} [{Edition Tags}]",
			file:   func(f *library.GameFile) { f.Edition = "imax edition" },
			want:   "Game Title [IMAX Edition]",
		},
		{
			name:   "lower case token",
			title:  "Game Title",
			format: "{game title}",
			want:   "game title",
		},
		{
			name:   "upper case token",
			title:  "Game Title",
			format: "{GAME TITLE}",
			want:   "GAME TITLE",
		},
		{
			name:   "separator rewrite",
			title:  "Game Title",
			format: "{Game.Title}",
			want:   "Game.Title",
		},
		{
			name:   "title the",
			title:  "The Big Adventure",
			format: "{Game TitleThe}",
			want:   "Big Adventure, The",
		},
		{
			name:   "quality full with proper",
			title:  "Game",
			format: "{Game Title} {Quality Full}",
			file: func(f *library.GameFile) {
				f.Quality.Revision = release.Revision{Version: 2}
			},
			want: "Game Bluray-1080p Proper",
		},
		{
			name:   "release group default when bare",
			title:  "Game",
			format: "{Game Title} {Release Group}",
			file:   func(f *library.GameFile) { f.ReleaseGroup = "" },
			want:   "Game Gamarr",
		},
		{
			name:   "decorated release group dropped when empty",
			title:  "Game",
			format: "{Game Title} {[Release Group]}",
			file:   func(f *library.GameFile) { f.ReleaseGroup = "" },
			want:   "Game",
		},
		{
			name:   "unknown token passes through",
			title:  "Game",
			format: "{Game Title} {Bogus Token}",
			want:   "Game {Bogus Token}",
		},
		{
			name:   "reserved device name defused",
			title:  "CON",
			format: "{Game Title}.{Quality Title}",
			want:   "CON_Bluray-1080p",
		},
		{
			name:   "edition tag literal for media servers",
			title:  "Game",
			format: "{Game Title} {edition-{Edition Tags}}",
			file:   func(f *library.GameFile) { f.Edition = "directors cut" },
			want:   "Game {edition-Directors Cut}",
		},
		{
			name:   "edition tag literal dropped when empty",
			title:  "Game",
			format: "{Game Title} {edition-{Edition Tags}}",
			want:   "Game",
		},
		{
			name:   "original title uses scene name",
			title:  "Game",
			format: "{Original Title}",
			file:   func(f *library.GameFile) { f.SceneName = "Some.Game.2023.PROPER-GROUP" },
			want:   "Some.Game.2023.PROPER-GROUP",
		},
	}

	o := newTestOrganizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			game := &library.Game{Title: tt.title, Year: 2023}
			file := testFile()
			if tt.file != nil {
				tt.file(file)
			}

			got, err := o.BuildFileName(game, file, testConfig(tt.format), nil)
			if err != nil {
				t.Fatalf("BuildFileName: %v", err)
			}
			if got != tt.want {
				t.Errorf("BuildFileName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildFileName_RenameDisabled(t *testing.T) {
	o := newTestOrganizer()
	cfg := testConfig("{Game Title}")
	cfg.RenameGames = false

	file := testFile()
	file.SceneName = "Some.Game.2023-GROUP"

	got, err := o.BuildFileName(&library.Game{Title: "Other"}, file, cfg, nil)
	if err != nil {
		t.Fatalf("BuildFileName: %v", err)
	}
	if got != "Some.Game.2023-GROUP" {
		t.Errorf("BuildFileName = %q, want the scene name", got)
	}
}

func TestBuildFileName_EmptyTemplate(t *testing.T) {
	o := newTestOrganizer()
	_, err := o.BuildFileName(&library.Game{Title: "Game"}, testFile(), testConfig("  "), nil)
	if !errors.Is(err, ErrNamingFormat) {
		t.Errorf("err = %v, want ErrNamingFormat", err)
	}
}

func TestBuildFileName_Translation(t *testing.T) {
	o := newTestOrganizer()
	game := &library.Game{
		Title: "The Witcher 3",
		Translations: []library.Translation{
			{Language: "de", Title: "The Witcher 3 Wilde Jagd"},
		},
	}

	got, err := o.BuildFileName(game, testFile(), testConfig("{Game Title:DE}"), nil)
	if err != nil {
		t.Fatalf("BuildFileName: %v", err)
	}
	if got != "The Witcher 3 Wilde Jagd" {
		t.Errorf("BuildFileName = %q, want the German title", got)
	}
}

func TestBuildFileName_CustomFormats(t *testing.T) {
	o := newTestOrganizer()
	formats := []library.CustomFormat{
		{Name: "HQ Audio", IncludeWhenRenaming: true},
		{Name: "Internal", IncludeWhenRenaming: false},
		{Name: "Repack", IncludeWhenRenaming: true},
	}

	got, err := o.BuildFileName(&library.Game{Title: "Game"}, testFile(),
		testConfig("{Game Title} {Custom Formats}"), formats)
	if err != nil {
		t.Fatalf("BuildFileName: %v", err)
	}
	if got != "Game HQ Audio Repack" {
		t.Errorf("BuildFileName = %q", got)
	}

	got, err = o.BuildFileName(&library.Game{Title: "Game"}, testFile(),
		testConfig("{Game Title} {Custom Formats:-Repack}"), formats)
	if err != nil {
		t.Fatalf("BuildFileName: %v", err)
	}
	if got != "Game HQ Audio" {
		t.Errorf("BuildFileName with exclusion = %q", got)
	}
}

func TestBuildFilePath_KeepsExtension(t *testing.T) {
	o := newTestOrganizer()
	got, err := o.BuildFilePath(&library.Game{Title: "Game", Year: 2023}, testFile(),
		testConfig("{Game Title} ({Release Year})"), nil)
	if err != nil {
		t.Fatalf("BuildFilePath: %v", err)
	}
	if got != "Game (2023).iso" {
		t.Errorf("BuildFilePath = %q", got)
	}
}

func TestGetGameFolder(t *testing.T) {
	o := newTestOrganizer()
	cfg := library.DefaultNamingConfig()

	got, err := o.GetGameFolder(&library.Game{Title: "CSI: Vegas", Year: 2021}, cfg)
	if err != nil {
		t.Fatalf("GetGameFolder: %v", err)
	}
	if got != "CSI - Vegas (2021)" {
		t.Errorf("GetGameFolder = %q", got)
	}
}

func TestGetGameFolder_DropsEmptyBrackets(t *testing.T) {
	o := newTestOrganizer()
	cfg := library.DefaultNamingConfig()
	cfg.GameFolderFormat = "{Game Title} [{Quality Title}]"

	got, err := o.GetGameFolder(&library.Game{Title: "Game"}, cfg)
	if err != nil {
		t.Fatalf("GetGameFolder: %v", err)
	}
	if got != "Game" {
		t.Errorf("GetGameFolder = %q, want file tokens cleaned away", got)
	}
}

func TestGetGameFolder_EmptyTemplate(t *testing.T) {
	o := newTestOrganizer()
	cfg := library.DefaultNamingConfig()
	cfg.GameFolderFormat = ""

	if _, err := o.GetGameFolder(&library.Game{Title: "Game"}, cfg); !errors.Is(err, ErrNamingFormat) {
		t.Errorf("err = %v, want ErrNamingFormat", err)
	}
}

func TestBuildFileName_MultiComponentTemplate(t *testing.T) {
	o := newTestOrganizer()
	got, err := o.BuildFileName(&library.Game{Title: "Game", Year: 2023}, testFile(),
		testConfig("{Game TitleFirstCharacter}/{Game Title} ({Release Year})"), nil)
	if err != nil {
		t.Fatalf("BuildFileName: %v", err)
	}
	if got != "G/Game (2023)" {
		t.Errorf("BuildFileName = %q", got)
	}
}

func TestCleanFileName_ColonTotality(t *testing.T) {
	styles := []library.ColonStyle{
		library.ColonDelete, library.ColonDash, library.ColonSpaceDash,
		library.ColonSpaceDashSpace, library.ColonSmart,
	}
	for _, style := range styles {
		for _, replace := range []bool{true, false} {
			cfg := library.NamingConfig{ReplaceIllegalCharacters: replace, ColonReplacement: style}
			got := CleanFileName("a:b: c :d", cfg)
			if strings.Contains(got, ":") {
				t.Errorf("style %d replace %v: output %q still contains a colon", style, replace, got)
			}
		}
	}
}

func TestCleanFileName_IllegalCharacters(t *testing.T) {
	cfg := library.NamingConfig{ReplaceIllegalCharacters: true}
	got := CleanFileName(`a\b/c<d>e?f*g|h"i`, cfg)
	if got != "a+b+cde!f-ghi" {
		t.Errorf("CleanFileName = %q", got)
	}

	cfg.ReplaceIllegalCharacters = false
	got = CleanFileName(`a\b/c<d>e?f*g|h"i`, cfg)
	if got != "abcdefghi" {
		t.Errorf("CleanFileName stripped = %q", got)
	}
}
