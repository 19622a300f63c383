// Package organizer computes destination folder and file names from the
// user's naming templates. It is pure with respect to shared state: the
// token registry is rebuilt for every call and nothing is cached between
// invocations, so concurrent use needs no locking.
package organizer

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/vmunix/gamarr/internal/library"
)

// ErrNamingFormat indicates a missing or unusable naming template. This is a
// configuration error: renaming is enabled but no valid template exists, and
// silently falling back to a default would hide the misconfiguration.
var ErrNamingFormat = errors.New("invalid naming format")

// releaseGroupFallback fills {Release Group} when the file has none and the
// token carries no decoration that would make an empty value acceptable.
const releaseGroupFallback = "Gamarr"

// tokenPattern matches one {prefix Token Name:filter suffix} template token.
// The prefix and suffix ride inside the braces so they disappear together
// with an empty value.
const tokenPattern = `\{(?P<prefix>[- ._\[(]*)(?P<token>[a-zA-Z0-9]+(?:(?P<separator>[- ._]+)[a-zA-Z0-9]+)?)(?::(?P<filter>[a-zA-Z0-9+,-]+))?(?P<suffix>[- ._)\]]*)\}`

var (
	tokenRegex = regexp.MustCompile(tokenPattern)

	// taggedTokenRegex matches the {edition-{...}} form whose tag text is
	// kept literally in the output for media-server folder matching.
	taggedTokenRegex = regexp.MustCompile(`\{(?P<tag>edition-)` + tokenPattern + `\}`)
)

// tokenMatch carries the pieces of one matched template token.
type tokenMatch struct {
	raw       string
	prefix    string
	token     string
	separator string
	filter    string
	suffix    string
}

// tokenHandler computes the replacement value for one token. An empty return
// removes the token including its prefix and suffix.
type tokenHandler func(m tokenMatch) string

// Organizer is the naming engine.
type Organizer struct {
	log *slog.Logger
}

// New creates an Organizer.
func New(logger *slog.Logger) *Organizer {
	return &Organizer{log: logger.With("component", "organizer")}
}

// BuildFileName renders the standard file-name template for a game file.
// The returned name carries no extension; see BuildFilePath.
func (o *Organizer) BuildFileName(game *library.Game, file *library.GameFile, cfg library.NamingConfig, formats []library.CustomFormat) (string, error) {
	if !cfg.RenameGames {
		return CleanFileName(file.SceneOrFileName(), cfg), nil
	}
	if strings.TrimSpace(cfg.StandardGameFormat) == "" {
		return "", fmt.Errorf("standard game format is empty: %w", ErrNamingFormat)
	}

	multipleTokens := len(tokenRegex.FindAllString(cfg.StandardGameFormat, -1)) > 1
	registry := buildTokenRegistry(game, file, cfg, formats, multipleTokens)

	name, err := o.render(cfg.StandardGameFormat, registry, false)
	if err != nil {
		return "", err
	}
	o.log.Debug("built file name", "game", game.Title, "name", name)
	return name, nil
}

// BuildFilePath renders the file name and reattaches the source file's
// extension, yielding the path relative to the game folder.
func (o *Organizer) BuildFilePath(game *library.Game, file *library.GameFile, cfg library.NamingConfig, formats []library.CustomFormat) (string, error) {
	name, err := o.BuildFileName(game, file, cfg, formats)
	if err != nil {
		return "", err
	}
	return name + filepath.Ext(file.RelativePath), nil
}

// GetGameFolder renders the game folder template. File-scoped tokens are not
// available here; bracket pairs they leave empty are cleaned away.
func (o *Organizer) GetGameFolder(game *library.Game, cfg library.NamingConfig) (string, error) {
	if strings.TrimSpace(cfg.GameFolderFormat) == "" {
		return "", fmt.Errorf("game folder format is empty: %w", ErrNamingFormat)
	}

	registry := buildTokenRegistry(game, nil, cfg, nil, false)
	return o.render(cfg.GameFolderFormat, registry, true)
}

// render substitutes tokens into each path component of a template, tidies
// the components and joins the survivors.
func (o *Organizer) render(template string, registry map[string]tokenHandler, folder bool) (string, error) {
	var components []string
	for _, part := range strings.Split(template, "/") {
		part = replaceTokens(part, registry)
		part = tidyComponent(part)
		if folder {
			part = CleanFolderName(part)
		}
		if part == "" {
			continue
		}
		components = append(components, part)
	}
	if len(components) == 0 {
		return "", fmt.Errorf("template %q produced an empty name: %w", template, ErrNamingFormat)
	}
	return filepath.Join(components...), nil
}

func replaceTokens(component string, registry map[string]tokenHandler) string {
	component = taggedTokenRegex.ReplaceAllStringFunc(component, func(match string) string {
		m := newTokenMatch(taggedTokenRegex, match)
		value := resolveToken(m, registry)
		if value == "" {
			return ""
		}
		tag := taggedTokenRegex.FindStringSubmatch(match)[taggedTokenRegex.SubexpIndex("tag")]
		return "{" + tag + value + "}"
	})
	return tokenRegex.ReplaceAllStringFunc(component, func(match string) string {
		return resolveToken(newTokenMatch(tokenRegex, match), registry)
	})
}

func newTokenMatch(re *regexp.Regexp, match string) tokenMatch {
	sub := re.FindStringSubmatch(match)
	return tokenMatch{
		raw:       match,
		prefix:    sub[re.SubexpIndex("prefix")],
		token:     sub[re.SubexpIndex("token")],
		separator: sub[re.SubexpIndex("separator")],
		filter:    sub[re.SubexpIndex("filter")],
		suffix:    sub[re.SubexpIndex("suffix")],
	}
}

func resolveToken(m tokenMatch, registry map[string]tokenHandler) string {
	handler, ok := registry[normalizeTokenKey(m.token)]
	if !ok {
		// Unknown tokens pass through so typos are visible in previews.
		return m.raw
	}

	value := handler(m)
	if value == "" {
		return ""
	}

	value = applyTokenCase(value, m.token)
	if n, err := strconv.Atoi(m.filter); err == nil {
		value = truncate(value, n)
	}
	if m.separator != "" && m.separator != " " {
		value = strings.ReplaceAll(value, " ", m.separator)
	}
	return m.prefix + value + m.suffix
}

// normalizeTokenKey makes registry lookups case and punctuation insensitive:
// "Game Title", "Game.Title" and "GAME-TITLE" all resolve the same handler.
func normalizeTokenKey(token string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(token) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// applyTokenCase folds the value per the token's own casing: an all-lower
// token name lower-cases the output, all-upper upper-cases it, mixed leaves
// it as computed.
func applyTokenCase(value, token string) string {
	hasLower, hasUpper := false, false
	for _, r := range token {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		}
	}
	switch {
	case hasLower && !hasUpper:
		return strings.ToLower(value)
	case hasUpper && !hasLower:
		return strings.ToUpper(value)
	default:
		return value
	}
}

// buildTokenRegistry assembles the token table for one naming call. The
// registry is never shared or mutated afterwards; handlers are pure
// functions of the arguments captured here. file may be nil for
// folder-template rendering, which leaves the file-scoped tokens out.
func buildTokenRegistry(game *library.Game, file *library.GameFile, cfg library.NamingConfig, formats []library.CustomFormat, multipleTokens bool) map[string]tokenHandler {
	title := func(m tokenMatch) string {
		if m.filter != "" && !isNumericFilter(m.filter) {
			return game.TranslatedTitle(strings.ToLower(m.filter))
		}
		return game.Title
	}

	registry := map[string]tokenHandler{
		"gametitle": func(m tokenMatch) string {
			return CleanFileName(title(m), cfg)
		},
		"gamecleantitle": func(m tokenMatch) string {
			return CleanTitle(title(m))
		},
		"gametitlethe": func(m tokenMatch) string {
			return CleanFileName(TitleThe(title(m)), cfg)
		},
		"gamecleantitlethe": func(m tokenMatch) string {
			return CleanTitleThe(title(m))
		},
		"gametitlefirstcharacter": func(m tokenMatch) string {
			return TitleFirstCharacter(title(m))
		},
		"gameoriginaltitle": func(tokenMatch) string {
			return CleanFileName(game.OriginalTitle, cfg)
		},
		"gamecollection": func(tokenMatch) string {
			return CleanFileName(game.CollectionTitle, cfg)
		},
		"releaseyear": func(tokenMatch) string {
			if game.Year == 0 {
				return ""
			}
			return strconv.Itoa(game.Year)
		},
		"igdbid": func(tokenMatch) string {
			if game.IgdbID == 0 {
				return ""
			}
			return strconv.FormatInt(game.IgdbID, 10)
		},
	}

	if file == nil {
		// Folder templates resolve file-scoped tokens to nothing instead of
		// leaving them behind as unknown-token literals.
		for _, key := range fileTokenKeys {
			registry[key] = func(tokenMatch) string { return "" }
		}
		return registry
	}

	registry["qualityfull"] = func(tokenMatch) string {
		full := file.Quality.Quality.Title()
		if file.Quality.Revision.IsProper() {
			full += " Proper"
		}
		if file.Quality.Revision.Real > 0 {
			full += " REAL"
		}
		return full
	}
	registry["qualitytitle"] = func(tokenMatch) string {
		return file.Quality.Quality.Title()
	}
	registry["qualityproper"] = func(tokenMatch) string {
		if file.Quality.Revision.IsProper() {
			return "Proper"
		}
		return ""
	}
	registry["qualityreal"] = func(tokenMatch) string {
		if file.Quality.Revision.Real > 0 {
			return "REAL"
		}
		return ""
	}
	registry["releasegroup"] = func(m tokenMatch) string {
		group := file.ReleaseGroup
		if group == "" && m.prefix == "" && m.suffix == "" {
			group = releaseGroupFallback
		}
		return CleanFileName(group, cfg)
	}
	registry["editiontags"] = func(tokenMatch) string {
		return CleanFileName(CaseEditionTags(file.Edition), cfg)
	}
	registry["customformats"] = func(m tokenMatch) string {
		return formatCustomFormats(formats, m.filter)
	}
	registry["customformat"] = func(m tokenMatch) string {
		return formatCustomFormats(formats, m.filter)
	}
	registry["originaltitle"] = func(tokenMatch) string {
		if file.SceneName != "" {
			return CleanFileName(file.SceneName, cfg)
		}
		// Without a scene name the fallback would duplicate whatever the
		// other tokens already render, so it only fires alone.
		if multipleTokens {
			return ""
		}
		return CleanFileName(fileStem(file), cfg)
	}
	registry["originalfilename"] = func(tokenMatch) string {
		return CleanFileName(fileStem(file), cfg)
	}

	mi := file.MediaInfo
	registry["mediainfovideocodec"] = func(tokenMatch) string {
		if mi == nil {
			return ""
		}
		return mi.VideoCodec
	}
	registry["mediainfoaudiocodec"] = func(tokenMatch) string {
		if mi == nil {
			return ""
		}
		return mi.AudioCodec
	}
	registry["mediainfosimple"] = func(tokenMatch) string {
		if mi == nil {
			return ""
		}
		return strings.TrimSpace(mi.VideoCodec + " " + mi.AudioCodec)
	}
	registry["mediainfoaudiochannels"] = func(tokenMatch) string {
		if mi == nil || mi.AudioChannels == 0 {
			return ""
		}
		return strconv.FormatFloat(mi.AudioChannels, 'f', 1, 64)
	}
	registry["mediainfovideobitdepth"] = func(tokenMatch) string {
		if mi == nil || mi.VideoBitDepth == 0 {
			return ""
		}
		return strconv.Itoa(mi.VideoBitDepth)
	}
	registry["mediainfovideodynamicrange"] = func(tokenMatch) string {
		if mi == nil {
			return ""
		}
		return mi.VideoDynamicRange
	}
	registry["mediainfoaudiolanguages"] = func(m tokenMatch) string {
		if mi == nil {
			return ""
		}
		return formatLanguages(mi.AudioLanguages, m.filter, true)
	}
	registry["mediainfoaudiolanguagesall"] = func(m tokenMatch) string {
		if mi == nil {
			return ""
		}
		return formatLanguages(mi.AudioLanguages, m.filter, false)
	}
	registry["mediainfosubtitlelanguages"] = func(m tokenMatch) string {
		if mi == nil {
			return ""
		}
		return formatLanguages(mi.SubtitleLanguages, m.filter, true)
	}
	registry["mediainfosubtitlelanguagesall"] = func(m tokenMatch) string {
		if mi == nil {
			return ""
		}
		return formatLanguages(mi.SubtitleLanguages, m.filter, false)
	}

	return registry
}

// fileTokenKeys are the registry keys only available when a file is in hand.
var fileTokenKeys = []string{
	"qualityfull", "qualitytitle", "qualityproper", "qualityreal",
	"releasegroup", "editiontags", "customformats", "customformat",
	"originaltitle", "originalfilename",
	"mediainfovideocodec", "mediainfoaudiocodec", "mediainfosimple",
	"mediainfoaudiochannels", "mediainfovideobitdepth", "mediainfovideodynamicrange",
	"mediainfoaudiolanguages", "mediainfoaudiolanguagesall",
	"mediainfosubtitlelanguages", "mediainfosubtitlelanguagesall",
}

// formatCustomFormats space-joins the names of renaming-eligible formats,
// narrowed by an optional comma filter ("-" prefix excludes).
func formatCustomFormats(formats []library.CustomFormat, filter string) string {
	exclude := false
	var wanted map[string]bool
	if filter != "" && !isNumericFilter(filter) {
		if rest, ok := strings.CutPrefix(filter, "-"); ok {
			exclude = true
			filter = rest
		}
		wanted = map[string]bool{}
		for _, name := range strings.Split(filter, ",") {
			wanted[strings.ToLower(strings.TrimSpace(name))] = true
		}
	}

	var names []string
	for _, f := range formats {
		if !f.IncludeWhenRenaming {
			continue
		}
		if wanted != nil && wanted[strings.ToLower(f.Name)] == exclude {
			continue
		}
		names = append(names, f.Name)
	}
	return strings.Join(names, " ")
}

func fileStem(file *library.GameFile) string {
	base := filepath.Base(file.RelativePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isNumericFilter(filter string) bool {
	_, err := strconv.Atoi(filter)
	return err == nil
}
