// Package release parses release names to extract title, year, quality and flags.
package release

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	// titleYearRegex captures "Title ... 1998" style names. The year must not
	// be the first token so "2001 A Space Odyssey"-like titles survive.
	titleYearRegex = regexp.MustCompile(`^(?i)(?P<title>.+?)[ ._\-]*[(\[]?(?P<year>(?:19|20)\d{2})[)\]]?(?:[ ._\-]|$)`)

	groupRegex   = regexp.MustCompile(`-(?P<group>[A-Za-z0-9][A-Za-z0-9_.]{1,24})$`)
	properRegex  = regexp.MustCompile(`(?i)\b(proper)\b`)
	repackRegex  = regexp.MustCompile(`(?i)\b(repack|rerip)\b`)
	realRegex    = regexp.MustCompile(`\bREAL\b`)
	editionRegex = regexp.MustCompile(`(?i)\b((?:\d{1,3}(?:th|st|rd|nd)[ ._]anniversary|limited|uncut|remastered|imax|unrated|theatrical|chrono(?:logical)?|ultimate|final|extended|rogue|special|despecialized|collector'?s?|directors?(?:[ ._]cut)?|deluxe|game[ ._]of[ ._]the[ ._]year|goty)(?:[ ._]?(?:edition|cut))?)\b`)

	videoExtensions = map[string]bool{
		".mkv": true, ".mp4": true, ".avi": true, ".m4v": true,
		".wmv": true, ".mpg": true, ".mpeg": true, ".ts": true,
	}
)

// ParseTitle extracts information from a release name such as
// "Some Game 1998 Remastered 1080p BluRay x264-GROUP".
// Returns nil when no title could be recovered.
func ParseTitle(name string) *ParsedInfo {
	if strings.TrimSpace(name) == "" {
		return nil
	}

	info := &ParsedInfo{OriginalTitle: name}

	base := name
	if ext := strings.ToLower(filepath.Ext(base)); videoExtensions[ext] {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}

	if m := titleYearRegex.FindStringSubmatch(base); m != nil {
		info.Title = cleanReleaseTitle(m[1])
		info.Year, _ = strconv.Atoi(m[2])
	} else {
		// No year boundary; take everything up to the first quality marker.
		cut := base
		if loc := qualityMarkerRegex.FindStringIndex(base); loc != nil && loc[0] > 0 {
			cut = base[:loc[0]]
		}
		info.Title = cleanReleaseTitle(cut)
	}

	if info.Title == "" {
		return nil
	}

	info.Quality = ParseQuality(name)
	info.Languages = ParseLanguages(name)
	info.ReleaseGroup = ParseReleaseGroup(name)
	info.Edition = ParseEdition(base)

	return info
}

// ParsePath parses a file path, preferring the file name and falling back to
// the parent folder when the file name alone yields nothing useful.
func ParsePath(path string) *ParsedInfo {
	fileName := filepath.Base(path)

	info := ParseTitle(fileName)
	if info != nil && info.Year > 0 {
		return info
	}

	dir := filepath.Base(filepath.Dir(path))
	if dir != "." && dir != string(filepath.Separator) {
		if folderInfo := ParseTitle(dir); folderInfo != nil {
			// Quality from the file name is more specific when present.
			if info != nil && info.Quality.Quality != QualityUnknown {
				folderInfo.Quality = info.Quality
			}
			folderInfo.OriginalTitle = fileName
			return folderInfo
		}
	}

	return info
}

// qualityMarkerRegex finds the first token that clearly starts release
// attributes rather than title words.
var qualityMarkerRegex = regexp.MustCompile(`(?i)[ ._\-](2160p|1080p|720p|480p|bluray|blu-ray|web-?dl|web-?rip|hdtv|dvdrip|remux|x264|x265|h264|h265|hevc)`)

// ParseQuality detects the quality model from a release name.
func ParseQuality(name string) QualityModel {
	lower := strings.ToLower(name)

	resolution := parseResolution(lower)
	source := parseSource(lower)

	model := QualityModel{Quality: matchQuality(source, resolution)}
	model.Revision.Version = 1

	if properRegex.MatchString(name) || repackRegex.MatchString(name) {
		model.Revision.Version = 2
	}
	model.Revision.Real = len(realRegex.FindAllString(name, -1))

	return model
}

func parseResolution(lower string) string {
	switch {
	case strings.Contains(lower, "2160p"), strings.Contains(lower, "4k"), strings.Contains(lower, "uhd"):
		return "2160p"
	case strings.Contains(lower, "1080p"):
		return "1080p"
	case strings.Contains(lower, "720p"):
		return "720p"
	case strings.Contains(lower, "480p"), strings.Contains(lower, "576p"):
		return "480p"
	default:
		return ""
	}
}

func parseSource(lower string) string {
	switch {
	case strings.Contains(lower, "remux"):
		return "remux"
	case strings.Contains(lower, "bluray"), strings.Contains(lower, "blu-ray"), strings.Contains(lower, "bdrip"), strings.Contains(lower, "brrip"):
		return "bluray"
	case strings.Contains(lower, "webdl"), strings.Contains(lower, "web-dl"), strings.Contains(lower, "web dl"),
		strings.Contains(lower, "webrip"), strings.Contains(lower, "web-rip"), strings.Contains(lower, "amzn"):
		return "webdl"
	case strings.Contains(lower, "hdtv"):
		return "hdtv"
	case strings.Contains(lower, "dvd"):
		return "dvd"
	default:
		return ""
	}
}

func matchQuality(source, resolution string) Quality {
	if source == "remux" {
		return QualityRemux
	}

	switch source {
	case "bluray":
		switch resolution {
		case "2160p":
			return QualityBluray2160p
		case "1080p":
			return QualityBluray1080p
		case "720p":
			return QualityBluray720p
		}
	case "webdl":
		switch resolution {
		case "2160p":
			return QualityWEBDL2160p
		case "1080p":
			return QualityWEBDL1080p
		case "720p":
			return QualityWEBDL720p
		}
	case "hdtv":
		switch resolution {
		case "1080p":
			return QualityHDTV1080p
		case "720p":
			return QualityHDTV720p
		default:
			return QualitySDTV
		}
	case "dvd":
		return QualityDVD
	}

	// Resolution without a source still tells us something.
	switch resolution {
	case "2160p":
		return QualityWEBDL2160p
	case "1080p":
		return QualityHDTV1080p
	case "720p":
		return QualityHDTV720p
	case "480p":
		return QualitySDTV
	}

	return QualityUnknown
}

var languageMarkers = []struct {
	pattern  *regexp.Regexp
	language Language
}{
	{regexp.MustCompile(`(?i)\b(french|vostfr|truefrench|vff|vfq)\b`), LanguageFrench},
	{regexp.MustCompile(`(?i)\b(german|deutsch)\b`), LanguageGerman},
	{regexp.MustCompile(`(?i)\b(spanish|castellano|espanol)\b`), LanguageSpanish},
	{regexp.MustCompile(`(?i)\b(italian|ita)\b`), LanguageItalian},
	{regexp.MustCompile(`(?i)\b(japanese|jpn)\b`), LanguageJapanese},
	{regexp.MustCompile(`(?i)\b(russian|rus)\b`), LanguageRussian},
	{regexp.MustCompile(`(?i)\b(polish|pl(?:dub)?)\b`), LanguagePolish},
	{regexp.MustCompile(`(?i)\bmulti\b`), LanguageMulti},
	{regexp.MustCompile(`(?i)\b(english|eng)\b`), LanguageEnglish},
}

// ParseLanguages detects languages named in a release. A release with no
// language marker returns [Unknown]; callers substitute a default.
func ParseLanguages(name string) []Language {
	normalized := strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(name)

	var found []Language
	seen := map[Language]bool{}
	for _, marker := range languageMarkers {
		if marker.pattern.MatchString(normalized) && !seen[marker.language] {
			seen[marker.language] = true
			found = append(found, marker.language)
		}
	}

	if len(found) == 0 {
		return []Language{LanguageUnknown}
	}
	return found
}

// ParseReleaseGroup extracts the trailing release group, if any.
func ParseReleaseGroup(name string) string {
	base := name
	if ext := strings.ToLower(filepath.Ext(base)); videoExtensions[ext] {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	base = filepath.Base(base)

	m := groupRegex.FindStringSubmatch(strings.TrimSpace(base))
	if m == nil {
		return ""
	}

	group := m[1]

	// Trailing resolution or codec after a dash is not a group.
	if qualityMarkerRegex.MatchString("-" + group) {
		return ""
	}

	return group
}

// ParseEdition extracts an edition marker ("Remastered", "Directors Cut", ...).
func ParseEdition(name string) string {
	m := editionRegex.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return strings.Join(strings.FieldsFunc(m[1], func(r rune) bool {
		return r == '.' || r == '_'
	}), " ")
}

// cleanReleaseTitle turns separator-mangled title fragments back into words.
func cleanReleaseTitle(raw string) string {
	s := strings.NewReplacer(".", " ", "_", " ").Replace(raw)
	s = strings.Trim(s, " -")

	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// IsVideoFile reports whether path has a recognized video extension.
func IsVideoFile(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}
