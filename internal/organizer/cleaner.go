package organizer

import (
	"regexp"
	"strings"

	"github.com/vmunix/gamarr/internal/library"
)

// badCharacters and goodCharacters are parallel: when illegal-character
// replacement is enabled each bad character maps to its substitute, when
// disabled every bad character is stripped.
var (
	badCharacters  = []string{"\\", "/", "<", ">", "?", "*", "|", "\""}
	goodCharacters = []string{"+", "+", "", "", "!", "-", "", ""}
)

var (
	emptyBracketsRegex = regexp.MustCompile(`\(\)|\[\]|\{\}`)
	duplicateSpaces    = regexp.MustCompile(` {2,}`)
)

// CleanFileName rewrites characters that are unsafe in file names.
// Colons are handled according to the configured style; the output never
// contains a colon regardless of mode.
func CleanFileName(name string, cfg library.NamingConfig) string {
	if cfg.ReplaceIllegalCharacters {
		name = replaceColons(name, cfg.ColonReplacement)
		for i, bad := range badCharacters {
			name = strings.ReplaceAll(name, bad, goodCharacters[i])
		}
	} else {
		name = strings.ReplaceAll(name, ":", "")
		for _, bad := range badCharacters {
			name = strings.ReplaceAll(name, bad, "")
		}
	}

	name = duplicateSpaces.ReplaceAllString(name, " ")
	return strings.Trim(name, " ")
}

func replaceColons(name string, style library.ColonStyle) string {
	switch style {
	case library.ColonDelete:
		return strings.ReplaceAll(name, ":", "")
	case library.ColonDash:
		return strings.ReplaceAll(name, ":", "-")
	case library.ColonSpaceDash:
		return strings.ReplaceAll(name, ":", " -")
	case library.ColonSpaceDashSpace:
		return strings.ReplaceAll(name, ":", " - ")
	case library.ColonSmart:
		name = strings.ReplaceAll(name, ": ", " - ")
		return strings.ReplaceAll(name, ":", "-")
	default:
		return strings.ReplaceAll(name, ":", "")
	}
}

// CleanFolderName drops bracket pairs left empty by unresolved tokens and
// trims the trailing dots and spaces Windows rejects on folders.
func CleanFolderName(name string) string {
	name = emptyBracketsRegex.ReplaceAllString(name, "")
	name = duplicateSpaces.ReplaceAllString(name, " ")
	return strings.Trim(name, " .")
}

var (
	trailingSeparators  = regexp.MustCompile(`[- ._]+$`)
	reservedDeviceNames = regexp.MustCompile(`(?i)^(aux|com[1-9]|con|lpt[1-9]|nul|prn)\.`)
)

// tidyComponent finishes one path component after token substitution:
// separator runs collapse to their first character, trailing separators are
// trimmed, the ellipsis placeholder becomes literal dots and reserved DOS
// device names are defused.
func tidyComponent(component string) string {
	component = collapseSeparatorRuns(component)
	component = trailingSeparators.ReplaceAllString(component, "")
	component = strings.ReplaceAll(component, ellipsisToken, "...")
	component = reservedDeviceNames.ReplaceAllString(component, "${1}_")
	return strings.TrimSpace(component)
}

// collapseSeparatorRuns reduces runs of identical separator characters to a
// single occurrence. Mixed runs like " -" are left alone so deliberate
// "Title - Quality" spacing survives.
func collapseSeparatorRuns(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range s {
		if r == prev && isSeparatorRune(r) {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

func isSeparatorRune(r rune) bool {
	return r == ' ' || r == '.' || r == '-' || r == '_'
}
