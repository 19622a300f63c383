package organizer

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/vmunix/gamarr/pkg/release"
)

// ellipsisToken survives separator cleanup where literal dots would not; it
// is expanded to "..." as the last step of component tidying.
const ellipsisToken = "{ellipsis}"

var titlePrefixRegex = regexp.MustCompile(`^(The|An|A) (.*?)((?: *\([^)]+\))*)$`)

// TitleThe moves a leading article to the end after a comma, keeping any
// trailing parenthetical suffixes in place: "The Mist (2007)" becomes
// "Mist, The (2007)".
func TitleThe(title string) string {
	return titlePrefixRegex.ReplaceAllString(title, "$2, $1$3")
}

var (
	scenifyRemoveChars  = regexp.MustCompile("[`'’‘\"“”:;\\[\\]]")
	scenifyReplaceChars = regexp.MustCompile(`[/\\,()]`)
)

// CleanTitle scenifies a title: diacritics stripped, ampersands spelled out,
// punctuation that never appears in release names removed.
func CleanTitle(title string) string {
	title = release.RemoveAccents(title)
	title = strings.ReplaceAll(title, "&", "and")
	title = scenifyRemoveChars.ReplaceAllString(title, "")
	title = scenifyReplaceChars.ReplaceAllString(title, " ")
	title = duplicateSpaces.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}

// CleanTitleThe composes TitleThe with CleanTitle, so "The Mist" renders as
// "Mist, The".
func CleanTitleThe(title string) string {
	return strings.TrimSpace(titlePrefixRegex.ReplaceAllString(CleanTitle(title), "$2, $1$3"))
}

// TitleFirstCharacter buckets a title for A-Z library folders. Articles are
// ignored, digits group under "0-9" and anything else under "_".
func TitleFirstCharacter(title string) string {
	sorted := TitleThe(strings.TrimSpace(title))
	if sorted == "" {
		return "_"
	}
	r := []rune(sorted)[0]
	switch {
	case unicode.IsLetter(r):
		return string(unicode.ToUpper(r))
	case unicode.IsDigit(r):
		return "0-9"
	default:
		return "_"
	}
}

// truncate shortens s to at most max characters, marking the cut with the
// ellipsis placeholder. Positive max cuts from the end, negative from the
// start; zero or a generous max returns s unchanged. The placeholder counts
// three characters against the budget, so three is the smallest enforceable
// limit (a bare marker) and anything shorter returns s unchanged.
func truncate(s string, max int) string {
	if max == 0 {
		return s
	}

	limit := max
	if limit < 0 {
		limit = -limit
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit < 3 {
		return s
	}

	if max > 0 {
		kept := strings.TrimRight(string(runes[:limit-3]), " ")
		return kept + ellipsisToken
	}
	kept := strings.TrimLeft(string(runes[len(runes)-(limit-3):]), " ")
	return ellipsisToken + kept
}

var editionOrdinalRegex = regexp.MustCompile(`(?i)^(1st|2nd|3rd|[4-9]th|10th)$`)

// editionAcronyms are rendered upper-case no matter how they were typed.
var editionAcronyms = map[string]bool{
	"imax": true,
	"3d":   true,
	"hdr":  true,
	"sdr":  true,
	"dv":   true,
}

// CaseEditionTags normalizes an edition string word by word: ordinals stay
// lower, known acronyms go upper, the rest is title-cased. Applying it twice
// yields the same result as applying it once.
func CaseEditionTags(edition string) string {
	words := strings.Fields(edition)
	for i, word := range words {
		switch {
		case editionOrdinalRegex.MatchString(word):
			words[i] = strings.ToLower(word)
		case editionAcronyms[strings.ToLower(word)]:
			words[i] = strings.ToUpper(word)
		default:
			words[i] = titleCaseWord(word)
		}
	}
	return strings.Join(words, " ")
}

func titleCaseWord(word string) string {
	runes := []rune(word)
	for i, r := range runes {
		if i == 0 {
			runes[i] = unicode.ToUpper(r)
		} else {
			runes[i] = unicode.ToLower(r)
		}
	}
	return string(runes)
}
