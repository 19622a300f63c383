package organizer

import (
	"strings"

	"golang.org/x/text/language"
)

// iso639BT maps bibliographic ISO-639-2 codes to their terminological
// equivalents, which is what the two-letter lookup understands.
var iso639BT = map[string]string{
	"alb": "sqi",
	"arm": "hye",
	"baq": "eus",
	"bur": "mya",
	"chi": "zho",
	"cze": "ces",
	"dut": "nld",
	"fre": "fra",
	"geo": "kat",
	"ger": "deu",
	"gre": "ell",
	"ice": "isl",
	"mac": "mkd",
	"may": "msa",
	"mao": "mri",
	"per": "fas",
	"rum": "ron",
	"slo": "slk",
	"tib": "bod",
	"wel": "cym",
}

// formatLanguages renders a media-info language list for a naming token.
// Codes are deduplicated, reduced to upper-case two-letter form and run
// through the token's include (`DE+EN`) or exclude (`-EN`) filter. A filter
// ending in `+` appends a `--` marker when anything was filtered away, and a
// collapsible result of exactly EN renders as nothing at all.
func formatLanguages(codes []string, filter string, collapseEnglish bool) string {
	var langs []string
	seen := map[string]bool{}
	for _, code := range codes {
		short := shortLanguageCode(code)
		if short == "" || seen[short] {
			continue
		}
		seen[short] = true
		langs = append(langs, short)
	}

	appendExcludedMarker := strings.HasSuffix(filter, "+")
	filter = strings.TrimSuffix(filter, "+")

	filtered := false
	if filter != "" {
		var kept []string
		if excludes, ok := strings.CutPrefix(filter, "-"); ok {
			excluded := filterSet(excludes, "-")
			for _, l := range langs {
				if excluded[l] {
					filtered = true
					continue
				}
				kept = append(kept, l)
			}
		} else {
			included := filterSet(filter, "+")
			for _, l := range langs {
				if !included[l] {
					filtered = true
					continue
				}
				kept = append(kept, l)
			}
		}
		langs = kept
	}

	if filtered && appendExcludedMarker {
		langs = append(langs, "--")
	}

	if len(langs) == 0 {
		return ""
	}
	if collapseEnglish && len(langs) == 1 && langs[0] == "EN" {
		return ""
	}
	return "[" + strings.Join(langs, "+") + "]"
}

func filterSet(filter, sep string) map[string]bool {
	set := map[string]bool{}
	for _, code := range strings.Split(filter, sep) {
		if code != "" {
			set[strings.ToUpper(code)] = true
		}
	}
	return set
}

// shortLanguageCode turns an ISO-639-2 code into its upper-case two-letter
// form, resolving bibliographic aliases first. Unrecognized codes pass
// through upper-cased rather than vanishing.
func shortLanguageCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if term, ok := iso639BT[code]; ok {
		code = term
	}
	base, err := language.ParseBase(code)
	if err != nil {
		return strings.ToUpper(code)
	}
	return strings.ToUpper(base.String())
}
