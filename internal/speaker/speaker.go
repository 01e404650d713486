// Package speaker derives speaker names from video titles. The heuristic is
// best effort and tuned for Turkish and English program titles; it is
// deterministic for a given input but not guaranteed correct.
package speaker

import (
	"regexp"
	"strings"
)

// UnknownSpeaker is returned when nothing usable is left of a title.
const UnknownSpeaker = "Unknown_Speaker"

var (
	// Leading "<program name> - " segment.
	programPrefix = regexp.MustCompile(`^[^-]+-\s*`)

	// Trailing date variants, in the order they are stripped.
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*[|\-]\s*\d{1,2}[./\-]\d{1,2}[./\-]\d{4}.*$`),
		regexp.MustCompile(`\s*[|\-]\s*\d{4}[./\-]\d{1,2}[./\-]\d{1,2}.*$`),
		regexp.MustCompile(`\s*[|\-]\s*\d{4}.*$`),
		regexp.MustCompile(`(?i)\s*[|\-]\s*\d{1,2}?\s*(Ocak|Şubat|Mart|Nisan|Mayıs|Haziran|Temmuz|Ağustos|Eylül|Ekim|Kasım|Aralık)\s*\d{4}.*$`),
		regexp.MustCompile(`(?i)\s*[|\-]\s*\d{1,2}?\s*(January|February|March|April|May|June|July|August|September|October|November|December)\s*\d{4}.*$`),
		regexp.MustCompile(`\s*[|\-]\s*\d{1,2}[./]\d{1,2}.*$`),
		regexp.MustCompile(`\s*\(\d{4}\).*$`),
		regexp.MustCompile(`\s*\(\d{1,2}[./\-]\d{1,2}[./\-]\d{4}\).*$`),
		regexp.MustCompile(`\s*\[\d{4}\].*$`),
		regexp.MustCompile(`\s*\[\d{1,2}[./\-]\d{1,2}[./\-]\d{4}\].*$`),
	}

	// Trailing episode and season markers.
	episodePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\s*[|\-]\s*(Bölüm|Episode|Ep|#)\s*\d+.*$`),
		regexp.MustCompile(`(?i)\s*[|\-]\s*S\d+E\d+.*$`),
		regexp.MustCompile(`(?i)\s*[|\-]\s*Season\s*\d+.*$`),
		regexp.MustCompile(`(?i)\s*[|\-]\s*Sezon\s*\d+.*$`),
	}

	trailingSeparator = regexp.MustCompile(`\s*[|\-]\s*$`)

	// Name extraction attempts, first match wins: two capitalized words at
	// the start, two capitalized words anywhere, then everything before the
	// first separator.
	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^([A-ZÇĞİÖŞÜ][a-zçğıiöşü]+\s+[A-ZÇĞİÖŞÜ][a-zçğıiöşü]+)`),
		regexp.MustCompile(`([A-ZÇĞİÖŞÜ][a-zçğıiöşü]+\s+[A-ZÇĞİÖŞÜ][a-zçğıiöşü]+)`),
		regexp.MustCompile(`^([^-|:]+)`),
	}
)

// ExtractName derives a speaker name from a raw video title, with spaces
// replaced by underscores.
func ExtractName(title string) string {
	t := strings.TrimSpace(title)

	t = programPrefix.ReplaceAllString(t, "")
	for _, re := range datePatterns {
		t = re.ReplaceAllString(t, "")
	}
	for _, re := range episodePatterns {
		t = re.ReplaceAllString(t, "")
	}
	t = trailingSeparator.ReplaceAllString(t, "")
	t = strings.TrimSpace(t)

	for _, re := range namePatterns {
		if m := re.FindStringSubmatch(t); m != nil {
			if name := strings.TrimSpace(m[1]); name != "" {
				return strings.ReplaceAll(name, " ", "_")
			}
		}
	}

	words := strings.Fields(t)
	switch {
	case len(words) >= 2:
		return words[0] + "_" + words[1]
	case len(words) == 1:
		return words[0]
	}
	return UnknownSpeaker
}

// SanitizeFilename replaces filesystem-unsafe characters with underscores.
func SanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(`<>:"/\|?*`, r) {
			return '_'
		}
		return r
	}, name)
}
