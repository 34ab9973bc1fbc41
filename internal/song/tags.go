package song

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	versionTagPattern = regexp.MustCompile(`(?i)^v\d+(\.\d+)*\+?(\s.*)?$`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	unsafeFilename    = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
)

// IsVersionTag reports whether a tag is a model version marker such as
// "v3.5", "v4" or "v5+".
func IsVersionTag(tag string) bool {
	return versionTagPattern.MatchString(strings.TrimSpace(tag))
}

// NormalizeTag applies NFC and collapses whitespace.
func NormalizeTag(tag string) string {
	tag = norm.NFC.String(tag)
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(tag, " "))
}

// UnionTags merges tag lists, keeping first-seen order and dropping
// empties and exact duplicates.
func UnionTags(lists ...[]string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, list := range lists {
		for _, t := range list {
			t = NormalizeTag(t)
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// SafeFilename makes a title usable as a file name.
func SafeFilename(s string) string {
	s = norm.NFC.String(s)
	s = unsafeFilename.ReplaceAllString(s, "_")
	s = strings.Trim(whitespacePattern.ReplaceAllString(s, " "), " .")
	if r := []rune(s); len(r) > 100 {
		s = string(r[:100])
	}
	return s
}
