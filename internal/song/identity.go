package song

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// DefaultBaseURL is the host every canonical song URL lives under.
const DefaultBaseURL = "https://suno.com"

var identityPattern = regexp.MustCompile(`[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}`)

// ParseIdentity finds the first song identity anywhere in s.
func ParseIdentity(s string) (string, bool) {
	m := identityPattern.FindString(s)
	if m == "" {
		return "", false
	}
	id, err := uuid.Parse(m)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// CanonicalURL builds the song page URL for an identity.
func CanonicalURL(base, identity string) string {
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimRight(base, "/") + "/song/" + identity
}

// AbsoluteURL resolves a page href against base. Relative paths are
// prefixed with the base host; absolute URLs are returned unchanged.
func AbsoluteURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return strings.TrimRight(base, "/") + href
}

// IsSongLink reports whether href points at a song detail page.
func IsSongLink(href string) bool {
	i := strings.Index(href, "/song/")
	if i < 0 {
		return false
	}
	return identityPattern.MatchString(href[i:])
}
