// Package song defines the transient song record produced by extraction
// and the identity, duration and tag rules shared by every stage.
package song

import "strings"

// Record is one song as harvested from the library page. Display fields
// (duration, plays, likes, created) keep the page's raw text.
type Record struct {
	Title       string   `json:"title"`
	Artist      string   `json:"artist"`
	Description string   `json:"description"`
	Lyrics      string   `json:"lyrics"`
	Tags        []string `json:"tags"`
	Duration    string   `json:"duration"`
	Plays       string   `json:"plays"`
	Likes       string   `json:"likes"`
	CreatedAt   string   `json:"created_at"`
	URL         string   `json:"url"`
	ImageURL    string   `json:"image_url"`
	Liked       bool     `json:"liked"`
	Disliked    bool     `json:"disliked"`
	SourceTab   string   `json:"source_tab"`
}

// Identity returns the song identity embedded in the record URL.
func (r Record) Identity() (string, bool) {
	return ParseIdentity(r.URL)
}

// DurationSeconds parses the display duration.
func (r Record) DurationSeconds() int {
	return ParseDuration(r.Duration)
}

// Version returns the first version-like tag, e.g. "v4".
func (r Record) Version() string {
	for _, t := range r.Tags {
		if IsVersionTag(t) {
			return strings.TrimSpace(t)
		}
	}
	return ""
}

// PlainTags returns tags with version markers removed.
func (r Record) PlainTags() []string {
	out := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		if !IsVersionTag(t) {
			out = append(out, t)
		}
	}
	return out
}

// Clone returns a deep copy so callers never share tag slices.
func (r Record) Clone() Record {
	c := r
	if r.Tags != nil {
		c.Tags = append([]string(nil), r.Tags...)
	}
	return c
}

// MergeDetail overlays fields recovered from a detail page and returns the
// merged record. Lyrics are replaced only by non-empty text at least as long
// as the current value; description only by a longer value. Tags are
// unioned. Display fields are filled only when empty.
func (r Record) MergeDetail(d Record) Record {
	out := r.Clone()

	if d.Lyrics != "" && len(d.Lyrics) >= len(out.Lyrics) {
		out.Lyrics = d.Lyrics
	}
	if len(d.Description) > len(out.Description) {
		out.Description = d.Description
	}
	out.Tags = UnionTags(out.Tags, d.Tags)

	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&out.Title, d.Title)
	fill(&out.Artist, d.Artist)
	fill(&out.Duration, d.Duration)
	fill(&out.Plays, d.Plays)
	fill(&out.Likes, d.Likes)
	fill(&out.CreatedAt, d.CreatedAt)
	fill(&out.ImageURL, d.ImageURL)

	return out
}

// Validate returns the problems found with a record; nil means valid.
func Validate(r Record) []string {
	var problems []string
	if _, ok := r.Identity(); !ok {
		problems = append(problems, "missing song identity in url")
	}
	if strings.TrimSpace(r.Title) == "" {
		problems = append(problems, "missing title")
	}
	return problems
}
