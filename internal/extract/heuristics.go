package extract

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/franz/suno-archive/internal/song"
)

// Strategy is one way of locating a field inside a page fragment. Find
// yields candidate nodes in priority order and Value turns a candidate into
// the field value, returning "" to reject it.
type Strategy struct {
	Name  string
	Find  func(frag *goquery.Selection) *goquery.Selection
	Value func(node *goquery.Selection) string
}

// Cascade is an ordered list of strategies; the first non-empty value wins.
type Cascade []Strategy

// First returns the first non-empty value and the name of the strategy
// that produced it. No match yields two empty strings.
func (c Cascade) First(frag *goquery.Selection) (value, strategy string) {
	for _, st := range c {
		st.Find(frag).EachWithBreak(func(_ int, node *goquery.Selection) bool {
			value = st.valueOf(node)
			return value == ""
		})
		if value != "" {
			return value, st.Name
		}
	}
	return "", ""
}

// All returns every non-empty value from every strategy in order.
func (c Cascade) All(frag *goquery.Selection) []string {
	var values []string
	for _, st := range c {
		st.Find(frag).Each(func(_ int, node *goquery.Selection) {
			if v := st.valueOf(node); v != "" {
				values = append(values, v)
			}
		})
	}
	return values
}

func (st Strategy) valueOf(node *goquery.Selection) string {
	if st.Value == nil {
		return cleanText(node)
	}
	return st.Value(node)
}

// bySelector finds candidates with a CSS selector.
func bySelector(name, css string, value func(*goquery.Selection) string) Strategy {
	return Strategy{
		Name:  name,
		Find:  func(frag *goquery.Selection) *goquery.Selection { return frag.Find(css) },
		Value: value,
	}
}

// byClass finds elements of the given CSS selector whose class matches re.
func byClass(name, css string, re *regexp.Regexp, value func(*goquery.Selection) string) Strategy {
	return Strategy{
		Name: name,
		Find: func(frag *goquery.Selection) *goquery.Selection {
			return frag.Find(css).FilterFunction(func(_ int, s *goquery.Selection) bool {
				return classMatches(s, re)
			})
		},
		Value: value,
	}
}

// self applies a value function to the fragment itself.
func self(name string, value func(*goquery.Selection) string) Strategy {
	return Strategy{
		Name:  name,
		Find:  func(frag *goquery.Selection) *goquery.Selection { return frag },
		Value: value,
	}
}

// maxLen rejects values longer than n bytes, which are almost always a
// container's concatenated text rather than the field itself.
func maxLen(n int) func(*goquery.Selection) string {
	return func(s *goquery.Selection) string {
		if v := cleanText(s); len(v) <= n {
			return v
		}
		return ""
	}
}

// leaf rejects elements that wrap other elements.
func leaf(value func(*goquery.Selection) string) func(*goquery.Selection) string {
	return func(s *goquery.Selection) string {
		if s.Children().Length() > 0 {
			return ""
		}
		return value(s)
	}
}

// matching keeps text matching re; whole is whether the full text or only
// the match is returned.
func matching(re *regexp.Regexp, limit int, whole bool) func(*goquery.Selection) string {
	return func(s *goquery.Selection) string {
		v := cleanText(s)
		if len(v) > limit {
			return ""
		}
		m := re.FindString(v)
		if m == "" {
			return ""
		}
		if whole {
			return v
		}
		return m
	}
}

// pressed accepts toggle controls that report an active state.
func pressed(s *goquery.Selection) string {
	for _, attr := range []string{"aria-pressed", "data-active", "aria-checked", "data-state"} {
		if v, _ := s.Attr(attr); v == "true" || v == "on" || v == "active" {
			return "true"
		}
	}
	return ""
}

func attrValue(name string) func(*goquery.Selection) string {
	return func(s *goquery.Selection) string {
		v, _ := s.Attr(name)
		return v
	}
}

var (
	titleClass       = regexp.MustCompile(`(?i)title|name|heading`)
	artistClass      = regexp.MustCompile(`(?i)artist|creator|author`)
	bylineClass      = regexp.MustCompile(`(?i)\bby\b|user`)
	descriptionClass = regexp.MustCompile(`(?i)description|prompt|caption`)
	tagClass         = regexp.MustCompile(`(?i)tag|genre|style`)
	likeControl      = regexp.MustCompile(`(?i)like|favou?rite|heart`)
	dislikeControl   = regexp.MustCompile(`(?i)dislike|thumbs?-?down`)

	durationText = regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?`)
	playsText    = regexp.MustCompile(`(?i)\d+.*play`)
	likesText    = regexp.MustCompile(`(?i)\d+.*like`)
	createdText  = regexp.MustCompile(`(?i)\d{4}-\d{2}-\d{2}|\d+\s*(minute|hour|day|week|month|year)s?\b`)
)

const metaCSS = "span, div, time, p, small"

// FieldHeuristics recovers song fields from a list-view fragment.
type FieldHeuristics struct {
	BaseURL string

	Title       Cascade
	Artist      Cascade
	Description Cascade
	Tags        Cascade
	Image       Cascade
	Duration    Cascade
	Plays       Cascade
	Likes       Cascade
	Created     Cascade
	Liked       Cascade
	Disliked    Cascade
}

// DefaultHeuristics returns the cascades tuned for the library list view.
func DefaultHeuristics(baseURL string) *FieldHeuristics {
	if baseURL == "" {
		baseURL = song.DefaultBaseURL
	}
	return &FieldHeuristics{
		BaseURL: baseURL,
		Title: Cascade{
			bySelector("heading", "h1, h2, h3, h4", maxLen(200)),
			byClass("title-class", "*", titleClass, maxLen(200)),
			bySelector("link-title-attr", songLinkCSS+"[title]", attrValue("title")),
			self("link-title-attr-self", attrValue("title")),
			bySelector("link-text", songLinkCSS, maxLen(200)),
			self("self-link-text", func(s *goquery.Selection) string {
				if s.Is(songLinkCSS) {
					return maxLen(200)(s)
				}
				return ""
			}),
		},
		Artist: Cascade{
			byClass("artist-class", "*", artistClass, maxLen(120)),
			byClass("byline", "span, div, p", bylineClass, maxLen(120)),
			bySelector("profile-link", `a[href*="/@"]`, maxLen(120)),
		},
		Description: Cascade{
			byClass("description-class", "*", descriptionClass, maxLen(3000)),
		},
		Tags: Cascade{
			byClass("tag-class", "a, span, div, button", tagClass, leaf(maxLen(40))),
			bySelector("style-link", `a[href*="/style/"], a[href*="/genre/"]`, maxLen(40)),
		},
		Image: Cascade{
			bySelector("img-src", "img[src]", func(s *goquery.Selection) string {
				src, _ := s.Attr("src")
				return song.AbsoluteURL(baseURL, src)
			}),
		},
		Duration: Cascade{bySelector("duration-text", metaCSS, matching(durationText, 40, false))},
		Plays:    Cascade{bySelector("plays-text", metaCSS, matching(playsText, 40, true))},
		Likes:    Cascade{bySelector("likes-text", metaCSS, matching(likesText, 40, true))},
		Created: Cascade{
			bySelector("created-text", metaCSS, matching(createdText, 40, true)),
			bySelector("time-datetime", "time[datetime]", attrValue("datetime")),
		},
		Liked: Cascade{
			controlState("like-control", likeControl, dislikeControl),
		},
		Disliked: Cascade{
			controlState("dislike-control", dislikeControl, nil),
		},
	}
}

// controlState finds toggle controls labelled by re (and not by exclude)
// and reports whether one of them is active.
func controlState(name string, re, exclude *regexp.Regexp) Strategy {
	labelled := func(s *goquery.Selection) bool {
		return attrMatches(s, re, "aria-label", "class", "data-testid", "title")
	}
	return Strategy{
		Name: name,
		Find: func(frag *goquery.Selection) *goquery.Selection {
			return frag.Find("button, span, div, a, svg").FilterFunction(func(_ int, s *goquery.Selection) bool {
				if !labelled(s) {
					return false
				}
				return exclude == nil || !attrMatches(s, exclude, "aria-label", "class", "data-testid", "title")
			})
		},
		Value: pressed,
	}
}

// Extract turns one fragment into a record. A fragment without exactly one
// song-detail link yields a skip reason instead; every other missing field
// is left at its zero value.
func (h *FieldHeuristics) Extract(frag *goquery.Selection) (song.Record, SkipReason) {
	ids := songIdentities(frag)
	switch {
	case len(ids) == 0:
		return song.Record{}, SkipNoLink
	case len(ids) > 1:
		return song.Record{}, SkipAmbiguous
	}

	rec := song.Record{URL: song.CanonicalURL(h.BaseURL, ids[0])}
	rec.Title, _ = h.Title.First(frag)
	rec.Artist, _ = h.Artist.First(frag)
	rec.Description, _ = h.Description.First(frag)
	rec.Tags = song.UnionTags(h.Tags.All(frag))
	rec.ImageURL, _ = h.Image.First(frag)
	rec.Duration, _ = h.Duration.First(frag)
	rec.Plays, _ = h.Plays.First(frag)
	rec.Likes, _ = h.Likes.First(frag)
	rec.CreatedAt, _ = h.Created.First(frag)

	liked, _ := h.Liked.First(frag)
	disliked, _ := h.Disliked.First(frag)
	rec.Liked = liked != ""
	rec.Disliked = disliked != ""

	return rec, SkipNone
}

func identityFromHref(href string) (string, bool) {
	if !song.IsSongLink(href) {
		return "", false
	}
	return song.ParseIdentity(href)
}
