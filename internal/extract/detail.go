package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/franz/suno-archive/internal/song"
)

// Plausible lyrics length in bytes.
const (
	minLyricsLen = 50
	maxLyricsLen = 10000
)

// Lyrics tiers, reported in enrichment events.
const (
	TierNone     = ""
	TierExplicit = "explicit"
	TierMarkers  = "section-markers"
	TierPre      = "preformatted"
)

var (
	lyricsSignal   = regexp.MustCompile(`(?i)lyric`)
	sectionMarker  = regexp.MustCompile(`(?i)\[\s*(verse|chorus|pre-chorus|bridge|intro|outro|hook|refrain|interlude|break|drop|instrumental|post-chorus)[^\]]*\]`)
	detailMetaArea = regexp.MustCompile(`(?i)meta|info|stat`)
	detailTagClass = regexp.MustCompile(`(?i)tag|genre|style|badge`)
	chromeWords    = regexp.MustCompile(`(?i)\b(home|explore|library|create|search|sign in|log in|sign up|notifications|upgrade|subscribe|settings|profile|feed|hooks)\b`)
)

// Detail is what a detail page yielded.
type Detail struct {
	Record     song.Record
	LyricsTier string
}

// ParseDetail recovers lyrics, description, tags and display metadata from
// a song detail page. Navigation chrome (nav, header, footer) is ignored.
func ParseDetail(doc *goquery.Document, fields *FieldHeuristics) Detail {
	doc.Find("nav, header, footer, script, style, noscript").Remove()
	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}

	var d Detail
	d.Record.Lyrics, d.LyricsTier = findLyrics(body)

	d.Record.Title = cleanText(body.Find("h1").First())
	d.Record.Description, _ = Cascade{
		byClass("description-class", "div, p, span", descriptionClass, maxLen(3000)),
		bySelector("description-attr", "[data-description]", attrValue("data-description")),
	}.First(body)

	d.Record.Tags = song.UnionTags(Cascade{
		byClass("tag-class", "a, span, div, button", detailTagClass, leaf(maxLen(40))),
		bySelector("style-link", `a[href*="/style/"], a[href*="/genre/"]`, maxLen(40)),
	}.All(body))

	meta := body.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return classMatches(s, detailMetaArea)
	})
	if meta.Length() == 0 {
		meta = body
	}
	d.Record.Duration, _ = fields.Duration.First(meta)
	d.Record.Plays, _ = fields.Plays.First(meta)
	d.Record.Likes, _ = fields.Likes.First(meta)
	d.Record.CreatedAt, _ = fields.Created.First(meta)
	d.Record.ImageURL, _ = fields.Image.First(body)

	return d
}

// findLyrics runs the three recovery tiers in order.
func findLyrics(body *goquery.Selection) (string, string) {
	if text := explicitLyrics(body); text != "" {
		return text, TierExplicit
	}
	if text := smallestMarked(body); text != "" {
		return text, TierMarkers
	}
	if text := preformattedLyrics(body); text != "" {
		return text, TierPre
	}
	return "", TierNone
}

// explicitLyrics returns the first element whose class, test id or data
// attribute names lyrics.
func explicitLyrics(body *goquery.Selection) string {
	var found string
	body.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		_, hasData := s.Attr("data-lyrics")
		if !hasData && !attrMatches(s, lyricsSignal, "class", "data-testid", "id") {
			return true
		}
		if text := blockText(s); plausibleLyrics(text) {
			found = text
			return false
		}
		return true
	})
	return found
}

// smallestMarked returns the shortest element text containing a song
// section marker. Equal lengths keep the earlier element.
func smallestMarked(body *goquery.Selection) string {
	best := ""
	body.Find("*").Each(func(_ int, s *goquery.Selection) {
		text := blockText(s)
		if !sectionMarker.MatchString(text) || !plausibleLyrics(text) {
			return
		}
		if best == "" || len(text) < len(best) {
			best = text
		}
	})
	return best
}

// preformattedLyrics returns the first whitespace-preserving element with a
// plausible lyrics length.
func preformattedLyrics(body *goquery.Selection) string {
	var found string
	body.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(s.Nodes) == 0 || !preformatted(s.Nodes[0]) {
			return true
		}
		if text := blockText(s); plausibleLyrics(text) {
			found = text
			return false
		}
		return true
	})
	return found
}

func plausibleLyrics(text string) bool {
	return len(text) >= minLyricsLen && len(text) <= maxLyricsLen && !looksLikeChrome(text)
}

// looksLikeChrome reports whether the leading text reads like site
// navigation: three or more navigation words in the first 150 bytes.
func looksLikeChrome(text string) bool {
	lead := text
	if len(lead) > 150 {
		lead = lead[:150]
	}
	lead = strings.ToLower(lead)
	return len(chromeWords.FindAllString(lead, -1)) >= 3
}
