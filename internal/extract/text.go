package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	spaceRun    = regexp.MustCompile(`[ \t\r\n\f]+`)
	blankLines  = regexp.MustCompile(`\n{3,}`)
	songLinkCSS = `a[href*="/song/"]`
)

var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "ul": true, "ol": true, "pre": true,
	"section": true, "article": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "tr": true, "blockquote": true,
}

// cleanText is the selection's text with whitespace collapsed to single spaces.
func cleanText(s *goquery.Selection) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s.Text(), " "))
}

// blockText renders the selection's text the way a browser lays it out:
// <br> and block elements break lines, whitespace collapses except inside
// preformatted elements.
func blockText(s *goquery.Selection) string {
	var b strings.Builder
	for _, n := range s.Nodes {
		writeNode(&b, n, false)
	}
	lines := strings.Split(b.String(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	out := blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(out)
}

func writeNode(b *strings.Builder, n *html.Node, pre bool) {
	switch n.Type {
	case html.TextNode:
		if pre {
			b.WriteString(n.Data)
		} else {
			b.WriteString(spaceRun.ReplaceAllString(n.Data, " "))
		}
		return
	case html.ElementNode:
		switch n.Data {
		case "br":
			b.WriteString("\n")
			return
		case "script", "style", "noscript", "svg":
			return
		}
	}

	block := n.Type == html.ElementNode && blockTags[n.Data]
	if n.Type == html.ElementNode && preformatted(n) {
		pre = true
	}
	if block {
		b.WriteString("\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNode(b, c, pre)
	}
	if block {
		b.WriteString("\n")
	}
}

func preformatted(n *html.Node) bool {
	if n.Data == "pre" || n.Data == "textarea" {
		return true
	}
	for _, a := range n.Attr {
		v := strings.ToLower(a.Val)
		switch a.Key {
		case "style":
			v = strings.ReplaceAll(v, " ", "")
			if strings.Contains(v, "white-space:pre") {
				return true
			}
		case "class":
			if strings.Contains(v, "whitespace-pre") {
				return true
			}
		}
	}
	return false
}

// classMatches reports whether the element's class attribute matches re.
func classMatches(s *goquery.Selection, re *regexp.Regexp) bool {
	class, ok := s.Attr("class")
	return ok && re.MatchString(class)
}

// attrMatches reports whether any of the named attributes matches re.
func attrMatches(s *goquery.Selection, re *regexp.Regexp, names ...string) bool {
	for _, name := range names {
		if v, ok := s.Attr(name); ok && re.MatchString(v) {
			return true
		}
	}
	return false
}

// isDescendant reports whether node n sits below ancestor.
func isDescendant(n, ancestor *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// songIdentities returns the distinct identities linked from within s,
// including s itself when it is a song link.
func songIdentities(s *goquery.Selection) []string {
	links := s.Find(songLinkCSS).AddSelection(s.Filter(songLinkCSS))
	seen := make(map[string]bool)
	var ids []string
	links.Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if id, ok := identityFromHref(href); ok && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	})
	return ids
}
