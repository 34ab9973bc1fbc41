package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/franz/suno-archive/internal/browser"
)

// fakeElement is a scripted browser.Element.
type fakeElement struct {
	text     string
	attrs    map[string]string
	hidden   bool
	disabled bool
	onClick  func()
	clicks   int
}

func (e *fakeElement) Text(context.Context) (string, error) { return e.text, nil }

func (e *fakeElement) Attribute(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

func (e *fakeElement) Visible(context.Context) (bool, error) { return !e.hidden, nil }
func (e *fakeElement) Enabled(context.Context) (bool, error) { return !e.disabled, nil }

func (e *fakeElement) Click(context.Context) error {
	e.clicks++
	if e.onClick != nil {
		e.onClick()
	}
	return nil
}

// fakePage serves static markup and scripted metrics.
type fakePage struct {
	location    string
	html        func(location string) (string, error)
	metrics     func() pageMetrics
	elements    map[string][]*fakeElement
	navErrors   map[string]error
	redirects   map[string]string
	navigations []string
	scrolls     int
	measures    int
}

func newFakePage(markup string) *fakePage {
	return &fakePage{
		html:     func(string) (string, error) { return markup, nil },
		metrics:  func() pageMetrics { return pageMetrics{Height: 1000, Links: 1} },
		elements: map[string][]*fakeElement{},
	}
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.navigations = append(p.navigations, url)
	if err := p.navErrors[url]; err != nil {
		return err
	}
	p.location = url
	if to, ok := p.redirects[url]; ok {
		p.location = to
	}
	return nil
}

func (p *fakePage) Location(context.Context) (string, error) { return p.location, nil }

func (p *fakePage) Evaluate(_ context.Context, script string, out any) error {
	switch script {
	case scrollScript:
		p.scrolls++
	case measureScript:
		p.measures++
		m, ok := out.(*pageMetrics)
		if !ok {
			return fmt.Errorf("unexpected measure target %T", out)
		}
		*m = p.metrics()
	default:
		return errors.New("unknown script")
	}
	return nil
}

func (p *fakePage) HTML(context.Context) (string, error) { return p.html(p.location) }

func (p *fakePage) Query(_ context.Context, selector string) ([]browser.Element, error) {
	var out []browser.Element
	for _, e := range p.elements[selector] {
		out = append(out, e)
	}
	return out, nil
}

// songID builds a deterministic identity from a small number.
func songID(n int) string {
	return fmt.Sprintf("%08x-0000-4000-8000-%012x", n, n)
}

// card renders one list-view song card.
func card(n int, extra string) string {
	return fmt.Sprintf(`<div class="song-card"><a href="/song/%s"><img src="/img/%d.jpg"></a>`+
		`<h3 class="title">Song %d</h3><span>%d:%02d</span>%s</div>`, songID(n), n, n, 2+n%3, n%60, extra)
}

// libraryPage renders a grid of cards plus a recommendation rail.
func libraryPage(ids ...int) string {
	var b strings.Builder
	b.WriteString(`<html><body><header><a href="/me">Library</a></header><main class="page-content"><div role="grid" class="library-grid">`)
	for _, n := range ids {
		b.WriteString(card(n, ""))
	}
	b.WriteString(`</div></main><aside><div class="feed-list"><div class="song-card"><a href="/song/` +
		songID(9999) + `">Recommended</a></div></div></aside></body></html>`)
	return b.String()
}

func noSleep(context.Context, time.Duration) error { return nil }

func parseHTML(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}
