package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/franz/suno-archive/internal/browser"
	"github.com/franz/suno-archive/internal/report"
	"github.com/franz/suno-archive/internal/song"
	"github.com/franz/suno-archive/internal/util"
)

const (
	// DefaultMaxIterations bounds LoadAll against endless lazy loading.
	DefaultMaxIterations = 600
	// StallLimit is the number of consecutive no-growth iterations that ends LoadAll.
	StallLimit = 5
	// DefaultScrollPause is the settle time after each scroll.
	DefaultScrollPause = 1200 * time.Millisecond
)

var (
	loadMoreText   = regexp.MustCompile(`(?i)^(show|load|see) more$|^more$`)
	containerClass = regexp.MustCompile(`(?i)library|grid|list|collection|items|content|scroll|infinite`)
	containerRoles = map[string]bool{"grid": true, "list": true, "feed": true, "rowgroup": true}
	cardClass      = regexp.MustCompile(`(?i)song|track|card|item`)
	testIDSong     = regexp.MustCompile(`(?i)song|track`)
)

const loadMoreCSS = `button, [role="button"], a[role="button"]`

// LoadResult describes how LoadAll finished.
type LoadResult struct {
	Iterations int
	Stalled    bool // true when StallLimit was reached before maxIterations
	Height     int
	Links      int
	Clicks     int
}

// HarvestResult is one harvest pass.
type HarvestResult struct {
	Records []song.Record
	Skipped map[SkipReason]int
}

// Harvester loads and harvests the song collection of the current page.
// It remembers every identity it has emitted so repeated calls only return
// newly appeared songs.
type Harvester struct {
	page   browser.Page
	fields *FieldHeuristics
	events *report.EventLogger
	sleep  func(context.Context, time.Duration) error
	seen   map[string]bool
}

// NewHarvester creates a harvester with an empty seen set.
func NewHarvester(page browser.Page, fields *FieldHeuristics, events *report.EventLogger) *Harvester {
	if fields == nil {
		fields = DefaultHeuristics("")
	}
	return &Harvester{
		page:   page,
		fields: fields,
		events: events,
		sleep:  util.Sleep,
		seen:   make(map[string]bool),
	}
}

// Seen reports whether identity was already emitted by this harvester.
func (h *Harvester) Seen(identity string) bool {
	return h.seen[identity]
}

// SeenCount returns the number of identities emitted so far.
func (h *Harvester) SeenCount() int {
	return len(h.seen)
}

// LoadAll scrolls and clicks "show more" until neither the scroll height
// nor the song link count changes for StallLimit consecutive iterations,
// or maxIterations is reached.
func (h *Harvester) LoadAll(ctx context.Context, maxIterations int, pause time.Duration) (*LoadResult, error) {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	last, err := h.measure(ctx)
	if err != nil {
		return nil, err
	}

	result := &LoadResult{Height: last.Height, Links: last.Links}
	stalls := 0

	for result.Iterations < maxIterations {
		result.Iterations++

		result.Clicks += h.clickLoadMore(ctx)

		if err := h.page.Evaluate(ctx, scrollScript, nil); err != nil {
			return result, fmt.Errorf("scroll failed: %w", err)
		}
		if err := h.sleep(ctx, pause); err != nil {
			return result, err
		}

		cur, err := h.measure(ctx)
		if err != nil {
			return result, err
		}

		if cur.Height == last.Height && cur.Links == last.Links {
			stalls++
			if stalls >= StallLimit {
				result.Stalled = true
				break
			}
		} else {
			stalls = 0
		}
		last = cur
		result.Height, result.Links = cur.Height, cur.Links

		if result.Iterations%25 == 0 {
			util.DebugLog("Loading: %d iterations, %d song links, height %d", result.Iterations, cur.Links, cur.Height)
		}
	}

	util.DebugLog("Load finished after %d iterations (%d links, stalled=%t)", result.Iterations, result.Links, result.Stalled)
	return result, nil
}

func (h *Harvester) measure(ctx context.Context) (pageMetrics, error) {
	var m pageMetrics
	if err := h.page.Evaluate(ctx, measureScript, &m); err != nil {
		return m, fmt.Errorf("measure failed: %w", err)
	}
	return m, nil
}

// clickLoadMore clicks every visible, enabled "show more" control.
// Failures are logged and ignored.
func (h *Harvester) clickLoadMore(ctx context.Context) int {
	elements, err := h.page.Query(ctx, loadMoreCSS)
	if err != nil {
		util.DebugLog("Load-more query failed: %v", err)
		return 0
	}

	clicks := 0
	for _, el := range elements {
		if !textMatches(ctx, el, loadMoreText) || !interactable(ctx, el) {
			continue
		}
		if err := el.Click(ctx); err != nil {
			util.DebugLog("Load-more click failed: %v", err)
			continue
		}
		clicks++
	}
	return clicks
}

// HarvestVisible extracts every song in the collection container that this
// harvester has not emitted before.
func (h *Harvester) HarvestVisible(ctx context.Context) (*HarvestResult, error) {
	markup, err := h.page.HTML(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	scope := collectionScope(doc)
	result := &HarvestResult{Skipped: make(map[SkipReason]int)}

	for _, frag := range candidateFragments(scope) {
		rec, reason := h.fields.Extract(frag)
		if reason == SkipNone {
			id, _ := rec.Identity()
			if h.seen[id] {
				reason = SkipSeen
			} else {
				h.seen[id] = true
				result.Records = append(result.Records, rec)
				continue
			}
		}
		result.Skipped[reason]++
		h.events.LogSkip("", rec.URL, string(reason))
	}

	return result, nil
}

// collectionScope picks the container holding the most song links among
// list/grid-like candidates. Ties go to the more deeply nested container.
// The body is used instead when no candidate holds at least half of the
// page's distinct song links, e.g. a classed rail beside an unclassed list.
func collectionScope(doc *goquery.Document) *goquery.Selection {
	body := doc.Find("body")
	total := len(songIdentities(body))

	var best *goquery.Selection
	bestCount := 0

	doc.Find("div, main, section, ul, ol").Each(func(_ int, s *goquery.Selection) {
		role, _ := s.Attr("role")
		if !containerRoles[strings.ToLower(role)] && !classMatches(s, containerClass) {
			return
		}
		n := len(songIdentities(s))
		if n == 0 {
			return
		}
		if n > bestCount || (n == bestCount && best != nil && isDescendant(s.Nodes[0], best.Nodes[0])) {
			best, bestCount = s, n
		}
	})

	if best == nil || bestCount*2 < total {
		return body
	}
	return best
}

// candidateFragments returns the first selector group that yields at least
// one single-song fragment: card-like classes, articles, song test ids,
// then bare song links.
func candidateFragments(scope *goquery.Selection) []*goquery.Selection {
	groups := []func() *goquery.Selection{
		func() *goquery.Selection {
			return scope.Find("div, li, article, a").FilterFunction(func(_ int, s *goquery.Selection) bool {
				return classMatches(s, cardClass)
			})
		},
		func() *goquery.Selection { return scope.Find("article") },
		func() *goquery.Selection {
			return scope.Find("[data-testid]").FilterFunction(func(_ int, s *goquery.Selection) bool {
				return attrMatches(s, testIDSong, "data-testid")
			})
		},
		func() *goquery.Selection { return scope.Find(songLinkCSS) },
	}

	for _, group := range groups {
		var frags []*goquery.Selection
		single := false
		group().Each(func(_ int, s *goquery.Selection) {
			n := len(songIdentities(s))
			if n == 0 {
				return
			}
			if n == 1 {
				single = true
			}
			frags = append(frags, s)
		})
		if single {
			return frags
		}
	}
	return nil
}

func textMatches(ctx context.Context, el browser.Element, re *regexp.Regexp) bool {
	text, err := el.Text(ctx)
	if err != nil {
		return false
	}
	return re.MatchString(strings.TrimSpace(spaceRun.ReplaceAllString(text, " ")))
}

func interactable(ctx context.Context, el browser.Element) bool {
	visible, err := el.Visible(ctx)
	if err != nil || !visible {
		return false
	}
	enabled, err := el.Enabled(ctx)
	return err == nil && enabled
}
