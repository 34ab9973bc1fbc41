package extract

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/franz/suno-archive/internal/browser"
	"github.com/franz/suno-archive/internal/report"
	"github.com/franz/suno-archive/internal/song"
	"github.com/franz/suno-archive/internal/util"
)

// DefaultMaxPages bounds pagination per tab.
const DefaultMaxPages = 50

// Stop reasons reported by ExtractTab.
const (
	StopEmpty     = "empty"     // a harvest produced no new records
	StopNoGrowth  = "no-growth" // running identity set did not grow after a transition
	StopNoNext    = "no-next"   // no next-page control could be clicked
	StopUnchanged = "unchanged" // link set identical before and after the click
	StopMaxPages  = "max-pages" // page bound reached
)

// nextPageCSS lists next-page controls by accessible label, test id and rel.
var nextPageCSS = []string{
	`button[aria-label*="next" i]`,
	`a[aria-label*="next" i]`,
	`[data-testid*="next" i]`,
	`a[rel="next"]`,
}

// nextPageGlyphs are control texts that mean "next page".
var nextPageGlyphs = regexp.MustCompile(`(?i)^(›|»|→|>|next|next page)$`)

// signInPaths mark URLs the site redirects to when the session has expired.
var signInPaths = []string{"/sign-in", "/signin", "/login"}

const glyphCSS = `button, a, [role="button"]`

// tabLabels maps a tab to the labels its navigation control may carry.
var tabLabels = map[string][]string{
	"likes":     {"Likes", "Liked", "Favorites"},
	"creations": {"Creations", "Created", "My Songs", "My Creations"},
}

// TabResult is the outcome of paginating one tab.
type TabResult struct {
	Tab        string
	Records    []song.Record
	Pages      int
	StopReason string
}

// Paginator drives a Harvester across the pages of a library tab.
type Paginator struct {
	page        browser.Page
	harvester   *Harvester
	events      *report.EventLogger
	baseURL     string
	maxScrolls  int
	scrollPause time.Duration
	settle      time.Duration
	sleep       func(context.Context, time.Duration) error
}

// PaginatorConfig holds pagination settings
type PaginatorConfig struct {
	BaseURL     string
	MaxScrolls  int
	ScrollPause time.Duration
	Settle      time.Duration // pause after navigation and page clicks
}

// NewPaginator creates a paginator sharing h's seen set.
func NewPaginator(page browser.Page, h *Harvester, cfg PaginatorConfig, events *report.EventLogger) *Paginator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = song.DefaultBaseURL
	}
	return &Paginator{
		page:        page,
		harvester:   h,
		events:      events,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		maxScrolls:  cfg.MaxScrolls,
		scrollPause: cfg.ScrollPause,
		settle:      cfg.Settle,
		sleep:       util.Sleep,
	}
}

// TabURL returns the library URL for a tab.
func (p *Paginator) TabURL(tab string) string {
	return p.baseURL + "/me?tab=" + url.QueryEscape(tab)
}

// OpenTab navigates to the tab URL and clicks its tab control when one is
// present. A missing control is not an error.
func (p *Paginator) OpenTab(ctx context.Context, tab string) error {
	if err := p.page.Navigate(ctx, p.TabURL(tab)); err != nil {
		return err
	}
	if err := p.sleep(ctx, p.settle); err != nil {
		return err
	}
	if err := p.checkLocation(ctx); err != nil {
		return err
	}

	labels := tabLabels[strings.ToLower(tab)]
	if len(labels) == 0 {
		labels = []string{tab}
	}
	pattern := make([]string, len(labels))
	for i, l := range labels {
		pattern[i] = regexp.QuoteMeta(l)
	}
	re := regexp.MustCompile(`(?i)^(` + strings.Join(pattern, "|") + `)\b`)

	elements, err := p.page.Query(ctx, `button, a, [role="tab"], div.tab`)
	if err != nil {
		util.DebugLog("Tab control query failed: %v", err)
		return nil
	}
	for _, el := range elements {
		if !textMatches(ctx, el, re) || !interactable(ctx, el) {
			continue
		}
		if err := el.Click(ctx); err != nil {
			util.DebugLog("Tab control click failed: %v", err)
			continue
		}
		util.DebugLog("Clicked %s tab control", tab)
		return p.sleep(ctx, p.settle)
	}
	util.DebugLog("No %s tab control found; relying on URL", tab)
	return nil
}

// checkLocation fails when navigation landed on a sign-in page.
func (p *Paginator) checkLocation(ctx context.Context) error {
	loc, err := p.page.Location(ctx)
	if err != nil {
		util.DebugLog("Could not read tab location: %v", err)
		return nil
	}
	util.DebugLog("Tab location: %s", loc)
	u, err := url.Parse(loc)
	if err != nil {
		return nil
	}
	path := strings.ToLower(u.Path)
	for _, marker := range signInPaths {
		if strings.Contains(path, marker) {
			return fmt.Errorf("%w: redirected to %s", util.ErrSignedOut, loc)
		}
	}
	return nil
}

// ExtractTab harvests every page of the current tab. Each record is tagged
// with tab. Stops when a harvest yields nothing new, when the running
// identity set stops growing, when no next control can be clicked, when
// the link set is unchanged across a click, or after maxPages.
func (p *Paginator) ExtractTab(ctx context.Context, tab string, maxPages int) (*TabResult, error) {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	result := &TabResult{Tab: tab, StopReason: StopMaxPages}
	total := make(map[string]bool)

	for pageNum := 1; pageNum <= maxPages; pageNum++ {
		if _, err := p.harvester.LoadAll(ctx, p.maxScrolls, p.scrollPause); err != nil {
			return result, fmt.Errorf("loading page %d: %w", pageNum, err)
		}
		harvest, err := p.harvester.HarvestVisible(ctx)
		if err != nil {
			return result, fmt.Errorf("harvesting page %d: %w", pageNum, err)
		}
		result.Pages = pageNum

		skipped := make(map[string]int, len(harvest.Skipped))
		for reason, n := range harvest.Skipped {
			skipped[string(reason)] = n
		}
		p.events.LogHarvest(tab, pageNum, len(harvest.Records), skipped)

		if len(harvest.Records) == 0 {
			result.StopReason = StopEmpty
			break
		}

		before := len(total)
		for _, rec := range harvest.Records {
			rec.SourceTab = tab
			id, _ := rec.Identity()
			total[id] = true
			result.Records = append(result.Records, rec)
		}
		util.InfoLog("  %s page %d: %d new songs (%d total)", tab, pageNum, len(harvest.Records), len(total))

		if pageNum > 1 && len(total) == before {
			result.StopReason = StopNoGrowth
			break
		}
		if pageNum == maxPages {
			break
		}

		linksBefore, err := p.linkSet(ctx)
		if err != nil {
			return result, err
		}
		if !p.clickNext(ctx) {
			result.StopReason = StopNoNext
			break
		}
		if err := p.sleep(ctx, p.settle); err != nil {
			return result, err
		}
		linksAfter, err := p.linkSet(ctx)
		if err != nil {
			return result, err
		}
		if sameSet(linksBefore, linksAfter) {
			result.StopReason = StopUnchanged
			break
		}
	}

	p.events.LogPage(tab, result.Pages, result.StopReason)
	util.DebugLog("Tab %s stopped after %d pages: %s", tab, result.Pages, result.StopReason)
	return result, nil
}

// clickNext clicks the first interactable next-page control.
func (p *Paginator) clickNext(ctx context.Context) bool {
	for _, css := range nextPageCSS {
		elements, err := p.page.Query(ctx, css)
		if err != nil {
			continue
		}
		for _, el := range elements {
			if interactable(ctx, el) && el.Click(ctx) == nil {
				return true
			}
		}
	}

	elements, err := p.page.Query(ctx, glyphCSS)
	if err != nil {
		return false
	}
	for _, el := range elements {
		if !textMatches(ctx, el, nextPageGlyphs) || !interactable(ctx, el) {
			continue
		}
		if el.Click(ctx) == nil {
			return true
		}
	}
	return false
}

// linkSet snapshots the identities of every song link in the document.
func (p *Paginator) linkSet(ctx context.Context) (map[string]bool, error) {
	markup, err := p.page.HTML(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	set := make(map[string]bool)
	for _, id := range songIdentities(doc.Selection) {
		set[id] = true
	}
	return set, nil
}

func sameSet(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
