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

// DefaultDetailDelay is the pause between detail page visits.
const DefaultDetailDelay = 1500 * time.Millisecond

var revealText = regexp.MustCompile(`(?i)^(lyrics|show more|see more|show lyrics|read more)$`)

const revealCSS = `button, [role="tab"], a, div.tab`

// EnrichSummary counts enrichment outcomes.
type EnrichSummary struct {
	Visited  int
	Enriched int // lyrics, description or tags changed
	Failed   int
}

// Enricher visits song detail pages to recover full lyrics and metadata.
type Enricher struct {
	page   browser.Page
	fields *FieldHeuristics
	events *report.EventLogger
	settle time.Duration
	sleep  func(context.Context, time.Duration) error
}

// NewEnricher creates an enricher. settle is the pause after navigation
// and after revealing hidden content.
func NewEnricher(page browser.Page, fields *FieldHeuristics, settle time.Duration, events *report.EventLogger) *Enricher {
	if fields == nil {
		fields = DefaultHeuristics("")
	}
	return &Enricher{
		page:   page,
		fields: fields,
		events: events,
		settle: settle,
		sleep:  util.Sleep,
	}
}

// Enrich visits each record's page and merges what it finds into
// records in place. A failing page is logged and skipped; only context
// cancellation stops the batch.
func (e *Enricher) Enrich(ctx context.Context, records []song.Record, delay time.Duration) (EnrichSummary, error) {
	var summary EnrichSummary

	bar := util.NewProgressBar(len(records), "Enriching", "songs")
	if bar != nil {
		defer bar.Finish()
	}

	for i := range records {
		if i > 0 {
			if err := e.sleep(ctx, delay); err != nil {
				return summary, err
			}
		}

		rec := records[i]
		id, _ := rec.Identity()
		start := time.Now()
		summary.Visited++

		detail, err := e.Visit(ctx, rec.URL)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			summary.Failed++
			util.WarnLog("Could not enrich %q: %v", rec.Title, err)
			e.events.LogEnrich(id, rec.URL, 0, "", time.Since(start), err)
			if bar != nil {
				bar.Add(1)
			}
			continue
		}

		merged := rec.MergeDetail(detail.Record)
		if merged.Lyrics != rec.Lyrics || merged.Description != rec.Description || len(merged.Tags) != len(rec.Tags) {
			summary.Enriched++
		}
		records[i] = merged

		e.events.LogEnrich(id, rec.URL, len(merged.Lyrics), detail.LyricsTier, time.Since(start), nil)
		util.DebugLog("Enriched %q: lyrics %d chars via %q", rec.Title, len(merged.Lyrics), detail.LyricsTier)
		if bar != nil {
			bar.Add(1)
		}
	}

	return summary, nil
}

// Visit loads one detail page and parses it.
func (e *Enricher) Visit(ctx context.Context, url string) (Detail, error) {
	if url == "" {
		return Detail{}, fmt.Errorf("record has no url")
	}
	if err := e.page.Navigate(ctx, url); err != nil {
		return Detail{}, err
	}
	if err := e.sleep(ctx, e.settle); err != nil {
		return Detail{}, err
	}

	if e.reveal(ctx) {
		if err := e.sleep(ctx, e.settle); err != nil {
			return Detail{}, err
		}
	}

	markup, err := e.page.HTML(ctx)
	if err != nil {
		return Detail{}, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return Detail{}, fmt.Errorf("failed to parse detail page: %w", err)
	}
	return ParseDetail(doc, e.fields), nil
}

// reveal clicks the first "Lyrics" / "Show more" control, if any.
func (e *Enricher) reveal(ctx context.Context) bool {
	elements, err := e.page.Query(ctx, revealCSS)
	if err != nil {
		return false
	}
	for _, el := range elements {
		if !textMatches(ctx, el, revealText) || !interactable(ctx, el) {
			continue
		}
		if el.Click(ctx) == nil {
			return true
		}
	}
	return false
}
