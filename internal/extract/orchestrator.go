package extract

import (
	"context"
	"errors"
	"time"

	"github.com/franz/suno-archive/internal/browser"
	"github.com/franz/suno-archive/internal/output"
	"github.com/franz/suno-archive/internal/report"
	"github.com/franz/suno-archive/internal/song"
	"github.com/franz/suno-archive/internal/util"
)

// Importer persists record batches. *store.Store satisfies it.
type Importer interface {
	ImportBatch(ctx context.Context, records []song.Record) (int, error)
}

// LyricsSource is implemented by importers that can report lyrics already
// stored for a song. Records harvested without lyrics take the stored text
// before they are imported.
type LyricsSource interface {
	StoredLyrics(ctx context.Context, ids []string) (map[string]string, error)
}

// Config holds extraction run settings
type Config struct {
	BaseURL         string
	Tabs            []string
	ExtractDetails  bool
	ExcludeDisliked bool
	Formats         []output.Format
	OutputDir       string
	MaxScrolls      int
	MaxPages        int
	ScrollPause     time.Duration
	DetailDelay     time.Duration
	Settle          time.Duration
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         song.DefaultBaseURL,
		Tabs:            []string{"creations"},
		ExtractDetails:  true,
		ExcludeDisliked: true,
		Formats:         []output.Format{output.FormatJSON, output.FormatCSV, output.FormatMarkdown},
		OutputDir:       "suno_songs",
		MaxScrolls:      DefaultMaxIterations,
		MaxPages:        DefaultMaxPages,
		ScrollPause:     DefaultScrollPause,
		DetailDelay:     DefaultDetailDelay,
		Settle:          2 * time.Second,
	}
}

// RunResult summarizes an extraction run.
type RunResult struct {
	Outputs  map[output.Format]string
	Records  []song.Record
	Tabs     []*TabResult
	Filtered int
	Imported int
	Enrich   EnrichSummary
}

// Orchestrator sequences tabs, filtering, enrichment, persistence and
// output for one browser page.
type Orchestrator struct {
	page     browser.Page
	importer Importer
	events   *report.EventLogger
	config   *Config
	fields   *FieldHeuristics
	now      func() time.Time
}

// NewOrchestrator wires a run. importer may be nil to skip persistence.
func NewOrchestrator(page browser.Page, importer Importer, cfg *Config, events *report.EventLogger) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if len(cfg.Tabs) == 0 {
		cfg.Tabs = []string{"creations"}
	}
	return &Orchestrator{
		page:     page,
		importer: importer,
		events:   events,
		config:   cfg,
		fields:   DefaultHeuristics(cfg.BaseURL),
		now:      time.Now,
	}
}

// Run extracts every configured tab. Zero songs is a successful run with
// no outputs. Harvesting failures abort with an *ExtractionError.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	cfg := o.config
	result := &RunResult{Outputs: map[output.Format]string{}}

	harvester := NewHarvester(o.page, o.fields, o.events)
	paginator := NewPaginator(o.page, harvester, PaginatorConfig{
		BaseURL:     cfg.BaseURL,
		MaxScrolls:  cfg.MaxScrolls,
		ScrollPause: cfg.ScrollPause,
		Settle:      cfg.Settle,
	}, o.events)

	util.PhaseLog(1, "Harvest")
	tabImported := 0
	for _, tab := range cfg.Tabs {
		util.InfoLog("Extracting tab: %s", tab)
		if err := paginator.OpenTab(ctx, tab); err != nil {
			return result, o.fail("harvest", tab, err)
		}
		tr, err := paginator.ExtractTab(ctx, tab, cfg.MaxPages)
		if err != nil {
			return result, o.fail("harvest", tab, err)
		}
		result.Tabs = append(result.Tabs, tr)
		util.SuccessLog("Tab %s: %d songs over %d pages (%s)", tab, len(tr.Records), tr.Pages, tr.StopReason)

		kept := tr.Records
		if cfg.ExcludeDisliked {
			kept = withoutDisliked(tr.Records)
			result.Filtered += len(tr.Records) - len(kept)
		}
		o.restoreLyrics(ctx, kept)
		result.Records = append(result.Records, kept...)

		// Persist each tab as it completes so an interrupted run keeps its progress.
		tabImported += o.persist(ctx, tab, kept)
	}

	if cfg.ExcludeDisliked {
		if result.Filtered > 0 {
			util.InfoLog("Excluded %d disliked songs", result.Filtered)
		}
		o.events.LogFilter("disliked", result.Filtered)
	}

	if len(result.Records) == 0 {
		util.WarnLog("No songs found. Make sure you are logged in and the library page loads in the browser.")
		return result, nil
	}

	if cfg.ExtractDetails {
		util.PhaseLog(2, "Detail enrichment")
		enricher := NewEnricher(o.page, o.fields, cfg.Settle, o.events)
		summary, err := enricher.Enrich(ctx, result.Records, cfg.DetailDelay)
		result.Enrich = summary
		if err != nil {
			return result, o.fail("enrich", "", err)
		}
		util.SuccessLog("Enriched %d of %d songs (%d failed)", summary.Enriched, summary.Visited, summary.Failed)
		result.Imported = o.persist(ctx, "", result.Records)
	} else {
		result.Imported = tabImported
	}

	util.PhaseLog(3, "Output")
	paths, err := output.Write(cfg.OutputDir, result.Records, cfg.Formats, o.now())
	for f, p := range paths {
		result.Outputs[f] = p
		o.events.LogOutput(string(f), p, len(result.Records))
		util.SuccessLog("Wrote %s: %s", f, p)
	}
	if err != nil {
		return result, o.fail("output", "", err)
	}

	return result, nil
}

// persist imports records when an importer is configured. Store errors are
// logged and do not abort the run.
func (o *Orchestrator) persist(ctx context.Context, tab string, records []song.Record) int {
	if o.importer == nil || len(records) == 0 {
		return 0
	}
	n, err := o.importer.ImportBatch(ctx, records)
	o.events.LogImport(tab, n, len(records), err)
	if err != nil {
		util.ErrorLog("Import failed: %v", err)
		return n
	}
	util.DebugLog("Imported %d of %d songs into catalog", n, len(records))
	return n
}

// restoreLyrics copies stored lyrics into records that have none.
func (o *Orchestrator) restoreLyrics(ctx context.Context, records []song.Record) {
	src, ok := o.importer.(LyricsSource)
	if !ok || len(records) == 0 {
		return
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if id, ok := r.Identity(); ok && r.Lyrics == "" {
			ids = append(ids, id)
		}
	}
	stored, err := src.StoredLyrics(ctx, ids)
	if err != nil {
		util.WarnLog("Could not read stored lyrics: %v", err)
		return
	}
	restored := 0
	for i := range records {
		id, ok := records[i].Identity()
		if !ok || records[i].Lyrics != "" {
			continue
		}
		if lyrics, ok := stored[id]; ok {
			records[i].Lyrics = lyrics
			restored++
		}
	}
	if restored > 0 {
		util.DebugLog("Kept stored lyrics for %d songs", restored)
	}
}

func withoutDisliked(records []song.Record) []song.Record {
	kept := make([]song.Record, 0, len(records))
	for _, r := range records {
		if !r.Disliked {
			kept = append(kept, r)
		}
	}
	return kept
}

func (o *Orchestrator) fail(stage, tab string, err error) error {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return err
	}
	o.events.LogError(report.EventError, tab, err)
	return &ExtractionError{Stage: stage, Tab: tab, Cause: err}
}
