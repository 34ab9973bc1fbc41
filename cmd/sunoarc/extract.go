package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/suno-archive/internal/browser"
	"github.com/franz/suno-archive/internal/extract"
	"github.com/franz/suno-archive/internal/output"
	"github.com/franz/suno-archive/internal/song"
	"github.com/franz/suno-archive/internal/util"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract songs from your Suno library through a logged-in browser",
	Long: `Extract every song in your Suno library.

Before running, start Chrome with remote debugging and log in to suno.com:

  google-chrome --remote-debugging-port=9222

The extraction runs in three phases:
1. Harvest: scrolls and pages through each tab, collecting song cards
2. Detail enrichment: visits each song page to recover lyrics and tags
3. Output: writes the configured formats to the output directory

Each tab is saved to the catalog as soon as it completes, so an interrupted
run keeps its progress. Songs harvested without lyrics keep the lyrics
already stored in the catalog. Use --fast to skip detail enrichment.`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringSlice("tabs", nil, "library tabs to extract (creations, likes)")
	extractCmd.Flags().StringSlice("formats", nil, "output formats (json, csv, md, xlsx)")
	extractCmd.Flags().StringP("output", "o", "", "output directory")
	extractCmd.Flags().Bool("fast", false, "skip detail enrichment")
	extractCmd.Flags().Bool("full", false, "extract both creations and likes")
	extractCmd.Flags().Bool("skip-db", false, "do not save songs to the catalog")
	extractCmd.Flags().Bool("include-disliked", false, "keep songs you marked as disliked")
	extractCmd.Flags().Int("max-pages", 0, "maximum pages per tab")
	extractCmd.Flags().Int("max-scrolls", 0, "maximum scroll iterations per page")
	extractCmd.Flags().String("debug-url", "", "Chrome remote debugging URL")

	viper.BindPFlag("extract.tabs", extractCmd.Flags().Lookup("tabs"))
	viper.BindPFlag("extract.formats", extractCmd.Flags().Lookup("formats"))
	viper.BindPFlag("extract.output_dir", extractCmd.Flags().Lookup("output"))
	viper.BindPFlag("extract.skip_db", extractCmd.Flags().Lookup("skip-db"))
	viper.BindPFlag("extract.max_pages", extractCmd.Flags().Lookup("max-pages"))
	viper.BindPFlag("extract.max_scrolls", extractCmd.Flags().Lookup("max-scrolls"))
	viper.BindPFlag("browser.debug_url", extractCmd.Flags().Lookup("debug-url"))
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	v := viper.GetViper()
	if full, _ := cmd.Flags().GetBool("full"); full {
		v.Set("extract.tabs", []string{"creations", "likes"})
	}
	if fast, _ := cmd.Flags().GetBool("fast"); fast {
		v.Set("extract.details", false)
	}
	if keep, _ := cmd.Flags().GetBool("include-disliked"); keep {
		v.Set("extract.exclude_disliked", false)
	}

	cfg, err := extractConfigFrom(v)
	if err != nil {
		return err
	}
	browserCfg := browserConfigFrom(v)

	util.InfoLog("=== Suno Library Extraction ===")
	util.InfoLog("Tabs: %v", cfg.Tabs)
	util.InfoLog("Formats: %v", cfg.Formats)
	util.InfoLog("Output: %s", cfg.OutputDir)
	if !cfg.ExtractDetails {
		util.InfoLog("Fast mode: detail enrichment disabled")
	}

	var importer extract.Importer
	if !v.GetBool("extract.skip_db") {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()
		importer = db
		util.InfoLog("Catalog: %s", v.GetString("db"))
	}

	logger := newEventLogger()
	defer logger.Close()

	util.InfoLog("Attaching to browser at %s", browserCfg.DebugURL)
	page, err := browser.Connect(ctx, browserCfg)
	if err != nil {
		return err
	}
	defer page.Close()

	startTime := time.Now()
	orchestrator := extract.NewOrchestrator(page, importer, cfg, logger)
	result, err := orchestrator.Run(ctx)
	if err != nil {
		var ee *extract.ExtractionError
		if errors.As(err, &ee) && errors.Is(err, context.Canceled) {
			util.WarnLog("Extraction interrupted during %s", ee.Stage)
		}
		return err
	}

	util.InfoLog("")
	util.SuccessLog("Extraction complete in %v", time.Since(startTime).Round(time.Second))
	util.InfoLog("  Songs: %d", len(result.Records))
	for _, tr := range result.Tabs {
		util.InfoLog("  %s: %d songs, %d pages", tr.Tab, len(tr.Records), tr.Pages)
	}
	if result.Filtered > 0 {
		util.InfoLog("  Disliked excluded: %d", result.Filtered)
	}
	if cfg.ExtractDetails {
		util.InfoLog("  Enriched: %d (%d failed)", result.Enrich.Enriched, result.Enrich.Failed)
	}
	if importer != nil {
		util.InfoLog("  Saved to catalog: %d", result.Imported)
	}

	formats := make([]string, 0, len(result.Outputs))
	for f := range result.Outputs {
		formats = append(formats, string(f))
	}
	sort.Strings(formats)
	for _, f := range formats {
		util.InfoLog("  %s: %s", f, result.Outputs[output.Format(f)])
	}

	if missing := countInvalid(result); missing > 0 {
		util.WarnLog("%d songs are missing a title or identity", missing)
	}
	return nil
}

func countInvalid(result *extract.RunResult) int {
	n := 0
	for _, r := range result.Records {
		if len(song.Validate(r)) > 0 {
			n++
		}
	}
	return n
}
