package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/suno-archive/internal/report"
	"github.com/franz/suno-archive/internal/scan"
	"github.com/franz/suno-archive/internal/util"
)

var linkCmd = &cobra.Command{
	Use:   "link <dir>",
	Short: "Link downloaded audio files to songs in the catalog",
	Long: `Walk a directory of downloaded audio files and record each file's
path, size and format on the matching song.

A file is matched by, in order:
1. the song id in its file name
2. its title and artist tags
3. a file name equal to the song title`,
	Args: cobra.ExactArgs(1),
	RunE: runLink,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a Markdown report of the catalog",
	Long: `Generate a Markdown report with statistics, top tags, play history,
playlists and songs with near-identical titles.

The report is saved to <artifacts>/reports/<timestamp>/library.md`,
	RunE: runReport,
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a consistent copy of the catalog database",
	RunE:  runBackup,
}

var exportCmd = &cobra.Command{
	Use:   "export <json-file>",
	Short: "Export the catalog as an extraction JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(linkCmd, reportCmd, backupCmd, exportCmd)

	linkCmd.Flags().Int("concurrency", 0, "files read in parallel")
	linkCmd.Flags().StringSlice("ext", nil, "additional audio extensions")
	viper.BindPFlag("link.concurrency", linkCmd.Flags().Lookup("concurrency"))

	reportCmd.Flags().String("out", "", "output directory for report (default: <artifacts>/reports/<timestamp>)")
	reportCmd.Flags().String("event-log", "", "path to an event log to reference (optional)")

	backupCmd.Flags().String("dir", "", "backup directory")
	viper.BindPFlag("backup.dir", backupCmd.Flags().Lookup("dir"))
}

func runLink(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	dir := args[0]
	extraExts, _ := cmd.Flags().GetStringSlice("ext")

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	logger := newEventLogger()
	defer logger.Close()

	concurrency := GetConfigInt(viper.GetViper(), "link.concurrency", 4)
	util.InfoLog("=== Linking Audio Files ===")
	util.InfoLog("Directory: %s", dir)
	util.InfoLog("Concurrency: %d", concurrency)

	linker := scan.New(&scan.Config{
		Store:          db,
		AdditionalExts: extraExts,
		Concurrency:    concurrency,
		Logger:         logger,
	})

	startTime := time.Now()
	result, err := linker.Link(ctx, dir)
	if err != nil {
		return fmt.Errorf("link failed: %w", err)
	}

	util.SuccessLog("Linking complete in %v", time.Since(startTime).Round(time.Millisecond))
	util.InfoLog("  Audio files: %d", result.FilesFound)
	util.InfoLog("  Linked: %d", result.Linked)
	if len(result.Unmatched) > 0 {
		util.WarnLog("  Unmatched: %d", len(result.Unmatched))
		for _, p := range result.Unmatched {
			util.DebugLog("    %s", p)
		}
	}
	if len(result.Duplicates) > 0 {
		util.WarnLog("  Second copies ignored: %d", len(result.Duplicates))
	}
	if len(result.Errors) > 0 {
		util.WarnLog("  Errors: %d", len(result.Errors))
		for _, e := range result.Errors {
			util.DebugLog("    %v", e)
		}
	}
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	dbPath := viper.GetString("db")

	util.InfoLog("=== Generating Library Report ===")
	util.InfoLog("Database: %s", dbPath)

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	eventLogPath, _ := cmd.Flags().GetString("event-log")

	util.InfoLog("Analyzing catalog...")
	libraryReport, err := report.GenerateLibraryReport(ctx, db, eventLogPath)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}
	libraryReport.DatabasePath = dbPath

	outputDir, _ := cmd.Flags().GetString("out")
	if outputDir == "" {
		timestamp := time.Now().Format("20060102-150405")
		outputDir = filepath.Join(viper.GetString("artifacts"), "reports", timestamp)
	}
	outputPath := filepath.Join(outputDir, "library.md")

	util.InfoLog("Writing report to: %s", outputPath)
	if err := report.WriteMarkdownReport(libraryReport, outputPath); err != nil {
		return err
	}

	st := libraryReport.Stats
	util.SuccessLog("Report generated successfully!")
	util.InfoLog("  Songs: %s (%s)", humanize.Comma(int64(st.TotalSongs)), st.DurationText())
	util.InfoLog("  Plays: %s", humanize.Comma(int64(st.TotalPlays)))
	if len(libraryReport.Duplicates) > 0 {
		util.InfoLog("  Possible duplicate groups: %d", len(libraryReport.Duplicates))
	}
	return nil
}

func runBackup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	dir := GetConfigString(viper.GetViper(), "backup.dir", "backups")

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	path, err := db.Backup(ctx, dir, time.Now())
	if err != nil {
		return err
	}

	size := ""
	if info, err := os.Stat(path); err == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}
	util.SuccessLog("Backup written: %s (%s)", path, size)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := db.ExportJSON(ctx, args[0], time.Now())
	if err != nil {
		return err
	}
	util.SuccessLog("Exported %d songs to %s", n, args[0])
	return nil
}
