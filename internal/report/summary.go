package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/franz/suno-archive/internal/song"
	"github.com/franz/suno-archive/internal/store"
)

// LibraryReport is a snapshot of the catalog for the Markdown report
type LibraryReport struct {
	GeneratedAt  time.Time
	DatabasePath string
	EventLogPath string

	Stats      *store.Statistics
	MostPlayed []store.PlayStat
	Recent     []store.Play
	Playlists  []*store.Playlist
	Duplicates []store.DuplicateGroup
	Lyrics     []store.LyricsGroup
}

// GenerateLibraryReport gathers statistics, play history, playlists and
// duplicate title and lyrics groups from the catalog
func GenerateLibraryReport(ctx context.Context, db *store.Store, eventLogPath string) (*LibraryReport, error) {
	report := &LibraryReport{
		GeneratedAt:  time.Now(),
		EventLogPath: eventLogPath,
	}

	var err error
	if report.Stats, err = db.Statistics(ctx); err != nil {
		return nil, fmt.Errorf("failed to gather statistics: %w", err)
	}
	if report.MostPlayed, err = db.MostPlayed(ctx, 10); err != nil {
		return nil, fmt.Errorf("failed to gather play counts: %w", err)
	}
	if report.Recent, err = db.RecentlyPlayed(ctx, 10); err != nil {
		return nil, fmt.Errorf("failed to gather play history: %w", err)
	}
	if report.Playlists, err = db.Playlists(ctx); err != nil {
		return nil, fmt.Errorf("failed to gather playlists: %w", err)
	}
	if report.Duplicates, err = db.FindDuplicatesByTitle(ctx, store.DefaultDuplicateThreshold); err != nil {
		return nil, fmt.Errorf("failed to find duplicates: %w", err)
	}
	if report.Lyrics, err = db.GroupByLyrics(ctx); err != nil {
		return nil, fmt.Errorf("failed to group lyrics: %w", err)
	}

	return report, nil
}

// WriteMarkdownReport renders the report to outputPath
func WriteMarkdownReport(report *LibraryReport, outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var md strings.Builder
	st := report.Stats

	md.WriteString("# Suno Library Report\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05")))
	if report.DatabasePath != "" {
		md.WriteString(fmt.Sprintf("**Database:** `%s`\n\n", report.DatabasePath))
	}
	if report.EventLogPath != "" {
		md.WriteString(fmt.Sprintf("**Event Log:** `%s`\n\n", report.EventLogPath))
	}
	md.WriteString("---\n\n")

	md.WriteString("## Overview\n\n")
	md.WriteString("| Metric | Value |\n")
	md.WriteString("|--------|-------|\n")
	md.WriteString(fmt.Sprintf("| Songs | %s |\n", humanize.Comma(int64(st.TotalSongs))))
	md.WriteString(fmt.Sprintf("| Total Duration | %s |\n", st.DurationText()))
	md.WriteString(fmt.Sprintf("| Downloaded | %s (%s) |\n", humanize.Comma(int64(st.Downloaded)), humanize.Bytes(uint64(st.DownloadedBytes))))
	md.WriteString(fmt.Sprintf("| Liked / Disliked | %d / %d |\n", st.Liked, st.Disliked))
	md.WriteString(fmt.Sprintf("| Rated | %d |\n", st.Rated))
	if st.Rated > 0 {
		md.WriteString(fmt.Sprintf("| Average Rating | %.1f |\n", st.AverageRating))
	}
	md.WriteString(fmt.Sprintf("| Plays | %s |\n", humanize.Comma(int64(st.TotalPlays))))
	md.WriteString(fmt.Sprintf("| Unique Tags | %d |\n", st.UniqueTags))
	md.WriteString(fmt.Sprintf("| Playlists | %d |\n", st.Playlists))
	md.WriteString("\n")

	if len(st.ByVersion) > 0 {
		md.WriteString("## Model Versions\n\n")
		md.WriteString("| Version | Songs |\n")
		md.WriteString("|---------|-------|\n")
		for _, kv := range sortedCounts(st.ByVersion) {
			name := kv.key
			if name == "" {
				name = "unknown"
			}
			md.WriteString(fmt.Sprintf("| %s | %d |\n", name, kv.count))
		}
		md.WriteString("\n")
	}

	if len(st.TopTags) > 0 {
		md.WriteString("## Top Tags\n\n")
		md.WriteString("| Tag | Songs |\n")
		md.WriteString("|-----|-------|\n")
		for _, tc := range st.TopTags {
			md.WriteString(fmt.Sprintf("| %s | %d |\n", escapeCell(tc.Tag), tc.Count))
		}
		md.WriteString("\n")
	}

	if len(report.MostPlayed) > 0 {
		md.WriteString("## Most Played\n\n")
		for i, ps := range report.MostPlayed {
			md.WriteString(fmt.Sprintf("%d. **%s** by %s (%s)\n", i+1, displayTitle(ps.Title), ps.Artist,
				english.Plural(ps.Plays, "play", "")))
		}
		md.WriteString("\n")
	}

	if len(report.Recent) > 0 {
		md.WriteString("## Recently Played\n\n")
		for _, p := range report.Recent {
			md.WriteString(fmt.Sprintf("- **%s**, %s (%s)\n", displayTitle(p.Title),
				humanize.RelTime(p.PlayedAt, report.GeneratedAt, "ago", "from now"), song.FormatDuration(p.DurationPlayed)))
		}
		md.WriteString("\n")
	}

	if len(report.Playlists) > 0 {
		md.WriteString("## Playlists\n\n")
		md.WriteString("| Playlist | Songs | Updated |\n")
		md.WriteString("|----------|-------|---------|\n")
		for _, p := range report.Playlists {
			md.WriteString(fmt.Sprintf("| %s | %d | %s |\n", escapeCell(p.Name), p.SongCount,
				humanize.RelTime(p.UpdatedAt, report.GeneratedAt, "ago", "from now")))
		}
		md.WriteString("\n")
	}

	if len(report.Duplicates) > 0 {
		md.WriteString("## Possible Duplicates\n\n")
		md.WriteString("*Songs whose titles share most of their words*\n\n")
		for i, group := range report.Duplicates {
			md.WriteString(fmt.Sprintf("### %d. %s\n\n", i+1, displayTitle(group.Songs[0].Title)))
			for _, sg := range group.Songs {
				md.WriteString(fmt.Sprintf("- %s (%s) %s\n", displayTitle(sg.Title), sg.Duration, sg.URL))
			}
			md.WriteString("\n")
		}
	}

	if len(report.Lyrics) > 0 {
		md.WriteString("## Shared Lyrics\n\n")
		for i, group := range report.Lyrics {
			md.WriteString(fmt.Sprintf("### %d. %s\n\n", i+1, english.Plural(len(group.Songs), "song", "")))
			md.WriteString(fmt.Sprintf("> %s\n\n", lyricsSnippet(group.Lyrics)))
			for _, sg := range group.Songs {
				md.WriteString(fmt.Sprintf("- %s (%s) %s\n", displayTitle(sg.Title), sg.Duration, sg.URL))
			}
			md.WriteString("\n")
		}
	}

	md.WriteString("---\n\n")
	md.WriteString("*Generated by sunoarc*\n")

	if err := os.WriteFile(outputPath, []byte(md.String()), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

type keyCount struct {
	key   string
	count int
}

// sortedCounts orders a count map by count descending, then key
func sortedCounts(m map[string]int) []keyCount {
	out := make([]keyCount, 0, len(m))
	for k, v := range m {
		out = append(out, keyCount{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	return out
}

func displayTitle(title string) string {
	if title == "" {
		return "(untitled)"
	}
	return title
}

const snippetRunes = 120

func lyricsSnippet(lyrics string) string {
	r := []rune(lyrics)
	if len(r) <= snippetRunes {
		return lyrics
	}
	return string(r[:snippetRunes]) + "..."
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
