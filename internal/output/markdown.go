package output

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/franz/suno-archive/internal/song"
)

var anchorStrip = regexp.MustCompile(`[^a-z0-9 -]`)

// WriteMarkdown renders a readable catalog: summary, table of contents,
// then one section per song.
func WriteMarkdown(w io.Writer, records []song.Record, at time.Time) error {
	bw := bufio.NewWriter(w)

	liked, withLyrics, total := 0, 0, 0
	for _, r := range records {
		if r.Liked {
			liked++
		}
		if r.Lyrics != "" {
			withLyrics++
		}
		total += r.DurationSeconds()
	}

	fmt.Fprintf(bw, "# Suno Song Library\n\n")
	fmt.Fprintf(bw, "- **Extracted:** %s\n", at.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(bw, "- **Songs:** %d\n", len(records))
	fmt.Fprintf(bw, "- **Liked:** %d\n", liked)
	fmt.Fprintf(bw, "- **With lyrics:** %d\n", withLyrics)
	fmt.Fprintf(bw, "- **Total duration:** %s\n\n", song.FormatDuration(total))

	fmt.Fprintf(bw, "## Contents\n\n")
	for i, r := range records {
		fmt.Fprintf(bw, "%d. [%s](#%s)\n", i+1, mdEscape(titleOf(r)), anchor(i+1, r))
	}
	fmt.Fprintln(bw)

	for i, r := range records {
		fmt.Fprintf(bw, "---\n\n## %d. %s\n\n", i+1, mdEscape(titleOf(r)))
		fmt.Fprintf(bw, "| Field | Value |\n|---|---|\n")
		row := func(k, v string) {
			if v != "" {
				fmt.Fprintf(bw, "| %s | %s |\n", k, strings.ReplaceAll(mdEscape(v), "\n", " "))
			}
		}
		row("Artist", r.Artist)
		row("Duration", r.Duration)
		row("Plays", r.Plays)
		row("Likes", r.Likes)
		row("Created", r.CreatedAt)
		row("Tab", r.SourceTab)
		if r.Liked {
			row("Liked", "yes")
		}
		row("URL", r.URL)
		fmt.Fprintln(bw)

		if len(r.Tags) > 0 {
			fmt.Fprintf(bw, "**Tags:** %s\n\n", mdEscape(strings.Join(r.Tags, ", ")))
		}
		if r.Description != "" {
			fmt.Fprintf(bw, "**Description:**\n\n> %s\n\n", strings.ReplaceAll(r.Description, "\n", "\n> "))
		}
		if r.Lyrics != "" {
			fmt.Fprintf(bw, "**Lyrics:**\n\n```\n%s\n```\n\n", strings.ReplaceAll(r.Lyrics, "```", "'''"))
		}
	}

	return bw.Flush()
}

func titleOf(r song.Record) string {
	if r.Title != "" {
		return r.Title
	}
	if id, ok := r.Identity(); ok {
		return id
	}
	return "Untitled"
}

// anchor mirrors the heading slug GitHub generates for "## N. Title".
func anchor(n int, r song.Record) string {
	s := strings.ToLower(fmt.Sprintf("%d. %s", n, titleOf(r)))
	s = anchorStrip.ReplaceAllString(s, "")
	return strings.ReplaceAll(s, " ", "-")
}

func mdEscape(s string) string {
	return strings.NewReplacer("|", `\|`, "[", `\[`, "]", `\]`).Replace(s)
}
