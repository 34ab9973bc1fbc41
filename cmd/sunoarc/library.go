package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/franz/suno-archive/internal/output"
	"github.com/franz/suno-archive/internal/song"
	"github.com/franz/suno-archive/internal/store"
	"github.com/franz/suno-archive/internal/util"
)

var importCmd = &cobra.Command{
	Use:   "import <json-file>",
	Short: "Import an extraction JSON file into the catalog",
	Long: `Import songs from a JSON file written by 'sunoarc extract'.

Songs already in the catalog are updated in place; importing the same
file twice leaves the catalog unchanged.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List songs in the catalog",
	RunE:  runList,
}

var showSongCmd = &cobra.Command{
	Use:   "show <song-id|url>",
	Short: "Show one song with its lyrics, rating and plays",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowSong,
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search songs by title, artist, lyrics, description or tags",
	Long: `Search the catalog with a case-insensitive substring match.

Use --fields to restrict the search (title, artist, lyrics, description,
tags) or --tag to list every song carrying one tag.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(importCmd, listCmd, showSongCmd, searchCmd, statsCmd)

	listCmd.Flags().Int("limit", 50, "maximum songs to list (0 = all)")
	listCmd.Flags().Int("offset", 0, "songs to skip")

	searchCmd.Flags().StringSlice("fields", nil, "fields to search (default all)")
	searchCmd.Flags().String("tag", "", "list songs with this tag")
	searchCmd.Flags().Int("limit", 50, "maximum results")
}

// resolveSongID accepts a bare identity or any URL containing one.
func resolveSongID(arg string) (string, error) {
	id, ok := song.ParseIdentity(strings.ToLower(arg))
	if !ok {
		return "", fmt.Errorf("%w: %q", util.ErrInvalidIdentity, arg)
	}
	return id, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	doc, err := output.ReadJSON(args[0])
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	logger := newEventLogger()
	defer logger.Close()

	util.InfoLog("Importing %d songs from %s", len(doc.Songs), args[0])
	n, err := db.ImportBatch(ctx, doc.Songs)
	logger.LogImport("", n, len(doc.Songs), err)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if skipped := len(doc.Songs) - n; skipped > 0 {
		util.WarnLog("Skipped %d songs without a valid identity", skipped)
	}
	total, _ := db.CountSongs(ctx)
	util.SuccessLog("Imported %d songs (catalog now has %s)", n, humanize.Comma(int64(total)))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	songs, err := db.ListSongs(ctx, limit, offset)
	if err != nil {
		return err
	}
	total, err := db.CountSongs(ctx)
	if err != nil {
		return err
	}

	if len(songs) == 0 {
		util.WarnLog("No songs found. Run 'sunoarc extract' or 'sunoarc import' first.")
		return nil
	}

	printSongTable(songs)
	util.InfoLog("Showing %d of %s songs", len(songs), humanize.Comma(int64(total)))
	return nil
}

func runShowSong(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	id, err := resolveSongID(args[0])
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	sg, err := db.GetSong(ctx, id)
	if err != nil {
		return err
	}
	if sg == nil {
		return fmt.Errorf("song %s: %w", id, util.ErrNotFound)
	}
	rating, err := db.GetRating(ctx, id)
	if err != nil {
		return err
	}
	plays, err := db.PlayCount(ctx, id)
	if err != nil {
		return err
	}

	printSongDetail(os.Stdout, sg, rating, plays)
	return nil
}

func printSongDetail(w io.Writer, sg *store.Song, rating, plays int) {
	fmt.Fprintf(w, "%s\n", displayTitle(sg.Title))
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", len([]rune(displayTitle(sg.Title)))))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(tw, "%s\t%s\n", label, value)
		}
	}
	row("ID", sg.ID)
	row("Artist", sg.Artist)
	row("Duration", sg.Duration)
	row("Version", sg.Version)
	row("Tags", strings.Join(sg.Tags, ", "))
	row("Created", sg.CreatedAt)
	row("Plays (site)", sg.Plays)
	row("Likes (site)", sg.Likes)
	row("Tab", sg.SourceTab)
	row("URL", sg.URL)
	if rating > 0 {
		row("Rating", strings.Repeat("★", rating)+strings.Repeat("☆", store.MaxRating-rating))
	}
	row("Local plays", fmt.Sprintf("%d", plays))
	if sg.LocalAudioPath != "" {
		row("File", fmt.Sprintf("%s (%s, %s)", sg.LocalAudioPath, sg.AudioFormat, humanize.Bytes(uint64(sg.FileSize))))
	}
	row("Extracted", humanize.Time(sg.ExtractedAt))
	tw.Flush()

	if sg.Description != "" {
		fmt.Fprintf(w, "\nDescription:\n%s\n", sg.Description)
	}
	if sg.Lyrics != "" {
		fmt.Fprintf(w, "\nLyrics:\n%s\n", sg.Lyrics)
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	fields, _ := cmd.Flags().GetStringSlice("fields")
	tag, _ := cmd.Flags().GetString("tag")
	limit, _ := cmd.Flags().GetInt("limit")

	if len(args) == 0 && tag == "" {
		return fmt.Errorf("a search query or --tag is required")
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	var songs []*store.Song
	if tag != "" {
		songs, err = db.SongsByTag(ctx, tag)
	} else {
		songs, err = db.Search(ctx, args[0], fields, limit)
	}
	if err != nil {
		return err
	}

	if len(songs) == 0 {
		util.InfoLog("No matching songs")
		return nil
	}
	printSongTable(songs)
	util.InfoLog("%d matching songs", len(songs))
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	st, err := db.Statistics(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Songs\t%s\n", humanize.Comma(int64(st.TotalSongs)))
	fmt.Fprintf(tw, "Total duration\t%s\n", st.DurationText())
	fmt.Fprintf(tw, "Downloaded\t%s (%s)\n", humanize.Comma(int64(st.Downloaded)), humanize.Bytes(uint64(st.DownloadedBytes)))
	fmt.Fprintf(tw, "Liked / disliked\t%d / %d\n", st.Liked, st.Disliked)
	if st.Rated > 0 {
		fmt.Fprintf(tw, "Rated\t%d (average %.1f)\n", st.Rated, st.AverageRating)
	} else {
		fmt.Fprintf(tw, "Rated\t0\n")
	}
	fmt.Fprintf(tw, "Plays\t%s\n", humanize.Comma(int64(st.TotalPlays)))
	fmt.Fprintf(tw, "Unique tags\t%d\n", st.UniqueTags)
	fmt.Fprintf(tw, "Playlists\t%d\n", st.Playlists)
	for _, tab := range sortedKeys(st.BySourceTab) {
		fmt.Fprintf(tw, "Tab %s\t%d\n", orUnknown(tab), st.BySourceTab[tab])
	}
	for _, version := range sortedKeys(st.ByVersion) {
		fmt.Fprintf(tw, "Version %s\t%d\n", orUnknown(version), st.ByVersion[version])
	}
	tw.Flush()

	if len(st.TopTags) > 0 {
		fmt.Println("\nTop tags:")
		for _, tc := range st.TopTags {
			fmt.Printf("  %-24s %d\n", tc.Tag, tc.Count)
		}
	}
	return nil
}

func printSongTable(songs []*store.Song) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tARTIST\tDURATION\tTAGS")
	for _, sg := range songs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			sg.ID, truncate(displayTitle(sg.Title), 40), truncate(sg.Artist, 20), sg.Duration,
			truncate(strings.Join(sg.Tags, ", "), 40))
	}
	tw.Flush()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func displayTitle(title string) string {
	if title == "" {
		return "(untitled)"
	}
	return title
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func formatWhen(t time.Time) string {
	return fmt.Sprintf("%s (%s)", t.Local().Format("2006-01-02 15:04"), humanize.Time(t))
}
