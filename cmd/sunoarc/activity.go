package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/franz/suno-archive/internal/song"
	"github.com/franz/suno-archive/internal/store"
	"github.com/franz/suno-archive/internal/util"
)

var rateCmd = &cobra.Command{
	Use:   "rate <song-id|url> <1-5>",
	Short: "Rate a song from 1 to 5 stars",
	Args:  cobra.ExactArgs(2),
	RunE:  runRate,
}

var playCmd = &cobra.Command{
	Use:   "play <song-id|url>",
	Short: "Record that a song was played",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlay,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently played or most played songs",
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(rateCmd, playCmd, historyCmd)

	playCmd.Flags().Int("seconds", 0, "seconds listened (default: whole song)")
	playCmd.Flags().Bool("completed", false, "mark the play as completed")

	historyCmd.Flags().Bool("most", false, "show most played songs instead of recent plays")
	historyCmd.Flags().Int("limit", 20, "maximum entries")
}

func runRate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	id, err := resolveSongID(args[0])
	if err != nil {
		return err
	}
	rating, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("rating must be a number from %d to %d", store.MinRating, store.MaxRating)
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.RateSong(ctx, id, rating); err != nil {
		return err
	}
	util.SuccessLog("Rated %s: %d/%d", id, rating, store.MaxRating)
	return nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	id, err := resolveSongID(args[0])
	if err != nil {
		return err
	}
	seconds, _ := cmd.Flags().GetInt("seconds")
	completed, _ := cmd.Flags().GetBool("completed")

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
	if seconds <= 0 {
		seconds = sg.DurationSeconds
		completed = true
	}

	ok, err := db.RecordPlay(ctx, id, seconds, completed)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("song %s: %w", id, util.ErrNotFound)
	}

	plays, _ := db.PlayCount(ctx, id)
	util.SuccessLog("Played %s (%s), %d plays total", displayTitle(sg.Title), song.FormatDuration(seconds), plays)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	most, _ := cmd.Flags().GetBool("most")
	limit, _ := cmd.Flags().GetInt("limit")

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	if most {
		stats, err := db.MostPlayed(ctx, limit)
		if err != nil {
			return err
		}
		if len(stats) == 0 {
			util.InfoLog("No plays recorded yet")
			return nil
		}
		fmt.Fprintln(tw, "PLAYS\tTITLE\tARTIST\tID")
		for _, ps := range stats {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", ps.Plays, truncate(displayTitle(ps.Title), 40), ps.Artist, ps.SongID)
		}
		return nil
	}

	plays, err := db.RecentlyPlayed(ctx, limit)
	if err != nil {
		return err
	}
	if len(plays) == 0 {
		util.InfoLog("No plays recorded yet")
		return nil
	}
	fmt.Fprintln(tw, "PLAYED\tTITLE\tLISTENED\tCOMPLETED")
	for _, p := range plays {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", formatWhen(p.PlayedAt), truncate(displayTitle(p.Title), 40),
			song.FormatDuration(p.DurationPlayed), p.Completed)
	}
	return nil
}
