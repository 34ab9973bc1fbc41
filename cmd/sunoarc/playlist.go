package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/franz/suno-archive/internal/store"
	"github.com/franz/suno-archive/internal/util"
)

var playlistCmd = &cobra.Command{
	Use:   "playlist",
	Short: "Create and browse playlists",
}

var playlistCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a playlist",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlaylistCreate,
}

var playlistAddCmd = &cobra.Command{
	Use:   "add <playlist> <song-id|url>...",
	Short: "Append songs to a playlist",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runPlaylistAdd,
}

var playlistShowCmd = &cobra.Command{
	Use:   "show <playlist>",
	Short: "Show the songs in a playlist",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlaylistShow,
}

var playlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List playlists",
	Args:  cobra.NoArgs,
	RunE:  runPlaylistList,
}

func init() {
	rootCmd.AddCommand(playlistCmd)
	playlistCmd.AddCommand(playlistCreateCmd, playlistAddCmd, playlistShowCmd, playlistListCmd)

	playlistCreateCmd.Flags().String("description", "", "playlist description")
}

// findPlaylist resolves a playlist by name, or by numeric id when no
// playlist has that name.
func findPlaylist(ctx context.Context, db *store.Store, ref string) (*store.Playlist, error) {
	p, err := db.GetPlaylistByName(ctx, ref)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		playlists, err := db.Playlists(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range playlists {
			if p.ID == id {
				return p, nil
			}
		}
	}
	return nil, fmt.Errorf("playlist %q: %w", ref, util.ErrNotFound)
}

func runPlaylistCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	description, _ := cmd.Flags().GetString("description")

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	id, created, err := db.CreatePlaylist(ctx, args[0], description)
	if err != nil {
		return err
	}
	if !created {
		util.WarnLog("Playlist %q already exists (id %d)", args[0], id)
		return nil
	}
	util.SuccessLog("Created playlist %q (id %d)", args[0], id)
	return nil
}

func runPlaylistAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	p, err := findPlaylist(ctx, db, args[0])
	if err != nil {
		return err
	}

	added := 0
	for _, arg := range args[1:] {
		id, err := resolveSongID(arg)
		if err != nil {
			util.WarnLog("Skipping %s: %v", arg, err)
			continue
		}
		outcome, err := db.AddToPlaylist(ctx, p.ID, id)
		if err != nil {
			return err
		}
		switch outcome {
		case store.Added:
			added++
		case store.AlreadyPresent:
			util.InfoLog("%s is already in %q", id, p.Name)
		case store.Rejected:
			util.WarnLog("Skipping %s: not in the catalog", id)
		}
	}

	util.SuccessLog("Added %d songs to %q", added, p.Name)
	return nil
}

func runPlaylistShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	p, err := findPlaylist(ctx, db, args[0])
	if err != nil {
		return err
	}
	entries, err := db.PlaylistSongs(ctx, p.ID)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%d songs)\n", p.Name, len(entries))
	if p.Description != "" {
		fmt.Println(p.Description)
	}
	fmt.Println()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTITLE\tARTIST\tDURATION\tID")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.Position, truncate(displayTitle(e.Title), 40), e.Artist, e.Duration, e.SongID)
	}
	return tw.Flush()
}

func runPlaylistList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	playlists, err := db.Playlists(ctx)
	if err != nil {
		return err
	}
	if len(playlists) == 0 {
		util.InfoLog("No playlists yet. Create one with 'sunoarc playlist create <name>'.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSONGS\tUPDATED")
	for _, p := range playlists {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", p.ID, p.Name, p.SongCount, humanize.Time(p.UpdatedAt))
	}
	return tw.Flush()
}
