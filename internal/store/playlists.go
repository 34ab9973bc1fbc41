package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Playlist is a named, ordered list of songs.
type Playlist struct {
	ID          int64
	Name        string
	Description string
	SongCount   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PlaylistEntry is one song in a playlist.
type PlaylistEntry struct {
	Position int
	SongID   string
	Title    string
	Artist   string
	Duration string
}

const playlistColumns = `
	p.id, p.name, p.description,
	(SELECT COUNT(*) FROM playlist_songs ps WHERE ps.playlist_id = p.id),
	p.created_at, p.updated_at`

func scanPlaylist(row rowScanner) (*Playlist, error) {
	p := &Playlist{}
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.SongCount, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// CreatePlaylist creates a playlist and returns its id. created is false
// when a playlist with that name already existed; its id is returned.
func (s *Store) CreatePlaylist(ctx context.Context, name, description string) (id int64, created bool, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, false, &ConstraintError{Op: "create playlist", Reason: "empty name"}
	}

	err = s.Transaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO playlists (name, description) VALUES (?, ?)
			ON CONFLICT(name) DO NOTHING
		`, name, description)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = n > 0
		return tx.QueryRowContext(ctx, "SELECT id FROM playlists WHERE name = ?", name).Scan(&id)
	})
	if err != nil {
		return 0, false, fmt.Errorf("failed to create playlist: %w", err)
	}
	return id, created, nil
}

// AddToPlaylist appends a song at position max+1. Adding a song already in
// the playlist changes nothing. A missing playlist or song is Rejected.
func (s *Store) AddToPlaylist(ctx context.Context, playlistID int64, songID string) (AddOutcome, error) {
	outcome := Added
	err := s.Transaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO playlist_songs (playlist_id, song_id, position)
			SELECT ?, ?, COALESCE(MAX(position), 0) + 1
			FROM playlist_songs WHERE playlist_id = ?
			ON CONFLICT(playlist_id, song_id) DO NOTHING
		`, playlistID, songID, playlistID)
		if isForeignKeyViolation(err) {
			outcome = Rejected
			return nil
		}
		if err != nil {
			return err
		}

		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			outcome = AlreadyPresent
			return nil
		}

		_, err = tx.ExecContext(ctx, "UPDATE playlists SET updated_at = CURRENT_TIMESTAMP WHERE id = ?", playlistID)
		return err
	})
	if err != nil {
		return Rejected, fmt.Errorf("failed to add to playlist: %w", err)
	}
	return outcome, nil
}

// AddSongToPlaylist is AddToPlaylist returning a *ConstraintError when
// the playlist or song does not exist.
func (s *Store) AddSongToPlaylist(ctx context.Context, playlistID int64, songID string) error {
	outcome, err := s.AddToPlaylist(ctx, playlistID, songID)
	if err != nil {
		return err
	}
	if outcome == Rejected {
		return &ConstraintError{
			Op:     "add to playlist",
			Reason: fmt.Sprintf("playlist %d or song %s does not exist", playlistID, songID),
		}
	}
	return nil
}

// Playlists returns every playlist ordered by name.
func (s *Store) Playlists(ctx context.Context) ([]*Playlist, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+playlistColumns+` FROM playlists p ORDER BY p.name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// GetPlaylistByName retrieves a playlist. A missing playlist yields (nil, nil).
func (s *Store) GetPlaylistByName(ctx context.Context, name string) (*Playlist, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+playlistColumns+` FROM playlists p WHERE p.name = ?`, strings.TrimSpace(name))
	p, err := scanPlaylist(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}
	return p, nil
}

// PlaylistSongs returns a playlist's entries in position order.
func (s *Store) PlaylistSongs(ctx context.Context, playlistID int64) ([]PlaylistEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ps.position, s.id, s.title, s.artist, s.duration
		FROM playlist_songs ps
		JOIN songs s ON s.id = ps.song_id
		WHERE ps.playlist_id = ?
		ORDER BY ps.position
	`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist songs: %w", err)
	}
	defer rows.Close()

	var entries []PlaylistEntry
	for rows.Next() {
		var e PlaylistEntry
		if err := rows.Scan(&e.Position, &e.SongID, &e.Title, &e.Artist, &e.Duration); err != nil {
			return nil, fmt.Errorf("failed to scan playlist entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
