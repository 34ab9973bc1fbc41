package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/franz/suno-archive/internal/song"
	"github.com/franz/suno-archive/internal/util"
)

// Song is a catalog row. The embedded Record carries the extracted fields;
// its Tags hold the tag relation without the version marker.
type Song struct {
	ID string
	song.Record

	DurationSeconds int
	Version         string
	LocalAudioPath  string
	FileSize        int64
	AudioFormat     string
	ExtractedAt     time.Time
	DownloadedAt    sql.NullTime
}

// ExtractionRecord returns the song in extraction form, with the version
// marker restored to the tag list.
func (s *Song) ExtractionRecord() song.Record {
	rec := s.Record.Clone()
	if s.Version != "" {
		rec.Tags = song.UnionTags(rec.Tags, []string{s.Version})
	}
	return rec
}

const songColumns = `
	s.id, s.title, s.artist, s.description, s.lyrics, s.duration, s.duration_seconds,
	s.url, s.image_url, s.plays, s.likes, s.created_at, s.source_tab,
	COALESCE(s.suno_version, ''), COALESCE(s.local_audio_path, ''),
	COALESCE(s.file_size, 0), COALESCE(s.audio_format, ''),
	s.is_liked, s.is_disliked, s.extracted_at, s.downloaded_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSong(row rowScanner) (*Song, error) {
	s := &Song{}
	err := row.Scan(
		&s.ID, &s.Title, &s.Artist, &s.Description, &s.Lyrics, &s.Duration, &s.DurationSeconds,
		&s.URL, &s.ImageURL, &s.Plays, &s.Likes, &s.CreatedAt, &s.SourceTab,
		&s.Version, &s.LocalAudioPath,
		&s.FileSize, &s.AudioFormat,
		&s.Liked, &s.Disliked, &s.ExtractedAt, &s.DownloadedAt,
	)
	return s, err
}

// ImportBatch upserts records by identity in one transaction and returns
// how many were stored. Records without a derivable identity are skipped
// and not counted. Scalar fields are overwritten in record order; tags
// accumulate across imports. A record the database rejects is logged and
// skipped without failing the batch.
func (s *Store) ImportBatch(ctx context.Context, records []song.Record) (int, error) {
	imported := 0
	err := s.Transaction(ctx, func(tx *sql.Tx) error {
		for _, rec := range records {
			ok, err := upsertSong(ctx, tx, rec)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				util.WarnLog("Skipping %q: %v", rec.Title, err)
				continue
			}
			if ok {
				imported++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to import batch: %w", err)
	}
	return imported, nil
}

// StoredLyrics returns the non-empty lyrics held for each identity in ids.
// Unknown identities and songs without lyrics are absent from the map.
func (s *Store) StoredLyrics(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string)
	if len(ids) == 0 {
		return out, nil
	}
	stmt, err := s.db.PrepareContext(ctx, `SELECT lyrics FROM songs WHERE id = ? AND lyrics <> ''`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare lyrics lookup: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		var lyrics string
		err := stmt.QueryRowContext(ctx, strings.ToLower(id)).Scan(&lyrics)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read lyrics for %s: %w", id, err)
		}
		out[strings.ToLower(id)] = lyrics
	}
	return out, nil
}

// AddSong imports a single record. It reports false when the record has
// no valid identity.
func (s *Store) AddSong(ctx context.Context, rec song.Record) (bool, error) {
	var ok bool
	err := s.Transaction(ctx, func(tx *sql.Tx) error {
		var err error
		ok, err = upsertSong(ctx, tx, rec)
		return err
	})
	return ok, err
}

func upsertSong(ctx context.Context, tx *sql.Tx, rec song.Record) (bool, error) {
	id, ok := rec.Identity()
	if !ok {
		return false, nil
	}

	var version any
	if v := rec.Version(); v != "" {
		version = v
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO songs (
			id, title, artist, description, lyrics, duration, duration_seconds,
			url, image_url, plays, likes, created_at, source_tab, suno_version,
			is_liked, is_disliked
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			description = excluded.description,
			lyrics = excluded.lyrics,
			duration = excluded.duration,
			duration_seconds = excluded.duration_seconds,
			url = excluded.url,
			image_url = excluded.image_url,
			plays = excluded.plays,
			likes = excluded.likes,
			created_at = excluded.created_at,
			source_tab = excluded.source_tab,
			suno_version = COALESCE(excluded.suno_version, songs.suno_version),
			is_liked = excluded.is_liked,
			is_disliked = excluded.is_disliked
	`,
		id, rec.Title, rec.Artist, rec.Description, rec.Lyrics, rec.Duration, rec.DurationSeconds(),
		canonicalURL(rec.URL, id), rec.ImageURL, rec.Plays, rec.Likes, rec.CreatedAt, rec.SourceTab, version,
		rec.Liked, rec.Disliked,
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert song %s: %w", id, err)
	}

	for _, tag := range song.UnionTags(rec.PlainTags()) {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tags (song_id, tag) VALUES (?, ?)
			ON CONFLICT(song_id, tag) DO NOTHING
		`, id, tag)
		if err != nil {
			return false, fmt.Errorf("failed to insert tag %q: %w", tag, err)
		}
	}

	return true, nil
}

// canonicalURL keeps the record's host and drops query and fragment.
func canonicalURL(raw, id string) string {
	base := song.DefaultBaseURL
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
		base = u.Scheme + "://" + u.Host
	}
	return song.CanonicalURL(base, id)
}

// GetSong retrieves a song by identity. A missing song yields (nil, nil).
func (s *Store) GetSong(ctx context.Context, id string) (*Song, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+songColumns+` FROM songs s WHERE s.id = ?`, strings.ToLower(id))
	sg, err := scanSong(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get song: %w", err)
	}

	if sg.Tags, err = s.Tags(ctx, sg.ID); err != nil {
		return nil, err
	}
	return sg, nil
}

// ListSongs returns songs ordered by title. limit <= 0 returns all.
func (s *Store) ListSongs(ctx context.Context, limit, offset int) ([]*Song, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.querySongs(ctx, `
		SELECT `+songColumns+` FROM songs s
		ORDER BY s.title COLLATE NOCASE, s.id
		LIMIT ? OFFSET ?
	`, limit, offset)
}

// SongsByTag returns songs carrying tag, case-insensitively.
func (s *Store) SongsByTag(ctx context.Context, tag string) ([]*Song, error) {
	return s.querySongs(ctx, `
		SELECT `+songColumns+` FROM songs s
		JOIN tags t ON t.song_id = s.id
		WHERE casefold(t.tag) = ?
		ORDER BY s.title COLLATE NOCASE, s.id
	`, casefold(song.NormalizeTag(tag)))
}

// CountSongs returns the number of songs in the catalog.
func (s *Store) CountSongs(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM songs").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count songs: %w", err)
	}
	return n, nil
}

// Tags returns a song's tags in the order they were first seen.
func (s *Store) Tags(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT tag FROM tags WHERE song_id = ? ORDER BY rowid", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// UpdateAudioInfo records a downloaded file for a song. It reports false
// when the song does not exist.
func (s *Store) UpdateAudioInfo(ctx context.Context, id, path string, size int64, format string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE songs SET local_audio_path = ?, file_size = ?, audio_format = ?,
			downloaded_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, path, size, format, id)
	if err != nil {
		return false, fmt.Errorf("failed to update audio info: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update audio info: %w", err)
	}
	return n > 0, nil
}

// querySongs runs a song query and attaches tags to every row.
func (s *Store) querySongs(ctx context.Context, query string, args ...any) ([]*Song, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}

	var songs []*Song
	for rows.Next() {
		sg, err := scanSong(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, sg)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}

	// Tags are loaded after the cursor closes; the pool holds one connection.
	for _, sg := range songs {
		if sg.Tags, err = s.Tags(ctx, sg.ID); err != nil {
			return nil, err
		}
	}
	return songs, nil
}
