package store

import (
	"context"
	"database/sql"
	"fmt"
)

// TagCount is a tag with the number of songs carrying it.
type TagCount struct {
	Tag   string
	Count int
}

// Statistics summarizes the catalog.
type Statistics struct {
	TotalSongs           int
	TotalDurationSeconds int
	Downloaded           int
	DownloadedBytes      int64
	Rated                int
	AverageRating        float64
	TotalPlays           int
	UniqueTags           int
	Liked                int
	Disliked             int
	Playlists            int
	ByVersion            map[string]int // songs without a version are counted under ""
	BySourceTab          map[string]int
	TopTags              []TagCount
}

// DurationText renders the total duration as "Xh Ym".
func (st *Statistics) DurationText() string {
	return fmt.Sprintf("%dh %dm", st.TotalDurationSeconds/3600, st.TotalDurationSeconds%3600/60)
}

// Statistics aggregates counts, durations and tag frequencies.
func (s *Store) Statistics(ctx context.Context) (*Statistics, error) {
	st := &Statistics{
		ByVersion:   make(map[string]int),
		BySourceTab: make(map[string]int),
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(duration_seconds), 0),
		       COUNT(local_audio_path),
		       COALESCE(SUM(file_size), 0),
		       COALESCE(SUM(is_liked), 0),
		       COALESCE(SUM(is_disliked), 0)
		FROM songs
	`).Scan(&st.TotalSongs, &st.TotalDurationSeconds, &st.Downloaded, &st.DownloadedBytes, &st.Liked, &st.Disliked)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate songs: %w", err)
	}

	var avg sql.NullFloat64
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*), AVG(rating) FROM ratings").Scan(&st.Rated, &avg)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	st.AverageRating = avg.Float64

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM play_history", &st.TotalPlays},
		{"SELECT COUNT(DISTINCT tag) FROM tags", &st.UniqueTags},
		{"SELECT COUNT(*) FROM playlists", &st.Playlists},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to aggregate statistics: %w", err)
		}
	}

	if err := s.groupCounts(ctx, "SELECT COALESCE(suno_version, ''), COUNT(*) FROM songs GROUP BY 1", st.ByVersion); err != nil {
		return nil, err
	}
	if err := s.groupCounts(ctx, "SELECT source_tab, COUNT(*) FROM songs GROUP BY 1", st.BySourceTab); err != nil {
		return nil, err
	}

	st.TopTags, err = s.TopTags(ctx, 10)
	if err != nil {
		return nil, err
	}

	return st, nil
}

// TopTags returns the most frequent tags, ties broken by name.
func (s *Store) TopTags(ctx context.Context, limit int) ([]TagCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tag, COUNT(*) AS n FROM tags
		GROUP BY tag
		ORDER BY n DESC, tag
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query tag counts: %w", err)
	}
	defer rows.Close()

	var tags []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan tag count: %w", err)
		}
		tags = append(tags, tc)
	}
	return tags, rows.Err()
}

func (s *Store) groupCounts(ctx context.Context, query string, into map[string]int) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to group songs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("failed to scan group: %w", err)
		}
		into[key] = n
	}
	return rows.Err()
}
