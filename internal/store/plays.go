package store

import (
	"context"
	"fmt"
	"time"
)

// Play is one play_history entry.
type Play struct {
	ID             int64
	SongID         string
	Title          string
	PlayedAt       time.Time
	DurationPlayed int // seconds
	Completed      bool
}

// PlayStat is a song with its play count.
type PlayStat struct {
	SongID string
	Title  string
	Artist string
	Plays  int
}

// RecordPlay appends a play. It reports false when the song does not exist.
func (s *Store) RecordPlay(ctx context.Context, id string, durationPlayed int, completed bool) (bool, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO play_history (song_id, duration_played, completed)
		VALUES (?, ?, ?)
	`, id, durationPlayed, completed)
	if isForeignKeyViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to record play: %w", err)
	}
	return true, nil
}

// PlayCount returns how often a song was played.
func (s *Store) PlayCount(ctx context.Context, id string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM play_history WHERE song_id = ?", id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count plays: %w", err)
	}
	return n, nil
}

// MostPlayed returns the most played songs, most plays first.
func (s *Store) MostPlayed(ctx context.Context, limit int) ([]PlayStat, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.title, s.artist, COUNT(ph.id) AS plays
		FROM play_history ph
		JOIN songs s ON s.id = ph.song_id
		GROUP BY s.id
		ORDER BY plays DESC, s.title COLLATE NOCASE
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query most played: %w", err)
	}
	defer rows.Close()

	var stats []PlayStat
	for rows.Next() {
		var ps PlayStat
		if err := rows.Scan(&ps.SongID, &ps.Title, &ps.Artist, &ps.Plays); err != nil {
			return nil, fmt.Errorf("failed to scan play stat: %w", err)
		}
		stats = append(stats, ps)
	}
	return stats, rows.Err()
}

// RecentlyPlayed returns the latest plays, newest first.
func (s *Store) RecentlyPlayed(ctx context.Context, limit int) ([]Play, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT ph.id, ph.song_id, s.title, ph.played_at, ph.duration_played, ph.completed
		FROM play_history ph
		JOIN songs s ON s.id = ph.song_id
		ORDER BY ph.played_at DESC, ph.id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query play history: %w", err)
	}
	defer rows.Close()

	var plays []Play
	for rows.Next() {
		var p Play
		if err := rows.Scan(&p.ID, &p.SongID, &p.Title, &p.PlayedAt, &p.DurationPlayed, &p.Completed); err != nil {
			return nil, fmt.Errorf("failed to scan play: %w", err)
		}
		plays = append(plays, p)
	}
	return plays, rows.Err()
}
