package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Rate sets a song's rating, replacing any previous one. It reports false
// without touching the catalog when the value is outside 1-5 or the song
// does not exist.
func (s *Store) Rate(ctx context.Context, id string, rating int) (bool, error) {
	if rating < MinRating || rating > MaxRating {
		return false, nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ratings (song_id, rating) VALUES (?, ?)
		ON CONFLICT(song_id) DO UPDATE SET
			rating = excluded.rating,
			rated_at = CURRENT_TIMESTAMP
	`, id, rating)
	if isForeignKeyViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to rate song: %w", err)
	}
	return true, nil
}

// RateSong is Rate returning a *ConstraintError on rejection.
func (s *Store) RateSong(ctx context.Context, id string, rating int) error {
	ok, err := s.Rate(ctx, id, rating)
	if err != nil {
		return err
	}
	if !ok {
		reason := fmt.Sprintf("no song %s", id)
		if rating < MinRating || rating > MaxRating {
			reason = fmt.Sprintf("rating %d outside %d-%d", rating, MinRating, MaxRating)
		}
		return &ConstraintError{Op: "rate", Reason: reason}
	}
	return nil
}

// GetRating returns a song's rating, or 0 when unrated.
func (s *Store) GetRating(ctx context.Context, id string) (int, error) {
	var rating int
	err := s.db.QueryRowContext(ctx, "SELECT rating FROM ratings WHERE song_id = ?", id).Scan(&rating)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get rating: %w", err)
	}
	return rating, nil
}
