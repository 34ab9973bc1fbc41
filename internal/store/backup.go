package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/franz/suno-archive/internal/output"
	"github.com/franz/suno-archive/internal/song"
)

// Backup writes a consistent copy of the catalog to
// dir/suno_library_<timestamp>.db and returns its path.
func (s *Store) Backup(ctx context.Context, dir string, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	path := filepath.Join(dir, "suno_library_"+at.Format("20060102_150405")+".db")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("backup %s already exists", path)
	}

	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return "", fmt.Errorf("failed to back up database: %w", err)
	}
	return path, nil
}

// Records returns every song in extraction form, ordered by title.
func (s *Store) Records(ctx context.Context) ([]song.Record, error) {
	songs, err := s.ListSongs(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	records := make([]song.Record, len(songs))
	for i, sg := range songs {
		records[i] = sg.ExtractionRecord()
	}
	return records, nil
}

// ExportJSON writes the whole catalog as an extraction JSON document and
// returns the number of songs written.
func (s *Store) ExportJSON(ctx context.Context, path string, at time.Time) (int, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return 0, err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := output.WriteJSON(file, records, at); err != nil {
		file.Close()
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("failed to close %s: %w", path, err)
	}
	return len(records), nil
}
