package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/franz/suno-archive/internal/song"
)

// Metadata heads an extraction JSON file.
type Metadata struct {
	ExtractedAt      string `json:"extracted_at"`
	TotalSongs       int    `json:"total_songs"`
	Source           string `json:"source"`
	ExtractorVersion string `json:"extractor_version"`
}

// Document is the extraction JSON hand-off format.
type Document struct {
	Metadata Metadata      `json:"metadata"`
	Songs    []song.Record `json:"songs"`
}

// NewDocument wraps records with metadata.
func NewDocument(records []song.Record, at time.Time) Document {
	if records == nil {
		records = []song.Record{}
	}
	return Document{
		Metadata: Metadata{
			ExtractedAt:      at.Format(time.RFC3339),
			TotalSongs:       len(records),
			Source:           Source,
			ExtractorVersion: ExtractorVersion,
		},
		Songs: records,
	}
}

// WriteJSON writes the extraction document, indented.
func WriteJSON(w io.Writer, records []song.Record, at time.Time) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(NewDocument(records, at))
}

// ReadJSON loads an extraction document. A bare array of songs is also
// accepted.
func ReadJSON(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		var songs []song.Record
		if arrErr := json.Unmarshal(data, &songs); arrErr != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		doc.Songs = songs
		doc.Metadata.TotalSongs = len(songs)
	}
	return &doc, nil
}
