package output

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/franz/suno-archive/internal/song"
)

// CSVHeader is the fixed column order.
var CSVHeader = []string{
	"index", "title", "artist", "duration", "plays", "likes", "created_at",
	"tags", "description", "lyrics", "url", "image_url", "liked", "disliked", "source_tab",
}

// Row renders a record in CSVHeader order; index is 1-based.
func Row(index int, r song.Record) []string {
	return []string{
		strconv.Itoa(index),
		r.Title,
		r.Artist,
		r.Duration,
		r.Plays,
		r.Likes,
		r.CreatedAt,
		strings.Join(r.Tags, ", "),
		r.Description,
		r.Lyrics,
		r.URL,
		r.ImageURL,
		strconv.FormatBool(r.Liked),
		strconv.FormatBool(r.Disliked),
		r.SourceTab,
	}
}

// WriteCSV writes a header row and one row per record.
func WriteCSV(w io.Writer, records []song.Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CSVHeader); err != nil {
		return err
	}
	for i, r := range records {
		if err := writer.Write(Row(i+1, r)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
