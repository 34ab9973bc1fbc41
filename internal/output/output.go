// Package output renders extracted song lists as JSON, CSV, Markdown and
// Excel files.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/franz/suno-archive/internal/song"
	"github.com/franz/suno-archive/internal/util"
)

// Format is an output representation.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatExcel    Format = "xlsx"
)

const (
	// Source names the library the songs were extracted from.
	Source = "suno.com"
	// ExtractorVersion is written into JSON metadata.
	ExtractorVersion = "2.0"
	// FilePrefix starts every output file name.
	FilePrefix = "suno_songs"
)

// ParseFormats validates format names. "markdown" is accepted for "md"
// and "excel" for "xlsx".
func ParseFormats(names []string) ([]Format, error) {
	var formats []Format
	seen := make(map[Format]bool)
	for _, n := range names {
		for _, part := range strings.Split(n, ",") {
			var f Format
			switch strings.ToLower(strings.TrimSpace(part)) {
			case "":
				continue
			case "json":
				f = FormatJSON
			case "csv":
				f = FormatCSV
			case "md", "markdown":
				f = FormatMarkdown
			case "xlsx", "excel":
				f = FormatExcel
			default:
				return nil, fmt.Errorf("%w: output format %q", util.ErrUnsupported, part)
			}
			if !seen[f] {
				seen[f] = true
				formats = append(formats, f)
			}
		}
	}
	return formats, nil
}

// Filename returns the timestamped file name for a format.
func Filename(f Format, at time.Time) string {
	return fmt.Sprintf("%s_%s.%s", FilePrefix, at.Format("20060102_150405"), f)
}

// Write renders records in every format into dir and returns the path
// written per format.
func Write(dir string, records []song.Record, formats []Format, at time.Time) (map[Format]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	paths := make(map[Format]string, len(formats))
	for _, f := range formats {
		path := filepath.Join(dir, Filename(f, at))
		var err error
		switch f {
		case FormatJSON:
			err = writeFile(path, func(file *os.File) error { return WriteJSON(file, records, at) })
		case FormatCSV:
			err = writeFile(path, func(file *os.File) error { return WriteCSV(file, records) })
		case FormatMarkdown:
			err = writeFile(path, func(file *os.File) error { return WriteMarkdown(file, records, at) })
		case FormatExcel:
			err = WriteExcel(path, records)
		default:
			err = fmt.Errorf("%w: output format %q", util.ErrUnsupported, f)
		}
		if err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", f, err)
		}
		paths[f] = path
	}
	return paths, nil
}

func writeFile(path string, render func(*os.File) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
