package output_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/franz/suno-archive/internal/output"
	"github.com/franz/suno-archive/internal/song"
	"github.com/franz/suno-archive/internal/util"
)

var extractedAt = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func sampleRecords() []song.Record {
	return []song.Record{
		{
			Title:       "Neon | Rain",
			Artist:      "nightowl",
			Description: "dreamy synthwave, female vocals",
			Lyrics:      "[Verse 1]\nCity lights\n\n[Chorus]\nNeon rain",
			Tags:        []string{"synthwave", "dreamy"},
			Duration:    "3:24",
			Plays:       "1.2K plays",
			Likes:       "87 likes",
			CreatedAt:   "2 days ago",
			URL:         "https://suno.com/song/11111111-2222-3333-4444-555555555555",
			ImageURL:    "https://cdn1.suno.ai/image_1.jpeg",
			Liked:       true,
			SourceTab:   "likes",
		},
		{
			Title:     "Second",
			Duration:  "1:05:30",
			Tags:      []string{},
			URL:       "https://suno.com/song/66666666-7777-8888-9999-000000000000",
			SourceTab: "creations",
		},
	}
}

func TestParseFormats(t *testing.T) {
	t.Parallel()

	formats, err := output.ParseFormats([]string{"json,csv", "markdown", "md", "excel"})
	require.NoError(t, err)
	assert.Equal(t, []output.Format{output.FormatJSON, output.FormatCSV, output.FormatMarkdown, output.FormatExcel}, formats)

	_, err = output.ParseFormats([]string{"yaml"})
	assert.ErrorIs(t, err, util.ErrUnsupported)
}

func TestFilename(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "suno_songs_20260314_092653.json", output.Filename(output.FormatJSON, extractedAt))
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, output.WriteJSON(&buf, sampleRecords(), extractedAt))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))

	meta := raw["metadata"].(map[string]any)
	assert.Equal(t, "2026-03-14T09:26:53Z", meta["extracted_at"])
	assert.EqualValues(t, 2, meta["total_songs"])
	assert.Equal(t, "suno.com", meta["source"])
	assert.Equal(t, "2.0", meta["extractor_version"])

	songs := raw["songs"].([]any)
	require.Len(t, songs, 2)
	first := songs[0].(map[string]any)
	assert.Equal(t, "Neon | Rain", first["title"])
	assert.Equal(t, "likes", first["source_tab"])
	assert.Equal(t, true, first["liked"])
}

func TestWriteJSON_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, output.WriteJSON(&buf, nil, extractedAt))
	assert.Contains(t, buf.String(), `"songs": []`)
}

func TestReadJSON_RoundTripsDocumentAndArray(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	docPath := filepath.Join(dir, "doc.json")
	f, err := os.Create(docPath)
	require.NoError(t, err)
	require.NoError(t, output.WriteJSON(f, sampleRecords(), extractedAt))
	require.NoError(t, f.Close())

	doc, err := output.ReadJSON(docPath)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), doc.Songs)

	arrPath := filepath.Join(dir, "array.json")
	require.NoError(t, os.WriteFile(arrPath, []byte(`[{"title":"Solo","url":"https://suno.com/song/11111111-2222-3333-4444-555555555555"}]`), 0644))
	doc, err = output.ReadJSON(arrPath)
	require.NoError(t, err)
	require.Len(t, doc.Songs, 1)
	assert.Equal(t, "Solo", doc.Songs[0].Title)
}

func TestWriteCSV_ColumnOrder(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, output.WriteCSV(&buf, sampleRecords()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{
		"index", "title", "artist", "duration", "plays", "likes", "created_at",
		"tags", "description", "lyrics", "url", "image_url", "liked", "disliked", "source_tab",
	}, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "synthwave, dreamy", rows[1][7])
	assert.Equal(t, "[Verse 1]\nCity lights\n\n[Chorus]\nNeon rain", rows[1][9])
	assert.Equal(t, "true", rows[1][12])
	assert.Equal(t, "false", rows[1][13])
	assert.Equal(t, "creations", rows[2][14])
}

func TestWriteMarkdown(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, output.WriteMarkdown(&buf, sampleRecords(), extractedAt))
	md := buf.String()

	assert.Contains(t, md, "# Suno Song Library")
	assert.Contains(t, md, "- **Songs:** 2")
	assert.Contains(t, md, "- **Total duration:** 1:08:54")
	assert.Contains(t, md, `1. [Neon \| Rain](#1-neon--rain)`)
	assert.Contains(t, md, "## 2. Second")
	assert.Contains(t, md, "**Tags:** synthwave, dreamy")
	assert.Contains(t, md, "```\n[Verse 1]\nCity lights")
	assert.Equal(t, 1, strings.Count(md, "**Lyrics:**"))
}

func TestWrite_AllFormats(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "out")

	formats := []output.Format{output.FormatJSON, output.FormatCSV, output.FormatMarkdown, output.FormatExcel}
	paths, err := output.Write(dir, sampleRecords(), formats, extractedAt)
	require.NoError(t, err)
	require.Len(t, paths, 4)

	for _, f := range formats {
		assert.FileExists(t, paths[f])
		assert.Equal(t, output.Filename(f, extractedAt), filepath.Base(paths[f]))
	}

	xl, err := excelize.OpenFile(paths[output.FormatExcel])
	require.NoError(t, err)
	defer xl.Close()

	title, err := xl.GetCellValue("Songs", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Neon | Rain", title)

	tab, err := xl.GetCellValue("Songs", "O3")
	require.NoError(t, err)
	assert.Equal(t, "creations", tab)
}
