package scan

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/franz/suno-archive/internal/song"
	"github.com/franz/suno-archive/internal/store"
)

const (
	idA = "aaaaaaaa-0000-4000-8000-00000000000a"
	idB = "bbbbbbbb-0000-4000-8000-00000000000b"
	idC = "cccccccc-0000-4000-8000-00000000000c"
	idD = "dddddddd-0000-4000-8000-00000000000d"
)

// id3v23 builds a minimal ID3v2.3 tag with title and artist frames
// followed by filler audio bytes.
func id3v23(title, artist string) []byte {
	var frames bytes.Buffer
	for _, f := range []struct{ id, text string }{{"TIT2", title}, {"TPE1", artist}} {
		data := append([]byte{0x00}, f.text...)
		frames.WriteString(f.id)
		binary.Write(&frames, binary.BigEndian, uint32(len(data)))
		frames.Write([]byte{0, 0})
		frames.Write(data)
	}

	n := frames.Len()
	var out bytes.Buffer
	out.WriteString("ID3")
	out.Write([]byte{3, 0, 0})
	// syncsafe size
	out.Write([]byte{byte(n >> 21 & 0x7f), byte(n >> 14 & 0x7f), byte(n >> 7 & 0x7f), byte(n & 0x7f)})
	out.Write(frames.Bytes())
	out.Write(make([]byte, 64))
	return out.Bytes()
}

func setupLibrary(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	records := []song.Record{
		{Title: "Neon Rain", Artist: "nightowl", URL: song.CanonicalURL("", idA)},
		{Title: "Paper Boats", Artist: "river", URL: song.CanonicalURL("", idB)},
		{Title: "What/If?", Artist: "river", URL: song.CanonicalURL("", idC)},
		{Title: "Unlinked", Artist: "nobody", URL: song.CanonicalURL("", idD)},
	}
	if _, err := st.ImportBatch(context.Background(), records); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	return st
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func TestIsAudioFile(t *testing.T) {
	linker := New(&Config{AdditionalExts: []string{"aiff"}})

	tests := []struct {
		path     string
		expected bool
	}{
		{"test.mp3", true},
		{"test.MP3", true}, // Case insensitive
		{"test.m4a", true},
		{"test.aiff", true},
		{"test.txt", false},
		{"cover.jpg", false},
		{"test", false},
	}

	for _, tt := range tests {
		result := linker.isAudioFile(tt.path)
		if result != tt.expected {
			t.Errorf("isAudioFile(%s) = %v, expected %v", tt.path, result, tt.expected)
		}
	}
}

func TestLink(t *testing.T) {
	st := setupLibrary(t)
	dir := t.TempDir()

	byID := filepath.Join(dir, "downloads", "Neon Rain - "+idA+".mp3")
	byTags := filepath.Join(dir, "downloads", "track01.mp3")
	byName := filepath.Join(dir, "What_If_.m4a")
	unknown := filepath.Join(dir, "unknown.mp3")
	duplicate := filepath.Join(dir, "zz", idA+".wav")

	writeFile(t, byID, []byte("not really audio"))
	writeFile(t, byTags, id3v23("Paper Boats", "river"))
	writeFile(t, byName, []byte("m4a bytes"))
	writeFile(t, unknown, []byte("mystery"))
	writeFile(t, duplicate, []byte("same song again"))
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("ignored"))

	linker := New(&Config{Store: st, Concurrency: 2})
	result, err := linker.Link(context.Background(), dir)
	if err != nil {
		t.Fatalf("link failed: %v", err)
	}

	if result.FilesFound != 5 {
		t.Errorf("expected 5 audio files, got %d", result.FilesFound)
	}
	if result.Linked != 3 {
		t.Errorf("expected 3 linked, got %d", result.Linked)
	}
	if len(result.Unmatched) != 1 || result.Unmatched[0] != unknown {
		t.Errorf("expected %s unmatched, got %v", unknown, result.Unmatched)
	}
	if len(result.Duplicates) != 1 || result.Duplicates[0] != duplicate {
		t.Errorf("expected %s as duplicate, got %v", duplicate, result.Duplicates)
	}

	checks := map[string]struct {
		path   string
		format string
	}{
		idA: {byID, "mp3"},
		idB: {byTags, "mp3"},
		idC: {byName, "m4a"},
	}
	for id, want := range checks {
		sg, err := st.GetSong(context.Background(), id)
		if err != nil || sg == nil {
			t.Fatalf("failed to get song %s: %v", id, err)
		}
		if sg.LocalAudioPath != want.path {
			t.Errorf("song %s: expected path %s, got %s", id, want.path, sg.LocalAudioPath)
		}
		if sg.AudioFormat != want.format {
			t.Errorf("song %s: expected format %s, got %s", id, want.format, sg.AudioFormat)
		}
		if sg.FileSize == 0 {
			t.Errorf("song %s: expected file size", id)
		}
	}

	sg, _ := st.GetSong(context.Background(), idD)
	if sg.LocalAudioPath != "" {
		t.Errorf("expected unlinked song to stay unlinked, got %s", sg.LocalAudioPath)
	}
}

func TestBuildIndexDropsAmbiguousNames(t *testing.T) {
	songs := []*store.Song{
		{ID: idA, Record: song.Record{Title: "Intro"}},
		{ID: idB, Record: song.Record{Title: "intro"}},
		{ID: idC, Record: song.Record{Title: "Outro"}},
	}
	idx := buildIndex(songs)

	if _, ok := idx.filenames["intro"]; ok {
		t.Error("expected shared title to be dropped from file name index")
	}
	if idx.filenames["outro"] != idC {
		t.Errorf("expected outro to resolve to %s, got %q", idC, idx.filenames["outro"])
	}
}

func TestBuildIndexDropsAmbiguousTitleArtist(t *testing.T) {
	songs := []*store.Song{
		{ID: idA, Record: song.Record{Title: "Intro", Artist: "river"}},
		{ID: idB, Record: song.Record{Title: "INTRO", Artist: "River "}},
		{ID: idC, Record: song.Record{Title: "Intro", Artist: "nightowl"}},
	}
	idx := buildIndex(songs)

	if _, ok := idx.titleArtist["intro\x00river"]; ok {
		t.Error("expected a title and artist shared by two songs to be dropped")
	}
	if got := idx.titleArtist["intro\x00nightowl"]; got != idC {
		t.Errorf("expected intro by nightowl to resolve to %s, got %q", idC, got)
	}
}
