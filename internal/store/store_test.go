package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/franz/suno-archive/internal/output"
	"github.com/franz/suno-archive/internal/song"
	"github.com/franz/suno-archive/internal/util"
)

const (
	idA = "11111111-1111-4111-8111-111111111111"
	idB = "22222222-2222-4222-8222-222222222222"
	idC = "33333333-3333-4333-8333-333333333333"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func record(id, title string, tags ...string) song.Record {
	return song.Record{
		Title: title,
		URL:   "https://suno.com/song/" + id,
		Tags:  tags,
	}
}

func mustImport(t *testing.T, store *Store, records ...song.Record) int {
	t.Helper()
	n, err := store.ImportBatch(context.Background(), records)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	return n
}

func TestStoreOpenAndMigrate(t *testing.T) {
	store := openTestStore(t)

	version, err := store.getSchemaVersion()
	if err != nil {
		t.Fatalf("failed to get schema version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("expected schema version %d, got %d", currentSchemaVersion, version)
	}

	tables := []string{"songs", "tags", "ratings", "play_history", "playlists", "playlist_songs", "schema_version"}
	for _, table := range tables {
		var count int
		err := store.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil {
			t.Fatalf("failed to query table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("expected table %s to exist", table)
		}
	}

	var fk int
	if err := store.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("failed to read foreign_keys pragma: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign keys enabled, got %d", fk)
	}

	if err := store.CheckIntegrity(); err != nil {
		t.Errorf("integrity check failed on fresh database: %v", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	store, err := OpenWithOptions(path, &OpenOptions{NetworkOptimized: true})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	mustImport(t, store, record(idA, "Neon Rain"))
	store.Close()

	store, err = Open(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer store.Close()

	n, err := store.CountSongs(context.Background())
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 song after reopen, got %d", n)
	}
}

func TestImportBatchIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	batch := []song.Record{
		{Title: "Neon Rain", Artist: "nightowl", Duration: "3:24", URL: "https://suno.com/song/" + idA + "?sh=x", Tags: []string{"synthwave", "v4"}},
		record(idB, "Paper Boats", "folk"),
	}

	for i := 0; i < 3; i++ {
		n, err := store.ImportBatch(ctx, batch)
		if err != nil {
			t.Fatalf("import %d failed: %v", i, err)
		}
		if n != 2 {
			t.Errorf("import %d: expected 2 imported, got %d", i, n)
		}
	}

	count, _ := store.CountSongs(ctx)
	if count != 2 {
		t.Errorf("expected 2 songs, got %d", count)
	}

	sg, err := store.GetSong(ctx, idA)
	if err != nil || sg == nil {
		t.Fatalf("expected song %s, got %v (err %v)", idA, sg, err)
	}
	if sg.URL != "https://suno.com/song/"+idA {
		t.Errorf("expected canonical url, got %s", sg.URL)
	}
	if sg.DurationSeconds != 204 {
		t.Errorf("expected 204 seconds, got %d", sg.DurationSeconds)
	}
	if sg.Version != "v4" {
		t.Errorf("expected version v4, got %q", sg.Version)
	}
	if !reflect.DeepEqual(sg.Tags, []string{"synthwave"}) {
		t.Errorf("expected tags [synthwave], got %v", sg.Tags)
	}
}

func TestImportBatchTagUnion(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := record(idA, "First Title", "a", "b")
	first.Lyrics = "old lyrics"
	mustImport(t, store, first)

	second := record(idA, "Second Title", "b", "c")
	mustImport(t, store, second)

	sg, err := store.GetSong(ctx, idA)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !reflect.DeepEqual(sg.Tags, []string{"a", "b", "c"}) {
		t.Errorf("expected tags [a b c], got %v", sg.Tags)
	}
	if sg.Title != "Second Title" {
		t.Errorf("expected later title to win, got %q", sg.Title)
	}
	if sg.Lyrics != "" {
		t.Errorf("expected later (empty) lyrics to win, got %q", sg.Lyrics)
	}
}

func TestImportBatchVersionKeptWhenAbsent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	mustImport(t, store, record(idA, "Song", "v3.5"))
	mustImport(t, store, record(idA, "Song", "pop"))

	sg, _ := store.GetSong(ctx, idA)
	if sg.Version != "v3.5" {
		t.Errorf("expected version v3.5 to survive, got %q", sg.Version)
	}

	rec := sg.ExtractionRecord()
	if !reflect.DeepEqual(rec.Tags, []string{"pop", "v3.5"}) {
		t.Errorf("expected extraction tags [pop v3.5], got %v", rec.Tags)
	}
}

func TestImportBatchRejectsInvalidIdentity(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	n := mustImport(t, store,
		song.Record{Title: "No URL"},
		song.Record{Title: "Profile", URL: "https://suno.com/@someone"},
		song.Record{Title: "Short id", URL: "https://suno.com/song/1234"},
		record(idC, "Valid"),
	)
	if n != 1 {
		t.Errorf("expected 1 imported, got %d", n)
	}

	ok, err := store.AddSong(ctx, song.Record{Title: "Bad", URL: "https://suno.com/song/not-an-id"})
	if err != nil {
		t.Fatalf("add song failed: %v", err)
	}
	if ok {
		t.Error("expected invalid identity to be rejected")
	}

	count, _ := store.CountSongs(ctx)
	if count != 1 {
		t.Errorf("expected 1 song in catalog, got %d", count)
	}
}

func TestGetSongMissing(t *testing.T) {
	store := openTestStore(t)

	sg, err := store.GetSong(context.Background(), idA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sg != nil {
		t.Errorf("expected nil song, got %+v", sg)
	}
}

func TestRate(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	mustImport(t, store, record(idA, "One"), record(idB, "Two"))

	ok, err := store.Rate(ctx, idA, 4)
	if err != nil || !ok {
		t.Fatalf("expected valid rating to be stored, got ok=%v err=%v", ok, err)
	}
	ok, err = store.Rate(ctx, idB, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected rating 7 to be rejected")
	}

	if r, _ := store.GetRating(ctx, idA); r != 4 {
		t.Errorf("expected rating 4, got %d", r)
	}
	if r, _ := store.GetRating(ctx, idB); r != 0 {
		t.Errorf("expected no rating row for rejected value, got %d", r)
	}

	// replace
	if ok, _ := store.Rate(ctx, idA, 2); !ok {
		t.Error("expected re-rating to succeed")
	}
	if r, _ := store.GetRating(ctx, idA); r != 2 {
		t.Errorf("expected rating 2 after replace, got %d", r)
	}

	ok, err = store.Rate(ctx, idC, 3)
	if err != nil {
		t.Fatalf("unexpected error for missing song: %v", err)
	}
	if ok {
		t.Error("expected rating a missing song to be rejected")
	}
}

func TestRateSongConstraintError(t *testing.T) {
	store := openTestStore(t)
	mustImport(t, store, record(idA, "One"))

	err := store.RateSong(context.Background(), idA, 0)
	var ce *ConstraintError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConstraintError, got %v", err)
	}
	if ce.Op != "rate" {
		t.Errorf("expected op rate, got %q", ce.Op)
	}

	if err := store.RateSong(context.Background(), idA, 5); err != nil {
		t.Errorf("expected valid rating to succeed, got %v", err)
	}
}

func TestPlayHistory(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	mustImport(t, store, record(idA, "One"), record(idB, "Two"))

	for i := 0; i < 3; i++ {
		if ok, err := store.RecordPlay(ctx, idA, 60, true); err != nil || !ok {
			t.Fatalf("record play failed: ok=%v err=%v", ok, err)
		}
	}
	if ok, _ := store.RecordPlay(ctx, idB, 10, false); !ok {
		t.Fatal("record play failed")
	}
	if ok, err := store.RecordPlay(ctx, idC, 10, false); err != nil || ok {
		t.Errorf("expected play of missing song to be rejected, got ok=%v err=%v", ok, err)
	}

	if n, _ := store.PlayCount(ctx, idA); n != 3 {
		t.Errorf("expected 3 plays, got %d", n)
	}

	most, err := store.MostPlayed(ctx, 5)
	if err != nil {
		t.Fatalf("most played failed: %v", err)
	}
	if len(most) != 2 || most[0].SongID != idA || most[0].Plays != 3 {
		t.Errorf("expected %s first with 3 plays, got %+v", idA, most)
	}

	recent, err := store.RecentlyPlayed(ctx, 10)
	if err != nil {
		t.Fatalf("recently played failed: %v", err)
	}
	if len(recent) != 4 {
		t.Errorf("expected 4 history entries, got %d", len(recent))
	}
}

func TestPlaylistAddTwice(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	mustImport(t, store, record(idA, "One"), record(idB, "Two"))

	id, created, err := store.CreatePlaylist(ctx, "Favorites", "best of")
	if err != nil || !created {
		t.Fatalf("create failed: created=%v err=%v", created, err)
	}

	for i, want := range []AddOutcome{Added, AlreadyPresent} {
		got, err := store.AddToPlaylist(ctx, id, idA)
		if err != nil {
			t.Fatalf("add %d failed: %v", i, err)
		}
		if got != want {
			t.Errorf("add %d: expected %s, got %s", i, want, got)
		}
	}

	entries, err := store.PlaylistSongs(ctx, id)
	if err != nil {
		t.Fatalf("playlist songs failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Position != 1 || entries[0].SongID != idA {
		t.Fatalf("expected one entry at position 1, got %+v", entries)
	}

	if got, _ := store.AddToPlaylist(ctx, id, idB); got != Added {
		t.Errorf("expected second song added, got %s", got)
	}
	entries, _ = store.PlaylistSongs(ctx, id)
	if len(entries) != 2 || entries[1].Position != 2 {
		t.Errorf("expected second song at position 2, got %+v", entries)
	}
}

func TestPlaylistRejectsDanglingReferences(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	mustImport(t, store, record(idA, "One"))

	id, _, err := store.CreatePlaylist(ctx, "Mix", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if got, err := store.AddToPlaylist(ctx, id, idC); err != nil || got != Rejected {
		t.Errorf("expected missing song rejected, got %s (err %v)", got, err)
	}
	if got, err := store.AddToPlaylist(ctx, id+100, idA); err != nil || got != Rejected {
		t.Errorf("expected missing playlist rejected, got %s (err %v)", got, err)
	}

	var ce *ConstraintError
	if err := store.AddSongToPlaylist(ctx, id, idC); !errors.As(err, &ce) {
		t.Errorf("expected ConstraintError, got %v", err)
	}

	entries, _ := store.PlaylistSongs(ctx, id)
	if len(entries) != 0 {
		t.Errorf("expected empty playlist, got %+v", entries)
	}
}

func TestCreatePlaylistExistingName(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, _, err := store.CreatePlaylist(ctx, "Road Trip", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second, created, err := store.CreatePlaylist(ctx, "Road Trip", "again")
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}
	if created || second != first {
		t.Errorf("expected existing playlist %d, got %d (created=%v)", first, second, created)
	}

	p, err := store.GetPlaylistByName(ctx, "Road Trip")
	if err != nil || p == nil {
		t.Fatalf("expected playlist, got %v (err %v)", p, err)
	}
	if p.Description != "" {
		t.Errorf("expected original description kept, got %q", p.Description)
	}

	if p, _ := store.GetPlaylistByName(ctx, "Nope"); p != nil {
		t.Errorf("expected nil for missing playlist, got %+v", p)
	}
}

func TestSearch(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	a := record(idA, "Neon Rain", "synthwave")
	a.Lyrics = "[Verse]\nCity lights in the RAIN"
	b := record(idB, "Paper Boats", "folk")
	b.Artist = "Rainer"
	c := record(idC, "100% Cotton", "pop")
	mustImport(t, store, a, b, c)

	tests := []struct {
		name   string
		query  string
		fields []string
		want   []string
	}{
		{"all fields case-insensitive", "rain", nil, []string{idA, idB}},
		{"title only", "rain", []string{"title"}, []string{idA}},
		{"lyrics only", "city lights", []string{"lyrics"}, []string{idA}},
		{"tags", "FOLK", []string{"tags"}, []string{idB}},
		{"literal percent", "100%", []string{"title"}, []string{idC}},
		{"percent is not a wildcard", "%", []string{"title"}, []string{idC}},
		{"no match", "zzz", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			songs, err := store.Search(ctx, tt.query, tt.fields, 0)
			if err != nil {
				t.Fatalf("search failed: %v", err)
			}
			var got []string
			for _, sg := range songs {
				got = append(got, sg.ID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	if _, err := store.Search(ctx, "x", []string{"url"}, 0); !errors.Is(err, util.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported for unknown field, got %v", err)
	}
}

func TestSearchNonASCII(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	a := record(idA, "Über Alles", "Straßenmusik")
	b := record(idB, "Ça Va")
	b.Lyrics = "ÉTÉ sans fin"
	mustImport(t, store, a, b)

	tests := []struct {
		query  string
		fields []string
		want   []string
	}{
		{"Über", []string{"title"}, []string{idA}},
		{"über", []string{"title"}, []string{idA}},
		{"ÜBER ALLES", []string{"title"}, []string{idA}},
		{"Ça", []string{"title"}, []string{idB}},
		{"ça va", []string{"title"}, []string{idB}},
		{"été", []string{"lyrics"}, []string{idB}},
		{"STRASSEN", []string{"tags"}, nil},
		{"straßen", []string{"tags"}, []string{idA}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			songs, err := store.Search(ctx, tt.query, tt.fields, 0)
			if err != nil {
				t.Fatalf("search failed: %v", err)
			}
			var got []string
			for _, sg := range songs {
				got = append(got, sg.ID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSongsByTag(t *testing.T) {
	store := openTestStore(t)
	mustImport(t, store, record(idA, "One", "Synthwave"), record(idB, "Two", "folk"))

	songs, err := store.SongsByTag(context.Background(), "synthwave")
	if err != nil {
		t.Fatalf("songs by tag failed: %v", err)
	}
	if len(songs) != 1 || songs[0].ID != idA {
		t.Errorf("expected only %s, got %v", idA, songs)
	}

	mustImport(t, store, record(idC, "Three", "Électro"))
	songs, err = store.SongsByTag(context.Background(), "ÉLECTRO")
	if err != nil {
		t.Fatalf("songs by tag failed: %v", err)
	}
	if len(songs) != 1 || songs[0].ID != idC {
		t.Errorf("expected only %s, got %v", idC, songs)
	}
}

func TestStatistics(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	a := record(idA, "One", "pop", "v4")
	a.Duration = "3:00"
	a.Liked = true
	a.SourceTab = "creations"
	b := record(idB, "Two", "pop", "rock")
	b.Duration = "1:00:00"
	b.Disliked = true
	b.SourceTab = "likes"
	mustImport(t, store, a, b)

	store.Rate(ctx, idA, 5)
	store.Rate(ctx, idB, 2)
	store.RecordPlay(ctx, idA, 180, true)
	store.CreatePlaylist(ctx, "Mix", "")
	store.UpdateAudioInfo(ctx, idA, "/music/one.mp3", 4096, "mp3")

	st, err := store.Statistics(ctx)
	if err != nil {
		t.Fatalf("statistics failed: %v", err)
	}

	checks := []struct {
		name      string
		got, want int
	}{
		{"total songs", st.TotalSongs, 2},
		{"duration", st.TotalDurationSeconds, 3780},
		{"downloaded", st.Downloaded, 1},
		{"rated", st.Rated, 2},
		{"plays", st.TotalPlays, 1},
		{"unique tags", st.UniqueTags, 2},
		{"liked", st.Liked, 1},
		{"disliked", st.Disliked, 1},
		{"playlists", st.Playlists, 1},
		{"v4 songs", st.ByVersion["v4"], 1},
		{"unversioned songs", st.ByVersion[""], 1},
		{"likes tab", st.BySourceTab["likes"], 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: expected %d, got %d", c.name, c.want, c.got)
		}
	}

	if st.DownloadedBytes != 4096 {
		t.Errorf("expected 4096 downloaded bytes, got %d", st.DownloadedBytes)
	}
	if st.AverageRating != 3.5 {
		t.Errorf("expected average rating 3.5, got %f", st.AverageRating)
	}
	if st.DurationText() != "1h 3m" {
		t.Errorf("expected 1h 3m, got %s", st.DurationText())
	}
	if len(st.TopTags) == 0 || st.TopTags[0] != (TagCount{Tag: "pop", Count: 2}) {
		t.Errorf("expected pop to lead top tags, got %+v", st.TopTags)
	}
}

func TestUpdateAudioInfo(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	mustImport(t, store, record(idA, "One"))

	ok, err := store.UpdateAudioInfo(ctx, idA, "/music/one.mp3", 1234, "mp3")
	if err != nil || !ok {
		t.Fatalf("update failed: ok=%v err=%v", ok, err)
	}
	sg, _ := store.GetSong(ctx, idA)
	if sg.LocalAudioPath != "/music/one.mp3" || sg.FileSize != 1234 || sg.AudioFormat != "mp3" {
		t.Errorf("unexpected audio info: %+v", sg)
	}
	if !sg.DownloadedAt.Valid {
		t.Error("expected downloaded_at to be set")
	}

	if ok, _ := store.UpdateAudioInfo(ctx, idB, "/x.mp3", 1, "mp3"); ok {
		t.Error("expected update of missing song to report false")
	}
}

func TestFindDuplicatesByTitle(t *testing.T) {
	store := openTestStore(t)
	mustImport(t, store,
		record(idA, "Neon Rain (Remix)"),
		record(idB, "neon rain remix"),
		record(idC, "Paper Boats"),
	)

	groups, err := store.FindDuplicatesByTitle(context.Background(), DefaultDuplicateThreshold)
	if err != nil {
		t.Fatalf("find duplicates failed: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if len(groups[0].Songs) != 2 {
		t.Errorf("expected 2 songs in group, got %d", len(groups[0].Songs))
	}
}

func TestStoredLyrics(t *testing.T) {
	store := openTestStore(t)
	a := record(idA, "With Lyrics")
	a.Lyrics = "[Verse]\nkept"
	mustImport(t, store, a, record(idB, "Without Lyrics"))

	got, err := store.StoredLyrics(context.Background(), []string{idA, idB, idC})
	if err != nil {
		t.Fatalf("stored lyrics failed: %v", err)
	}
	want := map[string]string{idA: "[Verse]\nkept"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestGroupByLyrics(t *testing.T) {
	store := openTestStore(t)
	const idD = "44444444-4444-4444-8444-444444444444"
	const idE = "55555555-5555-4555-8555-555555555555"

	a := record(idA, "Take One")
	a.Lyrics = "[Verse]\nCity lights\n"
	b := record(idB, "Take Two")
	b.Lyrics = "  [Verse]   City\tlights"
	c := record(idC, "Other Song")
	c.Lyrics = "[Verse]\nSomething else"
	d := record(idD, "Instrumental")
	e := record(idE, "Blank Lyrics")
	e.Lyrics = " \n\t "
	mustImport(t, store, a, b, c, d, e)

	groups, err := store.GroupByLyrics(context.Background())
	if err != nil {
		t.Fatalf("group by lyrics failed: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if groups[0].Lyrics != "[Verse] City lights" {
		t.Errorf("expected collapsed lyrics, got %q", groups[0].Lyrics)
	}
	var got []string
	for _, sg := range groups[0].Songs {
		got = append(got, sg.ID)
	}
	if !reflect.DeepEqual(got, []string{idA, idB}) {
		t.Errorf("expected %v, got %v", []string{idA, idB}, got)
	}
}

func TestBackupAndExport(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	mustImport(t, store, record(idA, "One", "pop", "v4"), record(idB, "Two"))

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	dir := t.TempDir()
	path, err := store.Backup(ctx, dir, at)
	if err != nil {
		t.Fatalf("backup failed: %v", err)
	}
	if filepath.Base(path) != "suno_library_20260102_030405.db" {
		t.Errorf("unexpected backup name %s", path)
	}

	backup, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open backup: %v", err)
	}
	n, _ := backup.CountSongs(ctx)
	backup.Close()
	if n != 2 {
		t.Errorf("expected 2 songs in backup, got %d", n)
	}

	if _, err := store.Backup(ctx, dir, at); err == nil {
		t.Error("expected second backup with same timestamp to fail")
	}

	exportPath := filepath.Join(t.TempDir(), "export", "library.json")
	count, err := store.ExportJSON(ctx, exportPath, at)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 exported, got %d", count)
	}
	if _, err := os.Stat(exportPath); err != nil {
		t.Fatalf("export file missing: %v", err)
	}

	doc, err := output.ReadJSON(exportPath)
	if err != nil {
		t.Fatalf("read export failed: %v", err)
	}
	if doc.Metadata.TotalSongs != 2 || !reflect.DeepEqual(doc.Songs[0].Tags, []string{"pop", "v4"}) {
		t.Errorf("unexpected export document: %+v", doc)
	}

	// exported file re-imports to the same catalog
	if n := mustImport(t, store, doc.Songs...); n != 2 {
		t.Errorf("expected re-import of 2, got %d", n)
	}
	if total, _ := store.CountSongs(ctx); total != 2 {
		t.Errorf("expected 2 songs after re-import, got %d", total)
	}
}
