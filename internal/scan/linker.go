// Package scan links downloaded audio files to catalog songs.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dhowden/tag"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/text/unicode/norm"

	"github.com/franz/suno-archive/internal/report"
	"github.com/franz/suno-archive/internal/song"
	"github.com/franz/suno-archive/internal/store"
	"github.com/franz/suno-archive/internal/util"
)

// AudioExtensions are the file types the downloader produces
var AudioExtensions = []string{
	".mp3",
	".m4a",
	".wav",
	".flac",
	".ogg",
	".opus",
	".aac",
}

// How a file was matched to a song.
const (
	MatchIdentity = "identity" // identity in the file name
	MatchTags     = "tags"     // title and artist tags
	MatchFilename = "filename" // stem equals the safe file name of the title
)

// Linker matches audio files to songs and records them in the catalog
type Linker struct {
	store       *store.Store
	extensions  map[string]bool
	concurrency int
	logger      *report.EventLogger
}

// Config holds linker configuration
type Config struct {
	Store          *store.Store
	AdditionalExts []string
	Concurrency    int
	Logger         *report.EventLogger
}

// New creates a new Linker
func New(cfg *Config) *Linker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	extMap := make(map[string]bool)
	for _, ext := range AudioExtensions {
		extMap[strings.ToLower(ext)] = true
	}
	for _, ext := range cfg.AdditionalExts {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extMap[strings.ToLower(ext)] = true
	}

	return &Linker{
		store:       cfg.Store,
		extensions:  extMap,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
	}
}

// Result represents a link run
type Result struct {
	FilesFound int
	Linked     int
	Unmatched  []string
	Duplicates []string // files matching a song already linked in this run
	Errors     []error
}

type match struct {
	path      string
	songID    string
	matchedBy string
	size      int64
}

// index resolves files to song identities
type index struct {
	ids         map[string]bool
	titleArtist map[string]string
	filenames   map[string]string
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}

func buildIndex(songs []*store.Song) *index {
	idx := &index{
		ids:         make(map[string]bool, len(songs)),
		titleArtist: make(map[string]string),
		filenames:   make(map[string]string),
	}
	// Keys shared by several songs cannot be resolved and are dropped.
	sharedPairs := make(map[string]bool)
	sharedNames := make(map[string]bool)

	for _, sg := range songs {
		idx.ids[sg.ID] = true
		if sg.Title == "" {
			continue
		}
		pair := fold(sg.Title) + "\x00" + fold(sg.Artist)
		if _, seen := idx.titleArtist[pair]; seen {
			sharedPairs[pair] = true
		}
		idx.titleArtist[pair] = sg.ID

		name := fold(song.SafeFilename(sg.Title))
		if _, seen := idx.filenames[name]; seen {
			sharedNames[name] = true
		}
		idx.filenames[name] = sg.ID
	}
	for pair := range sharedPairs {
		delete(idx.titleArtist, pair)
	}
	for name := range sharedNames {
		delete(idx.filenames, name)
	}
	return idx
}

// resolve tries identity, tags and file name in that order.
func (idx *index) resolve(path string) (string, string) {
	base := filepath.Base(path)
	if id, ok := song.ParseIdentity(strings.ToLower(base)); ok && idx.ids[id] {
		return id, MatchIdentity
	}

	if title, artist, err := readTags(path); err == nil && title != "" {
		if id, ok := idx.titleArtist[fold(title)+"\x00"+fold(artist)]; ok {
			return id, MatchTags
		}
	} else if err != nil {
		util.DebugLog("No tags in %s: %v", base, err)
	}

	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if id, ok := idx.filenames[fold(stem)]; ok {
		return id, MatchFilename
	}
	return "", ""
}

func readTags(path string) (string, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return "", "", fmt.Errorf("failed to read tags: %w", err)
	}
	return m.Title(), m.Artist(), nil
}

// Link walks dir, matches audio files to songs and updates each matched
// song's local audio path, size and format
func (l *Linker) Link(ctx context.Context, dir string) (*Result, error) {
	util.InfoLog("Linking audio files in: %s", dir)

	songs, err := l.store.ListSongs(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load songs: %w", err)
	}
	idx := buildIndex(songs)
	util.DebugLog("Indexed %d songs", len(songs))

	result := &Result{}
	var paths []string
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			util.WarnLog("Error accessing path %s: %v", path, err)
			result.Errors = append(result.Errors, fmt.Errorf("access error: %s: %w", path, err))
			return nil
		}
		if !d.IsDir() && l.isAudioFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if walkErr != nil {
		return result, fmt.Errorf("walk error: %w", walkErr)
	}
	result.FilesFound = len(paths)

	bar := util.NewProgressBar(len(paths), "Matching", "files")

	var (
		mu        sync.Mutex
		matches   []match
		unmatched []string
		errs      []error
	)

	p := pool.New().WithMaxGoroutines(l.concurrency)
	for _, path := range paths {
		p.Go(func() {
			if bar != nil {
				defer bar.Add(1)
			}
			if ctx.Err() != nil {
				return
			}

			info, err := os.Stat(path)
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("stat %s: %w", path, err))
				mu.Unlock()
				return
			}

			id, by := idx.resolve(path)
			mu.Lock()
			defer mu.Unlock()
			if id == "" {
				unmatched = append(unmatched, path)
				return
			}
			matches = append(matches, match{path: path, songID: id, matchedBy: by, size: info.Size()})
		})
	}
	p.Wait()
	if bar != nil {
		bar.Finish()
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	// Writes go through the store one at a time, in path order.
	sort.Slice(matches, func(i, j int) bool { return matches[i].path < matches[j].path })
	sort.Strings(unmatched)
	result.Unmatched = unmatched
	result.Errors = append(result.Errors, errs...)

	linked := make(map[string]bool)
	for _, m := range matches {
		if linked[m.songID] {
			result.Duplicates = append(result.Duplicates, m.path)
			continue
		}
		format := strings.TrimPrefix(strings.ToLower(filepath.Ext(m.path)), ".")
		ok, err := l.store.UpdateAudioInfo(ctx, m.songID, m.path, m.size, format)
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		if !ok {
			continue
		}
		linked[m.songID] = true
		result.Linked++
		l.logger.LogLink(m.songID, m.path, m.matchedBy)
		util.DebugLog("Linked %s -> %s (%s)", filepath.Base(m.path), m.songID, m.matchedBy)
	}

	util.SuccessLog("Link complete: %d files, %d linked, %d unmatched, %d duplicates, %d errors",
		result.FilesFound, result.Linked, len(result.Unmatched), len(result.Duplicates), len(result.Errors))
	return result, nil
}

// isAudioFile checks if a file has a supported audio extension
func (l *Linker) isAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return l.extensions[ext]
}
