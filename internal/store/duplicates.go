package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultDuplicateThreshold is the title similarity at which two songs are
// reported as duplicates.
const DefaultDuplicateThreshold = 0.8

// DuplicateGroup is a set of songs with near-identical titles.
type DuplicateGroup struct {
	Songs []*Song
}

// FindDuplicatesByTitle groups songs whose title word sets have a Jaccard
// similarity of at least threshold. Each song lands in at most one group,
// seeded by the earliest song in title order.
func (s *Store) FindDuplicatesByTitle(ctx context.Context, threshold float64) ([]DuplicateGroup, error) {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultDuplicateThreshold
	}

	songs, err := s.ListSongs(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load songs: %w", err)
	}

	words := make([]map[string]bool, len(songs))
	for i, sg := range songs {
		words[i] = titleWords(sg.Title)
	}

	grouped := make([]bool, len(songs))
	var groups []DuplicateGroup
	for i := range songs {
		if grouped[i] || len(words[i]) == 0 {
			continue
		}
		group := DuplicateGroup{Songs: []*Song{songs[i]}}
		for j := i + 1; j < len(songs); j++ {
			if grouped[j] || len(words[j]) == 0 {
				continue
			}
			if jaccard(words[i], words[j]) >= threshold {
				grouped[j] = true
				group.Songs = append(group.Songs, songs[j])
			}
		}
		if len(group.Songs) > 1 {
			grouped[i] = true
			groups = append(groups, group)
		}
	}
	return groups, nil
}

// titleWords lowercases, strips punctuation and splits a title into a set.
func titleWords(title string) map[string]bool {
	title = strings.ToLower(norm.NFC.String(title))
	fields := strings.FieldsFunc(title, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	inter := 0
	for w := range a {
		if b[w] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// LyricsGroup is a set of songs sharing the same lyrics text.
type LyricsGroup struct {
	Lyrics string // whitespace-collapsed text shared by every song
	Songs  []*Song
}

// GroupByLyrics groups songs whose lyrics are identical once whitespace is
// collapsed. Songs without lyrics and lyrics held by a single song are left
// out. Larger groups come first, then by lyrics text.
func (s *Store) GroupByLyrics(ctx context.Context) ([]LyricsGroup, error) {
	songs, err := s.ListSongs(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load songs: %w", err)
	}

	byText := make(map[string][]*Song)
	for _, sg := range songs {
		key := normalizeLyrics(sg.Lyrics)
		if key == "" {
			continue
		}
		byText[key] = append(byText[key], sg)
	}

	var groups []LyricsGroup
	for text, members := range byText {
		if len(members) > 1 {
			groups = append(groups, LyricsGroup{Lyrics: text, Songs: members})
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].Songs) != len(groups[j].Songs) {
			return len(groups[i].Songs) > len(groups[j].Songs)
		}
		return groups[i].Lyrics < groups[j].Lyrics
	})
	return groups, nil
}

func normalizeLyrics(lyrics string) string {
	return strings.Join(strings.Fields(norm.NFC.String(lyrics)), " ")
}
