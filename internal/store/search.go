package store

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
	"modernc.org/sqlite"

	"github.com/franz/suno-archive/internal/util"
)

// casefold is registered on every connection. SQLite's own LOWER and LIKE
// only fold ASCII, so both the columns and the query go through it.
func init() {
	if err := sqlite.RegisterDeterministicScalarFunction("casefold", 1, casefoldSQL); err != nil {
		panic(fmt.Sprintf("failed to register casefold: %v", err))
	}
}

func casefold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

func casefoldSQL(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return casefold(v), nil
	case []byte:
		return casefold(string(v)), nil
	default:
		return v, nil
	}
}

// SearchFields are the text fields Search can match against.
var SearchFields = []string{"title", "artist", "lyrics", "description", "tags"}

var searchClauses = map[string]string{
	"title":       `casefold(s.title) LIKE ? ESCAPE '\'`,
	"artist":      `casefold(s.artist) LIKE ? ESCAPE '\'`,
	"lyrics":      `casefold(s.lyrics) LIKE ? ESCAPE '\'`,
	"description": `casefold(s.description) LIKE ? ESCAPE '\'`,
	"tags":        `EXISTS (SELECT 1 FROM tags t WHERE t.song_id = s.id AND casefold(t.tag) LIKE ? ESCAPE '\')`,
}

// Search returns songs whose fields contain query, case-insensitively.
// No fields means all of SearchFields. limit <= 0 returns every match.
func (s *Store) Search(ctx context.Context, query string, fields []string, limit int) ([]*Song, error) {
	if len(fields) == 0 {
		fields = SearchFields
	}

	pattern := "%" + escapeLike(casefold(strings.TrimSpace(query))) + "%"
	var clauses []string
	var args []any
	seen := make(map[string]bool)
	for _, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		clause, ok := searchClauses[f]
		if !ok {
			return nil, fmt.Errorf("%w: search field %q", util.ErrUnsupported, f)
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		clauses = append(clauses, clause)
		args = append(args, pattern)
	}

	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit)

	return s.querySongs(ctx, `
		SELECT `+songColumns+` FROM songs s
		WHERE `+strings.Join(clauses, " OR ")+`
		ORDER BY s.title COLLATE NOCASE, s.id
		LIMIT ?
	`, args...)
}

// escapeLike escapes LIKE wildcards so query text matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
