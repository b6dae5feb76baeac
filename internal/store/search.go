package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/gregoramon/openclaw-skill-context-compress/internal/model"
)

// SearchParams holds parameters for searching indexed sections.
type SearchParams struct {
	Workspace string
	Category  string
	Query     string
	Limit     int
}

// SearchResult is one matching section.
type SearchResult struct {
	model.IndexedSection
	Snippet string `json:"snippet,omitempty"`
}

// Search finds indexed sections whose header or body match every term of
// the query, best matches first.
func (s *SQLiteStore) Search(ctx context.Context, p SearchParams) ([]SearchResult, error) {
	match := ftsQuery(p.Query)
	if match == "" {
		return nil, fmt.Errorf("search: query is empty")
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	where := []string{"sections_fts MATCH ?"}
	args := []interface{}{match}
	if p.Workspace != "" {
		where = append(where, "s.workspace = ?")
		args = append(args, p.Workspace)
	}
	if p.Category != "" {
		where = append(where, "s.category = ?")
		args = append(args, strings.ToLower(p.Category))
	}

	query := fmt.Sprintf(`
		SELECT s.workspace, s.category, s.path, s.seq, s.header, s.body,
		       snippet(sections_fts, 1, '[', ']', '...', 12)
		FROM sections_fts
		JOIN sections s ON s.rowid = sections_fts.rowid
		WHERE %s
		ORDER BY bm25(sections_fts), s.category, s.seq
		LIMIT ?`, strings.Join(where, " AND "))
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var category string
		if err := rows.Scan(&r.Workspace, &category, &r.Path, &r.Seq, &r.Header, &r.Body, &r.Snippet); err != nil {
			return nil, err
		}
		r.Category = model.Category(category)
		results = append(results, r)
	}
	return results, rows.Err()
}

// ftsQuery quotes every whitespace-separated term so user input never
// reaches the FTS5 query syntax. Terms are ANDed.
func ftsQuery(q string) string {
	terms := strings.Fields(q)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}
