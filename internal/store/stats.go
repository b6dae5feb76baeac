package store

import (
	"context"
	"os"
)

// Stats holds ledger statistics.
type Stats struct {
	DBPath          string          `json:"db_path"`
	DBSizeBytes     int64           `json:"db_size_bytes"`
	TotalRuns       int             `json:"total_runs"`
	FailedRuns      int             `json:"failed_runs"`
	TotalArtifacts  int             `json:"total_artifacts"`
	BytesBefore     int64           `json:"bytes_before"`
	BytesAfter      int64           `json:"bytes_after"`
	IndexedSections int             `json:"indexed_sections"`
	Categories      []CategoryStats `json:"categories"`
	Workflows       []WorkflowStats `json:"workflows"`
}

// CategoryStats holds per-category section counts.
type CategoryStats struct {
	Category string `json:"category"`
	Sections int    `json:"sections"`
}

// WorkflowStats holds per-workflow run counts.
type WorkflowStats struct {
	Workflow string `json:"workflow"`
	Runs     int    `json:"runs"`
	Failed   int    `json:"failed"`
}

// Stats returns ledger statistics, optionally limited to one workspace.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath, workspace string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	// DB file size
	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	ws := "(? = '' OR workspace = ?)"
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE `+ws, workspace, workspace).Scan(&st.TotalRuns)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE status NOT IN ('ok', 'skipped') AND `+ws,
		workspace, workspace).Scan(&st.FailedRuns)
	s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(a.before_bytes), 0), COALESCE(SUM(a.after_bytes), 0)
		FROM artifacts a JOIN runs r ON r.id = a.run
		WHERE r.dry_run = 0 AND (? = '' OR r.workspace = ?)`, workspace, workspace).
		Scan(&st.TotalArtifacts, &st.BytesBefore, &st.BytesAfter)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sections WHERE `+ws, workspace, workspace).Scan(&st.IndexedSections)

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*) AS cnt
		FROM sections WHERE `+ws+`
		GROUP BY category ORDER BY cnt DESC, category`, workspace, workspace)
	if err != nil {
		return st, err
	}
	for rows.Next() {
		var c CategoryStats
		rows.Scan(&c.Category, &c.Sections)
		st.Categories = append(st.Categories, c)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `
		SELECT workflow, COUNT(*), SUM(CASE WHEN status IN ('ok', 'skipped') THEN 0 ELSE 1 END)
		FROM runs WHERE `+ws+`
		GROUP BY workflow ORDER BY workflow`, workspace, workspace)
	if err != nil {
		return st, err
	}
	defer rows.Close()
	for rows.Next() {
		var w WorkflowStats
		rows.Scan(&w.Workflow, &w.Runs, &w.Failed)
		st.Workflows = append(st.Workflows, w)
	}

	return st, nil
}
