package store

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/gregoramon/openclaw-skill-context-compress/internal/model"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/serialize"
)

// timeLayout keeps a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements Ledger using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	entropy *rand.Rand
}

var _ Ledger = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id             TEXT PRIMARY KEY,
		run_id         TEXT NOT NULL,
		workflow       TEXT NOT NULL,
		workspace      TEXT NOT NULL,
		status         TEXT NOT NULL,
		summary        TEXT NOT NULL DEFAULT '',
		error          TEXT,
		dry_run        INTEGER NOT NULL DEFAULT 0,
		warnings       INTEGER NOT NULL DEFAULT 0,
		drift_expected INTEGER NOT NULL DEFAULT 0,
		drift_actual   INTEGER NOT NULL DEFAULT 0,
		started_at     TEXT NOT NULL,
		finished_at    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_workspace ON runs(workspace, finished_at DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_run_id ON runs(run_id);

	CREATE TABLE IF NOT EXISTS artifacts (
		id           TEXT PRIMARY KEY,
		run          TEXT NOT NULL REFERENCES runs(id),
		path         TEXT NOT NULL,
		before_bytes INTEGER NOT NULL,
		after_bytes  INTEGER NOT NULL,
		block_bytes  INTEGER NOT NULL DEFAULT 0,
		ceiling      INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_artifacts_run ON artifacts(run);

	CREATE TABLE IF NOT EXISTS sections (
		id         TEXT PRIMARY KEY,
		workspace  TEXT NOT NULL,
		category   TEXT NOT NULL,
		path       TEXT NOT NULL,
		seq        INTEGER NOT NULL,
		header     TEXT NOT NULL,
		body       TEXT NOT NULL,
		indexed_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sections_category ON sections(workspace, category);

	CREATE VIRTUAL TABLE IF NOT EXISTS sections_fts USING fts5(
		header,
		body,
		content=sections,
		content_rowid=rowid
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// FTS5 triggers for automatic sync
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS sections_ai AFTER INSERT ON sections BEGIN
			INSERT INTO sections_fts(rowid, header, body) VALUES (new.rowid, new.header, new.body);
		END`,
		`CREATE TRIGGER IF NOT EXISTS sections_ad AFTER DELETE ON sections BEGIN
			INSERT INTO sections_fts(sections_fts, rowid, header, body) VALUES('delete', old.rowid, old.header, old.body);
		END`,
		`CREATE TRIGGER IF NOT EXISTS sections_au AFTER UPDATE ON sections BEGIN
			INSERT INTO sections_fts(sections_fts, rowid, header, body) VALUES('delete', old.rowid, old.header, old.body);
			INSERT INTO sections_fts(rowid, header, body) VALUES (new.rowid, new.header, new.body);
		END`,
	}
	for _, t := range triggers {
		if _, err := s.db.Exec(t); err != nil {
			return err
		}
	}
	return nil
}

// Record stores a finished run with its artifacts.
func (s *SQLiteStore) Record(ctx context.Context, p RecordParams) (*model.Run, error) {
	run := p.Run
	if run.Workflow == "" {
		return nil, fmt.Errorf("record run: workflow is required")
	}
	if run.Status == "" {
		run.Status = model.StatusOK
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.FinishedAt
	}
	run.ID = s.newID()
	if run.RunID == "" {
		run.RunID = run.ID
	}

	var errText *string
	if run.Error != "" {
		errText = &run.Error
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, run_id, workflow, workspace, status, summary, error, dry_run, warnings,
		                   drift_expected, drift_actual, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.RunID, run.Workflow, run.Workspace, run.Status, run.Summary, errText,
		boolInt(run.DryRun), run.Warnings, run.DriftExpected, run.DriftActual,
		run.StartedAt.UTC().Format(timeLayout), run.FinishedAt.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	for _, a := range run.Artifacts {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO artifacts (id, run, path, before_bytes, after_bytes, block_bytes, ceiling)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.newID(), run.ID, a.Path, a.Before, a.After, a.Block, a.Ceiling)
		if err != nil {
			return nil, fmt.Errorf("insert artifact: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &run, nil
}

// Index replaces the sections stored for one category of a workspace.
func (s *SQLiteStore) Index(ctx context.Context, p IndexParams) (int, error) {
	if !p.Category.Valid() {
		return 0, fmt.Errorf("index sections: unknown category %q", p.Category)
	}
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM sections WHERE workspace = ? AND category = ?`, p.Workspace, string(p.Category))
	if err != nil {
		return 0, fmt.Errorf("clear sections: %w", err)
	}
	for i, sec := range p.Sections {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO sections (id, workspace, category, path, seq, header, body, indexed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			s.newID(), p.Workspace, string(p.Category), p.Path, i, sec.Header, sectionBody(sec), now)
		if err != nil {
			return 0, fmt.Errorf("insert section: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(p.Sections), nil
}

// sectionBody is the searchable text of a section without its heading.
func sectionBody(sec model.Section) string {
	text := serialize.RenderSection(sec)
	_, body, _ := strings.Cut(text, "\n")
	return strings.TrimSpace(body)
}

// List returns recent runs, newest first.
func (s *SQLiteStore) List(ctx context.Context, p ListParams) ([]model.Run, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	where := []string{"1 = 1"}
	var args []interface{}
	if p.Workspace != "" {
		where = append(where, "workspace = ?")
		args = append(args, p.Workspace)
	}
	if p.Workflow != "" {
		where = append(where, "workflow = ?")
		args = append(args, p.Workflow)
	}

	query := fmt.Sprintf(`
		SELECT id, run_id, workflow, workspace, status, summary, error, dry_run, warnings,
		       drift_expected, drift_actual, started_at, finished_at
		FROM runs
		WHERE %s
		ORDER BY finished_at DESC, id DESC
		LIMIT ?`, strings.Join(where, " AND "))
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		if runs[i].Artifacts, err = s.artifacts(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *SQLiteStore) artifacts(ctx context.Context, runID string) ([]model.Artifact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, before_bytes, after_bytes, block_bytes, ceiling
		 FROM artifacts WHERE run = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Artifact
	for rows.Next() {
		var a model.Artifact
		if err := rows.Scan(&a.Path, &a.Before, &a.After, &a.Block, &a.Ceiling); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (model.Run, error) {
	var r model.Run
	var errText sql.NullString
	var dryRun int
	var startedAt, finishedAt string

	err := row.Scan(
		&r.ID, &r.RunID, &r.Workflow, &r.Workspace, &r.Status, &r.Summary, &errText,
		&dryRun, &r.Warnings, &r.DriftExpected, &r.DriftActual, &startedAt, &finishedAt,
	)
	if err != nil {
		return r, err
	}

	r.DryRun = dryRun != 0
	if errText.Valid {
		r.Error = errText.String
	}
	r.StartedAt, _ = time.Parse(timeLayout, startedAt)
	r.FinishedAt, _ = time.Parse(timeLayout, finishedAt)
	return r, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
