// Package store provides the run ledger interface and its SQLite
// implementation.
package store

import (
	"context"

	"github.com/gregoramon/openclaw-skill-context-compress/internal/model"
)

// RecordParams holds one finished workflow run.
type RecordParams struct {
	Run model.Run
}

// IndexParams holds the merged sections of one category.
type IndexParams struct {
	Workspace string
	Category  model.Category
	Path      string
	Sections  []model.Section
}

// ListParams holds parameters for listing runs.
type ListParams struct {
	Workspace string
	Workflow  string
	Limit     int
}

// Ledger records runs and indexes consolidated sections.
type Ledger interface {
	// Record stores a run and its artifacts. Returns the stored run.
	Record(ctx context.Context, p RecordParams) (*model.Run, error)

	// Index replaces the indexed sections of one category in a workspace.
	Index(ctx context.Context, p IndexParams) (int, error)

	// List returns recent runs, newest first.
	List(ctx context.Context, p ListParams) ([]model.Run, error)

	// Search finds indexed sections matching a query.
	Search(ctx context.Context, p SearchParams) ([]SearchResult, error)

	// Close closes the ledger.
	Close() error
}
