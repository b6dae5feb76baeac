package model

import "time"

// Run statuses recorded in the ledger.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
	StatusDrift   = "drift"
)

// Run is one workflow execution recorded in the ledger.
type Run struct {
	ID            string     `json:"id"`
	RunID         string     `json:"run_id"`
	Workflow      string     `json:"workflow"`
	Workspace     string     `json:"workspace"`
	Status        string     `json:"status"`
	Summary       string     `json:"summary"`
	Error         string     `json:"error,omitempty"`
	DryRun        bool       `json:"dry_run,omitempty"`
	Warnings      int        `json:"warnings"`
	DriftExpected int        `json:"drift_expected"`
	DriftActual   int        `json:"drift_actual"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    time.Time  `json:"finished_at"`
	Artifacts     []Artifact `json:"artifacts,omitempty"`
}

// IndexedSection is a section stored in the search index.
type IndexedSection struct {
	Workspace string   `json:"workspace"`
	Category  Category `json:"category"`
	Path      string   `json:"path"`
	Seq       int      `json:"seq"`
	Header    string   `json:"header"`
	Body      string   `json:"body"`
}
