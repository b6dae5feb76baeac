package cli

import (
	"context"
	"errors"
	"path"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/gregoramon/openclaw-skill-context-compress/internal/compress"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/model"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/store"
)

// recorder writes each finished workflow to the ledger. Ledger failures
// are logged and never fail the run.
type recorder struct {
	ledger    store.Ledger
	log       *bolt.Logger
	workspace string
	memoryDir string
	runID     string
	started   time.Time
	now       func() time.Time
}

func newRecorder(ledger store.Ledger, log *bolt.Logger, workspace, memoryDir, runID string) *recorder {
	return &recorder{
		ledger:    ledger,
		log:       log,
		workspace: workspace,
		memoryDir: memoryDir,
		runID:     runID,
		started:   time.Now().UTC(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func runStatus(res *compress.Result, err error) string {
	switch {
	case errors.Is(err, compress.ErrSemanticDrift):
		return model.StatusDrift
	case err != nil:
		return model.StatusFailed
	case res != nil && res.Skipped:
		return model.StatusSkipped
	}
	return model.StatusOK
}

func (r *recorder) record(ctx context.Context, res *compress.Result, err error) {
	finished := r.now()
	defer func() { r.started = finished }()
	if r.ledger == nil || res == nil {
		return
	}

	run := model.Run{
		RunID:         r.runID,
		Workflow:      res.Workflow,
		Workspace:     r.workspace,
		Status:        runStatus(res, err),
		Summary:       res.Summary,
		DryRun:        res.DryRun,
		Warnings:      len(res.Warnings),
		DriftExpected: res.Drift.Expected,
		DriftActual:   res.Drift.Actual,
		StartedAt:     r.started,
		FinishedAt:    finished,
		Artifacts:     res.Artifacts,
	}
	if err != nil {
		run.Error = err.Error()
	}
	if _, lerr := r.ledger.Record(ctx, store.RecordParams{Run: run}); lerr != nil {
		r.log.Warn().Str("workflow", res.Workflow).Err(lerr).Msg("ledger record failed")
	}

	if err != nil || res.DryRun {
		return
	}
	for _, m := range res.Merged {
		n, lerr := r.ledger.Index(ctx, store.IndexParams{
			Workspace: r.workspace,
			Category:  m.Category,
			Path:      path.Join(r.memoryDir, compress.CompressedDir, m.Category.FileName()),
			Sections:  m.Sections(),
		})
		if lerr != nil {
			r.log.Warn().Str("category", string(m.Category)).Err(lerr).Msg("section index failed")
			continue
		}
		r.log.Debug().Str("category", string(m.Category)).Int("sections", n).Msg("indexed sections")
	}
}
