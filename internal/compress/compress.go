// Package compress runs the three workflows over a workspace: memory
// consolidation, bootstrap compression and skill indexing.
package compress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
	"github.com/oklog/ulid/v2"

	"github.com/gregoramon/openclaw-skill-context-compress/internal/classify"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/config"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/merge"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/model"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/observe"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/storage"
)

// Workflow names, in the order RunAll executes them.
const (
	WorkflowMemory    = "memory"
	WorkflowBootstrap = "bootstrap"
	WorkflowSkills    = "skills"
)

// ErrSemanticDrift is returned when a rewrite lost or gained more entries
// than the configured threshold allows.
var ErrSemanticDrift = errors.New("semantic drift")

// Options configures a Compressor. Zero values select the defaults.
type Options struct {
	Config     config.Config
	Classifier *classify.Classifier
	Observer   *observe.Observer
	Now        func() time.Time
	RunID      string
	DryRun     bool
}

// Compressor runs workflows against one workspace.
type Compressor struct {
	fs         storage.Storage
	cfg        config.Config
	classifier *classify.Classifier
	obs        *observe.Observer
	log        *bolt.Logger
	now        func() time.Time
	window     time.Duration
	runID      string
	dryRun     bool
}

// New validates opts and returns a Compressor bound to fs.
func New(fs storage.Storage, opts Options) (*Compressor, error) {
	cfg := opts.Config
	if cfg.MemoryDir == "" {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	window, err := cfg.Window()
	if err != nil {
		return nil, err
	}
	c := &Compressor{
		fs:         fs,
		cfg:        cfg,
		classifier: opts.Classifier,
		obs:        opts.Observer,
		now:        opts.Now,
		window:     window,
		runID:      opts.RunID,
		dryRun:     opts.DryRun,
	}
	if c.classifier == nil {
		if c.classifier, err = cfg.Classifier(); err != nil {
			return nil, err
		}
	}
	if c.obs == nil {
		c.obs = observe.Discard()
	}
	c.log = c.obs.Log()
	if c.now == nil {
		c.now = time.Now
	}
	if c.runID == "" {
		c.runID = NewRunID(c.now())
	}
	return c, nil
}

// NewRunID returns a ULID for a run started at t.
func NewRunID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}

// RunID identifies this run in archive paths and the ledger.
func (c *Compressor) RunID() string { return c.runID }

// DryRun reports whether writes are suppressed.
func (c *Compressor) DryRun() bool { return c.dryRun }

// Result describes one workflow run.
type Result struct {
	Workflow  string           `json:"workflow"`
	Summary   string           `json:"summary"`
	Skipped   bool             `json:"skipped,omitempty"`
	DryRun    bool             `json:"dry_run,omitempty"`
	Artifacts []model.Artifact `json:"artifacts,omitempty"`
	Warnings  []string         `json:"warnings,omitempty"`
	Archived  []string         `json:"archived,omitempty"`
	Drift     merge.Drift      `json:"drift"`

	// Merged holds the per-category unions of a memory run.
	Merged []merge.Merged `json:"-"`
}

func (r *Result) warn(log *bolt.Logger, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	log.Warn().Str("workflow", r.Workflow).Msg(msg)
}

// ceilingCheck warns when an artifact's block is over its ceiling.
func (r *Result) ceilingCheck(log *bolt.Logger, a model.Artifact) {
	if a.OverCeiling() {
		r.warn(log, "%s: block is %d bytes, over the %d byte ceiling", a.Path, a.Block, a.Ceiling)
	}
}

// Skip selects workflows to leave out of RunAll.
type Skip struct {
	Memory    bool
	Bootstrap bool
	Skills    bool
}

// Report collects the results of RunAll.
type Report struct {
	RunID   string    `json:"run_id"`
	Results []*Result `json:"results"`
}

// Changed returns every artifact whose size changed, across workflows.
func (r *Report) Changed() []model.Artifact {
	var out []model.Artifact
	for _, res := range r.Results {
		for _, a := range res.Artifacts {
			if a.Changed() {
				out = append(out, a)
			}
		}
	}
	return out
}

// WriteTo prints the final size report.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var n int64
	changed := r.Changed()
	k, err := fmt.Fprintf(w, "report: %d artifact(s) changed\n", len(changed))
	n += int64(k)
	if err != nil {
		return n, err
	}
	for _, a := range changed {
		k, err = fmt.Fprintf(w, "  %s: %d -> %d bytes\n", a.Path, a.Before, a.After)
		n += int64(k)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// RunAll runs the selected workflows in fixed order. A failing workflow
// does not stop the ones after it; every failure is returned joined.
// Each result's Summary is passed to onResult as soon as it is known.
func (c *Compressor) RunAll(ctx context.Context, skip Skip, onResult func(*Result, error)) (*Report, error) {
	steps := []struct {
		name string
		skip bool
		run  func(context.Context) (*Result, error)
	}{
		{WorkflowMemory, skip.Memory, c.ConsolidateMemory},
		{WorkflowBootstrap, skip.Bootstrap, c.CompressBootstrap},
		{WorkflowSkills, skip.Skills, c.IndexSkills},
	}

	report := &Report{RunID: c.runID}
	var errs []error
	for _, step := range steps {
		if step.skip {
			c.log.Info().Str("workflow", step.name).Msg("skipped by flag")
			continue
		}
		res, err := step.run(ctx)
		if res != nil {
			report.Results = append(report.Results, res)
		}
		if err != nil {
			c.log.Error().Str("workflow", step.name).Err(err).Msg("workflow failed")
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
		}
		if onResult != nil {
			onResult(res, err)
		}
	}
	return report, errors.Join(errs...)
}

func (c *Compressor) newResult(workflow string) *Result {
	return &Result{Workflow: workflow, DryRun: c.dryRun}
}

// readOptional returns a file's text, or "" when it does not exist.
func (c *Compressor) readOptional(path string) (string, bool, error) {
	text, err := c.fs.Read(path)
	if errors.Is(err, storage.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", path, err)
	}
	return text, true, nil
}

func (c *Compressor) prefix(workflow string) string {
	if c.dryRun {
		return workflow + " (dry run)"
	}
	return workflow
}
