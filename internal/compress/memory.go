package compress

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/gregoramon/openclaw-skill-context-compress/internal/config"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/merge"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/model"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/parser"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/serialize"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/storage"
)

// Directories under the memory directory.
const (
	CompressedDir = "compressed"
	ArchiveDir    = "archive"
)

// IndexTitle is the title of the memory index block.
const IndexTitle = "Memory Index"

type detailWrite struct {
	merged  merge.Merged
	path    string
	text    string
	before  int
	existed bool
}

// ConsolidateMemory files every settled memory note into per-category
// detail files, rewrites the memory index and archives the notes.
func (c *Compressor) ConsolidateMemory(ctx context.Context) (*Result, error) {
	ctx, span := c.obs.StartSpan(ctx, WorkflowMemory, c.runID)
	defer span.End()

	res := c.newResult(WorkflowMemory)
	sources, err := c.memorySources(res)
	if err != nil {
		return res, err
	}
	if len(sources) == 0 {
		res.Skipped = true
		res.Summary = c.prefix(WorkflowMemory) + ": no memory files to consolidate"
		c.log.Info().Msg(res.Summary)
		return res, nil
	}

	var classified []model.Classified
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		text, err := c.fs.Read(src)
		if err != nil {
			return res, fmt.Errorf("read %s: %w", src, err)
		}
		sections := parser.Parse(text)
		classified = append(classified, c.classifier.ClassifyAll(sections, src)...)
		c.log.Debug().Str("file", src).Int("sections", len(sections)).Msg("parsed memory file")
	}

	compressedDir := path.Join(c.cfg.MemoryDir, CompressedDir)
	existing := make(map[model.Category][]model.Section)
	sizes := make(map[model.Category]int)
	present := make(map[model.Category]bool)
	for _, cat := range model.Categories() {
		text, ok, err := c.readOptional(path.Join(compressedDir, cat.FileName()))
		if err != nil {
			return res, err
		}
		if ok {
			existing[cat] = parser.Parse(text)
			sizes[cat] = len(text)
			present[cat] = true
		}
	}
	merged := merge.Union(existing, classified)
	res.Merged = merged

	var writes []detailWrite
	for _, m := range merged {
		if len(m.Incoming) == 0 {
			continue
		}
		text, err := serialize.RenderDetail(m.Category, m.Sections())
		if err != nil {
			return res, fmt.Errorf("render %s: %w", m.Category, err)
		}
		writes = append(writes, detailWrite{
			merged:  m,
			path:    path.Join(compressedDir, m.Category.FileName()),
			text:    text,
			before:  sizes[m.Category],
			existed: present[m.Category],
		})
	}

	indexText, _, err := c.readOptional(c.cfg.IndexFile)
	if err != nil {
		return res, err
	}
	block := model.Block{Tag: model.IndexTag, Title: IndexTitle, Groups: merge.IndexGroups(merged, compressedDir)}
	rendered := serialize.Render(block)
	newIndex, err := serialize.Replace(indexText, block)
	if err != nil {
		return res, fmt.Errorf("update %s: %w", c.cfg.IndexFile, err)
	}

	for _, w := range writes {
		res.Artifacts = append(res.Artifacts, model.Artifact{Path: w.path, Before: w.before, After: len(w.text)})
	}
	index := model.Artifact{
		Path:    c.cfg.IndexFile,
		Before:  len(indexText),
		After:   len(newIndex),
		Block:   len(rendered),
		Ceiling: c.cfg.Ceilings.Index,
	}
	res.Artifacts = append(res.Artifacts, index)
	res.ceilingCheck(c.log, index)

	if c.dryRun {
		for _, w := range writes {
			res.Drift = res.Drift.Add(merge.Drift{
				Expected: w.merged.Expected(),
				Actual:   serialize.EntryCount(parser.Parse(w.text)),
			})
		}
		if res.Drift.Exceeds(c.cfg.DriftThreshold) {
			res.warn(c.log, "drift: expected %d entries, rendered %d", res.Drift.Expected, res.Drift.Actual)
		}
		res.Summary = c.memorySummary(sources, classified, writes, index)
		c.log.Info().Msg(res.Summary)
		return res, nil
	}

	bk := c.newBackups(path.Join(c.cfg.MemoryDir, ArchiveDir, CompressedDir, c.runID))
	for _, w := range writes {
		if err := bk.save(w.path, w.existed); err != nil {
			return res, errors.Join(err, bk.restore())
		}
		if err := c.fs.Write(w.path, w.text); err != nil {
			return res, errors.Join(fmt.Errorf("write %s: %w", w.path, err), bk.restore())
		}
		c.log.Info().Str("path", w.path).Int("sections", len(w.merged.Sections())).Msg("wrote detail file")
	}

	for _, w := range writes {
		text, err := c.fs.Read(w.path)
		if err != nil {
			return res, errors.Join(fmt.Errorf("verify %s: %w", w.path, err), bk.restore())
		}
		res.Drift = res.Drift.Add(merge.Drift{
			Expected: w.merged.Expected(),
			Actual:   serialize.EntryCount(parser.Parse(text)),
		})
	}
	if res.Drift.Exceeds(c.cfg.DriftThreshold) {
		if c.cfg.DriftPolicy == config.DriftRestore {
			derr := fmt.Errorf("%w: expected %d entries, read back %d", ErrSemanticDrift, res.Drift.Expected, res.Drift.Actual)
			res.Summary = fmt.Sprintf("%s: drift detected, %d detail file(s) restored", c.prefix(WorkflowMemory), len(writes))
			res.Artifacts = nil
			return res, errors.Join(derr, bk.restore())
		}
		res.warn(c.log, "drift: expected %d entries, read back %d", res.Drift.Expected, res.Drift.Actual)
	}

	if newIndex != indexText {
		if err := c.fs.Write(c.cfg.IndexFile, newIndex); err != nil {
			return res, errors.Join(fmt.Errorf("write %s: %w", c.cfg.IndexFile, err), bk.restore())
		}
	}

	archiveDir := path.Join(c.cfg.MemoryDir, ArchiveDir)
	for _, src := range sources {
		dst := c.archivePath(archiveDir, src)
		if err := c.fs.Move(src, dst); err != nil {
			return res, fmt.Errorf("archive %s: %w", src, err)
		}
		res.Archived = append(res.Archived, dst)
		c.log.Debug().Str("from", src).Str("to", dst).Msg("archived memory file")
	}

	res.Summary = c.memorySummary(sources, classified, writes, index)
	c.log.Info().Msg(res.Summary)
	return res, nil
}

// memorySources lists the settled markdown notes directly inside the
// memory directory.
func (c *Compressor) memorySources(res *Result) ([]string, error) {
	entries, err := c.fs.List(c.cfg.MemoryDir)
	if errors.Is(err, storage.ErrNotExist) {
		c.log.Info().Str("dir", c.cfg.MemoryDir).Msg("memory directory missing")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.cfg.MemoryDir, err)
	}

	indexName := path.Base(c.cfg.IndexFile)
	now := c.now()
	var out []string
	for _, e := range entries {
		switch {
		case e.IsDir:
			continue
		case !isMarkdown(e.Name):
			continue
		case strings.EqualFold(e.Name, indexName):
			continue
		case c.cfg.IsExcluded(e.Name):
			c.log.Debug().Str("file", e.Name).Msg("excluded by pattern")
			continue
		}
		if age := now.Sub(e.ModTime); age < c.window {
			c.log.Info().Str("file", e.Name).Str("age", age.Round(time.Second).String()).Msg("skipping recently modified file")
			continue
		}
		out = append(out, path.Join(c.cfg.MemoryDir, e.Name))
	}
	return out, nil
}

func isMarkdown(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

func (c *Compressor) memorySummary(sources []string, classified []model.Classified, writes []detailWrite, index model.Artifact) string {
	return fmt.Sprintf("%s: %d file(s), %d section(s), %d categor%s updated, index %d/%d bytes",
		c.prefix(WorkflowMemory), len(sources), len(classified), len(writes), plural(len(writes), "y", "ies"),
		index.Block, index.Ceiling)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
