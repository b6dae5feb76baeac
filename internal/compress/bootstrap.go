package compress

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/gregoramon/openclaw-skill-context-compress/internal/config"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/merge"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/model"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/parser"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/serialize"
)

// BootstrapTag derives a block tag from a bootstrap file name: SOUL.md
// becomes SOUL.
func BootstrapTag(name string) string {
	return strings.ToUpper(serialize.NormalizeKey(stem(name)))
}

// BootstrapTitle derives a block title from a bootstrap file name: SOUL.md
// becomes Soul.
func BootstrapTitle(name string) string {
	s := strings.ToLower(stem(name))
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func stem(name string) string {
	base := path.Base(name)
	return strings.TrimSuffix(base, path.Ext(base))
}

// CompressBootstrap appends a compact block to each bootstrap file,
// replacing the block a previous run left there.
func (c *Compressor) CompressBootstrap(ctx context.Context) (*Result, error) {
	ctx, span := c.obs.StartSpan(ctx, WorkflowBootstrap, c.runID)
	defer span.End()

	res := c.newResult(WorkflowBootstrap)
	bk := c.newBackups(path.Join(c.cfg.MemoryDir, ArchiveDir, "bootstrap", c.runID))
	var found, changed int
	for _, name := range c.cfg.BootstrapFiles {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		text, ok, err := c.readOptional(name)
		if err != nil {
			return res, err
		}
		if !ok {
			c.log.Info().Str("file", name).Msg("bootstrap file missing")
			continue
		}
		found++
		wrote, err := c.compressBootstrapFile(res, bk, name, text)
		if err != nil {
			res.Summary = fmt.Sprintf("%s: failed on %s", c.prefix(WorkflowBootstrap), name)
			return res, err
		}
		if wrote {
			changed++
		}
	}

	if found == 0 {
		res.Skipped = true
		res.Summary = c.prefix(WorkflowBootstrap) + ": no bootstrap files found"
	} else {
		res.Summary = fmt.Sprintf("%s: %d file(s), %d changed", c.prefix(WorkflowBootstrap), found, changed)
	}
	c.log.Info().Msg(res.Summary)
	return res, nil
}

func (c *Compressor) compressBootstrapFile(res *Result, bk *backups, name, text string) (bool, error) {
	tag := BootstrapTag(name)
	if tag == "" {
		res.warn(c.log, "%s: cannot derive a block tag from the file name", name)
		return false, nil
	}
	base, err := serialize.Strip(text, tag)
	if err != nil {
		return false, fmt.Errorf("strip %s: %w", name, err)
	}
	sections := parser.Parse(base)
	if len(sections) == 0 {
		c.log.Info().Str("file", name).Msg("no sections to compress")
		return false, nil
	}

	block := model.Block{Tag: tag, Title: BootstrapTitle(name), Groups: serialize.SectionGroups(sections)}
	rendered := serialize.Render(block)
	out, err := serialize.Replace(text, block)
	if err != nil {
		return false, fmt.Errorf("update %s: %w", name, err)
	}

	a := model.Artifact{
		Path:    name,
		Before:  len(text),
		After:   len(out),
		Block:   len(rendered),
		Ceiling: c.cfg.Ceilings.Bootstrap,
	}
	res.Artifacts = append(res.Artifacts, a)
	res.ceilingCheck(c.log, a)

	expected := serialize.EntryCount(sections)
	if c.dryRun || out == text {
		d := merge.Drift{Expected: expected, Actual: blockEntries(out, tag)}
		res.Drift = res.Drift.Add(d)
		if d.Exceeds(c.cfg.DriftThreshold) {
			res.warn(c.log, "%s: drift: expected %d entries, rendered %d", name, d.Expected, d.Actual)
		}
		return false, nil
	}

	if err := bk.save(name, true); err != nil {
		return false, err
	}
	if err := c.fs.Write(name, out); err != nil {
		return false, errors.Join(fmt.Errorf("write %s: %w", name, err), bk.restore())
	}
	written, err := c.fs.Read(name)
	if err != nil {
		return false, fmt.Errorf("verify %s: %w", name, err)
	}
	d := merge.Drift{Expected: expected, Actual: blockEntries(written, tag)}
	res.Drift = res.Drift.Add(d)
	if d.Exceeds(c.cfg.DriftThreshold) {
		if c.cfg.DriftPolicy == config.DriftRestore {
			derr := fmt.Errorf("%w: %s: expected %d entries, read back %d", ErrSemanticDrift, name, d.Expected, d.Actual)
			res.Artifacts = res.Artifacts[:len(res.Artifacts)-1]
			return false, errors.Join(derr, bk.restore())
		}
		res.warn(c.log, "%s: drift: expected %d entries, read back %d", name, d.Expected, d.Actual)
	}
	bk.saved = nil
	c.log.Info().Str("file", name).Int("block", len(rendered)).Msg("compressed bootstrap file")
	return true, nil
}

// blockEntries counts the entries of tag's block inside text; a missing
// or unreadable block counts as zero.
func blockEntries(text, tag string) int {
	b, ok, err := serialize.Find(text, tag)
	if err != nil || !ok {
		return 0
	}
	return b.EntryCount()
}
