package compress

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/gregoramon/openclaw-skill-context-compress/internal/config"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/merge"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/model"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/parser"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/serialize"
)

// SkillsTitle is the title of the skill index block.
const SkillsTitle = "Skills"

// Skill is the descriptor read from a skill file's front matter.
type Skill struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Path        string `yaml:"-"`
}

// Entry renders the skill as one block entry.
func (s Skill) Entry() string {
	name := serialize.NormalizeKey(s.Name)
	if name == "" {
		return ""
	}
	if desc := serialize.Summary(s.Description); desc != "" {
		return name + ":" + desc
	}
	return name
}

// IndexSkills lists every discovered skill in one block inside the skill
// index file.
func (c *Compressor) IndexSkills(ctx context.Context) (*Result, error) {
	ctx, span := c.obs.StartSpan(ctx, WorkflowSkills, c.runID)
	defer span.End()

	res := c.newResult(WorkflowSkills)
	paths, err := c.fs.Glob(c.cfg.SkillsGlob)
	if err != nil {
		return res, fmt.Errorf("find skills: %w", err)
	}

	var entries []string
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		skill, err := c.readSkill(p)
		if err != nil {
			res.warn(c.log, "%s: %v", p, err)
			continue
		}
		e := skill.Entry()
		if e == "" {
			res.warn(c.log, "%s: skill has no usable name", p)
			continue
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		res.Skipped = true
		res.Summary = c.prefix(WorkflowSkills) + ": no skills found"
		c.log.Info().Msg(res.Summary)
		return res, nil
	}

	name := c.cfg.SkillIndexFile
	text, existed, err := c.readOptional(name)
	if err != nil {
		return res, err
	}
	block := model.Block{
		Tag:    model.SkillsTag,
		Title:  SkillsTitle,
		Groups: []model.Group{{Key: WorkflowSkills, Entries: entries}},
	}
	rendered := serialize.Render(block)
	out, err := serialize.Replace(text, block)
	if err != nil {
		return res, fmt.Errorf("update %s: %w", name, err)
	}

	a := model.Artifact{
		Path:    name,
		Before:  len(text),
		After:   len(out),
		Block:   len(rendered),
		Ceiling: c.cfg.Ceilings.Skills,
	}
	res.Artifacts = append(res.Artifacts, a)
	res.ceilingCheck(c.log, a)
	res.Summary = fmt.Sprintf("%s: %d skill(s), index %d/%d bytes", c.prefix(WorkflowSkills), len(entries), a.Block, a.Ceiling)

	if c.dryRun || out == text {
		res.Drift = merge.Drift{Expected: len(entries), Actual: blockEntries(out, model.SkillsTag)}
		c.log.Info().Msg(res.Summary)
		return res, nil
	}

	bk := c.newBackups(path.Join(c.cfg.MemoryDir, ArchiveDir, WorkflowSkills, c.runID))
	if err := bk.save(name, existed); err != nil {
		return res, err
	}
	if err := c.fs.Write(name, out); err != nil {
		return res, errors.Join(fmt.Errorf("write %s: %w", name, err), bk.restore())
	}
	written, err := c.fs.Read(name)
	if err != nil {
		return res, fmt.Errorf("verify %s: %w", name, err)
	}
	res.Drift = merge.Drift{Expected: len(entries), Actual: blockEntries(written, model.SkillsTag)}
	if res.Drift.Exceeds(c.cfg.DriftThreshold) {
		if c.cfg.DriftPolicy == config.DriftRestore {
			derr := fmt.Errorf("%w: %s: expected %d entries, read back %d", ErrSemanticDrift, name, res.Drift.Expected, res.Drift.Actual)
			res.Artifacts = nil
			return res, errors.Join(derr, bk.restore())
		}
		res.warn(c.log, "drift: expected %d entries, read back %d", res.Drift.Expected, res.Drift.Actual)
	}

	c.log.Info().Msg(res.Summary)
	return res, nil
}

func (c *Compressor) readSkill(p string) (Skill, error) {
	text, err := c.fs.Read(p)
	if err != nil {
		return Skill{}, fmt.Errorf("read skill: %w", err)
	}
	var s Skill
	if _, err := parser.FrontMatter(text, &s); err != nil {
		return Skill{}, err
	}
	if s.Name == "" {
		s.Name = path.Base(path.Dir(p))
	}
	s.Path = p
	return s, nil
}
