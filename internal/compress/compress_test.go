package compress

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gregoramon/openclaw-skill-context-compress/internal/config"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/model"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/parser"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/serialize"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/storage"
)

var testNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func newTestFS() *storage.MemStorage {
	return storage.NewMemStorage(func() time.Time { return testNow })
}

func newTestCompressor(t *testing.T, fs storage.Storage, now time.Time, runID string, mutate ...func(*Options)) *Compressor {
	t.Helper()
	opts := Options{
		Config: config.Default(),
		Now:    func() time.Time { return now },
		RunID:  runID,
	}
	for _, m := range mutate {
		m(&opts)
	}
	c, err := New(fs, opts)
	require.NoError(t, err)
	return c
}

// put writes a file whose last modification was age before testNow.
func put(t *testing.T, fs *storage.MemStorage, p, text string, age time.Duration) {
	t.Helper()
	require.NoError(t, fs.Write(p, text))
	fs.SetModTime(p, testNow.Add(-age))
}

func read(t *testing.T, fs storage.Storage, p string) string {
	t.Helper()
	text, err := fs.Read(p)
	require.NoError(t, err, p)
	return text
}

func snapshot(t *testing.T, fs *storage.MemStorage) map[string]string {
	t.Helper()
	out := map[string]string{}
	for _, p := range fs.Files() {
		out[p] = read(t, fs, p)
	}
	return out
}

const (
	decisionNote = "# 2026-10-14\n\n## Decision: database\n- **choice:** Postgres 16\n- keep migrations small\n"
	factNote     = "# 2026-10-15\n\n## Fact: deployment\n- blue-green behind the load balancer\n"
)

// lossyStorage drops every bullet line the first time each detail file
// is written.
type lossyStorage struct {
	*storage.MemStorage
	mangled map[string]bool
}

func (l *lossyStorage) Write(p, text string) error {
	if strings.Contains(p, "/"+CompressedDir+"/") && !strings.Contains(p, "/"+ArchiveDir+"/") && !l.mangled[p] {
		l.mangled[p] = true
		var kept []string
		for _, line := range strings.Split(text, "\n") {
			if !strings.HasPrefix(line, "- ") {
				kept = append(kept, line)
			}
		}
		text = strings.Join(kept, "\n")
	}
	return l.MemStorage.Write(p, text)
}

// failingStorage rejects writes to one path.
type failingStorage struct {
	*storage.MemStorage
	path string
}

func (f *failingStorage) Write(p, text string) error {
	if p == f.path {
		return errors.New("disk full")
	}
	return f.MemStorage.Write(p, text)
}

func TestConsolidateMemory_ScenarioB(t *testing.T) {
	fs := newTestFS()
	put(t, fs, "memory/2026-10-14.md", decisionNote, 46*time.Hour)
	put(t, fs, "memory/2026-10-15.md", factNote, 22*time.Hour)

	c := newTestCompressor(t, fs, testNow, "RUN1")
	res, err := c.ConsolidateMemory(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Empty(t, res.Warnings)

	decisions := parser.Parse(read(t, fs, "memory/compressed/decisions.md"))
	require.Len(t, decisions, 1)
	assert.Equal(t, "Decision: database", decisions[0].Header)
	facts := parser.Parse(read(t, fs, "memory/compressed/facts.md"))
	require.Len(t, facts, 1)
	assert.Equal(t, "Fact: deployment", facts[0].Header)

	index, ok, err := serialize.Find(read(t, fs, "MEMORY.md"), model.IndexTag)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []model.Group{
		{Key: "DEC", Entries: []string{"file:memory/compressed/decisions.md", "n:1", "decision-database"}},
		{Key: "FACT", Entries: []string{"file:memory/compressed/facts.md", "n:1", "fact-deployment"}},
	}, index.Groups)

	assert.False(t, storage.Exists(fs, "memory/2026-10-14.md"))
	assert.False(t, storage.Exists(fs, "memory/2026-10-15.md"))
	assert.Equal(t, decisionNote, read(t, fs, "memory/archive/2026-10-14.md"))
	assert.Equal(t, factNote, read(t, fs, "memory/archive/2026-10-15.md"))
	assert.Equal(t, []string{"memory/archive/2026-10-14.md", "memory/archive/2026-10-15.md"}, res.Archived)

	assert.Equal(t, 3, res.Drift.Expected)
	assert.Equal(t, 3, res.Drift.Actual)
	assert.Len(t, res.Merged, 2)
	assert.Contains(t, res.Summary, "2 file(s)")
}

func TestConsolidateMemory_ScenarioC(t *testing.T) {
	fs := newTestFS()
	put(t, fs, "memory/today.md", decisionNote, 2*time.Hour)

	c := newTestCompressor(t, fs, testNow, "RUN1")
	res, err := c.ConsolidateMemory(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.True(t, storage.Exists(fs, "memory/today.md"))
	assert.False(t, storage.Exists(fs, "MEMORY.md"))

	later := newTestCompressor(t, fs, testNow.Add(11*time.Hour), "RUN2")
	res, err = later.ConsolidateMemory(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.False(t, storage.Exists(fs, "memory/today.md"))
	assert.True(t, storage.Exists(fs, "memory/compressed/decisions.md"))
}

func TestConsolidateMemory_UnionAcrossRuns(t *testing.T) {
	fs := newTestFS()
	put(t, fs, "memory/a.md", decisionNote, 48*time.Hour)
	_, err := newTestCompressor(t, fs, testNow, "RUN1").ConsolidateMemory(context.Background())
	require.NoError(t, err)
	before := serialize.EntryCount(parser.Parse(read(t, fs, "memory/compressed/decisions.md")))

	second := "## Chose queue\n- **choice:** NATS\n## Architecture review\nSplit the ingest path.\n"
	put(t, fs, "memory/b.md", second, 48*time.Hour)
	res, err := newTestCompressor(t, fs, testNow, "RUN2").ConsolidateMemory(context.Background())
	require.NoError(t, err)

	text := read(t, fs, "memory/compressed/decisions.md")
	sections := parser.Parse(text)
	headers := make([]string, 0, len(sections))
	for _, s := range sections {
		headers = append(headers, s.Header)
	}
	assert.Equal(t, []string{"Decision: database", "Chose queue", "Architecture review"}, headers)

	after := serialize.EntryCount(sections)
	assert.Equal(t, before+serialize.EntryCount(parser.Parse(second)), after)
	assert.Contains(t, text, fmt.Sprintf("entries: %d\n", after))

	// The previous detail file was backed up before being replaced.
	assert.True(t, storage.Exists(fs, "memory/archive/compressed/RUN2/decisions.md"))

	index, _, err := serialize.Find(read(t, fs, "MEMORY.md"), model.IndexTag)
	require.NoError(t, err)
	require.Len(t, index.Groups, 1)
	assert.Equal(t, "n:3", index.Groups[0].Entries[1])
	assert.Len(t, res.Artifacts, 2)
}

func TestConsolidateMemory_IndexKeepsOtherText(t *testing.T) {
	fs := newTestFS()
	put(t, fs, "MEMORY.md", "# Memory\n\nHand-written notes stay.\n", 0)
	put(t, fs, "memory/a.md", factNote, 48*time.Hour)

	_, err := newTestCompressor(t, fs, testNow, "RUN1").ConsolidateMemory(context.Background())
	require.NoError(t, err)

	text := read(t, fs, "MEMORY.md")
	assert.True(t, strings.HasPrefix(text, "# Memory\n\nHand-written notes stay.\n\n<!-- MEMORY-INDEX-START -->"))
	assert.True(t, strings.HasSuffix(text, "<!-- MEMORY-INDEX-END -->\n"))
}

func TestConsolidateMemory_MissingInput(t *testing.T) {
	fs := newTestFS()
	put(t, fs, "SOUL.md", "## Tone\n- warm\n", 0)
	before := snapshot(t, fs)

	res, err := newTestCompressor(t, fs, testNow, "RUN1").ConsolidateMemory(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, before, snapshot(t, fs))
}

func TestConsolidateMemory_SourceSelection(t *testing.T) {
	fs := newTestFS()
	put(t, fs, "memory/keep.md", factNote, 48*time.Hour)
	put(t, fs, "memory/journal.markdown", decisionNote, 48*time.Hour)
	put(t, fs, "memory/MEMORY.md", factNote, 48*time.Hour)
	put(t, fs, "memory/notes.txt", factNote, 48*time.Hour)
	put(t, fs, "memory/draft-plan.md", factNote, 48*time.Hour)
	put(t, fs, "memory/archive/old.md", factNote, 48*time.Hour)
	put(t, fs, "memory/compressed/facts.md", "", 48*time.Hour)

	c := newTestCompressor(t, fs, testNow, "RUN1", func(o *Options) {
		o.Config.Exclude = []string{"draft-*"}
	})
	res, err := c.ConsolidateMemory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"memory/archive/journal.markdown", "memory/archive/keep.md"}, res.Archived)
	for _, p := range []string{"memory/MEMORY.md", "memory/notes.txt", "memory/draft-plan.md", "memory/archive/old.md"} {
		assert.True(t, storage.Exists(fs, p), p)
	}
}

func TestConsolidateMemory_ArchiveNameCollision(t *testing.T) {
	fs := newTestFS()
	put(t, fs, "memory/archive/a.md", "older", 0)
	put(t, fs, "memory/a.md", factNote, 48*time.Hour)

	res, err := newTestCompressor(t, fs, testNow, "RUN1").ConsolidateMemory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"memory/archive/a-RUN1.md"}, res.Archived)
	assert.Equal(t, "older", read(t, fs, "memory/archive/a.md"))
	assert.Equal(t, factNote, read(t, fs, "memory/archive/a-RUN1.md"))
}

func TestConsolidateMemory_DryRun(t *testing.T) {
	fs := newTestFS()
	put(t, fs, "memory/a.md", decisionNote, 48*time.Hour)
	before := snapshot(t, fs)

	c := newTestCompressor(t, fs, testNow, "RUN1", func(o *Options) { o.DryRun = true })
	res, err := c.ConsolidateMemory(context.Background())
	require.NoError(t, err)

	assert.Equal(t, before, snapshot(t, fs))
	assert.True(t, res.DryRun)
	assert.Contains(t, res.Summary, "dry run")
	assert.Empty(t, res.Archived)
	require.Len(t, res.Artifacts, 2)
	assert.Equal(t, "memory/compressed/decisions.md", res.Artifacts[0].Path)
	assert.Equal(t, 0, res.Artifacts[0].Before)
	assert.Greater(t, res.Artifacts[0].After, 0)
	assert.Equal(t, res.Drift.Expected, res.Drift.Actual)
}

func TestConsolidateMemory_DriftRestores(t *testing.T) {
	mem := newTestFS()
	put(t, mem, "memory/a.md", decisionNote, 48*time.Hour)
	_, err := newTestCompressor(t, mem, testNow, "RUN1").ConsolidateMemory(context.Background())
	require.NoError(t, err)

	put(t, mem, "memory/b.md", "## Chose queue\n- NATS\n", 48*time.Hour)
	put(t, mem, "memory/c.md", factNote, 48*time.Hour)
	before := snapshot(t, mem)

	fs := &lossyStorage{MemStorage: mem, mangled: map[string]bool{}}
	res, err := newTestCompressor(t, fs, testNow, "RUN2").ConsolidateMemory(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSemanticDrift))
	assert.Contains(t, res.Summary, "restored")

	after := snapshot(t, mem)
	for p, text := range before {
		assert.Equal(t, text, after[p], p)
	}
	assert.False(t, storage.Exists(mem, "memory/compressed/facts.md"))
	assert.True(t, storage.Exists(mem, "memory/b.md"))
	assert.True(t, storage.Exists(mem, "memory/c.md"))
}

func TestConsolidateMemory_DriftWarnPolicy(t *testing.T) {
	mem := newTestFS()
	put(t, mem, "memory/a.md", decisionNote, 48*time.Hour)
	fs := &lossyStorage{MemStorage: mem, mangled: map[string]bool{}}

	c := newTestCompressor(t, fs, testNow, "RUN1", func(o *Options) {
		o.Config.DriftPolicy = config.DriftWarn
	})
	res, err := c.ConsolidateMemory(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "drift")
	assert.Equal(t, []string{"memory/archive/a.md"}, res.Archived)
}

func TestConsolidateMemory_WriteFailureRollsBack(t *testing.T) {
	mem := newTestFS()
	put(t, mem, "memory/a.md", decisionNote, 48*time.Hour)
	before := snapshot(t, mem)

	fs := &failingStorage{MemStorage: mem, path: "MEMORY.md"}
	_, err := newTestCompressor(t, fs, testNow, "RUN1").ConsolidateMemory(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write MEMORY.md")
	assert.Equal(t, before, snapshot(t, mem))
}

func TestConsolidateMemory_DuplicateIndexMarker(t *testing.T) {
	fs := newTestFS()
	block := "<!-- MEMORY-INDEX-START -->[Memory Index]<!-- MEMORY-INDEX-END -->"
	put(t, fs, "MEMORY.md", block+"\n\n"+block+"\n", 0)
	put(t, fs, "memory/a.md", decisionNote, 48*time.Hour)
	before := snapshot(t, fs)

	_, err := newTestCompressor(t, fs, testNow, "RUN1").ConsolidateMemory(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, serialize.ErrDuplicateMarker))
	assert.Equal(t, before, snapshot(t, fs))
}

func TestConsolidateMemory_IndexCeilingWarning(t *testing.T) {
	fs := newTestFS()
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&sb, "## Reference number %03d for the long index\n- x\n", i)
	}
	put(t, fs, "memory/big.md", sb.String(), 48*time.Hour)

	res, err := newTestCompressor(t, fs, testNow, "RUN1").ConsolidateMemory(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "ceiling")
	assert.Equal(t, []string{"memory/archive/big.md"}, res.Archived)
}

const soulNote = "# Soul\n\n## Tone\n- warm\n- professional\n\n## Style\n- concise\n"

func TestCompressBootstrap_ScenarioA(t *testing.T) {
	fs := newTestFS()
	put(t, fs, "SOUL.md", soulNote, 0)

	res, err := newTestCompressor(t, fs, testNow, "RUN1").CompressBootstrap(context.Background())
	require.NoError(t, err)

	block := "<!-- SOUL-START -->[Soul]|TONE:{warm,professional}|STYLE:{concise}<!-- SOUL-END -->"
	assert.Equal(t, strings.TrimRight(soulNote, "\n")+"\n\n"+block+"\n", read(t, fs, "SOUL.md"))
	assert.Equal(t, soulNote, read(t, fs, "memory/archive/bootstrap/RUN1/SOUL.md"))

	require.Len(t, res.Artifacts, 1)
	a := res.Artifacts[0]
	assert.Equal(t, len(soulNote), a.Before)
	assert.Equal(t, len(block), a.Block)
	assert.Equal(t, model.DefaultCeiling, a.Ceiling)
	assert.Contains(t, res.Summary, "1 file(s), 1 changed")
}

func TestCompressBootstrap_Idempotent(t *testing.T) {
	fs := newTestFS()
	put(t, fs, "SOUL.md", soulNote, 0)
	put(t, fs, "USER.md", "## Name\n- **preferred:** Sam\n\n## Timezone\nEurope/Berlin\n", 0)

	_, err := newTestCompressor(t, fs, testNow, "RUN1").CompressBootstrap(context.Background())
	require.NoError(t, err)
	first := snapshot(t, fs)

	res, err := newTestCompressor(t, fs, testNow, "RUN2").CompressBootstrap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, snapshot(t, fs))
	for _, a := range res.Artifacts {
		assert.False(t, a.Changed(), a.Path)
	}
	assert.Contains(t, res.Summary, "2 file(s), 0 changed")
}

func TestCompressBootstrap_IdempotentWithBlankLineRuns(t *testing.T) {
	fs := newTestFS()
	soul := "# Soul\n\n\n## Tone\n- warm\n- professional\n\n## Style\n- concise\n"
	put(t, fs, "SOUL.md", soul, 0)

	_, err := newTestCompressor(t, fs, testNow, "RUN1").CompressBootstrap(context.Background())
	require.NoError(t, err)
	first := read(t, fs, "SOUL.md")
	assert.True(t, strings.HasPrefix(first, "# Soul\n\n\n## Tone\n"), first)

	res, err := newTestCompressor(t, fs, testNow, "RUN2").CompressBootstrap(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, read(t, fs, "SOUL.md"))
	assert.False(t, storage.Exists(fs, "memory/archive/bootstrap/RUN2/SOUL.md"))
	assert.Contains(t, res.Summary, "1 file(s), 0 changed")
}

func TestCompressBootstrap_MissingFiles(t *testing.T) {
	fs := newTestFS()
	res, err := newTestCompressor(t, fs, testNow, "RUN1").CompressBootstrap(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Empty(t, fs.Files())
}

func TestCompressBootstrap_NoSectionsLeftAlone(t *testing.T) {
	fs := newTestFS()
	put(t, fs, "AGENTS.md", "# Agents\n\nJust an intro paragraph.\n", 0)
	before := snapshot(t, fs)

	_, err := newTestCompressor(t, fs, testNow, "RUN1").CompressBootstrap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, snapshot(t, fs))
}

func TestCompressBootstrap_CeilingWarning(t *testing.T) {
	fs := newTestFS()
	var sb strings.Builder
	sb.WriteString("## Tools\n")
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&sb, "- tool number %03d does something useful\n", i)
	}
	put(t, fs, "TOOLS.md", sb.String(), 0)

	res, err := newTestCompressor(t, fs, testNow, "RUN1").CompressBootstrap(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "ceiling")
	assert.True(t, res.Artifacts[0].OverCeiling())
	assert.Contains(t, read(t, fs, "TOOLS.md"), "<!-- TOOLS-END -->")
}

func TestCompressBootstrap_DuplicateMarker(t *testing.T) {
	fs := newTestFS()
	block := "<!-- SOUL-START -->[Soul]<!-- SOUL-END -->"
	put(t, fs, "SOUL.md", soulNote+"\n"+block+"\n"+block+"\n", 0)
	before := snapshot(t, fs)

	_, err := newTestCompressor(t, fs, testNow, "RUN1").CompressBootstrap(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, serialize.ErrDuplicateMarker))
	assert.Equal(t, before, snapshot(t, fs))
}

func TestCompressBootstrap_DryRun(t *testing.T) {
	fs := newTestFS()
	put(t, fs, "SOUL.md", soulNote, 0)
	before := snapshot(t, fs)

	c := newTestCompressor(t, fs, testNow, "RUN1", func(o *Options) { o.DryRun = true })
	res, err := c.CompressBootstrap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, snapshot(t, fs))
	require.Len(t, res.Artifacts, 1)
	assert.True(t, res.Artifacts[0].Changed())
	assert.Equal(t, 3, res.Drift.Actual)
}

func TestBootstrapTagAndTitle(t *testing.T) {
	assert.Equal(t, "SOUL", BootstrapTag("SOUL.md"))
	assert.Equal(t, "Soul", BootstrapTitle("SOUL.md"))
	assert.Equal(t, "IDENTITY", BootstrapTag("docs/identity.md"))
	assert.Equal(t, "Identity", BootstrapTitle("docs/identity.md"))
}

func TestIndexSkills(t *testing.T) {
	fs := newTestFS()
	put(t, fs, "skills/git/SKILL.md", "---\nname: git\ndescription: Commit, branch, and rebase helpers\n---\n# Git\n", 0)
	put(t, fs, "skills/web/search/SKILL.md", "# Search\nFind things.\n", 0)
	put(t, fs, "skills/bad/SKILL.md", "---\nname: [unclosed\n---\n", 0)
	put(t, fs, "SKILLS.md", "# Skills\n\nInstalled skills.\n", 0)

	res, err := newTestCompressor(t, fs, testNow, "RUN1").IndexSkills(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "skills/bad/SKILL.md")

	want := "# Skills\n\nInstalled skills.\n\n" +
		"<!-- SKILLS-INDEX-START -->[Skills]|SKILLS:{git:Commit;-branch;-and-rebase-helpers,search}<!-- SKILLS-INDEX-END -->\n"
	assert.Equal(t, want, read(t, fs, "SKILLS.md"))
	assert.Equal(t, 2, res.Drift.Actual)

	again, err := newTestCompressor(t, fs, testNow, "RUN2").IndexSkills(context.Background())
	require.NoError(t, err)
	assert.False(t, again.Artifacts[0].Changed())
	assert.Equal(t, want, read(t, fs, "SKILLS.md"))
}

func TestIndexSkills_NoSkills(t *testing.T) {
	fs := newTestFS()
	res, err := newTestCompressor(t, fs, testNow, "RUN1").IndexSkills(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.False(t, storage.Exists(fs, "SKILLS.md"))
}

func TestRunAll_ContinuesAfterFailure(t *testing.T) {
	fs := newTestFS()
	put(t, fs, "memory/a.md", decisionNote, 48*time.Hour)
	block := "<!-- SOUL-START -->[Soul]<!-- SOUL-END -->"
	put(t, fs, "SOUL.md", block+"\n"+block+"\n", 0)
	put(t, fs, "skills/git/SKILL.md", "---\nname: git\n---\n", 0)

	var order []string
	report, err := newTestCompressor(t, fs, testNow, "RUN1").RunAll(context.Background(), Skip{}, func(r *Result, _ error) {
		order = append(order, r.Workflow)
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, serialize.ErrDuplicateMarker))
	assert.Contains(t, err.Error(), "bootstrap:")
	assert.Equal(t, []string{WorkflowMemory, WorkflowBootstrap, WorkflowSkills}, order)

	assert.True(t, storage.Exists(fs, "memory/compressed/decisions.md"))
	assert.True(t, storage.Exists(fs, "SKILLS.md"))
	assert.Equal(t, "RUN1", report.RunID)

	var buf bytes.Buffer
	_, err = report.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "report: 3 artifact(s) changed")
	assert.Contains(t, buf.String(), "  MEMORY.md: 0 -> ")
}

func TestRunAll_Skip(t *testing.T) {
	fs := newTestFS()
	put(t, fs, "memory/a.md", decisionNote, 48*time.Hour)
	put(t, fs, "SOUL.md", soulNote, 0)

	report, err := newTestCompressor(t, fs, testNow, "RUN1").RunAll(context.Background(),
		Skip{Memory: true, Skills: true}, nil)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, WorkflowBootstrap, report.Results[0].Workflow)
	assert.True(t, storage.Exists(fs, "memory/a.md"))
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.DriftPolicy = "ignore"
	_, err := New(newTestFS(), Options{Config: cfg})
	assert.True(t, errors.Is(err, config.ErrInvalid))
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(testNow), NewRunID(testNow)
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
}
