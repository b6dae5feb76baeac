package serialize

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gregoramon/openclaw-skill-context-compress/internal/model"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/parser"
)

func TestNormalizeKey(t *testing.T) {
	tests := map[string]string{
		"**Database Choice:**": "database-choice",
		"  API / URL  ":        "api-url",
		"## Tone":              "tone",
		"[[Link]] text":        "link-text",
		"--x--":                "x",
		"snake_case key":       "snakecase-key",
		"!!!":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeKey(in), in)
	}
}

func TestNormalizeValue(t *testing.T) {
	tests := map[string]string{
		"Postgres 16 (primary)": "Postgres-16-(primary)",
		"**bold** `code`":       "bold-code",
		"a, b | c {d}":          "a;-b-c-d",
		"  Mixed   Case  ":      "Mixed-Case",
		"snake_case":            "snake_case",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeValue(in), in)
	}
}

func TestEntries(t *testing.T) {
	s := model.Section{
		Header:  "Decision",
		Fields:  []model.Field{{Key: "Choice", Value: "Postgres 16"}, {Key: "Notes", Value: ""}},
		Bullets: []string{"keep it simple"},
		Prose:   "ignored because fields exist",
	}
	assert.Equal(t, []string{"choice:Postgres-16", "notes", "keep-it-simple"}, Entries(s))
}

func TestEntries_ProseFallback(t *testing.T) {
	long := strings.Repeat("word ", 40) // 200 chars
	got := Entries(model.Section{Header: "h", Prose: long})
	require.Len(t, got, 1)
	assert.Equal(t, NormalizeValue(long[:ProseLimit]), got[0])

	assert.Empty(t, Entries(model.Section{Header: "empty"}))
}

func TestEntries_ProseFallbackIsRuneSafe(t *testing.T) {
	prose := strings.Repeat("é", 150)
	got := Entries(model.Section{Header: "h", Prose: prose})
	require.Len(t, got, 1)
	assert.Equal(t, strings.Repeat("é", ProseLimit), got[0])
}

func TestRender_ScenarioA(t *testing.T) {
	sections := parser.Parse("# Soul\n\n## Tone\n- warm\n- professional\n\n## Style\n- concise\n")
	b := model.Block{Tag: "SOUL", Title: "Soul", Groups: SectionGroups(sections)}
	out := Render(b)

	assert.NotContains(t, out, "\n")
	assert.Equal(t,
		"<!-- SOUL-START -->[Soul]|TONE:{warm,professional}|STYLE:{concise}<!-- SOUL-END -->",
		out)
}

func TestRender_OmitsEmptyGroups(t *testing.T) {
	b := model.Block{Tag: "T", Title: "t", Groups: []model.Group{
		{Key: "empty"},
		{Key: "full", Entries: []string{"x"}},
	}}
	assert.Equal(t, "<!-- T-START -->[t]|FULL:{x}<!-- T-END -->", Render(b))
}

func TestStrip_RemovesExactlyTheSpan(t *testing.T) {
	block := Render(model.Block{Tag: "SOUL", Title: "Soul", Groups: []model.Group{{Key: "a", Entries: []string{"b"}}}})
	text := "intro\n\n" + block + "\n\nafter\n"

	got, err := Strip(text, "SOUL")
	require.NoError(t, err)
	assert.Equal(t, "intro\n\nafter", got)
}

func TestStrip_AppendedBlock(t *testing.T) {
	text := "# Title\n\n## A\n- x\n\n<!-- T-START -->[t]|A:{x}<!-- T-END -->\n"
	got, err := Strip(text, "T")
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\n## A\n- x", got)
}

func TestStrip_NoBlockIsUnchanged(t *testing.T) {
	text := "plain text\n\n\n\nwith gaps\n"
	got, err := Strip(text, "T")
	require.NoError(t, err)
	assert.Equal(t, text, got)
}

func TestStrip_OtherTagUntouched(t *testing.T) {
	text := "x\n\n<!-- SOUL-START -->[s]<!-- SOUL-END -->\n"
	got, err := Strip(text, "MEMORY-INDEX")
	require.NoError(t, err)
	assert.Equal(t, text, got)
}

func TestStrip_DuplicateMarker(t *testing.T) {
	b := "<!-- T-START -->[t]<!-- T-END -->"
	_, err := Strip("a\n"+b+"\nb\n"+b+"\n", "T")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateMarker))
}

func TestStrip_CollapsesBlankLines(t *testing.T) {
	text := "top\n\n\n<!-- T-START -->[t]<!-- T-END -->\n\n\n\nbottom"
	got, err := Strip(text, "T")
	require.NoError(t, err)
	assert.Equal(t, "top\n\nbottom", got)
}

func TestStrip_LeavesBlankRunsAwayFromTheBlock(t *testing.T) {
	block := "<!-- T-START -->[t]<!-- T-END -->"
	got, err := Strip("intro\n\n\nmiddle\n\n"+block+"\n", "T")
	require.NoError(t, err)
	assert.Equal(t, "intro\n\n\nmiddle", got)

	got, err = Strip("a\n\n\n\n\nb\n\n"+block+"\n\nc\n", "T")
	require.NoError(t, err)
	assert.Equal(t, "a\n\n\n\n\nb\n\nc", got)
}

func TestStrip_KeepsTwoBlankLinesAtTheSeam(t *testing.T) {
	got, err := Strip("top\n\n<!-- T-START -->[t]<!-- T-END -->\n\n\nbottom", "T")
	require.NoError(t, err)
	assert.Equal(t, "top\n\n\nbottom", got)
}

func TestReplace_Idempotent(t *testing.T) {
	b := model.Block{Tag: "USER", Title: "User", Groups: []model.Group{{Key: "name", Entries: []string{"Sam"}}}}
	original := "# User\n\n## Name\n- Sam\n"

	first, err := Replace(original, b)
	require.NoError(t, err)
	second, err := Replace(first, b)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "# User\n\n## Name\n- Sam\n\n"+Render(b)+"\n", first)
}

func TestReplace_EmptyBase(t *testing.T) {
	b := model.Block{Tag: "T", Title: "t"}
	got, err := Replace("", b)
	require.NoError(t, err)
	assert.Equal(t, Render(b)+"\n", got)
}

func TestParseBlock_RoundTrip(t *testing.T) {
	b := model.Block{Tag: "MEMORY-INDEX", Title: "Memory Index", Groups: []model.Group{
		{Key: "DEC", Entries: []string{"file:compressed/decisions.md", "n:2", "decision-database"}},
		{Key: "FACT", Entries: []string{"Postgres-16-(primary)"}},
	}}
	got, err := ParseBlock(Render(b))
	require.NoError(t, err)
	assert.Equal(t, b, got)
	assert.Equal(t, 4, got.EntryCount())
}

func TestParseBlock_Malformed(t *testing.T) {
	for _, line := range []string{
		"",
		"no markers",
		"<!-- A-START -->[t]<!-- B-END -->",
		"<!-- A-START -->[t]garbage<!-- A-END -->",
	} {
		_, err := ParseBlock(line)
		assert.ErrorIs(t, err, ErrMalformedBlock, line)
	}
}

func TestFind(t *testing.T) {
	text := "notes\n\n<!-- T-START -->[t]|K:{a,b}<!-- T-END -->\n"
	b, ok, err := Find(text, "T")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, b.EntryCount())

	_, ok, err = Find("nothing here", "T")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBootstrapBlockStaysUnderCeiling(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("## Limits\n")
	for i := 0; ; i++ {
		line := fmt.Sprintf("- **setting %02d:** value number %02d\n", i, i)
		if sb.Len()+len(line) >= 1500 {
			break
		}
		sb.WriteString(line)
	}
	input := sb.String()
	require.Less(t, len(input), 1500)

	sections := parser.Parse(input)
	out := Render(model.Block{Tag: "TOOLS", Title: "Tools", Groups: SectionGroups(sections)})
	assert.LessOrEqual(t, len(out), model.DefaultCeiling)
	assert.Greater(t, len(out), model.DefaultCeiling/2, "fixture should sit near the ceiling")
}

func TestRenderDetail_RoundTrip(t *testing.T) {
	sections := []model.Section{
		{
			Header:  "Decision: database",
			Fields:  []model.Field{{Key: "Choice", Value: "Postgres 16"}, {Key: "Empty", Value: ""}},
			Bullets: []string{"keep migrations small", "- nested dash"},
			Prose:   "We talked about it for a while.",
		},
		{Header: "Bare heading"},
		{Header: "Only prose", Prose: "**Note:** not a bullet ##"},
	}
	text, err := RenderDetail(model.Decisions, sections)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(text, "---\ncategory: decisions\ntag: DEC\nsections: 3\nentries: 5\n---\n\n# Decisions\n"))
	assert.Equal(t, sections, parser.Parse(text))
}
