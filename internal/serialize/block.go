// Package serialize renders sections into compact marker-delimited blocks
// and full detail files, and strips previously emitted blocks.
package serialize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gregoramon/openclaw-skill-context-compress/internal/model"
)

// ErrDuplicateMarker is returned when a tag's start marker occurs more than
// once in a file. Such files are left untouched.
var ErrDuplicateMarker = errors.New("duplicate block marker")

// ErrMalformedBlock is returned by ParseBlock for text that is not a block.
var ErrMalformedBlock = errors.New("malformed block")

var (
	blankRuns  = regexp.MustCompile(`^\n{4,}$`)
	groupRe    = regexp.MustCompile(`\|([^|:{}]+):\{([^{}]*)\}`)
	titleClean = strings.NewReplacer("[", "", "]", "", "\r", " ", "\n", " ")
)

// Markers returns the start and end markers for tag.
func Markers(tag string) (start, end string) {
	return "<!-- " + tag + "-START -->", "<!-- " + tag + "-END -->"
}

// Render writes the block as a single line. Groups without entries are
// omitted and group keys are upper-cased.
func Render(b model.Block) string {
	start, end := Markers(b.Tag)
	var sb strings.Builder
	sb.WriteString(start)
	sb.WriteString("[" + titleClean.Replace(b.Title) + "]")
	for _, g := range b.Groups {
		if len(g.Entries) == 0 {
			continue
		}
		sb.WriteString("|")
		sb.WriteString(strings.ToUpper(g.Key))
		sb.WriteString(":{")
		sb.WriteString(strings.Join(g.Entries, ","))
		sb.WriteString("}")
	}
	sb.WriteString(end)
	return sb.String()
}

func spanPattern(tag string) *regexp.Regexp {
	start, end := Markers(tag)
	return regexp.MustCompile(`(?s)\n?` + regexp.QuoteMeta(start) + `.*?` + regexp.QuoteMeta(end) + `\n?`)
}

// Strip removes the block for tag, together with one adjacent newline on
// each side, and trims trailing whitespace. Three or more blank lines left
// where the block was collapse to one; the rest of the text is untouched.
// Text without the block is returned unchanged.
func Strip(text, tag string) (string, error) {
	start, _ := Markers(tag)
	switch n := strings.Count(text, start); {
	case n == 0:
		return text, nil
	case n > 1:
		return "", fmt.Errorf("%w: %s occurs %d times", ErrDuplicateMarker, tag, n)
	}
	loc := spanPattern(tag).FindStringIndex(text)
	if loc == nil {
		return text, nil
	}
	before := text[:loc[0]]
	after := text[loc[1]:]
	head := strings.TrimRight(before, "\n")
	tail := strings.TrimLeft(after, "\n")
	seam := before[len(head):] + after[:len(after)-len(tail)]
	seam = blankRuns.ReplaceAllString(seam, "\n\n")
	return strings.TrimRight(head+seam+tail, " \t\r\n"), nil
}

// Replace strips any existing block for b.Tag from text and appends the
// freshly rendered block after a blank line.
func Replace(text string, b model.Block) (string, error) {
	base, err := Strip(text, b.Tag)
	if err != nil {
		return "", err
	}
	base = strings.TrimRight(base, " \t\r\n")
	if base == "" {
		return Render(b) + "\n", nil
	}
	return base + "\n\n" + Render(b) + "\n", nil
}

// Find locates and decodes the block for tag inside text.
func Find(text, tag string) (model.Block, bool, error) {
	start, _ := Markers(tag)
	if n := strings.Count(text, start); n > 1 {
		return model.Block{}, false, fmt.Errorf("%w: %s occurs %d times", ErrDuplicateMarker, tag, n)
	}
	span := spanPattern(tag).FindString(text)
	if span == "" {
		return model.Block{}, false, nil
	}
	b, err := ParseBlock(strings.TrimSpace(span))
	if err != nil {
		return model.Block{}, false, err
	}
	return b, true, nil
}

var blockRe = regexp.MustCompile(`^<!-- (.+?)-START -->\[([^\]]*)\](.*)<!-- (.+?)-END -->$`)

// ParseBlock decodes one rendered block line.
func ParseBlock(line string) (model.Block, error) {
	m := blockRe.FindStringSubmatch(line)
	if m == nil || m[1] != m[4] {
		return model.Block{}, ErrMalformedBlock
	}
	b := model.Block{Tag: m[1], Title: m[2]}
	body := m[3]
	for _, g := range groupRe.FindAllStringSubmatch(body, -1) {
		b.Groups = append(b.Groups, model.Group{Key: g[1], Entries: strings.Split(g[2], ",")})
	}
	if rest := groupRe.ReplaceAllString(body, ""); rest != "" {
		return model.Block{}, fmt.Errorf("%w: unexpected %q", ErrMalformedBlock, rest)
	}
	return b, nil
}
