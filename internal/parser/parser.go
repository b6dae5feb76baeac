// Package parser turns markdown notes into ordered section records.
package parser

import (
	"regexp"
	"strings"

	"github.com/gregoramon/openclaw-skill-context-compress/internal/model"
)

// state tracks what the previous non-blank line produced.
type state int

const (
	outside   state = iota // no heading seen yet
	inSection              // heading seen, last line was blank, prose or the heading
	inField                // last line was a field
	inBullet               // last line was a plain bullet
)

var (
	headingRe = regexp.MustCompile(`^##[ \t]+(.*?)(?:[ \t]+#+)?[ \t]*$`)
	fieldRe   = regexp.MustCompile(`^[ \t]*(?:[-*+]|\d+[.)])[ \t]+(?:\*\*(.+?):?\*\*|__(.+?):?__)[ \t]*:?[ \t]*(.*)$`)
	bulletRe  = regexp.MustCompile(`^[ \t]*(?:[-*+]|\d+[.)])(?:[ \t]+(.*))?$`)
)

// Parse splits text into sections, one per second-level heading. Front
// matter is stripped first and lines before the first heading are dropped.
// Parse never fails: anything that is not a heading, field or bullet is prose.
func Parse(text string) []model.Section {
	text = StripFrontMatter(text)

	var sections []model.Section
	var cur *model.Section
	st := outside
	lastField := 0

	flush := func() {
		if cur != nil {
			sections = append(sections, *cur)
			cur = nil
		}
	}

	for raw := range strings.Lines(text) {
		line := strings.TrimRight(raw, " \t\r\n")

		if m := headingRe.FindStringSubmatch(line); m != nil && m[1] != "" {
			flush()
			cur = &model.Section{Header: m[1]}
			st = inSection
			continue
		}

		if st == outside {
			continue
		}

		if strings.TrimSpace(line) == "" {
			st = inSection
			continue
		}

		if m := fieldRe.FindStringSubmatch(line); m != nil {
			label := strings.TrimSpace(m[1] + m[2])
			if label != "" {
				lastField = cur.SetField(label, strings.TrimSpace(m[3]))
				st = inField
				continue
			}
		}

		if m := bulletRe.FindStringSubmatch(line); m != nil {
			text := strings.TrimSpace(m[1])
			if text != "" {
				cur.Bullets = append(cur.Bullets, text)
				st = inBullet
			}
			continue
		}

		// Indented lines directly under a field or bullet wrap onto it.
		if isIndented(line) {
			switch st {
			case inField:
				f := &cur.Fields[lastField]
				f.Value = joinSpace(f.Value, strings.TrimSpace(line))
				continue
			case inBullet:
				b := &cur.Bullets[len(cur.Bullets)-1]
				*b = joinSpace(*b, strings.TrimSpace(line))
				continue
			}
		}

		cur.Prose = joinSpace(cur.Prose, strings.TrimSpace(line))
		st = inSection
	}
	flush()

	return sections
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, "  ") || strings.HasPrefix(line, "\t")
}

func joinSpace(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + " " + b
}
