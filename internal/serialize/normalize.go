package serialize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gregoramon/openclaw-skill-context-compress/internal/model"
)

// ProseLimit is how many characters of prose stand in for a section with
// no fields or bullets.
const ProseLimit = 120

// blockPunct removes block syntax characters from entries; commas become
// semicolons so entry boundaries stay unambiguous.
var (
	markdownPunct = strings.NewReplacer("*", "", "`", "", "#", "", "[", "", "]", "", "~", "")
	blockPunct    = strings.NewReplacer("|", "", "{", "", "}", "", ",", ";")
	keyInvalid    = regexp.MustCompile(`[^a-z0-9-]+`)
	hyphenRuns    = regexp.MustCompile(`-{2,}`)
)

// NormalizeKey turns a label into a lower-case, hyphenated identifier made
// of [a-z0-9-] only.
func NormalizeKey(s string) string {
	s = markdownPunct.Replace(strings.ToLower(s))
	s = strings.Join(strings.Fields(s), "-")
	s = keyInvalid.ReplaceAllString(s, "")
	s = hyphenRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// NormalizeValue strips markdown punctuation and hyphenates whitespace but
// keeps case and other punctuation.
func NormalizeValue(s string) string {
	s = blockPunct.Replace(markdownPunct.Replace(s))
	return strings.Join(strings.Fields(s), "-")
}

// Entries flattens a section into block entries: fields first, then
// bullets, falling back to the leading prose when there are neither.
func Entries(s model.Section) []string {
	var out []string
	for _, f := range s.Fields {
		k, v := NormalizeKey(f.Key), NormalizeValue(f.Value)
		switch {
		case k == "" && v == "":
		case k == "":
			out = append(out, v)
		case v == "":
			out = append(out, k)
		default:
			out = append(out, k+":"+v)
		}
	}
	for _, b := range s.Bullets {
		if v := NormalizeValue(b); v != "" {
			out = append(out, v)
		}
	}
	if len(s.Fields) == 0 && len(s.Bullets) == 0 && s.Prose != "" {
		if v := NormalizeValue(truncate(s.Prose, ProseLimit)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// EntryCount is the number of entries a section contributes to a block.
func EntryCount(sections []model.Section) int {
	n := 0
	for _, s := range sections {
		n += len(Entries(s))
	}
	return n
}

// SectionGroups builds one group per section keyed by its normalized header.
func SectionGroups(sections []model.Section) []model.Group {
	groups := make([]model.Group, 0, len(sections))
	for _, s := range sections {
		key := NormalizeKey(s.Header)
		if key == "" {
			key = "section"
		}
		groups = append(groups, model.Group{Key: key, Entries: Entries(s)})
	}
	return groups
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// Summary normalizes the leading ProseLimit characters of s.
func Summary(s string) string {
	return NormalizeValue(truncate(s, ProseLimit))
}
