// Package merge unions freshly classified sections with the sections
// recovered from earlier detail files and checks the result for loss.
package merge

import (
	"math"
	"path"
	"strconv"

	"github.com/gregoramon/openclaw-skill-context-compress/internal/model"
	"github.com/gregoramon/openclaw-skill-context-compress/internal/serialize"
)

// Merged is the union for one category.
type Merged struct {
	Category model.Category
	Existing []model.Section
	Incoming []model.Section
}

// Sections returns existing sections followed by incoming ones in a new
// slice. Nothing is deduplicated.
func (m Merged) Sections() []model.Section {
	out := make([]model.Section, 0, len(m.Existing)+len(m.Incoming))
	out = append(out, m.Existing...)
	return append(out, m.Incoming...)
}

// Expected is the entry count the written detail file must reproduce.
func (m Merged) Expected() int {
	return serialize.EntryCount(m.Existing) + serialize.EntryCount(m.Incoming)
}

// Union groups classified sections by category and appends them after
// the existing sections of that category. Categories with nothing on
// either side are left out; the result follows model.Categories order.
func Union(existing map[model.Category][]model.Section, incoming []model.Classified) []Merged {
	byCat := make(map[model.Category][]model.Section)
	for _, c := range incoming {
		byCat[c.Category] = append(byCat[c.Category], c.Section)
	}
	var out []Merged
	for _, cat := range model.Categories() {
		m := Merged{Category: cat, Existing: existing[cat], Incoming: byCat[cat]}
		if len(m.Existing)+len(m.Incoming) == 0 {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Drift compares the entry count a write should produce with what was
// read back.
type Drift struct {
	Expected int
	Actual   int
}

// Ratio is the relative difference between actual and expected.
func (d Drift) Ratio() float64 {
	if d.Expected == 0 {
		if d.Actual == 0 {
			return 0
		}
		return 1
	}
	return math.Abs(float64(d.Actual-d.Expected)) / float64(d.Expected)
}

// Exceeds reports whether the drift is strictly above threshold.
func (d Drift) Exceeds(threshold float64) bool {
	return d.Ratio() > threshold
}

// Add accumulates another drift measurement.
func (d Drift) Add(o Drift) Drift {
	return Drift{Expected: d.Expected + o.Expected, Actual: d.Actual + o.Actual}
}

// IndexGroups builds one index group per merged category: its detail
// file, its section count, then each section header as a key.
func IndexGroups(merged []Merged, compressedDir string) []model.Group {
	groups := make([]model.Group, 0, len(merged))
	for _, m := range merged {
		sections := m.Sections()
		entries := []string{
			"file:" + path.Join(compressedDir, m.Category.FileName()),
			"n:" + strconv.Itoa(len(sections)),
		}
		for _, s := range sections {
			if k := serialize.NormalizeKey(s.Header); k != "" {
				entries = append(entries, k)
			}
		}
		groups = append(groups, model.Group{Key: m.Category.Tag(), Entries: entries})
	}
	return groups
}
