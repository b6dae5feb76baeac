// Package classify files sections into categories using an ordered rule table.
package classify

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/gregoramon/openclaw-skill-context-compress/internal/model"
)

// Rule maps a category to the header keywords that select it. Keywords
// match as case-insensitive substrings; a trailing '*' is accepted and
// means the same thing.
type Rule struct {
	Category model.Category
	Keywords []string
	patterns []glob.Glob
}

// NewRule compiles the keyword predicates for a category.
func NewRule(category model.Category, keywords ...string) (Rule, error) {
	if !category.Valid() {
		return Rule{}, fmt.Errorf("unknown category %q", category)
	}
	r := Rule{Category: category}
	for _, kw := range keywords {
		kw = strings.TrimRight(strings.ToLower(strings.TrimSpace(kw)), "*")
		if kw == "" {
			continue
		}
		g, err := glob.Compile("*" + glob.QuoteMeta(kw) + "*")
		if err != nil {
			return Rule{}, fmt.Errorf("compile keyword %q: %w", kw, err)
		}
		r.Keywords = append(r.Keywords, kw)
		r.patterns = append(r.patterns, g)
	}
	if len(r.patterns) == 0 {
		return Rule{}, fmt.Errorf("rule for %s has no keywords", category)
	}
	return r, nil
}

// MustRule is like NewRule but panics on error.
func MustRule(category model.Category, keywords ...string) Rule {
	r, err := NewRule(category, keywords...)
	if err != nil {
		panic(err)
	}
	return r
}

// Match reports whether any keyword occurs in the lower-cased header.
func (r Rule) Match(lowerHeader string) bool {
	for _, p := range r.patterns {
		if p.Match(lowerHeader) {
			return true
		}
	}
	return false
}

// DefaultRules returns a fresh copy of the standard table. Order matters:
// the first matching rule wins.
func DefaultRules() []Rule {
	return []Rule{
		MustRule(model.Preferences, "prefer", "style", "convention", "setting", "config"),
		MustRule(model.Decisions, "decid*", "decision", "chose", "choice", "approach", "architect*"),
		MustRule(model.Facts, "fact", "reference", "version", "url", "path", "endpoint", "api"),
		MustRule(model.Entities, "people", "person", "entity", "contact", "team", "org"),
		MustRule(model.Lessons, "lesson", "learn*", "gotcha", "caveat", "debug", "workaround", "fix"),
		MustRule(model.Todos, "todo", "task", "reminder", "follow-up", "pending", "backlog"),
		MustRule(model.Opinions, "opinion", "feel", "think", "belief", "stance", "dislike", "avoid"),
	}
}

// Classifier resolves headers to categories. It holds its own copy of the
// rule table and is safe to share.
type Classifier struct {
	rules []Rule
}

// New builds a classifier over rules, tested in the given order.
func New(rules []Rule) *Classifier {
	return &Classifier{rules: append([]Rule(nil), rules...)}
}

// Default builds a classifier over DefaultRules.
func Default() *Classifier {
	return New(DefaultRules())
}

// Rules returns a copy of the rule table.
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Classify returns the category of the first rule matching header, or
// model.DefaultCategory when none does.
func (c *Classifier) Classify(header string) model.Category {
	h := strings.ToLower(header)
	for _, r := range c.rules {
		if r.Match(h) {
			return r.Category
		}
	}
	return model.DefaultCategory
}

// ClassifyAll tags every section with its category and source name.
func (c *Classifier) ClassifyAll(sections []model.Section, source string) []model.Classified {
	out := make([]model.Classified, 0, len(sections))
	for _, s := range sections {
		out = append(out, model.Classified{
			Category: c.Classify(s.Header),
			Section:  s,
			Source:   source,
		})
	}
	return out
}
