package model

import "strings"

// Category is one of the fixed semantic buckets a section is filed under.
type Category string

const (
	Preferences Category = "preferences"
	Decisions   Category = "decisions"
	Facts       Category = "facts"
	Entities    Category = "entities"
	Lessons     Category = "lessons"
	Todos       Category = "todos"
	Opinions    Category = "opinions"
)

// DefaultCategory is used when no classification rule matches.
const DefaultCategory = Facts

var categoryTags = map[Category]string{
	Preferences: "PREF",
	Decisions:   "DEC",
	Facts:       "FACT",
	Entities:    "ENT",
	Lessons:     "LESSON",
	Todos:       "TODO",
	Opinions:    "OPIN",
}

// Categories returns every category in classification order.
func Categories() []Category {
	return []Category{Preferences, Decisions, Facts, Entities, Lessons, Todos, Opinions}
}

// ParseCategory resolves a category name, ignoring case and surrounding space.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	return c, c.Valid()
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categoryTags[c]
	return ok
}

// Tag returns the short display tag, e.g. PREF.
func (c Category) Tag() string {
	return categoryTags[c]
}

// Title returns the category name with a leading capital.
func (c Category) Title() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// FileName is the detail file name for the category.
func (c Category) FileName() string {
	return string(c) + ".md"
}
