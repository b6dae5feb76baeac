package serialize

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gregoramon/openclaw-skill-context-compress/internal/model"
)

// DetailMeta is the front matter written at the top of a detail file.
type DetailMeta struct {
	Category string `yaml:"category"`
	Tag      string `yaml:"tag"`
	Sections int    `yaml:"sections"`
	Entries  int    `yaml:"entries"`
}

// RenderDetail reconstructs every section of a category as markdown. The
// output parses back into the same sections.
func RenderDetail(category model.Category, sections []model.Section) (string, error) {
	meta := DetailMeta{
		Category: string(category),
		Tag:      category.Tag(),
		Sections: len(sections),
		Entries:  EntryCount(sections),
	}
	y, err := yaml.Marshal(&meta)
	if err != nil {
		return "", fmt.Errorf("marshal detail meta: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(y)
	sb.WriteString("---\n\n")
	sb.WriteString("# " + category.Title() + "\n")
	for _, s := range sections {
		sb.WriteString("\n")
		writeSection(&sb, s)
	}
	return sb.String(), nil
}

// RenderSection writes one section back to markdown.
func RenderSection(s model.Section) string {
	var sb strings.Builder
	writeSection(&sb, s)
	return sb.String()
}

func writeSection(sb *strings.Builder, s model.Section) {
	sb.WriteString("## " + s.Header + "\n")
	for _, f := range s.Fields {
		sb.WriteString(strings.TrimRight("- **"+f.Key+":** "+f.Value, " ") + "\n")
	}
	for _, b := range s.Bullets {
		sb.WriteString("- " + b + "\n")
	}
	if s.Prose != "" {
		if len(s.Fields)+len(s.Bullets) > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(s.Prose + "\n")
	}
}
