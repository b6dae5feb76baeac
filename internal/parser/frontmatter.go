package parser

import (
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
)

const frontMatterDelimiter = "---"

// StripFrontMatter removes a leading `---` delimited block. Malformed front
// matter is still removed up to its closing delimiter; an unclosed block is
// left in place.
func StripFrontMatter(text string) string {
	if !strings.HasPrefix(text, frontMatterDelimiter) {
		return text
	}
	var meta map[string]any
	if body, err := FrontMatter(text, &meta); err == nil {
		return body
	}
	return stripDelimited(text)
}

// FrontMatter decodes YAML front matter into v and returns the remaining
// body. Text without front matter is returned unchanged and v is untouched.
func FrontMatter(text string, v any) (string, error) {
	body, err := frontmatter.Parse(strings.NewReader(text), v)
	if err != nil {
		return "", fmt.Errorf("parse front matter: %w", err)
	}
	return string(body), nil
}

func stripDelimited(text string) string {
	rest := text[len(frontMatterDelimiter):]
	idx := strings.Index(rest, "\n"+frontMatterDelimiter)
	if idx == -1 {
		return text
	}
	body := rest[idx+len("\n"+frontMatterDelimiter):]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		return body[nl+1:]
	}
	return ""
}
