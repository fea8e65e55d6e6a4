// Package markdown locates headings, inserts content relative to them,
// and extracts tags from note text.
package markdown

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/nberglund/othala/internal/apperr"
	"github.com/nberglund/othala/internal/frontmatter"
)

var (
	headingRe  = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
	tagSplitRe = regexp.MustCompile(`[,\s]+`)
)

// Position selects which side of a heading content is inserted on.
type Position string

const (
	Before Position = "before"
	After  Position = "after"
)

// ParsePosition validates a position string, defaulting empty input to After.
func ParsePosition(s string) (Position, error) {
	switch Position(s) {
	case "":
		return After, nil
	case Before, After:
		return Position(s), nil
	default:
		return "", fmt.Errorf("position %q: must be %q or %q: %w", s, Before, After, apperr.ErrInvalidPath)
	}
}

// Heading is one markdown heading with its zero-based line index.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	Line  int    `json:"line"`
}

// Headings returns every heading in text in document order.
func Headings(text string) []Heading {
	var out []Heading
	for i, line := range strings.Split(text, "\n") {
		m := headingRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		out = append(out, Heading{
			Level: len(m[1]),
			Text:  strings.TrimSpace(m[2]),
			Line:  i,
		})
	}
	return out
}

// Insert places content on its own line before or after the first heading
// whose text equals heading (case-insensitive, any level). Later duplicate
// headings are ignored. Returns ErrHeadingNotFound when no heading matches.
func Insert(text, heading, content string, pos Position) (string, error) {
	want := strings.ToLower(strings.TrimSpace(heading))
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		m := headingRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil || strings.ToLower(strings.TrimSpace(m[2])) != want {
			continue
		}
		at := i
		if pos == After {
			at = i + 1
		}
		lines = append(lines[:at], append([]string{content}, lines[at:]...)...)
		return strings.Join(lines, "\n"), nil
	}

	return "", fmt.Errorf("heading %q: %w", heading, apperr.ErrHeadingNotFound)
}

// Tags returns the sorted, deduplicated union of inline #tags in text and
// entries of the frontmatter "tags" key (comma or whitespace separated).
func Tags(text string) []string {
	block, body := frontmatter.Parse(text)

	seen := make(map[string]struct{})
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		seen[m[1]] = struct{}{}
	}
	if raw, ok := block.Get("tags"); ok {
		for _, t := range tagSplitRe.Split(raw, -1) {
			t = strings.TrimPrefix(strings.TrimSpace(t), "#")
			if t != "" {
				seen[t] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
