// Package frontmatter parses and renders the key-value metadata block
// that may prefix a Markdown note. Parsing is fail-soft: malformed input
// never produces an error, the whole text is treated as body instead.
package frontmatter

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// Field is a single key-value entry. Entry order is significant and is
// preserved across parse/render round trips.
type Field struct {
	Key   string
	Value string
}

// Block is an ordered frontmatter mapping.
type Block struct {
	Fields []Field
}

// Empty reports whether the block has no entries.
func (b Block) Empty() bool {
	return len(b.Fields) == 0
}

// Get returns the value for key and whether it is present.
func (b Block) Get(key string) (string, bool) {
	for _, f := range b.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Set updates the value for key in place, appending a new field when the
// key is absent.
func (b *Block) Set(key, value string) {
	for i, f := range b.Fields {
		if f.Key == key {
			b.Fields[i].Value = value
			return
		}
	}
	b.Fields = append(b.Fields, Field{Key: key, Value: value})
}

// Parse splits text into its frontmatter block and body. The block must
// open with the marker on the very first line and close with a marker
// line; anything else (including YAML that fails to decode or a
// non-mapping document) yields an empty block with the full text as body.
// Blank lines between the closing marker and the body are consumed.
func Parse(text string) (Block, string) {
	rest, ok := strings.CutPrefix(text, delim+"\n")
	if !ok {
		return Block{}, text
	}
	var idx, end int
	switch {
	case strings.Contains(rest, "\n"+delim+"\n"):
		idx = strings.Index(rest, "\n"+delim+"\n")
		end = idx + len(delim) + 2
	case strings.HasSuffix(rest, "\n"+delim):
		// Closing marker as the final line, without a trailing newline.
		idx = len(rest) - len(delim) - 1
		end = len(rest)
	default:
		return Block{}, text
	}

	block, ok := decode(rest[:idx])
	if !ok {
		return Block{}, text
	}
	body := strings.TrimLeft(rest[end:], "\n")
	return block, body
}

// decode parses the raw YAML between the markers, keeping entry order.
// Only scalar values are kept; sequences of scalars are flattened to a
// comma-separated value so tag lists survive.
func decode(raw string) (Block, bool) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return Block{}, false
	}
	if len(doc.Content) == 0 {
		return Block{}, true
	}
	m := doc.Content[0]
	if m.Kind != yaml.MappingNode {
		return Block{}, false
	}

	var b Block
	for i := 0; i+1 < len(m.Content); i += 2 {
		k, v := m.Content[i], m.Content[i+1]
		switch v.Kind {
		case yaml.ScalarNode:
			b.Fields = append(b.Fields, Field{Key: k.Value, Value: v.Value})
		case yaml.SequenceNode:
			var items []string
			for _, item := range v.Content {
				if item.Kind != yaml.ScalarNode {
					items = nil
					break
				}
				items = append(items, item.Value)
			}
			if items != nil {
				b.Fields = append(b.Fields, Field{Key: k.Value, Value: strings.Join(items, ", ")})
			}
		}
	}
	return b, true
}

// Render emits the block followed by a blank line and the body. An empty
// block renders as the body alone.
func Render(b Block, body string) string {
	if b.Empty() {
		return body
	}
	var sb strings.Builder
	sb.WriteString(delim)
	sb.WriteByte('\n')
	for _, f := range b.Fields {
		sb.WriteString(f.Key)
		sb.WriteString(": ")
		if needsQuoting(f.Value) {
			sb.WriteString(fmt.Sprintf("%q", f.Value))
		} else {
			sb.WriteString(f.Value)
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(delim)
	sb.WriteString("\n\n")
	sb.WriteString(body)
	return sb.String()
}

// Cut splits text into its raw marker-delimited block (markers included,
// bytes untouched) and the remainder. Unlike Parse it does not decode or
// normalize anything; text without a leading block comes back whole as
// rest. Used when a transformation must leave the block byte-identical.
func Cut(text string) (head, rest string) {
	r, ok := strings.CutPrefix(text, delim+"\n")
	if !ok {
		return "", text
	}
	if i := strings.Index(r, "\n"+delim+"\n"); i >= 0 {
		n := len(delim) + 1 + i + len(delim) + 2
		return text[:n], text[n:]
	}
	if strings.HasSuffix(r, "\n"+delim) {
		return text, ""
	}
	return "", text
}

// Ensure prepends a block synthesized from defaults when text carries
// none. Text already opening with a marker is returned unchanged, which
// makes Ensure idempotent.
func Ensure(text string, defaults Block) string {
	if strings.HasPrefix(text, delim) {
		return text
	}
	return Render(defaults, text)
}

// needsQuoting reports whether a value would not survive a plain-scalar
// round trip and must be double-quoted.
func needsQuoting(v string) bool {
	if v == "" {
		return true
	}
	if strings.ContainsAny(v, ":#\"'\n{}[]&*!|>%@`") {
		return true
	}
	if v != strings.TrimSpace(v) {
		return true
	}
	switch strings.ToLower(v) {
	case "true", "false", "null", "~", "yes", "no", "on", "off":
		return true
	}
	return false
}
