// Package frontmatter splits content files into YAML frontmatter and body and
// rewrites individual frontmatter fields without reformatting the rest of the file.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// ErrNoFrontmatter is returned when a field is set on a document without a frontmatter block.
var ErrNoFrontmatter = errors.New("document has no yaml frontmatter")

// ErrUnsupportedValue is returned by Set when the existing value is not a single-line scalar.
var ErrUnsupportedValue = errors.New("frontmatter value is not a single-line scalar")

// Style captures the newline convention so rewrites keep the file's line endings.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

// Document is a content file split into raw frontmatter (without delimiters) and body.
//
// Raw keeps the original bytes; edits through Set touch only the affected line.
type Document struct {
	Raw   []byte
	Body  []byte
	Had   bool
	Style Style
}

// Parse splits content into a Document.
//
// If content does not start with a `---` line, Had is false and Body is the full input.
func Parse(content []byte) (*Document, error) {
	style := detectStyle(content)

	nl := style.Newline
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return &Document{Body: content, Style: style}, nil
	}

	start := len(open)
	closeLine := []byte("---" + nl)
	if bytes.HasPrefix(content[start:], closeLine) {
		return &Document{Raw: []byte{}, Body: content[start+len(closeLine):], Had: true, Style: style}, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// A closing delimiter on the very last line has no trailing newline.
		tail := []byte(nl + "---")
		if bytes.HasSuffix(content, tail) {
			end := len(content) - len(tail)
			return &Document{Raw: content[start : end+len(nl)], Body: []byte{}, Had: true, Style: style}, nil
		}
		return nil, ErrMissingClosingDelimiter
	}

	end := start + idx + len(nl)
	bodyStart := start + idx + len(closeSeq)
	return &Document{Raw: content[start:end], Body: content[bodyStart:], Had: true, Style: style}, nil
}

// Bytes reassembles the document.
func (d *Document) Bytes() []byte {
	if !d.Had {
		return d.Body
	}

	nl := d.Style.Newline
	if nl == "" {
		nl = "\n"
	}

	delim := []byte("---" + nl)
	out := make([]byte, 0, 2*len(delim)+len(d.Raw)+len(d.Body))
	out = append(out, delim...)
	out = append(out, d.Raw...)
	out = append(out, delim...)
	out = append(out, d.Body...)
	return out
}

// Fields decodes the frontmatter into a map. A document without frontmatter yields an empty map.
func (d *Document) Fields() (map[string]any, error) {
	if len(d.Raw) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(d.Raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// Set writes `key: value` into the frontmatter.
//
// An existing top-level key whose value is a single-line scalar has its line
// replaced; every other byte of the frontmatter is preserved. A missing key is
// appended as the last line of the block.
func (d *Document) Set(key, value string) error {
	if !d.Had {
		return ErrNoFrontmatter
	}

	nl := d.Style.Newline
	if nl == "" {
		nl = "\n"
	}
	line := key + ": " + value

	keyNode, valNode, err := findTopLevelKey(d.Raw, key)
	if err != nil {
		return err
	}

	if keyNode == nil {
		raw := make([]byte, 0, len(d.Raw)+len(line)+len(nl))
		raw = append(raw, d.Raw...)
		if len(raw) > 0 && !bytes.HasSuffix(raw, []byte("\n")) {
			raw = append(raw, nl...)
		}
		raw = append(raw, line...)
		raw = append(raw, nl...)
		d.Raw = raw
		return nil
	}

	if valNode.Kind != yaml.ScalarNode || valNode.Line != keyNode.Line ||
		valNode.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedValue, key)
	}

	lines := bytes.SplitAfter(d.Raw, []byte("\n"))
	i := keyNode.Line - 1
	if i < 0 || i >= len(lines) {
		return fmt.Errorf("frontmatter key %q reported on line %d out of range", key, keyNode.Line)
	}
	ending := nl
	if !bytes.HasSuffix(lines[i], []byte("\n")) {
		ending = ""
	}
	lines[i] = []byte(line + ending)
	d.Raw = bytes.Join(lines, nil)
	return nil
}

func findTopLevelKey(raw []byte, key string) (*yaml.Node, *yaml.Node, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil, nil
	}
	m := doc.Content[0]
	if m.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("frontmatter is not a mapping")
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i], m.Content[i+1], nil
		}
	}
	return nil, nil, nil
}

func detectStyle(content []byte) Style {
	newline := "\n"
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			newline = "\r\n"
			break
		}
		if content[i] == '\n' {
			break
		}
	}

	return Style{
		Newline:            newline,
		HasTrailingNewline: len(content) > 0 && content[len(content)-1] == '\n',
	}
}
