package corpus

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/pubtime/internal/frontmatter"
	"git.home.luguber.info/inful/pubtime/internal/markdown"
)

// ErrMissingTimestamp is returned by ParseEntry when the time field is absent or empty.
var ErrMissingTimestamp = errors.New("publish time field is missing")

// ErrBadTimestamp is returned by ParseEntry when the time field cannot be parsed.
var ErrBadTimestamp = errors.New("publish time field cannot be parsed")

// ParseOptions names the frontmatter fields and link convention of the corpus.
type ParseOptions struct {
	TimeField  string
	TitleField string
	LinkPrefix string
}

// ParseEntry turns the raw bytes of one content file into an Entry.
//
// This is the only place that looks at raw text; everything downstream works
// on the returned Entry.
func ParseEntry(id, path string, content []byte, opts ParseOptions) (*Entry, error) {
	doc, err := frontmatter.Parse(content)
	if err != nil {
		return nil, err
	}
	fields, err := doc.Fields()
	if err != nil {
		return nil, fmt.Errorf("decode frontmatter: %w", err)
	}

	published, err := ParseTime(fields[opts.TimeField])
	if err != nil {
		return nil, err
	}

	links, err := extractLinks(doc.Body, opts.LinkPrefix)
	if err != nil {
		return nil, err
	}

	title, _ := fields[opts.TitleField].(string)

	return &Entry{
		ID:            NormalizeID(id),
		Path:          path,
		Title:         title,
		PublishedTime: published,
		Links:         links,
		Fingerprint:   doc.Fingerprint(),
	}, nil
}

func extractLinks(body []byte, prefix string) ([]Link, error) {
	raw, err := markdown.ExtractLinks(body, markdown.Options{})
	if err != nil {
		return nil, fmt.Errorf("extract links: %w", err)
	}

	links := make([]Link, 0, len(raw))
	for _, l := range raw {
		if l.Kind != markdown.LinkKindInline && l.Kind != markdown.LinkKindHTML {
			continue
		}
		target, ok := TargetID(l.Destination, prefix)
		if !ok {
			continue
		}
		links = append(links, Link{Anchor: l.Text, TargetID: target})
	}
	return links, nil
}

var timeLayouts = []string{
	time.RFC3339, // also accepts fractional seconds, e.g. JS toISOString()
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime converts a decoded frontmatter value into a UTC instant.
// Values without a zone are read as UTC.
func ParseTime(v any) (time.Time, error) {
	switch tv := v.(type) {
	case nil:
		return time.Time{}, ErrMissingTimestamp
	case time.Time:
		return tv.UTC(), nil
	case string:
		s := strings.Trim(strings.TrimSpace(tv), `"'`)
		if s == "" {
			return time.Time{}, ErrMissingTimestamp
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
	default:
		return time.Time{}, fmt.Errorf("%w: unexpected %T", ErrBadTimestamp, v)
	}
}

// FormatTime renders t the way the site generator writes publish times.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
