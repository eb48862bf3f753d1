// Package corpus loads and updates the article content collection: one
// directory per article holding an index.mdx with YAML frontmatter.
//
// The package assumes exclusive access to the corpus for the duration of a run.
// It does not lock; the only guard is the per-entry fingerprint check in Writer.
package corpus

import (
	"sort"
	"time"
)

// Link is a same-site reference from one entry's body to another entry.
type Link struct {
	Anchor   string
	TargetID string
}

// Entry is one article of the corpus.
type Entry struct {
	ID            string
	Path          string
	Title         string
	PublishedTime time.Time
	Links         []Link

	// Fingerprint of the file at read time; Writer refuses to overwrite a changed file.
	Fingerprint string
}

// IsFuture reports whether the entry is not yet live at now.
func (e *Entry) IsFuture(now time.Time) bool {
	return e.PublishedTime.After(now)
}

// Warning describes an entry that was excluded from the working set.
type Warning struct {
	ID     string
	Path   string
	Reason string
	Err    error
}

func (w Warning) String() string {
	if w.Err != nil {
		return w.ID + ": " + w.Reason + ": " + w.Err.Error()
	}
	return w.ID + ": " + w.Reason
}

// Warning reasons.
const (
	ReasonNoContentFile    = "no content file"
	ReasonUnreadable       = "unreadable file"
	ReasonBadFrontmatter   = "malformed frontmatter"
	ReasonMissingTimestamp = "missing publish time"
	ReasonBadTimestamp     = "unparseable publish time"
	ReasonDuplicateID      = "duplicate id"
)

// Corpus is an in-memory snapshot of every readable entry.
type Corpus struct {
	Root     string
	Entries  map[string]*Entry
	Warnings []Warning
}

// Get returns the entry with the given id, or nil.
func (c *Corpus) Get(id string) *Entry {
	return c.Entries[NormalizeID(id)]
}

// IDs returns entry ids in lexical order.
func (c *Corpus) IDs() []string {
	ids := make([]string, 0, len(c.Entries))
	for id := range c.Entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Chronological returns entries ordered by publish time, ties broken by id.
func (c *Corpus) Chronological() []*Entry {
	out := make([]*Entry, 0, len(c.Entries))
	for _, e := range c.Entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PublishedTime.Equal(out[j].PublishedTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].PublishedTime.Before(out[j].PublishedTime)
	})
	return out
}
