package corpus

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	pterrors "git.home.luguber.info/inful/pubtime/internal/errors"
	"git.home.luguber.info/inful/pubtime/internal/logfields"
)

// Options configures where and how the corpus is read.
type Options struct {
	Root string
	// ContentFiles lists the per-directory file names to look for, in preference order.
	ContentFiles []string
	ParseOptions
}

// DefaultOptions matches the Astro content collection layout the site uses.
func DefaultOptions(root string) Options {
	return Options{
		Root:         root,
		ContentFiles: []string{"index.mdx", "index.md"},
		ParseOptions: ParseOptions{
			TimeField:  "publishedTime",
			TitleField: "title",
			LinkPrefix: "/articles/",
		},
	}
}

// Reader produces Corpus snapshots. It never modifies files.
type Reader struct {
	opts Options
}

// NewReader creates a reader for the given options.
func NewReader(opts Options) *Reader {
	if len(opts.ContentFiles) == 0 {
		opts.ContentFiles = DefaultOptions(opts.Root).ContentFiles
	}
	return &Reader{opts: opts}
}

// Read scans the corpus root. Entries that cannot be used are skipped and
// reported in Corpus.Warnings; only an unreadable root is an error.
func (r *Reader) Read(ctx context.Context) (*Corpus, error) {
	dirents, err := os.ReadDir(r.opts.Root)
	if err != nil {
		return nil, pterrors.CorpusUnreadable(r.opts.Root, err)
	}

	c := &Corpus{Root: r.opts.Root, Entries: make(map[string]*Entry)}

	for _, d := range dirents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := d.Name()
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			continue
		}

		var id, path string
		switch {
		case d.IsDir():
			id = name
			path = r.findContentFile(filepath.Join(r.opts.Root, name))
			if path == "" {
				r.warn(c, Warning{ID: NormalizeID(id), Path: filepath.Join(r.opts.Root, name), Reason: ReasonNoContentFile})
				continue
			}
		case isContentFile(name):
			id = strings.TrimSuffix(name, filepath.Ext(name))
			path = filepath.Join(r.opts.Root, name)
		default:
			continue
		}

		entry, warning := r.load(id, path)
		if warning != nil {
			r.warn(c, *warning)
			continue
		}
		if prev, dup := c.Entries[entry.ID]; dup {
			r.warn(c, Warning{ID: entry.ID, Path: path, Reason: ReasonDuplicateID, Err: errors.New("already read from " + prev.Path)})
			continue
		}
		c.Entries[entry.ID] = entry
	}

	slog.Debug("Corpus read",
		logfields.Root(r.opts.Root),
		logfields.Count(len(c.Entries)),
		slog.Int("warnings", len(c.Warnings)))
	return c, nil
}

func (r *Reader) load(id, path string) (*Entry, *Warning) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &Warning{ID: NormalizeID(id), Path: path, Reason: ReasonUnreadable, Err: err}
	}

	entry, err := ParseEntry(id, path, content, r.opts.ParseOptions)
	if err != nil {
		w := &Warning{ID: NormalizeID(id), Path: path, Err: err}
		switch {
		case errors.Is(err, ErrMissingTimestamp):
			w.Reason = ReasonMissingTimestamp
		case errors.Is(err, ErrBadTimestamp):
			w.Reason = ReasonBadTimestamp
		default:
			w.Reason = ReasonBadFrontmatter
		}
		return nil, w
	}
	return entry, nil
}

func (r *Reader) findContentFile(dir string) string {
	for _, name := range r.opts.ContentFiles {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p
		}
	}
	return ""
}

func (r *Reader) warn(c *Corpus, w Warning) {
	c.Warnings = append(c.Warnings, w)
	attrs := []any{logfields.EntryID(w.ID), logfields.Path(w.Path), logfields.Reason(w.Reason)}
	if w.Err != nil {
		attrs = append(attrs, logfields.Error(w.Err))
	}
	slog.Warn("Skipping corpus entry", attrs...)
}

func isContentFile(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".md" || ext == ".mdx"
}
