package corpus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/pubtime/internal/frontmatter"
)

// ErrStaleEntry is returned when a file changed on disk after it was read.
var ErrStaleEntry = errors.New("entry changed on disk since it was read")

// Writer persists publish times back into entry frontmatter.
type Writer struct {
	timeField string
}

// NewWriter creates a writer that updates the given frontmatter field.
func NewWriter(timeField string) *Writer {
	if timeField == "" {
		timeField = DefaultOptions("").TimeField
	}
	return &Writer{timeField: timeField}
}

// SetPublishedTime rewrites the publish time line of e's content file.
//
// The file is re-read first; if its fingerprint no longer matches the snapshot
// taken when e was read, nothing is written and ErrStaleEntry is returned.
// On success e is updated to reflect the new content.
func (w *Writer) SetPublishedTime(e *Entry, t time.Time) error {
	content, err := os.ReadFile(e.Path)
	if err != nil {
		return fmt.Errorf("read %s: %w", e.Path, err)
	}

	doc, err := frontmatter.Parse(content)
	if err != nil {
		return fmt.Errorf("parse %s: %w", e.Path, err)
	}
	if e.Fingerprint != "" && doc.Fingerprint() != e.Fingerprint {
		return fmt.Errorf("%s: %w", e.ID, ErrStaleEntry)
	}

	if err := doc.Set(w.timeField, FormatTime(t)); err != nil {
		return fmt.Errorf("set %s in %s: %w", w.timeField, e.Path, err)
	}

	if err := writeFileAtomic(e.Path, doc.Bytes()); err != nil {
		return err
	}

	e.PublishedTime = t.UTC()
	e.Fingerprint = doc.Fingerprint()
	return nil
}

// writeFileAtomic replaces path via a temp file in the same directory so a
// failed write never leaves a truncated article behind.
func writeFileAtomic(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".pubtime-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName) // no-op after a successful rename
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file for %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
