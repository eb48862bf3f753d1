package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArticle(t *testing.T, root, id, frontmatter, body string) string {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "index.mdx")
	require.NoError(t, os.WriteFile(path, []byte("---\n"+frontmatter+"---\n"+body), 0o644))
	return path
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return v
}

func TestReader_ReadsEntriesAndLinks(t *testing.T) {
	root := t.TempDir()
	writeArticle(t, root, "alpha", "title: Alpha\npublishedTime: 2025-01-01T09:00:00.000Z\n",
		"See [Beta](/articles/beta/) and [docs](https://example.com/articles/beta).\n")
	writeArticle(t, root, "beta", "title: Beta\npublishedTime: 2025-02-01T09:00:00.000Z\n", "No links.\n")

	c, err := NewReader(DefaultOptions(root)).Read(context.Background())
	require.NoError(t, err)
	require.Empty(t, c.Warnings)
	require.Equal(t, []string{"alpha", "beta"}, c.IDs())

	alpha := c.Get("alpha")
	require.NotNil(t, alpha)
	assert.Equal(t, "Alpha", alpha.Title)
	assert.Equal(t, mustTime(t, "2025-01-01T09:00:00Z"), alpha.PublishedTime)
	assert.Equal(t, []Link{{Anchor: "Beta", TargetID: "beta"}}, alpha.Links)
	assert.NotEmpty(t, alpha.Fingerprint)
}

func TestParseEntry_LinksInDocumentOrder(t *testing.T) {
	content := []byte("---\npublishedTime: 2025-01-01T09:00:00Z\n---\n" +
		"Start with [A](/articles/a) then <a href=\"/articles/b\">bee</a>.\n\n[C](/articles/c)\n")

	e, err := ParseEntry("x", "x/index.mdx", content, DefaultOptions("").ParseOptions)
	require.NoError(t, err)
	assert.Equal(t, []Link{
		{Anchor: "A", TargetID: "a"},
		{Anchor: "bee", TargetID: "b"},
		{Anchor: "C", TargetID: "c"},
	}, e.Links)
}

func TestReader_SkipsUnusableEntriesWithWarnings(t *testing.T) {
	root := t.TempDir()
	writeArticle(t, root, "ok", "publishedTime: 2025-01-01T09:00:00Z\n", "")
	writeArticle(t, root, "missing", "title: Missing\n", "")
	writeArticle(t, root, "garbled", "publishedTime: next tuesday\n", "")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".drafts", "x"), 0o755))

	c, err := NewReader(DefaultOptions(root)).Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, c.IDs())

	reasons := map[string]string{}
	for _, w := range c.Warnings {
		reasons[w.ID] = w.Reason
	}
	assert.Equal(t, map[string]string{
		"missing": ReasonMissingTimestamp,
		"garbled": ReasonBadTimestamp,
		"empty":   ReasonNoContentFile,
	}, reasons)
}

func TestReader_FlatFilesAndDuplicates(t *testing.T) {
	root := t.TempDir()
	writeArticle(t, root, "dup", "publishedTime: 2025-01-01\n", "")
	require.NoError(t, os.WriteFile(filepath.Join(root, "dup.md"), []byte("---\npublishedTime: 2025-03-01\n---\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "flat.md"), []byte("---\npublishedTime: 2025-03-01\n---\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("ignored"), 0o644))

	c, err := NewReader(DefaultOptions(root)).Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"dup", "flat"}, c.IDs())
	require.Len(t, c.Warnings, 1)
	assert.Equal(t, ReasonDuplicateID, c.Warnings[0].Reason)
	// dup/ sorts before dup.md, so the directory wins.
	assert.Equal(t, mustTime(t, "2025-01-01T00:00:00Z"), c.Get("dup").PublishedTime)
}

func TestReader_PrefersMDXOverMD(t *testing.T) {
	root := t.TempDir()
	writeArticle(t, root, "a", "publishedTime: 2025-01-01\n", "")
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "index.md"), []byte("---\npublishedTime: 2030-01-01\n---\n"), 0o644))

	c, err := NewReader(DefaultOptions(root)).Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2025, c.Get("a").PublishedTime.Year())
}

func TestReader_MissingRoot(t *testing.T) {
	_, err := NewReader(DefaultOptions(filepath.Join(t.TempDir(), "nope"))).Read(context.Background())
	require.Error(t, err)
}

func TestParseTime(t *testing.T) {
	cases := map[string]string{
		"2025-01-11T09:00:00.000Z":  "2025-01-11T09:00:00Z",
		"2025-01-11T10:00:00+01:00": "2025-01-11T09:00:00Z",
		"2025-01-11 09:00:00":       "2025-01-11T09:00:00Z",
		"2025-01-11T09:00":          "2025-01-11T09:00:00Z",
		"2025-01-11":                "2025-01-11T00:00:00Z",
		"'2025-01-11'":              "2025-01-11T00:00:00Z",
	}
	for in, want := range cases {
		got, err := ParseTime(in)
		require.NoError(t, err, in)
		assert.Equal(t, mustTime(t, want), got, in)
	}

	_, err := ParseTime(nil)
	require.ErrorIs(t, err, ErrMissingTimestamp)
	_, err = ParseTime("  ")
	require.ErrorIs(t, err, ErrMissingTimestamp)
	_, err = ParseTime("soon")
	require.ErrorIs(t, err, ErrBadTimestamp)
	_, err = ParseTime(20250111)
	require.ErrorIs(t, err, ErrBadTimestamp)
}

func TestFormatTime(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	assert.Equal(t, "2025-01-11T09:00:00.000Z", FormatTime(time.Date(2025, 1, 11, 10, 0, 0, 0, loc)))
}

func TestTargetID(t *testing.T) {
	cases := []struct {
		dest string
		id   string
		ok   bool
	}{
		{"/articles/foo", "foo", true},
		{"/articles/foo/", "foo", true},
		{"/articles/foo/#intro", "foo", true},
		{"/articles/foo?x=1", "foo", true},
		{"/articles/caf%C3%A9", "café", true},
		{"/articles/", "", false},
		{"/articles/foo/bar", "", false},
		{"/blog/foo", "", false},
		{"https://example.com/articles/foo", "", false},
		{"articles/foo", "", false},
	}
	for _, tc := range cases {
		id, ok := TargetID(tc.dest, "/articles/")
		assert.Equal(t, tc.ok, ok, tc.dest)
		assert.Equal(t, tc.id, id, tc.dest)
	}
}

func TestNormalizeID_NFC(t *testing.T) {
	assert.Equal(t, "caf\u00e9", NormalizeID(" cafe\u0301 "))
}

func TestCorpus_Chronological(t *testing.T) {
	ts := mustTime(t, "2025-01-01T00:00:00Z")
	c := &Corpus{Entries: map[string]*Entry{
		"b": {ID: "b", PublishedTime: ts},
		"a": {ID: "a", PublishedTime: ts},
		"c": {ID: "c", PublishedTime: ts.Add(-time.Hour)},
	}}
	var ids []string
	for _, e := range c.Chronological() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestWriter_SetPublishedTime(t *testing.T) {
	root := t.TempDir()
	path := writeArticle(t, root, "a",
		"title: A\npublishedTime: 2025-01-01T09:00:00.000Z # keep\ntags: [x]\n", "Body [b](/articles/b)\n")

	c, err := NewReader(DefaultOptions(root)).Read(context.Background())
	require.NoError(t, err)
	e := c.Get("a")

	when := mustTime(t, "2025-01-14T09:00:00Z")
	require.NoError(t, NewWriter("publishedTime").SetPublishedTime(e, when))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "---\ntitle: A\npublishedTime: 2025-01-14T09:00:00.000Z\ntags: [x]\n---\nBody [b](/articles/b)\n", string(data))
	assert.Equal(t, when, e.PublishedTime)

	// A second write with the refreshed fingerprint succeeds.
	require.NoError(t, NewWriter("").SetPublishedTime(e, when.Add(time.Hour)))
}

func TestWriter_RefusesStaleEntry(t *testing.T) {
	root := t.TempDir()
	path := writeArticle(t, root, "a", "publishedTime: 2025-01-01\n", "v1\n")

	c, err := NewReader(DefaultOptions(root)).Read(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("---\npublishedTime: 2025-01-01\n---\nv2\n"), 0o644))

	err = NewWriter("publishedTime").SetPublishedTime(c.Get("a"), time.Now())
	require.ErrorIs(t, err, ErrStaleEntry)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "v2")
}
