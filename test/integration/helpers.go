package integration

import (
	"encoding/json"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var updateGolden = flag.Bool("update-golden", false, "Update golden files")

const (
	blogCorpus = "../../test/testdata/corpus/blog"
	goldenDir  = "../../test/testdata/golden"
)

// setupCorpus copies a fixture corpus into a temp directory so tests may write to it.
func setupCorpus(t *testing.T, fixture string) string {
	t.Helper()

	dst := filepath.Join(t.TempDir(), "articles")
	require.NoError(t, copyDir(fixture, dst), "failed to copy fixture corpus")
	return dst
}

// copyDir recursively copies a directory.
func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		targetPath := filepath.Join(dst, relPath)

		if info.IsDir() {
			return os.MkdirAll(targetPath, 0o755)
		}
		return copyFile(path, targetPath)
	})
}

// copyFile copies a single file.
func copyFile(src, dst string) error {
	// #nosec G304 -- test utility with paths from test setup, not user input
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = srcFile.Close() }()

	// #nosec G304 -- test utility with paths from test setup, not user input
	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = dstFile.Close() }()

	_, err = io.Copy(dstFile, srcFile)
	return err
}

// verifyGoldenJSON compares v, marshaled to JSON, with the golden file.
func verifyGoldenJSON(t *testing.T, v any, goldenPath string, updateGolden bool) {
	t.Helper()

	actual, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err, "failed to marshal result")

	if updateGolden {
		require.NoError(t, os.MkdirAll(filepath.Dir(goldenPath), 0o755), "failed to create golden directory")
		require.NoError(t, os.WriteFile(goldenPath, append(actual, '\n'), 0o644), "failed to write golden file")
		t.Logf("Updated golden file: %s", goldenPath)
		return
	}

	expected, err := os.ReadFile(goldenPath)
	require.NoError(t, err, "failed to read golden file: %s", goldenPath)

	assert.JSONEq(t, string(expected), string(actual),
		"result doesn't match golden file: %s\nRun with -update-golden to update", goldenPath)
}

func writeEntry(t *testing.T, root, id, frontmatter, body string) {
	t.Helper()

	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := "---\n" + frontmatter + "---\n" + body
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.mdx"), []byte(content), 0o644))
}

func at(t *testing.T, s string) time.Time {
	t.Helper()

	v, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return v.UTC()
}
