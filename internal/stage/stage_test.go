package stage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/microfront-bundle/internal/model"
)

// assertEmptyDir fails the test unless path is an existing, empty directory.
func assertEmptyDir(t *testing.T, path string) {
	t.Helper()

	info, err := os.Stat(path)
	require.NoError(t, err, "staged path should exist")
	require.True(t, info.IsDir(), "staged path should be a directory")

	entries, err := os.ReadDir(path)
	require.NoError(t, err)
	assert.Empty(t, entries, "staged directory should be empty")
}

// TestStage_CreatesMissingDirectory verifies that Stage creates the output
// directory together with any missing parents.
func TestStage_CreatesMissingDirectory(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "deeper", "dist")

	require.NoError(t, Stage(out))
	assertEmptyDir(t, out)
}

// TestStage_RemovesExistingTree verifies that a populated output directory
// is wiped, including nested content.
func TestStage_RemovesExistingTree(t *testing.T) {
	out := filepath.Join(t.TempDir(), "dist")
	require.NoError(t, os.MkdirAll(filepath.Join(out, "vue-app", "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "index.html"), []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(out, "vue-app", "assets", "app.js"), []byte("old"), 0o644))

	require.NoError(t, Stage(out))
	assertEmptyDir(t, out)
}

// TestStage_ReplacesFile verifies that a regular file at the output path is
// removed and replaced by a directory.
func TestStage_ReplacesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "dist")
	require.NoError(t, os.WriteFile(out, []byte("not a directory"), 0o644))

	require.NoError(t, Stage(out))
	assertEmptyDir(t, out)
}

// TestStage_Idempotent stages the same path twice, with arbitrary content
// in between, and expects an empty directory both times.
func TestStage_Idempotent(t *testing.T) {
	out := filepath.Join(t.TempDir(), "dist")

	require.NoError(t, Stage(out))
	assertEmptyDir(t, out)

	require.NoError(t, os.WriteFile(filepath.Join(out, "leftover.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(out, "sub"), 0o755))

	require.NoError(t, Stage(out))
	assertEmptyDir(t, out)
}

// TestStage_BlockedByFile verifies that a path below a regular file cannot
// be staged and that the failure is reported as a StagingError.
func TestStage_BlockedByFile(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := Stage(filepath.Join(blocker, "dist"))
	require.Error(t, err)

	var stagingErr *model.StagingError
	require.True(t, errors.As(err, &stagingErr), "error should be a StagingError, got %T", err)
	assert.Equal(t, filepath.Join(blocker, "dist"), stagingErr.Path)

	// The blocking file must be left alone.
	data, readErr := os.ReadFile(blocker)
	require.NoError(t, readErr)
	assert.Equal(t, "x", string(data))
}

func TestStage_Guard(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"empty", ""},
		{"root", string(filepath.Separator)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Stage(tt.path)

			var stagingErr *model.StagingError
			require.True(t, errors.As(err, &stagingErr))
			assert.Equal(t, "guard", stagingErr.Op)
		})
	}
}

// TestStage_GuardWorkingDirectory makes sure the current directory is never
// wiped. t.Chdir restores the previous directory when the test ends.
func TestStage_GuardWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "keep.txt")
	require.NoError(t, os.WriteFile(marker, []byte("keep"), 0o644))
	t.Chdir(dir)

	err := Stage(".")

	var stagingErr *model.StagingError
	require.True(t, errors.As(err, &stagingErr))
	assert.Equal(t, "guard", stagingErr.Op)
	assert.FileExists(t, marker)
}
