// Package stage prepares the aggregated output directory: whatever is at
// the path is removed and a fresh, empty directory is created in its place.
//
// Staging is destructive by nature. Callers must only pass a path dedicated
// to build output; the only protection offered is a guard against the
// empty path, the filesystem root, and the current working directory.
package stage

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/shinji-kodama/microfront-bundle/internal/model"
)

// dirMode is the permission used for the staged directory and any missing
// parents.
const dirMode = 0o755

// Stage removes path (file, symlink, or directory tree) if it exists and
// recreates it as an empty directory, creating missing parents.
//
// Failures are returned as *model.StagingError. Calling Stage twice in a
// row always leaves an empty directory behind.
func Stage(path string) error {
	if err := guard(path); err != nil {
		return &model.StagingError{Path: path, Op: "guard", Err: err}
	}

	// os.RemoveAll returns nil when the path does not exist, so there is
	// no need for a separate existence check.
	if err := os.RemoveAll(path); err != nil {
		return &model.StagingError{Path: path, Op: "remove", Err: err}
	}

	if err := os.MkdirAll(path, dirMode); err != nil {
		return &model.StagingError{Path: path, Op: "create", Err: err}
	}

	// MkdirAll succeeds on an existing directory. If something recreated
	// the path between the two calls we would hand back a non-empty tree.
	entries, err := os.ReadDir(path)
	if err != nil {
		return &model.StagingError{Path: path, Op: "create", Err: err}
	}
	if len(entries) > 0 {
		return &model.StagingError{Path: path, Op: "create", Err: errors.New("directory is not empty after staging")}
	}

	return nil
}

// guard rejects paths that can never be a dedicated output directory.
func guard(path string) error {
	if path == "" {
		return errors.New("output path must not be empty")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	if filepath.Dir(abs) == abs {
		return errors.New("refusing to stage the filesystem root")
	}

	if cwd, err := os.Getwd(); err == nil && filepath.Clean(cwd) == abs {
		return errors.New("refusing to stage the current working directory")
	}

	return nil
}
