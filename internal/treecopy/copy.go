package treecopy

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shinji-kodama/microfront-bundle/internal/logging"
	"github.com/shinji-kodama/microfront-bundle/internal/model"
)

const (
	dirMode  = 0o755
	fileMode = 0o644
)

// Copier copies directory trees. The zero value is not useful; build one
// with New so Overwrite defaults to true.
type Copier struct {
	// Overwrite replaces files that already exist in the destination.
	// When false, existing destination files are skipped.
	Overwrite bool

	// Logger receives per-directory progress and skip messages at debug
	// level, and warnings for entries that cannot be copied.
	Logger *slog.Logger
}

// Option configures a Copier.
type Option func(*Copier)

// WithOverwrite sets the overwrite policy (default true).
func WithOverwrite(overwrite bool) Option {
	return func(c *Copier) { c.Overwrite = overwrite }
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Copier) { c.Logger = l }
}

// New creates a Copier with overwrite enabled.
func New(opts ...Option) *Copier {
	c := &Copier{Overwrite: true}
	for _, opt := range opts {
		opt(c)
	}
	c.Logger = logging.OrDiscard(c.Logger)
	return c
}

// CopyTree is a convenience wrapper around New(WithOverwrite(overwrite)).CopyTree.
func CopyTree(source, destination string, overwrite bool) (model.CopyResult, error) {
	return New(WithOverwrite(overwrite)).CopyTree(source, destination)
}

// CopyTree copies every file and directory below source into destination.
//
// The returned CopyResult counts files actually written and every directory
// below source (empty ones included). Skipped files are not counted.
func (c *Copier) CopyTree(source, destination string) (model.CopyResult, error) {
	info, err := os.Stat(source)
	if err != nil {
		return model.CopyResult{}, &model.SourceMissingError{Path: source, Err: err}
	}
	if !info.IsDir() {
		return model.CopyResult{}, &model.SourceMissingError{Path: source}
	}

	return c.copyDir(source, destination)
}

// copyDir copies one directory level and recurses into subdirectories.
// source is known to be a directory.
func (c *Copier) copyDir(source, destination string) (model.CopyResult, error) {
	var result model.CopyResult

	if _, err := os.Stat(destination); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(destination, dirMode); err != nil {
			return result, &model.CopyError{Source: source, Destination: destination, Err: err}
		}
		c.Logger.Debug("Created destination directory", logging.Path(destination))
	} else if err != nil {
		return result, &model.CopyError{Source: source, Destination: destination, Err: err}
	}

	// os.ReadDir returns entries sorted by name, which keeps log output
	// stable across runs. Correctness does not depend on the order.
	entries, err := os.ReadDir(source)
	if err != nil {
		return result, &model.CopyError{Source: source, Destination: destination, Err: err}
	}

	for _, entry := range entries {
		srcPath := filepath.Join(source, entry.Name())
		dstPath := filepath.Join(destination, entry.Name())

		kind, err := c.classify(srcPath, entry)
		if err != nil {
			return result, &model.CopyError{Source: srcPath, Destination: dstPath, Err: err}
		}

		switch kind {
		case kindDir:
			child, err := c.copyDir(srcPath, dstPath)
			// Counts from a partially copied child are discarded: the
			// whole copy is reported as failed anyway.
			if err != nil {
				return result, err
			}
			result.Add(child)
			result.FoldersProcessed++

		case kindFile:
			copied, err := c.copyEntry(srcPath, dstPath)
			if err != nil {
				return result, err
			}
			if copied {
				result.FilesCopied++
			}

		case kindSkip:
			// classify already logged why.
		}
	}

	c.Logger.Debug("Copied directory",
		logging.Source(source),
		logging.Destination(destination),
		logging.Files(result.FilesCopied),
		logging.Folders(result.FoldersProcessed))

	return result, nil
}

type entryKind int

const (
	kindSkip entryKind = iota
	kindDir
	kindFile
)

// classify decides how a directory entry is handled.
//
// Symbolic links are followed when they point at a regular file, so the
// bundle receives the file content. Links to directories are skipped to
// rule out cycles, and dangling links are skipped as well. Sockets, pipes
// and devices have no place in a static bundle and are skipped too.
func (c *Copier) classify(path string, entry fs.DirEntry) (entryKind, error) {
	mode := entry.Type()

	switch {
	case mode.IsDir():
		return kindDir, nil
	case mode.IsRegular():
		return kindFile, nil
	case mode&fs.ModeSymlink != 0:
		target, err := os.Stat(path)
		if err != nil {
			c.Logger.Warn("Skipping dangling symlink", logging.Path(path), logging.Error(err))
			return kindSkip, nil
		}
		if target.Mode().IsRegular() {
			return kindFile, nil
		}
		c.Logger.Warn("Skipping symlink to non-regular file", logging.Path(path))
		return kindSkip, nil
	default:
		c.Logger.Warn("Skipping irregular file", logging.Path(path), slog.String("mode", mode.String()))
		return kindSkip, nil
	}
}

// copyEntry applies the overwrite policy and copies a single file.
// It reports whether the file was actually written.
func (c *Copier) copyEntry(src, dst string) (bool, error) {
	if !c.Overwrite {
		_, err := os.Lstat(dst)
		if err == nil {
			c.Logger.Debug("Skipping existing file", logging.Path(dst))
			return false, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return false, &model.CopyError{Source: src, Destination: dst, Err: err}
		}
	}

	if err := copyFile(src, dst); err != nil {
		return false, &model.CopyError{Source: src, Destination: dst, Err: err}
	}
	return true, nil
}

// copyFile copies a single file from src to dst. Only the bytes are
// copied; the destination gets a fixed 0644 mode.
//
// io.Copy streams the content, so large assets (source maps, images) are
// never loaded into memory whole.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer func() { _ = srcFile.Close() }()

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fileMode)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return fmt.Errorf("failed to copy file content: %w", err)
	}

	// Close errors matter for writes: a full disk can surface here.
	if err := dstFile.Close(); err != nil {
		return fmt.Errorf("failed to close destination file: %w", err)
	}
	return nil
}
