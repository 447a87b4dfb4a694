package model

import (
	"fmt"
	"strings"
)

// StagingError reports that the output directory could not be cleaned or
// created. It is fatal: no template or copy step runs after it.
type StagingError struct {
	// Path is the output directory being staged.
	Path string

	// Op is the step that failed: "guard", "remove" or "create".
	Op string

	Err error
}

func (e *StagingError) Error() string {
	return fmt.Sprintf("staging %s (%s): %v", e.Path, e.Op, e.Err)
}

func (e *StagingError) Unwrap() error { return e.Err }

// TemplateReadError reports that the entry HTML could not be read.
type TemplateReadError struct {
	Path string
	Err  error
}

func (e *TemplateReadError) Error() string {
	return fmt.Sprintf("read entry HTML %s: %v", e.Path, e.Err)
}

func (e *TemplateReadError) Unwrap() error { return e.Err }

// TemplateWriteError reports that the rewritten entry HTML could not be
// written into the output directory.
type TemplateWriteError struct {
	Path string
	Err  error
}

func (e *TemplateWriteError) Error() string {
	return fmt.Sprintf("write entry HTML %s: %v", e.Path, e.Err)
}

func (e *TemplateWriteError) Unwrap() error { return e.Err }

// SourceMissingError reports that a sub-app's build output directory does
// not exist (or is not a directory). The usual cause is that the sub-app
// was never built.
type SourceMissingError struct {
	Path string

	// Err is the stat error, or nil when the path exists but is not a directory.
	Err error
}

func (e *SourceMissingError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("source is not a directory: %s (make sure the app has been built)", e.Path)
	}
	return fmt.Sprintf("source directory does not exist: %s (make sure the app has been built)", e.Path)
}

func (e *SourceMissingError) Unwrap() error { return e.Err }

// CopyError wraps the first I/O failure hit while copying a tree. Source and
// Destination identify the entry that failed, not the copy root.
type CopyError struct {
	Source      string
	Destination string
	Err         error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("copy %s -> %s: %v", e.Source, e.Destination, e.Err)
}

func (e *CopyError) Unwrap() error { return e.Err }

// ManifestError reports that the bundle manifest could not be read, parsed,
// or validated.
type ManifestError struct {
	// Path is the manifest file, empty for the built-in defaults.
	Path string

	// Problems lists individual validation failures, if any.
	Problems []string

	Err error
}

func (e *ManifestError) Error() string {
	where := e.Path
	if where == "" {
		where = "built-in manifest"
	}
	if len(e.Problems) > 0 {
		return fmt.Sprintf("invalid manifest %s: %s", where, strings.Join(e.Problems, "; "))
	}
	return fmt.Sprintf("manifest %s: %v", where, e.Err)
}

func (e *ManifestError) Unwrap() error { return e.Err }
