// Package model defines the domain types for the mfbundle CLI.
//
// All entities in this package describe a single aggregation pass: which
// sub-applications take part (SubAppSpec), what each copy produced
// (CopyResult, AppOutcome), and how the whole run went (BuildOutcome).
package model

import (
	"fmt"
	"regexp"
	"time"
)

// SubAppSpec describes one independently built front-end application whose
// build output is copied into the aggregated bundle.
//
// Specs are resolved once from the manifest (or the built-in defaults) when
// a run starts and are never mutated afterwards.
type SubAppSpec struct {
	// Name identifies the sub-application. It doubles as the name of the
	// subdirectory in the aggregated output, so it must be a single safe
	// path segment (see ValidateName).
	Name string `json:"name"`

	// SourceDir is the absolute path to the sub-app's build output
	// (e.g. <root>/vue-app/dist). It must exist when the copy starts.
	SourceDir string `json:"source"`

	// TargetDir is the absolute path the build output is copied into
	// (e.g. <root>/dist/vue-app).
	TargetDir string `json:"target"`

	// DevServer is the absolute URL the shell page links to during local
	// development (e.g. "http://localhost:3001/"). Optional; when set it
	// produces a default rewrite rule for the entry HTML.
	DevServer string `json:"devServer,omitempty"`
}

// nameRegex validates sub-app names: alphanumeric + hyphens only,
// must start and end with alphanumeric.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)

// ValidateName checks if the given name is a valid sub-app name.
// Valid names contain only alphanumeric characters and hyphens,
// and must start/end with an alphanumeric character.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("sub-app name must not be empty")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid sub-app name %q: must contain only alphanumeric characters and hyphens, and start/end with alphanumeric", name)
	}
	return nil
}

// CopyResult counts what a single tree copy did. It is purely
// observational: nothing branches on the numbers besides log output.
type CopyResult struct {
	// FilesCopied counts regular files actually written. Files skipped
	// because they already existed (overwrite disabled) are not counted.
	FilesCopied int `json:"filesCopied"`

	// FoldersProcessed counts every directory below the copy root,
	// including empty ones.
	FoldersProcessed int `json:"foldersProcessed"`
}

// Add accumulates another result into r.
func (r *CopyResult) Add(other CopyResult) {
	r.FilesCopied += other.FilesCopied
	r.FoldersProcessed += other.FoldersProcessed
}

// String returns a short human-readable summary, e.g. "3 files, 1 folders".
func (r CopyResult) String() string {
	return fmt.Sprintf("%d files, %d folders", r.FilesCopied, r.FoldersProcessed)
}

// AppOutcome records the result of copying one sub-application.
type AppOutcome struct {
	Name   string
	Source string
	Target string

	// Result is only meaningful when Err is nil.
	Result CopyResult

	// Err is the per-app failure (typically *SourceMissingError or *CopyError).
	Err error

	Duration time.Duration
}

// Succeeded reports whether the sub-app was copied without error.
func (o AppOutcome) Succeeded() bool {
	return o.Err == nil
}

// BuildOutcome aggregates the per-app outcomes of one run.
//
// A BuildOutcome only exists for runs that got past staging and templating;
// those two steps are terminal and surface as errors instead.
type BuildOutcome struct {
	// OutputDir is the absolute path of the aggregated output.
	OutputDir string

	// Apps holds one entry per configured sub-app, in manifest order
	// regardless of the order in which the copies finished.
	Apps []AppOutcome
}

// Failed returns the outcomes of sub-apps whose copy failed.
func (b *BuildOutcome) Failed() []AppOutcome {
	var failed []AppOutcome
	for _, app := range b.Apps {
		if !app.Succeeded() {
			failed = append(failed, app)
		}
	}
	return failed
}

// FailureCount returns the number of sub-apps whose copy failed.
func (b *BuildOutcome) FailureCount() int {
	return len(b.Failed())
}

// Succeeded reports whether every sub-app was copied.
func (b *BuildOutcome) Succeeded() bool {
	return b.FailureCount() == 0
}

// Totals sums the copy results of all successful sub-apps.
func (b *BuildOutcome) Totals() CopyResult {
	var total CopyResult
	for _, app := range b.Apps {
		if app.Succeeded() {
			total.Add(app.Result)
		}
	}
	return total
}

// Replacement is one rewrite rule applied to the entry HTML.
//
// Each rule replaces only the first occurrence of From in the text it is
// given. When Pattern is true, From is a Go regular expression and To may
// reference capture groups ($1, ${name}); otherwise both are literals.
type Replacement struct {
	From    string `json:"from" yaml:"from"`
	To      string `json:"to" yaml:"to"`
	Pattern bool   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// String returns a human-readable representation of the rule.
// Format: "from → to" (with a "re:" prefix for pattern rules).
func (r Replacement) String() string {
	if r.Pattern {
		return fmt.Sprintf("re:%s → %s", r.From, r.To)
	}
	return fmt.Sprintf("%s → %s", r.From, r.To)
}

// ExitCode defines standard CLI exit codes. These codes allow CI systems
// to gate deployments on the outcome of a bundle run.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully. Partial
	// fan-out failures also exit with this code unless strict mode is on.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitManifestError indicates the manifest could not be loaded or
	// failed validation.
	ExitManifestError ExitCode = 2

	// ExitStagingFailed indicates the output directory could not be
	// cleaned or created.
	ExitStagingFailed ExitCode = 3

	// ExitTemplateFailed indicates the entry HTML could not be read or
	// the rewritten copy could not be written.
	ExitTemplateFailed ExitCode = 4

	// ExitPartialFailure indicates one or more sub-apps failed to copy
	// while strict mode was enabled.
	ExitPartialFailure ExitCode = 6
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// BuildPlan is everything one aggregation pass needs, fully resolved to
// absolute paths. It is produced from the manifest and consumed by the
// aggregator.
type BuildPlan struct {
	// RootDir is the workspace root all relative manifest paths resolve against.
	RootDir string `json:"root"`

	// EntryHTML is the development shell page to rewrite.
	EntryHTML string `json:"entry"`

	// OutputDir is the aggregated output. It is wiped at the start of every run.
	OutputDir string `json:"output"`

	Apps     []SubAppSpec  `json:"apps"`
	Rewrites []Replacement `json:"rewrites"`

	// Overwrite is passed to every tree copy. The output is freshly staged,
	// so it only matters when two sub-apps share a target subtree.
	Overwrite bool `json:"overwrite"`

	// Parallelism bounds how many sub-apps are copied at once; 0 means
	// one worker per sub-app.
	Parallelism int `json:"parallelism"`

	// Strict turns a partial fan-out failure into a non-zero exit code.
	Strict bool `json:"strict"`
}
