package model

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestValidateName verifies that sub-app names are accepted only when they
// are a single alphanumeric/hyphen path segment.
func TestValidateName(t *testing.T) {
	tests := []struct {
		name     string
		hasError bool
	}{
		{"vue-app", false},
		{"react-app", false},
		{"a", false},
		{"App2", false},
		{"", true},
		{"-leading", true},
		{"trailing-", true},
		{"has/slash", true},
		{"..", true},
		{"with space", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.name)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCopyResult_Add(t *testing.T) {
	r := CopyResult{FilesCopied: 2, FoldersProcessed: 1}
	r.Add(CopyResult{FilesCopied: 3, FoldersProcessed: 4})

	assert.Equal(t, 5, r.FilesCopied)
	assert.Equal(t, 5, r.FoldersProcessed)
	assert.Equal(t, "5 files, 5 folders", r.String())
}

// TestBuildOutcome_Failures checks that failures are reported in manifest
// order and that totals only include successful apps.
func TestBuildOutcome_Failures(t *testing.T) {
	outcome := &BuildOutcome{
		Apps: []AppOutcome{
			{Name: "vue-app", Result: CopyResult{FilesCopied: 3, FoldersProcessed: 1}},
			{Name: "react-app", Err: &SourceMissingError{Path: "/x/react-app/dist", Err: fs.ErrNotExist}},
			{Name: "vanilla-app", Result: CopyResult{FilesCopied: 1}},
		},
	}

	assert.False(t, outcome.Succeeded())
	assert.Equal(t, 1, outcome.FailureCount())
	require.Len(t, outcome.Failed(), 1)
	assert.Equal(t, "react-app", outcome.Failed()[0].Name)
	assert.Equal(t, CopyResult{FilesCopied: 4, FoldersProcessed: 1}, outcome.Totals())
}

func TestBuildOutcome_AllSucceeded(t *testing.T) {
	outcome := &BuildOutcome{Apps: []AppOutcome{{Name: "vue-app"}, {Name: "react-app"}}}

	assert.True(t, outcome.Succeeded())
	assert.Empty(t, outcome.Failed())
}

func TestReplacement_String(t *testing.T) {
	assert.Equal(t, "http://localhost:3001/ → ./vue-app/index.html",
		Replacement{From: "http://localhost:3001/", To: "./vue-app/index.html"}.String())
	assert.Equal(t, "re:localhost:(\\d+) → port-$1",
		Replacement{From: `localhost:(\d+)`, To: "port-$1", Pattern: true}.String())
}

// TestCLIError verifies Error() formatting and that Unwrap exposes the
// underlying error to errors.Is.
func TestCLIError(t *testing.T) {
	plain := NewCLIError(ExitManifestError, "bad manifest")
	assert.Equal(t, "bad manifest", plain.Error())
	assert.Equal(t, ExitManifestError, plain.Code)

	cause := errors.New("disk full")
	wrapped := WrapCLIError(ExitStagingFailed, "staging failed", cause)
	assert.Equal(t, "staging failed: disk full", wrapped.Error())
	assert.True(t, errors.Is(wrapped, cause))
}

// TestErrorTaxonomy_Unwrap makes sure every typed error exposes its cause,
// so callers can match on fs.ErrNotExist and friends.
func TestErrorTaxonomy_Unwrap(t *testing.T) {
	errs := []error{
		&StagingError{Path: "/out", Op: "create", Err: fs.ErrPermission},
		&TemplateReadError{Path: "/in/index.html", Err: fs.ErrPermission},
		&TemplateWriteError{Path: "/out/index.html", Err: fs.ErrPermission},
		&SourceMissingError{Path: "/in/app/dist", Err: fs.ErrPermission},
		&CopyError{Source: "/a", Destination: "/b", Err: fs.ErrPermission},
		&ManifestError{Path: "mfbundle.yaml", Err: fs.ErrPermission},
	}

	for _, err := range errs {
		assert.ErrorIs(t, err, fs.ErrPermission, "%T should unwrap to its cause", err)
	}
}

func TestSourceMissingError_Message(t *testing.T) {
	missing := &SourceMissingError{Path: "/repo/vanilla-app/dist", Err: fs.ErrNotExist}
	assert.Contains(t, missing.Error(), "/repo/vanilla-app/dist")
	assert.Contains(t, missing.Error(), "does not exist")

	notDir := &SourceMissingError{Path: "/repo/vanilla-app/dist"}
	assert.Contains(t, notDir.Error(), "not a directory")
}

func TestManifestError_Problems(t *testing.T) {
	err := &ManifestError{Path: "mfbundle.yaml", Problems: []string{"apps: empty", "output: escapes root"}}
	assert.Equal(t, "invalid manifest mfbundle.yaml: apps: empty; output: escapes root", err.Error())

	builtin := &ManifestError{Err: errors.New("boom")}
	assert.Equal(t, "manifest built-in manifest: boom", builtin.Error())
}
