package htmlrewrite

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/microfront-bundle/internal/model"
)

// shellPage mirrors the development entry page: one iframe per sub-app,
// each pointing at that sub-app's dev server.
const shellPage = `<!doctype html>
<html>
  <body>
    <iframe src="http://localhost:3001/"></iframe>
    <iframe src="http://localhost:3003/"></iframe>
    <iframe src="http://localhost:3002/"></iframe>
  </body>
</html>
`

var devMapping = []model.Replacement{
	{From: "http://localhost:3001/", To: "./vue-app/index.html"},
	{From: "http://localhost:3003/", To: "./react-app/index.html"},
	{From: "http://localhost:3002/", To: "./vanilla-app/index.html"},
}

// TestRewrite_DevServerURLs applies the standard three-app mapping and
// checks that no dev-server URL survives and each relative path lands
// where its URL was.
func TestRewrite_DevServerURLs(t *testing.T) {
	out, err := Rewrite(shellPage, devMapping)
	require.NoError(t, err)

	assert.NotContains(t, out, "localhost")
	assert.Contains(t, out, `<iframe src="./vue-app/index.html"></iframe>`)
	assert.Contains(t, out, `<iframe src="./react-app/index.html"></iframe>`)
	assert.Contains(t, out, `<iframe src="./vanilla-app/index.html"></iframe>`)

	// Order of the iframes must be preserved.
	vue := strings.Index(out, "vue-app")
	react := strings.Index(out, "react-app")
	vanilla := strings.Index(out, "vanilla-app")
	assert.Less(t, vue, react)
	assert.Less(t, react, vanilla)
}

// TestRewrite_FirstOccurrenceOnly verifies that a token present twice is
// only rewritten once.
func TestRewrite_FirstOccurrenceOnly(t *testing.T) {
	src := `<a href="http://localhost:3001/">one</a><a href="http://localhost:3001/">two</a>`

	out, err := Rewrite(src, devMapping[:1])
	require.NoError(t, err)

	assert.Equal(t, `<a href="./vue-app/index.html">one</a><a href="http://localhost:3001/">two</a>`, out)
	assert.Equal(t, []string{"http://localhost:3001/"}, Remaining(out, devMapping))
}

// TestRewrite_RulesApplyInOrder checks that a later rule sees the output of
// an earlier one.
func TestRewrite_RulesApplyInOrder(t *testing.T) {
	mapping := []model.Replacement{
		{From: "A", To: "B"},
		{From: "B", To: "C"},
	}

	out, err := Rewrite("A", mapping)
	require.NoError(t, err)
	assert.Equal(t, "C", out)
}

func TestRewrite_NoMatchIsNoop(t *testing.T) {
	out, err := Rewrite("<p>static</p>", devMapping)
	require.NoError(t, err)
	assert.Equal(t, "<p>static</p>", out)
}

// TestRewrite_Pattern verifies regular expression rules, including
// capture-group expansion and first-match-only semantics.
func TestRewrite_Pattern(t *testing.T) {
	mapping := []model.Replacement{
		{From: `http://localhost:(\d+)/`, To: "./port-$1/index.html", Pattern: true},
	}

	out, err := Rewrite(`<a href="http://localhost:3001/"></a><a href="http://localhost:3002/"></a>`, mapping)
	require.NoError(t, err)
	assert.Equal(t, `<a href="./port-3001/index.html"></a><a href="http://localhost:3002/"></a>`, out)
}

func TestRewrite_InvalidPattern(t *testing.T) {
	_, err := Rewrite("x", []model.Replacement{{From: "(", To: "y", Pattern: true}})
	assert.Error(t, err)
}

// TestDefaultMapping derives rules from sub-app dev servers and skips apps
// without one.
func TestDefaultMapping(t *testing.T) {
	apps := []model.SubAppSpec{
		{Name: "vue-app", DevServer: "http://localhost:3001/"},
		{Name: "docs"},
		{Name: "react-app", DevServer: "http://localhost:3003/"},
		{Name: "vanilla-app", DevServer: "http://localhost:3002/"},
	}

	assert.Equal(t, devMapping, DefaultMapping(apps))
	assert.Empty(t, DefaultMapping(nil))
}

// TestRewriteFile writes the rewritten page to a not-yet-existing output
// directory and returns the same content it wrote.
func TestRewriteFile(t *testing.T) {
	root := t.TempDir()
	entry := filepath.Join(root, "index.html")
	require.NoError(t, os.WriteFile(entry, []byte(shellPage), 0o644))
	out := filepath.Join(root, "dist", "index.html")

	content, err := RewriteFile(entry, out, devMapping)
	require.NoError(t, err)

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, content, string(written))
	assert.NotContains(t, content, "localhost")

	// The source page is never modified.
	original, err := os.ReadFile(entry)
	require.NoError(t, err)
	assert.Equal(t, shellPage, string(original))
}

func TestRewriteFile_ReadError(t *testing.T) {
	root := t.TempDir()

	_, err := RewriteFile(filepath.Join(root, "missing.html"), filepath.Join(root, "dist", "index.html"), devMapping)

	var readErr *model.TemplateReadError
	require.True(t, errors.As(err, &readErr), "expected TemplateReadError, got %T", err)
	assert.NoFileExists(t, filepath.Join(root, "dist", "index.html"))
}

// TestRewriteFile_WriteError makes the output location unwritable by
// occupying it with a directory.
func TestRewriteFile_WriteError(t *testing.T) {
	root := t.TempDir()
	entry := filepath.Join(root, "index.html")
	require.NoError(t, os.WriteFile(entry, []byte(shellPage), 0o644))
	out := filepath.Join(root, "dist", "index.html")
	require.NoError(t, os.MkdirAll(out, 0o755))

	_, err := RewriteFile(entry, out, devMapping)

	var writeErr *model.TemplateWriteError
	require.True(t, errors.As(err, &writeErr), "expected TemplateWriteError, got %T", err)
	assert.Equal(t, out, writeErr.Path)
}

func TestRewriteFile_InvalidPattern(t *testing.T) {
	root := t.TempDir()
	entry := filepath.Join(root, "index.html")
	require.NoError(t, os.WriteFile(entry, []byte(shellPage), 0o644))

	_, err := RewriteFile(entry, filepath.Join(root, "dist", "index.html"),
		[]model.Replacement{{From: "[", Pattern: true}})

	var manifestErr *model.ManifestError
	assert.True(t, errors.As(err, &manifestErr), "expected ManifestError, got %T", err)
}
