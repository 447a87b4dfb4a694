// Package htmlrewrite turns the development entry page into the deployable
// one by replacing absolute dev-server URLs with relative paths into the
// aggregated bundle.
//
// During development the shell page links to each sub-app's own dev server
// (e.g. http://localhost:3001/). Once every sub-app has been copied into a
// sibling directory of the bundle, those links must point at
// ./<app>/index.html instead.
//
// Every rule replaces only the FIRST occurrence of its pattern. The shell
// page references each sub-app exactly once, and a second occurrence of the
// same token is deliberately left alone (Remaining reports it).
package htmlrewrite

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shinji-kodama/microfront-bundle/internal/model"
)

// Rewrite applies mapping to src in order and returns the result. Each
// rule sees the output of the previous one and replaces at most one match.
//
// Literal rules cannot fail. A pattern rule fails only when its expression
// does not compile.
func Rewrite(src string, mapping []model.Replacement) (string, error) {
	out := src
	for _, rule := range mapping {
		if !rule.Pattern {
			out = strings.Replace(out, rule.From, rule.To, 1)
			continue
		}

		re, err := regexp.Compile(rule.From)
		if err != nil {
			return "", fmt.Errorf("invalid rewrite pattern %q: %w", rule.From, err)
		}
		out = replaceFirst(re, out, rule.To)
	}
	return out, nil
}

// replaceFirst is regexp.ReplaceAllString limited to the leftmost match.
// The template is expanded the same way ReplaceAllString expands it, so
// $1 and ${name} work as usual.
func replaceFirst(re *regexp.Regexp, src, template string) string {
	loc := re.FindStringSubmatchIndex(src)
	if loc == nil {
		return src
	}

	var b strings.Builder
	b.Grow(len(src) + len(template))
	b.WriteString(src[:loc[0]])
	b.Write(re.ExpandString(nil, template, src, loc))
	b.WriteString(src[loc[1]:])
	return b.String()
}

// DefaultMapping derives one literal rule per sub-app that has a dev
// server: DevServer → ./<name>/index.html, in app order.
func DefaultMapping(apps []model.SubAppSpec) []model.Replacement {
	mapping := make([]model.Replacement, 0, len(apps))
	for _, app := range apps {
		if app.DevServer == "" {
			continue
		}
		mapping = append(mapping, model.Replacement{
			From: app.DevServer,
			To:   "./" + app.Name + "/index.html",
		})
	}
	return mapping
}

// Remaining returns the literal From values that still occur in html.
// Run it on rewritten output to spot tokens that appeared more than once
// and were therefore only partially rewritten. Pattern rules are ignored.
func Remaining(html string, mapping []model.Replacement) []string {
	var left []string
	for _, rule := range mapping {
		if rule.Pattern || rule.From == "" {
			continue
		}
		if strings.Contains(html, rule.From) {
			left = append(left, rule.From)
		}
	}
	return left
}

// RewriteFile reads the entry page at entryPath, rewrites it, and writes the
// result to outputPath (creating parent directories). It returns the
// rewritten content so callers can inspect it.
//
// Read failures surface as *model.TemplateReadError and write failures as
// *model.TemplateWriteError. An invalid pattern rule is reported as a
// *model.ManifestError since the mapping comes from the manifest.
func RewriteFile(entryPath, outputPath string, mapping []model.Replacement) (string, error) {
	data, err := os.ReadFile(entryPath)
	if err != nil {
		return "", &model.TemplateReadError{Path: entryPath, Err: err}
	}

	rewritten, err := Rewrite(string(data), mapping)
	if err != nil {
		return "", &model.ManifestError{Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", &model.TemplateWriteError{Path: outputPath, Err: err}
	}
	if err := os.WriteFile(outputPath, []byte(rewritten), 0o644); err != nil {
		return "", &model.TemplateWriteError{Path: outputPath, Err: err}
	}

	return rewritten, nil
}
