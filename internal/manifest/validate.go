// validate.go checks a manifest before anything touches the filesystem.
//
// Staging wipes the output directory, so the most important checks are the
// ones that keep the output away from the workspace root and from every
// sub-app's build output. The rest catch mistakes that would otherwise
// surface as confusing copy failures or a half-rewritten entry page.
package manifest

import (
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shinji-kodama/microfront-bundle/internal/model"
)

// ValidationError represents a specific validation failure in a manifest.
type ValidationError struct {
	// Field is the manifest field path that failed validation (e.g., "apps[1].name").
	Field string

	// Message describes what's wrong with the field value.
	Message string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("manifest validation error: %s: %s", e.Field, e.Message)
}

// Validate checks the manifest against the workspace root (an absolute
// path) and returns every problem found. Defaults must already be applied.
//
// Checks performed:
//   - entry and output are set, output is neither the root nor an
//     ancestor of it, and the entry does not lie inside the output
//   - at least one app; names are valid and unique
//   - targets are local paths (no "..", not absolute) below the output
//     root, unique, and distinct from the entry page's name
//   - no source lies inside the output directory and the output does not
//     lie inside any source
//   - dev servers are absolute http(s) URLs with distinct host:port
//   - rewrite rules have a non-empty From; pattern rules compile
//   - parallelism is not negative
func (m *Manifest) Validate(root string) []ValidationError {
	var errs []ValidationError
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	output := ""
	if m.Output == "" {
		add("output", "output directory is required")
	} else {
		output = resolvePath(root, m.Output)
		if within(root, output) {
			add("output", "output directory %s must be a subdirectory dedicated to build output, not the workspace root or one of its parents", output)
		}
	}

	if m.Entry == "" {
		add("entry", "entry HTML path is required")
	} else if output != "" && within(resolvePath(root, m.Entry), output) {
		add("entry", "entry %s lies inside the output directory and would be deleted by staging", m.Entry)
	}

	if m.Parallelism < 0 {
		add("parallelism", "must not be negative (got %d)", m.Parallelism)
	}

	if len(m.Apps) == 0 {
		add("apps", "at least one sub-app is required")
	}

	names := make(map[string]int)
	targets := make(map[string]string)
	devHosts := make(map[string]string)

	for i, app := range m.Apps {
		field := fmt.Sprintf("apps[%d]", i)

		if err := model.ValidateName(app.Name); err != nil {
			add(field+".name", "%v", err)
		} else if prev, dup := names[app.Name]; dup {
			add(field+".name", "duplicate sub-app name %q (also apps[%d])", app.Name, prev)
		} else {
			names[app.Name] = i
		}

		if app.Source == "" {
			add(field+".source", "source directory is required")
		} else if output != "" {
			source := resolvePath(root, app.Source)
			switch {
			case within(source, output):
				add(field+".source", "source %s lies inside the output directory and would be deleted by staging", app.Source)
			case within(output, source):
				add(field+".source", "output directory %s lies inside source %s and would be copied into itself", m.Output, app.Source)
			}
		}

		target := filepath.FromSlash(app.Target)
		switch {
		case target == "":
			add(field+".target", "target directory is required")
		case !filepath.IsLocal(target):
			add(field+".target", "target %q must be a relative path inside the output directory", app.Target)
		case filepath.Clean(target) == ".":
			add(field+".target", "target %q is the output directory itself; use a subdirectory", app.Target)
		case m.Entry != "" && filepath.Clean(target) == filepath.Base(filepath.FromSlash(m.Entry)):
			add(field+".target", "target %q collides with the rewritten entry page", app.Target)
		default:
			key := filepath.Clean(target)
			if owner, dup := targets[key]; dup {
				add(field+".target", "target %q is already used by %q", app.Target, owner)
			} else {
				targets[key] = app.Name
			}
		}

		if app.DevServer != "" {
			host, err := DevServerAddress(app.DevServer)
			if err != nil {
				add(field+".devServer", "%v", err)
			} else if owner, dup := devHosts[host]; dup {
				add(field+".devServer", "dev server %s is already used by %q", host, owner)
			} else {
				devHosts[host] = app.Name
			}
		}
	}

	for i, rule := range m.Rewrites {
		field := fmt.Sprintf("rewrites[%d]", i)
		if rule.From == "" {
			add(field+".from", "from must not be empty")
			continue
		}
		if rule.Pattern {
			if _, err := regexp.Compile(rule.From); err != nil {
				add(field+".from", "invalid regular expression: %v", err)
			}
		}
	}

	return errs
}

// DevServerAddress parses an absolute http(s) URL and returns its
// host:port. The port defaults to the scheme's well-known port.
func DevServerAddress(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid dev server URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("dev server URL %q must use http or https", raw)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("dev server URL %q has no host", raw)
	}

	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	return net.JoinHostPort(strings.ToLower(u.Hostname()), port), nil
}

// within reports whether path equals dir or lies below it. Both must be
// absolute and clean.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || filepath.IsLocal(rel)
}
