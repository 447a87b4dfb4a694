package logging

import "log/slog"

// Canonical log field names, shared so packages do not drift apart.
const (
	KeyApp         = "app"
	KeyPath        = "path"
	KeySource      = "source"
	KeyDestination = "destination"
	KeyStage       = "stage"
	KeyFiles       = "files"
	KeyFolders     = "folders"
	KeyFailed      = "failed"
	KeyDurationMS  = "duration_ms"
	KeyError       = "error"
)

// Attribute helpers, one per canonical key. Use these instead of literal
// keys so every package logs the same names.

// App names the sub-app a record is about.
func App(name string) slog.Attr { return slog.String(KeyApp, name) }

// Path is a filesystem path that is neither a copy source nor destination.
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }

// Source is the path being copied from.
func Source(p string) slog.Attr { return slog.String(KeySource, p) }

// Destination is the path being copied to.
func Destination(p string) slog.Attr { return slog.String(KeyDestination, p) }

// Stage names the aggregation step, such as "stage" or "template".
func Stage(name string) slog.Attr { return slog.String(KeyStage, name) }

// Files is a count of copied files.
func Files(n int) slog.Attr { return slog.Int(KeyFiles, n) }

// Folders is a count of processed directories.
func Folders(n int) slog.Attr { return slog.Int(KeyFolders, n) }

// Failed is a count of failed sub-apps.
func Failed(n int) slog.Attr { return slog.Int(KeyFailed, n) }

// DurationMS is an elapsed time in milliseconds.
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

// Error renders err as a string attribute; a nil error yields an empty value.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
