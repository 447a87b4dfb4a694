// Package cli implements the cobra-based CLI commands for mfbundle.
//
// Each subcommand (build, apps, rewrite) is defined in its own file within
// this package. This file defines the root command that serves as the
// parent for all subcommands, handles global flags, and maps errors to
// process exit codes.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/microfront-bundle/internal/logging"
	"github.com/shinji-kodama/microfront-bundle/internal/manifest"
	"github.com/shinji-kodama/microfront-bundle/internal/model"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	jsonOutput bool

	// verbose forces debug-level logging.
	verbose bool

	// logLevel is the slog level name used when --verbose is not set.
	logLevel string

	// rootDir is the workspace root; defaults to the current directory.
	rootDir string

	// manifestPath points at an explicit manifest file.
	manifestPath string

	// logger is built in the root command's PersistentPreRunE.
	logger *slog.Logger
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
//
// The root command itself does not perform any action; it provides help
// text and global flags. Actual functionality lives in the subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mfbundle",
		Short: "Assemble independently built micro-frontends into one static bundle",
		Long: `mfbundle collects the build output of several independently built
front-end apps (Vue, React, vanilla JS, ...) into a single deployable
directory.

A build wipes the output directory, rewrites the development shell page so
its dev-server URLs point at the bundled copies, and copies every sub-app's
build output next to it. A sub-app that was never built is reported but
does not stop the others.`,

		// SilenceUsage prevents cobra from printing usage on every error.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// We format errors ourselves (text or JSON based on --json flag).
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := logLevel
			if verbose {
				level = "debug"
			}
			logger = logging.BuildLogger(level, cmd.ErrOrStderr())
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose (debug) logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Workspace root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&manifestPath, "manifest", "",
		"Manifest file (default: $"+manifest.EnvManifest+" or mfbundle.{yaml,yml,jsonc,json} in the root)")

	rootCmd.AddCommand(NewBuildCommand())
	rootCmd.AddCommand(NewAppsCommand())
	rootCmd.AddCommand(NewRewriteCommand())

	return rootCmd
}

// Execute runs the root command and exits with the code ExitCodeFor
// assigns to the returned error. This is the only place the process exits.
func Execute(rootCmd *cobra.Command) {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		printError(os.Stderr, cliErr.Message, cliErr.Err)
	} else {
		printError(os.Stderr, err.Error(), nil)
	}
	os.Exit(int(ExitCodeFor(err)))
}

// ExitCodeFor maps an error returned by a command to a process exit code.
// CLIError carries its own code; the typed errors of the aggregation pass
// map to their dedicated codes; anything else is a general error.
func ExitCodeFor(err error) model.ExitCode {
	if err == nil {
		return model.ExitSuccess
	}

	var (
		cliErr      *model.CLIError
		manifestErr *model.ManifestError
		stagingErr  *model.StagingError
		readErr     *model.TemplateReadError
		writeErr    *model.TemplateWriteError
	)
	switch {
	case errors.As(err, &cliErr):
		return cliErr.Code
	case errors.As(err, &manifestErr):
		return model.ExitManifestError
	case errors.As(err, &stagingErr):
		return model.ExitStagingFailed
	case errors.As(err, &readErr), errors.As(err, &writeErr):
		return model.ExitTemplateFailed
	default:
		return model.ExitGeneralError
	}
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(w io.Writer, message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		// Errors go to stderr even in JSON mode; stdout is reserved for
		// successful command output.
		data, _ := json.MarshalIndent(errObj, "", "  ")
		_, _ = fmt.Fprintln(w, string(data))
		return
	}

	if underlying != nil {
		_, _ = fmt.Fprintf(w, "Error: %s: %v\n", message, underlying)
	} else {
		_, _ = fmt.Fprintf(w, "Error: %s\n", message)
	}
}

// IsJSONOutput returns whether the --json flag is set.
// Subcommands use this to decide their output format.
func IsJSONOutput() bool {
	return jsonOutput
}

// Logger returns the logger configured by the global flags.
func Logger() *slog.Logger {
	return logging.OrDiscard(logger)
}

// workspaceRoot resolves --root to an absolute path.
func workspaceRoot() (string, error) {
	dir := rootDir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
		}
		dir = cwd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", model.WrapCLIError(model.ExitGeneralError, "failed to resolve workspace root", err)
	}
	return abs, nil
}

// loadPlan discovers the manifest, lets adjust apply flag overrides, and
// resolves the result into a build plan.
func loadPlan(adjust func(m *manifest.Manifest)) (*model.BuildPlan, error) {
	root, err := workspaceRoot()
	if err != nil {
		return nil, err
	}

	m, err := manifest.Discover(root, manifestPath)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitManifestError, "failed to load manifest", err)
	}
	if m.Path() != "" {
		Logger().Debug("Loaded manifest", logging.Path(m.Path()))
	} else {
		Logger().Debug("No manifest found, using built-in sub-app list", logging.Path(root))
	}

	if adjust != nil {
		adjust(m)
	}

	plan, err := m.Resolve(root)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitManifestError, "invalid manifest", err)
	}
	return plan, nil
}
