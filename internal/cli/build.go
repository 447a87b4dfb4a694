// Package cli: build.go implements the "mfbundle build" command.
//
// The build command is the primary user-facing operation. It resolves the
// manifest into a build plan, runs the aggregator, prints a summary, and
// turns the outcome into an exit status.
//
// Exit policy: a run where some sub-apps failed to copy still exits 0 so a
// bundle with the remaining apps can be deployed. With --strict (or
// "strict: true" in the manifest) it exits with ExitPartialFailure instead,
// which is what CI pipelines gating on a complete bundle want.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/microfront-bundle/internal/aggregate"
	"github.com/shinji-kodama/microfront-bundle/internal/manifest"
	"github.com/shinji-kodama/microfront-bundle/internal/model"
)

// buildFlags holds the flag values for the build command.
type buildFlags struct {
	out         string // --out: output directory override
	strict      bool   // --strict: partial failure exits non-zero
	noOverwrite bool   // --no-overwrite: keep existing destination files
	parallel    int    // --parallel: max concurrent sub-app copies
}

// NewBuildCommand creates the "build" cobra command.
func NewBuildCommand() *cobra.Command {
	flags := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Assemble all sub-apps into the output directory",
		Long: `Assemble the deployable bundle.

The command:
  - deletes and recreates the output directory
  - rewrites dev-server URLs in the entry page to relative paths
  - copies every sub-app's build output into <output>/<name>

A sub-app whose build output is missing is reported and skipped.

Examples:
  mfbundle build
  mfbundle build --strict
  mfbundle build --out public --parallel 2
  mfbundle build --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.out, "out", "", "Output directory (default: manifest output or dist)")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "Exit non-zero when any sub-app fails to copy")
	cmd.Flags().BoolVar(&flags.noOverwrite, "no-overwrite", false, "Skip files that already exist in the destination")
	cmd.Flags().IntVar(&flags.parallel, "parallel", 0, "Maximum concurrent sub-app copies (0: all at once)")

	return cmd
}

// runBuild is the main orchestration function for the build command.
func runBuild(ctx context.Context, cmd *cobra.Command, flags *buildFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Step 1: Resolve the plan, with flags taking precedence over the manifest.
	plan, err := loadPlan(func(m *manifest.Manifest) {
		if flags.out != "" {
			m.Output = flags.out
		}
		if cmd.Flags().Changed("strict") {
			m.Strict = flags.strict
		}
		if flags.noOverwrite {
			overwrite := false
			m.Overwrite = &overwrite
		}
		if cmd.Flags().Changed("parallel") {
			m.Parallelism = flags.parallel
		}
	})
	if err != nil {
		return err
	}
	Logger().Debug("Resolved build plan",
		"root", plan.RootDir, "output", plan.OutputDir, "apps", len(plan.Apps), "parallelism", plan.Parallelism)

	// Step 2: Run the aggregation pass. Terminal failures come back as
	// errors; per-app failures are inside the outcome.
	outcome, err := aggregate.NewRunner(Logger()).Run(ctx, plan)
	if err != nil {
		return classifyRunError(err)
	}

	// Step 3: Report.
	printBuildResult(cmd.OutOrStdout(), plan, outcome)

	// Step 4: Apply the exit policy.
	if failed := outcome.FailureCount(); failed > 0 && plan.Strict {
		return model.NewCLIError(model.ExitPartialFailure,
			fmt.Sprintf("%d of %d sub-apps failed to copy (strict mode)", failed, len(outcome.Apps)))
	}
	return nil
}

// classifyRunError wraps a terminal aggregator error in a CLIError with the
// matching exit code and a short message.
func classifyRunError(err error) error {
	code := ExitCodeFor(err)
	switch code {
	case model.ExitStagingFailed:
		return model.WrapCLIError(code, "failed to prepare output directory", err)
	case model.ExitTemplateFailed:
		return model.WrapCLIError(code, "failed to process entry HTML", err)
	case model.ExitManifestError:
		return model.WrapCLIError(code, "invalid rewrite rules", err)
	default:
		return model.WrapCLIError(code, "build failed", err)
	}
}

// printBuildResult outputs the build outcome in text or JSON format.
func printBuildResult(w io.Writer, plan *model.BuildPlan, outcome *model.BuildOutcome) {
	if IsJSONOutput() {
		printBuildResultJSON(w, plan, outcome)
	} else {
		printBuildResultText(w, plan, outcome)
	}
}

// buildAppJSON is the JSON shape of one sub-app in the build result.
type buildAppJSON struct {
	Name             string `json:"name"`
	Status           string `json:"status"`
	Source           string `json:"source"`
	Target           string `json:"target"`
	FilesCopied      int    `json:"filesCopied"`
	FoldersProcessed int    `json:"foldersProcessed"`
	DurationMS       int64  `json:"durationMs"`
	Error            string `json:"error,omitempty"`
}

// buildResultJSON is the top-level JSON document printed by build --json.
type buildResultJSON struct {
	Output    string         `json:"output"`
	Succeeded bool           `json:"succeeded"`
	Strict    bool           `json:"strict"`
	Failed    int            `json:"failed"`
	Apps      []buildAppJSON `json:"apps"`
}

func printBuildResultJSON(w io.Writer, plan *model.BuildPlan, outcome *model.BuildOutcome) {
	result := buildResultJSON{
		Output:    outcome.OutputDir,
		Succeeded: outcome.Succeeded(),
		Strict:    plan.Strict,
		Failed:    outcome.FailureCount(),
		Apps:      make([]buildAppJSON, 0, len(outcome.Apps)),
	}

	for _, app := range outcome.Apps {
		entry := buildAppJSON{
			Name:       app.Name,
			Status:     "copied",
			Source:     app.Source,
			Target:     app.Target,
			DurationMS: app.Duration.Milliseconds(),
		}
		if app.Succeeded() {
			entry.FilesCopied = app.Result.FilesCopied
			entry.FoldersProcessed = app.Result.FoldersProcessed
		} else {
			entry.Status = "failed"
			entry.Error = app.Err.Error()
		}
		result.Apps = append(result.Apps, entry)
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	_, _ = fmt.Fprintln(w, string(data))
}

// printBuildResultText outputs one line per sub-app followed by a summary.
//
//	✓ vue-app       3 files, 1 folders  -> dist/vue-app
//	✗ vanilla-app   source directory does not exist: ...
//
//	Bundle written to /work/dist, but 1 of 3 sub-apps failed
func printBuildResultText(w io.Writer, plan *model.BuildPlan, outcome *model.BuildOutcome) {
	ok := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()
	warn := color.New(color.FgYellow, color.Bold).SprintFunc()

	for _, app := range outcome.Apps {
		if app.Succeeded() {
			_, _ = fmt.Fprintf(w, "%s %-15s %-20s -> %s\n",
				ok("✓"), app.Name, app.Result.String(), relativeTo(plan.RootDir, app.Target))
		} else {
			_, _ = fmt.Fprintf(w, "%s %-15s %v\n", bad("✗"), app.Name, app.Err)
		}
	}
	_, _ = fmt.Fprintln(w)

	failed := outcome.FailureCount()
	if failed == 0 {
		_, _ = fmt.Fprintf(w, "%s All %d sub-apps bundled into %s\n",
			ok("✓"), len(outcome.Apps), outcome.OutputDir)
		return
	}
	_, _ = fmt.Fprintf(w, "%s Bundle written to %s, but %d of %d sub-apps failed\n",
		warn("!"), outcome.OutputDir, failed, len(outcome.Apps))
}

// relativeTo shortens path for display when it lies below root.
func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || !filepath.IsLocal(rel) {
		return path
	}
	return rel
}
