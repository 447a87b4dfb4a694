// Package aggregate runs one bundle pass: stage the output directory,
// rewrite the entry page into it, then copy every sub-app's build output
// next to it.
//
// Steps:
//  1. Stage    – wipe and recreate the output directory (fatal on failure)
//  2. Template – rewrite dev-server URLs in the entry page (fatal on failure)
//  3. Fan-out  – copy each sub-app independently and concurrently; a failing
//     sub-app is recorded and never stops its siblings
//  4. Report   – log a summary and return the structured outcome
//
// The runner never exits the process. Deciding what a partial failure means
// for the exit status is left to the caller.
package aggregate

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shinji-kodama/microfront-bundle/internal/htmlrewrite"
	"github.com/shinji-kodama/microfront-bundle/internal/logging"
	"github.com/shinji-kodama/microfront-bundle/internal/model"
	"github.com/shinji-kodama/microfront-bundle/internal/stage"
	"github.com/shinji-kodama/microfront-bundle/internal/treecopy"
)

// StageFunc prepares the output directory.
type StageFunc func(path string) error

// TemplateFunc rewrites the entry page at entry into out and returns the
// rewritten content.
type TemplateFunc func(entry, out string, mapping []model.Replacement) (string, error)

// CopyFunc copies one sub-app's build output to its target directory.
type CopyFunc func(ctx context.Context, app model.SubAppSpec, overwrite bool) (model.CopyResult, error)

// Runner executes build plans. The function fields exist so tests can
// observe or replace individual steps; NewRunner wires the real ones.
type Runner struct {
	Logger   *slog.Logger
	Stage    StageFunc
	Template TemplateFunc
	Copy     CopyFunc
}

// NewRunner creates a Runner backed by the stage, htmlrewrite and treecopy
// packages.
func NewRunner(logger *slog.Logger) *Runner {
	logger = logging.OrDiscard(logger)
	return &Runner{
		Logger:   logger,
		Stage:    stage.Stage,
		Template: htmlrewrite.RewriteFile,
		Copy:     treeCopy(logger),
	}
}

// treeCopy adapts treecopy.Copier to CopyFunc. Copy logs carry the app name.
func treeCopy(logger *slog.Logger) CopyFunc {
	return func(_ context.Context, app model.SubAppSpec, overwrite bool) (model.CopyResult, error) {
		copier := treecopy.New(
			treecopy.WithOverwrite(overwrite),
			treecopy.WithLogger(logger.With(logging.App(app.Name))),
		)
		return copier.CopyTree(app.SourceDir, app.TargetDir)
	}
}

// Run executes plan.
//
// Staging and templating failures are returned as errors
// (*model.StagingError, *model.TemplateReadError, *model.TemplateWriteError,
// *model.ManifestError) with a nil outcome; no sub-app is copied after them.
// Otherwise Run returns an outcome with one entry per sub-app, in plan
// order, and a nil error even when some sub-apps failed.
func (r *Runner) Run(ctx context.Context, plan *model.BuildPlan) (*model.BuildOutcome, error) {
	log := logging.OrDiscard(r.Logger)
	start := time.Now()

	// Step 1: Stage the output directory.
	if err := r.Stage(plan.OutputDir); err != nil {
		log.Error("Failed to stage output directory", logging.Stage("stage"), logging.Path(plan.OutputDir), logging.Error(err))
		return nil, err
	}
	log.Info("Staged output directory", logging.Stage("stage"), logging.Path(plan.OutputDir))

	// Step 2: Rewrite the entry page into the output directory.
	entryOut := filepath.Join(plan.OutputDir, filepath.Base(plan.EntryHTML))
	rewritten, err := r.Template(plan.EntryHTML, entryOut, plan.Rewrites)
	if err != nil {
		log.Error("Failed to process entry HTML", logging.Stage("template"), logging.Path(plan.EntryHTML), logging.Error(err))
		return nil, err
	}
	log.Info("Rewrote entry HTML", logging.Stage("template"), logging.Path(entryOut), slog.Int("rules", len(plan.Rewrites)))

	// Only the first occurrence of each token is rewritten. A leftover
	// token usually means the shell page links the same dev server twice.
	for _, token := range htmlrewrite.Remaining(rewritten, plan.Rewrites) {
		log.Warn("Entry HTML still references a development URL", logging.Stage("template"), slog.String("token", token))
	}

	// Step 3: Copy every sub-app.
	outcome := &model.BuildOutcome{
		OutputDir: plan.OutputDir,
		Apps:      r.fanOut(ctx, log, plan),
	}

	// Step 4: Report.
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	totals := outcome.Totals()
	if failed := outcome.FailureCount(); failed > 0 {
		log.Warn("Bundle complete with failures",
			logging.Failed(failed),
			slog.Int("apps", len(outcome.Apps)),
			logging.Files(totals.FilesCopied),
			logging.DurationMS(elapsed))
	} else {
		log.Info("Bundle complete",
			slog.Int("apps", len(outcome.Apps)),
			logging.Files(totals.FilesCopied),
			logging.Folders(totals.FoldersProcessed),
			logging.DurationMS(elapsed))
	}

	return outcome, nil
}

// fanOut copies all sub-apps with at most plan.Parallelism copies in
// flight. Each task owns one slot of the result slice, so no locking is
// needed, and tasks never return errors to the group: a failure in one
// sub-app must not cancel the others.
func (r *Runner) fanOut(ctx context.Context, log *slog.Logger, plan *model.BuildPlan) []model.AppOutcome {
	outcomes := make([]model.AppOutcome, len(plan.Apps))
	if len(plan.Apps) == 0 {
		return outcomes
	}

	limit := plan.Parallelism
	if limit <= 0 || limit > len(plan.Apps) {
		limit = len(plan.Apps)
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, app := range plan.Apps {
		g.Go(func() error {
			outcomes[i] = r.copyApp(ctx, log, app, plan.Overwrite)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// copyApp copies a single sub-app and records the outcome.
func (r *Runner) copyApp(ctx context.Context, log *slog.Logger, app model.SubAppSpec, overwrite bool) model.AppOutcome {
	outcome := model.AppOutcome{
		Name:   app.Name,
		Source: app.SourceDir,
		Target: app.TargetDir,
	}

	// Copies already running are not interrupted; ones not yet started
	// are skipped once the context is done.
	if err := ctx.Err(); err != nil {
		outcome.Err = err
		log.Error("Skipped sub-app", logging.App(app.Name), logging.Error(err))
		return outcome
	}

	start := time.Now()
	result, err := r.Copy(ctx, app, overwrite)
	outcome.Duration = time.Since(start)

	if err != nil {
		outcome.Err = err
		log.Error("Failed to copy sub-app", logging.App(app.Name), logging.Error(err))
		return outcome
	}

	outcome.Result = result
	log.Info("Copied sub-app",
		logging.App(app.Name),
		logging.Destination(app.TargetDir),
		logging.Files(result.FilesCopied),
		logging.Folders(result.FoldersProcessed),
		logging.DurationMS(float64(outcome.Duration.Microseconds())/1000))
	return outcome
}
