// Package cli: rewrite.go implements the "mfbundle rewrite" command, a dry
// run of the entry page rewrite. It prints the page exactly as a build
// would write it, without staging or copying anything.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/microfront-bundle/internal/htmlrewrite"
	"github.com/shinji-kodama/microfront-bundle/internal/model"
)

// NewRewriteCommand creates the "rewrite" cobra command.
func NewRewriteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rewrite",
		Short: "Print the rewritten entry page without building",
		Long: `Print the entry page with every dev-server URL replaced by its bundled
relative path, exactly as "mfbundle build" would write it.

Each rewrite rule replaces only the first occurrence of its URL. URLs that
are still present afterwards are reported as warnings.

Examples:
  mfbundle rewrite
  mfbundle rewrite --manifest mfbundle.yaml > preview.html`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runRewrite(cmd.OutOrStdout())
		},
	}
}

func runRewrite(w io.Writer) error {
	plan, err := loadPlan(nil)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(plan.EntryHTML)
	if err != nil {
		return model.WrapCLIError(model.ExitTemplateFailed, "failed to read entry HTML",
			&model.TemplateReadError{Path: plan.EntryHTML, Err: err})
	}

	out, err := htmlrewrite.Rewrite(string(data), plan.Rewrites)
	if err != nil {
		return model.WrapCLIError(model.ExitManifestError, "invalid rewrite rules", err)
	}

	for _, token := range htmlrewrite.Remaining(out, plan.Rewrites) {
		Logger().Warn("Entry HTML still references a development URL", "token", token)
	}

	_, _ = fmt.Fprint(w, out)
	return nil
}
