// Package cli: apps.go implements the "mfbundle apps" command.
//
// The apps command lists the sub-apps a build would bundle, whether each
// one's build output is present, and whether its dev server is currently
// running. It answers "why is vanilla-app missing from the bundle?" before
// a build is attempted.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/microfront-bundle/internal/manifest"
	"github.com/shinji-kodama/microfront-bundle/internal/model"
	"github.com/shinji-kodama/microfront-bundle/internal/port"
)

// appsFlags holds the flag values for the apps command.
type appsFlags struct {
	// noProbe skips the dev-server connection check.
	noProbe bool
}

// NewAppsCommand creates the "apps" cobra command.
func NewAppsCommand() *cobra.Command {
	flags := &appsFlags{}

	cmd := &cobra.Command{
		Use:   "apps",
		Short: "List the sub-apps that make up the bundle",
		Long: `List every sub-app from the manifest (or the built-in defaults).

Each sub-app is shown with its build output directory, whether that
directory exists, and whether its dev server currently accepts connections.

Examples:
  mfbundle apps
  mfbundle apps --no-probe
  mfbundle apps --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runApps(cmd.OutOrStdout(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.noProbe, "no-probe", false, "Do not check whether dev servers are running")

	return cmd
}

// appStatus is what the apps command reports for one sub-app.
type appStatus struct {
	Name      string `json:"name"`
	Source    string `json:"source"`
	Target    string `json:"target"`
	Built     bool   `json:"built"`
	DevServer string `json:"devServer,omitempty"`

	// DevServerUp is nil when there is no dev server or probing was skipped.
	DevServerUp *bool `json:"devServerUp,omitempty"`
}

// runApps resolves the plan and collects the status of every sub-app.
func runApps(w io.Writer, flags *appsFlags) error {
	plan, err := loadPlan(nil)
	if err != nil {
		return err
	}

	statuses := collectAppStatus(plan, flags.noProbe, port.NewProber())
	printAppsResult(w, plan, statuses)
	return nil
}

// collectAppStatus checks build output and (unless skipped) dev servers.
func collectAppStatus(plan *model.BuildPlan, noProbe bool, prober *port.Prober) []appStatus {
	addrs := make(map[string]string, len(plan.Apps)) // app name → host:port
	for _, app := range plan.Apps {
		if app.DevServer == "" {
			continue
		}
		// Validation already parsed every dev server URL.
		if addr, err := manifest.DevServerAddress(app.DevServer); err == nil {
			addrs[app.Name] = addr
		}
	}

	var up map[string]bool
	if !noProbe && len(addrs) > 0 {
		list := make([]string, 0, len(addrs))
		for _, addr := range addrs {
			list = append(list, addr)
		}
		up = prober.ListeningSet(list)
		Logger().Debug("Probed dev servers", "count", len(list), "up", len(up))
	}

	statuses := make([]appStatus, 0, len(plan.Apps))
	for _, app := range plan.Apps {
		s := appStatus{
			Name:      app.Name,
			Source:    app.SourceDir,
			Target:    app.TargetDir,
			Built:     isDir(app.SourceDir),
			DevServer: app.DevServer,
		}
		if addr, ok := addrs[app.Name]; ok && up != nil {
			listening := up[addr]
			s.DevServerUp = &listening
		}
		statuses = append(statuses, s)
	}
	return statuses
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// printAppsResult outputs the sub-app list in text or JSON format.
func printAppsResult(w io.Writer, plan *model.BuildPlan, statuses []appStatus) {
	if IsJSONOutput() {
		printAppsResultJSON(w, plan, statuses)
	} else {
		printAppsResultText(w, plan, statuses)
	}
}

func printAppsResultJSON(w io.Writer, plan *model.BuildPlan, statuses []appStatus) {
	type resultJSON struct {
		Root   string      `json:"root"`
		Output string      `json:"output"`
		Apps   []appStatus `json:"apps"`
	}

	data, _ := json.MarshalIndent(resultJSON{
		Root:   plan.RootDir,
		Output: plan.OutputDir,
		Apps:   statuses,
	}, "", "  ")
	_, _ = fmt.Fprintln(w, string(data))
}

// printAppsResultText outputs the sub-app list as an aligned table:
//
//	NAME          BUILT  DEV SERVER                      SOURCE
//	vue-app       yes    http://localhost:3001/ (up)     vue-app/dist
//	vanilla-app   no     http://localhost:3002/ (down)   vanilla-app/dist
func printAppsResultText(w io.Writer, plan *model.BuildPlan, statuses []appStatus) {
	_, _ = fmt.Fprintf(w, "%-20s %-6s %-32s %s\n", "NAME", "BUILT", "DEV SERVER", "SOURCE")

	for _, s := range statuses {
		built := "no"
		if s.Built {
			built = "yes"
		}

		dev := "-"
		if s.DevServer != "" {
			dev = s.DevServer
			if s.DevServerUp != nil {
				if *s.DevServerUp {
					dev += " (up)"
				} else {
					dev += " (down)"
				}
			}
		}

		_, _ = fmt.Fprintf(w, "%-20s %-6s %-32s %s\n", s.Name, built, dev, relativeTo(plan.RootDir, s.Source))
	}
}
