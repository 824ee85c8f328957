package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/nalibo/nalibopath/internal/app"
)

// version is set via -ldflags at build time.
var version = ""

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build and release notes versions",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "nalibo %s\n", buildVersion())
		fmt.Fprintf(out, "release notes %s\n", app.NotesVersion)
	},
}

// buildVersion falls back to the module version recorded by go install.
func buildVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}
