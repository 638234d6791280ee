package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Release builds overwrite these through -ldflags; source builds leave
// them empty and the values are recovered from the embedded build info.
var (
	version = ""
	commit  = ""
	date    = ""
)

// buildVersion reports the module version, or "(devel)" for builds
// without version metadata.
func buildVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

// buildCommit reports the short VCS revision the binary was built from.
func buildCommit() string {
	if commit != "" {
		return commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				if len(setting.Value) > 7 {
					return setting.Value[:7]
				}
				return setting.Value
			}
		}
	}
	return "unknown"
}

// buildDate reports when the binary was built.
func buildDate() string {
	if date != "" {
		return date
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.time" {
				return setting.Value
			}
		}
	}
	return "unknown"
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of webcrawl.`,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "webcrawl version %s\n", buildVersion())
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", buildCommit())
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", buildDate())
		},
	}
}
