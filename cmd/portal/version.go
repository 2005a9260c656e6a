package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = ""

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		v, commit := buildInfo()
		fmt.Fprintf(cmd.OutOrStdout(), "TickCom portal %s", v)
		if commit != "" {
			if len(commit) > 8 {
				commit = commit[:8]
			}
			fmt.Fprintf(cmd.OutOrStdout(), " (git: %s)", commit)
		}
		fmt.Fprintln(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func buildInfo() (string, string) {
	v := version
	var commit string
	if info, ok := debug.ReadBuildInfo(); ok {
		if v == "" {
			v = info.Main.Version
		}
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				commit = s.Value
			}
		}
	}
	if v == "" {
		v = "(devel)"
	}
	return v, commit
}
