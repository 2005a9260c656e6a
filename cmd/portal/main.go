package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "portal",
	Short: "TickCom client portal",
	Long: `Serve the TickCom client portal.

If no config file is specified, the portal looks for portal.yaml in the
current directory and ./config. Every key can be overridden with a PORTAL_
environment variable (ADMIN_USERS, PORTAL_COOKIE_KEY and PORTAL_PORT are
also honoured).`,
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to the configuration file (optional)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatalf("Failed to execute command: %v", err)
	}
}
