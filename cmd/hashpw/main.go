package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"tickcom/portal/internal/hashpw"
)

var cost int

var rootCmd = &cobra.Command{
	Use:   "hashpw",
	Short: "Print bcrypt hashes for users.yaml passwords",
	RunE: func(cmd *cobra.Command, args []string) error {
		return hashpw.Run(cmd.OutOrStdout(), int(os.Stdin.Fd()), cost)
	},
}

func init() {
	rootCmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost factor")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatalf("Failed to execute command: %v", err)
	}
}
