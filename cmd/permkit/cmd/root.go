// Package cmd provides the CLI commands for permkit.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sentinel-Gate/permkit/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "permkit",
	Short: "permkit - PERM-model access-control enforcer",
	Long: `permkit evaluates access-control decisions against a PERM model
(Policy, Effect, Request, Matcher, optional Role grouping).

Quick start:
  1. Write a model file: model.conf
  2. Write a policy file: policy.csv
  3. Run: permkit enforce --model model.conf --policy policy.csv alice data1 read

Model and policy paths come from each command's --model and --policy flags.
The --config file (./permkit.yaml by default) and PERMKIT_-prefixed
environment variables are registered with Viper, but no command reads
values from them.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./permkit.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
