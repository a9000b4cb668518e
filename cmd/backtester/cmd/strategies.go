package cmd

import (
	"fmt"

	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/strategies"
	"github.com/spf13/cobra"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List registered strategies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range strategies.Names() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Write a default config file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInitConfig,
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
	rootCmd.AddCommand(initConfigCmd)
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	path := args[0]
	if err := config.Default().SaveToFile(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default config to %s\n", path)
	return nil
}
