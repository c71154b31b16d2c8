package main

import "github.com/spf13/cobra"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tokend",
		Short: "tokend issues, verifies and reissues JWT access credentials",
		Long: `tokend issues short-lived access credentials and long-lived refresh
credentials, keeps one refresh credential per subject in Redis, and reissues
access credentials on demand.`,
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newLoadtestCmd())
	return root
}
