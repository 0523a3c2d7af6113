package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newLoadCmd())
}

func newLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <jar-path>",
		Short: "Decompile a whole jar into the source cache",
		Long: `The load command decompiles every class in the jar and caches the
result, then marks the jar loaded so the next load skips it.

Example:
  class-finder load ~/.m2/repository/org/example/demo/1.0/demo-1.0.jar`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, args)
		},
	}
}

func runLoad(cmd *cobra.Command, args []string) error {
	cache, err := openCache(true)
	if err != nil {
		return err
	}
	defer cache.Close()

	load, err := cache.LoadJar(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := cache.CommitLoad(load); err != nil {
		return err
	}
	return printJSON(load)
}
