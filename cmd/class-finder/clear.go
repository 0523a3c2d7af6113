package main

import (
	"github.com/spf13/cobra"

	classfinder "github.com/Groos-dev/class-finder"
)

func init() {
	rootCmd.AddCommand(newClearCmd())
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the source cache store and its snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear()
		},
	}
}

func runClear() error {
	dbPath, err := resolveDBPath()
	if err != nil {
		return err
	}
	return classfinder.Clear(dbPath)
}
