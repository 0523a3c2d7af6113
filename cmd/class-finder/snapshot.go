package main

import (
	"github.com/spf13/cobra"

	classfinder "github.com/Groos-dev/class-finder"
)

func init() {
	rootCmd.AddCommand(newSnapshotCmd())
}

func newSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Publish a point-in-time copy of the store",
		Long: `The snapshot command checkpoints the store into a sibling directory
that other tools can open read-only while this cache stays live.

Example:
  class-finder snapshot`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot()
		},
	}
}

func runSnapshot() error {
	cache, err := openCache(false)
	if err != nil {
		return err
	}
	defer cache.Close()

	if err := cache.PublishSnapshot(); err != nil {
		return err
	}
	return printJSON(struct {
		SnapshotPath string `json:"snapshot_path"`
	}{SnapshotPath: classfinder.SnapshotPath(cache.Directory())})
}
