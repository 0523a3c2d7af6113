package main

import (
	"time"

	"github.com/spf13/cobra"

	classfinder "github.com/Groos-dev/class-finder"
)

var (
	indexPath     string
	indexWatch    bool
	indexInterval time.Duration
)

func init() {
	cmd := newIndexCmd()
	cmd.Flags().StringVar(&indexPath, "path", "", "index this directory instead of the Maven repository")
	cmd.Flags().BoolVar(&indexWatch, "watch", false, "keep running and re-index changed jars periodically")
	cmd.Flags().DurationVar(&indexInterval, "interval", 5*time.Minute, "rescan interval with --watch")
	rootCmd.AddCommand(cmd)
}

func newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Catalog every jar's class list into the registry",
		Long: `The index command walks the repository and records which classes live
in which jars, so later finds can skip the scan. With --watch it stays
up and re-catalogs jars whose modification time changes.

Example:
  class-finder index
  class-finder index --path /opt/artifacts
  class-finder index --watch --interval 1m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd)
		},
	}
}

func runIndex(cmd *cobra.Command) error {
	root := indexPath
	if root == "" {
		var err error
		if root, err = resolveM2Repo(); err != nil {
			return err
		}
	}

	cache, err := openCacheWithInterval(indexInterval)
	if err != nil {
		return err
	}
	defer cache.Close()

	report, err := cache.IndexRepo(root)
	if err != nil {
		return err
	}
	if err := printJSON(report); err != nil {
		return err
	}
	if !indexWatch {
		return nil
	}

	serveMetrics(cache)
	classfinder.NewIncrementalIndexer(cache, root).RunLoop(cmd.Context())
	return nil
}

func openCacheWithInterval(interval time.Duration) (*classfinder.Cache, error) {
	dbPath, err := resolveDBPath()
	if err != nil {
		return nil, err
	}
	opts := classfinder.Options{RescanInterval: interval}
	opts.Logger = newLogger()
	return classfinder.Open(dbPath, opts)
}
