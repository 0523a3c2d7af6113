package main

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	classfinder "github.com/Groos-dev/class-finder"
	"github.com/Groos-dev/class-finder/m2"
)

var (
	warmupHot   bool
	warmupGroup string
	warmupTop   int
	warmupLimit int
)

func init() {
	cmd := newWarmupCmd()
	cmd.Flags().BoolVar(&warmupHot, "hot", false, "warm the hottest unwarmed jars instead of a given one")
	cmd.Flags().StringVar(&warmupGroup, "group", "", "warm every jar under this group id")
	cmd.Flags().IntVar(&warmupTop, "top", 20, "how many hot jars to consider with --hot")
	cmd.Flags().IntVar(&warmupLimit, "limit", 0, "cap the number of jars warmed")
	rootCmd.AddCommand(cmd)
}

func newWarmupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "warmup [jar-path]",
		Short: "Bulk-load jars into the source cache",
		Long: `The warmup command loads whole jars ahead of time: a single jar, every
jar under a group id, or the most-accessed jars that were never warmed.

Example:
  class-finder warmup ~/.m2/repository/org/example/demo/1.0/demo-1.0.jar
  class-finder warmup --group org.apache.commons --limit 10
  class-finder warmup --hot --top 5`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWarmup(cmd, args)
		},
	}
}

type loadedJar struct {
	JarPath    string `json:"jar_path"`
	ClassCount uint32 `json:"class_count"`
}

type warmupResult struct {
	Targets    int                       `json:"targets"`
	Succeeded  int                       `json:"succeeded"`
	Failed     int                       `json:"failed"`
	DurationMs int64                     `json:"duration_ms"`
	Loads      []*classfinder.LoadResult `json:"loads"`
	LoadedJars []loadedJar               `json:"loaded_jars"`
}

func runWarmup(cmd *cobra.Command, args []string) error {
	cache, err := openCache(true)
	if err != nil {
		return err
	}
	defer cache.Close()
	serveMetrics(cache)

	start := time.Now()
	targets, err := warmupTargets(cache, args)
	if err != nil {
		return err
	}
	if warmupLimit > 0 && len(targets) > warmupLimit {
		targets = targets[:warmupLimit]
	}

	result := warmupResult{
		Targets:    len(targets),
		Loads:      []*classfinder.LoadResult{},
		LoadedJars: []loadedJar{},
	}
	for _, jarPath := range targets {
		load, err := cache.LoadJar(cmd.Context(), jarPath)
		if err != nil {
			result.Failed++
			continue
		}
		result.Succeeded++
		result.Loads = append(result.Loads, load)
		if !load.Skipped {
			result.LoadedJars = append(result.LoadedJars, loadedJar{
				JarPath:    load.JarPath,
				ClassCount: uint32(load.ClassesLoaded),
			})
		}
	}
	for _, load := range result.Loads {
		if err := cache.CommitLoad(load); err != nil {
			return err
		}
	}
	result.DurationMs = time.Since(start).Milliseconds()
	return printJSON(result)
}

func warmupTargets(cache *classfinder.Cache, args []string) ([]string, error) {
	if warmupHot {
		return cache.TopUnwarmed(warmupTop)
	}
	if warmupGroup != "" {
		repo, err := resolveM2Repo()
		if err != nil {
			return nil, err
		}
		dir := m2.GroupPath(repo, warmupGroup)
		if _, err := os.Stat(dir); err != nil {
			return nil, nil
		}
		return m2.ScanJars(dir), nil
	}
	if len(args) == 1 {
		return []string{args[0]}, nil
	}
	return nil, errors.New("warmup requires a jar path, or use --hot / --group")
}
